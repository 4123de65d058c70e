package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"promptcoach/internal/metrics"

	"google.golang.org/genai"
)

const defaultGeminiModel = "gemini-2.5-flash"

// GenerateRequest is one call to the generative endpoint. Structured asks for
// a JSON response body.
type GenerateRequest struct {
	Prompt     string
	System     string
	Structured bool
}

// Gateway is the generative endpoint every component talks to.
type Gateway interface {
	Generate(ctx context.Context, req GenerateRequest) (string, error)
}

type GeminiOptions struct {
	APIKey     string
	Model      string
	BaseURL    string
	HTTPClient *http.Client
}

// GeminiGateway implements Gateway on top of the genai SDK.
type GeminiGateway struct {
	client  *genai.Client
	model   string
	metrics *metrics.Recorder
}

// NewGeminiGateway builds the gateway. An empty API key yields a gateway whose
// calls all fail with ErrConfiguration.
func NewGeminiGateway(ctx context.Context, opts GeminiOptions, rec *metrics.Recorder) (*GeminiGateway, error) {
	model := opts.Model
	if model == "" {
		model = defaultGeminiModel
	}
	g := &GeminiGateway{model: model, metrics: rec}
	if opts.APIKey == "" {
		return g, nil
	}

	config := &genai.ClientConfig{
		APIKey:     opts.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: opts.HTTPClient,
	}
	if opts.BaseURL != "" {
		config.HTTPOptions = genai.HTTPOptions{BaseURL: opts.BaseURL}
	}
	client, err := genai.NewClient(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	g.client = client
	return g, nil
}

func (g *GeminiGateway) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	if g.client == nil {
		return "", ErrConfiguration
	}

	started := time.Now()
	text, err := g.generate(ctx, req)
	g.metrics.ObserveGateway(req.Structured, started, err)
	return text, err
}

func (g *GeminiGateway) generate(ctx context.Context, req GenerateRequest) (string, error) {
	config := &genai.GenerateContentConfig{}
	if req.System != "" {
		config.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	if req.Structured {
		config.ResponseMIMEType = "application/json"
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(req.Prompt), config)
	if err != nil {
		return "", translateGeminiError(err)
	}
	if len(resp.Candidates) == 0 {
		return "", &GatewayError{Message: "no candidates in gateway response"}
	}

	text := resp.Text()
	if text == "" {
		return "", &GatewayError{Message: "empty response from gateway"}
	}
	if req.Structured {
		text = cleanModelOutput(text)
	}
	return text, nil
}

// translateGeminiError keeps the provider's message when it sent one.
func translateGeminiError(err error) error {
	var apiErr genai.APIError
	var apiErrPtr *genai.APIError
	switch {
	case errors.As(err, &apiErr):
	case errors.As(err, &apiErrPtr) && apiErrPtr != nil:
		apiErr = *apiErrPtr
	default:
		return &GatewayError{Message: err.Error(), Err: err}
	}

	msg := apiErr.Message
	if msg == "" {
		msg = fmt.Sprintf("Error %d: %s", apiErr.Code, http.StatusText(apiErr.Code))
	}
	return &GatewayError{StatusCode: apiErr.Code, Message: msg, Err: err}
}

func cleanModelOutput(text string) string {
	cleaned := strings.TrimSpace(text)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```JSON")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	return strings.TrimSpace(cleaned)
}

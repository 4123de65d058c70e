package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"promptcoach/internal/metrics"
	"promptcoach/models"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// HistoryStore is the append-only per-owner record of completed rounds.
type HistoryStore interface {
	Append(ctx context.Context, owner models.Owner, sub models.Submission) (models.Submission, error)
	List(ctx context.Context, owner models.Owner) ([]models.Submission, error)
}

// HistoryNotifier tells live subscribers that an owner's history changed.
type HistoryNotifier interface {
	Notify(ctx context.Context, owner models.Owner) error
}

// EvaluateInput is one trainee submission. A zero Owner skips persistence.
type EvaluateInput struct {
	Owner       models.Owner
	Role        models.Role
	Scenario    string
	Instruction string
}

// CoachService simulates, scores and improves a trainee instruction.
type CoachService struct {
	gateway  Gateway
	prompts  PromptSet
	history  HistoryStore
	notifier HistoryNotifier
	metrics  *metrics.Recorder
	log      zerolog.Logger
}

type CoachOption func(*CoachService)

func WithHistory(store HistoryStore) CoachOption {
	return func(s *CoachService) { s.history = store }
}

func WithNotifier(n HistoryNotifier) CoachOption {
	return func(s *CoachService) { s.notifier = n }
}

func WithMetrics(rec *metrics.Recorder) CoachOption {
	return func(s *CoachService) { s.metrics = rec }
}

func NewCoachService(gateway Gateway, prompts PromptSet, log zerolog.Logger, opts ...CoachOption) *CoachService {
	s := &CoachService{
		gateway: gateway,
		prompts: prompts,
		log:     log.With().Str("component", "coach").Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Evaluate runs the literal simulation and the scoring call concurrently,
// then simulates the improved instruction. Any gateway or parse failure
// aborts the round. A successful round is persisted for identified owners;
// a persistence failure is logged and the result is still returned.
func (s *CoachService) Evaluate(ctx context.Context, in EvaluateInput) (*models.EvaluationResult, error) {
	if strings.TrimSpace(in.Instruction) == "" {
		return nil, ErrEmptyInstruction
	}

	result, err := s.evaluate(ctx, in)
	if err != nil {
		s.metrics.ObserveEvaluation(0, err)
		s.log.Warn().Err(err).Str("role", in.Role.ID).Msg("evaluation failed")
		return nil, err
	}
	s.metrics.ObserveEvaluation(result.Coach.Score, nil)

	// The round is complete; finish the write even if the caller went away.
	result.Submission = s.persist(context.WithoutCancel(ctx), in, result.Coach)
	return result, nil
}

func (s *CoachService) evaluate(ctx context.Context, in EvaluateInput) (*models.EvaluationResult, error) {
	var (
		simulated string
		coach     models.CoachEvaluation
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		out, err := s.gateway.Generate(gctx, GenerateRequest{
			Prompt: in.Instruction,
			System: s.prompts.SimulationSystem(in.Scenario),
		})
		if err != nil {
			return fmt.Errorf("simulate instruction: %w", err)
		}
		simulated = out
		return nil
	})
	g.Go(func() error {
		out, err := s.gateway.Generate(gctx, GenerateRequest{
			Prompt:     s.prompts.CoachPrompt(in.Scenario, in.Instruction),
			System:     s.prompts.CoachSystem,
			Structured: true,
		})
		if err != nil {
			return fmt.Errorf("score instruction: %w", err)
		}
		coach, err = ParseCoachEvaluation(out)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	improved, err := s.gateway.Generate(ctx, GenerateRequest{
		Prompt: coach.ImprovedPrompt,
		System: s.prompts.ImprovedSystem(in.Scenario),
	})
	if err != nil {
		return nil, fmt.Errorf("simulate improved instruction: %w", err)
	}

	return &models.EvaluationResult{
		UserResponse:     simulated,
		Coach:            coach,
		ImprovedResponse: improved,
	}, nil
}

func (s *CoachService) persist(ctx context.Context, in EvaluateInput, coach models.CoachEvaluation) *models.Submission {
	if s.history == nil || !in.Owner.Valid() {
		return nil
	}

	saved, err := s.history.Append(ctx, in.Owner, models.Submission{
		Tenant:        in.Owner.Tenant,
		UserID:        in.Owner.UserID,
		Role:          in.Role.Label,
		Scenario:      in.Scenario,
		UserPrompt:    in.Instruction,
		CoachData:     coach,
		PromptVersion: s.prompts.Version,
	})
	s.metrics.ObserveHistoryWrite(err)
	if err != nil {
		s.log.Error().Err(err).
			Str("tenant", in.Owner.Tenant).
			Str("user", in.Owner.UserID).
			Msg("failed to save submission")
		return nil
	}

	if s.notifier != nil {
		if err := s.notifier.Notify(ctx, in.Owner); err != nil {
			s.log.Warn().Err(err).Str("user", in.Owner.UserID).Msg("history notify failed")
		}
	}
	return &saved
}

// coachPayload uses pointers so absent fields can be told apart from zero values.
type coachPayload struct {
	Score          *float64 `json:"score"`
	Critique       *string  `json:"critique"`
	ImprovedPrompt *string  `json:"improved_prompt"`
	Explanation    *string  `json:"explanation"`
}

// ParseCoachEvaluation decodes the scoring response. All four fields must be
// present and the improved prompt must be non-blank, since it is simulated next.
func ParseCoachEvaluation(raw string) (models.CoachEvaluation, error) {
	var p coachPayload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return models.CoachEvaluation{}, fmt.Errorf("%w: %v", ErrEvaluationParse, err)
	}

	var missing []string
	if p.Score == nil {
		missing = append(missing, "score")
	}
	if p.Critique == nil {
		missing = append(missing, "critique")
	}
	if p.ImprovedPrompt == nil || strings.TrimSpace(*p.ImprovedPrompt) == "" {
		missing = append(missing, "improved_prompt")
	}
	if p.Explanation == nil {
		missing = append(missing, "explanation")
	}
	if len(missing) > 0 {
		return models.CoachEvaluation{}, fmt.Errorf("%w: missing %s", ErrEvaluationParse, strings.Join(missing, ", "))
	}

	return models.CoachEvaluation{
		Score:          *p.Score,
		Critique:       *p.Critique,
		ImprovedPrompt: *p.ImprovedPrompt,
		Explanation:    *p.Explanation,
	}, nil
}

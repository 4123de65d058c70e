package services

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// ScenarioService asks the gateway for one training scenario per round.
type ScenarioService struct {
	gateway Gateway
	roles   *RoleCatalog
	prompts PromptSet
	log     zerolog.Logger
}

func NewScenarioService(gateway Gateway, roles *RoleCatalog, prompts PromptSet, log zerolog.Logger) *ScenarioService {
	return &ScenarioService{
		gateway: gateway,
		roles:   roles,
		prompts: prompts,
		log:     log.With().Str("component", "scenario").Logger(),
	}
}

// Generate returns the scenario markdown for roleID as the gateway wrote it.
// The four sections are requested but not checked.
func (s *ScenarioService) Generate(ctx context.Context, roleID string) (string, error) {
	role, err := s.roles.Get(roleID)
	if err != nil {
		return "", fmt.Errorf("%w: %q", err, roleID)
	}

	text, err := s.gateway.Generate(ctx, GenerateRequest{
		Prompt: s.prompts.ScenarioRequest,
		System: s.prompts.ScenarioSystem(role.Persona, role.Topics),
	})
	if err != nil {
		s.log.Warn().Err(err).Str("role", role.ID).Msg("scenario generation failed")
		return "", fmt.Errorf("%w: %w", ErrGenerationFailed, err)
	}

	s.log.Debug().Str("role", role.ID).Int("chars", len(text)).Msg("scenario generated")
	return text, nil
}

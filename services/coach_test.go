package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"promptcoach/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const supportScore = `{"score": 42, "critique": "No definiste un rol para la IA", "improved_prompt": "Actúa como agente de soporte...", "explanation": "..."}`

var testOwner = models.Owner{Tenant: "prompt-coach-v1", UserID: "u-1"}

func supportRole(t *testing.T) models.Role {
	t.Helper()
	role, err := NewRoleCatalog(DefaultRoles()).Get("support")
	require.NoError(t, err)
	return role
}

func happyGateway() *fakeGateway {
	return newFakeGateway().
		reply(kindSimulate, "respuesta literal").
		reply(kindScore, supportScore).
		reply(kindImproved, "respuesta mejorada")
}

func TestEvaluateSupportEndToEnd(t *testing.T) {
	gw := happyGateway()
	history := &memoryHistory{}
	svc := NewCoachService(gw, DefaultPrompts(""), zerolog.Nop(), WithHistory(history))

	res, err := svc.Evaluate(context.Background(), EvaluateInput{
		Owner:       testOwner,
		Role:        supportRole(t),
		Scenario:    "### Contexto\nUn correo rebota.",
		Instruction: "respondé al cliente",
	})
	require.NoError(t, err)

	assert.Equal(t, 42.0, res.Coach.Score)
	assert.Equal(t, "No definiste un rol para la IA", res.Coach.Critique)
	assert.Equal(t, "respuesta literal", res.UserResponse)
	assert.Equal(t, "respuesta mejorada", res.ImprovedResponse)

	improved := gw.callsOf(kindImproved)
	require.Len(t, improved, 1)
	assert.Equal(t, "Actúa como agente de soporte...", improved[0].Prompt)
	assert.Contains(t, improved[0].System, "Un correo rebota.")
	assert.NotContains(t, improved[0].System, "LITERALIDAD")

	sim := gw.callsOf(kindSimulate)
	require.Len(t, sim, 1)
	assert.Equal(t, "respondé al cliente", sim[0].Prompt)
	assert.Contains(t, sim[0].System, "Un correo rebota.")

	score := gw.callsOf(kindScore)
	require.Len(t, score, 1)
	assert.Contains(t, score[0].Prompt, `"respondé al cliente"`)
	assert.Contains(t, score[0].Prompt, "FORMATO DE SALIDA")
	assert.Equal(t, 3, gw.callCount())
}

func TestEvaluateImprovedWaitsForScore(t *testing.T) {
	release := make(chan struct{})
	gw := happyGateway().on(kindScore, func(GenerateRequest) (string, error) {
		<-release
		return supportScore, nil
	})
	svc := NewCoachService(gw, DefaultPrompts(""), zerolog.Nop())
	role := supportRole(t)

	done := make(chan error, 1)
	go func() {
		_, err := svc.Evaluate(context.Background(), EvaluateInput{
			Role: role, Scenario: "s", Instruction: "hazlo",
		})
		done <- err
	}()

	require.Eventually(t, func() bool { return gw.eventIndex("simulate:end") >= 0 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, -1, gw.eventIndex("improved:start"))

	close(release)
	require.NoError(t, <-done)
	assert.Greater(t, gw.eventIndex("improved:start"), gw.eventIndex("score:end"))
}

func TestEvaluateRunsSimulationAndScoreConcurrently(t *testing.T) {
	started := make(chan struct{}, 2)
	both := make(chan struct{})
	wait := func(out string) func(GenerateRequest) (string, error) {
		return func(GenerateRequest) (string, error) {
			started <- struct{}{}
			<-both
			return out, nil
		}
	}
	gw := happyGateway().on(kindSimulate, wait("literal")).on(kindScore, wait(supportScore))
	svc := NewCoachService(gw, DefaultPrompts(""), zerolog.Nop())
	role := supportRole(t)

	done := make(chan error, 1)
	go func() {
		_, err := svc.Evaluate(context.Background(), EvaluateInput{Role: role, Scenario: "s", Instruction: "x"})
		done <- err
	}()

	for i := 0; i < 2; i++ {
		select {
		case <-started:
		case <-time.After(time.Second):
			t.Fatal("simulation and scoring did not run concurrently")
		}
	}
	close(both)
	require.NoError(t, <-done)
}

func TestEvaluateMissingFieldIsParseError(t *testing.T) {
	payloads := map[string]string{
		"score":           `{"critique": "c", "improved_prompt": "p", "explanation": "e"}`,
		"critique":        `{"score": 1, "improved_prompt": "p", "explanation": "e"}`,
		"improved_prompt": `{"score": 1, "critique": "c", "explanation": "e"}`,
		"explanation":     `{"score": 1, "critique": "c", "improved_prompt": "p"}`,
	}
	for field, payload := range payloads {
		t.Run(field, func(t *testing.T) {
			gw := happyGateway().reply(kindScore, payload)
			history := &memoryHistory{}
			svc := NewCoachService(gw, DefaultPrompts(""), zerolog.Nop(), WithHistory(history))

			_, err := svc.Evaluate(context.Background(), EvaluateInput{
				Owner: testOwner, Role: supportRole(t), Scenario: "s", Instruction: "x",
			})
			require.ErrorIs(t, err, ErrEvaluationParse)
			assert.Contains(t, err.Error(), field)
			assert.Zero(t, history.count())
			assert.Empty(t, gw.callsOf(kindImproved))
		})
	}
}

func TestEvaluateNonJSONIsParseError(t *testing.T) {
	gw := happyGateway().reply(kindScore, "Puntaje: 42")
	svc := NewCoachService(gw, DefaultPrompts(""), zerolog.Nop())

	_, err := svc.Evaluate(context.Background(), EvaluateInput{Role: supportRole(t), Scenario: "s", Instruction: "x"})
	assert.ErrorIs(t, err, ErrEvaluationParse)
}

func TestEvaluateSimulationFailureAborts(t *testing.T) {
	gw := happyGateway().on(kindSimulate, func(GenerateRequest) (string, error) {
		return "", &GatewayError{StatusCode: 500, Message: "internal"}
	})
	history := &memoryHistory{}
	svc := NewCoachService(gw, DefaultPrompts(""), zerolog.Nop(), WithHistory(history))

	res, err := svc.Evaluate(context.Background(), EvaluateInput{
		Owner: testOwner, Role: supportRole(t), Scenario: "s", Instruction: "x",
	})
	assert.Nil(t, res)
	var gwErr *GatewayError
	require.True(t, errors.As(err, &gwErr))
	assert.Equal(t, "internal", gwErr.Message)
	assert.Zero(t, history.count())
	assert.Empty(t, gw.callsOf(kindImproved))
}

func TestEvaluateImprovedFailureAborts(t *testing.T) {
	gw := happyGateway().on(kindImproved, func(GenerateRequest) (string, error) {
		return "", errors.New("connection reset")
	})
	history := &memoryHistory{}
	svc := NewCoachService(gw, DefaultPrompts(""), zerolog.Nop(), WithHistory(history))

	_, err := svc.Evaluate(context.Background(), EvaluateInput{
		Owner: testOwner, Role: supportRole(t), Scenario: "s", Instruction: "x",
	})
	assert.ErrorContains(t, err, "connection reset")
	assert.Zero(t, history.count())
}

func TestEvaluatePersistsOnceForIdentifiedOwner(t *testing.T) {
	history := &memoryHistory{}
	notifier := &countingNotifier{}
	svc := NewCoachService(happyGateway(), DefaultPrompts(""), zerolog.Nop(),
		WithHistory(history), WithNotifier(notifier))
	role := supportRole(t)

	res, err := svc.Evaluate(context.Background(), EvaluateInput{
		Owner: testOwner, Role: role, Scenario: "escenario", Instruction: "mi prompt",
	})
	require.NoError(t, err)

	require.Equal(t, 1, history.count())
	saved := history.entries[0]
	assert.Equal(t, 42.0, saved.CoachData.Score)
	assert.Equal(t, role.Label, saved.Role)
	assert.Equal(t, "escenario", saved.Scenario)
	assert.Equal(t, "mi prompt", saved.UserPrompt)
	assert.Equal(t, testOwner.UserID, saved.UserID)
	assert.Equal(t, "v1", saved.PromptVersion)
	require.NotNil(t, res.Submission)
	assert.Equal(t, []models.Owner{testOwner}, notifier.owners)
}

func TestEvaluateWithoutIdentitySkipsPersistence(t *testing.T) {
	history := &memoryHistory{}
	svc := NewCoachService(happyGateway(), DefaultPrompts(""), zerolog.Nop(), WithHistory(history))

	res, err := svc.Evaluate(context.Background(), EvaluateInput{
		Role: supportRole(t), Scenario: "s", Instruction: "x",
	})
	require.NoError(t, err)
	assert.Equal(t, "respuesta mejorada", res.ImprovedResponse)
	assert.Nil(t, res.Submission)
	assert.Zero(t, history.count())
}

func TestEvaluatePersistenceFailureKeepsResult(t *testing.T) {
	history := &memoryHistory{err: errors.New("mongo down")}
	svc := NewCoachService(happyGateway(), DefaultPrompts(""), zerolog.Nop(), WithHistory(history))

	res, err := svc.Evaluate(context.Background(), EvaluateInput{
		Owner: testOwner, Role: supportRole(t), Scenario: "s", Instruction: "x",
	})
	require.NoError(t, err)
	assert.Equal(t, 42.0, res.Coach.Score)
	assert.Nil(t, res.Submission)
}

func TestEvaluateEmptyInstructionIsNoop(t *testing.T) {
	gw := happyGateway()
	svc := NewCoachService(gw, DefaultPrompts(""), zerolog.Nop())

	_, err := svc.Evaluate(context.Background(), EvaluateInput{Role: supportRole(t), Scenario: "s", Instruction: "  \n"})
	assert.ErrorIs(t, err, ErrEmptyInstruction)
	assert.Zero(t, gw.callCount())
}

func TestParseCoachEvaluationShape(t *testing.T) {
	ev, err := ParseCoachEvaluation(`{"score": 87.5, "critique": "", "improved_prompt": "p", "explanation": "e", "extra": true}`)
	require.NoError(t, err)
	assert.Equal(t, 87.5, ev.Score)
	assert.Empty(t, ev.Critique)

	_, err = ParseCoachEvaluation(`{"score": "42", "critique": "c", "improved_prompt": "p", "explanation": "e"}`)
	assert.ErrorIs(t, err, ErrEvaluationParse)

	_, err = ParseCoachEvaluation(`{"score": 1, "critique": "c", "improved_prompt": "   ", "explanation": "e"}`)
	assert.ErrorIs(t, err, ErrEvaluationParse)
}

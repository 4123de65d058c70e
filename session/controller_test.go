package session

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"promptcoach/models"
	"promptcoach/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var owner = models.Owner{Tenant: "prompt-coach-v1", UserID: "u-1"}

type generatorFunc func(ctx context.Context, roleID string) (string, error)

func (f generatorFunc) Generate(ctx context.Context, roleID string) (string, error) {
	return f(ctx, roleID)
}

type evaluatorFunc func(ctx context.Context, in services.EvaluateInput) (*models.EvaluationResult, error)

func (f evaluatorFunc) Evaluate(ctx context.Context, in services.EvaluateInput) (*models.EvaluationResult, error) {
	return f(ctx, in)
}

func staticScenario(text string) generatorFunc {
	return func(context.Context, string) (string, error) { return text, nil }
}

func newTestController(t *testing.T, gen ScenarioGenerator, eval Evaluator) *Controller {
	t.Helper()
	c := NewController(owner, Deps{
		Roles:       services.NewRoleCatalog(services.DefaultRoles()),
		Scenarios:   gen,
		Evaluator:   eval,
		Preferences: NewMemoryPreferences(),
	})
	require.NoError(t, c.Start(context.Background()))
	return c
}

func toDashboard(t *testing.T, c *Controller) {
	t.Helper()
	st, err := c.SetUsername(context.Background(), "Ana")
	require.NoError(t, err)
	require.Equal(t, ViewDashboard, st.View)
}

func TestStartsInSetupWithoutStoredName(t *testing.T) {
	c := newTestController(t, staticScenario("s"), nil)
	assert.Equal(t, ViewSetup, c.State().View)
}

func TestStoredUsernameSkipsSetup(t *testing.T) {
	prefs := NewMemoryPreferences()
	require.NoError(t, prefs.SaveUsername(context.Background(), owner, "Ana"))

	c := NewController(owner, Deps{Preferences: prefs})
	require.NoError(t, c.Start(context.Background()))

	st := c.State()
	assert.Equal(t, ViewDashboard, st.View)
	assert.Equal(t, "Ana", st.Username)
}

func TestSetUsername(t *testing.T) {
	prefs := NewMemoryPreferences()
	c := NewController(owner, Deps{Preferences: prefs})

	st, err := c.SetUsername(context.Background(), "   ")
	require.NoError(t, err)
	assert.Equal(t, ViewSetup, st.View)

	st, err = c.SetUsername(context.Background(), " Ana ")
	require.NoError(t, err)
	assert.Equal(t, ViewDashboard, st.View)
	assert.Equal(t, "Ana", st.Username)

	stored, _ := prefs.LoadUsername(context.Background(), owner)
	assert.Equal(t, "Ana", stored)
}

func TestSelectRoleRequiresDashboard(t *testing.T) {
	c := newTestController(t, staticScenario("s"), nil)
	_, err := c.SelectRole(context.Background(), "sales")
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestSelectRoleUnknown(t *testing.T) {
	c := newTestController(t, staticScenario("s"), nil)
	toDashboard(t, c)
	_, err := c.SelectRole(context.Background(), "ceo")
	assert.ErrorIs(t, err, services.ErrInvalidRole)
	assert.Equal(t, ViewDashboard, c.State().View)
}

func TestFullRound(t *testing.T) {
	var evaluated services.EvaluateInput
	eval := evaluatorFunc(func(_ context.Context, in services.EvaluateInput) (*models.EvaluationResult, error) {
		evaluated = in
		return &models.EvaluationResult{Coach: models.CoachEvaluation{Score: 42}}, nil
	})
	c := newTestController(t, staticScenario("### Contexto"), eval)
	toDashboard(t, c)

	st, err := c.SelectRole(context.Background(), "support")
	require.NoError(t, err)
	assert.Equal(t, ViewArena, st.View)
	assert.Equal(t, "### Contexto", st.Scenario)
	require.NotNil(t, st.Role)
	assert.Equal(t, "support", st.Role.ID)

	st, err = c.Submit(context.Background(), "redactá la respuesta")
	require.NoError(t, err)
	require.NotNil(t, st.Result)
	assert.Equal(t, 42.0, st.Result.Coach.Score)
	assert.False(t, st.Busy)

	assert.Equal(t, owner, evaluated.Owner)
	assert.Equal(t, "### Contexto", evaluated.Scenario)
	assert.Equal(t, "redactá la respuesta", evaluated.Instruction)

	st = c.Reset()
	assert.Equal(t, ViewDashboard, st.View)
	assert.Nil(t, st.Result)
	assert.Empty(t, st.Scenario)
}

func TestSubmitEmptyIsNoop(t *testing.T) {
	var calls atomic.Int32
	eval := evaluatorFunc(func(context.Context, services.EvaluateInput) (*models.EvaluationResult, error) {
		calls.Add(1)
		return &models.EvaluationResult{}, nil
	})
	c := newTestController(t, staticScenario("s"), eval)
	toDashboard(t, c)
	_, err := c.SelectRole(context.Background(), "dev")
	require.NoError(t, err)

	st, err := c.Submit(context.Background(), " \t")
	require.NoError(t, err)
	assert.Nil(t, st.Result)
	assert.Zero(t, calls.Load())
}

func TestSubmitOutsideArena(t *testing.T) {
	c := newTestController(t, staticScenario("s"), nil)
	toDashboard(t, c)
	_, err := c.Submit(context.Background(), "hola")
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestGenerationFailureStaysInArena(t *testing.T) {
	gen := generatorFunc(func(context.Context, string) (string, error) {
		return "", services.ErrGenerationFailed
	})
	c := newTestController(t, gen, nil)
	toDashboard(t, c)

	st, err := c.SelectRole(context.Background(), "sales")
	assert.ErrorIs(t, err, services.ErrGenerationFailed)
	assert.Equal(t, ViewArena, st.View)
	assert.Empty(t, st.Scenario)
	assert.False(t, st.Busy)

	_, err = c.Submit(context.Background(), "hola")
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestResetDiscardsLateScenario(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	gen := generatorFunc(func(context.Context, string) (string, error) {
		close(entered)
		<-release
		return "late scenario", nil
	})
	c := newTestController(t, gen, nil)
	toDashboard(t, c)

	errc := make(chan error, 1)
	go func() {
		_, err := c.SelectRole(context.Background(), "marketing")
		errc <- err
	}()
	<-entered
	assert.True(t, c.State().Busy)

	st := c.Reset()
	assert.Equal(t, ViewDashboard, st.View)
	close(release)

	assert.ErrorIs(t, <-errc, ErrStaleRound)
	st = c.State()
	assert.Equal(t, ViewDashboard, st.View)
	assert.Empty(t, st.Scenario)
}

func TestResetCancelsInFlightEvaluation(t *testing.T) {
	entered := make(chan struct{})
	eval := evaluatorFunc(func(ctx context.Context, _ services.EvaluateInput) (*models.EvaluationResult, error) {
		close(entered)
		<-ctx.Done()
		return nil, ctx.Err()
	})
	c := newTestController(t, staticScenario("s"), eval)
	toDashboard(t, c)
	_, err := c.SelectRole(context.Background(), "support")
	require.NoError(t, err)

	errc := make(chan error, 1)
	go func() {
		_, err := c.Submit(context.Background(), "hola")
		errc <- err
	}()
	<-entered
	c.Reset()

	select {
	case err := <-errc:
		assert.ErrorIs(t, err, ErrStaleRound)
	case <-time.After(time.Second):
		t.Fatal("evaluation was not cancelled by reset")
	}
	assert.Nil(t, c.State().Result)
}

func TestNewRoleSupersedesRunningRound(t *testing.T) {
	first := make(chan struct{})
	release := make(chan struct{})
	gen := generatorFunc(func(_ context.Context, roleID string) (string, error) {
		if roleID == "sales" {
			close(first)
			<-release
			return "stale", nil
		}
		return "fresh", nil
	})
	c := newTestController(t, gen, nil)
	toDashboard(t, c)

	errc := make(chan error, 1)
	go func() {
		_, err := c.SelectRole(context.Background(), "sales")
		errc <- err
	}()
	<-first

	st, err := c.SelectRole(context.Background(), "dev")
	require.NoError(t, err)
	assert.Equal(t, "fresh", st.Scenario)

	close(release)
	assert.ErrorIs(t, <-errc, ErrStaleRound)
	assert.Equal(t, "fresh", c.State().Scenario)
	assert.Equal(t, "dev", c.State().Role.ID)
}

func TestSubmitWhileBusy(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	eval := evaluatorFunc(func(context.Context, services.EvaluateInput) (*models.EvaluationResult, error) {
		close(entered)
		<-release
		return &models.EvaluationResult{}, nil
	})
	c := newTestController(t, staticScenario("s"), eval)
	toDashboard(t, c)
	_, err := c.SelectRole(context.Background(), "support")
	require.NoError(t, err)

	errc := make(chan error, 1)
	go func() {
		_, err := c.Submit(context.Background(), "uno")
		errc <- err
	}()
	<-entered

	_, err = c.Submit(context.Background(), "dos")
	assert.ErrorIs(t, err, ErrBusy)

	close(release)
	assert.NoError(t, <-errc)
}

func TestEvaluationErrorKeepsScenario(t *testing.T) {
	eval := evaluatorFunc(func(context.Context, services.EvaluateInput) (*models.EvaluationResult, error) {
		return nil, errors.New("gateway down")
	})
	c := newTestController(t, staticScenario("s"), eval)
	toDashboard(t, c)
	_, err := c.SelectRole(context.Background(), "support")
	require.NoError(t, err)

	st, err := c.Submit(context.Background(), "hola")
	assert.EqualError(t, err, "gateway down")
	assert.Equal(t, "s", st.Scenario)
	assert.Nil(t, st.Result)
	assert.False(t, st.Busy)
}

func TestManagerReusesController(t *testing.T) {
	prefs := NewMemoryPreferences()
	require.NoError(t, prefs.SaveUsername(context.Background(), owner, "Ana"))
	m := NewManager(Deps{Preferences: prefs})

	a, err := m.Get(context.Background(), owner)
	require.NoError(t, err)
	b, err := m.Get(context.Background(), owner)
	require.NoError(t, err)
	assert.Same(t, a, b)
	assert.Equal(t, ViewDashboard, a.State().View)

	other, err := m.Get(context.Background(), models.Owner{Tenant: owner.Tenant, UserID: "u-2"})
	require.NoError(t, err)
	assert.NotSame(t, a, other)
	assert.Equal(t, ViewSetup, other.State().View)
}

// Package session drives the setup -> dashboard -> arena flow for one
// identity and owns that identity's mutable round state.
package session

import (
	"context"
	"errors"
	"strings"
	"sync"

	"promptcoach/models"
	"promptcoach/services"
)

type View string

const (
	ViewSetup     View = "setup"
	ViewDashboard View = "dashboard"
	ViewArena     View = "arena"
)

var (
	ErrInvalidTransition = errors.New("action not allowed in the current view")
	ErrBusy              = errors.New("a request for this round is already running")

	// ErrStaleRound is returned when the round that issued a request ended
	// before the response arrived. The response is dropped.
	ErrStaleRound = errors.New("round ended before the response arrived")
)

type ScenarioGenerator interface {
	Generate(ctx context.Context, roleID string) (string, error)
}

type Evaluator interface {
	Evaluate(ctx context.Context, in services.EvaluateInput) (*models.EvaluationResult, error)
}

type RoleLookup interface {
	Get(id string) (models.Role, error)
}

// Deps are the collaborators a Controller dispatches to.
type Deps struct {
	Roles       RoleLookup
	Scenarios   ScenarioGenerator
	Evaluator   Evaluator
	Preferences PreferenceStore
}

// State is a copy of the session as the presentation layer sees it.
type State struct {
	View        View                     `json:"view"`
	Username    string                   `json:"username,omitempty"`
	Role        *models.Role             `json:"role,omitempty"`
	Scenario    string                   `json:"scenario,omitempty"`
	Instruction string                   `json:"userPrompt,omitempty"`
	Result      *models.EvaluationResult `json:"result,omitempty"`
	Busy        bool                     `json:"busy"`
}

// Controller is safe for concurrent use. Gateway calls run outside the lock;
// every result is checked against the round that requested it.
type Controller struct {
	owner models.Owner
	deps  Deps

	mu     sync.Mutex
	state  State
	round  uint64
	cancel context.CancelFunc
}

func NewController(owner models.Owner, deps Deps) *Controller {
	return &Controller{
		owner: owner,
		deps:  deps,
		state: State{View: ViewSetup},
	}
}

// Start restores a stored username, skipping the setup view.
func (c *Controller) Start(ctx context.Context) error {
	if c.deps.Preferences == nil {
		return nil
	}
	name, err := c.deps.Preferences.LoadUsername(ctx, c.owner)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if name = strings.TrimSpace(name); name != "" {
		c.state.Username = name
		if c.state.View == ViewSetup {
			c.state.View = ViewDashboard
		}
	}
	return nil
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot()
}

// SetUsername records the trainee's name. A blank name is ignored.
func (c *Controller) SetUsername(ctx context.Context, name string) (State, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return c.State(), nil
	}
	if c.deps.Preferences != nil {
		if err := c.deps.Preferences.SaveUsername(ctx, c.owner, name); err != nil {
			return c.State(), err
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Username = name
	if c.state.View == ViewSetup {
		c.state.View = ViewDashboard
	}
	return c.snapshot(), nil
}

// SelectRole opens a new round in the arena and generates its scenario.
func (c *Controller) SelectRole(ctx context.Context, roleID string) (State, error) {
	role, err := c.deps.Roles.Get(roleID)
	if err != nil {
		return c.State(), err
	}

	c.mu.Lock()
	if c.state.View == ViewSetup {
		c.mu.Unlock()
		return c.State(), ErrInvalidTransition
	}
	c.endRoundLocked()
	c.state.View = ViewArena
	c.state.Role = &role
	c.state.Busy = true
	token := c.round
	opCtx := c.trackLocked(ctx)
	c.mu.Unlock()

	scenario, err := c.deps.Scenarios.Generate(opCtx, role.ID)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.round != token {
		return c.snapshot(), ErrStaleRound
	}
	c.finishLocked()
	if err != nil {
		return c.snapshot(), err
	}
	c.state.Scenario = scenario
	return c.snapshot(), nil
}

// Submit evaluates an instruction against the active scenario. A blank
// instruction is a no-op.
func (c *Controller) Submit(ctx context.Context, instruction string) (State, error) {
	if strings.TrimSpace(instruction) == "" {
		return c.State(), nil
	}

	c.mu.Lock()
	if c.state.View != ViewArena || c.state.Scenario == "" || c.state.Role == nil {
		c.mu.Unlock()
		return c.State(), ErrInvalidTransition
	}
	if c.state.Busy {
		c.mu.Unlock()
		return c.State(), ErrBusy
	}
	c.state.Instruction = instruction
	c.state.Result = nil
	c.state.Busy = true
	in := services.EvaluateInput{
		Owner:       c.owner,
		Role:        *c.state.Role,
		Scenario:    c.state.Scenario,
		Instruction: instruction,
	}
	token := c.round
	opCtx := c.trackLocked(ctx)
	c.mu.Unlock()

	result, err := c.deps.Evaluator.Evaluate(opCtx, in)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.round != token {
		return c.snapshot(), ErrStaleRound
	}
	c.finishLocked()
	if err != nil {
		if errors.Is(err, services.ErrEmptyInstruction) {
			return c.snapshot(), nil
		}
		return c.snapshot(), err
	}
	c.state.Result = result
	return c.snapshot(), nil
}

// Reset leaves the arena. In-flight calls of the round are cancelled and any
// late response is discarded.
func (c *Controller) Reset() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.View != ViewArena {
		return c.snapshot()
	}
	c.endRoundLocked()
	c.state.View = ViewDashboard
	return c.snapshot()
}

// endRoundLocked invalidates the current round and clears its state.
func (c *Controller) endRoundLocked() {
	c.round++
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.state.Role = nil
	c.state.Scenario = ""
	c.state.Instruction = ""
	c.state.Result = nil
	c.state.Busy = false
}

func (c *Controller) trackLocked(ctx context.Context) context.Context {
	opCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	return opCtx
}

func (c *Controller) finishLocked() {
	c.state.Busy = false
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

func (c *Controller) snapshot() State {
	s := c.state
	if s.Role != nil {
		role := *s.Role
		s.Role = &role
	}
	return s
}

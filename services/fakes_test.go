package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"promptcoach/models"
)

// callKind classifies a gateway request by the system prompt it carries.
type callKind string

const (
	kindScenario  callKind = "scenario"
	kindSimulate  callKind = "simulate"
	kindScore     callKind = "score"
	kindImproved  callKind = "improved"
	kindUnchecked callKind = "other"
)

func classify(req GenerateRequest) callKind {
	switch {
	case req.Structured:
		return kindScore
	case strings.Contains(req.System, "LITERALIDAD EXTREMA"):
		return kindSimulate
	case strings.HasPrefix(req.System, "Actúa como la herramienta/persona"):
		return kindImproved
	case strings.Contains(req.System, "MICRO-ESCENARIO"):
		return kindScenario
	}
	return kindUnchecked
}

// fakeGateway records calls and the order in which they start and finish.
type fakeGateway struct {
	mu      sync.Mutex
	calls   []GenerateRequest
	events  []string
	respond map[callKind]func(GenerateRequest) (string, error)
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{respond: map[callKind]func(GenerateRequest) (string, error){}}
}

func (f *fakeGateway) on(kind callKind, fn func(GenerateRequest) (string, error)) *fakeGateway {
	f.respond[kind] = fn
	return f
}

func (f *fakeGateway) reply(kind callKind, text string) *fakeGateway {
	return f.on(kind, func(GenerateRequest) (string, error) { return text, nil })
}

func (f *fakeGateway) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	kind := classify(req)
	f.mu.Lock()
	f.calls = append(f.calls, req)
	f.events = append(f.events, string(kind)+":start")
	fn := f.respond[kind]
	f.mu.Unlock()

	out, err := "", errors.New("unexpected gateway call")
	if fn != nil {
		out, err = fn(req)
	}

	f.mu.Lock()
	f.events = append(f.events, string(kind)+":end")
	f.mu.Unlock()
	return out, err
}

func (f *fakeGateway) callsOf(kind callKind) []GenerateRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []GenerateRequest
	for _, c := range f.calls {
		if classify(c) == kind {
			out = append(out, c)
		}
	}
	return out
}

func (f *fakeGateway) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeGateway) eventIndex(event string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, e := range f.events {
		if e == event {
			return i
		}
	}
	return -1
}

type memoryHistory struct {
	mu      sync.Mutex
	entries []models.Submission
	err     error
}

func (m *memoryHistory) Append(_ context.Context, owner models.Owner, sub models.Submission) (models.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return models.Submission{}, m.err
	}
	sub.Timestamp = time.Now()
	m.entries = append(m.entries, sub)
	return sub, nil
}

func (m *memoryHistory) List(_ context.Context, owner models.Owner) ([]models.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Submission
	for i := len(m.entries) - 1; i >= 0; i-- {
		if m.entries[i].UserID == owner.UserID && m.entries[i].Tenant == owner.Tenant {
			out = append(out, m.entries[i])
		}
	}
	return out, nil
}

func (m *memoryHistory) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

type countingNotifier struct {
	mu     sync.Mutex
	owners []models.Owner
}

func (n *countingNotifier) Notify(_ context.Context, owner models.Owner) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.owners = append(n.owners, owner)
	return nil
}

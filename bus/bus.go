// Package bus forwards envelopes to the internal event bus.
//
// Every envelope built for a brand delivery is published once, independent
// of whether the brand accepted it. Publish failures are the caller's to log;
// they never fail a delivery.
package bus

import (
	"context"
	"sync"

	"github.com/xraph/assetsync/event"
)

// ContentTypeCloudEvents marks a structured-mode CloudEvents body.
const ContentTypeCloudEvents = "application/cloudevents+json"

// Publisher sends envelopes to the bus.
type Publisher interface {
	Publish(ctx context.Context, env *event.Envelope) error
	Close() error
}

// Noop discards every envelope.
type Noop struct{}

var _ Publisher = Noop{}

func (Noop) Publish(context.Context, *event.Envelope) error { return nil }
func (Noop) Close() error                                    { return nil }

// Memory keeps published envelopes in memory. It is safe for concurrent use.
type Memory struct {
	mu   sync.Mutex
	envs []*event.Envelope
}

var _ Publisher = (*Memory)(nil)

// NewMemory creates an empty in-memory publisher.
func NewMemory() *Memory { return &Memory{} }

// Publish records a copy of env.
func (m *Memory) Publish(_ context.Context, env *event.Envelope) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.envs = append(m.envs, env.Clone())
	return nil
}

// Envelopes returns everything published so far, oldest first.
func (m *Memory) Envelopes() []*event.Envelope {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*event.Envelope, len(m.envs))
	copy(out, m.envs)
	return out
}

// Close is a no-op.
func (m *Memory) Close() error { return nil }

// Package memory contains an in-memory publisher for tests and local runs.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/JakeFAU/survey-trends/internal/publisher"
)

// Publisher stores published notices for inspection.
type Publisher struct {
	mu      sync.RWMutex
	notices []publisher.Notice
	err     error
}

var _ publisher.Publisher = (*Publisher)(nil)

// New returns a memory Publisher.
func New() *Publisher {
	return &Publisher{}
}

// FailWith makes subsequent publishes return err.
func (p *Publisher) FailWith(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.err = err
}

// Publish records the notice and returns a pseudo ID.
func (p *Publisher) Publish(_ context.Context, notice publisher.Notice) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return "", p.err
	}
	p.notices = append(p.notices, notice)
	return fmt.Sprintf("memory-%d", len(p.notices)), nil
}

// Notices returns the recorded publishes.
func (p *Publisher) Notices() []publisher.Notice {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]publisher.Notice, len(p.notices))
	copy(out, p.notices)
	return out
}

package scan

import (
	"context"
	"fmt"
	"sync"
)

// Capability names a lazily-initialized dependency the UI must wait for
// before enabling the operation that needs it.
type Capability string

const (
	CapDecoder   Capability = "decoder"
	CapGenerator Capability = "generator"
	CapBackend   Capability = "backend"
)

type capState struct {
	ready chan struct{}
	err   error
}

// Gate is a two-phase readiness gate: each capability starts unresolved, and
// dependent operations block until it resolves. A capability that resolves
// with an error stays permanently unavailable.
type Gate struct {
	mu   sync.Mutex
	caps map[Capability]*capState
}

// NewGate creates a gate tracking the given capabilities.
func NewGate(caps ...Capability) *Gate {
	g := &Gate{caps: make(map[Capability]*capState, len(caps))}
	for _, c := range caps {
		g.caps[c] = &capState{ready: make(chan struct{})}
	}
	return g
}

// Resolve marks a capability loaded (err == nil) or failed. Resolving twice
// is a no-op; the first outcome wins.
func (g *Gate) Resolve(c Capability, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	st, ok := g.caps[c]
	if !ok {
		return
	}
	select {
	case <-st.ready:
		return // already resolved
	default:
	}
	st.err = err
	close(st.ready)
}

// Wait blocks until every listed capability resolves, then returns the first
// failure, if any. An untracked capability waits forever short of ctx.
func (g *Gate) Wait(ctx context.Context, caps ...Capability) error {
	for _, c := range caps {
		g.mu.Lock()
		st, ok := g.caps[c]
		g.mu.Unlock()
		if !ok {
			return fmt.Errorf("unknown capability %q", c)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-st.ready:
		}
		if st.err != nil {
			return fmt.Errorf("capability %s unavailable: %w", c, st.err)
		}
	}
	return nil
}

// Resolved reports, without blocking, whether the capability has resolved and
// with what outcome.
func (g *Gate) Resolved(c Capability) (bool, error) {
	g.mu.Lock()
	st, ok := g.caps[c]
	g.mu.Unlock()
	if !ok {
		return false, nil
	}
	select {
	case <-st.ready:
		return true, st.err
	default:
		return false, nil
	}
}

package engine

import (
	"context"
	"time"

	"otaku-arena-service/internal/domain"
)

// RegenTick advances heart regeneration from the persisted anchor. It grants
// one heart per full interval elapsed, moving the anchor forward by exactly
// one interval each time so fractional progress toward the next heart is
// never lost. Catch-up after a long absence grants multiple hearts in one
// pass, capped at MaxHearts. Returns the time remaining until the next heart
// (zero when full).
func (e *Engine) RegenTick() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state.Hearts >= domain.MaxHearts {
		return 0
	}

	now := e.now()
	anchor := e.state.LastHeartUpdateTime
	if anchor.IsZero() {
		anchor = now
		e.state.LastHeartUpdateTime = now
	}

	granted := 0
	for e.state.Hearts < domain.MaxHearts && now.Sub(anchor) >= domain.HeartRegenInterval {
		e.state.Hearts++
		granted++
		if e.state.Hearts == domain.MaxHearts {
			anchor = now
		} else {
			anchor = anchor.Add(domain.HeartRegenInterval)
		}
	}
	if granted > 0 {
		e.state.LastHeartUpdateTime = anchor
		e.persistLocked()
	}

	if e.state.Hearts >= domain.MaxHearts {
		return 0
	}
	return domain.HeartRegenInterval - now.Sub(anchor)
}

// TimeToNextHeart reports the remaining wait for display without mutating
// state.
func (e *Engine) TimeToNextHeart() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state.Hearts >= domain.MaxHearts {
		return 0
	}
	elapsed := e.now().Sub(e.state.LastHeartUpdateTime)
	if elapsed >= domain.HeartRegenInterval {
		return 0
	}
	return domain.HeartRegenInterval - elapsed
}

// RegenClock drives RegenTick on a cooperative 1s tick. Run blocks until the
// context is cancelled; the engine stays correct across missed ticks because
// all math derives from the stored anchor, not from tick counting.
type RegenClock struct {
	engine   *Engine
	interval time.Duration
}

// NewRegenClock builds a clock with the standard 1s cadence.
func NewRegenClock(e *Engine) *RegenClock {
	return &RegenClock{engine: e, interval: time.Second}
}

// Run ticks until ctx is done.
func (c *RegenClock) Run(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.engine.RegenTick()
		}
	}
}

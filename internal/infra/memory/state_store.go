package memory

import (
	"sync"
	"time"

	"otaku-arena-service/internal/domain"
)

// StateStore is an in-memory implementation of engine.StateStore, used by
// tests and as the no-persistence fallback.
type StateStore struct {
	mu    sync.Mutex
	state *domain.UserState
	clock func() time.Time

	// SaveErr, when set, is returned by Save to simulate quota failures.
	SaveErr error
	Saves   int
}

func NewStateStore() *StateStore {
	return &StateStore{clock: time.Now}
}

// NewStateStoreWithClock allows deterministic default-state timestamps.
func NewStateStoreWithClock(clock func() time.Time) *StateStore {
	return &StateStore{clock: clock}
}

func (s *StateStore) Load() (domain.UserState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == nil {
		return domain.DefaultUserState(s.clock()), nil
	}
	return s.state.Clone(), nil
}

func (s *StateStore) Save(state domain.UserState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Saves++
	if s.SaveErr != nil {
		return s.SaveErr
	}
	clone := state.Clone()
	s.state = &clone
	return nil
}

func (s *StateStore) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = nil
	return nil
}

// Package file persists the UserState snapshot as a JSON file on the local
// device. The stored bytes are treated as untrusted input: every field is
// decoded independently and repaired against defaults, so one malformed field
// never loses the rest of the save.
package file

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"otaku-arena-service/internal/domain"
)

// SchemaVersion tags the snapshot layout. Older or missing versions are
// repaired field-by-field rather than rejected.
const SchemaVersion = 12

type snapshot struct {
	Version int             `json:"version"`
	State   json.RawMessage `json:"state"`
}

// StateStore reads and writes one versioned snapshot file.
type StateStore struct {
	path  string
	mu    sync.Mutex
	clock func() time.Time
}

func NewStateStore(path string) *StateStore {
	return &StateStore{path: path, clock: time.Now}
}

// NewStateStoreWithClock allows deterministic default timestamps in tests.
func NewStateStoreWithClock(path string, clock func() time.Time) *StateStore {
	return &StateStore{path: path, clock: clock}
}

// Load returns the repaired snapshot; a missing or unreadable file yields a
// fresh default state, never an error the engine has to handle.
func (s *StateStore) Load() (domain.UserState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	defaults := domain.DefaultUserState(s.clock())
	data, err := os.ReadFile(s.path)
	if err != nil {
		return defaults, nil
	}

	raw := data
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err == nil && len(snap.State) > 0 {
		raw = snap.State
	}
	return repair(raw, defaults), nil
}

// Save serializes and writes atomically (tmp file + rename).
func (s *StateStore) Save(state domain.UserState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	inner, err := json.Marshal(state)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(snapshot{Version: SchemaVersion, State: inner}, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

// Reset removes the snapshot file so the next Load starts fresh.
func (s *StateStore) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// repair merges raw JSON into defaults one field at a time. Fields that fail
// to decode, or decode to the wrong shape, keep their default; collection
// fields are re-validated rather than trusted.
func repair(raw []byte, defaults domain.UserState) domain.UserState {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return defaults
	}

	state := defaults
	decode := func(key string, dst any) bool {
		field, ok := fields[key]
		if !ok {
			return false
		}
		return json.Unmarshal(field, dst) == nil
	}

	decode("nickname", &state.Nickname)
	decode("totalXp", &state.TotalXP)
	decode("xp", &state.XP)
	decode("diamonds", &state.Diamonds)
	decode("boosters", &state.Boosters)
	decode("hearts", &state.Hearts)
	decode("lastHeartUpdateTime", &state.LastHeartUpdateTime)
	decode("hasBattlePass", &state.HasBattlePass)
	decode("theme", &state.Theme)
	decode("settings", &state.Settings)
	decode("personalityMatch", &state.PersonalityMatch)

	var level int
	if decode("level", &level) && level >= 1 {
		state.Level = level
	}
	var rank domain.Rank
	if decode("rank", &rank) && rank != "" {
		state.Rank = rank
	}

	var completed []string
	if decode("completedQuizzes", &completed) && completed != nil {
		state.CompletedQuizzes = completed
	}
	var themes []string
	if decode("unlockedThemes", &themes) && len(themes) > 0 {
		state.UnlockedThemes = themes
	}
	var achievements []string
	if decode("unlockedAchievements", &achievements) && achievements != nil {
		state.UnlockedAchievements = achievements
	}
	var inventory []domain.AnimeCard
	if decode("inventory", &inventory) && inventory != nil {
		state.Inventory = inventory
	}
	var leaderboard []domain.LeaderboardEntry
	if decode("leaderboard", &leaderboard) && len(leaderboard) > 0 {
		state.Leaderboard = leaderboard
	}

	return clampInvariants(state, defaults)
}

// clampInvariants enforces the numeric invariants the rest of the engine
// assumes, regardless of what the file claimed.
func clampInvariants(state, defaults domain.UserState) domain.UserState {
	if state.Hearts < 0 {
		state.Hearts = 0
	}
	if state.Hearts > domain.MaxHearts {
		state.Hearts = domain.MaxHearts
	}
	if state.Diamonds < 0 {
		state.Diamonds = 0
	}
	if state.Boosters < 0 {
		state.Boosters = 0
	}
	if state.TotalXP < 0 {
		state.TotalXP = 0
	}
	if state.XP < 0 || state.XP >= domain.XPPerLevel {
		state.XP = 0
	}
	if state.Level < 1 {
		state.Level = 1
	}
	if state.Settings.Volume < 0 || state.Settings.Volume > 1 {
		state.Settings.Volume = defaults.Settings.Volume
	}
	if state.LastHeartUpdateTime.IsZero() {
		state.LastHeartUpdateTime = defaults.LastHeartUpdateTime
	}
	if state.Theme == "" {
		state.Theme = defaults.Theme
	}
	return state
}

package file

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"otaku-arena-service/internal/domain"
)

func fixedClock() time.Time {
	return time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	store := NewStateStoreWithClock(filepath.Join(t.TempDir(), "save.json"), fixedClock)
	state, err := store.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if state.Hearts != domain.MaxHearts || state.Diamonds != 50 || state.Boosters != 5 {
		t.Fatalf("unexpected defaults: %+v", state)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	store := NewStateStoreWithClock(filepath.Join(t.TempDir(), "save.json"), fixedClock)
	state := domain.DefaultUserState(fixedClock())
	state.Nickname = "Shinji"
	state.Diamonds = 123
	state.Inventory = []domain.AnimeCard{{ID: "c1", CharacterName: "Levi", Rarity: domain.RarityEpic, Level: 1, XPToNextLevel: 1000}}

	if err := store.Save(state); err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Nickname != "Shinji" || loaded.Diamonds != 123 {
		t.Fatalf("round trip lost fields: %+v", loaded)
	}
	if len(loaded.Inventory) != 1 || loaded.Inventory[0].ID != "c1" {
		t.Fatalf("round trip lost inventory: %+v", loaded.Inventory)
	}
}

func TestLoadNonJSONFallsBackToDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "save.json")
	if err := os.WriteFile(path, []byte("not json at all{{"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	store := NewStateStoreWithClock(path, fixedClock)
	state, err := store.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if state.Diamonds != 50 || state.Hearts != domain.MaxHearts {
		t.Fatalf("expected defaults after corruption, got %+v", state)
	}
}

func TestLoadRepairsFieldsIndependently(t *testing.T) {
	path := filepath.Join(t.TempDir(), "save.json")
	// diamonds valid, inventory wrong type, hearts out of range, level broken
	raw := map[string]any{
		"version": SchemaVersion,
		"state": map[string]any{
			"nickname":  "Rei",
			"diamonds":  400,
			"inventory": "definitely-not-an-array",
			"hearts":    99,
			"level":     "seven",
			"xp":        9999,
		},
	}
	data, _ := json.Marshal(raw)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	store := NewStateStoreWithClock(path, fixedClock)
	state, err := store.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if state.Nickname != "Rei" || state.Diamonds != 400 {
		t.Fatalf("valid fields lost: %+v", state)
	}
	if len(state.Inventory) != 0 {
		t.Fatalf("expected coerced empty inventory, got %+v", state.Inventory)
	}
	if state.Hearts != domain.MaxHearts {
		t.Fatalf("expected hearts clamped to %d, got %d", domain.MaxHearts, state.Hearts)
	}
	if state.Level != 1 {
		t.Fatalf("expected repaired level 1, got %d", state.Level)
	}
	if state.XP != 0 {
		t.Fatalf("expected out-of-range xp reset, got %d", state.XP)
	}
}

func TestResetClearsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "save.json")
	store := NewStateStoreWithClock(path, fixedClock)
	state := domain.DefaultUserState(fixedClock())
	state.Diamonds = 9000
	if err := store.Save(state); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.Reset(); err != nil {
		t.Fatalf("reset: %v", err)
	}
	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Diamonds != 50 {
		t.Fatalf("expected fresh defaults after reset, got %+v", loaded)
	}
	// Reset on an already-missing file must not fail.
	if err := store.Reset(); err != nil {
		t.Fatalf("second reset: %v", err)
	}
}

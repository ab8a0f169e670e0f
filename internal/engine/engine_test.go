package engine

import (
	"errors"
	"testing"
	"time"

	"otaku-arena-service/internal/content"
	"otaku-arena-service/internal/domain"
	"otaku-arena-service/internal/infra/memory"
)

func fixedClock() time.Time {
	return time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	store := memory.NewStateStoreWithClock(fixedClock)
	e, err := NewWithClock(store, content.Achievements(), fixedClock)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return e
}

func testCard(id string) domain.AnimeCard {
	stats := domain.Stats{Power: 700, Speed: 700, Intelligence: 700, Energy: 700}
	return domain.AnimeCard{
		ID:            id,
		CharacterName: "Guts",
		Anime:         "Berserk",
		Rarity:        domain.RarityEpic,
		BaseStats:     stats,
		Stats:         stats,
		Level:         1,
		XPToNextLevel: 1000,
	}
}

func TestAddXPInvariants(t *testing.T) {
	e := newTestEngine(t)

	gained := e.AddXP(1300)
	state := e.Snapshot()
	if state.TotalXP != 1300 {
		t.Fatalf("totalXp should match grant exactly, got %d", state.TotalXP)
	}
	if state.XP < 0 || state.XP >= domain.XPPerLevel {
		t.Fatalf("xp out of range: %d", state.XP)
	}
	if state.Level != 3 || gained != 2 {
		t.Fatalf("expected level 3 with 2 level-ups, got level=%d gained=%d", state.Level, gained)
	}
	if state.Rank != domain.RankRookie {
		t.Fatalf("rank must derive from level: %s", state.Rank)
	}
}

func TestAddXPRankMatchesRecomputation(t *testing.T) {
	e := newTestEngine(t)
	e.AddXP(30 * domain.XPPerLevel) // well past the Otaku threshold
	state := e.Snapshot()
	if state.Level != 31 || state.Rank != domain.RankShinobi {
		t.Fatalf("expected level 31 Shinobi, got level=%d rank=%s", state.Level, state.Rank)
	}
}

func TestSpendDiamonds(t *testing.T) {
	e := newTestEngine(t)

	if e.SpendDiamonds(51) {
		t.Fatalf("spend beyond balance must fail")
	}
	if got := e.Snapshot().Diamonds; got != 50 {
		t.Fatalf("failed spend mutated balance: %d", got)
	}
	if !e.SpendDiamonds(30) {
		t.Fatalf("affordable spend must succeed")
	}
	if got := e.Snapshot().Diamonds; got != 20 {
		t.Fatalf("expected 20 diamonds, got %d", got)
	}
}

func TestUseBoosterOnCard(t *testing.T) {
	e := newTestEngine(t)
	e.AddCard(testCard("c1"))

	if err := e.UseBoosterOnCard("c1"); err != nil {
		t.Fatalf("booster use should succeed with stock: %v", err)
	}
	state := e.Snapshot()
	if state.Boosters != 4 {
		t.Fatalf("expected 4 boosters left, got %d", state.Boosters)
	}
	if state.Inventory[0].CurrentXP != domain.BoosterXP {
		t.Fatalf("expected %d card xp, got %d", domain.BoosterXP, state.Inventory[0].CurrentXP)
	}

	// Drain the stock, then verify refusal without mutation.
	for e.Snapshot().Boosters > 0 {
		_ = e.UseBoosterOnCard("c1")
	}
	before := e.Snapshot()
	if err := e.UseBoosterOnCard("c1"); !errors.Is(err, domain.ErrNoBoosters) {
		t.Fatalf("booster use with zero stock = %v, want ErrNoBoosters", err)
	}
	after := e.Snapshot()
	if after.Boosters != 0 || after.Inventory[0].CurrentXP != before.Inventory[0].CurrentXP {
		t.Fatalf("refused booster mutated state: before=%+v after=%+v", before.Inventory[0], after.Inventory[0])
	}
}

func TestUseBoosterOnMissingCard(t *testing.T) {
	e := newTestEngine(t)
	if err := e.UseBoosterOnCard("ghost"); !errors.Is(err, domain.ErrCardNotFound) {
		t.Fatalf("booster on missing card = %v, want ErrCardNotFound", err)
	}
	if got := e.Snapshot().Boosters; got != 5 {
		t.Fatalf("booster count changed on failed use: %d", got)
	}
}

func TestAddCardXPMissingCardIsNoop(t *testing.T) {
	e := newTestEngine(t)
	if e.AddCardXP("ghost", 100) {
		t.Fatalf("expected false for unknown card")
	}
}

func TestLoseHeartAnchorRules(t *testing.T) {
	now := fixedClock()
	clock := func() time.Time { return now }
	store := memory.NewStateStoreWithClock(clock)
	e, err := NewWithClock(store, nil, clock)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}

	// Losing a heart while full starts a fresh regen window.
	now = now.Add(10 * time.Minute)
	e.LoseHeart()
	state := e.Snapshot()
	if state.Hearts != domain.MaxHearts-1 {
		t.Fatalf("expected %d hearts, got %d", domain.MaxHearts-1, state.Hearts)
	}
	if !state.LastHeartUpdateTime.Equal(now) {
		t.Fatalf("anchor should reset to now when dropping off full")
	}

	// Losing another heart mid-recovery keeps the anchor.
	anchor := state.LastHeartUpdateTime
	now = now.Add(30 * time.Second)
	e.LoseHeart()
	state = e.Snapshot()
	if !state.LastHeartUpdateTime.Equal(anchor) {
		t.Fatalf("anchor must not move while already recovering")
	}

	// Floor clamp at zero.
	for i := 0; i < 10; i++ {
		e.LoseHeart()
	}
	if got := e.Snapshot().Hearts; got != 0 {
		t.Fatalf("hearts went negative: %d", got)
	}
}

func TestRegenTickGrantsHeartAndAdvancesAnchor(t *testing.T) {
	start := fixedClock()
	now := start
	clock := func() time.Time { return now }
	store := memory.NewStateStoreWithClock(clock)
	e, err := NewWithClock(store, nil, clock)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}

	e.LoseHeart() // 4 hearts, anchor = start
	now = start.Add(61 * time.Second)

	e.RegenTick()
	state := e.Snapshot()
	if state.Hearts != domain.MaxHearts {
		t.Fatalf("expected refill to %d, got %d", domain.MaxHearts, state.Hearts)
	}
	if !state.LastHeartUpdateTime.Equal(now) {
		t.Fatalf("reaching full should re-anchor to now")
	}
}

func TestRegenTickPreservesFractionalProgress(t *testing.T) {
	start := fixedClock()
	now := start
	clock := func() time.Time { return now }
	store := memory.NewStateStoreWithClock(clock)
	e, err := NewWithClock(store, nil, clock)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}

	e.LoseHeart()
	e.LoseHeart()
	e.LoseHeart() // 2 hearts, anchor = start

	// 90s elapsed: one heart granted, 30s of progress toward the next kept.
	now = start.Add(90 * time.Second)
	remaining := e.RegenTick()
	state := e.Snapshot()
	if state.Hearts != 3 {
		t.Fatalf("expected 3 hearts, got %d", state.Hearts)
	}
	if !state.LastHeartUpdateTime.Equal(start.Add(domain.HeartRegenInterval)) {
		t.Fatalf("anchor must advance by exactly one interval, got %v", state.LastHeartUpdateTime)
	}
	if remaining != 30*time.Second {
		t.Fatalf("expected 30s to next heart, got %v", remaining)
	}
}

func TestRegenTickCatchUpCapsAtMax(t *testing.T) {
	start := fixedClock()
	now := start
	clock := func() time.Time { return now }
	store := memory.NewStateStoreWithClock(clock)
	e, err := NewWithClock(store, nil, clock)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}

	for i := 0; i < domain.MaxHearts; i++ {
		e.LoseHeart()
	}
	// A whole night away: grant up to the cap, never beyond.
	now = start.Add(8 * time.Hour)
	e.RegenTick()
	if got := e.Snapshot().Hearts; got != domain.MaxHearts {
		t.Fatalf("expected catch-up to cap at %d, got %d", domain.MaxHearts, got)
	}
}

func TestRegenTickAtFullIsNoop(t *testing.T) {
	start := fixedClock()
	now := start
	clock := func() time.Time { return now }
	store := memory.NewStateStoreWithClock(clock)
	e, err := NewWithClock(store, nil, clock)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}

	anchor := e.Snapshot().LastHeartUpdateTime
	now = start.Add(time.Hour)
	if remaining := e.RegenTick(); remaining != 0 {
		t.Fatalf("full meter should report zero wait, got %v", remaining)
	}
	if got := e.Snapshot().LastHeartUpdateTime; !got.Equal(anchor) {
		t.Fatalf("ticking at full must never move the anchor")
	}
}

func TestRefillHeartsWithDiamonds(t *testing.T) {
	e := newTestEngine(t)
	e.LoseHeart()
	e.LoseHeart()

	if !e.RefillHeartsWithDiamonds() {
		t.Fatalf("refill with 50 diamonds should succeed")
	}
	state := e.Snapshot()
	if state.Hearts != domain.MaxHearts || state.Diamonds != 50-domain.HeartRefillCost {
		t.Fatalf("refill not atomic: hearts=%d diamonds=%d", state.Hearts, state.Diamonds)
	}

	// Drain and verify clean failure.
	e.SpendDiamonds(state.Diamonds)
	e.LoseHeart()
	before := e.Snapshot()
	if e.RefillHeartsWithDiamonds() {
		t.Fatalf("refill without funds must fail")
	}
	after := e.Snapshot()
	if after.Hearts != before.Hearts || after.Diamonds != before.Diamonds {
		t.Fatalf("failed refill mutated state")
	}
}

func TestCompleteQuizIdempotent(t *testing.T) {
	e := newTestEngine(t)
	e.CompleteQuiz("quiz_001")
	e.CompleteQuiz("quiz_001")
	state := e.Snapshot()
	if len(state.CompletedQuizzes) != 1 {
		t.Fatalf("expected one completion, got %v", state.CompletedQuizzes)
	}
}

func TestUnlockThemeIdempotent(t *testing.T) {
	e := newTestEngine(t)
	e.UnlockTheme("blood_shinobi")
	e.UnlockTheme("blood_shinobi")
	state := e.Snapshot()
	count := 0
	for _, id := range state.UnlockedThemes {
		if id == "blood_shinobi" {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("theme duplicated: %v", state.UnlockedThemes)
	}
}

func TestUpdateSettingsShallowMerge(t *testing.T) {
	e := newTestEngine(t)
	vol := 0.9
	e.UpdateSettings(domain.SettingsPatch{Volume: &vol})
	state := e.Snapshot()
	if state.Settings.Volume != 0.9 {
		t.Fatalf("volume not applied: %v", state.Settings)
	}
	if !state.Settings.VFXEnabled {
		t.Fatalf("untouched field must keep its value: %v", state.Settings)
	}
}

func TestPersistFailureIsSwallowed(t *testing.T) {
	store := memory.NewStateStoreWithClock(fixedClock)
	e, err := NewWithClock(store, nil, fixedClock)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	store.SaveErr = errors.New("quota exceeded")

	e.GainDiamonds(100) // must not panic
	if got := e.Snapshot().Diamonds; got != 150 {
		t.Fatalf("in-memory state must advance despite persist failure: %d", got)
	}
}

func TestAchievementAutoUnlock(t *testing.T) {
	e := newTestEngine(t)
	e.AddXP(5 * domain.XPPerLevel) // level 6, past the level-5 achievement
	state := e.Snapshot()
	found := false
	for _, id := range state.UnlockedAchievements {
		if id == "acc_1" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected level achievement unlocked, got %v", state.UnlockedAchievements)
	}
}

func TestLeaderboardViewMergesPlayerWithoutPersisting(t *testing.T) {
	e := newTestEngine(t)
	e.AddXP(200000)

	view := e.LeaderboardView()
	if len(view) != botCount+1 {
		t.Fatalf("expected %d rows, got %d", botCount+1, len(view))
	}
	if view[0].IsBot || view[0].ID != "player" {
		t.Fatalf("expected player on top with 200k xp, got %+v", view[0])
	}
	for i := 1; i < len(view); i++ {
		if view[i].XP > view[i-1].XP {
			t.Fatalf("view not sorted at %d", i)
		}
	}
	// Persisted snapshot keeps bots only.
	for _, row := range e.Snapshot().Leaderboard {
		if !row.IsBot {
			t.Fatalf("player row leaked into persisted leaderboard")
		}
	}
}

func TestResetGameReloadsDefaults(t *testing.T) {
	e := newTestEngine(t)
	e.GainDiamonds(1000)
	if err := e.ResetGame(); err != nil {
		t.Fatalf("reset: %v", err)
	}
	state := e.Snapshot()
	if state.Diamonds != 50 || state.TotalXP != 0 {
		t.Fatalf("expected fresh state after reset, got %+v", state)
	}
	if len(state.Leaderboard) != botCount {
		t.Fatalf("expected regenerated bot snapshot, got %d rows", len(state.Leaderboard))
	}
}

func TestLevelUpCueFiresOncePerLevel(t *testing.T) {
	e := newTestEngine(t)
	var levelUps int
	e.OnCue(func(c Cue) {
		if c == CueLevelUp {
			levelUps++
		}
	})
	e.AddXP(3 * domain.XPPerLevel)
	if levelUps != 3 {
		t.Fatalf("expected 3 level-up cues, got %d", levelUps)
	}
}

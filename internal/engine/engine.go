// Package engine owns the single authoritative UserState snapshot. Every
// state transition of the game goes through one of its operations; each
// operation takes the lock, applies a complete transform, persists, and
// unlocks, so no caller can ever observe a torn snapshot.
package engine

import (
	"log"
	"math/rand"
	"sync"
	"time"

	"otaku-arena-service/internal/domain"
	"otaku-arena-service/internal/progression"
)

// StateStore abstracts durable snapshot persistence (file, in-memory, etc).
type StateStore interface {
	Load() (domain.UserState, error)
	Save(state domain.UserState) error
	Reset() error
}

// Cue is a UI side-signal emitted by an operation (sound or flash in the
// browser). Cues are best-effort and never affect state.
type Cue string

const (
	CueLevelUp  Cue = "levelUp"
	CueSuccess  Cue = "success"
	CueError    Cue = "error"
	CueDiamonds Cue = "diamonds"
)

// Engine is the central mutator over the root UserState.
type Engine struct {
	mu           sync.Mutex
	state        domain.UserState
	store        StateStore
	achievements []domain.Achievement
	now          func() time.Time
	cue          func(Cue)
	rnd          *rand.Rand
}

// New loads the persisted snapshot (or starts fresh) and seeds the one-time
// leaderboard bot snapshot if absent.
func New(store StateStore, achievements []domain.Achievement) (*Engine, error) {
	return NewWithClock(store, achievements, time.Now)
}

// NewWithClock allows deterministic timestamps in tests.
func NewWithClock(store StateStore, achievements []domain.Achievement, now func() time.Time) (*Engine, error) {
	state, err := store.Load()
	if err != nil {
		return nil, err
	}
	e := &Engine{
		state:        state,
		store:        store,
		achievements: achievements,
		now:          now,
		rnd:          rand.New(rand.NewSource(now().UnixNano())),
	}
	if len(e.state.Leaderboard) == 0 {
		e.state.Leaderboard = generateBots(e.rnd)
		e.persistLocked()
	}
	return e, nil
}

// OnCue registers a hook receiving UI cues. Only one hook is kept.
func (e *Engine) OnCue(fn func(Cue)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cue = fn
}

func (e *Engine) emitLocked(c Cue) {
	if e.cue != nil {
		e.cue(c)
	}
}

// persistLocked writes the snapshot after a mutation. Storage failures are
// logged and swallowed; gameplay continues in memory for the session.
func (e *Engine) persistLocked() {
	if err := e.store.Save(e.state); err != nil {
		log.Printf("engine: persist failed: %v", err)
	}
}

// Snapshot returns a deep copy of the current state.
func (e *Engine) Snapshot() domain.UserState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Clone()
}

// Hearts returns the current heart count.
func (e *Engine) Hearts() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Hearts
}

// AddXP grants player XP, normalizing level and rank, and returns the number
// of levels crossed. One level-up cue fires per crossed level.
func (e *Engine) AddXP(amount int) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if amount < 0 {
		amount = 0
	}
	res := progression.ApplyXP(e.state.XP, e.state.Level, amount)
	e.state.XP = res.XP
	e.state.Level = res.Level
	e.state.TotalXP += amount
	e.state.Rank = progression.RankFor(res.Level)
	for i := 0; i < res.LevelsGained; i++ {
		e.emitLocked(CueLevelUp)
	}
	e.checkAchievementsLocked()
	e.persistLocked()
	return res.LevelsGained
}

// AddCardXP grants XP to one card; a no-op when the card is absent.
func (e *Engine) AddCardXP(cardID string, amount int) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.addCardXPLocked(cardID, amount)
}

func (e *Engine) addCardXPLocked(cardID string, amount int) bool {
	card := e.state.CardByID(cardID)
	if card == nil {
		return false
	}
	leveled, gained := progression.ApplyCardXP(*card, amount)
	*card = leveled
	for i := 0; i < gained; i++ {
		e.emitLocked(CueSuccess)
	}
	e.persistLocked()
	return true
}

// UseBoosterOnCard consumes one booster for a fixed XP bump on the named
// card. Fails without mutation when no boosters remain or the card is absent.
func (e *Engine) UseBoosterOnCard(cardID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state.Boosters <= 0 {
		return domain.ErrNoBoosters
	}
	if e.state.CardByID(cardID) == nil {
		return domain.ErrCardNotFound
	}
	e.state.Boosters--
	e.addCardXPLocked(cardID, domain.BoosterXP)
	return nil
}

// GainBoosters adds consumables.
func (e *Engine) GainBoosters(amount int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if amount < 0 {
		return
	}
	e.state.Boosters += amount
	e.emitLocked(CueSuccess)
	e.persistLocked()
}

// GainDiamonds adds soft currency.
func (e *Engine) GainDiamonds(amount int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if amount < 0 {
		return
	}
	e.state.Diamonds += amount
	e.emitLocked(CueDiamonds)
	e.checkAchievementsLocked()
	e.persistLocked()
}

// SpendDiamonds is the canonical currency gate: it refuses (false, no
// mutation) on insufficient funds rather than clamping.
func (e *Engine) SpendDiamonds(amount int) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.spendDiamondsLocked(amount)
}

func (e *Engine) spendDiamondsLocked(amount int) bool {
	if amount < 0 || e.state.Diamonds < amount {
		return false
	}
	e.state.Diamonds -= amount
	e.persistLocked()
	return true
}

// LoseHeart decrements hearts, floor-clamped at zero. Dropping off a full
// meter starts a fresh regeneration window; losing a heart mid-recovery keeps
// the existing anchor so regen progress is never discarded.
func (e *Engine) LoseHeart() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state.Hearts == domain.MaxHearts {
		e.state.LastHeartUpdateTime = e.now()
	}
	if e.state.Hearts > 0 {
		e.state.Hearts--
	}
	e.persistLocked()
}

// RestoreHearts sets hearts to the cap without charging.
func (e *Engine) RestoreHearts() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state.Hearts = domain.MaxHearts
	e.persistLocked()
}

// RefillHeartsWithDiamonds is one atomic transition: spend the refill cost
// and set hearts to the cap, or fail leaving both untouched.
func (e *Engine) RefillHeartsWithDiamonds() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state.Diamonds < domain.HeartRefillCost {
		return false
	}
	e.state.Diamonds -= domain.HeartRefillCost
	e.state.Hearts = domain.MaxHearts
	e.emitLocked(CueSuccess)
	e.persistLocked()
	return true
}

// AddCard appends to the inventory tail. Card IDs are expected to be unique;
// generating a colliding ID is a caller bug.
func (e *Engine) AddCard(card domain.AnimeCard) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state.Inventory = append(e.state.Inventory, card)
	e.persistLocked()
}

// SetTheme switches the active theme.
func (e *Engine) SetTheme(themeID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state.Theme = themeID
	e.persistLocked()
}

// UnlockTheme adds a theme to the unlocked set; idempotent.
func (e *Engine) UnlockTheme(themeID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, id := range e.state.UnlockedThemes {
		if id == themeID {
			return
		}
	}
	e.state.UnlockedThemes = append(e.state.UnlockedThemes, themeID)
	e.persistLocked()
}

// SetNickname renames the player.
func (e *Engine) SetNickname(name string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state.Nickname = name
	e.persistLocked()
}

// UpdateSettings shallow-merges a partial settings patch.
func (e *Engine) UpdateSettings(patch domain.SettingsPatch) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if patch.Volume != nil {
		v := *patch.Volume
		if v < 0 {
			v = 0
		}
		if v > 1 {
			v = 1
		}
		e.state.Settings.Volume = v
	}
	if patch.VFXEnabled != nil {
		e.state.Settings.VFXEnabled = *patch.VFXEnabled
	}
	if patch.NotificationsEnabled != nil {
		e.state.Settings.NotificationsEnabled = *patch.NotificationsEnabled
	}
	e.persistLocked()
}

// CompleteQuiz marks a quiz done; idempotent.
func (e *Engine) CompleteQuiz(quizID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, id := range e.state.CompletedQuizzes {
		if id == quizID {
			return
		}
	}
	e.state.CompletedQuizzes = append(e.state.CompletedQuizzes, quizID)
	e.checkAchievementsLocked()
	e.persistLocked()
}

// CompletedQuizCount reports how many quizzes the player has cleared.
func (e *Engine) CompletedQuizCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.state.CompletedQuizzes)
}

// SetPersonality records the personality-test archetype.
func (e *Engine) SetPersonality(match domain.PersonalityResult) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state.PersonalityMatch = &match
	e.persistLocked()
}

// PurchaseBattlePass flips the battle-pass flag.
func (e *Engine) PurchaseBattlePass() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state.HasBattlePass = true
	e.persistLocked()
}

// ResetGame clears durable state and reloads from scratch. Terminal: any
// in-memory progress is gone.
func (e *Engine) ResetGame() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.store.Reset(); err != nil {
		return err
	}
	state, err := e.store.Load()
	if err != nil {
		return err
	}
	e.state = state
	if len(e.state.Leaderboard) == 0 {
		e.state.Leaderboard = generateBots(e.rnd)
	}
	e.persistLocked()
	return nil
}

// checkAchievementsLocked unlocks every achievement whose requirement the
// current state meets. Runs after XP, diamond, and quiz mutations.
func (e *Engine) checkAchievementsLocked() {
	for _, def := range progression.EligibleAchievements(e.state, e.achievements) {
		e.state.UnlockedAchievements = append(e.state.UnlockedAchievements, def.ID)
		e.emitLocked(CueSuccess)
	}
}

// Package session runs the trivia loop: it buffers generated questions,
// drives the per-question countdown, judges answers, and applies the
// rewards and penalties through the game state engine.
package session

import (
	"context"
	"sync"
	"time"

	"otaku-arena-service/internal/domain"
)

// Phase is the controller's state machine position.
type Phase string

const (
	PhaseLoading    Phase = "LOADING"
	PhasePresenting Phase = "PRESENTING"
	PhaseJudging    Phase = "JUDGING"
	PhaseExhausted  Phase = "EXHAUSTED"
	PhaseNoHearts   Phase = "NO_HEARTS"
)

const (
	// CountdownTicks is how many ticks a question stays answerable.
	CountdownTicks = 25
	// FeedbackDelay is how long the judged answer stays on screen before the
	// next question is presented.
	FeedbackDelay = 1800 * time.Millisecond
	// TimeoutAnswer is the sentinel submitted when the countdown expires. It
	// never matches a real answer.
	TimeoutAnswer = "TIMEOUT_VOID"
)

// GameState is the slice of the engine the session needs.
type GameState interface {
	Snapshot() domain.UserState
	Hearts() int
	AddXP(amount int) int
	GainDiamonds(amount int)
	CompleteQuiz(quizID string)
	LoseHeart()
}

// QuizFetcher supplies question batches; implementations never return an
// empty batch except on shutdown.
type QuizFetcher interface {
	QuizBatch(ctx context.Context, level int) []domain.Quiz
}

// Judgement is the outcome of one answered (or timed out) question.
type Judgement struct {
	QuizID          string `json:"quizId"`
	Submitted       string `json:"submitted"`
	Correct         bool   `json:"correct"`
	TimedOut        bool   `json:"timedOut"`
	CorrectAnswer   string `json:"correctAnswer"`
	XPAwarded       int    `json:"xpAwarded"`
	DiamondsAwarded int    `json:"diamondsAwarded"`
}

// Controller sequences one player's trivia session. All methods are safe for
// concurrent use; judging and presenting are strictly ordered per session.
// Side effects (batch fetches, the feedback delay) are always started outside
// the state lock.
type Controller struct {
	mu      sync.Mutex
	game    GameState
	quizzes QuizFetcher

	phase     Phase
	buffer    []domain.Quiz
	cursor    int
	countdown int
	last      *Judgement

	// fetching suppresses concurrent batch requests; epoch discards results
	// that arrive after the session moved on.
	fetching bool
	epoch    uint64

	spawn    func(fn func())
	schedule func(d time.Duration, fn func())
}

// NewController builds a session over the given engine and question source.
func NewController(game GameState, quizzes QuizFetcher) *Controller {
	return &Controller{
		game:     game,
		quizzes:  quizzes,
		phase:    PhaseLoading,
		spawn:    func(fn func()) { go fn() },
		schedule: func(d time.Duration, fn func()) { time.AfterFunc(d, fn) },
	}
}

// newControllerSync is test-only: fetches and delay callbacks run inline so
// tests stay deterministic.
func newControllerSync(game GameState, quizzes QuizFetcher) *Controller {
	c := NewController(game, quizzes)
	c.spawn = func(fn func()) { fn() }
	c.schedule = func(_ time.Duration, fn func()) { fn() }
	return c
}

// Begin starts the session: out of hearts is terminal immediately, otherwise
// the first batch is requested.
func (c *Controller) Begin(ctx context.Context) {
	c.mu.Lock()
	if c.game.Hearts() <= 0 {
		c.phase = PhaseNoHearts
		c.mu.Unlock()
		return
	}
	c.phase = PhaseLoading
	c.mu.Unlock()
	c.fetch(ctx)
}

// fetch requests a batch unless one is already in flight.
func (c *Controller) fetch(ctx context.Context) {
	c.mu.Lock()
	if c.fetching {
		c.mu.Unlock()
		return
	}
	c.fetching = true
	epoch := c.epoch
	c.mu.Unlock()

	level := c.game.Snapshot().Level
	c.spawn(func() {
		c.deliver(epoch, c.quizzes.QuizBatch(ctx, level))
	})
}

// deliver applies a fetched batch, dropping it if the session has moved on
// since the request was issued.
func (c *Controller) deliver(epoch uint64, batch []domain.Quiz) {
	c.mu.Lock()
	if epoch != c.epoch {
		c.mu.Unlock()
		return
	}
	c.fetching = false
	c.buffer = append(c.buffer, batch...)
	needFetch := false
	if c.phase == PhaseLoading {
		needFetch = c.presentNextLocked()
	}
	c.mu.Unlock()
	if needFetch {
		c.fetch(context.Background())
	}
}

// presentNextLocked moves the next buffered question on screen. It reports
// whether the caller should start a background fetch after unlocking.
func (c *Controller) presentNextLocked() bool {
	if c.game.Hearts() <= 0 {
		c.phase = PhaseNoHearts
		return false
	}
	if c.cursor >= len(c.buffer) {
		if c.fetching {
			c.phase = PhaseLoading
			return false
		}
		// Buffer drained with nothing on the way: the session is over.
		c.phase = PhaseExhausted
		return false
	}
	c.phase = PhasePresenting
	c.countdown = CountdownTicks
	c.last = nil

	// Refill in the background once the last buffered question is on screen.
	return c.cursor == len(c.buffer)-1
}

// Tick advances the countdown by one. Expiry judges the question as an
// implicit incorrect answer. Ticks outside PRESENTING are ignored.
func (c *Controller) Tick() *Judgement {
	c.mu.Lock()
	if c.phase != PhasePresenting {
		c.mu.Unlock()
		return nil
	}
	c.countdown--
	if c.countdown > 0 {
		c.mu.Unlock()
		return nil
	}
	j, epoch := c.judgeLocked(TimeoutAnswer, true)
	c.mu.Unlock()
	c.schedule(FeedbackDelay, func() { c.advance(epoch) })
	return j
}

// Submit judges the player's answer for the current question. Submissions
// outside PRESENTING (double submits, late answers) return ErrSessionClosed.
func (c *Controller) Submit(answer string) (*Judgement, error) {
	c.mu.Lock()
	if c.phase != PhasePresenting {
		c.mu.Unlock()
		return nil, domain.ErrSessionClosed
	}
	j, epoch := c.judgeLocked(answer, false)
	c.mu.Unlock()
	c.schedule(FeedbackDelay, func() { c.advance(epoch) })
	return j, nil
}

func (c *Controller) judgeLocked(answer string, timedOut bool) (*Judgement, uint64) {
	quiz := c.buffer[c.cursor]

	correct := false
	if !timedOut {
		if quiz.FreeText() {
			correct = AnswerMatches(answer, quiz.Answer, quiz.AcceptedAnswers)
		} else {
			correct = AnswerMatches(answer, quiz.Answer, nil)
		}
	}

	j := &Judgement{
		QuizID:        quiz.ID,
		Submitted:     answer,
		Correct:       correct,
		TimedOut:      timedOut,
		CorrectAnswer: quiz.Answer,
	}
	if correct {
		j.XPAwarded = quiz.XP
		j.DiamondsAwarded = domain.QuizDiamondReward
		c.game.AddXP(quiz.XP)
		c.game.GainDiamonds(domain.QuizDiamondReward)
		c.game.CompleteQuiz(quiz.ID)
	} else {
		c.game.LoseHeart()
	}

	c.phase = PhaseJudging
	c.last = j
	return j, c.epoch
}

// advance moves past the judged question after the feedback delay.
func (c *Controller) advance(epoch uint64) {
	c.mu.Lock()
	if epoch != c.epoch || c.phase != PhaseJudging {
		c.mu.Unlock()
		return
	}
	c.cursor++
	needFetch := c.presentNextLocked()
	c.mu.Unlock()
	if needFetch {
		c.fetch(context.Background())
	}
}

// Resume re-enters the question loop after hearts were restored. A resume
// with no hearts stays in NO_HEARTS.
func (c *Controller) Resume(ctx context.Context) {
	c.mu.Lock()
	if c.phase != PhaseNoHearts || c.game.Hearts() <= 0 {
		c.mu.Unlock()
		return
	}
	if c.cursor >= len(c.buffer) {
		c.phase = PhaseLoading
		c.mu.Unlock()
		c.fetch(ctx)
		return
	}
	needFetch := c.presentNextLocked()
	c.mu.Unlock()
	if needFetch {
		c.fetch(ctx)
	}
}

// Close tears the session down; batch results and delay callbacks that
// arrive afterwards are discarded.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.epoch++
	c.fetching = false
	c.phase = PhaseExhausted
}

// Phase reports the state machine position.
func (c *Controller) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// Current returns the question on screen, if any.
func (c *Controller) Current() (domain.Quiz, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase != PhasePresenting && c.phase != PhaseJudging {
		return domain.Quiz{}, false
	}
	if c.cursor >= len(c.buffer) {
		return domain.Quiz{}, false
	}
	return c.buffer[c.cursor], true
}

// Countdown reports ticks remaining on the current question.
func (c *Controller) Countdown() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.countdown
}

// LastJudgement returns the most recent outcome, nil before the first.
func (c *Controller) LastJudgement() *Judgement {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}

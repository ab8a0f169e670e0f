// Package content orchestrates the external generative capability into typed
// game objects: quiz batches, character cards, and personality archetypes.
// Policy: retry with backoff only on rate limiting, memoize successes in an
// injected cache, and always hand the caller renderable content by falling
// back to deterministic placeholders when generation is exhausted.
package content

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"otaku-arena-service/internal/domain"
)

// Cache memoizes successful generation results by content-derived key for
// the lifetime of the process (or whatever TTL the implementation applies).
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte)
}

// RetryPolicy bounds retries for transient rate-limit failures. The delay
// before attempt n is InitialDelay * Multiplier^(n-1).
type RetryPolicy struct {
	MaxAttempts  int
	InitialDelay time.Duration
	Multiplier   float64
}

// DefaultRetryPolicy matches the live tuning: 3 attempts, 3s initial delay,
// doubling.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, InitialDelay: 3 * time.Second, Multiplier: 2}
}

func (p RetryPolicy) normalized() RetryPolicy {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}
	if p.InitialDelay <= 0 {
		p.InitialDelay = 3 * time.Second
	}
	if p.Multiplier < 1 {
		p.Multiplier = 2
	}
	return p
}

func (p RetryPolicy) delay(attempt int) time.Duration {
	return time.Duration(float64(p.InitialDelay) * math.Pow(p.Multiplier, float64(attempt)))
}

// Pipeline is the content acquisition orchestrator.
type Pipeline struct {
	gen   Generator
	cache Cache
	retry RetryPolicy
	sf    singleflight.Group
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error

	// fallbackQuizzes overrides the compiled-in seed set when a content
	// library supplies one. Set once at startup, before serving.
	fallbackQuizzes []domain.Quiz
}

// SetFallbackQuizzes swaps the compiled-in fallback questions for an
// externally loaded set. Empty sets are ignored.
func (p *Pipeline) SetFallbackQuizzes(quizzes []domain.Quiz) {
	if len(quizzes) == 0 {
		return
	}
	p.fallbackQuizzes = quizzes
}

func (p *Pipeline) fallbackSet() []domain.Quiz {
	if len(p.fallbackQuizzes) > 0 {
		return p.fallbackQuizzes
	}
	return FallbackQuizzes()
}

// NewPipeline wires a generator and cache under the given retry policy.
func NewPipeline(gen Generator, cache Cache, retry RetryPolicy) *Pipeline {
	return &Pipeline{
		gen:   gen,
		cache: cache,
		retry: retry.normalized(),
		now:   time.Now,
		sleep: sleepCtx,
	}
}

// NewPipelineWithClock is test-only: deterministic timestamps and no real
// sleeping between retries.
func NewPipelineWithClock(gen Generator, cache Cache, retry RetryPolicy, now func() time.Time) *Pipeline {
	p := NewPipeline(gen, cache, retry)
	p.now = now
	p.sleep = func(context.Context, time.Duration) error { return nil }
	return p
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// generateJSON runs one structured-content request under the retry, cache,
// and singleflight policy. cacheKey may be empty to bypass memoization.
func (p *Pipeline) generateJSON(ctx context.Context, tier ModelTier, prompt, cacheKey string) ([]byte, error) {
	if cacheKey != "" {
		if cached, ok := p.cache.Get(ctx, cacheKey); ok {
			return cached, nil
		}
	}

	flightKey := cacheKey
	if flightKey == "" {
		flightKey = fmt.Sprintf("oneshot:%d", p.now().UnixNano())
	}
	result, err, _ := p.sf.Do(flightKey, func() (interface{}, error) {
		if cacheKey != "" {
			if cached, ok := p.cache.Get(ctx, cacheKey); ok {
				return cached, nil
			}
		}
		raw, err := p.withRetry(ctx, func() ([]byte, error) {
			return p.gen.GenerateJSON(ctx, tier, prompt)
		})
		if err != nil {
			return nil, err
		}
		if cacheKey != "" {
			p.cache.Set(ctx, cacheKey, raw)
		}
		return raw, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]byte), nil
}

// withRetry retries only on rate limiting, with exponentially growing delay.
// Any other failure propagates immediately.
func (p *Pipeline) withRetry(ctx context.Context, call func() ([]byte, error)) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt < p.retry.MaxAttempts; attempt++ {
		raw, err := call()
		if err == nil {
			return raw, nil
		}
		lastErr = err
		if !IsRateLimited(err) || attempt == p.retry.MaxAttempts-1 {
			return nil, err
		}
		if err := p.sleep(ctx, p.retry.delay(attempt)); err != nil {
			return nil, err
		}
	}
	return nil, lastErr
}

// Artwork generates one illustration, falling back to a seeded placeholder so
// the caller always has something to render.
func (p *Pipeline) Artwork(ctx context.Context, prompt, seed, aspectRatio string) string {
	var img string
	_, err := p.withRetry(ctx, func() ([]byte, error) {
		url, err := p.gen.GenerateImage(ctx, prompt, aspectRatio)
		if err != nil {
			return nil, err
		}
		img = url
		return nil, nil
	})
	if err != nil {
		log.Printf("content: artwork generation failed, serving placeholder: %v", err)
		return PlaceholderImage(seed)
	}
	return img
}

// quizBlueprint is the semi-structured question shape the model returns.
// Every field is defended with a default downstream.
type quizBlueprint struct {
	Type                   string   `json:"type"`
	Question               string   `json:"question"`
	Choices                []string `json:"choices"`
	Answer                 string   `json:"answer"`
	AcceptedAnswers        []string `json:"acceptedAnswers"`
	AnimeTitle             string   `json:"animeTitle"`
	VisualSceneDescription string   `json:"visualSceneDescription"`
}

// QuizBatch produces a batch of questions for a progression level, themed by
// the anime rotation. Artwork for the whole batch is fetched concurrently and
// joined before the batch is returned (full batch or none); on any generation
// failure the static fallback set is served instead. The result is never
// empty.
func (p *Pipeline) QuizBatch(ctx context.Context, level int) []domain.Quiz {
	if level < 1 {
		level = 1
	}
	if level > 100 {
		level = 100
	}
	theme := AnimeForLevel(level)

	prompt := fmt.Sprintf(`Génère 5 questions de niveau %d/100.
THÈME CENTRAL : %q.
DIVERSITÉ REQUISE : Citations cultes, Arcs narratifs majeurs, Techniques secrètes, Objets/Artefacts, Scènes emblématiques.
TYPE : image (QCM avec 4 choix).
Langue : Français.
Format JSON : { "questions": [{ "type", "question", "choices", "answer", "acceptedAnswers", "animeTitle", "visualSceneDescription" }] }`, level, theme)

	// Bucketed by level and hour so repeated fetches within a session reuse
	// the cached batch while fresh sessions eventually rotate.
	cacheKey := fmt.Sprintf("quizzes_v12_%d_%d", level, p.now().Truncate(time.Hour).Unix())

	raw, err := p.generateJSON(ctx, TierText, prompt, cacheKey)
	if err != nil {
		log.Printf("content: quiz batch generation failed, serving fallback set: %v", err)
		return p.fallbackSet()
	}

	var parsed struct {
		Questions []quizBlueprint `json:"questions"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil || len(parsed.Questions) == 0 {
		log.Printf("content: quiz batch unparsable, serving fallback set")
		return p.fallbackSet()
	}

	batchID := p.now().UnixMilli()
	quizzes := make([]domain.Quiz, len(parsed.Questions))
	group, groupCtx := errgroup.WithContext(ctx)
	for i, bp := range parsed.Questions {
		i, bp := i, bp
		group.Go(func() error {
			quizzes[i] = p.assembleQuiz(groupCtx, bp, theme, level, batchID, i)
			return nil
		})
	}
	_ = group.Wait()
	return quizzes
}

func (p *Pipeline) assembleQuiz(ctx context.Context, bp quizBlueprint, theme string, level int, batchID int64, idx int) domain.Quiz {
	animeTitle := strings.TrimSpace(bp.AnimeTitle)
	if animeTitle == "" {
		animeTitle = theme
	}
	quizType := domain.QuizType(bp.Type)
	switch quizType {
	case domain.QuizTypeImage, domain.QuizTypeFusion, domain.QuizTypeScrambled, domain.QuizTypeInput:
	default:
		quizType = domain.QuizTypeImage
	}
	answer := strings.TrimSpace(bp.Answer)
	accepted := bp.AcceptedAnswers
	if len(accepted) == 0 && answer != "" {
		accepted = []string{answer}
	}

	imgPrompt := fmt.Sprintf("Cinematic high-fidelity anime scene: %s from %q. Studio production quality, 4K, no text.", bp.VisualSceneDescription, animeTitle)
	img := p.Artwork(ctx, imgPrompt, animeTitle, "16:9")

	return domain.Quiz{
		ID:              fmt.Sprintf("ai_%d_%d", batchID, idx),
		Type:            quizType,
		Difficulty:      minInt(5, (level+19)/20),
		Images:          []string{img},
		Question:        strings.TrimSpace(bp.Question),
		Choices:         bp.Choices,
		Answer:          answer,
		AcceptedAnswers: accepted,
		XP:              100 + level*2,
	}
}

// cardBlueprint is the model's card schema; stat fields default to a fixed
// baseline rather than zero to avoid degenerate combat math.
type cardBlueprint struct {
	Name   string `json:"name"`
	Anime  string `json:"anime"`
	Rarity string `json:"rarity"`
	Pwr    int    `json:"pwr"`
	Spd    int    `json:"spd"`
	Int    int    `json:"int"`
	Eng    int    `json:"eng"`
}

// Card generates one collectible of the requested rarity tier, substituting
// the deterministic fallback unit when generation is exhausted.
func (p *Pipeline) Card(ctx context.Context, rarity domain.Rarity) domain.AnimeCard {
	prompt := fmt.Sprintf(`Génère une carte d'unité d'anime aléatoire issue du Top 100 mondial. Rareté: %s.
Format JSON : { "name", "anime", "rarity", "pwr", "spd", "int", "eng" }`, rarity)

	raw, err := p.generateJSON(ctx, TierText, prompt, "")
	if err != nil {
		log.Printf("content: card generation failed, serving fallback unit: %v", err)
		return p.fallbackCard(rarity)
	}
	var bp cardBlueprint
	if err := json.Unmarshal(raw, &bp); err != nil {
		log.Printf("content: card payload unparsable, serving fallback unit")
		return p.fallbackCard(rarity)
	}
	return p.assembleCard(ctx, bp, "card", rarity, 700)
}

// BonusCard generates the best-effort post-battle reward. Unlike Card there
// is no fallback: failure is returned so the caller can drop the bonus
// without touching the already-committed win rewards.
func (p *Pipeline) BonusCard(ctx context.Context) (domain.AnimeCard, error) {
	prompt := `Génère une carte bonus d'anime (Top 100). Rareté: Rare+. Format JSON strict: { "name", "anime", "rarity", "pwr", "spd", "int", "eng" }`
	raw, err := p.generateJSON(ctx, TierText, prompt, "")
	if err != nil {
		return domain.AnimeCard{}, err
	}
	var bp cardBlueprint
	if err := json.Unmarshal(raw, &bp); err != nil {
		return domain.AnimeCard{}, fmt.Errorf("parse bonus card: %w", err)
	}
	return p.assembleCard(ctx, bp, "bonus", domain.RarityRare, 650), nil
}

// EnemyCard generates a battle opponent tuned to a target power, defaulting
// stats at 600 and Epic rarity when fields are missing.
func (p *Pipeline) EnemyCard(ctx context.Context, targetPower int) domain.AnimeCard {
	prompt := fmt.Sprintf(`Génère un adversaire d'anime (Top 100) avec une puissance d'environ %d.
Format JSON : { "name", "anime", "rarity", "pwr", "spd", "int", "eng" }`, targetPower)

	raw, err := p.generateJSON(ctx, TierText, prompt, "")
	if err != nil {
		log.Printf("content: enemy generation failed, serving fallback opponent: %v", err)
		bp := cardBlueprint{Name: "Spectre Tactique", Anime: "Anime Matrix", Rarity: string(domain.RarityEpic)}
		return p.assembleCard(ctx, bp, "enemy", domain.RarityEpic, 600)
	}
	var bp cardBlueprint
	if err := json.Unmarshal(raw, &bp); err != nil {
		bp = cardBlueprint{Name: "Spectre Tactique", Anime: "Anime Matrix", Rarity: string(domain.RarityEpic)}
	}
	return p.assembleCard(ctx, bp, "enemy", domain.RarityEpic, 600)
}

func (p *Pipeline) assembleCard(ctx context.Context, bp cardBlueprint, idPrefix string, defaultRarity domain.Rarity, statBaseline int) domain.AnimeCard {
	name := strings.TrimSpace(bp.Name)
	if name == "" {
		name = "Guerrier Inconnu"
	}
	anime := strings.TrimSpace(bp.Anime)
	if anime == "" {
		anime = "Anime Matrix"
	}
	rarity := domain.Rarity(bp.Rarity)
	if !rarity.Valid() {
		rarity = defaultRarity
	}
	stats := domain.Stats{
		Power:        statOr(bp.Pwr, statBaseline),
		Speed:        statOr(bp.Spd, statBaseline),
		Intelligence: statOr(bp.Int, statBaseline),
		Energy:       statOr(bp.Eng, statBaseline),
	}
	img := p.Artwork(ctx, fmt.Sprintf("Ultra high-fidelity anime art: %s from %q. Iconic character design.", name, anime), name, "3:4")

	return domain.AnimeCard{
		ID:            fmt.Sprintf("%s_%d", idPrefix, p.now().UnixNano()),
		CharacterName: name,
		Anime:         anime,
		Rarity:        rarity,
		BaseStats:     stats,
		Stats:         stats,
		ImageURL:      img,
		Level:         1,
		CurrentXP:     0,
		XPToNextLevel: domain.CardXPBase,
	}
}

func (p *Pipeline) fallbackCard(rarity domain.Rarity) domain.AnimeCard {
	stats := domain.Stats{Power: 800, Speed: 800, Intelligence: 800, Energy: 800}
	return domain.AnimeCard{
		ID:            fmt.Sprintf("fallback_%d", p.now().UnixNano()),
		CharacterName: "Sentinel Zero",
		Anime:         "Top 100 Archives",
		Rarity:        rarity,
		BaseStats:     stats,
		Stats:         stats,
		ImageURL:      PlaceholderImage("sentinel_zero"),
		Level:         1,
		XPToNextLevel: domain.CardXPBase,
	}
}

// PersonalityQuestions generates the personality test, cached process-wide;
// falls back to the seed question set.
func (p *Pipeline) PersonalityQuestions(ctx context.Context) []domain.PersonalityQuestion {
	prompt := `Génère 5 questions de personnalité totalement imprévisibles et créatives sur l'univers des anime. Mélange des situations de vie quotidienne, des dilemmes moraux et des choix métaphysiques. Langue : Français. Format JSON strict : { "questions": [{ "question", "options": [{ "text", "trait" }] }] }`

	raw, err := p.generateJSON(ctx, TierText, prompt, "personality_quiz_v1")
	if err != nil {
		log.Printf("content: personality questions failed, serving seed set: %v", err)
		return FallbackPersonalityQuestions()
	}
	var parsed struct {
		Questions []struct {
			Question string                     `json:"question"`
			Options  []domain.PersonalityOption `json:"options"`
		} `json:"questions"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil || len(parsed.Questions) == 0 {
		return FallbackPersonalityQuestions()
	}
	questions := make([]domain.PersonalityQuestion, 0, len(parsed.Questions))
	for i, q := range parsed.Questions {
		if strings.TrimSpace(q.Question) == "" || len(q.Options) == 0 {
			continue
		}
		questions = append(questions, domain.PersonalityQuestion{
			ID:       fmt.Sprintf("ai_p_%d", i+1),
			Question: q.Question,
			Options:  q.Options,
		})
	}
	if len(questions) == 0 {
		return FallbackPersonalityQuestions()
	}
	return questions
}

// PersonalityMatch analyzes the player's choices into a Legendary archetype.
// Every field is defended with a default.
func (p *Pipeline) PersonalityMatch(ctx context.Context, choices []string) domain.PersonalityResult {
	prompt := fmt.Sprintf(`Analyse psychologique : [%s].
MISSION : Identifie le personnage ICONIQUE appartenant EXCLUSIVEMENT aux TOP 100 ANIME mondiaux qui correspond à ce profil.
Format JSON : { "name", "anime", "description", "visualContext" }`, strings.Join(choices, ", "))

	result := domain.PersonalityResult{
		Name:        "Guerrier Légendaire",
		Anime:       "Anime Top 100",
		Description: "Un esprit complexe dont la destinée est liée aux plus grandes épopées.",
		Rarity:      domain.RarityLegendary,
	}

	raw, err := p.generateJSON(ctx, TierPro, prompt, "")
	if err == nil {
		var parsed struct {
			Name          string `json:"name"`
			Anime         string `json:"anime"`
			Description   string `json:"description"`
			VisualContext string `json:"visualContext"`
		}
		if json.Unmarshal(raw, &parsed) == nil {
			if strings.TrimSpace(parsed.Name) != "" {
				result.Name = parsed.Name
			}
			if strings.TrimSpace(parsed.Anime) != "" {
				result.Anime = parsed.Anime
			}
			if strings.TrimSpace(parsed.Description) != "" {
				result.Description = parsed.Description
			}
		}
	} else {
		log.Printf("content: personality analysis failed, serving default archetype: %v", err)
	}

	result.ImageURL = p.Artwork(ctx,
		fmt.Sprintf("High-end anime key visual: %s from %q. Masterpiece production, iconic pose, atmospheric, 8k. NO TEXT.", result.Name, result.Anime),
		"personality", "3:4")
	return result
}

func statOr(v, fallback int) int {
	if v <= 0 {
		return fallback
	}
	return v
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

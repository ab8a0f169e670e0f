// Package progression holds the pure level/XP/rank math. Nothing here touches
// I/O or the engine; every function maps inputs to outputs so the leveling
// rules stay independently testable.
package progression

import (
	"math"

	"otaku-arena-service/internal/domain"
)

// XPResult is the outcome of granting player XP. LevelsGained is the number of
// level boundaries crossed; callers use it to fire one level-up cue per level.
type XPResult struct {
	XP           int
	Level        int
	LevelsGained int
}

// ApplyXP folds an XP grant into (xp, level), crossing as many level
// boundaries as the amount covers. Negative amounts are treated as zero.
func ApplyXP(xp, level, amount int) XPResult {
	if amount < 0 {
		amount = 0
	}
	xp += amount
	gained := 0
	for xp >= domain.XPPerLevel {
		xp -= domain.XPPerLevel
		level++
		gained++
	}
	return XPResult{XP: xp, Level: level, LevelsGained: gained}
}

// RankFor returns the rank of the last threshold whose MinLevel <= level.
func RankFor(level int) domain.Rank {
	rank := domain.RankThresholds[0].Rank
	for _, threshold := range domain.RankThresholds {
		if level >= threshold.MinLevel {
			rank = threshold.Rank
		}
	}
	return rank
}

// CardGrowth is the stat multiplier at a card level: 1 + 0.05 per level past 1.
func CardGrowth(level int) float64 {
	return 1 + float64(level-1)*domain.CardGrowthPerLevel
}

// CardXPThreshold is the XP needed to clear a card level:
// floor(1000 * 1.2^(level-1)).
func CardXPThreshold(level int) int {
	return int(math.Floor(domain.CardXPBase * math.Pow(1.2, float64(level-1))))
}

// ScaledStats derives the displayed stat block from immutable base stats.
func ScaledStats(base domain.Stats, level int) domain.Stats {
	growth := CardGrowth(level)
	return domain.Stats{
		Power:        int(math.Floor(float64(base.Power) * growth)),
		Speed:        int(math.Floor(float64(base.Speed) * growth)),
		Intelligence: int(math.Floor(float64(base.Intelligence) * growth)),
		Energy:       int(math.Floor(float64(base.Energy) * growth)),
	}
}

// ApplyCardXP folds an XP grant into a card, crossing level boundaries with
// the escalating threshold curve and recomputing derived stats from base.
// The input card is not modified.
func ApplyCardXP(card domain.AnimeCard, amount int) (domain.AnimeCard, int) {
	if amount < 0 {
		amount = 0
	}
	card.CurrentXP += amount
	gained := 0
	for card.CurrentXP >= card.XPToNextLevel {
		card.CurrentXP -= card.XPToNextLevel
		card.Level++
		gained++
		card.XPToNextLevel = CardXPThreshold(card.Level)
	}
	card.Stats = ScaledStats(card.BaseStats, card.Level)
	return card, gained
}

// EligibleAchievements returns the definitions whose requirement the state
// meets but which are not yet unlocked.
func EligibleAchievements(state domain.UserState, defs []domain.Achievement) []domain.Achievement {
	unlocked := make(map[string]struct{}, len(state.UnlockedAchievements))
	for _, id := range state.UnlockedAchievements {
		unlocked[id] = struct{}{}
	}

	var eligible []domain.Achievement
	for _, def := range defs {
		if _, ok := unlocked[def.ID]; ok {
			continue
		}
		var progress int
		switch def.Type {
		case domain.AchievementLevel:
			progress = state.Level
		case domain.AchievementDiamonds:
			progress = state.Diamonds
		case domain.AchievementQuizzes:
			progress = len(state.CompletedQuizzes)
		case domain.AchievementXP:
			progress = state.TotalXP
		default:
			continue
		}
		if progress >= def.Requirement {
			eligible = append(eligible, def)
		}
	}
	return eligible
}

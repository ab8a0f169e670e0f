package engine

import (
	"fmt"
	"math/rand"
	"sort"

	"otaku-arena-service/internal/domain"
	"otaku-arena-service/internal/progression"
)

var botNames = []string{
	"Kirito_99", "Asuna_X", "Zoro_Lost", "Sasuke_U", "Luffy_Gear6", "Goku_UI",
	"Mikasa_A", "Eren_J", "Naruto_Hokage", "Ichigo_Hollow", "Saitama_One", "Killua_Z",
}

const botCount = 150

// generateBots builds the one-time static comparison snapshot. It is
// generated once on a fresh state, persisted, and never re-rolled; the live
// player entry is merged in only at view time.
func generateBots(rnd *rand.Rand) []domain.LeaderboardEntry {
	bots := make([]domain.LeaderboardEntry, 0, botCount)
	for i := 0; i < botCount; i++ {
		xp := rnd.Intn(150000)
		name := fmt.Sprintf("%s_%d", botNames[rnd.Intn(len(botNames))], rnd.Intn(999))
		level := xp / domain.XPPerLevel
		bots = append(bots, domain.LeaderboardEntry{
			ID:    fmt.Sprintf("bot_%d", i),
			Name:  name,
			XP:    xp,
			Rank:  progression.RankFor(level),
			IsBot: true,
		})
	}
	return bots
}

// LeaderboardView merges the live player row into the bot snapshot, sorted by
// XP descending. The merge is render-only and never written back.
func (e *Engine) LeaderboardView() []domain.LeaderboardEntry {
	e.mu.Lock()
	defer e.mu.Unlock()

	entries := make([]domain.LeaderboardEntry, 0, len(e.state.Leaderboard)+1)
	entries = append(entries, e.state.Leaderboard...)
	entries = append(entries, domain.LeaderboardEntry{
		ID:    "player",
		Name:  e.state.Nickname,
		XP:    e.state.TotalXP,
		Rank:  e.state.Rank,
		IsBot: false,
	})
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].XP > entries[j].XP
	})
	return entries
}

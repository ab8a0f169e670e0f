package battle

import (
	"context"
	"errors"
	"testing"

	"otaku-arena-service/internal/domain"
)

func card(id string, rarity domain.Rarity, pwr, spd, intel int) domain.AnimeCard {
	stats := domain.Stats{Power: pwr, Speed: spd, Intelligence: intel, Energy: 500}
	return domain.AnimeCard{ID: id, CharacterName: id, Rarity: rarity, BaseStats: stats, Stats: stats, Level: 1}
}

func TestScoreWeighsRarity(t *testing.T) {
	common := card("a", domain.RarityCommon, 100, 100, 100)
	mythic := card("b", domain.RarityMythic, 100, 100, 100)
	if got := Score(common); got != 500 {
		t.Fatalf("common score = %d, want 500", got)
	}
	if got := Score(mythic); got != 1500 {
		t.Fatalf("mythic score = %d, want 1500", got)
	}
}

func TestResolveTieFavorsPlayer(t *testing.T) {
	a := card("a", domain.RarityEpic, 700, 650, 600)
	b := card("b", domain.RarityEpic, 700, 650, 600)
	out := Resolve(a, b)
	if !out.PlayerWon {
		t.Fatalf("identical cards must resolve to a player win")
	}
	if out.PlayerScore != out.EnemyScore {
		t.Fatalf("scores should be equal: %d vs %d", out.PlayerScore, out.EnemyScore)
	}
}

func TestResolveRewardMath(t *testing.T) {
	player := card("a", domain.RarityCommon, 500, 300, 200) // score 1200
	enemy := card("b", domain.RarityCommon, 100, 100, 100)
	out := Resolve(player, enemy)
	if !out.PlayerWon {
		t.Fatalf("expected win")
	}
	if out.PlayerXP != 240 || out.CardXP != 400 || out.Diamonds != domain.BattleDiamondReward {
		t.Fatalf("rewards = %d/%d/%d", out.PlayerXP, out.CardXP, out.Diamonds)
	}
}

func TestResolveLossGrantsNothing(t *testing.T) {
	player := card("a", domain.RarityCommon, 100, 100, 100)
	enemy := card("b", domain.RarityMythic, 900, 900, 900)
	out := Resolve(player, enemy)
	if out.PlayerWon {
		t.Fatalf("expected loss")
	}
	if out.PlayerXP != 0 || out.CardXP != 0 || out.Diamonds != 0 {
		t.Fatalf("loss must carry no rewards: %+v", out)
	}
}

type fakeBattleGame struct {
	state      domain.UserState
	xp         int
	cardXP     map[string]int
	diamonds   int
	addedCards []domain.AnimeCard
}

func (g *fakeBattleGame) Snapshot() domain.UserState { return g.state }
func (g *fakeBattleGame) AddXP(amount int) int {
	g.xp += amount
	return 0
}
func (g *fakeBattleGame) AddCardXP(cardID string, amount int) bool {
	if g.cardXP == nil {
		g.cardXP = map[string]int{}
	}
	g.cardXP[cardID] += amount
	return true
}
func (g *fakeBattleGame) GainDiamonds(amount int) { g.diamonds += amount }
func (g *fakeBattleGame) AddCard(card domain.AnimeCard) { g.addedCards = append(g.addedCards, card) }

type fakeOpponents struct {
	enemy    domain.AnimeCard
	bonus    domain.AnimeCard
	bonusErr error
}

func (f *fakeOpponents) EnemyCard(context.Context, int) domain.AnimeCard { return f.enemy }
func (f *fakeOpponents) BonusCard(context.Context) (domain.AnimeCard, error) {
	return f.bonus, f.bonusErr
}

func TestFightWinCommitsRewardsAndBonus(t *testing.T) {
	player := card("mine", domain.RarityEpic, 700, 650, 600) // score 2550
	game := &fakeBattleGame{state: domain.UserState{Inventory: []domain.AnimeCard{player}}}
	opponents := &fakeOpponents{
		enemy: card("enemy", domain.RarityCommon, 100, 100, 100),
		bonus: card("bonus", domain.RarityRare, 650, 650, 650),
	}
	svc := NewService(game, opponents)

	out, err := svc.Fight(context.Background(), "mine")
	if err != nil {
		t.Fatalf("Fight: %v", err)
	}
	if !out.PlayerWon {
		t.Fatalf("expected win")
	}
	if game.xp != 510 || game.cardXP["mine"] != 850 || game.diamonds != domain.BattleDiamondReward {
		t.Fatalf("rewards not committed: xp=%d cardXP=%d diamonds=%d", game.xp, game.cardXP["mine"], game.diamonds)
	}
	if out.BonusCard == nil || len(game.addedCards) != 1 || game.addedCards[0].ID != "bonus" {
		t.Fatalf("bonus card not applied: %+v", game.addedCards)
	}
}

func TestFightBonusFailureKeepsWinRewards(t *testing.T) {
	player := card("mine", domain.RarityEpic, 700, 650, 600)
	game := &fakeBattleGame{state: domain.UserState{Inventory: []domain.AnimeCard{player}}}
	opponents := &fakeOpponents{
		enemy:    card("enemy", domain.RarityCommon, 100, 100, 100),
		bonusErr: errors.New("generator down"),
	}
	svc := NewService(game, opponents)

	out, err := svc.Fight(context.Background(), "mine")
	if err != nil {
		t.Fatalf("Fight: %v", err)
	}
	if out.BonusCard != nil || len(game.addedCards) != 0 {
		t.Fatalf("failed bonus must be dropped")
	}
	if game.xp == 0 || game.diamonds != domain.BattleDiamondReward {
		t.Fatalf("win rewards must survive a failed bonus: xp=%d diamonds=%d", game.xp, game.diamonds)
	}
}

func TestFightLossAppliesNothing(t *testing.T) {
	player := card("mine", domain.RarityCommon, 100, 100, 100)
	game := &fakeBattleGame{state: domain.UserState{Inventory: []domain.AnimeCard{player}}}
	opponents := &fakeOpponents{enemy: card("enemy", domain.RarityMythic, 900, 900, 900)}
	svc := NewService(game, opponents)

	out, err := svc.Fight(context.Background(), "mine")
	if err != nil {
		t.Fatalf("Fight: %v", err)
	}
	if out.PlayerWon {
		t.Fatalf("expected loss")
	}
	if game.xp != 0 || game.diamonds != 0 || len(game.addedCards) != 0 {
		t.Fatalf("loss must not mutate state")
	}
}

func TestFightUnknownCard(t *testing.T) {
	game := &fakeBattleGame{}
	svc := NewService(game, &fakeOpponents{})
	if _, err := svc.Fight(context.Background(), "ghost"); !errors.Is(err, domain.ErrCardNotFound) {
		t.Fatalf("err = %v, want ErrCardNotFound", err)
	}
}

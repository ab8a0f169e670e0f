// Package battle resolves card duels deterministically and applies the win
// rewards through the game state engine.
package battle

import (
	"context"
	"log"

	"otaku-arena-service/internal/domain"
)

// Score is the combat value of a card: raw stats plus 200 per rarity tier.
func Score(card domain.AnimeCard) int {
	return card.Stats.Power + card.Stats.Speed + card.Stats.Intelligence + card.Rarity.Weight()*200
}

// Outcome is the resolved result of one duel.
type Outcome struct {
	PlayerCard  domain.AnimeCard  `json:"playerCard"`
	EnemyCard   domain.AnimeCard  `json:"enemyCard"`
	PlayerScore int               `json:"playerScore"`
	EnemyScore  int               `json:"enemyScore"`
	PlayerWon   bool              `json:"playerWon"`
	PlayerXP    int               `json:"playerXp"`
	CardXP      int               `json:"cardXp"`
	Diamonds    int               `json:"diamonds"`
	BonusCard   *domain.AnimeCard `json:"bonusCard,omitempty"`
}

// Resolve is pure: same cards, same outcome. Ties favor the player. Reward
// amounts are computed on a win but not applied.
func Resolve(player, enemy domain.AnimeCard) Outcome {
	playerScore := Score(player)
	enemyScore := Score(enemy)
	out := Outcome{
		PlayerCard:  player,
		EnemyCard:   enemy,
		PlayerScore: playerScore,
		EnemyScore:  enemyScore,
		PlayerWon:   playerScore >= enemyScore,
	}
	if out.PlayerWon {
		out.PlayerXP = playerScore / 5
		out.CardXP = playerScore / 3
		out.Diamonds = domain.BattleDiamondReward
	}
	return out
}

// GameState is the slice of the engine the battle service needs.
type GameState interface {
	Snapshot() domain.UserState
	AddXP(amount int) int
	AddCardXP(cardID string, amount int) bool
	GainDiamonds(amount int)
	AddCard(card domain.AnimeCard)
}

// OpponentSource generates enemies and best-effort bonus reward cards.
type OpponentSource interface {
	EnemyCard(ctx context.Context, targetPower int) domain.AnimeCard
	BonusCard(ctx context.Context) (domain.AnimeCard, error)
}

// Service runs duels for one player.
type Service struct {
	game      GameState
	opponents OpponentSource
}

func NewService(game GameState, opponents OpponentSource) *Service {
	return &Service{game: game, opponents: opponents}
}

// Fight duels the given inventory card against a generated opponent. Win
// rewards are committed before the bonus card is attempted; a failed bonus
// generation is logged and dropped without touching the committed rewards.
func (s *Service) Fight(ctx context.Context, cardID string) (Outcome, error) {
	state := s.game.Snapshot()
	player := state.CardByID(cardID)
	if player == nil {
		return Outcome{}, domain.ErrCardNotFound
	}

	enemy := s.opponents.EnemyCard(ctx, player.Stats.Power)
	out := Resolve(*player, enemy)
	if !out.PlayerWon {
		return out, nil
	}

	s.game.AddXP(out.PlayerXP)
	s.game.AddCardXP(cardID, out.CardXP)
	s.game.GainDiamonds(out.Diamonds)

	if bonus, err := s.opponents.BonusCard(ctx); err != nil {
		log.Printf("battle: bonus card generation failed, dropping bonus: %v", err)
	} else {
		s.game.AddCard(bonus)
		out.BonusCard = &bonus
	}
	return out, nil
}

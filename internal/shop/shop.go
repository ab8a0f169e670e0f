// Package shop sells the storefront: soft-currency draws and booster packs
// settle immediately against the diamond balance, while real-money bundles
// settle only on the payment gateway's callback.
package shop

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"otaku-arena-service/internal/domain"
)

// GameState is the slice of the engine the shop needs.
type GameState interface {
	Snapshot() domain.UserState
	SpendDiamonds(amount int) bool
	GainDiamonds(amount int)
	GainBoosters(amount int)
	AddCard(card domain.AnimeCard)
	UnlockTheme(themeID string)
}

// CardSource generates drawn and bundled cards.
type CardSource interface {
	Card(ctx context.Context, rarity domain.Rarity) domain.AnimeCard
}

// Order is one real-money purchase in flight or settled.
type Order struct {
	ID               string        `json:"id"`
	OfferID          string        `json:"offerId"`
	AmountMinorUnits int64         `json:"amountMinorUnits"`
	Description      string        `json:"description"`
	Status           PaymentStatus `json:"status"`
	PaymentURL       string        `json:"paymentUrl,omitempty"`
}

// Service runs the storefront for one player.
type Service struct {
	mu      sync.Mutex
	game    GameState
	cards   CardSource
	gateway Gateway
	offers  []domain.ShopOffer
	orders  map[string]*Order
	now     func() time.Time
}

// NewService wires the storefront over the given offer catalog.
func NewService(game GameState, cards CardSource, gateway Gateway, offers []domain.ShopOffer) *Service {
	return NewServiceWithClock(game, cards, gateway, offers, time.Now)
}

func NewServiceWithClock(game GameState, cards CardSource, gateway Gateway, offers []domain.ShopOffer, now func() time.Time) *Service {
	return &Service{
		game:    game,
		cards:   cards,
		gateway: gateway,
		offers:  offers,
		orders:  make(map[string]*Order),
		now:     now,
	}
}

// Offers lists the catalog.
func (s *Service) Offers() []domain.ShopOffer {
	out := make([]domain.ShopOffer, len(s.offers))
	copy(out, s.offers)
	return out
}

func (s *Service) offerByID(id string) (domain.ShopOffer, error) {
	for _, offer := range s.offers {
		if offer.ID == id {
			return offer, nil
		}
	}
	return domain.ShopOffer{}, domain.ErrOfferNotFound
}

// Draw settles a soft-currency offer: the diamond spend is checked and
// committed atomically before any card is generated, and an insufficient
// balance leaves state untouched. The drawn card (if the offer grants one)
// is appended to the inventory.
func (s *Service) Draw(ctx context.Context, offerID string) ([]domain.AnimeCard, error) {
	offer, err := s.offerByID(offerID)
	if err != nil {
		return nil, err
	}
	if offer.IsRealMoney {
		return nil, fmt.Errorf("offer %s: %w", offerID, domain.ErrOfferNotFound)
	}
	if !s.game.SpendDiamonds(int(offer.Price)) {
		return nil, domain.ErrInsufficientDiamonds
	}
	if offer.Content.Boosters > 0 {
		s.game.GainBoosters(offer.Content.Boosters)
	}
	var drawn []domain.AnimeCard
	for i := 0; i < offer.Content.Cards; i++ {
		card := s.cards.Card(ctx, offer.Content.GuaranteedRarity)
		s.game.AddCard(card)
		drawn = append(drawn, card)
	}
	return drawn, nil
}

// Initiate opens a real-money order with the payment gateway. No bundle
// effect is applied here; settlement happens exclusively in Settle when the
// gateway's callback arrives.
func (s *Service) Initiate(ctx context.Context, offerID string) (Order, error) {
	offer, err := s.offerByID(offerID)
	if err != nil {
		return Order{}, err
	}
	if !offer.IsRealMoney {
		return Order{}, fmt.Errorf("offer %s: %w", offerID, domain.ErrOfferNotFound)
	}

	order := &Order{
		ID:               fmt.Sprintf("order_%d", s.now().UnixNano()),
		OfferID:          offer.ID,
		AmountMinorUnits: AmountMinorUnits(offer.Price),
		Description:      offer.Title,
		Status:           PaymentPending,
	}
	session, err := s.gateway.CreateCharge(ctx, ChargeRequest{
		TransactionID:    order.ID,
		AmountMinorUnits: order.AmountMinorUnits,
		Description:      order.Description,
		CustomerName:     s.game.Snapshot().Nickname,
	})
	if err != nil {
		return Order{}, err
	}
	order.PaymentURL = session.PaymentURL

	s.mu.Lock()
	s.orders[order.ID] = order
	s.mu.Unlock()
	return *order, nil
}

// Settle is the gateway callback's entry point and the sole authority for
// completing a real-money purchase. Only an explicit approval applies the
// bundle; declined and cancelled orders leave state completely unchanged.
// A settled order cannot be settled again.
func (s *Service) Settle(ctx context.Context, orderID string, status PaymentStatus) (Order, error) {
	s.mu.Lock()
	order, ok := s.orders[orderID]
	if !ok {
		s.mu.Unlock()
		return Order{}, domain.ErrOfferNotFound
	}
	if order.Status != PaymentPending {
		settled := *order
		s.mu.Unlock()
		return settled, fmt.Errorf("order %s already settled as %s", orderID, settled.Status)
	}
	order.Status = status
	settled := *order
	s.mu.Unlock()

	switch status {
	case PaymentApproved:
		offer, err := s.offerByID(order.OfferID)
		if err != nil {
			return settled, err
		}
		s.applyBundle(ctx, offer)
		return settled, nil
	case PaymentCancelled:
		return settled, domain.ErrPaymentCancelled
	default:
		return settled, domain.ErrPaymentDeclined
	}
}

// Order looks up a known order by ID.
func (s *Service) Order(orderID string) (Order, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.orders[orderID]
	if !ok {
		return Order{}, false
	}
	return *order, true
}

func (s *Service) applyBundle(ctx context.Context, offer domain.ShopOffer) {
	if offer.Content.Diamonds > 0 {
		s.game.GainDiamonds(offer.Content.Diamonds)
	}
	if offer.Content.Boosters > 0 {
		s.game.GainBoosters(offer.Content.Boosters)
	}
	if offer.Content.ThemeID != "" {
		s.game.UnlockTheme(offer.Content.ThemeID)
	}
	for i := 0; i < offer.Content.Cards; i++ {
		s.game.AddCard(s.cards.Card(ctx, offer.Content.GuaranteedRarity))
	}
	log.Printf("shop: bundle %s settled", offer.ID)
}

// Package http exposes the game over a JSON API plus a websocket play
// endpoint.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"otaku-arena-service/internal/battle"
	"otaku-arena-service/internal/content"
	"otaku-arena-service/internal/domain"
	"otaku-arena-service/internal/engine"
	"otaku-arena-service/internal/shop"
)

// ContentSource is the slice of the content pipeline the REST surface needs.
type ContentSource interface {
	PersonalityQuestions(ctx context.Context) []domain.PersonalityQuestion
	PersonalityMatch(ctx context.Context, choices []string) domain.PersonalityResult
}

// Server bundles the game services behind HTTP handlers.
type Server struct {
	engine  *engine.Engine
	shop    *shop.Service
	battles *battle.Service
	content ContentSource
	play    *PlayHandler
}

func NewServer(eng *engine.Engine, shopSvc *shop.Service, battles *battle.Service, content ContentSource, play *PlayHandler) *Server {
	return &Server{engine: eng, shop: shopSvc, battles: battles, content: content, play: play}
}

// Routes wires every endpoint onto a fresh mux.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", s.play.ServeWS)
	mux.HandleFunc("/state", s.handleState)
	mux.HandleFunc("/leaderboard", s.handleLeaderboard)
	mux.HandleFunc("/settings", s.handleSettings)
	mux.HandleFunc("/nickname", s.handleNickname)
	mux.HandleFunc("/theme", s.handleTheme)
	mux.HandleFunc("/hearts/refill", s.handleHeartRefill)
	mux.HandleFunc("/cards/boost", s.handleBoost)
	mux.HandleFunc("/battle", s.handleBattle)
	mux.HandleFunc("/shop/offers", s.handleOffers)
	mux.HandleFunc("/shop/draw", s.handleDraw)
	mux.HandleFunc("/shop/purchase", s.handlePurchase)
	mux.HandleFunc("/shop/payment/callback", s.handlePaymentCallback)
	mux.HandleFunc("/battlepass/purchase", s.handleBattlePass)
	mux.HandleFunc("/achievements", s.handleAchievements)
	mux.HandleFunc("/personality/questions", s.handlePersonalityQuestions)
	mux.HandleFunc("/personality/match", s.handlePersonalityMatch)
	mux.HandleFunc("/reset", s.handleReset)
	return mux
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("http: encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrCardNotFound), errors.Is(err, domain.ErrOfferNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrInsufficientDiamonds), errors.Is(err, domain.ErrNoBoosters), errors.Is(err, domain.ErrNoHearts):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrPaymentDeclined), errors.Is(err, domain.ErrPaymentCancelled):
		status = http.StatusPaymentRequired
	}
	writeJSON(w, status, errorPayload{Message: err.Error()})
}

func readJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorPayload{Message: "invalid request body"})
		return false
	}
	return true
}

func requireMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		w.Header().Set("Allow", method)
		writeJSON(w, http.StatusMethodNotAllowed, errorPayload{Message: "method not allowed"})
		return false
	}
	return true
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, http.StatusOK, s.engine.Snapshot())
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, http.StatusOK, s.engine.LeaderboardView())
}

func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var patch domain.SettingsPatch
	if !readJSON(w, r, &patch) {
		return
	}
	s.engine.UpdateSettings(patch)
	writeJSON(w, http.StatusOK, s.engine.Snapshot().Settings)
}

func (s *Server) handleNickname(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var req struct {
		Nickname string `json:"nickname"`
	}
	if !readJSON(w, r, &req) {
		return
	}
	s.engine.SetNickname(req.Nickname)
	writeJSON(w, http.StatusOK, map[string]string{"nickname": s.engine.Snapshot().Nickname})
}

func (s *Server) handleTheme(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var req struct {
		ThemeID string `json:"themeId"`
	}
	if !readJSON(w, r, &req) {
		return
	}
	s.engine.SetTheme(req.ThemeID)
	writeJSON(w, http.StatusOK, map[string]string{"theme": s.engine.Snapshot().Theme})
}

func (s *Server) handleHeartRefill(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	if !s.engine.RefillHeartsWithDiamonds() {
		writeError(w, domain.ErrInsufficientDiamonds)
		return
	}
	state := s.engine.Snapshot()
	writeJSON(w, http.StatusOK, map[string]int{"hearts": state.Hearts, "diamonds": state.Diamonds})
}

func (s *Server) handleBoost(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var req struct {
		CardID string `json:"cardId"`
	}
	if !readJSON(w, r, &req) {
		return
	}
	if err := s.engine.UseBoosterOnCard(req.CardID); err != nil {
		writeError(w, err)
		return
	}
	state := s.engine.Snapshot()
	card := state.CardByID(req.CardID)
	writeJSON(w, http.StatusOK, map[string]any{"card": card, "boosters": state.Boosters})
}

func (s *Server) handleBattle(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var req struct {
		CardID string `json:"cardId"`
	}
	if !readJSON(w, r, &req) {
		return
	}
	outcome, err := s.battles.Fight(r.Context(), req.CardID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}

func (s *Server) handleOffers(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, http.StatusOK, s.shop.Offers())
}

func (s *Server) handleDraw(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var req struct {
		OfferID string `json:"offerId"`
	}
	if !readJSON(w, r, &req) {
		return
	}
	cards, err := s.shop.Draw(r.Context(), req.OfferID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"cards":    cards,
		"diamonds": s.engine.Snapshot().Diamonds,
		"boosters": s.engine.Snapshot().Boosters,
	})
}

func (s *Server) handlePurchase(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var req struct {
		OfferID string `json:"offerId"`
	}
	if !readJSON(w, r, &req) {
		return
	}
	order, err := s.shop.Initiate(r.Context(), req.OfferID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

// handlePaymentCallback settles a real-money order. It is the only code path
// that applies a bundle; the client never completes a purchase on its own.
func (s *Server) handlePaymentCallback(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var req struct {
		OrderID string             `json:"orderId"`
		Status  shop.PaymentStatus `json:"status"`
	}
	if !readJSON(w, r, &req) {
		return
	}
	order, err := s.shop.Settle(r.Context(), req.OrderID, req.Status)
	if err != nil && !errors.Is(err, domain.ErrPaymentDeclined) && !errors.Is(err, domain.ErrPaymentCancelled) {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (s *Server) handleBattlePass(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	s.engine.PurchaseBattlePass()
	writeJSON(w, http.StatusOK, map[string]bool{"hasBattlePass": s.engine.Snapshot().HasBattlePass})
}

func (s *Server) handleAchievements(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"definitions": content.Achievements(),
		"unlocked":    s.engine.Snapshot().UnlockedAchievements,
	})
}

func (s *Server) handlePersonalityQuestions(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, http.StatusOK, s.content.PersonalityQuestions(r.Context()))
}

func (s *Server) handlePersonalityMatch(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var req struct {
		Choices []string `json:"choices"`
	}
	if !readJSON(w, r, &req) {
		return
	}
	match := s.content.PersonalityMatch(r.Context(), req.Choices)
	s.engine.SetPersonality(match)
	writeJSON(w, http.StatusOK, match)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	if err := s.engine.ResetGame(); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.engine.Snapshot())
}

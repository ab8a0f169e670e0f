package http

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"otaku-arena-service/internal/domain"
	"otaku-arena-service/internal/engine"
	"otaku-arena-service/internal/session"
)

// PlayHandler runs one trivia session per websocket connection. The server
// owns the countdown: a per-connection ticker drives the session clock and
// pushes the resulting transitions to the client.
type PlayHandler struct {
	engine   *engine.Engine
	quizzes  session.QuizFetcher
	tick     time.Duration
	upgrader websocket.Upgrader
}

func NewPlayHandler(eng *engine.Engine, quizzes session.QuizFetcher) *PlayHandler {
	return &PlayHandler{
		engine:  eng,
		quizzes: quizzes,
		tick:    time.Second,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type answerPayload struct {
	Answer string `json:"answer"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// questionView is the client-facing question: the answer key stays on the
// server.
type questionView struct {
	ID         string   `json:"id"`
	Type       string   `json:"type"`
	Difficulty int      `json:"difficulty"`
	Question   string   `json:"question"`
	Choices    []string `json:"choices,omitempty"`
	Images     []string `json:"images,omitempty"`
	XP         int      `json:"xp"`
	Countdown  int      `json:"countdown"`
}

type tickView struct {
	Phase     session.Phase `json:"phase"`
	Countdown int           `json:"countdown"`
}

// playerView is the per-message state summary appended after judgements.
type playerView struct {
	Level         int    `json:"level"`
	XP            int    `json:"xp"`
	TotalXP       int    `json:"totalXp"`
	Hearts        int    `json:"hearts"`
	Diamonds      int    `json:"diamonds"`
	Rank          string `json:"rank"`
	NextHeartInMS int64  `json:"nextHeartInMs"`
}

func newQuestionView(quiz domain.Quiz, countdown int) questionView {
	return questionView{
		ID:         quiz.ID,
		Type:       string(quiz.Type),
		Difficulty: quiz.Difficulty,
		Question:   quiz.Question,
		Choices:    quiz.Choices,
		Images:     quiz.Images,
		XP:         quiz.XP,
		Countdown:  countdown,
	}
}

func (h *PlayHandler) playerView() playerView {
	state := h.engine.Snapshot()
	return playerView{
		Level:         state.Level,
		XP:            state.XP,
		TotalXP:       state.TotalXP,
		Hearts:        state.Hearts,
		Diamonds:      state.Diamonds,
		Rank:          string(state.Rank),
		NextHeartInMS: h.engine.TimeToNextHeart().Milliseconds(),
	}
}

// ServeWS upgrades the request and runs the session loop until the client
// disconnects.
func (h *PlayHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	ctrl := session.NewController(h.engine, h.quizzes)
	defer ctrl.Close()
	ctrl.Begin(r.Context())

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	tickerDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	// The ticker both drives the countdown and detects phase transitions, so
	// the client sees each new question exactly once.
	go func() {
		defer close(tickerDone)
		ticker := time.NewTicker(h.tick)
		defer ticker.Stop()
		lastQuizID := ""
		for {
			select {
			case <-ticker.C:
				judgement := ctrl.Tick()
				phase := ctrl.Phase()
				if quiz, ok := ctrl.Current(); ok && phase == session.PhasePresenting && quiz.ID != lastQuizID {
					lastQuizID = quiz.ID
					h.trySend(send, closeSignals, "question", newQuestionView(quiz, ctrl.Countdown()))
					continue
				}
				if judgement != nil {
					h.trySend(send, closeSignals, "judgement", judgement)
					h.trySend(send, closeSignals, "player", h.playerView())
					continue
				}
				h.trySend(send, closeSignals, "tick", tickView{Phase: phase, Countdown: ctrl.Countdown()})
			case <-closeSignals:
				return
			}
		}
	}()

	h.trySend(send, closeSignals, "player", h.playerView())

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "answer":
			var payload answerPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				h.trySend(send, closeSignals, "error", errorPayload{Message: "invalid answer payload"})
				continue
			}
			judgement, err := ctrl.Submit(payload.Answer)
			if err != nil {
				h.trySend(send, closeSignals, "error", errorPayload{Message: err.Error()})
				continue
			}
			h.trySend(send, closeSignals, "judgement", judgement)
			h.trySend(send, closeSignals, "player", h.playerView())
		case "resume":
			ctrl.Resume(r.Context())
			h.trySend(send, closeSignals, "tick", tickView{Phase: ctrl.Phase(), Countdown: ctrl.Countdown()})
		default:
			h.trySend(send, closeSignals, "error", errorPayload{Message: "unsupported message type"})
		}
	}

	close(closeSignals)
	<-tickerDone
	close(send)
	<-writerDone
}

func (h *PlayHandler) trySend(send chan<- outboundMessage[any], closeSignals <-chan struct{}, msgType string, payload any) {
	select {
	case send <- outboundMessage[any]{Type: msgType, Payload: payload}:
	case <-closeSignals:
	}
}

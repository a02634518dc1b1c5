package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/hangulab/topik-practice-backend/internal/middleware"
	"github.com/hangulab/topik-practice-backend/internal/service"
	"github.com/hangulab/topik-practice-backend/internal/session"
	ws "github.com/hangulab/topik-practice-backend/internal/websocket"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// An empty allowedOrigins slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler streams the live exam session: the authoritative countdown
// flows down every second, answers and timer controls flow up.
type WSHandler struct {
	sessionService *service.SessionService
	log            zerolog.Logger
	upgrader       websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(sessionService *service.SessionService, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		sessionService: sessionService,
		log:            log.With().Str("component", "ws_handler").Logger(),
		upgrader:       buildUpgrader(allowedOrigins),
	}
}

// SessionStream godoc
// WS /ws/v1/portal/session?token=...
// Upgrades to WebSocket for the active exam session.
func (h *WSHandler) SessionStream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	learnerID := claims.UserID
	wsLog := h.log.With().Int("learner_id", learnerID).Logger()
	wsLog.Info().Msg("Learner connected")

	// One write mutex per connection: the tick pusher and the reader's
	// acknowledgements share the socket.
	var writeMu sync.Mutex
	write := func(v interface{}) error {
		writeMu.Lock()
		defer writeMu.Unlock()
		return ws.WriteTyped(conn, v)
	}

	done := make(chan struct{})
	defer close(done)
	go h.pushTicks(learnerID, write, done, wsLog)

	for {
		_, raw, err := readMessage(conn)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				wsLog.Debug().Msg("Connection closed")
			}
			return
		}
		h.dispatch(learnerID, raw, write, wsLog)
	}
}

func readMessage(conn *websocket.Conn) (int, []byte, error) {
	conn.SetReadDeadline(time.Now().Add(5 * time.Minute))
	return conn.ReadMessage()
}

// pushTicks streams the countdown while the learner sits the exam, and
// announces the auto-submission when the timer runs out.
func (h *WSHandler) pushTicks(learnerID int, write func(interface{}) error, done <-chan struct{}, wsLog zerolog.Logger) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	announced := false
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			m := h.sessionService.Machine(learnerID)
			view := m.View()

			if view == session.ViewExam {
				announced = false
				timeLeft, active := m.TimeLeft()
				if err := write(ws.TickEvent{Event: ws.EventTick, TimeLeft: timeLeft, TimerActive: active}); err != nil {
					return
				}
				continue
			}

			// The shared service ticker drives the countdown; this loop only
			// reports. A RESULT view with a zeroed timer means it expired.
			if view == session.ViewResult && !announced {
				if result := m.Result(); result != nil {
					if timeLeft, _ := m.TimeLeft(); timeLeft == 0 {
						announced = true
						if err := write(ws.SubmittedEvent{
							Event:        ws.EventAutoSubmitted,
							Score:        result.Score,
							TotalScore:   result.TotalScore,
							CorrectCount: result.CorrectCount,
						}); err != nil {
							return
						}
						wsLog.Info().Msg("Auto-submission announced")
					}
				}
			}
		}
	}
}

func (h *WSHandler) dispatch(learnerID int, raw []byte, write func(interface{}) error, wsLog zerolog.Logger) {
	var envelope ws.RequestEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		write(ws.ErrorEvent{Event: ws.EventError, Error: "invalid message"})
		return
	}

	switch envelope.Action {
	case ws.ActionAnswer:
		var req ws.AnswerRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			write(ws.ErrorEvent{Event: ws.EventError, Error: "invalid answer payload"})
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := h.sessionService.Answer(ctx, learnerID, req.Number, req.Option)
		cancel()
		if err != nil {
			write(ws.ErrorEvent{Event: ws.EventError, Error: err.Error()})
			return
		}
		write(ws.AnswerSavedEvent{Event: ws.EventAnswerSaved, Number: req.Number, Option: req.Option})

	case ws.ActionPause:
		if err := h.sessionService.Pause(learnerID); err != nil {
			write(ws.ErrorEvent{Event: ws.EventError, Error: err.Error()})
		}

	case ws.ActionResume:
		if err := h.sessionService.Resume(learnerID); err != nil {
			write(ws.ErrorEvent{Event: ws.EventError, Error: err.Error()})
		}

	case ws.ActionSubmit:
		attempt, err := h.sessionService.Submit(learnerID)
		if err != nil {
			write(ws.ErrorEvent{Event: ws.EventError, Error: err.Error()})
			return
		}
		write(ws.SubmittedEvent{
			Event:        ws.EventSubmitted,
			Score:        attempt.Score,
			TotalScore:   attempt.TotalScore,
			CorrectCount: attempt.CorrectCount,
		})

	case ws.ActionPing:
		write(ws.PongEvent{Event: ws.EventPong})

	default:
		wsLog.Warn().Str("action", string(envelope.Action)).Msg("Unknown action")
		write(ws.ErrorEvent{Event: ws.EventError, Error: "unknown action: " + string(envelope.Action)})
	}
}

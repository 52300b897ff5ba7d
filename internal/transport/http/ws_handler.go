package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"androbot/internal/dialogue"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// WSHandler is the chat transport: one websocket per user conversation.
type WSHandler struct {
	engine   *dialogue.Engine
	states   dialogue.StateStore
	log      *zap.Logger
	upgrader websocket.Upgrader
}

func NewWSHandler(engine *dialogue.Engine, states dialogue.StateStore, log *zap.Logger) *WSHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &WSHandler{
		engine: engine,
		states: states,
		log:    log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type      dialogue.InputKind `json:"type"`
	Text      string             `json:"text"`
	Audio     string             `json:"audio"`
	Specialty string             `json:"specialty"`
	Mode      string             `json:"mode"`
	Score     json.RawMessage    `json:"score"`
}

func (m inboundMessage) input() dialogue.Input {
	return dialogue.Input{
		Kind:      m.Type,
		Text:      m.Text,
		AudioRef:  m.Audio,
		Specialty: m.Specialty,
		Mode:      m.Mode,
		Score:     rawScore(m.Score),
	}
}

// rawScore accepts both 2 and "right".
func rawScore(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return strings.TrimSpace(string(raw))
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades HTTP requests to websockets and feeds every inbound message through the
// dialogue engine, persisting the conversation after each step.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	userID, err := strconv.ParseInt(query.Get("userId"), 10, 64)
	if err != nil {
		http.Error(w, "missing or invalid userId", http.StatusBadRequest)
		return
	}
	name := query.Get("name")
	username := query.Get("username")

	connID := uuid.NewString()
	log := h.log.With(zap.String("connId", connID), zap.Int64("userId", userID))

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn("ws upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	ctx := r.Context()
	conv, err := h.load(ctx, userID)
	if err != nil {
		log.Error("conversation load failed", zap.Error(err))
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: "state unavailable"}})
		return
	}

	out := newOutbox(func(msg outboundMessage[any]) error {
		if err := conn.WriteJSON(msg); err != nil {
			// unblock the reader too
			_ = conn.Close()
			return err
		}
		return nil
	}, log)

	log.Info("chat connected", zap.String("state", string(conv.State)))
	out.push(outboundMessage[any]{Type: "state", Payload: dialogue.Reply{State: conv.State, Options: dialogue.Expected(conv.State)}})

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Debug("ws read error", zap.Error(err))
			}
			break
		}
		if inbound.Type == "" {
			if !out.push(outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "message type is required"}}) {
				break
			}
			continue
		}

		reply, next := h.engine.Handle(ctx, conv, dialogue.Update{
			UserID:   userID,
			Name:     name,
			Username: username,
			Input:    inbound.input(),
		})
		if err := h.states.Save(ctx, userID, next); err != nil {
			log.Error("conversation save failed", zap.Error(err))
			if !out.push(outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "state unavailable"}}) {
				break
			}
			continue
		}
		conv = next
		if !out.push(outboundMessage[any]{Type: "reply", Payload: reply}) {
			break
		}
	}

	out.close()
	log.Info("chat disconnected")
}

// outbox serialises writes to one connection through a single writer goroutine.
type outbox struct {
	send chan outboundMessage[any]
	done chan struct{}
}

func newOutbox(write func(outboundMessage[any]) error, log *zap.Logger) *outbox {
	o := &outbox{
		send: make(chan outboundMessage[any], 16),
		done: make(chan struct{}),
	}
	go func() {
		defer close(o.done)
		for msg := range o.send {
			if err := write(msg); err != nil {
				log.Debug("ws write error", zap.Error(err))
				return
			}
		}
	}()
	return o
}

// push queues msg and reports false once the writer has stopped.
func (o *outbox) push(msg outboundMessage[any]) bool {
	select {
	case o.send <- msg:
		return true
	case <-o.done:
		return false
	}
}

func (o *outbox) close() {
	close(o.send)
	<-o.done
}

func (h *WSHandler) load(ctx context.Context, userID int64) (dialogue.Conversation, error) {
	conv, ok, err := h.states.Load(ctx, userID)
	if err != nil {
		return dialogue.Conversation{}, err
	}
	if !ok || conv.State == "" {
		conv.State = dialogue.StateMainMenu
	}
	return conv, nil
}

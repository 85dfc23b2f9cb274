package protocol

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/srikanthrajjj/eskode-sub001/domain"
)

type Handler struct {
	relay domain.Relay
}

func NewHandler(r domain.Relay) *Handler {
	return &Handler{relay: r}
}

func (h *Handler) Handle(conn domain.Connection, data []byte) {
	var ev domain.Event
	if err := json.Unmarshal(data, &ev); err != nil {
		slog.Warn("invalid event", "clientId", conn.ID(), "error", err)
		return
	}

	switch ev.Type {
	case domain.EventRegister:
		h.handleRegister(conn, ev)
	case domain.EventMessage:
		h.relay.Publish(conn.ID(), ev.Payload)
	case domain.EventPing:
		pong := domain.Event{Type: domain.EventPong, Timestamp: ev.Timestamp}
		if resp, err := json.Marshal(pong); err == nil {
			conn.Send(resp)
		}
	default:
		slog.Warn("unknown event type", "clientId", conn.ID(), "type", ev.Type)
	}
}

func (h *Handler) handleRegister(conn domain.Connection, ev domain.Event) {
	identity, err := h.relay.Register(conn.ID(), ev.ExternalID, ev.Role)
	if err != nil {
		slog.Warn("registration rejected", "clientId", conn.ID(), "error", err)
		sendError(conn, err.Error())
		return
	}

	// Directed welcome, never broadcast.
	welcome := domain.BroadcastMessage{
		Type:           domain.EventMessage,
		Payload:        welcomePayload(identity),
		SenderIdentity: domain.SystemIdentity,
		SentAt:         time.Now(),
	}
	if data, err := json.Marshal(welcome); err == nil {
		conn.Send(data)
	}
}

func welcomePayload(identity domain.Identity) json.RawMessage {
	text := fmt.Sprintf("welcome %s (%s)", identity.ExternalID, identity.Role)
	data, _ := json.Marshal(map[string]string{"text": text})
	return data
}

func sendError(conn domain.Connection, description string) {
	ev := domain.ErrorEvent{Type: domain.EventError, Description: description}
	if data, err := json.Marshal(ev); err == nil {
		conn.Send(data)
	}
}

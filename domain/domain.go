package domain

import (
	"encoding/json"
	"errors"
	"time"
)

const (
	EventRegister = "register"
	EventMessage  = "message"
	EventPing     = "ping"
	EventPong     = "pong"
	EventError    = "error"
)

// SystemIdentity is the senderIdentity used for relay-generated messages
// such as the registration welcome.
const SystemIdentity = "system"

var (
	ErrInvalidRegistration = errors.New("registration requires a non-empty externalId and role")
	ErrAlreadyRegistered   = errors.New("connection is already registered with a different identity")
	ErrUnknownConnection   = errors.New("unknown connection")
)

// Event is an inbound frame from a client. Payload is opaque to the relay.
type Event struct {
	Type       string          `json:"type"`
	ExternalID string          `json:"externalId,omitempty"`
	Role       string          `json:"role,omitempty"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	Timestamp  int64           `json:"timestamp,omitempty"`
}

// Identity is bound to a connection at most once, by a successful register event.
type Identity struct {
	ExternalID string    `json:"externalId"`
	Role       string    `json:"role"`
	BoundAt    time.Time `json:"boundAt"`
}

// BroadcastMessage is one relayed event. SentAt is stamped by the relay at
// receipt time, never taken from the client.
type BroadcastMessage struct {
	Type           string          `json:"type"`
	Payload        json.RawMessage `json:"payload"`
	SenderIdentity string          `json:"senderIdentity"`
	SentAt         time.Time       `json:"sentAt"`
}

type ErrorEvent struct {
	Type        string `json:"type"`
	Description string `json:"description"`
}

type ConnectionInfo struct {
	ConnectionID string    `json:"connectionId"`
	ExternalID   string    `json:"externalId,omitempty"`
	Role         string    `json:"role,omitempty"`
	ConnectedAt  time.Time `json:"connectedAt"`
}

type ConnectionCounts struct {
	Total  int64 `json:"total"`
	Active int   `json:"active"`
	Failed int64 `json:"failed"`
}

type MessageStats struct {
	Total   int64              `json:"total"`
	History []BroadcastMessage `json:"history"`
}

type Status struct {
	Status      string           `json:"status"`
	Connections ConnectionCounts `json:"connections"`
	Messages    MessageStats     `json:"messages"`
}

type Connection interface {
	ID() string
	Send(data []byte) error
	Close() error
}

type Relay interface {
	Admit(conn Connection)
	Evict(connectionID string)
	Fail(connectionID string, err error)
	Register(connectionID, externalID, role string) (Identity, error)
	Publish(senderConnectionID string, payload json.RawMessage)
}

type MessageHandler interface {
	Handle(conn Connection, data []byte)
}

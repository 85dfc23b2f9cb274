package hub

import (
	"encoding/json"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/srikanthrajjj/eskode-sub001/domain"
)

type entry struct {
	conn        domain.Connection
	identity    *domain.Identity
	connectedAt time.Time
	lastErr     error
}

// Hub is the connection registry and broadcast channel. A single mutex
// serializes admissions, evictions, identity binding, fan-out, and the
// counters, so status reads are never torn.
type Hub struct {
	mu      sync.Mutex
	conns   map[string]*entry
	history *History
	metrics *Metrics

	totalConnections  int64
	failedConnections int64
	totalMessages     int64
}

func New(historySize int, metrics *Metrics) *Hub {
	return &Hub{
		conns:   make(map[string]*entry),
		history: NewHistory(historySize),
		metrics: metrics,
	}
}

func (h *Hub) Admit(conn domain.Connection) {
	h.mu.Lock()
	h.conns[conn.ID()] = &entry{conn: conn, connectedAt: time.Now()}
	h.totalConnections++
	count := len(h.conns)
	h.mu.Unlock()

	h.metrics.connectionsTotal.Inc()
	h.metrics.connectionsActive.Inc()
	slog.Info("client connected", "clientId", conn.ID(), "clients", count)
}

// Evict removes a connection from the registry. Evicting an unknown or
// already-evicted id is a no-op.
func (h *Hub) Evict(connectionID string) {
	h.mu.Lock()
	h.evictLocked(connectionID)
	h.mu.Unlock()
}

func (h *Hub) evictLocked(connectionID string) {
	e, ok := h.conns[connectionID]
	if !ok {
		return
	}
	delete(h.conns, connectionID)
	h.metrics.connectionsActive.Dec()

	if e.lastErr != nil {
		slog.Info("client disconnected", "clientId", connectionID, "clients", len(h.conns), "lastError", e.lastErr)
		return
	}
	slog.Info("client disconnected", "clientId", connectionID, "clients", len(h.conns))
}

// Fail records a transport-level error for a still-registered connection.
// Errors observed after eviction are not counted.
func (h *Hub) Fail(connectionID string, err error) {
	h.mu.Lock()
	h.failLocked(connectionID, err)
	h.mu.Unlock()
}

func (h *Hub) failLocked(connectionID string, err error) {
	e, ok := h.conns[connectionID]
	if !ok {
		return
	}
	e.lastErr = err
	h.failedConnections++
	h.metrics.connectionsFailed.Inc()
}

// Register binds a client-declared identity to a connection. The first
// successful registration wins: re-registering with identical values
// succeeds idempotently, conflicting values are rejected and the original
// identity retained.
func (h *Hub) Register(connectionID, externalID, role string) (domain.Identity, error) {
	if externalID == "" || role == "" {
		return domain.Identity{}, domain.ErrInvalidRegistration
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	e, ok := h.conns[connectionID]
	if !ok {
		return domain.Identity{}, domain.ErrUnknownConnection
	}
	if e.identity != nil {
		if e.identity.ExternalID == externalID && e.identity.Role == role {
			return *e.identity, nil
		}
		return domain.Identity{}, domain.ErrAlreadyRegistered
	}

	e.identity = &domain.Identity{ExternalID: externalID, Role: role, BoundAt: time.Now()}
	slog.Info("client registered", "clientId", connectionID, "externalId", externalID, "role", role)
	return *e.identity, nil
}

// Publish fans an inbound payload out to every active connection, the
// sender included. A recipient whose transport rejects the delivery is
// failed and evicted without affecting the remaining recipients.
func (h *Hub) Publish(senderConnectionID string, payload json.RawMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()

	sender := senderConnectionID
	if e, ok := h.conns[senderConnectionID]; ok && e.identity != nil {
		sender = e.identity.ExternalID
	}

	msg := domain.BroadcastMessage{
		Type:           domain.EventMessage,
		Payload:        payload,
		SenderIdentity: sender,
		SentAt:         time.Now(),
	}
	h.history.Record(msg)
	h.totalMessages++
	h.metrics.messagesTotal.Inc()

	data, err := json.Marshal(msg)
	if err != nil {
		slog.Warn("marshal error", "clientId", senderConnectionID, "error", err)
		return
	}

	var failed []string
	for id, e := range h.conns {
		if err := e.conn.Send(data); err != nil {
			failed = append(failed, id)
			slog.Warn("delivery failed", "clientId", id, "error", err)
		}
	}
	for _, id := range failed {
		h.failLocked(id, errDelivery{})
		h.evictLocked(id)
	}
}

type errDelivery struct{}

func (errDelivery) Error() string { return "broadcast delivery rejected by transport" }

func (h *Hub) Status() domain.Status {
	h.mu.Lock()
	defer h.mu.Unlock()

	return domain.Status{
		Status: "ok",
		Connections: domain.ConnectionCounts{
			Total:  h.totalConnections,
			Active: len(h.conns),
			Failed: h.failedConnections,
		},
		Messages: domain.MessageStats{
			Total:   h.totalMessages,
			History: h.history.Snapshot(),
		},
	}
}

func (h *Hub) ListConnections() []domain.ConnectionInfo {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]domain.ConnectionInfo, 0, len(h.conns))
	for id, e := range h.conns {
		info := domain.ConnectionInfo{ConnectionID: id, ConnectedAt: e.connectedAt}
		if e.identity != nil {
			info.ExternalID = e.identity.ExternalID
			info.Role = e.identity.Role
		}
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ConnectedAt.Equal(out[j].ConnectedAt) {
			return out[i].ConnectionID < out[j].ConnectionID
		}
		return out[i].ConnectedAt.Before(out[j].ConnectedAt)
	})
	return out
}

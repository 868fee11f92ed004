package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"lamdam-be/internal/entity"
	"lamdam-be/internal/pkg/logger"
	"lamdam-be/internal/repository/specification"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const clusterChannel = "lamdam_realtime"

// Message is the frame pushed to browsers.
type Message struct {
	Type string                 `json:"type"`
	Data map[string]interface{} `json:"data"`
}

// RecordScope limits a message to the viewers allowed to read a record.
type RecordScope struct {
	CreatorID uuid.UUID           `json:"creator_id"`
	Status    entity.RecordStatus `json:"status"`
}

// Audience selects the clients a message is delivered to. A zero Audience
// reaches everyone.
type Audience struct {
	UserID uuid.UUID    `json:"user_id"`
	Record *RecordScope `json:"record,omitempty"`
}

// Admits reports whether a connected viewer should receive the message.
func (a Audience) Admits(v specification.Viewer) bool {
	if a.UserID != uuid.Nil && a.UserID != v.ID {
		return false
	}
	if a.Record != nil {
		f := specification.RecordFilter{Viewer: v}
		return f.Visible(&entity.Record{CreatorId: a.Record.CreatorID, Status: a.Record.Status})
	}
	return true
}

type clusterEnvelope struct {
	Origin   string          `json:"origin"`
	Audience Audience        `json:"audience"`
	Message  json.RawMessage `json:"message"`
}

type Hub struct {
	// Registered clients: UserID -> connections (multi-device)
	clients map[uuid.UUID][]*Client

	register   chan *Client
	unregister chan *Client

	mu sync.RWMutex

	// Redis connection for cross-instance fan-out, optional
	rdb *redis.Client

	// Identifies this process on the cluster channel
	instanceID string

	logger logger.ILogger
}

func NewHub(rdb *redis.Client, log logger.ILogger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[uuid.UUID][]*Client),
		rdb:        rdb,
		instanceID: uuid.NewString(),
		logger:     log,
	}
}

// Run serves register and unregister requests until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	if h.rdb != nil {
		go h.subscribeToRedis(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.Viewer.ID] = append(h.clients[client.Viewer.ID], client)
			h.mu.Unlock()
			h.logger.Info("Hub", "Client registered", map[string]interface{}{"user_id": client.Viewer.ID, "role": client.Viewer.Role})

		case client := <-h.unregister:
			h.remove(client)
		}
	}
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients, ok := h.clients[client.Viewer.ID]
	if !ok {
		return
	}
	for i, c := range clients {
		if c == client {
			h.clients[client.Viewer.ID] = append(clients[:i], clients[i+1:]...)
			close(client.Send)
			break
		}
	}
	if len(h.clients[client.Viewer.ID]) == 0 {
		delete(h.clients, client.Viewer.ID)
		h.logger.Info("Hub", "Client completely unregistered", map[string]interface{}{"user_id": client.Viewer.ID})
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, clients := range h.clients {
		for _, c := range clients {
			close(c.Send)
		}
		delete(h.clients, id)
	}
}

// ConnectedUsers returns the number of users with at least one connection.
func (h *Hub) ConnectedUsers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Deliver pushes msg to the local clients admitted by audience and forwards
// it to the other instances.
func (h *Hub) Deliver(msg Message, audience Audience) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("Hub", "Failed to encode message", map[string]interface{}{"type": msg.Type, "error": err.Error()})
		return
	}

	h.deliverLocal(data, audience)

	if h.rdb != nil {
		payload, _ := json.Marshal(clusterEnvelope{Origin: h.instanceID, Audience: audience, Message: data})
		if err := h.rdb.Publish(context.Background(), clusterChannel, payload).Err(); err != nil {
			h.logger.Warn("Hub", "Redis publish failed", map[string]interface{}{"error": err.Error()})
		}
	}
}

func (h *Hub) deliverLocal(data []byte, audience Audience) {
	var slow []*Client

	h.mu.RLock()
	for uid, clients := range h.clients {
		if audience.UserID != uuid.Nil && audience.UserID != uid {
			continue
		}
		for _, client := range clients {
			if !audience.Admits(client.Viewer) {
				continue
			}
			select {
			case client.Send <- data:
			default:
				slow = append(slow, client)
			}
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		h.logger.Warn("Hub", "Client Send buffer full, dropping connection", map[string]interface{}{"user_id": c.Viewer.ID})
		go func(c *Client) { h.unregister <- c }(c)
	}
}

func (h *Hub) subscribeToRedis(ctx context.Context) {
	pubsub := h.rdb.Subscribe(ctx, clusterChannel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var env clusterEnvelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				h.logger.Warn("Hub", "Redis message parse error", map[string]interface{}{"error": err.Error()})
				continue
			}
			if env.Origin == h.instanceID {
				continue
			}
			h.deliverLocal(env.Message, env.Audience)
		}
	}
}

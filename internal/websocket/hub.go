package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"assembly-dashboard-be/internal/metrics"
	"assembly-dashboard-be/internal/pkg/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ClusterChannel is the redis channel instances use to reach listeners connected elsewhere.
const ClusterChannel = "dashboard_events"

const broadcastTarget = "*"

// clusterMessage is the redis envelope. Origin lets an instance skip its own messages,
// which it has already delivered locally.
type clusterMessage struct {
	Origin  string          `json:"origin"`
	Target  string          `json:"target_session_id"`
	Message json.RawMessage `json:"message"`
}

type Hub struct {
	id string

	// Listeners per dashboard session. A session may be open in several tabs.
	clients map[string]map[*Client]struct{}

	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	mu sync.RWMutex

	// Redis connection for cross-instance delivery; nil runs single-instance.
	rdb *redis.Client

	logger logger.ILogger
}

func NewHub(rdb *redis.Client, log logger.ILogger) *Hub {
	return &Hub{
		id:         uuid.NewString(),
		clients:    make(map[string]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		rdb:        rdb,
		logger:     log,
	}
}

// Run owns registration until ctx is cancelled, then disconnects every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	if h.rdb != nil {
		go h.subscribeToRedis(ctx)
	}

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			set, ok := h.clients[client.SessionID]
			if !ok {
				set = make(map[*Client]struct{})
				h.clients[client.SessionID] = set
			}
			set[client] = struct{}{}
			h.mu.Unlock()
			metrics.ClientConnected()
			h.logger.Info("Hub", "Client registered", map[string]interface{}{"session_id": client.SessionID})

		case client := <-h.unregister:
			h.remove(client)

		case <-ctx.Done():
			h.mu.Lock()
			for sessionID, set := range h.clients {
				for client := range set {
					close(client.send)
					metrics.ClientDisconnected()
				}
				delete(h.clients, sessionID)
			}
			h.mu.Unlock()
			return
		}
	}
}

// remove drops client and closes its send channel. Only the first removal has an effect.
func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.clients[client.SessionID]
	if !ok {
		return
	}
	if _, ok := set[client]; !ok {
		return
	}
	delete(set, client)
	close(client.send)
	metrics.ClientDisconnected()
	if len(set) == 0 {
		delete(h.clients, client.SessionID)
		h.logger.Info("Hub", "Last listener of session left", map[string]interface{}{"session_id": client.SessionID})
	}
}

// Register hands client to the hub. It returns false once the hub has stopped.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

// Unregister removes client asynchronously so callers holding the read lock never block.
func (h *Hub) Unregister(client *Client) {
	go func() {
		select {
		case h.unregister <- client:
		case <-h.done:
		}
	}()
}

// ClientCount is the number of local listeners of sessionID.
func (h *Hub) ClientCount(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[sessionID])
}

// Send pushes message to every listener of sessionID, here and on other instances.
func (h *Hub) Send(sessionID string, message []byte) {
	h.deliver(sessionID, message)
	h.publish(sessionID, message)
}

// Broadcast pushes message to every listener of every session.
func (h *Hub) Broadcast(message []byte) {
	h.deliver(broadcastTarget, message)
	h.publish(broadcastTarget, message)
}

func (h *Hub) deliver(target string, message []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if target == broadcastTarget {
		for _, set := range h.clients {
			h.enqueue(set, message)
		}
		return
	}
	h.enqueue(h.clients[target], message)
}

func (h *Hub) enqueue(set map[*Client]struct{}, message []byte) {
	for client := range set {
		select {
		case client.send <- message:
		default:
			h.logger.Warn("Hub", "Client send buffer full, disconnecting", map[string]interface{}{"session_id": client.SessionID})
			h.Unregister(client)
		}
	}
}

func (h *Hub) publish(target string, message []byte) {
	if h.rdb == nil {
		return
	}
	payload, err := json.Marshal(clusterMessage{Origin: h.id, Target: target, Message: message})
	if err != nil {
		return
	}
	if err := h.rdb.Publish(context.Background(), ClusterChannel, payload).Err(); err != nil {
		h.logger.Warn("Hub", "Redis publish failed", map[string]interface{}{"error": err.Error()})
	}
}

func (h *Hub) subscribeToRedis(ctx context.Context) {
	pubsub := h.rdb.Subscribe(ctx, ClusterChannel)
	go func() {
		<-ctx.Done()
		_ = pubsub.Close()
	}()

	for msg := range pubsub.Channel() {
		h.handleCluster([]byte(msg.Payload))
	}
}

func (h *Hub) handleCluster(payload []byte) {
	var m clusterMessage
	if err := json.Unmarshal(payload, &m); err != nil {
		h.logger.Warn("Hub", "Redis message parse error", map[string]interface{}{"error": err.Error()})
		return
	}
	if m.Origin == h.id || m.Target == "" {
		return
	}
	h.deliver(m.Target, m.Message)
}

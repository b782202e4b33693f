package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/yigit/studygraph/internal/app/models"
	"github.com/yigit/studygraph/internal/pkg/planner"
)

// Message types
const (
	TypeMatches     = "matches"
	TypeSuggestions = "suggestions"
	TypeSelect      = "select"
	TypePing        = "ping"
	TypePong        = "pong"
	TypeError       = "error"
)

// Message represents a message sent over WebSocket
type Message struct {
	// Type of message, one of the Type constants
	Type string `json:"type"`

	// Counterpart picked by a "select" message
	Username string `json:"username,omitempty"`

	// Snapshot version the matches were computed from
	Version uint64 `json:"version,omitempty"`

	Matches     []models.MatchResult `json:"matches,omitempty"`
	Suggestions *planner.State       `json:"suggestions,omitempty"`
	Error       string               `json:"error,omitempty"`

	// Timestamp when the message was created
	Timestamp time.Time `json:"timestamp"`
}

// envelope is a message addressed to every connection of one user,
// or to a single connection when client is set
type envelope struct {
	user    string
	client  *Client
	message *Message
}

// inbound is a message read from one client
type inbound struct {
	client  *Client
	message *Message
}

// Hub maintains the set of active clients and routes messages to them by user key
type Hub struct {
	// Registered clients organized by user key
	clients map[string]map[*Client]bool

	// Outbound messages addressed to one user
	outbound chan envelope

	// Register requests from the clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	// Messages read from clients, consumed by the MessageHandler
	inbound chan inbound

	// Called after a client has been registered
	onConnect func(*Client)

	// Closed when Run returns
	done chan struct{}

	// Mutex for concurrent access to clients map
	mu sync.RWMutex

	logger zerolog.Logger
}

// NewHub creates a new Hub instance
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		outbound:   make(chan envelope, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		inbound:    make(chan inbound, 64),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run routes registrations and messages until ctx is done, then closes every client
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case client := <-h.register:
			h.registerClient(client)
			if h.onConnect != nil {
				go h.onConnect(client)
			}

		case client := <-h.unregister:
			h.unregisterClient(client)

		case env := <-h.outbound:
			h.deliver(env)

		case <-ctx.Done():
			h.closeAll()
			return
		}
	}
}

// registerClient registers a new client to the hub
func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.userKey]; !ok {
		h.clients[client.userKey] = make(map[*Client]bool)
	}
	h.clients[client.userKey][client] = true

	h.logger.Info().
		Str("user", client.userKey).
		Str("addr", client.remoteAddr()).
		Msg("Client registered")
}

// unregisterClient unregisters a client from the hub
func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(client)
}

func (h *Hub) removeLocked(client *Client) {
	set, ok := h.clients[client.userKey]
	if !ok || !set[client] {
		return
	}
	delete(set, client)
	close(client.send)

	// If no more clients for this user, clean up
	if len(set) == 0 {
		delete(h.clients, client.userKey)
	}

	h.logger.Info().
		Str("user", client.userKey).
		Str("addr", client.remoteAddr()).
		Msg("Client unregistered")
}

// deliver sends a message to every connection of one user
func (h *Hub) deliver(env envelope) {
	data, err := json.Marshal(env.message)
	if err != nil {
		h.logger.Error().Err(err).Str("user", env.user).Msg("Failed to marshal message")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients[env.user] {
		if env.client != nil && env.client != client {
			continue
		}
		select {
		case client.send <- data:
		default:
			// Client's send buffer is full, drop the connection
			h.logger.Warn().Str("user", env.user).Msg("Dropping slow client")
			h.removeLocked(client)
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, set := range h.clients {
		for client := range set {
			h.removeLocked(client)
		}
	}
}

// SendToUser queues msg for every connection of user
func (h *Hub) SendToUser(user string, msg *Message) {
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}
	select {
	case h.outbound <- envelope{user: user, message: msg}:
	case <-h.done:
	}
}

// reply queues msg for a single connection
func (h *Hub) reply(client *Client, msg *Message) {
	msg.Timestamp = time.Now().UTC()
	select {
	case h.outbound <- envelope{user: client.userKey, client: client, message: msg}:
	case <-h.done:
	}
}

// Done is closed once Run has returned
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

// Users returns the keys of all connected users
func (h *Hub) Users() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	users := make([]string, 0, len(h.clients))
	for user := range h.clients {
		users = append(users, user)
	}
	return users
}

// GetClientsCount returns the number of open connections of user
func (h *Hub) GetClientsCount(user string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[user])
}

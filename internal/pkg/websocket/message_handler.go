package websocket

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/yigit/studygraph/internal/app/models"
	"github.com/yigit/studygraph/internal/app/services"
	"github.com/yigit/studygraph/internal/pkg/planner"
)

// suggestionTimeout bounds how long a "select" waits for its run before
// the final state is pushed
const suggestionTimeout = 2 * time.Minute

// SnapshotFeed publishes profile snapshots
type SnapshotFeed interface {
	Subscribe(fn func(services.Snapshot)) *services.Subscription
}

// MatchSource ranks matches for a user
type MatchSource interface {
	Matches(ctx context.Context, userKey string) ([]models.MatchResult, error)
	MatchesIn(snap services.Snapshot, userKey string) []models.MatchResult
}

// SuggestionRunner starts and observes study suggestion runs
type SuggestionRunner interface {
	SelectMatch(ctx context.Context, user *models.User, counterpart string) (planner.State, error)
	Wait(ctx context.Context, user *models.User) error
	State(user *models.User) planner.State
}

// MessageHandler pushes recomputed matches to connected users and answers client messages
type MessageHandler struct {
	hub         *Hub
	feed        SnapshotFeed
	matches     MatchSource
	suggestions SuggestionRunner
	logger      zerolog.Logger
}

// NewMessageHandler creates a new MessageHandler. It must be created before hub.Run is started.
func NewMessageHandler(
	hub *Hub,
	feed SnapshotFeed,
	matches MatchSource,
	suggestions SuggestionRunner,
	logger zerolog.Logger,
) *MessageHandler {
	h := &MessageHandler{
		hub:         hub,
		feed:        feed,
		matches:     matches,
		suggestions: suggestions,
		logger:      logger,
	}
	hub.onConnect = h.sendInitialMatches
	return h
}

// Start follows the profile feed and processes client messages until ctx is done
func (h *MessageHandler) Start(ctx context.Context) {
	sub := h.feed.Subscribe(h.onSnapshot)
	go func() {
		<-ctx.Done()
		sub.Cancel()
	}()
	go h.processMessages(ctx)
}

// onSnapshot recomputes matches for every connected user
func (h *MessageHandler) onSnapshot(snap services.Snapshot) {
	for _, user := range h.hub.Users() {
		h.hub.SendToUser(user, &Message{
			Type:    TypeMatches,
			Version: snap.Version,
			Matches: h.matches.MatchesIn(snap, user),
		})
	}
}

func (h *MessageHandler) sendInitialMatches(client *Client) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	matches, err := h.matches.Matches(ctx, client.userKey)
	if err != nil {
		h.logger.Error().Err(err).Str("user", client.userKey).Msg("Failed to compute initial matches")
		h.hub.reply(client, &Message{Type: TypeError, Error: "Unable to load matches right now."})
		return
	}
	h.hub.reply(client, &Message{Type: TypeMatches, Matches: matches})
}

// processMessages handles messages read from clients
func (h *MessageHandler) processMessages(ctx context.Context) {
	for {
		select {
		case in := <-h.hub.inbound:
			h.handle(ctx, in.client, in.message)
		case <-ctx.Done():
			return
		}
	}
}

func (h *MessageHandler) handle(ctx context.Context, client *Client, msg *Message) {
	switch msg.Type {
	case TypePing:
		h.hub.reply(client, &Message{Type: TypePong})
	case TypeSelect:
		h.handleSelect(ctx, client, msg.Username)
	default:
		h.hub.reply(client, &Message{Type: TypeError, Error: "Unknown message type."})
	}
}

// handleSelect starts a suggestion run for the picked match, replies with
// the immediate state and pushes the final state once the run settles.
func (h *MessageHandler) handleSelect(ctx context.Context, client *Client, counterpart string) {
	if h.suggestions == nil || client.user == nil {
		h.hub.reply(client, &Message{Type: TypeError, Error: "Suggestions are not available."})
		return
	}

	state, err := h.suggestions.SelectMatch(ctx, client.user, counterpart)
	if err != nil {
		h.logger.Error().Err(err).Str("user", client.userKey).Msg("Failed to start suggestions")
		h.hub.reply(client, &Message{Type: TypeError, Error: planner.FailureMessage})
		return
	}
	h.hub.reply(client, &Message{Type: TypeSuggestions, Suggestions: &state})

	if state.Status != planner.StatusLoading {
		return
	}
	go func() {
		waitCtx, cancel := context.WithTimeout(ctx, suggestionTimeout)
		defer cancel()
		if err := h.suggestions.Wait(waitCtx, client.user); err != nil {
			return
		}
		final := h.suggestions.State(client.user)
		if final.Generation != state.Generation {
			// superseded by a newer selection, which pushes its own result
			return
		}
		h.hub.SendToUser(client.userKey, &Message{Type: TypeSuggestions, Suggestions: &final})
	}()
}

// ABOUTME: Per-conversation session registry with authorization and callback dedupe
// ABOUTME: The transport hands every admin input to the router, which dispatches to sessions

package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/peakform/catalogd/internal/catalog"
	"github.com/peakform/catalogd/internal/dedupe"
)

// Authorizer decides whether a conversation may use the admin flow.
type Authorizer func(chatID int64) bool

// Router owns one Session per conversation. Sessions are created lazily and
// live for the process lifetime; their transient state resets on cancel or
// completion, so there is nothing to expire.
type Router struct {
	mu        sync.Mutex
	sessions  map[int64]*Session
	svc       *catalog.Service
	authorize Authorizer
	seen      *dedupe.Cache
	logger    *slog.Logger
}

// NewRouter creates a router. A nil authorizer denies everyone.
func NewRouter(svc *catalog.Service, authorize Authorizer, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		sessions:  make(map[int64]*Session),
		svc:       svc,
		authorize: authorize,
		seen:      dedupe.New(5*time.Minute, 4096),
		logger:    logger.With("component", "session-router"),
	}
}

// Close releases the dedupe cache.
func (r *Router) Close() {
	r.seen.Close()
}

func (r *Router) session(chatID int64) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[chatID]
	if !ok {
		s = New(r.svc, fmt.Sprintf("chat:%d", chatID), r.logger)
		r.sessions[chatID] = s
	}
	return s
}

func (r *Router) allowed(chatID int64) bool {
	return r.authorize != nil && r.authorize(chatID)
}

// Start handles the admin entry trigger.
func (r *Router) Start(chatID int64) (Reply, bool) {
	if !r.allowed(chatID) {
		return Reply{Text: "Access denied."}, false
	}
	return r.session(chatID).Start(), true
}

// Cancel handles the cancel trigger.
func (r *Router) Cancel(chatID int64) (Reply, bool) {
	if !r.allowed(chatID) {
		return Reply{}, false
	}
	return r.session(chatID).Cancel(), true
}

// HandleAction dispatches a discrete trigger. callbackID deduplicates
// transport redeliveries; a replay inside the window is dropped.
func (r *Router) HandleAction(ctx context.Context, chatID int64, callbackID string, act Action) (Reply, bool) {
	if !r.allowed(chatID) {
		return Reply{Alert: "Insufficient permissions."}, false
	}
	if callbackID != "" && r.seen.SeenOrMark(callbackID) {
		r.logger.Debug("duplicate callback dropped", "chat_id", chatID, "callback_id", callbackID)
		return Reply{}, false
	}
	return r.session(chatID).HandleAction(ctx, act), true
}

// HandleText dispatches free-text input.
func (r *Router) HandleText(ctx context.Context, chatID int64, text string) (Reply, bool) {
	if !r.allowed(chatID) {
		return Reply{}, false
	}
	return r.session(chatID).HandleText(ctx, text), true
}

// HandleMedia dispatches a media input carrying an opaque reference token.
func (r *Router) HandleMedia(ctx context.Context, chatID int64, reference string) (Reply, bool) {
	if !r.allowed(chatID) {
		return Reply{}, false
	}
	return r.session(chatID).HandleMedia(ctx, reference), true
}

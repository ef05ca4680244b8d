package room

import (
	"context"
	"fmt"
	"sync"

	"github.com/duobloom/garden/pkg/game"
	"github.com/duobloom/garden/pkg/game/types"
	"github.com/duobloom/garden/pkg/log"
	"github.com/duobloom/garden/pkg/queue"
	"github.com/duobloom/garden/pkg/store"
)

// Hub manages one Session per active room. Sessions are started lazily
// on first access and live until the hub context is cancelled or their
// subscription fails.
type Hub struct {
	ctx          context.Context
	store        store.Store
	engine       *game.Engine
	archiveQueue queue.Queue

	lock     sync.Mutex
	sessions map[string]*Session
}

type NewHubOptions struct {
	// Ctx bounds the lifetime of all sessions started by the hub.
	Ctx    context.Context
	Store  store.Store
	Engine *game.Engine
	// ArchiveQueue may be nil when archiving is disabled.
	ArchiveQueue queue.Queue
}

func NewHub(opts NewHubOptions) *Hub {
	return &Hub{
		ctx:          opts.Ctx,
		store:        opts.Store,
		engine:       opts.Engine,
		archiveQueue: opts.ArchiveQueue,
		sessions:     make(map[string]*Session),
	}
}

// Session returns the running session for a room, starting one if
// needed. It fails if the room does not exist in the store.
func (h *Hub) Session(ctx context.Context, code string) (*Session, error) {
	h.lock.Lock()
	if sess, ok := h.sessions[code]; ok {
		h.lock.Unlock()
		return sess, nil
	}
	h.lock.Unlock()

	// Verify the room exists before starting a session for it.
	if _, err := h.store.GetRoom(ctx, code); err != nil {
		return nil, err
	}

	h.lock.Lock()
	defer h.lock.Unlock()
	if sess, ok := h.sessions[code]; ok {
		return sess, nil
	}

	sess := NewSession(NewSessionOptions{
		Code:         code,
		Store:        h.store,
		Engine:       h.engine,
		ArchiveQueue: h.archiveQueue,
	})
	h.sessions[code] = sess

	go func() {
		if err := sess.Run(h.ctx); err != nil {
			log.Error("Session for room %s exited: %v", code, err)
		}
		h.lock.Lock()
		delete(h.sessions, code)
		h.lock.Unlock()
	}()

	return sess, nil
}

// Room reads the current room document directly from the store, with
// schema defaults applied. Used for one-shot reads outside a session.
func (h *Hub) Room(ctx context.Context, code string) (*types.Room, error) {
	room, err := h.store.GetRoom(ctx, code)
	if err != nil {
		return nil, err
	}
	room.ApplyDefaults()
	return room, nil
}

// Join adds a user to the room's member set.
func (h *Hub) Join(ctx context.Context, code string, userID string) error {
	if _, err := h.store.GetRoom(ctx, code); err != nil {
		return err
	}
	if err := h.store.Apply(ctx, code, []store.Op{
		store.ArrayUnion("users", userID),
	}); err != nil {
		return fmt.Errorf("failed to join room %s: %v", code, err)
	}
	return nil
}

// Like increments the room's like counter. Open to spectators.
func (h *Hub) Like(ctx context.Context, code string) error {
	if _, err := h.store.GetRoom(ctx, code); err != nil {
		return err
	}
	if err := h.store.Apply(ctx, code, []store.Op{
		store.Increment("likes", 1),
	}); err != nil {
		return fmt.Errorf("failed to like room %s: %v", code, err)
	}
	return nil
}

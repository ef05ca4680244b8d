package room

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/duobloom/garden/pkg/game"
	"github.com/duobloom/garden/pkg/game/types"
	"github.com/duobloom/garden/pkg/log"
	"github.com/duobloom/garden/pkg/messages"
	"github.com/duobloom/garden/pkg/metrics"
	"github.com/duobloom/garden/pkg/queue"
	"github.com/duobloom/garden/pkg/store"
	"github.com/duobloom/garden/pkg/workers"
)

var (
	// ErrNotReady is returned for intents submitted before the first
	// snapshot has arrived.
	ErrNotReady = errors.New("room state not yet available")
	// ErrTransport is returned when an accepted intent could not be
	// submitted to the store. The intent is retryable; no local state
	// was mutated.
	ErrTransport = errors.New("store submission failed")
)

// Session runs the event loop for one room: a single goroutine consuming
// the store's snapshot channel and the intent request channel. The local
// room view is replaced wholesale on every snapshot and is never merged
// with pending outbound intents.
type Session struct {
	code         string
	store        store.Store
	engine       *game.Engine
	archiveQueue queue.Queue

	requests chan request

	listenersLock sync.Mutex
	listeners     map[int]chan store.Snapshot
	nextListener  int
	current       *types.Room
	version       int64
}

type request struct {
	actor  game.Actor
	intent *messages.Intent
	resp   chan response
}

type response struct {
	result *game.Result
	err    error
}

type NewSessionOptions struct {
	Code   string
	Store  store.Store
	Engine *game.Engine
	// ArchiveQueue receives workers.ArchiveRequest items per snapshot.
	// May be nil when archiving is disabled.
	ArchiveQueue queue.Queue
}

func NewSession(opts NewSessionOptions) *Session {
	return &Session{
		code:         opts.Code,
		store:        opts.Store,
		engine:       opts.Engine,
		archiveQueue: opts.ArchiveQueue,
		requests:     make(chan request, 64),
		listeners:    make(map[int]chan store.Snapshot),
	}
}

// Run subscribes to the room document and processes snapshots and
// intents until the context is cancelled.
func (s *Session) Run(ctx context.Context) error {
	snapshots, stop, err := s.store.Subscribe(ctx, s.code)
	if err != nil {
		return fmt.Errorf("failed to subscribe to room %s: %v", s.code, err)
	}
	defer stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case snap, ok := <-snapshots:
			if !ok {
				return fmt.Errorf("snapshot channel closed for room %s", s.code)
			}
			s.handleSnapshot(snap)
		case req := <-s.requests:
			s.handleRequest(ctx, req)
		}
	}
}

func (s *Session) handleSnapshot(snap store.Snapshot) {
	snap.Room.ApplyDefaults()
	metrics.SnapshotsTotal.Inc()

	s.listenersLock.Lock()
	s.current = snap.Room
	s.version = snap.Version
	for _, ch := range s.listeners {
		select {
		case ch <- snap:
		default:
			// Slow listener: drop this snapshot, a newer one follows.
		}
	}
	s.listenersLock.Unlock()

	if s.archiveQueue != nil {
		archiveReq := workers.ArchiveRequest{
			Code:    snap.Code,
			Version: snap.Version,
			Room:    snap.Room,
		}
		if err := s.archiveQueue.Enqueue(archiveReq); err != nil {
			log.Warn("Failed to enqueue archive request for room %s: %v", s.code, err)
		}
	}
}

func (s *Session) handleRequest(ctx context.Context, req request) {
	room, _, ok := s.Current()
	if !ok {
		req.resp <- response{err: ErrNotReady}
		return
	}

	result := s.engine.Apply(room, req.actor, req.intent)
	metrics.IntentsTotal.WithLabelValues(string(req.intent.Type), result.Status.String()).Inc()

	if result.Status == game.StatusApplied && len(result.Ops) > 0 {
		if err := s.store.Apply(ctx, s.code, result.Ops); err != nil {
			metrics.StoreOpBatchesTotal.WithLabelValues("error").Inc()
			log.Error("Failed to submit %d ops for room %s: %v", len(result.Ops), s.code, err)
			req.resp <- response{err: fmt.Errorf("%w: %v", ErrTransport, err)}
			return
		}
		metrics.StoreOpBatchesTotal.WithLabelValues("ok").Inc()
	}

	req.resp <- response{result: result}
}

// Apply submits one intent for validation and, if accepted, submission
// to the store. The returned result reflects validation against the
// latest delivered snapshot; the caller observes the effect through a
// subsequent snapshot, never through this call.
func (s *Session) Apply(ctx context.Context, actor game.Actor, intent *messages.Intent) (*game.Result, error) {
	req := request{
		actor:  actor,
		intent: intent,
		resp:   make(chan response, 1),
	}

	select {
	case s.requests <- req:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	select {
	case resp := <-req.resp:
		return resp.result, resp.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Current returns the latest delivered room snapshot.
func (s *Session) Current() (*types.Room, int64, bool) {
	s.listenersLock.Lock()
	defer s.listenersLock.Unlock()
	if s.current == nil {
		return nil, 0, false
	}
	return s.current, s.version, true
}

// AddListener registers a snapshot listener. The latest snapshot, if
// any, is delivered immediately.
func (s *Session) AddListener() (int, <-chan store.Snapshot) {
	s.listenersLock.Lock()
	defer s.listenersLock.Unlock()

	ch := make(chan store.Snapshot, 16)
	id := s.nextListener
	s.nextListener++
	s.listeners[id] = ch

	if s.current != nil {
		ch <- store.Snapshot{Code: s.code, Version: s.version, Room: s.current}
	}

	return id, ch
}

// RemoveListener unregisters a snapshot listener.
func (s *Session) RemoveListener(id int) {
	s.listenersLock.Lock()
	defer s.listenersLock.Unlock()
	if ch, ok := s.listeners[id]; ok {
		delete(s.listeners, id)
		close(ch)
	}
}

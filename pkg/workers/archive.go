package workers

import (
	"context"
	"time"

	"github.com/duobloom/garden/pkg/game/types"
	"github.com/duobloom/garden/pkg/log"
	"github.com/duobloom/garden/pkg/metrics"
	"github.com/duobloom/garden/pkg/queue"
	"github.com/duobloom/garden/pkg/repositories"
)

// ArchiveRequest asks the archive worker to persist a room snapshot.
type ArchiveRequest struct {
	Code    string
	Version int64
	Room    *types.Room
}

// ArchiveWorker periodically drains the archive queue and persists the
// latest snapshot per room to the repository. Intermediate versions of
// the same room are coalesced; only the newest survives a tick.
type ArchiveWorker struct {
	repository   repositories.Repository
	archiveQueue queue.Queue
	interval     time.Duration
}

type NewArchiveWorkerOptions struct {
	Repository   repositories.Repository
	ArchiveQueue queue.Queue
	Interval     time.Duration
}

func NewArchiveWorker(opts NewArchiveWorkerOptions) *ArchiveWorker {
	return &ArchiveWorker{
		repository:   opts.Repository,
		archiveQueue: opts.ArchiveQueue,
		interval:     opts.Interval,
	}
}

// Start runs the worker until the context is cancelled. A final flush
// runs on shutdown so the last observed state is not lost.
func (w *ArchiveWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.flush(context.Background())
			return
		case <-ticker.C:
			w.flush(ctx)
		}
	}
}

func (w *ArchiveWorker) flush(ctx context.Context) {
	pending, err := w.archiveQueue.ReadAllMessages()
	if err != nil {
		log.Error("Failed to read archive requests: %v", err)
		return
	}

	latest := make(map[string]ArchiveRequest)
	for _, item := range pending {
		archiveReq, ok := item.(ArchiveRequest)
		if !ok {
			log.Error("Failed to cast archive request: %T", item)
			continue
		}
		if existing, ok := latest[archiveReq.Code]; !ok || archiveReq.Version > existing.Version {
			latest[archiveReq.Code] = archiveReq
		}
	}

	for _, archiveReq := range latest {
		err := w.repository.SaveRoomSnapshot(ctx, archiveReq.Code, archiveReq.Version, archiveReq.Room)
		if err != nil {
			metrics.ArchiveFailuresTotal.Inc()
			log.Error("Failed to archive room %s at version %d: %v", archiveReq.Code, archiveReq.Version, err)
		}
	}
}

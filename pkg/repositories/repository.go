package repositories

import (
	"context"

	"github.com/duobloom/garden/pkg/game/types"
)

// Repository archives room snapshots outside the primary store, for
// operational backup and audit. It is not the source of truth; the
// external document store is.
type Repository interface {
	Close(ctx context.Context) error
	// SaveRoomSnapshot upserts the archived snapshot for a room. Saves
	// with a version older than the archived one are ignored.
	SaveRoomSnapshot(ctx context.Context, code string, version int64, room *types.Room) error
	// LoadRoomSnapshot returns the newest archived snapshot and its
	// version for a room.
	LoadRoomSnapshot(ctx context.Context, code string) (*types.Room, int64, error)
	// ListRoomCodes returns the codes of all archived rooms.
	ListRoomCodes(ctx context.Context) ([]string, error)
}

package store

import (
	"context"

	"github.com/duobloom/garden/pkg/game/types"
)

// OpKind identifies an atomic field operator.
type OpKind int

const (
	// OpSet writes a value at a leaf path.
	OpSet OpKind = iota
	// OpIncrement adds a signed delta to a numeric leaf path.
	OpIncrement
	// OpDelete removes a leaf path.
	OpDelete
	// OpArrayUnion appends a value to a set-like array path if absent.
	OpArrayUnion
)

func (k OpKind) String() string {
	switch k {
	case OpSet:
		return "set"
	case OpIncrement:
		return "increment"
	case OpDelete:
		return "delete"
	case OpArrayUnion:
		return "arrayUnion"
	default:
		return "unknown"
	}
}

// Op is one atomic field operation addressed by a dotted leaf path,
// e.g. "gardens.0.3,2.stage". An intent that touches several fields is
// submitted as a batch of independent leaf-path ops, never as a
// whole-object overwrite.
type Op struct {
	Path  string
	Kind  OpKind
	Value interface{}
}

// Set builds a set op.
func Set(path string, value interface{}) Op {
	return Op{Path: path, Kind: OpSet, Value: value}
}

// Increment builds a delta-increment op.
func Increment(path string, delta int64) Op {
	return Op{Path: path, Kind: OpIncrement, Value: delta}
}

// Delete builds a field-delete op.
func Delete(path string) Op {
	return Op{Path: path, Kind: OpDelete}
}

// ArrayUnion builds a set-union op.
func ArrayUnion(path string, value interface{}) Op {
	return Op{Path: path, Kind: OpArrayUnion, Value: value}
}

// Snapshot is the full current room document as delivered to a
// subscriber. Versions are monotonically non-decreasing per room for a
// given subscriber.
type Snapshot struct {
	Code    string
	Version int64
	Room    *types.Room
}

// Store is the contract with the external shared-document store: durable
// storage of one document per room, real-time push of the latest
// document to all subscribers, and atomic field-level operators.
type Store interface {
	// CreateRoom durably creates the room document. It fails if the
	// room code is already taken.
	CreateRoom(ctx context.Context, code string, room *types.Room) error
	// GetRoom reads the current room document.
	GetRoom(ctx context.Context, code string) (*types.Room, error)
	// Apply submits a batch of atomic field operations. The local view
	// is not mutated; the change is observed on the next snapshot.
	Apply(ctx context.Context, code string, ops []Op) error
	// Subscribe delivers the current snapshot followed by every
	// subsequent one until the returned stop function is called or the
	// context is cancelled.
	Subscribe(ctx context.Context, code string) (<-chan Snapshot, func(), error)
	// Close releases the store handle.
	Close() error
}

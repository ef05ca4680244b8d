package store

import "errors"

var (
	// ErrRoomNotFound is returned when no document exists for a room code.
	ErrRoomNotFound = errors.New("room not found")
	// ErrRoomExists is returned when creating a room whose code is taken.
	ErrRoomExists = errors.New("room already exists")
)

// IsNotFound reports whether the error is a missing-room error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrRoomNotFound)
}

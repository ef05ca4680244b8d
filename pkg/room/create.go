package room

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/duobloom/garden/pkg/game/constants"
	"github.com/duobloom/garden/pkg/game/types"
	"github.com/duobloom/garden/pkg/store"
)

const roomCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

const createRetries = 5

// NewRoomCode generates a short shareable room code.
func NewRoomCode() (string, error) {
	b := make([]byte, constants.RoomCodeLength)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate room code: %v", err)
	}
	for i := range b {
		b[i] = roomCodeAlphabet[int(b[i])%len(roomCodeAlphabet)]
	}
	return string(b), nil
}

// StarterRoom builds the seeded document for a freshly founded room.
func StarterRoom(ownerID, ownerName, roomName string, now time.Time) *types.Room {
	if roomName == "" {
		roomName = "My Garden"
	}
	return &types.Room{
		RoomName:  roomName,
		Owner:     ownerID,
		OwnerName: ownerName,
		Users:     []string{ownerID},
		Tasks:     []types.Task{},
		Inventory: map[string]int64{
			constants.StarterSeedID: constants.StarterSeedCount,
		},
		Coins:           constants.StarterCoins,
		Gems:            constants.StarterGems,
		Gardens:         map[string]types.Garden{"0": {}},
		UnlockedGardens: []int64{0},
		Likes:           0,
		CreatedAt:       now.UTC().Format(time.RFC3339),
	}
}

// CreateRoom founds a new room with the starter document and returns
// its code. Code collisions are retried with a fresh code.
func (h *Hub) CreateRoom(ctx context.Context, ownerID, ownerName, roomName string) (string, error) {
	for i := 0; i < createRetries; i++ {
		code, err := NewRoomCode()
		if err != nil {
			return "", err
		}

		err = h.store.CreateRoom(ctx, code, StarterRoom(ownerID, ownerName, roomName, time.Now()))
		if err == nil {
			return code, nil
		}
		if !errors.Is(err, store.ErrRoomExists) {
			return "", fmt.Errorf("failed to create room: %v", err)
		}
	}
	return "", fmt.Errorf("failed to create room: code space exhausted after %d attempts", createRetries)
}

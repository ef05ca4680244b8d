package constants

import "time"

const (
	// GridSize is the width and height of every garden grid.
	GridSize = 5

	// WaterCooldown is the minimum time between two waterings of the same cell.
	WaterCooldown = 6 * time.Hour

	// Starter room values seeded at creation.
	StarterCoins     = 50
	StarterGems      = 0
	StarterSeedID    = "carrot_seed"
	StarterSeedCount = 2

	// RoomCodeLength is the length of generated room codes.
	RoomCodeLength = 5
)

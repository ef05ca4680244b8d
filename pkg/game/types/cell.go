package types

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/duobloom/garden/pkg/game/constants"
)

// Cell is one grid coordinate's floor/occupant/growth state.
// A zero-value Cell is an empty cell; an absent coordinate key in a
// garden is equivalent to an empty cell.
type Cell struct {
	Floor       string `json:"floor,omitempty" firestore:"floor,omitempty"`
	Item        string `json:"item,omitempty" firestore:"item,omitempty"`
	Stage       int64  `json:"stage" firestore:"stage"`
	Grown       bool   `json:"grown" firestore:"grown"`
	LastWatered string `json:"lastWatered,omitempty" firestore:"lastWatered,omitempty"`
	PlantedAt   string `json:"plantedAt,omitempty" firestore:"plantedAt,omitempty"`
}

// HasOccupant reports whether the cell holds a seed or decoration.
func (c Cell) HasOccupant() bool {
	return c.Item != ""
}

// HasFloor reports whether the cell has a floor tile.
func (c Cell) HasFloor() bool {
	return c.Floor != ""
}

// LastWateredTime parses the lastWatered timestamp. A missing or
// malformed timestamp is treated as the zero time, which makes the
// cell immediately waterable.
func (c Cell) LastWateredTime() time.Time {
	if c.LastWatered == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, c.LastWatered)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Garden is one grid instance, keyed by "x,y" coordinate keys.
type Garden map[string]Cell

// Cell returns the cell at (x, y), or an empty cell if the key is absent.
func (g Garden) Cell(x, y int) Cell {
	return g[CoordKey(x, y)]
}

// CoordKey formats a grid coordinate as a document key.
func CoordKey(x, y int) string {
	return fmt.Sprintf("%d,%d", x, y)
}

// ParseCoordKey parses a "x,y" coordinate key.
func ParseCoordKey(key string) (x, y int, err error) {
	parts := strings.SplitN(key, ",", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid coordinate key: %q", key)
	}
	x, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid coordinate key: %q", key)
	}
	y, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid coordinate key: %q", key)
	}
	return x, y, nil
}

// InBounds reports whether (x, y) addresses a cell on the grid.
func InBounds(x, y int) bool {
	return x >= 0 && x < constants.GridSize && y >= 0 && y < constants.GridSize
}

package types

import "strconv"

// Room is the aggregate root: the one document that is persisted and
// synchronized per room code. Garden, Inventory and Cell data are owned
// by exactly one Room and have no independent lifecycle.
type Room struct {
	RoomName        string            `json:"roomName" firestore:"roomName"`
	Owner           string            `json:"owner" firestore:"owner"`
	OwnerName       string            `json:"ownerName,omitempty" firestore:"ownerName,omitempty"`
	Users           []string          `json:"users" firestore:"users"`
	Tasks           []Task            `json:"tasks" firestore:"tasks"`
	Inventory       map[string]int64  `json:"inventory" firestore:"inventory"`
	Coins           int64             `json:"coins" firestore:"coins"`
	Gems            int64             `json:"gems" firestore:"gems"`
	Gardens         map[string]Garden `json:"gardens" firestore:"gardens"`
	UnlockedGardens []int64           `json:"unlockedGardens" firestore:"unlockedGardens"`
	Likes           int64             `json:"likes" firestore:"likes"`
	LastStreakDate  string            `json:"lastStreakDate,omitempty" firestore:"lastStreakDate,omitempty"`
	CurrentStreak   int64             `json:"currentStreak,omitempty" firestore:"currentStreak,omitempty"`
	CreatedAt       string            `json:"createdAt" firestore:"createdAt"`
}

// ApplyDefaults substitutes empty defaults for fields introduced by later
// schema revisions so that older persisted rooms remain loadable. This is
// a forward-compatibility contract, not error recovery.
func (r *Room) ApplyDefaults() {
	if r.Users == nil {
		r.Users = []string{}
	}
	if r.Tasks == nil {
		r.Tasks = []Task{}
	}
	if r.Inventory == nil {
		r.Inventory = map[string]int64{}
	}
	if r.Gardens == nil {
		r.Gardens = map[string]Garden{"0": {}}
	}
	if r.UnlockedGardens == nil {
		r.UnlockedGardens = []int64{0}
	}
}

// Garden returns the garden at the given index, or nil if it does not exist.
func (r *Room) Garden(index int64) Garden {
	return r.Gardens[strconv.FormatInt(index, 10)]
}

// IsMember reports whether the user belongs to the room.
func (r *Room) IsMember(userID string) bool {
	for _, id := range r.Users {
		if id == userID {
			return true
		}
	}
	return false
}

// GardenUnlocked reports whether the garden index has been unlocked.
func (r *Room) GardenUnlocked(index int64) bool {
	for _, idx := range r.UnlockedGardens {
		if idx == index {
			return true
		}
	}
	return false
}

// InventoryCount returns the owned count for an item.
func (r *Room) InventoryCount(itemID string) int64 {
	return r.Inventory[itemID]
}

// Copy returns a deep copy of the room.
func (r *Room) Copy() *Room {
	newRoom := &Room{
		RoomName:       r.RoomName,
		Owner:          r.Owner,
		OwnerName:      r.OwnerName,
		Coins:          r.Coins,
		Gems:           r.Gems,
		Likes:          r.Likes,
		LastStreakDate: r.LastStreakDate,
		CurrentStreak:  r.CurrentStreak,
		CreatedAt:      r.CreatedAt,
	}
	if r.Users != nil {
		newRoom.Users = append([]string{}, r.Users...)
	}
	if r.Tasks != nil {
		newRoom.Tasks = append([]Task{}, r.Tasks...)
	}
	if r.UnlockedGardens != nil {
		newRoom.UnlockedGardens = append([]int64{}, r.UnlockedGardens...)
	}
	if r.Inventory != nil {
		newRoom.Inventory = make(map[string]int64, len(r.Inventory))
		for id, count := range r.Inventory {
			newRoom.Inventory[id] = count
		}
	}
	if r.Gardens != nil {
		newRoom.Gardens = make(map[string]Garden, len(r.Gardens))
		for idx, garden := range r.Gardens {
			newGarden := make(Garden, len(garden))
			for key, cell := range garden {
				newGarden[key] = cell
			}
			newRoom.Gardens[idx] = newGarden
		}
	}
	return newRoom
}

package messages

import (
	"encoding/json"

	"github.com/duobloom/garden/pkg/game/types"
)

// Message types
const (
	MessageTypeClientIntent   = "intent"
	MessageTypeServerSnapshot = "snapshot"
	MessageTypeServerResult   = "result"
	MessageTypeServerError    = "error"
)

// Message represents a generic message for serialization/deserialization
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// IntentType identifies a requested room mutation.
type IntentType string

const (
	IntentPlaceFloor       IntentType = "place_floor"
	IntentPlaceSeed        IntentType = "place_seed"
	IntentPlaceDecoration  IntentType = "place_decoration"
	IntentWater            IntentType = "water"
	IntentHarvest          IntentType = "harvest"
	IntentPickUpDecoration IntentType = "pickup_decoration"
	IntentRemoveFloor      IntentType = "remove_floor"
	IntentBuyItem          IntentType = "buy_item"
	IntentBuyGarden        IntentType = "buy_garden"
	IntentAddTask          IntentType = "add_task"
	IntentCompleteTask     IntentType = "complete_task"
	IntentDeleteTask       IntentType = "delete_task"
	IntentLike             IntentType = "like"
)

// Intent is a requested mutation submitted by a member for validation.
// Coordinate and item fields are meaningful only for the intent types
// that use them.
type Intent struct {
	Type    IntentType `json:"type" validate:"required"`
	Garden  int64      `json:"garden,omitempty" validate:"min=0"`
	X       int        `json:"x,omitempty" validate:"min=0,max=4"`
	Y       int        `json:"y,omitempty" validate:"min=0,max=4"`
	ItemID  string     `json:"itemID,omitempty"`
	Tier    int64      `json:"tier,omitempty" validate:"min=0"`
	Confirm bool       `json:"confirm,omitempty"`
	TaskID  string     `json:"taskID,omitempty"`
	Task    *NewTask   `json:"task,omitempty"`
}

// NewTask is the payload for an add-task intent.
type NewTask struct {
	Title    string `json:"title" validate:"required,min=1,max=80"`
	Reward   int64  `json:"reward" validate:"min=0,max=1000"`
	Type     string `json:"taskType" validate:"oneof=once daily"`
	Deadline string `json:"deadline,omitempty"`
}

// ServerSnapshot is the payload pushed to subscribers whenever the room
// document changes.
type ServerSnapshot struct {
	Code    string      `json:"code"`
	Version int64       `json:"version"`
	Room    *types.Room `json:"room"`
}

// ServerResult reports the outcome of one submitted intent.
type ServerResult struct {
	Intent IntentType `json:"intent"`
	Status string     `json:"status"`
	Reason string     `json:"reason,omitempty"`
}

// ServerError reports a transport or protocol level failure.
type ServerError struct {
	Message string `json:"message"`
}

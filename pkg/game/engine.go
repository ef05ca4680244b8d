package game

import (
	"fmt"
	"time"

	"github.com/duobloom/garden/pkg/catalog"
	"github.com/duobloom/garden/pkg/game/constants"
	"github.com/duobloom/garden/pkg/game/types"
	"github.com/duobloom/garden/pkg/log"
	"github.com/duobloom/garden/pkg/messages"
	"github.com/duobloom/garden/pkg/store"
	"github.com/google/uuid"
)

// Actor identifies who submitted an intent. Spectators observe the room
// and may only like it.
type Actor struct {
	UserID    string
	Spectator bool
}

// Engine validates intents against the latest room snapshot and turns
// accepted ones into minimal sets of per-leaf-path field operations. It
// never mutates the room it validated against; the authoritative view
// only changes when the next snapshot arrives.
type Engine struct {
	catalog *catalog.Catalog
	now     func() time.Time
}

type NewEngineOptions struct {
	Catalog *catalog.Catalog
	// Now overrides the engine clock. Defaults to time.Now.
	Now func() time.Time
}

func NewEngine(opts NewEngineOptions) *Engine {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Engine{
		catalog: opts.Catalog,
		now:     now,
	}
}

// Apply validates one intent against the room snapshot and returns the
// typed result. On success the result carries the field operations to
// submit; on rejection no operation is emitted.
func (e *Engine) Apply(room *types.Room, actor Actor, intent *messages.Intent) *Result {
	// Liking is the one mutation open to spectators.
	if intent.Type == messages.IntentLike {
		return applied(store.Increment("likes", 1))
	}

	if actor.Spectator {
		return rejected(ErrSpectator)
	}
	if !room.IsMember(actor.UserID) {
		return rejected(ErrNotAMember)
	}

	switch intent.Type {
	case messages.IntentPlaceFloor, messages.IntentPlaceSeed, messages.IntentPlaceDecoration,
		messages.IntentWater, messages.IntentHarvest,
		messages.IntentPickUpDecoration, messages.IntentRemoveFloor:
		return e.applyCellIntent(room, actor, intent)
	case messages.IntentBuyItem:
		return e.buyItem(room, intent.ItemID)
	case messages.IntentBuyGarden:
		return e.buyGarden(room, intent.Tier)
	case messages.IntentAddTask:
		return e.addTask(room, intent.Task)
	case messages.IntentCompleteTask:
		return e.completeTask(room, actor, intent.TaskID)
	case messages.IntentDeleteTask:
		return e.deleteTask(room, intent.TaskID)
	default:
		return rejected(fmt.Errorf("%w: %s", ErrUnknownIntent, intent.Type))
	}
}

// applyCellIntent dispatches an intent targeting one grid cell.
func (e *Engine) applyCellIntent(room *types.Room, actor Actor, intent *messages.Intent) *Result {
	if !types.InBounds(intent.X, intent.Y) {
		return rejected(fmt.Errorf("%w: (%d,%d)", ErrOutOfRange, intent.X, intent.Y))
	}
	if !room.GardenUnlocked(intent.Garden) {
		return rejected(fmt.Errorf("%w: garden %d", ErrGardenLocked, intent.Garden))
	}

	key := types.CoordKey(intent.X, intent.Y)
	cell := room.Garden(intent.Garden)[key]
	path := fmt.Sprintf("gardens.%d.%s", intent.Garden, key)

	switch intent.Type {
	case messages.IntentPlaceFloor:
		return e.placeFloor(room, cell, path, intent.ItemID)
	case messages.IntentPlaceSeed:
		return e.placeSeed(room, cell, path, intent.ItemID)
	case messages.IntentPlaceDecoration:
		return e.placeDecoration(room, cell, path, intent.ItemID)
	case messages.IntentWater:
		return e.water(intent.Garden, key, cell, path)
	case messages.IntentHarvest:
		return e.harvest(intent.Garden, key, cell, path)
	case messages.IntentPickUpDecoration:
		return e.pickUpDecoration(intent.Garden, key, cell, path, intent.Confirm)
	case messages.IntentRemoveFloor:
		return e.removeFloor(intent.Garden, key, cell, path, intent.Confirm)
	default:
		return rejected(fmt.Errorf("%w: %s", ErrUnknownIntent, intent.Type))
	}
}

func (e *Engine) placeFloor(room *types.Room, cell types.Cell, path, itemID string) *Result {
	item, ok := e.catalog.ItemByID(itemID)
	if !ok {
		return rejected(fmt.Errorf("%w: %s", ErrUnknownItem, itemID))
	}
	if item.Category != catalog.CategoryFloor {
		return rejected(fmt.Errorf("%w: %s is not a floor", ErrWrongCategory, itemID))
	}
	if cell.HasOccupant() {
		return rejected(ErrCellOccupied)
	}

	debit, err := NewInventoryLedger(room).Debit(itemID, 1)
	if err != nil {
		return rejected(err)
	}

	// Placing over an existing floor replaces it without a refund, the
	// same as laying a new tile over the old one.
	return applied(
		store.Set(path+".floor", itemID),
		debit,
	)
}

func (e *Engine) placeSeed(room *types.Room, cell types.Cell, path, itemID string) *Result {
	item, ok := e.catalog.ItemByID(itemID)
	if !ok {
		return rejected(fmt.Errorf("%w: %s", ErrUnknownItem, itemID))
	}
	if item.Category != catalog.CategorySeed {
		return rejected(fmt.Errorf("%w: %s is not a seed", ErrWrongCategory, itemID))
	}
	if cell.HasFloor() || cell.HasOccupant() {
		return rejected(ErrCellOccupied)
	}

	debit, err := NewInventoryLedger(room).Debit(itemID, 1)
	if err != nil {
		return rejected(err)
	}

	return applied(
		store.Set(path+".item", itemID),
		store.Set(path+".stage", int64(0)),
		store.Set(path+".grown", false),
		store.Set(path+".plantedAt", e.now().UTC().Format(time.RFC3339)),
		debit,
	)
}

func (e *Engine) placeDecoration(room *types.Room, cell types.Cell, path, itemID string) *Result {
	item, ok := e.catalog.ItemByID(itemID)
	if !ok {
		return rejected(fmt.Errorf("%w: %s", ErrUnknownItem, itemID))
	}
	if item.Category != catalog.CategoryDecoration {
		return rejected(fmt.Errorf("%w: %s is not a decoration", ErrWrongCategory, itemID))
	}
	if cell.HasOccupant() {
		return rejected(ErrCellOccupied)
	}

	debit, err := NewInventoryLedger(room).Debit(itemID, 1)
	if err != nil {
		return rejected(err)
	}

	return applied(
		store.Set(path+".item", itemID),
		debit,
	)
}

func (e *Engine) water(gardenIndex int64, key string, cell types.Cell, path string) *Result {
	if !cell.HasOccupant() {
		return rejected(ErrEmptyCell)
	}
	item, ok := e.catalog.ItemByID(cell.Item)
	if !ok {
		// Stale catalog reference: the cell is inert until corrected.
		log.Warn("Cell %s in garden %d references unknown item %q", key, gardenIndex, cell.Item)
		return noop()
	}
	if item.Category != catalog.CategorySeed {
		return rejected(ErrNotASeed)
	}
	if cell.Grown {
		return rejected(ErrAlreadyGrown)
	}

	now := e.now().UTC()
	if now.Sub(cell.LastWateredTime()) <= constants.WaterCooldown {
		// Within the cooldown window watering is silently ignored.
		return noop()
	}

	newStage := cell.Stage + 1
	return applied(
		store.Set(path+".stage", newStage),
		store.Set(path+".grown", newStage >= item.Stages),
		store.Set(path+".lastWatered", now.Format(time.RFC3339)),
	)
}

func (e *Engine) harvest(gardenIndex int64, key string, cell types.Cell, path string) *Result {
	if !cell.HasOccupant() {
		return rejected(ErrEmptyCell)
	}
	item, ok := e.catalog.ItemByID(cell.Item)
	if !ok {
		log.Warn("Cell %s in garden %d references unknown item %q", key, gardenIndex, cell.Item)
		return noop()
	}
	if item.Category != catalog.CategorySeed {
		return rejected(ErrNotASeed)
	}
	if !cell.Grown {
		return rejected(ErrNotGrown)
	}

	ops := []store.Op{
		store.Delete(path + ".item"),
		store.Delete(path + ".stage"),
		store.Delete(path + ".grown"),
		store.Delete(path + ".lastWatered"),
		store.Delete(path + ".plantedAt"),
	}
	if item.Reward > 0 {
		ops = append(ops, store.Increment("coins", item.Reward))
	}
	if item.GrowsInto != "" {
		ops = append(ops, store.Increment("inventory."+item.GrowsInto, 1))
	}
	return applied(ops...)
}

func (e *Engine) pickUpDecoration(gardenIndex int64, key string, cell types.Cell, path string, confirm bool) *Result {
	if !cell.HasOccupant() {
		return rejected(ErrEmptyCell)
	}
	item, ok := e.catalog.ItemByID(cell.Item)
	if !ok {
		log.Warn("Cell %s in garden %d references unknown item %q", key, gardenIndex, cell.Item)
		return noop()
	}
	if item.Category != catalog.CategoryDecoration {
		return rejected(ErrNotADecoration)
	}
	if !confirm {
		return needsConfirmation()
	}

	return applied(
		store.Delete(path+".item"),
		store.Increment("inventory."+cell.Item, 1),
	)
}

func (e *Engine) removeFloor(gardenIndex int64, key string, cell types.Cell, path string, confirm bool) *Result {
	if cell.HasOccupant() {
		return rejected(ErrCellOccupied)
	}
	if !cell.HasFloor() {
		return rejected(ErrNoFloor)
	}
	if _, ok := e.catalog.ItemByID(cell.Floor); !ok {
		log.Warn("Cell %s in garden %d references unknown floor %q", key, gardenIndex, cell.Floor)
		return noop()
	}
	if !confirm {
		return needsConfirmation()
	}

	return applied(
		store.Delete(path+".floor"),
		store.Increment("inventory."+cell.Floor, 1),
	)
}

func (e *Engine) buyItem(room *types.Room, itemID string) *Result {
	item, ok := e.catalog.ItemByID(itemID)
	if !ok {
		return rejected(fmt.Errorf("%w: %s", ErrUnknownItem, itemID))
	}

	debit, err := NewEconomyLedger(room).Debit(CurrencyCoins, item.Price)
	if err != nil {
		return rejected(err)
	}

	// Debit and credit are proposed together as one logical purchase.
	return applied(
		debit,
		store.Increment("inventory."+itemID, 1),
	)
}

func (e *Engine) buyGarden(room *types.Room, tierIndex int64) *Result {
	tier, ok := e.catalog.GardenTierByIndex(tierIndex)
	if !ok {
		return rejected(fmt.Errorf("%w: %d", ErrUnknownTier, tierIndex))
	}
	if room.GardenUnlocked(tier.Index) {
		return rejected(fmt.Errorf("%w: garden %d", ErrAlreadyUnlocked, tier.Index))
	}

	debit, err := NewEconomyLedger(room).Debit(CurrencyGems, tier.UnlockPrice)
	if err != nil {
		return rejected(err)
	}

	return applied(
		debit,
		store.ArrayUnion("unlockedGardens", tier.Index),
		store.Set(fmt.Sprintf("gardens.%d", tier.Index), map[string]interface{}{}),
	)
}

func (e *Engine) addTask(room *types.Room, task *messages.NewTask) *Result {
	if task == nil || task.Title == "" {
		return rejected(ErrInvalidIntent)
	}
	taskType := types.TaskType(task.Type)
	if taskType != types.TaskTypeOnce && taskType != types.TaskTypeDaily {
		return rejected(fmt.Errorf("%w: task type %q", ErrInvalidIntent, task.Type))
	}
	if task.Reward < 0 {
		return rejected(fmt.Errorf("%w: negative reward", ErrInvalidIntent))
	}

	tasks := append([]types.Task{}, room.Tasks...)
	tasks = append(tasks, types.Task{
		ID:       uuid.NewString(),
		Title:    task.Title,
		Reward:   task.Reward,
		Type:     taskType,
		Deadline: task.Deadline,
	})

	// The task list is one set-like array field; it is written as a
	// single leaf, never as part of a whole-document overwrite.
	return applied(store.Set("tasks", tasks))
}

func (e *Engine) completeTask(room *types.Room, actor Actor, taskID string) *Result {
	index := -1
	for i := range room.Tasks {
		if room.Tasks[i].ID == taskID {
			index = i
			break
		}
	}
	if index < 0 {
		return rejected(fmt.Errorf("%w: %s", ErrTaskNotFound, taskID))
	}

	now := e.now().UTC()
	today := now.Format("2006-01-02")
	task := room.Tasks[index]

	switch task.Type {
	case types.TaskTypeDaily:
		if task.LastDone == today {
			return rejected(ErrTaskDone)
		}
	default:
		if task.Done {
			return rejected(ErrTaskDone)
		}
	}

	task.Done = true
	task.LastDone = today
	task.CompletedBy = actor.UserID
	task.CompletedAt = now.Format(time.RFC3339)

	tasks := append([]types.Task{}, room.Tasks...)
	tasks[index] = task

	ops := []store.Op{store.Set("tasks", tasks)}
	if task.Reward > 0 {
		ops = append(ops, store.Increment("coins", task.Reward))
	}
	if task.Type == types.TaskTypeDaily {
		ops = append(ops, e.streakOps(room, now)...)
	}
	return applied(ops...)
}

// streakOps advances the daily-completion streak. Completing a daily
// task on consecutive calendar days extends the streak; a gap resets it.
func (e *Engine) streakOps(room *types.Room, now time.Time) []store.Op {
	today := now.Format("2006-01-02")
	if room.LastStreakDate == today {
		return nil
	}

	streak := int64(1)
	yesterday := now.AddDate(0, 0, -1).Format("2006-01-02")
	if room.LastStreakDate == yesterday {
		streak = room.CurrentStreak + 1
	}

	return []store.Op{
		store.Set("lastStreakDate", today),
		store.Set("currentStreak", streak),
	}
}

func (e *Engine) deleteTask(room *types.Room, taskID string) *Result {
	index := -1
	for i := range room.Tasks {
		if room.Tasks[i].ID == taskID {
			index = i
			break
		}
	}
	if index < 0 {
		return rejected(fmt.Errorf("%w: %s", ErrTaskNotFound, taskID))
	}

	tasks := append([]types.Task{}, room.Tasks[:index]...)
	tasks = append(tasks, room.Tasks[index+1:]...)
	return applied(store.Set("tasks", tasks))
}

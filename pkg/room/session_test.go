package room

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/duobloom/garden/pkg/catalog"
	"github.com/duobloom/garden/pkg/game"
	"github.com/duobloom/garden/pkg/game/constants"
	"github.com/duobloom/garden/pkg/game/types"
	"github.com/duobloom/garden/pkg/messages"
	"github.com/duobloom/garden/pkg/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	lock sync.Mutex
	t    time.Time
}

func (c *fakeClock) Now() time.Time {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.t = c.t.Add(d)
}

type fixture struct {
	store *store.MemoryStore
	hub   *Hub
	clock *fakeClock
	code  string
}

func newFixture(t *testing.T, ctx context.Context) *fixture {
	t.Helper()

	gameCatalog, err := catalog.Default()
	require.NoError(t, err)

	clock := &fakeClock{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	memStore := store.NewMemoryStore()
	t.Cleanup(func() { memStore.Close() })

	hub := NewHub(NewHubOptions{
		Ctx:    ctx,
		Store:  memStore,
		Engine: game.NewEngine(game.NewEngineOptions{Catalog: gameCatalog, Now: clock.Now}),
	})

	code, err := hub.CreateRoom(ctx, "alice", "Alice", "Test Garden")
	require.NoError(t, err)

	return &fixture{store: memStore, hub: hub, clock: clock, code: code}
}

// waitForRoom polls the session until the latest snapshot satisfies the
// condition.
func waitForRoom(t *testing.T, sess *Session, cond func(*types.Room) bool) *types.Room {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		if room, _, ok := sess.Current(); ok && cond(room) {
			return room
		}
		select {
		case <-deadline:
			t.Fatal("timed out waiting for room condition")
			return nil
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestSession_plantWaterHarvest(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f := newFixture(t, ctx)
	alice := game.Actor{UserID: "alice"}

	sess, err := f.hub.Session(ctx, f.code)
	require.NoError(t, err)
	waitForRoom(t, sess, func(r *types.Room) bool { return r != nil })

	// Plant a starter seed.
	result, err := sess.Apply(ctx, alice, &messages.Intent{
		Type: messages.IntentPlaceSeed, X: 2, Y: 3, ItemID: "carrot_seed",
	})
	require.NoError(t, err)
	require.Equal(t, game.StatusApplied, result.Status)

	waitForRoom(t, sess, func(r *types.Room) bool {
		return r.Garden(0).Cell(2, 3).Item == "carrot_seed" && r.Inventory["carrot_seed"] == 1
	})

	// Water to full growth, advancing past the cooldown each round.
	for stage := int64(1); stage <= 3; stage++ {
		f.clock.Advance(constants.WaterCooldown + time.Minute)
		result, err = sess.Apply(ctx, alice, &messages.Intent{Type: messages.IntentWater, X: 2, Y: 3})
		require.NoError(t, err)
		require.Equal(t, game.StatusApplied, result.Status)
		waitForRoom(t, sess, func(r *types.Room) bool {
			return r.Garden(0).Cell(2, 3).Stage == stage
		})
	}

	room := waitForRoom(t, sess, func(r *types.Room) bool {
		return r.Garden(0).Cell(2, 3).Grown
	})
	assert.Equal(t, int64(50), room.Coins)

	// Harvest pays the reward and frees the cell.
	result, err = sess.Apply(ctx, alice, &messages.Intent{Type: messages.IntentHarvest, X: 2, Y: 3})
	require.NoError(t, err)
	require.Equal(t, game.StatusApplied, result.Status)

	room = waitForRoom(t, sess, func(r *types.Room) bool {
		return !r.Garden(0).Cell(2, 3).HasOccupant()
	})
	assert.Equal(t, int64(60), room.Coins)
	assert.Equal(t, int64(1), room.Inventory["carrot"])
}

func TestSession_waterCooldownIsSilent(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f := newFixture(t, ctx)
	alice := game.Actor{UserID: "alice"}

	sess, err := f.hub.Session(ctx, f.code)
	require.NoError(t, err)
	waitForRoom(t, sess, func(r *types.Room) bool { return r != nil })

	_, err = sess.Apply(ctx, alice, &messages.Intent{
		Type: messages.IntentPlaceSeed, X: 0, Y: 0, ItemID: "carrot_seed",
	})
	require.NoError(t, err)
	waitForRoom(t, sess, func(r *types.Room) bool {
		return r.Garden(0).Cell(0, 0).Item == "carrot_seed"
	})

	f.clock.Advance(time.Hour)
	result, err := sess.Apply(ctx, alice, &messages.Intent{Type: messages.IntentWater, X: 0, Y: 0})
	require.NoError(t, err)
	assert.Equal(t, game.StatusApplied, result.Status)

	waitForRoom(t, sess, func(r *types.Room) bool {
		return r.Garden(0).Cell(0, 0).Stage == 1
	})

	// Watering again inside the cooldown neither errors nor advances.
	f.clock.Advance(time.Hour)
	result, err = sess.Apply(ctx, alice, &messages.Intent{Type: messages.IntentWater, X: 0, Y: 0})
	require.NoError(t, err)
	assert.Equal(t, game.StatusNoOp, result.Status)

	room, _, ok := sess.Current()
	require.True(t, ok)
	assert.Equal(t, int64(1), room.Garden(0).Cell(0, 0).Stage)
}

func TestSession_confirmFlow(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f := newFixture(t, ctx)
	alice := game.Actor{UserID: "alice"}

	sess, err := f.hub.Session(ctx, f.code)
	require.NoError(t, err)
	waitForRoom(t, sess, func(r *types.Room) bool { return r != nil })

	// Buy and place a decoration first.
	_, err = sess.Apply(ctx, alice, &messages.Intent{Type: messages.IntentBuyItem, ItemID: "fence"})
	require.NoError(t, err)
	waitForRoom(t, sess, func(r *types.Room) bool { return r.Inventory["fence"] == 1 })

	_, err = sess.Apply(ctx, alice, &messages.Intent{
		Type: messages.IntentPlaceDecoration, X: 1, Y: 1, ItemID: "fence",
	})
	require.NoError(t, err)
	waitForRoom(t, sess, func(r *types.Room) bool {
		return r.Garden(0).Cell(1, 1).Item == "fence"
	})

	// Picking it up without confirmation changes nothing.
	result, err := sess.Apply(ctx, alice, &messages.Intent{Type: messages.IntentPickUpDecoration, X: 1, Y: 1})
	require.NoError(t, err)
	assert.Equal(t, game.StatusNeedsConfirmation, result.Status)

	result, err = sess.Apply(ctx, alice, &messages.Intent{Type: messages.IntentPickUpDecoration, X: 1, Y: 1, Confirm: true})
	require.NoError(t, err)
	assert.Equal(t, game.StatusApplied, result.Status)

	room := waitForRoom(t, sess, func(r *types.Room) bool {
		return !r.Garden(0).Cell(1, 1).HasOccupant()
	})
	assert.Equal(t, int64(1), room.Inventory["fence"])
}

func TestSession_twoMembersShareOneRoom(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f := newFixture(t, ctx)

	require.NoError(t, f.hub.Join(ctx, f.code, "bob"))

	sess, err := f.hub.Session(ctx, f.code)
	require.NoError(t, err)
	waitForRoom(t, sess, func(r *types.Room) bool { return r.IsMember("bob") })

	// Bob plants, Alice waters. The room is fully shared.
	bob := game.Actor{UserID: "bob"}
	alice := game.Actor{UserID: "alice"}

	result, err := sess.Apply(ctx, bob, &messages.Intent{
		Type: messages.IntentPlaceSeed, X: 4, Y: 4, ItemID: "carrot_seed",
	})
	require.NoError(t, err)
	require.Equal(t, game.StatusApplied, result.Status)
	waitForRoom(t, sess, func(r *types.Room) bool {
		return r.Garden(0).Cell(4, 4).Item == "carrot_seed"
	})

	result, err = sess.Apply(ctx, alice, &messages.Intent{Type: messages.IntentWater, X: 4, Y: 4})
	require.NoError(t, err)
	assert.Equal(t, game.StatusApplied, result.Status)
}

func TestSession_spectatorCanOnlyLike(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f := newFixture(t, ctx)
	spectator := game.Actor{Spectator: true}

	sess, err := f.hub.Session(ctx, f.code)
	require.NoError(t, err)
	waitForRoom(t, sess, func(r *types.Room) bool { return r != nil })

	result, err := sess.Apply(ctx, spectator, &messages.Intent{Type: messages.IntentLike})
	require.NoError(t, err)
	assert.Equal(t, game.StatusApplied, result.Status)
	waitForRoom(t, sess, func(r *types.Room) bool { return r.Likes == 1 })

	result, err = sess.Apply(ctx, spectator, &messages.Intent{
		Type: messages.IntentPlaceSeed, X: 0, Y: 0, ItemID: "carrot_seed",
	})
	require.NoError(t, err)
	assert.Equal(t, game.StatusRejected, result.Status)
	assert.ErrorIs(t, result.Reason, game.ErrSpectator)
}

func TestSession_buyGardenUnlocksGrid(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f := newFixture(t, ctx)
	alice := game.Actor{UserID: "alice"}

	// Grant the gems out of band.
	require.NoError(t, f.store.Apply(ctx, f.code, []store.Op{store.Increment("gems", 200)}))

	sess, err := f.hub.Session(ctx, f.code)
	require.NoError(t, err)
	waitForRoom(t, sess, func(r *types.Room) bool { return r.Gems == 200 })

	result, err := sess.Apply(ctx, alice, &messages.Intent{Type: messages.IntentBuyGarden, Tier: 1})
	require.NoError(t, err)
	require.Equal(t, game.StatusApplied, result.Status)

	room := waitForRoom(t, sess, func(r *types.Room) bool { return r.GardenUnlocked(1) })
	assert.Equal(t, int64(0), room.Gems)
	assert.NotNil(t, room.Garden(1))

	// The new grid accepts placements right away.
	result, err = sess.Apply(ctx, alice, &messages.Intent{
		Type: messages.IntentPlaceSeed, Garden: 1, X: 0, Y: 0, ItemID: "carrot_seed",
	})
	require.NoError(t, err)
	assert.Equal(t, game.StatusApplied, result.Status)
}

func TestSession_listeners(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f := newFixture(t, ctx)

	sess, err := f.hub.Session(ctx, f.code)
	require.NoError(t, err)
	waitForRoom(t, sess, func(r *types.Room) bool { return r != nil })

	id, snapshots := sess.AddListener()
	defer sess.RemoveListener(id)

	// The latest snapshot is replayed to a fresh listener.
	select {
	case snap := <-snapshots:
		assert.Equal(t, f.code, snap.Code)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for the replayed snapshot")
	}

	require.NoError(t, f.hub.Like(ctx, f.code))
	deadline := time.After(2 * time.Second)
	for {
		select {
		case snap := <-snapshots:
			if snap.Room.Likes == 1 {
				return
			}
		case <-deadline:
			t.Fatal("timed out waiting for the like snapshot")
		}
	}
}

// stubStore lets tests control snapshot delivery and fail submissions.
type stubStore struct {
	store.Store
	snapshots chan store.Snapshot
	applyErr  error
	room      *types.Room
}

func (s *stubStore) Subscribe(ctx context.Context, code string) (<-chan store.Snapshot, func(), error) {
	return s.snapshots, func() {}, nil
}

func (s *stubStore) Apply(ctx context.Context, code string, ops []store.Op) error {
	return s.applyErr
}

func TestSession_notReadyBeforeFirstSnapshot(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	gameCatalog, err := catalog.Default()
	require.NoError(t, err)

	stub := &stubStore{snapshots: make(chan store.Snapshot)}
	sess := NewSession(NewSessionOptions{
		Code:   "ABC12",
		Store:  stub,
		Engine: game.NewEngine(game.NewEngineOptions{Catalog: gameCatalog}),
	})
	go sess.Run(ctx)

	_, err = sess.Apply(ctx, game.Actor{UserID: "alice"}, &messages.Intent{Type: messages.IntentLike})
	assert.ErrorIs(t, err, ErrNotReady)
}

func TestSession_transportFailureIsRetryable(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	gameCatalog, err := catalog.Default()
	require.NoError(t, err)

	room := &types.Room{Users: []string{"alice"}}
	room.ApplyDefaults()

	stub := &stubStore{
		snapshots: make(chan store.Snapshot, 1),
		applyErr:  errors.New("store unavailable"),
		room:      room,
	}
	stub.snapshots <- store.Snapshot{Code: "ABC12", Version: 1, Room: room}

	sess := NewSession(NewSessionOptions{
		Code:   "ABC12",
		Store:  stub,
		Engine: game.NewEngine(game.NewEngineOptions{Catalog: gameCatalog}),
	})
	go sess.Run(ctx)

	waitForRoom(t, sess, func(r *types.Room) bool { return r != nil })

	_, err = sess.Apply(ctx, game.Actor{UserID: "alice"}, &messages.Intent{Type: messages.IntentLike})
	assert.ErrorIs(t, err, ErrTransport)

	// The local view is untouched by the failed submission.
	current, _, ok := sess.Current()
	require.True(t, ok)
	assert.Equal(t, int64(0), current.Likes)
}

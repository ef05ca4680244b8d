package store

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go"
	"github.com/duobloom/garden/pkg/game/types"
	"github.com/duobloom/garden/pkg/log"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const roomsCollection = "rooms"

var _ Store = &FirestoreStore{}

// FirestoreStore implements the Store contract on Cloud Firestore. The
// store's native field operators (Increment, Delete, ArrayUnion) and
// document snapshot listeners map one-to-one onto the contract.
type FirestoreStore struct {
	app    *firebase.App
	client *firestore.Client
}

// NewFirestoreStore creates a Firestore-backed store for the project.
// Credentials are resolved through the standard application-default
// lookup (GOOGLE_APPLICATION_CREDENTIALS).
func NewFirestoreStore(ctx context.Context, projectID string) (*FirestoreStore, error) {
	cfg := &firebase.Config{
		ProjectID: projectID,
	}
	app, err := firebase.NewApp(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("error initializing app: %v", err)
	}

	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting Firestore client: %v", err)
	}

	return &FirestoreStore{
		app:    app,
		client: client,
	}, nil
}

func (s *FirestoreStore) rooms() *firestore.CollectionRef {
	return s.client.Collection(roomsCollection)
}

func (s *FirestoreStore) CreateRoom(ctx context.Context, code string, room *types.Room) error {
	if _, err := s.rooms().Doc(code).Create(ctx, room); err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return ErrRoomExists
		}
		return fmt.Errorf("failed to create room document: %v", err)
	}
	return nil
}

func (s *FirestoreStore) GetRoom(ctx context.Context, code string) (*types.Room, error) {
	snap, err := s.rooms().Doc(code).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, ErrRoomNotFound
		}
		return nil, fmt.Errorf("failed to get room document: %v", err)
	}

	room := &types.Room{}
	if err := snap.DataTo(room); err != nil {
		return nil, fmt.Errorf("failed to decode room document: %v", err)
	}
	return room, nil
}

func (s *FirestoreStore) Apply(ctx context.Context, code string, ops []Op) error {
	updates := make([]firestore.Update, 0, len(ops))
	for _, op := range ops {
		update := firestore.Update{Path: op.Path}
		switch op.Kind {
		case OpSet:
			update.Value = op.Value
		case OpIncrement:
			update.Value = firestore.Increment(op.Value)
		case OpDelete:
			update.Value = firestore.Delete
		case OpArrayUnion:
			update.Value = firestore.ArrayUnion(op.Value)
		default:
			return fmt.Errorf("unknown op kind %d", op.Kind)
		}
		updates = append(updates, update)
	}

	if _, err := s.rooms().Doc(code).Update(ctx, updates); err != nil {
		if status.Code(err) == codes.NotFound {
			return ErrRoomNotFound
		}
		return fmt.Errorf("failed to apply field operations: %v", err)
	}
	return nil
}

func (s *FirestoreStore) Subscribe(ctx context.Context, code string) (<-chan Snapshot, func(), error) {
	if _, err := s.GetRoom(ctx, code); err != nil {
		return nil, nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	iter := s.rooms().Doc(code).Snapshots(ctx)
	ch := make(chan Snapshot, 16)

	go func() {
		defer close(ch)
		defer iter.Stop()
		for {
			snap, err := iter.Next()
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				log.Error("Snapshot listener for room %s failed: %v", code, err)
				return
			}
			if !snap.Exists() {
				continue
			}

			room := &types.Room{}
			if err := snap.DataTo(room); err != nil {
				log.Error("Failed to decode snapshot for room %s: %v", code, err)
				continue
			}

			select {
			case ch <- Snapshot{Code: code, Version: snap.UpdateTime.UnixMicro(), Room: room}:
			case <-ctx.Done():
				return
			}
		}
	}()

	return ch, cancel, nil
}

func (s *FirestoreStore) Close() error {
	return s.client.Close()
}

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/duobloom/garden/pkg/game/types"
)

// MemoryStore is an in-process document store implementing the same
// field-operator semantics as the hosted store. It is used by tests and
// for local development. Merge semantics are per-leaf-path: concurrent
// writers racing on the same leaf resolve last-write-wins, which is the
// documented residual hazard of the contract.
type MemoryStore struct {
	lock     sync.Mutex
	docs     map[string]map[string]interface{}
	versions map[string]int64
	subs     map[string]map[int]chan Snapshot
	nextSub  int
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		docs:     make(map[string]map[string]interface{}),
		versions: make(map[string]int64),
		subs:     make(map[string]map[int]chan Snapshot),
	}
}

func (s *MemoryStore) CreateRoom(ctx context.Context, code string, room *types.Room) error {
	doc, err := toDocument(room)
	if err != nil {
		return err
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	if _, ok := s.docs[code]; ok {
		return ErrRoomExists
	}
	s.docs[code] = doc
	s.versions[code] = 1
	s.broadcast(code)

	return nil
}

func (s *MemoryStore) GetRoom(ctx context.Context, code string) (*types.Room, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	doc, ok := s.docs[code]
	if !ok {
		return nil, ErrRoomNotFound
	}
	return fromDocument(doc)
}

func (s *MemoryStore) Apply(ctx context.Context, code string, ops []Op) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	doc, ok := s.docs[code]
	if !ok {
		return ErrRoomNotFound
	}
	for _, op := range ops {
		if err := applyOp(doc, op); err != nil {
			return fmt.Errorf("failed to apply %s at %s: %v", op.Kind, op.Path, err)
		}
	}
	s.versions[code]++
	s.broadcast(code)

	return nil
}

func (s *MemoryStore) Subscribe(ctx context.Context, code string) (<-chan Snapshot, func(), error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	if _, ok := s.docs[code]; !ok {
		return nil, nil, ErrRoomNotFound
	}

	ch := make(chan Snapshot, 16)
	id := s.nextSub
	s.nextSub++
	if s.subs[code] == nil {
		s.subs[code] = make(map[int]chan Snapshot)
	}
	s.subs[code][id] = ch

	// Deliver the current state immediately, like a snapshot listener.
	s.deliver(code, ch)

	stop := func() {
		s.lock.Lock()
		defer s.lock.Unlock()
		if sub, ok := s.subs[code][id]; ok {
			delete(s.subs[code], id)
			close(sub)
		}
	}

	go func() {
		<-ctx.Done()
		stop()
	}()

	return ch, stop, nil
}

func (s *MemoryStore) Close() error {
	s.lock.Lock()
	defer s.lock.Unlock()
	for code, subs := range s.subs {
		for id, ch := range subs {
			delete(subs, id)
			close(ch)
		}
		delete(s.subs, code)
	}
	return nil
}

// broadcast pushes the current snapshot to every subscriber of the room.
// Callers must hold the lock.
func (s *MemoryStore) broadcast(code string) {
	for _, ch := range s.subs[code] {
		s.deliver(code, ch)
	}
}

// deliver sends the latest snapshot without blocking. If the subscriber
// is slow, the oldest buffered snapshot is dropped so the sequence stays
// monotonically non-decreasing and converges on the latest state.
func (s *MemoryStore) deliver(code string, ch chan Snapshot) {
	room, err := fromDocument(s.docs[code])
	if err != nil {
		return
	}
	snap := Snapshot{Code: code, Version: s.versions[code], Room: room}
	for {
		select {
		case ch <- snap:
			return
		default:
			select {
			case <-ch:
			default:
			}
		}
	}
}

// toDocument normalizes a room into plain JSON document types.
func toDocument(room *types.Room) (map[string]interface{}, error) {
	b, err := json.Marshal(room)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal room: %v", err)
	}
	var doc map[string]interface{}
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal room document: %v", err)
	}
	return doc, nil
}

func fromDocument(doc map[string]interface{}) (*types.Room, error) {
	b, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal room document: %v", err)
	}
	room := &types.Room{}
	if err := json.Unmarshal(b, room); err != nil {
		return nil, fmt.Errorf("failed to unmarshal room: %v", err)
	}
	return room, nil
}

// normalizeValue converts an op value into plain JSON document types so
// the stored document never aliases caller memory.
func normalizeValue(value interface{}) (interface{}, error) {
	if value == nil {
		return nil, nil
	}
	b, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal value: %v", err)
	}
	var normalized interface{}
	if err := json.Unmarshal(b, &normalized); err != nil {
		return nil, fmt.Errorf("failed to unmarshal value: %v", err)
	}
	return normalized, nil
}

// applyOp applies one atomic field operation to the document. Parent
// maps along the path are created on demand for writes; deletes of
// absent paths are no-ops.
func applyOp(doc map[string]interface{}, op Op) error {
	segments := strings.Split(op.Path, ".")
	if len(segments) == 0 || op.Path == "" {
		return fmt.Errorf("empty path")
	}
	leaf := segments[len(segments)-1]

	parent := doc
	for _, segment := range segments[:len(segments)-1] {
		child, ok := parent[segment]
		if !ok {
			if op.Kind == OpDelete {
				return nil
			}
			next := make(map[string]interface{})
			parent[segment] = next
			parent = next
			continue
		}
		childMap, ok := child.(map[string]interface{})
		if !ok {
			return fmt.Errorf("path segment %q is not a map", segment)
		}
		parent = childMap
	}

	switch op.Kind {
	case OpSet:
		value, err := normalizeValue(op.Value)
		if err != nil {
			return err
		}
		parent[leaf] = value
	case OpIncrement:
		delta, ok := toNumber(op.Value)
		if !ok {
			return fmt.Errorf("increment value %v is not numeric", op.Value)
		}
		current, _ := toNumber(parent[leaf])
		parent[leaf] = current + delta
	case OpDelete:
		delete(parent, leaf)
	case OpArrayUnion:
		value, err := normalizeValue(op.Value)
		if err != nil {
			return err
		}
		current, _ := parent[leaf].([]interface{})
		for _, existing := range current {
			if reflect.DeepEqual(existing, value) {
				return nil
			}
		}
		parent[leaf] = append(current, value)
	default:
		return fmt.Errorf("unknown op kind %d", op.Kind)
	}

	return nil
}

func toNumber(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}

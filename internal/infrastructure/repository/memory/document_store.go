package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/bytedance/sonic"

	"github.com/tallink-tennis/fuss-tracker/internal/domain/document"
	"github.com/tallink-tennis/fuss-tracker/internal/platform/jsontree"
)

type subscriber struct {
	path   string
	signal chan struct{}
}

// DocumentStore is an in-process document tree. Subscribers are woken on
// related writes and always read the latest state, so bursts coalesce.
type DocumentStore struct {
	mu     sync.RWMutex
	tree   any
	subs   map[*subscriber]struct{}
	writes int
}

func NewDocumentStore() *DocumentStore {
	return &DocumentStore{subs: make(map[*subscriber]struct{})}
}

// NewSeededDocumentStore starts from the given root documents.
func NewSeededDocumentStore(seed map[string]any) (*DocumentStore, error) {
	s := NewDocumentStore()
	for root, value := range seed {
		if err := s.Set(context.Background(), root, value); err != nil {
			return nil, fmt.Errorf("seed %s: %w", root, err)
		}
	}
	return s, nil
}

func (s *DocumentStore) Get(_ context.Context, path string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return encodeNode(jsontree.Get(s.tree, jsontree.Split(path)))
}

func (s *DocumentStore) Set(_ context.Context, path string, value any) error {
	node, err := jsontree.Normalize(value)
	if err != nil {
		return fmt.Errorf("%w: encode %s: %v", document.ErrRejected, path, err)
	}

	s.mu.Lock()
	s.tree = jsontree.Set(s.tree, jsontree.Split(path), node)
	s.writes++
	s.mu.Unlock()

	s.notify(path)
	return nil
}

func (s *DocumentStore) Update(_ context.Context, path string, fields map[string]any) error {
	normalized := make(map[string]any, len(fields))
	for key, value := range fields {
		node, err := jsontree.Normalize(value)
		if err != nil {
			return fmt.Errorf("%w: encode %s/%s: %v", document.ErrRejected, path, key, err)
		}
		normalized[key] = node
	}

	s.mu.Lock()
	s.tree = jsontree.Update(s.tree, jsontree.Split(path), normalized)
	s.writes++
	s.mu.Unlock()

	for key := range fields {
		s.notify(jsontree.Join(path, key))
	}
	return nil
}

func (s *DocumentStore) Delete(ctx context.Context, path string) error {
	return s.Set(ctx, path, nil)
}

func (s *DocumentStore) Subscribe(ctx context.Context, path string, fn func(document.Snapshot)) error {
	sub := &subscriber{path: path, signal: make(chan struct{}, 1)}

	s.mu.Lock()
	s.subs[sub] = struct{}{}
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.subs, sub)
		s.mu.Unlock()
	}()

	emit := func() error {
		raw, err := s.Get(ctx, path)
		if err != nil {
			return err
		}
		fn(document.Snapshot{Path: path, Raw: raw})
		return nil
	}

	if err := emit(); err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-sub.signal:
			if err := emit(); err != nil {
				return err
			}
		}
	}
}

// Writes counts accepted writes.
func (s *DocumentStore) Writes() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.writes
}

func (s *DocumentStore) notify(path string) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for sub := range s.subs {
		if !jsontree.Related(sub.path, path) {
			continue
		}
		select {
		case sub.signal <- struct{}{}:
		default:
		}
	}
}

func encodeNode(node any) ([]byte, error) {
	if node == nil {
		return []byte("null"), nil
	}
	return sonic.Marshal(jsontree.Clone(node))
}

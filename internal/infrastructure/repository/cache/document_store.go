package cache

import (
	"context"

	"github.com/tallink-tennis/fuss-tracker/internal/domain/document"
	basecache "github.com/tallink-tennis/fuss-tracker/internal/platform/cache"
	"github.com/tallink-tennis/fuss-tracker/internal/platform/jsontree"
)

const documentKeyPrefix = "document:"

// DocumentStore serves Get from a TTL cache and drops the cached entries of
// a root whenever it is written or a fresh snapshot of it arrives.
type DocumentStore struct {
	next  document.Store
	cache *basecache.Store
}

var _ document.Store = (*DocumentStore)(nil)

func NewDocumentStore(next document.Store, cache *basecache.Store) *DocumentStore {
	return &DocumentStore{next: next, cache: cache}
}

func (r *DocumentStore) Get(ctx context.Context, path string) ([]byte, error) {
	key := documentKeyPrefix + jsontree.Join(jsontree.Split(path)...)
	v, err := r.cache.GetOrLoad(ctx, key, func(ctx context.Context) (any, error) {
		raw, err := r.next.Get(ctx, path)
		if err != nil {
			return nil, err
		}
		return append([]byte(nil), raw...), nil
	})
	if err != nil {
		return nil, err
	}

	raw, _ := v.([]byte)
	return append([]byte(nil), raw...), nil
}

func (r *DocumentStore) Set(ctx context.Context, path string, value any) error {
	defer r.invalidate(ctx, path)
	return r.next.Set(ctx, path, value)
}

func (r *DocumentStore) Update(ctx context.Context, path string, fields map[string]any) error {
	defer func() {
		if jsontree.Root(path) != "" {
			r.invalidate(ctx, path)
			return
		}
		for key := range fields {
			r.invalidate(ctx, key)
		}
	}()
	return r.next.Update(ctx, path, fields)
}

func (r *DocumentStore) Delete(ctx context.Context, path string) error {
	defer r.invalidate(ctx, path)
	return r.next.Delete(ctx, path)
}

func (r *DocumentStore) Subscribe(ctx context.Context, path string, fn func(document.Snapshot)) error {
	return r.next.Subscribe(ctx, path, func(s document.Snapshot) {
		r.invalidate(ctx, path)
		r.cache.Set(ctx, documentKeyPrefix+jsontree.Join(jsontree.Split(path)...), append([]byte(nil), s.Raw...))
		fn(s)
	})
}

func (r *DocumentStore) invalidate(ctx context.Context, path string) {
	root := jsontree.Root(path)
	r.cache.Delete(ctx, documentKeyPrefix)
	if root == "" {
		r.cache.DeletePrefix(ctx, documentKeyPrefix)
		return
	}
	r.cache.Delete(ctx, documentKeyPrefix+root)
	r.cache.DeletePrefix(ctx, documentKeyPrefix+root+"/")
}

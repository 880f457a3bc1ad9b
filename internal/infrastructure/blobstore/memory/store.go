// Package memory is an in-process blob store used in tests and when
// no object storage is configured.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/doyaji/rift-rewind/internal/domain/blob"
	"github.com/doyaji/rift-rewind/internal/usecase"
)

type object struct {
	body        []byte
	contentType string
	modified    time.Time
}

type Store struct {
	mu      sync.RWMutex
	objects map[string]object
	now     func() time.Time
}

var _ blob.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		objects: make(map[string]object),
		now:     time.Now,
	}
}

func (s *Store) Put(_ context.Context, key string, body []byte, contentType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := make([]byte, len(body))
	copy(cp, body)
	s.objects[key] = object{body: cp, contentType: contentType, modified: s.now()}
	return nil
}

func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	obj, ok := s.objects[key]
	if !ok {
		return nil, fmt.Errorf("%w: object %s", usecase.ErrNotFound, key)
	}
	cp := make([]byte, len(obj.body))
	copy(cp, obj.body)
	return cp, nil
}

func (s *Store) List(_ context.Context, prefix string, limit int) ([]blob.Object, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]blob.Object, 0, len(s.objects))
	for key, obj := range s.objects {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		out = append(out, blob.Object{
			Key:          key,
			Size:         int64(len(obj.body)),
			LastModified: obj.modified,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].LastModified.Equal(out[j].LastModified) {
			return out[i].LastModified.After(out[j].LastModified)
		}
		return out[i].Key < out[j].Key
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// SetClock overrides the modification timestamp source in tests.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	s.now = now
	s.mu.Unlock()
}

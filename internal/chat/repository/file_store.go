package repository

import (
	"context"
	"fmt"
	"sync"

	"portalchat/internal/chat/models"
	"portalchat/internal/jsonfile"
)

// fileStore keeps the history in memory and rewrites the whole JSON file on every mutation.
// The file is written before the in-memory state changes, so a failed write leaves both untouched.
type fileStore struct {
	mu   sync.Mutex
	path string
	mem  *memoryStore
}

func NewFileStore(path string) (MessageStore, error) {
	var msgs []*models.Message
	if _, err := jsonfile.Load(path, &msgs); err != nil {
		return nil, err
	}
	mem := newMemoryStore()
	if err := mem.replaceLocked(msgs); err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return &fileStore{path: path, mem: mem}, nil
}

// mutate applies fn to a scratch copy, persists it, then commits it to memory.
func (s *fileStore) mutate(fn func(next *memoryStore) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := newMemoryStore()
	if err := next.replaceLocked(s.mem.msgs); err != nil {
		return err
	}
	if err := fn(next); err != nil {
		return err
	}
	if err := jsonfile.Save(s.path, next.msgs); err != nil {
		return err
	}
	s.mem.mu.Lock()
	s.mem.msgs, s.mem.index = next.msgs, next.index
	s.mem.mu.Unlock()
	return nil
}

func (s *fileStore) Append(ctx context.Context, msg *models.Message) error {
	return s.mutate(func(next *memoryStore) error { return next.appendLocked(msg) })
}

func (s *fileStore) Update(ctx context.Context, msg *models.Message) error {
	return s.mutate(func(next *memoryStore) error { return next.updateLocked(msg) })
}

func (s *fileStore) ReplaceAll(ctx context.Context, msgs []*models.Message) error {
	return s.mutate(func(next *memoryStore) error { return next.replaceLocked(msgs) })
}

func (s *fileStore) List(ctx context.Context) ([]*models.Message, error) {
	return s.mem.List(ctx)
}

func (s *fileStore) Find(ctx context.Context, id string) (*models.Message, error) {
	return s.mem.Find(ctx, id)
}

func (s *fileStore) Close() error { return nil }

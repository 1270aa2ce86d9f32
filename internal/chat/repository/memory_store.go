package repository

import (
	"context"
	"fmt"
	"sync"

	"portalchat/internal/chat/models"
)

type memoryStore struct {
	mu    sync.RWMutex
	msgs  []*models.Message
	index map[string]int
}

func NewMemoryStore() MessageStore {
	return newMemoryStore()
}

func newMemoryStore() *memoryStore {
	return &memoryStore{index: make(map[string]int)}
}

func (s *memoryStore) Append(ctx context.Context, msg *models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.appendLocked(msg)
}

func (s *memoryStore) appendLocked(msg *models.Message) error {
	if _, ok := s.index[msg.ID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateID, msg.ID)
	}
	s.index[msg.ID] = len(s.msgs)
	s.msgs = append(s.msgs, msg.Clone())
	return nil
}

func (s *memoryStore) List(ctx context.Context) ([]*models.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneAll(s.msgs), nil
}

func (s *memoryStore) Find(ctx context.Context, id string) (*models.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.index[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return s.msgs[i].Clone(), nil
}

func (s *memoryStore) Update(ctx context.Context, msg *models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateLocked(msg)
}

func (s *memoryStore) updateLocked(msg *models.Message) error {
	i, ok := s.index[msg.ID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, msg.ID)
	}
	s.msgs[i] = msg.Clone()
	return nil
}

func (s *memoryStore) ReplaceAll(ctx context.Context, msgs []*models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.replaceLocked(msgs)
}

func (s *memoryStore) replaceLocked(msgs []*models.Message) error {
	index := make(map[string]int, len(msgs))
	for i, m := range msgs {
		if _, ok := index[m.ID]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateID, m.ID)
		}
		index[m.ID] = i
	}
	s.msgs = cloneAll(msgs)
	s.index = index
	return nil
}

func (s *memoryStore) Close() error { return nil }

package repository

import (
	"context"
	"errors"

	"portalchat/internal/chat/models"
)

var (
	ErrNotFound    = errors.New("message not found")
	ErrDuplicateID = errors.New("message id already exists")
)

// MessageStore is the durable, append-ordered chat history.
//
// Each call is atomic on its own. Load-mutate-save sequences spanning several
// calls are not: callers that read a message, change it and write it back must
// serialize those sequences themselves (the chat service holds one mutex for it).
// Returned messages are copies; mutating them does not touch the store.
type MessageStore interface {
	Append(ctx context.Context, msg *models.Message) error
	List(ctx context.Context) ([]*models.Message, error)
	// Find returns ErrNotFound (possibly wrapped) for unknown ids.
	Find(ctx context.Context, id string) (*models.Message, error)
	// Update replaces the stored message with the same id.
	Update(ctx context.Context, msg *models.Message) error
	// ReplaceAll swaps the whole history in one step.
	ReplaceAll(ctx context.Context, msgs []*models.Message) error
	Close() error
}

func cloneAll(msgs []*models.Message) []*models.Message {
	out := make([]*models.Message, len(msgs))
	for i, m := range msgs {
		out[i] = m.Clone()
	}
	return out
}

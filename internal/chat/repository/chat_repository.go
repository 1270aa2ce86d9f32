package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/goccy/go-json"
	"gorm.io/gorm"

	"portalchat/internal/chat/models"
	"portalchat/internal/dbmysql"
)

// gormStore persists the history in the chat_messages table. The seq column keeps append order.
type gormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) MessageStore {
	return &gormStore{db: db}
}

func toRow(msg *models.Message) (*dbmysql.ChatMessage, error) {
	readBy := msg.ReadBy
	if readBy == nil {
		readBy = []string{}
	}
	raw, err := json.Marshal(readBy)
	if err != nil {
		return nil, err
	}
	return &dbmysql.ChatMessage{
		MessageID: msg.ID,
		Author:    msg.Author,
		Text:      msg.Text,
		ImageRef:  msg.ImageRef,
		ReadBy:    string(raw),
		Edited:    msg.Edited,
		Deleted:   msg.Deleted,
		CreatedAt: msg.CreatedAt.UTC(),
	}, nil
}

func fromRow(row *dbmysql.ChatMessage) (*models.Message, error) {
	msg := &models.Message{
		ID:        row.MessageID,
		Author:    row.Author,
		Text:      row.Text,
		ImageRef:  row.ImageRef,
		Edited:    row.Edited,
		Deleted:   row.Deleted,
		CreatedAt: row.CreatedAt.UTC(),
		ReadBy:    []string{},
	}
	if row.ReadBy != "" {
		if err := json.Unmarshal([]byte(row.ReadBy), &msg.ReadBy); err != nil {
			return nil, fmt.Errorf("decode read_by of %s: %w", row.MessageID, err)
		}
	}
	return msg, nil
}

func (r *gormStore) Append(ctx context.Context, msg *models.Message) error {
	row, err := toRow(msg)
	if err != nil {
		return err
	}
	err = r.db.WithContext(ctx).Create(row).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: %s", ErrDuplicateID, msg.ID)
	}
	return err
}

func (r *gormStore) List(ctx context.Context) ([]*models.Message, error) {
	var rows []*dbmysql.ChatMessage
	if err := r.db.WithContext(ctx).Order("seq ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]*models.Message, 0, len(rows))
	for _, row := range rows {
		msg, err := fromRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, msg)
	}
	return out, nil
}

func (r *gormStore) Find(ctx context.Context, id string) (*models.Message, error) {
	var row dbmysql.ChatMessage
	err := r.db.WithContext(ctx).Where("message_id = ?", id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return fromRow(&row)
}

func (r *gormStore) Update(ctx context.Context, msg *models.Message) error {
	row, err := toRow(msg)
	if err != nil {
		return err
	}
	res := r.db.WithContext(ctx).
		Model(&dbmysql.ChatMessage{}).
		Where("message_id = ?", msg.ID).
		Updates(map[string]interface{}{
			"text":      row.Text,
			"image_ref": row.ImageRef,
			"read_by":   row.ReadBy,
			"edited":    row.Edited,
			"deleted":   row.Deleted,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		// MySQL reports zero affected rows for no-op updates too.
		var count int64
		if err := r.db.WithContext(ctx).Model(&dbmysql.ChatMessage{}).
			Where("message_id = ?", msg.ID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return fmt.Errorf("%w: %s", ErrNotFound, msg.ID)
		}
	}
	return nil
}

func (r *gormStore) ReplaceAll(ctx context.Context, msgs []*models.Message) error {
	rows := make([]*dbmysql.ChatMessage, 0, len(msgs))
	seen := make(map[string]struct{}, len(msgs))
	for _, m := range msgs {
		if _, ok := seen[m.ID]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateID, m.ID)
		}
		seen[m.ID] = struct{}{}
		row, err := toRow(m)
		if err != nil {
			return err
		}
		rows = append(rows, row)
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).
			Delete(&dbmysql.ChatMessage{}).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.Create(&rows).Error
	})
}

// Close is a no-op; the *gorm.DB is shared and closed by its owner.
func (r *gormStore) Close() error { return nil }

package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	mysqldrv "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"portalchat/internal/chat/models"
)

var messageColumns = []string{
	"seq", "message_id", "author", "text", "image_ref", "read_by", "edited", "deleted", "created_at",
}

func setupTestDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      db,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	cleanup := func() {
		db.Close()
	}

	return gormDB, mock, cleanup
}

func TestGormStore_Append(t *testing.T) {
	ts := time.Date(2024, 5, 4, 10, 0, 0, 0, time.UTC)
	msg := &models.Message{
		ID:        "m-1",
		Author:    "alice",
		Text:      "hello",
		CreatedAt: ts,
		ReadBy:    []string{"alice"},
	}

	tests := []struct {
		name      string
		mockSetup func(sqlmock.Sqlmock)
		wantErr   error
		anyErr    bool
	}{
		{
			name: "successful append",
			mockSetup: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `chat_messages`")).
					WithArgs("m-1", "alice", "hello", "", `["alice"]`, false, false, ts).
					WillReturnResult(sqlmock.NewResult(1, 1))
				mock.ExpectCommit()
			},
		},
		{
			name: "duplicate id",
			mockSetup: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `chat_messages`")).
					WillReturnError(&mysqldrv.MySQLError{Number: 1062, Message: "Duplicate entry"})
				mock.ExpectRollback()
			},
			wantErr: ErrDuplicateID,
		},
		{
			name: "database error",
			mockSetup: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `chat_messages`")).
					WillReturnError(assert.AnError)
				mock.ExpectRollback()
			},
			anyErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, cleanup := setupTestDB(t)
			defer cleanup()

			tt.mockSetup(mock)

			store := NewGormStore(db)
			err := store.Append(context.Background(), msg)

			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.anyErr:
				assert.Error(t, err)
			default:
				assert.NoError(t, err)
			}

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestGormStore_List(t *testing.T) {
	ts := time.Date(2024, 5, 4, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		mockSetup   func(sqlmock.Sqlmock)
		expectedIDs []string
		expectError bool
	}{
		{
			name: "returns messages in append order",
			mockSetup: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows(messageColumns).
					AddRow(1, "m-1", "alice", "hi", "", `["alice"]`, false, false, ts).
					AddRow(2, "m-2", "bob", "", "ab12cd34.png", `["bob","alice"]`, false, false, ts)
				mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `chat_messages` ORDER BY seq ASC")).
					WillReturnRows(rows)
			},
			expectedIDs: []string{"m-1", "m-2"},
		},
		{
			name: "empty history",
			mockSetup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `chat_messages`")).
					WillReturnRows(sqlmock.NewRows(messageColumns))
			},
			expectedIDs: []string{},
		},
		{
			name: "database error",
			mockSetup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `chat_messages`")).
					WillReturnError(assert.AnError)
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, cleanup := setupTestDB(t)
			defer cleanup()

			tt.mockSetup(mock)

			msgs, err := NewGormStore(db).List(context.Background())
			if tt.expectError {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
				ids := make([]string, 0, len(msgs))
				for _, m := range msgs {
					ids = append(ids, m.ID)
				}
				assert.Equal(t, tt.expectedIDs, ids)
			}

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestGormStore_ListDecodesReadBy(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()

	ts := time.Date(2024, 5, 4, 10, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `chat_messages`")).
		WillReturnRows(sqlmock.NewRows(messageColumns).
			AddRow(2, "m-2", "bob", "", "ab12cd34.png", `["bob","alice"]`, true, false, ts))

	msgs, err := NewGormStore(db).List(context.Background())
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, []string{"bob", "alice"}, msgs[0].ReadBy)
	assert.Equal(t, "ab12cd34.png", msgs[0].ImageRef)
	assert.True(t, msgs[0].Edited)
	assert.Equal(t, ts, msgs[0].CreatedAt)
}

func TestGormStore_Find(t *testing.T) {
	ts := time.Date(2024, 5, 4, 10, 0, 0, 0, time.UTC)

	t.Run("found", func(t *testing.T) {
		db, mock, cleanup := setupTestDB(t)
		defer cleanup()

		mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `chat_messages` WHERE message_id = ?")).
			WillReturnRows(sqlmock.NewRows(messageColumns).
				AddRow(1, "m-1", "alice", "hi", "", `["alice"]`, false, false, ts))

		msg, err := NewGormStore(db).Find(context.Background(), "m-1")
		require.NoError(t, err)
		assert.Equal(t, "alice", msg.Author)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		db, mock, cleanup := setupTestDB(t)
		defer cleanup()

		mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `chat_messages` WHERE message_id = ?")).
			WillReturnRows(sqlmock.NewRows(messageColumns))

		_, err := NewGormStore(db).Find(context.Background(), "missing")
		assert.ErrorIs(t, err, ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormStore_Update(t *testing.T) {
	msg := &models.Message{ID: "m-1", Author: "alice", Text: "edited", Edited: true, ReadBy: []string{"alice"}}

	t.Run("updates row", func(t *testing.T) {
		db, mock, cleanup := setupTestDB(t)
		defer cleanup()

		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta("UPDATE `chat_messages` SET")).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		assert.NoError(t, NewGormStore(db).Update(context.Background(), msg))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown id", func(t *testing.T) {
		db, mock, cleanup := setupTestDB(t)
		defer cleanup()

		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta("UPDATE `chat_messages` SET")).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectCommit()
		mock.ExpectQuery(regexp.QuoteMeta("SELECT count(*) FROM `chat_messages`")).
			WillReturnRows(sqlmock.NewRows([]string{"count(*)"}).AddRow(0))

		err := NewGormStore(db).Update(context.Background(), msg)
		assert.ErrorIs(t, err, ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormStore_ReplaceAll(t *testing.T) {
	ts := time.Date(2024, 5, 4, 10, 0, 0, 0, time.UTC)
	keep := []*models.Message{
		{ID: "m-2", Author: "bob", Text: "kept", CreatedAt: ts, ReadBy: []string{"bob"}},
	}

	t.Run("rewrites history in one transaction", func(t *testing.T) {
		db, mock, cleanup := setupTestDB(t)
		defer cleanup()

		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta("DELETE FROM `chat_messages`")).
			WillReturnResult(sqlmock.NewResult(0, 3))
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `chat_messages`")).
			WillReturnResult(sqlmock.NewResult(4, 1))
		mock.ExpectCommit()

		assert.NoError(t, NewGormStore(db).ReplaceAll(context.Background(), keep))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty history only deletes", func(t *testing.T) {
		db, mock, cleanup := setupTestDB(t)
		defer cleanup()

		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta("DELETE FROM `chat_messages`")).
			WillReturnResult(sqlmock.NewResult(0, 3))
		mock.ExpectCommit()

		assert.NoError(t, NewGormStore(db).ReplaceAll(context.Background(), nil))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("insert failure rolls back", func(t *testing.T) {
		db, mock, cleanup := setupTestDB(t)
		defer cleanup()

		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta("DELETE FROM `chat_messages`")).
			WillReturnResult(sqlmock.NewResult(0, 3))
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `chat_messages`")).
			WillReturnError(assert.AnError)
		mock.ExpectRollback()

		assert.Error(t, NewGormStore(db).ReplaceAll(context.Background(), keep))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("duplicate ids rejected before touching the db", func(t *testing.T) {
		db, mock, cleanup := setupTestDB(t)
		defer cleanup()

		dup := []*models.Message{{ID: "x"}, {ID: "x"}}
		assert.ErrorIs(t, NewGormStore(db).ReplaceAll(context.Background(), dup), ErrDuplicateID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

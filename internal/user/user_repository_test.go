package user

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

	"portalchat/internal/dbmysql"
)

var userColumns = []string{"username", "username_key", "password_hash", "banned", "last_message", "created_at"}

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

	return gormDB, mock, func() { db.Close() }
}

func TestUserRepository_CreateUser(t *testing.T) {
	ts := time.Date(2024, 9, 1, 8, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		mockSetup func(sqlmock.Sqlmock)
		wantErr   error
		anyErr    bool
	}{
		{
			name: "successful create stores lower-cased key",
			mockSetup: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `users`")).
					WithArgs("Alice", "alice", "hash", false, sqlmock.AnyArg(), ts).
					WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectCommit()
			},
		},
		{
			name: "name taken",
			mockSetup: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `users`")).
					WillReturnError(&mysqldrv.MySQLError{Number: 1062, Message: "Duplicate entry 'alice' for key 'username_key'"})
				mock.ExpectRollback()
			},
			wantErr: ErrUserExists,
		},
		{
			name: "database error",
			mockSetup: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `users`")).
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

			repo := NewUserRepository(db)
			err := repo.CreateUser(context.Background(), &dbmysql.User{Username: "Alice", PasswordHash: "hash", CreatedAt: ts})

			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.anyErr:
				assert.Error(t, err)
				assert.NotErrorIs(t, err, ErrUserExists)
			default:
				assert.NoError(t, err)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestUserRepository_GetUser(t *testing.T) {
	ts := time.Date(2024, 9, 1, 8, 0, 0, 0, time.UTC)

	t.Run("found", func(t *testing.T) {
		db, mock, cleanup := setupTestDB(t)
		defer cleanup()
		mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `users` WHERE username = ?")).
			WillReturnRows(sqlmock.NewRows(userColumns).AddRow("alice", "alice", "hash", true, "see me", ts))

		u, err := NewUserRepository(db).GetUser(context.Background(), "alice")
		require.NoError(t, err)
		assert.True(t, u.Banned)
		require.NotNil(t, u.LastMessage)
		assert.Equal(t, "see me", *u.LastMessage)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		db, mock, cleanup := setupTestDB(t)
		defer cleanup()
		mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `users` WHERE username = ?")).
			WillReturnRows(sqlmock.NewRows(userColumns))

		_, err := NewUserRepository(db).GetUser(context.Background(), "ghost")
		assert.ErrorIs(t, err, ErrUserNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUserRepository_UpdateUser(t *testing.T) {
	msg := "hola"
	user := &dbmysql.User{Username: "alice", PasswordHash: "hash", Banned: true, LastMessage: &msg}

	t.Run("updates moderation fields", func(t *testing.T) {
		db, mock, cleanup := setupTestDB(t)
		defer cleanup()
		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta("UPDATE `users` SET `banned`=?,`last_message`=?,`password_hash`=? WHERE username = ?")).
			WithArgs(true, "hola", "hash", "alice").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		assert.NoError(t, NewUserRepository(db).UpdateUser(context.Background(), user))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown user", func(t *testing.T) {
		db, mock, cleanup := setupTestDB(t)
		defer cleanup()
		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta("UPDATE `users`")).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectCommit()
		mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `users` WHERE username = ?")).
			WillReturnRows(sqlmock.NewRows(userColumns))

		err := NewUserRepository(db).UpdateUser(context.Background(), user)
		assert.ErrorIs(t, err, ErrUserNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUserRepository_DeleteUser(t *testing.T) {
	tests := []struct {
		name     string
		affected int64
		wantErr  error
	}{
		{name: "deleted", affected: 1},
		{name: "unknown user", affected: 0, wantErr: ErrUserNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, cleanup := setupTestDB(t)
			defer cleanup()
			mock.ExpectBegin()
			mock.ExpectExec(regexp.QuoteMeta("DELETE FROM `users` WHERE username = ?")).
				WithArgs("alice").
				WillReturnResult(sqlmock.NewResult(0, tt.affected))
			mock.ExpectCommit()

			err := NewUserRepository(db).DeleteUser(context.Background(), "alice")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestUserRepository_ListUsers(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()
	ts := time.Date(2024, 9, 1, 8, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `users` ORDER BY created_at ASC")).
		WillReturnRows(sqlmock.NewRows(userColumns).
			AddRow("alice", "alice", "h1", false, nil, ts).
			AddRow("bob", "bob", "h2", true, nil, ts.Add(time.Hour)))

	users, err := NewUserRepository(db).ListUsers(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "alice", users[0].Username)
	assert.True(t, users[1].Banned)
	assert.Nil(t, users[0].LastMessage)
	assert.NoError(t, mock.ExpectationsWereMet())
}

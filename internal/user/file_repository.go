package user

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"portalchat/internal/dbmysql"
	"portalchat/internal/jsonfile"
)

// fileRecord is the on-disk shape of an account; the gorm record hides the hash from JSON.
type fileRecord struct {
	Username     string  `json:"username"`
	PasswordHash string  `json:"hash"`
	CreatedAt    string  `json:"created_at"`
	Banned       bool    `json:"banned"`
	LastMessage  *string `json:"message"`
}

// memoryRepository keeps accounts in a map. With a path set, every mutation
// rewrites the whole users file before it is applied in memory.
type memoryRepository struct {
	mu    sync.RWMutex
	users map[string]*dbmysql.User // by username
	path  string
}

func NewMemoryRepository() UserRepository {
	return &memoryRepository{users: make(map[string]*dbmysql.User)}
}

// NewFileRepository loads the users file at path, if any, and persists every change to it.
func NewFileRepository(path string) (UserRepository, error) {
	var records []fileRecord
	if _, err := jsonfile.Load(path, &records); err != nil {
		return nil, err
	}
	repo := &memoryRepository{users: make(map[string]*dbmysql.User, len(records)), path: path}
	for _, rec := range records {
		u, err := rec.toUser()
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
		repo.users[u.Username] = u
	}
	return repo, nil
}

func (r *memoryRepository) CreateUser(ctx context.Context, user *dbmysql.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := usernameKey(user.Username)
	for _, u := range r.users {
		if u.UsernameKey == key {
			return fmt.Errorf("%w: %s", ErrUserExists, user.Username)
		}
	}
	stored := cloneUser(user)
	stored.UsernameKey = key
	return r.commit(func(users map[string]*dbmysql.User) { users[stored.Username] = stored })
}

func (r *memoryRepository) GetUser(ctx context.Context, username string) (*dbmysql.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[username]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUserNotFound, username)
	}
	return cloneUser(u), nil
}

func (r *memoryRepository) UpdateUser(ctx context.Context, user *dbmysql.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.users[user.Username]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUserNotFound, user.Username)
	}
	next := cloneUser(current)
	next.PasswordHash = user.PasswordHash
	next.Banned = user.Banned
	next.LastMessage = cloneString(user.LastMessage)
	return r.commit(func(users map[string]*dbmysql.User) { users[next.Username] = next })
}

func (r *memoryRepository) DeleteUser(ctx context.Context, username string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[username]; !ok {
		return fmt.Errorf("%w: %s", ErrUserNotFound, username)
	}
	return r.commit(func(users map[string]*dbmysql.User) { delete(users, username) })
}

func (r *memoryRepository) ListUsers(ctx context.Context) ([]*dbmysql.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedUsers(r.users), nil
}

// commit applies fn to a copy of the map, saves it when file backed, then swaps it in.
// Callers hold r.mu.
func (r *memoryRepository) commit(fn func(users map[string]*dbmysql.User)) error {
	next := make(map[string]*dbmysql.User, len(r.users)+1)
	for k, v := range r.users {
		next[k] = v
	}
	fn(next)

	if r.path != "" {
		users := sortedUsers(next)
		records := make([]fileRecord, len(users))
		for i, u := range users {
			records[i] = toFileRecord(u)
		}
		if err := jsonfile.Save(r.path, records); err != nil {
			return err
		}
	}
	r.users = next
	return nil
}

func sortedUsers(users map[string]*dbmysql.User) []*dbmysql.User {
	out := make([]*dbmysql.User, 0, len(users))
	for _, u := range users {
		out = append(out, cloneUser(u))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].Username < out[j].Username
	})
	return out
}

func cloneUser(u *dbmysql.User) *dbmysql.User {
	c := *u
	c.LastMessage = cloneString(u.LastMessage)
	return &c
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}

func toFileRecord(u *dbmysql.User) fileRecord {
	return fileRecord{
		Username:     u.Username,
		PasswordHash: u.PasswordHash,
		CreatedAt:    u.CreatedAt.UTC().Format(time.RFC3339Nano),
		Banned:       u.Banned,
		LastMessage:  cloneString(u.LastMessage),
	}
}

func (rec fileRecord) toUser() (*dbmysql.User, error) {
	u := &dbmysql.User{
		Username:     rec.Username,
		UsernameKey:  usernameKey(rec.Username),
		PasswordHash: rec.PasswordHash,
		Banned:       rec.Banned,
		LastMessage:  cloneString(rec.LastMessage),
	}
	if rec.CreatedAt != "" {
		t, err := time.Parse(time.RFC3339Nano, rec.CreatedAt)
		if err != nil {
			return nil, err
		}
		u.CreatedAt = t
	}
	return u, nil
}

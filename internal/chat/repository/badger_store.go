package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"portalchat/internal/chat/models"
)

var (
	msgPrefix = []byte("chat/msg/")
	idPrefix  = []byte("chat/id/")
	seqKey    = []byte("chat/seq")
)

// badgerStore keeps each message under chat/msg/<zero-padded sequence> so key
// order is append order, with a chat/id/<id> index pointing at that key.
type badgerStore struct {
	db    *badger.DB
	seq   *badger.Sequence
	owned bool
}

// OpenBadgerStore opens (or creates) a badger database in dir owned by the store.
func OpenBadgerStore(dir string) (MessageStore, error) {
	db, err := badger.Open(badger.DefaultOptions(dir).WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("open badger at %s: %w", dir, err)
	}
	s, err := newBadgerStore(db, true)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// NewBadgerStore uses an already opened database; Close leaves db open.
func NewBadgerStore(db *badger.DB) (MessageStore, error) {
	return newBadgerStore(db, false)
}

func newBadgerStore(db *badger.DB, owned bool) (*badgerStore, error) {
	seq, err := db.GetSequence(seqKey, 128)
	if err != nil {
		return nil, fmt.Errorf("badger sequence: %w", err)
	}
	return &badgerStore{db: db, seq: seq, owned: owned}, nil
}

func msgKey(n uint64) []byte {
	return []byte(fmt.Sprintf("%s%020d", msgPrefix, n))
}

func idKey(id string) []byte {
	return append(append([]byte{}, idPrefix...), id...)
}

func (s *badgerStore) Append(ctx context.Context, msg *models.Message) error {
	val, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	n, err := s.seq.Next()
	if err != nil {
		return fmt.Errorf("badger sequence: %w", err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(idKey(msg.ID)); err == nil {
			return fmt.Errorf("%w: %s", ErrDuplicateID, msg.ID)
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		key := msgKey(n)
		if err := txn.Set(key, val); err != nil {
			return err
		}
		return txn.Set(idKey(msg.ID), key)
	})
}

func (s *badgerStore) List(ctx context.Context) ([]*models.Message, error) {
	var out []*models.Message
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = msgPrefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var m models.Message
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &m)
			}); err != nil {
				return err
			}
			out = append(out, &m)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// locate resolves the message key for id inside txn.
func locate(txn *badger.Txn, id string) ([]byte, error) {
	item, err := txn.Get(idKey(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return item.ValueCopy(nil)
}

func (s *badgerStore) Find(ctx context.Context, id string) (*models.Message, error) {
	var m models.Message
	err := s.db.View(func(txn *badger.Txn) error {
		key, err := locate(txn, id)
		if err != nil {
			return err
		}
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &m)
		})
	})
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *badgerStore) Update(ctx context.Context, msg *models.Message) error {
	val, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		key, err := locate(txn, msg.ID)
		if err != nil {
			return err
		}
		return txn.Set(key, val)
	})
}

// ReplaceAll deletes and rewrites the history in a single transaction.
func (s *badgerStore) ReplaceAll(ctx context.Context, msgs []*models.Message) error {
	return s.db.Update(func(txn *badger.Txn) error {
		for _, prefix := range [][]byte{msgPrefix, idPrefix} {
			opts := badger.DefaultIteratorOptions
			opts.Prefix = prefix
			opts.PrefetchValues = false
			it := txn.NewIterator(opts)
			var keys [][]byte
			for it.Rewind(); it.Valid(); it.Next() {
				keys = append(keys, it.Item().KeyCopy(nil))
			}
			it.Close()
			for _, k := range keys {
				if err := txn.Delete(k); err != nil {
					return err
				}
			}
		}

		seen := make(map[string]struct{}, len(msgs))
		for _, m := range msgs {
			if _, ok := seen[m.ID]; ok {
				return fmt.Errorf("%w: %s", ErrDuplicateID, m.ID)
			}
			seen[m.ID] = struct{}{}

			val, err := json.Marshal(m)
			if err != nil {
				return err
			}
			n, err := s.seq.Next()
			if err != nil {
				return err
			}
			key := msgKey(n)
			if err := txn.Set(key, val); err != nil {
				return err
			}
			if err := txn.Set(idKey(m.ID), key); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *badgerStore) Close() error {
	err := s.seq.Release()
	if s.owned {
		if cerr := s.db.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

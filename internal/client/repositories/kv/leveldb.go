package kv

import (
	"context"
	"errors"
	"fmt"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/iterator"
	"github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// LevelDBRepository implements Repository over a LevelDB database.
type LevelDBRepository struct {
	db *leveldb.DB
	tr *leveldb.Transaction // set inside Atomic
}

// OpenLevelDB opens (creating if needed) a LevelDB directory at path.
func OpenLevelDB(path string) (*LevelDBRepository, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open leveldb %s: %w", path, err)
	}
	return &LevelDBRepository{db: db}, nil
}

// NewMemLevelDB returns a repository backed by memory only; nothing
// survives Close.
func NewMemLevelDB() (*LevelDBRepository, error) {
	db, err := leveldb.Open(storage.NewMemStorage(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open memory leveldb: %w", err)
	}
	return &LevelDBRepository{db: db}, nil
}

func (r *LevelDBRepository) Close() error {
	return r.db.Close()
}

func (r *LevelDBRepository) Get(_ context.Context, key string) ([]byte, error) {
	var (
		v   []byte
		err error
	)
	if r.tr != nil {
		v, err = r.tr.Get([]byte(key), nil)
	} else {
		v, err = r.db.Get([]byte(key), nil)
	}
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get kv[%s]: %w", key, err)
	}
	return v, nil
}

func (r *LevelDBRepository) Set(_ context.Context, key string, value []byte) error {
	var err error
	if r.tr != nil {
		err = r.tr.Put([]byte(key), value, nil)
	} else {
		err = r.db.Put([]byte(key), value, nil)
	}
	if err != nil {
		return fmt.Errorf("failed to set kv[%s]: %w", key, err)
	}
	return nil
}

func (r *LevelDBRepository) Delete(_ context.Context, key string) error {
	var err error
	if r.tr != nil {
		err = r.tr.Delete([]byte(key), nil)
	} else {
		err = r.db.Delete([]byte(key), nil)
	}
	if err != nil {
		return fmt.Errorf("failed to delete kv[%s]: %w", key, err)
	}
	return nil
}

func (r *LevelDBRepository) Keys(_ context.Context, prefix string) ([]string, error) {
	rng := util.BytesPrefix([]byte(prefix))
	var it iterator.Iterator
	if r.tr != nil {
		it = r.tr.NewIterator(rng, nil)
	} else {
		it = r.db.NewIterator(rng, nil)
	}
	defer it.Release()

	keys := make([]string, 0)
	for it.Next() {
		keys = append(keys, string(it.Key()))
	}
	if err := it.Error(); err != nil {
		return nil, fmt.Errorf("failed to list kv keys[%s]: %w", prefix, err)
	}
	return keys, nil
}

func (r *LevelDBRepository) DeletePrefix(ctx context.Context, prefix string) (int, error) {
	keys, err := r.Keys(ctx, prefix)
	if err != nil {
		return 0, err
	}
	batch := new(leveldb.Batch)
	for _, k := range keys {
		batch.Delete([]byte(k))
	}
	if r.tr != nil {
		err = r.tr.Write(batch, nil)
	} else {
		err = r.db.Write(batch, nil)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to delete kv prefix[%s]: %w", prefix, err)
	}
	return len(keys), nil
}

// Atomic runs fn inside a LevelDB transaction. LevelDB allows one open
// transaction at a time, so concurrent Atomic calls serialize.
func (r *LevelDBRepository) Atomic(ctx context.Context, fn func(ctx context.Context, r Repository) error) error {
	if r.tr != nil {
		return fn(ctx, r)
	}
	tr, err := r.db.OpenTransaction()
	if err != nil {
		return fmt.Errorf("failed to open leveldb transaction: %w", err)
	}
	if err := fn(ctx, &LevelDBRepository{db: r.db, tr: tr}); err != nil {
		tr.Discard()
		return err
	}
	if err := tr.Commit(); err != nil {
		return fmt.Errorf("failed to commit leveldb transaction: %w", err)
	}
	return nil
}

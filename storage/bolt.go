package storage

import (
	"time"

	bolt "go.etcd.io/bbolt"
	"golang.org/x/xerrors"
)

// BoltOpenPerm is the permission used to create the bolt file.
const BoltOpenPerm = 0600

var bucketName = []byte("kv")

// BoltKV is a KVStore persisted in a bolt database, so that a restarted
// process sees the entries written before.
//
// - implements storage.KVStore
type BoltKV struct {
	db *bolt.DB
}

// NewBoltKV opens (or creates) the bolt database at path.
func NewBoltKV(path string) (*BoltKV, error) {
	db, err := bolt.Open(path, BoltOpenPerm, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, xerrors.Errorf("failed to open bolt db %s: %w", path, err)
	}

	// create the bucket already
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	})
	if err != nil {
		db.Close()
		return nil, xerrors.Errorf("failed to create bucket: %w", err)
	}

	return &BoltKV{db: db}, nil
}

// Get implements storage.KVStore
func (kv *BoltKV) Get(key string) ([]byte, bool, error) {
	var value []byte
	err := kv.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketName).Get([]byte(key))
		if v != nil {
			// bolt values are only valid inside the transaction
			value = copyBytes(v)
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return value, value != nil, nil
}

// PutIfAbsent implements storage.KVStore
func (kv *BoltKV) PutIfAbsent(key string, value []byte) ([]byte, bool, error) {
	var stored []byte
	inserted := false

	err := kv.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketName)
		old := b.Get([]byte(key))
		if old != nil {
			stored = copyBytes(old)
			return nil
		}
		inserted = true
		stored = copyBytes(value)
		return b.Put([]byte(key), stored)
	})
	if err != nil {
		return nil, false, xerrors.Errorf("failed to store %s: %w", key, err)
	}

	return stored, inserted, nil
}

// For implements storage.KVStore
func (kv *BoltKV) For(action func(key string, value []byte) error) error {
	return kv.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketName).ForEach(func(k, v []byte) error {
			return action(string(k), copyBytes(v))
		})
	})
}

// Len implements storage.KVStore
func (kv *BoltKV) Len() (int, error) {
	n := 0
	err := kv.db.View(func(tx *bolt.Tx) error {
		n = tx.Bucket(bucketName).Stats().KeyN
		return nil
	})
	return n, err
}

// Close implements storage.KVStore
func (kv *BoltKV) Close() error {
	return kv.db.Close()
}

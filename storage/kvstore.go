package storage

import (
	"sort"
	"sync"
)

// KVStore is a byte-oriented key-value store where a key, once written, is
// never overwritten. This is what the triplet cache needs: the first writer
// wins and every later reader sees that single value.
type KVStore interface {
	// Get returns the value stored under key, if any.
	Get(key string) ([]byte, bool, error)
	// PutIfAbsent stores value under key unless the key already exists. It
	// returns the value that ends up stored and whether this call inserted it.
	PutIfAbsent(key string, value []byte) (stored []byte, inserted bool, err error)
	// For calls action on every entry, by increasing key order.
	For(action func(key string, value []byte) error) error
	// Len returns the number of entries.
	Len() (int, error)
	// Close releases the resources held by the store.
	Close() error
}

// BasicKV is an in-memory KVStore.
//
// - implements storage.KVStore
type BasicKV struct {
	sync.RWMutex
	store map[string][]byte
}

// NewBasicKV returns an empty in-memory store.
func NewBasicKV() *BasicKV {
	return &BasicKV{
		store: make(map[string][]byte),
	}
}

// Get implements storage.KVStore
func (kv *BasicKV) Get(key string) ([]byte, bool, error) {
	kv.RLock()
	defer kv.RUnlock()

	value, ok := kv.store[key]
	if !ok {
		return nil, false, nil
	}
	return copyBytes(value), true, nil
}

// PutIfAbsent implements storage.KVStore
func (kv *BasicKV) PutIfAbsent(key string, value []byte) ([]byte, bool, error) {
	kv.Lock()
	defer kv.Unlock()

	old, ok := kv.store[key]
	if ok {
		return copyBytes(old), false, nil
	}
	kv.store[key] = copyBytes(value)
	return copyBytes(value), true, nil
}

// For implements storage.KVStore
func (kv *BasicKV) For(action func(key string, value []byte) error) error {
	kv.RLock()
	sorted := make([]string, 0, len(kv.store))
	for k := range kv.store {
		sorted = append(sorted, k)
	}
	values := make(map[string][]byte, len(kv.store))
	for k, v := range kv.store {
		values[k] = copyBytes(v)
	}
	kv.RUnlock()

	sort.Strings(sorted)
	for _, k := range sorted {
		err := action(k, values[k])
		if err != nil {
			return err
		}
	}
	return nil
}

// Len implements storage.KVStore
func (kv *BasicKV) Len() (int, error) {
	kv.RLock()
	defer kv.RUnlock()
	return len(kv.store), nil
}

// Close implements storage.KVStore
func (kv *BasicKV) Close() error {
	return nil
}

func copyBytes(b []byte) []byte {
	res := make([]byte, len(b))
	copy(res, b)
	return res
}

// Package store caches analysis results in an embedded BadgerDB keyed by
// file path, so repeated renders of an unchanged file skip parsing entirely.
package store

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"github.com/shjno191/graviti/internal/flowgraph"
)

// Key prefixes for the BadgerDB key scheme.
const (
	prefixGraph = "g:"
	prefixHash  = "h:"
)

// ErrNotFound is returned when no cached graph exists for a file, or the
// cached entry was produced from different source content.
var ErrNotFound = errors.New("store: entry not found")

// Store is a BadgerDB-backed cache of analyzed call graphs. Each file path
// maps to one graph plus the content hash it was computed from; a lookup
// with a different hash is a miss.
type Store struct {
	db *badger.DB
}

// Open opens (or creates) the cache database at dbPath.
func Open(dbPath string) (*Store, error) {
	opts := badger.DefaultOptions(dbPath)
	opts.Logger = nil // suppress badger logs
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger db: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Hash returns the content hash used to key cache validity.
func Hash(source []byte) string {
	sum := sha256.Sum256(source)
	return hex.EncodeToString(sum[:])
}

func graphKey(file string) []byte { return []byte(prefixGraph + file) }
func hashKey(file string) []byte  { return []byte(prefixHash + file) }

// Put stores the graph for file, replacing any previous entry.
func (s *Store) Put(file, hash string, graph *flowgraph.CallGraph) error {
	data, err := json.Marshal(graph)
	if err != nil {
		return fmt.Errorf("marshal graph: %w", err)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(graphKey(file), data); err != nil {
			return err
		}
		return txn.Set(hashKey(file), []byte(hash))
	})
	if err != nil {
		return fmt.Errorf("store graph for %s: %w", file, err)
	}
	return nil
}

// Get returns the cached graph for file if it was computed from source
// content with the given hash. Any other case is ErrNotFound.
func (s *Store) Get(file, hash string) (*flowgraph.CallGraph, error) {
	var graph flowgraph.CallGraph
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(hashKey(file))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrNotFound
			}
			return err
		}
		stored, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		if string(stored) != hash {
			return ErrNotFound
		}

		item, err = txn.Get(graphKey(file))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrNotFound
			}
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &graph)
		})
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load graph for %s: %w", file, err)
	}
	return &graph, nil
}

// Delete removes the cached entry for file, if any.
func (s *Store) Delete(file string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete(graphKey(file)); err != nil {
			return err
		}
		return txn.Delete(hashKey(file))
	})
	if err != nil {
		return fmt.Errorf("delete entry for %s: %w", file, err)
	}
	return nil
}

// Stats reports the number of cached files.
func (s *Store) Stats() (files int, err error) {
	err = s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		prefix := []byte(prefixGraph)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			files++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("count entries: %w", err)
	}
	return files, nil
}

// Files lists the cached file paths in iteration order.
func (s *Store) Files() ([]string, error) {
	var files []string
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		prefix := []byte(prefixGraph)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			key := string(it.Item().Key())
			files = append(files, strings.TrimPrefix(key, prefixGraph))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	return files, nil
}

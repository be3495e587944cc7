// Package planstore caches compiled plans in BadgerDB, keyed by a
// content hash of the query source plus the attribute schema's epoch,
// so re-submitting an unchanged query skips the six-stage pipeline
// entirely. Grounded on the teacher's badger_store.go: same
// db.Update/db.View transaction shape, the same "nil on ErrKeyNotFound"
// miss convention as BadgerStore.Get.
package planstore

import (
	"bytes"
	"crypto/sha256"
	"encoding/gob"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/janusql/compiler/plan"
)

func init() {
	gob.Register(plan.Lookup{})
	gob.Register(plan.Entity{})
	gob.Register(plan.HasAttr{})
	gob.Register(plan.Filter{})
	gob.Register(plan.Join{})
	gob.Register(plan.Antijoin{})
	gob.Register(plan.Union{})
	gob.Register(plan.Project{})
	gob.Register(plan.Aggregate{})
	gob.Register(plan.PredExpr{})
	gob.Register(plan.RuleExpr{})
	gob.Register(plan.ConstInput{})
	gob.Register(plan.ParamInput{})
}

// Store is a BadgerDB-backed cache from (query source, attribute epoch)
// to a compiled plan.CompiledQuery.
type Store struct {
	db *badger.DB
}

// Open opens (creating if necessary) a Store at path, using the same
// read-heavy tuning as the teacher's NewBadgerStore.
func Open(path string) (*Store, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil
	opts.MemTableSize = 64 << 20
	opts.BlockCacheSize = 64 << 20
	opts.ValueThreshold = 1 << 10

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("planstore: failed to open badger: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Key returns the content-addressed cache key for a query's source text
// compiled against attribute schema version epoch. Two identical
// sources compiled against different epochs never collide, so a schema
// migration can't serve a stale plan built against old attribute ids.
func Key(source string, epoch uint64) []byte {
	sum := sha256.Sum256([]byte(source))
	return []byte(fmt.Sprintf("plan:%d:%x", epoch, sum))
}

// Get returns the cached compiled query for key, or nil if absent.
func (s *Store) Get(key []byte) (*plan.CompiledQuery, error) {
	var cq *plan.CompiledQuery

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			var decoded plan.CompiledQuery
			if err := gob.NewDecoder(bytes.NewReader(val)).Decode(&decoded); err != nil {
				return fmt.Errorf("planstore: decode: %w", err)
			}
			cq = &decoded
			return nil
		})
	})
	if err == badger.ErrKeyNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return cq, nil
}

// Put stores cq under key, overwriting any prior entry.
func (s *Store) Put(key []byte, cq *plan.CompiledQuery) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(cq); err != nil {
		return fmt.Errorf("planstore: encode: %w", err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, buf.Bytes())
	})
}

// GetRule and PutRule mirror Get/Put for a single compiled rule, keyed
// separately from queries (RuleKey) so a rule name never collides with
// a query source hash.
func (s *Store) GetRule(key []byte) (*plan.Rule, error) {
	var r *plan.Rule
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			var decoded plan.Rule
			if err := gob.NewDecoder(bytes.NewReader(val)).Decode(&decoded); err != nil {
				return fmt.Errorf("planstore: decode: %w", err)
			}
			r = &decoded
			return nil
		})
	})
	if err == badger.ErrKeyNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

// PutRule stores r under key, overwriting any prior entry.
func (s *Store) PutRule(key []byte, r *plan.Rule) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(r); err != nil {
		return fmt.Errorf("planstore: encode: %w", err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, buf.Bytes())
	})
}

// RuleKey returns the cache key for a rule name compiled at epoch.
func RuleKey(name string, epoch uint64) []byte {
	return []byte(fmt.Sprintf("rule:%d:%s", epoch, name))
}

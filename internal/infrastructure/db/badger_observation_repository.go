package db

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"github.com/damon-houk/yc-central/internal/domain/entity"
	"github.com/dgraph-io/badger/v3"
	"github.com/pkg/errors"
)

const observationKeyPrefix = "obs:"

// BadgerObservationRepository caches fetched observations on disk using BadgerDB
type BadgerObservationRepository struct {
	db *badger.DB
}

// NewBadgerObservationRepository creates a repository over an open BadgerDB
func NewBadgerObservationRepository(db *badger.DB) *BadgerObservationRepository {
	return &BadgerObservationRepository{db: db}
}

// OpenBadger creates dir if needed and opens a BadgerDB there with logging disabled
func OpenBadger(dir string) (*badger.DB, error) {
	const op = "db.badger.Open"

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, op)
	}

	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, errors.Wrap(err, op)
	}

	return db, nil
}

// Get returns observations stored under key. Expired entries are invisible.
func (r *BadgerObservationRepository) Get(_ context.Context, key string) ([]entity.YieldCurvePoint, bool, error) {
	const op = "db.badger.Get"

	var points []entity.YieldCurvePoint
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(observationKeyPrefix + key))
		if err != nil {
			return err
		}

		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &points)
		})
	})

	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrap(err, op)
	}

	return points, true, nil
}

// Put stores observations under key; badger drops the entry once ttl elapses
func (r *BadgerObservationRepository) Put(_ context.Context, key string, points []entity.YieldCurvePoint, ttl time.Duration) error {
	const op = "db.badger.Put"

	data, err := json.Marshal(points)
	if err != nil {
		return errors.Wrap(err, op)
	}

	err = r.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry([]byte(observationKeyPrefix+key), data)
		if ttl > 0 {
			e = e.WithTTL(ttl)
		}
		return txn.SetEntry(e)
	})
	if err != nil {
		return errors.Wrap(err, op)
	}

	return nil
}

// Close closes the underlying database
func (r *BadgerObservationRepository) Close() error {
	return r.db.Close()
}

package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

var bDeliveries = []byte("deliveries") // key=game id, val=json DeliveryRecord

// Bolt is a single-file ledger. bbolt serializes write transactions and
// holds an exclusive file lock, so the check and the put inside Record are
// atomic even across overlapping processes.
type Bolt struct{ db *bolt.DB }

// OpenBolt opens (or creates) the ledger file at path. lockTimeout bounds
// how long to wait for another process holding the file.
func OpenBolt(path string, lockTimeout time.Duration) (*Bolt, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: lockTimeout})
	if err != nil {
		return nil, fmt.Errorf("open bolt ledger %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, e := tx.CreateBucketIfNotExists(bDeliveries)
		return e
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create bucket: %w", err)
	}
	return &Bolt{db: db}, nil
}

func (b *Bolt) Has(_ context.Context, gameID string) (bool, error) {
	var found bool
	err := b.db.View(func(tx *bolt.Tx) error {
		found = tx.Bucket(bDeliveries).Get([]byte(gameID)) != nil
		return nil
	})
	return found, err
}

func (b *Bolt) Record(_ context.Context, gameID string, at time.Time) error {
	val, err := json.Marshal(DeliveryRecord{GameID: gameID, NotifiedAt: at})
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	return b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(bDeliveries)
		if bucket.Get([]byte(gameID)) != nil {
			return ErrAlreadyRecorded
		}
		return bucket.Put([]byte(gameID), val)
	})
}

func (b *Bolt) Get(_ context.Context, gameID string) (DeliveryRecord, error) {
	var rec DeliveryRecord
	err := b.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bDeliveries).Get([]byte(gameID))
		if v == nil {
			return ErrNotFound
		}
		return json.Unmarshal(v, &rec)
	})
	return rec, err
}

func (b *Bolt) Close() error { return b.db.Close() }

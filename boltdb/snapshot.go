// Package boltdb caches parsed events in a bolt file so later runs can skip
// parsing the source.
package boltdb

import (
	"encoding/json"
	"time"

	"github.com/boltdb/bolt"
	"github.com/pilosa/gtd"
	"github.com/pkg/errors"
)

var snapshotBucket = []byte("snapshots")

// Snapshot stores JSON encoded event slices keyed by source name and
// version.
type Snapshot struct {
	Db *bolt.DB
}

// NewSnapshot opens or creates the snapshot file.
func NewSnapshot(filename string) (*Snapshot, error) {
	db, err := bolt.Open(filename, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, errors.Wrapf(err, "opening db file '%v'", filename)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(snapshotBucket)
		return errors.Wrap(err, "creating snapshot bucket")
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Snapshot{Db: db}, nil
}

func key(name, version string) []byte {
	return []byte(name + "\x00" + version)
}

// Get returns the events stored for name at version. ok is false if there
// are none.
func (s *Snapshot) Get(name, version string) (events []gtd.Event, ok bool, err error) {
	err = s.Db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(snapshotBucket).Get(key(name, version))
		if data == nil {
			return nil
		}
		ok = true
		return errors.Wrap(json.Unmarshal(data, &events), "decoding events")
	})
	if err != nil {
		return nil, false, err
	}
	return events, ok, nil
}

// Put stores events for name at version, replacing what was there.
func (s *Snapshot) Put(name, version string, events []gtd.Event) error {
	data, err := json.Marshal(events)
	if err != nil {
		return errors.Wrap(err, "encoding events")
	}
	return s.Db.Update(func(tx *bolt.Tx) error {
		return errors.Wrap(tx.Bucket(snapshotBucket).Put(key(name, version), data), "storing events")
	})
}

// Close syncs and closes the underlying boltdb.
func (s *Snapshot) Close() error {
	err := s.Db.Sync()
	if err != nil {
		return errors.Wrap(err, "syncing db")
	}
	return s.Db.Close()
}

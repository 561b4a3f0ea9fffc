package library

import (
	"encoding/json"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

const dbAPIVersion = "1"

type database struct {
	db *bolt.DB
}

func openDatabase(path string) (*database, error) {
	dbOpts := &bolt.Options{
		Timeout: 1 * time.Second,
	}

	db, err := bolt.Open(path, 0o600, dbOpts)
	if err != nil {
		return nil, fmt.Errorf("could not open database: %w: %v", err, path)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(dbAPIVersion))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("could not create bucket: %v, %w", dbAPIVersion, err)
	}

	return &database{db: db}, nil
}

func (d *database) put(entry Entry) error {
	value, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	return d.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(dbAPIVersion))
		return b.Put([]byte(entry.Name), value)
	})
}

func (d *database) get(name string) (Entry, bool, error) {
	var entry Entry
	var exists bool

	err := d.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(dbAPIVersion))
		value := b.Get([]byte(name))
		if value == nil {
			return nil
		}
		exists = true
		return json.Unmarshal(value, &entry)
	})
	return entry, exists, err
}

func (d *database) list() ([]Entry, error) {
	var entries []Entry

	err := d.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(dbAPIVersion))
		return b.ForEach(func(_, value []byte) error {
			var entry Entry
			if err := json.Unmarshal(value, &entry); err != nil {
				return err
			}
			entries = append(entries, entry)
			return nil
		})
	})
	return entries, err
}

func (d *database) delete(name string) error {
	return d.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(dbAPIVersion))
		return b.Delete([]byte(name))
	})
}

func (d *database) close() error {
	return d.db.Close()
}

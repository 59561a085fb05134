package store

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

var (
	bucketContacts = []byte("contacts")
	bucketTracking = []byte("tracking")
)

// ErrNotFound is returned when a contact id is not present in the store
var ErrNotFound = fmt.Errorf("contact not found")

// ErrSkip can be returned from an update callback to leave the stored
// record untouched without failing the transaction.
var ErrSkip = errors.New("skip contact update")

// Store is the single-writer contact and tracking storage backed by BoltDB.
// All read-modify-write cycles run inside one transaction, so a reminder
// fire and a response click can never clobber each other's update.
type Store struct {
	db *bolt.DB
}

// Open opens (creating if necessary) the store at path
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{
		Timeout: 5 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{bucketContacts, bucketTracking} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// PutContact stores a single contact
func (s *Store) PutContact(c *Contact) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return putContact(tx, c)
	})
}

// PutContacts stores a batch of contacts in one transaction
func (s *Store) PutContacts(contacts []*Contact) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		for _, c := range contacts {
			if err := putContact(tx, c); err != nil {
				return err
			}
		}
		return nil
	})
}

// GetContact retrieves a contact by id.
// Returns nil, nil if the contact does not exist.
func (s *Store) GetContact(id int64) (*Contact, error) {
	var contact *Contact

	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketContacts).Get(itob(id))
		if data == nil {
			return nil
		}
		contact = &Contact{}
		return json.Unmarshal(data, contact)
	})

	return contact, err
}

// ListContacts returns all contacts in id order
func (s *Store) ListContacts() ([]*Contact, error) {
	var contacts []*Contact

	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketContacts).Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			var contact Contact
			if err := json.Unmarshal(v, &contact); err != nil {
				continue
			}
			contacts = append(contacts, &contact)
		}
		return nil
	})

	return contacts, err
}

// UpdateContact applies fn to the contact with the given id inside a single
// write transaction. Returns ErrNotFound if the contact does not exist.
func (s *Store) UpdateContact(id int64, fn func(c *Contact) error) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(bucketContacts)
		data := bucket.Get(itob(id))
		if data == nil {
			return ErrNotFound
		}

		var contact Contact
		if err := json.Unmarshal(data, &contact); err != nil {
			return fmt.Errorf("failed to unmarshal contact %d: %w", id, err)
		}

		if err := fn(&contact); err != nil {
			return err
		}

		updated, err := json.Marshal(&contact)
		if err != nil {
			return fmt.Errorf("failed to marshal contact %d: %w", id, err)
		}
		return bucket.Put(itob(id), updated)
	})
}

// UpdateContacts applies fn to every listed contact inside one write
// transaction, re-reading each record so concurrent updates are never
// overwritten with stale snapshots. Missing ids are skipped; a callback
// returning ErrSkip leaves that record unwritten and moves on.
func (s *Store) UpdateContacts(ids []int64, fn func(c *Contact) error) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(bucketContacts)
		for _, id := range ids {
			data := bucket.Get(itob(id))
			if data == nil {
				continue
			}

			var contact Contact
			if err := json.Unmarshal(data, &contact); err != nil {
				return fmt.Errorf("failed to unmarshal contact %d: %w", id, err)
			}

			if err := fn(&contact); err != nil {
				if errors.Is(err, ErrSkip) {
					continue
				}
				return err
			}

			updated, err := json.Marshal(&contact)
			if err != nil {
				return fmt.Errorf("failed to marshal contact %d: %w", id, err)
			}
			if err := bucket.Put(itob(id), updated); err != nil {
				return err
			}
		}
		return nil
	})
}

// AppendEvent appends a tracking event to the append-only log
func (s *Store) AppendEvent(ev *TrackingEvent) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(bucketTracking)

		seq, err := bucket.NextSequence()
		if err != nil {
			return fmt.Errorf("failed to get tracking sequence: %w", err)
		}

		data, err := json.Marshal(ev)
		if err != nil {
			return fmt.Errorf("failed to marshal tracking event: %w", err)
		}
		return bucket.Put(itob(int64(seq)), data)
	})
}

// ListEvents returns all tracking events in append order
func (s *Store) ListEvents() ([]*TrackingEvent, error) {
	var events []*TrackingEvent

	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketTracking).Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			var ev TrackingEvent
			if err := json.Unmarshal(v, &ev); err != nil {
				continue
			}
			events = append(events, &ev)
		}
		return nil
	})

	return events, err
}

// RecentEvents returns the last n tracking events in append order
func (s *Store) RecentEvents(n int) ([]*TrackingEvent, error) {
	events, err := s.ListEvents()
	if err != nil {
		return nil, err
	}
	if n > 0 && len(events) > n {
		events = events[len(events)-n:]
	}
	return events, nil
}

// CampaignStats returns aggregate contact counts and the response rate
func (s *Store) CampaignStats() (*CampaignStats, error) {
	stats := &CampaignStats{}

	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketContacts).Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			var contact Contact
			if err := json.Unmarshal(v, &contact); err != nil {
				continue
			}
			stats.Total++
			switch contact.Status {
			case StatusPending:
				stats.Pending++
			case StatusInterested:
				stats.Interested++
			case StatusNotInterested:
				stats.NotInterested++
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if stats.Total > 0 {
		responded := stats.Interested + stats.NotInterested
		stats.ResponseRate = fmt.Sprintf("%.1f%%", float64(responded)/float64(stats.Total)*100)
	} else {
		stats.ResponseRate = "0%"
	}

	return stats, nil
}

// DB returns the underlying bolt.DB instance
func (s *Store) DB() *bolt.DB {
	return s.db
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

func putContact(tx *bolt.Tx, c *Contact) error {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal contact %d: %w", c.ID, err)
	}
	return tx.Bucket(bucketContacts).Put(itob(c.ID), data)
}

// itob encodes an id as a sortable big-endian key
func itob(v int64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(v))
	return b
}

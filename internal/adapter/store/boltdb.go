package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"go.etcd.io/bbolt"

	"chatlogs/config"
	"chatlogs/internal/domain"
)

var (
	bucketMessages = []byte("messages")
	bucketWords    = []byte("words")
	bucketMeta     = []byte("meta")
)

// BoltStore persists one channel's message store and word index per bbolt
// file under dataDir. Each Save rewrites the whole unit in one transaction.
type BoltStore struct {
	dataDir     string
	lockTimeout time.Duration
}

func NewBoltStore(dataDir string, lockTimeout time.Duration) *BoltStore {
	return &BoltStore{
		dataDir:     dataDir,
		lockTimeout: lockTimeout,
	}
}

// DataDir returns the directory holding the archive files.
func (s *BoltStore) DataDir() string {
	return s.dataDir
}

type messageRecord struct {
	URL       string `json:"url"`
	Timestamp string `json:"ts"`
	Author    string `json:"author"`
	Text      string `json:"text"`
}

// ValidateChannel rejects names that cannot be used as an archive file name.
func ValidateChannel(channel string) error {
	if channel == "" || channel == "." || channel == ".." {
		return fmt.Errorf("%w: %q", domain.ErrInvalidChannel, channel)
	}
	if strings.ContainsAny(channel, `/\*?[]{}`) || strings.HasPrefix(channel, ".") {
		return fmt.Errorf("%w: %q", domain.ErrInvalidChannel, channel)
	}
	return nil
}

// Load reads the unit for channel. A channel that has never been saved
// yields an empty unit. An unreadable file is reported as
// domain.ErrPersistenceCorrupt and is never silently discarded.
func (s *BoltStore) Load(channel string) (*domain.Unit, error) {
	if err := ValidateChannel(channel); err != nil {
		return nil, err
	}
	path := config.ArchivePath(s.dataDir, channel)
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return domain.NewUnit(), nil
		}
		return nil, fmt.Errorf("failed to stat archive %s: %w", path, err)
	}

	db, err := s.open(path, true)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	unit := domain.NewUnit()
	err = db.View(func(tx *bbolt.Tx) error {
		if _, err := checkSchema(tx); err != nil {
			return err
		}

		msgs := tx.Bucket(bucketMessages)
		words := tx.Bucket(bucketWords)
		if msgs == nil || words == nil {
			return fmt.Errorf("missing buckets")
		}

		err := msgs.ForEach(func(k, v []byte) error {
			id, err := domain.MessageIDFromBytes(k)
			if err != nil {
				return err
			}
			var rec messageRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("message %s: %w", id, err)
			}
			msg := domain.NewMessage(rec.URL, domain.Triple{
				Timestamp: rec.Timestamp,
				Author:    rec.Author,
				Text:      rec.Text,
			})
			if msg.ID != id {
				return fmt.Errorf("message %s: content hashes to %s", id, msg.ID)
			}
			unit.Messages.Insert(msg)
			return nil
		})
		if err != nil {
			return err
		}

		return words.ForEach(func(k, v []byte) error {
			word, ids, err := decodeWord(k, v)
			if err != nil {
				return err
			}
			for _, id := range ids {
				unit.Index.Put(word, id)
			}
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrPersistenceCorrupt, path, err)
	}

	if err := unit.Verify(); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrPersistenceCorrupt, path, err)
	}
	return unit, nil
}

// Save replaces the stored unit for channel with unit. Either the whole
// unit is written or the previous contents are left in place.
func (s *BoltStore) Save(channel string, unit *domain.Unit) error {
	if err := ValidateChannel(channel); err != nil {
		return err
	}
	if err := config.EnsureDataDir(s.dataDir); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	path := config.ArchivePath(s.dataDir, channel)
	db, err := s.open(path, false)
	if err != nil {
		return err
	}
	defer db.Close()

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketMessages, bucketWords, bucketMeta} {
			if tx.Bucket(name) == nil {
				continue
			}
			if err := tx.DeleteBucket(name); err != nil {
				return fmt.Errorf("failed to drop bucket %s: %w", name, err)
			}
		}

		msgs, err := tx.CreateBucket(bucketMessages)
		if err != nil {
			return err
		}
		for _, msg := range unit.Messages.All() {
			data, err := json.Marshal(messageRecord{
				URL:       msg.URL,
				Timestamp: msg.Timestamp,
				Author:    msg.Author,
				Text:      msg.Text,
			})
			if err != nil {
				return err
			}
			key := append([]byte(nil), msg.ID[:]...)
			if err := msgs.Put(key, data); err != nil {
				return err
			}
		}

		words, err := tx.CreateBucket(bucketWords)
		if err != nil {
			return err
		}
		err = unit.Index.Each(func(word string, ids domain.IDSet) error {
			key, value := encodeWord(word, ids)
			return words.Put(key, value)
		})
		if err != nil {
			return err
		}

		return writeSchema(tx, &SchemaInfo{
			Version:  CurrentSchemaVersion,
			Channel:  channel,
			Messages: unit.Messages.Len(),
			SavedAt:  time.Now().UTC(),
		})
	})
	if err != nil {
		return fmt.Errorf("failed to save archive %s: %w", path, err)
	}
	return nil
}

// Stats reads the summary of a stored unit without loading it.
func (s *BoltStore) Stats(channel string) (domain.UnitStats, error) {
	stats := domain.UnitStats{Channel: channel}
	if err := ValidateChannel(channel); err != nil {
		return stats, err
	}
	path := config.ArchivePath(s.dataDir, channel)
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return stats, fmt.Errorf("no archive for channel %q: %w", channel, fs.ErrNotExist)
		}
		return stats, fmt.Errorf("failed to stat archive %s: %w", path, err)
	}

	db, err := s.open(path, true)
	if err != nil {
		return stats, err
	}
	defer db.Close()

	err = db.View(func(tx *bbolt.Tx) error {
		info, err := checkSchema(tx)
		if err != nil {
			return err
		}
		stats.Schema = info.Version
		stats.SavedAt = info.SavedAt
		if b := tx.Bucket(bucketMessages); b != nil {
			stats.Messages = b.Stats().KeyN
		}
		if b := tx.Bucket(bucketWords); b != nil {
			stats.Words = b.Stats().KeyN
		}
		return nil
	})
	if err != nil {
		return stats, fmt.Errorf("%w: %s: %w", domain.ErrPersistenceCorrupt, path, err)
	}
	return stats, nil
}

// open opens an archive file, mapping lock contention and unreadable files
// to domain errors.
func (s *BoltStore) open(path string, readOnly bool) (*bbolt.DB, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{
		Timeout:  s.lockTimeout,
		ReadOnly: readOnly,
	})
	if err != nil {
		switch {
		case errors.Is(err, bbolt.ErrTimeout):
			return nil, fmt.Errorf("%w: %s", domain.ErrPersistenceLocked, path)
		case errors.Is(err, fs.ErrPermission):
			return nil, fmt.Errorf("failed to open archive %s: %w", path, err)
		default:
			return nil, fmt.Errorf("%w: %s: %w", domain.ErrPersistenceCorrupt, path, err)
		}
	}
	return db, nil
}

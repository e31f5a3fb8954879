package store

import (
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

// CurrentSchemaVersion is the current archive format version.
// Increment this when making breaking changes to the storage format.
const CurrentSchemaVersion = 1

var (
	keySchemaVersion = []byte("schema_version")
	keyChannel       = []byte("channel")
	keyMessageCount  = []byte("message_count")
	keySavedAt       = []byte("saved_at")
)

// SchemaInfo is the metadata stored alongside a unit.
type SchemaInfo struct {
	Version  int
	Channel  string
	Messages int
	SavedAt  time.Time
}

// readSchema reads the meta bucket. A file without one was not written by
// this program.
func readSchema(tx *bbolt.Tx) (*SchemaInfo, error) {
	b := tx.Bucket(bucketMeta)
	if b == nil {
		return nil, fmt.Errorf("missing meta bucket")
	}

	var info SchemaInfo
	versionData := b.Get(keySchemaVersion)
	if versionData == nil {
		return nil, fmt.Errorf("missing schema version")
	}
	if err := json.Unmarshal(versionData, &info.Version); err != nil {
		return nil, fmt.Errorf("invalid schema version: %w", err)
	}

	info.Channel = string(b.Get(keyChannel))

	if data := b.Get(keyMessageCount); data != nil {
		if err := json.Unmarshal(data, &info.Messages); err != nil {
			return nil, fmt.Errorf("invalid message count: %w", err)
		}
	}

	if data := b.Get(keySavedAt); data != nil {
		t, err := time.Parse(time.RFC3339Nano, string(data))
		if err != nil {
			return nil, fmt.Errorf("invalid saved_at: %w", err)
		}
		info.SavedAt = t
	}

	return &info, nil
}

// checkSchema reads the schema info and rejects formats this build cannot
// read.
func checkSchema(tx *bbolt.Tx) (*SchemaInfo, error) {
	info, err := readSchema(tx)
	if err != nil {
		return nil, err
	}
	if info.Version < 1 {
		return nil, fmt.Errorf("unknown schema version %d", info.Version)
	}
	if info.Version > CurrentSchemaVersion {
		return nil, fmt.Errorf("archive created by newer version (v%d > v%d)", info.Version, CurrentSchemaVersion)
	}
	return info, nil
}

// writeSchema stores info in a freshly created meta bucket.
func writeSchema(tx *bbolt.Tx, info *SchemaInfo) error {
	b, err := tx.CreateBucketIfNotExists(bucketMeta)
	if err != nil {
		return err
	}

	versionData, err := json.Marshal(info.Version)
	if err != nil {
		return err
	}
	if err := b.Put(keySchemaVersion, versionData); err != nil {
		return err
	}

	if err := b.Put(keyChannel, []byte(info.Channel)); err != nil {
		return err
	}

	countData, err := json.Marshal(info.Messages)
	if err != nil {
		return err
	}
	if err := b.Put(keyMessageCount, countData); err != nil {
		return err
	}

	return b.Put(keySavedAt, []byte(info.SavedAt.Format(time.RFC3339Nano)))
}

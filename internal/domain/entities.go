package domain

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"time"
)

// MessageID is the SHA-1 digest of a message's timestamp, author and text.
// Identical triples always produce the same ID, which is what makes
// re-ingesting overlapping days a no-op.
type MessageID [sha1.Size]byte

// NewMessageID derives the identity of a triple.
func NewMessageID(t Triple) MessageID {
	return MessageID(sha1.Sum([]byte(t.Timestamp + t.Author + t.Text)))
}

// String returns the lower-case hex form of the digest.
func (id MessageID) String() string {
	return hex.EncodeToString(id[:])
}

// MessageIDFromBytes copies a raw 20 byte digest.
func MessageIDFromBytes(b []byte) (MessageID, error) {
	var id MessageID
	if len(b) != len(id) {
		return id, fmt.Errorf("invalid message id: want %d bytes, got %d", len(id), len(b))
	}
	copy(id[:], b)
	return id, nil
}

// Triple is one transcript entry as extracted from a page.
type Triple struct {
	Timestamp string
	Author    string
	Text      string
}

// Message is a stored transcript entry. Timestamp is kept exactly as the
// source formatted it.
type Message struct {
	ID        MessageID `json:"-"`
	URL       string    `json:"url"`
	Timestamp string    `json:"timestamp"`
	Author    string    `json:"author"`
	Text      string    `json:"text"`
}

// NewMessage builds the record for a triple found at url.
func NewMessage(url string, t Triple) Message {
	return Message{
		ID:        NewMessageID(t),
		URL:       url,
		Timestamp: t.Timestamp,
		Author:    t.Author,
		Text:      t.Text,
	}
}

// Transcript is one day's page for a channel.
type Transcript struct {
	URL  string
	Body []byte
}

// UnitStats summarises a persisted archive.
type UnitStats struct {
	Channel  string
	Messages int
	Words    int
	SavedAt  time.Time
	Schema   int
}

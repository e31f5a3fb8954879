package store

import (
	"bytes"
	"crypto/sha1"
	"encoding/binary"
	"encoding/hex"
	"fmt"

	"go.etcd.io/bbolt"

	"chatlogs/internal/domain"
)

// longWordPrefix marks a words key that stands in for a word too long to be
// a bbolt key. Index words never contain ':', so the two key forms cannot
// collide.
const longWordPrefix = "sha1:"

// wordKey returns the words bucket key for word.
func wordKey(word string) []byte {
	if len(word) < bbolt.MaxKeySize {
		return []byte(word)
	}
	sum := sha1.Sum([]byte(word))
	return []byte(longWordPrefix + hex.EncodeToString(sum[:]))
}

// encodeWord returns the key and value stored for word. The value is the
// concatenated 20 byte ids; a long word's value is prefixed with the
// word's length and bytes.
func encodeWord(word string, ids domain.IDSet) ([]byte, []byte) {
	key := wordKey(word)

	var value []byte
	if len(word) >= bbolt.MaxKeySize {
		value = make([]byte, 4, 4+len(word)+ids.Len()*len(domain.MessageID{}))
		binary.BigEndian.PutUint32(value, uint32(len(word)))
		value = append(value, word...)
	} else {
		value = make([]byte, 0, ids.Len()*len(domain.MessageID{}))
	}
	for _, id := range ids.Sorted() {
		value = append(value, id[:]...)
	}
	return key, value
}

// decodeWord reverses encodeWord.
func decodeWord(k, v []byte) (string, []domain.MessageID, error) {
	word := string(k)
	if bytes.HasPrefix(k, []byte(longWordPrefix)) {
		if len(v) < 4 {
			return "", nil, fmt.Errorf("word key %q: truncated value", k)
		}
		n := int(binary.BigEndian.Uint32(v[:4]))
		if n < bbolt.MaxKeySize || len(v)-4 < n {
			return "", nil, fmt.Errorf("word key %q: bad word length %d", k, n)
		}
		word = string(v[4 : 4+n])
		if !bytes.Equal(wordKey(word), k) {
			return "", nil, fmt.Errorf("word key %q: does not match stored word", k)
		}
		v = v[4+n:]
	}

	size := len(domain.MessageID{})
	if len(v) == 0 || len(v)%size != 0 {
		return "", nil, fmt.Errorf("word %q: malformed id list of %d bytes", k, len(v))
	}
	ids := make([]domain.MessageID, 0, len(v)/size)
	for off := 0; off < len(v); off += size {
		id, err := domain.MessageIDFromBytes(v[off : off+size])
		if err != nil {
			return "", nil, err
		}
		ids = append(ids, id)
	}
	return word, ids, nil
}

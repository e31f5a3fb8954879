package domain

import (
	"bytes"
	"sort"
)

// IDSet is an unordered set of message identities.
type IDSet map[MessageID]struct{}

// NewIDSet returns a set holding ids.
func NewIDSet(ids ...MessageID) IDSet {
	s := make(IDSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func (s IDSet) Add(id MessageID) {
	s[id] = struct{}{}
}

func (s IDSet) Has(id MessageID) bool {
	_, ok := s[id]
	return ok
}

func (s IDSet) Len() int {
	return len(s)
}

func (s IDSet) Clone() IDSet {
	c := make(IDSet, len(s))
	for id := range s {
		c[id] = struct{}{}
	}
	return c
}

// Intersect returns a new set with the ids present in both s and other.
// It walks the smaller of the two.
func (s IDSet) Intersect(other IDSet) IDSet {
	small, large := s, other
	if len(large) < len(small) {
		small, large = large, small
	}
	out := make(IDSet, len(small))
	for id := range small {
		if _, ok := large[id]; ok {
			out[id] = struct{}{}
		}
	}
	return out
}

// Sorted returns the ids in byte order.
func (s IDSet) Sorted() []MessageID {
	ids := make([]MessageID, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return bytes.Compare(ids[i][:], ids[j][:]) < 0
	})
	return ids
}

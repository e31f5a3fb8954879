package domain

import (
	"sort"
	"sync"
)

// WordIndex maps normalised words to the identities of the messages whose
// text contains them.
type WordIndex struct {
	mu    sync.RWMutex
	words map[string]IDSet
}

func NewWordIndex() *WordIndex {
	return &WordIndex{
		words: make(map[string]IDSet),
	}
}

// Add indexes every word of text under id. Repeated adds are no-ops.
func (w *WordIndex) Add(id MessageID, text string) {
	terms := Terms(text)

	w.mu.Lock()
	defer w.mu.Unlock()
	for _, term := range terms {
		w.put(term, id)
	}
}

// Put records a single word to id mapping as-is. Persistence uses it to
// rebuild an index without re-tokenizing.
func (w *WordIndex) Put(word string, id MessageID) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.put(word, id)
}

func (w *WordIndex) put(word string, id MessageID) {
	set, ok := w.words[word]
	if !ok {
		set = make(IDSet)
		w.words[word] = set
	}
	set.Add(id)
}

// Lookup returns a copy of the identities indexed under word. An unknown
// word yields an empty set.
func (w *WordIndex) Lookup(word string) IDSet {
	w.mu.RLock()
	defer w.mu.RUnlock()
	set, ok := w.words[word]
	if !ok {
		return make(IDSet)
	}
	return set.Clone()
}

// Contains reports whether word is indexed under id.
func (w *WordIndex) Contains(word string, id MessageID) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.words[word].Has(id)
}

// Each calls fn for every word and its identity set in sorted word order.
// fn must not modify the set or call back into the index.
func (w *WordIndex) Each(fn func(word string, ids IDSet) error) error {
	w.mu.RLock()
	defer w.mu.RUnlock()
	words := make([]string, 0, len(w.words))
	for word := range w.words {
		words = append(words, word)
	}
	sort.Strings(words)
	for _, word := range words {
		if err := fn(word, w.words[word]); err != nil {
			return err
		}
	}
	return nil
}

func (w *WordIndex) Len() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.words)
}

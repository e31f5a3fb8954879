package domain

import "fmt"

// Unit is the message store and word index of one channel, loaded and saved
// together.
type Unit struct {
	Messages *MessageStore
	Index    *WordIndex
}

func NewUnit() *Unit {
	return &Unit{
		Messages: NewMessageStore(),
		Index:    NewWordIndex(),
	}
}

// MergeResult counts what a merge changed.
type MergeResult struct {
	Added      int
	Duplicates int
}

// Merge folds a day's triples into both structures. Triples already stored
// are counted as duplicates and leave the unit untouched.
func (u *Unit) Merge(url string, triples []Triple) MergeResult {
	var result MergeResult
	for _, t := range triples {
		msg := NewMessage(url, t)
		if !u.Messages.Insert(msg) {
			result.Duplicates++
			continue
		}
		u.Index.Add(msg.ID, msg.Text)
		result.Added++
	}
	return result
}

// Verify checks that every indexed identity has a stored message and that
// every word of every stored message maps back to it.
func (u *Unit) Verify() error {
	err := u.Index.Each(func(word string, ids IDSet) error {
		for id := range ids {
			if _, ok := u.Messages.Get(id); !ok {
				return fmt.Errorf("%w: word %q references %s", ErrIndexInconsistent, word, id)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	for _, msg := range u.Messages.All() {
		for _, term := range Terms(msg.Text) {
			if !u.Index.Contains(term, msg.ID) {
				return fmt.Errorf("message %s: word %q is not indexed", msg.ID, term)
			}
		}
	}
	return nil
}

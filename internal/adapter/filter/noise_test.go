package filter

import (
	"reflect"
	"testing"

	"chatlogs/internal/domain"
)

func TestFilter_RemovesNotices(t *testing.T) {
	in := []domain.Triple{
		{Timestamp: "10:00", Author: "alice", Text: "alice has joined #musicbrainz"},
		{Timestamp: "10:01", Author: "bob", Text: "bob has left #musicbrainz"},
		{Timestamp: "10:02", Author: "carol", Text: "carol has changed the topic to: MusicBrainz | Picard 1.3"},
		{Timestamp: "10:03", Author: "server", Text: "Users on #musicbrainz: alice bob carol"},
		{Timestamp: "10:04", Author: "dave", Text: "hello world"},
	}

	got := NewNoiseFilter().Filter(in)
	want := []domain.Triple{{Timestamp: "10:04", Author: "dave", Text: "hello world"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Filter() = %v, want %v", got, want)
	}
	if len(in) != 5 {
		t.Error("input slice was modified")
	}
}

func TestFilter_KeepsOrder(t *testing.T) {
	in := []domain.Triple{
		{Timestamp: "1", Text: "first"},
		{Timestamp: "2", Text: "x has joined #chan"},
		{Timestamp: "3", Text: "second"},
		{Timestamp: "4", Text: "third"},
	}
	got := NewNoiseFilter().Filter(in)
	if len(got) != 3 || got[0].Text != "first" || got[1].Text != "second" || got[2].Text != "third" {
		t.Errorf("unexpected filter result %v", got)
	}
}

func TestFilter_SimilarTextSurvives(t *testing.T) {
	in := []domain.Triple{
		{Text: "has joined the project"},
		{Text: "users on the forum say hi"},
		{Text: "the topic is picard"},
	}
	if got := NewNoiseFilter().Filter(in); len(got) != len(in) {
		t.Errorf("expected all %d messages to survive, got %v", len(in), got)
	}
}

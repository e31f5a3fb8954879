package port

import (
	"context"
	"time"

	"chatlogs/internal/domain"
)

// RecordSource fetches the raw transcript page of a channel for one day.
// A day with no transcript is reported as domain.ErrNotFound; any other
// failure wraps domain.ErrFetchFailed.
type RecordSource interface {
	Fetch(ctx context.Context, channel string, date time.Time) (domain.Transcript, error)
}

// Parser extracts the ordered triples of a transcript page.
type Parser interface {
	Parse(body []byte) ([]domain.Triple, error)
}

// NoiseFilter drops administrative lines, keeping the order of the rest.
type NoiseFilter interface {
	Filter(triples []domain.Triple) []domain.Triple
}

// Pacer spaces out requests to the record source.
type Pacer interface {
	Wait(ctx context.Context) error
}

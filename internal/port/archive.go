package port

import (
	"time"

	"chatlogs/internal/domain"
)

// Persistence loads and saves a channel's unit as a whole.
type Persistence interface {
	// Load returns an empty unit for a channel that was never saved.
	Load(channel string) (*domain.Unit, error)

	// Save atomically replaces the stored unit.
	Save(channel string, unit *domain.Unit) error
}

// Searcher answers word queries.
type Searcher interface {
	Search(query string) ([]domain.Message, error)
}

// ArchiveObserver receives per-cycle events from an archive run.
type ArchiveObserver interface {
	DayFetched(date time.Time, kept, filtered, added int)
	DayMissing(date time.Time, consecutive int)
	Flushed(elapsed time.Duration, err error)
}

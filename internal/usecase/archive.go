package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"chatlogs/internal/domain"
	"chatlogs/internal/logger"
	"chatlogs/internal/port"
)

// DefaultMissBudget is the number of consecutive missing days after which an
// archive run stops.
const DefaultMissBudget = 100

// ArchiveUseCase walks a channel's history backward one day at a time,
// merging every transcript it finds into the channel's unit.
type ArchiveUseCase struct {
	source     port.RecordSource
	parser     port.Parser
	filter     port.NoiseFilter
	store      port.Persistence
	pacer      port.Pacer
	observer   port.ArchiveObserver
	missBudget int
	logger     *slog.Logger
}

// NewArchiveUseCase creates a new archive use case. A non-positive miss
// budget selects DefaultMissBudget.
func NewArchiveUseCase(
	source port.RecordSource,
	parser port.Parser,
	filter port.NoiseFilter,
	store port.Persistence,
	pacer port.Pacer,
	missBudget int,
) *ArchiveUseCase {
	if missBudget <= 0 {
		missBudget = DefaultMissBudget
	}
	return &ArchiveUseCase{
		source:     source,
		parser:     parser,
		filter:     filter,
		store:      store,
		pacer:      pacer,
		observer:   nopObserver{},
		missBudget: missBudget,
		logger:     logger.WithComponent("archive"),
	}
}

// SetObserver registers a receiver for per-cycle events.
func (u *ArchiveUseCase) SetObserver(observer port.ArchiveObserver) {
	if observer == nil {
		observer = nopObserver{}
	}
	u.observer = observer
}

// ArchiveResult contains the results of an archive run.
type ArchiveResult struct {
	RunID         string
	Attempts      int
	DaysFetched   int
	DaysMissing   int
	MessagesAdded int
	Duplicates    int
	Filtered      int
	Oldest        time.Time // Earliest day that had a transcript, zero if none
	Messages      int       // Unit size when the run ended
}

// ArchiveProgress is called after every cycle with the day just attempted.
type ArchiveProgress func(date time.Time, found bool, result *ArchiveResult)

// archiveRun is the per-run walk state. Days only ever move backward and
// the miss counter resets whenever a transcript is found.
type archiveRun struct {
	current    time.Time
	misses     int
	missBudget int
}

func (r *archiveRun) next() time.Time {
	r.current = r.current.AddDate(0, 0, -1)
	return r.current
}

// miss records a missing day and reports whether the budget is spent.
func (r *archiveRun) miss() bool {
	r.misses++
	return r.misses >= r.missBudget
}

func (r *archiveRun) hit() {
	r.misses = 0
}

// Run archives channel starting with the day before today. It returns once
// missBudget consecutive days had no transcript. A fetch failure ends the
// run with an error; every day merged before it is already saved.
func (u *ArchiveUseCase) Run(ctx context.Context, channel string, today time.Time, progress ArchiveProgress) (*ArchiveResult, error) {
	result := &ArchiveResult{RunID: uuid.NewString()}
	log := u.logger.With("run_id", result.RunID, "channel", channel)

	unit, err := u.store.Load(channel)
	if err != nil {
		return nil, fmt.Errorf("failed to load archive: %w", err)
	}
	result.Messages = unit.Messages.Len()
	log.Info("archive started", "messages", result.Messages, "miss_budget", u.missBudget)

	run := &archiveRun{current: today, missBudget: u.missBudget}
	for {
		if err := ctx.Err(); err != nil {
			return result, fmt.Errorf("archive interrupted: %w", err)
		}

		date := run.next()
		if err := u.pacer.Wait(ctx); err != nil {
			return result, fmt.Errorf("archive interrupted: %w", err)
		}

		result.Attempts++
		transcript, err := u.source.Fetch(ctx, channel, date)
		if errors.Is(err, domain.ErrNotFound) {
			result.DaysMissing++
			spent := run.miss()
			u.observer.DayMissing(date, run.misses)
			log.Debug("day missing", "date", date.Format(time.DateOnly), "consecutive", run.misses)
			if progress != nil {
				progress(date, false, result)
			}
			if spent {
				log.Info("archive finished",
					"attempts", result.Attempts,
					"days_fetched", result.DaysFetched,
					"added", result.MessagesAdded,
					"messages", result.Messages,
				)
				return result, nil
			}
			continue
		}
		if err != nil {
			log.Error("fetch failed", "date", date.Format(time.DateOnly), "error", err)
			return result, fmt.Errorf("archiving %s: %w", date.Format(time.DateOnly), err)
		}
		run.hit()

		if err := u.ingest(unit, channel, transcript, date, result); err != nil {
			return result, err
		}
		log.Debug("day archived", "date", date.Format(time.DateOnly), "url", transcript.URL, "messages", result.Messages)
		if progress != nil {
			progress(date, true, result)
		}
	}
}

// ingest parses, filters, merges and saves one day's transcript.
func (u *ArchiveUseCase) ingest(unit *domain.Unit, channel string, transcript domain.Transcript, date time.Time, result *ArchiveResult) error {
	triples, err := u.parser.Parse(transcript.Body)
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", transcript.URL, err)
	}
	kept := u.filter.Filter(triples)
	filtered := len(triples) - len(kept)

	merged := unit.Merge(transcript.URL, kept)
	u.observer.DayFetched(date, len(kept), filtered, merged.Added)

	start := time.Now()
	err = u.store.Save(channel, unit)
	u.observer.Flushed(time.Since(start), err)
	if err != nil {
		return fmt.Errorf("failed to save archive: %w", err)
	}

	result.DaysFetched++
	result.MessagesAdded += merged.Added
	result.Duplicates += merged.Duplicates
	result.Filtered += filtered
	result.Oldest = date
	result.Messages = unit.Messages.Len()
	return nil
}

type nopObserver struct{}

func (nopObserver) DayFetched(time.Time, int, int, int) {}
func (nopObserver) DayMissing(time.Time, int)           {}
func (nopObserver) Flushed(time.Duration, error)        {}

package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"chatlogs/internal/domain"
	"chatlogs/internal/port"
)

// SearchUseCase answers word queries against one channel's unit.
type SearchUseCase struct {
	unit *domain.Unit
}

// NewSearchUseCase creates a new search use case.
func NewSearchUseCase(unit *domain.Unit) *SearchUseCase {
	return &SearchUseCase{unit: unit}
}

// Search returns every message containing all words of query. Words are
// matched exactly as given, so callers lower-case the query themselves.
func (u *SearchUseCase) Search(query string) ([]domain.Message, error) {
	words := strings.Fields(query)
	if len(words) == 0 {
		return nil, domain.ErrEmptyQuery
	}

	ids := u.unit.Index.Lookup(words[0])
	for _, word := range words[1:] {
		if ids.Len() == 0 {
			break
		}
		ids = ids.Intersect(u.unit.Index.Lookup(word))
	}

	results := make([]domain.Message, 0, ids.Len())
	for _, id := range ids.Sorted() {
		msg, ok := u.unit.Messages.Get(id)
		if !ok {
			return nil, fmt.Errorf("%w: %s", domain.ErrIndexInconsistent, id)
		}
		results = append(results, msg)
	}
	SortMessages(results)
	return results, nil
}

// SortMessages orders messages by page URL, then timestamp, then identity.
func SortMessages(msgs []domain.Message) {
	sort.Slice(msgs, func(i, j int) bool {
		a, b := msgs[i], msgs[j]
		if a.URL != b.URL {
			return a.URL < b.URL
		}
		if a.Timestamp != b.Timestamp {
			return a.Timestamp < b.Timestamp
		}
		return a.ID.String() < b.ID.String()
	})
}

// maxParallelLoads bounds how many archives are opened at once.
const maxParallelLoads = 4

// MultiSearcher searches several channels as one.
type MultiSearcher struct {
	channels  []string
	searchers []*SearchUseCase
}

// LoadMultiSearcher loads the unit of every channel concurrently. The first
// load error cancels the remaining loads and is returned.
func LoadMultiSearcher(ctx context.Context, store port.Persistence, channels []string) (*MultiSearcher, error) {
	searchers := make([]*SearchUseCase, len(channels))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelLoads)
	for i, channel := range channels {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			unit, err := store.Load(channel)
			if err != nil {
				return fmt.Errorf("loading %s: %w", channel, err)
			}
			searchers[i] = NewSearchUseCase(unit)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &MultiSearcher{
		channels:  append([]string(nil), channels...),
		searchers: searchers,
	}, nil
}

// Channels returns the searched channel names.
func (m *MultiSearcher) Channels() []string {
	return m.channels
}

// Search runs query against every channel and merges the results.
func (m *MultiSearcher) Search(query string) ([]domain.Message, error) {
	var results []domain.Message
	for i, s := range m.searchers {
		found, err := s.Search(query)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", m.channels[i], err)
		}
		results = append(results, found...)
	}
	SortMessages(results)
	return results, nil
}

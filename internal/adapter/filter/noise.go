// Package filter removes administrative notices from transcripts before
// they are indexed.
package filter

import (
	"regexp"

	"chatlogs/internal/domain"
)

// Pre-compiled notice patterns.
var defaultNotices = []*regexp.Regexp{
	regexp.MustCompile(`has joined #`),
	regexp.MustCompile(`has left #`),
	regexp.MustCompile(`has changed the topic to:`),
	regexp.MustCompile(`Users on #`),
}

// NoiseFilter drops join, leave, topic change and user list notices.
type NoiseFilter struct {
	notices []*regexp.Regexp
}

func NewNoiseFilter() *NoiseFilter {
	return &NoiseFilter{notices: defaultNotices}
}

// Filter returns the triples whose text matches no notice pattern, in
// their original order. The input slice is not modified.
func (f *NoiseFilter) Filter(triples []domain.Triple) []domain.Triple {
	kept := make([]domain.Triple, 0, len(triples))
	for _, t := range triples {
		if f.isNoise(t.Text) {
			continue
		}
		kept = append(kept, t)
	}
	return kept
}

func (f *NoiseFilter) isNoise(text string) bool {
	for _, re := range f.notices {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

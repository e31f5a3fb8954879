package store

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

const archiveExt = ".db"

// Channels returns the archived channel names matching pattern, sorted.
// A pattern without glob syntax names a single channel and is returned as
// is, whether or not it has been archived yet.
func (s *BoltStore) Channels(pattern string) ([]string, error) {
	if !hasMeta(pattern) {
		if err := ValidateChannel(pattern); err != nil {
			return nil, err
		}
		return []string{pattern}, nil
	}
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid channel pattern %q", pattern)
	}

	entries, err := os.ReadDir(s.dataDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read data directory: %w", err)
	}

	var channels []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, archiveExt) {
			continue
		}
		channel := strings.TrimSuffix(name, archiveExt)
		if ValidateChannel(channel) != nil {
			continue
		}
		matched, err := doublestar.Match(pattern, channel)
		if err != nil {
			return nil, err
		}
		if matched {
			channels = append(channels, channel)
		}
	}
	sort.Strings(channels)
	return channels, nil
}

func hasMeta(pattern string) bool {
	return strings.ContainsAny(pattern, `*?[]{}`)
}

package cli

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"chatlogs/config"
	"chatlogs/internal/adapter/cache"
	"chatlogs/internal/domain"
	"chatlogs/internal/port"
	"chatlogs/internal/usecase"
)

var (
	searchChannel     string
	searchText        string
	searchJSON        bool
	searchInteractive bool
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search archived messages",
	Long: `Return every archived message containing all of the query's words.
Words match whole tokens and the query is lower-cased before searching.
The channel may be a glob to search several archives at once.

Examples:
  chatlogs search -c musicbrainz-devel -q "schema change"
  chatlogs search -c 'musicbrainz*' -q release --json
  chatlogs search -c musicbrainz-devel --interactive`,
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().StringVarP(&searchChannel, "channel", "c", "", "channel name or glob (required)")
	searchCmd.Flags().StringVarP(&searchText, "query", "q", "", "words to search for")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output as JSON")
	searchCmd.Flags().BoolVarP(&searchInteractive, "interactive", "i", false, "read queries from stdin, one per line")
	searchCmd.MarkFlagRequired("channel")
}

// SearchResult is the JSON form of a matching message.
type SearchResult struct {
	ID        string `json:"id"`
	URL       string `json:"url"`
	Timestamp string `json:"timestamp"`
	Author    string `json:"author"`
	Text      string `json:"text"`
}

func runSearch(cmd *cobra.Command, args []string) error {
	if !searchInteractive && strings.TrimSpace(searchText) == "" {
		return fmt.Errorf("a query is required: use -q or --interactive")
	}

	cfg := GetConfig()
	st := openStore()

	channels, err := st.Channels(searchChannel)
	if err != nil {
		return err
	}
	if len(channels) == 0 {
		return fmt.Errorf("no archived channel matches %q in %s", searchChannel, st.DataDir())
	}
	for _, channel := range channels {
		if _, err := os.Stat(config.ArchivePath(st.DataDir(), channel)); os.IsNotExist(err) {
			slog.Warn("channel has not been archived yet", "channel", channel)
		}
	}

	multi, err := usecase.LoadMultiSearcher(cmd.Context(), st, channels)
	if err != nil {
		return fmt.Errorf("failed to load archive: %w", err)
	}

	out := cmd.OutOrStdout()
	if !searchJSON {
		printChannels(out, multi.Channels())
	}
	if !searchInteractive {
		return searchOnce(out, multi, searchText, cfg.Search.MaxText)
	}

	searcher := cache.NewCachedSearcher(multi, cache.NewQueryCache(cfg.Search.CacheSize, cfg.Search.CacheTTL))
	return searchLoop(cmd.InOrStdin(), out, searcher, cfg.Search.MaxText)
}

func searchOnce(w io.Writer, searcher port.Searcher, query string, maxText int) error {
	query = strings.ToLower(query)
	results, err := searcher.Search(query)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	return printResults(w, query, results, maxText)
}

// searchLoop answers one query per input line until EOF. Blank lines are
// skipped and a failed query does not end the loop.
func searchLoop(r io.Reader, w io.Writer, searcher port.Searcher, maxText int) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		if err := searchOnce(w, searcher, line, maxText); err != nil {
			if errors.Is(err, domain.ErrIndexInconsistent) {
				return err
			}
			fmt.Fprintf(w, "error: %v\n", err)
		}
	}
	return scanner.Err()
}

func printChannels(w io.Writer, channels []string) {
	if len(channels) == 1 {
		fmt.Fprintf(w, "Searching %s\n", channels[0])
		return
	}
	fmt.Fprintf(w, "Searching %d channels: %s\n", len(channels), strings.Join(channels, ", "))
}

func printResults(w io.Writer, query string, results []domain.Message, maxText int) error {
	if searchJSON {
		out := make([]SearchResult, 0, len(results))
		for _, m := range results {
			out = append(out, SearchResult{
				ID:        m.ID.String(),
				URL:       m.URL,
				Timestamp: m.Timestamp,
				Author:    m.Author,
				Text:      m.Text,
			})
		}
		data, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(w, string(data))
		return nil
	}

	if len(results) == 0 {
		fmt.Fprintf(w, "No results found for: %s\n", query)
		return nil
	}

	fmt.Fprintf(w, "Found %d results for: %s\n", len(results), query)
	lastURL := ""
	for _, m := range results {
		if m.URL != lastURL {
			fmt.Fprintf(w, "\n%s\n", m.URL)
			lastURL = m.URL
		}
		fmt.Fprintf(w, "  %s <%s> %s\n", m.Timestamp, m.Author, truncate(m.Text, maxText))
	}
	fmt.Fprintln(w)
	return nil
}

// truncate shortens text to max runes. Zero disables truncation.
func truncate(text string, max int) string {
	if max <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max]) + "..."
}

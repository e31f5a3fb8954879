package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"chatlogs/config"
	"chatlogs/internal/adapter/cache"
	"chatlogs/internal/adapter/store"
	"chatlogs/internal/usecase"
)

func main() {
	dir := flag.String("dir", ".", "Directory holding chatlogs.yaml")
	channel := flag.String("c", "", "Archived channel to load")
	query := flag.String("q", "", "Query to time")
	rounds := flag.Int("n", 1000, "Number of repetitions")
	flag.Parse()

	if *channel == "" || *query == "" {
		fmt.Println("Usage: go run cmd/benchmark/main.go -c channel -q \"query\" [-n 1000]")
		fmt.Println("\nMeasures:")
		fmt.Println("  1. Archive load time (decode and consistency check)")
		fmt.Println("  2. Uncached query latency (index intersection)")
		fmt.Println("  3. Cached query latency (interactive search path)")
		os.Exit(1)
	}

	cfg, err := config.LoadFromDir(*dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	dataDir := cfg.Archive.DataDir
	if !filepath.IsAbs(dataDir) {
		dataDir = filepath.Join(*dir, dataDir)
	}
	st := store.NewBoltStore(dataDir, cfg.Archive.LockTimeout)

	fmt.Println("SEARCH BENCHMARK")
	fmt.Println(strings.Repeat("=", 70))

	start := time.Now()
	unit, err := st.Load(*channel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading archive: %v\n", err)
		os.Exit(1)
	}
	loadTime := time.Since(start)

	fmt.Printf("Channel:  %s\n", *channel)
	fmt.Printf("Messages: %d\n", unit.Messages.Len())
	fmt.Printf("Words:    %d\n", unit.Index.Len())
	fmt.Printf("Load:     %s\n", loadTime)
	fmt.Println()

	q := strings.ToLower(*query)
	fmt.Printf("Query: \"%s\" x %d\n", q, *rounds)
	fmt.Println(strings.Repeat("-", 70))

	search := usecase.NewSearchUseCase(unit)
	results, err := search.Search(q)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Search error: %v\n", err)
		os.Exit(1)
	}

	uncached := timeRounds(*rounds, func() { search.Search(q) })

	cached := cache.NewCachedSearcher(search, cache.NewQueryCache(cfg.Search.CacheSize, cfg.Search.CacheTTL))
	cached.Search(q)
	warm := timeRounds(*rounds, func() { cached.Search(q) })

	fmt.Printf("Results:        %d\n", len(results))
	for i, m := range results {
		if i == 5 {
			fmt.Printf("  ... %d more\n", len(results)-5)
			break
		}
		preview := m.Text
		if len(preview) > 60 {
			preview = preview[:60] + "..."
		}
		fmt.Printf("  %s %s <%s> %s\n", shortURL(m.URL), m.Timestamp, m.Author, preview)
	}
	fmt.Println()

	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("LATENCY (mean of %d):\n", *rounds)
	fmt.Printf("  Uncached: %s\n", uncached)
	fmt.Printf("  Cached:   %s\n", warm)
}

func timeRounds(n int, fn func()) time.Duration {
	if n <= 0 {
		return 0
	}
	start := time.Now()
	for i := 0; i < n; i++ {
		fn()
	}
	return time.Since(start) / time.Duration(n)
}

func shortURL(url string) string {
	parts := strings.Split(url, "/")
	if len(parts) > 2 {
		return parts[len(parts)-1]
	}
	return url
}

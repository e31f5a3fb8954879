package cli

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"chatlogs/config"
	"chatlogs/internal/adapter/filter"
	"chatlogs/internal/adapter/metrics"
	"chatlogs/internal/adapter/parser"
	"chatlogs/internal/adapter/source"
	"chatlogs/internal/adapter/store"
	"chatlogs/internal/usecase"
)

var (
	archiveSince      string
	archiveMissBudget int
	archivePace       time.Duration
)

var archiveCmd = &cobra.Command{
	Use:   "archive <channel>",
	Short: "Archive a channel's transcripts",
	Long: `Fetch a channel's daily transcripts, starting with yesterday and walking
backward one day at a time, until a run of consecutive days has no transcript.
Every day found is merged into <data_dir>/<channel>.db and saved immediately,
so an interrupted run keeps everything fetched so far. Re-running is safe:
messages already archived are recognised by their content hash.

Examples:
  chatlogs archive musicbrainz-devel
  chatlogs archive musicbrainz-devel --since 2012-01-01 --miss-budget 30`,
	Args: cobra.ExactArgs(1),
	RunE: runArchive,
}

func init() {
	rootCmd.AddCommand(archiveCmd)
	archiveCmd.Flags().StringVar(&archiveSince, "since", "", "walk backward from this day (YYYY-MM-DD) instead of today")
	archiveCmd.Flags().IntVar(&archiveMissBudget, "miss-budget", 0, "consecutive missing days before stopping (default from config)")
	archiveCmd.Flags().DurationVar(&archivePace, "pace", 0, "minimum gap between requests (default from config)")
}

func runArchive(cmd *cobra.Command, args []string) error {
	channel := args[0]
	if err := store.ValidateChannel(channel); err != nil {
		return err
	}

	cfg := GetConfig()

	today, err := startDay(archiveSince, time.Now())
	if err != nil {
		return err
	}

	missBudget := cfg.Archive.MissBudget
	if cmd.Flags().Changed("miss-budget") {
		if archiveMissBudget <= 0 {
			return fmt.Errorf("--miss-budget must be positive, got %d", archiveMissBudget)
		}
		missBudget = archiveMissBudget
	}
	pace := cfg.Archive.Pace
	if cmd.Flags().Changed("pace") {
		pace = archivePace
	}

	dataDir := DataDir()
	if err := config.EnsureDataDir(dataDir); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	src := source.NewHTTPSource(cfg.Archive.BaseURL, cfg.Archive.UserAgent, cfg.Archive.RequestTimeout)
	archiveUC := usecase.NewArchiveUseCase(
		src,
		parser.NewHTMLParser(),
		filter.NewNoiseFilter(),
		openStore(),
		source.NewRatePacer(pace),
		missBudget,
	)

	var recorder *metrics.Recorder
	if cfg.Metrics.Textfile != "" {
		recorder = metrics.New(channel)
		archiveUC.SetObserver(recorder)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("Archiving %s from %s (stops after %d missing days)...\n",
		channel, today.AddDate(0, 0, -1).Format(time.DateOnly), missBudget)

	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetDescription("[cyan]Archiving[reset]"),
		progressbar.OptionClearOnFinish(),
	)

	progress := func(date time.Time, found bool, result *usecase.ArchiveResult) {
		state := "missing"
		if found {
			state = "found"
		}
		bar.Describe(fmt.Sprintf("[cyan]Archiving[reset] %s %s (%s, %d messages)",
			channel, date.Format(time.DateOnly), state, result.Messages))
		_ = bar.Add(1)
	}

	result, runErr := archiveUC.Run(ctx, channel, today, progress)
	_ = bar.Finish()

	if recorder != nil {
		if err := recorder.WriteTextfile(cfg.Metrics.Textfile); err != nil {
			slog.Warn("failed to write metrics textfile", "path", cfg.Metrics.Textfile, "error", err)
		}
	}

	if result != nil {
		printArchiveSummary(channel, result)
	}
	if runErr != nil {
		return fmt.Errorf("archive failed: %w", runErr)
	}

	fmt.Printf("\nArchive stored at: %s\n", config.ArchivePath(dataDir, channel))
	return nil
}

func printArchiveSummary(channel string, result *usecase.ArchiveResult) {
	fmt.Printf("\nArchive of %s:\n", channel)
	fmt.Printf("  Days requested: %d\n", result.Attempts)
	fmt.Printf("  Days found:     %d\n", result.DaysFetched)
	fmt.Printf("  Days missing:   %d\n", result.DaysMissing)
	fmt.Printf("  Messages added: %d\n", result.MessagesAdded)
	fmt.Printf("  Already stored: %d\n", result.Duplicates)
	fmt.Printf("  Noise dropped:  %d\n", result.Filtered)
	fmt.Printf("  Total messages: %d\n", result.Messages)
	if !result.Oldest.IsZero() {
		fmt.Printf("  Oldest day:     %s\n", result.Oldest.Format(time.DateOnly))
	}
}

// startDay returns the calendar day the walk starts before, as a UTC
// midnight. An empty since means the local date of now.
func startDay(since string, now time.Time) (time.Time, error) {
	if since == "" {
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	day, err := time.Parse(time.DateOnly, since)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --since %q: want YYYY-MM-DD", since)
	}
	return day, nil
}

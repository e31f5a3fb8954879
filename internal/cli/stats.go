package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats <channel-or-glob>",
	Short: "Show archive statistics",
	Long: `Print message and word counts of archived channels without loading them.

Examples:
  chatlogs stats musicbrainz-devel
  chatlogs stats 'musicbrainz*'`,
	Args: cobra.ExactArgs(1),
	RunE: runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	st := openStore()

	channels, err := st.Channels(args[0])
	if err != nil {
		return err
	}
	if len(channels) == 0 {
		return fmt.Errorf("no archived channel matches %q in %s", args[0], st.DataDir())
	}

	out := cmd.OutOrStdout()
	for _, channel := range channels {
		stats, err := st.Stats(channel)
		if errors.Is(err, fs.ErrNotExist) {
			fmt.Fprintf(out, "%s: not archived yet\n", channel)
			continue
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s:\n", stats.Channel)
		fmt.Fprintf(out, "  Messages: %d\n", stats.Messages)
		fmt.Fprintf(out, "  Words:    %d\n", stats.Words)
		if !stats.SavedAt.IsZero() {
			fmt.Fprintf(out, "  Saved:    %s\n", stats.SavedAt.Local().Format(time.DateTime))
		}
		fmt.Fprintf(out, "  Schema:   v%d\n", stats.Schema)
	}
	return nil
}

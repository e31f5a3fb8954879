package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"chatlogs/config"
	"chatlogs/internal/adapter/store"
	"chatlogs/internal/logger"
)

var (
	cfgFile string
	cfg     *config.Config
	rootDir string
)

var rootCmd = &cobra.Command{
	Use:   "chatlogs",
	Short: "Chat log archiver - Mirror daily channel transcripts and search them offline",
	Long: `chatlogs walks a channel's published daily transcripts backward from today,
stores every message in a local archive keyed by its content hash, and answers
word queries against that archive.

Example usage:
  chatlogs archive musicbrainz-devel           # Archive a channel
  chatlogs search -c musicbrainz-devel -q "schema change"
  chatlogs search -c 'musicbrainz*' -q "release"
  chatlogs stats musicbrainz-devel`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error

		if rootDir == "" {
			rootDir, err = os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to get working directory: %w", err)
			}
		}

		if cfgFile != "" {
			cfg, err = config.Load(cfgFile)
		} else {
			cfg, err = config.LoadFromDir(rootDir)
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		logger.Setup(cfg.Logging.Level, cfg.Logging.Format, os.Stderr)
		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./chatlogs.yaml)")
	rootCmd.PersistentFlags().StringVarP(&rootDir, "dir", "d", "", "working directory (default is current directory)")
}

func GetConfig() *config.Config {
	return cfg
}

func GetRootDir() string {
	return rootDir
}

// DataDir resolves the archive directory against the working directory.
func DataDir() string {
	dir := GetConfig().Archive.DataDir
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(GetRootDir(), dir)
}

func openStore() *store.BoltStore {
	return store.NewBoltStore(DataDir(), GetConfig().Archive.LockTimeout)
}

// Command geocat harvests the environmental dataset catalogue into a local
// store and serves hybrid search and question answering over it.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/ternarybob/arbor"

	"github.com/RuthKerubo/dsh-etl-search-ai-v1/internal/app"
	"github.com/RuthKerubo/dsh-etl-search-ai-v1/internal/common"
)

var (
	configFiles []string
	logLevel    string

	config *common.Config
	logger arbor.ILogger
)

var rootCmd = &cobra.Command{
	Use:           "geocat",
	Short:         "Environmental dataset catalogue harvester and search",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// defaults -> config files -> env; the log-level flag wins last
		paths := configFiles
		if len(paths) == 0 {
			if _, err := os.Stat("geocat.toml"); err == nil {
				paths = []string{"geocat.toml"}
			}
		}

		var err error
		config, err = common.LoadFromFiles(paths...)
		if err != nil {
			return err
		}
		if logLevel != "" {
			config.Logging.Level = logLevel
		}

		logger = common.InitLogger(config)
		common.PrintBanner(common.GetVersion())
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringArrayVarP(&configFiles, "config", "c", nil,
		"Configuration file path (repeatable, later files override earlier ones)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"Log level override (debug, info, warn, error)")

	rootCmd.AddCommand(
		newInitCmd(),
		newRunCmd(),
		newEmbedCmd(),
		newSearchCmd(),
		newAskCmd(),
		newStatusCmd(),
		newVersionCmd(),
	)
}

// newApp builds the composition root for a command invocation.
func newApp() (*app.App, error) {
	return app.New(config, logger)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newInitCmd creates the store directories and opens the database once so a
// fresh deployment fails fast on permissions or path problems.
func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialise the local store and verify it opens",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			count, err := a.Datasets.Count(cmd.Context())
			if err != nil {
				return fmt.Errorf("store verification failed: %w", err)
			}

			logger.Info().
				Str("path", config.Storage.Badger.Path).
				Int("datasets", count).
				Msg("Store initialised")
			fmt.Printf("Store ready at %s (%d datasets)\n", config.Storage.Badger.Path, count)
			return nil
		},
	}
}

package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// newStatusCmd reports store contents, index coverage, cache usage, and
// backend availability.
func newStatusCmd() *cobra.Command {
	var recent int

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show store, index, and backend status",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()

			stats, err := a.Vector.GetStats(ctx)
			if err != nil {
				return err
			}

			lsm, vlog := a.DB.Size()
			fmt.Printf("Store:      %s (%d bytes on disk)\n", config.Storage.Badger.Path, lsm+vlog)
			fmt.Printf("Datasets:   %d\n", stats.TotalCount)
			fmt.Printf("Embedded:   %d", stats.IndexedCount)
			if stats.TotalCount > 0 {
				fmt.Printf(" (%.0f%%)", float64(stats.IndexedCount)/float64(stats.TotalCount)*100)
			}
			fmt.Println()

			if a.EmbeddingsAvailable(ctx) {
				fmt.Printf("Embeddings: available (%s, %d dimensions)\n", stats.ModelName, stats.Dimensions)
			} else {
				fmt.Printf("Embeddings: unavailable (%s), keyword search only\n", config.Embeddings.Host)
			}

			if cacheStats, ok := a.Catalogue.CacheStats(); ok {
				fmt.Printf("Cache:      %d entries, %d bytes (%s)\n",
					cacheStats.Entries, cacheStats.TotalBytes, config.Cache.Dir)
			} else {
				fmt.Println("Cache:      disabled")
			}

			entries, err := a.History.Recent(ctx, recent)
			if err != nil {
				return err
			}
			if len(entries) > 0 {
				fmt.Println("\nRecent searches:")
				for _, e := range entries {
					fmt.Printf("  %s  %-8s %3d results  %s  %q\n",
						e.At.Format(time.RFC3339), e.Mode, e.ResultCount,
						e.Duration.Round(time.Millisecond), e.Query)
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&recent, "recent", 5, "Number of recent searches to show")
	return cmd
}

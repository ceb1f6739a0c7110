package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/RuthKerubo/dsh-etl-search-ai-v1/internal/app"
	"github.com/RuthKerubo/dsh-etl-search-ai-v1/internal/models"
)

// newEmbedCmd computes embeddings for stored datasets.
func newEmbedCmd() *cobra.Command {
	var reindex bool

	cmd := &cobra.Command{
		Use:   "embed",
		Short: "Embed stored datasets for semantic search",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			if !a.EmbeddingsAvailable(cmd.Context()) {
				return fmt.Errorf("embedding backend at %s is not reachable", config.Embeddings.Host)
			}

			datasets, err := allDatasets(cmd.Context(), a)
			if err != nil {
				return err
			}
			if len(datasets) == 0 {
				fmt.Println("No datasets stored; run a harvest first.")
				return nil
			}

			result, err := a.Vector.AddDatasets(cmd.Context(), datasets, reindex)
			if err != nil {
				return err
			}

			printEmbedSummary(result)
			if len(result.Failed) > 0 {
				return fmt.Errorf("%d datasets failed to embed", len(result.Failed))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&reindex, "reindex", false, "Recompute embeddings even for datasets that have one")
	return cmd
}

// allDatasets pages through the whole store.
func allDatasets(ctx context.Context, a *app.App) ([]*models.Dataset, error) {
	const pageSize = 200

	var all []*models.Dataset
	for offset := 0; ; offset += pageSize {
		page, err := a.Datasets.GetPaged(ctx, offset, pageSize)
		if err != nil {
			return nil, err
		}
		all = append(all, page.Items...)
		if len(page.Items) < pageSize {
			return all, nil
		}
	}
}

func printEmbedSummary(result *models.IndexingResult) {
	fmt.Printf("Embedded %d datasets in %s (%d skipped, %d failed)\n",
		len(result.Indexed), result.Duration.Round(time.Millisecond),
		len(result.Skipped), len(result.Failed))
	for id, msg := range result.Failed {
		fmt.Printf("  %s: %s\n", id, msg)
	}
}

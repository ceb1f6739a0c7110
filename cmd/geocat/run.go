package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/RuthKerubo/dsh-etl-search-ai-v1/internal/models"
)

// newRunCmd harvests dataset records through the fetch-parse-store pipeline.
func newRunCmd() *cobra.Command {
	var (
		idsFile         string
		clearCheckpoint bool
		noProgress      bool
	)

	cmd := &cobra.Command{
		Use:   "run [dataset-id...]",
		Short: "Fetch, parse, and store catalogue datasets",
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := args
			if idsFile != "" {
				fromFile, err := readIDFile(idsFile)
				if err != nil {
					return err
				}
				ids = append(ids, fromFile...)
			}
			if len(ids) == 0 {
				return fmt.Errorf("no dataset ids given: pass them as arguments or via --ids")
			}

			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			if clearCheckpoint {
				if err := a.Runner.ClearCheckpoint(); err != nil {
					return err
				}
				logger.Info().Msg("Checkpoint cleared")
			}

			if !noProgress {
				bar := progressbar.NewOptions(len(ids),
					progressbar.OptionSetDescription("Harvesting"),
					progressbar.OptionShowCount(),
					progressbar.OptionSetWriter(os.Stderr),
					progressbar.OptionClearOnFinish(),
				)
				a.Pipeline.WithProgress(func(p models.FetchProgress) {
					if p.Status != models.FetchStatusFetching {
						_ = bar.Set(p.Current)
					}
				})
			}

			result, err := a.Runner.Run(cmd.Context(), ids)
			if err != nil {
				return err
			}

			printRunSummary(result)
			if len(result.Failed) > 0 {
				return fmt.Errorf("%d of %d datasets failed", len(result.Failed), len(result.Successful)+len(result.Failed))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&idsFile, "ids", "", "File with one dataset id per line (# starts a comment)")
	cmd.Flags().BoolVar(&clearCheckpoint, "clear-checkpoint", false, "Discard the checkpoint and process every id")
	cmd.Flags().BoolVar(&noProgress, "no-progress", false, "Disable the progress bar")
	return cmd
}

func readIDFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read ids file: %w", err)
	}
	defer f.Close()

	var ids []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		ids = append(ids, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read ids file: %w", err)
	}
	return ids, nil
}

func printRunSummary(result *models.PipelineResult) {
	fmt.Printf("\nProcessed %d datasets in %s\n",
		len(result.Successful)+len(result.Failed), result.Duration.Round(time.Millisecond))
	fmt.Printf("  successful: %d\n", len(result.Successful))
	fmt.Printf("  failed:     %d\n", len(result.Failed))
	fmt.Printf("  cache hits: %d\n", result.CacheHits)
	for stage, count := range result.FailuresByStage {
		fmt.Printf("  failed at %s: %d\n", stage, count)
	}
	for _, p := range result.Failed {
		fmt.Printf("    %s (%s): %s\n", p.DatasetID, p.ErrorStage, p.ErrorMessage)
	}
}

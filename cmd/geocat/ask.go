package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/RuthKerubo/dsh-etl-search-ai-v1/internal/services/guardrails"
)

// newAskCmd answers a natural-language question about the catalogue.
func newAskCmd() *cobra.Command {
	var role string

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask a question about stored datasets",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			response, err := a.RAG.Ask(cmd.Context(), args[0], guardrails.Role(role))
			if err != nil {
				return err
			}

			fmt.Println(response.Answer)
			if len(response.Sources) > 0 {
				fmt.Println("\nSources:")
				for i, src := range response.Sources {
					fmt.Printf("  %d. %s (%s, relevance %.0f%%)\n",
						i+1, src.Title, src.Identifier, src.RelevanceScore*100)
				}
			}
			if response.Generated {
				fmt.Printf("\nGenerated by %s\n", response.Model)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&role, "role", "", "Caller role: researcher or admin (default anonymous)")
	return cmd
}

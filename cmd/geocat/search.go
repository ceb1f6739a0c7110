package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/RuthKerubo/dsh-etl-search-ai-v1/internal/interfaces"
	"github.com/RuthKerubo/dsh-etl-search-ai-v1/internal/models"
	"github.com/RuthKerubo/dsh-etl-search-ai-v1/internal/services/guardrails"
)

// newSearchCmd runs a hybrid search against the local store.
func newSearchCmd() *cobra.Command {
	var (
		limit    int
		mode     string
		advanced bool
		role     string
	)

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search stored datasets",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			searchMode, err := parseMode(mode)
			if err != nil {
				return err
			}

			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			opts := interfaces.SearchOptions{
				Limit:        limit,
				Mode:         searchMode,
				Advanced:     advanced || config.Search.Advanced.Enabled,
				AccessLevels: roleLevels(guardrails.Role(role)),
			}

			response, err := a.Search.Search(cmd.Context(), args[0], opts)
			if err != nil {
				return err
			}

			printSearchResponse(response)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 10, "Maximum number of results")
	cmd.Flags().StringVar(&mode, "mode", "", "Retrieval mode: hybrid, semantic, or keyword (default hybrid)")
	cmd.Flags().BoolVar(&advanced, "advanced", false, "Apply query expansion and field-weighted rescoring")
	cmd.Flags().StringVar(&role, "role", "", "Caller role: researcher or admin (default anonymous)")
	return cmd
}

func parseMode(mode string) (models.SearchMode, error) {
	switch mode {
	case "", "hybrid":
		return models.SearchModeHybrid, nil
	case "semantic":
		return models.SearchModeSemantic, nil
	case "keyword":
		return models.SearchModeKeyword, nil
	}
	return "", fmt.Errorf("unknown search mode %q", mode)
}

// roleLevels maps a role to the access levels it may see, in a stable order.
func roleLevels(role guardrails.Role) []models.AccessLevel {
	allowed := guardrails.AllowedAccessLevels(role)
	ordered := []models.AccessLevel{
		models.AccessLevelPublic,
		models.AccessLevelRestricted,
		models.AccessLevelAdminOnly,
	}

	levels := make([]models.AccessLevel, 0, len(allowed))
	for _, level := range ordered {
		if _, ok := allowed[level]; ok {
			levels = append(levels, level)
		}
	}
	return levels
}

func printSearchResponse(response *models.SearchResponse) {
	fmt.Printf("%d results for %q (%s search, %s)\n",
		response.Total, response.Query, response.Mode, response.Duration.Round(time.Millisecond))
	if response.ExpandedQuery != "" {
		fmt.Printf("expanded query: %s\n", response.ExpandedQuery)
	}
	fmt.Println()

	for i, r := range response.Results {
		marker := ""
		if r.IsExactMatch {
			marker = " [exact]"
		}
		fmt.Printf("%2d. %s%s\n", i+1, r.Title, marker)
		fmt.Printf("    id: %s  score: %.4f  sources:%s\n", r.Identifier, r.HybridScore, sourceTags(r))
		if r.Abstract != "" {
			fmt.Printf("    %s\n", truncateLine(r.Abstract, 160))
		}
	}
}

func sourceTags(r models.SearchResult) string {
	var tags []string
	if r.FromSemantic {
		tags = append(tags, fmt.Sprintf("semantic#%d", r.SemanticRank))
	}
	if r.FromKeyword {
		tags = append(tags, fmt.Sprintf("keyword#%d", r.KeywordRank))
	}
	if len(tags) == 0 {
		return " none"
	}
	return " " + strings.Join(tags, ",")
}

func truncateLine(text string, max int) string {
	text = strings.ReplaceAll(text, "\n", " ")
	if len(text) <= max {
		return text
	}
	return text[:max] + "..."
}

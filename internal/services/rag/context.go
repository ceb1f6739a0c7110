package rag

import (
	"fmt"
	"strings"

	"github.com/RuthKerubo/dsh-etl-search-ai-v1/internal/models"
)

const defaultMaxContextChars = 12000

// buildContext renders retrieved datasets into the prompt context block.
// Documents are appended in relevance order until the character budget
// runs out; a dataset that would overflow the budget is dropped along
// with everything after it.
func buildContext(hits []models.VectorHit, maxChars int) string {
	if maxChars <= 0 {
		maxChars = defaultMaxContextChars
	}

	var sb strings.Builder
	for i, hit := range hits {
		block := formatDataset(i+1, hit)
		if sb.Len()+len(block) > maxChars {
			break
		}
		sb.WriteString(block)
	}
	return strings.TrimRight(sb.String(), "\n")
}

func formatDataset(n int, hit models.VectorHit) string {
	ds := hit.Dataset

	var sb strings.Builder
	fmt.Fprintf(&sb, "--- DATASET %d (Relevance: %.0f%%) ---\n", n, hit.Score*100)
	fmt.Fprintf(&sb, "Title: %s\n", ds.Title)
	if ds.Abstract != "" {
		fmt.Fprintf(&sb, "Abstract: %s\n", ds.Abstract)
	}
	if len(ds.Keywords) > 0 {
		fmt.Fprintf(&sb, "Keywords: %s\n", strings.Join(ds.Keywords, ", "))
	}
	sb.WriteString("\n")
	return sb.String()
}

// buildPrompt assembles the full generation prompt from the context block
// and the user's question.
func buildPrompt(contextBlock, question string) string {
	return fmt.Sprintf(
		"Use the following dataset descriptions to answer the question.\n\n%s\n\nQuestion: %s\n\nAnswer:",
		contextBlock, question,
	)
}

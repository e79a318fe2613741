package services

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/corpus-cli/internal/core/domain"
)

// noResults is returned verbatim when a search matches nothing.
const noResults = "No results found."

// FormatHits renders search hits as a numbered, citation-ready text
// block. Each hit shows the source file, its location within the file
// when known, and the matched content:
//
//	1. report.pdf (Page 3)
//	Source: /docs/report.pdf
//	<content>
func FormatHits(hits []domain.SearchHit) string {
	if len(hits) == 0 {
		return noResults
	}

	var b strings.Builder
	for n, hit := range hits {
		if n > 0 {
			b.WriteString("\n\n")
		}

		name := filepath.Base(hit.Source)
		if annotation := hit.Location.Annotation(); annotation != "" {
			fmt.Fprintf(&b, "%d. %s (%s)\n", n+1, name, annotation)
		} else {
			fmt.Fprintf(&b, "%d. %s\n", n+1, name)
		}
		fmt.Fprintf(&b, "Source: %s\n", hit.Source)
		b.WriteString(hit.Content)
	}
	return b.String()
}

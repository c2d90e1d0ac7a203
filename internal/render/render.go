// Package render formats a query.Result for the CLI's --pretty output
// mode, following the teacher's own display.TreeFormatter shape: an
// Options struct selecting a format, dispatched from a single Format
// entry point, kept entirely separate from the core search path (the
// executor returns plain data; only the CLI layer decorates it).
package render

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/standardbeagle/csearch/internal/query"
)

// Options controls how a Result is rendered.
type Options struct {
	// Pretty selects the grouped, line-numbered text rendering; when
	// false, Format emits JSON indented with two spaces.
	Pretty bool
}

// Format renders result per opts.
func Format(result *query.Result, opts Options) string {
	if !opts.Pretty {
		return formatJSON(result)
	}
	return formatPretty(result)
}

func formatJSON(result *query.Result) string {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Sprintf(`{"error": %q}`, err.Error())
	}
	return string(data)
}

// formatPretty renders a header summarizing total/skip/limit followed
// by one block per matching file, each line of the file content
// prefixed with its 1-based line number — the rendering the original
// CLI gave human reviewers scanning search output, reconstructed here
// rather than as raw JSON.
func formatPretty(result *query.Result) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d matches (showing %d, skip %d)\n\n", result.Total, len(result.Matches), result.Skip)

	urls := make([]string, 0, len(result.Matches))
	for u := range result.Matches {
		urls = append(urls, u)
	}
	sort.Strings(urls)

	for _, u := range urls {
		fmt.Fprintf(&sb, "── %s ──\n", u)
		content := result.Matches[u]
		for i, line := range strings.Split(content, "\n") {
			fmt.Fprintf(&sb, "%5d │ %s\n", i+1, line)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

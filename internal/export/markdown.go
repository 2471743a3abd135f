// Package export renders a finished pipeline run as a Markdown document:
// the analysis text as a heading plus paragraph, and the recommendation
// object as nested headings and bullet lists, one heading level per
// nesting depth.
package export

import (
	"fmt"
	"sort"
	"strings"
)

// Document renders the full export artifact.
func Document(reportText string, recommendations map[string]any) string {
	var b strings.Builder
	b.WriteString("# Campaign Analysis Report\n\n")
	b.WriteString(reportText)
	b.WriteString("\n\n# Recommendations\n\n")
	b.WriteString(Recommendations(recommendations))
	return b.String()
}

// Recommendations renders the recommendation object. An optional top-level
// "recommendations" wrapper is unwrapped first. Keys render in sorted
// order for a deterministic document.
func Recommendations(recommendations map[string]any) string {
	rec := recommendations
	if inner, ok := recommendations["recommendations"].(map[string]any); ok {
		rec = inner
	}

	var b strings.Builder
	for _, category := range sortedKeys(rec) {
		fmt.Fprintf(&b, "## %s\n\n", title(category))
		switch sub := rec[category].(type) {
		case map[string]any:
			for _, key := range sortedKeys(sub) {
				fmt.Fprintf(&b, "### %s\n", title(key))
				writeLeaf(&b, sub[key])
				b.WriteString("\n")
			}
		default:
			fmt.Fprintf(&b, "- %s\n\n", render(sub))
		}
	}
	return b.String()
}

// writeLeaf renders the innermost level: a nested object becomes a bullet
// per key, anything else a single bullet.
func writeLeaf(b *strings.Builder, value any) {
	switch leaf := value.(type) {
	case map[string]any:
		for _, key := range sortedKeys(leaf) {
			fmt.Fprintf(b, "- **%s:** %s\n", title(key), render(leaf[key]))
		}
	case []any:
		for _, item := range leaf {
			fmt.Fprintf(b, "- %s\n", render(item))
		}
	default:
		fmt.Fprintf(b, "- %s\n", render(leaf))
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// title renders a JSON key as a readable heading: underscores to spaces,
// first letter capitalized.
func title(key string) string {
	s := strings.ReplaceAll(key, "_", " ")
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func render(v any) string {
	return fmt.Sprint(v)
}

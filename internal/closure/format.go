package closure

import (
	"fmt"
	"io"
	"strings"
)

// Format writes the report as plain text.
func Format(w io.Writer, r Report) error {
	var b strings.Builder
	for _, target := range r.Nonexistent {
		fmt.Fprintf(&b, "File %q does not exist\n", target)
	}
	if len(r.Nonexistent) > 0 && len(r.Entries) > 0 {
		b.WriteString("\n")
	}
	for _, e := range r.Entries {
		fmt.Fprintf(&b, "%q links to these, but they are not published\n", e.Root)
		for _, key := range e.Missing {
			fmt.Fprintf(&b, "- %s\n", key)
		}
		b.WriteString("\n")
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// Markdown renders the report as a Markdown document.
func Markdown(r Report) string {
	var b strings.Builder
	b.WriteString("# Publish closure\n\n")

	if r.Clean() {
		b.WriteString("Every link from a published note points to a published note.\n")
	}
	for _, e := range r.Entries {
		fmt.Fprintf(&b, "## %s\n\n", e.Root)
		b.WriteString("Links to these, but they are not published:\n\n")
		for _, key := range e.Missing {
			fmt.Fprintf(&b, "- `%s`\n", key)
		}
		b.WriteString("\n")
	}

	if len(r.Nonexistent) > 0 {
		b.WriteString("## Nonexistent targets\n\n")
		for _, target := range r.Nonexistent {
			fmt.Fprintf(&b, "- `%s`\n", target)
		}
	}
	return b.String()
}

// Package docs holds the operator-facing usage notes and renders them for the
// admin page (HTML) and the command line (ANSI terminal).
package docs

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/yuin/goldmark"
)

//go:embed usage.md
var usage string

// Markdown returns the raw usage notes.
func Markdown() string {
	return usage
}

// HTML renders the usage notes as trusted HTML for the admin page.
// The source is embedded at build time, so no user input reaches it.
func HTML() (template.HTML, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(usage), &buf); err != nil {
		return "", fmt.Errorf("docs.HTML: %w", err)
	}
	return template.HTML(buf.String()), nil
}

// Terminal renders the usage notes for a terminal of the given width.
func Terminal(width int) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", fmt.Errorf("docs.Terminal: %w", err)
	}
	out, err := r.Render(usage)
	if err != nil {
		return "", fmt.Errorf("docs.Terminal: %w", err)
	}
	return strings.TrimSpace(out), nil
}

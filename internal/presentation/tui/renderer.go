package tui

import (
	"github.com/aretw0/switchboard/pkg/runner"
	"github.com/charmbracelet/glamour"
)

// NewRenderer returns a markdown renderer for task reports.
// If glamour cannot be initialised, reports are printed as raw markdown.
func NewRenderer() runner.ContentRenderer {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return func(markdown string) (string, error) { return markdown, nil }
	}
	return r.Render
}

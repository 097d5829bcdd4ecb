package render

import (
	"bytes"
	"fmt"

	"github.com/charmbracelet/glamour"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// DefaultWidth is the terminal wrap width used when none is given.
const DefaultWidth = 100

var htmlRenderer = goldmark.New(goldmark.WithExtensions(extension.GFM))

// Terminal renders markdown for display in a terminal.
func Terminal(md string, width int) (string, error) {
	if width <= 0 {
		width = DefaultWidth
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", fmt.Errorf("create terminal renderer: %w", err)
	}
	out, err := r.Render(md)
	if err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return out, nil
}

// HTML converts markdown to an HTML fragment. Raw HTML in the input is dropped.
func HTML(md string) (string, error) {
	var buf bytes.Buffer
	if err := htmlRenderer.Convert([]byte(md), &buf); err != nil {
		return "", fmt.Errorf("convert markdown: %w", err)
	}
	return buf.String(), nil
}

package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/glamour"
	"golang.org/x/term"
)

// MarkdownRenderer renders assistant answers in the terminal.
type MarkdownRenderer struct {
	renderer *glamour.TermRenderer
}

// NewMarkdownRenderer builds a renderer sized to the current terminal.
// Plain mode skips colors for piped output.
func NewMarkdownRenderer(plain bool) (*MarkdownRenderer, error) {
	termWidth := 80
	if width, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && width > 0 {
		termWidth = width - 4
		if termWidth > 120 {
			termWidth = 120
		}
	}

	var style glamour.TermRendererOption
	if plain {
		style = glamour.WithStandardStyle("notty")
	} else {
		style = glamour.WithStandardStyle("dark")
	}

	renderer, err := glamour.NewTermRenderer(
		style,
		glamour.WithWordWrap(termWidth),
		glamour.WithEmoji(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create markdown renderer: %w", err)
	}

	return &MarkdownRenderer{renderer: renderer}, nil
}

// Render returns the styled terminal rendition of content. On renderer
// failure the raw content comes back unchanged so answers are never lost.
func (mr *MarkdownRenderer) Render(content string) string {
	if content == "" {
		return ""
	}
	rendered, err := mr.renderer.Render(content)
	if err != nil {
		return content
	}
	return rendered
}

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package highlight

import (
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	chromaStyles "github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/cvetriage/internal/document"
	"github.com/jeranaias/cvetriage/internal/ui/styles"
)

// ThemeStyle selects rendering through the lipgloss theme instead of a
// chroma style.
const ThemeStyle = "theme"

// Highlighter renders documents.
type Highlighter struct {
	theme *styles.Theme
	style string
}

// New creates a highlighter. style is a chroma style name, or "" or
// ThemeStyle for the theme.
func New(theme *styles.Theme, style string) *Highlighter {
	if style == "" {
		style = ThemeStyle
	}
	return &Highlighter{theme: theme, style: style}
}

// Tokens tokenizes text. Concatenating the token values yields text.
func Tokens(text string) ([]chroma.Token, error) {
	iterator, err := chroma.Coalesce(Lexer).Tokenise(nil, text)
	if err != nil {
		return nil, err
	}
	return iterator.Tokens(), nil
}

// Render returns the document text with terminal styling. Plain themes
// return the text unchanged.
func (h *Highlighter) Render(doc *document.Document) string {
	if h.theme == nil || h.theme.Plain() {
		return doc.Text()
	}
	if h.style != ThemeStyle {
		if out, ok := h.renderChroma(doc.Text()); ok {
			return out
		}
	}
	return h.renderTheme(doc)
}

func (h *Highlighter) renderChroma(text string) (string, bool) {
	style := chromaStyles.Get(h.style)
	if style == nil {
		style = chromaStyles.Fallback
	}

	formatter := formatters.Get("terminal256")
	if formatter == nil {
		formatter = formatters.Fallback
	}

	iterator, err := chroma.Coalesce(Lexer).Tokenise(nil, text)
	if err != nil {
		return "", false
	}

	var buf strings.Builder
	if err := formatter.Format(&buf, style, iterator); err != nil {
		return "", false
	}
	return buf.String(), true
}

func (h *Highlighter) renderTheme(doc *document.Document) string {
	text := doc.Text()
	tokens, err := Tokens(text)
	if err != nil {
		return text
	}
	flags := doc.Flags()

	var b strings.Builder
	offset := 0
	fi := 0
	for _, tok := range tokens {
		start, end := offset, offset+len(tok.Value)
		offset = end

		for fi < len(flags) && flags[fi].End() <= start && flags[fi].Offset < start {
			fi++
		}
		flagged := fi < len(flags) && overlaps(flags[fi], start, end)

		style, ok := h.styleFor(tok, flagged)
		if !ok {
			b.WriteString(tok.Value)
			continue
		}
		writeStyled(&b, tok.Value, style)
	}
	return b.String()
}

func overlaps(f document.Flag, start, end int) bool {
	if f.Value == "" {
		return false
	}
	return f.Offset < end && f.End() > start
}

// writeStyled styles each line of value separately; lipgloss pads
// multi-line renders to a block.
func writeStyled(b *strings.Builder, value string, style lipgloss.Style) {
	for i, part := range strings.Split(value, "\n") {
		if i > 0 {
			b.WriteByte('\n')
		}
		if strings.TrimSpace(part) == "" {
			b.WriteString(part)
			continue
		}
		b.WriteString(style.Render(part))
	}
}

func (h *Highlighter) styleFor(tok chroma.Token, flagged bool) (lipgloss.Style, bool) {
	t := h.theme
	if flagged {
		return t.Flagged, true
	}
	switch tok.Type {
	case chroma.NameTag:
		return t.Identifier, true
	case chroma.Keyword:
		return t.Keyword, true
	case chroma.NameConstant:
		return t.Priority(tok.Value), true
	case chroma.NameOther:
		return t.Package, true
	case chroma.LiteralString:
		return t.Reason, true
	case chroma.Comment:
		return t.Comment, true
	case chroma.GenericError:
		return t.Flagged, true
	}
	return lipgloss.Style{}, false
}

// RenderPriority styles a priority value, for listings.
func (h *Highlighter) RenderPriority(p document.Priority) string {
	if h.theme == nil || h.theme.Plain() {
		return string(p)
	}
	return h.theme.Priority(string(p)).Render(string(p))
}

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package pager shows long tool output in a scrollable full-screen view.
//
// The content is read through a function so that a surface still being
// written by a running job keeps refreshing while it is paged.
package pager

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/cvetriage/internal/ui/styles"
)

// refreshInterval is how often live content is re-read.
const refreshInterval = 200 * time.Millisecond

// Options configures a pager.
type Options struct {
	Title string

	// Content returns the text to show; called again on every refresh
	Content func() string

	// Live re-reads Content until the pager is closed
	Live bool

	Theme *styles.Theme
}

type refreshMsg struct{}

// Model is the bubbletea model of the pager.
type Model struct {
	opts     Options
	viewport viewport.Model
	content  string
	ready    bool
	width    int
	height   int
}

// New creates a pager model.
func New(opts Options) Model {
	if opts.Content == nil {
		opts.Content = func() string { return "" }
	}
	if opts.Theme == nil {
		opts.Theme = styles.NewTheme(styles.ColorNever)
	}

	vp := viewport.New(80, 20)
	vp.Style = lipgloss.NewStyle()

	m := Model{opts: opts, viewport: vp}
	m.setContent(opts.Content())
	return m
}

// Run shows the pager until the user quits.
func Run(opts Options, in io.Reader, out io.Writer) error {
	p := tea.NewProgram(New(opts), tea.WithAltScreen(), tea.WithInput(in), tea.WithOutput(out))
	_, err := p.Run()
	return err
}

func (m *Model) setContent(content string) {
	atBottom := m.viewport.AtBottom()
	m.content = content
	m.viewport.SetContent(strings.TrimRight(content, "\n"))
	if m.opts.Live && atBottom {
		m.viewport.GotoBottom()
	}
}

func tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(time.Time) tea.Msg { return refreshMsg{} })
}

// Init starts the refresh loop for live content.
func (m Model) Init() tea.Cmd {
	if m.opts.Live {
		return tick()
	}
	return nil
}

// Update handles keys, resizes and refreshes.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case "g", "home":
			m.viewport.GotoTop()
			return m, nil
		case "G", "end":
			m.viewport.GotoBottom()
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = msg.Width
		m.viewport.Height = msg.Height - 2 // header and footer
		if m.viewport.Height < 1 {
			m.viewport.Height = 1
		}
		m.ready = true
		m.setContent(m.content)
		return m, nil

	case refreshMsg:
		if content := m.opts.Content(); content != m.content {
			m.setContent(content)
		}
		return m, tick()
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View renders the header, the visible lines and the footer.
func (m Model) View() string {
	theme := m.opts.Theme
	header := theme.Header.Render(m.opts.Title)

	percent := int(m.viewport.ScrollPercent() * 100)
	footer := theme.Muted.Render(fmt.Sprintf("%3d%%  q quit  g/G top/bottom", percent))

	return header + "\n" + m.viewport.View() + "\n" + footer
}

// Content returns the text currently shown.
func (m Model) Content() string {
	return m.content
}

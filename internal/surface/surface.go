// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package surface

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// =============================================================================
// MODE
// =============================================================================

// Mode is the presentation of a surface.
type Mode string

const (
	// ModeNone leaves output as written.
	ModeNone Mode = ""

	// ModeText renders plain text with highlights.
	ModeText Mode = "text"

	// ModeGrep parses "file:line:text" lines into locations.
	ModeGrep Mode = "grep"
)

// ParseMode validates a configured mode name.
func ParseMode(name string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(name))); m {
	case ModeNone, ModeText, ModeGrep:
		return m, nil
	default:
		return ModeNone, fmt.Errorf("unknown presentation mode %q", name)
	}
}

// =============================================================================
// SURFACE
// =============================================================================

// Surface is one named output buffer. It implements io.Writer.
type Surface struct {
	name string

	mu         sync.RWMutex
	text       strings.Builder
	mode       Mode
	highlights []string
	generation int
}

// Name returns the surface name.
func (s *Surface) Name() string {
	return s.name
}

// Write appends p to the surface.
func (s *Surface) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.text.Write(p)
}

// Text returns the text written so far.
func (s *Surface) Text() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.text.String()
}

// Mode returns the presentation mode.
func (s *Surface) Mode() Mode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mode
}

// SetMode sets the presentation mode.
func (s *Surface) SetMode(m Mode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mode = m
}

// Highlight adds a term to highlight, case-insensitively. Duplicates and
// empty terms are ignored.
func (s *Surface) Highlight(term string) {
	if term = strings.TrimSpace(term); term == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, h := range s.highlights {
		if strings.EqualFold(h, term) {
			return
		}
	}
	s.highlights = append(s.highlights, term)
}

// Highlights returns the highlight terms in the order added.
func (s *Surface) Highlights() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.highlights...)
}

// Generation counts resets; a continuation can compare it to detect that a
// newer run took over the surface.
func (s *Surface) Generation() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation
}

// reset clears text, mode and highlights.
func (s *Surface) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.text.Reset()
	s.mode = ModeNone
	s.highlights = nil
	s.generation++
}

// =============================================================================
// MATCHES
// =============================================================================

// Span is a half-open byte range within a line.
type Span struct {
	Start int
	End   int
}

// HighlightSpans returns the non-overlapping spans of line matching any
// highlight term, in order.
func HighlightSpans(line string, terms []string) []Span {
	if len(terms) == 0 {
		return nil
	}
	quoted := make([]string, 0, len(terms))
	for _, t := range terms {
		quoted = append(quoted, regexp.QuoteMeta(t))
	}
	// Longer terms first so "libssl3" wins over "libssl"
	sort.SliceStable(quoted, func(i, j int) bool { return len(quoted[i]) > len(quoted[j]) })
	re := regexp.MustCompile(`(?i)` + strings.Join(quoted, "|"))

	var spans []Span
	for _, m := range re.FindAllStringIndex(line, -1) {
		spans = append(spans, Span{Start: m[0], End: m[1]})
	}
	return spans
}

// Location is one "file:line:text" entry of grep-mode output.
type Location struct {
	File string
	Line int
	Text string
}

var grepLineRe = regexp.MustCompile(`^([^:\s][^:]*):([0-9]+):(.*)$`)

// ParseLocation parses one grep-mode line.
func ParseLocation(line string) (Location, bool) {
	m := grepLineRe.FindStringSubmatch(line)
	if m == nil {
		return Location{}, false
	}
	n, err := strconv.Atoi(m[2])
	if err != nil {
		return Location{}, false
	}
	return Location{File: m[1], Line: n, Text: m[3]}, true
}

// Locations returns the grep-mode locations of the surface. Empty unless the
// mode is ModeGrep.
func (s *Surface) Locations() []Location {
	if s.Mode() != ModeGrep {
		return nil
	}
	var out []Location
	for _, line := range strings.Split(s.Text(), "\n") {
		if loc, ok := ParseLocation(line); ok {
			out = append(out, loc)
		}
	}
	return out
}

// =============================================================================
// MANAGER
// =============================================================================

// Manager holds the surfaces of a session by name.
type Manager struct {
	mu       sync.Mutex
	surfaces map[string]*Surface
}

// NewManager creates an empty manager.
func NewManager() *Manager {
	return &Manager{surfaces: make(map[string]*Surface)}
}

// Get returns the surface named name, creating it if needed.
func (m *Manager) Get(name string) *Surface {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.surfaces[name]
	if !ok {
		s = &Surface{name: name}
		m.surfaces[name] = s
	}
	return s
}

// Lookup returns an existing surface.
func (m *Manager) Lookup(name string) (*Surface, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.surfaces[name]
	return s, ok
}

// Reset returns the surface named name emptied for a new run. The same
// *Surface is reused across runs.
func (m *Manager) Reset(name string) *Surface {
	s := m.Get(name)
	s.reset()
	return s
}

// Names returns the surface names, sorted.
func (m *Manager) Names() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, 0, len(m.surfaces))
	for name := range m.surfaces {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

package ui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/readaloud-go/readaloud/segment"
	"github.com/readaloud-go/readaloud/session"
	"github.com/readaloud-go/readaloud/speech"
)

type nopEngine struct{}

func (nopEngine) Speak(string, speech.Options, func(speech.Event)) {}
func (nopEngine) Pause()                                          {}
func (nopEngine) Resume()                                         {}
func (nopEngine) Cancel()                                         {}
func (nopEngine) IsSpeaking() bool                                { return false }
func (nopEngine) IsPaused() bool                                  { return false }
func (nopEngine) Close() error                                    { return nil }

func sizedModel(t *testing.T, content string, width, height int) (Model, *Geometry) {
	t.Helper()
	units := segment.Segment(content, segment.Word)
	geom := NewGeometry()
	ctrl := session.New(nopEngine{}, session.Config{})
	m := New("Test Article", units, ctrl, geom)
	next, _ := m.Update(tea.WindowSizeMsg{Width: width, Height: height})
	return next.(Model), geom
}

func TestReflow_LineExtents(t *testing.T) {
	// 8 columns force every word onto its own line.
	m, geom := sizedModel(t, "alpha beta gamma", 8, 20)

	if len(m.starts) != 3 {
		t.Fatalf("laid out %d units, want 3", len(m.starts))
	}
	if m.starts[0] != 0 {
		t.Errorf("first unit starts on line %d", m.starts[0])
	}
	for i := 1; i < len(m.starts); i++ {
		if m.starts[i] < m.starts[i-1] {
			t.Errorf("unit %d starts before unit %d", i, i-1)
		}
	}
	if m.starts[1] != 1 || m.starts[2] != 2 {
		t.Errorf("wrap layout = %v, want each word on its own line", m.starts)
	}

	top, bottom, ok := geom.UnitExtent(2)
	if !ok || top != 2 || bottom != 2 {
		t.Errorf("geometry extent for unit 2 = (%d,%d,%v)", top, bottom, ok)
	}
}

func TestReflow_ParagraphGap(t *testing.T) {
	m, _ := sizedModel(t, "one two.\n\nThree four.", 80, 20)

	units := m.units
	var breakAt int
	for i, u := range units {
		if u.ParagraphBreakBefore {
			breakAt = i
		}
	}
	if breakAt == 0 {
		t.Fatal("expected a paragraph break unit")
	}
	if m.starts[breakAt] != m.ends[breakAt-1]+2 {
		t.Errorf("paragraph gap: unit %d starts on %d after unit ending on %d",
			breakAt, m.starts[breakAt], m.ends[breakAt-1])
	}
}

func TestHighlightMsg_ScrollsWhenAsked(t *testing.T) {
	// Many short units so the content is taller than the viewport.
	content := strings.Repeat("word ", 100)
	m, geom := sizedModel(t, strings.TrimSpace(content), 5, 8)

	next, _ := m.Update(HighlightMsg{Index: 60, ShouldScroll: true})
	m = next.(Model)

	offset, height := geom.Viewport()
	if offset == 0 {
		t.Error("viewport did not scroll for an out-of-band unit")
	}
	if height != 8-chrome {
		t.Errorf("viewport height = %d, want %d", height, 8-chrome)
	}
	top, _, ok := geom.UnitExtent(60)
	if !ok {
		t.Fatal("unit 60 has no extent")
	}
	if top < offset || top >= offset+height {
		t.Errorf("highlighted line %d not visible in [%d,%d)", top, offset, offset+height)
	}
}

func TestHighlightMsg_NoScrollWithoutHint(t *testing.T) {
	content := strings.Repeat("word ", 100)
	m, geom := sizedModel(t, strings.TrimSpace(content), 5, 8)

	next, _ := m.Update(HighlightMsg{Index: 60, ShouldScroll: false})
	m = next.(Model)

	if offset, _ := geom.Viewport(); offset != 0 {
		t.Errorf("viewport scrolled to %d without a scroll hint", offset)
	}
	if m.current != 60 {
		t.Errorf("current = %d, want 60", m.current)
	}
}

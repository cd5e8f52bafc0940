// Package ui renders the article in the terminal and tracks the spoken unit:
// all speakable spans are laid out once per resize, the current unit is
// highlighted, and scroll requests from the highlight publisher center it.
package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/readaloud-go/readaloud/highlight"
	"github.com/readaloud-go/readaloud/segment"
	"github.com/readaloud-go/readaloud/session"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#c9d1d9"))

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#8b949e"))

	spokenStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#0d1117")).
			Background(lipgloss.Color("#d29922"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#484f58"))
)

// HighlightMsg delivers a highlight signal into the update loop. Sent with
// Program.Send from the publisher's sink.
type HighlightMsg highlight.Signal

type startedMsg struct{}

// Model is the read-aloud view over one extracted article.
type Model struct {
	title string
	units []segment.Unit
	ctrl  *session.Controller
	geom  *Geometry

	vp      viewport.Model
	width   int
	height  int
	ready   bool
	current int

	starts []int
	ends   []int
}

func New(title string, units []segment.Unit, ctrl *session.Controller, geom *Geometry) Model {
	return Model{
		title:   title,
		units:   units,
		ctrl:    ctrl,
		geom:    geom,
		current: -1,
	}
}

func (m Model) Init() tea.Cmd {
	return m.startPlayback
}

func (m Model) startPlayback() tea.Msg {
	m.ctrl.Start(m.units)
	return startedMsg{}
}

// chrome is the number of lines around the viewport: title, status, help.
const chrome = 3

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if !m.ready {
			m.vp = viewport.New(msg.Width, msg.Height-chrome)
			m.ready = true
		} else {
			m.vp.Width = msg.Width
			m.vp.Height = msg.Height - chrome
		}
		m.reflow()
		m.syncViewportGeometry()
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.ctrl.Stop()
			return m, tea.Quit
		case " ":
			switch m.ctrl.State() {
			case session.StatePlaying:
				m.ctrl.Pause()
			case session.StatePaused:
				m.ctrl.Resume()
			}
			return m, nil
		case "s":
			m.ctrl.Stop()
			return m, nil
		case "r":
			return m, m.startPlayback
		}

	case HighlightMsg:
		m.current = msg.Index
		if m.ready {
			m.reflow()
			if msg.ShouldScroll && msg.Index >= 0 && msg.Index < len(m.starts) {
				m.centerOn(m.starts[msg.Index])
			}
			m.syncViewportGeometry()
		}
		return m, nil

	case startedMsg:
		return m, nil
	}

	var cmd tea.Cmd
	m.vp, cmd = m.vp.Update(msg)
	m.syncViewportGeometry()
	return m, cmd
}

// centerOn scrolls the viewport so line sits in the upper third.
func (m *Model) centerOn(line int) {
	target := line - m.vp.Height/3
	if target < 0 {
		target = 0
	}
	m.vp.SetYOffset(target)
}

func (m *Model) syncViewportGeometry() {
	if m.ready {
		m.geom.setViewport(m.vp.YOffset, m.vp.Height)
	}
}

// reflow lays all units out, word-wrapped to the current width, records each
// unit's line extent for the geometry, and styles the current unit.
func (m *Model) reflow() {
	width := m.width
	if width <= 0 {
		width = 80
	}

	var b strings.Builder
	line, col := 0, 0
	starts := make([]int, len(m.units))
	ends := make([]int, len(m.units))

	for i, u := range m.units {
		if u.ParagraphBreakBefore && i > 0 {
			b.WriteString("\n\n")
			line += 2
			col = 0
		}
		starts[i] = line
		first := true
		for _, word := range strings.Fields(u.Text) {
			w := lipgloss.Width(word)
			switch {
			case col == 0:
				// first word on the line
			case col+1+w > width:
				b.WriteByte('\n')
				line++
				col = 0
			default:
				b.WriteByte(' ')
				col++
			}
			if first {
				starts[i] = line
				first = false
			}
			if i == m.current {
				b.WriteString(spokenStyle.Render(word))
			} else {
				b.WriteString(word)
			}
			col += w
		}
		ends[i] = line
	}

	m.starts = starts
	m.ends = ends
	m.geom.setLayout(starts, ends)
	m.vp.SetContent(b.String())
}

func (m Model) View() string {
	if !m.ready {
		return "loading…"
	}

	var status string
	state := m.ctrl.State()
	if m.current >= 0 {
		status = fmt.Sprintf("%s · unit %d/%d", state, m.current+1, len(m.units))
	} else {
		status = state.String()
	}

	return titleStyle.Render(m.title) + "\n" +
		statusStyle.Render(status) + "\n" +
		m.vp.View() + "\n" +
		helpStyle.Render("space pause/resume · s stop · r restart · q quit")
}

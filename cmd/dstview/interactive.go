package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	metaStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#5A5A8C"))

	payloadStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#1A1A1A")).
			Background(lipgloss.Color("#98FB98"))

	freeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#444444"))

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

// maxCells bounds the word map so large buffers stay on screen.
const maxCells = 64

type interactiveModel struct {
	err   error
	c     container
	opts  options
	input textinput.Model
}

type openedMsg struct {
	err error
	c   container
}

func newInteractiveModel(opts options) *interactiveModel {
	ti := textinput.New()
	ti.Placeholder = "value"
	ti.Prompt = "push: "
	ti.Width = 40
	ti.Focus()
	return &interactiveModel{opts: opts, input: ti}
}

func (m *interactiveModel) Init() tea.Cmd {
	return m.open
}

func (m *interactiveModel) open() tea.Msg {
	c, err := newContainer(context.Background(), m.opts)
	return openedMsg{c: c, err: err}
}

func (m *interactiveModel) close() {
	if m.c != nil {
		_ = m.c.Close()
		m.c = nil
	}
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.close()
			return m, tea.Quit

		case "enter":
			if m.c != nil {
				m.err = m.c.Push(m.input.Value())
				if m.err == nil {
					m.input.Reset()
				}
			}
			return m, nil

		case "ctrl+p":
			if m.c != nil {
				m.c.Pop()
				m.err = nil
			}
			return m, nil
		}

	case openedMsg:
		m.c = msg.c
		m.err = msg.err
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *interactiveModel) View() string {
	if m.c == nil {
		if m.err != nil {
			return errorStyle.Render(fmt.Sprintf("Error: %v\n\nPress esc to quit.", m.err))
		}
		return "Opening container..."
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("DST Inspector"))
	fmt.Fprintf(&b, " %s over %s buffer\n\n", m.opts.kind, m.opts.buffer)

	b.WriteString(wordMap(m.c))
	fmt.Fprintf(&b, "\n%d elements, %d/%d words\n\n", m.c.Len(), m.c.LenWords(), m.c.CapacityWords())

	values := m.c.Values()
	for i, sp := range m.c.Spans() {
		fmt.Fprintf(&b, "  @%-4d %s\n", sp.Offset, valueStyle.Render(fmt.Sprintf("%q", values[i])))
	}
	b.WriteString("\n")
	b.WriteString(m.input.View())
	b.WriteString("\n")
	if m.err != nil {
		b.WriteString(errorStyle.Render(m.err.Error()))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("enter push • ctrl+p pop • esc quit"))
	return b.String()
}

// wordMap draws one cell per buffer word: descriptor words as "d", payload
// words as "p" and free words as ".".
func wordMap(c container) string {
	n := min(c.CapacityWords(), maxCells)
	cells := make([]string, n)
	for i := range cells {
		cells[i] = freeStyle.Render(".")
	}
	for _, sp := range c.Spans() {
		for i := sp.Offset; i < sp.Offset+sp.Words && i < n; i++ {
			if i < sp.Offset+sp.Meta {
				cells[i] = metaStyle.Render("d")
			} else {
				cells[i] = payloadStyle.Render("p")
			}
		}
	}
	s := strings.Join(cells, "")
	if c.CapacityWords() > n {
		s += helpStyle.Render(fmt.Sprintf(" +%d", c.CapacityWords()-n))
	}
	return s
}

func runInteractive(opts options) error {
	m := newInteractiveModel(opts)
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	m.close()
	return err
}

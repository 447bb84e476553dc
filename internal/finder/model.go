// Package finder implements the terminal global search dialog.
package finder

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/starford/studydesk/internal/models"
	"github.com/starford/studydesk/internal/search"
)

// Model is the bubbletea model of the dialog. The corpus is loaded once and
// searched again on every keystroke.
type Model struct {
	corpus   models.Corpus
	input    textinput.Model
	resp     search.Response
	cursor   search.Cursor
	selected *search.Result
	width    int
}

// New returns a dialog over corpus with the prompt showing.
func New(corpus models.Corpus) Model {
	ti := textinput.New()
	ti.Placeholder = "Search notes, keywords, mind maps, tags..."
	ti.CharLimit = 256
	ti.Prompt = "/ "
	ti.Focus()

	m := Model{corpus: corpus, input: ti}
	m.requery()
	return m
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Selected returns the result chosen with Enter, if any.
func (m Model) Selected() (search.Result, bool) {
	if m.selected == nil {
		return search.Result{}, false
	}
	return *m.selected, true
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.input.Width = max(msg.Width-12, 10)
		return m, nil

	case tea.KeyMsg:
		if key, ok := navKey(msg); ok {
			return m.navigate(key)
		}
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
	}

	prev := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.input.Value() != prev {
		m.requery()
	}
	return m, cmd
}

func (m Model) navigate(k search.Key) (tea.Model, tea.Cmd) {
	action, idx := m.cursor.Handle(k)
	switch action {
	case search.Select:
		r := m.resp.Results[idx]
		m.selected = &r
		return m, tea.Quit
	case search.Close:
		return m, tea.Quit
	}
	return m, nil
}

func (m *Model) requery() {
	m.resp = search.Run(m.input.Value(), m.corpus)
	m.cursor.Reset(len(m.resp.Results))
}

func navKey(msg tea.KeyMsg) (search.Key, bool) {
	switch msg.Type {
	case tea.KeyUp, tea.KeyCtrlP:
		return search.KeyUp, true
	case tea.KeyDown, tea.KeyCtrlN:
		return search.KeyDown, true
	case tea.KeyEnter:
		return search.KeyEnter, true
	case tea.KeyEsc:
		return search.KeyEscape, true
	}
	return 0, false
}

// Run shows the dialog on the terminal and writes the navigation target of
// the chosen result to out.
func Run(ctx context.Context, corpus models.Corpus, out io.Writer) error {
	p := tea.NewProgram(New(corpus), tea.WithContext(ctx))
	final, err := p.Run()
	if err != nil {
		return fmt.Errorf("finder: %w", err)
	}
	if r, ok := final.(Model).Selected(); ok {
		fmt.Fprintf(out, "%s\t%s\t%s\n", r.Target, r.Kind, r.ID)
	}
	return nil
}

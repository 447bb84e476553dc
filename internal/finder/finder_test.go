package finder

import (
	"bytes"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/starford/studydesk/internal/models"
	"github.com/starford/studydesk/internal/search"
)

func corpus() models.Corpus {
	return models.Corpus{
		Notes: []models.CornellNote{
			{ID: "n1", Title: "Cell division", MainNotes: "mitosis and meiosis"},
			{ID: "n2", Title: "Cell membranes"},
		},
		MindMaps: []models.MindMap{{ID: "m1", Title: "Organelles", CentralConcept: "Cell"}},
		Tags:     []models.Tag{{ID: "t1", Name: "biology"}},
	}
}

func typeText(t *testing.T, m Model, text string) Model {
	t.Helper()
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
	return next.(Model)
}

func press(t *testing.T, m Model, k tea.KeyType) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(tea.KeyMsg{Type: k})
	return next.(Model), cmd
}

func TestPromptBeforeTyping(t *testing.T) {
	m := New(corpus())
	if !m.resp.Prompt {
		t.Error("blank query should show the prompt")
	}
	if !strings.Contains(m.View(), "Start typing") {
		t.Error("view should render the prompt")
	}
}

func TestTypingRequeries(t *testing.T) {
	m := typeText(t, New(corpus()), "cell")
	if len(m.resp.Results) != 3 {
		t.Fatalf("results = %+v", m.resp.Results)
	}
	if m.resp.Results[0].ID != "n1" {
		t.Errorf("first result = %q", m.resp.Results[0].ID)
	}

	m = typeText(t, m, "zzz")
	if len(m.resp.Results) != 0 || m.resp.Prompt {
		t.Fatalf("resp = %+v", m.resp)
	}
	if !strings.Contains(m.View(), "No results") {
		t.Error("view should say there are no results")
	}
}

func TestEnterSelectsHighlighted(t *testing.T) {
	m := typeText(t, New(corpus()), "cell")
	m, _ = press(t, m, tea.KeyDown)
	m, _ = press(t, m, tea.KeyDown)
	m, _ = press(t, m, tea.KeyDown) // clamps at the last row
	m, _ = press(t, m, tea.KeyUp)
	m, cmd := press(t, m, tea.KeyEnter)
	if cmd == nil {
		t.Fatal("enter should quit")
	}
	r, ok := m.Selected()
	if !ok || r.ID != "n2" || r.Target != search.TargetNotes {
		t.Errorf("selected = %+v, %v", r, ok)
	}
}

func TestTypingResetsCursor(t *testing.T) {
	m := typeText(t, New(corpus()), "cell")
	m, _ = press(t, m, tea.KeyDown)
	m = typeText(t, m, " ")
	if m.cursor.Index() != 0 {
		t.Errorf("cursor = %d after requery", m.cursor.Index())
	}
}

func TestEnterWithoutResults(t *testing.T) {
	m := typeText(t, New(corpus()), "nothing")
	m, cmd := press(t, m, tea.KeyEnter)
	if cmd != nil {
		t.Error("enter with no results should do nothing")
	}
	if _, ok := m.Selected(); ok {
		t.Error("nothing should be selected")
	}
}

func TestEscapeCloses(t *testing.T) {
	m := typeText(t, New(corpus()), "cell")
	m, cmd := press(t, m, tea.KeyEsc)
	if cmd == nil {
		t.Fatal("esc should quit")
	}
	if _, ok := m.Selected(); ok {
		t.Error("esc must not select")
	}
}

func TestPrint(t *testing.T) {
	var out bytes.Buffer
	n := Print(&out, corpus(), "bio")
	if n != 1 {
		t.Fatalf("printed %d results", n)
	}
	if got := strings.TrimSpace(out.String()); got != "tag\t[bio]logy" {
		t.Errorf("output = %q", got)
	}
}

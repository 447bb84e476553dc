package vault

import (
	"strings"
	"testing"

	"github.com/starford/studydesk/internal/models"
)

func TestRenderParse(t *testing.T) {
	n := models.CornellNote{
		ID:           "n1",
		Title:        "Photosynthesis",
		Subject:      "Biology",
		Date:         "2024-03-01",
		LessonNumber: "4",
		Priority:     models.PriorityHigh,
		FolderID:     "f1",
		Keywords:     []models.Keyword{{ID: "k1", Text: "chlorophyll", Definition: "green pigment"}},
		MainNotes:    "Light reactions\n\n- happen in thylakoids",
		Summary:      "Plants turn light into sugar.",
		Tags:         []models.Tag{{ID: "t1", Name: "exam"}},
	}
	data, err := Render(n)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	text := string(data)
	for _, want := range []string{"---\n", "id: n1", "2024-03-01", "# Photosynthesis", "## Notes", "## Summary"} {
		if !strings.Contains(text, want) {
			t.Errorf("rendered note missing %q:\n%s", want, text)
		}
	}

	doc, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	got := doc.Note
	if got.ID != "n1" || got.Title != n.Title || got.Subject != n.Subject || got.Date != n.Date {
		t.Errorf("header = %+v", got)
	}
	if got.LessonNumber != "4" || got.Priority != models.PriorityHigh || got.FolderID != "f1" {
		t.Errorf("metadata = %+v", got)
	}
	if got.MainNotes != n.MainNotes {
		t.Errorf("MainNotes = %q, want %q", got.MainNotes, n.MainNotes)
	}
	if got.Summary != n.Summary {
		t.Errorf("Summary = %q, want %q", got.Summary, n.Summary)
	}
	if len(got.Keywords) != 1 || got.Keywords[0].Definition != "green pigment" {
		t.Errorf("Keywords = %+v", got.Keywords)
	}
	if len(doc.TagNames) != 1 || doc.TagNames[0] != "exam" {
		t.Errorf("TagNames = %v", doc.TagNames)
	}
}

func TestParseWithoutFrontmatter(t *testing.T) {
	doc, err := Parse([]byte("# Loose page\n\nsome thoughts\n\n## Summary\n\nshort\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if doc.Note.Title != "Loose page" {
		t.Errorf("Title = %q", doc.Note.Title)
	}
	if doc.Note.MainNotes != "some thoughts" || doc.Note.Summary != "short" {
		t.Errorf("sections = %q / %q", doc.Note.MainNotes, doc.Note.Summary)
	}
}

func TestParseBadFrontmatter(t *testing.T) {
	if _, err := Parse([]byte("---\ntitle: [unclosed\n---\nbody\n")); err == nil {
		t.Fatal("expected error for malformed frontmatter")
	}
}

func TestNotePath(t *testing.T) {
	p, err := NotePath("u1", "n1")
	if err != nil || p != "u1/n1.md" {
		t.Fatalf("NotePath = %q, %v", p, err)
	}
	for _, bad := range [][2]string{{"..", "n1"}, {"u1", "../x"}, {"u/1", "n1"}, {"u1", ".hidden"}, {"", "n1"}} {
		if _, err := NotePath(bad[0], bad[1]); err == nil {
			t.Errorf("NotePath(%q, %q) should fail", bad[0], bad[1])
		}
	}
}

func TestParsePath(t *testing.T) {
	if u, id, ok := parsePath("u1/n1.md"); !ok || u != "u1" || id != "n1" {
		t.Errorf("parsePath = %q %q %v", u, id, ok)
	}
	for _, p := range []string{"n1.md", "a/b/n1.md", "u1/notes.txt", "u1/.studydesk-tmp-1.md"} {
		if _, _, ok := parsePath(p); ok {
			t.Errorf("parsePath(%q) should be rejected", p)
		}
	}
}

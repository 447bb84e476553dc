package vault

import (
	"bytes"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/starford/studydesk/internal/models"
)

const (
	delim          = "---"
	notesHeading   = "## Notes"
	summaryHeading = "## Summary"
)

type frontmatter struct {
	ID       string    `yaml:"id"`
	Title    string    `yaml:"title"`
	Subject  string    `yaml:"subject,omitempty"`
	Date     string    `yaml:"date,omitempty"`
	Lesson   string    `yaml:"lesson,omitempty"`
	Priority string    `yaml:"priority,omitempty"`
	FolderID string    `yaml:"folder_id,omitempty"`
	Tags     []string  `yaml:"tags,omitempty"`
	Keywords []keyword `yaml:"keywords,omitempty"`
}

type keyword struct {
	ID         string `yaml:"id,omitempty"`
	Text       string `yaml:"text"`
	Definition string `yaml:"definition,omitempty"`
}

// Document is a Cornell note as read from a Markdown file. Tags are carried
// by name; resolving them to stored tags is left to the importer.
type Document struct {
	Note     models.CornellNote
	TagNames []string
}

// Render produces the Markdown form of a note.
func Render(n models.CornellNote) ([]byte, error) {
	fm := frontmatter{
		ID:       n.ID,
		Title:    n.Title,
		Subject:  n.Subject,
		Date:     n.Date,
		Lesson:   n.LessonNumber,
		Priority: string(n.Priority),
		FolderID: n.FolderID,
	}
	for _, t := range n.Tags {
		fm.Tags = append(fm.Tags, t.Name)
	}
	for _, k := range n.Keywords {
		fm.Keywords = append(fm.Keywords, keyword{ID: k.ID, Text: k.Text, Definition: k.Definition})
	}

	head, err := yaml.Marshal(fm)
	if err != nil {
		return nil, fmt.Errorf("vault: encode frontmatter: %w", err)
	}

	var b bytes.Buffer
	b.WriteString(delim + "\n")
	b.Write(head)
	b.WriteString(delim + "\n\n")
	fmt.Fprintf(&b, "# %s\n\n", n.Title)
	b.WriteString(notesHeading + "\n\n")
	if body := strings.TrimSpace(n.MainNotes); body != "" {
		b.WriteString(body + "\n\n")
	}
	b.WriteString(summaryHeading + "\n")
	if s := strings.TrimSpace(n.Summary); s != "" {
		b.WriteString("\n" + s + "\n")
	}
	return b.Bytes(), nil
}

// Parse reads a Markdown note. A file without frontmatter is taken as plain
// notes titled by its first heading.
func Parse(data []byte) (Document, error) {
	fm, body, err := splitFrontmatter(data)
	if err != nil {
		return Document{}, err
	}

	n := models.CornellNote{
		ID:           fm.ID,
		Title:        fm.Title,
		Subject:      fm.Subject,
		Date:         fm.Date,
		LessonNumber: fm.Lesson,
		Priority:     models.Priority(fm.Priority),
		FolderID:     fm.FolderID,
		Keywords:     []models.Keyword{},
	}
	for _, k := range fm.Keywords {
		if strings.TrimSpace(k.Text) == "" {
			continue
		}
		n.Keywords = append(n.Keywords, models.Keyword{ID: k.ID, Text: k.Text, Definition: k.Definition})
	}

	heading, rest := splitTitle(body)
	if n.Title == "" {
		n.Title = heading
	}
	n.MainNotes, n.Summary = splitSections(rest)
	return Document{Note: n, TagNames: fm.Tags}, nil
}

// splitFrontmatter separates the YAML block between leading --- lines from
// the body. Malformed YAML is an error since the file cannot be imported.
func splitFrontmatter(data []byte) (frontmatter, string, error) {
	var fm frontmatter
	trimmed := bytes.TrimLeft(data, "\n\r")
	if !bytes.HasPrefix(trimmed, []byte(delim)) {
		return fm, string(data), nil
	}

	rest := trimmed[len(delim):]
	idx := bytes.Index(rest, []byte("\n"+delim))
	if idx < 0 {
		return fm, string(data), nil
	}
	if err := yaml.Unmarshal(rest[:idx], &fm); err != nil {
		return fm, "", fmt.Errorf("vault: decode frontmatter: %w", err)
	}
	after := rest[idx+1+len(delim):]
	return fm, strings.TrimLeft(string(after), "\n\r"), nil
}

// splitTitle strips a leading "# " heading.
func splitTitle(body string) (string, string) {
	line, rest, _ := strings.Cut(body, "\n")
	if t, ok := strings.CutPrefix(strings.TrimSpace(line), "# "); ok {
		return strings.TrimSpace(t), rest
	}
	return "", body
}

// splitSections returns the text under "## Notes" and "## Summary". Text
// before any heading counts as notes.
func splitSections(body string) (notes, summary string) {
	var cur *strings.Builder
	var nb, sb strings.Builder
	cur = &nb
	for _, line := range strings.Split(body, "\n") {
		switch strings.TrimSpace(line) {
		case notesHeading:
			cur = &nb
			continue
		case summaryHeading:
			cur = &sb
			continue
		}
		cur.WriteString(line)
		cur.WriteByte('\n')
	}
	return strings.TrimSpace(nb.String()), strings.TrimSpace(sb.String())
}

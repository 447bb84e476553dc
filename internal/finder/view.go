package finder

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/starford/studydesk/internal/models"
	"github.com/starford/studydesk/internal/search"
)

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(inputStyle.Render(m.input.View()))
	b.WriteString("\n")

	switch {
	case m.resp.Prompt:
		b.WriteString(emptyStyle.Render("Start typing to search your study material."))
	case len(m.resp.Results) == 0:
		b.WriteString(emptyStyle.Render("No results for " + `"` + m.resp.Query + `"`))
	default:
		rows := make([]string, len(m.resp.Results))
		for i, r := range m.resp.Results {
			rows[i] = m.renderRow(r, i == m.cursor.Index())
		}
		b.WriteString(lipgloss.JoinVertical(lipgloss.Left, rows...))
	}

	b.WriteString(helpStyle.Render("\n↑/↓ move • enter open • esc close"))
	return appStyle.Render(b.String())
}

func (m Model) renderRow(r search.Result, selected bool) string {
	line := kindStyle.Render(string(r.Kind)) + highlight(r.Title, m.resp.Query)
	if r.Subtitle != "" {
		line += subtitleStyle.Render("  " + r.Subtitle)
	}
	if r.Excerpt != "" {
		line += "\n" + strings.Repeat(" ", 9) + subtitleStyle.Render(highlight(r.Excerpt, m.resp.Query))
	}
	if selected {
		return selectedRowStyle.Render(line)
	}
	return rowStyle.Render(line)
}

func highlight(text, query string) string {
	var b strings.Builder
	for _, s := range search.Highlight(text, query) {
		if s.Match {
			b.WriteString(matchStyle.Render(s.Text))
			continue
		}
		b.WriteString(s.Text)
	}
	return b.String()
}

// Plain renders a result without styling, with matches wrapped in brackets.
func Plain(r search.Result, query string) string {
	line := string(r.Kind) + "\t" + search.Mark(r.Title, query, "[", "]")
	if r.Excerpt != "" {
		line += "\t" + search.Mark(r.Excerpt, query, "[", "]")
	}
	return line
}

// Print writes the results for query in Plain form, one per line, and returns
// how many were written.
func Print(out io.Writer, corpus models.Corpus, query string) int {
	results := search.Search(query, corpus)
	for _, r := range results {
		fmt.Fprintln(out, Plain(r, query))
	}
	return len(results)
}

// Package search implements the global incremental search over a user's
// notes, mind maps and tags.
//
// Results come back in discovery order (each note followed by its matching
// keywords, then mind maps, then tags) and are capped by truncation. There is
// no relevance scoring.
package search

import (
	"fmt"

	"github.com/samber/lo"

	"github.com/starford/studydesk/internal/models"
)

// MaxResults caps the result list.
const MaxResults = 10

// Kind discriminates result entities.
type Kind string

const (
	KindNote    Kind = "cornell"
	KindKeyword Kind = "keyword"
	KindMindMap Kind = "mindmap"
	KindTag     Kind = "tag"
)

// Navigation targets.
const (
	TargetNotes    = "/cornell"
	TargetMindMaps = "/mindmap"
	TargetHome     = "/"
)

// Result is one search hit.
type Result struct {
	ID       string `json:"id"`
	Kind     Kind   `json:"kind"`
	Title    string `json:"title"`
	Subtitle string `json:"subtitle,omitempty"`
	Excerpt  string `json:"excerpt,omitempty"`
	Target   string `json:"target"`
}

// Response is what a search dialog renders for one query. Prompt is true for a
// blank query, where the dialog shows its prompt rather than "no results".
type Response struct {
	Query   string   `json:"query"`
	Prompt  bool     `json:"prompt"`
	Results []Result `json:"results"`
}

// Run searches corpus and wraps the outcome for display.
func Run(query string, corpus models.Corpus) Response {
	m := newMatcher(query)
	return Response{
		Query:   query,
		Prompt:  m.empty(),
		Results: Search(query, corpus),
	}
}

// Search returns up to MaxResults hits for query in corpus. A blank query
// returns an empty, non-nil slice.
func Search(query string, corpus models.Corpus) []Result {
	m := newMatcher(query)
	if m.empty() {
		return []Result{}
	}
	c := collector{out: []Result{}, seen: make(map[resultKey]struct{})}

	for _, n := range corpus.Notes {
		if c.full() {
			break
		}
		searchNote(m, n, &c)
	}
	for _, mm := range corpus.MindMaps {
		if c.full() {
			break
		}
		searchMindMap(m, mm, &c)
	}
	for _, t := range corpus.Tags {
		if c.full() {
			break
		}
		if !m.contains(t.Name) {
			continue
		}
		used := lo.CountBy(corpus.Notes, func(n models.CornellNote) bool {
			return lo.ContainsBy(n.Tags, func(nt models.Tag) bool { return nt.ID == t.ID })
		})
		c.add(Result{
			ID:       t.ID,
			Kind:     KindTag,
			Title:    t.Name,
			Subtitle: fmt.Sprintf("Tag used in %d note(s)", used),
			Target:   TargetHome,
		})
	}
	return c.out
}

// searchNote emits the note when its own text matches, followed by each
// matching keyword. A note matched only through keywords is represented by
// those keyword results.
func searchNote(m matcher, n models.CornellNote, c *collector) {
	titleMatch := m.contains(n.Title)
	summaryExcerpt, summaryMatch := m.excerpt(n.Summary)
	notesExcerpt, notesMatch := m.excerpt(n.MainNotes)

	if titleMatch || summaryMatch || notesMatch {
		r := Result{
			ID:       n.ID,
			Kind:     KindNote,
			Title:    n.Title,
			Subtitle: n.Date,
			Target:   TargetNotes,
		}
		if !titleMatch {
			if summaryMatch {
				r.Excerpt = summaryExcerpt
			} else {
				r.Excerpt = notesExcerpt
			}
		}
		c.add(r)
	}

	for _, k := range n.Keywords {
		if !m.contains(k.Text) {
			continue
		}
		c.add(Result{
			ID:       n.ID + "-" + k.ID,
			Kind:     KindKeyword,
			Title:    k.Text,
			Subtitle: "Keyword in: " + n.Title,
			Target:   TargetNotes,
		})
	}
}

func searchMindMap(m matcher, mm models.MindMap, c *collector) {
	titleMatch := m.contains(mm.Title)
	centralMatch := m.contains(mm.CentralConcept)
	node, nodeMatch := lo.Find(mm.Nodes, func(n models.MindMapNode) bool { return m.contains(n.Text) })
	if !titleMatch && !centralMatch && !nodeMatch {
		return
	}

	title := mm.Title
	if title == "" {
		title = "Mind map"
	}
	r := Result{
		ID:       mm.ID,
		Kind:     KindMindMap,
		Title:    title,
		Subtitle: "Central concept: " + mm.CentralConcept,
		Target:   TargetMindMaps,
	}
	if nodeMatch && !titleMatch {
		r.Excerpt = `Node: "` + node.Text + `"`
	}
	c.add(r)
}

type resultKey struct {
	kind Kind
	id   string
}

// collector accumulates results in discovery order, dropping duplicates and
// anything past MaxResults.
type collector struct {
	out  []Result
	seen map[resultKey]struct{}
}

func (c *collector) full() bool { return len(c.out) >= MaxResults }

func (c *collector) add(r Result) {
	if c.full() {
		return
	}
	k := resultKey{r.Kind, r.ID}
	if _, dup := c.seen[k]; dup {
		return
	}
	c.seen[k] = struct{}{}
	c.out = append(c.out, r)
}

package search

import "strings"

// Segment is a run of text that either matches the query or does not.
type Segment struct {
	Text  string `json:"text"`
	Match bool   `json:"match"`
}

// Highlight splits text into segments, flagging every case-insensitive
// occurrence of the trimmed query. A blank query yields the whole text as a
// single unmatched segment.
func Highlight(text, query string) []Segment {
	if text == "" {
		return nil
	}
	ranges := newMatcher(query).ranges(text)
	if len(ranges) == 0 {
		return []Segment{{Text: text}}
	}

	runes := []rune(text)
	var out []Segment
	pos := 0
	for _, r := range ranges {
		if r.Start > pos {
			out = append(out, Segment{Text: string(runes[pos:r.Start])})
		}
		out = append(out, Segment{Text: string(runes[r.Start:r.End]), Match: true})
		pos = r.End
	}
	if pos < len(runes) {
		out = append(out, Segment{Text: string(runes[pos:])})
	}
	return out
}

// Mark renders text with every match wrapped in before and after.
func Mark(text, query, before, after string) string {
	var b strings.Builder
	for _, s := range Highlight(text, query) {
		if s.Match {
			b.WriteString(before)
			b.WriteString(s.Text)
			b.WriteString(after)
			continue
		}
		b.WriteString(s.Text)
	}
	return b.String()
}

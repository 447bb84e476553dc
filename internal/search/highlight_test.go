package search

import (
	"reflect"
	"testing"
)

func TestHighlight(t *testing.T) {
	got := Highlight("Osso e ossos: OSSO", "osso")
	want := []Segment{
		{Text: "Osso", Match: true},
		{Text: " e "},
		{Text: "osso", Match: true},
		{Text: "s: "},
		{Text: "OSSO", Match: true},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Highlight = %+v, want %+v", got, want)
	}
}

func TestHighlightBlankQuery(t *testing.T) {
	got := Highlight("Anatomia", "  ")
	if len(got) != 1 || got[0].Match || got[0].Text != "Anatomia" {
		t.Errorf("Highlight = %+v", got)
	}
	if Highlight("", "x") != nil {
		t.Errorf("empty text should give no segments")
	}
}

func TestMark(t *testing.T) {
	got := Mark("Mitocôndria na célula", "MITOCÔNDRIA", "[", "]")
	if got != "[Mitocôndria] na célula" {
		t.Errorf("Mark = %q", got)
	}
	if got := Mark("a.b", ".", "<", ">"); got != "a<.>b" {
		t.Errorf("query treated as pattern: %q", got)
	}
}

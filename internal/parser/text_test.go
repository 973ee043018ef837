package parser

import (
	"strings"
	"testing"
)

func TestTextParser_Paragraphs(t *testing.T) {
	input := "陆羽著《茶经》三卷。\n凡十章。\n\n一之源，二之具。\r\n\n三之造。"
	doc, err := (&TextParser{}).Parse(strings.NewReader(input), "readings/chajing.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if doc.Title != "chajing" {
		t.Errorf("expected title %q, got %q", "chajing", doc.Title)
	}
	if doc.Source != "chajing.txt" || doc.Format != "txt" {
		t.Errorf("unexpected source/format %q/%q", doc.Source, doc.Format)
	}
	want := []string{"陆羽著《茶经》三卷。\n凡十章。", "一之源，二之具。", "三之造。"}
	if len(doc.Sections) != len(want) {
		t.Fatalf("expected %d sections, got %d", len(want), len(doc.Sections))
	}
	for i, w := range want {
		if doc.Sections[i].Text != w {
			t.Errorf("section[%d]: expected %q, got %q", i, w, doc.Sections[i].Text)
		}
	}
}

func TestTextParser_EmptyInput(t *testing.T) {
	doc, err := (&TextParser{}).Parse(strings.NewReader(""), "empty.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(doc.Sections) != 0 {
		t.Errorf("expected 0 sections, got %d", len(doc.Sections))
	}
}

func TestTextParser_WhitespaceOnlyLinesSplit(t *testing.T) {
	doc, err := (&TextParser{}).Parse(strings.NewReader("一\n   \n\n\n二"), "ws.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(doc.Sections) != 2 {
		t.Fatalf("expected 2 sections, got %d", len(doc.Sections))
	}
}

func TestForFile(t *testing.T) {
	for _, name := range []string{"a.txt", "b.MD", "c.markdown", "d.htm", "e.pdf", "f.docx"} {
		if _, err := ForFile(name, Options{}); err != nil {
			t.Errorf("ForFile(%q): unexpected error %v", name, err)
		}
	}
	if _, err := ForFile("prices.csv", Options{}); err == nil {
		t.Error("expected csv to be rejected as a reading")
	}
	if IsSupported("notes.xlsx") {
		t.Error("expected xlsx to be unsupported")
	}
}

package doctree

import "strings"

// Document is a long-form reading-room text broken into headed sections.
type Document struct {
	Title    string     `json:"title"`
	Source   string     `json:"source"` // file name inside the readings directory
	Format   string     `json:"format"` // txt, md, html, pdf, docx
	Sections []*Section `json:"sections"`
}

// Section is one heading and the text beneath it. Nested headings become Children.
type Section struct {
	Heading  string     `json:"heading,omitempty"`
	Text     string     `json:"text,omitempty"`
	Page     int        `json:"page,omitempty"`
	Children []*Section `json:"children,omitempty"`
}

// Walk visits every section depth-first with its heading trail.
func (d *Document) Walk(fn func(s *Section, trail []string)) {
	var visit func(s *Section, trail []string)
	visit = func(s *Section, trail []string) {
		if s.Heading != "" {
			trail = append(trail[:len(trail):len(trail)], s.Heading)
		}
		fn(s, trail)
		for _, c := range s.Children {
			visit(c, trail)
		}
	}
	for _, s := range d.Sections {
		visit(s, nil)
	}
}

// PlainText joins all section text in reading order.
func (d *Document) PlainText() string {
	var parts []string
	d.Walk(func(s *Section, _ []string) {
		if s.Text != "" {
			parts = append(parts, s.Text)
		}
	})
	return strings.Join(parts, "\n\n")
}

// Outline builds a heading tree with a stack of open sections, the same way
// for every format that has numbered heading levels.
type Outline struct {
	root    *Section
	stack   []outlineEntry
	pending strings.Builder
}

type outlineEntry struct {
	sec   *Section
	level int
}

func NewOutline() *Outline {
	root := &Section{}
	return &Outline{root: root, stack: []outlineEntry{{sec: root, level: 0}}}
}

// Heading closes pending text and opens a section at level (1 = top).
func (o *Outline) Heading(level int, title string) {
	o.flush()
	sec := &Section{Heading: title}
	for len(o.stack) > 1 && o.stack[len(o.stack)-1].level >= level {
		o.stack = o.stack[:len(o.stack)-1]
	}
	parent := o.stack[len(o.stack)-1].sec
	parent.Children = append(parent.Children, sec)
	o.stack = append(o.stack, outlineEntry{sec: sec, level: level})
}

// Paragraph appends a block of body text to the innermost open section.
func (o *Outline) Paragraph(text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	if o.pending.Len() > 0 {
		o.pending.WriteString("\n\n")
	}
	o.pending.WriteString(text)
}

func (o *Outline) flush() {
	t := strings.TrimSpace(o.pending.String())
	o.pending.Reset()
	if t == "" {
		return
	}
	top := o.stack[len(o.stack)-1].sec
	if top.Text != "" {
		top.Text += "\n\n" + t
	} else {
		top.Text = t
	}
}

// Sections finishes the outline. Text before the first heading becomes a
// leading untitled section.
func (o *Outline) Sections() []*Section {
	o.flush()
	var out []*Section
	if o.root.Text != "" {
		out = append(out, &Section{Text: o.root.Text})
	}
	return append(out, o.root.Children...)
}

package models

import (
	"fmt"
	"strings"
)

// SegmentKind distinguishes literal template text from user-fillable slots
type SegmentKind string

const (
	SegmentStatic SegmentKind = "static"
	SegmentInput  SegmentKind = "input"
)

// Segment is one static-text or placeholder unit of a tokenized template
type Segment struct {
	Kind        SegmentKind `json:"kind" yaml:"kind"`
	Text        string      `json:"text,omitempty" yaml:"text,omitempty"`               // Literal content, empty for inputs
	Placeholder string      `json:"placeholder,omitempty" yaml:"placeholder,omitempty"` // Bracket label, inputs only
	Sentence    int         `json:"sentence" yaml:"sentence"`
}

// IsInput reports whether the segment is a placeholder slot
func (s Segment) IsInput() bool {
	return s.Kind == SegmentInput
}

// Bracketed returns the placeholder in its original "[name]" form
func (s Segment) Bracketed() string {
	return "[" + s.Placeholder + "]"
}

// SentenceGroup is a paragraph-level run of segments sharing one sentence index.
// A group always holds at least one segment.
type SentenceGroup struct {
	Index    int       `json:"index" yaml:"index"`
	Segments []Segment `json:"segments" yaml:"segments"`
}

// HasInputs reports whether the sentence contains at least one placeholder
func (g SentenceGroup) HasInputs() bool {
	for _, seg := range g.Segments {
		if seg.IsInput() {
			return true
		}
	}
	return false
}

// RawTemplate is a catalogue template before tokenization
type RawTemplate struct {
	ID      string `json:"id" yaml:"id"`
	NodeID  string `json:"node_id" yaml:"node"`
	Name    string `json:"title" yaml:"title"`
	Summary string `json:"description,omitempty" yaml:"description,omitempty"`
	Content string `json:"content" yaml:"content,omitempty"`

	FilePath string `json:"-" yaml:"-"` // Source file when loaded from a catalogue directory
}

// ParsedTemplate is a template together with its derived segments. Templates are
// immutable configuration, so the segments are computed once at catalogue load.
type ParsedTemplate struct {
	RawTemplate `yaml:",inline"`

	Segments  []Segment       `json:"segments" yaml:"-"`
	Sentences []SentenceGroup `json:"sentences" yaml:"-"`
}

// Placeholders returns the distinct placeholder names in first-seen order
func (t *ParsedTemplate) Placeholders() []string {
	seen := make(map[string]bool)
	var names []string
	for _, seg := range t.Segments {
		if !seg.IsInput() || seen[seg.Placeholder] {
			continue
		}
		seen[seg.Placeholder] = true
		names = append(names, seg.Placeholder)
	}
	return names
}

// InputKey builds the input store key for a template placeholder. The key alone
// is ambiguous when ids contain '-': ("a-b", "c") and ("a", "b-c") both give
// "a-b-c". Readers that need the owner go through the store, which records it.
func InputKey(templateID, placeholder string) string {
	return templateID + "-" + placeholder
}

// InputKeyPrefix is the prefix shared by every input key of a template
func InputKeyPrefix(templateID string) string {
	return templateID + "-"
}

// Implement list.Item interface for bubbles list component

// FilterValue returns the value used for filtering in lists
func (t ParsedTemplate) FilterValue() string {
	return cleanString(t.Name + " " + t.ID)
}

// Title satisfies the list.Item interface
func (t ParsedTemplate) Title() string {
	if t.Name != "" {
		return cleanString(t.Name)
	}
	return cleanString(t.ID)
}

// Description satisfies the list.Item interface
func (t ParsedTemplate) Description() string {
	var parts []string
	if summary := truncate(cleanString(t.Summary), 60); summary != "" {
		parts = append(parts, summary)
	}

	switch n := len(t.Placeholders()); n {
	case 0:
	case 1:
		parts = append(parts, "1 field")
	default:
		parts = append(parts, fmt.Sprintf("%d fields", n))
	}

	return truncate(strings.Join(parts, " • "), 100)
}

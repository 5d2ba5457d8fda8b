package models

import "testing"

func TestParseStage(t *testing.T) {
	if s, ok := ParseStage(" Planning "); !ok || s != StagePlanning {
		t.Errorf("Expected planning, got %q (%v)", s, ok)
	}
	if _, ok := ParseStage("release"); ok {
		t.Error("release should not be a valid stage")
	}
}

func TestTemplateDescription(t *testing.T) {
	tmpl := ParsedTemplate{
		RawTemplate: RawTemplate{ID: "x", Summary: "Short\nsummary"},
		Segments: []Segment{
			{Kind: SegmentInput, Placeholder: "a"},
			{Kind: SegmentStatic, Text: " "},
			{Kind: SegmentInput, Placeholder: "b"},
			{Kind: SegmentInput, Placeholder: "a"},
		},
	}

	if got := tmpl.Description(); got != "Short summary • 2 fields" {
		t.Errorf("Unexpected description %q", got)
	}
	if got := tmpl.Title(); got != "x" {
		t.Errorf("Title should fall back to the id, got %q", got)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("abcdefghij", 6); got != "abc..." {
		t.Errorf("Unexpected truncation %q", got)
	}
	if got := truncate("héllo", 10); got != "héllo" {
		t.Errorf("Short strings should be unchanged, got %q", got)
	}
}

func TestInputKey(t *testing.T) {
	if got := InputKey("code-review", "file"); got != "code-review-file" {
		t.Errorf("Unexpected key %q", got)
	}
}

func TestStageTitle(t *testing.T) {
	if got := StageImplementation.Title(); got != "Implementation" {
		t.Errorf("Title() = %q", got)
	}
}

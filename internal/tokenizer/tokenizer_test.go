package tokenizer

import (
	"strings"
	"testing"

	"github.com/dpshade/pocket-nodes/internal/models"
)

// reassemble rebuilds content from segments, joining sentences with a blank line
func reassemble(groups []models.SentenceGroup) string {
	var sentences []string
	for _, g := range groups {
		var b strings.Builder
		for _, seg := range g.Segments {
			if seg.IsInput() {
				b.WriteString(seg.Bracketed())
			} else {
				b.WriteString(seg.Text)
			}
		}
		sentences = append(sentences, b.String())
	}
	return strings.Join(sentences, "\n\n")
}

func TestTokenizeSingleSentence(t *testing.T) {
	groups := Tokenize("Hello [name], welcome to [place].")

	if len(groups) != 1 {
		t.Fatalf("Expected 1 sentence, got %d", len(groups))
	}

	expected := []models.Segment{
		{Kind: models.SegmentStatic, Text: "Hello ", Sentence: 0},
		{Kind: models.SegmentInput, Placeholder: "name", Sentence: 0},
		{Kind: models.SegmentStatic, Text: ", welcome to ", Sentence: 0},
		{Kind: models.SegmentInput, Placeholder: "place", Sentence: 0},
		{Kind: models.SegmentStatic, Text: ".", Sentence: 0},
	}

	segments := groups[0].Segments
	if len(segments) != len(expected) {
		t.Fatalf("Expected %d segments, got %d: %+v", len(expected), len(segments), segments)
	}
	for i := range expected {
		if segments[i] != expected[i] {
			t.Errorf("Segment %d: expected %+v, got %+v", i, expected[i], segments[i])
		}
	}
}

func TestTokenizeParagraphs(t *testing.T) {
	groups := Tokenize("First [a].\n\n\n  Second [b] here.  \n\n")

	if len(groups) != 2 {
		t.Fatalf("Expected 2 sentences, got %d", len(groups))
	}
	if groups[0].Index != 0 || groups[1].Index != 1 {
		t.Errorf("Unexpected sentence indices: %d, %d", groups[0].Index, groups[1].Index)
	}
	for _, seg := range groups[1].Segments {
		if seg.Sentence != 1 {
			t.Errorf("Segment %+v should belong to sentence 1", seg)
		}
	}
	if groups[1].Segments[0].Text != "Second " {
		t.Errorf("Expected trimmed sentence start, got %q", groups[1].Segments[0].Text)
	}
}

func TestTokenizeSingleNewlineStaysInSentence(t *testing.T) {
	groups := Tokenize("line one\nline [two]")

	if len(groups) != 1 {
		t.Fatalf("Expected 1 sentence, got %d", len(groups))
	}
	if groups[0].Segments[0].Text != "line one\nline " {
		t.Errorf("Unexpected static text %q", groups[0].Segments[0].Text)
	}
}

func TestTokenizeCRLF(t *testing.T) {
	groups := Tokenize("One [x].\r\n\r\nTwo.")
	if len(groups) != 2 {
		t.Fatalf("Expected 2 sentences, got %d", len(groups))
	}
}

func TestTokenizeLiteralBrackets(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"empty brackets", "Keep [] as text"},
		{"unclosed", "Open [bracket without close"},
		{"stray close", "Close] only"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			groups := Tokenize(tt.content)
			if len(groups) != 1 || len(groups[0].Segments) != 1 {
				t.Fatalf("Expected a single static segment, got %+v", groups)
			}
			seg := groups[0].Segments[0]
			if seg.IsInput() || seg.Text != tt.content {
				t.Errorf("Expected static %q, got %+v", tt.content, seg)
			}
		})
	}
}

func TestTokenizeAdjacentPlaceholders(t *testing.T) {
	groups := Tokenize("[a][b]")
	if len(groups) != 1 || len(groups[0].Segments) != 2 {
		t.Fatalf("Expected two input segments, got %+v", groups)
	}
	if groups[0].Segments[0].Placeholder != "a" || groups[0].Segments[1].Placeholder != "b" {
		t.Errorf("Unexpected placeholders %+v", groups[0].Segments)
	}
}

func TestTokenizeEmpty(t *testing.T) {
	for _, content := range []string{"", "   ", "\n\n\n"} {
		if groups := Tokenize(content); len(groups) != 0 {
			t.Errorf("Expected no sentences for %q, got %d", content, len(groups))
		}
	}
}

func TestTokenizeRoundTrip(t *testing.T) {
	contents := []string{
		"Hello [name], welcome to [place].",
		"Describe [feature].\n\nUse [language] and [framework].",
		"No placeholders here.\n\nStill [] none.",
	}

	for _, content := range contents {
		rebuilt := reassemble(Tokenize(content))
		if rebuilt != content {
			t.Errorf("Round trip mismatch:\nwant %q\ngot  %q", content, rebuilt)
		}

		// Tokenizing again must give the same result
		again := reassemble(Tokenize(rebuilt))
		if again != rebuilt {
			t.Errorf("Tokenize is not idempotent for %q", content)
		}
	}
}

func TestParseAndPlaceholders(t *testing.T) {
	tmpl := Parse(models.RawTemplate{
		ID:      "greet",
		NodeID:  "greet",
		Content: "Hi [name].\n\nBye [name], see you in [place].",
	})

	if len(tmpl.Sentences) != 2 {
		t.Fatalf("Expected 2 sentences, got %d", len(tmpl.Sentences))
	}
	if len(tmpl.Segments) != 8 {
		t.Errorf("Expected 8 flattened segments, got %d", len(tmpl.Segments))
	}

	S, I := models.SegmentStatic, models.SegmentInput
	wantKinds := [][]models.SegmentKind{
		{S, I, S},
		{S, I, S, I, S},
	}
	for i, g := range tmpl.Sentences {
		if len(g.Segments) != len(wantKinds[i]) {
			t.Errorf("Sentence %d: expected %d segments, got %d", i, len(wantKinds[i]), len(g.Segments))
			continue
		}
		for j, seg := range g.Segments {
			if seg.Kind != wantKinds[i][j] || seg.Sentence != i {
				t.Errorf("Sentence %d segment %d = %+v, want kind %s", i, j, seg, wantKinds[i][j])
			}
		}
	}

	names := Placeholders(tmpl.Content)
	if len(names) != 2 || names[0] != "name" || names[1] != "place" {
		t.Errorf("Unexpected placeholders %v", names)
	}
}

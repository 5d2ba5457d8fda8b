package renderer

import (
	"encoding/json"
	"reflect"
	"testing"

	"github.com/dpshade/pocket-nodes/internal/models"
	"github.com/dpshade/pocket-nodes/internal/tokenizer"
)

func testTemplate(content string) *models.ParsedTemplate {
	return tokenizer.Parse(models.RawTemplate{ID: "t", NodeID: "n", Content: content})
}

func TestRenderPreserve(t *testing.T) {
	tmpl := testTemplate("Hello [name], welcome to [place].")

	tests := []struct {
		name   string
		inputs map[string]string
		want   string
	}{
		{"no inputs", nil, "Hello [name], welcome to [place]."},
		{"partial", map[string]string{"t-name": "Ada"}, "Hello Ada, welcome to [place]."},
		{"whitespace is unfilled", map[string]string{"t-name": "   "}, "Hello [name], welcome to [place]."},
		{"trimmed", map[string]string{"t-name": " Ada ", "t-place": "Paris\n"}, "Hello Ada, welcome to Paris."},
		{"other template ignored", map[string]string{"other-name": "Bob"}, "Hello [name], welcome to [place]."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Render(tmpl, tt.inputs, PolicyPreserve)
			if got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestRenderPreserveJoinsWithBlankLine(t *testing.T) {
	tmpl := testTemplate("First [a].\n\nSecond.")
	got := Render(tmpl, map[string]string{"t-a": "x"}, PolicyPreserve)
	if got != "First x.\n\nSecond." {
		t.Errorf("Unexpected render %q", got)
	}
}

func TestRenderCompleteOnly(t *testing.T) {
	tmpl := testTemplate("Build [feature].\n\nUse [language] with [framework].\n\nKeep it simple.")

	got := Render(tmpl, map[string]string{"t-feature": "login", "t-language": "Go"}, PolicyCompleteOnly)
	want := "Build login.\nKeep it simple."
	if got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}

	got = Render(tmpl, map[string]string{
		"t-feature":   "login",
		"t-language":  "Go",
		"t-framework": "bubbletea",
	}, PolicyCompleteOnly)
	want = "Build login.\nUse Go with bubbletea.\nKeep it simple."
	if got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
}

func TestRenderCompleteOnlyNothingFilled(t *testing.T) {
	tmpl := testTemplate("Only [x].")
	if got := Render(tmpl, nil, PolicyCompleteOnly); got != "" {
		t.Errorf("Expected empty output, got %q", got)
	}
}

func TestRenderEmptyTemplate(t *testing.T) {
	if got := Render(nil, nil, PolicyPreserve); got != "" {
		t.Errorf("Expected empty output for nil template, got %q", got)
	}
	if got := Render(testTemplate("   "), nil, PolicyPreserve); got != "" {
		t.Errorf("Expected empty output for blank template, got %q", got)
	}
}

func TestRenderRepeatedPlaceholder(t *testing.T) {
	tmpl := testTemplate("[x] and [x]")
	if got := Render(tmpl, map[string]string{"t-x": "y"}, PolicyPreserve); got != "y and y" {
		t.Errorf("Unexpected render %q", got)
	}
}

func TestParsePolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    Policy
		wantErr bool
	}{
		{"", PolicyPreserve, false},
		{"Preserve", PolicyPreserve, false},
		{"complete", PolicyCompleteOnly, false},
		{"complete-only", PolicyCompleteOnly, false},
		{"strict", "", true},
	}

	for _, tt := range tests {
		got, err := ParsePolicy(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParsePolicy(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParsePolicy(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}

	if PolicyPreserve.Toggle() != PolicyCompleteOnly || PolicyCompleteOnly.Toggle() != PolicyPreserve {
		t.Error("Toggle should switch between the two policies")
	}
}

func TestProgress(t *testing.T) {
	tmpl := testTemplate("[a] [b] [a]")
	filled, total := Progress(tmpl, map[string]string{"t-a": "1"})
	if filled != 1 || total != 2 {
		t.Errorf("Expected 1/2, got %d/%d", filled, total)
	}
}

func TestRenderJSON(t *testing.T) {
	r := NewRenderer(testTemplate("Hi [name]."), PolicyPreserve)
	out, err := r.RenderJSON(map[string]string{"t-name": "Ada"})
	if err != nil {
		t.Fatalf("RenderJSON failed: %v", err)
	}

	var messages []Message
	if err := json.Unmarshal([]byte(out), &messages); err != nil {
		t.Fatalf("Output is not valid JSON: %v", err)
	}
	if len(messages) != 1 || messages[0].Role != "user" || messages[0].Content != "Hi Ada." {
		t.Errorf("Unexpected messages %+v", messages)
	}
}

func TestRenderPreserveRoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string // content with line endings and blank lines normalised
	}{
		{"single sentence", "Hello [name], welcome to [place].", "Hello [name], welcome to [place]."},
		{"crlf", "Describe [feature].\r\n\r\nUse [language] and [framework].", "Describe [feature].\n\nUse [language] and [framework]."},
		{"extra blank lines", "a [x]\n\n\n b [y] [] [[z]] ]", "a [x]\n\nb [y] [] [[z]] ]"},
		{"unmatched brackets", "Unmatched [ bracket\n\nand ] here", "Unmatched [ bracket\n\nand ] here"},
		{"empty brackets only", "[]\n\n\n\n  trailing  \n", "[]\n\ntrailing"},
		{"repeated placeholder", "Hi [name].\n\nBye [name].", "Hi [name].\n\nBye [name]."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpl := testTemplate(tt.content)

			// every placeholder filled with its own bracket text
			inputs := make(map[string]string)
			for _, name := range tmpl.Placeholders() {
				inputs[models.InputKey(tmpl.ID, name)] = "[" + name + "]"
			}
			if got := Render(tmpl, inputs, PolicyPreserve); got != tt.want {
				t.Errorf("Filled render = %q, want %q", got, tt.want)
			}

			// an unfilled render tokenizes back to the same groups
			out := Render(tmpl, nil, PolicyPreserve)
			if out != tt.want {
				t.Errorf("Unfilled render = %q, want %q", out, tt.want)
			}
			if again := tokenizer.Tokenize(out); !reflect.DeepEqual(again, tokenizer.Tokenize(tt.content)) {
				t.Errorf("Tokenize(render) = %+v, want %+v", again, tokenizer.Tokenize(tt.content))
			}
		})
	}
}

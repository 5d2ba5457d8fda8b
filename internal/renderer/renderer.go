package renderer

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dpshade/pocket-nodes/internal/models"
)

// Policy decides how partially filled templates become output text
type Policy string

const (
	// PolicyPreserve keeps every sentence and falls back to "[placeholder]" for
	// unfilled slots. Sentences are separated by a blank line.
	PolicyPreserve Policy = "preserve"

	// PolicyCompleteOnly drops every sentence with an unfilled slot. Sentences are
	// separated by a single newline.
	PolicyCompleteOnly Policy = "complete"
)

// DefaultPolicy is used when nothing else is configured
const DefaultPolicy = PolicyPreserve

// Policies lists the accepted policy spellings
var Policies = []string{"preserve", "complete", "complete-only"}

// ParsePolicy converts user input to a Policy
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "preserve":
		return PolicyPreserve, nil
	case "complete", "complete-only", "complete_only":
		return PolicyCompleteOnly, nil
	default:
		return "", fmt.Errorf("unknown render policy %q (use preserve or complete)", s)
	}
}

// String returns the display name of the policy
func (p Policy) String() string {
	if p == PolicyCompleteOnly {
		return "complete-only"
	}
	return "preserve"
}

// Separator returns the text placed between rendered sentences
func (p Policy) Separator() string {
	if p == PolicyCompleteOnly {
		return "\n"
	}
	return "\n\n"
}

// Toggle returns the other policy
func (p Policy) Toggle() Policy {
	if p == PolicyCompleteOnly {
		return PolicyPreserve
	}
	return PolicyCompleteOnly
}

// value returns the trimmed stored input for a placeholder
func value(templateID, placeholder string, inputs map[string]string) string {
	return strings.TrimSpace(inputs[models.InputKey(templateID, placeholder)])
}

// SentenceComplete reports whether every placeholder of the sentence has a
// non-blank value. Sentences without placeholders are always complete.
func SentenceComplete(templateID string, sentence models.SentenceGroup, inputs map[string]string) bool {
	for _, seg := range sentence.Segments {
		if seg.IsInput() && value(templateID, seg.Placeholder, inputs) == "" {
			return false
		}
	}
	return true
}

// Progress counts the filled and total distinct placeholders of a template
func Progress(tmpl *models.ParsedTemplate, inputs map[string]string) (filled, total int) {
	if tmpl == nil {
		return 0, 0
	}
	for _, name := range tmpl.Placeholders() {
		total++
		if value(tmpl.ID, name, inputs) != "" {
			filled++
		}
	}
	return filled, total
}

// Render reassembles a template from its sentence groups and the given inputs.
// Missing inputs are treated as unfilled; it never fails.
func Render(tmpl *models.ParsedTemplate, inputs map[string]string, policy Policy) string {
	if tmpl == nil || len(tmpl.Sentences) == 0 {
		return ""
	}

	var sentences []string
	for _, sentence := range tmpl.Sentences {
		if policy == PolicyCompleteOnly && !SentenceComplete(tmpl.ID, sentence, inputs) {
			continue
		}

		var b strings.Builder
		for _, seg := range sentence.Segments {
			if !seg.IsInput() {
				b.WriteString(seg.Text)
				continue
			}
			if v := value(tmpl.ID, seg.Placeholder, inputs); v != "" {
				b.WriteString(v)
			} else {
				b.WriteString(seg.Bracketed())
			}
		}
		sentences = append(sentences, b.String())
	}

	return strings.Join(sentences, policy.Separator())
}

// Renderer handles template rendering under a fixed policy
type Renderer struct {
	template *models.ParsedTemplate
	policy   Policy
}

// NewRenderer creates a new renderer instance
func NewRenderer(tmpl *models.ParsedTemplate, policy Policy) *Renderer {
	return &Renderer{
		template: tmpl,
		policy:   policy,
	}
}

// RenderText renders the template as plain text
func (r *Renderer) RenderText(inputs map[string]string) string {
	return Render(r.template, inputs, r.policy)
}

// RenderJSON renders the template as a JSON message array for LLM APIs
func (r *Renderer) RenderJSON(inputs map[string]string) (string, error) {
	messages := []Message{
		{
			Role:    "user",
			Content: r.RenderText(inputs),
		},
	}

	jsonBytes, err := json.MarshalIndent(messages, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal to JSON: %w", err)
	}

	return string(jsonBytes), nil
}

// Message represents a chat message for LLM APIs
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

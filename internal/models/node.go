package models

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// IDPattern matches node and template ids. Ids end up in CLI arguments, MCP
// tool arguments and input keys, so they are restricted to one path segment.
var IDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// ValidID reports whether id is usable as a node or template id
func ValidID(id string) bool {
	return IDPattern.MatchString(id)
}

// Stage is the workflow phase a project node belongs to
type Stage string

const (
	StagePlanning       Stage = "planning"
	StageImplementation Stage = "implementation"
	StageMaintenance    Stage = "maintenance"
)

// Stages lists every stage in workflow order
var Stages = []Stage{StagePlanning, StageImplementation, StageMaintenance}

// Valid reports whether s is one of the known stages
func (s Stage) Valid() bool {
	for _, known := range Stages {
		if s == known {
			return true
		}
	}
	return false
}

// Title returns the display name of the stage
func (s Stage) Title() string {
	return cases.Title(language.English).String(string(s))
}

// ParseStage converts user input into a Stage (case-insensitive)
func ParseStage(s string) (Stage, bool) {
	stage := Stage(strings.ToLower(strings.TrimSpace(s)))
	return stage, stage.Valid()
}

// Category groups nodes by the kind of engineering task they cover
type Category string

const (
	CategoryCodeGeneration Category = "code-generation"
	CategoryCodeReview     Category = "code-review"
	CategoryDatabaseDesign Category = "database-design"
	CategoryDocumentation  Category = "documentation"
	CategoryTesting        Category = "testing"
	CategorySecurity       Category = "security"
	CategoryOptimization   Category = "optimization"
	CategoryVersionControl Category = "version-control"
)

// Node is a named step in the guided workflow owning one or more templates
type Node struct {
	ID            string   `json:"id" yaml:"id"`
	Stage         Stage    `json:"stage" yaml:"stage"`
	Category      Category `json:"category,omitempty" yaml:"category,omitempty"`
	Name          string   `json:"title" yaml:"title"`
	Summary       string   `json:"description,omitempty" yaml:"description,omitempty"`
	DefaultPrompt string   `json:"default_prompt,omitempty" yaml:"default_prompt,omitempty"`
	ParentID      string   `json:"parent_id,omitempty" yaml:"parent,omitempty"`
}

// Implement list.Item interface for bubbles list component

// FilterValue returns the value used for filtering in lists
func (n Node) FilterValue() string {
	return cleanString(n.Name + " " + n.ID)
}

// Title satisfies the list.Item interface
func (n Node) Title() string {
	if n.Name != "" {
		return cleanString(n.Name)
	}
	return cleanString(n.ID)
}

// Description satisfies the list.Item interface
func (n Node) Description() string {
	var parts []string
	if summary := truncate(cleanString(n.Summary), 60); summary != "" {
		parts = append(parts, summary)
	}
	if n.Category != "" {
		parts = append(parts, string(n.Category))
	}
	return truncate(strings.Join(parts, " • "), 100)
}

// cleanString removes problematic characters that might cause rendering issues
func cleanString(s string) string {
	if s == "" {
		return ""
	}

	// Remove any control characters, newlines, tabs that could break rendering
	var b strings.Builder
	for _, r := range s {
		if r == '\n' || r == '\r' || r == '\t' {
			b.WriteRune(' ')
		} else if r >= 32 && r != 127 { // Keep printable ASCII + unicode
			b.WriteRune(r)
		}
	}

	return strings.Join(strings.Fields(b.String()), " ")
}

// truncate shortens s to max runes, marking the cut with "..."
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}

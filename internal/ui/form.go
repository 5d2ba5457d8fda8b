package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/dpshade/pocket-nodes/internal/models"
)

const (
	fieldHeight   = 2
	fieldMaxChars = 100000
)

// InputForm edits the placeholders of one template, one textarea per distinct
// placeholder name in first-seen order
type InputForm struct {
	templateID string
	names      []string
	areas      []textarea.Model
	focused    int
	active     bool
	width      int
}

// NewInputForm builds the fields of t, prefilled through value
func NewInputForm(t *models.ParsedTemplate, value func(placeholder string) string, width int) *InputForm {
	f := &InputForm{width: width}
	if t == nil {
		return f
	}

	f.templateID = t.ID
	f.names = t.Placeholders()
	f.areas = make([]textarea.Model, len(f.names))
	for i, name := range f.names {
		ta := textarea.New()
		ta.Placeholder = name
		ta.ShowLineNumbers = false // Disable line numbers to prevent double spacing
		ta.Prompt = "│ "
		ta.CharLimit = fieldMaxChars
		ta.SetHeight(fieldHeight)
		ta.SetWidth(max(width, 10))
		ta.SetValue(value(name))
		ta.Blur()
		f.areas[i] = ta
	}
	return f
}

// TemplateID returns the template the form edits
func (f *InputForm) TemplateID() string {
	return f.templateID
}

// Len returns the number of fields
func (f *InputForm) Len() int {
	return len(f.areas)
}

// Focused returns the name of the focused field
func (f *InputForm) Focused() string {
	if len(f.names) == 0 {
		return ""
	}
	return f.names[f.focused]
}

// Activate focuses the form starting at the first or the last field
func (f *InputForm) Activate(last bool) tea.Cmd {
	if len(f.areas) == 0 {
		return nil
	}
	f.active = true
	f.focused = 0
	if last {
		f.focused = len(f.areas) - 1
	}
	return f.areas[f.focused].Focus()
}

// Deactivate blurs every field
func (f *InputForm) Deactivate() {
	f.active = false
	for i := range f.areas {
		f.areas[i].Blur()
	}
}

// Next moves focus forward. It returns false when focus would leave the form.
func (f *InputForm) Next() (tea.Cmd, bool) {
	if f.focused >= len(f.areas)-1 {
		return nil, false
	}
	f.areas[f.focused].Blur()
	f.focused++
	return f.areas[f.focused].Focus(), true
}

// Prev moves focus backward. It returns false when focus would leave the form.
func (f *InputForm) Prev() (tea.Cmd, bool) {
	if f.focused <= 0 {
		return nil, false
	}
	f.areas[f.focused].Blur()
	f.focused--
	return f.areas[f.focused].Focus(), true
}

// Update forwards msg to the focused field and reports the field's new value
// when it changed
func (f *InputForm) Update(msg tea.Msg) (cmd tea.Cmd, name, value string, changed bool) {
	if !f.active || len(f.areas) == 0 {
		return nil, "", "", false
	}

	before := f.areas[f.focused].Value()
	f.areas[f.focused], cmd = f.areas[f.focused].Update(msg)
	after := f.areas[f.focused].Value()

	return cmd, f.names[f.focused], after, after != before
}

// Reset empties every field
func (f *InputForm) Reset() {
	for i := range f.areas {
		f.areas[i].Reset()
	}
}

// SetWidth resizes every field
func (f *InputForm) SetWidth(width int) {
	f.width = width
	for i := range f.areas {
		f.areas[i].SetWidth(max(width, 10))
	}
}

// View renders the fields that fit in height lines, keeping the focused one visible
func (f *InputForm) View(height int) string {
	if len(f.areas) == 0 {
		return StyleFormHelp.Render("This template has no placeholders.")
	}

	perField := fieldHeight + 1
	visible := max(height/perField, 1)
	start := 0
	if f.focused >= visible {
		start = f.focused - visible + 1
	}
	end := min(start+visible, len(f.areas))

	var sections []string
	for i := start; i < end; i++ {
		label := StyleFormLabel
		if f.active && i == f.focused {
			label = StyleFormLabelFocused
		}
		sections = append(sections, label.Render(f.names[i]), f.areas[i].View())
	}
	if end < len(f.areas) {
		sections = append(sections, StyleFormHelp.Render(strings.Repeat("·", 3)+" more fields"))
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// Package notify delivers transient user-facing messages (success, warning,
// error) to whatever surface is active.
package notify

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// Level is the kind of notification
type Level string

const (
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Event is a single notification
type Event struct {
	Level   Level  `json:"level"`
	Message string `json:"message"`
}

func (e Event) String() string {
	return fmt.Sprintf("%s: %s", e.Level, e.Message)
}

// Notifier receives notification events
type Notifier interface {
	Notify(Event)
}

// Func adapts a function to Notifier
type Func func(Event)

func (f Func) Notify(e Event) { f(e) }

// Discard drops every event
var Discard Notifier = Func(func(Event) {})

// Multi fans an event out to several notifiers in order
type Multi []Notifier

func (m Multi) Notify(e Event) {
	for _, n := range m {
		if n != nil {
			n.Notify(e)
		}
	}
}

// Recorder keeps every event it receives
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Notify(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

// Events returns a copy of the recorded events
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Last returns the most recent event, if any
func (r *Recorder) Last() (Event, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.events) == 0 {
		return Event{}, false
	}
	return r.events[len(r.events)-1], true
}

var (
	successPrefix = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("2"))
	warningPrefix = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("3"))
	errorPrefix   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("1"))
)

// Printer writes one styled line per event
type Printer struct {
	W io.Writer
}

func (p Printer) Notify(e Event) {
	fmt.Fprintln(p.W, Prefix(e.Level)+" "+e.Message)
}

// Prefix returns the styled marker for a level
func Prefix(level Level) string {
	switch level {
	case LevelSuccess:
		return successPrefix.Render("✓")
	case LevelWarning:
		return warningPrefix.Render("!")
	default:
		return errorPrefix.Render("✗")
	}
}

func Success(n Notifier, message string) { n.Notify(Event{Level: LevelSuccess, Message: message}) }
func Warning(n Notifier, message string) { n.Notify(Event{Level: LevelWarning, Message: message}) }
func Error(n Notifier, message string)   { n.Notify(Event{Level: LevelError, Message: message}) }

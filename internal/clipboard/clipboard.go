package clipboard

import (
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"sync"

	"github.com/atotto/clipboard"
)

// Sink receives text to place on a clipboard
type Sink interface {
	Copy(text string) error
}

// ClipboardError represents an error when no clipboard utility is available
type ClipboardError struct {
	OS      string
	Message string
}

func (e *ClipboardError) Error() string {
	return e.Message
}

// NewClipboardError creates a new ClipboardError with helpful installation instructions
func NewClipboardError() *ClipboardError {
	var msg string
	switch runtime.GOOS {
	case "linux":
		msg = "no clipboard utility found. " + GetInstallInstructions()
	case "darwin":
		msg = "pbcopy not available (this should not happen on macOS)"
	case "windows":
		msg = "clip command not available (this should not happen on Windows)"
	default:
		msg = fmt.Sprintf("clipboard not supported on %s", runtime.GOOS)
	}

	return &ClipboardError{
		OS:      runtime.GOOS,
		Message: msg,
	}
}

// System writes to the operating system clipboard
type System struct{}

// Copy copies text to the system clipboard
func (System) Copy(text string) error {
	if clipboard.Unsupported {
		return NewClipboardError()
	}
	return clipboard.WriteAll(text)
}

// Memory is an in-process clipboard used by tests and headless sessions
type Memory struct {
	mu   sync.Mutex
	text string
	Err  error // Returned by Copy when set
}

// Copy stores text unless Err is set
func (m *Memory) Copy(text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.text = text
	return nil
}

// Text returns the last copied text
func (m *Memory) Text() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.text
}

// Copy copies text to the system clipboard
func Copy(text string) error {
	return System{}.Copy(text)
}

// CopyWithFallback copies text through sink and returns a status message
func CopyWithFallback(sink Sink, text string) (string, error) {
	if sink == nil {
		sink = System{}
	}
	err := sink.Copy(text)
	if err != nil {
		// Missing utilities keep their install instructions
		var clipErr *ClipboardError
		if errors.As(err, &clipErr) {
			return "", err
		}
		return "", fmt.Errorf("failed to copy to clipboard: %w", err)
	}
	return "Copied to clipboard!", nil
}

// IsClipboardAvailable checks if clipboard functionality is available
func IsClipboardAvailable() bool {
	if clipboard.Unsupported {
		return false
	}
	switch runtime.GOOS {
	case "linux":
		return isCommandAvailable("xclip") || isCommandAvailable("xsel") ||
			isCommandAvailable("wl-copy") || isCommandAvailable("termux-clipboard-set")
	default:
		return true
	}
}

// isCommandAvailable checks if a command is available in PATH
func isCommandAvailable(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}

// GetInstallInstructions returns installation instructions for clipboard utilities
func GetInstallInstructions() string {
	switch runtime.GOOS {
	case "linux":
		return "Install a clipboard utility:\n" +
			"  • Ubuntu/Debian: sudo apt install xclip\n" +
			"  • Fedora/RHEL: sudo dnf install xclip\n" +
			"  • Arch: sudo pacman -S xclip\n" +
			"  • For Wayland: install wl-clipboard"
	case "darwin":
		return "pbcopy should be available by default on macOS"
	case "windows":
		return "clip should be available by default on Windows"
	default:
		return fmt.Sprintf("Clipboard not supported on %s", runtime.GOOS)
	}
}

// Package errors/handlers provides interface-specific error handling implementations.
//
// ERROR FLOW:
// 1. Catalogue, storage or sink code returns an AppError
// 2. The interface handler logs it through the zap logger
// 3. The handler formats it for the terminal (CLI) or the status line (TUI)
package errors

import (
	"fmt"

	"github.com/dpshade/pocket-nodes/internal/logger"
)

// ErrorHandler provides interface-specific error handling
type ErrorHandler interface {
	HandleError(err error) error
	FormatError(err error) string
}

// CLIErrorHandler handles errors for CLI interface
type CLIErrorHandler struct {
	Verbose bool
	Log     *logger.Logger
}

// NewCLIErrorHandler creates a new CLI error handler
func NewCLIErrorHandler(verbose bool, log *logger.Logger) *CLIErrorHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &CLIErrorHandler{
		Verbose: verbose,
		Log:     log,
	}
}

// HandleError handles errors for CLI interface
func (h *CLIErrorHandler) HandleError(err error) error {
	if err == nil {
		return nil
	}
	appErr := GetAppError(err)

	if h.Verbose {
		logAppError(h.Log, appErr)
	}

	return fmt.Errorf("%s", h.FormatError(appErr))
}

// FormatError formats an error for CLI display
func (h *CLIErrorHandler) FormatError(err error) string {
	appErr := GetAppError(err)

	message := appErr.Message
	if h.Verbose && appErr.Details != "" {
		message = fmt.Sprintf("%s (%s)", message, appErr.Details)
	}

	switch appErr.Severity {
	case SeverityCritical:
		return fmt.Sprintf("❌ CRITICAL: %s", message)
	case SeverityError:
		return fmt.Sprintf("❌ ERROR: %s", message)
	case SeverityWarning:
		return fmt.Sprintf("⚠️  WARNING: %s", message)
	case SeverityInfo:
		return fmt.Sprintf("ℹ️  INFO: %s", message)
	default:
		return fmt.Sprintf("❌ %s", message)
	}
}

// TUIErrorHandler handles errors for TUI interface
type TUIErrorHandler struct {
	ShowDetails bool
	Log         *logger.Logger
}

// NewTUIErrorHandler creates a new TUI error handler
func NewTUIErrorHandler(showDetails bool, log *logger.Logger) *TUIErrorHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &TUIErrorHandler{
		ShowDetails: showDetails,
		Log:         log,
	}
}

// HandleError logs the error to the TUI log file and returns it as an AppError
func (h *TUIErrorHandler) HandleError(err error) error {
	if err == nil {
		return nil
	}
	appErr := GetAppError(err)
	logAppError(h.Log, appErr)
	return appErr
}

// FormatError formats an error for TUI display
func (h *TUIErrorHandler) FormatError(err error) string {
	appErr := GetAppError(err)

	message := appErr.Message
	if h.ShowDetails && appErr.Details != "" {
		message = fmt.Sprintf("%s\nDetails: %s", message, appErr.Details)
	}

	return message
}

// GetErrorStyle returns an icon and color for TUI display based on error severity
func (h *TUIErrorHandler) GetErrorStyle(err error) (string, string) {
	appErr := GetAppError(err)

	switch appErr.Severity {
	case SeverityCritical:
		return "🔥", "#ff0000" // Red
	case SeverityError:
		return "❌", "#ff6b6b" // Light red
	case SeverityWarning:
		return "⚠️", "#feca57" // Yellow
	case SeverityInfo:
		return "ℹ️", "#48cae4" // Blue
	default:
		return "❌", "#ff6b6b"
	}
}

func logAppError(log *logger.Logger, appErr *AppError) {
	kv := []interface{}{
		"code", appErr.Code,
		"severity", appErr.Severity,
		"category", appErr.Category,
	}
	if appErr.Details != "" {
		kv = append(kv, "details", appErr.Details)
	}
	if appErr.Cause != nil {
		kv = append(kv, "cause", appErr.Cause.Error())
	}
	for k, v := range appErr.Context {
		kv = append(kv, k, v)
	}
	log.Error(appErr.Message, kv...)
}

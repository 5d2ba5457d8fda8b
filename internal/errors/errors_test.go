package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
)

func TestCategorizeError(t *testing.T) {
	tests := []struct {
		code     ErrorCode
		category ErrorCategory
		severity ErrorSeverity
	}{
		{ErrCodeValidation, CategoryValidation, SeverityWarning},
		{ErrCodeNotFound, CategoryService, SeverityInfo},
		{ErrCodeCatalogInvalid, CategoryCatalog, SeverityCritical},
		{ErrCodeStorageFailure, CategoryStorage, SeverityError},
		{ErrCodeClipboardUnavailable, CategorySink, SeverityError},
		{ErrorCode("SOMETHING_ELSE"), CategorySystem, SeverityError},
	}

	for _, tt := range tests {
		err := NewAppError(tt.code, "msg")
		if err.Category != tt.category || err.Severity != tt.severity {
			t.Errorf("%s: expected %s/%s, got %s/%s", tt.code, tt.category, tt.severity, err.Category, err.Severity)
		}
	}
}

func TestGetAppErrorUnwraps(t *testing.T) {
	inner := CatalogError("duplicate node id").WithContext("node_id", "x")
	wrapped := fmt.Errorf("loading: %w", inner)

	if !IsAppError(wrapped) {
		t.Fatal("Wrapped AppError should be detected")
	}
	if got := GetAppError(wrapped); got != inner {
		t.Errorf("Expected the inner AppError, got %v", got)
	}
	if !HasCode(wrapped, ErrCodeCatalogInvalid) {
		t.Error("Expected CATALOG_INVALID code")
	}
}

func TestGetAppErrorConvertsPlainErrors(t *testing.T) {
	plain := stderrors.New("boom")
	appErr := GetAppError(plain)

	if appErr.Code != ErrCodeInternalError {
		t.Errorf("Expected INTERNAL_ERROR, got %s", appErr.Code)
	}
	if !stderrors.Is(appErr, plain) {
		t.Error("Converted error should keep its cause")
	}
}

func TestCLIErrorHandler(t *testing.T) {
	h := NewCLIErrorHandler(false, nil)

	err := h.HandleError(ValidationError("template_id is required"))
	if !strings.HasPrefix(err.Error(), "⚠️  WARNING:") {
		t.Errorf("Unexpected CLI format %q", err.Error())
	}

	if h.HandleError(nil) != nil {
		t.Error("nil errors should pass through")
	}
}

func TestTUIErrorHandler(t *testing.T) {
	h := NewTUIErrorHandler(true, nil)
	err := StorageError("read nodes.yaml", stderrors.New("permission denied")).WithDetails("/tmp/x")

	if got := h.FormatError(err); got != "Storage operation failed: read nodes.yaml\nDetails: /tmp/x" {
		t.Errorf("Unexpected TUI format %q", got)
	}

	icon, color := h.GetErrorStyle(err)
	if icon == "" || color != "#ff6b6b" {
		t.Errorf("Unexpected style %q %q", icon, color)
	}
}

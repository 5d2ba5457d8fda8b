// Package validation/middleware validates MCP tool arguments before the tool
// handler runs.
//
// TOOL VALIDATION FLOW:
// 1. An MCP client calls a tool with a JSON argument object
// 2. The wrapped handler validates the arguments against the tool's schema
// 3. Invalid calls return a tool error result describing every failing field
// 4. Valid calls proceed with the converted data attached to the context
//
// USAGE PATTERNS:
// - Wrap handlers: tv.Wrap(schema, handler) when registering a tool
// - Read converted data: ValidatedData(ctx) inside the handler
// - Helpers: SanitizeString() and ValidateIdentifier() for ad hoc checks
package validation

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/dpshade/pocket-nodes/internal/errors"
	"github.com/dpshade/pocket-nodes/internal/logger"
)

type validatedDataKey struct{}

// ToolValidator wraps MCP tool handlers with schema validation
type ToolValidator struct {
	validator *Validator
	log       *logger.Logger
}

// NewToolValidator creates a new tool validator
func NewToolValidator(log *logger.Logger) *ToolValidator {
	if log == nil {
		log = logger.Nop()
	}
	return &ToolValidator{
		validator: NewValidator(),
		log:       log,
	}
}

// Wrap returns a handler that validates the call arguments against schemaName
// before delegating to next
func (tv *ToolValidator) Wrap(schemaName string, next server.ToolHandlerFunc) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()
		if args == nil {
			args = map[string]interface{}{}
		}

		result := tv.validator.Validate(schemaName, args)
		if !result.Valid {
			appErr := result.ToAppError()
			tv.log.Warn("tool arguments rejected",
				"tool", request.Params.Name,
				"schema", schemaName,
				"details", appErr.Details,
			)
			return mcp.NewToolResultError(formatToolError(appErr)), nil
		}

		ctx = context.WithValue(ctx, validatedDataKey{}, result.GetValidatedData())
		return next(ctx, request)
	}
}

// ValidatedData returns the converted arguments stored by Wrap
func ValidatedData(ctx context.Context) map[string]interface{} {
	data, _ := ctx.Value(validatedDataKey{}).(map[string]interface{})
	if data == nil {
		return map[string]interface{}{}
	}
	return data
}

func formatToolError(appErr *errors.AppError) string {
	if appErr.Details == "" {
		return fmt.Sprintf("invalid arguments: %s", appErr.Message)
	}
	return fmt.Sprintf("invalid arguments: %s", appErr.Details)
}

// GetValidator returns the underlying validator instance
func (tv *ToolValidator) GetValidator() *Validator {
	return tv.validator
}

// SanitizeString removes null bytes and control characters, keeping newlines
// and tabs, then trims surrounding whitespace
func SanitizeString(input string) string {
	cleaned := strings.ReplaceAll(input, "\x00", "")

	var result strings.Builder
	for _, r := range cleaned {
		if r == '\n' || r == '\t' || r == '\r' || r >= 32 {
			result.WriteRune(r)
		}
	}

	return strings.TrimSpace(result.String())
}

// ValidateIdentifier validates that a string is a valid node or template id
func ValidateIdentifier(id string) error {
	if id == "" {
		return errors.ValidationError("Identifier cannot be empty")
	}

	if len(id) > 200 {
		return errors.ValidationError("Identifier too long (max 200 characters)")
	}

	if !identifierPattern.MatchString(id) {
		return errors.ValidationError("Identifier contains invalid characters (only alphanumeric, hyphens, and underscores allowed)")
	}

	return nil
}

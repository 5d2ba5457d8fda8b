// Package commands implements the unified command execution system for pocket-nodes.
//
// SYSTEM ARCHITECTURE ROLE:
// This module is the coordination layer between the CLI and the selection core
// (service layer). Every CLI subcommand resolves to a named command executed
// through one CommandExecutor, so parameter validation and error shaping happen
// in one place.
//
// KEY RESPONSIBILITIES:
// - Define the command interface and execution pattern
// - Validate parameters with the centralized validation schemas
// - Convert core results and errors into CommandResult
//
// INTEGRATION POINTS:
// - internal/cli/cli.go: cobra RunE functions call executor.Execute() with flag values
// - internal/service/service.go: commands delegate to service.Service and its catalogue
// - internal/validation/validator.go: CommandExecutor.validator validates parameters before execution
// - internal/errors/errors.go: failures are converted to ErrorInfo via AppError conversion
// - internal/commands/template_commands.go: catalogue and render commands
// - internal/commands/utility_commands.go: stage listing, session and health commands
//
// COMMAND FLOW:
// 1. Interface converts input to a parameter map
// 2. CommandExecutor validates parameters against the command's schema
// 3. Command instance is created and configured with validated parameters
// 4. Command executes against the service
// 5. Interface formats CommandResult.Data for display
package commands

import (
	"context"
	"fmt"
	"sort"

	"github.com/dpshade/pocket-nodes/internal/errors"
	"github.com/dpshade/pocket-nodes/internal/logger"
	"github.com/dpshade/pocket-nodes/internal/service"
	"github.com/dpshade/pocket-nodes/internal/validation"
)

// CommandResult represents the result of executing a command
type CommandResult struct {
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
	Success bool        `json:"success"`
	Error   *ErrorInfo  `json:"error,omitempty"`
}

// ErrorInfo provides structured error information
type ErrorInfo struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Details  string `json:"details,omitempty"`
	Category string `json:"category,omitempty"`
	Severity string `json:"severity,omitempty"`
}

// Err converts the failure back into an AppError for the interface handlers
func (r *CommandResult) Err() error {
	if r == nil || r.Success || r.Error == nil {
		return nil
	}
	appErr := errors.NewAppError(errors.ErrorCode(r.Error.Code), r.Error.Message)
	if r.Error.Details != "" {
		appErr.WithDetails(r.Error.Details)
	}
	return appErr
}

func errorInfo(appErr *errors.AppError) *ErrorInfo {
	return &ErrorInfo{
		Code:     string(appErr.Code),
		Message:  appErr.Message,
		Details:  appErr.Details,
		Category: string(appErr.Category),
		Severity: string(appErr.Severity),
	}
}

func failure(appErr *errors.AppError) *CommandResult {
	return &CommandResult{
		Success: false,
		Error:   errorInfo(appErr),
	}
}

// Command represents a unified command interface
type Command interface {
	Execute(ctx context.Context) (*CommandResult, error)
	Validate() error
	GetName() string
	GetDescription() string
}

// ParameterizedCommand interface for commands that accept parameters
type ParameterizedCommand interface {
	SetParameters(params map[string]interface{}) error
}

// ServiceAwareCommand interface for commands that need service access
type ServiceAwareCommand interface {
	SetService(svc *service.Service)
}

// CommandRegistry manages available commands
type CommandRegistry struct {
	commands map[string]func() Command
}

// NewCommandRegistry creates a new command registry
func NewCommandRegistry() *CommandRegistry {
	return &CommandRegistry{
		commands: make(map[string]func() Command),
	}
}

// Register adds a command factory to the registry
func (r *CommandRegistry) Register(name string, factory func() Command) {
	r.commands[name] = factory
}

// Get retrieves a command factory by name
func (r *CommandRegistry) Get(name string) (func() Command, bool) {
	factory, exists := r.commands[name]
	return factory, exists
}

// List returns all available command names in sorted order
func (r *CommandRegistry) List() []string {
	names := make([]string, 0, len(r.commands))
	for name := range r.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CommandExecutor provides a unified way to execute commands
type CommandExecutor struct {
	service   *service.Service
	registry  *CommandRegistry
	validator *validation.Validator
	log       *logger.Logger
}

// NewCommandExecutor creates a new command executor
func NewCommandExecutor(svc *service.Service, log *logger.Logger) *CommandExecutor {
	if log == nil {
		log = logger.Nop()
	}
	executor := &CommandExecutor{
		service:   svc,
		registry:  NewCommandRegistry(),
		validator: validation.NewValidator(),
		log:       log,
	}

	executor.registerCommands()

	return executor
}

// Commands lists the registered command names
func (e *CommandExecutor) Commands() []string {
	return e.registry.List()
}

// Service returns the session the executor runs against
func (e *CommandExecutor) Service() *service.Service {
	return e.service
}

// Execute runs a command by name with the given parameters. Failures are
// reported in the result; the error return is reserved for context cancellation.
func (e *CommandExecutor) Execute(ctx context.Context, commandName string, params map[string]interface{}) (*CommandResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	factory, exists := e.registry.Get(commandName)
	if !exists {
		return failure(errors.CommandNotFoundError(commandName)), nil
	}

	if validationSchema := e.getValidationSchema(commandName); validationSchema != "" {
		if params == nil {
			params = make(map[string]interface{})
		}

		validationResult := e.validator.Validate(validationSchema, params)
		if !validationResult.Valid {
			appErr := validationResult.ToAppError()
			e.log.Debug("command parameters rejected", "command", commandName, "details", appErr.Details)
			return failure(appErr), nil
		}

		params = validationResult.GetValidatedData()
	}

	cmd := factory()

	if parameterized, ok := cmd.(ParameterizedCommand); ok {
		if err := parameterized.SetParameters(params); err != nil {
			return failure(errors.InvalidCommandError(commandName, err.Error())), nil
		}
	}

	if err := cmd.Validate(); err != nil {
		return failure(errors.InvalidInputError(err.Error())), nil
	}

	result, err := cmd.Execute(ctx)
	if err != nil {
		appErr := errors.CommandFailedError(commandName, err)
		if errors.IsAppError(err) {
			appErr = errors.GetAppError(err)
		}
		e.log.Debug("command failed", "command", commandName, "code", appErr.Code, "error", appErr.Message)
		return failure(appErr), nil
	}

	return result, nil
}

// getValidationSchema returns the validation schema name for a command
func (e *CommandExecutor) getValidationSchema(commandName string) string {
	switch commandName {
	case "stages":
		return "list_stages"
	case "nodes":
		return "list_nodes"
	case "templates":
		return "list_templates"
	case "show":
		return "get_template"
	case "select-node":
		return "select_node"
	case "select-template":
		return "select_template"
	case "set-input":
		return "set_input"
	case "render":
		return "render_template"
	case "copy":
		return "copy_template"
	case "search":
		return "search_templates"
	default:
		return ""
	}
}

// register adds a factory that hands the executor's service to each new command
func (e *CommandExecutor) register(name string, factory func() Command) {
	e.registry.Register(name, func() Command {
		cmd := factory()
		if serviceAware, ok := cmd.(ServiceAwareCommand); ok {
			serviceAware.SetService(e.service)
		}
		return cmd
	})
}

// registerCommands registers all available commands
func (e *CommandExecutor) registerCommands() {
	// Catalogue browsing
	e.register("stages", func() Command { return &ListStagesCommand{} })
	e.register("nodes", func() Command { return &ListNodesCommand{} })
	e.register("templates", func() Command { return &ListTemplatesCommand{} })
	e.register("show", func() Command { return &GetTemplateCommand{} })
	e.register("search", func() Command { return &SearchTemplatesCommand{} })

	// Rendering
	e.register("render", func() Command { return &RenderTemplateCommand{} })
	e.register("copy", func() Command { return &CopyTemplateCommand{} })

	// Session state
	e.register("select-node", func() Command { return &SelectNodeCommand{} })
	e.register("select-template", func() Command { return &SelectTemplateCommand{} })
	e.register("set-input", func() Command { return &SetInputCommand{} })
	e.register("status", func() Command { return &SessionStatusCommand{} })

	e.register("health", func() Command { return &HealthCheckCommand{} })
}

func requireService(svc *service.Service) error {
	if svc == nil {
		return fmt.Errorf("service not set")
	}
	return nil
}

// Package validation provides schema-based validation of command and tool
// parameters.
//
// SYSTEM ARCHITECTURE ROLE:
// CLI flags, MCP tool arguments and TUI commands all arrive as loosely typed
// parameter maps. Every map is checked against a named schema before it reaches
// the command layer, so the selection core only ever sees well-formed ids.
//
// KEY RESPONSIBILITIES:
// - Define schemas for every command and MCP tool
// - Convert loosely typed values (strings from flags, float64 from JSON) to the declared type
// - Report every failing field with a stable code
//
// INTEGRATION POINTS:
// - internal/commands/types.go: CommandExecutor validates parameters with getValidationSchema()
// - internal/validation/middleware.go: ToolValidator checks MCP tool arguments
// - internal/errors/errors.go: ValidationResult.ToAppError() converts failures to AppError format
//
// SCHEMA SYSTEM:
// - Field validators: type, length, pattern and option rules for one field
// - Schema rules: cross-field checks over the complete data set
// - Custom validation: per-field functions for anything the rules cannot express
package validation

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/dpshade/pocket-nodes/internal/errors"
	"github.com/dpshade/pocket-nodes/internal/models"
	"github.com/dpshade/pocket-nodes/internal/renderer"
)

// identifierPattern matches node and template ids, the same rule the catalogue enforces
var identifierPattern = models.IDPattern

// FieldValidator provides validation rules for individual fields
type FieldValidator struct {
	Name      string
	Required  bool
	Type      string
	MinLength int
	MaxLength int
	Pattern   *regexp.Regexp
	Options   []string
	Custom    func(interface{}) error
}

// ValidationResult represents the result of validation
type ValidationResult struct {
	Valid    bool                   `json:"valid"`
	Errors   []ValidationError      `json:"errors,omitempty"`
	Warnings []ValidationWarning    `json:"warnings,omitempty"`
	Data     map[string]interface{} `json:"data,omitempty"`
}

// ValidationError represents a field validation error
type ValidationError struct {
	Field   string      `json:"field"`
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
}

// ValidationWarning represents a field validation warning
type ValidationWarning struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
}

// Schema represents a validation schema
type Schema struct {
	Name   string
	Fields map[string]FieldValidator
	Rules  []func(map[string]interface{}) error
}

// Validator provides centralized validation functionality
type Validator struct {
	schemas map[string]*Schema
}

// NewValidator creates a new validator instance
func NewValidator() *Validator {
	v := &Validator{
		schemas: make(map[string]*Schema),
	}

	v.registerBuiltinSchemas()

	return v
}

// RegisterSchema registers a validation schema
func (v *Validator) RegisterSchema(schema *Schema) {
	v.schemas[schema.Name] = schema
}

// HasSchema reports whether a schema is registered under name
func (v *Validator) HasSchema(name string) bool {
	_, ok := v.schemas[name]
	return ok
}

// Validate validates data against a schema. Fields are checked in name order so
// the error list is stable.
func (v *Validator) Validate(schemaName string, data map[string]interface{}) *ValidationResult {
	schema, exists := v.schemas[schemaName]
	if !exists {
		return &ValidationResult{
			Valid: false,
			Errors: []ValidationError{{
				Field:   "schema",
				Code:    "SCHEMA_NOT_FOUND",
				Message: fmt.Sprintf("Validation schema '%s' not found", schemaName),
			}},
		}
	}

	result := &ValidationResult{
		Valid:    true,
		Errors:   []ValidationError{},
		Warnings: []ValidationWarning{},
		Data:     make(map[string]interface{}),
	}

	names := make([]string, 0, len(schema.Fields))
	for name := range schema.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, fieldName := range names {
		v.validateField(fieldName, schema.Fields[fieldName], data, result)
	}

	for key, value := range data {
		if _, known := schema.Fields[key]; !known {
			result.Warnings = append(result.Warnings, ValidationWarning{
				Field:   key,
				Message: fmt.Sprintf("Unknown field '%s' ignored", key),
				Value:   value,
			})
		}
	}

	// Schema rules only run once the individual fields are sound
	if result.Valid {
		for _, rule := range schema.Rules {
			if err := rule(result.Data); err != nil {
				result.Valid = false
				result.Errors = append(result.Errors, ValidationError{
					Field:   "schema",
					Code:    "SCHEMA_RULE_VIOLATION",
					Message: err.Error(),
				})
			}
		}
	}

	return result
}

// validateField validates a single field
func (v *Validator) validateField(fieldName string, validator FieldValidator, data map[string]interface{}, result *ValidationResult) {
	value, exists := data[fieldName]

	if validator.Required && (!exists || value == nil || value == "") {
		result.Valid = false
		result.Errors = append(result.Errors, ValidationError{
			Field:   fieldName,
			Code:    "REQUIRED_FIELD_MISSING",
			Message: fmt.Sprintf("Field '%s' is required", fieldName),
		})
		return
	}

	if !exists || value == nil {
		return
	}

	convertedValue, err := v.validateAndConvertType(fieldName, validator.Type, value)
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, ValidationError{
			Field:   fieldName,
			Code:    "INVALID_TYPE",
			Message: err.Error(),
			Value:   value,
		})
		return
	}

	result.Data[fieldName] = convertedValue

	if validator.Type == "string" {
		strValue, ok := convertedValue.(string)
		if ok {
			if validator.MinLength > 0 && len(strValue) < validator.MinLength {
				result.Valid = false
				result.Errors = append(result.Errors, ValidationError{
					Field:   fieldName,
					Code:    "MIN_LENGTH_VIOLATION",
					Message: fmt.Sprintf("Field '%s' must be at least %d characters long", fieldName, validator.MinLength),
					Value:   strValue,
				})
			}

			if validator.MaxLength > 0 && len(strValue) > validator.MaxLength {
				result.Valid = false
				result.Errors = append(result.Errors, ValidationError{
					Field:   fieldName,
					Code:    "MAX_LENGTH_VIOLATION",
					Message: fmt.Sprintf("Field '%s' must be at most %d characters long", fieldName, validator.MaxLength),
					Value:   strValue,
				})
			}

			// Optional empty strings skip pattern and option checks
			if strValue != "" || validator.Required {
				if validator.Pattern != nil && !validator.Pattern.MatchString(strValue) {
					result.Valid = false
					result.Errors = append(result.Errors, ValidationError{
						Field:   fieldName,
						Code:    "PATTERN_MISMATCH",
						Message: fmt.Sprintf("Field '%s' does not match required pattern", fieldName),
						Value:   strValue,
					})
				}

				if len(validator.Options) > 0 {
					validOption := false
					for _, option := range validator.Options {
						if strValue == option {
							validOption = true
							break
						}
					}
					if !validOption {
						result.Valid = false
						result.Errors = append(result.Errors, ValidationError{
							Field:   fieldName,
							Code:    "INVALID_OPTION",
							Message: fmt.Sprintf("Field '%s' must be one of: %s", fieldName, strings.Join(validator.Options, ", ")),
							Value:   strValue,
						})
					}
				}
			}
		}
	}

	if validator.Custom != nil {
		if err := validator.Custom(convertedValue); err != nil {
			result.Valid = false
			result.Errors = append(result.Errors, ValidationError{
				Field:   fieldName,
				Code:    "CUSTOM_VALIDATION_FAILED",
				Message: fmt.Sprintf("Field '%s': %s", fieldName, err.Error()),
				Value:   convertedValue,
			})
		}
	}
}

// validateAndConvertType validates and converts value to the specified type
func (v *Validator) validateAndConvertType(fieldName, expectedType string, value interface{}) (interface{}, error) {
	switch expectedType {
	case "string":
		if str, ok := value.(string); ok {
			return str, nil
		}
		return fmt.Sprintf("%v", value), nil

	case "int":
		switch val := value.(type) {
		case int:
			return val, nil
		case float64:
			return int(val), nil
		case string:
			if intVal, err := strconv.Atoi(val); err == nil {
				return intVal, nil
			}
		}
		return nil, fmt.Errorf("field '%s' must be an integer", fieldName)

	case "bool":
		switch val := value.(type) {
		case bool:
			return val, nil
		case string:
			if boolVal, err := strconv.ParseBool(val); err == nil {
				return boolVal, nil
			}
		}
		return nil, fmt.Errorf("field '%s' must be a boolean", fieldName)

	case "array":
		switch val := value.(type) {
		case []interface{}:
			return val, nil
		case []string:
			result := make([]interface{}, len(val))
			for i, v := range val {
				result[i] = v
			}
			return result, nil
		case string:
			// Handle comma-separated values
			if val != "" {
				parts := strings.Split(val, ",")
				result := make([]interface{}, len(parts))
				for i, part := range parts {
					result[i] = strings.TrimSpace(part)
				}
				return result, nil
			}
			return []interface{}{}, nil
		}
		return nil, fmt.Errorf("field '%s' must be an array", fieldName)

	case "object":
		switch val := value.(type) {
		case map[string]interface{}:
			return val, nil
		case map[string]string:
			obj := make(map[string]interface{}, len(val))
			for k, s := range val {
				obj[k] = s
			}
			return obj, nil
		}
		return nil, fmt.Errorf("field '%s' must be an object", fieldName)

	default:
		return value, nil
	}
}

func idField(name string, required bool) FieldValidator {
	return FieldValidator{
		Name:      name,
		Type:      "string",
		Required:  required,
		MinLength: 1,
		MaxLength: 200,
		Pattern:   identifierPattern,
	}
}

func stageOptions() []string {
	options := make([]string, len(models.Stages))
	for i, s := range models.Stages {
		options[i] = string(s)
	}
	return options
}

// registerBuiltinSchemas registers the command and tool schemas
func (v *Validator) registerBuiltinSchemas() {
	formats := []string{"text", "json", "yaml"}

	v.RegisterSchema(&Schema{
		Name: "list_stages",
		Fields: map[string]FieldValidator{
			"format": {Name: "format", Type: "string", Options: formats},
		},
	})

	v.RegisterSchema(&Schema{
		Name: "list_nodes",
		Fields: map[string]FieldValidator{
			"stage": {
				Name:    "stage",
				Type:    "string",
				Options: stageOptions(),
			},
			"format": {Name: "format", Type: "string", Options: formats},
		},
	})

	v.RegisterSchema(&Schema{
		Name: "list_templates",
		Fields: map[string]FieldValidator{
			"node_id": idField("node_id", true),
			"format":  {Name: "format", Type: "string", Options: formats},
		},
	})

	v.RegisterSchema(&Schema{
		Name: "get_template",
		Fields: map[string]FieldValidator{
			"template_id": idField("template_id", true),
			"format":      {Name: "format", Type: "string", Options: formats},
		},
	})

	v.RegisterSchema(&Schema{
		Name: "select_node",
		Fields: map[string]FieldValidator{
			"node_id": idField("node_id", true),
		},
	})

	v.RegisterSchema(&Schema{
		Name: "select_template",
		Fields: map[string]FieldValidator{
			"template_id": idField("template_id", true),
		},
	})

	v.RegisterSchema(&Schema{
		Name: "set_input",
		Fields: map[string]FieldValidator{
			"placeholder": {
				Name:      "placeholder",
				Type:      "string",
				Required:  true,
				MinLength: 1,
				MaxLength: 200,
				Custom: func(value interface{}) error {
					if strings.ContainsAny(value.(string), "[]") {
						return fmt.Errorf("placeholder names cannot contain brackets")
					}
					return nil
				},
			},
			"value": {
				Name:      "value",
				Type:      "string",
				MaxLength: 100000,
			},
		},
	})

	renderFields := map[string]FieldValidator{
		"template_id": idField("template_id", true),
		"inputs": {
			Name: "inputs",
			Type: "object",
		},
		"policy": {
			Name:    "policy",
			Type:    "string",
			Options: []string{"preserve", "complete", "complete-only", "complete_only"},
		},
		"format": {
			Name:    "format",
			Type:    "string",
			Options: []string{"text", "json"},
		},
	}
	inputsAreStrings := func(data map[string]interface{}) error {
		inputs, ok := data["inputs"].(map[string]interface{})
		if !ok {
			return nil
		}
		for name, value := range inputs {
			if _, ok := value.(string); !ok {
				return fmt.Errorf("input '%s' must be a string", name)
			}
		}
		return nil
	}

	v.RegisterSchema(&Schema{
		Name:   "render_template",
		Fields: renderFields,
		Rules:  []func(map[string]interface{}) error{inputsAreStrings},
	})

	v.RegisterSchema(&Schema{
		Name:   "copy_template",
		Fields: renderFields,
		Rules:  []func(map[string]interface{}) error{inputsAreStrings},
	})

	v.RegisterSchema(&Schema{
		Name: "search_templates",
		Fields: map[string]FieldValidator{
			"query": {
				Name:      "query",
				Type:      "string",
				Required:  true,
				MinLength: 1,
				MaxLength: 1000,
			},
			"limit": {
				Name: "limit",
				Type: "int",
				Custom: func(value interface{}) error {
					if value.(int) < 0 {
						return fmt.Errorf("limit cannot be negative")
					}
					return nil
				},
			},
		},
	})
}

// ParsePolicy converts a validated policy field to a renderer policy
func ParsePolicy(data map[string]interface{}) renderer.Policy {
	s, _ := data["policy"].(string)
	p, err := renderer.ParsePolicy(s)
	if err != nil {
		return renderer.DefaultPolicy
	}
	return p
}

// StringMap extracts an object field as placeholder values
func StringMap(data map[string]interface{}, field string) map[string]string {
	obj, ok := data[field].(map[string]interface{})
	if !ok {
		return nil
	}
	values := make(map[string]string, len(obj))
	for k, v := range obj {
		if s, ok := v.(string); ok {
			values[k] = s
		}
	}
	return values
}

// ToAppError converts validation result to AppError
func (result *ValidationResult) ToAppError() *errors.AppError {
	if result.Valid {
		return nil
	}

	if len(result.Errors) == 0 {
		return errors.ValidationError("Validation failed")
	}

	firstError := result.Errors[0]
	appErr := errors.ValidationError(firstError.Message)

	var details []string
	for _, validationErr := range result.Errors {
		details = append(details, fmt.Sprintf("%s: %s", validationErr.Field, validationErr.Message))
	}

	appErr.WithDetails(strings.Join(details, "; "))

	appErr.WithContext("validation_errors", result.Errors)
	if len(result.Warnings) > 0 {
		appErr.WithContext("validation_warnings", result.Warnings)
	}

	return appErr
}

// GetValidatedData returns the validated and converted data
func (result *ValidationResult) GetValidatedData() map[string]interface{} {
	if !result.Valid {
		return nil
	}
	return result.Data
}

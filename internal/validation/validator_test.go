package validation

import (
	"context"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/dpshade/pocket-nodes/internal/errors"
	"github.com/dpshade/pocket-nodes/internal/renderer"
)

func TestValidateSchemas(t *testing.T) {
	v := NewValidator()

	tests := []struct {
		name   string
		schema string
		data   map[string]interface{}
		valid  bool
		code   string
	}{
		{"node id", "select_node", map[string]interface{}{"node_id": "tech-stack"}, true, ""},
		{"missing node id", "select_node", map[string]interface{}{}, false, "REQUIRED_FIELD_MISSING"},
		{"bad node id", "select_node", map[string]interface{}{"node_id": "tech stack"}, false, "PATTERN_MISMATCH"},
		{"known stage", "list_nodes", map[string]interface{}{"stage": "maintenance"}, true, ""},
		{"unknown stage", "list_nodes", map[string]interface{}{"stage": "release"}, false, "INVALID_OPTION"},
		{"empty stage", "list_nodes", map[string]interface{}{"stage": ""}, true, ""},
		{"bad format", "list_nodes", map[string]interface{}{"format": "xml"}, false, "INVALID_OPTION"},
		{"placeholder with spaces", "set_input", map[string]interface{}{"placeholder": "tech stack", "value": "Go"}, true, ""},
		{"placeholder with brackets", "set_input", map[string]interface{}{"placeholder": "[name]"}, false, "CUSTOM_VALIDATION_FAILED"},
		{"render policy", "render_template", map[string]interface{}{"template_id": "intro", "policy": "complete-only"}, true, ""},
		{"render bad policy", "render_template", map[string]interface{}{"template_id": "intro", "policy": "strict"}, false, "INVALID_OPTION"},
		{"render inputs", "render_template", map[string]interface{}{"template_id": "intro", "inputs": map[string]interface{}{"name": "Ada"}}, true, ""},
		{"render non-string input", "render_template", map[string]interface{}{"template_id": "intro", "inputs": map[string]interface{}{"count": 3.0}}, false, "SCHEMA_RULE_VIOLATION"},
		{"render inputs not object", "render_template", map[string]interface{}{"template_id": "intro", "inputs": "name=Ada"}, false, "INVALID_TYPE"},
		{"search", "search_templates", map[string]interface{}{"query": "sql", "limit": "5"}, true, ""},
		{"search negative limit", "search_templates", map[string]interface{}{"query": "sql", "limit": -1.0}, false, "CUSTOM_VALIDATION_FAILED"},
		{"search bad limit", "search_templates", map[string]interface{}{"query": "sql", "limit": "many"}, false, "INVALID_TYPE"},
		{"unknown schema", "delete_everything", map[string]interface{}{}, false, "SCHEMA_NOT_FOUND"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := v.Validate(tt.schema, tt.data)
			if result.Valid != tt.valid {
				t.Fatalf("Valid = %v, want %v (errors: %+v)", result.Valid, tt.valid, result.Errors)
			}
			if tt.code != "" && result.Errors[0].Code != tt.code {
				t.Errorf("first error code = %s, want %s", result.Errors[0].Code, tt.code)
			}
		})
	}
}

func TestValidateConvertsTypes(t *testing.T) {
	v := NewValidator()

	result := v.Validate("search_templates", map[string]interface{}{"query": "review", "limit": 3.0})
	if !result.Valid {
		t.Fatalf("unexpected errors: %+v", result.Errors)
	}
	if limit, ok := result.GetValidatedData()["limit"].(int); !ok || limit != 3 {
		t.Errorf("limit = %#v, want int 3", result.GetValidatedData()["limit"])
	}

	result = v.Validate("render_template", map[string]interface{}{
		"template_id": "intro",
		"inputs":      map[string]string{"tech stack": "Go"},
	})
	if !result.Valid {
		t.Fatalf("unexpected errors: %+v", result.Errors)
	}
	if got := StringMap(result.Data, "inputs"); got["tech stack"] != "Go" {
		t.Errorf("StringMap = %v", got)
	}
}

func TestValidateWarnsOnUnknownFields(t *testing.T) {
	result := NewValidator().Validate("select_node", map[string]interface{}{"node_id": "intro", "force": true})
	if !result.Valid {
		t.Fatalf("unknown fields should not fail validation")
	}
	if len(result.Warnings) != 1 || result.Warnings[0].Field != "force" {
		t.Errorf("Warnings = %+v", result.Warnings)
	}
	if _, ok := result.Data["force"]; ok {
		t.Error("unknown field copied into validated data")
	}
}

func TestValidateErrorOrderIsStable(t *testing.T) {
	v := NewValidator()
	data := map[string]interface{}{"template_id": "bad id", "policy": "nope", "format": "pdf"}

	for i := 0; i < 5; i++ {
		result := v.Validate("render_template", data)
		var fields []string
		for _, e := range result.Errors {
			fields = append(fields, e.Field)
		}
		if got := strings.Join(fields, ","); got != "format,policy,template_id" {
			t.Fatalf("error fields = %s", got)
		}
	}
}

func TestToAppError(t *testing.T) {
	result := NewValidator().Validate("select_template", map[string]interface{}{})
	appErr := result.ToAppError()
	if appErr == nil {
		t.Fatal("expected an AppError")
	}
	if appErr.Code != errors.ErrCodeValidation {
		t.Errorf("Code = %s", appErr.Code)
	}
	if !strings.Contains(appErr.Details, "template_id") {
		t.Errorf("Details = %q", appErr.Details)
	}

	ok := NewValidator().Validate("select_template", map[string]interface{}{"template_id": "intro"})
	if ok.ToAppError() != nil {
		t.Error("valid result converted to an error")
	}
}

func TestParsePolicy(t *testing.T) {
	tests := map[string]renderer.Policy{
		"":              renderer.PolicyPreserve,
		"preserve":      renderer.PolicyPreserve,
		"complete-only": renderer.PolicyCompleteOnly,
		"complete":      renderer.PolicyCompleteOnly,
	}
	for in, want := range tests {
		if got := ParsePolicy(map[string]interface{}{"policy": in}); got != want {
			t.Errorf("ParsePolicy(%q) = %s, want %s", in, got, want)
		}
	}
	if got := ParsePolicy(map[string]interface{}{}); got != renderer.DefaultPolicy {
		t.Errorf("missing policy = %s", got)
	}
}

func TestToolValidatorWrap(t *testing.T) {
	tv := NewToolValidator(nil)

	var seen map[string]interface{}
	handler := tv.Wrap("get_template", func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		seen = ValidatedData(ctx)
		return mcp.NewToolResultText("ok"), nil
	})

	var request mcp.CallToolRequest
	request.Params.Name = "get_template"
	request.Params.Arguments = map[string]interface{}{"template_id": "intro"}

	result, err := handler(context.Background(), request)
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if result.IsError {
		t.Fatalf("valid call rejected: %+v", result.Content)
	}
	if seen["template_id"] != "intro" {
		t.Errorf("validated data = %v", seen)
	}

	seen = nil
	request.Params.Arguments = map[string]interface{}{"template_id": "../etc/passwd"}
	result, err = handler(context.Background(), request)
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if !result.IsError {
		t.Fatal("invalid call accepted")
	}
	if seen != nil {
		t.Error("next handler ran for an invalid call")
	}
	text := result.Content[0].(mcp.TextContent).Text
	if !strings.Contains(text, "template_id") {
		t.Errorf("error text = %q", text)
	}
}

func TestSanitizeString(t *testing.T) {
	if got := SanitizeString("  Go\x00 and\x07 Rust\n\t"); got != "Go and Rust" {
		t.Errorf("SanitizeString = %q", got)
	}
	if got := SanitizeString("line one\nline two"); got != "line one\nline two" {
		t.Errorf("newlines not preserved: %q", got)
	}
}

func TestValidateIdentifier(t *testing.T) {
	for _, id := range []string{"intro", "pr-review", "db_design2"} {
		if err := ValidateIdentifier(id); err != nil {
			t.Errorf("ValidateIdentifier(%q) = %v", id, err)
		}
	}
	for _, id := range []string{"", "has space", "semi;colon", strings.Repeat("a", 201)} {
		if err := ValidateIdentifier(id); err == nil {
			t.Errorf("ValidateIdentifier(%q) accepted", id)
		}
	}
}

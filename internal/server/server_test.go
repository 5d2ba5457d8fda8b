package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/dpshade/pocket-nodes/internal/catalog"
	"github.com/dpshade/pocket-nodes/internal/catalog/builtin"
	"github.com/dpshade/pocket-nodes/internal/models"
)

type toolResponse struct {
	Result struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
		IsError bool `json:"isError"`
		Tools   []struct {
			Name string `json:"name"`
		} `json:"tools"`
	} `json:"result"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cat, err := catalog.New(
		[]models.Node{
			{ID: "greet", Stage: models.StagePlanning, Name: "Greeting", DefaultPrompt: "Hello [name], welcome to [place]."},
			{ID: "build", Stage: models.StageImplementation, DefaultPrompt: "Build [feature].\n\nUse [language] with [framework]."},
		},
		[]models.RawTemplate{
			{ID: "build-alt", NodeID: "build", Name: "Alternative", Content: "Alternative for [feature]."},
		},
	)
	if err != nil {
		t.Fatalf("Failed to build catalogue: %v", err)
	}
	return NewServer(cat, "test", nil)
}

func call(t *testing.T, s *Server, method string, params interface{}) toolResponse {
	t.Helper()
	raw, err := json.Marshal(map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  method,
		"params":  params,
	})
	if err != nil {
		t.Fatal(err)
	}

	reply := s.MCPServer().HandleMessage(context.Background(), raw)
	data, err := json.Marshal(reply)
	if err != nil {
		t.Fatalf("Failed to encode reply: %v", err)
	}

	var resp toolResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		t.Fatalf("Failed to decode reply %s: %v", data, err)
	}
	if resp.Error != nil {
		t.Fatalf("%s returned JSON-RPC error: %s", method, resp.Error.Message)
	}
	return resp
}

func callTool(t *testing.T, s *Server, name string, args map[string]interface{}) (string, bool) {
	t.Helper()
	resp := call(t, s, "tools/call", map[string]interface{}{"name": name, "arguments": args})
	if len(resp.Result.Content) == 0 {
		t.Fatalf("%s returned no content", name)
	}
	return resp.Result.Content[0].Text, resp.Result.IsError
}

func TestToolsList(t *testing.T) {
	resp := call(t, newTestServer(t), "tools/list", map[string]interface{}{})

	var names []string
	for _, tool := range resp.Result.Tools {
		names = append(names, tool.Name)
	}
	got := strings.Join(names, ",")
	for _, want := range []string{"list_nodes", "list_templates", "get_template", "render_template", "search_templates"} {
		if !strings.Contains(got, want) {
			t.Errorf("tools/list missing %s: %s", want, got)
		}
	}
}

func TestRenderTemplateTool(t *testing.T) {
	s := newTestServer(t)

	text, isErr := callTool(t, s, "render_template", map[string]interface{}{
		"template_id": "greet",
		"inputs":      map[string]interface{}{"name": "Ada", "place": "Paris"},
	})
	if isErr || text != "Hello Ada, welcome to Paris." {
		t.Errorf("render = %q (error %v)", text, isErr)
	}

	text, _ = callTool(t, s, "render_template", map[string]interface{}{
		"template_id": "build",
		"inputs":      map[string]interface{}{"feature": "login"},
	})
	if text != "Build login.\n\nUse [language] with [framework]." {
		t.Errorf("preserve render = %q", text)
	}

	text, _ = callTool(t, s, "render_template", map[string]interface{}{
		"template_id": "build",
		"inputs":      map[string]interface{}{"feature": "login"},
		"policy":      "complete-only",
	})
	if text != "Build login." {
		t.Errorf("complete-only render = %q", text)
	}
}

func TestRenderTemplateToolCallsAreIndependent(t *testing.T) {
	s := newTestServer(t)

	callTool(t, s, "render_template", map[string]interface{}{
		"template_id": "greet",
		"inputs":      map[string]interface{}{"name": "Ada"},
	})
	text, _ := callTool(t, s, "render_template", map[string]interface{}{"template_id": "greet"})
	if text != "Hello [name], welcome to [place]." {
		t.Errorf("second call saw earlier inputs: %q", text)
	}
}

func TestToolErrors(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		tool string
		args map[string]interface{}
		want string
	}{
		{"render_template", map[string]interface{}{"template_id": "missing"}, "not found"},
		{"render_template", map[string]interface{}{}, "template_id"},
		{"render_template", map[string]interface{}{"template_id": "greet", "policy": "strict"}, "policy"},
		{"list_templates", map[string]interface{}{"node_id": "deploy"}, "not found"},
		{"get_template", map[string]interface{}{"template_id": "a b"}, "template_id"},
		{"list_nodes", map[string]interface{}{"stage": "release"}, "stage"},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s %v", tt.tool, tt.args), func(t *testing.T) {
			text, isErr := callTool(t, s, tt.tool, tt.args)
			if !isErr {
				t.Fatalf("expected a tool error, got %q", text)
			}
			if !strings.Contains(text, tt.want) {
				t.Errorf("error %q does not mention %q", text, tt.want)
			}
		})
	}
}

func TestListAndGetTools(t *testing.T) {
	s := newTestServer(t)

	text, _ := callTool(t, s, "list_nodes", map[string]interface{}{"stage": "implementation"})
	var nodes []struct {
		ID        string   `json:"id"`
		Templates []string `json:"templates"`
	}
	if err := json.Unmarshal([]byte(text), &nodes); err != nil {
		t.Fatalf("list_nodes is not JSON: %v", err)
	}
	if len(nodes) != 1 || nodes[0].ID != "build" || strings.Join(nodes[0].Templates, ",") != "build,build-alt" {
		t.Errorf("list_nodes = %+v", nodes)
	}

	text, _ = callTool(t, s, "get_template", map[string]interface{}{"template_id": "build"})
	var tmpl struct {
		Placeholders []string `json:"placeholders"`
		Sentences    []string `json:"sentences"`
		Default      bool     `json:"default"`
	}
	if err := json.Unmarshal([]byte(text), &tmpl); err != nil {
		t.Fatalf("get_template is not JSON: %v", err)
	}
	if !tmpl.Default || len(tmpl.Sentences) != 2 || strings.Join(tmpl.Placeholders, ",") != "feature,language,framework" {
		t.Errorf("get_template = %+v", tmpl)
	}

	text, _ = callTool(t, s, "search_templates", map[string]interface{}{"query": "alternative", "limit": 1})
	if !strings.Contains(text, `"id": "build-alt"`) {
		t.Errorf("search_templates = %s", text)
	}
}

func TestBuiltinCatalogueOverMCP(t *testing.T) {
	cat, err := builtin.Load()
	if err != nil {
		t.Fatalf("builtin.Load: %v", err)
	}
	s := NewServer(cat, "test", nil)

	text, isErr := callTool(t, s, "render_template", map[string]interface{}{
		"template_id": "intro",
		"inputs":      map[string]interface{}{"tech stack": "Go"},
		"policy":      "complete-only",
	})
	if isErr {
		t.Fatalf("render failed: %s", text)
	}
	if text != "" {
		t.Errorf("intro is a single paragraph with unfilled placeholders, got %q", text)
	}
}

func TestHTTPHealth(t *testing.T) {
	s := newTestServer(t)
	addr, err := s.Start("127.0.0.1:0")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer s.Stop()

	resp, err := http.Get("http://" + addr.String() + "/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	defer resp.Body.Close()

	var body map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["status"] != "ok" || body["templates"] != float64(3) {
		t.Errorf("health = %v", body)
	}

	post, err := http.Post("http://"+addr.String()+"/health", "application/json", nil)
	if err != nil {
		t.Fatalf("POST /health: %v", err)
	}
	post.Body.Close()
	if post.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("POST /health status = %d", post.StatusCode)
	}
}

// Package server exposes the catalogue and the renderer to MCP clients.
//
// Every tool call is stateless: render_template builds its own input snapshot
// from the call arguments, so MCP clients never share the interactive session.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/dpshade/pocket-nodes/internal/catalog"
	"github.com/dpshade/pocket-nodes/internal/logger"
	"github.com/dpshade/pocket-nodes/internal/models"
	"github.com/dpshade/pocket-nodes/internal/service"
	"github.com/dpshade/pocket-nodes/internal/tokenizer"
	"github.com/dpshade/pocket-nodes/internal/validation"
)

const serverName = "pocket-nodes"

// Server is an MCP server over one catalogue
type Server struct {
	catalog    *catalog.Catalog
	log        *logger.Logger
	tools      *validation.ToolValidator
	mcp        *server.MCPServer
	listener   net.Listener
	httpServer *http.Server
}

// NewServer creates an MCP server with every tool registered
func NewServer(cat *catalog.Catalog, version string, log *logger.Logger) *Server {
	if log == nil {
		log = logger.Nop()
	}
	s := &Server{
		catalog: cat,
		log:     log,
		tools:   validation.NewToolValidator(log),
	}

	s.mcp = server.NewMCPServer(
		serverName,
		version,
		server.WithToolCapabilities(false),
	)
	s.registerTools()

	return s
}

// MCPServer returns the underlying protocol server
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

// ServeStdio serves the protocol over stdin/stdout until the client disconnects
func (s *Server) ServeStdio() error {
	s.log.Info("mcp server starting", "transport", "stdio")
	return server.ServeStdio(s.mcp)
}

func (s *Server) registerTools() {
	stages := make([]string, len(models.Stages))
	for i, st := range models.Stages {
		stages[i] = string(st)
	}

	s.mcp.AddTool(mcp.NewTool(
		"list_nodes",
		mcp.WithDescription("List the project nodes of the catalogue in workflow order. Each node has a default template with the same id."),
		mcp.WithString("stage",
			mcp.Description("Only list nodes of this stage"),
			mcp.Enum(stages...),
		),
	), s.tools.Wrap("list_nodes", s.handleListNodes))

	s.mcp.AddTool(mcp.NewTool(
		"list_templates",
		mcp.WithDescription("List the templates of a node, default template first"),
		mcp.WithString("node_id",
			mcp.Description("Node id as returned by list_nodes"),
			mcp.Required(),
		),
	), s.tools.Wrap("list_templates", s.handleListTemplates))

	s.mcp.AddTool(mcp.NewTool(
		"get_template",
		mcp.WithDescription("Get a template's content, its sentences and the distinct [placeholder] names it expects"),
		mcp.WithString("template_id",
			mcp.Description("Template id"),
			mcp.Required(),
		),
	), s.tools.Wrap("get_template", s.handleGetTemplate))

	s.mcp.AddTool(mcp.NewTool(
		"render_template",
		mcp.WithDescription(
			"Render a template with placeholder values. With policy preserve every sentence is kept and "+
				"unfilled placeholders stay as [name]. With policy complete-only sentences with an unfilled "+
				"placeholder are dropped."),
		mcp.WithString("template_id",
			mcp.Description("Template id"),
			mcp.Required(),
		),
		mcp.WithObject("inputs",
			mcp.Description("Placeholder values keyed by placeholder name without brackets"),
			mcp.AdditionalProperties(map[string]any{"type": "string"}),
		),
		mcp.WithString("policy",
			mcp.Description("Render policy"),
			mcp.Enum("preserve", "complete-only"),
			mcp.DefaultString("preserve"),
		),
	), s.tools.Wrap("render_template", s.handleRenderTemplate))

	s.mcp.AddTool(mcp.NewTool(
		"search_templates",
		mcp.WithDescription("Fuzzy search templates by title, id, description and content"),
		mcp.WithString("query",
			mcp.Description("Search text"),
			mcp.Required(),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of results"),
		),
	), s.tools.Wrap("search_templates", s.handleSearchTemplates))
}

// nodeInfo is the list_nodes entry
type nodeInfo struct {
	models.Node
	Templates []string `json:"templates"`
}

// templateInfo is the list_templates and search_templates entry
type templateInfo struct {
	ID           string   `json:"id"`
	NodeID       string   `json:"node_id"`
	Title        string   `json:"title,omitempty"`
	Description  string   `json:"description,omitempty"`
	Placeholders []string `json:"placeholders"`
	Default      bool     `json:"default"`
}

func newTemplateInfo(t *models.ParsedTemplate) templateInfo {
	return templateInfo{
		ID:           t.ID,
		NodeID:       t.NodeID,
		Title:        t.Name,
		Description:  t.Summary,
		Placeholders: t.Placeholders(),
		Default:      t.ID == t.NodeID,
	}
}

func (s *Server) handleListNodes(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := validation.ValidatedData(ctx)

	nodes := s.catalog.Nodes()
	if stage, _ := args["stage"].(string); stage != "" {
		nodes = s.catalog.NodesByStage(models.Stage(stage))
	}

	out := make([]nodeInfo, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, nodeInfo{Node: n, Templates: s.catalog.TemplateIDs(n.ID)})
	}
	return jsonResult(out)
}

func (s *Server) handleListTemplates(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	nodeID := validation.ValidatedData(ctx)["node_id"].(string)
	if _, ok := s.catalog.Node(nodeID); !ok {
		return mcp.NewToolResultError(fmt.Sprintf("node %q not found", nodeID)), nil
	}

	templates := s.catalog.TemplatesForNode(nodeID)
	out := make([]templateInfo, 0, len(templates))
	for _, t := range templates {
		out = append(out, newTemplateInfo(t))
	}
	return jsonResult(out)
}

func (s *Server) handleGetTemplate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := validation.ValidatedData(ctx)["template_id"].(string)
	t, ok := s.catalog.Template(id)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("template %q not found", id)), nil
	}

	return jsonResult(struct {
		templateInfo
		Content   string   `json:"content"`
		Sentences []string `json:"sentences"`
	}{
		templateInfo: newTemplateInfo(t),
		Content:      t.Content,
		Sentences:    tokenizer.SplitSentences(t.Content),
	})
}

func (s *Server) handleRenderTemplate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := validation.ValidatedData(ctx)
	id := args["template_id"].(string)

	text, err := service.RenderValues(s.catalog, id, validation.StringMap(args, "inputs"), validation.ParsePolicy(args))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	s.log.Debug("template rendered", "template_id", id, "chars", len(text))
	return mcp.NewToolResultText(text), nil
}

func (s *Server) handleSearchTemplates(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := validation.ValidatedData(ctx)

	results := s.catalog.Search(args["query"].(string))
	if limit, ok := args["limit"].(int); ok && limit > 0 && len(results) > limit {
		results = results[:limit]
	}

	out := make([]templateInfo, 0, len(results))
	for _, t := range results {
		out = append(out, newTemplateInfo(t))
	}
	return jsonResult(out)
}

func jsonResult(v interface{}) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encoding result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

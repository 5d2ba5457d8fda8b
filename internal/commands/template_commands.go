// Package commands/template_commands implements catalogue and render commands.
//
// COMMAND IMPLEMENTATIONS:
// - ListNodesCommand: nodes of the catalogue, optionally one stage
// - ListTemplatesCommand: templates of a node, default first
// - GetTemplateCommand: one template with its sentence groups and placeholders
// - SearchTemplatesCommand: fuzzy search across every template
// - RenderTemplateCommand: session-free render from placeholder values
// - CopyTemplateCommand: render through the session and send to the clipboard
package commands

import (
	"context"
	"fmt"

	"github.com/dpshade/pocket-nodes/internal/errors"
	"github.com/dpshade/pocket-nodes/internal/models"
	"github.com/dpshade/pocket-nodes/internal/notify"
	"github.com/dpshade/pocket-nodes/internal/renderer"
	"github.com/dpshade/pocket-nodes/internal/service"
	"github.com/dpshade/pocket-nodes/internal/validation"
)

// TemplateDetail is the data returned by the show command
type TemplateDetail struct {
	Template     *models.ParsedTemplate `json:"template"`
	Placeholders []string               `json:"placeholders"`
	IsDefault    bool                   `json:"is_default"`
}

// RenderOutput is the data returned by the render and copy commands
type RenderOutput struct {
	TemplateID string          `json:"template_id"`
	Policy     renderer.Policy `json:"policy"`
	Text       string          `json:"text"`
	Filled     int             `json:"filled"`
	Total      int             `json:"total"`
	Messages   string          `json:"messages,omitempty"` // JSON message array when format is json
	Level      notify.Level    `json:"level,omitempty"`
}

// ListNodesCommand lists catalogue nodes with optional stage filtering
type ListNodesCommand struct {
	service *service.Service
	Stage   string
	Format  string
}

func (c *ListNodesCommand) SetService(svc *service.Service) {
	c.service = svc
}

func (c *ListNodesCommand) SetParameters(params map[string]interface{}) error {
	if stage, ok := params["stage"].(string); ok {
		c.Stage = stage
	}
	if format, ok := params["format"].(string); ok {
		c.Format = format
	}
	return nil
}

func (c *ListNodesCommand) Validate() error {
	return requireService(c.service)
}

func (c *ListNodesCommand) GetName() string {
	return "nodes"
}

func (c *ListNodesCommand) GetDescription() string {
	return "List project nodes, optionally limited to one stage"
}

func (c *ListNodesCommand) Execute(ctx context.Context) (*CommandResult, error) {
	cat := c.service.Catalog()

	nodes := cat.Nodes()
	if c.Stage != "" {
		stage, _ := models.ParseStage(c.Stage)
		nodes = cat.NodesByStage(stage)
	}

	return &CommandResult{
		Success: true,
		Data:    nodes,
		Message: fmt.Sprintf("Found %d nodes", len(nodes)),
	}, nil
}

// ListTemplatesCommand lists the templates of one node
type ListTemplatesCommand struct {
	service *service.Service
	NodeID  string
	Format  string
}

func (c *ListTemplatesCommand) SetService(svc *service.Service) {
	c.service = svc
}

func (c *ListTemplatesCommand) SetParameters(params map[string]interface{}) error {
	if id, ok := params["node_id"].(string); ok {
		c.NodeID = id
	}
	if format, ok := params["format"].(string); ok {
		c.Format = format
	}
	return nil
}

func (c *ListTemplatesCommand) Validate() error {
	if err := requireService(c.service); err != nil {
		return err
	}
	if c.NodeID == "" {
		return fmt.Errorf("node ID is required")
	}
	return nil
}

func (c *ListTemplatesCommand) GetName() string {
	return "templates"
}

func (c *ListTemplatesCommand) GetDescription() string {
	return "List the templates of a node"
}

func (c *ListTemplatesCommand) Execute(ctx context.Context) (*CommandResult, error) {
	cat := c.service.Catalog()
	if _, ok := cat.Node(c.NodeID); !ok {
		return nil, errors.NotFoundError(fmt.Sprintf("node '%s'", c.NodeID))
	}

	templates := cat.TemplatesForNode(c.NodeID)
	return &CommandResult{
		Success: true,
		Data:    templates,
		Message: fmt.Sprintf("Found %d templates", len(templates)),
	}, nil
}

// GetTemplateCommand retrieves one template by id
type GetTemplateCommand struct {
	service    *service.Service
	TemplateID string
	Format     string
}

func (c *GetTemplateCommand) SetService(svc *service.Service) {
	c.service = svc
}

func (c *GetTemplateCommand) SetParameters(params map[string]interface{}) error {
	if id, ok := params["template_id"].(string); ok {
		c.TemplateID = id
	}
	if format, ok := params["format"].(string); ok {
		c.Format = format
	}
	return nil
}

func (c *GetTemplateCommand) Validate() error {
	if err := requireService(c.service); err != nil {
		return err
	}
	if c.TemplateID == "" {
		return fmt.Errorf("template ID is required")
	}
	return nil
}

func (c *GetTemplateCommand) GetName() string {
	return "show"
}

func (c *GetTemplateCommand) GetDescription() string {
	return "Show a template with its sentences and placeholders"
}

func (c *GetTemplateCommand) Execute(ctx context.Context) (*CommandResult, error) {
	t, ok := c.service.Catalog().Template(c.TemplateID)
	if !ok {
		return nil, errors.NotFoundError(fmt.Sprintf("template '%s'", c.TemplateID))
	}

	return &CommandResult{
		Success: true,
		Data: &TemplateDetail{
			Template:     t,
			Placeholders: t.Placeholders(),
			IsDefault:    t.ID == t.NodeID,
		},
		Message: fmt.Sprintf("Template %s", t.ID),
	}, nil
}

// SearchTemplatesCommand performs fuzzy search across templates
type SearchTemplatesCommand struct {
	service *service.Service
	Query   string
	Limit   int
}

func (c *SearchTemplatesCommand) SetService(svc *service.Service) {
	c.service = svc
}

func (c *SearchTemplatesCommand) SetParameters(params map[string]interface{}) error {
	if query, ok := params["query"].(string); ok {
		c.Query = query
	}
	if limit, ok := params["limit"].(int); ok {
		c.Limit = limit
	}
	return nil
}

func (c *SearchTemplatesCommand) Validate() error {
	if err := requireService(c.service); err != nil {
		return err
	}
	if c.Query == "" {
		return fmt.Errorf("search query is required")
	}
	return nil
}

func (c *SearchTemplatesCommand) GetName() string {
	return "search"
}

func (c *SearchTemplatesCommand) GetDescription() string {
	return "Fuzzy search templates by title, id, description and content"
}

func (c *SearchTemplatesCommand) Execute(ctx context.Context) (*CommandResult, error) {
	results := c.service.Search(c.Query)
	if c.Limit > 0 && len(results) > c.Limit {
		results = results[:c.Limit]
	}

	return &CommandResult{
		Success: true,
		Data:    results,
		Message: fmt.Sprintf("Found %d templates matching '%s'", len(results), c.Query),
	}, nil
}

// RenderTemplateCommand renders a template from placeholder values without
// touching the session
type RenderTemplateCommand struct {
	service    *service.Service
	TemplateID string
	Inputs     map[string]string
	Policy     renderer.Policy
	Format     string
}

func (c *RenderTemplateCommand) SetService(svc *service.Service) {
	c.service = svc
}

func (c *RenderTemplateCommand) SetParameters(params map[string]interface{}) error {
	if id, ok := params["template_id"].(string); ok {
		c.TemplateID = id
	}
	c.Inputs = validation.StringMap(params, "inputs")
	c.Policy = validation.ParsePolicy(params)
	if format, ok := params["format"].(string); ok {
		c.Format = format
	}
	return nil
}

func (c *RenderTemplateCommand) Validate() error {
	if err := requireService(c.service); err != nil {
		return err
	}
	if c.TemplateID == "" {
		return fmt.Errorf("template ID is required")
	}
	return nil
}

func (c *RenderTemplateCommand) GetName() string {
	return "render"
}

func (c *RenderTemplateCommand) GetDescription() string {
	return "Render a template with placeholder values"
}

func (c *RenderTemplateCommand) Execute(ctx context.Context) (*CommandResult, error) {
	cat := c.service.Catalog()
	t, ok := cat.Template(c.TemplateID)
	if !ok {
		return nil, errors.NotFoundError(fmt.Sprintf("template '%s'", c.TemplateID))
	}

	inputs := service.KeyedInputs(cat, t.ID, c.Inputs)
	r := renderer.NewRenderer(t, c.Policy)
	filled, total := renderer.Progress(t, inputs)

	out := &RenderOutput{
		TemplateID: t.ID,
		Policy:     c.Policy,
		Text:       r.RenderText(inputs),
		Filled:     filled,
		Total:      total,
	}

	if c.Format == "json" {
		messages, err := r.RenderJSON(inputs)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeInternalError, "Failed to render JSON")
		}
		out.Messages = messages
	}

	return &CommandResult{
		Success: true,
		Data:    out,
		Message: fmt.Sprintf("Rendered %s (%d/%d fields)", t.ID, filled, total),
	}, nil
}

// CopyTemplateCommand selects a template in the session, applies the values and
// copies the rendered text. Blank output is a warning, not a failure.
type CopyTemplateCommand struct {
	RenderTemplateCommand
}

func (c *CopyTemplateCommand) GetName() string {
	return "copy"
}

func (c *CopyTemplateCommand) GetDescription() string {
	return "Render a template and copy it to the clipboard"
}

func (c *CopyTemplateCommand) Execute(ctx context.Context) (*CommandResult, error) {
	t, ok := c.service.Catalog().Template(c.TemplateID)
	if !ok {
		return nil, errors.NotFoundError(fmt.Sprintf("template '%s'", c.TemplateID))
	}

	svc := c.service
	svc.SelectNode(t.NodeID)
	svc.SelectTemplate(t.ID)
	for name, value := range c.Inputs {
		svc.SetInput(name, value)
	}
	svc.SetPolicy(c.Policy)

	text, level, copyErr := svc.Copy()
	filled, total := svc.Progress()
	out := &RenderOutput{
		TemplateID: t.ID,
		Policy:     c.Policy,
		Text:       text,
		Filled:     filled,
		Total:      total,
		Level:      level,
	}

	switch level {
	case notify.LevelError:
		return &CommandResult{
			Success: false,
			Data:    out,
			Error:   errorInfo(errors.ClipboardError(copyErr)),
		}, nil
	case notify.LevelWarning:
		return &CommandResult{
			Success: true,
			Data:    out,
			Message: service.MessageNothingToCopy,
		}, nil
	}

	return &CommandResult{
		Success: true,
		Data:    out,
		Message: "Copied to clipboard!",
	}, nil
}

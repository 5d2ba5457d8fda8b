// Package commands/utility_commands implements stage, session and health commands.
//
// COMMAND IMPLEMENTATIONS:
// - ListStagesCommand: the workflow stages with their node counts
// - SelectNodeCommand, SelectTemplateCommand, SetInputCommand: drive the session
// - SessionStatusCommand: current node, template, policy and progress
// - HealthCheckCommand: catalogue sanity report
//
// Session commands mirror what the TUI does with keys, so scripted sessions
// and tests follow the same selection rules.
package commands

import (
	"context"
	"fmt"

	"github.com/dpshade/pocket-nodes/internal/errors"
	"github.com/dpshade/pocket-nodes/internal/models"
	"github.com/dpshade/pocket-nodes/internal/service"
)

// StageSummary describes one workflow stage
type StageSummary struct {
	Stage models.Stage `json:"stage" yaml:"stage"`
	Title string       `json:"title" yaml:"title"`
	Nodes int          `json:"nodes" yaml:"nodes"`
}

// SessionStatus is the data returned by session commands
type SessionStatus struct {
	SessionID  string `json:"session_id"`
	NodeID     string `json:"node_id"`
	TemplateID string `json:"template_id,omitempty"`
	Policy     string `json:"policy"`
	Filled     int    `json:"filled"`
	Total      int    `json:"total"`
	Preview    string `json:"preview"`
}

func sessionStatus(svc *service.Service) *SessionStatus {
	status := &SessionStatus{
		SessionID: svc.SessionID(),
		NodeID:    svc.CurrentNode().ID,
		Policy:    svc.Policy().String(),
		Preview:   svc.Preview(),
	}
	if t, ok := svc.CurrentTemplate(); ok {
		status.TemplateID = t.ID
	}
	status.Filled, status.Total = svc.Progress()
	return status
}

// ListStagesCommand lists the workflow stages
type ListStagesCommand struct {
	service *service.Service
	Format  string
}

func (c *ListStagesCommand) SetService(svc *service.Service) {
	c.service = svc
}

func (c *ListStagesCommand) SetParameters(params map[string]interface{}) error {
	if format, ok := params["format"].(string); ok {
		c.Format = format
	}
	return nil
}

func (c *ListStagesCommand) Validate() error {
	return requireService(c.service)
}

func (c *ListStagesCommand) GetName() string {
	return "stages"
}

func (c *ListStagesCommand) GetDescription() string {
	return "List workflow stages and how many nodes each holds"
}

func (c *ListStagesCommand) Execute(ctx context.Context) (*CommandResult, error) {
	cat := c.service.Catalog()

	var stages []StageSummary
	for _, stage := range cat.Stages() {
		stages = append(stages, StageSummary{
			Stage: stage,
			Title: stage.Title(),
			Nodes: len(cat.NodesByStage(stage)),
		})
	}

	return &CommandResult{
		Success: true,
		Data:    stages,
		Message: fmt.Sprintf("Found %d stages", len(stages)),
	}, nil
}

// SelectNodeCommand makes a node current and clears its inputs
type SelectNodeCommand struct {
	service *service.Service
	NodeID  string
}

func (c *SelectNodeCommand) SetService(svc *service.Service) {
	c.service = svc
}

func (c *SelectNodeCommand) SetParameters(params map[string]interface{}) error {
	if id, ok := params["node_id"].(string); ok {
		c.NodeID = id
	}
	return nil
}

func (c *SelectNodeCommand) Validate() error {
	return requireService(c.service)
}

func (c *SelectNodeCommand) GetName() string {
	return "select-node"
}

func (c *SelectNodeCommand) GetDescription() string {
	return "Select a node and its default template"
}

func (c *SelectNodeCommand) Execute(ctx context.Context) (*CommandResult, error) {
	if !c.service.SelectNode(c.NodeID) {
		return nil, errors.NotFoundError(fmt.Sprintf("node '%s'", c.NodeID))
	}
	return &CommandResult{
		Success: true,
		Data:    sessionStatus(c.service),
		Message: fmt.Sprintf("Selected node %s", c.NodeID),
	}, nil
}

// SelectTemplateCommand switches to another template of the current node
type SelectTemplateCommand struct {
	service    *service.Service
	TemplateID string
}

func (c *SelectTemplateCommand) SetService(svc *service.Service) {
	c.service = svc
}

func (c *SelectTemplateCommand) SetParameters(params map[string]interface{}) error {
	if id, ok := params["template_id"].(string); ok {
		c.TemplateID = id
	}
	return nil
}

func (c *SelectTemplateCommand) Validate() error {
	return requireService(c.service)
}

func (c *SelectTemplateCommand) GetName() string {
	return "select-template"
}

func (c *SelectTemplateCommand) GetDescription() string {
	return "Select a template of the current node"
}

func (c *SelectTemplateCommand) Execute(ctx context.Context) (*CommandResult, error) {
	if !c.service.SelectTemplate(c.TemplateID) {
		return nil, errors.NotFoundError(fmt.Sprintf("template '%s' on node '%s'", c.TemplateID, c.service.CurrentNode().ID))
	}
	return &CommandResult{
		Success: true,
		Data:    sessionStatus(c.service),
		Message: fmt.Sprintf("Selected template %s", c.TemplateID),
	}, nil
}

// SetInputCommand stores a placeholder value for the current template
type SetInputCommand struct {
	service     *service.Service
	Placeholder string
	Value       string
}

func (c *SetInputCommand) SetService(svc *service.Service) {
	c.service = svc
}

func (c *SetInputCommand) SetParameters(params map[string]interface{}) error {
	if name, ok := params["placeholder"].(string); ok {
		c.Placeholder = name
	}
	if value, ok := params["value"].(string); ok {
		c.Value = value
	}
	return nil
}

func (c *SetInputCommand) Validate() error {
	return requireService(c.service)
}

func (c *SetInputCommand) GetName() string {
	return "set-input"
}

func (c *SetInputCommand) GetDescription() string {
	return "Set a placeholder value of the current template"
}

func (c *SetInputCommand) Execute(ctx context.Context) (*CommandResult, error) {
	if !c.service.SetInput(c.Placeholder, c.Value) {
		return nil, errors.ValidationError("no template selected")
	}
	return &CommandResult{
		Success: true,
		Data:    sessionStatus(c.service),
		Message: fmt.Sprintf("Set %s", c.Placeholder),
	}, nil
}

// SessionStatusCommand reports the current session state
type SessionStatusCommand struct {
	service *service.Service
}

func (c *SessionStatusCommand) SetService(svc *service.Service) {
	c.service = svc
}

func (c *SessionStatusCommand) Validate() error {
	return requireService(c.service)
}

func (c *SessionStatusCommand) GetName() string {
	return "status"
}

func (c *SessionStatusCommand) GetDescription() string {
	return "Show the current node, template and rendered preview"
}

func (c *SessionStatusCommand) Execute(ctx context.Context) (*CommandResult, error) {
	return &CommandResult{
		Success: true,
		Data:    sessionStatus(c.service),
	}, nil
}

// HealthCheckCommand reports catalogue health
type HealthCheckCommand struct {
	service *service.Service
}

func (c *HealthCheckCommand) SetService(svc *service.Service) {
	c.service = svc
}

func (c *HealthCheckCommand) Validate() error {
	return requireService(c.service)
}

func (c *HealthCheckCommand) GetName() string {
	return "health"
}

func (c *HealthCheckCommand) GetDescription() string {
	return "Check that every node has a default template"
}

func (c *HealthCheckCommand) Execute(ctx context.Context) (*CommandResult, error) {
	cat := c.service.Catalog()

	var missing []string
	for _, n := range cat.Nodes() {
		if _, ok := cat.DefaultTemplate(n.ID); !ok {
			missing = append(missing, n.ID)
		}
	}

	status := "healthy"
	if len(missing) > 0 {
		status = "degraded"
	}

	return &CommandResult{
		Success: true,
		Data: map[string]interface{}{
			"status":           status,
			"service":          "pocket-nodes",
			"session_id":       c.service.SessionID(),
			"nodes":            len(cat.Nodes()),
			"templates":        len(cat.Templates()),
			"missing_defaults": missing,
		},
		Message: fmt.Sprintf("Catalogue is %s", status),
	}, nil
}

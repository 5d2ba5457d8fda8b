package service

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/dpshade/pocket-nodes/internal/catalog"
	"github.com/dpshade/pocket-nodes/internal/clipboard"
	apperrors "github.com/dpshade/pocket-nodes/internal/errors"
	"github.com/dpshade/pocket-nodes/internal/logger"
	"github.com/dpshade/pocket-nodes/internal/models"
	"github.com/dpshade/pocket-nodes/internal/notify"
	"github.com/dpshade/pocket-nodes/internal/renderer"
	"github.com/dpshade/pocket-nodes/internal/store"
)

const (
	// MessageNothingToCopy is the warning shown when the rendered text is blank
	MessageNothingToCopy = "Nothing to copy"

	// MessageNothingToPreview replaces an empty preview
	MessageNothingToPreview = "Nothing to preview"
)

// Service owns one interactive session: the current node and template, the
// typed placeholder values and the render policy. It is not safe for
// concurrent use; each surface drives its own Service.
type Service struct {
	catalog   *catalog.Catalog
	inputs    *store.InputStore
	policy    renderer.Policy
	notifier  notify.Notifier
	clipboard clipboard.Sink
	log       *logger.Logger
	sessionID string

	nodeID     string
	templateID string
}

// Option configures a Service
type Option func(*Service)

func WithLogger(log *logger.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

func WithNotifier(n notify.Notifier) Option {
	return func(s *Service) {
		if n != nil {
			s.notifier = n
		}
	}
}

func WithClipboard(sink clipboard.Sink) Option {
	return func(s *Service) {
		if sink != nil {
			s.clipboard = sink
		}
	}
}

func WithPolicy(p renderer.Policy) Option {
	return func(s *Service) {
		s.policy = p
	}
}

// NewService creates a session over cat with the first node and its default
// template selected
func NewService(cat *catalog.Catalog, opts ...Option) (*Service, error) {
	if cat == nil {
		return nil, apperrors.InternalError("service requires a catalogue")
	}

	s := &Service{
		catalog:   cat,
		inputs:    store.New(cat),
		policy:    renderer.DefaultPolicy,
		notifier:  notify.Discard,
		clipboard: clipboard.System{},
		log:       logger.Nop(),
		sessionID: uuid.New().String(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With("session_id", s.sessionID)

	first := cat.FirstNode()
	s.nodeID = first.ID
	if def, ok := cat.DefaultTemplate(first.ID); ok {
		s.templateID = def.ID
	}

	s.log.Debug("session started", "node_id", s.nodeID, "template_id", s.templateID, "policy", s.policy)
	return s, nil
}

// SessionID identifies the session in logs
func (s *Service) SessionID() string {
	return s.sessionID
}

// Catalog returns the catalogue the session runs over
func (s *Service) Catalog() *catalog.Catalog {
	return s.catalog
}

// CurrentNode returns the selected node
func (s *Service) CurrentNode() models.Node {
	n, _ := s.catalog.Node(s.nodeID)
	return n
}

// CurrentTemplate returns the selected template; false when the node has none
func (s *Service) CurrentTemplate() (*models.ParsedTemplate, bool) {
	if s.templateID == "" {
		return nil, false
	}
	return s.catalog.Template(s.templateID)
}

// Templates returns the templates of the current node
func (s *Service) Templates() []*models.ParsedTemplate {
	return s.catalog.TemplatesForNode(s.nodeID)
}

// SelectNode makes id the current node, selects its default template and
// clears every input of the node's templates. Unknown ids are ignored.
func (s *Service) SelectNode(id string) bool {
	node, ok := s.catalog.Node(id)
	if !ok {
		s.log.Debug("ignoring unknown node", "node_id", id)
		return false
	}

	s.setNode(node)
	s.inputs.ClearForNode(node.ID)
	return true
}

func (s *Service) setNode(node models.Node) {
	s.nodeID = node.ID
	s.templateID = ""
	if def, ok := s.catalog.DefaultTemplate(node.ID); ok {
		s.templateID = def.ID
	}
	s.log.Debug("node selected", "node_id", s.nodeID, "template_id", s.templateID)
}

// SelectTemplate switches to another template of the current node. Unknown
// ids and templates of other nodes are ignored. Inputs are kept.
func (s *Service) SelectTemplate(id string) bool {
	t, ok := s.catalog.Template(id)
	if !ok || t.NodeID != s.nodeID {
		s.log.Debug("ignoring template selection", "template_id", id, "node_id", s.nodeID)
		return false
	}

	s.templateID = t.ID
	s.log.Debug("template selected", "template_id", s.templateID)
	return true
}

// SelectStage moves to stage. When the current node is in another stage the
// first node of stage is selected and every input is cleared.
func (s *Service) SelectStage(stage models.Stage) bool {
	nodes := s.catalog.NodesByStage(stage)
	if len(nodes) == 0 {
		return false
	}
	if s.CurrentNode().Stage == stage {
		return true
	}

	s.setNode(nodes[0])
	s.inputs.ClearAll()
	s.log.Debug("stage selected", "stage", stage)
	return true
}

// SetInput stores a raw value for a placeholder of the current template
func (s *Service) SetInput(placeholder, value string) bool {
	if s.templateID == "" {
		return false
	}
	s.inputs.SetInput(s.templateID, placeholder, value)
	return true
}

// Input returns the raw value of a placeholder of the current template
func (s *Service) Input(placeholder string) string {
	if s.templateID == "" {
		return ""
	}
	return s.inputs.Get(models.InputKey(s.templateID, placeholder))
}

// SetInputKey stores a value under a raw "templateID-placeholder" key
func (s *Service) SetInputKey(key, value string) {
	s.inputs.Set(key, value)
}

// ClearInput removes one placeholder value of the current template
func (s *Service) ClearInput(placeholder string) {
	if s.templateID == "" {
		return
	}
	s.inputs.Delete(models.InputKey(s.templateID, placeholder))
}

// ClearNodeInputs removes every input of the current node's templates
func (s *Service) ClearNodeInputs() {
	s.inputs.ClearForNode(s.nodeID)
	s.log.Debug("node inputs cleared", "node_id", s.nodeID)
}

// ClearAllInputs empties the input store
func (s *Service) ClearAllInputs() {
	s.inputs.ClearAll()
	s.log.Debug("all inputs cleared")
}

// Inputs returns a snapshot of every stored value
func (s *Service) Inputs() map[string]string {
	return s.inputs.Snapshot()
}

// HasInputs reports whether the current template has any non-blank value
func (s *Service) HasInputs() bool {
	return s.templateID != "" && s.inputs.HasInputs(s.templateID)
}

// Policy returns the active render policy
func (s *Service) Policy() renderer.Policy {
	return s.policy
}

// SetPolicy changes the render policy
func (s *Service) SetPolicy(p renderer.Policy) {
	s.policy = p
	s.log.Debug("policy changed", "policy", p)
}

// TogglePolicy switches between preserve and complete-only
func (s *Service) TogglePolicy() renderer.Policy {
	s.SetPolicy(s.policy.Toggle())
	return s.policy
}

// Render reassembles the current template with the stored inputs
func (s *Service) Render() string {
	t, ok := s.CurrentTemplate()
	if !ok {
		return ""
	}
	return renderer.Render(t, s.inputs.SnapshotFor(t.ID), s.policy)
}

// Preview is Render with a placeholder message for empty output
func (s *Service) Preview() string {
	if out := s.Render(); strings.TrimSpace(out) != "" {
		return out
	}
	return MessageNothingToPreview
}

// Progress counts filled and total placeholders of the current template
func (s *Service) Progress() (filled, total int) {
	t, ok := s.CurrentTemplate()
	if !ok {
		return 0, 0
	}
	return renderer.Progress(t, s.inputs.SnapshotFor(t.ID))
}

// IncompleteSentences returns the indices of sentences that still have an
// unfilled placeholder
func (s *Service) IncompleteSentences() []int {
	t, ok := s.CurrentTemplate()
	if !ok {
		return nil
	}

	inputs := s.inputs.SnapshotFor(t.ID)
	var incomplete []int
	for _, sentence := range t.Sentences {
		if !renderer.SentenceComplete(t.ID, sentence, inputs) {
			incomplete = append(incomplete, sentence.Index)
		}
	}
	return incomplete
}

// Copy renders the current template and sends it to the clipboard, reporting
// the outcome through the notifier. The error is the sink's failure and is only
// set together with LevelError.
func (s *Service) Copy() (string, notify.Level, error) {
	text := s.Render()
	if strings.TrimSpace(text) == "" {
		notify.Warning(s.notifier, MessageNothingToCopy)
		s.log.Info("copy skipped", "reason", "empty", "template_id", s.templateID)
		return "", notify.LevelWarning, nil
	}

	status, err := clipboard.CopyWithFallback(s.clipboard, text)
	if err != nil {
		notify.Error(s.notifier, err.Error())
		s.log.Error("copy failed", "template_id", s.templateID, "error", err)
		return text, notify.LevelError, err
	}

	notify.Success(s.notifier, status)
	s.log.Info("copied", "template_id", s.templateID, "chars", len(text))
	return text, notify.LevelSuccess, nil
}

// Search fuzzy-matches templates across the catalogue
func (s *Service) Search(query string) []*models.ParsedTemplate {
	return s.catalog.Search(query)
}

// RenderValues renders a template from placeholder values without touching any
// session. values maps placeholder names (not input keys) to text.
func RenderValues(cat *catalog.Catalog, templateID string, values map[string]string, policy renderer.Policy) (string, error) {
	t, ok := cat.Template(templateID)
	if !ok {
		return "", apperrors.NotFoundError(fmt.Sprintf("template '%s'", templateID))
	}
	return renderer.Render(t, KeyedInputs(cat, t.ID, values), policy), nil
}

// KeyedInputs converts placeholder values of one template into an input store
// snapshot keyed the way the renderer expects
func KeyedInputs(cat *catalog.Catalog, templateID string, values map[string]string) map[string]string {
	inputs := store.New(cat)
	for name, value := range values {
		inputs.SetInput(templateID, name, value)
	}
	return inputs.Snapshot()
}

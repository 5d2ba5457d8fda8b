// Package catalog holds the immutable node and template configuration. Every
// template is tokenized once when the catalogue is built.
package catalog

import (
	"fmt"
	"io"
	"strings"

	"github.com/sahilm/fuzzy"
	"gopkg.in/yaml.v3"

	apperrors "github.com/dpshade/pocket-nodes/internal/errors"
	"github.com/dpshade/pocket-nodes/internal/models"
	"github.com/dpshade/pocket-nodes/internal/tokenizer"
)

// File is the YAML layout of a catalogue document
type File struct {
	Nodes     []models.Node        `yaml:"nodes"`
	Templates []models.RawTemplate `yaml:"templates,omitempty"`
}

// Decode reads a catalogue document
func Decode(r io.Reader) (*File, error) {
	var f File
	if err := yaml.NewDecoder(r).Decode(&f); err != nil {
		if err == io.EOF {
			return &f, nil
		}
		return nil, apperrors.Wrap(err, apperrors.ErrCodeFileCorrupted, "Failed to parse catalogue")
	}
	return &f, nil
}

// Catalog is a validated, read-only set of nodes and parsed templates
type Catalog struct {
	nodes     []models.Node
	nodeIndex map[string]int
	templates []*models.ParsedTemplate
	byID      map[string]*models.ParsedTemplate
	byNode    map[string][]*models.ParsedTemplate
	parents   map[string]bool
}

// New validates nodes and templates and builds a catalogue. A node with no
// template of its own id gets one synthesized from its DefaultPrompt.
func New(nodes []models.Node, templates []models.RawTemplate) (*Catalog, error) {
	if len(nodes) == 0 {
		return nil, apperrors.CatalogError("catalogue has no nodes")
	}

	c := &Catalog{
		nodes:     append([]models.Node(nil), nodes...),
		nodeIndex: make(map[string]int, len(nodes)),
		byID:      make(map[string]*models.ParsedTemplate),
		byNode:    make(map[string][]*models.ParsedTemplate),
		parents:   make(map[string]bool),
	}

	for i, n := range c.nodes {
		if strings.TrimSpace(n.ID) == "" {
			return nil, apperrors.CatalogError(fmt.Sprintf("node %d has no id", i))
		}
		if !models.ValidID(n.ID) {
			return nil, apperrors.CatalogError(fmt.Sprintf("node id %q may only contain letters, digits, '-' and '_'", n.ID)).
				WithContext("node_id", n.ID)
		}
		if _, dup := c.nodeIndex[n.ID]; dup {
			return nil, apperrors.CatalogError("duplicate node id").WithContext("node_id", n.ID)
		}
		if !n.Stage.Valid() {
			return nil, apperrors.CatalogError(fmt.Sprintf("node %q has unknown stage %q", n.ID, n.Stage)).
				WithContext("node_id", n.ID)
		}
		c.nodeIndex[n.ID] = i
	}

	for _, n := range c.nodes {
		if n.ParentID == "" {
			continue
		}
		if _, ok := c.nodeIndex[n.ParentID]; !ok || n.ParentID == n.ID {
			return nil, apperrors.CatalogError(fmt.Sprintf("node %q has unknown parent %q", n.ID, n.ParentID)).
				WithContext("node_id", n.ID)
		}
		c.parents[n.ParentID] = true
	}

	raw := synthesizeDefaults(c.nodes, templates)
	for _, t := range raw {
		if strings.TrimSpace(t.ID) == "" {
			return nil, apperrors.CatalogError(fmt.Sprintf("template for node %q has no id", t.NodeID))
		}
		if !models.ValidID(t.ID) {
			return nil, apperrors.CatalogError(fmt.Sprintf("template id %q may only contain letters, digits, '-' and '_'", t.ID)).
				WithContext("template_id", t.ID)
		}
		if _, dup := c.byID[t.ID]; dup {
			return nil, apperrors.CatalogError("duplicate template id").WithContext("template_id", t.ID)
		}
		if _, ok := c.nodeIndex[t.NodeID]; !ok {
			return nil, apperrors.CatalogError(fmt.Sprintf("template %q references unknown node %q", t.ID, t.NodeID)).
				WithContext("template_id", t.ID)
		}

		parsed := tokenizer.Parse(t)
		c.templates = append(c.templates, parsed)
		c.byID[t.ID] = parsed
		c.byNode[t.NodeID] = append(c.byNode[t.NodeID], parsed)
	}

	return c, nil
}

// synthesizeDefaults puts a default template in front of the given templates for
// every node that has a DefaultPrompt but no template with its own id
func synthesizeDefaults(nodes []models.Node, templates []models.RawTemplate) []models.RawTemplate {
	explicit := make(map[string]bool, len(templates))
	for _, t := range templates {
		explicit[t.ID] = true
	}

	var out []models.RawTemplate
	for _, n := range nodes {
		if explicit[n.ID] || strings.TrimSpace(n.DefaultPrompt) == "" {
			continue
		}
		out = append(out, models.RawTemplate{
			ID:      n.ID,
			NodeID:  n.ID,
			Name:    n.Name,
			Summary: n.Summary,
			Content: n.DefaultPrompt,
		})
	}
	return append(out, templates...)
}

// Nodes returns every node in catalogue order
func (c *Catalog) Nodes() []models.Node {
	return append([]models.Node(nil), c.nodes...)
}

// Node looks up a node by id
func (c *Catalog) Node(id string) (models.Node, bool) {
	i, ok := c.nodeIndex[id]
	if !ok {
		return models.Node{}, false
	}
	return c.nodes[i], true
}

// FirstNode returns the first node of the catalogue
func (c *Catalog) FirstNode() models.Node {
	return c.nodes[0]
}

// NodesByStage returns the nodes of one stage in catalogue order
func (c *Catalog) NodesByStage(stage models.Stage) []models.Node {
	var out []models.Node
	for _, n := range c.nodes {
		if n.Stage == stage {
			out = append(out, n)
		}
	}
	return out
}

// Stages returns the stages that have at least one node, in workflow order
func (c *Catalog) Stages() []models.Stage {
	var out []models.Stage
	for _, s := range models.Stages {
		if len(c.NodesByStage(s)) > 0 {
			out = append(out, s)
		}
	}
	return out
}

// Children returns the nodes whose parent is id
func (c *Catalog) Children(id string) []models.Node {
	var out []models.Node
	for _, n := range c.nodes {
		if n.ParentID == id {
			out = append(out, n)
		}
	}
	return out
}

// IsParent reports whether any node names id as its parent
func (c *Catalog) IsParent(id string) bool {
	return c.parents[id]
}

// Templates returns every parsed template
func (c *Catalog) Templates() []*models.ParsedTemplate {
	return append([]*models.ParsedTemplate(nil), c.templates...)
}

// Template looks up a parsed template by id
func (c *Catalog) Template(id string) (*models.ParsedTemplate, bool) {
	t, ok := c.byID[id]
	return t, ok
}

// TemplatesForNode returns the templates owned by a node in catalogue order.
// Synthesized defaults come before explicit templates.
func (c *Catalog) TemplatesForNode(nodeID string) []*models.ParsedTemplate {
	return append([]*models.ParsedTemplate(nil), c.byNode[nodeID]...)
}

// TemplateIDs returns the ids of the templates owned by a node
func (c *Catalog) TemplateIDs(nodeID string) []string {
	var ids []string
	for _, t := range c.byNode[nodeID] {
		ids = append(ids, t.ID)
	}
	return ids
}

// DefaultTemplate returns the template whose id equals the node id
func (c *Catalog) DefaultTemplate(nodeID string) (*models.ParsedTemplate, bool) {
	t, ok := c.byID[nodeID]
	if !ok || t.NodeID != nodeID {
		return nil, false
	}
	return t, true
}

// Search fuzzy-matches templates by title, description, node and content
func (c *Catalog) Search(query string) []*models.ParsedTemplate {
	if strings.TrimSpace(query) == "" {
		return c.Templates()
	}

	var searchStrings []string
	for _, t := range c.templates {
		searchStrings = append(searchStrings, fmt.Sprintf("%s %s %s %s %s",
			t.Name,
			t.ID,
			t.Summary,
			t.NodeID,
			t.Content,
		))
	}

	matches := fuzzy.Find(query, searchStrings)

	var results []*models.ParsedTemplate
	for _, match := range matches {
		results = append(results, c.templates[match.Index])
	}
	return results
}

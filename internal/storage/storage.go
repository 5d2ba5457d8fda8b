package storage

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"

	"github.com/dpshade/pocket-nodes/internal/catalog"
	apperrors "github.com/dpshade/pocket-nodes/internal/errors"
	"github.com/dpshade/pocket-nodes/internal/logger"
	"github.com/dpshade/pocket-nodes/internal/models"
)

const (
	// NodesFile is the catalogue's node list, relative to the root
	NodesFile = "nodes.yaml"

	// TemplatesDir holds one markdown file per template
	TemplatesDir = "templates"

	templatePattern = TemplatesDir + "/**/*.md"
)

// Storage handles file system operations for a catalogue directory
type Storage struct {
	rootPath string
	cache    *MetadataCache
	log      *logger.Logger
}

// NewStorage creates a new storage instance rooted at rootPath
func NewStorage(rootPath string, log *logger.Logger) (*Storage, error) {
	if rootPath == "" {
		return nil, apperrors.NewAppError(apperrors.ErrCodeMissingField, "catalogue directory is required")
	}
	if log == nil {
		log = logger.Nop()
	}

	cache := NewMetadataCache(rootPath)
	if err := cache.Load(); err != nil {
		// The cache is optional
		log.Warn("failed to load template cache", "error", err)
	}

	return &Storage{
		rootPath: rootPath,
		cache:    cache,
		log:      log,
	}, nil
}

// InitLibrary creates the directory structure for a catalogue
func (s *Storage) InitLibrary() error {
	dirs := []string{
		s.rootPath,
		filepath.Join(s.rootPath, TemplatesDir),
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return apperrors.StorageError("create directory", err).WithDetails(dir)
		}
	}

	return nil
}

// GetBaseDir returns the root path of the storage
func (s *Storage) GetBaseDir() string {
	return s.rootPath
}

// Exists reports whether the directory holds a catalogue
func (s *Storage) Exists() bool {
	_, err := os.Stat(filepath.Join(s.rootPath, NodesFile))
	return err == nil
}

// LoadCatalog reads nodes.yaml and every template file and validates the result.
// Templates may also be listed inline in nodes.yaml.
func (s *Storage) LoadCatalog() (*catalog.Catalog, error) {
	f, err := s.loadNodesFile()
	if err != nil {
		return nil, err
	}

	files, err := s.ListTemplates()
	if err != nil {
		return nil, err
	}

	templates := append([]models.RawTemplate(nil), f.Templates...)
	for _, t := range files {
		templates = append(templates, *t)
	}

	s.log.Debug("catalogue loaded", "root", s.rootPath, "nodes", len(f.Nodes), "templates", len(templates))
	return catalog.New(f.Nodes, templates)
}

func (s *Storage) loadNodesFile() (*catalog.File, error) {
	path := filepath.Join(s.rootPath, NodesFile)

	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.Wrap(err, apperrors.ErrCodeFileNotFound, "catalogue has no nodes.yaml").WithDetails(path)
		}
		return nil, apperrors.StorageError("open nodes file", err).WithDetails(path)
	}
	defer file.Close()

	return catalog.Decode(file)
}

// LoadTemplate loads a template from a markdown file with YAML frontmatter
func (s *Storage) LoadTemplate(path string) (*models.RawTemplate, error) {
	fullPath := filepath.Join(s.rootPath, path)

	file, err := os.Open(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open template file: %w", err)
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read template file: %w", err)
	}

	template, err := parseTemplateFile(content)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeFileCorrupted, "failed to parse template").WithDetails(path)
	}

	template.FilePath = path
	if template.NodeID == "" {
		// templates/<node>/<id>.md
		template.NodeID = filepath.Base(filepath.Dir(path))
	}
	if template.ID == "" {
		template.ID = strings.TrimSuffix(filepath.Base(path), ".md")
	}

	return template, nil
}

// ListTemplates returns every template file under templates/, in path order
func (s *Storage) ListTemplates() ([]*models.RawTemplate, error) {
	matches, err := doublestar.Glob(os.DirFS(s.rootPath), templatePattern)
	if err != nil {
		return nil, apperrors.StorageError("list templates", err)
	}
	sort.Strings(matches)

	var templates []*models.RawTemplate
	existingFiles := make(map[string]bool, len(matches))
	cacheModified := false

	for _, relPath := range matches {
		info, err := os.Stat(filepath.Join(s.rootPath, relPath))
		if err != nil || info.IsDir() {
			continue
		}
		existingFiles[relPath] = true

		if cached, valid := s.cache.Get(relPath, info); valid {
			templates = append(templates, cached.ToTemplate())
			continue
		}

		template, err := s.LoadTemplate(relPath)
		if err != nil {
			s.log.Warn("skipping template file", "path", relPath, "error", err)
			continue
		}

		s.cache.Set(relPath, info, template)
		cacheModified = true
		templates = append(templates, template)
	}

	if s.cache.Cleanup(existingFiles) {
		cacheModified = true
	}
	if cacheModified {
		if err := s.cache.Save(); err != nil {
			s.log.Warn("failed to save template cache", "error", err)
		}
	}

	return templates, nil
}

// SaveTemplate writes a template to templates/<node>/<id>.md unless it already
// has a file path
func (s *Storage) SaveTemplate(template *models.RawTemplate) error {
	if template.FilePath == "" {
		template.FilePath = filepath.Join(TemplatesDir, template.NodeID, template.ID+".md")
	}
	fullPath := filepath.Join(s.rootPath, template.FilePath)

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return apperrors.StorageError("create directory", err).WithDetails(filepath.Dir(fullPath))
	}

	content, err := serializeTemplate(template)
	if err != nil {
		return apperrors.StorageError("serialize template", err).WithContext("template_id", template.ID)
	}

	if err := os.WriteFile(fullPath, content, 0644); err != nil {
		return apperrors.StorageError("write template file", err).WithDetails(fullPath)
	}

	return nil
}

// SaveNodes writes nodes.yaml
func (s *Storage) SaveNodes(nodes []models.Node) error {
	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(catalog.File{Nodes: nodes}); err != nil {
		return apperrors.StorageError("encode nodes", err)
	}

	if err := os.MkdirAll(s.rootPath, 0755); err != nil {
		return apperrors.StorageError("create directory", err).WithDetails(s.rootPath)
	}

	path := filepath.Join(s.rootPath, NodesFile)
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return apperrors.StorageError("write nodes file", err).WithDetails(path)
	}
	return nil
}

// SaveCatalog writes a whole catalogue. Defaults synthesized from a node's
// default_prompt are not written as separate files.
func (s *Storage) SaveCatalog(c *catalog.Catalog) error {
	if err := s.InitLibrary(); err != nil {
		return err
	}

	nodes := c.Nodes()
	if err := s.SaveNodes(nodes); err != nil {
		return err
	}

	for _, t := range c.Templates() {
		if node, ok := c.Node(t.NodeID); ok && t.ID == node.ID && t.Content == node.DefaultPrompt {
			continue
		}
		raw := t.RawTemplate
		raw.FilePath = ""
		if err := s.SaveTemplate(&raw); err != nil {
			return err
		}
	}

	s.log.Info("catalogue saved", "root", s.rootPath, "nodes", len(nodes))
	return nil
}

// Helper functions

func parseTemplateFile(content []byte) (*models.RawTemplate, error) {
	scanner := bufio.NewScanner(bytes.NewReader(content))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	// Check for frontmatter delimiter
	if !scanner.Scan() || strings.TrimSpace(scanner.Text()) != "---" {
		return nil, fmt.Errorf("missing frontmatter delimiter")
	}

	// Read frontmatter
	var frontmatterLines []string
	closed := false
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "---" {
			closed = true
			break
		}
		frontmatterLines = append(frontmatterLines, line)
	}
	if !closed {
		return nil, fmt.Errorf("unterminated frontmatter")
	}

	// Parse YAML frontmatter
	frontmatter := strings.Join(frontmatterLines, "\n")
	var template models.RawTemplate
	if err := yaml.Unmarshal([]byte(frontmatter), &template); err != nil {
		return nil, fmt.Errorf("failed to parse frontmatter: %w", err)
	}

	// Read remaining content
	var contentLines []string
	for scanner.Scan() {
		contentLines = append(contentLines, strings.TrimRight(scanner.Text(), "\r"))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read template body: %w", err)
	}

	// The body is the template content; surrounding blank lines are not part of it
	template.Content = strings.Trim(strings.Join(contentLines, "\n"), "\n")

	return &template, nil
}

// serializeTemplate converts a template to YAML frontmatter + markdown content
func serializeTemplate(template *models.RawTemplate) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString("---\n")

	// Content goes in the body, not the frontmatter
	meta := *template
	meta.Content = ""

	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(meta); err != nil {
		return nil, fmt.Errorf("failed to encode frontmatter: %w", err)
	}

	buf.WriteString("---\n")

	if template.Content != "" {
		buf.WriteString("\n")
		buf.WriteString(template.Content)
		if !strings.HasSuffix(template.Content, "\n") {
			buf.WriteString("\n")
		}
	}

	return buf.Bytes(), nil
}

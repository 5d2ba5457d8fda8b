package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/dpshade/pocket-nodes/internal/models"
)

// TemplateMetadata represents a cached template file
type TemplateMetadata struct {
	ID       string    `json:"id"`
	NodeID   string    `json:"node_id"`
	Name     string    `json:"name"`
	Summary  string    `json:"summary"`
	Content  string    `json:"content"`
	FilePath string    `json:"file_path"`
	ModTime  time.Time `json:"mod_time"`
	Size     int64     `json:"size"`
}

// MetadataCache caches parsed template files keyed by relative path
type MetadataCache struct {
	cacheDir  string
	cacheFile string
	metadata  map[string]*TemplateMetadata
	mu        sync.RWMutex // Protects metadata map from concurrent access
}

// NewMetadataCache creates a new metadata cache
func NewMetadataCache(baseDir string) *MetadataCache {
	cacheDir := filepath.Join(baseDir, ".cache")
	return &MetadataCache{
		cacheDir:  cacheDir,
		cacheFile: filepath.Join(cacheDir, "templates.json"),
		metadata:  make(map[string]*TemplateMetadata),
	}
}

// Load loads the metadata cache from disk
func (c *MetadataCache) Load() error {
	if _, err := os.Stat(c.cacheFile); os.IsNotExist(err) {
		return nil // No cache file exists yet
	}

	data, err := os.ReadFile(c.cacheFile)
	if err != nil {
		return fmt.Errorf("failed to read cache file: %w", err)
	}

	c.mu.Lock()
	if err := json.Unmarshal(data, &c.metadata); err != nil {
		// If cache is corrupted, start fresh
		c.metadata = make(map[string]*TemplateMetadata)
	}
	c.mu.Unlock()

	return nil
}

// Save saves the metadata cache to disk
func (c *MetadataCache) Save() error {
	if err := os.MkdirAll(c.cacheDir, 0755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	c.mu.RLock()
	data, err := json.MarshalIndent(c.metadata, "", "  ")
	c.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("failed to marshal cache: %w", err)
	}

	if err := os.WriteFile(c.cacheFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}

	return nil
}

// Get retrieves a cached template, checking the file has not changed
func (c *MetadataCache) Get(relPath string, fileInfo os.FileInfo) (*TemplateMetadata, bool) {
	c.mu.RLock()
	cached, exists := c.metadata[relPath]
	c.mu.RUnlock()
	if !exists {
		return nil, false
	}

	if !fileInfo.ModTime().Equal(cached.ModTime) || fileInfo.Size() != cached.Size {
		return nil, false
	}

	return cached, true
}

// Set stores a parsed template in the cache
func (c *MetadataCache) Set(relPath string, fileInfo os.FileInfo, template *models.RawTemplate) {
	c.mu.Lock()
	c.metadata[relPath] = &TemplateMetadata{
		ID:       template.ID,
		NodeID:   template.NodeID,
		Name:     template.Name,
		Summary:  template.Summary,
		Content:  template.Content,
		FilePath: relPath,
		ModTime:  fileInfo.ModTime(),
		Size:     fileInfo.Size(),
	}
	c.mu.Unlock()
}

// ToTemplate converts cached metadata back to a template
func (m *TemplateMetadata) ToTemplate() *models.RawTemplate {
	return &models.RawTemplate{
		ID:       m.ID,
		NodeID:   m.NodeID,
		Name:     m.Name,
		Summary:  m.Summary,
		Content:  m.Content,
		FilePath: m.FilePath,
	}
}

// Cleanup removes cache entries for files that no longer exist and reports
// whether anything was removed
func (c *MetadataCache) Cleanup(existingFiles map[string]bool) bool {
	removed := false
	c.mu.Lock()
	for filePath := range c.metadata {
		if !existingFiles[filePath] {
			delete(c.metadata, filePath)
			removed = true
		}
	}
	c.mu.Unlock()
	return removed
}

// Len returns the number of cached entries
func (c *MetadataCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.metadata)
}

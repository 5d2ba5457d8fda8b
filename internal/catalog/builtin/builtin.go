// Package builtin embeds the default project-node catalogue.
package builtin

import (
	"bytes"
	_ "embed"

	"github.com/dpshade/pocket-nodes/internal/catalog"
)

//go:embed catalog.yaml
var data []byte

// Data returns the raw catalogue document
func Data() []byte {
	return data
}

// File decodes the embedded catalogue without validating it
func File() (*catalog.File, error) {
	return catalog.Decode(bytes.NewReader(data))
}

// Load returns the validated built-in catalogue
func Load() (*catalog.Catalog, error) {
	f, err := File()
	if err != nil {
		return nil, err
	}
	return catalog.New(f.Nodes, f.Templates)
}

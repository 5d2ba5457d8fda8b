package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dpshade/pocket-nodes/internal/catalog/builtin"
	"github.com/dpshade/pocket-nodes/internal/config"
	"github.com/dpshade/pocket-nodes/internal/storage"
)

func main() {
	defaultDir := filepath.Join(config.DefaultBaseDir(), "catalog")
	dir := flag.String("dir", defaultDir, "directory to write the catalogue to")
	yes := flag.Bool("y", false, "overwrite an existing catalogue without asking")
	flag.Parse()

	cat, err := builtin.Load()
	if err != nil {
		fmt.Printf("Error loading built-in catalogue: %v\n", err)
		os.Exit(1)
	}

	store, err := storage.NewStorage(*dir, nil)
	if err != nil {
		fmt.Printf("Error opening %s: %v\n", *dir, err)
		os.Exit(1)
	}

	if store.Exists() && !*yes {
		fmt.Printf("%s already holds a catalogue.\n", *dir)
		fmt.Print("Overwrite it? (y/N): ")
		var response string
		fmt.Scanln(&response)

		if strings.ToLower(response) != "y" {
			fmt.Println("Export cancelled")
			return
		}
	}

	if err := store.SaveCatalog(cat); err != nil {
		fmt.Printf("Error writing catalogue: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Exported %d nodes and %d templates to %s\n", len(cat.Nodes()), len(cat.Templates()), *dir)
	fmt.Println("Point catalog_dir in config.toml (or POCKET_NODES_CATALOG) at it to edit the templates.")
}

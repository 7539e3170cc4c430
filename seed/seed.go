// Package seed loads a YAML product catalog into the store.
package seed

import (
	"context"
	_ "embed"
	"fmt"
	"log"
	"os"
	"strings"

	"caintamart/commerce"
	"caintamart/models"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// Entry is one catalog product. ID is kept stable across runs so seeding
// twice overwrites instead of duplicating.
type Entry struct {
	ID                    string `yaml:"id"`
	commerce.ProductInput `yaml:",inline"`
}

type Catalog struct {
	Products []Entry `yaml:"products"`
}

// Importer writes a product under a fixed id.
type Importer interface {
	ImportProduct(ctx context.Context, id string, in commerce.ProductInput) (models.Product, error)
}

func Parse(data []byte) (Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return c, fmt.Errorf("seed: parse catalog: %w", err)
	}
	seen := map[string]bool{}
	for i, e := range c.Products {
		id := strings.TrimSpace(e.ID)
		if id == "" {
			return c, fmt.Errorf("seed: product %d has no id", i)
		}
		if seen[id] {
			return c, fmt.Errorf("seed: duplicate product id %q", id)
		}
		seen[id] = true
		c.Products[i].ID = id
	}
	return c, nil
}

// Default is the catalog shipped with the binary.
func Default() (Catalog, error) { return Parse(defaultCatalog) }

// LoadFile reads a catalog from path, or the built-in one when path is "".
func LoadFile(path string) (Catalog, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Catalog{}, fmt.Errorf("seed: read %s: %w", path, err)
	}
	return Parse(data)
}

// Apply imports every entry and returns how many were written. It stops at
// the first rejected entry.
func Apply(ctx context.Context, imp Importer, c Catalog) (int, error) {
	n := 0
	for _, e := range c.Products {
		if _, err := imp.ImportProduct(ctx, e.ID, e.ProductInput); err != nil {
			return n, fmt.Errorf("seed: import %s: %w", e.ID, err)
		}
		n++
		log.Printf("[seed] imported %s", e.ID)
	}
	return n, nil
}

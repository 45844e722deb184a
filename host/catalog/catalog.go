// Package catalog implements the capability catalog: descriptors plus
// generated JSON schemas for every capability a host exposes.
package catalog

import (
	"fmt"
	"sort"
	"sync"

	"github.com/skillhost-dev/skillhost/application/schema"
	"github.com/skillhost-dev/skillhost/domain/entities"
	"github.com/skillhost-dev/skillhost/domain/ports"
)

// catalogConfig holds configuration for the Catalog.
type catalogConfig struct {
	strictMode bool // Fail on duplicate registrations
}

func defaultCatalogConfig() catalogConfig {
	return catalogConfig{
		strictMode: true, // Secure default: prevent accidental overwrites
	}
}

// CatalogOption configures a Catalog instance.
type CatalogOption func(*catalogConfig)

// WithStrictMode enables/disables strict mode for duplicate registrations.
// Default is true (fail on duplicates). Disable only for testing or
// hot-swapping descriptors.
func WithStrictMode(enabled bool) CatalogOption {
	return func(c *catalogConfig) {
		c.strictMode = enabled
	}
}

// Catalog implements ports.CapabilityCatalog.
type Catalog struct {
	config      catalogConfig
	descriptors sync.Map // map[string]entities.CapabilityDescriptor
	schemas     sync.Map // map[string]string (json schema)
}

// NewCatalog creates a new Catalog with the given options.
func NewCatalog(opts ...CatalogOption) ports.CapabilityCatalog {
	cfg := defaultCatalogConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Catalog{config: cfg}
}

// Register adds a capability descriptor together with the Go model its
// JSON schema is generated from. A nil model registers the descriptor
// without a schema.
func (c *Catalog) Register(desc entities.CapabilityDescriptor, model interface{}) error {
	if desc.Name == "" {
		return fmt.Errorf("capability descriptor has no name")
	}
	if c.config.strictMode {
		if _, exists := c.descriptors.Load(desc.Name); exists {
			return fmt.Errorf("capability %q already registered", desc.Name)
		}
	}

	c.descriptors.Store(desc.Name, desc)

	if model == nil {
		return nil
	}
	data, err := schema.GenerateSchema(model)
	if err != nil {
		return fmt.Errorf("failed to generate schema for %s: %w", desc.Name, err)
	}
	c.schemas.Store(desc.Name, string(data))
	return nil
}

// Describe retrieves the descriptor for a capability name.
func (c *Catalog) Describe(name string) (entities.CapabilityDescriptor, bool) {
	v, ok := c.descriptors.Load(name)
	if !ok {
		return entities.CapabilityDescriptor{}, false
	}
	return v.(entities.CapabilityDescriptor), true
}

// Schema retrieves the JSON Schema for a capability name.
func (c *Catalog) Schema(name string) (string, bool) {
	v, ok := c.schemas.Load(name)
	if !ok {
		return "", false
	}
	return v.(string), true
}

// List returns all registered descriptors, sorted by name.
func (c *Catalog) List() []entities.CapabilityDescriptor {
	var all []entities.CapabilityDescriptor
	c.descriptors.Range(func(k, v interface{}) bool {
		all = append(all, v.(entities.CapabilityDescriptor))
		return true
	})
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })
	return all
}

package ports

import "github.com/skillhost-dev/skillhost/domain/entities"

// CapabilityCatalog manages descriptors and JSON schemas for the host
// capabilities exposed to guests.
type CapabilityCatalog interface {
	// Register adds a capability descriptor together with the Go model
	// its JSON schema is generated from.
	Register(desc entities.CapabilityDescriptor, model interface{}) error

	// Describe retrieves the descriptor for a capability name.
	Describe(name string) (entities.CapabilityDescriptor, bool)

	// Schema retrieves the generated JSON Schema for a capability name.
	Schema(name string) (string, bool)

	// List returns all registered descriptors, sorted by name.
	List() []entities.CapabilityDescriptor
}

package entities

// CapabilityDescriptor documents one function guests may import from the
// host namespace. Descriptors are advisory metadata for embedders and
// tooling; the binding itself is performed by the runtime adapter.
type CapabilityDescriptor struct {
	// Name is the import name within the namespace (e.g. "write").
	Name string `json:"name"`

	// Module is the import namespace guests link against (e.g. "host").
	Module string `json:"module"`

	// Params lists the wasm value types of the parameters, in order.
	Params []string `json:"params,omitempty"`

	// Results lists the wasm value types of the results, in order.
	Results []string `json:"results,omitempty"`

	// Doc is a one-line description of the capability's contract.
	Doc string `json:"doc,omitempty"`
}

// Import returns the fully qualified import name ("module.name").
func (d CapabilityDescriptor) Import() string {
	return d.Module + "." + d.Name
}

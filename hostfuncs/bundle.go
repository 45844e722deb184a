package hostfuncs

// CapabilityBundle is a pre-configured set of related capabilities.
// Bundles allow registering multiple capabilities at once for common
// use cases.
type CapabilityBundle interface {
	// Capabilities returns a map of capability names to implementations.
	Capabilities() map[string]Capability
}

// staticBundle implements CapabilityBundle with a fixed set of capabilities.
type staticBundle struct {
	capabilities map[string]Capability
}

func (b *staticBundle) Capabilities() map[string]Capability {
	return b.capabilities
}

// OutputBundle returns a bundle with the output capability:
// write.
func OutputBundle() CapabilityBundle {
	return &staticBundle{
		capabilities: map[string]Capability{
			"write": NewTextCapability(PerformWrite),
		},
	}
}

// FilesystemBundle returns a bundle with filesystem capabilities:
// readdir.
func FilesystemBundle() CapabilityBundle {
	return &staticBundle{
		capabilities: map[string]Capability{
			"readdir": NewTextCapability(PerformReaddir),
		},
	}
}

// compositeBundle combines multiple bundles into one.
type compositeBundle struct {
	bundles []CapabilityBundle
}

func (b *compositeBundle) Capabilities() map[string]Capability {
	result := make(map[string]Capability)
	for _, bundle := range b.bundles {
		for name, capability := range bundle.Capabilities() {
			result[name] = capability
		}
	}
	return result
}

// AllBundles returns a bundle containing all built-in capabilities.
// Includes: write, readdir.
func AllBundles() CapabilityBundle {
	return &compositeBundle{
		bundles: []CapabilityBundle{
			OutputBundle(),
			FilesystemBundle(),
		},
	}
}

// WithBundle registers all capabilities from a bundle.
func WithBundle(bundle CapabilityBundle) RegistryOption {
	return func(b *registryBuilder) {
		for name, capability := range bundle.Capabilities() {
			if err := b.addCapability(name, capability); err != nil {
				b.errors = append(b.errors, err)
			}
		}
	}
}

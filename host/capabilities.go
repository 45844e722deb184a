package host

import (
	"github.com/skillhost-dev/skillhost/domain/entities"
	"github.com/skillhost-dev/skillhost/domain/ports"
	"github.com/skillhost-dev/skillhost/host/catalog"
	"github.com/skillhost-dev/skillhost/hostfuncs"
	infrawazero "github.com/skillhost-dev/skillhost/infrastructure/wazero"
)

// writePayload documents the byte payload the write capability accepts.
type writePayload struct {
	Text string `json:"text" jsonschema:"description=UTF-8 text appended to the invocation output"`
}

// readdirPayload documents the byte payload the readdir capability accepts.
type readdirPayload struct {
	Path string `json:"path" jsonschema:"description=Host directory whose entry names are listed"`
}

type builtinCapability struct {
	desc  entities.CapabilityDescriptor
	model interface{}
}

// builtinCapabilities describes the fixed part of the guest-visible import
// surface: the bundled capabilities and the input plumbing.
func builtinCapabilities() []builtinCapability {
	return []builtinCapability{
		{
			desc: entities.CapabilityDescriptor{
				Name:   "write",
				Module: infrawazero.DefaultModuleName,
				Params: []string{"i32", "i32"},
				Doc:    "Read guest bytes at (ptr, len), decode UTF-8 lossily, append to the invocation output.",
			},
			model: writePayload{},
		},
		{
			desc: entities.CapabilityDescriptor{
				Name:   "readdir",
				Module: infrawazero.DefaultModuleName,
				Params: []string{"i32", "i32"},
				Doc:    "Read a directory path from guest memory, append the JSON array of its entry names to the invocation output.",
			},
			model: readdirPayload{},
		},
		{
			desc: entities.CapabilityDescriptor{
				Name:    "input_len",
				Module:  infrawazero.DefaultModuleName,
				Results: []string{"i32"},
				Doc:     "Byte length of the invocation input; 0 when absent.",
			},
		},
		{
			desc: entities.CapabilityDescriptor{
				Name:    "read_input",
				Module:  infrawazero.DefaultModuleName,
				Params:  []string{"i32", "i32"},
				Results: []string{"i32"},
				Doc:     "Copy up to len input bytes into guest memory at ptr; returns the count copied.",
			},
		},
	}
}

// buildCapabilityCatalog registers descriptors and payload schemas for the
// full import surface the engine exports. Capabilities registered by
// embedders get a generic descriptor; they all share the fire-and-forget
// (ptr, len) signature.
func buildCapabilityCatalog(registry *hostfuncs.CapabilityRegistry) (ports.CapabilityCatalog, error) {
	cat := catalog.NewCatalog()
	for _, builtin := range builtinCapabilities() {
		if err := cat.Register(builtin.desc, builtin.model); err != nil {
			return nil, err
		}
	}
	for _, name := range registry.Names() {
		if _, ok := cat.Describe(name); ok {
			continue
		}
		desc := entities.CapabilityDescriptor{
			Name:   name,
			Module: infrawazero.DefaultModuleName,
			Params: []string{"i32", "i32"},
			Doc:    "Embedder-registered capability.",
		}
		if err := cat.Register(desc, nil); err != nil {
			return nil, err
		}
	}
	return cat, nil
}

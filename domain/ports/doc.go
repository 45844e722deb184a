// Package ports defines interfaces the skill engine depends on.
// These ports enable dependency inversion - the host layer depends on
// abstractions, and concrete adapters implement these interfaces.
package ports

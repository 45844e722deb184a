// Package entities provides core domain entities for the skill engine.
// These are plain value types shared across the host, registry, and
// capability layers; behavior lives in the packages that consume them.
package entities

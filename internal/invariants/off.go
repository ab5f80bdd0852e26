//go:build !(invariants || race)

// Package invariants exposes a build-time switch for expensive self checks.
package invariants

// Enabled is true when the binary is built with the invariants or race tag.
// Code guarded by it must not change observable behavior.
const Enabled = false

// SPDX-License-Identifier: MPL-2.0

// Package resource provides resources, packs, and the pack-overlay manager.
//
// A pack is a self-contained bundle of resources with a ".bpack" suffix,
// either a directory or a ZIP archive. Every pack carries a pack.cue
// metadata file at its root and stores resources under data/<namespace>/.
//
// Pack naming rules:
//   - The directory (or archive root) name must end with ".bpack"
//   - The prefix before the suffix must start with a lowercase letter and
//     contain only lowercase alphanumerics, with optional dot-separated
//     segments (e.g. "core", "com.example.overrides")
//   - The id field in pack.cue must match that prefix
//   - Packs cannot be nested inside other packs
//
// The Manager stacks active packs in priority order. Lookups resolve
// through the stack, highest priority first. Changes to the active set are
// staged and only take effect on the next Reload.
package resource

// Package domain translates MCP tool calls into garden domain commands.
//
// The package is intentionally explicit about that mapping:
// - resolve the session context (certificate fingerprint, locale) into an
//   authenticated gardener,
// - route calls to the in-process garden, identity, and mailbox services,
// - and surface structured outputs plus localized alert text that MCP
//   clients can render directly.
//
// This keeps MCP behavior auditable from protocol message -> domain command ->
// stored plant state.
package domain

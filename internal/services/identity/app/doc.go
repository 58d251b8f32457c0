// Package server composes the identity service process boundary.
//
// It adapts the sqlite-backed storage layer to the domain store contract and
// assembles the account and certificate use-cases so the MCP surface resolves
// every caller through one identity source.
package server

// Package server composes the garden service process boundary.
//
// It adapts the sqlite-backed storage layer to the domain store contract and
// assembles the lifecycle engine so commands and the MCP surface share one
// source of truth for plants and inventories.
package server

// Package server composes the mailbox service process boundary.
//
// It adapts the sqlite-backed storage layer to the domain store contract so
// postcards delivered by one surface show up for every other one.
package server

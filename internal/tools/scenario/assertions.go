package scenario

import (
	"fmt"
	"log"
)

// AssertionMode controls what a failed expectation does to the run.
type AssertionMode int

const (
	// AssertionStrict stops the scenario on the first failed expectation.
	AssertionStrict AssertionMode = iota
	// AssertionLogOnly records failed expectations and keeps going.
	AssertionLogOnly
)

// Assertions evaluates scripted expectations.
type Assertions struct {
	Mode   AssertionMode
	Logger *log.Logger
}

// Failf reports a malformed or impossible step. It fails in every mode.
func (a Assertions) Failf(format string, args ...any) error {
	return fmt.Errorf(format, args...)
}

// Assertf reports a failed expectation. Log-only mode downgrades it to a
// logger line.
func (a Assertions) Assertf(format string, args ...any) error {
	if a.Mode == AssertionLogOnly {
		if a.Logger != nil {
			a.Logger.Printf("expectation failed: "+format, args...)
		}
		return nil
	}
	return fmt.Errorf(format, args...)
}

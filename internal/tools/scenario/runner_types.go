package scenario

import (
	gardendomain "github.com/astralgarden/astral.garden/internal/services/garden/domain"
	identitydomain "github.com/astralgarden/astral.garden/internal/services/identity/domain"
)

type scenarioEnv struct {
	garden   *gardendomain.Service
	identity *identitydomain.Service
}

type scenarioState struct {
	// accounts maps scripted gardener names to their account IDs.
	accounts map[string]string
	// actor is the gardener performing steps that carry no "as" argument.
	actor string
}

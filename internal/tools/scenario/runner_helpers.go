package scenario

import (
	"context"
	"fmt"
	"strings"
	"time"

	gardendomain "github.com/astralgarden/astral.garden/internal/services/garden/domain"
)

func (r *Runner) failf(format string, args ...any) error {
	return r.assertions.Failf(format, args...)
}

func (r *Runner) assertf(format string, args ...any) error {
	return r.assertions.Assertf(format, args...)
}

// actorID resolves the gardener performing a step: the "as" argument when
// present, otherwise the scenario's current actor.
func (r *Runner) actorID(state *scenarioState, step Step) (string, error) {
	name := optionalString(step.Args, "as", state.actor)
	if name == "" {
		return "", r.failf("no gardener registered")
	}
	id, ok := state.accounts[name]
	if !ok {
		return "", r.failf("unknown gardener %q", name)
	}
	return id, nil
}

// ownerID resolves whose plant a step targets: the "gardener" argument when
// present, otherwise the actor's own plant.
func (r *Runner) ownerID(state *scenarioState, step Step, actorID string) (string, error) {
	name := requiredString(step.Args, "gardener")
	if name == "" {
		return actorID, nil
	}
	id, ok := state.accounts[name]
	if !ok {
		return "", r.failf("unknown gardener %q", name)
	}
	return id, nil
}

func (r *Runner) observePlant(ctx context.Context, state *scenarioState, step Step) (gardendomain.PlantView, error) {
	actor, err := r.actorID(state, step)
	if err != nil {
		return gardendomain.PlantView{}, err
	}
	owner, err := r.ownerID(state, step, actor)
	if err != nil {
		return gardendomain.PlantView{}, err
	}
	view, err := r.env.garden.Observe(ctx, gardendomain.ObserveInput{OwnerID: owner, ActorID: actor})
	if err != nil {
		return gardendomain.PlantView{}, fmt.Errorf("observe plant: %w", err)
	}
	return view, nil
}

func (r *Runner) coinBalance(ctx context.Context, accountID string) (int, error) {
	entries, err := r.env.garden.Inventory(ctx, accountID)
	if err != nil {
		return 0, fmt.Errorf("read inventory: %w", err)
	}
	for _, entry := range entries {
		if entry.Item.ID == gardendomain.ItemCoin {
			return entry.Quantity, nil
		}
	}
	return 0, nil
}

// advanceDuration sums the days and hours arguments. Fractional values are
// allowed.
func advanceDuration(args map[string]any) time.Duration {
	total := time.Duration(0)
	if days, ok := readNumber(args, "days"); ok {
		total += time.Duration(days * 24 * float64(time.Hour))
	}
	if hours, ok := readNumber(args, "hours"); ok {
		total += time.Duration(hours * float64(time.Hour))
	}
	return total
}

func requiredString(args map[string]any, key string) string {
	value, ok := args[key]
	if !ok {
		return ""
	}
	text, ok := value.(string)
	if ok && text != "" {
		return text
	}
	return ""
}

func optionalString(args map[string]any, key, fallback string) string {
	value, ok := args[key]
	if !ok {
		return fallback
	}
	text, ok := value.(string)
	if ok && text != "" {
		return text
	}
	return fallback
}

func optionalInt(args map[string]any, key string, fallback int) int {
	value, ok := args[key]
	if !ok {
		return fallback
	}
	switch typed := value.(type) {
	case int:
		return typed
	case float64:
		return int(typed)
	default:
		return fallback
	}
}

func optionalBool(args map[string]any, key string, fallback bool) bool {
	value, ok := args[key]
	if !ok {
		return fallback
	}
	switch typed := value.(type) {
	case bool:
		return typed
	case string:
		lower := strings.ToLower(strings.TrimSpace(typed))
		if lower == "true" || lower == "yes" || lower == "1" {
			return true
		}
		if lower == "false" || lower == "no" || lower == "0" {
			return false
		}
	}
	return fallback
}

func readInt(args map[string]any, key string) (int, bool) {
	value, ok := args[key]
	if !ok {
		return 0, false
	}
	switch typed := value.(type) {
	case int:
		return typed, true
	case float64:
		return int(typed), true
	default:
		return 0, false
	}
}

func readBool(args map[string]any, key string) (bool, bool) {
	value, ok := args[key]
	if !ok {
		return false, false
	}
	typed, ok := value.(bool)
	if !ok {
		return false, false
	}
	return typed, true
}

func readNumber(args map[string]any, key string) (float64, bool) {
	value, ok := args[key]
	if !ok {
		return 0, false
	}
	switch typed := value.(type) {
	case int:
		return float64(typed), true
	case float64:
		return typed, true
	default:
		return 0, false
	}
}

package scenario

import (
	"context"
	"fmt"
	"time"

	gardendomain "github.com/astralgarden/astral.garden/internal/services/garden/domain"
	identitydomain "github.com/astralgarden/astral.garden/internal/services/identity/domain"
)

func (r *Runner) runStep(ctx context.Context, state *scenarioState, step Step) error {
	switch step.Kind {
	case "gardener":
		return r.runGardenerStep(ctx, state, step)
	case "as":
		return r.runAsStep(state, step)
	case "water":
		return r.runWaterStep(ctx, state, step)
	case "shake":
		return r.runShakeStep(ctx, state, step)
	case "search":
		return r.runSearchStep(ctx, state, step)
	case "fertilize":
		return r.runFertilizeStep(ctx, state, step)
	case "harvest":
		return r.runHarvestStep(ctx, state, step)
	case "rename":
		return r.runRenameStep(ctx, state, step)
	case "buy":
		return r.runBuyStep(ctx, state, step)
	case "advance":
		return r.runAdvanceStep(step)
	case "expect_stage":
		return r.runExpectStageStep(ctx, state, step)
	case "expect_dead":
		return r.runExpectDeadStep(ctx, state, step)
	case "expect_generation":
		return r.runExpectGenerationStep(ctx, state, step)
	case "expect_coins":
		return r.runExpectCoinsStep(ctx, state, step)
	default:
		return r.failf("unknown step kind %q", step.Kind)
	}
}

func (r *Runner) runGardenerStep(ctx context.Context, state *scenarioState, step Step) error {
	name := requiredString(step.Args, "name")
	if name == "" {
		return r.failf("gardener name is required")
	}
	if _, ok := state.accounts[name]; ok {
		return r.failf("gardener %q already registered", name)
	}

	session, err := r.env.identity.RegisterNew(ctx, identitydomain.RegisterNewInput{
		Username:    name,
		Certificate: identitydomain.CertificateInfo{Fingerprint: "scenario:" + name},
	})
	if err != nil {
		return fmt.Errorf("register gardener: %w", err)
	}
	state.accounts[name] = session.Account.ID
	if state.actor == "" {
		state.actor = name
	}

	// Look at the new garden once so the first plant sprouts before any
	// visitor steps reach it.
	if _, err := r.env.garden.Observe(ctx, gardendomain.ObserveInput{OwnerID: session.Account.ID}); err != nil {
		return fmt.Errorf("sprout garden: %w", err)
	}
	r.logf("gardener registered: name=%s account=%s", name, session.Account.ID)
	return nil
}

func (r *Runner) runAsStep(state *scenarioState, step Step) error {
	name := requiredString(step.Args, "name")
	if name == "" {
		return r.failf("gardener name is required")
	}
	if _, ok := state.accounts[name]; !ok {
		return r.failf("unknown gardener %q", name)
	}
	state.actor = name
	r.logf("acting as: %s", name)
	return nil
}

func (r *Runner) runWaterStep(ctx context.Context, state *scenarioState, step Step) error {
	actor, err := r.actorID(state, step)
	if err != nil {
		return err
	}
	owner, err := r.ownerID(state, step, actor)
	if err != nil {
		return err
	}
	result, err := r.env.garden.Water(ctx, gardendomain.WaterInput{OwnerID: owner, ActorID: actor})
	if err != nil {
		return fmt.Errorf("water plant: %w", err)
	}
	r.logf("watered: level=%.2f neighborly=%t", result.View.WaterLevel, result.WateredForOwner)
	return nil
}

func (r *Runner) runShakeStep(ctx context.Context, state *scenarioState, step Step) error {
	actor, err := r.actorID(state, step)
	if err != nil {
		return err
	}
	result, err := r.env.garden.Shake(ctx, gardendomain.ShakeInput{OwnerID: actor, ActorID: actor})
	if err != nil {
		return fmt.Errorf("shake plant: %w", err)
	}
	r.logf("shaken: coins=%d", result.Coins)
	return nil
}

func (r *Runner) runSearchStep(ctx context.Context, state *scenarioState, step Step) error {
	actor, err := r.actorID(state, step)
	if err != nil {
		return err
	}
	owner, err := r.ownerID(state, step, actor)
	if err != nil {
		return err
	}
	result, err := r.env.garden.Search(ctx, gardendomain.SearchInput{OwnerID: owner, ActorID: actor})
	if err != nil {
		return fmt.Errorf("search plant: %w", err)
	}
	r.logf("searched: found=%t petal=%s", result.Found, result.Petal)
	if want, ok := readBool(step.Args, "expect_found"); ok && result.Found != want {
		return r.assertf("search found = %t, want %t", result.Found, want)
	}
	return nil
}

func (r *Runner) runFertilizeStep(ctx context.Context, state *scenarioState, step Step) error {
	actor, err := r.actorID(state, step)
	if err != nil {
		return err
	}
	if _, err := r.env.garden.Fertilize(ctx, gardendomain.FertilizeInput{OwnerID: actor, ActorID: actor}); err != nil {
		return fmt.Errorf("fertilize plant: %w", err)
	}
	r.logf("fertilized")
	return nil
}

func (r *Runner) runHarvestStep(ctx context.Context, state *scenarioState, step Step) error {
	actor, err := r.actorID(state, step)
	if err != nil {
		return err
	}
	result, err := r.env.garden.Harvest(ctx, gardendomain.HarvestInput{OwnerID: actor, ActorID: actor})
	if err != nil {
		return fmt.Errorf("harvest plant: %w", err)
	}
	r.logf("harvested: reward=%d next_generation=%d", result.Reward, result.View.Plant.Generation)
	if want, ok := readInt(step.Args, "expect_reward"); ok && result.Reward != want {
		return r.assertf("harvest reward = %d, want %d", result.Reward, want)
	}
	return nil
}

func (r *Runner) runRenameStep(ctx context.Context, state *scenarioState, step Step) error {
	actor, err := r.actorID(state, step)
	if err != nil {
		return err
	}
	name := requiredString(step.Args, "name")
	if name == "" {
		return r.failf("plant name is required")
	}
	if _, err := r.env.garden.Rename(ctx, gardendomain.RenameInput{OwnerID: actor, ActorID: actor, Name: name}); err != nil {
		return fmt.Errorf("rename plant: %w", err)
	}
	r.logf("renamed: %s", name)
	return nil
}

func (r *Runner) runBuyStep(ctx context.Context, state *scenarioState, step Step) error {
	actor, err := r.actorID(state, step)
	if err != nil {
		return err
	}
	item := requiredString(step.Args, "item")
	if item == "" {
		return r.failf("item is required")
	}
	quantity := optionalInt(step.Args, "quantity", 1)
	result, err := r.env.garden.Buy(ctx, gardendomain.BuyInput{
		AccountID: actor,
		Item:      gardendomain.ItemID(item),
		Quantity:  quantity,
	})
	if err != nil {
		return fmt.Errorf("buy item: %w", err)
	}
	r.logf("bought: item=%s quantity=%d coins_left=%d", result.Item.ID, result.Quantity, result.CoinsLeft)
	return nil
}

func (r *Runner) runAdvanceStep(step Step) error {
	d := advanceDuration(step.Args)
	if d <= 0 {
		return r.failf("advance needs days or hours")
	}
	r.clock.Advance(d)
	r.logf("advanced: %s (now %s)", d, r.clock.Now().Format(time.RFC3339))
	return nil
}

func (r *Runner) runExpectStageStep(ctx context.Context, state *scenarioState, step Step) error {
	view, err := r.observePlant(ctx, state, step)
	if err != nil {
		return err
	}
	want := requiredString(step.Args, "stage")
	if got := view.Plant.Stage.String(); got != want {
		return r.assertf("stage = %q, want %q", got, want)
	}
	r.logf("stage: %s", view.Plant.Stage)
	return nil
}

func (r *Runner) runExpectDeadStep(ctx context.Context, state *scenarioState, step Step) error {
	view, err := r.observePlant(ctx, state, step)
	if err != nil {
		return err
	}
	want := optionalBool(step.Args, "dead", true)
	if view.Plant.Dead != want {
		return r.assertf("dead = %t, want %t", view.Plant.Dead, want)
	}
	r.logf("dead: %t", view.Plant.Dead)
	return nil
}

func (r *Runner) runExpectGenerationStep(ctx context.Context, state *scenarioState, step Step) error {
	view, err := r.observePlant(ctx, state, step)
	if err != nil {
		return err
	}
	want, ok := readInt(step.Args, "generation")
	if !ok {
		return r.failf("generation is required")
	}
	if view.Plant.Generation != want {
		return r.assertf("generation = %d, want %d", view.Plant.Generation, want)
	}
	r.logf("generation: %d", view.Plant.Generation)
	return nil
}

func (r *Runner) runExpectCoinsStep(ctx context.Context, state *scenarioState, step Step) error {
	actor, err := r.actorID(state, step)
	if err != nil {
		return err
	}
	coins, err := r.coinBalance(ctx, actor)
	if err != nil {
		return err
	}
	if want, ok := readInt(step.Args, "exactly"); ok && coins != want {
		return r.assertf("coins = %d, want %d", coins, want)
	}
	if want, ok := readInt(step.Args, "at_least"); ok && coins < want {
		return r.assertf("coins = %d, want at least %d", coins, want)
	}
	r.logf("coins: %d", coins)
	return nil
}

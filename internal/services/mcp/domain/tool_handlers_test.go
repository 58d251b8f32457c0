package domain

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	garden "github.com/astralgarden/astral.garden/internal/services/garden/domain"
)

func TestSetContextHandler(t *testing.T) {
	t.Run("linked certificate", func(t *testing.T) {
		env := newTestEnv(t)
		registerGardener(t, env, "herbert", "fp-herbert")

		handler := SetContextHandler(env.identity, env.setContext, env.getContext, nil)
		_, result, err := handler(context.Background(), nil, SetContextInput{
			Fingerprint: "fp-herbert",
			Locale:      "pt-BR",
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !result.Linked {
			t.Error("expected linked context")
		}
		if result.Username != "herbert" {
			t.Errorf("username = %q, want herbert", result.Username)
		}
		if result.Context.Fingerprint != "fp-herbert" || result.Context.Locale != "pt-BR" {
			t.Errorf("context = %+v", result.Context)
		}
		if got := env.getContext(); got.Fingerprint != "fp-herbert" || got.Locale != "pt-BR" {
			t.Errorf("stored context = %+v", got)
		}
	})

	t.Run("unlinked certificate still sets context", func(t *testing.T) {
		env := newTestEnv(t)

		handler := SetContextHandler(env.identity, env.setContext, env.getContext, nil)
		_, result, err := handler(context.Background(), nil, SetContextInput{Fingerprint: "fp-new"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Linked {
			t.Error("unknown fingerprint must not report linked")
		}
		if result.Username != "" {
			t.Errorf("username = %q, want empty", result.Username)
		}
		if got := env.getContext(); got.Fingerprint != "fp-new" {
			t.Errorf("stored fingerprint = %q, want fp-new", got.Fingerprint)
		}
	})

	t.Run("missing fingerprint", func(t *testing.T) {
		env := newTestEnv(t)
		handler := SetContextHandler(env.identity, env.setContext, env.getContext, nil)
		_, _, err := handler(context.Background(), nil, SetContextInput{})
		if err == nil {
			t.Fatal("expected error for missing fingerprint")
		}
	})

	t.Run("notifies the context resource", func(t *testing.T) {
		env := newTestEnv(t)
		registerGardener(t, env, "herbert", "fp-herbert")

		var notified []string
		notify := func(_ context.Context, uri string) { notified = append(notified, uri) }
		handler := SetContextHandler(env.identity, env.setContext, env.getContext, notify)
		if _, _, err := handler(context.Background(), nil, SetContextInput{Fingerprint: "fp-herbert"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(notified) != 1 || notified[0] != ContextResource().URI {
			t.Errorf("notified = %v, want [%s]", notified, ContextResource().URI)
		}
	})
}

func TestContextResourceHandler(t *testing.T) {
	t.Run("reports the active context", func(t *testing.T) {
		env := newTestEnv(t)
		env.setContext(Context{Fingerprint: "fp-herbert", Locale: "pt-BR"})

		handler := ContextResourceHandler(env.getContext)
		result, err := handler(context.Background(), nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(result.Contents) != 1 {
			t.Fatalf("got %d contents, want 1", len(result.Contents))
		}

		var payload ContextResourcePayload
		if err := json.Unmarshal([]byte(result.Contents[0].Text), &payload); err != nil {
			t.Fatalf("unmarshal payload: %v", err)
		}
		if payload.Context.Fingerprint == nil || *payload.Context.Fingerprint != "fp-herbert" {
			t.Errorf("fingerprint = %v", payload.Context.Fingerprint)
		}
		if payload.Context.Locale == nil || *payload.Context.Locale != "pt-BR" {
			t.Errorf("locale = %v", payload.Context.Locale)
		}
	})

	t.Run("null fields when unset", func(t *testing.T) {
		env := newTestEnv(t)
		handler := ContextResourceHandler(env.getContext)
		result, err := handler(context.Background(), nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		var payload ContextResourcePayload
		if err := json.Unmarshal([]byte(result.Contents[0].Text), &payload); err != nil {
			t.Fatalf("unmarshal payload: %v", err)
		}
		if payload.Context.Fingerprint != nil || payload.Context.Locale != nil {
			t.Errorf("payload = %+v, want null fields", payload.Context)
		}
	})

	t.Run("rejects other URIs", func(t *testing.T) {
		env := newTestEnv(t)
		handler := ContextResourceHandler(env.getContext)
		_, err := handler(context.Background(), &mcp.ReadResourceRequest{
			Params: &mcp.ReadResourceParams{URI: "context://stale"},
		})
		if err == nil {
			t.Fatal("expected error for unknown URI")
		}
	})
}

func TestGardenObserveHandler(t *testing.T) {
	t.Run("sprouts the first seed", func(t *testing.T) {
		env := newTestEnv(t)
		registerGardener(t, env, "herbert", "fp-herbert")
		env.useCertificate("fp-herbert")

		handler := GardenObserveHandler(env.garden, env.identity, env.getContext)
		_, result, err := handler(context.Background(), nil, GardenObserveInput{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Plant.Owner != "herbert" {
			t.Errorf("owner = %q, want herbert", result.Plant.Owner)
		}
		if result.Plant.Stage != "seed" || result.Plant.Generation != 1 {
			t.Errorf("plant = stage %q generation %d, want a first seed", result.Plant.Stage, result.Plant.Generation)
		}
		if len(result.Observation) == 0 {
			t.Fatal("expected observation lines")
		}
		if result.Observation[0] != "You see a seed." {
			t.Errorf("observation[0] = %q", result.Observation[0])
		}
	})

	t.Run("requires a session", func(t *testing.T) {
		env := newTestEnv(t)
		handler := GardenObserveHandler(env.garden, env.identity, env.getContext)
		_, _, err := handler(context.Background(), nil, GardenObserveInput{})
		if err == nil || !strings.Contains(err.Error(), "set_context") {
			t.Fatalf("error = %v, want a set_context hint", err)
		}
	})

	t.Run("visits another gardener by name", func(t *testing.T) {
		env := newTestEnv(t)
		owner := registerGardener(t, env, "herbert", "fp-herbert")
		registerGardener(t, env, "ivy", "fp-ivy")
		sproutPlant(t, env, owner.Account.ID)
		env.useCertificate("fp-ivy")

		handler := GardenObserveHandler(env.garden, env.identity, env.getContext)
		_, result, err := handler(context.Background(), nil, GardenObserveInput{Gardener: "herbert"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Plant.Owner != "herbert" {
			t.Errorf("owner = %q, want herbert", result.Plant.Owner)
		}
	})

	t.Run("visiting an empty garden does not seed it", func(t *testing.T) {
		env := newTestEnv(t)
		registerGardener(t, env, "herbert", "fp-herbert")
		registerGardener(t, env, "ivy", "fp-ivy")
		env.useCertificate("fp-ivy")

		handler := GardenObserveHandler(env.garden, env.identity, env.getContext)
		_, _, err := handler(context.Background(), nil, GardenObserveInput{Gardener: "herbert"})
		if err == nil {
			t.Fatal("expected error for a garden with no plant")
		}
	})

	t.Run("unknown gardener", func(t *testing.T) {
		env := newTestEnv(t)
		registerGardener(t, env, "herbert", "fp-herbert")
		env.useCertificate("fp-herbert")

		handler := GardenObserveHandler(env.garden, env.identity, env.getContext)
		_, _, err := handler(context.Background(), nil, GardenObserveInput{Gardener: "nobody"})
		if err == nil || err.Error() != "No gardener by that name" {
			t.Fatalf("error = %v, want the unknown gardener message", err)
		}
	})
}

func TestGardenWaterHandler(t *testing.T) {
	t.Run("waters own plant", func(t *testing.T) {
		env := newTestEnv(t)
		session := registerGardener(t, env, "herbert", "fp-herbert")
		sproutPlant(t, env, session.Account.ID)
		env.useCertificate("fp-herbert")

		handler := GardenWaterHandler(env.garden, env.identity, env.getContext, nil)
		_, result, err := handler(context.Background(), nil, GardenWaterInput{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.WateredForOwner {
			t.Error("watering your own plant is not neighborly")
		}
		if result.Plant.WaterLevel != 1 {
			t.Errorf("water level = %v, want 1", result.Plant.WaterLevel)
		}
		if result.Plant.CanWater {
			t.Error("freshly watered plant must be on cooldown")
		}
		if result.Plant.WaterCooldownRemaining != "24h0m0s" {
			t.Errorf("cooldown = %q, want 24h0m0s", result.Plant.WaterCooldownRemaining)
		}
		if result.Alert != "You water the plant." {
			t.Errorf("alert = %q", result.Alert)
		}
	})

	t.Run("waters a neighbor's plant", func(t *testing.T) {
		env := newTestEnv(t)
		owner := registerGardener(t, env, "herbert", "fp-herbert")
		registerGardener(t, env, "ivy", "fp-ivy")
		sproutPlant(t, env, owner.Account.ID)
		env.useCertificate("fp-ivy")

		handler := GardenWaterHandler(env.garden, env.identity, env.getContext, nil)
		_, result, err := handler(context.Background(), nil, GardenWaterInput{Gardener: "herbert"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !result.WateredForOwner {
			t.Error("expected a neighborly watering")
		}
		if result.Plant.Owner != "herbert" {
			t.Errorf("owner = %q, want herbert", result.Plant.Owner)
		}
		if result.Plant.WateredBy != "ivy" {
			t.Errorf("watered by = %q, want ivy", result.Plant.WateredBy)
		}
		if result.Alert != "You water the plant for its owner. How neighborly!" {
			t.Errorf("alert = %q", result.Alert)
		}
	})

	t.Run("second watering hits the cooldown", func(t *testing.T) {
		env := newTestEnv(t)
		session := registerGardener(t, env, "herbert", "fp-herbert")
		sproutPlant(t, env, session.Account.ID)
		env.useCertificate("fp-herbert")

		handler := GardenWaterHandler(env.garden, env.identity, env.getContext, nil)
		if _, _, err := handler(context.Background(), nil, GardenWaterInput{}); err != nil {
			t.Fatalf("first watering: %v", err)
		}
		_, _, err := handler(context.Background(), nil, GardenWaterInput{})
		if err == nil || err.Error() != "You must wait 24h0m0s before doing that again" {
			t.Fatalf("error = %v, want the cooldown message", err)
		}
	})

	t.Run("localized alerts and errors", func(t *testing.T) {
		env := newTestEnv(t)
		session := registerGardener(t, env, "herbert", "fp-herbert")
		sproutPlant(t, env, session.Account.ID)
		env.setContext(Context{Fingerprint: "fp-herbert", Locale: "pt-BR"})

		handler := GardenWaterHandler(env.garden, env.identity, env.getContext, nil)
		_, result, err := handler(context.Background(), nil, GardenWaterInput{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Alert != "Você rega a planta." {
			t.Errorf("alert = %q", result.Alert)
		}

		_, _, err = handler(context.Background(), nil, GardenWaterInput{})
		if err == nil || err.Error() != "Aguarde 24h0m0s antes de fazer isso de novo" {
			t.Fatalf("error = %v, want the pt-BR cooldown message", err)
		}
	})

	t.Run("notifies the neighborhood resource", func(t *testing.T) {
		env := newTestEnv(t)
		session := registerGardener(t, env, "herbert", "fp-herbert")
		sproutPlant(t, env, session.Account.ID)
		env.useCertificate("fp-herbert")

		var notified []string
		notify := func(_ context.Context, uri string) { notified = append(notified, uri) }
		handler := GardenWaterHandler(env.garden, env.identity, env.getContext, notify)
		if _, _, err := handler(context.Background(), nil, GardenWaterInput{}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(notified) != 1 || notified[0] != NeighborhoodResource().URI {
			t.Errorf("notified = %v, want [%s]", notified, NeighborhoodResource().URI)
		}
	})
}

func TestGardenShakeHandler(t *testing.T) {
	t.Run("dislodges coins", func(t *testing.T) {
		env := newTestEnv(t)
		session := registerGardener(t, env, "herbert", "fp-herbert")
		sproutPlant(t, env, session.Account.ID)
		env.useCertificate("fp-herbert")

		handler := GardenShakeHandler(env.garden, env.identity, env.getContext, nil)
		_, result, err := handler(context.Background(), nil, GardenShakeInput{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Coins < 1 {
			t.Errorf("coins = %d, want at least 1", result.Coins)
		}
		if got := env.gardenStore.itemCount(session.Account.ID, garden.ItemCoin); got != result.Coins {
			t.Errorf("stored coins = %d, want %d", got, result.Coins)
		}
		if result.Alert == "" {
			t.Error("expected an alert")
		}
	})

	t.Run("second shake hits the cooldown", func(t *testing.T) {
		env := newTestEnv(t)
		session := registerGardener(t, env, "herbert", "fp-herbert")
		sproutPlant(t, env, session.Account.ID)
		env.useCertificate("fp-herbert")

		handler := GardenShakeHandler(env.garden, env.identity, env.getContext, nil)
		if _, _, err := handler(context.Background(), nil, GardenShakeInput{}); err != nil {
			t.Fatalf("first shake: %v", err)
		}
		_, _, err := handler(context.Background(), nil, GardenShakeInput{})
		if err == nil || err.Error() != "You must wait 1h0m0s before doing that again" {
			t.Fatalf("error = %v, want the cooldown message", err)
		}
	})
}

func TestGardenSearchHandler(t *testing.T) {
	t.Run("finds a petal on a flowering plant", func(t *testing.T) {
		env := newTestEnv(t)
		session := registerGardener(t, env, "herbert", "fp-herbert")
		env.gardenStore.seedPlant(floweringPlant(session.Account.ID, "red", env.base))
		env.useCertificate("fp-herbert")

		handler := GardenSearchHandler(env.garden, env.identity, env.getContext)
		_, result, err := handler(context.Background(), nil, GardenSearchInput{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !result.Found || result.Petal != "petal-red" {
			t.Errorf("found = %v petal = %q, want a red petal", result.Found, result.Petal)
		}
		if result.Alert != "You find a flower petal [red] hidden among the flowers!" {
			t.Errorf("alert = %q", result.Alert)
		}
		if got := env.gardenStore.itemCount(session.Account.ID, garden.PetalItem("red")); got != 1 {
			t.Errorf("stored petals = %d, want 1", got)
		}
	})

	t.Run("petal goes to the visitor", func(t *testing.T) {
		env := newTestEnv(t)
		owner := registerGardener(t, env, "herbert", "fp-herbert")
		visitor := registerGardener(t, env, "ivy", "fp-ivy")
		env.gardenStore.seedPlant(floweringPlant(owner.Account.ID, "blue", env.base))
		env.useCertificate("fp-ivy")

		handler := GardenSearchHandler(env.garden, env.identity, env.getContext)
		_, result, err := handler(context.Background(), nil, GardenSearchInput{Gardener: "herbert"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !result.Found {
			t.Fatal("expected a petal at full odds")
		}
		if got := env.gardenStore.itemCount(visitor.Account.ID, garden.PetalItem("blue")); got != 1 {
			t.Errorf("visitor petals = %d, want 1", got)
		}
		if got := env.gardenStore.itemCount(owner.Account.ID, garden.PetalItem("blue")); got != 0 {
			t.Errorf("owner petals = %d, want 0", got)
		}
	})

	t.Run("needs a flowering plant", func(t *testing.T) {
		env := newTestEnv(t)
		session := registerGardener(t, env, "herbert", "fp-herbert")
		sproutPlant(t, env, session.Account.ID)
		env.useCertificate("fp-herbert")

		handler := GardenSearchHandler(env.garden, env.identity, env.getContext)
		_, _, err := handler(context.Background(), nil, GardenSearchInput{})
		if err == nil || err.Error() != "Your plant cannot do that right now" {
			t.Fatalf("error = %v, want the invalid action message", err)
		}
	})
}

func TestGardenFertilizeHandler(t *testing.T) {
	t.Run("works a dose into wet soil", func(t *testing.T) {
		env := newTestEnv(t)
		session := registerGardener(t, env, "herbert", "fp-herbert")
		sproutPlant(t, env, session.Account.ID)
		env.gardenStore.seedItems(session.Account.ID, map[garden.ItemID]int{garden.ItemFertilizer: 1})
		env.useCertificate("fp-herbert")

		water := GardenWaterHandler(env.garden, env.identity, env.getContext, nil)
		if _, _, err := water(context.Background(), nil, GardenWaterInput{}); err != nil {
			t.Fatalf("water: %v", err)
		}

		handler := GardenFertilizeHandler(env.garden, env.identity, env.getContext)
		_, result, err := handler(context.Background(), nil, GardenFertilizeInput{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !result.Plant.FertilizerActive {
			t.Error("expected an active fertilizer dose")
		}
		if result.Alert != "You work the fertilizer into the soil. The plant perks up." {
			t.Errorf("alert = %q", result.Alert)
		}
		if got := env.gardenStore.itemCount(session.Account.ID, garden.ItemFertilizer); got != 0 {
			t.Errorf("fertilizer left = %d, want 0", got)
		}

		// A second dose while the first is active is refused.
		_, _, err = handler(context.Background(), nil, GardenFertilizeInput{})
		if err == nil || !strings.Contains(err.Error(), "You must wait") {
			t.Fatalf("error = %v, want a cooldown message", err)
		}
	})

	t.Run("needs fertilizer in the inventory", func(t *testing.T) {
		env := newTestEnv(t)
		session := registerGardener(t, env, "herbert", "fp-herbert")
		sproutPlant(t, env, session.Account.ID)
		env.useCertificate("fp-herbert")

		water := GardenWaterHandler(env.garden, env.identity, env.getContext, nil)
		if _, _, err := water(context.Background(), nil, GardenWaterInput{}); err != nil {
			t.Fatalf("water: %v", err)
		}

		handler := GardenFertilizeHandler(env.garden, env.identity, env.getContext)
		_, _, err := handler(context.Background(), nil, GardenFertilizeInput{})
		if err == nil || err.Error() != "You do not have a fertilizer" {
			t.Fatalf("error = %v, want the missing item message", err)
		}
	})

	t.Run("needs wet soil", func(t *testing.T) {
		env := newTestEnv(t)
		session := registerGardener(t, env, "herbert", "fp-herbert")
		sproutPlant(t, env, session.Account.ID)
		env.gardenStore.seedItems(session.Account.ID, map[garden.ItemID]int{garden.ItemFertilizer: 1})
		env.useCertificate("fp-herbert")

		handler := GardenFertilizeHandler(env.garden, env.identity, env.getContext)
		_, _, err := handler(context.Background(), nil, GardenFertilizeInput{})
		if err == nil || err.Error() != "Your plant cannot do that right now" {
			t.Fatalf("error = %v, want the invalid action message", err)
		}
	})
}

func TestGardenHarvestHandler(t *testing.T) {
	t.Run("harvests a seed-bearing plant", func(t *testing.T) {
		env := newTestEnv(t)
		session := registerGardener(t, env, "herbert", "fp-herbert")
		env.gardenStore.seedPlant(seedBearingPlant(session.Account.ID, env.base))
		env.useCertificate("fp-herbert")

		handler := GardenHarvestHandler(env.garden, env.identity, env.getContext, nil)
		_, result, err := handler(context.Background(), nil, GardenHarvestInput{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Reward != 518400 {
			t.Errorf("reward = %d, want 518400", result.Reward)
		}
		if result.Salvage {
			t.Error("a living harvest is not a salvage")
		}
		if result.NextPlant.Generation != 2 || result.NextPlant.Stage != "seed" {
			t.Errorf("next plant = generation %d stage %q, want a generation 2 seed", result.NextPlant.Generation, result.NextPlant.Stage)
		}
		if result.Alert != "Goodbye, sunflower. You collect 518400 coins' worth of seeds." {
			t.Errorf("alert = %q", result.Alert)
		}
		if got := env.gardenStore.itemCount(session.Account.ID, garden.ItemCoin); got != 518400 {
			t.Errorf("stored coins = %d, want 518400", got)
		}
	})

	t.Run("refuses a growing plant", func(t *testing.T) {
		env := newTestEnv(t)
		session := registerGardener(t, env, "herbert", "fp-herbert")
		sproutPlant(t, env, session.Account.ID)
		env.useCertificate("fp-herbert")

		handler := GardenHarvestHandler(env.garden, env.identity, env.getContext, nil)
		_, _, err := handler(context.Background(), nil, GardenHarvestInput{})
		if err == nil || err.Error() != "Your plant cannot do that right now" {
			t.Fatalf("error = %v, want the invalid action message", err)
		}
	})
}

func TestGardenRenameHandler(t *testing.T) {
	t.Run("renames the plant", func(t *testing.T) {
		env := newTestEnv(t)
		session := registerGardener(t, env, "herbert", "fp-herbert")
		sproutPlant(t, env, session.Account.ID)
		env.useCertificate("fp-herbert")

		handler := GardenRenameHandler(env.garden, env.identity, env.getContext)
		_, result, err := handler(context.Background(), nil, GardenRenameInput{Name: "Herbie"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Plant.Name != "Herbie" {
			t.Errorf("name = %q, want Herbie", result.Plant.Name)
		}
		if result.Alert != "The plant shall henceforth be known as Herbie." {
			t.Errorf("alert = %q", result.Alert)
		}
	})

	t.Run("rejects an empty name", func(t *testing.T) {
		env := newTestEnv(t)
		session := registerGardener(t, env, "herbert", "fp-herbert")
		sproutPlant(t, env, session.Account.ID)
		env.useCertificate("fp-herbert")

		handler := GardenRenameHandler(env.garden, env.identity, env.getContext)
		_, _, err := handler(context.Background(), nil, GardenRenameInput{Name: "   "})
		if err == nil || err.Error() != "Plant name cannot be empty" {
			t.Fatalf("error = %v, want the empty name message", err)
		}
	})
}

func TestGardenNeighborhoodHandler(t *testing.T) {
	t.Run("lists gardens highest score first", func(t *testing.T) {
		env := newTestEnv(t)
		herbert := registerGardener(t, env, "herbert", "fp-herbert")
		ivy := registerGardener(t, env, "ivy", "fp-ivy")
		env.gardenStore.seedPlant(floweringPlant(herbert.Account.ID, "red", env.base))
		env.gardenStore.seedPlant(seedBearingPlant(ivy.Account.ID, env.base))
		env.useCertificate("fp-herbert")

		handler := GardenNeighborhoodHandler(env.garden, env.identity, env.getContext)
		_, result, err := handler(context.Background(), nil, GardenNeighborhoodInput{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(result.Plants) != 2 {
			t.Fatalf("listed %d plants, want 2", len(result.Plants))
		}
		if result.Plants[0].Owner != "ivy" || result.Plants[1].Owner != "herbert" {
			t.Errorf("order = %q, %q, want highest score first", result.Plants[0].Owner, result.Plants[1].Owner)
		}
		if result.Plants[0].Stage != "seed-bearing" {
			t.Errorf("stage = %q, want seed-bearing", result.Plants[0].Stage)
		}
	})

	t.Run("honors the limit", func(t *testing.T) {
		env := newTestEnv(t)
		herbert := registerGardener(t, env, "herbert", "fp-herbert")
		ivy := registerGardener(t, env, "ivy", "fp-ivy")
		env.gardenStore.seedPlant(floweringPlant(herbert.Account.ID, "red", env.base))
		env.gardenStore.seedPlant(seedBearingPlant(ivy.Account.ID, env.base))
		env.useCertificate("fp-herbert")

		handler := GardenNeighborhoodHandler(env.garden, env.identity, env.getContext)
		_, result, err := handler(context.Background(), nil, GardenNeighborhoodInput{Limit: 1})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(result.Plants) != 1 || result.Plants[0].Owner != "ivy" {
			t.Errorf("plants = %+v, want just ivy's", result.Plants)
		}
	})
}

func TestShopBuyHandler(t *testing.T) {
	t.Run("buys fertilizer with coins", func(t *testing.T) {
		env := newTestEnv(t)
		session := registerGardener(t, env, "herbert", "fp-herbert")
		env.gardenStore.seedItems(session.Account.ID, map[garden.ItemID]int{garden.ItemCoin: 100})
		env.useCertificate("fp-herbert")

		handler := ShopBuyHandler(env.garden, env.identity, env.getContext)
		_, result, err := handler(context.Background(), nil, ShopBuyInput{Item: "fertilizer"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Item != "fertilizer" || result.ItemName != "EZ-Grow fertilizer" {
			t.Errorf("item = %q (%q)", result.Item, result.ItemName)
		}
		if result.Quantity != 1 || result.UnitPrice != 75 || result.CoinsLeft != 25 {
			t.Errorf("result = %+v, want 1 bottle at 75 leaving 25", result)
		}
		if got := env.gardenStore.itemCount(session.Account.ID, garden.ItemFertilizer); got != 1 {
			t.Errorf("stored fertilizer = %d, want 1", got)
		}
	})

	t.Run("insufficient coins", func(t *testing.T) {
		env := newTestEnv(t)
		registerGardener(t, env, "herbert", "fp-herbert")
		env.useCertificate("fp-herbert")

		handler := ShopBuyHandler(env.garden, env.identity, env.getContext)
		_, _, err := handler(context.Background(), nil, ShopBuyInput{Item: "fertilizer"})
		if err == nil || err.Error() != "You need 75 coins but only have 0" {
			t.Fatalf("error = %v, want the insufficient coins message", err)
		}
	})

	t.Run("petals are not for sale", func(t *testing.T) {
		env := newTestEnv(t)
		session := registerGardener(t, env, "herbert", "fp-herbert")
		env.gardenStore.seedItems(session.Account.ID, map[garden.ItemID]int{garden.ItemCoin: 100})
		env.useCertificate("fp-herbert")

		handler := ShopBuyHandler(env.garden, env.identity, env.getContext)
		_, _, err := handler(context.Background(), nil, ShopBuyInput{Item: "petal-red"})
		if err == nil || err.Error() != "That item is not for sale" {
			t.Fatalf("error = %v, want the not-for-sale message", err)
		}
	})
}

func TestInventoryListHandler(t *testing.T) {
	t.Run("lists held items in catalog order", func(t *testing.T) {
		env := newTestEnv(t)
		session := registerGardener(t, env, "herbert", "fp-herbert")
		env.gardenStore.seedItems(session.Account.ID, map[garden.ItemID]int{
			garden.ItemCoin:     3,
			garden.ItemPostcard: 2,
		})
		env.useCertificate("fp-herbert")

		handler := InventoryListHandler(env.garden, env.identity, env.getContext)
		_, result, err := handler(context.Background(), nil, InventoryListInput{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Coins != 3 {
			t.Errorf("coins = %d, want 3", result.Coins)
		}
		if len(result.Items) != 2 {
			t.Fatalf("listed %d items, want 2", len(result.Items))
		}
		if result.Items[0].Item != "coin" || result.Items[1].Item != "postcard" {
			t.Errorf("order = %q, %q, want catalog order", result.Items[0].Item, result.Items[1].Item)
		}
		if result.Items[1].Quantity != 2 {
			t.Errorf("postcards = %d, want 2", result.Items[1].Quantity)
		}
	})
}

func TestShopResourceHandler(t *testing.T) {
	t.Run("lists the catalog", func(t *testing.T) {
		handler := ShopResourceHandler()
		result, err := handler(context.Background(), nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		var payload ShopPayload
		if err := json.Unmarshal([]byte(result.Contents[0].Text), &payload); err != nil {
			t.Fatalf("unmarshal payload: %v", err)
		}
		if len(payload.Items) == 0 {
			t.Fatal("expected catalog entries")
		}
		var fertilizer *ShopItemEntry
		for i := range payload.Items {
			if payload.Items[i].Item == "fertilizer" {
				fertilizer = &payload.Items[i]
			}
		}
		if fertilizer == nil {
			t.Fatal("fertilizer missing from the catalog")
		}
		if fertilizer.Price != 75 || !fertilizer.ForSale {
			t.Errorf("fertilizer = %+v", fertilizer)
		}
	})

	t.Run("rejects other URIs", func(t *testing.T) {
		handler := ShopResourceHandler()
		_, err := handler(context.Background(), &mcp.ReadResourceRequest{
			Params: &mcp.ReadResourceParams{URI: "shop://basement"},
		})
		if err == nil {
			t.Fatal("expected error for unknown URI")
		}
	})
}

func TestNeighborhoodResourceHandler(t *testing.T) {
	t.Run("readable without a session", func(t *testing.T) {
		env := newTestEnv(t)
		herbert := registerGardener(t, env, "herbert", "fp-herbert")
		env.gardenStore.seedPlant(floweringPlant(herbert.Account.ID, "red", env.base))

		handler := NeighborhoodResourceHandler(env.garden, env.identity)
		result, err := handler(context.Background(), nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		var payload NeighborhoodPayload
		if err := json.Unmarshal([]byte(result.Contents[0].Text), &payload); err != nil {
			t.Fatalf("unmarshal payload: %v", err)
		}
		if len(payload.Plants) != 1 || payload.Plants[0].Owner != "herbert" {
			t.Errorf("plants = %+v", payload.Plants)
		}
	})
}

func TestGardenerRegisterHandler(t *testing.T) {
	t.Run("claims the context certificate", func(t *testing.T) {
		env := newTestEnv(t)
		env.useCertificate("fp-new")

		handler := GardenerRegisterHandler(env.identity, env.getContext)
		_, result, err := handler(context.Background(), nil, GardenerRegisterInput{Username: "daisy"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Username != "daisy" || result.Fingerprint != "fp-new" {
			t.Errorf("result = %+v", result)
		}
		if result.CreatedAt != "2026-08-10T15:00:00Z" {
			t.Errorf("created at = %q", result.CreatedAt)
		}

		session, err := env.identity.Resolve(context.Background(), "fp-new")
		if err != nil {
			t.Fatalf("resolve after register: %v", err)
		}
		if session.Account.ID != result.AccountID {
			t.Errorf("account = %q, want %q", session.Account.ID, result.AccountID)
		}
	})

	t.Run("requires a context fingerprint", func(t *testing.T) {
		env := newTestEnv(t)
		handler := GardenerRegisterHandler(env.identity, env.getContext)
		_, _, err := handler(context.Background(), nil, GardenerRegisterInput{Username: "daisy"})
		if err == nil || !strings.Contains(err.Error(), "set_context") {
			t.Fatalf("error = %v, want a set_context hint", err)
		}
	})

	t.Run("linked certificate cannot register twice", func(t *testing.T) {
		env := newTestEnv(t)
		registerGardener(t, env, "daisy", "fp-1")
		env.useCertificate("fp-1")

		handler := GardenerRegisterHandler(env.identity, env.getContext)
		_, _, err := handler(context.Background(), nil, GardenerRegisterInput{Username: "rose"})
		if err == nil || err.Error() != "This certificate is already linked to an account" {
			t.Fatalf("error = %v, want the already linked message", err)
		}
	})

	t.Run("taken username", func(t *testing.T) {
		env := newTestEnv(t)
		registerGardener(t, env, "daisy", "fp-1")
		env.useCertificate("fp-2")

		handler := GardenerRegisterHandler(env.identity, env.getContext)
		_, _, err := handler(context.Background(), nil, GardenerRegisterInput{Username: "daisy"})
		if err == nil || err.Error() != "That username is already taken" {
			t.Fatalf("error = %v, want the taken username message", err)
		}
	})
}

func TestGardenerLinkHandler(t *testing.T) {
	t.Run("links a second certificate with the password", func(t *testing.T) {
		env := newTestEnv(t)
		registerGardener(t, env, "daisy", "fp-desktop")
		env.useCertificate("fp-desktop")

		setPassword := GardenerSetPasswordHandler(env.identity, env.getContext)
		if _, _, err := setPassword(context.Background(), nil, GardenerSetPasswordInput{Password: "compost heap"}); err != nil {
			t.Fatalf("set password: %v", err)
		}

		env.useCertificate("fp-laptop")
		handler := GardenerLinkHandler(env.identity, env.getContext)
		_, result, err := handler(context.Background(), nil, GardenerLinkInput{
			Username: "daisy",
			Password: "compost heap",
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Username != "daisy" || result.Fingerprint != "fp-laptop" {
			t.Errorf("result = %+v", result)
		}
		if _, err := env.identity.Resolve(context.Background(), "fp-laptop"); err != nil {
			t.Fatalf("resolve linked certificate: %v", err)
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		env := newTestEnv(t)
		registerGardener(t, env, "daisy", "fp-desktop")
		env.useCertificate("fp-desktop")

		setPassword := GardenerSetPasswordHandler(env.identity, env.getContext)
		if _, _, err := setPassword(context.Background(), nil, GardenerSetPasswordInput{Password: "compost heap"}); err != nil {
			t.Fatalf("set password: %v", err)
		}

		env.useCertificate("fp-laptop")
		handler := GardenerLinkHandler(env.identity, env.getContext)
		_, _, err := handler(context.Background(), nil, GardenerLinkInput{Username: "daisy", Password: "wrong"})
		if err == nil || err.Error() != "Password is incorrect" {
			t.Fatalf("error = %v, want the incorrect password message", err)
		}
	})

	t.Run("no password set", func(t *testing.T) {
		env := newTestEnv(t)
		registerGardener(t, env, "daisy", "fp-desktop")
		env.useCertificate("fp-laptop")

		handler := GardenerLinkHandler(env.identity, env.getContext)
		_, _, err := handler(context.Background(), nil, GardenerLinkInput{Username: "daisy", Password: "anything"})
		if err == nil || err.Error() != "Set a password before linking a new certificate" {
			t.Fatalf("error = %v, want the unset password message", err)
		}
	})
}

func TestGardenerLinkGrantHandlers(t *testing.T) {
	t.Run("issue and redeem", func(t *testing.T) {
		env := newTestEnv(t)
		owner := registerGardener(t, env, "daisy", "fp-desktop")
		env.useCertificate("fp-desktop")

		issue := GardenerLinkGrantIssueHandler(env.identity, env.getContext)
		_, issued, err := issue(context.Background(), nil, GardenerLinkGrantIssueInput{})
		if err != nil {
			t.Fatalf("issue grant: %v", err)
		}
		if issued.Grant == "" {
			t.Fatal("expected a signed grant")
		}

		env.useCertificate("fp-tablet")
		redeem := GardenerLinkGrantRedeemHandler(env.identity, env.getContext)
		_, linked, err := redeem(context.Background(), nil, GardenerLinkGrantRedeemInput{Grant: issued.Grant})
		if err != nil {
			t.Fatalf("redeem grant: %v", err)
		}
		if linked.AccountID != owner.Account.ID || linked.Fingerprint != "fp-tablet" {
			t.Errorf("result = %+v", linked)
		}
	})

	t.Run("expired grant", func(t *testing.T) {
		env := newTestEnv(t)
		registerGardener(t, env, "daisy", "fp-desktop")
		env.useCertificate("fp-desktop")

		issue := GardenerLinkGrantIssueHandler(env.identity, env.getContext)
		_, issued, err := issue(context.Background(), nil, GardenerLinkGrantIssueInput{})
		if err != nil {
			t.Fatalf("issue grant: %v", err)
		}

		env.advance(time.Hour)
		env.useCertificate("fp-tablet")
		redeem := GardenerLinkGrantRedeemHandler(env.identity, env.getContext)
		_, _, err = redeem(context.Background(), nil, GardenerLinkGrantRedeemInput{Grant: issued.Grant})
		if err == nil || err.Error() != "Link token has expired" {
			t.Fatalf("error = %v, want the expired grant message", err)
		}
	})
}

func TestGardenerSetPasswordHandler(t *testing.T) {
	t.Run("too short", func(t *testing.T) {
		env := newTestEnv(t)
		registerGardener(t, env, "daisy", "fp-1")
		env.useCertificate("fp-1")

		handler := GardenerSetPasswordHandler(env.identity, env.getContext)
		_, _, err := handler(context.Background(), nil, GardenerSetPasswordInput{Password: "short"})
		if err == nil || err.Error() != "Password must be at least 8 characters" {
			t.Fatalf("error = %v, want the short password message", err)
		}
	})

	t.Run("reports the account", func(t *testing.T) {
		env := newTestEnv(t)
		registerGardener(t, env, "daisy", "fp-1")
		env.useCertificate("fp-1")

		handler := GardenerSetPasswordHandler(env.identity, env.getContext)
		_, result, err := handler(context.Background(), nil, GardenerSetPasswordInput{Password: "compost heap"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Username != "daisy" || !result.PasswordSet {
			t.Errorf("result = %+v", result)
		}
	})
}

func TestGardenerSetANSIHandler(t *testing.T) {
	t.Run("stores the preference per certificate", func(t *testing.T) {
		env := newTestEnv(t)
		registerGardener(t, env, "daisy", "fp-1")
		env.useCertificate("fp-1")

		handler := GardenerSetANSIHandler(env.identity, env.getContext)
		_, result, err := handler(context.Background(), nil, GardenerSetANSIInput{Enabled: true})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Fingerprint != "fp-1" || !result.AnsiEnabled {
			t.Errorf("result = %+v", result)
		}

		whoami := GardenerWhoamiHandler(env.identity, env.getContext)
		_, who, err := whoami(context.Background(), nil, GardenerWhoamiInput{})
		if err != nil {
			t.Fatalf("whoami: %v", err)
		}
		if !who.AnsiEnabled {
			t.Error("preference did not persist")
		}
	})
}

func TestGardenerCertificatesHandler(t *testing.T) {
	t.Run("marks the active certificate", func(t *testing.T) {
		env := newTestEnv(t)
		registerGardener(t, env, "daisy", "fp-desktop")
		env.useCertificate("fp-desktop")

		setPassword := GardenerSetPasswordHandler(env.identity, env.getContext)
		if _, _, err := setPassword(context.Background(), nil, GardenerSetPasswordInput{Password: "compost heap"}); err != nil {
			t.Fatalf("set password: %v", err)
		}
		env.useCertificate("fp-laptop")
		link := GardenerLinkHandler(env.identity, env.getContext)
		if _, _, err := link(context.Background(), nil, GardenerLinkInput{Username: "daisy", Password: "compost heap"}); err != nil {
			t.Fatalf("link: %v", err)
		}

		env.useCertificate("fp-desktop")
		handler := GardenerCertificatesHandler(env.identity, env.getContext)
		_, result, err := handler(context.Background(), nil, GardenerCertificatesInput{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(result.Certificates) != 2 {
			t.Fatalf("listed %d certificates, want 2", len(result.Certificates))
		}
		for _, certificate := range result.Certificates {
			want := certificate.Fingerprint == "fp-desktop"
			if certificate.Active != want {
				t.Errorf("certificate %s active = %v, want %v", certificate.Fingerprint, certificate.Active, want)
			}
		}
	})
}

func TestGardenerCertificateDeleteHandler(t *testing.T) {
	t.Run("unlinks another certificate", func(t *testing.T) {
		env := newTestEnv(t)
		registerGardener(t, env, "daisy", "fp-desktop")
		env.useCertificate("fp-desktop")

		setPassword := GardenerSetPasswordHandler(env.identity, env.getContext)
		if _, _, err := setPassword(context.Background(), nil, GardenerSetPasswordInput{Password: "compost heap"}); err != nil {
			t.Fatalf("set password: %v", err)
		}
		env.useCertificate("fp-laptop")
		link := GardenerLinkHandler(env.identity, env.getContext)
		if _, _, err := link(context.Background(), nil, GardenerLinkInput{Username: "daisy", Password: "compost heap"}); err != nil {
			t.Fatalf("link: %v", err)
		}

		env.useCertificate("fp-desktop")
		handler := GardenerCertificateDeleteHandler(env.identity, env.getContext)
		_, result, err := handler(context.Background(), nil, GardenerCertificateDeleteInput{Fingerprint: "fp-laptop"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !result.Deleted {
			t.Error("expected a deletion")
		}
		if _, err := env.identity.Resolve(context.Background(), "fp-laptop"); err == nil {
			t.Error("deleted certificate still resolves")
		}
	})

	t.Run("refuses the active certificate", func(t *testing.T) {
		env := newTestEnv(t)
		registerGardener(t, env, "daisy", "fp-desktop")
		env.useCertificate("fp-desktop")

		handler := GardenerCertificateDeleteHandler(env.identity, env.getContext)
		_, _, err := handler(context.Background(), nil, GardenerCertificateDeleteInput{Fingerprint: "fp-desktop"})
		if err == nil || err.Error() != "The active certificate cannot be removed" {
			t.Fatalf("error = %v, want the active certificate message", err)
		}
	})
}

func TestGardenerWhoamiHandler(t *testing.T) {
	t.Run("reports the session", func(t *testing.T) {
		env := newTestEnv(t)
		session := registerGardener(t, env, "daisy", "fp-1")
		env.useCertificate("fp-1")

		handler := GardenerWhoamiHandler(env.identity, env.getContext)
		_, result, err := handler(context.Background(), nil, GardenerWhoamiInput{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.AccountID != session.Account.ID || result.Username != "daisy" {
			t.Errorf("result = %+v", result)
		}
		if result.Fingerprint != "fp-1" {
			t.Errorf("fingerprint = %q, want fp-1", result.Fingerprint)
		}
		if result.PasswordSet {
			t.Error("fresh account must not report a password")
		}
		if result.MemberSince != "2026-08-10T15:00:00Z" {
			t.Errorf("member since = %q", result.MemberSince)
		}
	})
}

func TestMailSendHandler(t *testing.T) {
	t.Run("consumes a postcard", func(t *testing.T) {
		env := newTestEnv(t)
		sender := registerGardener(t, env, "daisy", "fp-daisy")
		recipient := registerGardener(t, env, "herbert", "fp-herbert")
		env.gardenStore.seedItems(sender.Account.ID, map[garden.ItemID]int{garden.ItemPostcard: 1})
		env.useCertificate("fp-daisy")

		handler := MailSendHandler(env.mailbox, env.garden, env.identity, env.getContext)
		_, result, err := handler(context.Background(), nil, MailSendInput{
			To:      "herbert",
			Subject: "Your plant looked thirsty",
			Body:    "So I watered it.",
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.MessageID == "" || result.To != "herbert" {
			t.Errorf("result = %+v", result)
		}
		if result.SentAt != "2026-08-10T15:00:00Z" {
			t.Errorf("sent at = %q", result.SentAt)
		}
		if got := env.gardenStore.itemCount(sender.Account.ID, garden.ItemPostcard); got != 0 {
			t.Errorf("postcards left = %d, want 0", got)
		}

		unread, err := env.mailbox.UnreadCount(context.Background(), recipient.Account.ID)
		if err != nil {
			t.Fatalf("unread count: %v", err)
		}
		if unread != 1 {
			t.Errorf("unread = %d, want 1", unread)
		}
	})

	t.Run("unknown recipient spends nothing", func(t *testing.T) {
		env := newTestEnv(t)
		sender := registerGardener(t, env, "daisy", "fp-daisy")
		env.gardenStore.seedItems(sender.Account.ID, map[garden.ItemID]int{garden.ItemPostcard: 1})
		env.useCertificate("fp-daisy")

		handler := MailSendHandler(env.mailbox, env.garden, env.identity, env.getContext)
		_, _, err := handler(context.Background(), nil, MailSendInput{To: "nobody", Subject: "hi"})
		if err == nil || err.Error() != "No gardener by that name" {
			t.Fatalf("error = %v, want the unknown gardener message", err)
		}
		if got := env.gardenStore.itemCount(sender.Account.ID, garden.ItemPostcard); got != 1 {
			t.Errorf("postcards left = %d, want 1", got)
		}
	})

	t.Run("needs a postcard", func(t *testing.T) {
		env := newTestEnv(t)
		registerGardener(t, env, "daisy", "fp-daisy")
		registerGardener(t, env, "herbert", "fp-herbert")
		env.useCertificate("fp-daisy")

		handler := MailSendHandler(env.mailbox, env.garden, env.identity, env.getContext)
		_, _, err := handler(context.Background(), nil, MailSendInput{To: "herbert", Subject: "hi"})
		if err == nil || err.Error() != "You do not have a postcard" {
			t.Fatalf("error = %v, want the missing postcard message", err)
		}
	})

	t.Run("refunds the postcard when delivery fails", func(t *testing.T) {
		env := newTestEnv(t)
		sender := registerGardener(t, env, "daisy", "fp-daisy")
		registerGardener(t, env, "herbert", "fp-herbert")
		env.gardenStore.seedItems(sender.Account.ID, map[garden.ItemID]int{garden.ItemPostcard: 1})
		env.useCertificate("fp-daisy")

		handler := MailSendHandler(env.mailbox, env.garden, env.identity, env.getContext)
		_, _, err := handler(context.Background(), nil, MailSendInput{To: "herbert", Subject: "   "})
		if err == nil || err.Error() != "Message subject cannot be empty" {
			t.Fatalf("error = %v, want the empty subject message", err)
		}
		if got := env.gardenStore.itemCount(sender.Account.ID, garden.ItemPostcard); got != 1 {
			t.Errorf("postcards left = %d, want the refund", got)
		}
	})
}

func TestMailListHandler(t *testing.T) {
	t.Run("lists newest first with unread count", func(t *testing.T) {
		env := newTestEnv(t)
		sender := registerGardener(t, env, "daisy", "fp-daisy")
		recipient := registerGardener(t, env, "herbert", "fp-herbert")
		env.gardenStore.seedItems(sender.Account.ID, map[garden.ItemID]int{garden.ItemPostcard: 2})
		env.useCertificate("fp-daisy")

		send := MailSendHandler(env.mailbox, env.garden, env.identity, env.getContext)
		if _, _, err := send(context.Background(), nil, MailSendInput{To: "herbert", Subject: "first"}); err != nil {
			t.Fatalf("send first: %v", err)
		}
		env.advance(time.Hour)
		if _, _, err := send(context.Background(), nil, MailSendInput{To: "herbert", Subject: "second"}); err != nil {
			t.Fatalf("send second: %v", err)
		}

		env.useCertificate("fp-herbert")
		handler := MailListHandler(env.mailbox, env.identity, env.getContext)
		_, result, err := handler(context.Background(), nil, MailListInput{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Unread != 2 {
			t.Errorf("unread = %d, want 2", result.Unread)
		}
		if len(result.Messages) != 2 {
			t.Fatalf("listed %d messages, want 2", len(result.Messages))
		}
		if result.Messages[0].Subject != "second" || result.Messages[1].Subject != "first" {
			t.Errorf("order = %q, %q, want newest first", result.Messages[0].Subject, result.Messages[1].Subject)
		}
		if result.Messages[0].From != "daisy" {
			t.Errorf("from = %q, want daisy", result.Messages[0].From)
		}
		_ = recipient
	})

	t.Run("accepts a seen filter", func(t *testing.T) {
		env := newTestEnv(t)
		registerGardener(t, env, "herbert", "fp-herbert")
		env.useCertificate("fp-herbert")

		handler := MailListHandler(env.mailbox, env.identity, env.getContext)
		if _, _, err := handler(context.Background(), nil, MailListInput{Filter: "seen = false"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("rejects a bad filter", func(t *testing.T) {
		env := newTestEnv(t)
		registerGardener(t, env, "herbert", "fp-herbert")
		env.useCertificate("fp-herbert")

		handler := MailListHandler(env.mailbox, env.identity, env.getContext)
		_, _, err := handler(context.Background(), nil, MailListInput{Filter: `subject = "x"`})
		if err == nil || !strings.Contains(err.Error(), "Mailbox filter is invalid") {
			t.Fatalf("error = %v, want the invalid filter message", err)
		}
	})
}

func TestMailReadHandler(t *testing.T) {
	t.Run("returns the body and marks seen", func(t *testing.T) {
		env := newTestEnv(t)
		sender := registerGardener(t, env, "daisy", "fp-daisy")
		registerGardener(t, env, "herbert", "fp-herbert")
		env.gardenStore.seedItems(sender.Account.ID, map[garden.ItemID]int{garden.ItemPostcard: 1})
		env.useCertificate("fp-daisy")

		send := MailSendHandler(env.mailbox, env.garden, env.identity, env.getContext)
		_, sent, err := send(context.Background(), nil, MailSendInput{
			To:      "herbert",
			Subject: "Your plant looked thirsty",
			Body:    "So I watered it.",
		})
		if err != nil {
			t.Fatalf("send: %v", err)
		}

		env.useCertificate("fp-herbert")
		handler := MailReadHandler(env.mailbox, env.identity, env.getContext)
		_, result, err := handler(context.Background(), nil, MailReadInput{MessageID: sent.MessageID})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Body != "So I watered it." || result.From != "daisy" {
			t.Errorf("result = %+v", result)
		}

		list := MailListHandler(env.mailbox, env.identity, env.getContext)
		_, listed, err := list(context.Background(), nil, MailListInput{})
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if listed.Unread != 0 {
			t.Errorf("unread = %d, want 0", listed.Unread)
		}
		if len(listed.Messages) != 1 || !listed.Messages[0].Seen {
			t.Errorf("messages = %+v, want a seen message", listed.Messages)
		}
	})

	t.Run("cannot read another mailbox", func(t *testing.T) {
		env := newTestEnv(t)
		sender := registerGardener(t, env, "daisy", "fp-daisy")
		registerGardener(t, env, "herbert", "fp-herbert")
		registerGardener(t, env, "ivy", "fp-ivy")
		env.gardenStore.seedItems(sender.Account.ID, map[garden.ItemID]int{garden.ItemPostcard: 1})
		env.useCertificate("fp-daisy")

		send := MailSendHandler(env.mailbox, env.garden, env.identity, env.getContext)
		_, sent, err := send(context.Background(), nil, MailSendInput{To: "herbert", Subject: "hi"})
		if err != nil {
			t.Fatalf("send: %v", err)
		}

		env.useCertificate("fp-ivy")
		handler := MailReadHandler(env.mailbox, env.identity, env.getContext)
		_, _, err = handler(context.Background(), nil, MailReadInput{MessageID: sent.MessageID})
		if err == nil || err.Error() != "The requested resource was not found" {
			t.Fatalf("error = %v, want the not found message", err)
		}
	})
}

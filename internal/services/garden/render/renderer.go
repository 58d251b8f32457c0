// Package render turns garden engine results into localized, human-facing
// copy. It produces plain text lines; any markup or framing belongs to the
// consuming surface.
package render

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	garden "github.com/astralgarden/astral.garden/internal/services/garden/domain"
)

var supportedTags = []language.Tag{
	language.English,
	language.MustParse("pt-BR"),
}

var tagMatcher = language.NewMatcher(supportedTags)

// Supported returns the list of supported language tags.
func Supported() []language.Tag {
	tags := make([]language.Tag, len(supportedTags))
	copy(tags, supportedTags)
	return tags
}

// Default returns the default language tag.
func Default() language.Tag {
	return language.English
}

// PrinterFor matches a locale string against the supported languages and
// returns a printer for the best fit, falling back to English.
func PrinterFor(locale string) *message.Printer {
	locale = strings.TrimSpace(locale)
	if locale == "" {
		return message.NewPrinter(Default())
	}
	_, index := language.MatchStrings(tagMatcher, locale)
	return message.NewPrinter(supportedTags[index])
}

// Localizer is the minimal message-printer contract required by the renderer.
type Localizer interface {
	Sprintf(key message.Reference, args ...any) string
}

// Description returns the short phrase describing what the plant currently
// looks like, e.g. "a flowering red poppy".
func Description(loc Localizer, p garden.Plant) string {
	switch p.Stage {
	case garden.StageSeedling:
		return localize(loc, "garden.desc.seedling")
	case garden.StageYoung:
		return localize(loc, "garden.desc.young", p.Species)
	case garden.StageMature:
		return localize(loc, "garden.desc.mature", p.Species)
	case garden.StageFlowering:
		return localize(loc, "garden.desc.flowering", p.Color, p.Species)
	case garden.StageSeedBearing:
		return localize(loc, "garden.desc.seed_bearing", p.Color, p.Species)
	default:
		return localize(loc, "garden.desc.seed")
	}
}

// Observation returns the lines a gardener reads when looking at a plant.
// wateredByName is the resolved display name behind Plant.WateredBy; pass
// empty when unknown.
func Observation(loc Localizer, view garden.PlantView, wateredByName string) []string {
	plant := view.Plant
	desc := Description(loc, plant)

	var lines []string
	if name := strings.TrimSpace(plant.Name); name != "" {
		lines = append(lines, localize(loc, "garden.observe.named_plant", name, desc))
	} else {
		lines = append(lines, localize(loc, "garden.observe.plant", desc))
	}
	if plant.Generation > 1 {
		lines = append(lines, localize(loc, "garden.observe.generation", plant.Generation))
	}

	if plant.Dead {
		lines = append(lines, localize(loc, "garden.observe.dead"))
		return lines
	}

	if plant.Wilted {
		lines = append(lines, localize(loc, "garden.observe.wilted"))
	}
	lines = append(lines, soilLine(loc, view.WaterLevel))

	if plant.WateredBy != "" {
		name := strings.TrimSpace(wateredByName)
		if name == "" {
			name = localize(loc, "garden.observe.someone")
		}
		lines = append(lines, localize(loc, "garden.observe.watered_by", name))
	}
	if view.FertilizerActive {
		lines = append(lines, localize(loc, "garden.observe.fertilized"))
	}
	if view.CanSearch {
		lines = append(lines, localize(loc, "garden.observe.petals"))
	}
	if view.CanHarvest {
		lines = append(lines, localize(loc, "garden.observe.harvest_ready"))
	}
	return lines
}

// WaterAlert describes a successful watering.
func WaterAlert(loc Localizer, result garden.WaterResult) string {
	if result.WateredForOwner {
		return localize(loc, "garden.alert.watered_for_owner")
	}
	return localize(loc, "garden.alert.watered")
}

// ShakeAlert describes the coins dislodged by a shake.
func ShakeAlert(loc Localizer, result garden.ShakeResult) string {
	if result.Coins == 1 {
		return localize(loc, "garden.alert.shake_one")
	}
	return localize(loc, "garden.alert.shake_many", result.Coins)
}

// SearchAlert describes a petal search, found or not.
func SearchAlert(loc Localizer, result garden.SearchResult) string {
	if !result.Found {
		return localize(loc, "garden.alert.search_miss")
	}
	name := string(result.Petal)
	if item, ok := garden.ItemByID(result.Petal); ok {
		name = item.Name
	}
	return localize(loc, "garden.alert.search_found", name)
}

// FertilizeAlert describes a successful fertilizer application.
func FertilizeAlert(loc Localizer) string {
	return localize(loc, "garden.alert.fertilize")
}

// HarvestAlert says goodbye to the ended plant and reports the reward.
func HarvestAlert(loc Localizer, result garden.HarvestResult) string {
	name := result.Ended.DisplayName()
	if result.Ended.Dead {
		return localize(loc, "garden.alert.harvest_salvage", name, result.Reward)
	}
	return localize(loc, "garden.alert.harvest", name, result.Reward)
}

// RenameAlert confirms the plant's new nickname.
func RenameAlert(loc Localizer, name string) string {
	return localize(loc, "garden.alert.rename", name)
}

func soilLine(loc Localizer, level float64) string {
	switch {
	case level <= 0:
		return localize(loc, "garden.observe.soil_dry")
	case level < 1.0/3:
		return localize(loc, "garden.observe.soil_drying")
	case level < 2.0/3:
		return localize(loc, "garden.observe.soil_damp")
	default:
		return localize(loc, "garden.observe.soil_wet")
	}
}

func localize(loc Localizer, key message.Reference, args ...any) string {
	if loc == nil {
		if asString, ok := key.(string); ok {
			return asString
		}
		return ""
	}
	return loc.Sprintf(key, args...)
}

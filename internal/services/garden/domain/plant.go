// Package domain implements the plant lifecycle engine for the garden
// service. Plants age lazily: every access refreshes the plant against the
// wall clock before the requested action is applied.
package domain

import (
	"strings"
	"time"
)

// Stage identifies one ordinal growth phase of a plant. Stages only move
// forward; harvest replants at StageSeed.
type Stage int

const (
	StageSeed Stage = iota
	StageSeedling
	StageYoung
	StageMature
	StageFlowering
	StageSeedBearing
)

// String returns the display name for the stage.
func (s Stage) String() string {
	switch s {
	case StageSeed:
		return "seed"
	case StageSeedling:
		return "seedling"
	case StageYoung:
		return "young plant"
	case StageMature:
		return "mature plant"
	case StageFlowering:
		return "flowering"
	case StageSeedBearing:
		return "seed-bearing"
	default:
		return "unknown"
	}
}

// SpeciesList holds the species a new plant may sprout as, chosen uniformly.
var SpeciesList = []string{
	"poppy",
	"cactus",
	"aloe",
	"venus flytrap",
	"jade plant",
	"fern",
	"daffodil",
	"sunflower",
	"baobab",
	"lithops",
	"hemp",
	"pansy",
	"iris",
	"agave",
	"ficus",
	"moss",
	"sage",
	"snap pea",
}

// ColorsPlain are the ordinary plant colors. Flowering plants shed petals
// matching their color.
var ColorsPlain = []string{
	"red",
	"orange",
	"yellow",
	"green",
	"blue",
	"indigo",
	"violet",
}

// ColorsRare appear with Tuning.RareColorChance. A rainbow plant sheds
// petals of random plain colors.
var ColorsRare = []string{
	"white",
	"black",
	"gold",
	"rainbow",
}

// ColorRainbow is the special color whose petals are drawn from ColorsPlain.
const ColorRainbow = "rainbow"

// MaxPlantNameLength caps the nickname a gardener may give their plant.
const MaxPlantNameLength = 40

// Plant captures one growing plant and the bookkeeping needed to age it
// between visits.
type Plant struct {
	ID         string
	OwnerID    string
	Name       string
	Species    string
	Color      string
	Generation int
	Stage      Stage

	// Score is the accumulated growth time in seconds. Growth accrues only
	// while the soil is wet.
	Score int

	Wilted bool
	Dead   bool

	WateredAt time.Time
	// WateredBy holds the account that last watered the plant when it was
	// not the owner. Empty means the owner watered it themselves.
	WateredBy string

	ShakenAt        time.Time
	FertilizedUntil time.Time

	// RefreshedAt marks the last time lazy aging was evaluated.
	RefreshedAt time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// DisplayName returns the plant nickname, falling back to the species.
func (p Plant) DisplayName() string {
	if strings.TrimSpace(p.Name) != "" {
		return p.Name
	}
	return p.Species
}

// GrowthRate returns the generational growth multiplier. Each harvest
// generation grows 20% faster than the last.
func (p Plant) GrowthRate() float64 {
	if p.Generation < 1 {
		return 1
	}
	return 1 + 0.2*float64(p.Generation-1)
}

// WaterLevel reports the remaining water gauge in [0, 1]. The gauge drains
// linearly over the watering window.
func (p Plant) WaterLevel(now time.Time, tuning Tuning) float64 {
	if p.WateredAt.IsZero() {
		return 0
	}
	elapsed := now.Sub(p.WateredAt)
	if elapsed < 0 {
		return 1
	}
	if elapsed >= tuning.WaterWindow {
		return 0
	}
	return 1 - float64(elapsed)/float64(tuning.WaterWindow)
}

// CanFertilize reports whether fertilizer would take right now: the soil
// must be wet, the plant alive and still growing, and no earlier dose
// still active.
func (p Plant) CanFertilize(now time.Time, tuning Tuning) bool {
	if p.Dead || p.Stage >= StageSeedBearing {
		return false
	}
	if p.WaterLevel(now, tuning) <= 0 {
		return false
	}
	return !now.Before(p.FertilizedUntil)
}

// CanHarvest reports whether the plant has reached the end of its cycle.
func (p Plant) CanHarvest() bool {
	return p.Dead || p.Stage == StageSeedBearing
}

func (p Plant) clone() Plant {
	return p
}

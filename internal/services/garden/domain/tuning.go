package domain

import "time"

// Tuning holds the adjustable lifecycle parameters. The exact reward
// formulas and thresholds are policy, not invariants, so they live here
// with documented defaults instead of being scattered as constants.
type Tuning struct {
	// WaterWindow is how long the soil stays wet after a watering. Growth
	// and fertilizing are only possible while the soil is wet.
	WaterWindow time.Duration

	// WaterCooldown is the minimum gap between waterings of one plant,
	// regardless of who waters it.
	WaterCooldown time.Duration

	// WiltAfter is the dry spell after which a plant wilts.
	WiltAfter time.Duration

	// DeadAfter is the dry spell after which a plant dies. Must exceed
	// WiltAfter; the gap is the recovery window.
	DeadAfter time.Duration

	// ShakeCooldown bounds how often one plant can be shaken for coins.
	ShakeCooldown time.Duration

	// ShakeCoinMax caps the coins found in a single shake (uniform 1..max).
	ShakeCoinMax int

	// PetalChance is the probability a flowering plant sheds a petal when
	// searched.
	PetalChance float64

	// RareColorChance is the probability a new plant sprouts in one of the
	// rare colors.
	RareColorChance float64

	// FertilizerBoost multiplies the growth rate while fertilizer is active.
	FertilizerBoost float64

	// FertilizerWindow is how long one dose of fertilizer lasts.
	FertilizerWindow time.Duration

	// HarvestDivisor converts the final score into the coin reward for a
	// seed-bearing harvest (score / divisor).
	HarvestDivisor int

	// SalvageDivisor further divides the reward when harvesting a dead
	// plant (score / HarvestDivisor / SalvageDivisor).
	SalvageDivisor int

	// StageThresholds holds the cumulative growth seconds required to reach
	// each stage. Index 0 (seed) must be zero.
	StageThresholds [6]int
}

// DefaultTuning returns the stock garden pacing: a plant watered daily
// matures in about a month, wilts after three dry days, and dies five days
// after that.
func DefaultTuning() Tuning {
	day := int((24 * time.Hour).Seconds())
	return Tuning{
		WaterWindow:      24 * time.Hour,
		WaterCooldown:    24 * time.Hour,
		WiltAfter:        3 * 24 * time.Hour,
		DeadAfter:        8 * 24 * time.Hour,
		ShakeCooldown:    time.Hour,
		ShakeCoinMax:     5,
		PetalChance:      0.5,
		RareColorChance:  0.125,
		FertilizerBoost:  1.5,
		FertilizerWindow: 3 * 24 * time.Hour,
		HarvestDivisor:   5,
		SalvageDivisor:   4,
		StageThresholds: [6]int{
			0,        // seed
			day,      // seedling
			3 * day,  // young plant
			10 * day, // mature plant
			20 * day, // flowering
			30 * day, // seed-bearing
		},
	}
}

// stageForScore maps accumulated growth onto the highest stage reached.
func (t Tuning) stageForScore(score int) Stage {
	stage := StageSeed
	for i := 1; i < len(t.StageThresholds); i++ {
		if score >= t.StageThresholds[i] {
			stage = Stage(i)
		}
	}
	return stage
}

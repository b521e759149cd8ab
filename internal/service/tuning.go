package service

// Tuning holds the combat and AI balance constants. The values have no
// documented design rationale beyond playtesting, so they live here as
// adjustable knobs rather than literals inside the resolver.
type Tuning struct {
	// Fraction of a shield-bypass weapon's damage that hits hull directly.
	ShieldBypassFraction float64
	// Shield effectiveness degrades linearly to zero once shield_hp falls
	// inside this fraction of the template maximum.
	LowShieldBand float64
	// Shields below this fraction of maximum snap to exactly zero.
	ShieldSnapEpsilon float64
	// Fraction of incoming hull damage ablative armor absorbs.
	ArmorAbsorbRate float64
	// Flat amount subtracted from armor wear per absorption.
	ArmorWearReduction float64

	// AI weighting.
	AILowShieldThreshold float64
	AIPowerScale         float64
	AIPowerCap           float64
	AIConservePenalty    float64
	AIFinisherBonus      float64
	AIMinWeight          float64
	// Weapons with a template max_usage at or below this count as
	// "limited" for conservation weighting.
	AILimitedUseMax int
}

func DefaultTuning() Tuning {
	return Tuning{
		ShieldBypassFraction: 0.25,
		LowShieldBand:        0.10,
		ShieldSnapEpsilon:    0.01,
		ArmorAbsorbRate:      0.80,
		ArmorWearReduction:   10,

		AILowShieldThreshold: 10,
		AIPowerScale:         50,
		AIPowerCap:           5,
		AIConservePenalty:    0.25,
		AIFinisherBonus:      1.125,
		AIMinWeight:          0.01,
		AILimitedUseMax:      3,
	}
}

package service

import (
	"errors"
	"math/rand"
	"sync"

	"github.com/Zytronium/star-trek-battle-sim/internal/model"
)

// ErrNoEligibleWeapon means every CPU weapon is depleted or on cooldown.
// The caller resolves this as a skipped turn.
var ErrNoEligibleWeapon = errors.New("no eligible weapon to fire")

// AIDecisionEngine picks a weapon for a CPU-controlled ship by weighted
// roulette. Inputs are deterministic; only the final pick is random.
type AIDecisionEngine struct {
	tuning Tuning

	mu  sync.Mutex
	rng *rand.Rand
}

func NewAIDecisionEngine(tuning Tuning, rng *rand.Rand) *AIDecisionEngine {
	return &AIDecisionEngine{tuning: tuning, rng: rng}
}

type weightedWeapon struct {
	weaponID int
	weight   float64
}

// ChooseIntent selects which weapon the CPU pilot fires at its opponent.
func (e *AIDecisionEngine) ChooseIntent(game *model.GameSession, cpuPilot string) (*model.Intent, error) {
	cpu := game.ShipByPilot(cpuPilot)
	if cpu == nil {
		return nil, ErrInvalidParticipant
	}
	target := game.OpponentOf(cpuPilot)
	if target == nil {
		return nil, ErrInvalidParticipant
	}

	candidates := e.weigh(cpu, target)
	if len(candidates) == 0 {
		return nil, ErrNoEligibleWeapon
	}

	total := 0.0
	for _, c := range candidates {
		total += c.weight
	}

	e.mu.Lock()
	draw := e.rng.Float64() * total
	e.mu.Unlock()

	pick := candidates[len(candidates)-1]
	cumulative := 0.0
	for _, c := range candidates {
		cumulative += c.weight
		if draw < cumulative {
			pick = c
			break
		}
	}

	return &model.Intent{
		Attacker: cpu.Pilot,
		Target:   target.Pilot,
		WeaponID: pick.weaponID,
	}, nil
}

// weigh scores each fireable weapon. Shield-cracking weapons are favored
// while the target's shields are up; hull-heavy weapons take over as
// finishers once they drop. Very limited-use hull weapons are conserved
// until shields are down.
func (e *AIDecisionEngine) weigh(cpu, target *model.RuntimeShip) []weightedWeapon {
	t := e.tuning
	shieldsUp := target.ShieldHP >= t.AILowShieldThreshold

	var candidates []weightedWeapon
	for i := range cpu.Weapons {
		w := &cpu.Weapons[i]
		if w.CooldownLeft != 0 || w.UsageLeft == 0 {
			continue
		}
		effective := w.Damage * w.DamageMultiplier
		if effective <= 0 {
			continue
		}

		weight := 1.0
		if shieldsUp {
			weight *= w.ShieldsMultiplier
		} else {
			weight *= w.HullMultiplier
		}

		power := effective / t.AIPowerScale
		if power > t.AIPowerCap {
			power = t.AIPowerCap
		}
		weight *= power

		limited := w.MaxUsage != model.UnlimitedUsage && w.MaxUsage <= t.AILimitedUseMax
		if limited && w.HullMultiplier > w.ShieldsMultiplier {
			if shieldsUp {
				weight *= t.AIConservePenalty
			} else {
				weight *= t.AIFinisherBonus
			}
		}

		if weight < t.AIMinWeight {
			weight = t.AIMinWeight
		}
		candidates = append(candidates, weightedWeapon{weaponID: w.WeaponID, weight: weight})
	}
	return candidates
}

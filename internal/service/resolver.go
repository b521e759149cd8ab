package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Zytronium/star-trek-battle-sim/internal/model"
)

var (
	ErrInvalidParticipant = errors.New("attacker or target is not part of this game")
	ErrSelfTarget         = errors.New("a ship cannot target itself")
	ErrWeaponNotEquipped  = errors.New("weapon not equipped on ship")
	ErrWeaponDepleted     = errors.New("weapon has no uses left")
	ErrGameOver           = errors.New("game is already over")
)

// WeaponCooldownError reports how many turns remain before the weapon can
// fire again.
type WeaponCooldownError struct {
	Weapon    string
	Remaining int
}

func (e *WeaponCooldownError) Error() string {
	return fmt.Sprintf("%s is on cooldown for %d more turn(s)", e.Weapon, e.Remaining)
}

// CombatResolver turns an intent into a layered damage resolution against
// the target's shields, armor, and hull. Resolution is deterministic: all
// randomness lives in the AI's weapon choice, never here.
//
// A resolve either fully commits a turn or leaves the session untouched;
// every failure mode is checked before the first mutation.
type CombatResolver struct {
	tuning Tuning
}

func NewCombatResolver(tuning Tuning) *CombatResolver {
	return &CombatResolver{tuning: tuning}
}

func (r *CombatResolver) Resolve(game *model.GameSession, intent *model.Intent) (*model.DamageBreakdown, error) {
	if game.Winner != "" {
		return nil, ErrGameOver
	}

	attacker := game.ShipByPilot(intent.Attacker)
	target := game.ShipByPilot(intent.Target)
	if attacker == nil || target == nil {
		return nil, ErrInvalidParticipant
	}
	if attacker == target {
		return nil, ErrSelfTarget
	}

	weapon := attacker.WeaponByID(intent.WeaponID)
	if weapon == nil {
		return nil, ErrWeaponNotEquipped
	}
	if weapon.UsageLeft == 0 {
		return nil, ErrWeaponDepleted
	}
	if weapon.CooldownLeft > 0 {
		return nil, &WeaponCooldownError{Weapon: weapon.Name, Remaining: weapon.CooldownLeft}
	}

	// All preconditions hold; from here the turn commits.
	breakdown := r.applyDamage(weapon, target)
	r.spendWeapons(attacker, weapon)

	game.Turn++
	game.PlayerTurn = target.Pilot

	record := model.TurnRecord{
		Turn:   game.Turn,
		Actor:  attacker.Pilot,
		Intent: intent,
		Damage: breakdown,
		Message: fmt.Sprintf("%s fired %s at %s for %.0f damage",
			attacker.Pilot, weapon.Name, target.Pilot, breakdown.Total),
	}
	game.Logs = append(game.Logs, record)

	if target.Destroyed() {
		game.Winner = attacker.Pilot
		game.Logs = append(game.Logs, model.TurnRecord{
			Turn:    game.Turn,
			Actor:   attacker.Pilot,
			Message: fmt.Sprintf("%s destroyed %s. %s wins!", attacker.Pilot, target.Pilot, attacker.Pilot),
		})
	}

	return breakdown, nil
}

// SkipTurn advances the turn without dealing damage. Used when the AI has
// no eligible weapon so a stalled CPU can never wedge the session.
func (r *CombatResolver) SkipTurn(game *model.GameSession, pilot string) error {
	if game.Winner != "" {
		return ErrGameOver
	}
	ship := game.ShipByPilot(pilot)
	if ship == nil {
		return ErrInvalidParticipant
	}

	opponent := game.OpponentOf(pilot)
	game.Turn++
	game.PlayerTurn = opponent.Pilot
	game.Logs = append(game.Logs, model.TurnRecord{
		Turn:    game.Turn,
		Actor:   ship.Pilot,
		Message: fmt.Sprintf("%s has no usable weapons and skips the turn", ship.Pilot),
	})
	return nil
}

// applyDamage mutates the target and returns the layered breakdown.
func (r *CombatResolver) applyDamage(weapon *model.WeaponRuntime, target *model.RuntimeShip) *model.DamageBreakdown {
	base := weapon.Damage * weapon.DamageMultiplier

	bypass := 0.0
	if strings.EqualFold(weapon.SpecialEffect, model.SpecialEffectShieldBypass) {
		bypass = r.tuning.ShieldBypassFraction
	}

	// The bypass portion always hits hull directly; the rest is directed
	// at shields.
	hullDamage := base * bypass * weapon.HullMultiplier
	shieldPortion := base * (1 - bypass) * weapon.ShieldsMultiplier

	breakdown := &model.DamageBreakdown{}

	// Shields: each shield-type defense absorbs a slice of the remaining
	// shield portion into its hit point pool. Whatever exceeds the pool
	// leaks into hull damage, converted back through the hull multiplier.
	for i := range target.Defenses {
		d := &target.Defenses[i]
		if d.Type != model.DefenseShield {
			continue
		}
		if shieldPortion <= 0 {
			break
		}

		effectiveness := d.Effectiveness
		band := target.MaxShield * r.tuning.LowShieldBand
		if band > 0 && target.ShieldHP < band {
			// Failing shields: effectiveness scales down linearly to zero.
			effectiveness *= target.ShieldHP / band
		}

		absorb := shieldPortion * effectiveness
		shieldPortion -= absorb

		leak := 0.0
		if absorb > target.ShieldHP {
			leak = absorb - target.ShieldHP
			absorb = target.ShieldHP
		}
		target.ShieldHP -= absorb
		breakdown.ToShields += absorb

		if leak > 0 && weapon.ShieldsMultiplier > 0 {
			hullDamage += leak / weapon.ShieldsMultiplier * weapon.HullMultiplier
		}
	}

	// Avoid stuck fractional shields.
	if target.ShieldHP < target.MaxShield*r.tuning.ShieldSnapEpsilon {
		target.ShieldHP = 0
	}

	// Ablative armor: soaks most of the hull damage, wearing down its own
	// hit points. Wear past zero flows back into the hull.
	for i := range target.Defenses {
		d := &target.Defenses[i]
		if d.Type != model.DefenseArmor || d.HitPoints <= 0 {
			continue
		}
		if hullDamage <= 0 {
			break
		}

		soak := hullDamage * r.tuning.ArmorAbsorbRate
		hullDamage -= soak

		wear := soak - r.tuning.ArmorWearReduction
		if wear < 0 {
			wear = 0
		}
		if wear > d.HitPoints {
			hullDamage += wear - d.HitPoints
			breakdown.ToArmor += d.HitPoints
			d.HitPoints = 0
		} else {
			d.HitPoints -= wear
			breakdown.ToArmor += wear
		}
	}

	if hullDamage > 0 {
		dealt := hullDamage
		if dealt > target.HullHP {
			dealt = target.HullHP
		}
		target.HullHP -= dealt
		breakdown.ToHull = dealt
	}

	breakdown.Total = breakdown.ToShields + breakdown.ToArmor + breakdown.ToHull
	return breakdown
}

// spendWeapons decrements usage and starts the cooldown on the fired
// weapon, and ticks every other weapon's cooldown down by one.
func (r *CombatResolver) spendWeapons(attacker *model.RuntimeShip, fired *model.WeaponRuntime) {
	for i := range attacker.Weapons {
		w := &attacker.Weapons[i]
		if w == fired {
			if w.UsageLeft != model.UnlimitedUsage && w.UsageLeft > 0 {
				w.UsageLeft--
			}
			w.CooldownLeft = w.CooldownTurns
			continue
		}
		if w.CooldownLeft > 0 {
			w.CooldownLeft--
		}
	}
}

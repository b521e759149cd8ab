package service

import "github.com/Zytronium/star-trek-battle-sim/internal/model"

// BuildRuntimeShip layers mutable in-battle state over an immutable
// catalog template. The template is shared; everything else is owned by
// exactly one session.
func BuildRuntimeShip(tpl *model.ShipTemplate, pilot string, isBoss bool) *model.RuntimeShip {
	ship := &model.RuntimeShip{
		ShipID:    tpl.ShipID,
		Pilot:     pilot,
		Name:      tpl.Name,
		IsBoss:    isBoss,
		MaxShield: tpl.MaxShield,
		MaxHull:   tpl.MaxHull,
		ShieldHP:  tpl.MaxShield,
		HullHP:    tpl.MaxHull,
		Weapons:   make([]model.WeaponRuntime, 0, len(tpl.Weapons)),
		Defenses:  make([]model.DefenseRuntime, 0, len(tpl.Defenses)),
		Base:      tpl,
	}

	for _, w := range tpl.Weapons {
		usage := w.MaxUsage
		if usage <= 0 {
			usage = model.UnlimitedUsage
		}
		ship.Weapons = append(ship.Weapons, model.WeaponRuntime{
			WeaponID:          w.WeaponID,
			Name:              w.Name,
			Damage:            w.Damage,
			DamageMultiplier:  w.DamageMultiplier,
			ShieldsMultiplier: w.ShieldsMultiplier,
			HullMultiplier:    w.HullMultiplier,
			SpecialEffect:     w.SpecialEffect,
			CooldownTurns:     w.CooldownTurns,
			CooldownLeft:      0,
			MaxUsage:          usage,
			UsageLeft:         usage,
		})
	}

	for _, d := range tpl.Defenses {
		ship.Defenses = append(ship.Defenses, model.DefenseRuntime{
			DefenseID:     d.DefenseID,
			Name:          d.Name,
			Type:          d.Type,
			Effectiveness: d.Effectiveness,
			HitPoints:     d.HitPoints,
		})
	}

	return ship
}

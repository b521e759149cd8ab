package model

// Catalog rows mirror the relational tables loaded by the CSV ETL:
// ships, boss_ships, weapons, defenses, special_effects, plus the
// ship_weapons / ship_defenses join tables.

type Ship struct {
	ShipID    int     `json:"ship_id"`
	Name      string  `json:"name"`
	Class     string  `json:"class"`
	Owner     string  `json:"owner"`
	MaxShield float64 `json:"max_shield"`
	MaxHull   float64 `json:"max_hull"`
}

type Weapon struct {
	WeaponID          int     `json:"weapon_id"`
	Name              string  `json:"name"`
	Description       string  `json:"description,omitempty"`
	Damage            float64 `json:"damage"`
	ShieldsMultiplier float64 `json:"shields_multiplier"`
	HullMultiplier    float64 `json:"hull_multiplier"`
	SpecialEffect     string  `json:"special_effect,omitempty"`
}

type Defense struct {
	DefenseID     int     `json:"defense_id"`
	Name          string  `json:"name"`
	Type          string  `json:"type"`
	Description   string  `json:"description,omitempty"`
	Effectiveness float64 `json:"effectiveness"`
	HitPoints     float64 `json:"hit_points"`
}

// Defense types understood by the combat resolver. The catalog may carry
// more (e.g. Cloak); unknown types are inert during resolution.
const (
	DefenseShield = "Shield"
	DefenseArmor  = "Armor"
	DefenseCloak  = "Cloak"
)

// SpecialEffectShieldBypass marks weapons whose damage partially ignores
// shield mitigation.
const SpecialEffectShieldBypass = "shield_bypass"

// WeaponTemplate is a weapon merged with its per-ship loadout stats from
// the ship_weapons join table.
type WeaponTemplate struct {
	Weapon
	DamageMultiplier float64 `json:"damage_multiplier"`
	CooldownTurns    int     `json:"cooldown_turns"`
	MaxUsage         int     `json:"max_usage"`
}

// ShipTemplate is the full static loadout of one catalog ship. Templates
// are immutable and safely shared across sessions.
type ShipTemplate struct {
	Ship
	IsBoss   bool             `json:"is_boss"`
	Weapons  []WeaponTemplate `json:"weapons"`
	Defenses []Defense        `json:"defenses"`
}

package model

import (
	"strings"
	"time"
)

// UnlimitedUsage is the sentinel for weapons with no usage limit.
const UnlimitedUsage = 99999

type BattleType string

const (
	BattleAIvAI       BattleType = "AI V AI"
	BattlePlayerVAI   BattleType = "PLAYER V AI"
	BattlePlayerVP    BattleType = "PLAYER V PLAYER"
	BattleAIvBoss     BattleType = "AI V BOSS"
	BattlePlayerVBoss BattleType = "PLAYER V BOSS"
	BattlePlayersVB   BattleType = "PLAYERS V BOSS"
)

var ValidBattleTypes = []BattleType{
	BattleAIvAI, BattlePlayerVAI, BattlePlayerVP,
	BattleAIvBoss, BattlePlayerVBoss, BattlePlayersVB,
}

var ImplementedBattleTypes = []BattleType{
	BattlePlayerVAI, BattlePlayerVP,
}

func (t BattleType) Valid() bool {
	for _, v := range ValidBattleTypes {
		if v == t {
			return true
		}
	}
	return false
}

func (t BattleType) Implemented() bool {
	for _, v := range ImplementedBattleTypes {
		if v == t {
			return true
		}
	}
	return false
}

// IsBossBattle reports whether boss ships are allowed in this battle type.
func (t BattleType) IsBossBattle() bool {
	switch t {
	case BattleAIvBoss, BattlePlayerVBoss, BattlePlayersVB:
		return true
	}
	return false
}

// ValidPilots returns the pilot labels allowed for this battle type.
func (t BattleType) ValidPilots() []string {
	switch t {
	case BattleAIvAI:
		return []string{"COM1", "COM2"}
	case BattlePlayerVAI:
		return []string{"P1", "COM1"}
	case BattlePlayerVP:
		return []string{"P1", "P2"}
	}
	return nil
}

// ShipDescriptor selects a catalog ship and assigns it a pilot slot.
type ShipDescriptor struct {
	ShipID int    `json:"ship_id"`
	Pilot  string `json:"pilot"`
	IsBoss bool   `json:"is_boss"`
}

// Intent is a requested combat action submitted by a human or the AI.
type Intent struct {
	Attacker string `json:"attacker"`
	Target   string `json:"target"`
	WeaponID int    `json:"weapon_id"`
}

// IsPlayerPilot reports whether a pilot label denotes a human slot.
func IsPlayerPilot(pilot string) bool {
	p := strings.ToUpper(pilot)
	return strings.HasPrefix(p, "P") && p != ""
}

// WeaponRuntime is the mutable in-battle state of one equipped weapon.
type WeaponRuntime struct {
	WeaponID          int     `json:"weapon_id"`
	Name              string  `json:"name"`
	Damage            float64 `json:"damage"`
	DamageMultiplier  float64 `json:"damage_multiplier"`
	ShieldsMultiplier float64 `json:"shields_multiplier"`
	HullMultiplier    float64 `json:"hull_multiplier"`
	SpecialEffect     string  `json:"special_effect,omitempty"`
	CooldownTurns     int     `json:"cooldown_turns"`
	CooldownLeft      int     `json:"cooldown_left"`
	MaxUsage          int     `json:"max_usage"`
	UsageLeft         int     `json:"usage_left"`
}

// DefenseRuntime is the mutable in-battle state of one equipped defense.
// HitPoints only wears down for Armor-type defenses.
type DefenseRuntime struct {
	DefenseID     int     `json:"defense_id"`
	Name          string  `json:"name"`
	Type          string  `json:"type"`
	Effectiveness float64 `json:"effectiveness"`
	HitPoints     float64 `json:"hit_points"`
}

// RuntimeShip is the session-scoped combat state of one ship, layered over
// its immutable catalog template. It is owned exclusively by one session
// and mutated only by the combat resolver.
type RuntimeShip struct {
	ShipID    int              `json:"ship_id"`
	Pilot     string           `json:"pilot"`
	Name      string           `json:"name"`
	IsBoss    bool             `json:"is_boss"`
	MaxShield float64          `json:"max_shield"`
	MaxHull   float64          `json:"max_hull"`
	ShieldHP  float64          `json:"shield_hp"`
	HullHP    float64          `json:"hull_hp"`
	Weapons   []WeaponRuntime  `json:"weapons"`
	Defenses  []DefenseRuntime `json:"defenses"`

	Base *ShipTemplate `json:"-"`
}

func (s *RuntimeShip) Destroyed() bool {
	return s.HullHP <= 0
}

func (s *RuntimeShip) WeaponByID(id int) *WeaponRuntime {
	for i := range s.Weapons {
		if s.Weapons[i].WeaponID == id {
			return &s.Weapons[i]
		}
	}
	return nil
}

func (s *RuntimeShip) Clone() *RuntimeShip {
	c := *s
	c.Weapons = append([]WeaponRuntime(nil), s.Weapons...)
	c.Defenses = append([]DefenseRuntime(nil), s.Defenses...)
	return &c
}

// DamageBreakdown is the layered result of one resolved intent.
type DamageBreakdown struct {
	ToShields float64 `json:"to_shields"`
	ToArmor   float64 `json:"to_armor"`
	ToHull    float64 `json:"to_hull"`
	Total     float64 `json:"total"`
}

// TurnRecord is one append-only entry in a session's battle log.
type TurnRecord struct {
	Turn    int              `json:"turn"`
	Actor   string           `json:"actor,omitempty"`
	Intent  *Intent          `json:"intent,omitempty"`
	Damage  *DamageBreakdown `json:"damage,omitempty"`
	Message string           `json:"message"`
}

// GameSession is one in-progress two-ship battle. Raw slot tokens are
// never serialized; clients self-identify through the fingerprints.
type GameSession struct {
	ID           string         `json:"game_id"`
	Type         BattleType     `json:"type"`
	Ships        []*RuntimeShip `json:"ships"`
	Turn         int            `json:"turn"`
	PlayerTurn   string         `json:"player_turn"`
	Winner       string         `json:"winner,omitempty"`
	Logs         []TurnRecord   `json:"logs"`
	SpectatePin  string         `json:"spectate_pin,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	Tokens       map[string]string `json:"-"`
	Fingerprints map[string]string `json:"token_fingerprints,omitempty"`
}

func (g *GameSession) ShipByPilot(pilot string) *RuntimeShip {
	p := strings.ToUpper(pilot)
	for _, s := range g.Ships {
		if strings.ToUpper(s.Pilot) == p {
			return s
		}
	}
	return nil
}

// OpponentOf returns the other ship in the session. Sessions are validated
// at creation to hold exactly two ships.
func (g *GameSession) OpponentOf(pilot string) *RuntimeShip {
	p := strings.ToUpper(pilot)
	for _, s := range g.Ships {
		if strings.ToUpper(s.Pilot) != p {
			return s
		}
	}
	return nil
}

// Clone returns a deep copy safe to hand outside the session lock.
func (g *GameSession) Clone() *GameSession {
	c := *g
	c.Ships = make([]*RuntimeShip, len(g.Ships))
	for i, s := range g.Ships {
		c.Ships[i] = s.Clone()
	}
	c.Logs = append([]TurnRecord(nil), g.Logs...)
	c.Tokens = nil
	c.Fingerprints = make(map[string]string, len(g.Fingerprints))
	for k, v := range g.Fingerprints {
		c.Fingerprints[k] = v
	}
	return &c
}

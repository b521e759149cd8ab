package model

import "testing"

func TestBattleTypeValidity(t *testing.T) {
	for _, bt := range ValidBattleTypes {
		if !bt.Valid() {
			t.Errorf("%s should be valid", bt)
		}
	}
	if BattleType("CATS V DOGS").Valid() {
		t.Errorf("unknown type accepted")
	}
	if !BattlePlayerVAI.Implemented() || !BattlePlayerVP.Implemented() {
		t.Errorf("expected PLAYER V AI and PLAYER V PLAYER implemented")
	}
	if BattleAIvAI.Implemented() {
		t.Errorf("AI V AI should not be implemented")
	}
	if !BattlePlayerVBoss.IsBossBattle() || BattlePlayerVP.IsBossBattle() {
		t.Errorf("boss battle classification wrong")
	}
}

func TestIsPlayerPilot(t *testing.T) {
	cases := map[string]bool{
		"P1":   true,
		"p2":   true,
		"COM1": false,
		"BOSS": false,
		"":     false,
	}
	for pilot, want := range cases {
		if got := IsPlayerPilot(pilot); got != want {
			t.Errorf("IsPlayerPilot(%q) = %v, want %v", pilot, got, want)
		}
	}
}

func TestGameSessionCloneStripsTokens(t *testing.T) {
	ship := &RuntimeShip{Pilot: "P1", ShieldHP: 100, HullHP: 100, Weapons: []WeaponRuntime{{WeaponID: 1}}}
	game := &GameSession{
		ID:           "g1",
		Ships:        []*RuntimeShip{ship, {Pilot: "P2"}},
		Tokens:       map[string]string{"P1": "secret"},
		Fingerprints: map[string]string{"P1": "abc123"},
		Logs:         []TurnRecord{{Turn: 1, Message: "created"}},
	}

	clone := game.Clone()
	if clone.Tokens != nil {
		t.Fatalf("clone must not carry raw tokens")
	}
	if clone.Fingerprints["P1"] != "abc123" {
		t.Errorf("clone must keep fingerprints")
	}

	clone.Ships[0].HullHP = 0
	clone.Logs[0].Message = "tampered"
	if ship.HullHP != 100 {
		t.Errorf("clone shares ship state with the original")
	}
	if game.Logs[0].Message != "created" {
		t.Errorf("clone shares log backing array with the original")
	}
}

func TestOpponentOf(t *testing.T) {
	game := &GameSession{Ships: []*RuntimeShip{{Pilot: "P1"}, {Pilot: "COM1"}}}
	if opp := game.OpponentOf("P1"); opp == nil || opp.Pilot != "COM1" {
		t.Fatalf("expected COM1 as opponent of P1")
	}
	if opp := game.OpponentOf("com1"); opp == nil || opp.Pilot != "P1" {
		t.Fatalf("expected case-insensitive pilot lookup")
	}
}

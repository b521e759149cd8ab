package model

import "time"

type Visibility string

const (
	VisibilityPublic  Visibility = "PUBLIC"
	VisibilityPrivate Visibility = "PRIVATE"
)

func (v Visibility) Valid() bool {
	return v == VisibilityPublic || v == VisibilityPrivate
}

// RoomSlot holds one player's pre-game state. The raw token never leaves
// the server; clients match slots through the fingerprint.
type RoomSlot struct {
	Ship             *ShipDescriptor `json:"ship,omitempty"`
	Token            string          `json:"-"`
	TokenFingerprint string          `json:"token_fingerprint"`
	Ready            bool            `json:"ready"`
	Connected        bool            `json:"connected"`
}

func (s *RoomSlot) Clone() *RoomSlot {
	if s == nil {
		return nil
	}
	c := *s
	c.Token = ""
	if s.Ship != nil {
		ship := *s.Ship
		c.Ship = &ship
	}
	return &c
}

// WaitingRoom is a pre-battle pairing construct identified by a join pin.
// P1 is always present once the room exists; P2 is nil until a second
// player joins or auto-matches in.
type WaitingRoom struct {
	GamePin     string     `json:"game_pin"`
	SpectatePin string     `json:"spectate_pin"`
	SpectateVis Visibility `json:"spectate_vis"`
	JoinVis     Visibility `json:"join_vis"`
	P1          *RoomSlot  `json:"p1"`
	P2          *RoomSlot  `json:"p2,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// Clone returns a sanitized deep copy with raw tokens stripped.
func (r *WaitingRoom) Clone() *WaitingRoom {
	c := *r
	c.P1 = r.P1.Clone()
	c.P2 = r.P2.Clone()
	return &c
}

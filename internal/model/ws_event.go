package model

import "encoding/json"

type WSEvent struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Inbound message payloads for the session/room protocol.

type JoinGameRequest struct {
	GameID string `json:"game_id"`
}

type CreateGameRequest struct {
	Type   string            `json:"type"`
	Ships  []ShipDescriptor  `json:"ships"`
	Tokens map[string]string `json:"tokens,omitempty"`
}

type PlayerIntentRequest struct {
	GameID string `json:"game_id"`
	Intent Intent `json:"intent"`
	Token  string `json:"token"`
}

type GameEventsRequest struct {
	GameID   string `json:"game_id"`
	FromTurn int    `json:"from_turn"`
}

type CreateRoomRequest struct {
	SpectateVis string          `json:"spectate_vis"`
	JoinVis     string          `json:"join_vis"`
	Ship        *ShipDescriptor `json:"ship"`
	Token       string          `json:"token"`
}

type JoinRoomRequest struct {
	GamePin string          `json:"game_pin"`
	Token   string          `json:"token"`
	Ship    *ShipDescriptor `json:"ship"`
}

type RoomActionRequest struct {
	GamePin string          `json:"game_pin"`
	Token   string          `json:"token"`
	Ready   bool            `json:"ready"`
	Ship    *ShipDescriptor `json:"ship,omitempty"`
}

// Outbound reply payloads.

type CreateGameResponse struct {
	GameID       string            `json:"game_id"`
	PlayerTokens map[string]string `json:"player_tokens,omitempty"`
}

type RoomResponse struct {
	GamePin     string       `json:"game_pin"`
	SpectatePin string       `json:"spectate_pin"`
	Slot        string       `json:"slot"`
	Room        *WaitingRoom `json:"room"`
}

type GameStartedResponse struct {
	GameID string `json:"game_id"`
}

type GameEventsResponse struct {
	GameID string       `json:"game_id"`
	Logs   []TurnRecord `json:"logs"`
}

type WSError struct {
	Error string `json:"error"`
}

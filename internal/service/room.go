package service

import (
	"context"
	crand "crypto/rand"
	"errors"
	"fmt"
	"log"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/Zytronium/star-trek-battle-sim/internal/model"
)

var (
	ErrRoomNotFound = errors.New("waiting room not found")
	ErrRoomFull     = errors.New("waiting room is full")
	ErrNotReady     = errors.New("both players must be present and ready")
	ErrPinSpace     = errors.New("could not generate a unique pin")
)

// RoomService is the in-memory waiting room registry: pre-battle pairing,
// public auto-matching, and promotion to a live game session.
//
// Room state machine: Open(p1 only) -> Paired -> BothReady -> Started
// (room deleted, session created); Open/Paired -> Abandoned when the host
// leaves with no peer to promote.
type RoomService struct {
	games *GameService
	hub   Publisher

	mu    sync.Mutex
	rooms map[string]*model.WaitingRoom
}

func NewRoomService(games *GameService, hub Publisher) *RoomService {
	return &RoomService{
		games: games,
		hub:   hub,
		rooms: make(map[string]*model.WaitingRoom),
	}
}

// Create opens a new waiting room, or — when join visibility is PUBLIC —
// auto-matches into an existing public room that still lacks a second
// player. The returned slot tells the caller which seat they occupy.
func (s *RoomService) Create(spectateVis, joinVis string, ship *model.ShipDescriptor, token string) (*model.WaitingRoom, string, error) {
	sVis := model.Visibility(strings.ToUpper(strings.TrimSpace(spectateVis)))
	jVis := model.Visibility(strings.ToUpper(strings.TrimSpace(joinVis)))
	if !sVis.Valid() || !jVis.Valid() {
		return nil, "", fmt.Errorf("%w: visibility must be PUBLIC or PRIVATE", ErrValidation)
	}
	if ship == nil {
		return nil, "", fmt.Errorf("%w: missing ship selection", ErrValidation)
	}
	if token == "" {
		return nil, "", fmt.Errorf("%w: missing player token", ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if jVis == model.VisibilityPublic {
		if room := s.findOpenPublicRoom(); room != nil {
			room.P2 = &model.RoomSlot{
				Ship:             ship,
				Token:            token,
				TokenFingerprint: TokenFingerprint(token),
				Connected:        true,
			}
			log.Printf("Room %s: auto-matched second player", room.GamePin)
			s.broadcast(room)
			return room.Clone(), "p2", nil
		}
	}

	gamePin, err := s.newJoinPin()
	if err != nil {
		return nil, "", err
	}
	spectatePin, err := s.newSpectatePin()
	if err != nil {
		return nil, "", err
	}

	room := &model.WaitingRoom{
		GamePin:     gamePin,
		SpectatePin: spectatePin,
		SpectateVis: sVis,
		JoinVis:     jVis,
		P1: &model.RoomSlot{
			Ship:             ship,
			Token:            token,
			TokenFingerprint: TokenFingerprint(token),
			Connected:        true,
		},
		CreatedAt: time.Now(),
	}
	s.rooms[gamePin] = room
	log.Printf("Room %s created (join: %s, spectate: %s)", gamePin, jVis, sVis)
	return room.Clone(), "p1", nil
}

// Join seats a second player in an existing room by its join pin.
func (s *RoomService) Join(gamePin, token string, ship *model.ShipDescriptor) (*model.WaitingRoom, string, error) {
	if token == "" {
		return nil, "", fmt.Errorf("%w: missing player token", ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms[gamePin]
	if !ok {
		return nil, "", fmt.Errorf("room %s: %w", gamePin, ErrRoomNotFound)
	}
	if room.P2 != nil {
		return nil, "", ErrRoomFull
	}

	room.P2 = &model.RoomSlot{
		Ship:             ship,
		Token:            token,
		TokenFingerprint: TokenFingerprint(token),
		Connected:        true,
	}
	s.broadcast(room)
	return room.Clone(), "p2", nil
}

// Leave removes the caller's slot. A departing host with a seated peer
// promotes that peer to p1 (ship, token, ready and connected state all
// carry over); an empty room is deleted.
func (s *RoomService) Leave(gamePin, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms[gamePin]
	if !ok {
		return fmt.Errorf("room %s: %w", gamePin, ErrRoomNotFound)
	}

	switch {
	case room.P1 != nil && room.P1.Token == token:
		if room.P2 != nil {
			room.P1 = room.P2
			room.P2 = nil
			log.Printf("Room %s: host left, second player promoted", gamePin)
			s.broadcast(room)
			return nil
		}
		delete(s.rooms, gamePin)
		log.Printf("Room %s: host left, room deleted", gamePin)
		return nil

	case room.P2 != nil && room.P2.Token == token:
		room.P2 = nil
		s.broadcast(room)
		return nil
	}

	return fmt.Errorf("%w: token does not match any slot in room %s", ErrUnauthorized, gamePin)
}

// SelectShip swaps the caller's ship; changing ships clears readiness.
func (s *RoomService) SelectShip(gamePin, token string, ship *model.ShipDescriptor) (*model.WaitingRoom, error) {
	if ship == nil {
		return nil, fmt.Errorf("%w: missing ship selection", ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	room, slot, err := s.slotByToken(gamePin, token)
	if err != nil {
		return nil, err
	}
	slot.Ship = ship
	slot.Ready = false
	s.broadcast(room)
	return room.Clone(), nil
}

// SetReady toggles the caller's ready flag.
func (s *RoomService) SetReady(gamePin, token string, ready bool) (*model.WaitingRoom, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, slot, err := s.slotByToken(gamePin, token)
	if err != nil {
		return nil, err
	}
	slot.Ready = ready
	s.broadcast(room)
	return room.Clone(), nil
}

// SetConnected records presence for the caller's slot (transport layer
// calls this when the socket owning the slot drops or resumes).
func (s *RoomService) SetConnected(gamePin, token string, connected bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, slot, err := s.slotByToken(gamePin, token)
	if err != nil {
		return
	}
	slot.Connected = connected
	s.broadcast(room)
}

// Start promotes a both-ready room into a live session. Only the current
// host may start. The room's tokens and spectate pin carry into the
// session, and every room subscriber is told the new game id.
func (s *RoomService) Start(ctx context.Context, gamePin, token string) (string, error) {
	s.mu.Lock()

	room, ok := s.rooms[gamePin]
	if !ok {
		s.mu.Unlock()
		return "", fmt.Errorf("room %s: %w", gamePin, ErrRoomNotFound)
	}
	if room.P1 == nil || room.P1.Token != token {
		s.mu.Unlock()
		return "", fmt.Errorf("%w: only the host can start the game", ErrUnauthorized)
	}
	if room.P2 == nil || !room.P1.Ready || !room.P2.Ready {
		s.mu.Unlock()
		return "", ErrNotReady
	}
	if room.P1.Ship == nil || room.P2.Ship == nil {
		s.mu.Unlock()
		return "", fmt.Errorf("%w: both players must select a ship", ErrValidation)
	}

	req := &model.CreateGameRequest{
		Type: string(model.BattlePlayerVP),
		Ships: []model.ShipDescriptor{
			{ShipID: room.P1.Ship.ShipID, Pilot: "P1"},
			{ShipID: room.P2.Ship.ShipID, Pilot: "P2"},
		},
		Tokens: map[string]string{
			"P1": room.P1.Token,
			"P2": room.P2.Token,
		},
	}
	spectatePin := room.SpectatePin
	// Consume the room before releasing the lock so a concurrent Start
	// cannot build a second session from it.
	delete(s.rooms, gamePin)
	s.mu.Unlock()

	// Session creation reads the catalog; keep the registry unlocked.
	game, _, err := s.games.createGame(ctx, req, spectatePin)
	if err != nil {
		s.mu.Lock()
		s.rooms[gamePin] = room
		s.mu.Unlock()
		return "", err
	}

	if s.hub != nil {
		s.hub.Publish(RoomTopic(gamePin), NewEvent("gameStarted", model.GameStartedResponse{GameID: game.ID}))
	}
	log.Printf("Room %s started game %s", gamePin, game.ID)
	return game.ID, nil
}

// Get returns a sanitized snapshot of a room.
func (s *RoomService) Get(gamePin string) (*model.WaitingRoom, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms[gamePin]
	if !ok {
		return nil, fmt.Errorf("room %s: %w", gamePin, ErrRoomNotFound)
	}
	return room.Clone(), nil
}

// OpenCount returns the number of waiting rooms.
func (s *RoomService) OpenCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rooms)
}

// findOpenPublicRoom locates a public room with a connected host and a
// free second slot. Caller holds s.mu.
func (s *RoomService) findOpenPublicRoom() *model.WaitingRoom {
	for _, room := range s.rooms {
		if room.JoinVis == model.VisibilityPublic && room.P2 == nil && room.P1 != nil && room.P1.Connected {
			return room
		}
	}
	return nil
}

// slotByToken resolves which seat a token occupies. Caller holds s.mu.
func (s *RoomService) slotByToken(gamePin, token string) (*model.WaitingRoom, *model.RoomSlot, error) {
	room, ok := s.rooms[gamePin]
	if !ok {
		return nil, nil, fmt.Errorf("room %s: %w", gamePin, ErrRoomNotFound)
	}
	if token != "" {
		if room.P1 != nil && room.P1.Token == token {
			return room, room.P1, nil
		}
		if room.P2 != nil && room.P2.Token == token {
			return room, room.P2, nil
		}
	}
	return nil, nil, fmt.Errorf("%w: token does not match any slot in room %s", ErrUnauthorized, gamePin)
}

func (s *RoomService) broadcast(room *model.WaitingRoom) {
	if s.hub == nil {
		return
	}
	s.hub.Publish(RoomTopic(room.GamePin), NewEvent("waitingRoomUpdated", room.Clone()))
}

const pinAttempts = 100

// newJoinPin generates a short numeric pin unique across open rooms.
// Caller holds s.mu.
func (s *RoomService) newJoinPin() (string, error) {
	for i := 0; i < pinAttempts; i++ {
		pin := randomPin()
		if _, taken := s.rooms[pin]; !taken {
			return pin, nil
		}
	}
	return "", ErrPinSpace
}

// newSpectatePin generates a pin unique across both waiting rooms and
// live sessions. Caller holds s.mu.
func (s *RoomService) newSpectatePin() (string, error) {
	for i := 0; i < pinAttempts; i++ {
		pin := randomPin()
		collision := s.games != nil && s.games.HasSpectatePin(pin)
		if !collision {
			for _, room := range s.rooms {
				if room.SpectatePin == pin {
					collision = true
					break
				}
			}
		}
		if !collision {
			return pin, nil
		}
	}
	return "", ErrPinSpace
}

func randomPin() string {
	n, err := crand.Int(crand.Reader, big.NewInt(900000))
	if err != nil {
		// crypto/rand only fails if the OS entropy source is broken.
		panic(err)
	}
	return fmt.Sprintf("%06d", n.Int64()+100000)
}

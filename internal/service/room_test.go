package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/Zytronium/star-trek-battle-sim/internal/model"
)

func newTestRoomService(t *testing.T) (*RoomService, *GameService) {
	t.Helper()
	games, _ := newTestGameService(t, 0)
	return NewRoomService(games, nil), games
}

func testShipPick(id int) *model.ShipDescriptor {
	return &model.ShipDescriptor{ShipID: id}
}

func TestCreateRoomValidation(t *testing.T) {
	svc, _ := newTestRoomService(t)

	if _, _, err := svc.Create("SOMETIMES", "PUBLIC", testShipPick(1), "tok"); !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation for bad visibility, got %v", err)
	}
	if _, _, err := svc.Create("PUBLIC", "PUBLIC", nil, "tok"); !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation for missing ship, got %v", err)
	}
	if _, _, err := svc.Create("PUBLIC", "PUBLIC", testShipPick(1), ""); !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation for missing token, got %v", err)
	}
}

func TestPublicCreateAutoMatches(t *testing.T) {
	svc, _ := newTestRoomService(t)

	first, slot, err := svc.Create("PUBLIC", "PUBLIC", testShipPick(1), "token-a")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if slot != "p1" {
		t.Fatalf("expected first caller seated as p1, got %s", slot)
	}
	if first.P2 != nil {
		t.Fatalf("expected open room with empty p2")
	}

	second, slot, err := svc.Create("PUBLIC", "PUBLIC", testShipPick(2), "token-b")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if slot != "p2" {
		t.Errorf("expected second caller auto-matched as p2, got %s", slot)
	}
	if second.GamePin != first.GamePin {
		t.Errorf("expected auto-match into room %s, got new room %s", first.GamePin, second.GamePin)
	}
	if second.P2 == nil {
		t.Fatalf("expected p2 seated after auto-match")
	}
	if svc.OpenCount() != 1 {
		t.Errorf("expected a single open room, got %d", svc.OpenCount())
	}

	// Snapshots never expose raw slot tokens.
	if second.P1.Token != "" || second.P2.Token != "" {
		t.Errorf("room snapshot leaked slot tokens")
	}
	if second.P2.TokenFingerprint != TokenFingerprint("token-b") {
		t.Errorf("expected p2 fingerprint to match its token")
	}
}

func TestPrivateCreateNeverAutoMatches(t *testing.T) {
	svc, _ := newTestRoomService(t)

	first, _, err := svc.Create("PUBLIC", "PRIVATE", testShipPick(1), "token-a")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	second, slot, err := svc.Create("PUBLIC", "PRIVATE", testShipPick(1), "token-b")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if slot != "p1" || second.GamePin == first.GamePin {
		t.Errorf("private rooms must not auto-match")
	}
	if svc.OpenCount() != 2 {
		t.Errorf("expected 2 open rooms, got %d", svc.OpenCount())
	}
}

func TestJoinRoom(t *testing.T) {
	svc, _ := newTestRoomService(t)
	room, _, err := svc.Create("PUBLIC", "PRIVATE", testShipPick(1), "token-a")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	joined, slot, err := svc.Join(room.GamePin, "token-b", testShipPick(2))
	if err != nil {
		t.Fatalf("Join failed: %v", err)
	}
	if slot != "p2" || joined.P2 == nil {
		t.Fatalf("expected joiner seated as p2")
	}

	if _, _, err := svc.Join(room.GamePin, "token-c", testShipPick(1)); !errors.Is(err, ErrRoomFull) {
		t.Errorf("expected ErrRoomFull, got %v", err)
	}
	if _, _, err := svc.Join("000000", "token-c", testShipPick(1)); !errors.Is(err, ErrRoomNotFound) {
		t.Errorf("expected ErrRoomNotFound, got %v", err)
	}
}

func TestLeaveHostAloneDeletesRoom(t *testing.T) {
	svc, _ := newTestRoomService(t)
	room, _, err := svc.Create("PUBLIC", "PRIVATE", testShipPick(1), "token-a")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := svc.Leave(room.GamePin, "token-a"); err != nil {
		t.Fatalf("Leave failed: %v", err)
	}
	if _, err := svc.Get(room.GamePin); !errors.Is(err, ErrRoomNotFound) {
		t.Errorf("expected room deleted, got %v", err)
	}
}

func TestLeaveHostPromotesSecondPlayer(t *testing.T) {
	svc, _ := newTestRoomService(t)
	room, _, err := svc.Create("PUBLIC", "PRIVATE", testShipPick(1), "token-a")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, _, err := svc.Join(room.GamePin, "token-b", testShipPick(2)); err != nil {
		t.Fatalf("Join failed: %v", err)
	}
	if _, err := svc.SetReady(room.GamePin, "token-b", true); err != nil {
		t.Fatalf("SetReady failed: %v", err)
	}

	if err := svc.Leave(room.GamePin, "token-a"); err != nil {
		t.Fatalf("Leave failed: %v", err)
	}

	after, err := svc.Get(room.GamePin)
	if err != nil {
		t.Fatalf("expected room kept after promotion, got %v", err)
	}
	if after.P1 == nil || after.P2 != nil {
		t.Fatalf("expected second player promoted into p1")
	}
	if after.P1.TokenFingerprint != TokenFingerprint("token-b") {
		t.Errorf("promotion must preserve the player's token")
	}
	if !after.P1.Ready {
		t.Errorf("promotion must preserve ready state")
	}
	if after.P1.Ship == nil || after.P1.Ship.ShipID != 2 {
		t.Errorf("promotion must preserve ship selection")
	}

	// The preserved token still operates the promoted slot.
	if _, err := svc.SetReady(room.GamePin, "token-b", false); err != nil {
		t.Errorf("expected promoted player's token to keep working, got %v", err)
	}
}

func TestLeaveUnknownToken(t *testing.T) {
	svc, _ := newTestRoomService(t)
	room, _, err := svc.Create("PUBLIC", "PRIVATE", testShipPick(1), "token-a")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := svc.Leave(room.GamePin, "not-seated"); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized, got %v", err)
	}
}

func TestSelectShipClearsReady(t *testing.T) {
	svc, _ := newTestRoomService(t)
	room, _, err := svc.Create("PUBLIC", "PRIVATE", testShipPick(1), "token-a")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := svc.SetReady(room.GamePin, "token-a", true); err != nil {
		t.Fatalf("SetReady failed: %v", err)
	}

	after, err := svc.SelectShip(room.GamePin, "token-a", testShipPick(2))
	if err != nil {
		t.Fatalf("SelectShip failed: %v", err)
	}
	if after.P1.Ready {
		t.Errorf("changing ships must clear readiness")
	}
	if after.P1.Ship.ShipID != 2 {
		t.Errorf("expected ship 2 selected, got %d", after.P1.Ship.ShipID)
	}
}

func TestStartRequiresHostAndReadiness(t *testing.T) {
	svc, _ := newTestRoomService(t)
	ctx := context.Background()
	room, _, err := svc.Create("PUBLIC", "PRIVATE", testShipPick(1), "token-a")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if _, err := svc.Start(ctx, room.GamePin, "token-a"); !errors.Is(err, ErrNotReady) {
		t.Errorf("expected ErrNotReady with no second player, got %v", err)
	}

	if _, _, err := svc.Join(room.GamePin, "token-b", testShipPick(2)); err != nil {
		t.Fatalf("Join failed: %v", err)
	}
	if _, err := svc.Start(ctx, room.GamePin, "token-b"); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized for non-host start, got %v", err)
	}
	if _, err := svc.Start(ctx, room.GamePin, "token-a"); !errors.Is(err, ErrNotReady) {
		t.Errorf("expected ErrNotReady before both ready, got %v", err)
	}
}

func TestStartPromotesRoomToSession(t *testing.T) {
	svc, games := newTestRoomService(t)
	ctx := context.Background()

	room, _, err := svc.Create("PUBLIC", "PRIVATE", testShipPick(1), "token-a")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, _, err := svc.Join(room.GamePin, "token-b", testShipPick(2)); err != nil {
		t.Fatalf("Join failed: %v", err)
	}
	if _, err := svc.SetReady(room.GamePin, "token-a", true); err != nil {
		t.Fatalf("SetReady failed: %v", err)
	}
	if _, err := svc.SetReady(room.GamePin, "token-b", true); err != nil {
		t.Fatalf("SetReady failed: %v", err)
	}

	gameID, err := svc.Start(ctx, room.GamePin, "token-a")
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	if _, err := svc.Get(room.GamePin); !errors.Is(err, ErrRoomNotFound) {
		t.Errorf("expected room deleted after start, got %v", err)
	}

	game, err := games.Get(gameID)
	if err != nil {
		t.Fatalf("expected live session, got %v", err)
	}
	if game.Type != model.BattlePlayerVP {
		t.Errorf("expected PLAYER V PLAYER session, got %s", game.Type)
	}
	if game.SpectatePin != room.SpectatePin {
		t.Errorf("expected spectate pin carried into the session")
	}

	// Room tokens carry over: each player can immediately act with the
	// token they held in the waiting room.
	intent := &model.Intent{Attacker: "P1", Target: "P2", WeaponID: 1}
	if _, err := games.PlayerIntent(gameID, intent, "token-a", nil); err != nil {
		t.Errorf("expected host token authorized as P1, got %v", err)
	}
	intent = &model.Intent{Attacker: "P2", Target: "P1", WeaponID: 1}
	if _, err := games.PlayerIntent(gameID, intent, "token-b", nil); err != nil {
		t.Errorf("expected joiner token authorized as P2, got %v", err)
	}
}

// blockingCatalog parks every template lookup until released, holding a
// caller inside session creation.
type blockingCatalog struct {
	inner   ShipCatalog
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func (c *blockingCatalog) GetShipFullByID(ctx context.Context, id int) (*model.ShipTemplate, error) {
	c.once.Do(func() { close(c.started) })
	<-c.release
	return c.inner.GetShipFullByID(ctx, id)
}

func TestStartConsumesRoomExactlyOnce(t *testing.T) {
	catalog := &blockingCatalog{
		inner:   newStubCatalog(),
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	games, _ := newGameServiceWith(catalog, 0)
	svc := NewRoomService(games, nil)
	ctx := context.Background()

	room, _, err := svc.Create("PUBLIC", "PRIVATE", testShipPick(1), "token-a")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, _, err := svc.Join(room.GamePin, "token-b", testShipPick(2)); err != nil {
		t.Fatalf("Join failed: %v", err)
	}
	if _, err := svc.SetReady(room.GamePin, "token-a", true); err != nil {
		t.Fatalf("SetReady failed: %v", err)
	}
	if _, err := svc.SetReady(room.GamePin, "token-b", true); err != nil {
		t.Fatalf("SetReady failed: %v", err)
	}

	type result struct {
		gameID string
		err    error
	}
	firstDone := make(chan result, 1)
	go func() {
		id, err := svc.Start(ctx, room.GamePin, "token-a")
		firstDone <- result{id, err}
	}()

	// The first Start is now parked inside session creation with the
	// registry unlocked. A second Start must find the room already
	// consumed instead of building a second session.
	<-catalog.started
	if _, err := svc.Start(ctx, room.GamePin, "token-a"); !errors.Is(err, ErrRoomNotFound) {
		t.Errorf("expected ErrRoomNotFound for concurrent start, got %v", err)
	}

	close(catalog.release)
	first := <-firstDone
	if first.err != nil {
		t.Fatalf("Start failed: %v", first.err)
	}
	if first.gameID == "" {
		t.Fatalf("expected a session id from the winning start")
	}
	if games.ActiveCount() != 1 {
		t.Errorf("expected exactly one session from one room, got %d", games.ActiveCount())
	}
}

func TestStartRestoresRoomWhenCreationFails(t *testing.T) {
	svc, _ := newTestRoomService(t)
	ctx := context.Background()

	// Ship 99 is not in the catalog, so session creation fails after the
	// room has been claimed.
	room, _, err := svc.Create("PUBLIC", "PRIVATE", testShipPick(99), "token-a")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, _, err := svc.Join(room.GamePin, "token-b", testShipPick(1)); err != nil {
		t.Fatalf("Join failed: %v", err)
	}
	if _, err := svc.SetReady(room.GamePin, "token-a", true); err != nil {
		t.Fatalf("SetReady failed: %v", err)
	}
	if _, err := svc.SetReady(room.GamePin, "token-b", true); err != nil {
		t.Fatalf("SetReady failed: %v", err)
	}

	if _, err := svc.Start(ctx, room.GamePin, "token-a"); err == nil {
		t.Fatalf("expected Start to fail for an unknown ship")
	}

	// The failed start must hand the room back intact.
	after, err := svc.Get(room.GamePin)
	if err != nil {
		t.Fatalf("expected room restored after failed start, got %v", err)
	}
	if after.P1 == nil || after.P2 == nil || !after.P1.Ready || !after.P2.Ready {
		t.Errorf("restored room lost slot state")
	}

	// Fixing the selection makes the same room startable.
	if _, err := svc.SelectShip(room.GamePin, "token-a", testShipPick(1)); err != nil {
		t.Fatalf("SelectShip failed: %v", err)
	}
	if _, err := svc.SetReady(room.GamePin, "token-a", true); err != nil {
		t.Fatalf("SetReady failed: %v", err)
	}
	if _, err := svc.Start(ctx, room.GamePin, "token-a"); err != nil {
		t.Errorf("expected restored room to start, got %v", err)
	}
}

func TestRoomPinsAreUnique(t *testing.T) {
	svc, _ := newTestRoomService(t)
	joinPins := make(map[string]bool)
	spectatePins := make(map[string]bool)
	for i := 0; i < 20; i++ {
		room, _, err := svc.Create("PUBLIC", "PRIVATE", testShipPick(1), NewSlotToken())
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		if len(room.GamePin) != 6 {
			t.Fatalf("expected 6-digit pin, got %q", room.GamePin)
		}
		if joinPins[room.GamePin] {
			t.Fatalf("duplicate join pin %s", room.GamePin)
		}
		if spectatePins[room.SpectatePin] {
			t.Fatalf("duplicate spectate pin %s", room.SpectatePin)
		}
		joinPins[room.GamePin] = true
		spectatePins[room.SpectatePin] = true
	}
}

func TestSetConnected(t *testing.T) {
	svc, _ := newTestRoomService(t)
	room, _, err := svc.Create("PUBLIC", "PUBLIC", testShipPick(1), "token-a")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	svc.SetConnected(room.GamePin, "token-a", false)
	after, err := svc.Get(room.GamePin)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if after.P1.Connected {
		t.Errorf("expected host marked disconnected")
	}

	// A disconnected host is not a valid auto-match target.
	matched, slot, err := svc.Create("PUBLIC", "PUBLIC", testShipPick(1), "token-b")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if slot != "p1" || matched.GamePin == room.GamePin {
		t.Errorf("expected a fresh room instead of matching a disconnected host")
	}
}

package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/Zytronium/star-trek-battle-sim/internal/model"
	"github.com/Zytronium/star-trek-battle-sim/internal/repository"

	"github.com/google/uuid"
)

var (
	ErrValidation     = errors.New("invalid game setup")
	ErrNotImplemented = errors.New("this type of battle is not implemented yet")
	ErrGameNotFound   = errors.New("game not found")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrCPUBusy        = errors.New("please wait for the CPU to take its turn before submitting another action")
)

// GameService is the authoritative in-memory registry of live sessions
// and the turn orchestrator. All mutating operations on one session are
// serialized behind that session's mutex; the registry map has its own.
type GameService struct {
	catalog  ShipCatalog
	resolver *CombatResolver
	ai       *AIDecisionEngine
	hub      Publisher
	webhook  *WebhookService

	pacing  time.Duration
	gcGrace time.Duration

	mu    sync.RWMutex
	games map[string]*gameEntry
}

type gameEntry struct {
	mu      sync.Mutex
	session *model.GameSession
	// cpuBusy rejects human intents while an AI turn is pending so the
	// human turn and the following AI turn always broadcast in order.
	cpuBusy bool
}

func NewGameService(catalog ShipCatalog, resolver *CombatResolver, ai *AIDecisionEngine, hub Publisher, webhook *WebhookService, pacing, gcGrace time.Duration) *GameService {
	return &GameService{
		catalog:  catalog,
		resolver: resolver,
		ai:       ai,
		hub:      hub,
		webhook:  webhook,
		pacing:   pacing,
		gcGrace:  gcGrace,
		games:    make(map[string]*gameEntry),
	}
}

// CreateGame validates the setup, builds runtime ships from the catalog,
// and registers a new session. Missing player tokens are generated; the
// returned map holds the token for every player slot.
func (s *GameService) CreateGame(ctx context.Context, req *model.CreateGameRequest) (*model.GameSession, map[string]string, error) {
	return s.createGame(ctx, req, "")
}

func (s *GameService) createGame(ctx context.Context, req *model.CreateGameRequest, spectatePin string) (*model.GameSession, map[string]string, error) {
	battleType, err := validateSetup(req)
	if err != nil {
		return nil, nil, err
	}

	ships := make([]*model.RuntimeShip, 0, len(req.Ships))
	for _, desc := range req.Ships {
		tpl, err := s.catalog.GetShipFullByID(ctx, desc.ShipID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, nil, fmt.Errorf("%w: ship with ID %d not found", ErrValidation, desc.ShipID)
			}
			return nil, nil, fmt.Errorf("load ship %d: %w", desc.ShipID, err)
		}
		ships = append(ships, BuildRuntimeShip(tpl, strings.ToUpper(desc.Pilot), desc.IsBoss))
	}

	tokens := make(map[string]string)
	fingerprints := make(map[string]string)
	for _, ship := range ships {
		if !model.IsPlayerPilot(ship.Pilot) {
			continue
		}
		token := req.Tokens[ship.Pilot]
		if token == "" {
			token = NewSlotToken()
		}
		tokens[ship.Pilot] = token
		fingerprints[ship.Pilot] = TokenFingerprint(token)
	}

	game := &model.GameSession{
		ID:           uuid.NewString(),
		Type:         battleType,
		Ships:        ships,
		Turn:         1,
		PlayerTurn:   ships[0].Pilot,
		SpectatePin:  spectatePin,
		CreatedAt:    time.Now(),
		Tokens:       tokens,
		Fingerprints: fingerprints,
	}
	game.Logs = append(game.Logs, model.TurnRecord{
		Turn:    1,
		Message: fmt.Sprintf("Game created: %s", battleType),
	})

	s.mu.Lock()
	s.games[game.ID] = &gameEntry{session: game}
	s.mu.Unlock()

	snapshot := game.Clone()
	s.publishGame(snapshot)
	log.Printf("Game %s created (%s)", game.ID, battleType)
	return snapshot, tokens, nil
}

// Get returns a deep-copy snapshot; it never mutates session state.
func (s *GameService) Get(gameID string) (*model.GameSession, error) {
	entry := s.entry(gameID)
	if entry == nil {
		return nil, fmt.Errorf("game %s: %w", gameID, ErrGameNotFound)
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	return entry.session.Clone(), nil
}

// Events returns the session's log records from a turn onward.
func (s *GameService) Events(gameID string, fromTurn int) ([]model.TurnRecord, error) {
	if fromTurn < 0 {
		return nil, fmt.Errorf("%w: from_turn must be a positive number", ErrValidation)
	}
	entry := s.entry(gameID)
	if entry == nil {
		return nil, fmt.Errorf("game %s: %w", gameID, ErrGameNotFound)
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	var records []model.TurnRecord
	for _, r := range entry.session.Logs {
		if r.Turn >= fromTurn {
			records = append(records, r)
		}
	}
	return records, nil
}

// PlayerIntent resolves a human turn and, for human-vs-AI games, kicks
// off the CPU turn. notify (optional) receives events meant only for the
// caller, such as a CPU-turn failure.
func (s *GameService) PlayerIntent(gameID string, intent *model.Intent, token string, notify func(*model.WSEvent)) (*model.GameSession, error) {
	entry := s.entry(gameID)
	if entry == nil {
		return nil, fmt.Errorf("game %s: %w", gameID, ErrGameNotFound)
	}

	intent.Attacker = strings.ToUpper(intent.Attacker)
	intent.Target = strings.ToUpper(intent.Target)

	entry.mu.Lock()
	game := entry.session

	if err := authorizeIntent(game, intent.Attacker, token); err != nil {
		entry.mu.Unlock()
		return nil, err
	}
	if entry.cpuBusy {
		entry.mu.Unlock()
		return nil, ErrCPUBusy
	}

	if _, err := s.resolver.Resolve(game, intent); err != nil {
		entry.mu.Unlock()
		return nil, err
	}

	aiPending := game.Type == model.BattlePlayerVAI && game.Winner == ""
	if aiPending {
		entry.cpuBusy = true
	}
	finished := game.Winner != ""
	snapshot := game.Clone()
	entry.mu.Unlock()

	s.publishGame(snapshot)
	if finished {
		s.finishGame(snapshot)
	}
	if aiPending {
		go s.runCPUTurn(gameID, notify)
	}
	return snapshot, nil
}

// runCPUTurn computes and resolves the AI's intent, holding the snapshot
// back until the pacing delay has elapsed so the perceived cadence stays
// consistent regardless of compute time. The busy lock is always
// released, success or failure.
func (s *GameService) runCPUTurn(gameID string, notify func(*model.WSEvent)) {
	entry := s.entry(gameID)
	if entry == nil {
		return
	}
	start := time.Now()
	defer func() {
		entry.mu.Lock()
		entry.cpuBusy = false
		entry.mu.Unlock()
	}()

	entry.mu.Lock()
	game := entry.session

	cpuPilot := ""
	for _, ship := range game.Ships {
		if !model.IsPlayerPilot(ship.Pilot) {
			cpuPilot = ship.Pilot
			break
		}
	}

	var err error
	if cpuPilot == "" {
		err = ErrInvalidParticipant
	} else {
		var intent *model.Intent
		intent, err = s.ai.ChooseIntent(game, cpuPilot)
		switch {
		case errors.Is(err, ErrNoEligibleWeapon):
			err = s.resolver.SkipTurn(game, cpuPilot)
		case err == nil:
			_, err = s.resolver.Resolve(game, intent)
		}
	}

	if err != nil {
		entry.mu.Unlock()
		log.Printf("Failed to process CPU turn for game %s: %v", gameID, err)
		if notify != nil {
			notify(NewErrorEvent(err.Error()))
		}
		return
	}

	finished := game.Winner != ""
	snapshot := game.Clone()
	entry.mu.Unlock()

	if wait := s.pacing - time.Since(start); wait > 0 {
		time.Sleep(wait)
	}
	s.publishGame(snapshot)
	if finished {
		s.finishGame(snapshot)
	}
}

// HasSpectatePin reports whether any live session holds this pin.
// Waiting rooms use it to keep spectate pins globally unique.
func (s *GameService) HasSpectatePin(pin string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, entry := range s.games {
		if entry.session.SpectatePin == pin {
			return true
		}
	}
	return false
}

// ActiveCount returns the number of live sessions.
func (s *GameService) ActiveCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.games)
}

func (s *GameService) entry(gameID string) *gameEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.games[gameID]
}

func (s *GameService) publishGame(snapshot *model.GameSession) {
	if s.hub == nil {
		return
	}
	s.hub.Publish(GameTopic(snapshot.ID), NewEvent("gameUpdate", snapshot))
}

// finishGame announces the result and schedules the session for removal
// after a grace period so late observers still see the final state.
func (s *GameService) finishGame(snapshot *model.GameSession) {
	if s.webhook != nil {
		s.webhook.AnnounceBattleResult(snapshot)
	}
	log.Printf("Game %s finished, winner: %s", snapshot.ID, snapshot.Winner)

	gameID := snapshot.ID
	time.AfterFunc(s.gcGrace, func() {
		s.mu.Lock()
		delete(s.games, gameID)
		s.mu.Unlock()
		log.Printf("Game %s removed from registry", gameID)
	})
}

// authorizeIntent enforces the token check for the claimed attacker slot.
// Only "P"-prefixed pilots may act from a client-originated intent; a
// missing or mismatched token is always rejected, never defaulted.
func authorizeIntent(game *model.GameSession, attacker, token string) error {
	if !model.IsPlayerPilot(attacker) {
		log.Printf("SECURITY: rejected client intent for non-player pilot %q in game %s", attacker, game.ID)
		return fmt.Errorf("%w: only player slots can submit intents", ErrUnauthorized)
	}
	want, ok := game.Tokens[attacker]
	if !ok || token == "" || token != want {
		log.Printf("SECURITY: invalid token for pilot %q in game %s", attacker, game.ID)
		return fmt.Errorf("%w: invalid player token for %s", ErrUnauthorized, attacker)
	}
	return nil
}

// validateSetup checks the battle type and every ship descriptor,
// including the exact-two-ship invariant the resolver relies on.
func validateSetup(req *model.CreateGameRequest) (model.BattleType, error) {
	if strings.TrimSpace(req.Type) == "" {
		return "", fmt.Errorf("%w: missing param 'type'", ErrValidation)
	}
	battleType := model.BattleType(strings.ToUpper(strings.TrimSpace(req.Type)))
	if !battleType.Valid() {
		return "", fmt.Errorf("%w: invalid type, must be one of: %s", ErrValidation, joinTypes(model.ValidBattleTypes))
	}
	if !battleType.Implemented() {
		return "", fmt.Errorf("%w, try one of: %s", ErrNotImplemented, joinTypes(model.ImplementedBattleTypes))
	}

	if len(req.Ships) < 2 {
		return "", fmt.Errorf("%w: param 'ships' must contain at least 2 ships", ErrValidation)
	}
	// The resolver's opponent lookup assumes exactly one attacker vs one
	// defender; enforce it here instead of inside combat resolution.
	if len(req.Ships) != 2 {
		return "", fmt.Errorf("%w: %s battles require exactly 2 ships", ErrValidation, battleType)
	}

	validPilots := battleType.ValidPilots()
	seen := make(map[string]bool)
	hasBoss := false
	for _, ship := range req.Ships {
		pilot := strings.ToUpper(strings.TrimSpace(ship.Pilot))
		if pilot == "" {
			return "", fmt.Errorf("%w: every ship needs a pilot", ErrValidation)
		}
		if seen[pilot] {
			return "", fmt.Errorf("%w: there cannot be more than one ship piloted by '%s'", ErrValidation, pilot)
		}
		seen[pilot] = true

		if !contains(validPilots, pilot) {
			return "", fmt.Errorf("%w: no ships can be piloted by '%s' in '%s' battles (valid pilots: %s)",
				ErrValidation, pilot, battleType, strings.Join(validPilots, ", "))
		}
		if ship.ShipID < 0 {
			return "", fmt.Errorf("%w: ship ID %d cannot be negative", ErrValidation, ship.ShipID)
		}
		if ship.IsBoss {
			if !battleType.IsBossBattle() {
				return "", fmt.Errorf("%w: no ships can be a boss in a non-boss battle", ErrValidation)
			}
			if hasBoss {
				return "", fmt.Errorf("%w: there cannot be more than one boss", ErrValidation)
			}
			hasBoss = true
		}
	}

	return battleType, nil
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func joinTypes(types []model.BattleType) string {
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = string(t)
	}
	return strings.Join(names, ", ")
}

package handler

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/Zytronium/star-trek-battle-sim/internal/model"
	"github.com/Zytronium/star-trek-battle-sim/internal/service"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

const readDeadline = 60 * time.Second

// WSHandler owns the realtime session/room protocol: one inbound message
// type per operation, dispatched to the game and room services and
// answered with typed reply events. Broadcasts (gameUpdate,
// waitingRoomUpdated, gameStarted) go out through the hub topics;
// failures produce a single errorMessage to the caller only.
type WSHandler struct {
	hub     *service.WSHub
	authSvc *service.GuestAuthService
	games   *service.GameService
	rooms   *service.RoomService
}

func NewWSHandler(hub *service.WSHub, authSvc *service.GuestAuthService, games *service.GameService, rooms *service.RoomService) *WSHandler {
	return &WSHandler{hub: hub, authSvc: authSvc, games: games, rooms: rooms}
}

func (h *WSHandler) Upgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		token := c.Query("token")
		if token == "" {
			return c.Status(401).JSON(fiber.Map{"error": "token required"})
		}

		guestID, name, err := h.authSvc.ValidateToken(token)
		if err != nil {
			return c.Status(401).JSON(fiber.Map{"error": "invalid token"})
		}

		c.Locals("guest_id", guestID)
		c.Locals("guest_name", name)
		return websocket.New(h.handleConnection)(c)
	}
	return fiber.ErrUpgradeRequired
}

func (h *WSHandler) handleConnection(c *websocket.Conn) {
	guestID, _ := c.Locals("guest_id").(string)
	name, _ := c.Locals("guest_name").(string)

	client := &service.WSClient{
		Conn:    c,
		GuestID: guestID,
		Name:    name,
		Send:    make(chan []byte, 256),
	}

	h.hub.Register(client)

	// The socket can occupy at most one waiting room slot; remembered so a
	// drop marks that slot disconnected.
	var roomPin, roomToken string

	defer func() {
		if roomPin != "" {
			h.rooms.SetConnected(roomPin, roomToken, false)
		}
		h.hub.Unregister(client)
	}()

	// Writer goroutine
	go func() {
		defer c.Close()
		for msg := range client.Send {
			if err := c.WriteMessage(websocket.TextMessage, msg); err != nil {
				break
			}
		}
	}()

	c.SetReadDeadline(time.Now().Add(readDeadline))
	for {
		_, msg, err := c.ReadMessage()
		if err != nil {
			break
		}
		c.SetReadDeadline(time.Now().Add(readDeadline))

		var event model.WSEvent
		if err := json.Unmarshal(msg, &event); err != nil {
			continue
		}

		switch event.Type {
		case "ping":
			h.hub.SendTo(client, &model.WSEvent{Type: "pong"})

		case "joinGame":
			var req model.JoinGameRequest
			if err := json.Unmarshal(event.Data, &req); err != nil || req.GameID == "" {
				h.sendError(client, "joinGame requires a game_id")
				continue
			}
			h.hub.Subscribe(client, service.GameTopic(req.GameID))
			if game, err := h.games.Get(req.GameID); err == nil {
				h.hub.SendTo(client, service.NewEvent("gameUpdate", game))
			}

		case "createGame":
			var req model.CreateGameRequest
			if err := json.Unmarshal(event.Data, &req); err != nil {
				h.sendError(client, "invalid createGame payload")
				continue
			}
			game, tokens, err := h.games.CreateGame(context.Background(), &req)
			if err != nil {
				h.sendError(client, err.Error())
				continue
			}
			h.hub.SendTo(client, service.NewEvent("gameCreated", model.CreateGameResponse{
				GameID:       game.ID,
				PlayerTokens: tokens,
			}))

		case "playerIntent":
			var req model.PlayerIntentRequest
			if err := json.Unmarshal(event.Data, &req); err != nil {
				h.sendError(client, "invalid playerIntent payload")
				continue
			}
			notify := func(evt *model.WSEvent) { h.hub.SendTo(client, evt) }
			if _, err := h.games.PlayerIntent(req.GameID, &req.Intent, req.Token, notify); err != nil {
				h.sendError(client, err.Error())
			}

		case "gameEvents":
			var req model.GameEventsRequest
			if err := json.Unmarshal(event.Data, &req); err != nil {
				h.sendError(client, "invalid gameEvents payload")
				continue
			}
			logs, err := h.games.Events(req.GameID, req.FromTurn)
			if err != nil {
				h.sendError(client, err.Error())
				continue
			}
			h.hub.SendTo(client, service.NewEvent("gameEvents", model.GameEventsResponse{
				GameID: req.GameID,
				Logs:   logs,
			}))

		case "createWaitingRoom":
			var req model.CreateRoomRequest
			if err := json.Unmarshal(event.Data, &req); err != nil {
				h.sendError(client, "invalid createWaitingRoom payload")
				continue
			}
			room, slot, err := h.rooms.Create(req.SpectateVis, req.JoinVis, req.Ship, req.Token)
			if err != nil {
				h.sendError(client, err.Error())
				continue
			}
			roomPin, roomToken = room.GamePin, req.Token
			h.hub.Subscribe(client, service.RoomTopic(room.GamePin))
			h.hub.SendTo(client, service.NewEvent("waitingRoomCreated", model.RoomResponse{
				GamePin:     room.GamePin,
				SpectatePin: room.SpectatePin,
				Slot:        slot,
				Room:        room,
			}))

		case "joinWaitingRoom":
			var req model.JoinRoomRequest
			if err := json.Unmarshal(event.Data, &req); err != nil {
				h.sendError(client, "invalid joinWaitingRoom payload")
				continue
			}
			room, slot, err := h.rooms.Join(req.GamePin, req.Token, req.Ship)
			if err != nil {
				h.sendError(client, err.Error())
				continue
			}
			roomPin, roomToken = room.GamePin, req.Token
			h.hub.Subscribe(client, service.RoomTopic(room.GamePin))
			h.hub.SendTo(client, service.NewEvent("waitingRoomJoined", model.RoomResponse{
				GamePin:     room.GamePin,
				SpectatePin: room.SpectatePin,
				Slot:        slot,
				Room:        room,
			}))

		case "leaveWaitingRoom":
			var req model.RoomActionRequest
			if err := json.Unmarshal(event.Data, &req); err != nil {
				h.sendError(client, "invalid leaveWaitingRoom payload")
				continue
			}
			if err := h.rooms.Leave(req.GamePin, req.Token); err != nil {
				h.sendError(client, err.Error())
				continue
			}
			h.hub.Unsubscribe(client, service.RoomTopic(req.GamePin))
			if roomPin == req.GamePin {
				roomPin, roomToken = "", ""
			}
			h.hub.SendTo(client, &model.WSEvent{Type: "waitingRoomLeft"})

		case "selectShip":
			var req model.RoomActionRequest
			if err := json.Unmarshal(event.Data, &req); err != nil {
				h.sendError(client, "invalid selectShip payload")
				continue
			}
			if _, err := h.rooms.SelectShip(req.GamePin, req.Token, req.Ship); err != nil {
				h.sendError(client, err.Error())
			}

		case "toggleReady":
			var req model.RoomActionRequest
			if err := json.Unmarshal(event.Data, &req); err != nil {
				h.sendError(client, "invalid toggleReady payload")
				continue
			}
			if _, err := h.rooms.SetReady(req.GamePin, req.Token, req.Ready); err != nil {
				h.sendError(client, err.Error())
			}

		case "startGame":
			var req model.RoomActionRequest
			if err := json.Unmarshal(event.Data, &req); err != nil {
				h.sendError(client, "invalid startGame payload")
				continue
			}
			gameID, err := h.rooms.Start(context.Background(), req.GamePin, req.Token)
			if err != nil {
				h.sendError(client, err.Error())
				continue
			}
			if roomPin == req.GamePin {
				roomPin, roomToken = "", ""
			}
			h.hub.SendTo(client, service.NewEvent("gameStarted", model.GameStartedResponse{GameID: gameID}))

		default:
			log.Printf("WS: unknown event type %q from %s", event.Type, name)
		}
	}
}

func (h *WSHandler) sendError(client *service.WSClient, message string) {
	h.hub.SendTo(client, service.NewErrorEvent(message))
}

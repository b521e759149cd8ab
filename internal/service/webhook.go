package service

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/Zytronium/star-trek-battle-sim/internal/model"
)

// WebhookService posts battle results to a Discord channel via webhook.
// Sends are fire-and-forget; a dead webhook never blocks a game.
type WebhookService struct {
	webhookBattles string
	client         *http.Client
}

func NewWebhookService(battlesURL string) *WebhookService {
	return &WebhookService{
		webhookBattles: battlesURL,
		client:         &http.Client{Timeout: 10 * time.Second},
	}
}

type discordEmbed struct {
	Title       string         `json:"title,omitempty"`
	Description string         `json:"description,omitempty"`
	Color       int            `json:"color,omitempty"`
	Fields      []discordField `json:"fields,omitempty"`
	Timestamp   string         `json:"timestamp,omitempty"`
}

type discordField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

type discordWebhookPayload struct {
	Username string         `json:"username,omitempty"`
	Embeds   []discordEmbed `json:"embeds"`
}

// AnnounceBattleResult posts a finished battle to the battles channel.
func (s *WebhookService) AnnounceBattleResult(game *model.GameSession) {
	if len(game.Ships) < 2 {
		return
	}
	winner := game.ShipByPilot(game.Winner)
	loser := game.OpponentOf(game.Winner)
	if winner == nil || loser == nil {
		return
	}

	s.send(s.webhookBattles, discordWebhookPayload{
		Username: "Star Trek Battle Sim",
		Embeds: []discordEmbed{{
			Title: fmt.Sprintf("%s (%s) destroyed %s (%s)", winner.Name, winner.Pilot, loser.Name, loser.Pilot),
			Color: 0xE74C3C,
			Fields: []discordField{
				{Name: "Battle", Value: string(game.Type), Inline: true},
				{Name: "Turns", Value: fmt.Sprintf("%d", game.Turn), Inline: true},
			},
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		}},
	})
}

func (s *WebhookService) send(webhookURL string, payload discordWebhookPayload) {
	if webhookURL == "" {
		return
	}
	go func() {
		body, err := json.Marshal(payload)
		if err != nil {
			log.Printf("[discord-webhook] marshal error: %v", err)
			return
		}
		resp, err := s.client.Post(webhookURL, "application/json", bytes.NewReader(body))
		if err != nil {
			log.Printf("[discord-webhook] send error: %v", err)
			return
		}
		resp.Body.Close()
		if resp.StatusCode >= 400 {
			log.Printf("[discord-webhook] HTTP %d for webhook", resp.StatusCode)
		}
	}()
}

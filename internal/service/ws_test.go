package service

import (
	"testing"
	"time"
)

func newHubClient(name string) *WSClient {
	return &WSClient{Name: name, Send: make(chan []byte, 4)}
}

func waitForOnline(t *testing.T, hub *WSHub, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if hub.OnlineCount() == want {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("hub never reached %d online clients", want)
}

func TestHubSendToConnectedClient(t *testing.T) {
	hub := NewWSHub()
	go hub.Run()
	defer hub.Shutdown()

	client := newHubClient("tester")
	hub.Register(client)
	waitForOnline(t, hub, 1)

	hub.SendTo(client, NewErrorEvent("bad intent"))
	select {
	case msg := <-client.Send:
		if len(msg) == 0 {
			t.Fatalf("expected a serialized event")
		}
	case <-time.After(time.Second):
		t.Fatalf("expected SendTo to deliver to a connected client")
	}
}

func TestHubSendToDisconnectedClient(t *testing.T) {
	hub := NewWSHub()
	go hub.Run()
	defer hub.Shutdown()

	client := newHubClient("tester")
	hub.Register(client)
	waitForOnline(t, hub, 1)
	hub.Unregister(client)
	waitForOnline(t, hub, 0)

	// A CPU-turn failure can notify a caller whose socket dropped during
	// the pacing window; the hub must drop the event, not panic on the
	// closed channel.
	hub.SendTo(client, NewErrorEvent("too late"))
}

func TestHubPublishReachesSubscribersOnly(t *testing.T) {
	hub := NewWSHub()
	go hub.Run()
	defer hub.Shutdown()

	subscriber := newHubClient("subscriber")
	bystander := newHubClient("bystander")
	hub.Register(subscriber)
	hub.Register(bystander)
	waitForOnline(t, hub, 2)
	hub.Subscribe(subscriber, GameTopic("g1"))

	hub.Publish(GameTopic("g1"), NewEvent("gameUpdate", map[string]string{"game_id": "g1"}))

	select {
	case <-subscriber.Send:
	case <-time.After(time.Second):
		t.Fatalf("expected subscriber to receive the published event")
	}
	select {
	case <-bystander.Send:
		t.Fatalf("bystander received an event for a topic it never joined")
	default:
	}
}

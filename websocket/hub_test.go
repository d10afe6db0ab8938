package websocket

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"arguebank/db"
	"arguebank/models"
	"arguebank/services"

	"github.com/gin-gonic/gin"
	gorillaws "github.com/gorilla/websocket"
)

type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func dialTestHub(t *testing.T, hub *Hub) *gorillaws.Conn {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/ws", hub.Handler)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	conn, _, err := gorillaws.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Failed to dial websocket: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	return conn
}

func readEnvelope(t *testing.T, conn *gorillaws.Conn) envelope {
	t.Helper()
	var ev envelope
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatalf("Failed to read event: %v", err)
	}
	return ev
}

func TestObserverReceivesSnapshotOnConnect(t *testing.T) {
	store := db.NewMemStore()
	costs := services.NewCostLedger(store, 10)
	hub := NewHub(store, costs)
	ctx := context.Background()

	round, err := store.CreateRound(ctx, "The moon is cheese", "Disprove The moon is cheese")
	if err != nil {
		t.Fatalf("Failed to create round: %v", err)
	}
	store.AppendMessage(ctx, &models.ChatMessage{RoundID: round.ID, Address: "addr-1", Content: "hello", Response: "no", Cost: 10})
	store.AppendMessage(ctx, &models.ChatMessage{RoundID: round.ID, Address: "addr-1", Content: "please", Response: "still no", Cost: 20})

	conn := dialTestHub(t, hub)

	ev := readEnvelope(t, conn)
	if ev.Event != "chatHistory" {
		t.Fatalf("Expected chatHistory first, got %s", ev.Event)
	}
	var history []HistoryEntry
	if err := json.Unmarshal(ev.Data, &history); err != nil {
		t.Fatalf("Failed to decode history: %v", err)
	}
	if len(history) != 4 {
		t.Errorf("Expected 4 history entries (2 messages x user+assistant), got %d", len(history))
	}
	if history[0].Sender != "User" || history[0].Address != "addr-1" {
		t.Errorf("Unexpected first entry: %+v", history[0])
	}
	if history[1].Sender != "Assistant" || history[1].Address != "" {
		t.Errorf("Unexpected second entry: %+v", history[1])
	}

	ev = readEnvelope(t, conn)
	if ev.Event != "chatState" {
		t.Fatalf("Expected chatState second, got %s", ev.Event)
	}
	var state ChatState
	if err := json.Unmarshal(ev.Data, &state); err != nil {
		t.Fatalf("Failed to decode state: %v", err)
	}
	if state.MessageCost != 30 || state.BankAmount != 30 || state.TopicId != round.ID.Hex() {
		t.Errorf("Unexpected state: %+v", state)
	}
}

func TestObserverPingPong(t *testing.T) {
	store := db.NewMemStore()
	hub := NewHub(store, services.NewCostLedger(store, 10))

	// No rounds yet: no snapshot, the connection just idles.
	conn := dialTestHub(t, hub)

	if err := conn.WriteMessage(gorillaws.TextMessage, []byte("ping")); err != nil {
		t.Fatalf("Failed to write ping: %v", err)
	}
	var pong map[string]string
	if err := conn.ReadJSON(&pong); err != nil {
		t.Fatalf("Failed to read pong: %v", err)
	}
	if pong["type"] != "pong" {
		t.Errorf("Expected pong reply, got %v", pong)
	}
}

func TestBroadcastReachesAllObservers(t *testing.T) {
	store := db.NewMemStore()
	costs := services.NewCostLedger(store, 10)
	hub := NewHub(store, costs)
	ctx := context.Background()

	round, _ := store.CreateRound(ctx, "Go has too many keywords", "Disprove Go has too many keywords")

	first := dialTestHub(t, hub)
	second := dialTestHub(t, hub)
	for _, conn := range []*gorillaws.Conn{first, second} {
		readEnvelope(t, conn) // chatHistory snapshot
		readEnvelope(t, conn) // chatState snapshot
	}

	store.AppendMessage(ctx, &models.ChatMessage{RoundID: round.ID, Content: "new turn", Response: "reply", Cost: 10})
	if err := hub.PublishRound(ctx, round.ID.Hex()); err != nil {
		t.Fatalf("PublishRound failed: %v", err)
	}
	hub.BroadcastConfidence(81)

	for _, conn := range []*gorillaws.Conn{first, second} {
		ev := readEnvelope(t, conn)
		if ev.Event != "chatHistory" {
			t.Errorf("Expected chatHistory push, got %s", ev.Event)
		}
		ev = readEnvelope(t, conn)
		if ev.Event != "chatState" {
			t.Errorf("Expected chatState push, got %s", ev.Event)
		}
		var state ChatState
		json.Unmarshal(ev.Data, &state)
		if state.BankAmount != 10 || state.MessageCost != 20 {
			t.Errorf("Unexpected pushed state: %+v", state)
		}

		ev = readEnvelope(t, conn)
		if ev.Event != "chatConfidence" {
			t.Errorf("Expected chatConfidence push, got %s", ev.Event)
		}
		var confidence map[string]int
		json.Unmarshal(ev.Data, &confidence)
		if confidence["confidence"] != 81 {
			t.Errorf("Expected confidence 81, got %v", confidence)
		}
	}
}

package websocket

import (
	"context"
	"log"
	"net/http"
	"sync"
	"time"

	"arguebank/db"
	"arguebank/models"
	"arguebank/services"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	// In production, adjust the CheckOrigin function to allow only trusted origins.
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// HistoryEntry is one line of the observer-facing transcript.
type HistoryEntry struct {
	Sender  string `json:"sender"`
	Content string `json:"content"`
	Address string `json:"address,omitempty"`
}

// ChatState is the full price/bank snapshot for the round. Every push is a
// complete snapshot, so a dropped push self-heals at the next one.
type ChatState struct {
	MessageCost   int64  `json:"messageCost"`
	BankAmount    int64  `json:"bankAmount"`
	TopicId       string `json:"topicId"`
	TopicFinished bool   `json:"topicFinished,omitempty"`
}

type event struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// client wraps a connection with a write lock; gorilla allows only one
// concurrent writer per connection.
type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *client) send(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(v)
}

// Hub owns the set of connected observers and fans round state out to all
// of them. Delivery is best-effort: a failed write drops the connection.
type Hub struct {
	store db.Store
	costs *services.CostLedger

	mu      sync.Mutex
	clients map[*client]struct{}
}

func NewHub(store db.Store, costs *services.CostLedger) *Hub {
	return &Hub{
		store:   store,
		costs:   costs,
		clients: make(map[*client]struct{}),
	}
}

// Handler upgrades the connection, sends the full snapshot for the latest
// round, then answers every inbound frame with a pong until the peer goes
// away.
func (h *Hub) Handler(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Println("WebSocket upgrade error:", err)
		return
	}

	cl := &client{conn: conn}
	h.mu.Lock()
	h.clients[cl] = struct{}{}
	total := len(h.clients)
	h.mu.Unlock()
	log.Printf("Observer connected (total observers: %d)", total)

	// The snapshot must land before any later broadcast so the observer
	// never misses the gap between connect time and the next push. The
	// request context dies once the connection is hijacked, so use a fresh
	// one for the reads.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := h.sendSnapshot(ctx, cl); err != nil {
		log.Printf("Failed to send initial chat history and state: %v", err)
	}

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			h.drop(cl)
			log.Printf("Observer disconnected: %v", err)
			return
		}
		if err := cl.send(map[string]string{"type": "pong"}); err != nil {
			h.drop(cl)
			return
		}
	}
}

func (h *Hub) drop(cl *client) {
	h.mu.Lock()
	delete(h.clients, cl)
	h.mu.Unlock()
	cl.conn.Close()
}

func (h *Hub) sendSnapshot(ctx context.Context, cl *client) error {
	round, err := h.store.LatestRound(ctx)
	if err == db.ErrNoRounds {
		return nil // nothing to show yet
	}
	if err != nil {
		return err
	}

	roundID := round.ID.Hex()
	history, err := h.store.ListMessages(ctx, roundID)
	if err != nil {
		return err
	}
	if err := cl.send(event{Event: "chatHistory", Data: projectHistory(history)}); err != nil {
		return err
	}

	state, err := h.roundState(ctx, round)
	if err != nil {
		return err
	}
	return cl.send(event{Event: "chatState", Data: state})
}

func (h *Hub) roundState(ctx context.Context, round *models.Round) (ChatState, error) {
	roundID := round.ID.Hex()
	price, err := h.costs.PriceForNextMessage(ctx, roundID)
	if err != nil {
		return ChatState{}, err
	}
	bank, err := h.costs.BankAmount(ctx, roundID)
	if err != nil {
		return ChatState{}, err
	}
	return ChatState{
		MessageCost:   price,
		BankAmount:    bank,
		TopicId:       roundID,
		TopicFinished: round.Completed,
	}, nil
}

// PublishRound pushes the refreshed history and state for a round to every
// observer.
func (h *Hub) PublishRound(ctx context.Context, roundID string) error {
	round, err := h.store.GetRound(ctx, roundID)
	if err != nil {
		return err
	}
	history, err := h.store.ListMessages(ctx, roundID)
	if err != nil {
		return err
	}
	state, err := h.roundState(ctx, round)
	if err != nil {
		return err
	}

	h.broadcast(event{Event: "chatHistory", Data: projectHistory(history)})
	h.broadcast(event{Event: "chatState", Data: state})
	return nil
}

// BroadcastConfidence pushes the latest advisory score to every observer.
func (h *Hub) BroadcastConfidence(score int) {
	h.broadcast(event{Event: "chatConfidence", Data: map[string]int{"confidence": score}})
}

func (h *Hub) broadcast(ev event) {
	h.mu.Lock()
	targets := make([]*client, 0, len(h.clients))
	for cl := range h.clients {
		targets = append(targets, cl)
	}
	h.mu.Unlock()

	for _, cl := range targets {
		if err := cl.send(ev); err != nil {
			log.Printf("WebSocket write error: %v", err)
			h.drop(cl)
		}
	}
}

// projectHistory flattens stored messages into user/assistant entries.
// System-originated entries have no user half.
func projectHistory(messages []models.ChatMessage) []HistoryEntry {
	entries := make([]HistoryEntry, 0, len(messages)*2)
	for _, msg := range messages {
		if msg.Content != "" {
			entries = append(entries, HistoryEntry{
				Sender:  "User",
				Content: msg.Content,
				Address: msg.Address,
			})
		}
		entries = append(entries, HistoryEntry{
			Sender:  "Assistant",
			Content: msg.Response,
		})
	}
	return entries
}

package controllers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"arguebank/db"
	"arguebank/internal/chatguard"
	"arguebank/services"
	"arguebank/websocket"

	"github.com/gin-gonic/gin"
)

type ChatRequest struct {
	TopicId     string `json:"topicId" binding:"required"`
	MessageCost int64  `json:"messageCost" binding:"required"`
	Message     string `json:"message" binding:"required"`
	Address     string `json:"address"`
}

type BankAmountRequest struct {
	TopicId string `json:"topicId" binding:"required"`
}

type NewTopicRequest struct {
	Topic string `json:"topic" binding:"required"`
}

// ChatController wires the orchestration core to the HTTP surface.
type ChatController struct {
	Store        db.Store
	Costs        *services.CostLedger
	Orchestrator *services.Orchestrator
	Scorer       *services.ConfidenceScorer
	Hub          *websocket.Hub
	Guard        *chatguard.Guard
}

// Chat handles one paid turn. The response is terse: outcome only. The
// reply text reaches every observer through the broadcast channel instead.
func (cc *ChatController) Chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "Invalid request payload"})
		return
	}

	if !cc.Guard.Allow(c.Request.Context(), req.Address) {
		c.JSON(http.StatusTooManyRequests, gin.H{"status": "error", "message": "Too many messages, slow down"})
		return
	}

	result, err := cc.Orchestrator.HandleTurn(c.Request.Context(), req.TopicId, req.MessageCost, req.Message, req.Address)
	if err != nil {
		status, message := turnError(err)
		log.Printf("Turn failed for round %s: %v", req.TopicId, err)
		c.JSON(status, gin.H{"status": "error", "message": message})
		return
	}

	go cc.publishTurn(req.TopicId)

	c.JSON(http.StatusOK, gin.H{"result": string(result)})
}

// publishTurn refreshes every observer after a persisted turn and then,
// independently, pushes the advisory confidence score. Runs outside the
// request and outside the round lock.
func (cc *ChatController) publishTurn(roundID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	if err := cc.Hub.PublishRound(ctx, roundID); err != nil {
		log.Printf("Failed to broadcast chat history: %v", err)
		return
	}

	history, err := cc.Store.ListMessages(ctx, roundID)
	if err != nil {
		log.Printf("Failed to load transcript for scoring: %v", err)
		return
	}
	cc.Hub.BroadcastConfidence(cc.Scorer.Score(ctx, services.ProjectTurns(history)))
}

// turnError maps core failures to a status code and a terse, non-leaking
// message. Rich detail stays in the server log.
func turnError(err error) (int, string) {
	switch {
	case errors.Is(err, db.ErrNotFound):
		return http.StatusNotFound, "Topic not found"
	case errors.Is(err, services.ErrCostMismatch):
		return http.StatusBadRequest, "Incorrect message cost"
	case errors.Is(err, services.ErrRoundClosed):
		return http.StatusBadRequest, "Topic already completed"
	case errors.Is(err, services.ErrInference):
		return http.StatusBadGateway, "Assistant is unavailable, try again"
	default:
		return http.StatusInternalServerError, "Internal error"
	}
}

// BankAmount returns the current pool for a round. A store failure is an
// error response, never a zero amount.
func (cc *ChatController) BankAmount(c *gin.Context) {
	var req BankAmountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "Topic ID is required"})
		return
	}

	bank, err := cc.Costs.BankAmount(c.Request.Context(), req.TopicId)
	if err != nil {
		status, message := turnError(err)
		log.Printf("Bank amount read failed for round %s: %v", req.TopicId, err)
		c.JSON(status, gin.H{"status": "error", "message": message})
		return
	}
	c.JSON(http.StatusOK, gin.H{"bankAmount": bank})
}

// CreateTopic opens a new round. The short description is derived from the
// belief statement.
func (cc *ChatController) CreateTopic(c *gin.Context) {
	var req NewTopicRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "Topic is required"})
		return
	}

	round, err := cc.Store.CreateRound(c.Request.Context(), req.Topic, "Disprove "+req.Topic)
	if err != nil {
		log.Printf("Failed to create round: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "Failed to create new topic"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "topic": round})
}

// TopicShortDesc returns the user-facing summary for a round.
func (cc *ChatController) TopicShortDesc(c *gin.Context) {
	topicId := c.Query("topicId")
	if topicId == "" {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "Topic ID is required"})
		return
	}

	round, err := cc.Store.GetRound(c.Request.Context(), topicId)
	if errors.Is(err, db.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"status": "error", "message": "Topic not found"})
		return
	}
	if err != nil {
		log.Printf("Failed to fetch round %s: %v", topicId, err)
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "Failed to retrieve topic"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "short_desc": round.ShortDesc})
}

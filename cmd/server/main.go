package main

import (
	"context"
	"log"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"arguebank/config"
	"arguebank/controllers"
	"arguebank/db"
	"arguebank/internal/chatguard"
	"arguebank/routes"
	"arguebank/services"
	"arguebank/treasury"
	"arguebank/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	// Load the configuration from the specified YAML file
	cfg, err := config.LoadConfig("./config/config.prod.yml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	store, err := db.ConnectMongo(cfg.Database.URI)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	log.Println("Connected to MongoDB")

	geminiClient, err := services.NewGeminiClient(context.Background(), cfg.Gemini.ApiKey)
	if err != nil {
		log.Fatalf("Failed to initialize Gemini client: %v", err)
	}

	inferenceTimeout := time.Duration(cfg.Game.InferenceTimeoutSec) * time.Second
	treasuryTimeout := time.Duration(cfg.Game.TreasuryTimeoutSec) * time.Second

	ledger := treasury.New(cfg.Treasury.URL, cfg.Treasury.ProgramId, treasuryTimeout)
	costs := services.NewCostLedger(store, cfg.Game.MessageCostIncrement)
	payouts := services.NewPayoutCoordinator(store, ledger, cfg.Game.PlatformFee)
	chat := services.NewGeminiChat(geminiClient, cfg.Gemini.ChatModel, inferenceTimeout)
	judge := services.NewGeminiJudge(geminiClient, cfg.Gemini.JudgeModel, inferenceTimeout)
	orchestrator := services.NewOrchestrator(store, costs, chat, payouts)
	hub := websocket.NewHub(store, costs)

	var guard *chatguard.Guard
	if cfg.Redis.Addr != "" {
		cooldown := time.Duration(cfg.Game.ChatCooldownSec) * time.Second
		guard, err = chatguard.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cooldown)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		log.Println("Chat cooldown enabled")
	}

	controller := &controllers.ChatController{
		Store:        store,
		Costs:        costs,
		Orchestrator: orchestrator,
		Scorer:       services.NewConfidenceScorer(judge),
		Hub:          hub,
		Guard:        guard,
	}

	router := setupRouter(cfg, controller, hub)
	port := strconv.Itoa(cfg.Server.Port)
	log.Printf("Server starting on port %s", port)

	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func setupRouter(cfg *config.Config, controller *controllers.ChatController, hub *websocket.Hub) *gin.Engine {
	router := gin.Default()

	router.SetTrustedProxies([]string{"127.0.0.1", "localhost"})

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
	}))

	routes.SetupGameRoutes(router, controller, hub)

	// Serve the built web client; unknown GETs fall through to the SPA.
	if cfg.Static.Dir != "" {
		router.Static("/static", filepath.Join(cfg.Static.Dir, "static"))
		router.NoRoute(func(c *gin.Context) {
			if c.Request.Method == http.MethodGet {
				c.File(filepath.Join(cfg.Static.Dir, "index.html"))
				return
			}
			c.JSON(http.StatusNotFound, gin.H{"status": "error", "message": "Not found"})
		})
	}

	return router
}

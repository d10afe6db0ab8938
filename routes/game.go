package routes

import (
	"arguebank/controllers"
	"arguebank/websocket"

	"github.com/gin-gonic/gin"
)

// SetupGameRoutes registers the round-game endpoints and the observer
// websocket.
func SetupGameRoutes(router *gin.Engine, cc *controllers.ChatController, hub *websocket.Hub) {
	router.POST("/chat", cc.Chat)
	router.POST("/get-bank-amount", cc.BankAmount)
	router.POST("/set-new-topic", cc.CreateTopic)
	router.GET("/get-topic-short-desc", cc.TopicShortDesc)
	router.GET("/ws", hub.Handler)
}

package routes

import (
	"botstudio/internal/apis/middlewares"
	"botstudio/internal/di"
	"log"

	"github.com/gin-gonic/gin"
)

func SetupInteractionRoutes(router *gin.Engine) {
	interactionHandler, err := di.GetInteractionHandler()
	if err != nil {
		log.Fatalf("Failed to get interaction handler: %v", err)
	}

	interactions := router.Group("/api/interactions")
	interactions.Use(middlewares.AuthMiddleware())
	{
		interactions.POST("/", interactionHandler.Create)
		interactions.GET("/:id", interactionHandler.Get)
		interactions.PUT("/:id", interactionHandler.Update)
		interactions.DELETE("/:id", interactionHandler.Delete)
		interactions.POST("/:id/move", interactionHandler.Move)
		interactions.POST("/:id/comments", interactionHandler.AddComment)
		interactions.POST("/:id/update-reference-children", interactionHandler.UpdateReferenceChildren)
		interactions.POST("/:id/suggest-phrases", interactionHandler.SuggestPhrases)
	}

	bots := router.Group("/api/bots")
	bots.Use(middlewares.AuthMiddleware())
	{
		bots.GET("/:botId/interactions", interactionHandler.ListByBot)
	}
}

package routes

import (
	"botstudio/internal/apis/middlewares"
	"botstudio/internal/di"
	"log"

	"github.com/gin-gonic/gin"
)

func SetupPublicationRoutes(router *gin.Engine) {
	publicationHandler, err := di.GetPublicationHandler()
	if err != nil {
		log.Fatalf("Failed to get publication handler: %v", err)
	}

	bots := router.Group("/api/bots")
	bots.Use(middlewares.AuthMiddleware())
	{
		bots.POST("/:botId/publish", publicationHandler.Publish)
		bots.GET("/:botId/pending-publication", publicationHandler.GetPendingPublication)
		bots.GET("/:botId/publish-errors", publicationHandler.GetPublishErrors)
	}

	interactions := router.Group("/api/interactions")
	interactions.Use(middlewares.AuthMiddleware())
	{
		interactions.POST("/:id/publish", publicationHandler.PublishInteraction)
	}

	workspaces := router.Group("/api/workspaces")
	workspaces.Use(middlewares.AuthMiddleware())
	{
		workspaces.POST("/:workspaceId/bots/:botId/sync", publicationHandler.Sync)
	}
}

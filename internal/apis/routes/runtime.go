package routes

import (
	"botstudio/internal/di"
	"log"

	"github.com/gin-gonic/gin"
)

// Runtime routes serve the published snapshot to the conversation engine and
// are not behind the authoring JWT middleware.
func SetupRuntimeRoutes(router *gin.Engine) {
	runtimeHandler, err := di.GetRuntimeHandler()
	if err != nil {
		log.Fatalf("Failed to get runtime handler: %v", err)
	}

	runtime := router.Group("/api/runtime")
	{
		runtime.GET("/bots/:botId/interactions/:id", runtimeHandler.GetPublishedInteraction)
	}
}

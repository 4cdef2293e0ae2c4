package handlers

import (
	"botstudio/internal/apis/dtos"
	"botstudio/internal/services"
	"log"

	"github.com/gin-gonic/gin"
)

// RuntimeHandler serves the published snapshot to the conversation engine.
type RuntimeHandler struct {
	runtimeService services.RuntimeService
}

func NewRuntimeHandler(runtimeService services.RuntimeService) *RuntimeHandler {
	if runtimeService == nil {
		log.Fatal("Runtime service cannot be nil")
	}
	return &RuntimeHandler{
		runtimeService: runtimeService,
	}
}

func (h *RuntimeHandler) GetPublishedInteraction(c *gin.Context) {
	response, statusCode, err := h.runtimeService.GetPublishedInteraction(c.Request.Context(), c.Param("botId"), c.Param("id"))
	if err != nil {
		errorMsg := err.Error()
		c.JSON(int(statusCode), dtos.Response{
			Success: false,
			Error:   &errorMsg,
		})
		return
	}

	c.JSON(int(statusCode), dtos.Response{
		Success: true,
		Data:    response,
	})
}

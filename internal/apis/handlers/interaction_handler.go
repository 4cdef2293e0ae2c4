package handlers

import (
	"botstudio/internal/apis/dtos"
	"botstudio/internal/services"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

type InteractionHandler struct {
	interactionService services.InteractionService
	suggestionService  services.SuggestionService
}

func NewInteractionHandler(interactionService services.InteractionService, suggestionService services.SuggestionService) *InteractionHandler {
	if interactionService == nil {
		log.Fatal("Interaction service cannot be nil")
	}
	return &InteractionHandler{
		interactionService: interactionService,
		suggestionService:  suggestionService,
	}
}

func (h *InteractionHandler) Create(c *gin.Context) {
	var req dtos.CreateInteractionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorMsg := err.Error()
		c.JSON(http.StatusBadRequest, dtos.Response{
			Success: false,
			Error:   &errorMsg,
		})
		return
	}

	userID := c.GetString("userID")
	response, statusCode, err := h.interactionService.CreateInteraction(c.Request.Context(), userID, &req)
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

func (h *InteractionHandler) Update(c *gin.Context) {
	var req dtos.UpdateInteractionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorMsg := err.Error()
		c.JSON(http.StatusBadRequest, dtos.Response{
			Success: false,
			Error:   &errorMsg,
		})
		return
	}

	userID := c.GetString("userID")
	response, statusCode, err := h.interactionService.UpdateInteraction(c.Request.Context(), userID, c.Param("id"), &req)
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

func (h *InteractionHandler) Move(c *gin.Context) {
	var req dtos.MoveInteractionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorMsg := err.Error()
		c.JSON(http.StatusBadRequest, dtos.Response{
			Success: false,
			Error:   &errorMsg,
		})
		return
	}

	userID := c.GetString("userID")
	response, statusCode, err := h.interactionService.MoveInteraction(c.Request.Context(), userID, c.Param("id"), &req)
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

func (h *InteractionHandler) Delete(c *gin.Context) {
	userID := c.GetString("userID")
	statusCode, err := h.interactionService.DeleteInteraction(c.Request.Context(), userID, c.Param("id"))
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
		Data:    "Interaction deleted",
	})
}

func (h *InteractionHandler) Get(c *gin.Context) {
	response, statusCode, err := h.interactionService.GetInteraction(c.Request.Context(), c.Param("id"))
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

func (h *InteractionHandler) ListByBot(c *gin.Context) {
	response, statusCode, err := h.interactionService.ListInteractions(c.Request.Context(), c.Param("botId"))
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

func (h *InteractionHandler) AddComment(c *gin.Context) {
	var req dtos.AddCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorMsg := err.Error()
		c.JSON(http.StatusBadRequest, dtos.Response{
			Success: false,
			Error:   &errorMsg,
		})
		return
	}

	userID := c.GetString("userID")
	response, statusCode, err := h.interactionService.AddComment(c.Request.Context(), userID, c.Param("id"), &req)
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

func (h *InteractionHandler) UpdateReferenceChildren(c *gin.Context) {
	userID := c.GetString("userID")
	response, statusCode, err := h.interactionService.UpdateReferenceChildren(c.Request.Context(), userID, c.Param("id"))
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

func (h *InteractionHandler) SuggestPhrases(c *gin.Context) {
	var req dtos.SuggestPhrasesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorMsg := err.Error()
		c.JSON(http.StatusBadRequest, dtos.Response{
			Success: false,
			Error:   &errorMsg,
		})
		return
	}

	response, statusCode, err := h.suggestionService.SuggestPhrases(c.Request.Context(), c.Param("id"), &req)
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

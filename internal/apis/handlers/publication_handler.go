package handlers

import (
	"botstudio/internal/apis/dtos"
	"botstudio/internal/apperrors"
	"botstudio/internal/services"
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

type PublicationHandler struct {
	publicationService services.PublicationService
	nluSyncService     services.NLUSyncService
}

func NewPublicationHandler(publicationService services.PublicationService, nluSyncService services.NLUSyncService) *PublicationHandler {
	if publicationService == nil {
		log.Fatal("Publication service cannot be nil")
	}
	return &PublicationHandler{
		publicationService: publicationService,
		nluSyncService:     nluSyncService,
	}
}

func (h *PublicationHandler) Publish(c *gin.Context) {
	var req dtos.PublishRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		errorMsg := err.Error()
		c.JSON(http.StatusBadRequest, dtos.Response{
			Success: false,
			Error:   &errorMsg,
		})
		return
	}

	userID := c.GetString("userID")
	response, statusCode, err := h.publicationService.Publish(c.Request.Context(), userID, c.Param("botId"), &req)
	if err != nil {
		h.respondError(c, statusCode, err)
		return
	}

	c.JSON(int(statusCode), dtos.Response{
		Success: true,
		Data:    response,
	})
}

func (h *PublicationHandler) PublishInteraction(c *gin.Context) {
	userID := c.GetString("userID")
	response, statusCode, err := h.publicationService.PublishInteraction(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		h.respondError(c, statusCode, err)
		return
	}

	c.JSON(int(statusCode), dtos.Response{
		Success: true,
		Data:    response,
	})
}

func (h *PublicationHandler) GetPendingPublication(c *gin.Context) {
	response, statusCode, err := h.publicationService.GetPendingPublication(c.Request.Context(), c.Param("botId"))
	if err != nil {
		h.respondError(c, statusCode, err)
		return
	}

	c.JSON(int(statusCode), dtos.Response{
		Success: true,
		Data:    response,
	})
}

func (h *PublicationHandler) GetPublishErrors(c *gin.Context) {
	response, statusCode, err := h.publicationService.GetPublishErrors(c.Request.Context(), c.Param("botId"))
	if err != nil {
		h.respondError(c, statusCode, err)
		return
	}

	c.JSON(int(statusCode), dtos.Response{
		Success: true,
		Data:    response,
	})
}

func (h *PublicationHandler) Sync(c *gin.Context) {
	response, statusCode, err := h.nluSyncService.Sync(c.Request.Context(), c.Param("workspaceId"), c.Param("botId"))
	if err != nil {
		h.respondError(c, statusCode, err)
		return
	}

	c.JSON(int(statusCode), dtos.Response{
		Success: true,
		Data:    response,
	})
}

// respondError surfaces a blocked publish with its full failure list so the
// authoring UI can highlight every offending node at once.
func (h *PublicationHandler) respondError(c *gin.Context, statusCode uint32, err error) {
	var validationErr *apperrors.PublishValidationError
	if errors.As(err, &validationErr) {
		errorMsg := validationErr.Error()
		c.JSON(int(statusCode), dtos.Response{
			Success: false,
			Error:   &errorMsg,
			Data: dtos.PublishErrorsResponse{
				BotID:    validationErr.BotID,
				Failures: validationErr.Failures,
			},
		})
		return
	}

	errorMsg := err.Error()
	c.JSON(int(statusCode), dtos.Response{
		Success: false,
		Error:   &errorMsg,
	})
}

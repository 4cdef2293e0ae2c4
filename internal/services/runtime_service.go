package services

import (
	"botstudio/internal/apis/dtos"
	"botstudio/internal/cache"
	"botstudio/internal/repositories"
	"context"
	"fmt"
	"log"
	"net/http"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RuntimeService is the read surface the conversation engine uses. It only
// ever sees published snapshots, via the cache.
type RuntimeService interface {
	GetPublishedInteraction(ctx context.Context, botID, id string) (*dtos.InteractionResponse, uint32, error)
}

type runtimeService struct {
	interactionRepo  repositories.InteractionRepository
	interactionCache cache.InteractionCache
}

func NewRuntimeService(interactionRepo repositories.InteractionRepository, interactionCache cache.InteractionCache) RuntimeService {
	return &runtimeService{
		interactionRepo:  interactionRepo,
		interactionCache: interactionCache,
	}
}

func (s *runtimeService) GetPublishedInteraction(ctx context.Context, botID, id string) (*dtos.InteractionResponse, uint32, error) {
	botObjectID, err := primitive.ObjectIDFromHex(botID)
	if err != nil {
		return nil, http.StatusBadRequest, fmt.Errorf("invalid bot ID format")
	}
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, http.StatusBadRequest, fmt.Errorf("invalid interaction ID format")
	}

	key := cache.InteractionKey{InteractionID: id, Published: true}
	if cached, ok := s.interactionCache.Get(ctx, key); ok {
		if cached.BotID != botObjectID {
			return nil, http.StatusNotFound, fmt.Errorf("interaction not found")
		}
		return &dtos.InteractionResponse{Interaction: cached}, http.StatusOK, nil
	}

	interaction, err := s.interactionRepo.FindPublishedByID(ctx, objectID)
	if err != nil {
		return nil, http.StatusInternalServerError, err
	}
	if interaction == nil || interaction.BotID != botObjectID {
		return nil, http.StatusNotFound, fmt.Errorf("interaction not found")
	}

	if err := s.interactionCache.Set(ctx, key, interaction); err != nil {
		log.Printf("RuntimeService -> GetPublishedInteraction -> cache set failed: %v", err)
	}

	return &dtos.InteractionResponse{Interaction: interaction}, http.StatusOK, nil
}

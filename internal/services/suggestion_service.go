package services

import (
	"botstudio/config"
	"botstudio/internal/apis/dtos"
	"botstudio/internal/repositories"
	"botstudio/pkg/llm"
	"context"
	"fmt"
	"net/http"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const defaultSuggestionCount = 5

// SuggestionService proposes extra training phrases for a node. Advisory
// only; nothing is persisted until the author saves the node themselves.
type SuggestionService interface {
	SuggestPhrases(ctx context.Context, id string, request *dtos.SuggestPhrasesRequest) (*dtos.SuggestPhrasesResponse, uint32, error)
}

type suggestionService struct {
	interactionRepo repositories.InteractionRepository
	llmManager      *llm.Manager
}

func NewSuggestionService(interactionRepo repositories.InteractionRepository, llmManager *llm.Manager) SuggestionService {
	return &suggestionService{
		interactionRepo: interactionRepo,
		llmManager:      llmManager,
	}
}

func (s *suggestionService) SuggestPhrases(ctx context.Context, id string, request *dtos.SuggestPhrasesRequest) (*dtos.SuggestPhrasesResponse, uint32, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, http.StatusBadRequest, fmt.Errorf("invalid interaction ID format")
	}
	interaction, err := s.interactionRepo.FindByID(ctx, objectID)
	if err != nil {
		return nil, http.StatusInternalServerError, err
	}
	if interaction == nil || interaction.IsDeleted() {
		return nil, http.StatusNotFound, fmt.Errorf("interaction not found")
	}

	client, err := s.llmManager.GetClient(config.Env.DefaultSuggestionClient)
	if err != nil {
		return nil, http.StatusServiceUnavailable, fmt.Errorf("no suggestion model configured")
	}

	count := request.Count
	if count <= 0 {
		count = defaultSuggestionCount
	}

	existing := interaction.UserSaysAll()
	if request.Language != "" {
		for _, language := range interaction.Languages {
			if language.Language == request.Language {
				existing = language.UserSays
				break
			}
		}
	}

	suggestions, err := client.SuggestTrainingPhrases(ctx, interaction.Name, existing, count)
	if err != nil {
		return nil, http.StatusBadGateway, fmt.Errorf("suggestion model call failed: %w", err)
	}

	return &dtos.SuggestPhrasesResponse{
		InteractionID: id,
		Suggestions:   suggestions,
	}, http.StatusOK, nil
}

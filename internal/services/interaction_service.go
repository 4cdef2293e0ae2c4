package services

import (
	"botstudio/internal/apis/dtos"
	"botstudio/internal/apperrors"
	"botstudio/internal/cache"
	"botstudio/internal/constants"
	"botstudio/internal/models"
	"botstudio/internal/repositories"
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// InteractionService is the node store of the dialog tree. Every edit goes
// through here so paths, derived parameters, intent validation, audit history
// and the provider hooks stay in lockstep.
type InteractionService interface {
	CreateInteraction(ctx context.Context, userID string, request *dtos.CreateInteractionRequest) (*dtos.InteractionResponse, uint32, error)
	UpdateInteraction(ctx context.Context, userID, id string, request *dtos.UpdateInteractionRequest) (*dtos.InteractionResponse, uint32, error)
	MoveInteraction(ctx context.Context, userID, id string, request *dtos.MoveInteractionRequest) (*dtos.InteractionResponse, uint32, error)
	DeleteInteraction(ctx context.Context, userID, id string) (uint32, error)
	GetInteraction(ctx context.Context, id string) (*dtos.InteractionResponse, uint32, error)
	ListInteractions(ctx context.Context, botID string) (*dtos.InteractionListResponse, uint32, error)
	AddComment(ctx context.Context, userID, id string, request *dtos.AddCommentRequest) (*dtos.InteractionResponse, uint32, error)
	UpdateReferenceChildren(ctx context.Context, userID, sourceID string) (*dtos.ReferenceFanoutResponse, uint32, error)
}

type interactionService struct {
	interactionRepo  repositories.InteractionRepository
	pathResolver     PathResolver
	intentValidator  IntentValidator
	historyService   HistoryService
	nluSync          NLUSyncService
	interactionCache cache.InteractionCache
}

func NewInteractionService(
	interactionRepo repositories.InteractionRepository,
	pathResolver PathResolver,
	intentValidator IntentValidator,
	historyService HistoryService,
	nluSync NLUSyncService,
	interactionCache cache.InteractionCache,
) InteractionService {
	return &interactionService{
		interactionRepo:  interactionRepo,
		pathResolver:     pathResolver,
		intentValidator:  intentValidator,
		historyService:   historyService,
		nluSync:          nluSync,
		interactionCache: interactionCache,
	}
}

func (s *interactionService) CreateInteraction(ctx context.Context, userID string, request *dtos.CreateInteractionRequest) (*dtos.InteractionResponse, uint32, error) {
	botID, err := primitive.ObjectIDFromHex(request.BotID)
	if err != nil {
		return nil, http.StatusBadRequest, fmt.Errorf("invalid bot ID format")
	}
	workspaceID, err := primitive.ObjectIDFromHex(request.WorkspaceID)
	if err != nil {
		return nil, http.StatusBadRequest, fmt.Errorf("invalid workspace ID format")
	}
	if !constants.IsValidInteractionType(request.Type) {
		return nil, http.StatusBadRequest, fmt.Errorf("unknown interaction type: %s", request.Type)
	}

	var parentID *primitive.ObjectID
	if request.ParentID != nil {
		parsed, err := primitive.ObjectIDFromHex(*request.ParentID)
		if err != nil {
			return nil, http.StatusBadRequest, fmt.Errorf("invalid parent ID format")
		}
		parent, err := s.interactionRepo.FindByID(ctx, parsed)
		if err != nil {
			return nil, http.StatusInternalServerError, err
		}
		if parent == nil || parent.IsDeleted() {
			return nil, http.StatusNotFound, fmt.Errorf("parent interaction not found")
		}
		if parent.BotID != botID {
			return nil, http.StatusBadRequest, fmt.Errorf("parent interaction belongs to another bot")
		}
		parentID = &parsed
	}

	if status, err := s.checkSingletons(ctx, botID, request.Type, parentID, primitive.NilObjectID); err != nil {
		return nil, status, err
	}

	interaction := models.NewInteraction(botID, workspaceID, request.Name, request.Type)
	interaction.ParentID = parentID
	interaction.Position = request.Position
	interaction.Languages = request.Languages
	interaction.Triggers = request.Triggers
	interaction.LastUpdateBy = lastUpdateFor(userID)

	if request.Reference != nil {
		sourceID, err := primitive.ObjectIDFromHex(*request.Reference)
		if err != nil {
			return nil, http.StatusBadRequest, fmt.Errorf("invalid reference ID format")
		}
		source, err := s.interactionRepo.FindByID(ctx, sourceID)
		if err != nil {
			return nil, http.StatusInternalServerError, err
		}
		if source == nil || source.IsDeleted() {
			return nil, http.StatusNotFound, fmt.Errorf("reference interaction not found")
		}
		// Content is copied once at creation; later edits to the source only
		// reach this node through the explicit fan-out operation.
		interaction.Reference = &sourceID
		interaction.Languages = cloneLanguages(source.Languages)
		interaction.Triggers = append([]string(nil), source.Triggers...)
	}

	paths, err := s.pathResolver.ResolveForParent(ctx, botID, parentID)
	if err != nil {
		return nil, statusForDomainError(err), err
	}
	interaction.Path = paths.Path
	interaction.CompletePath = paths.CompletePath

	DeriveAttributes(interaction)

	if err := s.intentValidator.ValidateInteraction(ctx, interaction); err != nil {
		return nil, statusForDomainError(err), err
	}

	if err := s.interactionRepo.Create(ctx, interaction); err != nil {
		log.Printf("InteractionService -> CreateInteraction -> persist failed: %v", err)
		return nil, http.StatusInternalServerError, fmt.Errorf("failed to create interaction")
	}
	if parentID != nil {
		if err := s.interactionRepo.AddChild(ctx, *parentID, interaction.ID); err != nil {
			return nil, http.StatusInternalServerError, err
		}
	}

	s.recordHistory(ctx, userID, interaction)

	if err := s.nluSync.OnInteractionCreated(ctx, interaction); err != nil {
		// Provider failures never block the local edit.
		log.Printf("InteractionService -> CreateInteraction -> NLU hook failed for %s: %v", interaction.ID.Hex(), err)
	}

	return &dtos.InteractionResponse{Interaction: interaction}, http.StatusCreated, nil
}

func (s *interactionService) UpdateInteraction(ctx context.Context, userID, id string, request *dtos.UpdateInteractionRequest) (*dtos.InteractionResponse, uint32, error) {
	interaction, status, err := s.loadActive(ctx, id)
	if err != nil {
		return nil, status, err
	}

	before := *interaction

	if request.Name != nil {
		interaction.Name = *request.Name
	}
	if request.Languages != nil {
		interaction.Languages = *request.Languages
	}
	if request.Triggers != nil {
		interaction.Triggers = *request.Triggers
	}
	if request.Position != nil {
		interaction.Position = *request.Position
	}
	interaction.LastUpdateBy = lastUpdateFor(userID)

	DeriveAttributes(interaction)

	if err := s.intentValidator.ValidateInteraction(ctx, interaction); err != nil {
		return nil, statusForDomainError(err), err
	}

	if err := s.interactionRepo.Update(ctx, interaction.ID, interaction); err != nil {
		log.Printf("InteractionService -> UpdateInteraction -> persist failed: %v", err)
		return nil, http.StatusInternalServerError, fmt.Errorf("failed to update interaction")
	}

	s.recordHistory(ctx, userID, interaction)
	s.invalidateDraft(ctx, interaction.ID)

	if err := s.nluSync.OnInteractionUpdated(ctx, &before, interaction); err != nil {
		log.Printf("InteractionService -> UpdateInteraction -> NLU hook failed for %s: %v", interaction.ID.Hex(), err)
	}

	return &dtos.InteractionResponse{Interaction: interaction}, http.StatusOK, nil
}

func (s *interactionService) MoveInteraction(ctx context.Context, userID, id string, request *dtos.MoveInteractionRequest) (*dtos.InteractionResponse, uint32, error) {
	interaction, status, err := s.loadActive(ctx, id)
	if err != nil {
		return nil, status, err
	}

	var newParentID *primitive.ObjectID
	if request.NewParentID != nil {
		parsed, err := primitive.ObjectIDFromHex(*request.NewParentID)
		if err != nil {
			return nil, http.StatusBadRequest, fmt.Errorf("invalid parent ID format")
		}
		if parsed == interaction.ID {
			return nil, http.StatusBadRequest, fmt.Errorf("cannot move an interaction under itself")
		}
		newParent, err := s.interactionRepo.FindByID(ctx, parsed)
		if err != nil {
			return nil, http.StatusInternalServerError, err
		}
		if newParent == nil || newParent.IsDeleted() {
			return nil, http.StatusNotFound, fmt.Errorf("parent interaction not found")
		}
		if newParent.BotID != interaction.BotID {
			return nil, http.StatusBadRequest, fmt.Errorf("parent interaction belongs to another bot")
		}
		if newParent.HasInPath(interaction.ID) {
			return nil, http.StatusBadRequest, fmt.Errorf("cannot move an interaction under its own descendant")
		}
		newParentID = &parsed
	}

	if interaction.Type == constants.InteractionTypeContextFallback {
		if status, err := s.checkSingletons(ctx, interaction.BotID, interaction.Type, newParentID, interaction.ID); err != nil {
			return nil, status, err
		}
	}

	descendants, err := s.interactionRepo.FindDescendants(ctx, interaction.BotID, interaction.ID)
	if err != nil {
		return nil, http.StatusInternalServerError, err
	}

	oldParentID := interaction.ParentID
	interaction.ParentID = newParentID
	interaction.Position = request.Position
	interaction.LastUpdateBy = lastUpdateFor(userID)

	paths, err := s.pathResolver.ResolveForParent(ctx, interaction.BotID, newParentID)
	if err != nil {
		return nil, statusForDomainError(err), err
	}
	interaction.Path = paths.Path
	interaction.CompletePath = paths.CompletePath

	if err := s.interactionRepo.Update(ctx, interaction.ID, interaction); err != nil {
		return nil, http.StatusInternalServerError, err
	}

	// Subtree paths are recomputed from one in-memory arena so every
	// descendant sees the already-moved node.
	active, err := s.interactionRepo.FindActiveByBot(ctx, interaction.BotID)
	if err != nil {
		return nil, http.StatusInternalServerError, err
	}
	arena := buildArena(active)
	arena[interaction.ID] = interaction
	for _, descendant := range descendants {
		descendantPaths, err := s.pathResolver.ResolveFromArena(arena, interaction.BotID, descendant.ParentID)
		if err != nil {
			return nil, statusForDomainError(err), err
		}
		descendant.Path = descendantPaths.Path
		descendant.CompletePath = descendantPaths.CompletePath
		if err := s.interactionRepo.Update(ctx, descendant.ID, descendant); err != nil {
			return nil, http.StatusInternalServerError, err
		}
		if stored, ok := arena[descendant.ID]; ok {
			stored.Path = descendant.Path
			stored.CompletePath = descendant.CompletePath
		}
		s.invalidateDraft(ctx, descendant.ID)
	}

	if oldParentID != nil {
		if err := s.interactionRepo.RemoveChild(ctx, *oldParentID, interaction.ID); err != nil {
			return nil, http.StatusInternalServerError, err
		}
	}
	if newParentID != nil {
		if err := s.interactionRepo.AddChild(ctx, *newParentID, interaction.ID); err != nil {
			return nil, http.StatusInternalServerError, err
		}
	}

	s.recordHistory(ctx, userID, interaction)
	s.invalidateDraft(ctx, interaction.ID)

	return &dtos.InteractionResponse{Interaction: interaction}, http.StatusOK, nil
}

func (s *interactionService) DeleteInteraction(ctx context.Context, userID, id string) (uint32, error) {
	interaction, status, err := s.loadActive(ctx, id)
	if err != nil {
		return status, err
	}

	if interaction.Type == constants.InteractionTypeWelcome || interaction.Type == constants.InteractionTypeFallback {
		return http.StatusConflict, fmt.Errorf("a bot's %s interaction cannot be deleted", interaction.Type)
	}

	descendants, err := s.interactionRepo.FindDescendants(ctx, interaction.BotID, interaction.ID)
	if err != nil {
		return http.StatusInternalServerError, err
	}

	// The document delete itself never cascades; the whole subtree is marked
	// here with one timestamp so the publish diff sees it as a single batch.
	deletedAt := time.Now()
	if err := s.interactionRepo.SoftDelete(ctx, interaction.ID, deletedAt); err != nil {
		log.Printf("InteractionService -> DeleteInteraction -> persist failed: %v", err)
		return http.StatusInternalServerError, fmt.Errorf("failed to delete interaction")
	}
	interaction.DeletedAt = &deletedAt

	for _, descendant := range descendants {
		if err := s.interactionRepo.SoftDelete(ctx, descendant.ID, deletedAt); err != nil {
			return http.StatusInternalServerError, err
		}
		descendant.DeletedAt = &deletedAt
		s.recordHistory(ctx, userID, descendant)
		s.invalidateDraft(ctx, descendant.ID)
	}

	if interaction.ParentID != nil {
		if err := s.interactionRepo.RemoveChild(ctx, *interaction.ParentID, interaction.ID); err != nil {
			return http.StatusInternalServerError, err
		}
	}

	s.recordHistory(ctx, userID, interaction)
	s.invalidateDraft(ctx, interaction.ID)

	return http.StatusOK, nil
}

func (s *interactionService) GetInteraction(ctx context.Context, id string) (*dtos.InteractionResponse, uint32, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, http.StatusBadRequest, fmt.Errorf("invalid interaction ID format")
	}

	key := cache.InteractionKey{InteractionID: id, Published: false}
	if cached, ok := s.interactionCache.Get(ctx, key); ok {
		return &dtos.InteractionResponse{Interaction: cached}, http.StatusOK, nil
	}

	interaction, err := s.interactionRepo.FindByID(ctx, objectID)
	if err != nil {
		return nil, http.StatusInternalServerError, err
	}
	if interaction == nil || interaction.IsDeleted() {
		return nil, http.StatusNotFound, fmt.Errorf("interaction not found")
	}

	if err := s.interactionCache.Set(ctx, key, interaction); err != nil {
		log.Printf("InteractionService -> GetInteraction -> cache set failed: %v", err)
	}

	return &dtos.InteractionResponse{Interaction: interaction}, http.StatusOK, nil
}

func (s *interactionService) ListInteractions(ctx context.Context, botID string) (*dtos.InteractionListResponse, uint32, error) {
	botObjectID, err := primitive.ObjectIDFromHex(botID)
	if err != nil {
		return nil, http.StatusBadRequest, fmt.Errorf("invalid bot ID format")
	}

	interactions, err := s.interactionRepo.FindActiveByBot(ctx, botObjectID)
	if err != nil {
		return nil, http.StatusInternalServerError, err
	}

	return &dtos.InteractionListResponse{Interactions: interactions, Total: len(interactions)}, http.StatusOK, nil
}

func (s *interactionService) AddComment(ctx context.Context, userID, id string, request *dtos.AddCommentRequest) (*dtos.InteractionResponse, uint32, error) {
	interaction, status, err := s.loadActive(ctx, id)
	if err != nil {
		return nil, status, err
	}

	userObjectID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, http.StatusBadRequest, fmt.Errorf("invalid user ID format")
	}

	comment := models.Comment{
		UserID:    userObjectID,
		Text:      request.Text,
		CreatedAt: time.Now(),
	}
	if err := s.interactionRepo.AddComment(ctx, interaction.ID, comment); err != nil {
		return nil, http.StatusInternalServerError, err
	}
	interaction.Comments = append(interaction.Comments, comment)

	s.invalidateDraft(ctx, interaction.ID)

	return &dtos.InteractionResponse{Interaction: interaction}, http.StatusOK, nil
}

// UpdateReferenceChildren re-copies the source node's content to every node
// whose reference points at it.
func (s *interactionService) UpdateReferenceChildren(ctx context.Context, userID, sourceID string) (*dtos.ReferenceFanoutResponse, uint32, error) {
	source, status, err := s.loadActive(ctx, sourceID)
	if err != nil {
		return nil, status, err
	}

	referencing, err := s.interactionRepo.FindReferencing(ctx, source.ID)
	if err != nil {
		return nil, http.StatusInternalServerError, err
	}

	response := &dtos.ReferenceFanoutResponse{SourceID: sourceID, UpdatedIDs: []string{}}
	for _, node := range referencing {
		before := *node
		node.Languages = cloneLanguages(source.Languages)
		node.Triggers = append([]string(nil), source.Triggers...)
		node.LastUpdateBy = lastUpdateFor(userID)
		DeriveAttributes(node)

		if err := s.interactionRepo.Update(ctx, node.ID, node); err != nil {
			return nil, http.StatusInternalServerError, err
		}
		s.recordHistory(ctx, userID, node)
		s.invalidateDraft(ctx, node.ID)

		if err := s.nluSync.OnInteractionUpdated(ctx, &before, node); err != nil {
			log.Printf("InteractionService -> UpdateReferenceChildren -> NLU hook failed for %s: %v", node.ID.Hex(), err)
		}

		response.UpdatedIDs = append(response.UpdatedIDs, node.ID.Hex())
	}

	return response, http.StatusOK, nil
}

func (s *interactionService) loadActive(ctx context.Context, id string) (*models.Interaction, uint32, error) {
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
	return interaction, http.StatusOK, nil
}

// checkSingletons enforces the one-welcome / one-fallback per bot rule and
// the one-context-fallback per parent rule. excludeID discounts the node
// being edited so a move under its current parent does not collide with
// itself; NilObjectID on create.
func (s *interactionService) checkSingletons(ctx context.Context, botID primitive.ObjectID, interactionType string, parentID *primitive.ObjectID, excludeID primitive.ObjectID) (uint32, error) {
	switch interactionType {
	case constants.InteractionTypeWelcome, constants.InteractionTypeFallback:
		existing, err := s.interactionRepo.FindActiveByBotAndType(ctx, botID, interactionType)
		if err != nil {
			return http.StatusInternalServerError, err
		}
		for _, node := range existing {
			if node.ID != excludeID {
				return http.StatusConflict, fmt.Errorf("bot already has a %s interaction", interactionType)
			}
		}
	case constants.InteractionTypeContextFallback:
		existing, err := s.interactionRepo.FindActiveByBotTypeAndParent(ctx, botID, interactionType, parentID)
		if err != nil {
			return http.StatusInternalServerError, err
		}
		for _, node := range existing {
			if node.ID != excludeID {
				return http.StatusConflict, fmt.Errorf("parent already has a context-fallback interaction")
			}
		}
	}
	return http.StatusOK, nil
}

func (s *interactionService) recordHistory(ctx context.Context, userID string, interaction *models.Interaction) {
	if err := s.historyService.Record(ctx, userID, interaction); err != nil {
		log.Printf("InteractionService -> recordHistory -> failed for %s: %v", interaction.ID.Hex(), err)
	}
}

func (s *interactionService) invalidateDraft(ctx context.Context, id primitive.ObjectID) {
	key := cache.InteractionKey{InteractionID: id.Hex(), Published: false}
	if err := s.interactionCache.Invalidate(ctx, key); err != nil {
		log.Printf("InteractionService -> invalidateDraft -> failed for %s: %v", id.Hex(), err)
	}
}

func statusForDomainError(err error) uint32 {
	switch err.(type) {
	case *apperrors.GraphIntegrityError:
		return http.StatusConflict
	case *apperrors.IntentNotFoundError:
		return http.StatusBadRequest
	case *apperrors.DuplicateUniqueIntentError, *apperrors.DuplicateIntentInContextError:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func lastUpdateFor(userID string) *models.LastUpdate {
	update := &models.LastUpdate{UpdatedAt: time.Now()}
	if objectID, err := primitive.ObjectIDFromHex(userID); err == nil {
		update.UserID = objectID
	}
	return update
}

func cloneLanguages(languages []models.LanguageContent) []models.LanguageContent {
	cloned := make([]models.LanguageContent, len(languages))
	for i, language := range languages {
		cloned[i] = models.LanguageContent{
			Language:  language.Language,
			Responses: append([]models.Response(nil), language.Responses...),
			UserSays:  append([]string(nil), language.UserSays...),
			Intents:   append([]string(nil), language.Intents...),
		}
	}
	return cloned
}

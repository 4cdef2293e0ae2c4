package services

import (
	"botstudio/internal/apis/dtos"
	"botstudio/internal/apperrors"
	"botstudio/internal/cache"
	"botstudio/internal/events"
	"botstudio/internal/models"
	"botstudio/internal/repositories"
	"context"
	"fmt"
	"log"
	"net/http"
	"reflect"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PublicationService reconciles a bot's draft tree into the published
// snapshot consumed by the runtime. Validation is all-or-nothing; the
// snapshot writes that follow a passed validation accumulate per-node
// failures instead of aborting halfway.
type PublicationService interface {
	Publish(ctx context.Context, userID, botID string, request *dtos.PublishRequest) (*dtos.PublishResponse, uint32, error)
	PublishInteraction(ctx context.Context, userID, id string) (*dtos.PublishResponse, uint32, error)
	GetPendingPublication(ctx context.Context, botID string) (*dtos.PendingPublicationResponse, uint32, error)
	GetPublishErrors(ctx context.Context, botID string) (*dtos.PublishErrorsResponse, uint32, error)
}

type publicationService struct {
	interactionRepo  repositories.InteractionRepository
	publicationRepo  repositories.PublicationRepository
	intentValidator  IntentValidator
	historyService   HistoryService
	eventPublisher   events.Publisher
	interactionCache cache.InteractionCache
}

func NewPublicationService(
	interactionRepo repositories.InteractionRepository,
	publicationRepo repositories.PublicationRepository,
	intentValidator IntentValidator,
	historyService HistoryService,
	eventPublisher events.Publisher,
	interactionCache cache.InteractionCache,
) PublicationService {
	return &publicationService{
		interactionRepo:  interactionRepo,
		publicationRepo:  publicationRepo,
		intentValidator:  intentValidator,
		historyService:   historyService,
		eventPublisher:   eventPublisher,
		interactionCache: interactionCache,
	}
}

func (s *publicationService) Publish(ctx context.Context, userID, botID string, request *dtos.PublishRequest) (*dtos.PublishResponse, uint32, error) {
	botObjectID, err := primitive.ObjectIDFromHex(botID)
	if err != nil {
		return nil, http.StatusBadRequest, fmt.Errorf("invalid bot ID format")
	}

	drafts, err := s.interactionRepo.FindActiveByBot(ctx, botObjectID)
	if err != nil {
		return nil, http.StatusInternalServerError, err
	}

	// Gate: every node must pass before anything is written.
	failures := s.validateAll(ctx, drafts)
	if len(failures) > 0 {
		return nil, http.StatusUnprocessableEntity, &apperrors.PublishValidationError{BotID: botID, Failures: failures}
	}

	published, err := s.interactionRepo.FindPublishedByBot(ctx, botObjectID)
	if err != nil {
		return nil, http.StatusInternalServerError, err
	}
	publishedByID := make(map[primitive.ObjectID]*models.Interaction, len(published))
	for _, snapshot := range published {
		publishedByID[snapshot.ID] = snapshot
	}

	publishedAt := time.Now()
	response := &dtos.PublishResponse{
		BotID:               botID,
		CreatedOrUpdatedIDs: []string{},
		DeletedIDs:          []string{},
	}

	for _, draft := range drafts {
		snapshot, exists := publishedByID[draft.ID]
		delete(publishedByID, draft.ID)

		// Unchanged since the last publish: skip, so a second publish with no
		// edits reports empty deltas.
		if exists && snapshot.PublishedAt != nil && !draft.UpdatedAt.After(*snapshot.PublishedAt) {
			continue
		}

		if err := s.publishOne(ctx, draft, publishedAt); err != nil {
			log.Printf("PublicationService -> Publish -> snapshot write failed for %s: %v", draft.ID.Hex(), err)
			response.Failures = append(response.Failures, apperrors.ValidationFailure{
				NodeID:   draft.ID.Hex(),
				NodeName: draft.Name,
				Reason:   fmt.Sprintf("snapshot write failed: %v", err),
			})
			continue
		}
		response.CreatedOrUpdatedIDs = append(response.CreatedOrUpdatedIDs, draft.ID.Hex())
	}

	// Leftovers are published nodes whose drafts are gone or soft-deleted.
	for id := range publishedByID {
		if err := s.interactionRepo.DeletePublished(ctx, id); err != nil {
			log.Printf("PublicationService -> Publish -> snapshot delete failed for %s: %v", id.Hex(), err)
			response.Failures = append(response.Failures, apperrors.ValidationFailure{
				NodeID:   id.Hex(),
				NodeName: publishedByID[id].Name,
				Reason:   fmt.Sprintf("snapshot delete failed: %v", err),
			})
			continue
		}
		s.invalidatePublished(ctx, id)
		response.DeletedIDs = append(response.DeletedIDs, id.Hex())
	}

	if len(response.CreatedOrUpdatedIDs) > 0 || len(response.DeletedIDs) > 0 {
		workspaceID := primitive.NilObjectID
		if len(drafts) > 0 {
			workspaceID = drafts[0].WorkspaceID
		} else {
			// Deletion-only publish: every draft is gone, so the workspace id
			// comes from one of the snapshots being removed.
			for _, snapshot := range publishedByID {
				workspaceID = snapshot.WorkspaceID
				break
			}
		}

		event := events.NewPublicationEvent(botID, workspaceID.Hex(), response.CreatedOrUpdatedIDs, response.DeletedIDs)
		if err := s.eventPublisher.Publish(ctx, event); err != nil {
			log.Printf("PublicationService -> Publish -> event publish failed for bot %s: %v", botID, err)
		}

		marker := models.NewPublication(botObjectID, workspaceID, userObjectIDOrNil(userID), request.Comment)
		marker.PublishedAt = publishedAt
		if err := s.publicationRepo.Create(ctx, marker); err != nil {
			return nil, http.StatusInternalServerError, err
		}
	}

	return response, http.StatusOK, nil
}

// PublishInteraction publishes one node without touching the rest of the
// snapshot; the leftover-deletion pass only runs on a full publish.
func (s *publicationService) PublishInteraction(ctx context.Context, userID, id string) (*dtos.PublishResponse, uint32, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, http.StatusBadRequest, fmt.Errorf("invalid interaction ID format")
	}
	draft, err := s.interactionRepo.FindByID(ctx, objectID)
	if err != nil {
		return nil, http.StatusInternalServerError, err
	}
	if draft == nil || draft.IsDeleted() {
		return nil, http.StatusNotFound, fmt.Errorf("interaction not found")
	}

	siblings, err := s.interactionRepo.FindActiveByBot(ctx, draft.BotID)
	if err != nil {
		return nil, http.StatusInternalServerError, err
	}
	if failures := s.validateOne(ctx, draft, siblings); len(failures) > 0 {
		return nil, http.StatusUnprocessableEntity, &apperrors.PublishValidationError{BotID: draft.BotID.Hex(), Failures: failures}
	}

	publishedAt := time.Now()
	if err := s.publishOne(ctx, draft, publishedAt); err != nil {
		return nil, http.StatusInternalServerError, err
	}

	response := &dtos.PublishResponse{
		BotID:               draft.BotID.Hex(),
		CreatedOrUpdatedIDs: []string{draft.ID.Hex()},
		DeletedIDs:          []string{},
	}

	event := events.NewPublicationEvent(draft.BotID.Hex(), draft.WorkspaceID.Hex(), response.CreatedOrUpdatedIDs, nil)
	if err := s.eventPublisher.Publish(ctx, event); err != nil {
		log.Printf("PublicationService -> PublishInteraction -> event publish failed for %s: %v", draft.ID.Hex(), err)
	}

	return response, http.StatusOK, nil
}

// GetPendingPublication lists what the next publish would change, diffing
// drafts edited since the last publication marker against their audit
// baseline.
func (s *publicationService) GetPendingPublication(ctx context.Context, botID string) (*dtos.PendingPublicationResponse, uint32, error) {
	botObjectID, err := primitive.ObjectIDFromHex(botID)
	if err != nil {
		return nil, http.StatusBadRequest, fmt.Errorf("invalid bot ID format")
	}

	marker, err := s.publicationRepo.FindLatestByBot(ctx, botObjectID)
	if err != nil {
		return nil, http.StatusInternalServerError, err
	}
	var boundary time.Time
	if marker != nil {
		boundary = marker.PublishedAt
	}

	all, err := s.interactionRepo.FindAllByBot(ctx, botObjectID)
	if err != nil {
		return nil, http.StatusInternalServerError, err
	}

	response := &dtos.PendingPublicationResponse{BotID: botID, Pending: []dtos.PendingInteraction{}}
	for _, draft := range all {
		if draft.IsDeleted() {
			// Only relevant when the node made it into the snapshot before.
			if draft.DeletedAt.After(boundary) && draft.PublishedAt != nil {
				response.Pending = append(response.Pending, dtos.PendingInteraction{
					InteractionID: draft.ID.Hex(),
					Name:          draft.Name,
					Status:        "deleted",
				})
			}
			continue
		}
		if !draft.UpdatedAt.After(boundary) {
			continue
		}

		if draft.PublishedAt == nil {
			response.Pending = append(response.Pending, dtos.PendingInteraction{
				InteractionID: draft.ID.Hex(),
				Name:          draft.Name,
				Status:        "created",
			})
			continue
		}

		baseline, err := s.baselineFor(ctx, draft)
		if err != nil {
			return nil, http.StatusInternalServerError, err
		}
		changed := changedFields(baseline, draft)
		if baseline != nil && len(changed) == 0 {
			continue
		}
		response.Pending = append(response.Pending, dtos.PendingInteraction{
			InteractionID: draft.ID.Hex(),
			Name:          draft.Name,
			Status:        "updated",
			ChangedFields: changed,
		})
	}

	return response, http.StatusOK, nil
}

func (s *publicationService) GetPublishErrors(ctx context.Context, botID string) (*dtos.PublishErrorsResponse, uint32, error) {
	botObjectID, err := primitive.ObjectIDFromHex(botID)
	if err != nil {
		return nil, http.StatusBadRequest, fmt.Errorf("invalid bot ID format")
	}

	drafts, err := s.interactionRepo.FindActiveByBot(ctx, botObjectID)
	if err != nil {
		return nil, http.StatusInternalServerError, err
	}

	failures := s.validateAll(ctx, drafts)
	if failures == nil {
		failures = []apperrors.ValidationFailure{}
	}
	return &dtos.PublishErrorsResponse{BotID: botID, Failures: failures}, http.StatusOK, nil
}

func (s *publicationService) publishOne(ctx context.Context, draft *models.Interaction, publishedAt time.Time) error {
	snapshot := *draft
	snapshot.PublishedAt = &publishedAt
	if err := s.interactionRepo.UpsertPublished(ctx, &snapshot); err != nil {
		return err
	}
	if err := s.interactionRepo.SetPublishedAt(ctx, draft.ID, publishedAt); err != nil {
		return err
	}
	draft.PublishedAt = &publishedAt
	s.invalidatePublished(ctx, draft.ID)
	return nil
}

func (s *publicationService) invalidatePublished(ctx context.Context, id primitive.ObjectID) {
	for _, key := range []cache.InteractionKey{
		{InteractionID: id.Hex(), Published: true},
		{InteractionID: id.Hex(), Published: false},
	} {
		if err := s.interactionCache.Invalidate(ctx, key); err != nil {
			log.Printf("PublicationService -> invalidatePublished -> failed for %s: %v", key.String(), err)
		}
	}
}

// validateAll accumulates every structural and intent violation across the
// bot instead of stopping at the first.
func (s *publicationService) validateAll(ctx context.Context, drafts []*models.Interaction) []apperrors.ValidationFailure {
	failures := s.checkResponseTargets(drafts, buildArena(drafts))
	failures = append(failures, s.intentValidator.ValidateBot(ctx, drafts)...)
	return failures
}

func (s *publicationService) validateOne(ctx context.Context, draft *models.Interaction, siblings []*models.Interaction) []apperrors.ValidationFailure {
	arena := buildArena(siblings)
	arena[draft.ID] = draft

	failures := s.checkResponseTargets([]*models.Interaction{draft}, arena)
	if err := s.intentValidator.ValidateInteraction(ctx, draft); err != nil {
		failures = append(failures, apperrors.ValidationFailure{
			NodeID:   draft.ID.Hex(),
			NodeName: draft.Name,
			Reason:   err.Error(),
		})
	}
	return failures
}

// checkResponseTargets verifies that every goto and card-button target points
// at an active node of the same bot.
func (s *publicationService) checkResponseTargets(drafts []*models.Interaction, arena map[primitive.ObjectID]*models.Interaction) []apperrors.ValidationFailure {
	var failures []apperrors.ValidationFailure
	for _, draft := range drafts {
		for _, language := range draft.Languages {
			for _, response := range language.Responses {
				if response.TargetID != nil {
					failures = appendTargetFailure(failures, draft, *response.TargetID, arena)
				}
				for _, button := range response.Buttons {
					if button.TargetID != nil {
						failures = appendTargetFailure(failures, draft, *button.TargetID, arena)
					}
				}
			}
		}
	}
	return failures
}

func appendTargetFailure(failures []apperrors.ValidationFailure, draft *models.Interaction, targetID primitive.ObjectID, arena map[primitive.ObjectID]*models.Interaction) []apperrors.ValidationFailure {
	target, ok := arena[targetID]
	if ok && !target.IsDeleted() {
		return failures
	}
	return append(failures, apperrors.ValidationFailure{
		NodeID:   draft.ID.Hex(),
		NodeName: draft.Name,
		Reason:   fmt.Sprintf("response target %s does not exist or is deleted", targetID.Hex()),
	})
}

// baselineFor decodes the node's audit row at the last publication boundary.
// A nil baseline means the audit log has no pre-publish state to diff against.
func (s *publicationService) baselineFor(ctx context.Context, draft *models.Interaction) (*models.Interaction, error) {
	record, err := s.historyService.GetPendingSince(ctx, draft)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, nil
	}
	return record.DecodeSnapshot()
}

// changedFields reports the authoring-relevant fields that differ. Bookkeeping
// fields like updated_at never count as a change on their own.
func changedFields(baseline, draft *models.Interaction) []string {
	if baseline == nil {
		return nil
	}
	var changed []string
	if baseline.Name != draft.Name {
		changed = append(changed, "name")
	}
	if !reflect.DeepEqual(baseline.ParentID, draft.ParentID) {
		changed = append(changed, "parent_id")
	}
	if baseline.Position != draft.Position {
		changed = append(changed, "position")
	}
	if !reflect.DeepEqual(baseline.Languages, draft.Languages) {
		changed = append(changed, "languages")
	}
	if !reflect.DeepEqual(baseline.Triggers, draft.Triggers) {
		changed = append(changed, "triggers")
	}
	if !reflect.DeepEqual(baseline.Parameters, draft.Parameters) {
		changed = append(changed, "parameters")
	}
	return changed
}

func userObjectIDOrNil(userID string) primitive.ObjectID {
	objectID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return primitive.NilObjectID
	}
	return objectID
}

package services

import (
	"botstudio/config"
	"botstudio/internal/apis/dtos"
	"botstudio/internal/models"
	"botstudio/internal/repositories"
	"botstudio/pkg/nlu"
	"context"
	"fmt"
	"log"
	"net/http"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ProviderFactory builds an NLU provider for a workspace's agent identity.
// Injected so tests can substitute a fake catalog.
type ProviderFactory func(ctx context.Context, config nlu.Config) (nlu.Provider, error)

// NLUSyncService keeps the remote provider's catalog consistent with local
// nodes. The local draft is always authoritative for content; only linkage
// metadata flows back from the provider.
type NLUSyncService interface {
	// OnInteractionCreated and OnInteractionUpdated maintain the per-node
	// remote intent as a side effect of ordinary edits. Failures are
	// returned for logging but must never block the local edit.
	OnInteractionCreated(ctx context.Context, interaction *models.Interaction) error
	OnInteractionUpdated(ctx context.Context, before, after *models.Interaction) error

	// Sync runs the full two-pool reconciliation sweep for one bot.
	Sync(ctx context.Context, workspaceID, botID string) (*dtos.SyncResponse, uint32, error)
}

type nluSyncService struct {
	interactionRepo repositories.InteractionRepository
	entityRepo      repositories.EntityRepository
	workspaceRepo   repositories.WorkspaceRepository
	providerFactory ProviderFactory
	callDelay       time.Duration
}

func NewNLUSyncService(
	interactionRepo repositories.InteractionRepository,
	entityRepo repositories.EntityRepository,
	workspaceRepo repositories.WorkspaceRepository,
	providerFactory ProviderFactory,
	callDelay time.Duration,
) NLUSyncService {
	return &nluSyncService{
		interactionRepo: interactionRepo,
		entityRepo:      entityRepo,
		workspaceRepo:   workspaceRepo,
		providerFactory: providerFactory,
		callDelay:       callDelay,
	}
}

func (s *nluSyncService) OnInteractionCreated(ctx context.Context, interaction *models.Interaction) error {
	provider, err := s.providerForWorkspace(ctx, interaction.WorkspaceID)
	if err != nil || provider == nil {
		return err
	}

	utterances := interaction.UserSaysAll()
	if len(utterances) == 0 {
		return nil
	}

	remoteID, err := provider.CreateIntent(ctx, nlu.Intent{
		DisplayName:     interaction.ID.Hex(),
		TrainingPhrases: utterances,
	})
	if err != nil {
		return fmt.Errorf("failed to create remote intent for node %s: %w", interaction.ID.Hex(), err)
	}

	interaction.Params.NLU.IntentRef = remoteID
	return s.interactionRepo.SetNLUIntentRef(ctx, interaction.ID, remoteID)
}

func (s *nluSyncService) OnInteractionUpdated(ctx context.Context, before, after *models.Interaction) error {
	if before != nil && utterancesEqual(before.UserSaysAll(), after.UserSaysAll()) {
		return nil
	}

	provider, err := s.providerForWorkspace(ctx, after.WorkspaceID)
	if err != nil || provider == nil {
		return err
	}

	if after.Params.NLU.IntentRef == "" {
		return s.OnInteractionCreated(ctx, after)
	}

	err = provider.UpdateIntent(ctx, after.Params.NLU.IntentRef, nlu.Intent{
		DisplayName:     after.ID.Hex(),
		TrainingPhrases: after.UserSaysAll(),
	})
	if nlu.IsNotFound(err) {
		// Intent was deleted out-of-band. Clear the stale link and recreate
		// instead of failing the local update.
		log.Printf("NLUSyncService -> OnInteractionUpdated -> remote intent %s gone, recreating", after.Params.NLU.IntentRef)
		after.Params.NLU.IntentRef = ""
		if clearErr := s.interactionRepo.SetNLUIntentRef(ctx, after.ID, ""); clearErr != nil {
			return clearErr
		}
		return s.OnInteractionCreated(ctx, after)
	}
	return err
}

func (s *nluSyncService) Sync(ctx context.Context, workspaceID, botID string) (*dtos.SyncResponse, uint32, error) {
	workspaceObjID, err := primitive.ObjectIDFromHex(workspaceID)
	if err != nil {
		return nil, http.StatusBadRequest, fmt.Errorf("invalid workspace ID format")
	}
	botObjID, err := primitive.ObjectIDFromHex(botID)
	if err != nil {
		return nil, http.StatusBadRequest, fmt.Errorf("invalid bot ID format")
	}

	provider, err := s.providerForWorkspace(ctx, workspaceObjID)
	if err != nil {
		return nil, http.StatusInternalServerError, err
	}
	if provider == nil {
		return nil, http.StatusConflict, fmt.Errorf("NLU writes are disabled for this workspace")
	}

	response := &dtos.SyncResponse{BotID: botID}

	if err := s.syncIntents(ctx, provider, botObjID, response); err != nil {
		return nil, http.StatusInternalServerError, err
	}
	if err := s.syncEntities(ctx, provider, botObjID, response); err != nil {
		return nil, http.StatusInternalServerError, err
	}

	return response, http.StatusOK, nil
}

// syncIntents matches the remote intent pool against local nodes: by stored
// link first, then by display name equal to the node id. Matched intents are
// re-stamped and leave the pool; unmatched local links are cleared for
// recreation on the next edit; remote leftovers are deleted.
func (s *nluSyncService) syncIntents(ctx context.Context, provider nlu.Provider, botID primitive.ObjectID, response *dtos.SyncResponse) error {
	if err := s.throttle(ctx); err != nil {
		return err
	}
	remoteIntents, err := provider.ListIntents(ctx)
	if err != nil {
		return fmt.Errorf("failed to list remote intents: %w", err)
	}

	unmatched := make(map[string]nlu.Intent, len(remoteIntents))
	byDisplayName := make(map[string]string, len(remoteIntents))
	for _, intent := range remoteIntents {
		unmatched[intent.ID] = intent
		byDisplayName[intent.DisplayName] = intent.ID
	}

	locals, err := s.interactionRepo.FindActiveByBot(ctx, botID)
	if err != nil {
		return err
	}

	for _, local := range locals {
		if len(local.UserSaysAll()) == 0 && local.Params.NLU.IntentRef == "" {
			continue
		}

		ref := local.Params.NLU.IntentRef
		if ref != "" {
			if _, ok := unmatched[ref]; ok {
				delete(unmatched, ref)
				response.IntentsMatched++
				continue
			}
		}

		// Unlinked or stale link: try the display-name convention.
		if remoteID, ok := byDisplayName[local.ID.Hex()]; ok {
			if _, pending := unmatched[remoteID]; pending {
				if err := s.interactionRepo.SetNLUIntentRef(ctx, local.ID, remoteID); err != nil {
					return err
				}
				delete(unmatched, remoteID)
				response.IntentsMatched++
				continue
			}
		}

		if ref != "" {
			if err := s.interactionRepo.SetNLUIntentRef(ctx, local.ID, ""); err != nil {
				return err
			}
			response.IntentLinksCleared++
		}
	}

	for remoteID := range unmatched {
		if err := s.throttle(ctx); err != nil {
			return err
		}
		if err := provider.DeleteIntent(ctx, remoteID); err != nil && !nlu.IsNotFound(err) {
			return fmt.Errorf("failed to delete remote intent %s: %w", remoteID, err)
		}
		response.RemoteIntentsDeleted++
	}

	return nil
}

// syncEntities runs the analogous two-pool procedure for entity types.
// Entities have no per-edit hook, so unlinked locals are created here.
func (s *nluSyncService) syncEntities(ctx context.Context, provider nlu.Provider, botID primitive.ObjectID, response *dtos.SyncResponse) error {
	if err := s.throttle(ctx); err != nil {
		return err
	}
	remoteEntities, err := provider.ListEntityTypes(ctx)
	if err != nil {
		return fmt.Errorf("failed to list remote entity types: %w", err)
	}

	unmatched := make(map[string]nlu.EntityType, len(remoteEntities))
	byDisplayName := make(map[string]string, len(remoteEntities))
	for _, entityType := range remoteEntities {
		unmatched[entityType.ID] = entityType
		byDisplayName[entityType.DisplayName] = entityType.ID
	}

	locals, err := s.entityRepo.FindByBot(ctx, botID)
	if err != nil {
		return err
	}

	for _, local := range locals {
		if local.RemoteRef != "" {
			if _, ok := unmatched[local.RemoteRef]; ok {
				delete(unmatched, local.RemoteRef)
				response.EntitiesMatched++
				continue
			}
		}

		if remoteID, ok := byDisplayName[local.Name]; ok {
			if _, pending := unmatched[remoteID]; pending {
				if err := s.entityRepo.SetRemoteRef(ctx, local.ID, remoteID); err != nil {
					return err
				}
				delete(unmatched, remoteID)
				response.EntitiesMatched++
				continue
			}
		}

		if err := s.throttle(ctx); err != nil {
			return err
		}
		remoteID, err := provider.CreateEntityType(ctx, toRemoteEntity(local))
		if err != nil {
			return fmt.Errorf("failed to create remote entity type %s: %w", local.Name, err)
		}
		if err := s.entityRepo.SetRemoteRef(ctx, local.ID, remoteID); err != nil {
			return err
		}
		response.EntitiesCreated++
	}

	for remoteID := range unmatched {
		if err := s.throttle(ctx); err != nil {
			return err
		}
		if err := provider.DeleteEntityType(ctx, remoteID); err != nil && !nlu.IsNotFound(err) {
			return fmt.Errorf("failed to delete remote entity type %s: %w", remoteID, err)
		}
		response.RemoteEntitiesDeleted++
	}

	return nil
}

// providerForWorkspace returns a nil provider (and nil error) when provider
// writes are disabled for the workspace.
func (s *nluSyncService) providerForWorkspace(ctx context.Context, workspaceID primitive.ObjectID) (nlu.Provider, error) {
	workspace, err := s.workspaceRepo.FindByID(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	if workspace == nil {
		return nil, fmt.Errorf("workspace %s not found", workspaceID.Hex())
	}
	if workspace.NLU.Disabled {
		return nil, nil
	}

	providerConfig := nlu.Config{
		ProjectID:       workspace.NLU.ProjectID,
		CredentialsJSON: workspace.NLU.CredentialsJSON,
		DefaultLanguage: workspace.NLU.DefaultLanguage,
	}
	if providerConfig.ProjectID == "" {
		providerConfig.ProjectID = config.Env.NLUProjectID
	}
	if providerConfig.CredentialsJSON == "" {
		providerConfig.CredentialsJSON = config.Env.NLUCredentialsJSON
	}

	return s.providerFactory(ctx, providerConfig)
}

// throttle spaces provider calls out during a sweep. The provider enforces
// call-rate limits, so reconciliation is deliberately sequential.
func (s *nluSyncService) throttle(ctx context.Context) error {
	if s.callDelay <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(s.callDelay):
		return nil
	}
}

func utterancesEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	sortedA := append([]string(nil), a...)
	sortedB := append([]string(nil), b...)
	sort.Strings(sortedA)
	sort.Strings(sortedB)
	for i := range sortedA {
		if sortedA[i] != sortedB[i] {
			return false
		}
	}
	return true
}

func toRemoteEntity(local *models.EntityDefinition) nlu.EntityType {
	var entries []nlu.EntityEntry
	for _, entry := range local.Entries {
		entries = append(entries, nlu.EntityEntry{
			Value:    entry.Value,
			Synonyms: entry.Synonyms,
		})
	}
	return nlu.EntityType{
		DisplayName: local.Name,
		Entries:     entries,
	}
}

package services

import (
	"botstudio/internal/constants"
	"botstudio/internal/models"
	"botstudio/pkg/nlu"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type syncFixture struct {
	repo      *fakeInteractionRepo
	entities  *fakeEntityRepo
	provider  *fakeProvider
	workspace *models.Workspace
	service   NLUSyncService
}

func newSyncFixture(t *testing.T) *syncFixture {
	t.Helper()
	repo := newFakeInteractionRepo()
	entities := newFakeEntityRepo()
	provider := newFakeProvider()
	workspace := models.NewWorkspace("acme")
	workspaceRepo := newFakeWorkspaceRepo(workspace)

	factory := func(context.Context, nlu.Config) (nlu.Provider, error) {
		return provider, nil
	}
	service := NewNLUSyncService(repo, entities, workspaceRepo, factory, 0)
	return &syncFixture{
		repo:      repo,
		entities:  entities,
		provider:  provider,
		workspace: workspace,
		service:   service,
	}
}

func (f *syncFixture) newDraft(t *testing.T, botID primitive.ObjectID, name string, userSays ...string) *models.Interaction {
	t.Helper()
	node := models.NewInteraction(botID, f.workspace.ID, name, constants.InteractionTypeInteraction)
	node.Languages = []models.LanguageContent{{Language: "en", UserSays: userSays}}
	require.NoError(t, f.repo.Create(context.Background(), node))
	return node
}

func TestOnInteractionCreated_LinksRemoteIntent(t *testing.T) {
	fixture := newSyncFixture(t)
	ctx := context.Background()
	node := fixture.newDraft(t, primitive.NewObjectID(), "order pizza", "a pizza please")

	require.NoError(t, fixture.service.OnInteractionCreated(ctx, node))
	require.NotEmpty(t, node.Params.NLU.IntentRef)

	remote := fixture.provider.intents[node.Params.NLU.IntentRef]
	assert.Equal(t, node.ID.Hex(), remote.DisplayName)
	assert.Equal(t, []string{"a pizza please"}, remote.TrainingPhrases)

	stored, err := fixture.repo.FindByID(ctx, node.ID)
	require.NoError(t, err)
	assert.Equal(t, node.Params.NLU.IntentRef, stored.Params.NLU.IntentRef)
}

func TestOnInteractionCreated_SkipsWithoutUtterances(t *testing.T) {
	fixture := newSyncFixture(t)
	node := fixture.newDraft(t, primitive.NewObjectID(), "silent node")

	require.NoError(t, fixture.service.OnInteractionCreated(context.Background(), node))
	assert.Empty(t, node.Params.NLU.IntentRef)
	assert.Empty(t, fixture.provider.calls)
}

func TestOnInteractionCreated_DisabledWorkspace(t *testing.T) {
	fixture := newSyncFixture(t)
	fixture.workspace.NLU.Disabled = true
	node := fixture.newDraft(t, primitive.NewObjectID(), "order pizza", "a pizza please")

	require.NoError(t, fixture.service.OnInteractionCreated(context.Background(), node))
	assert.Empty(t, fixture.provider.calls)
}

func TestOnInteractionUpdated_RecreatesGoneIntent(t *testing.T) {
	fixture := newSyncFixture(t)
	ctx := context.Background()
	node := fixture.newDraft(t, primitive.NewObjectID(), "order pizza", "a pizza please")
	require.NoError(t, fixture.service.OnInteractionCreated(ctx, node))
	staleRef := node.Params.NLU.IntentRef

	// Someone deleted the intent in the provider console.
	require.NoError(t, fixture.provider.DeleteIntent(ctx, staleRef))

	before := copyInteraction(node)
	node.Languages = []models.LanguageContent{{Language: "en", UserSays: []string{"another pizza"}}}
	require.NoError(t, fixture.service.OnInteractionUpdated(ctx, before, node))

	require.NotEmpty(t, node.Params.NLU.IntentRef)
	assert.NotEqual(t, staleRef, node.Params.NLU.IntentRef)
	remote := fixture.provider.intents[node.Params.NLU.IntentRef]
	assert.Equal(t, []string{"another pizza"}, remote.TrainingPhrases)
}

func TestOnInteractionUpdated_SkipsWhenUtterancesUnchanged(t *testing.T) {
	fixture := newSyncFixture(t)
	ctx := context.Background()
	node := fixture.newDraft(t, primitive.NewObjectID(), "order pizza", "a pizza please")
	require.NoError(t, fixture.service.OnInteractionCreated(ctx, node))
	callsBefore := len(fixture.provider.calls)

	before := copyInteraction(node)
	node.Name = "renamed, same phrases"
	require.NoError(t, fixture.service.OnInteractionUpdated(ctx, before, node))
	assert.Len(t, fixture.provider.calls, callsBefore)
}

func TestSync_TwoPoolReconciliation(t *testing.T) {
	fixture := newSyncFixture(t)
	ctx := context.Background()
	botID := primitive.NewObjectID()

	// Linked pair: survives by stored ref.
	linked := fixture.newDraft(t, botID, "linked", "hi")
	require.NoError(t, fixture.service.OnInteractionCreated(ctx, linked))

	// Unlinked local whose remote counterpart exists under the display-name
	// convention: re-matched during the sweep.
	unlinked := fixture.newDraft(t, botID, "unlinked", "hello")
	orphanRef, err := fixture.provider.CreateIntent(ctx, nlu.Intent{DisplayName: unlinked.ID.Hex(), TrainingPhrases: []string{"hello"}})
	require.NoError(t, err)

	// Local with a stale ref pointing nowhere: link cleared.
	stale := fixture.newDraft(t, botID, "stale", "hey")
	require.NoError(t, fixture.repo.SetNLUIntentRef(ctx, stale.ID, "remote-gone"))

	// Remote leftover with no local counterpart: deleted.
	leftoverRef, err := fixture.provider.CreateIntent(ctx, nlu.Intent{DisplayName: "no-such-node", TrainingPhrases: []string{"bye"}})
	require.NoError(t, err)

	response, _, err := fixture.service.Sync(ctx, fixture.workspace.ID.Hex(), botID.Hex())
	require.NoError(t, err)

	assert.Equal(t, 2, response.IntentsMatched)
	assert.Equal(t, 1, response.IntentLinksCleared)
	assert.Equal(t, 1, response.RemoteIntentsDeleted)

	storedUnlinked, err := fixture.repo.FindByID(ctx, unlinked.ID)
	require.NoError(t, err)
	assert.Equal(t, orphanRef, storedUnlinked.Params.NLU.IntentRef)

	storedStale, err := fixture.repo.FindByID(ctx, stale.ID)
	require.NoError(t, err)
	assert.Empty(t, storedStale.Params.NLU.IntentRef)

	_, leftoverExists := fixture.provider.intents[leftoverRef]
	assert.False(t, leftoverExists)
}

func TestSync_EntityReconciliation(t *testing.T) {
	fixture := newSyncFixture(t)
	ctx := context.Background()
	botID := primitive.NewObjectID()

	// Local entity without a remote counterpart: created during the sweep.
	newcomer := &models.EntityDefinition{
		BotID:       botID,
		WorkspaceID: fixture.workspace.ID,
		Name:        "toppings",
		Entries:     []models.EntityEntry{{Value: "cheese", Synonyms: []string{"mozzarella"}}},
		Base:        models.NewBase(),
	}
	fixture.entities.entities[newcomer.ID] = newcomer

	// Remote entity type with no local counterpart: deleted.
	leftoverRef, err := fixture.provider.CreateEntityType(ctx, nlu.EntityType{DisplayName: "obsolete"})
	require.NoError(t, err)

	response, _, err := fixture.service.Sync(ctx, fixture.workspace.ID.Hex(), botID.Hex())
	require.NoError(t, err)

	assert.Equal(t, 1, response.EntitiesCreated)
	assert.Equal(t, 1, response.RemoteEntitiesDeleted)
	assert.NotEmpty(t, newcomer.RemoteRef)

	remote := fixture.provider.entityTypes[newcomer.RemoteRef]
	assert.Equal(t, "toppings", remote.DisplayName)
	_, leftoverExists := fixture.provider.entityTypes[leftoverRef]
	assert.False(t, leftoverExists)
}

func TestSync_DisabledWorkspaceRefused(t *testing.T) {
	fixture := newSyncFixture(t)
	fixture.workspace.NLU.Disabled = true

	_, status, err := fixture.service.Sync(context.Background(), fixture.workspace.ID.Hex(), primitive.NewObjectID().Hex())
	require.Error(t, err)
	assert.Equal(t, uint32(409), status)
}

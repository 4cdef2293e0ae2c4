package services

import (
	"botstudio/internal/apperrors"
	"botstudio/internal/constants"
	"botstudio/internal/models"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newNode(botID primitive.ObjectID, name, nodeType string, parent *models.Interaction) *models.Interaction {
	node := models.NewInteraction(botID, primitive.NewObjectID(), name, nodeType)
	if parent != nil {
		parentID := parent.ID
		node.ParentID = &parentID
		node.CompletePath = append(append([]primitive.ObjectID{}, parent.CompletePath...), parent.ID)
	}
	return node
}

func TestResolveForParent_RootNode(t *testing.T) {
	repo := newFakeInteractionRepo()
	resolver := NewPathResolver(repo, 100)
	botID := primitive.NewObjectID()

	paths, err := resolver.ResolveForParent(context.Background(), botID, nil)
	require.NoError(t, err)
	assert.Equal(t, []primitive.ObjectID{botID}, paths.Path)
	assert.Empty(t, paths.CompletePath)
}

func TestResolveForParent_ElidesContainersAndWelcome(t *testing.T) {
	repo := newFakeInteractionRepo()
	resolver := NewPathResolver(repo, 100)
	botID := primitive.NewObjectID()
	ctx := context.Background()

	welcome := newNode(botID, "welcome", constants.InteractionTypeWelcome, nil)
	container := newNode(botID, "grouping", constants.InteractionTypeContainer, welcome)
	leaf := newNode(botID, "order pizza", constants.InteractionTypeInteraction, container)
	for _, node := range []*models.Interaction{welcome, container, leaf} {
		require.NoError(t, repo.Create(ctx, node))
	}

	paths, err := resolver.ResolveForParent(ctx, botID, &leaf.ID)
	require.NoError(t, err)

	// Every ancestor appears in the complete path.
	assert.Equal(t, []primitive.ObjectID{welcome.ID, container.ID, leaf.ID}, paths.CompletePath)
	// Containers and the welcome node are elided from the semantic path.
	assert.Equal(t, []primitive.ObjectID{botID, leaf.ID}, paths.Path)
}

func TestResolveForParent_MissingParent(t *testing.T) {
	repo := newFakeInteractionRepo()
	resolver := NewPathResolver(repo, 100)
	missing := primitive.NewObjectID()

	_, err := resolver.ResolveForParent(context.Background(), primitive.NewObjectID(), &missing)
	var integrityErr *apperrors.GraphIntegrityError
	require.ErrorAs(t, err, &integrityErr)
}

func TestResolveFromArena_CycleAborts(t *testing.T) {
	repo := newFakeInteractionRepo()
	resolver := NewPathResolver(repo, 10)
	botID := primitive.NewObjectID()

	a := models.NewInteraction(botID, primitive.NewObjectID(), "a", constants.InteractionTypeInteraction)
	b := models.NewInteraction(botID, primitive.NewObjectID(), "b", constants.InteractionTypeInteraction)
	a.ParentID = &b.ID
	b.ParentID = &a.ID
	arena := map[primitive.ObjectID]*models.Interaction{a.ID: a, b.ID: b}

	_, err := resolver.ResolveFromArena(arena, botID, &a.ID)
	var integrityErr *apperrors.GraphIntegrityError
	require.ErrorAs(t, err, &integrityErr)
}

func TestResolveFromArena_DepthGuard(t *testing.T) {
	repo := newFakeInteractionRepo()
	maxDepth := 5
	resolver := NewPathResolver(repo, maxDepth)
	botID := primitive.NewObjectID()

	arena := make(map[primitive.ObjectID]*models.Interaction)
	var parent *models.Interaction
	var leaf *models.Interaction
	for i := 0; i < maxDepth+3; i++ {
		node := newNode(botID, "chain", constants.InteractionTypeInteraction, parent)
		arena[node.ID] = node
		parent = node
		leaf = node
	}

	_, err := resolver.ResolveFromArena(arena, botID, &leaf.ID)
	var integrityErr *apperrors.GraphIntegrityError
	require.ErrorAs(t, err, &integrityErr)
	assert.Contains(t, integrityErr.Reason, "hops")
}

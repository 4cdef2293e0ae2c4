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

func withIntent(node *models.Interaction, intents ...string) *models.Interaction {
	node.Languages = []models.LanguageContent{{Language: "en", Intents: intents}}
	return node
}

func TestValidateInteraction_UnknownIntent(t *testing.T) {
	repo := newFakeInteractionRepo()
	validator := NewIntentValidator(newFakeIntentCatalog(), repo, 100)
	botID := primitive.NewObjectID()

	node := withIntent(newNode(botID, "greet", constants.InteractionTypeInteraction, nil), "no-such-intent")

	err := validator.ValidateInteraction(context.Background(), node)
	var notFound *apperrors.IntentNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "no-such-intent", notFound.IntentName)
}

func TestValidateInteraction_UniqueInBot(t *testing.T) {
	repo := newFakeInteractionRepo()
	catalog := newFakeIntentCatalog(models.NewIntentDefinition("cancel_order", false))
	validator := NewIntentValidator(catalog, repo, 100)
	botID := primitive.NewObjectID()
	ctx := context.Background()

	existing := withIntent(newNode(botID, "cancel A", constants.InteractionTypeInteraction, nil), "cancel_order")
	require.NoError(t, repo.Create(ctx, existing))

	// Same intent anywhere in the bot is rejected, regardless of context.
	other := withIntent(newNode(botID, "cancel B", constants.InteractionTypeInteraction, existing), "cancel_order")

	err := validator.ValidateInteraction(ctx, other)
	var duplicate *apperrors.DuplicateUniqueIntentError
	require.ErrorAs(t, err, &duplicate)
	assert.Equal(t, existing.ID.Hex(), duplicate.OffendingNodeID)
}

func TestValidateInteraction_ContextScoped(t *testing.T) {
	repo := newFakeInteractionRepo()
	catalog := newFakeIntentCatalog(models.NewIntentDefinition("yes", true))
	validator := NewIntentValidator(catalog, repo, 100)
	botID := primitive.NewObjectID()
	ctx := context.Background()

	// Two separate branches: the same intent may live once under each.
	branchA := newNode(botID, "order flow", constants.InteractionTypeInteraction, nil)
	branchB := newNode(botID, "refund flow", constants.InteractionTypeInteraction, nil)
	yesUnderA := withIntent(newNode(botID, "confirm order", constants.InteractionTypeInteraction, branchA), "yes")
	for _, node := range []*models.Interaction{branchA, branchB, yesUnderA} {
		require.NoError(t, repo.Create(ctx, node))
	}

	yesUnderB := withIntent(newNode(botID, "confirm refund", constants.InteractionTypeInteraction, branchB), "yes")
	require.NoError(t, validator.ValidateInteraction(ctx, yesUnderB))

	// A second use inside branch A collides.
	secondUnderA := withIntent(newNode(botID, "confirm again", constants.InteractionTypeInteraction, branchA), "yes")
	err := validator.ValidateInteraction(ctx, secondUnderA)
	var duplicate *apperrors.DuplicateIntentInContextError
	require.ErrorAs(t, err, &duplicate)
	assert.Equal(t, []string{yesUnderA.ID.Hex()}, duplicate.OffendingNodeIDs)
}

func TestValidateInteraction_ContainersAreTransparent(t *testing.T) {
	repo := newFakeInteractionRepo()
	catalog := newFakeIntentCatalog(models.NewIntentDefinition("yes", true))
	validator := NewIntentValidator(catalog, repo, 100)
	botID := primitive.NewObjectID()
	ctx := context.Background()

	// A container between a node and its flow parent does not open a new
	// context: both "yes" nodes still share the branch context.
	branch := newNode(botID, "order flow", constants.InteractionTypeInteraction, nil)
	container := newNode(botID, "grouping", constants.InteractionTypeContainer, branch)
	direct := withIntent(newNode(botID, "confirm", constants.InteractionTypeInteraction, branch), "yes")
	for _, node := range []*models.Interaction{branch, container, direct} {
		require.NoError(t, repo.Create(ctx, node))
	}

	nested := withIntent(newNode(botID, "confirm nested", constants.InteractionTypeInteraction, container), "yes")
	err := validator.ValidateInteraction(ctx, nested)
	var duplicate *apperrors.DuplicateIntentInContextError
	require.ErrorAs(t, err, &duplicate)
}

func TestValidateBot_AccumulatesFailures(t *testing.T) {
	repo := newFakeInteractionRepo()
	catalog := newFakeIntentCatalog(models.NewIntentDefinition("cancel_order", false))
	validator := NewIntentValidator(catalog, repo, 100)
	botID := primitive.NewObjectID()

	a := withIntent(newNode(botID, "a", constants.InteractionTypeInteraction, nil), "cancel_order")
	b := withIntent(newNode(botID, "b", constants.InteractionTypeInteraction, nil), "cancel_order")
	c := withIntent(newNode(botID, "c", constants.InteractionTypeInteraction, nil), "ghost")

	failures := validator.ValidateBot(context.Background(), []*models.Interaction{a, b, c})

	// Both duplicate holders and the unknown intent are reported together.
	require.Len(t, failures, 3)
	names := map[string]bool{}
	for _, failure := range failures {
		names[failure.NodeName] = true
		assert.NotEmpty(t, failure.Reason)
	}
	assert.True(t, names["a"] && names["b"] && names["c"])
}

func TestValidateInteraction_EditedContentWins(t *testing.T) {
	repo := newFakeInteractionRepo()
	catalog := newFakeIntentCatalog(models.NewIntentDefinition("yes", true))
	validator := NewIntentValidator(catalog, repo, 100)
	botID := primitive.NewObjectID()
	ctx := context.Background()

	// The stored copy of the edited node still carries "yes"; the in-flight
	// edit removes it, so re-validating the edit must not self-collide.
	node := withIntent(newNode(botID, "confirm", constants.InteractionTypeInteraction, nil), "yes")
	require.NoError(t, repo.Create(ctx, node))

	edited := copyInteraction(node)
	edited.Languages = []models.LanguageContent{{Language: "en"}}
	require.NoError(t, validator.ValidateInteraction(ctx, edited))
}

package services

import (
	"botstudio/internal/apperrors"
	"botstudio/internal/constants"
	"botstudio/internal/models"
	"botstudio/internal/repositories"
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// IntentValidator enforces the intent uniqueness policy: intents whose
// catalog definition forbids context duplication are unique bot-wide, the
// others may repeat bot-wide but not twice inside one conversational context.
type IntentValidator interface {
	// ValidateInteraction checks one edited node against the rest of its bot
	// and fails fast on the first violation.
	ValidateInteraction(ctx context.Context, interaction *models.Interaction) error
	// ValidateBot re-runs the check across a whole bot and accumulates every
	// violation instead of stopping at the first.
	ValidateBot(ctx context.Context, interactions []*models.Interaction) []apperrors.ValidationFailure
}

type intentValidator struct {
	intentCatalog   repositories.IntentCatalogRepository
	interactionRepo repositories.InteractionRepository
	maxHops         int
}

func NewIntentValidator(intentCatalog repositories.IntentCatalogRepository, interactionRepo repositories.InteractionRepository, maxHops int) IntentValidator {
	return &intentValidator{
		intentCatalog:   intentCatalog,
		interactionRepo: interactionRepo,
		maxHops:         maxHops,
	}
}

func (v *intentValidator) ValidateInteraction(ctx context.Context, interaction *models.Interaction) error {
	if len(interaction.IntentNames()) == 0 {
		return nil
	}

	others, err := v.interactionRepo.FindActiveByBot(ctx, interaction.BotID)
	if err != nil {
		return err
	}
	arena := buildArena(others)
	// The edited node's in-flight content wins over whatever is stored.
	arena[interaction.ID] = interaction

	return v.validateAgainstArena(ctx, interaction, arena)
}

func (v *intentValidator) ValidateBot(ctx context.Context, interactions []*models.Interaction) []apperrors.ValidationFailure {
	arena := buildArena(interactions)

	var failures []apperrors.ValidationFailure
	for _, interaction := range interactions {
		if len(interaction.IntentNames()) == 0 {
			continue
		}
		if err := v.validateAgainstArena(ctx, interaction, arena); err != nil {
			failures = append(failures, apperrors.ValidationFailure{
				NodeID:   interaction.ID.Hex(),
				NodeName: interaction.Name,
				Reason:   err.Error(),
			})
		}
	}
	return failures
}

func (v *intentValidator) validateAgainstArena(ctx context.Context, interaction *models.Interaction, arena map[primitive.ObjectID]*models.Interaction) error {
	for _, name := range interaction.IntentNames() {
		definition, err := v.intentCatalog.FindByName(ctx, name)
		if err != nil {
			return err
		}
		if definition == nil {
			return &apperrors.IntentNotFoundError{IntentName: name}
		}

		if !definition.CanDuplicateContext {
			if err := v.checkUniqueInBot(interaction, arena, name); err != nil {
				return err
			}
			continue
		}

		if err := v.checkUniqueInContext(interaction, arena, name); err != nil {
			return err
		}
	}
	return nil
}

func (v *intentValidator) checkUniqueInBot(interaction *models.Interaction, arena map[primitive.ObjectID]*models.Interaction, name string) error {
	for id, other := range arena {
		if id == interaction.ID || other.IsDeleted() {
			continue
		}
		if carriesIntent(other, name) {
			return &apperrors.DuplicateUniqueIntentError{
				IntentName:      name,
				OffendingNodeID: other.ID.Hex(),
			}
		}
	}
	return nil
}

func (v *intentValidator) checkUniqueInContext(interaction *models.Interaction, arena map[primitive.ObjectID]*models.Interaction, name string) error {
	reference, err := v.contextAncestor(interaction, arena)
	if err != nil {
		return err
	}

	var offenders []string
	for id, other := range arena {
		if id == interaction.ID || other.IsDeleted() || !carriesIntent(other, name) {
			continue
		}
		otherContext, err := v.contextAncestor(other, arena)
		if err != nil {
			// Hop overflow anywhere aborts the whole check as an integrity
			// fault; a half-verified tree must not pass validation.
			return err
		}
		if sameContext(reference, otherContext) {
			offenders = append(offenders, other.ID.Hex())
		}
	}

	if len(offenders) > 0 {
		return &apperrors.DuplicateIntentInContextError{
			IntentName:       name,
			OffendingNodeIDs: offenders,
		}
	}
	return nil
}

// contextAncestor walks parentId upward, skipping container nodes, until it
// reaches a node type that can act as a conversational context. A node with
// no such ancestor lives in the bot's root context (nil).
func (v *intentValidator) contextAncestor(interaction *models.Interaction, arena map[primitive.ObjectID]*models.Interaction) (*models.Interaction, error) {
	current := interaction
	for hops := 0; current.ParentID != nil; hops++ {
		if hops >= v.maxHops {
			return nil, &apperrors.GraphIntegrityError{
				NodeID: interaction.ID.Hex(),
				Reason: fmt.Sprintf("context resolution exceeded %d hops, possible cycle", v.maxHops),
			}
		}
		parent, ok := arena[*current.ParentID]
		if !ok || parent.IsDeleted() {
			return nil, &apperrors.GraphIntegrityError{
				NodeID: current.ID.Hex(),
				Reason: "parent does not resolve to an existing node",
			}
		}
		if constants.IsContextAncestorType(parent.Type) {
			return parent, nil
		}
		current = parent
	}
	return nil, nil
}

func sameContext(a, b *models.Interaction) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.ID == b.ID
}

func carriesIntent(interaction *models.Interaction, name string) bool {
	for _, candidate := range interaction.IntentNames() {
		if candidate == name {
			return true
		}
	}
	return false
}

func buildArena(interactions []*models.Interaction) map[primitive.ObjectID]*models.Interaction {
	arena := make(map[primitive.ObjectID]*models.Interaction, len(interactions))
	for _, interaction := range interactions {
		arena[interaction.ID] = interaction
	}
	return arena
}

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

// ResolvedPaths carries both ancestor chain variants of a node: the complete
// chain, and the semantic chain that elides organizational nodes.
type ResolvedPaths struct {
	Path         []primitive.ObjectID
	CompletePath []primitive.ObjectID
}

// PathResolver computes a node's ancestor chains. Every walk is bounded by
// the configured traversal depth; overruns and broken parent links surface as
// GraphIntegrityError and are reported, never retried.
type PathResolver interface {
	ResolveForParent(ctx context.Context, botID primitive.ObjectID, parentID *primitive.ObjectID) (*ResolvedPaths, error)
	ResolveFromArena(arena map[primitive.ObjectID]*models.Interaction, botID primitive.ObjectID, parentID *primitive.ObjectID) (*ResolvedPaths, error)
}

type pathResolver struct {
	interactionRepo repositories.InteractionRepository
	maxDepth        int
}

func NewPathResolver(interactionRepo repositories.InteractionRepository, maxDepth int) PathResolver {
	return &pathResolver{
		interactionRepo: interactionRepo,
		maxDepth:        maxDepth,
	}
}

// ResolveForParent computes the paths a node gets when attached under
// parentID. A nil parent yields a root node: empty complete path, path
// holding only the bot id.
func (r *pathResolver) ResolveForParent(ctx context.Context, botID primitive.ObjectID, parentID *primitive.ObjectID) (*ResolvedPaths, error) {
	if parentID == nil {
		return &ResolvedPaths{
			Path:         []primitive.ObjectID{botID},
			CompletePath: []primitive.ObjectID{},
		}, nil
	}

	parent, err := r.interactionRepo.FindByID(ctx, *parentID)
	if err != nil {
		return nil, err
	}
	if parent == nil || parent.IsDeleted() {
		return nil, &apperrors.GraphIntegrityError{
			NodeID: parentID.Hex(),
			Reason: "parent does not resolve to an existing node",
		}
	}

	ancestors, err := r.interactionRepo.FindAncestors(ctx, *parentID, r.maxDepth)
	if err != nil {
		return nil, err
	}

	// Chain root-first: reversed ancestors of the parent, then the parent.
	chain := make([]*models.Interaction, 0, len(ancestors)+1)
	for i := len(ancestors) - 1; i >= 0; i-- {
		chain = append(chain, ancestors[i])
	}
	chain = append(chain, parent)

	return r.pathsFromChain(chain, botID, *parentID)
}

// ResolveFromArena computes the same chains from an in-memory node map.
// Used when a whole bot is already loaded (move fan-out, publication).
func (r *pathResolver) ResolveFromArena(arena map[primitive.ObjectID]*models.Interaction, botID primitive.ObjectID, parentID *primitive.ObjectID) (*ResolvedPaths, error) {
	if parentID == nil {
		return &ResolvedPaths{
			Path:         []primitive.ObjectID{botID},
			CompletePath: []primitive.ObjectID{},
		}, nil
	}

	var chain []*models.Interaction
	current := parentID
	for hops := 0; current != nil; hops++ {
		if hops >= r.maxDepth {
			return nil, &apperrors.GraphIntegrityError{
				NodeID: parentID.Hex(),
				Reason: fmt.Sprintf("ancestor walk exceeded %d hops, possible cycle", r.maxDepth),
			}
		}
		node, ok := arena[*current]
		if !ok || node.IsDeleted() {
			return nil, &apperrors.GraphIntegrityError{
				NodeID: current.Hex(),
				Reason: "parent does not resolve to an existing node",
			}
		}
		chain = append([]*models.Interaction{node}, chain...)
		current = node.ParentID
	}

	return r.pathsFromChain(chain, botID, *parentID)
}

// pathsFromChain validates a root-first chain and derives both path forms.
func (r *pathResolver) pathsFromChain(chain []*models.Interaction, botID, parentID primitive.ObjectID) (*ResolvedPaths, error) {
	if len(chain) > r.maxDepth {
		return nil, &apperrors.GraphIntegrityError{
			NodeID: parentID.Hex(),
			Reason: fmt.Sprintf("ancestor chain exceeds %d hops, possible cycle", r.maxDepth),
		}
	}

	if len(chain) > 0 && chain[0].ParentID != nil {
		// The walk stopped before reaching a root: a link is broken or the
		// depth cap truncated a runaway chain.
		return nil, &apperrors.GraphIntegrityError{
			NodeID: chain[0].ID.Hex(),
			Reason: "ancestor chain does not terminate at a root node",
		}
	}

	seen := make(map[primitive.ObjectID]bool, len(chain))
	completePath := make([]primitive.ObjectID, 0, len(chain))
	path := []primitive.ObjectID{botID}
	for _, node := range chain {
		if seen[node.ID] {
			return nil, &apperrors.GraphIntegrityError{
				NodeID: node.ID.Hex(),
				Reason: "cycle detected in ancestor chain",
			}
		}
		seen[node.ID] = true
		completePath = append(completePath, node.ID)
		if node.Type != constants.InteractionTypeContainer && node.Type != constants.InteractionTypeWelcome {
			path = append(path, node.ID)
		}
	}

	return &ResolvedPaths{Path: path, CompletePath: completePath}, nil
}

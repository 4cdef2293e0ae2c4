package nlu

import (
	"context"
	"errors"
)

// ErrNotFound distinguishes "the remote resource is gone" from every other
// provider failure. Callers recreate the resource instead of failing.
var ErrNotFound = errors.New("nlu: resource not found")

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// Intent is the provider-side view of a node's training data. ID is the
// provider's opaque resource identifier and never the local node id.
type Intent struct {
	ID              string
	DisplayName     string
	TrainingPhrases []string
}

type EntityEntry struct {
	Value    string
	Synonyms []string
}

type EntityType struct {
	ID          string
	DisplayName string
	Entries     []EntityEntry
}

// Provider is the catalog of a remote NLU agent. Implementations must keep
// the not-found condition distinguishable via ErrNotFound.
type Provider interface {
	CreateIntent(ctx context.Context, intent Intent) (string, error)
	UpdateIntent(ctx context.Context, id string, intent Intent) error
	DeleteIntent(ctx context.Context, id string) error
	ListIntents(ctx context.Context) ([]Intent, error)

	CreateEntityType(ctx context.Context, entityType EntityType) (string, error)
	UpdateEntityType(ctx context.Context, id string, entityType EntityType) error
	DeleteEntityType(ctx context.Context, id string) error
	ListEntityTypes(ctx context.Context) ([]EntityType, error)
}

// Config carries the per-workspace agent identity.
type Config struct {
	ProjectID       string
	CredentialsJSON string
	DefaultLanguage string
}

package services

import (
	"botstudio/internal/apis/dtos"
	"botstudio/internal/cache"
	"botstudio/internal/events"
	"botstudio/internal/models"
	"botstudio/pkg/nlu"
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// fakeInteractionRepo keeps drafts and published snapshots in maps and
// emulates the ancestor aggregation with a plain parent walk.
type fakeInteractionRepo struct {
	mu        sync.Mutex
	drafts    map[primitive.ObjectID]*models.Interaction
	published map[primitive.ObjectID]*models.Interaction
}

func newFakeInteractionRepo() *fakeInteractionRepo {
	return &fakeInteractionRepo{
		drafts:    make(map[primitive.ObjectID]*models.Interaction),
		published: make(map[primitive.ObjectID]*models.Interaction),
	}
}

func copyInteraction(interaction *models.Interaction) *models.Interaction {
	clone := *interaction
	return &clone
}

func (f *fakeInteractionRepo) Create(_ context.Context, interaction *models.Interaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.drafts[interaction.ID] = copyInteraction(interaction)
	return nil
}

func (f *fakeInteractionRepo) Update(_ context.Context, id primitive.ObjectID, interaction *models.Interaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	interaction.UpdatedAt = time.Now()
	f.drafts[id] = copyInteraction(interaction)
	return nil
}

func (f *fakeInteractionRepo) SoftDelete(_ context.Context, id primitive.ObjectID, deletedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	draft, ok := f.drafts[id]
	if !ok {
		return fmt.Errorf("draft %s not found", id.Hex())
	}
	draft.DeletedAt = &deletedAt
	draft.UpdatedAt = deletedAt
	return nil
}

func (f *fakeInteractionRepo) FindByID(_ context.Context, id primitive.ObjectID) (*models.Interaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	draft, ok := f.drafts[id]
	if !ok {
		return nil, nil
	}
	return copyInteraction(draft), nil
}

func (f *fakeInteractionRepo) FindActiveByBot(_ context.Context, botID primitive.ObjectID) ([]*models.Interaction, error) {
	return f.filter(func(i *models.Interaction) bool {
		return i.BotID == botID && !i.IsDeleted()
	}), nil
}

func (f *fakeInteractionRepo) FindAllByBot(_ context.Context, botID primitive.ObjectID) ([]*models.Interaction, error) {
	return f.filter(func(i *models.Interaction) bool {
		return i.BotID == botID
	}), nil
}

func (f *fakeInteractionRepo) FindActiveByBotAndType(_ context.Context, botID primitive.ObjectID, interactionType string) ([]*models.Interaction, error) {
	return f.filter(func(i *models.Interaction) bool {
		return i.BotID == botID && i.Type == interactionType && !i.IsDeleted()
	}), nil
}

func (f *fakeInteractionRepo) FindActiveByBotTypeAndParent(_ context.Context, botID primitive.ObjectID, interactionType string, parentID *primitive.ObjectID) ([]*models.Interaction, error) {
	return f.filter(func(i *models.Interaction) bool {
		if i.BotID != botID || i.Type != interactionType || i.IsDeleted() {
			return false
		}
		if parentID == nil {
			return i.ParentID == nil
		}
		return i.ParentID != nil && *i.ParentID == *parentID
	}), nil
}

func (f *fakeInteractionRepo) FindAncestors(_ context.Context, id primitive.ObjectID, maxDepth int) ([]*models.Interaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	node, ok := f.drafts[id]
	if !ok {
		return nil, nil
	}

	var ancestors []*models.Interaction
	current := node.ParentID
	for depth := 0; current != nil && depth <= maxDepth; depth++ {
		parent, ok := f.drafts[*current]
		if !ok || parent.IsDeleted() {
			break
		}
		ancestors = append(ancestors, copyInteraction(parent))
		current = parent.ParentID
	}
	return ancestors, nil
}

func (f *fakeInteractionRepo) FindDescendants(_ context.Context, botID, ancestorID primitive.ObjectID) ([]*models.Interaction, error) {
	return f.filter(func(i *models.Interaction) bool {
		return i.BotID == botID && !i.IsDeleted() && i.HasInPath(ancestorID)
	}), nil
}

func (f *fakeInteractionRepo) FindReferencing(_ context.Context, sourceID primitive.ObjectID) ([]*models.Interaction, error) {
	return f.filter(func(i *models.Interaction) bool {
		return i.Reference != nil && *i.Reference == sourceID && !i.IsDeleted()
	}), nil
}

func (f *fakeInteractionRepo) AddChild(_ context.Context, parentID, childID primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	parent, ok := f.drafts[parentID]
	if !ok {
		return fmt.Errorf("parent %s not found", parentID.Hex())
	}
	for _, existing := range parent.Children {
		if existing == childID {
			return nil
		}
	}
	parent.Children = append(parent.Children, childID)
	return nil
}

func (f *fakeInteractionRepo) RemoveChild(_ context.Context, parentID, childID primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	parent, ok := f.drafts[parentID]
	if !ok {
		return nil
	}
	var children []primitive.ObjectID
	for _, existing := range parent.Children {
		if existing != childID {
			children = append(children, existing)
		}
	}
	parent.Children = children
	return nil
}

func (f *fakeInteractionRepo) AddComment(_ context.Context, id primitive.ObjectID, comment models.Comment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	draft, ok := f.drafts[id]
	if !ok {
		return fmt.Errorf("draft %s not found", id.Hex())
	}
	draft.Comments = append(draft.Comments, comment)
	return nil
}

func (f *fakeInteractionRepo) SetNLUIntentRef(_ context.Context, id primitive.ObjectID, intentRef string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	draft, ok := f.drafts[id]
	if !ok {
		return fmt.Errorf("draft %s not found", id.Hex())
	}
	draft.Params.NLU.IntentRef = intentRef
	return nil
}

func (f *fakeInteractionRepo) SetPublishedAt(_ context.Context, id primitive.ObjectID, publishedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	draft, ok := f.drafts[id]
	if !ok {
		return fmt.Errorf("draft %s not found", id.Hex())
	}
	draft.PublishedAt = &publishedAt
	return nil
}

func (f *fakeInteractionRepo) FindPublishedByID(_ context.Context, id primitive.ObjectID) (*models.Interaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	snapshot, ok := f.published[id]
	if !ok {
		return nil, nil
	}
	return copyInteraction(snapshot), nil
}

func (f *fakeInteractionRepo) FindPublishedByBot(_ context.Context, botID primitive.ObjectID) ([]*models.Interaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Interaction
	for _, snapshot := range f.published {
		if snapshot.BotID == botID {
			out = append(out, copyInteraction(snapshot))
		}
	}
	return out, nil
}

func (f *fakeInteractionRepo) UpsertPublished(_ context.Context, interaction *models.Interaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published[interaction.ID] = copyInteraction(interaction)
	return nil
}

func (f *fakeInteractionRepo) DeletePublished(_ context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.published, id)
	return nil
}

func (f *fakeInteractionRepo) filter(keep func(*models.Interaction) bool) []*models.Interaction {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Interaction
	for _, draft := range f.drafts {
		if keep(draft) {
			out = append(out, copyInteraction(draft))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out
}

type fakeIntentCatalog struct {
	definitions map[string]*models.IntentDefinition
}

func newFakeIntentCatalog(definitions ...*models.IntentDefinition) *fakeIntentCatalog {
	catalog := &fakeIntentCatalog{definitions: make(map[string]*models.IntentDefinition)}
	for _, definition := range definitions {
		catalog.definitions[definition.Name] = definition
	}
	return catalog
}

func (f *fakeIntentCatalog) FindByName(_ context.Context, name string) (*models.IntentDefinition, error) {
	return f.definitions[name], nil
}

func (f *fakeIntentCatalog) FindAll(_ context.Context) ([]*models.IntentDefinition, error) {
	var out []*models.IntentDefinition
	for _, definition := range f.definitions {
		out = append(out, definition)
	}
	return out, nil
}

func (f *fakeIntentCatalog) Create(_ context.Context, definition *models.IntentDefinition) error {
	f.definitions[definition.Name] = definition
	return nil
}

type fakeWorkspaceRepo struct {
	workspaces map[primitive.ObjectID]*models.Workspace
}

func newFakeWorkspaceRepo(workspaces ...*models.Workspace) *fakeWorkspaceRepo {
	repo := &fakeWorkspaceRepo{workspaces: make(map[primitive.ObjectID]*models.Workspace)}
	for _, workspace := range workspaces {
		repo.workspaces[workspace.ID] = workspace
	}
	return repo
}

func (f *fakeWorkspaceRepo) FindByID(_ context.Context, id primitive.ObjectID) (*models.Workspace, error) {
	return f.workspaces[id], nil
}

func (f *fakeWorkspaceRepo) Create(_ context.Context, workspace *models.Workspace) error {
	f.workspaces[workspace.ID] = workspace
	return nil
}

func (f *fakeWorkspaceRepo) Update(_ context.Context, id primitive.ObjectID, workspace *models.Workspace) error {
	f.workspaces[id] = workspace
	return nil
}

type fakePublicationRepo struct {
	markers []*models.Publication
}

func (f *fakePublicationRepo) Create(_ context.Context, publication *models.Publication) error {
	f.markers = append(f.markers, publication)
	return nil
}

func (f *fakePublicationRepo) FindLatestByBot(_ context.Context, botID primitive.ObjectID) (*models.Publication, error) {
	var latest *models.Publication
	for _, marker := range f.markers {
		if marker.BotID != botID {
			continue
		}
		if latest == nil || marker.PublishedAt.After(latest.PublishedAt) {
			latest = marker
		}
	}
	return latest, nil
}

func (f *fakePublicationRepo) FindByBot(_ context.Context, botID primitive.ObjectID, page, pageSize int) ([]*models.Publication, int64, error) {
	var out []*models.Publication
	for _, marker := range f.markers {
		if marker.BotID == botID {
			out = append(out, marker)
		}
	}
	return out, int64(len(out)), nil
}

type fakeHistoryRepo struct {
	nextID  uint
	records []*models.HistoryRecord
}

func (f *fakeHistoryRepo) Create(_ context.Context, record *models.HistoryRecord) error {
	f.nextID++
	record.ID = f.nextID
	record.CreatedAt = time.Now()
	record.UpdatedAt = record.CreatedAt
	f.records = append(f.records, record)
	return nil
}

func (f *fakeHistoryRepo) Update(_ context.Context, record *models.HistoryRecord) error {
	record.UpdatedAt = time.Now()
	for i, existing := range f.records {
		if existing.ID == record.ID {
			f.records[i] = record
			return nil
		}
	}
	return fmt.Errorf("record %d not found", record.ID)
}

func (f *fakeHistoryRepo) FindLatestSince(_ context.Context, interactionID string, boundary time.Time) (*models.HistoryRecord, error) {
	var latest *models.HistoryRecord
	for _, record := range f.records {
		if record.InteractionID != interactionID || !record.CreatedAt.After(boundary) {
			continue
		}
		if latest == nil || record.CreatedAt.After(latest.CreatedAt) {
			latest = record
		}
	}
	return latest, nil
}

func (f *fakeHistoryRepo) FindLatestAtOrBefore(_ context.Context, interactionID string, boundary time.Time) (*models.HistoryRecord, error) {
	var latest *models.HistoryRecord
	for _, record := range f.records {
		if record.InteractionID != interactionID || record.CreatedAt.After(boundary) {
			continue
		}
		if latest == nil || record.CreatedAt.After(latest.CreatedAt) {
			latest = record
		}
	}
	return latest, nil
}

func (f *fakeHistoryRepo) FindByInteraction(_ context.Context, interactionID string, limit int) ([]*models.HistoryRecord, error) {
	var out []*models.HistoryRecord
	for _, record := range f.records {
		if record.InteractionID == interactionID {
			out = append(out, record)
		}
	}
	return out, nil
}

type fakeEntityRepo struct {
	entities map[primitive.ObjectID]*models.EntityDefinition
}

func newFakeEntityRepo(entities ...*models.EntityDefinition) *fakeEntityRepo {
	repo := &fakeEntityRepo{entities: make(map[primitive.ObjectID]*models.EntityDefinition)}
	for _, entity := range entities {
		repo.entities[entity.ID] = entity
	}
	return repo
}

func (f *fakeEntityRepo) FindByBot(_ context.Context, botID primitive.ObjectID) ([]*models.EntityDefinition, error) {
	var out []*models.EntityDefinition
	for _, entity := range f.entities {
		if entity.BotID == botID {
			out = append(out, entity)
		}
	}
	return out, nil
}

func (f *fakeEntityRepo) SetRemoteRef(_ context.Context, id primitive.ObjectID, remoteRef string) error {
	entity, ok := f.entities[id]
	if !ok {
		return fmt.Errorf("entity %s not found", id.Hex())
	}
	entity.RemoteRef = remoteRef
	return nil
}

// fakeProvider is an in-memory NLU catalog that records every call.
type fakeProvider struct {
	nextID      int
	intents     map[string]nlu.Intent
	entityTypes map[string]nlu.EntityType
	calls       []string
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		intents:     make(map[string]nlu.Intent),
		entityTypes: make(map[string]nlu.EntityType),
	}
}

func (f *fakeProvider) CreateIntent(_ context.Context, intent nlu.Intent) (string, error) {
	f.nextID++
	id := fmt.Sprintf("remote-intent-%d", f.nextID)
	intent.ID = id
	f.intents[id] = intent
	f.calls = append(f.calls, "CreateIntent")
	return id, nil
}

func (f *fakeProvider) UpdateIntent(_ context.Context, id string, intent nlu.Intent) error {
	f.calls = append(f.calls, "UpdateIntent")
	if _, ok := f.intents[id]; !ok {
		return fmt.Errorf("intent %s: %w", id, nlu.ErrNotFound)
	}
	intent.ID = id
	f.intents[id] = intent
	return nil
}

func (f *fakeProvider) DeleteIntent(_ context.Context, id string) error {
	f.calls = append(f.calls, "DeleteIntent")
	if _, ok := f.intents[id]; !ok {
		return fmt.Errorf("intent %s: %w", id, nlu.ErrNotFound)
	}
	delete(f.intents, id)
	return nil
}

func (f *fakeProvider) ListIntents(_ context.Context) ([]nlu.Intent, error) {
	f.calls = append(f.calls, "ListIntents")
	var out []nlu.Intent
	for _, intent := range f.intents {
		out = append(out, intent)
	}
	return out, nil
}

func (f *fakeProvider) CreateEntityType(_ context.Context, entityType nlu.EntityType) (string, error) {
	f.nextID++
	id := fmt.Sprintf("remote-entity-%d", f.nextID)
	entityType.ID = id
	f.entityTypes[id] = entityType
	f.calls = append(f.calls, "CreateEntityType")
	return id, nil
}

func (f *fakeProvider) UpdateEntityType(_ context.Context, id string, entityType nlu.EntityType) error {
	f.calls = append(f.calls, "UpdateEntityType")
	if _, ok := f.entityTypes[id]; !ok {
		return fmt.Errorf("entity type %s: %w", id, nlu.ErrNotFound)
	}
	entityType.ID = id
	f.entityTypes[id] = entityType
	return nil
}

func (f *fakeProvider) DeleteEntityType(_ context.Context, id string) error {
	f.calls = append(f.calls, "DeleteEntityType")
	if _, ok := f.entityTypes[id]; !ok {
		return fmt.Errorf("entity type %s: %w", id, nlu.ErrNotFound)
	}
	delete(f.entityTypes, id)
	return nil
}

func (f *fakeProvider) ListEntityTypes(_ context.Context) ([]nlu.EntityType, error) {
	f.calls = append(f.calls, "ListEntityTypes")
	var out []nlu.EntityType
	for _, entityType := range f.entityTypes {
		out = append(out, entityType)
	}
	return out, nil
}

// memoryCache implements the cache port without Redis.
type memoryCache struct {
	mu      sync.Mutex
	entries map[string]*models.Interaction
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: make(map[string]*models.Interaction)}
}

func (c *memoryCache) Get(_ context.Context, key cache.InteractionKey) (*models.Interaction, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	interaction, ok := c.entries[key.String()]
	return interaction, ok
}

func (c *memoryCache) Set(_ context.Context, key cache.InteractionKey, interaction *models.Interaction) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key.String()] = interaction
	return nil
}

func (c *memoryCache) Invalidate(_ context.Context, key cache.InteractionKey) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key.String())
	return nil
}

// recordingPublisher captures emitted events in-process.
type recordingPublisher struct {
	events []events.PublicationEvent
}

func (p *recordingPublisher) Publish(_ context.Context, event events.PublicationEvent) error {
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) Subscribe(events.Subscriber) {}

// noopNLUSync satisfies the sync port where provider traffic is irrelevant.
type noopNLUSync struct{}

func (noopNLUSync) OnInteractionCreated(context.Context, *models.Interaction) error {
	return nil
}

func (noopNLUSync) OnInteractionUpdated(context.Context, *models.Interaction, *models.Interaction) error {
	return nil
}

func (noopNLUSync) Sync(context.Context, string, string) (*dtos.SyncResponse, uint32, error) {
	return nil, 0, nil
}

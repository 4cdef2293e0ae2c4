package repositories

import (
	"botstudio/internal/constants"
	"botstudio/internal/models"
	"botstudio/pkg/mongodb"
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type InteractionRepository interface {
	Create(ctx context.Context, interaction *models.Interaction) error
	Update(ctx context.Context, id primitive.ObjectID, interaction *models.Interaction) error
	SoftDelete(ctx context.Context, id primitive.ObjectID, deletedAt time.Time) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Interaction, error)
	FindActiveByBot(ctx context.Context, botID primitive.ObjectID) ([]*models.Interaction, error)
	FindAllByBot(ctx context.Context, botID primitive.ObjectID) ([]*models.Interaction, error)
	FindActiveByBotAndType(ctx context.Context, botID primitive.ObjectID, interactionType string) ([]*models.Interaction, error)
	FindActiveByBotTypeAndParent(ctx context.Context, botID primitive.ObjectID, interactionType string, parentID *primitive.ObjectID) ([]*models.Interaction, error)
	FindAncestors(ctx context.Context, id primitive.ObjectID, maxDepth int) ([]*models.Interaction, error)
	FindDescendants(ctx context.Context, botID, ancestorID primitive.ObjectID) ([]*models.Interaction, error)
	FindReferencing(ctx context.Context, sourceID primitive.ObjectID) ([]*models.Interaction, error)
	AddChild(ctx context.Context, parentID, childID primitive.ObjectID) error
	RemoveChild(ctx context.Context, parentID, childID primitive.ObjectID) error
	AddComment(ctx context.Context, id primitive.ObjectID, comment models.Comment) error
	SetNLUIntentRef(ctx context.Context, id primitive.ObjectID, intentRef string) error
	SetPublishedAt(ctx context.Context, id primitive.ObjectID, publishedAt time.Time) error

	// Published snapshot, keyed by the same ids as the draft collection
	FindPublishedByID(ctx context.Context, id primitive.ObjectID) (*models.Interaction, error)
	FindPublishedByBot(ctx context.Context, botID primitive.ObjectID) ([]*models.Interaction, error)
	UpsertPublished(ctx context.Context, interaction *models.Interaction) error
	DeletePublished(ctx context.Context, id primitive.ObjectID) error
}

type interactionRepository struct {
	draftCollection     *mongo.Collection
	publishedCollection *mongo.Collection
}

func NewInteractionRepository(mongoClient *mongodb.MongoDBClient) InteractionRepository {
	return &interactionRepository{
		draftCollection:     mongoClient.GetCollectionByName(constants.CollectionInteractions),
		publishedCollection: mongoClient.GetCollectionByName(constants.CollectionPublishedInteractions),
	}
}

func (r *interactionRepository) Create(ctx context.Context, interaction *models.Interaction) error {
	_, err := r.draftCollection.InsertOne(ctx, interaction)
	return err
}

func (r *interactionRepository) Update(ctx context.Context, id primitive.ObjectID, interaction *models.Interaction) error {
	interaction.UpdatedAt = time.Now()
	filter := bson.M{"_id": id}
	update := bson.M{"$set": interaction}
	_, err := r.draftCollection.UpdateOne(ctx, filter, update)
	return err
}

func (r *interactionRepository) SoftDelete(ctx context.Context, id primitive.ObjectID, deletedAt time.Time) error {
	filter := bson.M{"_id": id}
	update := bson.M{"$set": bson.M{"deleted_at": deletedAt, "updated_at": deletedAt}}
	_, err := r.draftCollection.UpdateOne(ctx, filter, update)
	return err
}

func (r *interactionRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Interaction, error) {
	var interaction models.Interaction
	err := r.draftCollection.FindOne(ctx, bson.M{"_id": id}).Decode(&interaction)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	return &interaction, err
}

func (r *interactionRepository) FindActiveByBot(ctx context.Context, botID primitive.ObjectID) ([]*models.Interaction, error) {
	return r.findDraft(ctx, bson.M{"bot_id": botID, "deleted_at": nil})
}

// FindAllByBot includes soft-deleted nodes, for diffing against the
// published snapshot.
func (r *interactionRepository) FindAllByBot(ctx context.Context, botID primitive.ObjectID) ([]*models.Interaction, error) {
	return r.findDraft(ctx, bson.M{"bot_id": botID})
}

func (r *interactionRepository) FindActiveByBotAndType(ctx context.Context, botID primitive.ObjectID, interactionType string) ([]*models.Interaction, error) {
	return r.findDraft(ctx, bson.M{"bot_id": botID, "type": interactionType, "deleted_at": nil})
}

func (r *interactionRepository) FindActiveByBotTypeAndParent(ctx context.Context, botID primitive.ObjectID, interactionType string, parentID *primitive.ObjectID) ([]*models.Interaction, error) {
	filter := bson.M{"bot_id": botID, "type": interactionType, "deleted_at": nil}
	if parentID != nil {
		filter["parent_id"] = *parentID
	} else {
		filter["parent_id"] = nil
	}
	return r.findDraft(ctx, filter)
}

// FindAncestors walks parent_id upward through a $graphLookup aggregation,
// bounded by maxDepth, and returns the chain nearest-first. Soft-deleted
// ancestors are excluded from the walk.
func (r *interactionRepository) FindAncestors(ctx context.Context, id primitive.ObjectID, maxDepth int) ([]*models.Interaction, error) {
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.M{"_id": id}}},
		bson.D{{Key: "$graphLookup", Value: bson.M{
			"from":                    constants.CollectionInteractions,
			"startWith":               "$parent_id",
			"connectFromField":        "parent_id",
			"connectToField":          "_id",
			"as":                      "ancestors",
			"maxDepth":                maxDepth,
			"depthField":              "ancestor_depth",
			"restrictSearchWithMatch": bson.M{"deleted_at": nil},
		}}},
	}

	cursor, err := r.draftCollection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	type ancestorDoc struct {
		models.Interaction `bson:",inline"`
		AncestorDepth      int32 `bson:"ancestor_depth"`
	}
	type resultDoc struct {
		Ancestors []ancestorDoc `bson:"ancestors"`
	}

	var results []resultDoc
	if err := cursor.All(ctx, &results); err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}

	// $graphLookup returns the chain unordered; depth 0 is the direct parent
	byDepth := make(map[int32]*models.Interaction, len(results[0].Ancestors))
	for i := range results[0].Ancestors {
		doc := results[0].Ancestors[i]
		interaction := doc.Interaction
		byDepth[doc.AncestorDepth] = &interaction
	}

	ancestors := make([]*models.Interaction, 0, len(byDepth))
	for depth := int32(0); ; depth++ {
		interaction, ok := byDepth[depth]
		if !ok {
			break
		}
		ancestors = append(ancestors, interaction)
	}
	return ancestors, nil
}

// FindDescendants returns every active node whose complete path contains the
// given ancestor id.
func (r *interactionRepository) FindDescendants(ctx context.Context, botID, ancestorID primitive.ObjectID) ([]*models.Interaction, error) {
	return r.findDraft(ctx, bson.M{
		"bot_id":        botID,
		"complete_path": ancestorID,
		"deleted_at":    nil,
	})
}

func (r *interactionRepository) FindReferencing(ctx context.Context, sourceID primitive.ObjectID) ([]*models.Interaction, error) {
	return r.findDraft(ctx, bson.M{"reference": sourceID, "deleted_at": nil})
}

func (r *interactionRepository) AddChild(ctx context.Context, parentID, childID primitive.ObjectID) error {
	filter := bson.M{"_id": parentID}
	update := bson.M{"$addToSet": bson.M{"children": childID}}
	_, err := r.draftCollection.UpdateOne(ctx, filter, update)
	return err
}

func (r *interactionRepository) RemoveChild(ctx context.Context, parentID, childID primitive.ObjectID) error {
	filter := bson.M{"_id": parentID}
	update := bson.M{"$pull": bson.M{"children": childID}}
	_, err := r.draftCollection.UpdateOne(ctx, filter, update)
	return err
}

func (r *interactionRepository) AddComment(ctx context.Context, id primitive.ObjectID, comment models.Comment) error {
	filter := bson.M{"_id": id}
	update := bson.M{
		"$push": bson.M{"comments": comment},
		"$set":  bson.M{"updated_at": time.Now()},
	}
	_, err := r.draftCollection.UpdateOne(ctx, filter, update)
	return err
}

func (r *interactionRepository) SetNLUIntentRef(ctx context.Context, id primitive.ObjectID, intentRef string) error {
	filter := bson.M{"_id": id}
	var update bson.M
	if intentRef == "" {
		update = bson.M{"$unset": bson.M{"params.nlu.intent_ref": ""}}
	} else {
		update = bson.M{"$set": bson.M{"params.nlu.intent_ref": intentRef}}
	}
	_, err := r.draftCollection.UpdateOne(ctx, filter, update)
	return err
}

func (r *interactionRepository) SetPublishedAt(ctx context.Context, id primitive.ObjectID, publishedAt time.Time) error {
	filter := bson.M{"_id": id}
	update := bson.M{"$set": bson.M{"published_at": publishedAt}}
	_, err := r.draftCollection.UpdateOne(ctx, filter, update)
	return err
}

func (r *interactionRepository) FindPublishedByID(ctx context.Context, id primitive.ObjectID) (*models.Interaction, error) {
	var interaction models.Interaction
	err := r.publishedCollection.FindOne(ctx, bson.M{"_id": id}).Decode(&interaction)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	return &interaction, err
}

func (r *interactionRepository) FindPublishedByBot(ctx context.Context, botID primitive.ObjectID) ([]*models.Interaction, error) {
	var interactions []*models.Interaction
	cursor, err := r.publishedCollection.Find(ctx, bson.M{"bot_id": botID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	err = cursor.All(ctx, &interactions)
	return interactions, err
}

func (r *interactionRepository) UpsertPublished(ctx context.Context, interaction *models.Interaction) error {
	filter := bson.M{"_id": interaction.ID}
	update := bson.M{"$set": interaction}
	opts := options.Update().SetUpsert(true)
	_, err := r.publishedCollection.UpdateOne(ctx, filter, update, opts)
	return err
}

func (r *interactionRepository) DeletePublished(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.publishedCollection.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

func (r *interactionRepository) findDraft(ctx context.Context, filter bson.M) ([]*models.Interaction, error) {
	var interactions []*models.Interaction
	opts := options.Find().SetSort(bson.D{{Key: "position", Value: 1}})
	cursor, err := r.draftCollection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	err = cursor.All(ctx, &interactions)
	return interactions, err
}

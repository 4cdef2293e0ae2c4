package repositories

import (
	"botstudio/internal/constants"
	"botstudio/internal/models"
	"botstudio/pkg/mongodb"
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// IntentCatalogRepository reads the intent definitions the validator resolves
// uniqueness policies against. The catalog is keyed by intent name.
type IntentCatalogRepository interface {
	FindByName(ctx context.Context, name string) (*models.IntentDefinition, error)
	FindAll(ctx context.Context) ([]*models.IntentDefinition, error)
	Create(ctx context.Context, definition *models.IntentDefinition) error
}

type intentCatalogRepository struct {
	collection *mongo.Collection
}

func NewIntentCatalogRepository(mongoClient *mongodb.MongoDBClient) IntentCatalogRepository {
	return &intentCatalogRepository{
		collection: mongoClient.GetCollectionByName(constants.CollectionIntents),
	}
}

func (r *intentCatalogRepository) FindByName(ctx context.Context, name string) (*models.IntentDefinition, error) {
	var definition models.IntentDefinition
	err := r.collection.FindOne(ctx, bson.M{"name": name}).Decode(&definition)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	return &definition, err
}

func (r *intentCatalogRepository) FindAll(ctx context.Context) ([]*models.IntentDefinition, error) {
	var definitions []*models.IntentDefinition
	cursor, err := r.collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	err = cursor.All(ctx, &definitions)
	return definitions, err
}

func (r *intentCatalogRepository) Create(ctx context.Context, definition *models.IntentDefinition) error {
	_, err := r.collection.InsertOne(ctx, definition)
	return err
}

package repositories

import (
	"botstudio/internal/constants"
	"botstudio/internal/models"
	"botstudio/pkg/mongodb"
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// PublicationRepository stores the markers recorded after successful
// publishes. The latest marker of a bot is the pending-changes baseline.
type PublicationRepository interface {
	Create(ctx context.Context, publication *models.Publication) error
	FindLatestByBot(ctx context.Context, botID primitive.ObjectID) (*models.Publication, error)
	FindByBot(ctx context.Context, botID primitive.ObjectID, page, pageSize int) ([]*models.Publication, int64, error)
}

type publicationRepository struct {
	collection *mongo.Collection
}

func NewPublicationRepository(mongoClient *mongodb.MongoDBClient) PublicationRepository {
	return &publicationRepository{
		collection: mongoClient.GetCollectionByName(constants.CollectionPublications),
	}
}

func (r *publicationRepository) Create(ctx context.Context, publication *models.Publication) error {
	_, err := r.collection.InsertOne(ctx, publication)
	return err
}

func (r *publicationRepository) FindLatestByBot(ctx context.Context, botID primitive.ObjectID) (*models.Publication, error) {
	var publication models.Publication
	opts := options.FindOne().SetSort(bson.D{{Key: "published_at", Value: -1}})
	err := r.collection.FindOne(ctx, bson.M{"bot_id": botID}, opts).Decode(&publication)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	return &publication, err
}

func (r *publicationRepository) FindByBot(ctx context.Context, botID primitive.ObjectID, page, pageSize int) ([]*models.Publication, int64, error) {
	filter := bson.M{"bot_id": botID}

	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	skip := int64((page - 1) * pageSize)
	opts := options.Find().
		SetSkip(skip).
		SetLimit(int64(pageSize)).
		SetSort(bson.D{{Key: "published_at", Value: -1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	var publications []*models.Publication
	err = cursor.All(ctx, &publications)
	return publications, total, err
}

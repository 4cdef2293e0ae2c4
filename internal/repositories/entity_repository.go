package repositories

import (
	"botstudio/internal/models"
	"botstudio/pkg/mongodb"
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type EntityRepository interface {
	FindByBot(ctx context.Context, botID primitive.ObjectID) ([]*models.EntityDefinition, error)
	SetRemoteRef(ctx context.Context, id primitive.ObjectID, remoteRef string) error
}

type entityRepository struct {
	collection *mongo.Collection
}

func NewEntityRepository(mongoClient *mongodb.MongoDBClient) EntityRepository {
	return &entityRepository{
		collection: mongoClient.GetCollectionByName("entities"),
	}
}

func (r *entityRepository) FindByBot(ctx context.Context, botID primitive.ObjectID) ([]*models.EntityDefinition, error) {
	var definitions []*models.EntityDefinition
	cursor, err := r.collection.Find(ctx, bson.M{"bot_id": botID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	err = cursor.All(ctx, &definitions)
	return definitions, err
}

func (r *entityRepository) SetRemoteRef(ctx context.Context, id primitive.ObjectID, remoteRef string) error {
	filter := bson.M{"_id": id}
	var update bson.M
	if remoteRef == "" {
		update = bson.M{"$unset": bson.M{"remote_ref": ""}}
	} else {
		update = bson.M{"$set": bson.M{"remote_ref": remoteRef}}
	}
	_, err := r.collection.UpdateOne(ctx, filter, update)
	return err
}

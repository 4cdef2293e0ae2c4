package repositories

import (
	"botstudio/internal/constants"
	"botstudio/internal/models"
	"botstudio/pkg/mongodb"
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type WorkspaceRepository interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Workspace, error)
	Create(ctx context.Context, workspace *models.Workspace) error
	Update(ctx context.Context, id primitive.ObjectID, workspace *models.Workspace) error
}

type workspaceRepository struct {
	collection *mongo.Collection
}

func NewWorkspaceRepository(mongoClient *mongodb.MongoDBClient) WorkspaceRepository {
	return &workspaceRepository{
		collection: mongoClient.GetCollectionByName(constants.CollectionWorkspaces),
	}
}

func (r *workspaceRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Workspace, error) {
	var workspace models.Workspace
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&workspace)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	return &workspace, err
}

func (r *workspaceRepository) Create(ctx context.Context, workspace *models.Workspace) error {
	_, err := r.collection.InsertOne(ctx, workspace)
	return err
}

func (r *workspaceRepository) Update(ctx context.Context, id primitive.ObjectID, workspace *models.Workspace) error {
	filter := bson.M{"_id": id}
	update := bson.M{"$set": workspace}
	_, err := r.collection.UpdateOne(ctx, filter, update)
	return err
}

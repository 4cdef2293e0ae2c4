package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Publication is the marker recorded after a successful publish. The most
// recent marker of a bot is the baseline for pending-changes comparisons.
type Publication struct {
	BotID       primitive.ObjectID `bson:"bot_id" json:"bot_id"`
	WorkspaceID primitive.ObjectID `bson:"workspace_id" json:"workspace_id"`
	UserID      primitive.ObjectID `bson:"user_id" json:"user_id"`
	Comment     string             `bson:"comment,omitempty" json:"comment,omitempty"`
	PublishedAt time.Time          `bson:"published_at" json:"published_at"`
	Base        `bson:",inline"`
}

func NewPublication(botID, workspaceID, userID primitive.ObjectID, comment string) *Publication {
	return &Publication{
		BotID:       botID,
		WorkspaceID: workspaceID,
		UserID:      userID,
		Comment:     comment,
		PublishedAt: time.Now(),
		Base:        NewBase(),
	}
}

package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// EntityDefinition is a bot-level entity type synchronized to the NLU
// provider. RemoteRef is the provider-side id, re-stamped during sync.
type EntityDefinition struct {
	BotID       primitive.ObjectID `bson:"bot_id" json:"bot_id"`
	WorkspaceID primitive.ObjectID `bson:"workspace_id" json:"workspace_id"`
	Name        string             `bson:"name" json:"name"`
	Entries     []EntityEntry      `bson:"entries" json:"entries"`
	RemoteRef   string             `bson:"remote_ref,omitempty" json:"remote_ref,omitempty"`
	Base        `bson:",inline"`
}

type EntityEntry struct {
	Value    string   `bson:"value" json:"value"`
	Synonyms []string `bson:"synonyms,omitempty" json:"synonyms,omitempty"`
}

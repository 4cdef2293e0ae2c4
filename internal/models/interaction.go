package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Interaction is a node of a bot's dialog tree. Authors edit these draft
// documents; publishing copies them into the published_interactions
// collection consumed by the runtime engine.
type Interaction struct {
	BotID       primitive.ObjectID `bson:"bot_id" json:"bot_id"`
	WorkspaceID primitive.ObjectID `bson:"workspace_id" json:"workspace_id"`

	Name string `bson:"name" json:"name"`
	Type string `bson:"type" json:"type"` // welcome | fallback | context-fallback | interaction | container

	// Structure. Parent pointers are ids, never live references; every walk
	// over them is bounded by the configured traversal guard.
	ParentID     *primitive.ObjectID  `bson:"parent_id,omitempty" json:"parent_id,omitempty"`
	Position     float64              `bson:"position" json:"position"`
	Path         []primitive.ObjectID `bson:"path" json:"path"`                   // botId + ancestors, containers and welcome elided
	CompletePath []primitive.ObjectID `bson:"complete_path" json:"complete_path"` // every ancestor, containers included
	Children     []primitive.ObjectID `bson:"children,omitempty" json:"children,omitempty"`

	// Content
	Languages  []LanguageContent `bson:"languages" json:"languages"`
	Triggers   []string          `bson:"triggers,omitempty" json:"triggers,omitempty"`
	Parameters []Parameter       `bson:"parameters,omitempty" json:"parameters,omitempty"`
	Comments   []Comment         `bson:"comments,omitempty" json:"comments,omitempty"`

	// Versioning
	Reference    *primitive.ObjectID `bson:"reference,omitempty" json:"reference,omitempty"` // source node this node cloned at creation
	Params       InteractionParams   `bson:"params" json:"params"`
	PublishedAt  *time.Time          `bson:"published_at,omitempty" json:"published_at,omitempty"`
	DeletedAt    *time.Time          `bson:"deleted_at,omitempty" json:"deleted_at,omitempty"`
	LastUpdateBy *LastUpdate         `bson:"last_update_by,omitempty" json:"last_update_by,omitempty"`

	Base `bson:",inline"`
}

// LanguageContent holds the per-language authoring content of a node.
type LanguageContent struct {
	Language  string     `bson:"language" json:"language"`
	Responses []Response `bson:"responses" json:"responses"`
	UserSays  []string   `bson:"user_says" json:"user_says"` // training utterances pushed to the NLU provider
	Intents   []string   `bson:"intents" json:"intents"`     // intent names from the intent catalog
}

// Response is one reply element. Type decides which fields are meaningful:
// "text" uses Text, "goto" uses TargetID, "card" uses Text plus Buttons.
type Response struct {
	Type     string              `bson:"type" json:"type"`
	Text     string              `bson:"text,omitempty" json:"text,omitempty"`
	TargetID *primitive.ObjectID `bson:"target_id,omitempty" json:"target_id,omitempty"`
	Buttons  []CardButton        `bson:"buttons,omitempty" json:"buttons,omitempty"`
}

type CardButton struct {
	Label    string              `bson:"label" json:"label"`
	TargetID *primitive.ObjectID `bson:"target_id,omitempty" json:"target_id,omitempty"`
	URL      string              `bson:"url,omitempty" json:"url,omitempty"`
}

// Parameter is a flow-declared variable derived from response content.
type Parameter struct {
	Name  string `bson:"name" json:"name"`
	Value string `bson:"value,omitempty" json:"value,omitempty"`
}

type Comment struct {
	UserID    primitive.ObjectID `bson:"user_id" json:"user_id"`
	Text      string             `bson:"text" json:"text"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}

type InteractionParams struct {
	NLU NLUParams `bson:"nlu" json:"nlu"`
}

// NLUParams links a node to the remote provider's catalog. IntentRef is the
// provider-side id, owned by the provider and re-stamped during sync.
type NLUParams struct {
	IntentRef string `bson:"intent_ref,omitempty" json:"intent_ref,omitempty"`
}

type LastUpdate struct {
	UserID    primitive.ObjectID `bson:"user_id" json:"user_id"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`
}

func NewInteraction(botID, workspaceID primitive.ObjectID, name, interactionType string) *Interaction {
	return &Interaction{
		BotID:       botID,
		WorkspaceID: workspaceID,
		Name:        name,
		Type:        interactionType,
		Languages:   []LanguageContent{},
		Base:        NewBase(),
	}
}

// IsDeleted reports whether the node is soft-deleted.
func (i *Interaction) IsDeleted() bool {
	return i.DeletedAt != nil
}

// IntentNames returns every intent name across all languages, deduplicated.
func (i *Interaction) IntentNames() []string {
	seen := map[string]bool{}
	var names []string
	for _, lang := range i.Languages {
		for _, name := range lang.Intents {
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	return names
}

// UserSaysAll returns every training utterance across all languages.
func (i *Interaction) UserSaysAll() []string {
	var all []string
	for _, lang := range i.Languages {
		all = append(all, lang.UserSays...)
	}
	return all
}

// HasInPath reports whether id appears in the node's complete ancestor chain.
func (i *Interaction) HasInPath(id primitive.ObjectID) bool {
	for _, ancestor := range i.CompletePath {
		if ancestor == id {
			return true
		}
	}
	return false
}

package dtos

import "botstudio/internal/apperrors"

type PublishRequest struct {
	Comment string `json:"comment"`
}

type PublishResponse struct {
	BotID               string                        `json:"bot_id"`
	CreatedOrUpdatedIDs []string                      `json:"created_or_updated_ids"`
	DeletedIDs          []string                      `json:"deleted_ids"`
	Failures            []apperrors.ValidationFailure `json:"failures,omitempty"` // per-node write failures, non-blocking
}

type PublishErrorsResponse struct {
	BotID    string                        `json:"bot_id"`
	Failures []apperrors.ValidationFailure `json:"failures"`
}

// PendingInteraction is one node that would be affected by the next publish.
type PendingInteraction struct {
	InteractionID string   `json:"interaction_id"`
	Name          string   `json:"name"`
	Status        string   `json:"status"` // created | updated | deleted
	ChangedFields []string `json:"changed_fields,omitempty"`
}

type PendingPublicationResponse struct {
	BotID   string               `json:"bot_id"`
	Pending []PendingInteraction `json:"pending"`
}

type SyncResponse struct {
	BotID                 string `json:"bot_id"`
	IntentsMatched        int    `json:"intents_matched"`
	IntentLinksCleared    int    `json:"intent_links_cleared"`
	RemoteIntentsDeleted  int    `json:"remote_intents_deleted"`
	EntitiesMatched       int    `json:"entities_matched"`
	EntitiesCreated       int    `json:"entities_created"`
	RemoteEntitiesDeleted int    `json:"remote_entities_deleted"`
}

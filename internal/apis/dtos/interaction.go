package dtos

import "botstudio/internal/models"

type CreateInteractionRequest struct {
	BotID       string                   `json:"bot_id" binding:"required"`
	WorkspaceID string                   `json:"workspace_id" binding:"required"`
	Name        string                   `json:"name" binding:"required"`
	Type        string                   `json:"type" binding:"required"`
	ParentID    *string                  `json:"parent_id"`
	Position    float64                  `json:"position"`
	Reference   *string                  `json:"reference"` // clone this node's content at creation
	Languages   []models.LanguageContent `json:"languages"`
	Triggers    []string                 `json:"triggers"`
}

type UpdateInteractionRequest struct {
	Name      *string                   `json:"name"`
	Languages *[]models.LanguageContent `json:"languages"`
	Triggers  *[]string                 `json:"triggers"`
	Position  *float64                  `json:"position"`
}

type MoveInteractionRequest struct {
	NewParentID *string `json:"new_parent_id"`
	Position    float64 `json:"position"`
}

type AddCommentRequest struct {
	Text string `json:"text" binding:"required"`
}

type InteractionResponse struct {
	Interaction *models.Interaction `json:"interaction"`
}

type InteractionListResponse struct {
	Interactions []*models.Interaction `json:"interactions"`
	Total        int                   `json:"total"`
}

type ReferenceFanoutResponse struct {
	SourceID   string   `json:"source_id"`
	UpdatedIDs []string `json:"updated_ids"`
}

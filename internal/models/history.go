package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// HistoryRecord is one audit row in the relational store: "the node as of
// this edit". Rows are coalesced in place until a publication boundary
// intervenes, then a fresh row is appended.
type HistoryRecord struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	InteractionID string         `gorm:"index:idx_history_interaction;size:24" json:"interaction_id"`
	BotID         string         `gorm:"index;size:24" json:"bot_id"`
	WorkspaceID   string         `gorm:"size:24" json:"workspace_id"`
	Snapshot      datatypes.JSON `json:"snapshot"`
	UpdatedBy     string         `gorm:"size:24" json:"updated_by"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

func (HistoryRecord) TableName() string {
	return "interaction_history"
}

// NewHistoryRecord snapshots the given interaction as an audit row.
func NewHistoryRecord(userID string, interaction *Interaction) (*HistoryRecord, error) {
	raw, err := json.Marshal(interaction)
	if err != nil {
		return nil, err
	}
	return &HistoryRecord{
		InteractionID: interaction.ID.Hex(),
		BotID:         interaction.BotID.Hex(),
		WorkspaceID:   interaction.WorkspaceID.Hex(),
		Snapshot:      datatypes.JSON(raw),
		UpdatedBy:     userID,
	}, nil
}

// DecodeSnapshot unmarshals the stored node state.
func (h *HistoryRecord) DecodeSnapshot() (*Interaction, error) {
	var interaction Interaction
	if err := json.Unmarshal(h.Snapshot, &interaction); err != nil {
		return nil, err
	}
	return &interaction, nil
}

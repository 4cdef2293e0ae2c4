package services

import (
	"botstudio/internal/models"
	"botstudio/internal/repositories"
	"context"
	"log"
	"time"
)

// HistoryService keeps the append-only audit log. One row stands for "the
// node as of this edit" and is coalesced in place until a publication
// boundary intervenes; the next edit after a publish appends a fresh row.
type HistoryService interface {
	Record(ctx context.Context, userID string, interaction *models.Interaction) error
	GetPendingSince(ctx context.Context, interaction *models.Interaction) (*models.HistoryRecord, error)
}

type historyService struct {
	historyRepo     repositories.HistoryRepository
	publicationRepo repositories.PublicationRepository
}

func NewHistoryService(historyRepo repositories.HistoryRepository, publicationRepo repositories.PublicationRepository) HistoryService {
	return &historyService{
		historyRepo:     historyRepo,
		publicationRepo: publicationRepo,
	}
}

func (s *historyService) Record(ctx context.Context, userID string, interaction *models.Interaction) error {
	boundary, err := s.publicationBoundary(ctx, interaction)
	if err != nil {
		return err
	}

	existing, err := s.historyRepo.FindLatestSince(ctx, interaction.ID.Hex(), boundary)
	if err != nil {
		return err
	}

	record, err := models.NewHistoryRecord(userID, interaction)
	if err != nil {
		return err
	}

	if existing != nil {
		existing.Snapshot = record.Snapshot
		existing.UpdatedBy = record.UpdatedBy
		return s.historyRepo.Update(ctx, existing)
	}

	log.Printf("HistoryService -> Record -> new row for interaction %s", interaction.ID.Hex())
	return s.historyRepo.Create(ctx, record)
}

// GetPendingSince returns the "before" side of a pending-changes diff: the
// newest audit row at or before the node's publication boundary.
func (s *historyService) GetPendingSince(ctx context.Context, interaction *models.Interaction) (*models.HistoryRecord, error) {
	boundary, err := s.publicationBoundary(ctx, interaction)
	if err != nil {
		return nil, err
	}
	return s.historyRepo.FindLatestAtOrBefore(ctx, interaction.ID.Hex(), boundary)
}

// publicationBoundary prefers the node's own publish stamp and falls back to
// the bot's last publication marker. A never-published bot has a zero
// boundary, so every row coalesces.
func (s *historyService) publicationBoundary(ctx context.Context, interaction *models.Interaction) (time.Time, error) {
	if interaction.PublishedAt != nil {
		return *interaction.PublishedAt, nil
	}
	marker, err := s.publicationRepo.FindLatestByBot(ctx, interaction.BotID)
	if err != nil {
		return time.Time{}, err
	}
	if marker != nil {
		return marker.PublishedAt, nil
	}
	return time.Time{}, nil
}

package repositories

import (
	"botstudio/internal/models"
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

// HistoryRepository is the append-only audit log in the relational store.
type HistoryRepository interface {
	Create(ctx context.Context, record *models.HistoryRecord) error
	Update(ctx context.Context, record *models.HistoryRecord) error
	FindLatestSince(ctx context.Context, interactionID string, boundary time.Time) (*models.HistoryRecord, error)
	FindLatestAtOrBefore(ctx context.Context, interactionID string, boundary time.Time) (*models.HistoryRecord, error)
	FindByInteraction(ctx context.Context, interactionID string, limit int) ([]*models.HistoryRecord, error)
}

type historyRepository struct {
	db *gorm.DB
}

func NewHistoryRepository(db *gorm.DB) HistoryRepository {
	return &historyRepository{db: db}
}

func (r *historyRepository) Create(ctx context.Context, record *models.HistoryRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *historyRepository) Update(ctx context.Context, record *models.HistoryRecord) error {
	return r.db.WithContext(ctx).Save(record).Error
}

// FindLatestSince returns the newest row of a node created after the given
// publication boundary, or nil when every row predates it.
func (r *historyRepository) FindLatestSince(ctx context.Context, interactionID string, boundary time.Time) (*models.HistoryRecord, error) {
	var record models.HistoryRecord
	err := r.db.WithContext(ctx).
		Where("interaction_id = ? AND created_at > ?", interactionID, boundary).
		Order("created_at DESC").
		First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// FindLatestAtOrBefore returns the newest row at or before the boundary, the
// "before" side of a pending-changes diff.
func (r *historyRepository) FindLatestAtOrBefore(ctx context.Context, interactionID string, boundary time.Time) (*models.HistoryRecord, error) {
	var record models.HistoryRecord
	err := r.db.WithContext(ctx).
		Where("interaction_id = ? AND created_at <= ?", interactionID, boundary).
		Order("created_at DESC").
		First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *historyRepository) FindByInteraction(ctx context.Context, interactionID string, limit int) ([]*models.HistoryRecord, error) {
	var records []*models.HistoryRecord
	err := r.db.WithContext(ctx).
		Where("interaction_id = ?", interactionID).
		Order("created_at DESC").
		Limit(limit).
		Find(&records).Error
	return records, err
}

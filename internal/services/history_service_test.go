package services

import (
	"botstudio/internal/constants"
	"botstudio/internal/models"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestRecord_CoalescesUntilPublication(t *testing.T) {
	historyRepo := &fakeHistoryRepo{}
	publicationRepo := &fakePublicationRepo{}
	service := NewHistoryService(historyRepo, publicationRepo)
	ctx := context.Background()
	userID := primitive.NewObjectID().Hex()

	node := models.NewInteraction(primitive.NewObjectID(), primitive.NewObjectID(), "greet", constants.InteractionTypeInteraction)

	// Two edits before any publish collapse into one row.
	require.NoError(t, service.Record(ctx, userID, node))
	node.Name = "greet v2"
	require.NoError(t, service.Record(ctx, userID, node))
	require.Len(t, historyRepo.records, 1)

	snapshot, err := historyRepo.records[0].DecodeSnapshot()
	require.NoError(t, err)
	assert.Equal(t, "greet v2", snapshot.Name)

	// Publishing moves the boundary; the next edit opens a fresh row.
	publishedAt := time.Now()
	node.PublishedAt = &publishedAt
	time.Sleep(5 * time.Millisecond)
	node.Name = "greet v3"
	require.NoError(t, service.Record(ctx, userID, node))
	require.Len(t, historyRepo.records, 2)

	latest, err := historyRepo.records[1].DecodeSnapshot()
	require.NoError(t, err)
	assert.Equal(t, "greet v3", latest.Name)
}

func TestRecord_UsesBotMarkerWhenNodeNeverPublished(t *testing.T) {
	historyRepo := &fakeHistoryRepo{}
	publicationRepo := &fakePublicationRepo{}
	service := NewHistoryService(historyRepo, publicationRepo)
	ctx := context.Background()
	userID := primitive.NewObjectID().Hex()
	botID := primitive.NewObjectID()

	node := models.NewInteraction(botID, primitive.NewObjectID(), "greet", constants.InteractionTypeInteraction)
	require.NoError(t, service.Record(ctx, userID, node))

	// A bot-level publish marker also acts as a boundary for unpublished
	// nodes.
	marker := models.NewPublication(botID, node.WorkspaceID, primitive.NewObjectID(), "release")
	require.NoError(t, publicationRepo.Create(ctx, marker))
	time.Sleep(5 * time.Millisecond)

	node.Name = "greet v2"
	require.NoError(t, service.Record(ctx, userID, node))
	assert.Len(t, historyRepo.records, 2)
}

func TestGetPendingSince_ReturnsBaselineRow(t *testing.T) {
	historyRepo := &fakeHistoryRepo{}
	publicationRepo := &fakePublicationRepo{}
	service := NewHistoryService(historyRepo, publicationRepo)
	ctx := context.Background()
	userID := primitive.NewObjectID().Hex()

	node := models.NewInteraction(primitive.NewObjectID(), primitive.NewObjectID(), "greet", constants.InteractionTypeInteraction)
	require.NoError(t, service.Record(ctx, userID, node))

	time.Sleep(5 * time.Millisecond)
	publishedAt := time.Now()
	node.PublishedAt = &publishedAt

	baseline, err := service.GetPendingSince(ctx, node)
	require.NoError(t, err)
	require.NotNil(t, baseline)

	snapshot, err := baseline.DecodeSnapshot()
	require.NoError(t, err)
	assert.Equal(t, "greet", snapshot.Name)
}

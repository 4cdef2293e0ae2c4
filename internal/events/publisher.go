package events

import (
	"botstudio/internal/constants"
	"botstudio/pkg/redis"
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

// PublicationEvent is the single change notification emitted after a
// successful publish. The runtime engine reloads the listed nodes from the
// published snapshot.
type PublicationEvent struct {
	EventID             string    `json:"event_id"`
	BotID               string    `json:"bot_id"`
	WorkspaceID         string    `json:"workspace_id"`
	CreatedOrUpdatedIDs []string  `json:"created_or_updated_ids"`
	DeletedIDs          []string  `json:"deleted_ids"`
	PublishedAt         time.Time `json:"published_at"`
}

func NewPublicationEvent(botID, workspaceID string, createdOrUpdated, deleted []string) PublicationEvent {
	return PublicationEvent{
		EventID:             uuid.NewString(),
		BotID:               botID,
		WorkspaceID:         workspaceID,
		CreatedOrUpdatedIDs: createdOrUpdated,
		DeletedIDs:          deleted,
		PublishedAt:         time.Now(),
	}
}

// Subscriber receives publication events in-process.
type Subscriber interface {
	HandlePublicationEvent(event PublicationEvent)
}

// Publisher fans a publication event out to in-process subscribers and to the
// runtime engine over Redis pub/sub. Emission happens once, at the end of a
// successful mutation, never mid-flight.
type Publisher interface {
	Publish(ctx context.Context, event PublicationEvent) error
	Subscribe(subscriber Subscriber)
}

type redisPublisher struct {
	redis       redis.IRedisRepositories
	subscribers []Subscriber
	mu          sync.RWMutex
}

func NewRedisPublisher(redisRepo redis.IRedisRepositories) Publisher {
	return &redisPublisher{
		redis: redisRepo,
	}
}

func (p *redisPublisher) Subscribe(subscriber Subscriber) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subscribers = append(p.subscribers, subscriber)
}

func (p *redisPublisher) Publish(ctx context.Context, event PublicationEvent) error {
	p.mu.RLock()
	subscribers := make([]Subscriber, len(p.subscribers))
	copy(subscribers, p.subscribers)
	p.mu.RUnlock()

	for _, subscriber := range subscribers {
		subscriber.HandlePublicationEvent(event)
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	channel := constants.PublicationChannelPrefix + event.BotID
	if err := p.redis.Publish(channel, payload, ctx); err != nil {
		// The local publish already succeeded; a lost notification is
		// recoverable by the runtime engine's own reload, so log and move on.
		log.Printf("Publisher -> Publish -> failed to notify channel %s: %v", channel, err)
		return err
	}
	return nil
}

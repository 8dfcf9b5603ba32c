// Package listener propagates committed content mutations into the derived
// stores: search index, feeds, tag counters, series documents and the
// notification stream. Every side effect runs inside its own error boundary
// on the dispatcher; none of them can fail the mutation that triggered it.
package listener

import (
	"context"

	"github.com/Luismorlan/contentmux/eventbus"
	"github.com/Luismorlan/contentmux/model"
	"github.com/Luismorlan/contentmux/notification"
)

type SearchIndex interface {
	UpsertContent(ctx context.Context, items []model.ContentItem) error
	UpdateContent(ctx context.Context, items []model.ContentItem) error
	DeleteContent(ctx context.Context, ids []string) error
	UpdateAttributes(ctx context.Context, ids []string, patch map[string]interface{}) error
}

type FeedFanoutPublisher interface {
	FanoutOnWrite(ctx context.Context, contentID string, addedGroupIds []string, removedGroupIds []string) error
}

type TagCounters interface {
	IncreaseUsed(ctx context.Context, tagIds []string) error
	DecreaseUsed(ctx context.Context, tagIds []string) error
}

type NotificationPublisher interface {
	Publish(ctx context.Context, n notification.Notification) error
}

// ContentRepository is the read and transition surface over content items.
type ContentRepository interface {
	FindContent(ctx context.Context, id string) (*model.ContentItem, error)
	FindProcessingContentsByVideo(ctx context.Context, videoID string) ([]model.ContentItem, error)
	MarkVideoPublished(ctx context.Context, contentID string, videoID string, properties map[string]interface{}) (*model.ContentItem, bool, error)
	MarkVideoFailed(ctx context.Context, contentID string, videoID string, properties map[string]interface{}) (*model.ContentItem, error)
	DeleteEditHistory(ctx context.Context, contentID string) error
}

type SeriesReader interface {
	ListItemIds(ctx context.Context, seriesID string) ([]string, error)
	Owners(ctx context.Context, seriesIds []string) (map[string]string, error)
}

type ReactionCounter interface {
	CountByTarget(ctx context.Context, targetID string) (map[string]int64, error)
}

// Listeners holds the collaborators shared by every listener. Bus is used
// both to publish secondary series events and to isolate side effects.
type Listeners struct {
	Bus           eventbus.Bus
	Contents      ContentRepository
	Series        SeriesReader
	Search        SearchIndex
	Feed          FeedFanoutPublisher
	Tags          TagCounters
	Notifications NotificationPublisher
	Reactions     ReactionCounter
}

package listener

import (
	"context"
	"errors"

	"github.com/Luismorlan/contentmux/events"
	"github.com/Luismorlan/contentmux/model"
	"github.com/Luismorlan/contentmux/notification"
	"github.com/Luismorlan/contentmux/series"
	"github.com/Luismorlan/contentmux/utils"
	Logger "github.com/Luismorlan/contentmux/utils/log"
	"github.com/sirupsen/logrus"
)

// OnContentPublished propagates a freshly published item. The persisted
// status is checked first so that a replayed or stale event is a no-op.
func (l *Listeners) OnContentPublished(ctx context.Context, e events.ContentPublished) error {
	current, err := l.Contents.FindContent(ctx, e.Content.Id)
	if errors.Is(err, model.ErrContentNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if !current.IsPublished() {
		Logger.Log.WithFields(logrus.Fields{"content": current.Id, "status": current.Status}).Info("skip publish propagation of unpublished content")
		return nil
	}
	l.propagatePublished(ctx, *current, e.ActorID)
	return nil
}

func (l *Listeners) propagatePublished(ctx context.Context, c model.ContentItem, actorID string) {
	l.Bus.Try(ctx, "search.upsert_content", func(ctx context.Context) error {
		return l.Search.UpsertContent(ctx, []model.ContentItem{c})
	})
	if len(c.TagIds) > 0 {
		l.Bus.Try(ctx, "tags.increase_used", func(ctx context.Context) error {
			return l.Tags.IncreaseUsed(ctx, c.TagIds)
		})
	}
	if len(c.GroupIds) > 0 {
		groups := append([]string{}, c.GroupIds...)
		l.Bus.Detach(ctx, "feed.fanout", func(ctx context.Context) error {
			return l.Feed.FanoutOnWrite(ctx, c.Id, groups, nil)
		})
	}
	if !c.IsHidden {
		l.Bus.Try(ctx, "notification.content_published", func(ctx context.Context) error {
			return l.Notifications.Publish(ctx, notification.Notification{
				Key:       c.Id,
				EventName: notification.EventContentPublished,
				ActorID:   actorID,
				Payload:   contentPayload(c),
				Meta:      &notification.Meta{IgnoreUserIds: []string{c.OwnerID}},
			})
		})
	}
	l.emitSeriesChanges(ctx, c, nil, c.SeriesIds, actorID, events.SeriesContextPublish)
}

// OnContentUpdated re-propagates an edited item. Unpublishing tears the item
// out of feeds, counters and search; edits of a published item apply the
// diff against the prior snapshot.
func (l *Listeners) OnContentUpdated(ctx context.Context, e events.ContentUpdated) error {
	before := e.Before
	current, err := l.Contents.FindContent(ctx, e.After.Id)
	if errors.Is(err, model.ErrContentNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	if before.IsPublished() && current.Status == model.ContentStatusDraft {
		l.unpublish(ctx, before)
		return nil
	}
	if !current.IsPublished() {
		return nil
	}

	var oldTags, oldGroups, oldSeries []string
	if before.IsPublished() {
		oldTags, oldGroups, oldSeries = before.TagIds, before.GroupIds, before.SeriesIds
	}
	c := *current

	l.Bus.Try(ctx, "search.update_content", func(ctx context.Context) error {
		return l.Search.UpdateContent(ctx, []model.ContentItem{c})
	})

	addedTags, removedTags := utils.StringSetDiff(c.TagIds, oldTags), utils.StringSetDiff(oldTags, c.TagIds)
	if len(addedTags) > 0 {
		l.Bus.Try(ctx, "tags.increase_used", func(ctx context.Context) error {
			return l.Tags.IncreaseUsed(ctx, addedTags)
		})
	}
	if len(removedTags) > 0 {
		l.Bus.Try(ctx, "tags.decrease_used", func(ctx context.Context) error {
			return l.Tags.DecreaseUsed(ctx, removedTags)
		})
	}

	addedGroups, removedGroups := utils.StringSetDiff(c.GroupIds, oldGroups), utils.StringSetDiff(oldGroups, c.GroupIds)
	if len(addedGroups) > 0 || len(removedGroups) > 0 {
		l.Bus.Detach(ctx, "feed.fanout", func(ctx context.Context) error {
			return l.Feed.FanoutOnWrite(ctx, c.Id, addedGroups, removedGroups)
		})
	}

	if !c.IsHidden {
		l.Bus.Try(ctx, "notification.content_updated", func(ctx context.Context) error {
			return l.Notifications.Publish(ctx, notification.Notification{
				Key:       c.Id,
				EventName: notification.EventContentUpdated,
				ActorID:   e.ActorID,
				Payload:   contentPayload(c),
				Meta:      &notification.Meta{IgnoreUserIds: []string{e.ActorID}},
			})
		})
	}

	l.emitSeriesChanges(ctx, c, oldSeries, c.SeriesIds, e.ActorID, events.SeriesContextEdit)
	return nil
}

func (l *Listeners) unpublish(ctx context.Context, before model.ContentItem) {
	if len(before.GroupIds) > 0 {
		groups := append([]string{}, before.GroupIds...)
		l.Bus.Detach(ctx, "feed.teardown", func(ctx context.Context) error {
			return l.Feed.FanoutOnWrite(ctx, before.Id, nil, groups)
		})
	}
	if len(before.TagIds) > 0 {
		l.Bus.Try(ctx, "tags.decrease_used", func(ctx context.Context) error {
			return l.Tags.DecreaseUsed(ctx, before.TagIds)
		})
	}
	l.Bus.Try(ctx, "search.delete_content", func(ctx context.Context) error {
		return l.Search.DeleteContent(ctx, []string{before.Id})
	})
}

// OnContentDeleted removes a deleted published item from every derived store
// and tells the owners of its series.
func (l *Listeners) OnContentDeleted(ctx context.Context, e events.ContentDeleted) error {
	c := e.Content
	if !c.IsPublished() {
		return nil
	}

	l.Bus.Try(ctx, "content.delete_edit_history", func(ctx context.Context) error {
		return l.Contents.DeleteEditHistory(ctx, c.Id)
	})
	l.Bus.Try(ctx, "search.delete_content", func(ctx context.Context) error {
		return l.Search.DeleteContent(ctx, []string{c.Id})
	})
	if len(c.TagIds) > 0 {
		l.Bus.Try(ctx, "tags.decrease_used", func(ctx context.Context) error {
			return l.Tags.DecreaseUsed(ctx, c.TagIds)
		})
	}
	if len(c.GroupIds) > 0 {
		groups := append([]string{}, c.GroupIds...)
		l.Bus.Detach(ctx, "feed.teardown", func(ctx context.Context) error {
			return l.Feed.FanoutOnWrite(ctx, c.Id, nil, groups)
		})
	}

	if len(c.SeriesIds) == 0 {
		return nil
	}
	owners, err := l.Series.Owners(ctx, c.SeriesIds)
	if err != nil {
		return err
	}
	for _, change := range series.ReconcileDeletion(c.SeriesIds, owners, e.ActorID, c.OwnerID) {
		l.Bus.Publish(ctx, events.SeriesRemovedItems{
			SeriesID:         change.SeriesID,
			OwnerID:          change.OwnerID,
			ItemIds:          []string{c.Id},
			ActorID:          e.ActorID,
			SkipNotify:       change.SkipNotify,
			ContentIsDeleted: true,
			Context:          events.SeriesContextDelete,
		})
	}
	return nil
}

// OnVideoProcessed moves every item waiting for the video out of PROCESSING.
// A successful transcode publishes the item like a regular publish, a failed
// one sends it back to draft and only tells its owner.
func (l *Listeners) OnVideoProcessed(ctx context.Context, e events.VideoProcessed) error {
	items, err := l.Contents.FindProcessingContentsByVideo(ctx, e.VideoID)
	if err != nil {
		return err
	}
	for _, item := range items {
		contentID := item.Id
		if e.Succeeded {
			l.Bus.Try(ctx, "content.video_published", func(ctx context.Context) error {
				updated, published, err := l.Contents.MarkVideoPublished(ctx, contentID, e.VideoID, e.Properties)
				if err != nil {
					return err
				}
				if published && updated.IsPublished() {
					l.propagatePublished(ctx, *updated, updated.OwnerID)
				}
				return nil
			})
			continue
		}

		l.Bus.Try(ctx, "content.video_failed", func(ctx context.Context) error {
			updated, err := l.Contents.MarkVideoFailed(ctx, contentID, e.VideoID, e.Properties)
			if err != nil {
				return err
			}
			l.Bus.Try(ctx, "notification.video_failed", func(ctx context.Context) error {
				return l.Notifications.Publish(ctx, notification.Notification{
					Key:       updated.Id,
					EventName: notification.EventVideoFailed,
					ActorID:   updated.OwnerID,
					Payload:   map[string]interface{}{"contentId": updated.Id, "videoId": e.VideoID},
					Meta:      &notification.Meta{IsSendToContentCreator: true},
				})
			})
			return nil
		})
	}
	return nil
}

func contentPayload(c model.ContentItem) map[string]interface{} {
	return map[string]interface{}{
		"contentId": c.Id,
		"kind":      string(c.Kind),
		"ownerId":   c.OwnerID,
		"title":     c.Title,
		"groupIds":  []string(c.GroupIds),
	}
}

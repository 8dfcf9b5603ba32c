package listener

import (
	"context"

	"github.com/Luismorlan/contentmux/events"
	"github.com/Luismorlan/contentmux/model"
	"github.com/Luismorlan/contentmux/notification"
	"github.com/Luismorlan/contentmux/series"
)

// emitSeriesChanges reconciles the item's old and new series and publishes
// one series event per change. In the publish context the series documents
// of the added series are refreshed here and the added-items listener leaves
// them alone, so each change refreshes its series document exactly once.
func (l *Listeners) emitSeriesChanges(ctx context.Context, c model.ContentItem, oldSeriesIds []string, newSeriesIds []string, actorID string, seriesCtx events.SeriesContext) {
	if len(oldSeriesIds) == 0 && len(newSeriesIds) == 0 {
		return
	}
	owners := map[string]string{}
	l.Bus.Try(ctx, "series.load_owners", func(ctx context.Context) error {
		var err error
		owners, err = l.Series.Owners(ctx, append(append([]string{}, oldSeriesIds...), newSeriesIds...))
		return err
	})
	if owners == nil {
		owners = map[string]string{}
	}

	res := series.Reconcile(series.Input{
		OldSeriesIds:    oldSeriesIds,
		NewSeriesIds:    newSeriesIds,
		Owners:          owners,
		ActorID:         actorID,
		ContentIsHidden: c.IsHidden,
	})

	for _, change := range res.Removed {
		l.Bus.Publish(ctx, events.SeriesRemovedItems{
			SeriesID:   change.SeriesID,
			OwnerID:    change.OwnerID,
			ItemIds:    []string{c.Id},
			ActorID:    actorID,
			SkipNotify: change.SkipNotify,
			Context:    seriesCtx,
		})
	}
	for _, change := range res.Added {
		l.Bus.Publish(ctx, events.SeriesAddedItems{
			SeriesID:   change.SeriesID,
			OwnerID:    change.OwnerID,
			ItemIds:    []string{c.Id},
			ActorID:    actorID,
			SkipNotify: change.SkipNotify,
			Context:    seriesCtx,
		})
		if seriesCtx == events.SeriesContextPublish {
			l.refreshSeriesDocument(ctx, change.SeriesID)
		}
	}
}

func (l *Listeners) OnSeriesAddedItems(ctx context.Context, e events.SeriesAddedItems) error {
	if e.Context != events.SeriesContextPublish {
		l.refreshSeriesDocument(ctx, e.SeriesID)
	}
	if e.Context == events.SeriesContextSeries {
		l.refreshItemDocuments(ctx, e.ItemIds)
	}
	if e.SkipNotify || e.OwnerID == "" {
		return nil
	}
	l.Bus.Try(ctx, "notification.series_items_added", func(ctx context.Context) error {
		return l.Notifications.Publish(ctx, notification.Notification{
			Key:       e.SeriesID,
			EventName: notification.EventSeriesItemsAdded,
			ActorID:   e.ActorID,
			Payload:   seriesPayload(e.SeriesID, e.OwnerID, e.ItemIds),
			Meta: &notification.Meta{
				IgnoreUserIds: []string{e.ActorID},
				Context:       string(e.Context),
			},
		})
	})
	return nil
}

func (l *Listeners) OnSeriesRemovedItems(ctx context.Context, e events.SeriesRemovedItems) error {
	l.refreshSeriesDocument(ctx, e.SeriesID)
	if e.Context == events.SeriesContextSeries {
		l.refreshItemDocuments(ctx, e.ItemIds)
	}
	if e.SkipNotify || e.OwnerID == "" {
		return nil
	}
	l.Bus.Try(ctx, "notification.series_items_removed", func(ctx context.Context) error {
		return l.Notifications.Publish(ctx, notification.Notification{
			Key:       e.SeriesID,
			EventName: notification.EventSeriesItemsRemoved,
			ActorID:   e.ActorID,
			Payload:   seriesPayload(e.SeriesID, e.OwnerID, e.ItemIds),
			Meta: &notification.Meta{
				IgnoreUserIds:    []string{e.ActorID},
				ContentIsDeleted: e.ContentIsDeleted,
				Context:          string(e.Context),
			},
		})
	})
	return nil
}

func (l *Listeners) OnSeriesReordered(ctx context.Context, e events.SeriesReordered) error {
	l.refreshSeriesDocument(ctx, e.SeriesID)
	return nil
}

// refreshSeriesDocument rewrites the member list stored on the series'
// search document.
func (l *Listeners) refreshSeriesDocument(ctx context.Context, seriesID string) {
	l.Bus.Try(ctx, "search.refresh_series", func(ctx context.Context) error {
		itemIds, err := l.Series.ListItemIds(ctx, seriesID)
		if err != nil {
			return err
		}
		return l.Search.UpdateAttributes(ctx, []string{seriesID}, map[string]interface{}{"itemIds": itemIds})
	})
}

// refreshItemDocuments rewrites the documents of published items whose
// series membership changed without an edit of the item itself.
func (l *Listeners) refreshItemDocuments(ctx context.Context, itemIds []string) {
	l.Bus.Try(ctx, "search.refresh_series_items", func(ctx context.Context) error {
		items := []model.ContentItem{}
		for _, id := range itemIds {
			item, err := l.Contents.FindContent(ctx, id)
			if err != nil {
				return err
			}
			if item.IsPublished() {
				items = append(items, *item)
			}
		}
		if len(items) == 0 {
			return nil
		}
		return l.Search.UpdateContent(ctx, items)
	})
}

func seriesPayload(seriesID string, ownerID string, itemIds []string) map[string]interface{} {
	return map[string]interface{}{
		"seriesId": seriesID,
		"ownerId":  ownerID,
		"itemIds":  itemIds,
	}
}

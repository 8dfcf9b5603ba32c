package listener

import (
	"context"
	"fmt"

	"github.com/Luismorlan/contentmux/eventbus"
	"github.com/Luismorlan/contentmux/events"
)

// Register subscribes every listener. The order below is the order in which
// listeners of one event kind run.
func (l *Listeners) Register(d *eventbus.Dispatcher) {
	d.Subscribe(events.KindContentPublished, "content.on_published", on(l.OnContentPublished))
	d.Subscribe(events.KindContentUpdated, "content.on_updated", on(l.OnContentUpdated))
	d.Subscribe(events.KindContentDeleted, "content.on_deleted", on(l.OnContentDeleted))
	d.Subscribe(events.KindVideoProcessed, "content.on_video_processed", on(l.OnVideoProcessed))
	d.Subscribe(events.KindSeriesAddedItems, "series.on_added_items", on(l.OnSeriesAddedItems))
	d.Subscribe(events.KindSeriesRemovedItems, "series.on_removed_items", on(l.OnSeriesRemovedItems))
	d.Subscribe(events.KindSeriesReordered, "series.on_reordered", on(l.OnSeriesReordered))
	d.Subscribe(events.KindReactionCreated, "reaction.on_created", on(l.OnReactionCreated))
	d.Subscribe(events.KindReactionDeleted, "reaction.on_deleted", on(l.OnReactionDeleted))
}

// on adapts a typed handler to an eventbus.Listener.
func on[E events.Event](handle func(context.Context, E) error) eventbus.Listener {
	return func(ctx context.Context, e events.Event) error {
		typed, ok := e.(E)
		if !ok {
			return fmt.Errorf("unexpected event %T", e)
		}
		return handle(ctx, typed)
	}
}

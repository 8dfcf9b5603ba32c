package series

import (
	"context"
	"errors"
	"testing"

	"github.com/Luismorlan/contentmux/eventbus"
	"github.com/Luismorlan/contentmux/events"
	"github.com/Luismorlan/contentmux/model"
	"github.com/Luismorlan/contentmux/reporter"
	"github.com/Luismorlan/contentmux/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recordingBus() (*eventbus.Dispatcher, *[]events.Event) {
	d := eventbus.NewDispatcher(&reporter.FakeReporter{})
	received := []events.Event{}
	record := func(ctx context.Context, e events.Event) error {
		received = append(received, e)
		return nil
	}
	d.Subscribe(events.KindSeriesAddedItems, "test.record", record)
	d.Subscribe(events.KindSeriesRemovedItems, "test.record", record)
	d.Subscribe(events.KindSeriesReordered, "test.record", record)
	d.Seal()
	return d, &received
}

func TestServiceAddItems(t *testing.T) {
	db, _ := utils.CreateTempDB(t)
	ctx := context.Background()
	bus, received := recordingBus()
	svc := NewService(db, bus)

	seriesId := utils.TestCreateSeriesAndValidate(t, db, "author")
	p1 := utils.TestCreateContentAndValidate(t, db, model.ContentKindPost, "author")
	p2 := utils.TestCreateContentAndValidate(t, db, model.ContentKindPost, "author", func(c *model.ContentItem) {
		c.IsHidden = true
	})
	foreign := utils.TestCreateContentAndValidate(t, db, model.ContentKindPost, "someone-else")
	otherSeries := utils.TestCreateSeriesAndValidate(t, db, "author")

	_, err := svc.AddItems(ctx, "someone-else", seriesId, []string{foreign.Id})
	assert.True(t, errors.Is(err, model.ErrContentAccessDenied))
	_, err = svc.AddItems(ctx, "author", seriesId, []string{foreign.Id})
	assert.True(t, errors.Is(err, model.ErrContentAccessDenied))
	_, err = svc.AddItems(ctx, "author", seriesId, []string{otherSeries})
	assert.True(t, errors.Is(err, ErrInvalidSeriesItem))
	_, err = svc.AddItems(ctx, "author", seriesId, []string{"missing"})
	assert.True(t, errors.Is(err, model.ErrContentNotFound))
	_, err = svc.AddItems(ctx, "author", p1.Id, []string{p2.Id})
	assert.True(t, errors.Is(err, model.ErrContentNotFound))
	assert.Empty(t, *received)

	added, err := svc.AddItems(ctx, "author", seriesId, []string{p2.Id})
	require.Nil(t, err)
	assert.Equal(t, []string{p2.Id}, added)

	added, err = svc.AddItems(ctx, "author", seriesId, []string{p2.Id, p1.Id})
	require.Nil(t, err)
	assert.Equal(t, []string{p1.Id}, added)

	// already a member, nothing to publish
	added, err = svc.AddItems(ctx, "author", seriesId, []string{p1.Id})
	require.Nil(t, err)
	assert.Empty(t, added)

	require.Len(t, *received, 2)
	hidden := (*received)[0].(events.SeriesAddedItems)
	assert.True(t, hidden.SkipNotify)
	assert.Equal(t, events.SeriesContextSeries, hidden.Context)
	visible := (*received)[1].(events.SeriesAddedItems)
	assert.Equal(t, events.SeriesAddedItems{
		SeriesID: seriesId,
		OwnerID:  "author",
		ItemIds:  []string{p1.Id},
		ActorID:  "author",
		Context:  events.SeriesContextSeries,
	}, visible)

	items, err := NewStore(db).ListItemIds(ctx, seriesId)
	require.Nil(t, err)
	assert.Equal(t, []string{p2.Id, p1.Id}, items)
}

func TestServiceRemoveAndReorderItems(t *testing.T) {
	db, _ := utils.CreateTempDB(t)
	ctx := context.Background()
	bus, received := recordingBus()
	svc := NewService(db, bus)

	seriesId := utils.TestCreateSeriesAndValidate(t, db, "author")
	p1 := utils.TestCreateContentAndValidate(t, db, model.ContentKindPost, "author")
	p2 := utils.TestCreateContentAndValidate(t, db, model.ContentKindArticle, "author")
	p3 := utils.TestCreateContentAndValidate(t, db, model.ContentKindPost, "author", func(c *model.ContentItem) {
		c.Status = model.ContentStatusDraft
	})
	_, err := NewStore(db).AddItems(ctx, seriesId, []string{p1.Id, p2.Id, p3.Id})
	require.Nil(t, err)

	order, err := svc.ReorderItems(ctx, "author", seriesId, []string{p3.Id, p1.Id})
	require.Nil(t, err)
	assert.Equal(t, []string{p3.Id, p1.Id, p2.Id}, order)

	_, err = svc.ReorderItems(ctx, "intruder", seriesId, []string{p2.Id})
	assert.True(t, errors.Is(err, model.ErrContentAccessDenied))

	removed, err := svc.RemoveItems(ctx, "author", seriesId, []string{p3.Id, "not-a-member"})
	require.Nil(t, err)
	assert.Equal(t, []string{p3.Id}, removed)

	removed, err = svc.RemoveItems(ctx, "author", seriesId, []string{"not-a-member"})
	require.Nil(t, err)
	assert.Empty(t, removed)

	require.Len(t, *received, 2)
	reordered := (*received)[0].(events.SeriesReordered)
	assert.Equal(t, []string{p3.Id, p1.Id, p2.Id}, reordered.ItemIds)
	draftRemoved := (*received)[1].(events.SeriesRemovedItems)
	assert.Equal(t, []string{p3.Id}, draftRemoved.ItemIds)
	assert.True(t, draftRemoved.SkipNotify)
	assert.False(t, draftRemoved.ContentIsDeleted)

	items, err := NewStore(db).ListItemIds(ctx, seriesId)
	require.Nil(t, err)
	assert.Equal(t, []string{p1.Id, p2.Id}, items)
}

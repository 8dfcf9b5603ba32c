package listener

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Luismorlan/contentmux/eventbus"
	"github.com/Luismorlan/contentmux/events"
	"github.com/Luismorlan/contentmux/model"
	"github.com/Luismorlan/contentmux/notification"
	"github.com/Luismorlan/contentmux/reporter"
	"github.com/google/go-cmp/cmp"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type harness struct {
	d             *eventbus.Dispatcher
	reporter      *reporter.FakeReporter
	search        *fakeSearch
	feed          *fakeFeed
	tags          *fakeTags
	notifications *fakeNotifications
	contents      *fakeContents
	seriesEvents  []events.Event
}

func newHarness(contents *fakeContents, series *fakeSeries) *harness {
	h := &harness{
		reporter:      &reporter.FakeReporter{},
		search:        &fakeSearch{},
		feed:          &fakeFeed{},
		tags:          &fakeTags{},
		notifications: &fakeNotifications{},
		contents:      contents,
	}
	h.d = eventbus.NewDispatcher(h.reporter)
	l := &Listeners{
		Bus:           h.d,
		Contents:      contents,
		Series:        series,
		Search:        h.search,
		Feed:          h.feed,
		Tags:          h.tags,
		Notifications: h.notifications,
		Reactions: &fakeReactionCounter{counts: map[string]map[string]int64{
			"p1": {"like": 2, "love": 1},
		}},
	}
	l.Register(h.d)
	record := func(ctx context.Context, e events.Event) error {
		h.seriesEvents = append(h.seriesEvents, e)
		return nil
	}
	h.d.Subscribe(events.KindSeriesAddedItems, "test.record", record)
	h.d.Subscribe(events.KindSeriesRemovedItems, "test.record", record)
	h.d.Seal()
	return h
}

func (h *harness) publish(e events.Event) {
	h.d.Publish(context.Background(), e)
	h.d.Wait()
}

func publishedArticle() model.ContentItem {
	now := time.Now()
	return model.ContentItem{
		Id:          "c1",
		Kind:        model.ContentKindArticle,
		Status:      model.ContentStatusPublished,
		OwnerID:     "author",
		GroupIds:    pq.StringArray{"g1", "g2"},
		TagIds:      pq.StringArray{"t1", "t2"},
		SeriesIds:   []string{"s1", "s2"},
		PublishedAt: &now,
	}
}

func twoSeries(ownerS1 string, ownerS2 string) *fakeSeries {
	return &fakeSeries{
		owners: map[string]string{"s1": ownerS1, "s2": ownerS2},
		items:  map[string][]string{"s1": {"c1"}, "s2": {"x", "c1"}},
	}
}

func TestRegisterOrder(t *testing.T) {
	h := newHarness(newFakeContents(), twoSeries("a", "b"))
	assert.True(t, h.d.IsSealed())
	assert.Equal(t, []string{"content.on_published"}, h.d.Listeners(events.KindContentPublished))
	assert.Equal(t, []string{"series.on_added_items", "test.record"}, h.d.Listeners(events.KindSeriesAddedItems))
	assert.Equal(t, []string{"series.on_reordered"}, h.d.Listeners(events.KindSeriesReordered))
	assert.Equal(t, []string{"reaction.on_created"}, h.d.Listeners(events.KindReactionCreated))
}

func TestOnContentPublished(t *testing.T) {
	c := publishedArticle()
	h := newHarness(newFakeContents(c), twoSeries("author", "other"))

	h.publish(events.ContentPublished{Content: c, ActorID: "author"})

	assert.Equal(t, []string{"upsert:c1", "attributes:s1", "attributes:s2"}, h.search.ops())
	assert.Equal(t, []string{"t1", "t2"}, h.tags.increased)
	assert.Empty(t, h.tags.decreased)
	assert.Equal(t, []fanoutCall{{ContentID: "c1", Added: []string{"g1", "g2"}}}, h.feed.calls)
	assert.Equal(t, []string{
		"content.published:c1",
		"series.items_added:s1",
		"series.items_added:s2",
	}, h.notifications.eventNames())

	// the series documents are refreshed once each, with the full member list
	patches := h.search.patches()
	require.Len(t, patches, 2)
	assert.Equal(t, map[string]interface{}{"itemIds": []string{"x", "c1"}}, patches[1].Patch)

	require.Len(t, h.seriesEvents, 2)
	added := h.seriesEvents[0].(events.SeriesAddedItems)
	assert.Equal(t, "s1", added.SeriesID)
	assert.Equal(t, "author", added.OwnerID)
	assert.Equal(t, []string{"c1"}, added.ItemIds)
	assert.Equal(t, events.SeriesContextPublish, added.Context)
	assert.False(t, added.SkipNotify)
	assert.Empty(t, h.reporter.Errors())
}

func TestOnContentPublishedIsNoopUnlessPersistedPublished(t *testing.T) {
	c := publishedArticle()
	persisted := c
	persisted.Status = model.ContentStatusDraft
	h := newHarness(newFakeContents(persisted), twoSeries("author", "other"))

	h.publish(events.ContentPublished{Content: c, ActorID: "author"})
	h.publish(events.ContentPublished{Content: model.ContentItem{Id: "missing", Status: model.ContentStatusPublished}})

	assert.Empty(t, h.search.ops())
	assert.Empty(t, h.tags.increased)
	assert.Empty(t, h.feed.calls)
	assert.Empty(t, h.notifications.eventNames())
	assert.Empty(t, h.seriesEvents)
	assert.Empty(t, h.reporter.Errors())
}

func TestOnContentPublishedHidden(t *testing.T) {
	c := publishedArticle()
	c.IsHidden = true
	h := newHarness(newFakeContents(c), twoSeries("author", "other"))

	h.publish(events.ContentPublished{Content: c, ActorID: "author"})

	assert.Equal(t, []string{"upsert:c1", "attributes:s1", "attributes:s2"}, h.search.ops())
	assert.Empty(t, h.notifications.eventNames())
	require.Len(t, h.seriesEvents, 2)
	for _, e := range h.seriesEvents {
		assert.True(t, e.(events.SeriesAddedItems).SkipNotify)
	}
}

func TestOnContentPublishedSideEffectsAreIsolated(t *testing.T) {
	c := publishedArticle()
	c.SeriesIds = nil
	h := newHarness(newFakeContents(c), twoSeries("author", "other"))
	h.search.err = errors.New("search is down")
	h.tags.err = errors.New("db is down")

	h.publish(events.ContentPublished{Content: c, ActorID: "author"})

	assert.Equal(t, []string{"upsert:c1"}, h.search.ops())
	assert.Equal(t, []string{"t1", "t2"}, h.tags.increased)
	assert.Len(t, h.feed.calls, 1)
	assert.Equal(t, []string{"content.published:c1"}, h.notifications.eventNames())
	assert.Len(t, h.reporter.Errors(), 2)
}

// C moves from S1 to S2, both owned by A: the membership changes are applied
// and indexed, but nobody is notified about them.
func TestOnContentUpdatedMoveWithinSameOwner(t *testing.T) {
	before := publishedArticle()
	before.SeriesIds = []string{"s1"}
	before.GroupIds = pq.StringArray{"g1"}
	after := before
	after.SeriesIds = []string{"s2"}
	after.TagIds = pq.StringArray{"t2", "t3"}
	after.GroupIds = pq.StringArray{"g2"}
	h := newHarness(newFakeContents(after), twoSeries("A", "A"))

	h.publish(events.ContentUpdated{Before: before, After: after, ActorID: "author"})

	assert.Equal(t, []string{"update:c1", "attributes:s1", "attributes:s2"}, h.search.ops())
	assert.Equal(t, []string{"t3"}, h.tags.increased)
	assert.Equal(t, []string{"t1"}, h.tags.decreased)
	assert.Equal(t, []fanoutCall{{ContentID: "c1", Added: []string{"g2"}, Removed: []string{"g1"}}}, h.feed.calls)
	assert.Equal(t, []string{"content.updated:c1"}, h.notifications.eventNames())

	expected := []events.Event{
		events.SeriesRemovedItems{SeriesID: "s1", OwnerID: "A", ItemIds: []string{"c1"}, ActorID: "author", SkipNotify: true, Context: events.SeriesContextEdit},
		events.SeriesAddedItems{SeriesID: "s2", OwnerID: "A", ItemIds: []string{"c1"}, ActorID: "author", SkipNotify: true, Context: events.SeriesContextEdit},
	}
	if diff := cmp.Diff(expected, h.seriesEvents); diff != "" {
		t.Errorf("series events mismatch (-want +got):\n%s", diff)
	}
}

func TestOnContentUpdatedMoveAcrossOwners(t *testing.T) {
	before := publishedArticle()
	before.SeriesIds = []string{"s1"}
	after := before
	after.SeriesIds = []string{"s2"}
	h := newHarness(newFakeContents(after), twoSeries("A", "B"))

	h.publish(events.ContentUpdated{Before: before, After: after, ActorID: "author"})

	assert.Equal(t, []string{
		"content.updated:c1",
		"series.items_removed:s1",
		"series.items_added:s2",
	}, h.notifications.eventNames())
	assert.Empty(t, h.tags.increased)
	assert.Empty(t, h.tags.decreased)
	assert.Empty(t, h.feed.calls)
}

func TestOnContentUpdatedHiddenDoesNotNotify(t *testing.T) {
	before := publishedArticle()
	after := before
	after.IsHidden = true
	h := newHarness(newFakeContents(after), twoSeries("A", "B"))

	h.publish(events.ContentUpdated{Before: before, After: after, ActorID: "author"})

	assert.Equal(t, []string{"update:c1"}, h.search.ops())
	assert.Empty(t, h.notifications.eventNames())
}

func TestOnContentUpdatedUnpublish(t *testing.T) {
	before := publishedArticle()
	after := before
	after.Status = model.ContentStatusDraft
	h := newHarness(newFakeContents(after), twoSeries("A", "B"))

	h.publish(events.ContentUpdated{Before: before, After: after, ActorID: "author"})

	assert.Equal(t, []fanoutCall{{ContentID: "c1", Removed: []string{"g1", "g2"}}}, h.feed.calls)
	assert.Equal(t, []string{"t1", "t2"}, h.tags.decreased)
	assert.Equal(t, []string{"delete:c1"}, h.search.ops())
	assert.Empty(t, h.notifications.eventNames())
	assert.Empty(t, h.seriesEvents)
}

func TestOnContentUpdatedDraftIsIgnored(t *testing.T) {
	before := publishedArticle()
	before.Status = model.ContentStatusDraft
	after := before
	after.Title = "new title"
	h := newHarness(newFakeContents(after), twoSeries("A", "B"))

	h.publish(events.ContentUpdated{Before: before, After: after, ActorID: "author"})

	assert.Empty(t, h.search.ops())
	assert.Empty(t, h.tags.decreased)
	assert.Empty(t, h.feed.calls)
}

func TestOnContentDeleted(t *testing.T) {
	c := publishedArticle()
	h := newHarness(newFakeContents(), twoSeries("other", "author"))

	h.publish(events.ContentDeleted{Content: c, ActorID: "author"})

	assert.Equal(t, []string{"c1"}, h.contents.deletedEdits)
	assert.Equal(t, []string{"delete:c1", "attributes:s1", "attributes:s2"}, h.search.ops())
	assert.Equal(t, []string{"t1", "t2"}, h.tags.decreased)
	assert.Equal(t, []fanoutCall{{ContentID: "c1", Removed: []string{"g1", "g2"}}}, h.feed.calls)

	// only the owner of s1 hears about it, s2 belongs to the deleting actor
	require.Equal(t, []string{"series.items_removed:s1"}, h.notifications.eventNames())
	sent := h.notifications.sent[0]
	assert.True(t, sent.Meta.ContentIsDeleted)
	assert.Equal(t, "delete", sent.Meta.Context)

	require.Len(t, h.seriesEvents, 2)
	for _, e := range h.seriesEvents {
		removed := e.(events.SeriesRemovedItems)
		assert.True(t, removed.ContentIsDeleted)
		assert.Equal(t, removed.SeriesID == "s2", removed.SkipNotify)
	}
}

func TestOnContentDeletedUnpublishedIsNoop(t *testing.T) {
	c := publishedArticle()
	c.Status = model.ContentStatusDraft
	h := newHarness(newFakeContents(), twoSeries("other", "author"))

	h.publish(events.ContentDeleted{Content: c, ActorID: "author"})

	assert.Empty(t, h.search.ops())
	assert.Empty(t, h.contents.deletedEdits)
	assert.Empty(t, h.seriesEvents)
}

func TestOnVideoProcessedSuccess(t *testing.T) {
	c := publishedArticle()
	c.Status = model.ContentStatusProcessing
	c.SeriesIds = nil
	contents := newFakeContents(c)
	contents.videos["v1"] = []string{"c1"}
	h := newHarness(contents, twoSeries("A", "B"))

	h.publish(events.VideoProcessed{VideoID: "v1", Succeeded: true})

	assert.Equal(t, []string{"c1"}, contents.finishedVideo)
	assert.Equal(t, []string{"upsert:c1"}, h.search.ops())
	assert.Equal(t, []string{"t1", "t2"}, h.tags.increased)
	assert.Len(t, h.feed.calls, 1)
	assert.Equal(t, []string{"content.published:c1"}, h.notifications.eventNames())
	assert.Equal(t, "author", h.notifications.sent[0].ActorID)

	// the item is not PROCESSING anymore, a replay does nothing
	h.publish(events.VideoProcessed{VideoID: "v1", Succeeded: true})
	assert.Equal(t, []string{"c1"}, contents.finishedVideo)
}

func TestOnVideoProcessedFailure(t *testing.T) {
	c := publishedArticle()
	c.Status = model.ContentStatusProcessing
	contents := newFakeContents(c)
	contents.videos["v1"] = []string{"c1"}
	h := newHarness(contents, twoSeries("A", "B"))

	h.publish(events.VideoProcessed{VideoID: "v1", Succeeded: false})

	assert.Equal(t, []string{"c1"}, contents.failedVideos)
	assert.Equal(t, model.ContentStatusDraft, contents.items["c1"].Status)
	assert.Empty(t, h.search.ops())
	assert.Empty(t, h.feed.calls)
	assert.Empty(t, h.tags.increased)
	require.Equal(t, []string{"content.video_failed:c1"}, h.notifications.eventNames())
	assert.Equal(t, &notification.Meta{IsSendToContentCreator: true}, h.notifications.sent[0].Meta)
}

func TestOnVideoProcessedKeepsGoingAfterOneItemFails(t *testing.T) {
	first := publishedArticle()
	first.Status = model.ContentStatusProcessing
	first.SeriesIds = nil
	second := first
	second.Id = "c2"
	contents := newFakeContents(first, second)
	contents.videos["v1"] = []string{"c1", "c2"}
	contents.markErrs = map[string]error{"c1": errors.New("attachment row locked")}
	h := newHarness(contents, twoSeries("A", "B"))

	h.publish(events.VideoProcessed{VideoID: "v1", Succeeded: true})
	assert.Equal(t, []string{"c2"}, contents.finishedVideo)
	assert.Equal(t, []string{"upsert:c2"}, h.search.ops())
	assert.Equal(t, model.ContentStatusProcessing, contents.items["c1"].Status)

	h.publish(events.VideoProcessed{VideoID: "v1", Succeeded: false})
	assert.Empty(t, contents.failedVideos)

	errs := h.reporter.Errors()
	require.Len(t, errs, 2)
	assert.Contains(t, errs[0].Error(), "attachment row locked")
}

func TestOnVideoFailedKeepsGoingAfterOneItemFails(t *testing.T) {
	first := publishedArticle()
	first.Status = model.ContentStatusProcessing
	second := first
	second.Id = "c2"
	contents := newFakeContents(first, second)
	contents.videos["v1"] = []string{"c1", "c2"}
	contents.markErrs = map[string]error{"c1": errors.New("attachment row locked")}
	h := newHarness(contents, twoSeries("A", "B"))

	h.publish(events.VideoProcessed{VideoID: "v1", Succeeded: false})

	assert.Equal(t, []string{"c2"}, contents.failedVideos)
	assert.Equal(t, []string{"content.video_failed:c2"}, h.notifications.eventNames())
	assert.Len(t, h.reporter.Errors(), 1)
}

func TestSeriesSideChangesRefreshSeriesAndItems(t *testing.T) {
	draft := publishedArticle()
	draft.Id = "c2"
	draft.Status = model.ContentStatusDraft
	contents := newFakeContents(publishedArticle(), draft)
	h := newHarness(contents, twoSeries("author", "B"))

	h.publish(events.SeriesAddedItems{
		SeriesID: "s1",
		OwnerID:  "author",
		ItemIds:  []string{"c1", "c2"},
		ActorID:  "author",
		Context:  events.SeriesContextSeries,
	})
	assert.Equal(t, []string{"attributes:s1", "update:c1"}, h.search.ops())
	assert.Equal(t, []string{"series.items_added:s1"}, h.notifications.eventNames())
	assert.Equal(t, []string{"author"}, h.notifications.sent[0].Meta.IgnoreUserIds)

	h.publish(events.SeriesRemovedItems{
		SeriesID:   "s1",
		OwnerID:    "author",
		ItemIds:    []string{"c2"},
		ActorID:    "author",
		SkipNotify: true,
		Context:    events.SeriesContextSeries,
	})
	assert.Equal(t, []string{"attributes:s1", "update:c1", "attributes:s1"}, h.search.ops())
	assert.Len(t, h.notifications.sent, 1)

	h.publish(events.SeriesReordered{SeriesID: "s2", OwnerID: "B", ItemIds: []string{"c1", "x"}, ActorID: "B"})
	patches := h.search.patches()
	require.Len(t, patches, 3)
	assert.Equal(t, []string{"s2"}, patches[2].Ids)
	assert.Equal(t, []string{"x", "c1"}, patches[2].Patch["itemIds"])
	assert.Empty(t, h.reporter.Errors())
}

func TestEditContextDoesNotRefreshItems(t *testing.T) {
	h := newHarness(newFakeContents(publishedArticle()), twoSeries("author", "B"))

	h.publish(events.SeriesAddedItems{SeriesID: "s1", OwnerID: "author", ItemIds: []string{"c1"}, ActorID: "author", Context: events.SeriesContextEdit})
	assert.Equal(t, []string{"attributes:s1"}, h.search.ops())
}

func TestOnReactionCreated(t *testing.T) {
	h := newHarness(newFakeContents(), twoSeries("A", "B"))

	h.publish(events.ReactionCreated{
		Reaction:      model.Reaction{Id: "r1", TargetType: model.ReactionTargetPost, TargetID: "p1", ActorID: "fan", ReactionName: "like"},
		TargetOwnerID: "owner",
		PostID:        "p1",
	})
	assert.Equal(t, []string{"reaction.created:p1"}, h.notifications.eventNames())
	patches := h.search.patches()
	require.Len(t, patches, 1)
	assert.Equal(t, []string{"p1"}, patches[0].Ids)
	assert.Equal(t, int64(3), patches[0].Patch["reactionsCount"])

	// reacting to your own post is not notified
	h.publish(events.ReactionCreated{
		Reaction:      model.Reaction{Id: "r2", TargetType: model.ReactionTargetPost, TargetID: "p1", ActorID: "owner", ReactionName: "like"},
		TargetOwnerID: "owner",
		PostID:        "p1",
	})
	assert.Len(t, h.notifications.eventNames(), 1)
	assert.Len(t, h.search.patches(), 2)

	// comment reactions notify the commenter and leave the index alone
	h.publish(events.ReactionCreated{
		Reaction:      model.Reaction{Id: "r3", TargetType: model.ReactionTargetComment, TargetID: "cm1", ActorID: "fan", ReactionName: "like"},
		TargetOwnerID: "commenter",
		PostID:        "p1",
	})
	assert.Len(t, h.notifications.eventNames(), 2)
	assert.Len(t, h.search.patches(), 2)
}

func TestOnReactionDeleted(t *testing.T) {
	h := newHarness(newFakeContents(), twoSeries("A", "B"))

	h.publish(events.ReactionDeleted{
		Reaction: model.Reaction{Id: "r1", TargetType: model.ReactionTargetPost, TargetID: "p1", ActorID: "fan", ReactionName: "like"},
		PostID:   "p1",
	})
	assert.Equal(t, []string{"attributes:p1"}, h.search.ops())
	assert.Empty(t, h.notifications.eventNames())
}

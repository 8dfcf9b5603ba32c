package listener

import (
	"context"
	"errors"
	"sync"

	"github.com/Luismorlan/contentmux/model"
	"github.com/Luismorlan/contentmux/notification"
)

type searchCall struct {
	Op    string
	Ids   []string
	Patch map[string]interface{}
}

type fakeSearch struct {
	mu    sync.Mutex
	calls []searchCall
	err   error
}

func (s *fakeSearch) record(op string, ids []string, patch map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, searchCall{Op: op, Ids: ids, Patch: patch})
	return s.err
}

func itemIds(items []model.ContentItem) []string {
	ids := []string{}
	for _, item := range items {
		ids = append(ids, item.Id)
	}
	return ids
}

func (s *fakeSearch) UpsertContent(ctx context.Context, items []model.ContentItem) error {
	return s.record("upsert", itemIds(items), nil)
}

func (s *fakeSearch) UpdateContent(ctx context.Context, items []model.ContentItem) error {
	return s.record("update", itemIds(items), nil)
}

func (s *fakeSearch) DeleteContent(ctx context.Context, ids []string) error {
	return s.record("delete", ids, nil)
}

func (s *fakeSearch) UpdateAttributes(ctx context.Context, ids []string, patch map[string]interface{}) error {
	return s.record("attributes", ids, patch)
}

// ops returns the recorded operations as "op:id,id".
func (s *fakeSearch) ops() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	res := []string{}
	for _, c := range s.calls {
		op := c.Op + ":"
		for i, id := range c.Ids {
			if i > 0 {
				op += ","
			}
			op += id
		}
		res = append(res, op)
	}
	return res
}

func (s *fakeSearch) patches() []searchCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	res := []searchCall{}
	for _, c := range s.calls {
		if c.Op == "attributes" {
			res = append(res, c)
		}
	}
	return res
}

type fanoutCall struct {
	ContentID string
	Added     []string
	Removed   []string
}

type fakeFeed struct {
	mu    sync.Mutex
	calls []fanoutCall
}

func (f *fakeFeed) FanoutOnWrite(ctx context.Context, contentID string, added []string, removed []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, fanoutCall{ContentID: contentID, Added: added, Removed: removed})
	return nil
}

type fakeTags struct {
	mu        sync.Mutex
	increased []string
	decreased []string
	err       error
}

func (t *fakeTags) IncreaseUsed(ctx context.Context, tagIds []string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.increased = append(t.increased, tagIds...)
	return t.err
}

func (t *fakeTags) DecreaseUsed(ctx context.Context, tagIds []string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.decreased = append(t.decreased, tagIds...)
	return t.err
}

type fakeNotifications struct {
	mu   sync.Mutex
	sent []notification.Notification
}

func (n *fakeNotifications) Publish(ctx context.Context, msg notification.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, msg)
	return nil
}

func (n *fakeNotifications) eventNames() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	res := []string{}
	for _, msg := range n.sent {
		res = append(res, msg.EventName+":"+msg.Key)
	}
	return res
}

type fakeContents struct {
	items         map[string]model.ContentItem
	videos        map[string][]string
	deletedEdits  []string
	failedVideos  []string
	finishedVideo []string
	markErrs      map[string]error
}

func newFakeContents(items ...model.ContentItem) *fakeContents {
	c := &fakeContents{items: map[string]model.ContentItem{}, videos: map[string][]string{}}
	for _, item := range items {
		c.items[item.Id] = item
	}
	return c
}

func (c *fakeContents) FindContent(ctx context.Context, id string) (*model.ContentItem, error) {
	item, ok := c.items[id]
	if !ok {
		return nil, model.ErrContentNotFound
	}
	return &item, nil
}

func (c *fakeContents) FindProcessingContentsByVideo(ctx context.Context, videoID string) ([]model.ContentItem, error) {
	res := []model.ContentItem{}
	for _, id := range c.videos[videoID] {
		if item := c.items[id]; item.Status == model.ContentStatusProcessing {
			res = append(res, item)
		}
	}
	return res, nil
}

func (c *fakeContents) MarkVideoPublished(ctx context.Context, contentID string, videoID string, properties map[string]interface{}) (*model.ContentItem, bool, error) {
	if err := c.markErrs[contentID]; err != nil {
		return nil, false, err
	}
	item, ok := c.items[contentID]
	if !ok {
		return nil, false, errors.New("missing")
	}
	item.Status = model.ContentStatusPublished
	c.items[contentID] = item
	c.finishedVideo = append(c.finishedVideo, contentID)
	return &item, true, nil
}

func (c *fakeContents) MarkVideoFailed(ctx context.Context, contentID string, videoID string, properties map[string]interface{}) (*model.ContentItem, error) {
	if err := c.markErrs[contentID]; err != nil {
		return nil, err
	}
	item, ok := c.items[contentID]
	if !ok {
		return nil, errors.New("missing")
	}
	item.Status = model.ContentStatusDraft
	c.items[contentID] = item
	c.failedVideos = append(c.failedVideos, contentID)
	return &item, nil
}

func (c *fakeContents) DeleteEditHistory(ctx context.Context, contentID string) error {
	c.deletedEdits = append(c.deletedEdits, contentID)
	return nil
}

type fakeSeries struct {
	owners map[string]string
	items  map[string][]string
}

func (s *fakeSeries) ListItemIds(ctx context.Context, seriesID string) ([]string, error) {
	return append([]string{}, s.items[seriesID]...), nil
}

func (s *fakeSeries) Owners(ctx context.Context, seriesIds []string) (map[string]string, error) {
	res := map[string]string{}
	for _, id := range seriesIds {
		if owner, ok := s.owners[id]; ok {
			res[id] = owner
		}
	}
	return res, nil
}

type fakeReactionCounter struct {
	counts map[string]map[string]int64
}

func (r *fakeReactionCounter) CountByTarget(ctx context.Context, targetID string) (map[string]int64, error) {
	return r.counts[targetID], nil
}

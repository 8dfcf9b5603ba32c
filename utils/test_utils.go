package utils

import (
	"testing"
	"time"

	"github.com/Luismorlan/contentmux/model"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// create a content item owned by ownerId, do sanity checks and returns it.
// Status defaults to PUBLISHED with publishedAt set.
func TestCreateContentAndValidate(t *testing.T, db *gorm.DB, kind model.ContentKind, ownerId string, opts ...func(*model.ContentItem)) *model.ContentItem {
	t.Helper()
	now := time.Now()
	item := &model.ContentItem{
		Id:          uuid.NewString(),
		Kind:        kind,
		Status:      model.ContentStatusPublished,
		OwnerID:     ownerId,
		Title:       "title",
		Content:     "content",
		GroupIds:    pq.StringArray{},
		TagIds:      pq.StringArray{},
		PublishedAt: &now,
	}
	for _, opt := range opts {
		opt(item)
	}
	require.Nil(t, db.Create(item).Error)

	var saved model.ContentItem
	require.Nil(t, db.Where("id = ?", item.Id).First(&saved).Error)
	require.Equal(t, item.Kind, saved.Kind)
	require.Equal(t, item.Status, saved.Status)
	require.Equal(t, ownerId, saved.OwnerID)

	return item
}

// create a series owned by ownerId and returns its Id
func TestCreateSeriesAndValidate(t *testing.T, db *gorm.DB, ownerId string) string {
	t.Helper()
	return TestCreateContentAndValidate(t, db, model.ContentKindSeries, ownerId).Id
}

// create tags with zero usage
func TestCreateTagsAndValidate(t *testing.T, db *gorm.DB, ids ...string) {
	t.Helper()
	for _, id := range ids {
		require.Nil(t, db.Create(&model.Tag{Id: id, Name: "tag_" + id}).Error)
	}
}

// create a comment under postId and returns its Id
func TestCreateCommentAndValidate(t *testing.T, db *gorm.DB, postId string, actorId string) string {
	t.Helper()
	comment := &model.Comment{Id: uuid.NewString(), PostID: postId, ActorID: actorId, Content: "comment"}
	require.Nil(t, db.Create(comment).Error)
	return comment.Id
}

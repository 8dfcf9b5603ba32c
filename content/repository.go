package content

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Luismorlan/contentmux/model"
	"github.com/Luismorlan/contentmux/series"
	"github.com/pkg/errors"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Repository reads content items with their series ids and performs the
// video transitions the listeners need.
type Repository struct {
	DB     *gorm.DB
	Series *series.Store
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{DB: db, Series: series.NewStore(db)}
}

// FindContent loads a live content item and its series ids. Soft deleted
// items are reported as not found.
func (r *Repository) FindContent(ctx context.Context, id string) (*model.ContentItem, error) {
	var item model.ContentItem
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.ErrContentNotFound
		}
		return nil, errors.Wrap(err, "fail to load content "+id)
	}
	seriesIds, err := r.Series.SeriesIdsOf(ctx, id)
	if err != nil {
		return nil, err
	}
	item.SeriesIds = seriesIds
	return &item, nil
}

// FindProcessingContentsByVideo returns the PROCESSING items waiting for the
// given video.
func (r *Repository) FindProcessingContentsByVideo(ctx context.Context, videoID string) ([]model.ContentItem, error) {
	var items []model.ContentItem
	err := r.DB.WithContext(ctx).
		Joins("JOIN media_attachments ON media_attachments.content_id = content_items.id").
		Where("media_attachments.id = ? AND media_attachments.status = ?", videoID, model.MediaStatusProcessing).
		Where("content_items.status = ?", model.ContentStatusProcessing).
		Find(&items).Error
	if err != nil {
		return nil, errors.Wrap(err, "fail to load contents of video "+videoID)
	}
	return items, nil
}

// MarkVideoPublished marks the attachment DONE and publishes the item once
// none of its attachments is still processing. The returned bool reports
// whether the item became PUBLISHED.
func (r *Repository) MarkVideoPublished(ctx context.Context, contentID string, videoID string, properties map[string]interface{}) (*model.ContentItem, bool, error) {
	var published bool
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := updateAttachment(tx, contentID, videoID, model.MediaStatusDone, properties); err != nil {
			return err
		}
		var pending int64
		if err := tx.Model(&model.MediaAttachment{}).
			Where("content_id = ? AND status = ?", contentID, model.MediaStatusProcessing).
			Count(&pending).Error; err != nil {
			return err
		}
		if pending > 0 {
			return nil
		}
		now := time.Now()
		res := tx.Model(&model.ContentItem{}).
			Where("id = ? AND status = ?", contentID, model.ContentStatusProcessing).
			Updates(map[string]interface{}{"status": model.ContentStatusPublished, "published_at": now})
		published = res.RowsAffected > 0
		return res.Error
	})
	if err != nil {
		return nil, false, errors.Wrap(err, "fail to publish processed content "+contentID)
	}
	item, err := r.FindContent(ctx, contentID)
	return item, published, err
}

// MarkVideoFailed marks the attachment FAILED and moves the item back to
// DRAFT.
func (r *Repository) MarkVideoFailed(ctx context.Context, contentID string, videoID string, properties map[string]interface{}) (*model.ContentItem, error) {
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := updateAttachment(tx, contentID, videoID, model.MediaStatusFailed, properties); err != nil {
			return err
		}
		return tx.Model(&model.ContentItem{}).
			Where("id = ? AND status = ?", contentID, model.ContentStatusProcessing).
			Update("status", model.ContentStatusDraft).Error
	})
	if err != nil {
		return nil, errors.Wrap(err, "fail to mark video failed for content "+contentID)
	}
	return r.FindContent(ctx, contentID)
}

func (r *Repository) DeleteEditHistory(ctx context.Context, contentID string) error {
	err := r.DB.WithContext(ctx).
		Where("content_id = ?", contentID).
		Delete(&model.EditHistory{}).Error
	return errors.Wrap(err, "fail to delete edit history of "+contentID)
}

func updateAttachment(tx *gorm.DB, contentID string, videoID string, status model.MediaStatus, properties map[string]interface{}) error {
	updates := map[string]interface{}{"status": status}
	if properties != nil {
		data, err := json.Marshal(properties)
		if err != nil {
			return err
		}
		updates["properties"] = datatypes.JSON(data)
	}
	return tx.Model(&model.MediaAttachment{}).
		Where("id = ? AND content_id = ?", videoID, contentID).
		Updates(updates).Error
}

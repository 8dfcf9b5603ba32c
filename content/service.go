package content

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/Luismorlan/contentmux/eventbus"
	"github.com/Luismorlan/contentmux/events"
	"github.com/Luismorlan/contentmux/model"
	"github.com/Luismorlan/contentmux/series"
	Logger "github.com/Luismorlan/contentmux/utils/log"
	"github.com/google/uuid"
	"github.com/jinzhu/copier"
	"github.com/lib/pq"
	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrInvalidStatusTransition = errors.New("invalid content status transition")
	ErrSeriesNotFound          = errors.New("series not found")
)

// UpdateInput lists the editable fields of a content item. Nil fields are
// left unchanged.
type UpdateInput struct {
	Title             *string
	Content           *string
	GroupIds          []string
	TagIds            []string
	SeriesIds         []string
	IsHidden          *bool
	ReactionsDisabled *bool
	// Status may only move a PUBLISHED item back to DRAFT.
	Status *model.ContentStatus
}

// Service commits content mutations and publishes the matching domain event
// once the mutation is committed. Propagation into derived stores is left to
// the listeners.
type Service struct {
	DB  *gorm.DB
	Bus eventbus.Bus
}

func NewService(db *gorm.DB, bus eventbus.Bus) *Service {
	return &Service{DB: db, Bus: bus}
}

// Publish moves a draft to PUBLISHED, or to PROCESSING while one of its
// videos is still being transcoded. Publishing a PUBLISHED or PROCESSING item
// is a no-op.
func (s *Service) Publish(ctx context.Context, actorID string, contentID string) (*model.ContentItem, error) {
	var item model.ContentItem
	published := false
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := loadOwnedForUpdate(tx, actorID, contentID, &item); err != nil {
			return err
		}
		if item.Status == model.ContentStatusPublished || item.Status == model.ContentStatusProcessing {
			return nil
		}

		var processing int64
		if err := tx.Model(&model.MediaAttachment{}).
			Where("content_id = ? AND status = ?", contentID, model.MediaStatusProcessing).
			Count(&processing).Error; err != nil {
			return err
		}
		if processing > 0 {
			item.Status = model.ContentStatusProcessing
		} else {
			now := time.Now()
			item.Status = model.ContentStatusPublished
			item.PublishedAt = &now
			published = true
		}
		return tx.Save(&item).Error
	})
	if err != nil {
		return nil, wrapServiceError(err, "fail to publish content "+contentID)
	}

	seriesIds, err := series.NewStore(s.DB).SeriesIdsOf(ctx, contentID)
	if err != nil {
		return nil, err
	}
	item.SeriesIds = seriesIds

	if published {
		s.Bus.Publish(ctx, events.ContentPublished{Content: item, ActorID: actorID, OccurredAt: time.Now()})
	}
	return &item, nil
}

// Update edits a content item and rewrites its series memberships in the
// same transaction. Edits of a PUBLISHED item keep the prior state in the
// edit history.
func (s *Service) Update(ctx context.Context, actorID string, contentID string, in UpdateInput) (*model.ContentItem, error) {
	var before, item model.ContentItem
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := loadOwnedForUpdate(tx, actorID, contentID, &item); err != nil {
			return err
		}
		store := series.NewStore(tx)
		seriesIds, err := store.SeriesIdsOf(ctx, contentID)
		if err != nil {
			return err
		}
		item.SeriesIds = seriesIds
		if err := copier.CopyWithOption(&before, &item, copier.Option{DeepCopy: true}); err != nil {
			return err
		}

		if before.IsPublished() {
			if err := writeEditHistory(tx, actorID, before); err != nil {
				return err
			}
		}

		if err := applyUpdate(&item, in); err != nil {
			return err
		}
		if err := tx.Save(&item).Error; err != nil {
			return err
		}

		if in.SeriesIds == nil {
			return nil
		}
		wanted := dedupe(in.SeriesIds)
		owners, err := store.Owners(ctx, wanted)
		if err != nil {
			return err
		}
		for _, id := range wanted {
			if _, ok := owners[id]; !ok || id == contentID {
				return pkgerrors.Wrap(ErrSeriesNotFound, id)
			}
		}
		if _, _, err := store.SetItemSeries(ctx, contentID, wanted); err != nil {
			return err
		}
		item.SeriesIds = wanted
		return nil
	})
	if err != nil {
		return nil, wrapServiceError(err, "fail to update content "+contentID)
	}

	s.Bus.Publish(ctx, events.ContentUpdated{Before: before, After: item, ActorID: actorID, OccurredAt: time.Now()})
	return &item, nil
}

// Delete soft deletes a content item and drops its series memberships. The
// published event carries the item as it was, series included.
func (s *Service) Delete(ctx context.Context, actorID string, contentID string) error {
	var item model.ContentItem
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := loadOwnedForUpdate(tx, actorID, contentID, &item); err != nil {
			return err
		}
		store := series.NewStore(tx)
		seriesIds, err := store.SeriesIdsOf(ctx, contentID)
		if err != nil {
			return err
		}
		item.SeriesIds = seriesIds
		if err := tx.Delete(&model.ContentItem{}, "id = ?", contentID).Error; err != nil {
			return err
		}
		return store.RemoveItemFromAll(ctx, contentID)
	})
	if err != nil {
		return wrapServiceError(err, "fail to delete content "+contentID)
	}

	s.Bus.Publish(ctx, events.ContentDeleted{Content: item, ActorID: actorID, OccurredAt: time.Now()})
	return nil
}

// VideoProcessed relays the transcoder result. The listeners move the
// waiting items out of PROCESSING.
func (s *Service) VideoProcessed(ctx context.Context, videoID string, succeeded bool, properties map[string]interface{}) error {
	if strings.TrimSpace(videoID) == "" {
		return model.ErrContentNotFound
	}
	Logger.Log.WithFields(logrus.Fields{"video": videoID, "succeeded": succeeded}).Info("video processed")
	s.Bus.Publish(ctx, events.VideoProcessed{
		VideoID:    videoID,
		Succeeded:  succeeded,
		Properties: properties,
		OccurredAt: time.Now(),
	})
	return nil
}

func loadOwnedForUpdate(tx *gorm.DB, actorID string, contentID string, item *model.ContentItem) error {
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", contentID).First(item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.ErrContentNotFound
	}
	if err != nil {
		return err
	}
	if item.OwnerID != actorID {
		return model.ErrContentAccessDenied
	}
	return nil
}

func writeEditHistory(tx *gorm.DB, editorID string, snapshot model.ContentItem) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}
	return tx.Create(&model.EditHistory{
		Id:        uuid.NewString(),
		ContentID: snapshot.Id,
		EditedAt:  time.Now(),
		EditorID:  editorID,
		Snapshot:  datatypes.JSON(data),
	}).Error
}

func applyUpdate(item *model.ContentItem, in UpdateInput) error {
	if in.Status != nil && *in.Status != item.Status {
		if item.Status != model.ContentStatusPublished || *in.Status != model.ContentStatusDraft {
			return ErrInvalidStatusTransition
		}
		item.Status = model.ContentStatusDraft
	}
	if in.Title != nil {
		item.Title = *in.Title
	}
	if in.Content != nil {
		item.Content = *in.Content
	}
	if in.GroupIds != nil {
		item.GroupIds = pq.StringArray(dedupe(in.GroupIds))
	}
	if in.TagIds != nil {
		item.TagIds = pq.StringArray(dedupe(in.TagIds))
	}
	if in.IsHidden != nil {
		item.IsHidden = *in.IsHidden
	}
	if in.ReactionsDisabled != nil {
		item.ReactionsDisabled = *in.ReactionsDisabled
	}
	return nil
}

func dedupe(ids []string) []string {
	added, _ := series.Diff(nil, ids)
	return added
}

// wrapServiceError keeps business errors recognizable by errors.Is and adds
// context to everything else.
func wrapServiceError(err error, msg string) error {
	for _, target := range []error{model.ErrContentNotFound, model.ErrContentAccessDenied, ErrInvalidStatusTransition, ErrSeriesNotFound} {
		if errors.Is(err, target) {
			return err
		}
	}
	return pkgerrors.Wrap(err, msg)
}

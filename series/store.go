package series

import (
	"context"
	"time"

	"github.com/Luismorlan/contentmux/model"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store owns series memberships. Every multi-row change runs inside a
// transaction; WithTx binds the store to a caller's transaction so that
// membership rewrites commit together with the content mutation.
type Store struct {
	DB *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{DB: db}
}

func (s *Store) WithTx(tx *gorm.DB) *Store {
	return &Store{DB: tx}
}

// ListItemIds returns the series items ordered by zindex, ties broken by
// creation time.
func (s *Store) ListItemIds(ctx context.Context, seriesID string) ([]string, error) {
	var memberships []model.SeriesMembership
	err := s.DB.WithContext(ctx).
		Where("series_id = ?", seriesID).
		Order("zindex ASC").
		Order("created_at ASC").
		Find(&memberships).Error
	if err != nil {
		return nil, errors.Wrap(err, "fail to list series items")
	}
	res := make([]string, 0, len(memberships))
	for _, m := range memberships {
		res = append(res, m.PostID)
	}
	return res, nil
}

// SeriesIdsOf returns the series an item belongs to.
func (s *Store) SeriesIdsOf(ctx context.Context, itemID string) ([]string, error) {
	var ids []string
	err := s.DB.WithContext(ctx).
		Model(&model.SeriesMembership{}).
		Where("post_id = ?", itemID).
		Order("created_at ASC").
		Pluck("series_id", &ids).Error
	if err != nil {
		return nil, errors.Wrap(err, "fail to load series of item "+itemID)
	}
	return ids, nil
}

// Owners maps every existing series id to its owner's actor id.
func (s *Store) Owners(ctx context.Context, seriesIds []string) (map[string]string, error) {
	res := map[string]string{}
	if len(seriesIds) == 0 {
		return res, nil
	}
	var series []model.ContentItem
	err := s.DB.WithContext(ctx).
		Select("id", "owner_id").
		Where("id IN ? AND kind = ?", seriesIds, model.ContentKindSeries).
		Find(&series).Error
	if err != nil {
		return nil, errors.Wrap(err, "fail to load series owners")
	}
	for _, item := range series {
		res[item.Id] = item.OwnerID
	}
	return res, nil
}

// AddItems appends items at the end of the series, keeping the given order.
// Items already in the series are left where they are. Returns the ids that
// were actually added.
func (s *Store) AddItems(ctx context.Context, seriesID string, itemIds []string) ([]string, error) {
	added := []string{}
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing := []string{}
		if err := tx.Model(&model.SeriesMembership{}).
			Where("series_id = ?", seriesID).
			Pluck("post_id", &existing).Error; err != nil {
			return err
		}

		var maxZindex int
		if err := tx.Model(&model.SeriesMembership{}).
			Where("series_id = ?", seriesID).
			Select("COALESCE(MAX(zindex), -1)").
			Scan(&maxZindex).Error; err != nil {
			return err
		}

		newIds, _ := Diff(existing, itemIds)
		toAdd := []model.SeriesMembership{}
		now := time.Now()
		for _, id := range newIds {
			maxZindex++
			toAdd = append(toAdd, model.SeriesMembership{
				SeriesID:  seriesID,
				PostID:    id,
				Zindex:    maxZindex,
				CreatedAt: now,
			})
			added = append(added, id)
		}
		if len(toAdd) == 0 {
			return nil
		}
		// A concurrent add of the same item loses silently, the membership
		// exists either way.
		return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&toAdd).Error
	})
	if err != nil {
		return nil, errors.Wrap(err, "fail to add items to series "+seriesID)
	}
	return added, nil
}

func (s *Store) RemoveItems(ctx context.Context, seriesID string, itemIds []string) error {
	if len(itemIds) == 0 {
		return nil
	}
	err := s.DB.WithContext(ctx).
		Where("series_id = ? AND post_id IN ?", seriesID, itemIds).
		Delete(&model.SeriesMembership{}).Error
	return errors.Wrap(err, "fail to remove items from series "+seriesID)
}

// ReorderItems puts itemIds first, in the given order, followed by the rest
// of the series in its current order. Ids that are not members are ignored.
func (s *Store) ReorderItems(ctx context.Context, seriesID string, itemIds []string) error {
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := s.WithTx(tx).ListItemIds(ctx, seriesID)
		if err != nil {
			return err
		}
		members := toSet(current)
		order := []string{}
		for _, id := range dedupe(itemIds) {
			if _, ok := members[id]; ok {
				order = append(order, id)
			}
		}
		rest, _ := Diff(order, current)
		order = append(order, rest...)

		for zindex, id := range order {
			if err := tx.Model(&model.SeriesMembership{}).
				Where("series_id = ? AND post_id = ?", seriesID, id).
				Update("zindex", zindex).Error; err != nil {
				return err
			}
		}
		return nil
	})
	return errors.Wrap(err, "fail to reorder series "+seriesID)
}

// SetItemSeries rewrites the series an item belongs to and returns the
// series it joined and left.
func (s *Store) SetItemSeries(ctx context.Context, itemID string, seriesIds []string) (added []string, removed []string, err error) {
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		store := s.WithTx(tx)
		current, err := store.SeriesIdsOf(ctx, itemID)
		if err != nil {
			return err
		}
		added, removed = Diff(current, seriesIds)
		for _, seriesID := range removed {
			if err := store.RemoveItems(ctx, seriesID, []string{itemID}); err != nil {
				return err
			}
		}
		for _, seriesID := range added {
			if _, err := store.AddItems(ctx, seriesID, []string{itemID}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, errors.Wrap(err, "fail to set series of item "+itemID)
	}
	return added, removed, nil
}

// RemoveItemFromAll drops every membership of the item, used on deletion.
func (s *Store) RemoveItemFromAll(ctx context.Context, itemID string) error {
	err := s.DB.WithContext(ctx).
		Where("post_id = ?", itemID).
		Delete(&model.SeriesMembership{}).Error
	return errors.Wrap(err, "fail to remove item from series")
}

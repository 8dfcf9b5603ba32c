package series

import (
	"context"
	"errors"

	"github.com/Luismorlan/contentmux/eventbus"
	"github.com/Luismorlan/contentmux/events"
	"github.com/Luismorlan/contentmux/model"
	pkgerrors "github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrInvalidSeriesItem = errors.New("invalid series item")

// Service lets a series owner curate the series directly. Membership changes
// commit in one transaction with the series row locked, then the matching
// series event is published.
type Service struct {
	DB  *gorm.DB
	Bus eventbus.Bus
}

func NewService(db *gorm.DB, bus eventbus.Bus) *Service {
	return &Service{DB: db, Bus: bus}
}

// AddItems appends the actor's own items to the series and returns the ids
// that joined it.
func (s *Service) AddItems(ctx context.Context, actorID string, seriesID string, itemIds []string) ([]string, error) {
	var added []string
	var items map[string]model.ContentItem
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := loadSeriesForUpdate(tx, actorID, seriesID); err != nil {
			return err
		}
		var err error
		items, err = loadItems(tx, dedupe(itemIds))
		if err != nil {
			return err
		}
		for _, id := range dedupe(itemIds) {
			item, ok := items[id]
			if !ok {
				return pkgerrors.Wrap(model.ErrContentNotFound, id)
			}
			if item.IsSeries() {
				return pkgerrors.Wrap(ErrInvalidSeriesItem, id)
			}
			if item.OwnerID != actorID {
				return pkgerrors.Wrap(model.ErrContentAccessDenied, id)
			}
		}
		added, err = NewStore(tx).AddItems(ctx, seriesID, itemIds)
		return err
	})
	if err != nil {
		return nil, wrapServiceError(err, "fail to add items to series "+seriesID)
	}
	if len(added) == 0 {
		return added, nil
	}

	s.Bus.Publish(ctx, events.SeriesAddedItems{
		SeriesID:   seriesID,
		OwnerID:    actorID,
		ItemIds:    added,
		ActorID:    actorID,
		SkipNotify: !anyVisible(items, added),
		Context:    events.SeriesContextSeries,
	})
	return added, nil
}

// RemoveItems drops items from the series and returns the ids that were
// members. Ids that are not members are ignored.
func (s *Service) RemoveItems(ctx context.Context, actorID string, seriesID string, itemIds []string) ([]string, error) {
	var removed []string
	var items map[string]model.ContentItem
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := loadSeriesForUpdate(tx, actorID, seriesID); err != nil {
			return err
		}
		store := NewStore(tx)
		current, err := store.ListItemIds(ctx, seriesID)
		if err != nil {
			return err
		}
		members := toSet(current)
		removed = []string{}
		for _, id := range dedupe(itemIds) {
			if _, ok := members[id]; ok {
				removed = append(removed, id)
			}
		}
		if len(removed) == 0 {
			return nil
		}
		if items, err = loadItems(tx, removed); err != nil {
			return err
		}
		return store.RemoveItems(ctx, seriesID, removed)
	})
	if err != nil {
		return nil, wrapServiceError(err, "fail to remove items from series "+seriesID)
	}
	if len(removed) == 0 {
		return removed, nil
	}

	s.Bus.Publish(ctx, events.SeriesRemovedItems{
		SeriesID:   seriesID,
		OwnerID:    actorID,
		ItemIds:    removed,
		ActorID:    actorID,
		SkipNotify: !anyVisible(items, removed),
		Context:    events.SeriesContextSeries,
	})
	return removed, nil
}

// ReorderItems moves itemIds to the front of the series and returns the
// resulting order.
func (s *Service) ReorderItems(ctx context.Context, actorID string, seriesID string, itemIds []string) ([]string, error) {
	var order []string
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := loadSeriesForUpdate(tx, actorID, seriesID); err != nil {
			return err
		}
		store := NewStore(tx)
		if err := store.ReorderItems(ctx, seriesID, itemIds); err != nil {
			return err
		}
		var err error
		order, err = store.ListItemIds(ctx, seriesID)
		return err
	})
	if err != nil {
		return nil, wrapServiceError(err, "fail to reorder series "+seriesID)
	}

	s.Bus.Publish(ctx, events.SeriesReordered{
		SeriesID: seriesID,
		OwnerID:  actorID,
		ItemIds:  order,
		ActorID:  actorID,
	})
	return order, nil
}

func loadSeriesForUpdate(tx *gorm.DB, actorID string, seriesID string) error {
	var item model.ContentItem
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", seriesID).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && !item.IsSeries()) {
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

func loadItems(tx *gorm.DB, ids []string) (map[string]model.ContentItem, error) {
	res := map[string]model.ContentItem{}
	if len(ids) == 0 {
		return res, nil
	}
	var items []model.ContentItem
	if err := tx.Where("id IN ?", ids).Find(&items).Error; err != nil {
		return nil, err
	}
	for _, item := range items {
		res[item.Id] = item
	}
	return res, nil
}

// anyVisible reports whether followers can see at least one of the items.
func anyVisible(items map[string]model.ContentItem, ids []string) bool {
	for _, id := range ids {
		if item, ok := items[id]; ok && item.IsPublished() && !item.IsHidden {
			return true
		}
	}
	return false
}

func wrapServiceError(err error, msg string) error {
	for _, target := range []error{model.ErrContentNotFound, model.ErrContentAccessDenied, ErrInvalidSeriesItem} {
		if errors.Is(err, target) {
			return err
		}
	}
	return pkgerrors.Wrap(err, msg)
}

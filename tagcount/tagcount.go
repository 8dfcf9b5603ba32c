package tagcount

import (
	"context"

	"github.com/Luismorlan/contentmux/model"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// GormTagCounters keeps Tag.TotalUsed. Each id is updated by its own
// statement; a failure stops at that id and leaves earlier ids updated.
type GormTagCounters struct {
	DB *gorm.DB
}

func NewGormTagCounters(db *gorm.DB) *GormTagCounters {
	return &GormTagCounters{DB: db}
}

func (c *GormTagCounters) IncreaseUsed(ctx context.Context, tagIds []string) error {
	for _, id := range tagIds {
		err := c.DB.WithContext(ctx).
			Model(&model.Tag{}).
			Where("id = ?", id).
			UpdateColumn("total_used", gorm.Expr("total_used + 1")).Error
		if err != nil {
			return errors.Wrap(err, "fail to increase usage of tag "+id)
		}
	}
	return nil
}

// DecreaseUsed never takes a counter below zero.
func (c *GormTagCounters) DecreaseUsed(ctx context.Context, tagIds []string) error {
	for _, id := range tagIds {
		err := c.DB.WithContext(ctx).
			Model(&model.Tag{}).
			Where("id = ? AND total_used > 0", id).
			UpdateColumn("total_used", gorm.Expr("total_used - 1")).Error
		if err != nil {
			return errors.Wrap(err, "fail to decrease usage of tag "+id)
		}
	}
	return nil
}

package reaction

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Luismorlan/contentmux/model"
	"github.com/Luismorlan/contentmux/utils"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// DeleteQuery scopes a reaction removal to the actor and the target. When
// ReactionID is set it wins over ReactionName.
type DeleteQuery struct {
	ActorID      string
	TargetType   model.ReactionTargetType
	TargetID     string
	ReactionID   string
	ReactionName string
}

// Repository performs the atomic storage steps of the ledger. Both calls run
// one serializable transaction and return ErrSerializationConflict when the
// database detected a conflicting concurrent transaction.
type Repository interface {
	// InsertReaction checks uniqueness and the per-target ceiling of distinct
	// reaction names, then inserts, all in the same transaction.
	InsertReaction(ctx context.Context, r *model.Reaction, limitPerTarget int) error
	DeleteReaction(ctx context.Context, q DeleteQuery) (*model.Reaction, error)
	CountByTarget(ctx context.Context, targetID string) (map[string]int64, error)
}

type GormRepository struct {
	DB *gorm.DB
}

func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{DB: db}
}

var serializable = &sql.TxOptions{Isolation: sql.LevelSerializable}

func (r *GormRepository) InsertReaction(ctx context.Context, reaction *model.Reaction, limitPerTarget int) error {
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing int64
		if err := tx.Model(&model.Reaction{}).
			Where("target_id = ? AND actor_id = ? AND reaction_name = ?", reaction.TargetID, reaction.ActorID, reaction.ReactionName).
			Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return ErrReactionDuplicate
		}

		var names []string
		if err := tx.Model(&model.Reaction{}).
			Where("target_id = ?", reaction.TargetID).
			Distinct("reaction_name").
			Pluck("reaction_name", &names).Error; err != nil {
			return err
		}
		if !utils.ContainsString(names, reaction.ReactionName) && len(names) >= limitPerTarget {
			return ErrReactionExceedLimit
		}

		return tx.Create(reaction).Error
	}, serializable)
	return translate(err)
}

func (r *GormRepository) DeleteReaction(ctx context.Context, q DeleteQuery) (*model.Reaction, error) {
	var reaction model.Reaction
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		query := tx.Where("actor_id = ? AND target_type = ? AND target_id = ?", q.ActorID, q.TargetType, q.TargetID)
		if q.ReactionID != "" {
			query = query.Where("id = ?", q.ReactionID)
		} else {
			query = query.Where("reaction_name = ?", q.ReactionName)
		}
		if err := query.First(&reaction).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrReactionNotFound
			}
			return err
		}
		return tx.Delete(&reaction).Error
	}, serializable)
	if err != nil {
		return nil, translate(err)
	}
	return &reaction, nil
}

func (r *GormRepository) CountByTarget(ctx context.Context, targetID string) (map[string]int64, error) {
	var rows []struct {
		ReactionName string
		Total        int64
	}
	err := r.DB.WithContext(ctx).
		Model(&model.Reaction{}).
		Select("reaction_name, COUNT(*) AS total").
		Where("target_id = ?", targetID).
		Group("reaction_name").
		Scan(&rows).Error
	if err != nil {
		return nil, errors.Wrap(err, "fail to count reactions of "+targetID)
	}
	res := map[string]int64{}
	for _, row := range rows {
		res[row.ReactionName] = row.Total
	}
	return res, nil
}

// translate maps storage errors to ledger errors. A unique violation means a
// concurrent transaction inserted the same reaction first.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case IsBusinessError(err):
		return err
	case utils.IsUniqueViolation(err):
		return ErrReactionDuplicate
	case utils.IsSerializationFailure(err):
		return fmt.Errorf("%w: %v", ErrSerializationConflict, err)
	default:
		return errors.Wrap(err, "reaction storage failure")
	}
}

package reaction

import (
	"context"

	"github.com/Luismorlan/contentmux/model"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// Target is a resolved reaction target.
type Target struct {
	Type    model.ReactionTargetType
	Id      string
	OwnerID string
	// PostID is the content item the target lives in, the target itself for
	// POST targets.
	PostID string
}

type TargetResolver interface {
	Resolve(ctx context.Context, targetType model.ReactionTargetType, targetID string) (*Target, error)
}

type GormTargetResolver struct {
	DB *gorm.DB
}

func NewGormTargetResolver(db *gorm.DB) *GormTargetResolver {
	return &GormTargetResolver{DB: db}
}

// Resolve loads the target and checks it accepts reactions: the content
// item must be published and must not have reactions disabled.
func (r *GormTargetResolver) Resolve(ctx context.Context, targetType model.ReactionTargetType, targetID string) (*Target, error) {
	switch targetType {
	case model.ReactionTargetPost:
		content, err := r.reactableContent(ctx, targetID)
		if err != nil {
			return nil, err
		}
		return &Target{Type: targetType, Id: targetID, OwnerID: content.OwnerID, PostID: content.Id}, nil
	case model.ReactionTargetComment:
		var comment model.Comment
		if err := r.DB.WithContext(ctx).Where("id = ?", targetID).First(&comment).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrCommentNotFound
			}
			return nil, errors.Wrap(err, "fail to load comment")
		}
		if _, err := r.reactableContent(ctx, comment.PostID); err != nil {
			return nil, err
		}
		return &Target{Type: targetType, Id: targetID, OwnerID: comment.ActorID, PostID: comment.PostID}, nil
	default:
		return nil, ErrReactionTargetNotExisting
	}
}

func (r *GormTargetResolver) reactableContent(ctx context.Context, id string) (*model.ContentItem, error) {
	var content model.ContentItem
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&content).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrContentNotFound
		}
		return nil, errors.Wrap(err, "fail to load content")
	}
	if !content.IsPublished() {
		return nil, ErrContentNotFound
	}
	if content.ReactionsDisabled {
		return nil, ErrReactionNotAllowed
	}
	return &content, nil
}

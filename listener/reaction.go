package listener

import (
	"context"

	"github.com/Luismorlan/contentmux/events"
	"github.com/Luismorlan/contentmux/model"
	"github.com/Luismorlan/contentmux/notification"
)

// OnReactionCreated tells the target owner about the reaction, unless they
// reacted to their own content, and refreshes the post's reaction counts.
func (l *Listeners) OnReactionCreated(ctx context.Context, e events.ReactionCreated) error {
	r := e.Reaction
	if e.TargetOwnerID != "" && e.TargetOwnerID != r.ActorID {
		l.Bus.Try(ctx, "notification.reaction_created", func(ctx context.Context) error {
			return l.Notifications.Publish(ctx, notification.Notification{
				Key:       e.PostID,
				EventName: notification.EventReactionCreated,
				ActorID:   r.ActorID,
				Payload: map[string]interface{}{
					"reactionId":   r.Id,
					"reactionName": r.ReactionName,
					"targetType":   string(r.TargetType),
					"targetId":     r.TargetID,
					"ownerId":      e.TargetOwnerID,
				},
				Meta: &notification.Meta{IgnoreUserIds: []string{r.ActorID}},
			})
		})
	}
	if r.TargetType == model.ReactionTargetPost {
		l.refreshReactionCount(ctx, r.TargetID)
	}
	return nil
}

func (l *Listeners) OnReactionDeleted(ctx context.Context, e events.ReactionDeleted) error {
	if e.Reaction.TargetType == model.ReactionTargetPost {
		l.refreshReactionCount(ctx, e.Reaction.TargetID)
	}
	return nil
}

func (l *Listeners) refreshReactionCount(ctx context.Context, postID string) {
	l.Bus.Try(ctx, "search.refresh_reactions", func(ctx context.Context) error {
		counts, err := l.Reactions.CountByTarget(ctx, postID)
		if err != nil {
			return err
		}
		var total int64
		for _, c := range counts {
			total += c
		}
		return l.Search.UpdateAttributes(ctx, []string{postID}, map[string]interface{}{
			"reactionsCount": total,
			"reactions":      counts,
		})
	})
}

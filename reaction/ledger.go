package reaction

import (
	"context"
	"strings"
	"time"

	"github.com/Luismorlan/contentmux/eventbus"
	"github.com/Luismorlan/contentmux/events"
	"github.com/Luismorlan/contentmux/model"
	Logger "github.com/Luismorlan/contentmux/utils/log"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	DefaultMaxAttempts    = 3
	DefaultLimitPerTarget = 21
)

type Config struct {
	// MaxAttempts is the total number of attempts of one operation when the
	// database keeps reporting serialization conflicts.
	MaxAttempts    int
	LimitPerTarget int
}

// Ledger creates and deletes reactions with a strongly consistent answer.
// Conflicts between concurrent writers are detected by the database under
// serializable isolation and retried, uniqueness and quota violations are
// final.
type Ledger struct {
	repo    Repository
	targets TargetResolver
	bus     eventbus.Bus
	config  Config
}

// NewLedger returns a ledger. bus may be nil, reaction events are then not
// published.
func NewLedger(repo Repository, targets TargetResolver, bus eventbus.Bus, config Config) *Ledger {
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = DefaultMaxAttempts
	}
	if config.LimitPerTarget <= 0 {
		config.LimitPerTarget = DefaultLimitPerTarget
	}
	return &Ledger{repo: repo, targets: targets, bus: bus, config: config}
}

func (l *Ledger) CreateReaction(ctx context.Context, actorID string, targetType model.ReactionTargetType, targetID string, reactionName string) (*model.Reaction, error) {
	reactionName = strings.TrimSpace(reactionName)
	if !targetType.IsValid() || targetID == "" || reactionName == "" {
		return nil, ErrReactionTargetNotExisting
	}

	target, err := l.targets.Resolve(ctx, targetType, targetID)
	if err != nil {
		return nil, err
	}

	var created *model.Reaction
	err = l.retry(ctx, "create", func() error {
		reaction := &model.Reaction{
			Id:           uuid.NewString(),
			CreatedAt:    time.Now(),
			TargetType:   targetType,
			TargetID:     targetID,
			ActorID:      actorID,
			ReactionName: reactionName,
		}
		if err := l.repo.InsertReaction(ctx, reaction, l.config.LimitPerTarget); err != nil {
			return err
		}
		created = reaction
		return nil
	})
	if err != nil {
		return nil, err
	}

	if l.bus != nil {
		l.bus.Publish(ctx, events.ReactionCreated{
			Reaction:      *created,
			TargetOwnerID: target.OwnerID,
			PostID:        target.PostID,
		})
	}
	return created, nil
}

func (l *Ledger) DeleteReaction(ctx context.Context, q DeleteQuery) (*model.Reaction, error) {
	if !q.TargetType.IsValid() || q.TargetID == "" {
		return nil, ErrReactionTargetNotExisting
	}
	if q.ReactionID == "" && strings.TrimSpace(q.ReactionName) == "" {
		return nil, ErrReactionNotFound
	}
	q.ReactionName = strings.TrimSpace(q.ReactionName)

	var deleted *model.Reaction
	err := l.retry(ctx, "delete", func() error {
		reaction, err := l.repo.DeleteReaction(ctx, q)
		if err != nil {
			return err
		}
		deleted = reaction
		return nil
	})
	if err != nil {
		return nil, err
	}

	if l.bus != nil {
		postID := ""
		if deleted.TargetType == model.ReactionTargetPost {
			postID = deleted.TargetID
		}
		l.bus.Publish(ctx, events.ReactionDeleted{Reaction: *deleted, PostID: postID})
	}
	return deleted, nil
}

// retry runs op until it succeeds, fails with anything but a serialization
// conflict, or runs out of attempts.
func (l *Ledger) retry(ctx context.Context, opName string, op func() error) error {
	var lastErr error
	for attempt := 1; attempt <= l.config.MaxAttempts; attempt++ {
		err := op()
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrSerializationConflict) {
			return err
		}
		lastErr = err
		Logger.Log.WithFields(logrus.Fields{"op": opName, "attempt": attempt}).Warn("reaction transaction conflicted, retrying")
		if ctx.Err() != nil {
			break
		}
	}
	return errors.Wrapf(ErrInternal, "%s reaction gave up: %v", opName, lastErr)
}

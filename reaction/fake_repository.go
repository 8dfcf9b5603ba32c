package reaction

import (
	"context"
	"sync"

	"github.com/Luismorlan/contentmux/model"
)

// FakeRepository is an in-memory Repository. Uniqueness and the per-target
// ceiling are enforced under one lock, the same guarantee the serializable
// transaction gives. ConflictsBeforeSuccess makes the next calls fail with
// ErrSerializationConflict.
type FakeRepository struct {
	mu                     sync.Mutex
	reactions              []model.Reaction
	ConflictsBeforeSuccess int
	InsertCalls            int
	DeleteCalls            int
}

func (r *FakeRepository) InsertReaction(ctx context.Context, reaction *model.Reaction, limitPerTarget int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.InsertCalls++
	if r.ConflictsBeforeSuccess > 0 {
		r.ConflictsBeforeSuccess--
		return ErrSerializationConflict
	}

	names := map[string]struct{}{}
	for _, existing := range r.reactions {
		if existing.TargetID != reaction.TargetID {
			continue
		}
		if existing.ActorID == reaction.ActorID && existing.ReactionName == reaction.ReactionName {
			return ErrReactionDuplicate
		}
		names[existing.ReactionName] = struct{}{}
	}
	if _, ok := names[reaction.ReactionName]; !ok && len(names) >= limitPerTarget {
		return ErrReactionExceedLimit
	}
	r.reactions = append(r.reactions, *reaction)
	return nil
}

func (r *FakeRepository) DeleteReaction(ctx context.Context, q DeleteQuery) (*model.Reaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.DeleteCalls++
	if r.ConflictsBeforeSuccess > 0 {
		r.ConflictsBeforeSuccess--
		return nil, ErrSerializationConflict
	}
	for idx, existing := range r.reactions {
		if existing.ActorID != q.ActorID || existing.TargetID != q.TargetID || existing.TargetType != q.TargetType {
			continue
		}
		if (q.ReactionID != "" && existing.Id == q.ReactionID) ||
			(q.ReactionID == "" && existing.ReactionName == q.ReactionName) {
			r.reactions = append(r.reactions[:idx], r.reactions[idx+1:]...)
			return &existing, nil
		}
	}
	return nil, ErrReactionNotFound
}

func (r *FakeRepository) CountByTarget(ctx context.Context, targetID string) (map[string]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	res := map[string]int64{}
	for _, existing := range r.reactions {
		if existing.TargetID == targetID {
			res[existing.ReactionName]++
		}
	}
	return res, nil
}

// FakeTargetResolver resolves every target of a known type to the same
// owner, unless Err is set.
type FakeTargetResolver struct {
	OwnerID string
	Err     error
}

func (r *FakeTargetResolver) Resolve(ctx context.Context, targetType model.ReactionTargetType, targetID string) (*Target, error) {
	if r.Err != nil {
		return nil, r.Err
	}
	return &Target{Type: targetType, Id: targetID, OwnerID: r.OwnerID, PostID: targetID}, nil
}

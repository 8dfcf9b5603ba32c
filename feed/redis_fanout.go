package feed

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"
)

const (
	DefaultMaxLength = 500
	keyPrefix        = "feed:group:"
)

// RedisFanoutPublisher keeps one sorted set per audience group, scored by
// the time the content entered the group's feed. Feeds are capped to the
// newest maxLength entries.
type RedisFanoutPublisher struct {
	client    *redis.Client
	maxLength int64
	now       func() time.Time
}

func NewRedisFanoutPublisher(client *redis.Client, maxLength int) *RedisFanoutPublisher {
	if maxLength <= 0 {
		maxLength = DefaultMaxLength
	}
	return &RedisFanoutPublisher{client: client, maxLength: int64(maxLength), now: time.Now}
}

func GroupFeedKey(groupID string) string {
	return keyPrefix + groupID
}

// FanoutOnWrite adds contentID to the feeds of addedGroupIds and removes it
// from the feeds of removedGroupIds, in one pipeline.
func (p *RedisFanoutPublisher) FanoutOnWrite(ctx context.Context, contentID string, addedGroupIds []string, removedGroupIds []string) error {
	if len(addedGroupIds) == 0 && len(removedGroupIds) == 0 {
		return nil
	}
	score := float64(p.now().UnixMilli())
	_, err := p.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, groupID := range addedGroupIds {
			key := GroupFeedKey(groupID)
			pipe.ZAdd(ctx, key, &redis.Z{Score: score, Member: contentID})
			// keep the newest maxLength members
			pipe.ZRemRangeByRank(ctx, key, 0, -p.maxLength-1)
		}
		for _, groupID := range removedGroupIds {
			pipe.ZRem(ctx, GroupFeedKey(groupID), contentID)
		}
		return nil
	})
	if err != nil {
		return errors.Wrap(err, "fail to fan out content "+contentID)
	}
	return nil
}

// GroupFeed returns up to limit content ids of a group feed, newest first.
func (p *RedisFanoutPublisher) GroupFeed(ctx context.Context, groupID string, limit int64) ([]string, error) {
	if limit <= 0 {
		return []string{}, nil
	}
	ids, err := p.client.ZRevRange(ctx, GroupFeedKey(groupID), 0, limit-1).Result()
	if err != nil {
		return nil, errors.Wrap(err, "fail to read feed of group "+groupID)
	}
	return ids, nil
}

package model

import (
	"time"
)

type ReactionTargetType string

const (
	ReactionTargetPost    ReactionTargetType = "POST"
	ReactionTargetComment ReactionTargetType = "COMMENT"
)

func (t ReactionTargetType) IsValid() bool {
	return t == ReactionTargetPost || t == ReactionTargetComment
}

/*

Reaction is an actor's reaction (e.g. "like") to a post or a comment

Id: primary key, use to identify a reaction
CreatedAt: time when entity is created
TargetType: POST or COMMENT
TargetID: id of the reacted content item or comment
ActorID: actor who reacted
ReactionName: the reaction, for example "like"

(TargetID, ActorID, ReactionName) is unique, enforced by the database.
*/
type Reaction struct {
	Id           string `gorm:"primaryKey"`
	CreatedAt    time.Time
	TargetType   ReactionTargetType `gorm:"type:varchar(16)"`
	TargetID     string             `gorm:"uniqueIndex:idx_reaction_target_actor_name;index"`
	ActorID      string             `gorm:"uniqueIndex:idx_reaction_target_actor_name"`
	ReactionName string             `gorm:"uniqueIndex:idx_reaction_target_actor_name"`
}

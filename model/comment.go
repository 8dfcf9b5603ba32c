package model

import (
	"time"

	"gorm.io/gorm"
)

/*

Comment is an actor's comment under a content item

PostID: the content item the comment belongs to, "belongs-to" relation
ActorID: actor who wrote the comment
*/
type Comment struct {
	Id        string `gorm:"primaryKey"`
	CreatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`
	PostID    string         `gorm:"index"`
	ActorID   string
	Content   string
}

package model

import (
	"time"
)

/*

Tag is a label attached to content items

TotalUsed: number of published content items currently using the tag. It is
a derived counter maintained by listeners, never written by request handlers.
*/
type Tag struct {
	Id        string `gorm:"primaryKey"`
	CreatedAt time.Time
	Name      string `gorm:"index"`
	TotalUsed int64  `gorm:"not null;default:0"`
}

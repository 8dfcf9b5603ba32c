package model

import (
	"time"
)

/*

SeriesMembership is a "many-to-many" relation between a series and its items

SeriesID: the series content item id
PostID: the member content item id, a post or an article
Zindex: manual order of the item inside the series, ascending
CreatedAt: time when relation is created, breaks ties of Zindex

(SeriesID, PostID) is the primary key so an item is in a series at most once.
*/
type SeriesMembership struct {
	SeriesID  string `gorm:"primaryKey"`
	PostID    string `gorm:"primaryKey;index"`
	Zindex    int
	CreatedAt time.Time
}

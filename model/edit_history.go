package model

import (
	"time"

	"gorm.io/datatypes"
)

// EditHistory keeps the snapshot of a published content item before each
// edit. Rows are removed when the item is deleted.
type EditHistory struct {
	Id        string `gorm:"primaryKey"`
	ContentID string `gorm:"index"`
	EditedAt  time.Time
	EditorID  string
	Snapshot  datatypes.JSON
}

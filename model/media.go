package model

import (
	"time"

	"gorm.io/datatypes"
)

type MediaStatus string

const (
	MediaStatusProcessing MediaStatus = "PROCESSING"
	MediaStatusDone       MediaStatus = "DONE"
	MediaStatusFailed     MediaStatus = "FAILED"
)

/*

MediaAttachment is a video attached to a content item. Content with a
PROCESSING attachment stays PROCESSING until the transcoder reports back.

Id: the video id issued by the upload service
ContentID: the content item using the video
Properties: transcoder output (thumbnails, duration, ...) as json
*/
type MediaAttachment struct {
	Id         string `gorm:"primaryKey"`
	ContentID  string `gorm:"primaryKey;index"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
	Status     MediaStatus `gorm:"type:varchar(16)"`
	Properties datatypes.JSON
}

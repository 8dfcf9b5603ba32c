package model

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

type ContentKind string

const (
	ContentKindPost    ContentKind = "POST"
	ContentKindArticle ContentKind = "ARTICLE"
	ContentKindSeries  ContentKind = "SERIES"
)

type ContentStatus string

const (
	ContentStatusDraft           ContentStatus = "DRAFT"
	ContentStatusPublished       ContentStatus = "PUBLISHED"
	ContentStatusProcessing      ContentStatus = "PROCESSING"
	ContentStatusWaitingSchedule ContentStatus = "WAITING_SCHEDULE"
	ContentStatusScheduleFailed  ContentStatus = "SCHEDULE_FAILED"
)

/*

ContentItem is a post, an article or a series written by an actor

Id: primary key, use to identify a content item
CreatedAt: time when entity is created
UpdatedAt: time when entity is last updated
DeletedAt: time when entity is deleted (soft delete)

Kind: POST, ARTICLE or SERIES. A series is a content item whose members are other content items
Status: lifecycle status, only PUBLISHED items are propagated to derived stores
OwnerID: actor who created the item
Title: item's title in plain text, empty for posts
Content: item's body in plain text
GroupIds: audience groups the item is visible to, unordered
TagIds: tags attached to the item
IsHidden: hidden items are indexed but never notify
ReactionsDisabled: owner turned reactions off for this item
PublishedAt: time when the item was published, nil if never published

SeriesIds: series the item belongs to, loaded from SeriesMembership, not a column
*/
type ContentItem struct {
	Id                string `gorm:"primaryKey"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
	DeletedAt         gorm.DeletedAt `gorm:"index"`
	Kind              ContentKind    `gorm:"type:varchar(16);index"`
	Status            ContentStatus  `gorm:"type:varchar(32);index"`
	OwnerID           string         `gorm:"index"`
	Title             string
	Content           string
	GroupIds          pq.StringArray `gorm:"type:text[]"`
	TagIds            pq.StringArray `gorm:"type:text[]"`
	IsHidden          bool
	ReactionsDisabled bool
	PublishedAt       *time.Time

	SeriesIds []string `gorm:"-"`
}

func (c ContentItem) IsPublished() bool {
	return c.Status == ContentStatusPublished
}

func (c ContentItem) IsSeries() bool {
	return c.Kind == ContentKindSeries
}

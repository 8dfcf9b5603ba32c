// Package events holds the domain events published by content mutations.
// Events are plain values: they are built once by the mutating call, passed
// by value to every listener and never persisted.
package events

import (
	"time"

	"github.com/Luismorlan/contentmux/model"
)

type Kind string

const (
	KindContentPublished   Kind = "content.published"
	KindContentUpdated     Kind = "content.updated"
	KindContentDeleted     Kind = "content.deleted"
	KindVideoProcessed     Kind = "content.video_processed"
	KindSeriesAddedItems   Kind = "series.added_items"
	KindSeriesRemovedItems Kind = "series.removed_items"
	KindSeriesReordered    Kind = "series.reordered"
	KindReactionCreated    Kind = "reaction.created"
	KindReactionDeleted    Kind = "reaction.deleted"
)

// Event is implemented by every domain event with a value receiver.
type Event interface {
	Kind() Kind
}

// SeriesContext tells series listeners which path produced a membership
// change. Items added while publishing get their series documents refreshed
// by the publish listener itself. Changes made from the series side leave
// the items' own documents stale, so listeners refresh those too.
type SeriesContext string

const (
	SeriesContextPublish SeriesContext = "publish"
	SeriesContextEdit    SeriesContext = "edit"
	SeriesContextDelete  SeriesContext = "delete"
	SeriesContextSeries  SeriesContext = "series"
)

// ContentPublished is published after a content item transitioned to
// PUBLISHED and the transition is committed.
type ContentPublished struct {
	Content    model.ContentItem
	ActorID    string
	OccurredAt time.Time
}

// ContentUpdated carries the committed state before and after an edit.
type ContentUpdated struct {
	Before     model.ContentItem
	After      model.ContentItem
	ActorID    string
	OccurredAt time.Time
}

// ContentDeleted carries the snapshot of the item as it was before deletion,
// including the series it belonged to.
type ContentDeleted struct {
	Content    model.ContentItem
	ActorID    string
	OccurredAt time.Time
}

// VideoProcessed is reported by the transcoder once a video is ready or
// failed. Properties is the transcoder output stored on the attachment.
type VideoProcessed struct {
	VideoID    string
	Succeeded  bool
	Properties map[string]interface{}
	OccurredAt time.Time
}

type SeriesAddedItems struct {
	SeriesID   string
	OwnerID    string
	ItemIds    []string
	ActorID    string
	SkipNotify bool
	Context    SeriesContext
}

type SeriesRemovedItems struct {
	SeriesID         string
	OwnerID          string
	ItemIds          []string
	ActorID          string
	SkipNotify       bool
	ContentIsDeleted bool
	Context          SeriesContext
}

// SeriesReordered carries the full item order after the owner reordered it.
type SeriesReordered struct {
	SeriesID string
	OwnerID  string
	ItemIds  []string
	ActorID  string
}

type ReactionCreated struct {
	Reaction      model.Reaction
	TargetOwnerID string
	// PostID is the content item the target belongs to: the target itself
	// for POST reactions, the comment's post for COMMENT reactions.
	PostID string
}

type ReactionDeleted struct {
	Reaction model.Reaction
	PostID   string
}

func (ContentPublished) Kind() Kind   { return KindContentPublished }
func (ContentUpdated) Kind() Kind     { return KindContentUpdated }
func (ContentDeleted) Kind() Kind     { return KindContentDeleted }
func (VideoProcessed) Kind() Kind     { return KindVideoProcessed }
func (SeriesAddedItems) Kind() Kind   { return KindSeriesAddedItems }
func (SeriesRemovedItems) Kind() Kind { return KindSeriesRemovedItems }
func (SeriesReordered) Kind() Kind    { return KindSeriesReordered }
func (ReactionCreated) Kind() Kind    { return KindReactionCreated }
func (ReactionDeleted) Kind() Kind    { return KindReactionDeleted }

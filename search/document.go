package search

import (
	"github.com/Luismorlan/contentmux/model"
)

// Document is the denormalized shape of a content item in the search index.
// Audience, tags and series are copied onto the document so that search can
// filter without joining.
type Document struct {
	Id          string   `json:"id"`
	Kind        string   `json:"kind"`
	OwnerID     string   `json:"ownerId"`
	Title       string   `json:"title"`
	Content     string   `json:"content"`
	GroupIds    []string `json:"groupIds"`
	TagIds      []string `json:"tagIds"`
	SeriesIds   []string `json:"seriesIds"`
	IsHidden    bool     `json:"isHidden"`
	PublishedAt int64    `json:"publishedAt"`
}

func NewDocument(item model.ContentItem) Document {
	doc := Document{
		Id:        item.Id,
		Kind:      string(item.Kind),
		OwnerID:   item.OwnerID,
		Title:     item.Title,
		Content:   item.Content,
		GroupIds:  nonNil(item.GroupIds),
		TagIds:    nonNil(item.TagIds),
		SeriesIds: nonNil(item.SeriesIds),
		IsHidden:  item.IsHidden,
	}
	if item.PublishedAt != nil {
		doc.PublishedAt = item.PublishedAt.Unix()
	}
	return doc
}

func NewDocuments(items []model.ContentItem) []Document {
	docs := make([]Document, 0, len(items))
	for _, item := range items {
		docs = append(docs, NewDocument(item))
	}
	return docs
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}

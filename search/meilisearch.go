package search

import (
	"context"

	"github.com/Luismorlan/contentmux/model"
	Logger "github.com/Luismorlan/contentmux/utils/log"
	"github.com/meilisearch/meilisearch-go"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const primaryKey = "id"

func documentOptions() *meilisearch.DocumentOptions {
	key := primaryKey
	return &meilisearch.DocumentOptions{PrimaryKey: &key}
}

// MeilisearchIndex writes content documents into one Meilisearch index.
// Writes are enqueued as Meilisearch tasks and not awaited; every call is an
// idempotent upsert keyed by content id.
type MeilisearchIndex struct {
	index meilisearch.IndexManager
}

func NewMeilisearchClient(host string, apiKey string) meilisearch.ServiceManager {
	return meilisearch.New(host, meilisearch.WithAPIKey(apiKey))
}

func NewMeilisearchIndex(client meilisearch.ServiceManager, indexName string) *MeilisearchIndex {
	return &MeilisearchIndex{index: client.Index(indexName)}
}

func (m *MeilisearchIndex) UpsertContent(ctx context.Context, items []model.ContentItem) error {
	if len(items) == 0 {
		return nil
	}
	task, err := m.index.AddDocumentsWithContext(ctx, NewDocuments(items), documentOptions())
	if err != nil {
		return errors.Wrap(err, "fail to upsert content documents")
	}
	Logger.Log.WithFields(logrus.Fields{"task": task.TaskUID, "count": len(items)}).Debug("content documents enqueued")
	return nil
}

// UpdateContent replaces the indexed fields of already indexed items. Fields
// not carried by Document, such as reactionsCount, are preserved.
func (m *MeilisearchIndex) UpdateContent(ctx context.Context, items []model.ContentItem) error {
	if len(items) == 0 {
		return nil
	}
	if _, err := m.index.UpdateDocumentsWithContext(ctx, NewDocuments(items), documentOptions()); err != nil {
		return errors.Wrap(err, "fail to update content documents")
	}
	return nil
}

func (m *MeilisearchIndex) DeleteContent(ctx context.Context, ids []string) error {
	for _, id := range ids {
		if _, err := m.index.DeleteDocumentWithContext(ctx, id, nil); err != nil {
			return errors.Wrap(err, "fail to delete content document "+id)
		}
	}
	return nil
}

// UpdateAttributes applies the same partial patch to every listed document.
func (m *MeilisearchIndex) UpdateAttributes(ctx context.Context, ids []string, patch map[string]interface{}) error {
	if len(ids) == 0 {
		return nil
	}
	docs := make([]map[string]interface{}, 0, len(ids))
	for _, id := range ids {
		doc := map[string]interface{}{primaryKey: id}
		for k, v := range patch {
			if k == primaryKey {
				continue
			}
			doc[k] = v
		}
		docs = append(docs, doc)
	}
	if _, err := m.index.UpdateDocumentsWithContext(ctx, docs, documentOptions()); err != nil {
		return errors.Wrap(err, "fail to patch content documents")
	}
	return nil
}

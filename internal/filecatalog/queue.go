package filecatalog

import (
	"context"
	"time"

	"github.com/sorriso/simplehybridchat/internal/apperr"
	"github.com/sorriso/simplehybridchat/internal/docstore"
	"github.com/sorriso/simplehybridchat/internal/model"
)

// QueueRepo is the docstore-backed ProcessingQueueItem store. It only
// enqueues and tracks work items; the multi-phase analysis pipeline
// itself (extraction, chunking, graph aggregation) that would consume
// these items is out of scope here.
type QueueRepo struct {
	store docstore.Store
}

// NewQueueRepo returns a QueueRepo over store.
func NewQueueRepo(store docstore.Store) *QueueRepo {
	return &QueueRepo{store: store}
}

func queueItemToDocument(q model.ProcessingQueueItem) docstore.Document {
	doc := docstore.Document{
		"file_id":     q.FileID,
		"phase":       q.Phase,
		"enqueued_at": q.EnqueuedAt,
	}
	if q.ID != "" {
		doc["id"] = q.ID
	}
	if q.CompletedAt != nil {
		doc["completed_at"] = *q.CompletedAt
	}
	if q.Error != "" {
		doc["error"] = q.Error
	}
	return doc
}

func documentToQueueItem(doc docstore.Document) model.ProcessingQueueItem {
	q := model.ProcessingQueueItem{
		ID:         stringField(doc, "id"),
		FileID:     stringField(doc, "file_id"),
		Phase:      model.ProcessingPhase(stringField(doc, "phase")),
		EnqueuedAt: timeField(doc, "enqueued_at"),
		Error:      stringField(doc, "error"),
	}
	if t := timeField(doc, "completed_at"); !t.IsZero() {
		q.CompletedAt = &t
	}
	return q
}

// Enqueue records a new unit of deferred post-upload work for a file.
func (r *QueueRepo) Enqueue(ctx context.Context, fileID string, phase model.ProcessingPhase) (model.ProcessingQueueItem, error) {
	q := model.ProcessingQueueItem{
		FileID:     fileID,
		Phase:      phase,
		EnqueuedAt: time.Now().UTC(),
	}
	doc, err := r.store.Create(ctx, processingQueueCollection, queueItemToDocument(q))
	if err != nil {
		return model.ProcessingQueueItem{}, err
	}
	return documentToQueueItem(doc), nil
}

// ListByFile returns every queue item enqueued for fileID.
func (r *QueueRepo) ListByFile(ctx context.Context, fileID string) ([]model.ProcessingQueueItem, error) {
	docs, err := r.store.Query(ctx, processingQueueCollection, docstore.Filters{"file_id": fileID}, 0, 0,
		[]docstore.SortField{{Field: "enqueued_at"}})
	if err != nil {
		return nil, err
	}
	out := make([]model.ProcessingQueueItem, 0, len(docs))
	for _, doc := range docs {
		out = append(out, documentToQueueItem(doc))
	}
	return out, nil
}

// DeleteByFile removes every queue item belonging to fileID, part of
// the cascade a File delete must perform.
func (r *QueueRepo) DeleteByFile(ctx context.Context, fileID string) error {
	items, err := r.ListByFile(ctx, fileID)
	if err != nil {
		return err
	}
	for _, item := range items {
		if _, err := r.store.Delete(ctx, processingQueueCollection, item.ID); err != nil {
			return apperr.Wrap(apperr.Internal, "cascade delete queue item", err)
		}
	}
	return nil
}

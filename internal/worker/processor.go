package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/snaptaplaque/plateapi/internal/queue"
	"github.com/snaptaplaque/plateapi/internal/s3storage"
)

// Processor is plugged into the asynq worker loop.
type Processor struct {
	store *s3storage.Storage
}

// NewProcessor constructs a worker processor.
func NewProcessor(store *s3storage.Storage) *Processor {
	return &Processor{store: store}
}

// Handler registers the archive job handler.
func (p *Processor) Handler() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(queue.ArchiveImageTask, p.handleArchive)
	return mux
}

func (p *Processor) handleArchive(ctx context.Context, task *asynq.Task) error {
	var payload queue.ArchivePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	objectKey := archiveObjectKey(payload)
	if err := p.store.Upload(ctx, objectKey, payload.Image, payload.ContentType); err != nil {
		log.Printf("archive failed for prediction %d: %v", payload.PredictionID, err)
		return err
	}
	log.Printf("prediction %d archived as %s (%d bytes)", payload.PredictionID, objectKey, len(payload.Image))
	return nil
}

func archiveObjectKey(payload queue.ArchivePayload) string {
	ext := filepath.Ext(payload.Filename)
	return fmt.Sprintf("users/%d/predictions/%d/%s%s", payload.UserID, payload.PredictionID, uuid.NewString(), ext)
}

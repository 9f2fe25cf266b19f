package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

const (
	// ArchiveImageTask is scheduled after a prediction is persisted so the
	// submitted image ends up in object storage without the request waiting.
	ArchiveImageTask = "prediction:archive"
)

// ArchivePayload carries everything the worker needs to store the image;
// Image travels base64-encoded inside the task payload.
type ArchivePayload struct {
	PredictionID int64  `json:"prediction_id"`
	UserID       int64  `json:"user_id"`
	Filename     string `json:"filename"`
	ContentType  string `json:"content_type"`
	Image        []byte `json:"image"`
}

// EnqueueArchive enqueues an image archive job.
func EnqueueArchive(ctx context.Context, client *asynq.Client, payload ArchivePayload) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	task := asynq.NewTask(ArchiveImageTask, data)
	if _, err := client.EnqueueContext(ctx, task, asynq.MaxRetry(5)); err != nil {
		return fmt.Errorf("enqueue archive task: %w", err)
	}
	return nil
}

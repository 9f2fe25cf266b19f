package queue

import (
	"context"

	"github.com/hibiken/asynq"
)

// Archiver abstracts task enqueueing so the API server can run without Redis
// (archive disabled, tests).
type Archiver interface {
	Archive(ctx context.Context, payload ArchivePayload) error
}

// AsynqArchiver enqueues archive jobs on Redis via asynq.
type AsynqArchiver struct {
	client *asynq.Client
}

// NewAsynqArchiver wraps an asynq client.
func NewAsynqArchiver(client *asynq.Client) *AsynqArchiver {
	return &AsynqArchiver{client: client}
}

// Archive implements Archiver.
func (a *AsynqArchiver) Archive(ctx context.Context, payload ArchivePayload) error {
	return EnqueueArchive(ctx, a.client, payload)
}

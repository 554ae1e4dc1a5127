package domain

import (
	"context"
	"time"
)

// ModerationEvent описывает результат модерации для уведомления автора заявки.
type ModerationEvent struct {
	ID           string           `json:"event_id"`
	SubmissionID int64            `json:"submission_id"`
	Handle       string           `json:"handle"`
	Action       ModerationAction `json:"action"`
	SubmitterID  int64            `json:"submitter_id"`
	OccurredAt   time.Time        `json:"occurred_at"`
}

// ModerationQueue описывает очередь событий модерации.
type ModerationQueue interface {
	Enqueue(ctx context.Context, event ModerationEvent) error
	Pop(ctx context.Context) (ModerationEvent, error)
}

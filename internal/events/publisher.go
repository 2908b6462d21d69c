package events

import (
	"context"
	"time"
)

// 事件类型
const (
	AnchorSetCreated   = "anchorset.created"
	AnchorSetDeleted   = "anchorset.deleted"
	AnchorUpserted     = "anchor.upserted"
	AnchorDeleted      = "anchor.deleted"
	SharedStateUpdated = "sharedstate.updated"
)

// Event 领域变更事件
type Event struct {
	Type       string    `json:"type"`
	SubjectID  string    `json:"subjectId"` // anchorSetId
	Payload    any       `json:"payload,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

// NewEvent OccurredAt 取当前 UTC 时间
func NewEvent(eventType, subjectID string, payload any) Event {
	return Event{
		Type:       eventType,
		SubjectID:  subjectID,
		Payload:    payload,
		OccurredAt: time.Now().UTC(),
	}
}

// Publisher 变更事件发布
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// NopPublisher EVENTS_DRIVER=none
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }

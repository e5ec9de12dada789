package realtime

import (
	"fmt"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/google/uuid"
)

const (
	Source     = "/initiativehub"
	typePrefix = "initiativehub"
)

const (
	ActionCreated   = "created"
	ActionUpdated   = "updated"
	ActionDeleted   = "deleted"
	ActionImported  = "imported"
	ActionRefreshed = "refreshed"
)

// Change is the data carried by every change event.
type Change struct {
	Entity string      `json:"entity"`
	Action string      `json:"action"`
	ID     uint        `json:"id,omitempty"`
	Record interface{} `json:"record,omitempty"`
}

// Type returns the CloudEvents type, e.g. initiativehub.initiative.updated.
func (c Change) Type() string {
	return fmt.Sprintf("%s.%s.%s", typePrefix, c.Entity, c.Action)
}

// NewEvent wraps a change in a CloudEvent.
func NewEvent(change Change, at time.Time) (cloudevents.Event, error) {
	event := cloudevents.NewEvent()
	event.SetID(uuid.NewString())
	event.SetSource(Source)
	event.SetType(change.Type())
	event.SetTime(at)
	if change.ID != 0 {
		event.SetSubject(fmt.Sprintf("%s/%d", change.Entity, change.ID))
	}
	if err := event.SetData(cloudevents.ApplicationJSON, change); err != nil {
		return event, fmt.Errorf("encode change data: %w", err)
	}
	return event, nil
}

// Package changefeed carries store change notifications to the in-memory
// projections. Delivery is at-most-once and unordered across collections;
// consumers rebuild their whole view on every event and rely on a periodic
// resync to heal anything that was missed.
package changefeed

import (
	"context"
	"time"
)

// Collections that emit change events.
const (
	CollectionMilitares = "militares"
	CollectionUsuarios  = "usuarios"
	CollectionPermutas  = "permutas"
)

// Op is the kind of write that produced an event.
type Op string

const (
	OpCreate Op = "create"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

// Event announces that documents of Collection changed.
type Event struct {
	Collection string    `json:"collection"`
	Op         Op        `json:"op"`
	IDs        []string  `json:"ids"`
	At         time.Time `json:"at"`
}

// NewEvent stamps an event with the current time.
func NewEvent(collection string, op Op, ids ...string) Event {
	return Event{Collection: collection, Op: op, IDs: ids, At: time.Now().UTC()}
}

// Publisher emits change events after a committed write.
type Publisher interface {
	Publish(ctx context.Context, evt Event) error
}

// Feed is a Publisher that can also be subscribed to. The returned channel
// is closed when ctx is done.
type Feed interface {
	Publisher
	Subscribe(ctx context.Context) (<-chan Event, error)
}

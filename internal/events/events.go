// Package events publishes product lifecycle events after a pipeline operation commits.
package events

import (
	"context"
	"time"

	"catalogapi/internal/model"
)

// Type names a lifecycle transition.
type Type string

const (
	ProductCreated Type = "product.created"
	ProductUpdated Type = "product.updated"
	ProductDeleted Type = "product.deleted"
)

// Event is the payload published for every committed create, update or delete.
type Event struct {
	ID         string         `json:"id"`
	Type       Type           `json:"type"`
	ProductID  string         `json:"productId"`
	UserID     string         `json:"userId,omitempty"`
	OccurredAt time.Time      `json:"occurredAt"`
	Product    *model.Product `json:"product,omitempty"`
}

// Publisher delivers events. Callers treat delivery as best-effort.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// Noop drops every event. It is used when no broker is configured.
type Noop struct{}

var _ Publisher = Noop{}

func (Noop) Publish(context.Context, Event) error { return nil }

func (Noop) Close() error { return nil }

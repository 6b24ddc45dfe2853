package ports

import (
	"context"

	"github.com/layer-3/authflow/core"
)

// EventPublisher publishes events to notify other instances
type EventPublisher interface {
	PublishAuthEvent(ctx context.Context, event core.AuthEvent) error
}

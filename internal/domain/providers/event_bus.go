package providers

import (
	"context"

	"github.com/peakgeo/sentinel-agent/internal/domain/entities"
)

// EventBus defines the interface for publishing and subscribing to download
// progress events
type EventBus interface {
	// Publish publishes an event to all subscribers
	Publish(ctx context.Context, channel string, event *entities.DownloadEvent) error

	// Subscribe subscribes to events on a channel
	Subscribe(ctx context.Context, channel string) (<-chan *entities.DownloadEvent, error)

	// Unsubscribe unsubscribes from a channel
	Unsubscribe(ctx context.Context, channel string) error

	// Close closes the event bus and all subscriptions
	Close() error
}

// EventChannel constants for different event streams
const (
	// EventChannelDownloads is the channel carrying every download event
	EventChannelDownloads = "downloads:updates"

	// EventChannelRequestPrefix is the prefix for request-specific channels
	EventChannelRequestPrefix = "request:"
)

// GetRequestChannel returns the channel name for a specific fetch request
func GetRequestChannel(requestID string) string {
	return EventChannelRequestPrefix + requestID
}

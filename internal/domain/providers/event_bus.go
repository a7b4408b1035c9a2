package providers

import (
	"context"

	"github.com/hmsultra/claimsengine/internal/domain/entities"
)

// Notifier delivers claim events to interested parties. Delivery is best effort.
type Notifier interface {
	Notify(ctx context.Context, event *entities.ClaimEvent) error
}

// EventBus defines the interface for publishing and subscribing to claim events
type EventBus interface {
	Notifier

	// Publish publishes an event on a channel
	Publish(ctx context.Context, channel string, event *entities.ClaimEvent) error

	// Subscribe subscribes to events on a channel until ctx is done
	Subscribe(ctx context.Context, channel string) (<-chan *entities.ClaimEvent, error)

	// Unsubscribe drops every subscriber of a channel
	Unsubscribe(ctx context.Context, channel string) error

	// Close closes the event bus and all subscriptions
	Close() error
}

const (
	// EventChannelClaims carries every claim event
	EventChannelClaims = "claims:events"

	// EventChannelClaimPrefix is the prefix for per-claim channels
	EventChannelClaimPrefix = "claims:claim:"

	// EventChannelHospitalPrefix is the prefix for per-hospital channels
	EventChannelHospitalPrefix = "claims:hospital:"
)

// GetClaimChannel returns the channel name for a specific claim
func GetClaimChannel(claimID string) string {
	return EventChannelClaimPrefix + claimID
}

// GetHospitalChannel returns the channel name for claims of a specific hospital
func GetHospitalChannel(hospitalID string) string {
	return EventChannelHospitalPrefix + hospitalID
}

// Package constants holds identifiers shared across layers.
package constants

// Pub/Sub provider names accepted in pubsub.provider.
const (
	PubSubProviderLocal  = "local"
	PubSubProviderGoogle = "google"
)

// AuthEventsSubscription is the subscription name stamped on locally pushed messages.
const AuthEventsSubscription = "projects/local/subscriptions/auth-events-sub"

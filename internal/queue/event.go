// Package queue defines message payloads exchanged over the message broker.
package queue

// CatalogQueueName is the durable queue carrying catalog change events.
const CatalogQueueName = "catalog.changed"

// Entity names used in CatalogChangedEvent.
const (
	EntityMovie      = "movie"
	EntityCollection = "collection"
	EntityMembership = "membership"
	EntityRole       = "role"
)

// CatalogChangedEvent is published after every successful mutation of the
// catalog or the role table. It is the explicit invalidation signal:
// cached read views subscribe to it instead of each mutation knowing
// which caches exist. Enough context is carried for consumers to log or
// audit without querying the primary database.
type CatalogChangedEvent struct {
	Entity     string `json:"entity"`              // movie | collection | membership | role
	Action     string `json:"action"`              // created | deleted
	EntityID   uint64 `json:"entity_id,omitempty"` // id of the affected row (membership events carry the collection id)
	ActorID    uint64 `json:"actor_id"`            // user who performed the mutation
	OccurredAt string `json:"occurred_at"`         // RFC3339 UTC
}

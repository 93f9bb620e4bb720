package ports

import "mezzanine/models"

// SessionEventBroadcaster pushes session changes to live subscribers.
// Broadcast must not block.
type SessionEventBroadcaster interface {
	Broadcast(event models.SessionEvent)
}

// Package realtime pushes triage session events to browsers over
// websockets.
//
// A [Hub] is the triage.Surface of the server: the controller publishes
// batches, record updates, progress and completion events to it, and every
// connected client receives them as JSON [Event] messages. Publishing never
// blocks the controller; slow clients are disconnected.
package realtime

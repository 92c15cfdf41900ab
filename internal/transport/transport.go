// Package transport abstracts the socket layer away from the table
// controller. The Controller depends only on this interface; the concrete
// implementation (internal/wsserver) is free to change without touching
// game logic.
package transport

import "cardtable/internal/protocol"

// Target addresses one connection attached to a table: either a seated
// player or a spectator identified by connection id.
type Target struct {
	Seat     int
	IsSeat   bool
	ConnID   string
}

// SeatTarget addresses a seated player.
func SeatTarget(seat int) Target { return Target{Seat: seat, IsSeat: true} }

// SpectatorTarget addresses a spectator by connection id.
func SpectatorTarget(connID string) Target { return Target{ConnID: connID} }

// Transport sends events to one or all connections attached to a table.
type Transport interface {
	// Send delivers an event to a single target. A missing/disconnected
	// target is not an error — the event is simply dropped.
	Send(target Target, eventType protocol.EventType, payload any) error
	// Broadcast delivers an event to every connection attached to the
	// table: seated players and spectators alike.
	Broadcast(eventType protocol.EventType, payload any) error
	// BroadcastExcept is Broadcast without echoing back to except.
	BroadcastExcept(except Target, eventType protocol.EventType, payload any) error
}

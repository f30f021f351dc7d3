// Package websocket pushes battle field updates to browser clients.
//
// A central Hub tracks clients per session. Each connection runs a read pump
// (keepalive and disconnect detection) and a write pump (queued messages and
// pings). Incoming client messages are ignored.
//
// Message Protocol:
//
// Outgoing messages are JSON:
//
//	{"session_id": "1a2b3c4d", "event": "field_update", "field": {...}, "events": [...], "mob": {...}}
//
// Clients subscribe with /ws?session=<id>. Updates go only to clients of the
// same session; a client whose send buffer is full is dropped.
//
// Usage:
//
//	hub := websocket.NewHub()
//	go hub.Run(ctx)
//
//	hub.BroadcastToSession(id, result.Field, result.Events, result.Mob)
package websocket

// Package ws streams desktop state to the shell over WebSocket.
//
// Every connection gets a welcome message and a full view snapshot, then a
// fresh snapshot after each burst of manager events. The shell sends
// lifecycle intents back over the same socket.
//
// Message Types (Client → Server):
//   - open: app_type, arguments, icon
//   - close: id, restore_internal
//   - focus, minimize, maximize: id
//   - geometry: id, position and/or size
//   - viewport: viewport
//   - snapshot: request the current snapshot
//   - ping: keep-alive
//
// Message Types (Server → Client):
//   - system: connection established
//   - snapshot: rendered process views, stack order, foreground
//   - ack: intent applied
//   - pong
//   - error
package ws

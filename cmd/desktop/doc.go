// Command desktop runs the AgentOS desktop core: the process registry,
// window stacking and geometry, and the persisted desktop session.
//
// Usage:
//
//	# Serve the HTTP and WebSocket API
//	desktop serve --port 8000 --apps ./apps --storage file
//
//	# Print the persisted session
//	desktop session inspect --storage file --root ./data
//
// Configuration comes from environment variables; flags override them.
// SIGINT and SIGTERM trigger a graceful shutdown that writes the final
// session snapshot.
package main

// Package session persists the desktop's durable state.
//
// The Store owns a single SessionSnapshot (window geometry, theme,
// wallpaper, stack order and the processes to reopen) and is the only
// component that talks to the storage backend.
//
// Lifecycle:
//   - unloaded: created, nothing read yet
//   - loading: Load was called, the backend read is in flight
//   - loaded: snapshot hydrated (or defaults on any failure), Ready closed
//
// Mutations made while loading apply to the in-memory snapshot at once and
// are replayed over the hydrated snapshot when the read completes, so no
// change is lost to the race.
//
// Persistence:
//   - One writer goroutine owns all backend writes
//   - Dirty signals coalesce inside the debounce window
//   - Each write encodes the state current at write time (last write wins)
//   - Failed writes are logged; the next successful write carries state forward
//
// Snapshots are JSON (sonic), optionally zstd framed. Decode detects the
// framing from the payload.
//
// Example Usage:
//
//	store := session.NewStore(backend, session.DefaultOptions(), logger)
//	store.Load(ctx)
//	<-store.Ready()
//	store.SetTheme("Dark")
//	defer store.Close(ctx)
package session

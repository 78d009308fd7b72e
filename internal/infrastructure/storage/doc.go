// Package storage provides the blob backends the session snapshot is
// persisted to.
//
// Backends:
//   - Memory: In-process map, for tests and throwaway sessions
//   - File: One file per key below a root directory, atomic replace
//   - HTTP: Remote virtual file system (HEAD/GET/PUT /blobs/{key})
//   - Guarded: Circuit breaker wrapper for any backend
//
// Example Usage:
//
//	backend, err := storage.Open(storage.Config{Backend: "file", Root: "/var/lib/agentos"})
//	err = backend.Write(ctx, "/session.json", data, true)
package storage

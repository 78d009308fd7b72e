// Package manager orchestrates the desktop's process lifecycle.
//
// The Manager is the single writer of the live process table. Each
// operation applies a pure transform from package process, updates the
// stack order in the same critical section, and writes the durable
// subset through to the session store without waiting on persistence.
//
// Operations:
//   - Open, Close, Minimize, Maximize, Focus
//   - SetArgument, LinkElement, SetGeometry
//
// Startup:
//  1. Start begins loading the session
//  2. Persisted processes are replayed (types missing from the directory are dropped)
//  3. Stack order is restored and the foreground picked
//  4. Opens issued while loading are drained in order
//
// Reads (Processes, Views, StackOrder) return copies. Views derive
// z-index and display geometry on every call.
//
// Example Usage:
//
//	mgr := manager.New(dir, store, viewport, logger)
//	mgr.Start(ctx)
//	events, cancel := mgr.Subscribe()
//	defer cancel()
//	result := mgr.Open("Browser", types.Arguments{"url": "https://example.com"}, "")
package manager

// Package types provides shared data structures for the desktop core.
//
// Core Types:
//   - Process: Open application instance in the live process table
//   - Application: Static directory entry (title, icon, default size, singleton)
//   - WindowState: Remembered position and size of a window
//   - SessionSnapshot: Durable projection persisted between page loads
//   - ProcessView: Read model consumed by the window-hosting layer
//
// Example Usage:
//
//	proc := types.Process{
//	    ID:        "Ledger__1",
//	    Type:      "Ledger",
//	    Arguments: types.Arguments{"url": "/Users/Public/notes.md"},
//	}
package types

// Package process computes process table transitions.
//
// Every function takes the current Table and an intent and returns the next
// Table; nothing here performs I/O or mutates its input, so the table held
// by the orchestrator can be handed to readers as an immutable snapshot.
//
// Identity:
//   - The first instance of a type uses the type name as its id ("Ledger")
//   - Further instances use the lowest free suffix ("Ledger__1", "Ledger__2")
//   - Singleton types never get a second instance
//
// Unknown ids are never an error: the table is returned unchanged.
package process

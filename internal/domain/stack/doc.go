// Package stack tracks focus recency and derives paint order from it.
//
// Z-index is never stored: callers recompute it from the current Order on
// every read, so it cannot drift from the displayed stacking.
package stack

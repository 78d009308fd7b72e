// Package cli holds the desktop command tree.
package cli

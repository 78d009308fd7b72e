// Package geometry resolves window position and size.
//
// Stored geometry lives in the session snapshot; this package layers the
// defaults on top (declared size, cascaded position) and computes the
// maximized rectangle from the viewport instead of storing it.
package geometry

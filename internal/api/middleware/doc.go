// Package middleware provides gin middleware for the desktop API: CORS
// (gin-contrib/cors, websockets allowed) and per-IP token-bucket rate
// limiting (x/time/rate) with idle client eviction.
package middleware

// Package http provides the REST surface of the desktop core.
//
// Handlers are built on gin and talk to the process manager, the session
// store, the application directory and the automation pool. User-supplied
// strings pass through the shared bluemonday sanitizer before they reach
// any of those.
//
// Endpoints:
//   - Health: / and /health
//   - Session: /session, /session/theme, /session/wallpaper
//   - Applications: /applications
//   - Processes: /processes, /processes/open-file, /processes/:id,
//     /processes/:id/{focus,minimize,maximize,arguments,geometry}
//   - Automation: /automation/sessions/:id, /automation/sessions/:id/evaluate
//
// While the session is still loading, GET /session reports "loading" and
// POST /processes answers 202 with a queued status.
//
// Example Usage:
//
//	handlers := http.NewHandlers(mgr, store, dir, pool, logger)
//	handlers.Register(router)
package http

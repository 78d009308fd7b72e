// Package config provides 12-factor configuration for the desktop server.
//
// Configuration is loaded from environment variables with sensible defaults.
// CLI flags override individual values after loading.
//
// Configuration Sections:
//   - Server: HTTP listen address (PORT, HOST) and CORS_ORIGINS
//   - Logging: LOG_LEVEL, LOG_DEV
//   - RateLimit: RATE_LIMIT_RPS, RATE_LIMIT_BURST, RATE_LIMIT_ENABLED
//   - Session: SESSION_KEY, SESSION_DEBOUNCE, SESSION_COMPRESS and the
//     DEFAULT_THEME / DEFAULT_WALLPAPER / DEFAULT_WALLPAPER_FIT fallbacks
//   - Storage: STORAGE_BACKEND (memory, file, http), STORAGE_ROOT,
//     STORAGE_URL, STORAGE_TIMEOUT
//   - Directory: APPS_DIR, APPS_WATCH
//   - Viewport: VIEWPORT_WIDTH, VIEWPORT_HEIGHT, TASKBAR_HEIGHT
//   - Automation: AUTOMATION_IDLE_TIMEOUT, AUTOMATION_SWEEP_INTERVAL,
//     AUTOMATION_SCRIPT_TIMEOUT
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	fmt.Printf("Server running on %s:%s\n", cfg.Server.Host, cfg.Server.Port)
package config

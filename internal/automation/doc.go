/*
Package automation manages isolated browser-automation sessions.

Each caller-chosen session id maps to one Page. Pages are launched on first
use, reused afterwards, and closed after a period of inactivity. The desktop
core neither depends on nor manages this pool; it sits behind the HTTP API
as an independent collaborator.

# Features

  - CreateOrReuse: launch or reuse the page for a session id
  - Goals: free-form context recorded per session
  - Idle eviction: Run sweeps every SweepInterval, closing sessions idle
    longer than IdleTimeout (30 minutes by default)
  - Shutdown: closes every page and rejects new sessions

# Script pages

ScriptLauncher provides pages backed by a goja runtime:

  - require, process, module and exports are removed
  - console output is captured per evaluation
  - timers are no-ops
  - evaluations are interrupted after ScriptTimeout or on cancellation
  - Navigate fetches the document with resty, parses it with goquery and
    exposes its title and visible text as document.title and document.text

# Usage

	pool := automation.NewPool(automation.NewScriptLauncher(resty.New()), automation.DefaultConfig(), logger)
	go pool.Run(ctx)
	defer pool.Shutdown(ctx)

	session, err := pool.CreateOrReuse(ctx, "agent-1")
	result, err := session.Evaluate(ctx, "document.title")
*/
package automation

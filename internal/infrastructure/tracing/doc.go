/*
Package tracing provides lightweight request tracing.

# Overview

Every HTTP request gets a span. A trace id sent by the caller in
X-Trace-ID is continued; otherwise a new ULID-based id is minted. Both ids
are echoed in the response headers and carried on the request context, so
outbound calls (the remote storage backend) can forward them with
InjectTraceContext.

Finished spans go through a buffered channel to a collector goroutine that
logs them with zap. Spans are dropped, not blocked on, when the buffer is
full.

# Usage

	tracer := tracing.New("desktop", logger)
	defer tracer.Close()
	router.Use(tracing.HTTPMiddleware(tracer))
*/
package tracing

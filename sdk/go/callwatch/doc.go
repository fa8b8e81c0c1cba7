// Package callwatch lets a Go process running inside the sandbox
// report its own libc-level activity to the collector, speaking the
// same newline-delimited wire protocol the preloaded shim emits.
// Calls made through a Tracer always execute and return their real
// results; telemetry is a side channel that may drop events but never
// blocks and never changes behavior.
//
// Usage:
//
//	cw := callwatch.New()
//	defer cw.Close()
//
//	fd, err := cw.Open("/etc/passwd", unix.O_WRONLY, 0)
//
// With no options the Tracer reads SANDBOX_SOCKET from the
// environment, exactly like the preloaded shim; an unset or dead
// collector leaves the process running silently.
//
// The SDK links directly against internal packages for zero-subprocess
// overhead. External users import github.com/callwatch/callwatch/sdk/go/callwatch.
package callwatch

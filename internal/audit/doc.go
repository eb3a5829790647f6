// Package audit relays console session events to a caller-supplied sink
// without blocking the operation that produced them.
//
// # Components
//
//   - [Event]: one record, for example login_success or auto_logout.
//   - [Sink]: event consumer (no-op, channel, JSON lines, logrus).
//   - [Dispatcher]: buffered async relay that either drops or waits when full.
//
// # What this package must NOT do
//
//   - Decide which events to emit; the Engine and flows do that.
//   - Record token values or passwords in events.
//   - Import goConsole or any sibling internal package.
package audit

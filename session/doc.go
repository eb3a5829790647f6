// Package session owns the persisted access token and the in-memory
// [Session] derived from it.
//
// # Token slot
//
// [Store] keeps exactly one token under a configurable storage key. Reads go
// through an atomic slot so a concurrent reader never observes a partially
// written token. Writes reach the durable [Backend] first and are published to
// the slot only once the backend accepted them.
//
// # Backends
//
//   - [MemoryBackend]: process-local map, for library use and tests.
//   - [RedisBackend]: shared key in Redis, for consoles running on several hosts.
//   - [FileBackend]: YAML file on disk, so a CLI session survives between runs.
//
// # What this package must NOT do
//
//   - Import goConsole or pipeline (no upward imports).
//   - Decide whether a token is still valid; expiry policy belongs to the Engine.
//   - Log or format token values.
package session

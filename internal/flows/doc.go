// Package flows contains pure-function orchestrators for the session
// lifecycle: login, restore and logout, plus the expiry predicates they
// share.
//
// Each Run function accepts a typed dependency struct and has no side
// effects beyond those dependencies, so every branch can be driven from a
// unit test with plain function values.
//
// # Architecture boundaries
//
// Flows sequence calls to the token store, claims decoder, API transport,
// audit and metrics. They do NOT own any of these resources, and they do
// NOT track session state; the Engine applies state transitions around them.
//
// # What this package must NOT do
//
//   - Hold mutable state between calls.
//   - Import goConsole (to avoid import cycles).
//   - Perform I/O directly; all I/O goes through dependency functions.
package flows

// Package validation checks candidate records against declared schemas before
// they are sent to the admin API.
//
// Every entity (credentials, product inside item, product record, product
// update, text content) is described by a [Schema]: an ordered list of
// [Field] declarations with a kind, a required/type message, and range rules
// written as go-playground/validator tags. A single generic evaluator walks
// any schema and accumulates every violation instead of stopping at the first
// one.
//
// # Ordering
//
// Messages come out in four phases: required/type checks, range rules,
// per-item errors of nested sequences (in item order), and finally the
// cross-item uniqueness check, which contributes at most one message.
//
// # What this package must NOT do
//
//   - Perform I/O or touch session state.
//   - Panic on malformed input; every call returns a [Result].
package validation

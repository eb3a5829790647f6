// Package catalog defines the record shapes exchanged with the admin API:
// operator credentials, product rows with their inside items, and the
// free-form text block.
//
// # Architecture boundaries
//
// Types here are plain data. They carry JSON tags matching the wire format
// and nothing else. Structural checks live in the validation package, and
// transport lives in pipeline.
//
// # What this package must NOT do
//
//   - Import any other goConsole package.
//   - Validate, sanitize, or transform values.
package catalog

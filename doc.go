// Package goConsole is the client-side trust layer of the catalog admin
// console: it owns the operator session against the remote admin API and
// validates records before they are sent.
//
// An [Engine] is built once through [Builder.Build] and is safe for
// concurrent use. It exposes the session lifecycle (Login, Restore, Logout,
// expiry and refresh checks) and typed calls for every admin endpoint.
//
// # Architecture boundaries
//
// goConsole is the public surface. It exposes [Engine], [Builder], [Config],
// sentinel errors and value types. Flow orchestration, audit dispatch and
// logging setup live under internal/. Token persistence lives in session,
// claim decoding in jwt, transport in pipeline and record checks in
// validation.
//
// # What this package must NOT do
//
//   - Verify token signatures. The console holds no key; the server is the
//     authority and a forged token only fails on the next call.
//   - Keep session state anywhere but the Engine and its token store.
//   - Import any sub-package that re-imports goConsole (no import cycles).
package goConsole

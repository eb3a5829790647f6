// Package jwt decodes the claims of access tokens issued by the admin API.
//
// The console holds no verification key, so tokens are parsed without a
// signature check. Decoded claims only drive client-side expiry and refresh
// decisions; the server remains the authority on whether a token is accepted.
package jwt

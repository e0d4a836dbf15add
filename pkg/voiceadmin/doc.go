// Package voiceadmin is a thin client for the GoTo Connect Voice Admin API
// (https://api.goto.com/voice-admin/v1).
//
// The client is stateless with respect to credentials: each call takes the
// bearer access token to send, which callers obtain from their token manager
// immediately before the call. HTTP 401 responses are reported as
// ErrUnauthorized and 404 responses as ErrNotFound; every other non-2xx
// status is an *APIError.
package voiceadmin

// Package oauthx is a small OAuth 2.0 authorization code client for the GoTo
// authentication service.
//
// It covers the three calls a web application makes against the vendor:
//
//   - AuthorizationURL builds the URL the browser is redirected to.
//   - ExchangeCode trades the code from the callback for a TokenRecord.
//   - Refresh trades a refresh token for a new TokenRecord.
//
// A TokenRecord is immutable. Its expiry is always computed from the time the
// request was made (taken from the injected clockwork.Clock) plus the
// expires_in returned by the vendor.
//
// # Errors
//
// Every failure is an *AuthError whose Kind tells the caller what to do:
//
//	rec, err := client.Refresh(ctx, current)
//	switch {
//	case errors.Is(err, oauthx.ErrInvalidGrant):
//	    // drop the stored credentials, ask the user to log in again
//	case errors.Is(err, oauthx.ErrNetworkFailure):
//	    // keep the credentials, try again later
//	case errors.Is(err, oauthx.ErrMalformedResponse):
//	    // keep the credentials, alert an operator
//	}
//
// HTTP 400, 401 and 403 from the token endpoint are InvalidGrant. Transport
// errors, timeouts, 408, 429 and 5xx are NetworkFailure. Anything else that
// is not a well formed token response is MalformedResponse.
package oauthx

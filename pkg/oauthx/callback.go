package oauthx

import (
	"errors"
	"net/url"
)

// ErrMissingCode is returned when the authorization redirect carries neither
// a code nor an error.
var ErrMissingCode = errors.New("oauthx: callback missing authorization code")

// ParseCallback extracts the authorization code and state from the query of
// the redirect back to the application. An error parameter sent by the
// authorization server is returned as an *OAuth2Error.
func ParseCallback(query url.Values) (code, state string, err error) {
	if errorCode := query.Get("error"); errorCode != "" {
		return "", "", &OAuth2Error{
			Code:        errorCode,
			Description: query.Get("error_description"),
		}
	}

	code = query.Get("code")
	if code == "" {
		return "", "", ErrMissingCode
	}

	return code, query.Get("state"), nil
}

package provider

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jrsteele09/go-session-manager/oauthmodel"
	"golang.org/x/oauth2"
)

// Error is a non-success response from the identity provider. Body holds the whole
// response body.
type Error struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *Error) Error() string {
	return fmt.Sprintf("identity provider returned %d: %s", e.StatusCode, e.Body)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Detail decodes the RFC 6749 error body, if there is one.
func (e *Error) Detail() (oauthmodel.ErrorResponse, bool) {
	var detail oauthmodel.ErrorResponse
	if err := json.Unmarshal([]byte(e.Body), &detail); err != nil || detail.Error == "" {
		return oauthmodel.ErrorResponse{}, false
	}
	return detail, true
}

// fromRetrieveError converts token endpoint failures into *Error; other errors
// (network, decoding) pass through unchanged.
func fromRetrieveError(err error) error {
	var re *oauth2.RetrieveError
	if !errors.As(err, &re) || re.Response == nil {
		return err
	}
	return &Error{
		StatusCode: re.Response.StatusCode,
		Body:       string(re.Body),
		Err:        err,
	}
}

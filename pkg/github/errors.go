package github

import (
	"errors"
	"net/http"

	"github.com/google/go-github/v68/github"
)

// IsNotFoundError returns true if the error is a not found error
func IsNotFoundError(err error) bool {
	var errResp *github.ErrorResponse
	if errors.As(err, &errResp) {
		return errResp.Response != nil && errResp.Response.StatusCode == http.StatusNotFound
	}
	return false
}

// IsRateLimitError returns true if the error is a rate limit error
func IsRateLimitError(err error) bool {
	var rateErr *github.RateLimitError
	if errors.As(err, &rateErr) {
		return true
	}
	var abuseErr *github.AbuseRateLimitError
	return errors.As(err, &abuseErr)
}

// IsAuthenticationError returns true if the error is an authentication error
func IsAuthenticationError(err error) bool {
	if IsRateLimitError(err) {
		return false
	}
	var errResp *github.ErrorResponse
	if errors.As(err, &errResp) {
		return errResp.Response != nil &&
			(errResp.Response.StatusCode == http.StatusUnauthorized ||
				errResp.Response.StatusCode == http.StatusForbidden)
	}
	return false
}

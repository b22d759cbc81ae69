package graph

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// Sentinel errors categorizing remote failures. Callers match with errors.Is.
var (
	ErrNotFound       = errors.New("resource not found")
	ErrForbidden      = errors.New("access forbidden")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrTokenExpired   = errors.New("access token expired or invalid")
	ErrRateLimited    = errors.New("rate limited, retry later")
	ErrInvalidRequest = errors.New("invalid request")
	ErrTransport      = errors.New("transport error")
	ErrDecodingFailed = errors.New("decoding response failed")
)

// graphError is the error envelope the Graph API returns on failures.
type graphError struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// mapError converts a non-2xx response into a categorized error.
// A 401 with a token-related error code is distinguished from a generic 401
// so callers can trigger a refresh instead of reporting a hard failure.
func mapError(res *http.Response) error {
	body, _ := io.ReadAll(res.Body)

	var ge graphError
	code := ""
	message := res.Status
	if err := json.Unmarshal(body, &ge); err == nil && ge.Error.Code != "" {
		code = ge.Error.Code
		message = ge.Error.Message
	}

	switch code {
	case "InvalidAuthenticationToken", "unauthenticated", "expiredToken":
		return fmt.Errorf("%w: %s", ErrTokenExpired, message)
	case "accessDenied":
		return fmt.Errorf("%w: %s", ErrForbidden, message)
	case "itemNotFound":
		return fmt.Errorf("%w: %s", ErrNotFound, message)
	case "activityLimitReached", "tooManyRequests":
		return fmt.Errorf("%w: %s", ErrRateLimited, message)
	case "invalidRequest", "notAllowed", "notSupported", "generalException":
		return fmt.Errorf("%w: %s", ErrInvalidRequest, message)
	}

	switch res.StatusCode {
	case http.StatusUnauthorized:
		return fmt.Errorf("%w: %s", ErrUnauthorized, message)
	case http.StatusForbidden:
		return fmt.Errorf("%w: %s", ErrForbidden, message)
	case http.StatusNotFound, http.StatusGone:
		return fmt.Errorf("%w: %s", ErrNotFound, message)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", ErrRateLimited, message)
	case http.StatusBadRequest, http.StatusMethodNotAllowed,
		http.StatusUnprocessableEntity:
		return fmt.Errorf("%w: %s", ErrInvalidRequest, message)
	default:
		return fmt.Errorf("%w: HTTP %s: %s", ErrTransport, res.Status, message)
	}
}

package api

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// Error is a failed API call. Detail carries the server's
// human-readable explanation, which is what Error() returns so that
// callers can surface it directly.
type Error struct {
	StatusCode int
	Detail     string
}

func (e *Error) Error() string {
	return e.Detail
}

// decodeError builds an *Error from a non-2xx response. The service
// reports failures as {"detail": "..."}; anything else falls back to
// the HTTP status line.
func decodeError(resp *http.Response, body []byte) error {
	apiErr := &Error{StatusCode: resp.StatusCode}

	var payload struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Detail != "" {
		apiErr.Detail = payload.Detail
		return apiErr
	}

	apiErr.Detail = fmt.Sprintf("server error: %s", resp.Status)
	return apiErr
}

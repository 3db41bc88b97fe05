package transport

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// APIError is a non-2xx response. Detail is the server's message, used verbatim,
// and is empty when the server sent none.
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	if e.Detail == "" {
		return http.StatusText(e.StatusCode)
	}
	return e.Detail
}

// NetworkError means the request could not be sent or its response could not be read
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// IsNetworkError reports whether err is a NetworkError
func IsNetworkError(err error) bool {
	var netErr *NetworkError
	return errors.As(err, &netErr)
}

// Detail returns the human-readable message for err as shown in the activity feed
func Detail(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Detail
	}
	var netErr *NetworkError
	if errors.As(err, &netErr) {
		return netErr.Err.Error()
	}
	if err == nil {
		return ""
	}
	return err.Error()
}

// DetailOr is Detail with a fallback for errors that carry no message
func DetailOr(err error, fallback string) string {
	if detail := strings.TrimSpace(Detail(err)); detail != "" {
		return detail
	}
	return fallback
}

// decodeAPIError builds an APIError from a non-2xx response body
func decodeAPIError(statusCode int, body []byte) *APIError {
	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}

	detail := ""
	if err := json.Unmarshal(body, &payload); err == nil && len(payload.Detail) > 0 {
		var text string
		if err := json.Unmarshal(payload.Detail, &text); err == nil {
			detail = text
		} else {
			// Validation failures carry a structured detail; show it as-is
			detail = string(payload.Detail)
		}
	}

	return &APIError{StatusCode: statusCode, Detail: detail}
}

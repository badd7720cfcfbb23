package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

var (
	// ErrTransport means the request never reached the server or the
	// response never arrived intact
	ErrTransport = errors.New("network error")
	// ErrUnauthorized means the session is no longer valid
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNotFound means the resource does not exist
	ErrNotFound = errors.New("not found")
)

// Error is a non-2xx response from the API
type Error struct {
	Status    int
	Message   string
	RequestID string
}

func newError(resp *http.Response, requestID string) *Error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	msg := strings.TrimSpace(string(body))

	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &payload) == nil {
		switch {
		case payload.Error != "":
			msg = payload.Error
		case payload.Message != "":
			msg = payload.Message
		}
	}
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}

	return &Error{Status: resp.StatusCode, Message: msg, RequestID: requestID}
}

func (e *Error) Error() string {
	return fmt.Sprintf("server error %d: %s", e.Status, e.Message)
}

// Unwrap maps 401 and 404 onto the sentinel errors
func (e *Error) Unwrap() error {
	switch e.Status {
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusNotFound:
		return ErrNotFound
	}
	return nil
}

// StatusCode returns the HTTP status of an API error, or 0
func StatusCode(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// UserMessage renders err as a short message for the user
func UserMessage(err error) string {
	var apiErr *Error
	switch {
	case err == nil:
		return ""
	case errors.As(err, &apiErr):
		return apiErr.Message
	case errors.Is(err, ErrTransport):
		return "Network error, please try again"
	default:
		return err.Error()
	}
}

package httputil

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// APIError is a backend error response with its HTTP status preserved.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("backend returned %d: %s", e.StatusCode, e.Message)
}

// IsAuthError reports whether the error is an authentication or
// authorization failure. Callers treat these as "no permissions" rather
// than surfacing a failure.
func (e *APIError) IsAuthError() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

// IsAuthError reports whether err wraps an auth/authz APIError.
func IsAuthError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.IsAuthError()
}

// errorBody is the backend's error envelope.
type errorBody struct {
	Error string `json:"error"`
}

// CheckResponse converts a non-2xx response into an APIError. The backend's
// error message is carried verbatim so it can be surfaced to the user.
func CheckResponse(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	message := http.StatusText(resp.StatusCode)
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err == nil && len(body) > 0 {
		var eb errorBody
		if jsonErr := json.Unmarshal(body, &eb); jsonErr == nil && eb.Error != "" {
			message = eb.Error
		}
	}

	return &APIError{StatusCode: resp.StatusCode, Message: message}
}

// DecodeJSON checks the response status and decodes the body into dest.
// The response body is closed in all cases.
func DecodeJSON(resp *http.Response, dest interface{}) error {
	defer resp.Body.Close()

	if err := CheckResponse(resp); err != nil {
		return err
	}

	if dest == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

package journalapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/aristath/tradejournal/internal/domain"
)

// APIError is a non-success response from the journal API
type APIError struct {
	StatusCode int
	Method     string
	Path       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("journal API %s %s: status %d", e.Method, e.Path, e.StatusCode)
	}
	return fmt.Sprintf("journal API %s %s: status %d: %s", e.Method, e.Path, e.StatusCode, e.Message)
}

// NotFound reports a 404
func (e *APIError) NotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// Is makes a 404 match domain.ErrNotFound
func (e *APIError) Is(target error) bool {
	return target == domain.ErrNotFound && e.NotFound()
}

// StatusCode returns the HTTP status carried by err, or 0 when err did not
// come from a server response
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

func newAPIError(req *http.Request, status int, body []byte) *APIError {
	return &APIError{
		StatusCode: status,
		Method:     req.Method,
		Path:       req.URL.Path,
		Message:    errorMessage(body),
	}
}

// errorMessage extracts the server's message from {"detail": ...},
// {"error": ...} or {"message": ...}; anything else is returned as text
func errorMessage(body []byte) string {
	text := strings.TrimSpace(string(body))
	if text == "" {
		return ""
	}

	var parsed struct {
		Detail  json.RawMessage `json:"detail"`
		Error   string          `json:"error"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return text
	}

	if len(parsed.Detail) > 0 {
		var s string
		if json.Unmarshal(parsed.Detail, &s) == nil {
			return s
		}
		// validation errors: [{"loc": [...], "msg": "..."}]
		var items []struct {
			Loc []interface{} `json:"loc"`
			Msg string        `json:"msg"`
		}
		if json.Unmarshal(parsed.Detail, &items) == nil && len(items) > 0 {
			msgs := make([]string, 0, len(items))
			for _, it := range items {
				if len(it.Loc) > 0 {
					msgs = append(msgs, fmt.Sprintf("%v: %s", it.Loc[len(it.Loc)-1], it.Msg))
				} else {
					msgs = append(msgs, it.Msg)
				}
			}
			return strings.Join(msgs, "; ")
		}
		return string(parsed.Detail)
	}
	if parsed.Error != "" {
		return parsed.Error
	}
	if parsed.Message != "" {
		return parsed.Message
	}
	return text
}

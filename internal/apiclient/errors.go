package apiclient

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"

	"taskdeck/internal/errs"
)

// APIError is a non-2xx response from the backend.
type APIError struct {
	Status int
	Detail string
	Fields map[string][]string
}

// Error implements error.
func (e *APIError) Error() string {
	var parts []string
	if e.Detail != "" {
		parts = append(parts, e.Detail)
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		parts = append(parts, k+": "+strings.Join(e.Fields[k], " "))
	}
	if len(parts) == 0 {
		parts = append(parts, strings.ToLower(http.StatusText(e.Status)))
	}
	return fmt.Sprintf("status %d: %s", e.Status, strings.Join(parts, "; "))
}

// Is maps status codes onto the shared sentinels.
func (e *APIError) Is(target error) bool {
	switch target {
	case errs.ErrUnauthorized:
		return e.Status == http.StatusUnauthorized
	case errs.ErrNotFound:
		return e.Status == http.StatusNotFound
	case errs.ErrInvalidInput:
		return e.Status == http.StatusBadRequest
	case errs.ErrAlreadyExists:
		if e.Status != http.StatusBadRequest {
			return false
		}
		for _, msgs := range e.Fields {
			for _, m := range msgs {
				if strings.Contains(strings.ToLower(m), "already exists") {
					return true
				}
			}
		}
	}
	return false
}

// decodeError reads a DRF-style error body: {"detail": "..."} or
// {"field": ["msg", ...]}.
func decodeError(resp *http.Response) error {
	e := &APIError{Status: resp.StatusCode}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil || len(data) == 0 {
		return e
	}

	var body map[string]json.RawMessage
	if err := json.Unmarshal(data, &body); err != nil {
		return e
	}
	for key, raw := range body {
		if key == "detail" {
			var s string
			if json.Unmarshal(raw, &s) == nil {
				e.Detail = s
			}
			continue
		}
		var list []string
		if json.Unmarshal(raw, &list) == nil {
			addField(e, key, list...)
			continue
		}
		var s string
		if json.Unmarshal(raw, &s) == nil {
			addField(e, key, s)
		}
	}
	return e
}

func addField(e *APIError, key string, msgs ...string) {
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}
	e.Fields[key] = append(e.Fields[key], msgs...)
}

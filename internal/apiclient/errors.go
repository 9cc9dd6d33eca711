package apiclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// Error codes, shared with the backend's error vocabulary.
const (
	CodeInvalidInput  = "INVALID_INPUT"
	CodeUnauthorized  = "UNAUTHORIZED"
	CodeForbidden     = "FORBIDDEN"
	CodeNotFound      = "NOT_FOUND"
	CodeConflict      = "CONFLICT"
	CodeRateLimit     = "RATE_LIMIT_EXCEEDED"
	CodeInternalError = "INTERNAL_ERROR"
	CodeNetworkError  = "NETWORK_ERROR"
	CodeDecodeError   = "DECODE_ERROR"
	CodeUnknownError  = "UNKNOWN_ERROR"
)

type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindServer
	KindHTTP
	KindNetwork
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindServer:
		return "server"
	case KindHTTP:
		return "http"
	case KindNetwork:
		return "network"
	default:
		return "unknown"
	}
}

var (
	ErrValidation   = errors.New("invalid request data")
	ErrUnauthorized = errors.New("authentication required")
	ErrForbidden    = errors.New("permission denied")
	ErrNotFound     = errors.New("resource not found")
	ErrServer       = errors.New("server error")
	ErrNetwork      = errors.New("network error")
	ErrDecode       = errors.New("unexpected response shape")
)

// Error is a failed round trip. Status is zero when no response arrived.
type Error struct {
	Kind   Kind
	Status int
	Code   string
	Detail string
	// Fields holds per-field validation messages from a 400 body.
	Fields map[string][]string
	Err    error
}

func (e *Error) Error() string {
	if e.Kind == KindNetwork {
		if e.Err != nil {
			return "network error: " + e.Err.Error()
		}
		return "network error"
	}
	if e.Detail != "" {
		return fmt.Sprintf("http %d: %s", e.Status, e.Detail)
	}
	return fmt.Sprintf("http %d", e.Status)
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	switch target {
	case ErrValidation:
		return e.Kind == KindValidation
	case ErrUnauthorized:
		return e.Kind == KindUnauthorized
	case ErrForbidden:
		return e.Kind == KindForbidden
	case ErrNotFound:
		return e.Kind == KindNotFound
	case ErrServer:
		return e.Kind == KindServer
	case ErrNetwork:
		return e.Kind == KindNetwork
	}
	return false
}

// DecodeError reports a 2xx body that does not match the expected schema.
type DecodeError struct {
	Status int
	Target string
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s (http %d): %v", e.Target, e.Status, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

func (e *DecodeError) Is(target error) bool { return target == ErrDecode }

func kindForStatus(status int) (Kind, string) {
	switch {
	case status == http.StatusBadRequest:
		return KindValidation, CodeInvalidInput
	case status == http.StatusUnauthorized:
		return KindUnauthorized, CodeUnauthorized
	case status == http.StatusForbidden:
		return KindForbidden, CodeForbidden
	case status == http.StatusNotFound:
		return KindNotFound, CodeNotFound
	case status == http.StatusConflict:
		return KindHTTP, CodeConflict
	case status == http.StatusTooManyRequests:
		return KindHTTP, CodeRateLimit
	case status >= 500:
		return KindServer, CodeInternalError
	default:
		return KindHTTP, CodeUnknownError
	}
}

// newHTTPError builds an Error from a non-2xx response body. The backend
// answers with {"detail": ...}, {"error": ..., "code": ...} or a map of
// field errors; anything else leaves Detail empty.
func newHTTPError(status int, body []byte) *Error {
	kind, code := kindForStatus(status)
	e := &Error{Kind: kind, Status: status, Code: code}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return e
	}

	for _, key := range []string{"detail", "error", "message"} {
		if v, ok := raw[key]; ok {
			e.Detail = firstString(v)
			delete(raw, key)
			if e.Detail != "" {
				break
			}
		}
	}
	if v, ok := raw["code"]; ok {
		if s := firstString(v); s != "" {
			e.Code = s
		}
		delete(raw, "code")
	}

	for field, v := range raw {
		if msgs := stringsOf(v); len(msgs) > 0 {
			if e.Fields == nil {
				e.Fields = make(map[string][]string)
			}
			e.Fields[field] = msgs
		}
	}
	if e.Detail == "" && len(e.Fields) > 0 {
		e.Detail = e.fieldSummary()
	}
	return e
}

func (e *Error) fieldSummary() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		msg := strings.Join(e.Fields[name], " ")
		if name == "non_field_errors" {
			parts = append(parts, msg)
			continue
		}
		parts = append(parts, name+": "+msg)
	}
	return strings.Join(parts, "; ")
}

func firstString(raw json.RawMessage) string {
	if s := stringsOf(raw); len(s) > 0 {
		return s[0]
	}
	return ""
}

func stringsOf(raw json.RawMessage) []string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if s == "" {
			return nil
		}
		return []string{s}
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return list
	}
	return nil
}

// Message normalizes any error into the single human-readable line shown to
// the user.
func Message(err error) string {
	if err == nil {
		return ""
	}

	var apiErr *Error
	if errors.As(err, &apiErr) {
		switch apiErr.Kind {
		case KindNetwork:
			return "Network error. Please check your connection"
		case KindValidation:
			if apiErr.Detail != "" {
				return apiErr.Detail
			}
			return "Invalid request data"
		case KindUnauthorized:
			return "Authentication required"
		case KindForbidden:
			return "Permission denied"
		case KindNotFound:
			return "Resource not found"
		}
		if apiErr.Status == http.StatusInternalServerError {
			return "Server error. Please try again later"
		}
		if apiErr.Detail != "" {
			return apiErr.Detail
		}
		return fmt.Sprintf("Error %d", apiErr.Status)
	}

	if msg := err.Error(); msg != "" {
		return msg
	}
	return "An unexpected error occurred"
}

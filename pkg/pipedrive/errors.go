package pipedrive

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

// APIError represents a non-success answer from the Pipedrive API: a
// non-2xx status, or a 2xx envelope with success=false. It carries
// whatever diagnostics the body provided; nothing is fabricated.
type APIError struct {
	StatusCode     int            `json:"status_code"               yaml:"status_code"`
	Version        Version        `json:"version"                   yaml:"version"`
	Message        string         `json:"error,omitempty"           yaml:"error,omitempty"`
	ErrorInfo      string         `json:"error_info,omitempty"      yaml:"error_info,omitempty"`
	Data           map[string]any `json:"data,omitempty"            yaml:"data,omitempty"`
	AdditionalData map[string]any `json:"additional_data,omitempty" yaml:"additional_data,omitempty"`
}

// Error implements the error interface. The format follows the wire
// diagnostics: "<status> <error> (info: <error_info>)".
func (e *APIError) Error() string {
	parts := []string{strconv.Itoa(e.StatusCode)}

	if e.Message != "" {
		parts = append(parts, e.Message)
	}

	if e.ErrorInfo != "" {
		parts = append(parts, fmt.Sprintf("(info: %s)", e.ErrorInfo))
	}

	return strings.Join(parts, " ")
}

// NotFoundError is the 404-class APIError, distinguished so callers can
// use errors.As as the not-found signal instead of nil checks.
type NotFoundError struct {
	APIError
}

// Unwrap exposes the embedded APIError so errors.As(err, **APIError)
// matches not-found errors too.
func (e *NotFoundError) Unwrap() error {
	return &e.APIError
}

// TransportError reports a failure before a well-formed API answer
// existed: network errors, timeouts, cancellation, malformed bodies. It
// never implies anything about remote state.
type TransportError struct {
	Op  string
	Err error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying cause.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// StaleInstanceError reports a lifecycle call on an instance that was
// already deleted. Deleted instances are terminal.
type StaleInstanceError struct {
	Entity string
	ID     string
}

// Error implements the error interface.
func (e *StaleInstanceError) Error() string {
	return fmt.Sprintf("%s/%s is deleted and cannot be used", e.Entity, e.ID)
}

// ReadOnlyFieldError reports an assignment to a read-only field. The
// assignment has no side effect.
type ReadOnlyFieldError struct {
	Entity string
	Field  string
}

// Error implements the error interface.
func (e *ReadOnlyFieldError) Error() string {
	if e.Entity == "" {
		return fmt.Sprintf("field %q is read-only", e.Field)
	}

	return fmt.Sprintf("%s field %q is read-only", e.Entity, e.Field)
}

// FieldTypeError reports a value that does not fit the field's declared
// kind. The value is not stored.
type FieldTypeError struct {
	Field string
	Kind  FieldKind
	Value any
}

// Error implements the error interface.
func (e *FieldTypeError) Error() string {
	return fmt.Sprintf("field %q expects %s; got %T (value: %v)", e.Field, e.Kind, e.Value, e.Value)
}

// Static errors for err113 compliance.
var (
	ErrConfigRequired     = errors.New("config is required")
	ErrTokenRequired      = errors.New("an API token is required")
	ErrBaseURLRequired    = errors.New("a base URL is required")
	ErrEntityNameRequired = errors.New("entity name is required")
	ErrInvalidVersion     = errors.New("invalid API version")
	ErrFieldNameRequired  = errors.New("field remote name is required")
	ErrDuplicateField     = errors.New("duplicate field remote name")
	ErrInvalidIdentifier  = errors.New("identifier field must be a read-only integer or text field")
	ErrUnknownField       = errors.New("unknown field")
	ErrUnknownKind        = errors.New("unknown field kind")
	ErrIDRequired         = errors.New("an identifier is required")
	ErrNotPersisted       = errors.New("instance has not been saved yet")
	ErrNoData             = errors.New("response has no data")
	ErrNoMoreItems        = errors.New("no more items")
	ErrNilEntity          = errors.New("entity is nil")
	ErrSchemaRequired     = errors.New("schema is required")
	ErrRecordRequired     = errors.New("record is required")
	ErrEntityMismatch     = errors.New("record belongs to a different entity")
	ErrNoIDs              = errors.New("at least one identifier is required")
)

// IsNotFound checks if the error is a not found error.
func IsNotFound(err error) bool {
	notFound := &NotFoundError{}

	return errors.As(err, &notFound)
}

// IsUnauthorized checks if the error is an authentication error.
func IsUnauthorized(err error) bool {
	apiErr := &APIError{}
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusUnauthorized
	}

	return false
}

// IsForbidden checks if the error is a permission error.
func IsForbidden(err error) bool {
	apiErr := &APIError{}
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusForbidden
	}

	return false
}

// IsRateLimited checks if the error is a rate limit rejection.
func IsRateLimited(err error) bool {
	apiErr := &APIError{}
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusTooManyRequests
	}

	return false
}

// IsServerError checks if the error is a 5xx server failure.
func IsServerError(err error) bool {
	apiErr := &APIError{}
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode >= http.StatusInternalServerError
	}

	return false
}

// ParseAPIError builds the typed error for a non-2xx response body.
// When the body parses, its diagnostic fields are carried over; v1
// bodies additionally provide error_info, data and additional_data.
// 404-class responses become *NotFoundError.
func ParseAPIError(version Version, statusCode int, body []byte) error {
	apiErr := APIError{
		StatusCode: statusCode,
		Version:    version,
	}

	var payload struct {
		Success        *bool          `json:"success"`
		Error          string         `json:"error"`
		ErrorInfo      string         `json:"error_info"`
		Data           map[string]any `json:"data"`
		AdditionalData map[string]any `json:"additional_data"`
	}

	if len(body) > 0 {
		err := json.Unmarshal(body, &payload)
		if err != nil {
			return &TransportError{
				Op:  fmt.Sprintf("parse error response (status %d)", statusCode),
				Err: err,
			}
		}
	}

	apiErr.Message = payload.Error
	if version == V1 {
		apiErr.ErrorInfo = payload.ErrorInfo
		apiErr.Data = payload.Data
		apiErr.AdditionalData = payload.AdditionalData
	}

	if statusCode == http.StatusNotFound {
		return &NotFoundError{APIError: apiErr}
	}

	return &apiErr
}

// ParseEnvelope normalizes a raw response into an Envelope or the typed
// error it implies. A 2xx body must be a well-formed envelope with
// success=true; anything else maps to *APIError, *NotFoundError or
// *TransportError.
func ParseEnvelope(version Version, statusCode int, body []byte) (*Envelope, error) {
	if statusCode < http.StatusOK || statusCode >= http.StatusMultipleChoices {
		return nil, ParseAPIError(version, statusCode, body)
	}

	var envelope Envelope

	err := decodeWithNumbers(body, &envelope)
	if err != nil {
		return nil, &TransportError{Op: "decode response envelope", Err: err}
	}

	if !envelope.Success {
		return nil, ParseAPIError(version, statusCode, body)
	}

	return &envelope, nil
}

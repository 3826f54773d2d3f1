package response

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/tallybook/tallybook/pkg/validator"
)

// Envelope is the standard JSON response structure.
type Envelope struct {
	Data  any            `json:"data,omitempty"`
	Meta  map[string]any `json:"meta,omitempty"`
	Error *ErrorDetail   `json:"error,omitempty"`
}

// ErrorDetail carries structured error information. Details holds
// per-field validation messages when present.
type ErrorDetail struct {
	Code    string              `json:"code"`
	Message string              `json:"message,omitempty"`
	Details map[string][]string `json:"details,omitempty"`
}

// JSON writes a success envelope with the given status code.
func JSON(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, Envelope{Data: data})
}

// JSONMeta writes a success envelope with additional metadata.
func JSONMeta(w http.ResponseWriter, status int, data any, meta map[string]any) {
	writeJSON(w, status, Envelope{Data: data, Meta: meta})
}

// Error writes an error envelope. Validation errors render as 422 with
// per-field details, HTTPError values carry their own status, anything
// else is an opaque 500 (programming errors never leak internals).
func Error(w http.ResponseWriter, err error) {
	ErrorMeta(w, err, nil)
}

// ErrorMeta writes an error envelope with additional metadata, used e.g.
// to attach the quota count/limit to a payment_required response.
func ErrorMeta(w http.ResponseWriter, err error, meta map[string]any) {
	status := http.StatusInternalServerError
	detail := &ErrorDetail{Code: ErrInternalServerError.Key}

	var valErrs validator.ValidationErrors
	var httpErr HTTPError

	switch {
	case errors.As(err, &valErrs):
		status = http.StatusUnprocessableEntity
		detail.Code = "validation_error"
		detail.Message = "validation failed"
		detail.Details = make(map[string][]string, len(valErrs.Fields()))
		for _, field := range valErrs.Fields() {
			detail.Details[field] = valErrs.Get(field)
		}
	case errors.As(err, &httpErr):
		status = httpErr.Code
		detail.Code = httpErr.Key
		detail.Message = http.StatusText(httpErr.Code)
	}

	writeJSON(w, status, Envelope{Error: detail, Meta: meta})
}

func writeJSON(w http.ResponseWriter, status int, body Envelope) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

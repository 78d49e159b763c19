// Package handlers implements the HTTP endpoints of the ExpTrack API.
package handlers

import (
	"io"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/turtacn/ExpTrack/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ExpTrack/pkg/errors"
)

// DefaultMaxBodySize bounds request bodies when no limit is configured.
const DefaultMaxBodySize int64 = 1 << 20

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusCode)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// ErrorBody is the payload of the error envelope.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// ErrorResponse is the standard error envelope: {"error": {...}}.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// writeAppError maps err to its HTTP status.  Server-side failures are
// logged and masked; client errors are echoed with their detail.
func writeAppError(w http.ResponseWriter, logger logging.Logger, err error) {
	code := errors.GetCode(err)
	status := errors.HTTPStatusForCode(code)

	body := ErrorBody{Code: code.String(), Message: errors.DefaultMessageForCode(code)}
	var ae *errors.AppError
	if errors.As(err, &ae) {
		body.Message = ae.Message
		body.Detail = ae.Detail
	}

	if status >= http.StatusInternalServerError {
		logger.Error("request failed", logging.String("code", code.String()), logging.Err(err))
		if code == errors.CodeUnknown {
			body = ErrorBody{Code: errors.ErrCodeInternal.String(), Message: "internal server error"}
		}
	}
	writeJSON(w, status, ErrorResponse{Error: body})
}

// decodeJSON reads a bounded JSON body into dst.  An empty body leaves dst
// untouched when allowEmpty is set.
func decodeJSON(w http.ResponseWriter, r *http.Request, maxBytes int64, dst interface{}, allowEmpty bool) error {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBodySize
	}
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBytes))
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeBadRequest, "request body too large or unreadable")
	}
	if len(data) == 0 {
		if allowEmpty {
			return nil
		}
		return errors.NewValidationError("request body is required")
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return errors.Wrap(err, errors.ErrCodeBadRequest, "invalid request body")
	}
	return nil
}

// readBody returns the bounded raw body.
func readBody(w http.ResponseWriter, r *http.Request, maxBytes int64) ([]byte, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBodySize
	}
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBytes))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeBadRequest, "request body too large or unreadable")
	}
	return data, nil
}

//Personal.AI order the ending

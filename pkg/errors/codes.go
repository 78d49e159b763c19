package errors

import (
	"net/http"
	"strings"
)

// ErrorCode is a string representation of a specific error condition.
// The prefix before the underscore names the owning module.
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// Common Error Codes
const (
	ErrCodeInternal           ErrorCode = "COMMON_001"
	ErrCodeBadRequest         ErrorCode = "COMMON_002"
	ErrCodeUnauthorized       ErrorCode = "COMMON_003"
	ErrCodeForbidden          ErrorCode = "COMMON_004"
	ErrCodeNotFound           ErrorCode = "COMMON_005"
	ErrCodeConflict           ErrorCode = "COMMON_006"
	ErrCodeTooManyRequests    ErrorCode = "COMMON_007"
	ErrCodeServiceUnavailable ErrorCode = "COMMON_008"
	ErrCodeTimeout            ErrorCode = "COMMON_009"
	ErrCodeValidation         ErrorCode = "COMMON_010"
	ErrCodeSerialization      ErrorCode = "COMMON_011"
	ErrCodeDatabaseError      ErrorCode = "COMMON_012"
	ErrCodeCacheError         ErrorCode = "COMMON_013"
	ErrCodeExternalService    ErrorCode = "COMMON_014"
	ErrCodeNotImplemented     ErrorCode = "COMMON_016"
)

// Aliases
const (
	CodeInternal     = ErrCodeInternal
	CodeInvalidParam = ErrCodeBadRequest
	CodeNotFound     = ErrCodeNotFound
	CodeConflict     = ErrCodeConflict
	CodeOK           = ErrorCode("OK")
	CodeUnknown      = ErrorCode("UNKNOWN")
)

// Saved View Module Error Codes
const (
	ErrCodeViewNotFound    ErrorCode = "VIEW_001"
	ErrCodeViewNameInvalid ErrorCode = "VIEW_002"
	ErrCodeViewConflict    ErrorCode = "VIEW_003"
	ErrCodeViewStoreFailed ErrorCode = "VIEW_004"
	ErrCodeProjectNotFound ErrorCode = "VIEW_005"
)

// Scalars Module Error Codes
const (
	ErrCodeSessionNotFound     ErrorCode = "SCALAR_001"
	ErrCodeEventInvalid        ErrorCode = "SCALAR_002"
	ErrCodeMetricUnknown       ErrorCode = "SCALAR_003"
	ErrCodeUpstreamUnavailable ErrorCode = "SCALAR_004"
	ErrCodeExportFailed        ErrorCode = "SCALAR_005"
	ErrCodeRenderFailed        ErrorCode = "SCALAR_006"
)

// ErrorCodeHTTPStatus maps ErrorCodes to HTTP status codes.
var ErrorCodeHTTPStatus = map[ErrorCode]int{
	ErrCodeInternal:           http.StatusInternalServerError,
	ErrCodeBadRequest:         http.StatusBadRequest,
	ErrCodeUnauthorized:       http.StatusUnauthorized,
	ErrCodeForbidden:          http.StatusForbidden,
	ErrCodeNotFound:           http.StatusNotFound,
	ErrCodeConflict:           http.StatusConflict,
	ErrCodeTooManyRequests:    http.StatusTooManyRequests,
	ErrCodeServiceUnavailable: http.StatusServiceUnavailable,
	ErrCodeTimeout:            http.StatusGatewayTimeout,
	ErrCodeValidation:         http.StatusBadRequest,
	ErrCodeSerialization:      http.StatusInternalServerError,
	ErrCodeDatabaseError:      http.StatusInternalServerError,
	ErrCodeCacheError:         http.StatusInternalServerError,
	ErrCodeExternalService:    http.StatusBadGateway,
	ErrCodeNotImplemented:     http.StatusNotImplemented,

	ErrCodeViewNotFound:    http.StatusNotFound,
	ErrCodeViewNameInvalid: http.StatusBadRequest,
	ErrCodeViewConflict:    http.StatusConflict,
	ErrCodeViewStoreFailed: http.StatusInternalServerError,
	ErrCodeProjectNotFound: http.StatusNotFound,

	ErrCodeSessionNotFound:     http.StatusNotFound,
	ErrCodeEventInvalid:        http.StatusBadRequest,
	ErrCodeMetricUnknown:       http.StatusBadRequest,
	ErrCodeUpstreamUnavailable: http.StatusBadGateway,
	ErrCodeExportFailed:        http.StatusInternalServerError,
	ErrCodeRenderFailed:        http.StatusInternalServerError,
}

// ErrorCodeMessage maps ErrorCodes to default messages.
var ErrorCodeMessage = map[ErrorCode]string{
	ErrCodeInternal:           "internal server error",
	ErrCodeBadRequest:         "bad request",
	ErrCodeUnauthorized:       "unauthorized",
	ErrCodeForbidden:          "forbidden",
	ErrCodeNotFound:           "resource not found",
	ErrCodeConflict:           "resource conflict",
	ErrCodeTooManyRequests:    "too many requests",
	ErrCodeServiceUnavailable: "service unavailable",
	ErrCodeTimeout:            "request timeout",
	ErrCodeValidation:         "validation failed",
	ErrCodeSerialization:      "serialization failed",
	ErrCodeDatabaseError:      "database error",
	ErrCodeCacheError:         "cache error",
	ErrCodeExternalService:    "external service error",
	ErrCodeNotImplemented:     "not implemented",

	ErrCodeViewNotFound:    "saved view not found",
	ErrCodeViewNameInvalid: "invalid saved view name",
	ErrCodeViewConflict:    "saved view modified concurrently",
	ErrCodeViewStoreFailed: "saved view store failure",
	ErrCodeProjectNotFound: "project not found",

	ErrCodeSessionNotFound:     "scalars session not found",
	ErrCodeEventInvalid:        "invalid scalars event",
	ErrCodeMetricUnknown:       "unknown metric",
	ErrCodeUpstreamUnavailable: "metrics source unavailable",
	ErrCodeExportFailed:        "chart export failed",
	ErrCodeRenderFailed:        "chart render failed",
}

// HTTPStatusForCode returns the HTTP status code for an ErrorCode.
func HTTPStatusForCode(code ErrorCode) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DefaultMessageForCode returns the default message for an ErrorCode.
func DefaultMessageForCode(code ErrorCode) string {
	if msg, ok := ErrorCodeMessage[code]; ok {
		return msg
	}
	return "unknown error"
}

// IsClientError returns true if the ErrorCode corresponds to a 4xx HTTP status.
func IsClientError(code ErrorCode) bool {
	status := HTTPStatusForCode(code)
	return status >= 400 && status < 500
}

// IsServerError returns true if the ErrorCode corresponds to a 5xx HTTP status.
func IsServerError(code ErrorCode) bool {
	status := HTTPStatusForCode(code)
	return status >= 500 && status < 600
}

// ModuleForCode returns the module prefix of an ErrorCode.
func ModuleForCode(code ErrorCode) string {
	parts := strings.Split(string(code), "_")
	if len(parts) > 0 && parts[0] != "" {
		return parts[0]
	}
	return "UNKNOWN"
}

//Personal.AI order the ending

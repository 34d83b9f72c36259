package errors

import (
	"net/http"
	"strings"
)

// ErrorCode is a string representation of a specific error condition.
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
	ErrCodeNotImplemented     ErrorCode = "COMMON_015"
)

// Sentinel codes used by GetCode.
const (
	CodeOK      = ErrorCode("OK")
	CodeUnknown = ErrorCode("UNKNOWN")
)

// Ingestion Error Codes
//
// MissingInput, MalformedRow and SchemaViolation follow the batch propagation
// policy: MissingInput and SchemaViolation fail the company (never the batch),
// MalformedRow skips the token or row and keeps going.
const (
	ErrCodeMissingInput    ErrorCode = "ING_001"
	ErrCodeMalformedRow    ErrorCode = "ING_002"
	ErrCodeSchemaViolation ErrorCode = "ING_003"
	ErrCodeBadDelimiter    ErrorCode = "ING_004"
	ErrCodeUnparseableDate ErrorCode = "ING_005"
	ErrCodeEmptyRoster     ErrorCode = "ING_006"
	ErrCodeCompanyNotFound ErrorCode = "ING_007"
)

// Network Construction Error Codes
const (
	ErrCodeInvalidWindow   ErrorCode = "NET_001"
	ErrCodeInvalidAlpha    ErrorCode = "NET_002"
	ErrCodeEmptyFocalSet   ErrorCode = "NET_003"
	ErrCodeNetworkNotBuilt ErrorCode = "NET_004"
)

// Score Computation Error Codes
const (
	ErrCodeArithmeticGuard ErrorCode = "CDT_001"
	ErrCodeScoreUndefined  ErrorCode = "CDT_002"
	ErrCodeNoForwardCites  ErrorCode = "CDT_003"
)

// Panel / Persistence Error Codes
const (
	ErrCodePanelEmpty          ErrorCode = "PNL_001"
	ErrCodeArtifactNotFound    ErrorCode = "PNL_002"
	ErrCodeArtifactWriteFailed ErrorCode = "PNL_003"
	ErrCodeArtifactReadFailed  ErrorCode = "PNL_004"
	ErrCodeGraphWriteFailed    ErrorCode = "PNL_005"
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
	ErrCodeValidation:         http.StatusUnprocessableEntity,
	ErrCodeSerialization:      http.StatusInternalServerError,
	ErrCodeDatabaseError:      http.StatusInternalServerError,
	ErrCodeCacheError:         http.StatusInternalServerError,
	ErrCodeExternalService:    http.StatusInternalServerError,
	ErrCodeNotImplemented:     http.StatusNotImplemented,

	ErrCodeMissingInput:    http.StatusNotFound,
	ErrCodeMalformedRow:    http.StatusUnprocessableEntity,
	ErrCodeSchemaViolation: http.StatusUnprocessableEntity,
	ErrCodeBadDelimiter:    http.StatusUnprocessableEntity,
	ErrCodeUnparseableDate: http.StatusUnprocessableEntity,
	ErrCodeEmptyRoster:     http.StatusUnprocessableEntity,
	ErrCodeCompanyNotFound: http.StatusNotFound,

	ErrCodeInvalidWindow:   http.StatusBadRequest,
	ErrCodeInvalidAlpha:    http.StatusBadRequest,
	ErrCodeEmptyFocalSet:   http.StatusUnprocessableEntity,
	ErrCodeNetworkNotBuilt: http.StatusConflict,

	ErrCodeArithmeticGuard: http.StatusInternalServerError,
	ErrCodeScoreUndefined:  http.StatusNotFound,
	ErrCodeNoForwardCites:  http.StatusNotFound,

	ErrCodePanelEmpty:          http.StatusNotFound,
	ErrCodeArtifactNotFound:    http.StatusNotFound,
	ErrCodeArtifactWriteFailed: http.StatusInternalServerError,
	ErrCodeArtifactReadFailed:  http.StatusInternalServerError,
	ErrCodeGraphWriteFailed:    http.StatusInternalServerError,
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

	ErrCodeMissingInput:    "required input file missing",
	ErrCodeMalformedRow:    "malformed roster row",
	ErrCodeSchemaViolation: "required roster column missing",
	ErrCodeBadDelimiter:    "could not infer roster delimiter",
	ErrCodeUnparseableDate: "unparseable citation date",
	ErrCodeEmptyRoster:     "roster contains no usable rows",
	ErrCodeCompanyNotFound: "company not found",

	ErrCodeInvalidWindow:   "invalid temporal window",
	ErrCodeInvalidAlpha:    "invalid decay constant",
	ErrCodeEmptyFocalSet:   "no focal patents survived validation",
	ErrCodeNetworkNotBuilt: "citation network not built",

	ErrCodeArithmeticGuard: "arithmetic guard triggered",
	ErrCodeScoreUndefined:  "score undefined for patent",
	ErrCodeNoForwardCites:  "patent has no forward citations",

	ErrCodePanelEmpty:          "panel contains no firm-year rows",
	ErrCodeArtifactNotFound:    "stage artifact not found",
	ErrCodeArtifactWriteFailed: "failed to write stage artifact",
	ErrCodeArtifactReadFailed:  "failed to read stage artifact",
	ErrCodeGraphWriteFailed:    "failed to persist citation graph",
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

package errors

import "net/http"

// ErrorCode identifies a failure category. Codes are stable strings so they
// can travel in headers, logs and Kafka payloads unchanged.
type ErrorCode string

const (
	// Common
	ErrCodeValidation ErrorCode = "COMMON_001"
	ErrCodeInternal   ErrorCode = "COMMON_002"
	ErrCodeNotFound   ErrorCode = "COMMON_003"
	ErrCodeRateLimit  ErrorCode = "COMMON_004"
	ErrCodeTimeout    ErrorCode = "COMMON_005"

	// Molecule; the SMILES string did not parse into a valid graph
	ErrCodeInvalidStructure ErrorCode = "MOL_001"

	// Model / artifacts
	ErrCodeModelNotLoaded    ErrorCode = "MDL_001"
	ErrCodeDimensionMismatch ErrorCode = "MDL_002"
	ErrCodeArtifactInvalid   ErrorCode = "MDL_003"
	ErrCodeNumericAnomaly    ErrorCode = "MDL_004"

	// Prediction
	ErrCodePredictionFailed ErrorCode = "PRD_001"

	// Infrastructure
	ErrCodeCacheError    ErrorCode = "INFRA_001"
	ErrCodeDatabaseError ErrorCode = "INFRA_002"
	ErrCodeStorageError  ErrorCode = "INFRA_003"
	ErrCodeMessageError  ErrorCode = "INFRA_004"
)

var codeHTTPStatus = map[ErrorCode]int{
	ErrCodeValidation:        http.StatusBadRequest,
	ErrCodeInternal:          http.StatusInternalServerError,
	ErrCodeNotFound:          http.StatusNotFound,
	ErrCodeRateLimit:         http.StatusTooManyRequests,
	ErrCodeTimeout:           http.StatusGatewayTimeout,
	ErrCodeInvalidStructure:  http.StatusBadRequest,
	ErrCodeModelNotLoaded:    http.StatusServiceUnavailable,
	ErrCodeDimensionMismatch: http.StatusInternalServerError,
	ErrCodeArtifactInvalid:   http.StatusInternalServerError,
	ErrCodeNumericAnomaly:    http.StatusOK,
	ErrCodePredictionFailed:  http.StatusInternalServerError,
	ErrCodeCacheError:        http.StatusInternalServerError,
	ErrCodeDatabaseError:     http.StatusInternalServerError,
	ErrCodeStorageError:      http.StatusInternalServerError,
	ErrCodeMessageError:      http.StatusInternalServerError,
}

var codeMessage = map[ErrorCode]string{
	ErrCodeValidation:        "invalid request",
	ErrCodeInternal:          "internal error",
	ErrCodeNotFound:          "resource not found",
	ErrCodeRateLimit:         "rate limit exceeded",
	ErrCodeTimeout:           "operation timed out",
	ErrCodeInvalidStructure:  "Invalid SMILES string. Please check the molecule structure.",
	ErrCodeModelNotLoaded:    "Model not loaded",
	ErrCodeDimensionMismatch: "dimension mismatch",
	ErrCodeArtifactInvalid:   "artifact invalid",
	ErrCodeNumericAnomaly:    "numeric anomaly in prediction",
	ErrCodePredictionFailed:  "Prediction error",
	ErrCodeCacheError:        "cache error",
	ErrCodeDatabaseError:     "database error",
	ErrCodeStorageError:      "storage error",
	ErrCodeMessageError:      "messaging error",
}

// String returns the raw code.
func (c ErrorCode) String() string { return string(c) }

// HTTPStatus maps the code to a response status. Unknown codes map to 500.
func (c ErrorCode) HTTPStatus() int {
	if s, ok := codeHTTPStatus[c]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// DefaultMessage returns the canonical user-facing message for the code.
func (c ErrorCode) DefaultMessage() string {
	if m, ok := codeMessage[c]; ok {
		return m
	}
	return "unknown error"
}

//Personal.AI order the ending

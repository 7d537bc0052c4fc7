package errors

import "net/http"

// Code classifies a failure and selects its HTTP rendering.
type Code string

const (
	CodeValidation    Code = "VALIDATION_ERROR"
	CodeUnauthorized  Code = "UNAUTHORIZED"
	CodeForbidden     Code = "FORBIDDEN"
	CodeNotFound      Code = "NOT_FOUND"
	CodeConflict      Code = "CONFLICT"
	CodeStateConflict Code = "STATE_CONFLICT"
	CodeSignature     Code = "SIGNATURE_MISMATCH"
	CodeRateLimit     Code = "RATE_LIMIT_EXCEEDED"
	CodeInternal      Code = "INTERNAL_ERROR"
	CodeDependency    Code = "DEPENDENCY_ERROR"

	CodeGatewayUnconfigured Code = "GATEWAY_UNCONFIGURED"
	CodeGatewayAuthFailed   Code = "GATEWAY_AUTH_FAILED"
	CodeGateway             Code = "GATEWAY_ERROR"

	CodeArtifactMissing Code = "ARTIFACT_MISSING"
)

// Metadata is how a code is rendered to clients.
type Metadata struct {
	HTTPStatus     int
	Retryable      bool
	PublicMessage  string
	DetailsAllowed bool
}

const (
	retry       = true
	noRetry     = false
	showDetails = true
	hideDetails = false
)

var registry = map[Code]Metadata{
	CodeValidation:    {http.StatusBadRequest, noRetry, "validation failed", showDetails},
	CodeUnauthorized:  {http.StatusUnauthorized, noRetry, "authentication required", hideDetails},
	CodeForbidden:     {http.StatusForbidden, noRetry, "access denied", hideDetails},
	CodeNotFound:      {http.StatusNotFound, noRetry, "resource not found", hideDetails},
	CodeConflict:      {http.StatusConflict, noRetry, "conflict detected", hideDetails},
	CodeStateConflict: {http.StatusUnprocessableEntity, noRetry, "state transition disallowed", showDetails},
	CodeSignature:     {http.StatusBadRequest, noRetry, "Invalid payment signature", hideDetails},
	CodeRateLimit:     {http.StatusTooManyRequests, noRetry, "rate limit exceeded", hideDetails},
	CodeInternal:      {http.StatusInternalServerError, retry, "internal server error", hideDetails},
	CodeDependency:    {http.StatusServiceUnavailable, retry, "dependency unavailable", showDetails},

	CodeGatewayUnconfigured: {http.StatusInternalServerError, noRetry, "Payment gateway not configured", hideDetails},
	CodeGatewayAuthFailed:   {http.StatusInternalServerError, noRetry, "Payment gateway authentication failed", hideDetails},
	CodeGateway:             {http.StatusInternalServerError, retry, "Payment gateway error", hideDetails},

	CodeArtifactMissing: {http.StatusInternalServerError, noRetry, "Download file not available", hideDetails},
}

// MetadataFor falls back to CodeInternal for unknown codes.
func MetadataFor(code Code) Metadata {
	if meta, ok := registry[code]; ok {
		return meta
	}
	return registry[CodeInternal]
}

// PublicMessageAllowed reports whether an error's own message may reach the
// client. Internal and dependency failures only ever show the generic text.
func PublicMessageAllowed(code Code) bool {
	if code == CodeInternal || code == CodeDependency {
		return false
	}
	_, known := registry[code]
	return known
}

package errors

import (
	"net/http"
	"time"
)

var (
	ErrRouteNotFound = New(
		"ROUTE_NOT_FOUND",
		"No data found for route",
		http.StatusNotFound,
	)

	ErrPlaceNotFound = New(
		"PLACE_NOT_FOUND",
		"Place not found",
		http.StatusNotFound,
	)

	ErrInvalidRouteID = New(
		"INVALID_ROUTE_ID",
		"Route id must not be empty",
		http.StatusBadRequest,
	)

	ErrInvalidCoordinates = New(
		"INVALID_COORDINATES",
		"Invalid coordinates provided",
		http.StatusBadRequest,
	)

	ErrInvalidRequest = New(
		"INVALID_REQUEST",
		"Invalid request parameters",
		http.StatusBadRequest,
	)

	ErrRateLimited = New(
		"RATE_LIMIT_EXCEEDED",
		"Too many requests to the transit API",
		http.StatusTooManyRequests,
	)

	ErrMissingAPIKey = New(
		"MISSING_API_KEY",
		"Transit API key is not configured",
		http.StatusServiceUnavailable,
	)

	ErrMalformedResponse = New(
		"MALFORMED_RESPONSE",
		"Upstream returned an invalid payload",
		http.StatusBadGateway,
	)

	ErrUpstreamError = New(
		"UPSTREAM_ERROR",
		"Upstream service request failed",
		http.StatusBadGateway,
	)

	ErrCacheError = New(
		"CACHE_ERROR",
		"Cache operation failed",
		http.StatusInternalServerError,
	)

	ErrInternalServer = New(
		"INTERNAL_SERVER_ERROR",
		"Internal server error",
		http.StatusInternalServerError,
	)
)

// RateLimitExceeded returns ErrRateLimited carrying the advisory wait time
// until the oldest call in the window expires.
func RateLimitExceeded(timeUntilReset time.Duration) *AppError {
	return ErrRateLimited.WithDetails(map[string]interface{}{
		"retry_after_ms": timeUntilReset.Milliseconds(),
	})
}

package integration

import "errors"

var (
	// ErrUpstreamUnavailable indicates the platform could not be reached
	ErrUpstreamUnavailable = errors.New("integration: platform temporarily unavailable")
	// ErrUpstreamRequestFailed indicates a non-success response from the platform
	ErrUpstreamRequestFailed = errors.New("integration: platform request failed")
	// ErrUpstreamInvalidResponse indicates a malformed platform payload
	ErrUpstreamInvalidResponse = errors.New("integration: invalid platform response")
	// ErrUpstreamAuthFailed indicates the tenant credential was rejected
	ErrUpstreamAuthFailed = errors.New("integration: platform authentication failed")
	// ErrUpstreamRateLimited indicates the platform throttled the request
	ErrUpstreamRateLimited = errors.New("integration: platform rate limited")
)

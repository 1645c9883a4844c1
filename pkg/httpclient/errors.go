package httpclient

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	apperrors "github.com/bmanav26/E-Commerce/pkg/errors"
)

// downstreamResponse mirrors the standard envelope returned by services in
// this system: {"success": false, "message": "..."}.
type downstreamResponse struct {
	Success *bool  `json:"success"`
	Message string `json:"message"`
}

// ParseResponseError reads the body of a non-2xx response and translates it
// into an AppError preserving the status semantics. The body is fully
// consumed and closed.
func ParseResponseError(resp *http.Response, serviceName string) error {
	defer func() { _ = resp.Body.Close() }()

	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%s returned status %d (failed to read body: %w)", serviceName, resp.StatusCode, err)
	}

	var downstream downstreamResponse
	if json.Unmarshal(bodyBytes, &downstream) == nil && downstream.Success != nil && downstream.Message != "" {
		return mapDownstreamError(resp.StatusCode, downstream.Message, serviceName)
	}

	return fmt.Errorf("%s returned status %d: %s", serviceName, resp.StatusCode, string(bodyBytes))
}

func mapDownstreamError(status int, message, serviceName string) error {
	msg := fmt.Sprintf("%s: %s", serviceName, message)

	switch {
	case status == http.StatusNotFound:
		return &apperrors.AppError{Message: msg, Status: status, Err: apperrors.ErrNotFound}
	case status == http.StatusBadRequest:
		return apperrors.InvalidInput(msg)
	case status == http.StatusUnauthorized:
		return apperrors.Unauthorized(msg)
	case status == http.StatusForbidden:
		return apperrors.Forbidden(msg)
	case status >= 500:
		return fmt.Errorf("%s server error (%d): %s", serviceName, status, message)
	default:
		return &apperrors.AppError{Message: msg, Status: status}
	}
}

// IsClientError reports whether status is a 4xx client error.
func IsClientError(status int) bool {
	return status >= 400 && status < 500
}

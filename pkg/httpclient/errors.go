package httpclient

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	apperrors "github.com/utafrali/storefront/pkg/errors"
)

// ErrorBody covers the two error shapes the storefront API emits: the nested
// {"error":{"code","message"}} form and the flat {"message","errors"} form
// used by validation failures.
type ErrorBody struct {
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Message string              `json:"message"`
	Errors  map[string][]string `json:"errors"`
}

// ParseResponseError reads the body of a non-2xx HTTP response and translates
// it into an AppError. The server's message is kept verbatim so it can be
// shown to the user as-is. Otherwise a generic error is returned with the
// status code and raw body.
//
// The caller should only invoke this when resp.StatusCode indicates an error
// (i.e., not 2xx). The response body is fully consumed and closed.
func ParseResponseError(resp *http.Response, serviceName string) error {
	defer func() { _ = resp.Body.Close() }()

	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20)) // 1 MB limit
	if err != nil {
		return fmt.Errorf("%s returned status %d (failed to read body: %w)", serviceName, resp.StatusCode, err)
	}

	var body ErrorBody
	if json.Unmarshal(bodyBytes, &body) == nil {
		switch {
		case body.Error != nil:
			return mapDownstreamError(resp.StatusCode, body.Error.Code, body.Error.Message, serviceName)
		case body.Message != "":
			return mapDownstreamError(resp.StatusCode, "", body.Message, serviceName)
		case len(body.Errors) > 0:
			return mapDownstreamError(resp.StatusCode, "", firstFieldError(body.Errors), serviceName)
		}
	}

	// Fallback: unstructured error body.
	return fmt.Errorf("%s returned status %d: %s", serviceName, resp.StatusCode, strings.TrimSpace(string(bodyBytes)))
}

// mapDownstreamError translates a status code and error code into an AppError
// whose Message is exactly what the server said.
func mapDownstreamError(status int, code, message, serviceName string) error {
	var base *apperrors.AppError
	switch {
	case status == http.StatusNotFound:
		base = apperrors.NotFound(serviceName, "")
	case status == http.StatusBadRequest:
		base = apperrors.InvalidInput("")
	case status == http.StatusConflict:
		base = apperrors.Conflict("")
	case status == http.StatusUnauthorized:
		base = apperrors.Unauthorized("")
	case status == http.StatusForbidden:
		base = apperrors.Forbidden("")
	case status == http.StatusGone:
		base = apperrors.Gone("")
	case status == http.StatusUnprocessableEntity:
		base = apperrors.Rejected("")
	case status == http.StatusServiceUnavailable:
		base = apperrors.Unavailable("")
	case status >= 500:
		return fmt.Errorf("%s server error (%d/%s): %s", serviceName, status, code, message)
	default:
		base = &apperrors.AppError{Status: status}
	}

	base.Message = message
	if code != "" {
		base.Code = code
	}
	if base.Code == "" {
		base.Code = http.StatusText(status)
	}
	return base
}

// firstFieldError picks a deterministic message out of a field error map.
func firstFieldError(errs map[string][]string) string {
	var firstKey string
	for k, msgs := range errs {
		if len(msgs) == 0 {
			continue
		}
		if firstKey == "" || k < firstKey {
			firstKey = k
		}
	}
	if firstKey == "" {
		return ""
	}
	return errs[firstKey][0]
}

// IsClientError returns true if the HTTP status code is a 4xx client error.
// Client errors are server rejections: the request reached the server and was
// refused, so they are surfaced to the user rather than treated as outages.
func IsClientError(status int) bool {
	return status >= 400 && status < 500
}

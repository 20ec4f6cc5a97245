package checkauth

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/goliatone/go-errors"
)

const (
	TextCodeTransportFailed = "auth_check_transport_failed"
	TextCodeStatusRejected  = "auth_check_status_rejected"
	TextCodeParseFailed     = "auth_check_parse_failed"
	TextCodeVerifyFailed    = "auth_check_verify_failed"
	TextCodeInvalidRequest  = "auth_check_invalid_request"
	TextCodeCheckerClosed   = "auth_checker_closed"
)

// ErrCheckerClosed is returned when an operation runs against a closed checker.
var ErrCheckerClosed = errors.New("checker is closed", errors.CategoryConflict).
	WithTextCode(TextCodeCheckerClosed).
	WithCode(errors.CodeConflict)

// ErrVerificationFailed is returned when response verification rejects the payload.
var ErrVerificationFailed = errors.New("auth response verification failed", errors.CategoryAuth).
	WithTextCode(TextCodeVerifyFailed).
	WithCode(errors.CodeUnauthorized)

// ErrEmptyResponse is returned when the endpoint answers with no body to decode.
var ErrEmptyResponse = errors.New("auth endpoint returned an empty body", errors.CategoryBadInput).
	WithTextCode(TextCodeParseFailed).
	WithCode(errors.CodeBadRequest)

func invalidRequestError(err error) error {
	return errors.Wrap(err, errors.CategoryValidation, "invalid auth check request").
		WithTextCode(TextCodeInvalidRequest).
		WithCode(errors.CodeBadRequest)
}

func transportError(url string, err error) error {
	return errors.Wrap(err, errors.CategoryOperation, "auth check request failed").
		WithTextCode(TextCodeTransportFailed).
		WithMetadata(map[string]any{
			"url": url,
		})
}

func statusError(url string, status int, body []byte) error {
	return errors.New("auth check rejected", errors.CategoryAuth).
		WithTextCode(TextCodeStatusRejected).
		WithCode(statusToCode(status)).
		WithMetadata(map[string]any{
			"url":     url,
			"status":  status,
			"message": apiErrorMessage(body),
		})
}

func parseError(url string, err error) error {
	return errors.Wrap(err, errors.CategoryBadInput, "failed to decode auth response").
		WithTextCode(TextCodeParseFailed).
		WithCode(errors.CodeBadRequest).
		WithMetadata(map[string]any{
			"url": url,
		})
}

func verifyError(url string, err error) error {
	clone := ErrVerificationFailed.Clone()
	clone.Source = err
	meta := map[string]any{
		"url": url,
	}
	if err != nil {
		meta["cause"] = err.Error()
	}
	return clone.WithMetadata(meta)
}

func statusToCode(status int) int {
	switch status {
	case http.StatusBadRequest:
		return errors.CodeBadRequest
	case http.StatusUnauthorized:
		return errors.CodeUnauthorized
	case http.StatusForbidden:
		return errors.CodeForbidden
	case http.StatusNotFound:
		return errors.CodeNotFound
	case http.StatusConflict:
		return errors.CodeConflict
	default:
		return errors.CodeInternal
	}
}

// CheckFailure returns the structured error behind a failed check.
func CheckFailure(err error) (*errors.Error, bool) {
	var richErr *errors.Error
	if errors.As(err, &richErr) && richErr != nil {
		return richErr, true
	}
	return nil, false
}

// IsTransportError reports whether the check failed before reaching the endpoint.
func IsTransportError(err error) bool {
	return hasTextCode(err, TextCodeTransportFailed)
}

// IsStatusError reports whether the endpoint answered with a non-2xx status.
func IsStatusError(err error) bool {
	return hasTextCode(err, TextCodeStatusRejected)
}

// IsParseError reports whether the endpoint body could not be decoded.
func IsParseError(err error) bool {
	return hasTextCode(err, TextCodeParseFailed)
}

// IsVerifyError reports whether response verification rejected the payload.
func IsVerifyError(err error) bool {
	return hasTextCode(err, TextCodeVerifyFailed)
}

// StatusCode returns the HTTP status behind a status rejection.
func StatusCode(err error) (int, bool) {
	richErr, ok := CheckFailure(err)
	if !ok || richErr.TextCode != TextCodeStatusRejected {
		return 0, false
	}
	status, ok := richErr.Metadata["status"].(int)
	return status, ok
}

func hasTextCode(err error, code string) bool {
	if richErr, ok := CheckFailure(err); ok {
		return richErr.TextCode == code
	}
	return false
}

type apiError struct {
	Message     string `json:"message"`
	Error       string `json:"error"`
	Description string `json:"error_description"`
}

// apiErrorMessage extracts a human readable message from an error response body.
func apiErrorMessage(body []byte) string {
	var apiErr apiError
	if err := json.Unmarshal(body, &apiErr); err == nil {
		switch {
		case apiErr.Message != "":
			return apiErr.Message
		case apiErr.Description != "":
			return apiErr.Description
		case apiErr.Error != "":
			return apiErr.Error
		}
	}

	msg := strings.TrimSpace(string(body))
	if msg == "" {
		return "auth check request failed"
	}

	return msg
}

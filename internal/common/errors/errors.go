// Package errors provides the platform's structured errors, their HTTP
// status mapping and their conversion to BPMN errors for workflow jobs.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ErrorCode is a stable, client-visible error identifier.
type ErrorCode string

const (
	ErrCodeLenderNotFound         ErrorCode = "LENDER_NOT_FOUND"
	ErrCodeLenderProtected        ErrorCode = "LENDER_PROTECTED"
	ErrCodeLenderValidationFailed ErrorCode = "LENDER_VALIDATION_FAILED"
	ErrCodeLenderConfigInvalid    ErrorCode = "LENDER_CONFIG_INVALID"

	ErrCodeApplicationNotFound         ErrorCode = "APPLICATION_NOT_FOUND"
	ErrCodeApplicationValidationFailed ErrorCode = "APPLICATION_VALIDATION_FAILED"
	ErrCodeInvalidStatusTransition     ErrorCode = "INVALID_STATUS_TRANSITION"
	ErrCodeInvalidRequest              ErrorCode = "INVALID_REQUEST"

	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeQueryExecutionFailed     ErrorCode = "QUERY_EXECUTION_FAILED"
	ErrCodeDatabaseInsertFailed     ErrorCode = "DATABASE_INSERT_FAILED"

	ErrCodeSearchUnavailable ErrorCode = "SEARCH_UNAVAILABLE"
	ErrCodeSearchQueryFailed ErrorCode = "SEARCH_QUERY_FAILED"

	ErrCodeInvalidFileType ErrorCode = "INVALID_FILE_TYPE"
	ErrCodeFileTooLarge    ErrorCode = "FILE_TOO_LARGE"
	ErrCodeFileNotFound    ErrorCode = "FILE_NOT_FOUND"
	ErrCodeStorageFailed   ErrorCode = "STORAGE_FAILED"

	ErrCodeArchiveNotFound       ErrorCode = "ARCHIVE_NOT_FOUND"
	ErrCodeArchiveCreationFailed ErrorCode = "ARCHIVE_CREATION_FAILED"

	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"

	ErrCodeWorkflowUnavailable ErrorCode = "WORKFLOW_ENGINE_UNAVAILABLE"
	ErrCodeWorkflowTimeout     ErrorCode = "WORKFLOW_ENGINE_TIMEOUT"
	ErrCodeWorkflowRejected    ErrorCode = "WORKFLOW_COMMAND_REJECTED"

	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// StandardError is a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`

	cause error
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.cause
}

// WithMetadata returns e with key set in its metadata.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = map[string]interface{}{}
	}
	e.Metadata[key] = value
	return e
}

func newError(code ErrorCode, message, details string, retryable bool, cause error) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
		cause:     cause,
	}
}

// BPMNError is an error thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns the variables attached to failed or thrown jobs.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

// ==========================
// Constructors
// ==========================

func NewLenderNotFoundError(id string) *StandardError {
	return newError(ErrCodeLenderNotFound, "Lender not found", fmt.Sprintf("lenderId: %s", id), false, nil)
}

func NewLenderProtectedError(id string) *StandardError {
	return newError(ErrCodeLenderProtected,
		"Default lenders cannot be deleted. They are protected system lenders.",
		fmt.Sprintf("lenderId: %s", id), false, nil)
}

func NewLenderValidationFailedError(details string) *StandardError {
	return newError(ErrCodeLenderValidationFailed, "Lender configuration validation failed", details, false, nil)
}

func NewLenderConfigInvalidError(details string) *StandardError {
	return newError(ErrCodeLenderConfigInvalid, "Default lender configuration is invalid", details, false, nil)
}

func NewApplicationNotFoundError(id string) *StandardError {
	return newError(ErrCodeApplicationNotFound, "Application not found", fmt.Sprintf("applicationId: %s", id), false, nil)
}

func NewApplicationValidationFailedError(details string) *StandardError {
	return newError(ErrCodeApplicationValidationFailed, "Application data validation failed", details, false, nil)
}

func NewInvalidStatusTransitionError(from, to string) *StandardError {
	return newError(ErrCodeInvalidStatusTransition, "Invalid status transition",
		fmt.Sprintf("from: %s, to: %s", from, to), false, nil)
}

func NewInvalidRequestError(details string) *StandardError {
	return newError(ErrCodeInvalidRequest, "Invalid request", details, false, nil)
}

func NewDatabaseConnectionFailedError(err error) *StandardError {
	return newError(ErrCodeDatabaseConnectionFailed, "Database connection error", err.Error(), true, err)
}

func NewQueryExecutionFailedError(operation string, err error) *StandardError {
	return newError(ErrCodeQueryExecutionFailed, "Database query execution error",
		fmt.Sprintf("operation: %s, error: %s", operation, err.Error()), true, err)
}

func NewDatabaseInsertFailedError(err error) *StandardError {
	return newError(ErrCodeDatabaseInsertFailed, "Database insert operation failed", err.Error(), true, err)
}

func NewSearchUnavailableError() *StandardError {
	return newError(ErrCodeSearchUnavailable, "Search is not configured", "", false, nil)
}

func NewSearchQueryFailedError(err error) *StandardError {
	return newError(ErrCodeSearchQueryFailed, "Search query error", err.Error(), true, err)
}

func NewInvalidFileTypeError(name string) *StandardError {
	return newError(ErrCodeInvalidFileType,
		"Invalid file type. Only images, PDFs, and Office documents are allowed.",
		fmt.Sprintf("file: %s", name), false, nil)
}

func NewFileTooLargeError(limit int64) *StandardError {
	return newError(ErrCodeFileTooLarge, "File too large", fmt.Sprintf("limit: %d bytes", limit), false, nil)
}

func NewFileNotFoundError(name string) *StandardError {
	return newError(ErrCodeFileNotFound, "File not found", fmt.Sprintf("file: %s", name), false, nil)
}

func NewStorageFailedError(err error) *StandardError {
	return newError(ErrCodeStorageFailed, "File storage error", err.Error(), true, err)
}

func NewArchiveNotFoundError(details string) *StandardError {
	return newError(ErrCodeArchiveNotFound, "No applications found", details, false, nil)
}

func NewArchiveCreationFailedError(err error) *StandardError {
	return newError(ErrCodeArchiveCreationFailed, "Failed to create archive", err.Error(), false, err)
}

func NewNotificationSendFailedError(channel string, err error) *StandardError {
	return newError(ErrCodeNotificationSendFailed, "Notification delivery failed",
		fmt.Sprintf("channel: %s, error: %s", channel, err.Error()), true, err)
}

func NewWorkflowUnavailableError(err error) *StandardError {
	return newError(ErrCodeWorkflowUnavailable, "Workflow engine unavailable", err.Error(), true, err)
}

func NewWorkflowTimeoutError(err error) *StandardError {
	return newError(ErrCodeWorkflowTimeout, "Workflow engine timed out", err.Error(), true, err)
}

func NewWorkflowRejectedError(err error) *StandardError {
	return newError(ErrCodeWorkflowRejected, "Workflow engine rejected the command", err.Error(), false, err)
}

func NewInternalError(err error) *StandardError {
	return newError(ErrCodeInternal, "Unexpected error", err.Error(), false, err)
}

// ==========================
// Inspection
// ==========================

// As returns the StandardError in err's chain, if any.
func As(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
}

// Normalize always yields a StandardError, wrapping unknown errors as internal.
func Normalize(err error) *StandardError {
	if stdErr, ok := As(err); ok {
		return stdErr
	}
	return NewInternalError(err)
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code ErrorCode) bool {
	stdErr, ok := As(err)
	return ok && stdErr.Code == code
}

// HTTPStatus maps an error code to the response status.
func HTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeLenderNotFound, ErrCodeApplicationNotFound, ErrCodeFileNotFound, ErrCodeArchiveNotFound:
		return http.StatusNotFound
	case ErrCodeLenderProtected:
		return http.StatusForbidden
	case ErrCodeLenderValidationFailed, ErrCodeApplicationValidationFailed, ErrCodeInvalidRequest,
		ErrCodeInvalidFileType, ErrCodeFileTooLarge:
		return http.StatusBadRequest
	case ErrCodeInvalidStatusTransition:
		return http.StatusConflict
	case ErrCodeSearchUnavailable, ErrCodeWorkflowUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// ==========================
// BPMN Conversion
// ==========================

// GetRetryCount returns the recommended retry count for a workflow job.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeDatabaseConnectionFailed,
		ErrCodeQueryExecutionFailed,
		ErrCodeDatabaseInsertFailed,
		ErrCodeSearchQueryFailed,
		ErrCodeStorageFailed,
		ErrCodeNotificationSendFailed,
		ErrCodeWorkflowUnavailable,
		ErrCodeWorkflowTimeout:
		return 3
	default:
		return 0
	}
}

func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	return &BPMNError{
		Code:      string(stdErr.Code),
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
		Retries:   retries,
		ErrorVariables: map[string]interface{}{
			"originalErrorCode": string(stdErr.Code),
			"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
		},
	}
}

func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory groups codes for logging and dashboards.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.HasPrefix(codeStr, "LENDER"):
		return "LENDER"
	case strings.HasPrefix(codeStr, "APPLICATION") || strings.Contains(codeStr, "STATUS"):
		return "APPLICATION"
	case strings.Contains(codeStr, "DATABASE") || strings.Contains(codeStr, "QUERY") && !strings.HasPrefix(codeStr, "SEARCH"):
		return "DATABASE"
	case strings.HasPrefix(codeStr, "SEARCH"):
		return "SEARCH"
	case strings.Contains(codeStr, "FILE") || strings.Contains(codeStr, "STORAGE") || strings.HasPrefix(codeStr, "ARCHIVE"):
		return "STORAGE"
	case strings.Contains(codeStr, "NOTIFICATION"):
		return "NOTIFICATION"
	case strings.HasPrefix(codeStr, "WORKFLOW"):
		return "WORKFLOW"
	case strings.Contains(codeStr, "INVALID"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}

// internal/common/errors/errors_test.go
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStandardError_WrapsCause(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := fmt.Errorf("list lenders: %w", NewQueryExecutionFailedError("list_lenders", cause))

	stdErr, ok := As(err)
	require.True(t, ok)
	assert.Equal(t, ErrCodeQueryExecutionFailed, stdErr.Code)
	assert.True(t, stdErr.Retryable)
	assert.True(t, stderrors.Is(err, cause))
	assert.True(t, HasCode(err, ErrCodeQueryExecutionFailed))
	assert.False(t, HasCode(err, ErrCodeLenderNotFound))
}

func TestNormalize(t *testing.T) {
	plain := stderrors.New("boom")
	normalized := Normalize(plain)
	assert.Equal(t, ErrCodeInternal, normalized.Code)
	assert.Equal(t, "boom", normalized.Details)

	protected := NewLenderProtectedError("l-1")
	assert.Same(t, protected, Normalize(protected))
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want int
	}{
		{ErrCodeLenderNotFound, http.StatusNotFound},
		{ErrCodeApplicationNotFound, http.StatusNotFound},
		{ErrCodeLenderProtected, http.StatusForbidden},
		{ErrCodeApplicationValidationFailed, http.StatusBadRequest},
		{ErrCodeFileTooLarge, http.StatusBadRequest},
		{ErrCodeInvalidStatusTransition, http.StatusConflict},
		{ErrCodeSearchUnavailable, http.StatusServiceUnavailable},
		{ErrCodeQueryExecutionFailed, http.StatusInternalServerError},
		{ErrCodeInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, HTTPStatus(tt.code), string(tt.code))
	}
}

func TestConvertToBPMNError(t *testing.T) {
	retryable := ConvertToBPMNError(NewDatabaseInsertFailedError(stderrors.New("disk full")))
	assert.Equal(t, "DATABASE_INSERT_FAILED", retryable.Code)
	assert.Equal(t, 3, retryable.Retries)
	assert.True(t, retryable.Retryable)

	business := ConvertToBPMNError(NewApplicationNotFoundError("a-1"))
	assert.Equal(t, 0, business.Retries)

	vars := business.ToErrorVariables()
	assert.Equal(t, "APPLICATION_NOT_FOUND", vars["errorCode"])
	assert.Equal(t, "APPLICATION_NOT_FOUND", vars["originalErrorCode"])
	assert.Contains(t, vars, "timestamp")
}

func TestGetErrorCategory(t *testing.T) {
	assert.Equal(t, "LENDER", GetErrorCategory(ErrCodeLenderProtected))
	assert.Equal(t, "APPLICATION", GetErrorCategory(ErrCodeInvalidStatusTransition))
	assert.Equal(t, "DATABASE", GetErrorCategory(ErrCodeQueryExecutionFailed))
	assert.Equal(t, "SEARCH", GetErrorCategory(ErrCodeSearchQueryFailed))
	assert.Equal(t, "STORAGE", GetErrorCategory(ErrCodeInvalidFileType))
	assert.Equal(t, "NOTIFICATION", GetErrorCategory(ErrCodeNotificationSendFailed))
	assert.Equal(t, "VALIDATION", GetErrorCategory(ErrCodeInvalidRequest))
	assert.Equal(t, "OTHER", GetErrorCategory(ErrCodeInternal))
}

func TestRemainingRetries(t *testing.T) {
	job := func(retries int32) entities.Job {
		return entities.Job{ActivatedJob: &pb.ActivatedJob{Retries: retries}}
	}
	assert.Equal(t, int32(2), remainingRetries(job(3), 3))
	assert.Equal(t, int32(0), remainingRetries(job(1), 3))
	assert.Equal(t, int32(3), remainingRetries(job(10), 3))
}

func TestWithMetadata(t *testing.T) {
	err := NewLenderValidationFailedError("bad").WithMetadata("lenderId", "l-9")
	assert.Equal(t, "l-9", err.Metadata["lenderId"])
}

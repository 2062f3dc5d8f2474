package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *AppError
		expected string
	}{
		{
			name:     "without underlying error",
			err:      New(CodeNotFound, "symbol main not found"),
			expected: "[NOT_FOUND] symbol main not found",
		},
		{
			name:     "with underlying error",
			err:      Wrap(CodeStorageError, "download failed", errors.New("network timeout")),
			expected: "[STORAGE_ERROR] download failed: network timeout",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	underlying := errors.New("underlying error")
	err := Wrap(CodeReadError, "read failed", underlying)

	assert.Equal(t, underlying, err.Unwrap())
	assert.True(t, errors.Is(err, underlying))
}

func TestAppError_Is(t *testing.T) {
	err1 := New(CodeDatabaseError, "error 1")
	err2 := New(CodeDatabaseError, "error 2")
	err3 := New(CodeStorageError, "error 3")

	assert.True(t, errors.Is(err1, err2))
	assert.False(t, errors.Is(err1, err3))
	assert.False(t, err1.Is(errors.New("plain")))
}

func TestPredicates(t *testing.T) {
	wrapped := fmt.Errorf("analyze app.map: %w", Wrap(CodeNotFound, "missing", nil))

	assert.True(t, IsNotFound(wrapped))
	assert.False(t, IsStorageError(wrapped))
	assert.True(t, IsStorageError(Wrap(CodeStorageError, "upload", errors.New("x"))))
	assert.True(t, IsDatabaseError(ErrDatabaseError))
	assert.True(t, IsEmptyFileError(New(CodeEmptyFile, "app.map is empty")))
	assert.False(t, IsNotFound(nil))
}

func TestGetErrorCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{"app error", ErrTooLarge, CodeTooLarge},
		{"wrapped app error", fmt.Errorf("ctx: %w", ErrConfigError), CodeConfigError},
		{"plain error", errors.New("plain"), CodeUnknown},
		{"nil", nil, CodeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetErrorCode(tt.err))
		})
	}
}

func TestGetErrorMessage(t *testing.T) {
	assert.Equal(t, "input too large", GetErrorMessage(ErrTooLarge))
	assert.Equal(t, "plain", GetErrorMessage(errors.New("plain")))
	assert.Equal(t, "", GetErrorMessage(nil))
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 0, ExitCode(nil))
	assert.Equal(t, 1, ExitCode(errors.New("boom")))
	assert.Equal(t, 1, ExitCode(ErrStorageError))
	assert.Equal(t, 2, ExitCode(ErrInvalidInput))
	assert.Equal(t, 2, ExitCode(fmt.Errorf("load: %w", ErrConfigError)))
	assert.Equal(t, 3, ExitCode(ErrNotFound))
}

package errors_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/secretforge/secretforge/internal/errors"
)

func TestUserErrorFormat(t *testing.T) {
	t.Parallel()

	err := errors.UserError{
		Message:    "Failed to read manifest file",
		Details:    "open secretforge.yaml: permission denied",
		Suggestion: "Check file permissions and path",
	}

	msg := err.Error()
	assert.Contains(t, msg, "Failed to read manifest file")
	assert.Contains(t, msg, "Details: open secretforge.yaml: permission denied")
	assert.Contains(t, msg, "Try: Check file permissions and path")
}

func TestUserErrorUnwrap(t *testing.T) {
	t.Parallel()

	inner := fmt.Errorf("inner failure")
	err := errors.UserError{Message: "outer", Err: inner}

	assert.Equal(t, inner, err.Unwrap())
}

func TestUserErrorFallsBackToWrapped(t *testing.T) {
	t.Parallel()

	err := errors.UserError{Err: fmt.Errorf("wrapped failure")}
	assert.Contains(t, err.Error(), "wrapped failure")
}

func TestConfigErrorFormat(t *testing.T) {
	t.Parallel()

	err := errors.ConfigError{
		Field:      "targetType",
		Value:      "queue",
		Message:    "unknown attachment target type",
		Suggestion: "Use 'instance' or 'cluster'",
	}

	msg := err.Error()
	assert.Contains(t, msg, "Configuration error in field 'targetType'")
	assert.Contains(t, msg, "(value: queue)")
	assert.Contains(t, msg, "unknown attachment target type")
	assert.Contains(t, msg, "Use 'instance' or 'cluster'")
}

func TestIsConfigError(t *testing.T) {
	t.Parallel()

	assert.True(t, errors.IsConfigError(errors.ConfigError{Message: "bad"}))
	assert.False(t, errors.IsConfigError(fmt.Errorf("plain")))
	assert.False(t, errors.IsConfigError(nil))

	wrapped := fmt.Errorf("context: %w", error(errors.ConfigError{Message: "bad"}))
	assert.True(t, errors.IsConfigError(wrapped))
}

func TestSimplifyError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "yaml_error",
			err:  fmt.Errorf("yaml: line 3: mapping values are not allowed"),
			want: "Invalid YAML format",
		},
		{
			name: "permission_denied",
			err:  fmt.Errorf("open /etc/x: permission denied"),
			want: "Permission denied",
		},
		{
			name: "missing_file",
			err:  fmt.Errorf("open x.yaml: no such file or directory"),
			want: "File or directory not found",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			simplified := errors.SimplifyError(tt.err)
			assert.Contains(t, simplified.Error(), tt.want)
		})
	}
}

func TestSimplifyErrorPassthrough(t *testing.T) {
	t.Parallel()

	assert.Nil(t, errors.SimplifyError(nil))

	// Already user-friendly errors are returned untouched
	cfgErr := errors.ConfigError{Message: "bad"}
	assert.Equal(t, error(cfgErr), errors.SimplifyError(cfgErr))

	plain := fmt.Errorf("something unusual")
	require.Equal(t, plain, errors.SimplifyError(plain))
}

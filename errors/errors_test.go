package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	err := New(CodeCompileFailed, "stage exited nonzero")
	require.Error(t, err)
	assert.Equal(t, CodeCompileFailed, err.Code)
	assert.Contains(t, err.Error(), "COMPILE_FAILED")
	assert.Contains(t, err.Error(), "stage exited nonzero")
}

func TestWrapPreservesChain(t *testing.T) {
	cause := fmt.Errorf("exec: file not found")
	err := Wrap(cause, CodeToolInvocation, "cannot start compiler")
	require.Error(t, err)

	var e *Error
	require.True(t, As(err, &e))
	assert.Equal(t, CodeToolInvocation, e.Code)
	assert.True(t, Is(err, cause))
}

func TestWrapNil(t *testing.T) {
	assert.NoError(t, Wrap(nil, CodeInternal, "ignored"))
	assert.NoError(t, WrapWithContext(nil, CodeInternal, "ignored", nil))
}

func TestWrapWithContext(t *testing.T) {
	cause := fmt.Errorf("boom")
	err := WrapWithContext(cause, CodeLinkFailed, "link stage failed", map[string]interface{}{
		"exit_code": 1,
		"tool":      "arm-none-eabi-gcc",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exit_code=1")
	assert.Contains(t, err.Error(), "tool=arm-none-eabi-gcc")
	assert.Contains(t, err.Error(), "boom")
}

func TestCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorCode
	}{
		{"structured", New(CodeAlreadyRunning, "busy"), CodeAlreadyRunning},
		{"wrapped", fmt.Errorf("outer: %w", New(CodeProcessExit, "exited")), CodeProcessExit},
		{"plain", fmt.Errorf("plain"), CodeUnknown},
		{"nil", nil, CodeUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Code(tt.err))
		})
	}
}

func TestHasCode(t *testing.T) {
	inner := New(CodeToolchainMissing, "missing tools")
	outer := Wrap(inner, CodeInternal, "preflight")

	assert.True(t, HasCode(outer, CodeInternal))
	assert.True(t, HasCode(outer, CodeToolchainMissing))
	assert.False(t, HasCode(outer, CodeLinkFailed))
	assert.False(t, HasCode(nil, CodeInternal))
}

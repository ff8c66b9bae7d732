package executor_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rajmhetar/rajos/executor"
)

func TestBasicExecution(t *testing.T) {
	cmd := executor.New("echo", "hello", "world")
	result, err := cmd.Execute(context.Background())
	require.NoError(t, err)

	assert.Contains(t, result.Stdout, "hello world")
	assert.Equal(t, 0, result.ExitCode)
}

func TestStderrCapture(t *testing.T) {
	cmd := executor.New("sh", "-c", "echo to-stdout && echo to-stderr >&2")
	result, err := cmd.Execute(context.Background())
	require.NoError(t, err)

	assert.Contains(t, result.Stdout, "to-stdout")
	assert.Contains(t, result.Stderr, "to-stderr")
	assert.NotContains(t, result.Stdout, "to-stderr")
}

func TestNonzeroExitIsNotAnError(t *testing.T) {
	cmd := executor.New("sh", "-c", "echo broken >&2; exit 3")
	result, err := cmd.Execute(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, result.ExitCode)
	assert.Contains(t, result.Stderr, "broken")
}

func TestMissingBinary(t *testing.T) {
	cmd := executor.New("definitely-not-a-real-tool-xyz")
	result, err := cmd.Execute(context.Background())
	require.Error(t, err)

	assert.True(t, executor.IsInvocationError(err))
	assert.Equal(t, -1, result.ExitCode)
}

func TestWorkingDirectory(t *testing.T) {
	dir := t.TempDir()
	cmd := executor.New("pwd")
	result, err := cmd.Execute(context.Background(), executor.WithWorkingDir(dir))
	require.NoError(t, err)

	assert.Contains(t, result.Stdout, dir)
}

func TestEnvironmentVariables(t *testing.T) {
	cmd := executor.New("sh", "-c", "echo $RAJOS_TEST_VAR")
	result, err := cmd.Execute(
		context.Background(),
		executor.WithEnvVar("RAJOS_TEST_VAR", "test_value"),
	)
	require.NoError(t, err)

	assert.Contains(t, result.Stdout, "test_value")
}

func TestAdditionalWriters(t *testing.T) {
	var out, errw bytes.Buffer
	cmd := executor.New("sh", "-c", "echo line-out && echo line-err >&2")
	result, err := cmd.Execute(
		context.Background(),
		executor.WithStdoutWriter(&out),
		executor.WithStderrWriter(&errw),
	)
	require.NoError(t, err)

	// Output is both captured and streamed to the extra writers.
	assert.Equal(t, result.Stdout, out.String())
	assert.Equal(t, result.Stderr, errw.String())
	assert.Equal(t, "line-out", strings.TrimSpace(out.String()))
	assert.Equal(t, "line-err", strings.TrimSpace(errw.String()))
}

func TestContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cmd := executor.New("sleep", "5")
	_, err := cmd.Execute(ctx)
	assert.Error(t, err)
}

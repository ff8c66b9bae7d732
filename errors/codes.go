// Package errors provides the error handling foundation for the RajOS tooling.
// It extends Go's standard error handling with structured error codes,
// context preservation, and helpers for classifying build and emulator failures.
package errors

// ErrorCode identifies a specific failure condition in the tooling.
// Error codes are string-based for debuggability and natural log output.
type ErrorCode string

const (
	// Toolchain errors.

	// CodeToolchainMissing indicates one or more required toolchain tools
	// could not be resolved before the build started.
	CodeToolchainMissing ErrorCode = "TOOLCHAIN_MISSING"

	// CodeToolInvocation indicates an external tool could not be started
	// (missing binary, permission denial).
	CodeToolInvocation ErrorCode = "TOOL_INVOCATION_FAILED"

	// Build stage errors.

	// CodeCompileFailed indicates a C compile stage exited nonzero.
	CodeCompileFailed ErrorCode = "COMPILE_FAILED"

	// CodeAssembleFailed indicates an assembly stage exited nonzero.
	CodeAssembleFailed ErrorCode = "ASSEMBLE_FAILED"

	// CodeLinkFailed indicates the link stage exited nonzero.
	CodeLinkFailed ErrorCode = "LINK_FAILED"

	// CodeConvertFailed indicates an image conversion stage exited nonzero.
	CodeConvertFailed ErrorCode = "CONVERT_FAILED"

	// Emulator errors.

	// CodeProcessSpawn indicates the emulator process could not be spawned.
	CodeProcessSpawn ErrorCode = "PROCESS_SPAWN_FAILED"

	// CodeAlreadyRunning indicates a supervised process is already active.
	CodeAlreadyRunning ErrorCode = "ALREADY_RUNNING"

	// CodeProcessExit indicates the supervised process exited nonzero while
	// no stop had been requested.
	CodeProcessExit ErrorCode = "PROCESS_EXIT"

	// Configuration errors.

	// CodeInvalidInput indicates the provided input is invalid or malformed.
	CodeInvalidInput ErrorCode = "INVALID_INPUT"

	// CodeInvalidConfig indicates a configuration error prevents the operation.
	CodeInvalidConfig ErrorCode = "INVALID_CONFIGURATION"

	// System errors.

	// CodeInternal indicates an internal error occurred.
	CodeInternal ErrorCode = "INTERNAL_ERROR"

	// CodeUnknown indicates an unknown or unclassified error occurred.
	CodeUnknown ErrorCode = "UNKNOWN"
)

// Package pipeline drives the deterministic multi-stage RajOS build:
// compile and assemble every declared source unit in order, link the objects
// into an ELF image, and convert the image to binary and hex forms. The
// pipeline is fail-fast: the first stage that exits nonzero aborts the build
// with a single diagnostic.
package pipeline

import "github.com/rajmhetar/rajos/errors"

// Status is the overall outcome of one build invocation.
type Status string

const (
	// StatusSuccess indicates every stage completed with exit code zero.
	StatusSuccess Status = "success"

	// StatusFailed indicates a stage failed and the build was aborted.
	StatusFailed Status = "failed"
)

// String returns the string representation of the Status.
func (s Status) String() string {
	return string(s)
}

// UnitKind selects which tool builds a source unit.
type UnitKind string

const (
	// KindCompile marks a C source built by the compiler.
	KindCompile UnitKind = "compileUnit"

	// KindAssemble marks an assembly source built by the assembler.
	KindAssemble UnitKind = "assembleUnit"
)

// String returns the string representation of the UnitKind.
func (k UnitKind) String() string {
	return string(k)
}

// Stage identifies one discrete step of the build.
type Stage string

const (
	// StageCompile is a per-unit C compile.
	StageCompile Stage = "compile"

	// StageAssemble is a per-unit assembly.
	StageAssemble Stage = "assemble"

	// StageLink is the single link of all objects into the ELF image.
	StageLink Stage = "link"

	// StageConvertBinary converts the ELF image to a raw binary image.
	StageConvertBinary Stage = "convert-binary"

	// StageConvertHex converts the ELF image to an Intel hex image.
	StageConvertHex Stage = "convert-hex"
)

// String returns the string representation of the Stage.
func (s Stage) String() string {
	return string(s)
}

// Role tags what a produced artifact is.
type Role string

const (
	// RoleObject is a per-unit object file.
	RoleObject Role = "object"

	// RoleImageELF is the linked ELF image.
	RoleImageELF Role = "image-elf"

	// RoleImageBinary is the raw binary image.
	RoleImageBinary Role = "image-binary"

	// RoleImageHex is the Intel hex image.
	RoleImageHex Role = "image-hex"
)

// String returns the string representation of the Role.
func (r Role) String() string {
	return string(r)
}

// SourceUnit is one declared source file. Units are declared in a fixed
// order that is preserved through compilation and onto the linker command
// line: the entry unit declared first stays first.
type SourceUnit struct {
	// Path is the source path relative to the source root.
	Path string

	// Kind selects the compiler or the assembler.
	Kind UnitKind
}

// Artifact is a file produced by a stage, tagged by role. Paths are relative
// to the pipeline's working directory.
type Artifact struct {
	Path string
	Role Role
}

// Diagnostic describes the single failing stage of a failed build.
type Diagnostic struct {
	// Stage is the step that failed.
	Stage Stage

	// Unit is the offending source unit for per-unit stages, nil otherwise.
	Unit *SourceUnit

	// Stderr is the tool's captured standard error, verbatim.
	Stderr string

	// ExitCode is the tool's exit code.
	ExitCode int
}

// Code classifies the failing stage as a platform error code.
func (d *Diagnostic) Code() errors.ErrorCode {
	switch d.Stage {
	case StageCompile:
		return errors.CodeCompileFailed
	case StageAssemble:
		return errors.CodeAssembleFailed
	case StageLink:
		return errors.CodeLinkFailed
	case StageConvertBinary, StageConvertHex:
		return errors.CodeConvertFailed
	default:
		return errors.CodeUnknown
	}
}

// BuildResult reports one build invocation. It is created once per Run and
// immutable after return. A failed result never contains an image artifact
// from the failing stage or any stage after it.
type BuildResult struct {
	// Status is the overall outcome.
	Status Status

	// Artifacts lists the produced artifacts in production order.
	Artifacts []Artifact

	// Diagnostics holds one entry for the failing stage, empty on success.
	Diagnostics []Diagnostic

	// SizeReport is the sizer's output for the linked ELF, empty when the
	// build failed or the report could not be produced.
	SizeReport string
}

// ArtifactsByRole returns the produced artifacts with the given role.
func (r *BuildResult) ArtifactsByRole(role Role) []Artifact {
	var out []Artifact
	for _, a := range r.Artifacts {
		if a.Role == role {
			out = append(out, a)
		}
	}
	return out
}

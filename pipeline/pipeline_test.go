package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rajmhetar/rajos/errors"
	"github.com/rajmhetar/rajos/executor"
	"github.com/rajmhetar/rajos/fs"
	"github.com/rajmhetar/rajos/toolchain"
)

// fakeCall records one tool invocation received by the fake toolchain.
type fakeCall struct {
	program string
	args    []string
}

// fakeRunner is a fake toolchain that records its received argument vectors
// and fails selected invocations.
type fakeRunner struct {
	calls []fakeCall

	// failOn maps a source path substring to the stderr the fake emits when
	// an invocation mentions that path.
	failOn map[string]string
}

func (r *fakeRunner) Run(_ context.Context, program string, args []string) (*executor.Result, error) {
	r.calls = append(r.calls, fakeCall{program: program, args: append([]string{}, args...)})
	for needle, stderr := range r.failOn {
		for _, a := range args {
			if a == needle {
				return &executor.Result{Stderr: stderr, ExitCode: 1}, nil
			}
		}
	}
	return &executor.Result{Stdout: "ok"}, nil
}

// allPresent resolves every tool.
type allPresent struct{}

func (allPresent) LookPath(name string) (string, error) { return "/usr/bin/" + name, nil }

// nonePresent resolves only the tools in its allow set.
type nonePresent struct{ allow map[string]bool }

func (r nonePresent) LookPath(name string) (string, error) {
	if r.allow[name] {
		return "/usr/bin/" + name, nil
	}
	return "", fmt.Errorf("%s: not found", name)
}

func testUnits() []SourceUnit {
	return []SourceUnit{
		{Path: "arch/arm/startup.s", Kind: KindAssemble},
		{Path: "kernel/kernel.c", Kind: KindCompile},
		{Path: "drivers/uart.c", Kind: KindCompile},
	}
}

func newTestPipeline(t *testing.T, units []SourceUnit, runner Runner, resolver toolchain.Resolver) *Pipeline {
	t.Helper()
	return New(toolchain.Default(), units,
		WithFilesystem(fs.NewInMemoryFS()),
		WithRunner(runner),
		WithResolver(resolver),
	)
}

func TestRunSuccessProducesAllArtifacts(t *testing.T) {
	// Scenario: two compile units plus one assemble unit with a full
	// toolchain present.
	runner := &fakeRunner{}
	p := newTestPipeline(t, testUnits(), runner, allPresent{})

	result, err := p.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, StatusSuccess, result.Status)
	assert.Empty(t, result.Diagnostics)

	objects := result.ArtifactsByRole(RoleObject)
	require.Len(t, objects, 3)
	assert.Equal(t, filepath.Join("build", "arch", "arm", "startup.o"), objects[0].Path)
	assert.Equal(t, filepath.Join("build", "kernel", "kernel.o"), objects[1].Path)
	assert.Equal(t, filepath.Join("build", "drivers", "uart.o"), objects[2].Path)

	require.Len(t, result.ArtifactsByRole(RoleImageELF), 1)
	require.Len(t, result.ArtifactsByRole(RoleImageBinary), 1)
	require.Len(t, result.ArtifactsByRole(RoleImageHex), 1)
	assert.Equal(t, filepath.Join("build", "rajos.elf"), result.ArtifactsByRole(RoleImageELF)[0].Path)
}

func TestLinkReceivesObjectsInDeclarationOrder(t *testing.T) {
	runner := &fakeRunner{}
	p := newTestPipeline(t, testUnits(), runner, allPresent{})

	_, err := p.Run(context.Background())
	require.NoError(t, err)

	// Calls: 3 unit builds, then link, two conversions, size report.
	require.Len(t, runner.calls, 7)
	link := runner.calls[3]
	assert.Equal(t, toolchain.DefaultCompiler, link.program)

	var objArgs []string
	for _, a := range link.args {
		if filepath.Ext(a) == ".o" {
			objArgs = append(objArgs, a)
		}
	}
	assert.Equal(t, []string{
		filepath.Join("build", "arch", "arm", "startup.o"),
		filepath.Join("build", "kernel", "kernel.o"),
		filepath.Join("build", "drivers", "uart.o"),
	}, objArgs)
}

func TestFailFastOnUnitFailure(t *testing.T) {
	// The second declared unit fails to compile; the third is never
	// attempted and no image artifact is reported.
	runner := &fakeRunner{failOn: map[string]string{
		filepath.Join("src", "kernel", "kernel.c"): "kernel.c:42: error: expected ';'",
	}}
	p := newTestPipeline(t, testUnits(), runner, allPresent{})

	result, err := p.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, StatusFailed, result.Status)

	require.Len(t, result.Diagnostics, 1)
	diag := result.Diagnostics[0]
	assert.Equal(t, StageCompile, diag.Stage)
	require.NotNil(t, diag.Unit)
	assert.Equal(t, "kernel/kernel.c", diag.Unit.Path)
	assert.Equal(t, 1, diag.ExitCode)
	assert.Equal(t, errors.CodeCompileFailed, diag.Code())
	assert.Contains(t, diag.Stderr, "expected ';'")

	// Only the assemble before the failure ran; nothing after.
	require.Len(t, runner.calls, 2)

	assert.Empty(t, result.ArtifactsByRole(RoleImageELF))
	assert.Empty(t, result.ArtifactsByRole(RoleImageBinary))
	assert.Empty(t, result.ArtifactsByRole(RoleImageHex))
	// The object produced before the failure is still reported.
	assert.Len(t, result.ArtifactsByRole(RoleObject), 1)
}

func TestLinkFailure(t *testing.T) {
	runner := &fakeRunner{failOn: map[string]string{
		filepath.Join("build", "rajos.elf"): "undefined reference to `main'",
	}}
	p := newTestPipeline(t, testUnits(), runner, allPresent{})

	result, err := p.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, StatusFailed, result.Status)
	require.Len(t, result.Diagnostics, 1)
	assert.Equal(t, StageLink, result.Diagnostics[0].Stage)
	assert.Nil(t, result.Diagnostics[0].Unit)

	// Objects survive, image artifacts do not.
	assert.Len(t, result.ArtifactsByRole(RoleObject), 3)
	assert.Empty(t, result.ArtifactsByRole(RoleImageELF))
}

func TestBinaryConversionFailureSkipsHex(t *testing.T) {
	runner := &fakeRunner{failOn: map[string]string{
		filepath.Join("build", "rajos.bin"): "objcopy: cannot write binary",
	}}
	p := newTestPipeline(t, testUnits(), runner, allPresent{})

	result, err := p.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, StatusFailed, result.Status)
	require.Len(t, result.Diagnostics, 1)
	assert.Equal(t, StageConvertBinary, result.Diagnostics[0].Stage)

	// The hex conversion was never attempted: 3 units + link + bin convert.
	assert.Len(t, runner.calls, 5)

	// The ELF from the completed link stage is still reported; nothing from
	// the failing stage onward is.
	assert.Len(t, result.ArtifactsByRole(RoleImageELF), 1)
	assert.Empty(t, result.ArtifactsByRole(RoleImageBinary))
	assert.Empty(t, result.ArtifactsByRole(RoleImageHex))
}

func TestPreflightReportsAllMissingToolsAndRunsNothing(t *testing.T) {
	tc := toolchain.Default()
	runner := &fakeRunner{}
	p := newTestPipeline(t, testUnits(), runner, nonePresent{allow: map[string]bool{
		tc.Compiler: true,
		tc.Linker:   true,
	}})

	_, err := p.Run(context.Background())
	require.Error(t, err)

	var me *toolchain.MissingToolsError
	require.ErrorAs(t, err, &me)
	assert.Equal(t, []string{tc.Assembler, tc.Converter, tc.Sizer}, me.Missing)
	assert.True(t, errors.HasCode(err, errors.CodeToolchainMissing))

	// No external command was invoked.
	assert.Empty(t, runner.calls)
}

func TestRunRejectsEmptyUnitList(t *testing.T) {
	runner := &fakeRunner{}
	p := newTestPipeline(t, nil, runner, allPresent{})

	_, err := p.Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.CodeInvalidInput))
	assert.Empty(t, runner.calls)
}

func TestToolInvocationFailureAbortsRun(t *testing.T) {
	runner := &failingStartRunner{}
	p := newTestPipeline(t, testUnits(), runner, allPresent{})

	_, err := p.Run(context.Background())
	require.Error(t, err)
	assert.True(t, executor.IsInvocationError(err))
}

type failingStartRunner struct{}

func (failingStartRunner) Run(context.Context, string, []string) (*executor.Result, error) {
	return nil, &executor.InvocationError{Program: "arm-none-eabi-gcc", Err: fmt.Errorf("permission denied")}
}

func TestSizeReportOnSuccess(t *testing.T) {
	runner := &sizeReportRunner{}
	p := newTestPipeline(t, testUnits(), runner, allPresent{})

	result, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Contains(t, result.SizeReport, "text")
}

type sizeReportRunner struct{ fakeRunner }

func (r *sizeReportRunner) Run(ctx context.Context, program string, args []string) (*executor.Result, error) {
	if program == toolchain.DefaultSizer {
		return &executor.Result{Stdout: "   text\t   data\t    bss\n  12345\t    128\t   2048\n"}, nil
	}
	return r.fakeRunner.Run(ctx, program, args)
}

func TestCleanIsIdempotent(t *testing.T) {
	fsys := fs.NewInMemoryFS()
	p := New(toolchain.Default(), testUnits(), WithFilesystem(fsys), WithRunner(&fakeRunner{}), WithResolver(allPresent{}))

	// Clean on a project that was never built, twice in a row.
	require.NoError(t, p.Clean())
	require.NoError(t, p.Clean())

	// Clean after something exists in the build root.
	require.NoError(t, fsys.MkdirAll(filepath.Join("build", "kernel"), 0o755))
	require.NoError(t, fsys.WriteFile(filepath.Join("build", "kernel", "kernel.o"), []byte("obj"), 0o644))
	require.NoError(t, p.Clean())

	ok, err := fsys.Exists("build")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestObjectDirectoriesCreated(t *testing.T) {
	fsys := fs.NewInMemoryFS()
	p := New(toolchain.Default(), testUnits(),
		WithFilesystem(fsys),
		WithRunner(&fakeRunner{}),
		WithResolver(allPresent{}),
	)

	_, err := p.Run(context.Background())
	require.NoError(t, err)

	for _, dir := range []string{
		filepath.Join("build", "arch", "arm"),
		filepath.Join("build", "kernel"),
		filepath.Join("build", "drivers"),
	} {
		ok, err := fsys.Exists(dir)
		require.NoError(t, err)
		assert.True(t, ok, "missing object directory %s", dir)
	}
}

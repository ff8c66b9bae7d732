package pipeline

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/rajmhetar/rajos/broker"
	"github.com/rajmhetar/rajos/errors"
	"github.com/rajmhetar/rajos/fs"
	"github.com/rajmhetar/rajos/toolchain"
)

const dirPerm os.FileMode = 0o755

// Pipeline sequences the build stages for one declared source list and one
// toolchain configuration. Stages run synchronously and sequentially; the
// caller is responsible for running Run off any interactive thread. A build
// root is exclusively owned by one Run at a time.
type Pipeline struct {
	tc      toolchain.Config
	units   []SourceUnit
	fsys    fs.Filesystem
	runner  Runner
	resolve toolchain.Resolver
	logger  *slog.Logger

	buildDir  string
	sourceDir string
	target    string
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithFilesystem sets the filesystem used for build-root management.
func WithFilesystem(fsys fs.Filesystem) Option {
	return func(p *Pipeline) { p.fsys = fsys }
}

// WithRunner sets the tool runner. Tests use this to substitute a fake
// toolchain.
func WithRunner(r Runner) Option {
	return func(p *Pipeline) { p.runner = r }
}

// WithResolver sets the preflight tool resolver.
func WithResolver(r toolchain.Resolver) Option {
	return func(p *Pipeline) { p.resolve = r }
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) { p.logger = logger }
}

// WithBuildDir sets the build root, relative to the working directory.
func WithBuildDir(dir string) Option {
	return func(p *Pipeline) { p.buildDir = dir }
}

// WithSourceDir sets the source root, relative to the working directory.
func WithSourceDir(dir string) Option {
	return func(p *Pipeline) { p.sourceDir = dir }
}

// WithTarget sets the base name for the final image artifacts.
func WithTarget(name string) Option {
	return func(p *Pipeline) { p.target = name }
}

// WithWorkDir sets the OS directory tools run in. Only meaningful with the
// default runner.
func WithWorkDir(dir string) Option {
	return func(p *Pipeline) {
		if cr, ok := p.runner.(*commandRunner); ok {
			cr.workDir = dir
		}
	}
}

// WithEventQueue streams stage output lines into the given broker queue.
// Only meaningful with the default runner.
func WithEventQueue(queue *broker.Queue) Option {
	return func(p *Pipeline) {
		if cr, ok := p.runner.(*commandRunner); ok {
			cr.queue = queue
		}
	}
}

// New creates a Pipeline for the given toolchain and declared source units.
// Unit order is significant and preserved end-to-end.
func New(tc toolchain.Config, units []SourceUnit, opts ...Option) *Pipeline {
	p := &Pipeline{
		tc:        tc,
		units:     units,
		fsys:      fs.NewOSFS("."),
		runner:    &commandRunner{},
		resolve:   toolchain.ExecResolver{},
		logger:    slog.Default(),
		buildDir:  "build",
		sourceDir: "src",
		target:    "rajos",
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ELFPath returns the path of the linked ELF image under the build root.
func (p *Pipeline) ELFPath() string {
	return filepath.Join(p.buildDir, p.target+".elf")
}

// Run executes the full build: preflight, per-unit compile/assemble in
// declaration order, link, then binary and hex conversion. The first stage
// that exits nonzero aborts the run; remaining stages are never attempted.
// Artifacts written by earlier successful stages stay on disk. Run returns
// an error only for failures outside the stages themselves (missing tools,
// unstartable tools, filesystem errors); stage failures are reported in the
// BuildResult.
func (p *Pipeline) Run(ctx context.Context) (*BuildResult, error) {
	if len(p.units) == 0 {
		return nil, errors.New(errors.CodeInvalidInput, "no source units declared")
	}
	if err := toolchain.Preflight(p.tc, p.resolve); err != nil {
		return nil, errors.Wrap(err, errors.CodeToolchainMissing, "toolchain preflight failed")
	}

	result := &BuildResult{Status: StatusSuccess}

	objects, diag, err := p.buildUnits(ctx)
	if err != nil {
		return nil, err
	}
	for _, obj := range objects {
		result.Artifacts = append(result.Artifacts, Artifact{Path: obj, Role: RoleObject})
	}
	if diag != nil {
		result.Status = StatusFailed
		result.Diagnostics = append(result.Diagnostics, *diag)
		return result, nil
	}

	elf := p.ELFPath()
	diag, err = p.runStage(ctx, StageLink, nil, p.tc.Compiler, p.tc.LinkArgs(objects, elf))
	if err != nil {
		return nil, err
	}
	if diag != nil {
		result.Status = StatusFailed
		result.Diagnostics = append(result.Diagnostics, *diag)
		return result, nil
	}
	result.Artifacts = append(result.Artifacts, Artifact{Path: elf, Role: RoleImageELF})

	conversions := []struct {
		stage  Stage
		format string
		ext    string
		role   Role
	}{
		{StageConvertBinary, "binary", ".bin", RoleImageBinary},
		{StageConvertHex, "ihex", ".hex", RoleImageHex},
	}
	for _, conv := range conversions {
		out := filepath.Join(p.buildDir, p.target+conv.ext)
		diag, err = p.runStage(ctx, conv.stage, nil, p.tc.Converter, p.tc.ConvertArgs(conv.format, elf, out))
		if err != nil {
			return nil, err
		}
		if diag != nil {
			result.Status = StatusFailed
			result.Diagnostics = append(result.Diagnostics, *diag)
			return result, nil
		}
		result.Artifacts = append(result.Artifacts, Artifact{Path: out, Role: conv.role})
	}

	result.SizeReport = p.sizeReport(ctx, elf)

	p.logger.Info("build completed",
		"target", p.target,
		"artifacts", len(result.Artifacts))
	return result, nil
}

// buildUnits compiles and assembles every unit in declaration order,
// returning the object paths produced so far and a diagnostic for the first
// failing unit, if any.
func (p *Pipeline) buildUnits(ctx context.Context) ([]string, *Diagnostic, error) {
	var objects []string
	for i := range p.units {
		unit := p.units[i]
		src := filepath.Join(p.sourceDir, unit.Path)
		obj := p.objectPath(unit)

		if err := p.fsys.MkdirAll(filepath.Dir(obj), dirPerm); err != nil {
			return objects, nil, errors.Wrap(err, errors.CodeInternal, "cannot create object directory")
		}

		var stage Stage
		var program string
		var args []string
		switch unit.Kind {
		case KindAssemble:
			stage = StageAssemble
			program = p.tc.Assembler
			args = p.tc.AssembleArgs(src, obj)
		default:
			stage = StageCompile
			program = p.tc.Compiler
			args = p.tc.CompileArgs(src, obj)
		}

		p.logger.Debug("building unit", "stage", stage.String(), "source", unit.Path)
		diag, err := p.runStage(ctx, stage, &unit, program, args)
		if err != nil {
			return objects, nil, err
		}
		if diag != nil {
			return objects, diag, nil
		}
		objects = append(objects, obj)
	}
	return objects, nil, nil
}

// runStage invokes one tool and classifies the outcome. A nil, nil return
// means the stage succeeded; a non-nil Diagnostic means the stage ran and
// failed; a non-nil error means the tool could not be invoked at all.
func (p *Pipeline) runStage(ctx context.Context, stage Stage, unit *SourceUnit, program string, args []string) (*Diagnostic, error) {
	res, err := p.runner.Run(ctx, program, args)
	if err != nil {
		return nil, errors.WrapWithContext(err, errors.CodeToolInvocation,
			"tool could not be started",
			map[string]interface{}{"tool": program, "stage": stage.String()})
	}
	if res.ExitCode != 0 {
		diag := &Diagnostic{
			Stage:    stage,
			Unit:     unit,
			Stderr:   res.Stderr,
			ExitCode: res.ExitCode,
		}
		p.logger.Error("stage failed",
			"stage", stage.String(),
			"code", string(diag.Code()),
			"exit_code", res.ExitCode)
		return diag, nil
	}
	return nil, nil
}

// sizeReport runs the sizer on the linked ELF. A sizer failure does not fail
// the build; the report is simply empty.
func (p *Pipeline) sizeReport(ctx context.Context, elf string) string {
	res, err := p.runner.Run(ctx, p.tc.Sizer, p.tc.SizeArgs(elf))
	if err != nil || res.ExitCode != 0 {
		p.logger.Warn("size report unavailable", "elf", elf)
		return ""
	}
	return res.Stdout
}

// objectPath mirrors the unit's source-relative path under the build root,
// with the source extension replaced by ".o".
func (p *Pipeline) objectPath(unit SourceUnit) string {
	rel := unit.Path
	if ext := filepath.Ext(rel); ext != "" {
		rel = strings.TrimSuffix(rel, ext)
	}
	return filepath.Join(p.buildDir, rel+".o")
}

// Clean removes the entire build root tree. It is idempotent: cleaning a
// project that was never built is a no-op.
func (p *Pipeline) Clean() error {
	if err := p.fsys.RemoveAll(p.buildDir); err != nil {
		return errors.Wrap(err, errors.CodeInternal, "cannot remove build directory")
	}
	p.logger.Info("build directory cleaned", "dir", p.buildDir)
	return nil
}

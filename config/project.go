// Package config loads and validates the project manifest that drives a
// build. The manifest is a CUE file (rajos.cue by default) declaring the
// cross toolchain, the ordered source units, and emulator settings. Machine
// presets for the emulator live in a separate YAML file.
package config

import (
	"fmt"
	"strings"

	"github.com/rajmhetar/rajos/errors"
	"github.com/rajmhetar/rajos/pipeline"
	"github.com/rajmhetar/rajos/toolchain"
)

// Source kind names accepted in a manifest.
const (
	KindCompile  = "compileUnit"
	KindAssemble = "assembleUnit"
)

// Source is one translation unit declared in the manifest. Declaration
// order in the manifest is the link order.
type Source struct {
	Path string `json:"path"`
	Kind string `json:"kind"`
}

// Toolchain names the cross tools and their flag sets.
type Toolchain struct {
	Compiler       string   `json:"compiler"`
	Assembler      string   `json:"assembler"`
	Linker         string   `json:"linker"`
	Converter      string   `json:"converter"`
	Sizer          string   `json:"sizer"`
	CompilerFlags  []string `json:"compilerFlags"`
	AssemblerFlags []string `json:"assemblerFlags"`
	LinkerFlags    []string `json:"linkerFlags"`
	IncludeDirs    []string `json:"includeDirs"`
}

// Emulator holds the settings used to launch the built kernel.
type Emulator struct {
	Command   string   `json:"command"`
	Machine   string   `json:"machine"`
	CPU       string   `json:"cpu"`
	ExtraArgs []string `json:"extraArgs"`
}

// Project is the decoded manifest.
type Project struct {
	Target    string    `json:"target"`
	BuildDir  string    `json:"buildDir"`
	SourceDir string    `json:"sourceDir"`
	Toolchain Toolchain `json:"toolchain"`
	Sources   []Source  `json:"sources"`
	Emulator  Emulator  `json:"emulator"`
}

// DefaultProject returns the manifest used when no rajos.cue is present.
// The source list matches the stock kernel layout.
func DefaultProject() *Project {
	tc := toolchain.Default()
	return &Project{
		Target:    "rajos",
		BuildDir:  "build",
		SourceDir: "src",
		Toolchain: Toolchain{
			Compiler:       tc.Compiler,
			Assembler:      tc.Assembler,
			Linker:         tc.Linker,
			Converter:      tc.Converter,
			Sizer:          tc.Sizer,
			CompilerFlags:  tc.CompilerFlags,
			AssemblerFlags: tc.AssemblerFlags,
			LinkerFlags:    tc.LinkerFlags,
			IncludeDirs:    tc.IncludeDirs,
		},
		Sources: []Source{
			{Path: "arch/arm/startup.s", Kind: KindAssemble},
			{Path: "kernel/kernel.c", Kind: KindCompile},
			{Path: "drivers/uart.c", Kind: KindCompile},
			{Path: "drivers/timer.c", Kind: KindCompile},
			{Path: "kernel/task.c", Kind: KindCompile},
		},
		Emulator: Emulator{
			Command: "qemu-system-arm",
			Machine: "versatileab",
			CPU:     "arm926",
		},
	}
}

// Validate performs the referential checks the schema cannot express.
// All problems are collected and reported in a single error.
func (p *Project) Validate() error {
	var problems []string

	if p.Target == "" {
		problems = append(problems, "target must not be empty")
	}
	if p.BuildDir == "" {
		problems = append(problems, "buildDir must not be empty")
	}
	if len(p.Sources) == 0 {
		problems = append(problems, "at least one source unit is required")
	}
	for i, src := range p.Sources {
		if src.Path == "" {
			problems = append(problems, fmt.Sprintf("sources[%d]: path must not be empty", i))
		}
		if src.Kind != KindCompile && src.Kind != KindAssemble {
			problems = append(problems, fmt.Sprintf("sources[%d]: unknown kind %q", i, src.Kind))
		}
	}
	if p.Emulator.Command == "" {
		problems = append(problems, "emulator.command must not be empty")
	}

	if len(problems) > 0 {
		return errors.New(
			errors.CodeInvalidConfig,
			fmt.Sprintf("manifest validation failed: %s", strings.Join(problems, "; ")),
		)
	}
	return nil
}

// ToolchainConfig maps the manifest's toolchain section onto the
// pipeline's toolchain configuration.
func (p *Project) ToolchainConfig() toolchain.Config {
	return toolchain.Config{
		Compiler:       p.Toolchain.Compiler,
		Assembler:      p.Toolchain.Assembler,
		Linker:         p.Toolchain.Linker,
		Converter:      p.Toolchain.Converter,
		Sizer:          p.Toolchain.Sizer,
		CompilerFlags:  p.Toolchain.CompilerFlags,
		AssemblerFlags: p.Toolchain.AssemblerFlags,
		LinkerFlags:    p.Toolchain.LinkerFlags,
		IncludeDirs:    p.Toolchain.IncludeDirs,
	}
}

// Units converts the manifest sources to pipeline units, preserving
// declaration order.
func (p *Project) Units() []pipeline.SourceUnit {
	units := make([]pipeline.SourceUnit, 0, len(p.Sources))
	for _, src := range p.Sources {
		kind := pipeline.KindCompile
		if src.Kind == KindAssemble {
			kind = pipeline.KindAssemble
		}
		units = append(units, pipeline.SourceUnit{Path: src.Path, Kind: kind})
	}
	return units
}

// EmulatorArgs builds the argument vector for launching the emulator
// against the given kernel image. serialFile, when non-empty, mirrors the
// serial console into a file alongside the console.
func (p *Project) EmulatorArgs(kernel, serialFile string) []string {
	args := []string{
		"-M", p.Emulator.Machine,
		"-cpu", p.Emulator.CPU,
		"-kernel", kernel,
		"-nographic",
	}
	if serialFile != "" {
		args = append(args, "-serial", "file:"+serialFile)
	}
	args = append(args, p.Emulator.ExtraArgs...)
	return args
}

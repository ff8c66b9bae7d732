// Package toolchain describes the fixed set of external cross-build tools
// the pipeline invokes, their flag sets, and the preflight check that every
// tool is resolvable before any stage runs.
package toolchain

import (
	"os/exec"
	"path/filepath"
)

// Default tool command names for the ARM GNU bare-metal toolchain.
const (
	DefaultCompiler  = "arm-none-eabi-gcc"
	DefaultAssembler = "arm-none-eabi-as"
	DefaultLinker    = "arm-none-eabi-ld"
	DefaultConverter = "arm-none-eabi-objcopy"
	DefaultSizer     = "arm-none-eabi-size"
)

// Config holds the tool command names, flag sets, and include paths for one
// build invocation. It is immutable for the lifetime of the build.
type Config struct {
	// Compiler compiles C sources and drives the final link.
	Compiler string

	// Assembler assembles .s sources.
	Assembler string

	// Linker is the standalone linker; the link stage goes through Compiler
	// so the linker flag set is honored, but the tool must still resolve.
	Linker string

	// Converter produces binary and hex images from the linked ELF.
	Converter string

	// Sizer reports section sizes of the linked ELF.
	Sizer string

	// CompilerFlags are passed to every compile invocation.
	CompilerFlags []string

	// AssemblerFlags are passed to every assemble invocation.
	AssemblerFlags []string

	// LinkerFlags are passed to the link invocation.
	LinkerFlags []string

	// IncludeDirs are added to every compile invocation as -I paths.
	IncludeDirs []string
}

// Default returns the toolchain configuration for the RajOS ARM926EJ-S target.
func Default() Config {
	return Config{
		Compiler:  DefaultCompiler,
		Assembler: DefaultAssembler,
		Linker:    DefaultLinker,
		Converter: DefaultConverter,
		Sizer:     DefaultSizer,
		CompilerFlags: []string{
			"-mcpu=arm926ej-s",
			"-marm",
			"-mfloat-abi=soft",
			"-fno-common",
			"-ffunction-sections",
			"-fdata-sections",
			"-Wall",
			"-Wextra",
			"-std=c99",
			"-Os",
			"-DRAJOS_SEMIHOSTING",
		},
		AssemblerFlags: []string{"-mcpu=arm926ej-s"},
		LinkerFlags: []string{
			"-mcpu=arm926ej-s",
			"-marm",
			"-nostdlib",
			"-nostartfiles",
			"-Wl,--gc-sections",
			"-Wl,--print-memory-usage",
			"-T", "linker.ld",
		},
		IncludeDirs: []string{
			filepath.Join("src", "include"),
			filepath.Join("src", "include", "kernel"),
			filepath.Join("src", "include", "arch"),
			filepath.Join("src", "include", "drivers"),
		},
	}
}

// Tools returns the tool command names in a stable order.
func (c Config) Tools() []string {
	return []string{c.Compiler, c.Assembler, c.Linker, c.Converter, c.Sizer}
}

// CompileArgs builds the compiler argument vector for one C source.
func (c Config) CompileArgs(source, object string) []string {
	args := append([]string{}, c.CompilerFlags...)
	args = append(args, "-c", source, "-o", object)
	for _, dir := range c.IncludeDirs {
		args = append(args, "-I", dir)
	}
	return args
}

// AssembleArgs builds the assembler argument vector for one assembly source.
func (c Config) AssembleArgs(source, object string) []string {
	args := append([]string{}, c.AssemblerFlags...)
	args = append(args, "-c", source, "-o", object)
	return args
}

// LinkArgs builds the link argument vector. Object order is preserved as
// given: the entry object must stay first on the command line.
func (c Config) LinkArgs(objects []string, output string) []string {
	args := append([]string{}, c.LinkerFlags...)
	args = append(args, objects...)
	args = append(args, "-o", output)
	return args
}

// ConvertArgs builds the converter argument vector for the given objcopy
// output format ("binary" or "ihex").
func (c Config) ConvertArgs(format, input, output string) []string {
	return []string{"-O", format, input, output}
}

// SizeArgs builds the sizer argument vector for the linked ELF.
func (c Config) SizeArgs(elf string) []string {
	return []string{elf}
}

// Resolver resolves a tool command name to an executable path.
type Resolver interface {
	LookPath(name string) (string, error)
}

// ExecResolver resolves tools through the system PATH.
type ExecResolver struct{}

// LookPath implements Resolver using os/exec.
func (ExecResolver) LookPath(name string) (string, error) {
	return exec.LookPath(name)
}

// Preflight verifies every tool in the configuration is resolvable. It checks
// all tools before returning so the caller gets the complete set of missing
// tools in one round trip. Returns a *MissingToolsError naming every missing
// tool, or nil when the toolchain is complete.
func Preflight(cfg Config, resolver Resolver) error {
	var missing []string
	for _, tool := range cfg.Tools() {
		if _, err := resolver.LookPath(tool); err != nil {
			missing = append(missing, tool)
		}
	}
	if len(missing) > 0 {
		return &MissingToolsError{Missing: missing}
	}
	return nil
}

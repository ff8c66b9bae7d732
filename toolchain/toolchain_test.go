package toolchain

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeResolver resolves only the tools listed in present.
type fakeResolver struct {
	present map[string]bool
	queried []string
}

func (r *fakeResolver) LookPath(name string) (string, error) {
	r.queried = append(r.queried, name)
	if r.present[name] {
		return "/usr/bin/" + name, nil
	}
	return "", fmt.Errorf("%s: executable file not found in $PATH", name)
}

func TestPreflightAllPresent(t *testing.T) {
	cfg := Default()
	resolver := &fakeResolver{present: map[string]bool{}}
	for _, tool := range cfg.Tools() {
		resolver.present[tool] = true
	}

	require.NoError(t, Preflight(cfg, resolver))
	assert.Len(t, resolver.queried, len(cfg.Tools()))
}

func TestPreflightAggregatesAllMissing(t *testing.T) {
	cfg := Default()
	resolver := &fakeResolver{present: map[string]bool{
		cfg.Compiler: true,
		cfg.Linker:   true,
		cfg.Sizer:    true,
	}}

	err := Preflight(cfg, resolver)
	require.Error(t, err)

	var me *MissingToolsError
	require.ErrorAs(t, err, &me)
	assert.Equal(t, []string{cfg.Assembler, cfg.Converter}, me.Missing)
	assert.True(t, IsMissingToolsError(err))
}

func TestCompileArgs(t *testing.T) {
	cfg := Config{
		Compiler:      "cc",
		CompilerFlags: []string{"-Wall", "-Os"},
		IncludeDirs:   []string{"src/include"},
	}

	args := cfg.CompileArgs("src/kernel/kernel.c", "build/src/kernel/kernel.o")
	assert.Equal(t, []string{
		"-Wall", "-Os",
		"-c", "src/kernel/kernel.c",
		"-o", "build/src/kernel/kernel.o",
		"-I", "src/include",
	}, args)
}

func TestLinkArgsPreservesObjectOrder(t *testing.T) {
	cfg := Config{LinkerFlags: []string{"-nostdlib", "-T", "linker.ld"}}
	objects := []string{"build/startup.o", "build/kernel.o", "build/uart.o"}

	args := cfg.LinkArgs(objects, "build/rajos.elf")
	assert.Equal(t, []string{
		"-nostdlib", "-T", "linker.ld",
		"build/startup.o", "build/kernel.o", "build/uart.o",
		"-o", "build/rajos.elf",
	}, args)
}

func TestConvertArgs(t *testing.T) {
	cfg := Default()
	assert.Equal(t,
		[]string{"-O", "binary", "build/rajos.elf", "build/rajos.bin"},
		cfg.ConvertArgs("binary", "build/rajos.elf", "build/rajos.bin"))
	assert.Equal(t,
		[]string{"-O", "ihex", "build/rajos.elf", "build/rajos.hex"},
		cfg.ConvertArgs("ihex", "build/rajos.elf", "build/rajos.hex"))
}

func TestDefaultToolNames(t *testing.T) {
	cfg := Default()
	assert.Equal(t, []string{
		"arm-none-eabi-gcc",
		"arm-none-eabi-as",
		"arm-none-eabi-ld",
		"arm-none-eabi-objcopy",
		"arm-none-eabi-size",
	}, cfg.Tools())
}

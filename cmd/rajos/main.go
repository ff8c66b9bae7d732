// Command rajos drives the RajOS build pipeline and runs the resulting
// kernel under an emulator.
//
// Usage:
//
//	rajos build [-config rajos.cue] [-v]
//	rajos clean [-config rajos.cue]
//	rajos run   [-config rajos.cue] [-machine name] [-serial file] [-output file] [-timestamps] [-v]
//	rajos size  [-config rajos.cue]
package main

import (
	"fmt"
	"log/slog"
	"os"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	var code int
	switch os.Args[1] {
	case "build":
		code, err = runBuild(os.Args[2:])
	case "clean":
		code, err = runClean(os.Args[2:])
	case "run":
		code, err = runEmulator(os.Args[2:])
	case "size":
		code, err = runSize(os.Args[2:])
	case "help", "-h", "--help":
		usage()
		return
	default:
		fmt.Fprintf(os.Stderr, "rajos: unknown command %q\n\n", os.Args[1])
		usage()
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, "rajos:", err)
		if code == 0 {
			code = 1
		}
	}
	os.Exit(code)
}

func usage() {
	fmt.Fprintln(os.Stderr, `rajos builds and runs the RajOS kernel.

Commands:
  build   compile, assemble, link, and produce kernel images
  clean   remove the build directory
  run     launch the built kernel under QEMU
  size    print the section size report for the linked kernel

Run "rajos <command> -h" for command flags.`)
}

// newLogger builds the process logger. Verbose enables debug records.
func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

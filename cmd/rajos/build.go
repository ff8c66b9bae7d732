package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/rajmhetar/rajos/broker"
	"github.com/rajmhetar/rajos/config"
	"github.com/rajmhetar/rajos/executor"
	"github.com/rajmhetar/rajos/fs"
	"github.com/rajmhetar/rajos/pipeline"
	"github.com/rajmhetar/rajos/toolchain"
)

// loadProject resolves and loads the manifest, falling back to the stock
// project when none exists anywhere on the search path.
func loadProject(fsys fs.Filesystem, explicit string, logger *slog.Logger) (*config.Project, error) {
	path, external, err := config.LocateManifest(fsys, explicit)
	if err != nil {
		if explicit != "" {
			return nil, err
		}
		logger.Debug("no manifest found, using built-in defaults")
		return config.DefaultProject(), nil
	}

	if external {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read manifest %s: %w", path, err)
		}
		logger.Debug("loaded manifest", "path", path)
		return config.LoadProjectBytes(data, path)
	}

	logger.Debug("loaded manifest", "path", path)
	return config.LoadProject(fsys, path)
}

func newPipeline(project *config.Project, queue *broker.Queue, logger *slog.Logger) *pipeline.Pipeline {
	return pipeline.New(
		project.ToolchainConfig(),
		project.Units(),
		pipeline.WithFilesystem(fs.NewOSFS(".")),
		pipeline.WithBuildDir(project.BuildDir),
		pipeline.WithSourceDir(project.SourceDir),
		pipeline.WithTarget(project.Target),
		pipeline.WithEventQueue(queue),
		pipeline.WithLogger(logger),
	)
}

func runBuild(args []string) (int, error) {
	flags := flag.NewFlagSet("build", flag.ExitOnError)
	configPath := flags.String("config", "", "manifest path (default: rajos.cue, then XDG config)")
	verbose := flags.Bool("v", false, "enable debug logging")
	if err := flags.Parse(args); err != nil {
		return 2, err
	}

	logger := newLogger(*verbose)
	fsys := fs.NewOSFS(".")

	project, err := loadProject(fsys, *configPath, logger)
	if err != nil {
		return 1, err
	}

	// Tool output is streamed line by line through the broker so build and
	// run share one console path.
	queue := broker.NewQueue()
	br := broker.New(queue, broker.WithSinks(broker.ConsoleSink(false)), broker.WithLogger(logger))
	go br.Run()

	p := newPipeline(project, queue, logger)
	result, err := p.Run(context.Background())

	queue.Close()
	<-br.Done()

	if err != nil {
		if toolchain.IsMissingToolsError(err) {
			fmt.Fprintln(os.Stderr, "rajos: toolchain incomplete:", err)
			fmt.Fprintln(os.Stderr, "install the arm-none-eabi toolchain and ensure it is on PATH")
			return 1, nil
		}
		return 1, err
	}

	if result.Status == pipeline.StatusFailed {
		for _, d := range result.Diagnostics {
			printDiagnostic(d)
		}
		return 1, nil
	}

	for _, a := range result.Artifacts {
		fmt.Printf("  %-12s %s\n", a.Role, a.Path)
	}
	if result.SizeReport != "" {
		fmt.Println()
		fmt.Print(result.SizeReport)
	}
	fmt.Printf("built %s\n", p.ELFPath())
	return 0, nil
}

func printDiagnostic(d pipeline.Diagnostic) {
	loc := d.Stage.String()
	if d.Unit != nil {
		loc = fmt.Sprintf("%s %s", d.Stage, d.Unit.Path)
	}
	fmt.Fprintf(os.Stderr, "%s failed (%s, exit %d)\n", loc, d.Code(), d.ExitCode)
	if stderr := strings.TrimSpace(d.Stderr); stderr != "" {
		fmt.Fprintln(os.Stderr, stderr)
	}
}

func runClean(args []string) (int, error) {
	flags := flag.NewFlagSet("clean", flag.ExitOnError)
	configPath := flags.String("config", "", "manifest path")
	if err := flags.Parse(args); err != nil {
		return 2, err
	}

	logger := newLogger(false)
	fsys := fs.NewOSFS(".")

	project, err := loadProject(fsys, *configPath, logger)
	if err != nil {
		return 1, err
	}

	p := newPipeline(project, nil, logger)
	if err := p.Clean(); err != nil {
		return 1, err
	}
	fmt.Printf("removed %s\n", project.BuildDir)
	return 0, nil
}

func runSize(args []string) (int, error) {
	flags := flag.NewFlagSet("size", flag.ExitOnError)
	configPath := flags.String("config", "", "manifest path")
	if err := flags.Parse(args); err != nil {
		return 2, err
	}

	logger := newLogger(false)
	fsys := fs.NewOSFS(".")

	project, err := loadProject(fsys, *configPath, logger)
	if err != nil {
		return 1, err
	}

	p := newPipeline(project, nil, logger)
	elf := p.ELFPath()
	ok, err := fsys.Exists(elf)
	if err != nil {
		return 1, err
	}
	if !ok {
		return 1, fmt.Errorf("%s not found, run \"rajos build\" first", elf)
	}

	tc := project.ToolchainConfig()
	result, err := executor.New(tc.Sizer, tc.SizeArgs(elf)...).Execute(context.Background())
	if err != nil {
		return 1, err
	}
	fmt.Print(result.Stdout)
	if result.ExitCode != 0 {
		fmt.Fprint(os.Stderr, result.Stderr)
		return 1, nil
	}
	return 0, nil
}

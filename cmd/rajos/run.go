package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rajmhetar/rajos/broker"
	"github.com/rajmhetar/rajos/config"
	rerrors "github.com/rajmhetar/rajos/errors"
	"github.com/rajmhetar/rajos/fs"
	"github.com/rajmhetar/rajos/supervisor"
)

// stopTimeout is how long a graceful shutdown request waits before the
// emulator is killed.
const stopTimeout = 5 * time.Second

func runEmulator(args []string) (int, error) {
	flags := flag.NewFlagSet("run", flag.ExitOnError)
	configPath := flags.String("config", "", "manifest path")
	machine := flags.String("machine", "", "machine preset name (overrides the manifest)")
	presetsPath := flags.String("presets", "", "machine presets file (default: machines.yaml if present)")
	serialFile := flags.String("serial", "", "mirror the serial console into this file via the emulator")
	outputFile := flags.String("output", "", "write all console lines to this file")
	timestamps := flags.Bool("timestamps", false, "prefix console lines with wall-clock timestamps")
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

	if err := applyMachinePreset(fsys, project, *machine, *presetsPath); err != nil {
		return 1, err
	}

	elf := newPipeline(project, nil, logger).ELFPath()
	ok, err := fsys.Exists(elf)
	if err != nil {
		return 1, err
	}
	if !ok {
		return 1, fmt.Errorf("%s not found, run \"rajos build\" first", elf)
	}

	sinks := []broker.Sink{broker.ConsoleSink(*timestamps)}
	var fileSink *broker.FileSink
	if *outputFile != "" {
		fileSink, err = broker.NewFileSink(fsys, *outputFile)
		if err != nil {
			return 1, err
		}
		sinks = append(sinks, fileSink)
	}

	queue := broker.NewQueue()
	br := broker.New(queue, broker.WithSinks(sinks...), broker.WithLogger(logger))
	go br.Run()

	sup := supervisor.New(queue, supervisor.WithLogger(logger))
	handle, err := sup.Start(project.Emulator.Command, project.EmulatorArgs(elf, *serialFile)...)
	if err != nil {
		queue.Close()
		<-br.Done()
		code := rerrors.CodeProcessSpawn
		if rerrors.Is(err, supervisor.ErrAlreadyRunning) {
			code = rerrors.CodeAlreadyRunning
		}
		return 1, rerrors.Wrap(err, code, "cannot launch emulator")
	}
	logger.Info("emulator started",
		"command", project.Emulator.Command,
		"machine", project.Emulator.Machine,
		"cpu", project.Emulator.CPU,
		"kernel", elf,
	)

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-interrupt
		signal.Stop(interrupt)
		logger.Info("shutting down emulator")
		sup.Stop(stopTimeout)
	}()

	<-handle.Done()
	queue.Close()
	<-br.Done()
	if fileSink != nil {
		if err := fileSink.Close(); err != nil {
			logger.Warn("failed to close output file", "error", err)
		}
	}

	switch handle.State() {
	case supervisor.StateStopped:
		return 0, nil
	case supervisor.StateFailed:
		if code := handle.ExitCode(); code > 0 {
			return code, rerrors.Wrap(handle.Err(), rerrors.CodeProcessExit, "emulator failed")
		}
		return 1, handle.Err()
	default:
		return 1, fmt.Errorf("emulator ended in unexpected state %s", handle.State())
	}
}

// applyMachinePreset overrides the manifest's emulator board from the
// preset table when -machine is given.
func applyMachinePreset(fsys fs.Filesystem, project *config.Project, name, presetsPath string) error {
	if name == "" {
		return nil
	}

	presets := config.DefaultPresets()
	path := presetsPath
	if path == "" {
		if ok, _ := fsys.Exists(config.PresetsName); ok {
			path = config.PresetsName
		}
	}
	if path != "" {
		loaded, err := config.LoadPresets(fsys, path)
		if err != nil {
			return err
		}
		presets = loaded
	}

	preset, err := config.FindPreset(presets, name)
	if err != nil {
		return err
	}
	project.Emulator.Machine = preset.Machine
	project.Emulator.CPU = preset.CPU
	return nil
}

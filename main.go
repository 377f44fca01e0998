package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"kobuki-controller/script"
)

const (
	ProjectName    = "kobuki-controller"
	ProjectVersion = "1.0.0"
)

func printVersion() {
	fmt.Printf("%s v%s\n", ProjectName, ProjectVersion)
}

func printHelp(fs *pflag.FlagSet) {
	printVersion()
	fmt.Println("Runs a movement script on a Kobuki base: LED and drive commands sent as")
	fmt.Println("binary frames to the robot bridge.")
	fmt.Println()
	fs.PrintDefaults()
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := NewFlagSet(ProjectName)
	fs.Usage = func() { printHelp(fs) }

	opts, err := LoadOptions(fs, args)
	if errors.Is(err, pflag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}

	if opts.Version {
		printVersion()
		return 0
	}

	if opts.Help {
		printHelp(fs)
		return 0
	}

	logger := NewLeveledLogger(opts.LogLevel, opts.LogFile)
	defer logger.Sync()

	sc, err := script.ParseFile(opts.ScriptFile, logger)
	if err != nil {
		logger.Error("Failed to load script: %v", err)
		return 1
	}

	app, err := NewControllerApp(opts, logger)
	if err != nil {
		logger.Error("Failed to create controller: %v", err)
		return 1
	}
	defer app.Destroy()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer stop()

	if err := app.Run(ctx, sc); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Info("Run interrupted, robot stopped")
			return 0
		}
		logger.Error("Run failed: %v", err)
		return 1
	}

	logger.Info("Script finished")
	return 0
}

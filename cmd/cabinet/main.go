// Cabinet is the command-line client of the ingredient cabinet backend.
//
// Usage:
//
//	cabinet [-env-file .env] [-log-level debug] <command> [args]
//
// Run without a command to list them. Configuration is read from the
// environment; see internal/pkg/config.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"maps"
	"os"
	"os/signal"
	"slices"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/sdm/cabinet-client/internal/pkg/config"
	"github.com/sdm/cabinet-client/pkg/logger"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("cabinet", flag.ContinueOnError)
	fs.SetOutput(stderr)
	envFile := fs.String("env-file", ".env", "dotenv file loaded before reading the environment")
	logLevel := fs.String("log-level", "", "override LOG_LEVEL")
	fs.Usage = func() { usage(fs, stderr) }
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		usage(fs, stderr)
		return 2
	}
	cmd, ok := commands[fs.Arg(0)]
	if !ok {
		fmt.Fprintf(stderr, "unknown command %q\n\n", fs.Arg(0))
		usage(fs, stderr)
		return 2
	}

	// A missing dotenv file is fine; the environment may be set already.
	_ = godotenv.Load(*envFile)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: !cfg.IsProduction(),
		Output: stderr,
	})

	a, err := newApp(ctx, cfg, newConsole(stdin, stdout), log)
	if err != nil {
		log.Error().Err(err).Msg("startup failed")
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	defer a.Close()

	return a.exitCode(cmd.run(ctx, a, fs.Args()[1:]), stderr)
}

// exitCode reports err to the user the same way the UI shell would.
func (a *app) exitCode(err error, stderr io.Writer) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, errShown):
		return 1
	case errors.Is(err, flag.ErrHelp):
		return 2
	}
	report := a.reporter.Resolve(err)
	if report.Silent {
		return 0
	}
	fmt.Fprintf(stderr, "error: %s\n", report.Message)
	return 1
}

func usage(fs *flag.FlagSet, w io.Writer) {
	fmt.Fprintln(w, "usage: cabinet [flags] <command> [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "commands:")
	for _, name := range slices.Sorted(maps.Keys(commands)) {
		fmt.Fprintf(w, "  %s\n", commands[name].usage)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "flags:")
	fs.PrintDefaults()
}

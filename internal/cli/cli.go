package cli

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/specialistvlad/flowspec/internal/app"
	"github.com/specialistvlad/flowspec/internal/source"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Parse processes command-line arguments. It returns a populated Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("flowspec", flag.ContinueOnError)
	flagSet.SetOutput(output)

	// Custom usage/help text function
	flagSet.Usage = func() {
		fmt.Fprint(output, `
FlowSpec - A compiler for declarative generative-AI application specs.

Usage:
  flowspec [options] [SPEC_PATH]

Arguments:
  SPEC_PATH
    Path to a .yaml file, a directory of .yaml files, or a remote URI.

Options:
`)
		flagSet.PrintDefaults()
	}

	specFlag := flagSet.String("spec", "", "Path or URI of the specification.")
	sFlag := flagSet.String("s", "", "Path or URI of the specification (shorthand).")
	emitFlag := flagSet.String("emit", "none", "What to print on success. Options: 'none' or 'yaml'.")
	skipChecksFlag := flagSet.Bool("skip-checks", false, "Stop after linking and lowering, without semantic checks.")
	includeDepthFlag := flagSet.Int("max-include-depth", source.DefaultMaxIncludeDepth, "Bound on recursive include expansion.")
	logFormatFlag := flagSet.String("log-format", "json", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	path := ""
	if *specFlag != "" {
		path = *specFlag
	} else if *sFlag != "" {
		path = *sFlag
	} else if flagSet.NArg() > 0 {
		path = flagSet.Arg(0)
	}
	slog.Debug("Specification path determined.", "path", path)

	if path == "" {
		slog.Debug("No specification path provided, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}

	emit := strings.ToLower(*emitFlag)
	if emit != "none" && emit != "yaml" {
		return nil, false, &ExitError{Code: 2, Message: "invalid emit: must be 'none' or 'yaml'"}
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}
	slog.Debug("CLI parameter validation complete.")

	config, err := app.NewConfig(app.Config{
		SpecPath:        path,
		Emit:            emit,
		SkipChecks:      *skipChecksFlag,
		MaxIncludeDepth: *includeDepthFlag,
		LogFormat:       logFormat,
		LogLevel:        logLevel,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}

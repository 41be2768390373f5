package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/vk/bremsim/internal/app"
)

// Environment variables read by Parse.
const (
	EnvLogLevel  = "BREMSIM_LOG_LEVEL"
	EnvLogFormat = "BREMSIM_LOG_FORMAT"
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

const usage = `
bremsim - bremsstrahlung foil simulation.

Usage:
  bremsim              start an interactive session (runs ./run.hcl first if present)
  bremsim -m MACRO     execute MACRO (.hcl, .yaml or .yml) in batch mode

Environment:
  BREMSIM_LOG_LEVEL    debug, info, warn or error (default info)
  BREMSIM_LOG_FORMAT   text or json (default text)
`

// Parse maps the command line onto an app.Config. Exactly two shapes are
// accepted: no arguments, or "-m <macro>". Anything else prints the usage to
// errW and returns an ExitError with code 1.
func Parse(args []string, getenv func(string) string, errW io.Writer) (*app.Config, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("bremsim", flag.ContinueOnError)
	flagSet.SetOutput(io.Discard)
	macroFlag := flagSet.String("m", "", "Path to the macro to execute in batch mode.")

	fail := func(msg string) error {
		fmt.Fprint(errW, usage)
		return &ExitError{Code: 1, Message: msg}
	}

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, fail("help requested")
		}
		return nil, fail(err.Error())
	}
	if flagSet.NArg() > 0 {
		return nil, fail(fmt.Sprintf("unexpected argument: %s", flagSet.Arg(0)))
	}
	// The flag package also takes "-m=x", "--m x" and repeated flags.
	batch := len(args) == 2 && args[0] == "-m"
	if len(args) != 0 && !batch {
		return nil, fail("expected no arguments or -m <macro>")
	}
	if batch && *macroFlag == "" {
		return nil, fail("-m requires a macro path")
	}
	slog.Debug("Arguments parsed successfully.", "batch", batch, "macro", *macroFlag)

	logLevel := strings.ToLower(getenv(EnvLogLevel))
	switch logLevel {
	case "":
		logLevel = "info"
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, &ExitError{Code: 1, Message: "invalid " + EnvLogLevel + ": must be 'debug', 'info', 'warn', or 'error'"}
	}

	logFormat := strings.ToLower(getenv(EnvLogFormat))
	switch logFormat {
	case "":
		logFormat = "text"
	case "text", "json":
		// valid
	default:
		return nil, &ExitError{Code: 1, Message: "invalid " + EnvLogFormat + ": must be 'text' or 'json'"}
	}

	config, err := app.NewConfig(app.Config{
		MacroPath:   *macroFlag,
		Interactive: !batch,
		LogLevel:    logLevel,
		LogFormat:   logFormat,
	})
	if err != nil {
		return nil, &ExitError{Code: 1, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, nil
}

package cli

import (
	"flag"
	"fmt"
	"io"
	"runtime"
	"strings"

	"github.com/vk/flowgridgo/internal/app"
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

// Parse processes command-line arguments. It returns a populated
// app.Config, a boolean indicating if the program should exit cleanly, or
// an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	flagSet := flag.NewFlagSet("flowgridgo", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
FlowGridGo - A declarative pipeline engine for video and image analytics.

Usage:
  flowgridgo [options] [JOB_PATH]

Arguments:
  JOB_PATH
    Path to a YAML job request file.

Options:
`)
		flagSet.PrintDefaults()
	}

	jobFlag := flagSet.String("job", "", "Path to the YAML job request file.")
	jFlag := flagSet.String("j", "", "Path to the YAML job request file (shorthand).")
	modulesPathFlag := flagSet.String("modules-path", "modules", "Path to the directory containing module manifests.")
	pipelinesPathFlag := flagSet.String("pipelines-path", "pipelines", "Path to the directory containing pipeline manifests.")
	modelsPathFlag := flagSet.String("models-path", "", "Path to the local model store. Empty disables model resolution.")
	binDirFlag := flagSet.String("module-bin-dir", "", "Directory holding module executables. Empty uses PATH.")
	workersFlag := flagSet.Int("workers", runtime.NumCPU(), "Number of modules allowed to run concurrently.")
	nodeTimeoutFlag := flagSet.Duration("node-timeout", 0, "Per-module execution timeout. 0 disables.")
	healthPortFlag := flagSet.Int("healthcheck-port", 0, "Port for the HTTP health check server. 0 is disabled.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	path := ""
	if *jobFlag != "" {
		path = *jobFlag
	} else if *jFlag != "" {
		path = *jFlag
	} else if flagSet.NArg() > 0 {
		path = flagSet.Arg(0)
	}

	if path == "" {
		flagSet.Usage()
		return nil, true, nil
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

	if *nodeTimeoutFlag < 0 {
		return nil, false, &ExitError{Code: 2, Message: "invalid node-timeout: must not be negative"}
	}

	config, err := app.NewConfig(app.Config{
		JobPath:         path,
		ModulesPath:     *modulesPathFlag,
		PipelinesPath:   *pipelinesPathFlag,
		ModelsPath:      *modelsPathFlag,
		ModuleBinDir:    *binDirFlag,
		HealthcheckPort: *healthPortFlag,
		LogFormat:       logFormat,
		LogLevel:        logLevel,
		Workers:         *workersFlag,
		NodeTimeout:     *nodeTimeoutFlag,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	return config, false, nil
}

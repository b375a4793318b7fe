// converter turns the Vivassit onboarding workflow export into its
// webhook-driven version.
//
// Usage:
//
//	converter                      convert n8n-workflow-original.json into n8n-workflow-webhook-ready.json
//	converter -i in.json -o out.json
//	converter simulate [--payload body.json] [--object]
//	converter inspect [workflow.json] [--format yaml|json|table|markdown]
package main

import (
	"errors"
	"fmt"
	"os"

	"vivassit/converter/internal/config"
	"vivassit/converter/internal/logging"
	"vivassit/converter/internal/rewriter"
)

const (
	ExitSuccess    = 0
	ExitError      = 1
	ExitParseError = 2
	ExitWriteError = 3
)

func main() {
	cfg := config.Load()
	logging.Setup(cfg.LogLevel, cfg.LogFormat)

	if err := newRootCmd(cfg).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}

// exitCode maps an error returned by a command to the process exit status.
func exitCode(err error) int {
	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, rewriter.ErrParse):
		return ExitParseError
	case errors.Is(err, rewriter.ErrWrite):
		return ExitWriteError
	default:
		return ExitError
	}
}

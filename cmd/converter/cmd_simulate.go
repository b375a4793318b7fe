package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"vivassit/converter/internal/config"
	"vivassit/converter/internal/logging"
	"vivassit/converter/internal/rewriter"
	"vivassit/converter/internal/simulate"
)

type simulateFlags struct {
	payloadPath string
	asObject    bool
	timeout     time.Duration
}

func newSimulateCmd(cfg *config.Config) *cobra.Command {
	flags := &simulateFlags{}

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run the processor node script against a sample webhook request",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSimulate(cmd, flags)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&flags.payloadPath, "payload", "p", "", "JSON request body (default: built-in onboarding sample)")
	f.BoolVar(&flags.asObject, "object", false, "Deliver the body as a parsed object instead of a raw JSON string")
	f.DurationVar(&flags.timeout, "timeout", cfg.SimulateTimeout, "Script time budget")
	return cmd
}

func runSimulate(cmd *cobra.Command, flags *simulateFlags) error {
	log := logging.New("simulate")

	var payload interface{} = simulate.SampleOnboardingPayload()
	if flags.payloadPath != "" {
		data, err := os.ReadFile(flags.payloadPath)
		if err != nil {
			return fmt.Errorf("read payload: %w", err)
		}
		if err := json.Unmarshal(data, &payload); err != nil {
			return fmt.Errorf("parse payload %s: %w", flags.payloadPath, err)
		}
	}

	body := payload
	if !flags.asObject {
		raw, err := simulate.RawBody(payload)
		if err != nil {
			return err
		}
		body = raw
	}

	runner := &simulate.Runner{Timeout: flags.timeout}
	res, err := runner.Run(cmd.Context(), rewriter.ProcessorScript, []map[string]interface{}{simulate.WebhookItem(body)})
	if err != nil {
		return fmt.Errorf("simulate %s: %w", rewriter.ProcessorNodeName, err)
	}
	for _, line := range res.Logs {
		log.Debug("script output", "line", line)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(res.Output)
}

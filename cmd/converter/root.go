package main

import (
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"vivassit/converter/internal/audit"
	"vivassit/converter/internal/config"
	"vivassit/converter/internal/logging"
	"vivassit/converter/internal/models"
	"vivassit/converter/internal/rewriter"
)

// version is set at build time via -ldflags.
var version = "dev"

type convertFlags struct {
	input   string
	output  string
	natsURL string
}

func newRootCmd(cfg *config.Config) *cobra.Command {
	flags := &convertFlags{}

	root := &cobra.Command{
		Use:   "converter",
		Short: "Convert the Vivassit onboarding workflow to a webhook trigger",
		Long: "converter replaces the manual trigger and test-data nodes of the Vivassit\n" +
			"onboarding workflow with a webhook and a payload-normalising code node.\n" +
			"Without arguments it reads " + config.DefaultInputPath + " and writes " + config.DefaultOutputPath + ".",
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		Version:       version,
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConvert(cmd, flags, cfg)
		},
	}

	f := root.Flags()
	f.StringVarP(&flags.input, "input", "i", cfg.InputPath, "Workflow export to convert")
	f.StringVarP(&flags.output, "output", "o", cfg.OutputPath, "Where to write the converted workflow")
	f.StringVar(&flags.natsURL, "nats", cfg.NATSURL, "NATS URL for audit events (empty disables)")

	root.AddCommand(newSimulateCmd(cfg))
	root.AddCommand(newInspectCmd(cfg))
	return root
}

func runConvert(cmd *cobra.Command, flags *convertFlags, cfg *config.Config) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Converting workflow to webhook trigger\n")
	fmt.Fprintf(out, "  input:  %s\n", flags.input)

	publisher := audit.NewPublisher(flags.natsURL, logging.New("audit"))
	defer publisher.Close()

	res, err := rewriter.New().Run(flags.input, flags.output)

	conv := audit.Conversion{
		ExecutionID: uuid.NewString(),
		InputPath:   flags.input,
		OutputPath:  flags.output,
		Err:         err,
	}
	if res != nil {
		conv.IngressID = res.IngressID
		conv.ProcessorID = res.ProcessorID
		conv.NodeCount = res.NodeCount
	}
	if pubErr := publisher.Publish(audit.NewEvent(conv, time.Now())); pubErr != nil {
		logging.New("audit").Warn("audit event not delivered", "error", pubErr)
	}

	if err != nil {
		return err
	}
	printTrace(out, res, cfg.WebhookURL)
	return nil
}

// printTrace writes the human-readable summary of a conversion.
func printTrace(out io.Writer, res *rewriter.Result, webhookURL string) {
	fmt.Fprintf(out, "Removed %d node(s)\n", len(res.RemovedIDs))
	fmt.Fprintf(out, "Added webhook node:   %s (%s)\n", rewriter.IngressNodeName, res.IngressID)
	fmt.Fprintf(out, "Added processor node: %s (%s)\n", rewriter.ProcessorNodeName, res.ProcessorID)
	if len(res.Dangling) > 0 {
		fmt.Fprintf(out, "Warning: %d dangling connection(s) kept:\n", len(res.Dangling))
		for _, d := range res.Dangling {
			fmt.Fprintf(out, "  %s\n", describeDangling(d))
		}
	}
	fmt.Fprintf(out, "Webhook workflow written: %s (%d nodes)\n", res.OutputPath, res.NodeCount)

	fmt.Fprintf(out, "\nNext steps:\n")
	fmt.Fprintf(out, "1. Import '%s' into n8n\n", res.OutputPath)
	fmt.Fprintf(out, "2. Activate the workflow\n")
	fmt.Fprintf(out, "3. Copy the generated webhook URL (path %s)\n", rewriter.IngressPath)
	if webhookURL != "" {
		fmt.Fprintf(out, "4. Check N8N_WEBHOOK_URL in .env (currently %s)\n", webhookURL)
	} else {
		fmt.Fprintf(out, "4. Set it in .env: N8N_WEBHOOK_URL=<your-webhook-url>\n")
	}
}

func describeDangling(d models.DanglingEdge) string {
	if d.Reason == models.ReasonMissingSource {
		return fmt.Sprintf("%q has outgoing connections but no node", d.From)
	}
	return fmt.Sprintf("%q -> %q (%s[%d]) targets a missing node", d.From, d.To, d.Channel, d.Port)
}

// Package rewriter converts the Vivassit onboarding workflow from a manual
// trigger with canned test data into a webhook-driven workflow.
//
// The conversion is a fixed sequence of edits on an in-memory copy of the
// document: drop the manual trigger and test-data nodes, append a webhook
// node and a payload-normalising code node, wire webhook -> processor ->
// DownstreamNodeName, and overwrite the workflow name and settings. The
// output file is only written after every edit succeeded; the input file is
// never modified.
//
// Connection entries that still reference the removed nodes are kept as
// they are. Run reports them in Result.Dangling.
package rewriter

import (
	"log/slog"

	"github.com/google/uuid"

	"vivassit/converter/internal/logging"
	"vivassit/converter/internal/models"
)

// Result describes a completed conversion.
type Result struct {
	IngressID   string
	ProcessorID string
	RemovedIDs  []string
	NodeCount   int
	Dangling    []models.DanglingEdge
	OutputPath  string
}

// Rewriter runs the conversion. The zero value is usable: it generates
// random UUIDs and logs through the default slog logger.
type Rewriter struct {
	NewID  func() string
	Logger *slog.Logger
}

// New returns a Rewriter with UUID node ids and a component logger.
func New() *Rewriter {
	return &Rewriter{
		NewID:  uuid.NewString,
		Logger: logging.New("rewriter"),
	}
}

// Rewrite converts the workflow at inputPath and writes the result to
// outputPath. It returns the ids of the new webhook and processor nodes.
func Rewrite(inputPath, outputPath string) (ingressID, processorID string, err error) {
	res, err := New().Run(inputPath, outputPath)
	if err != nil {
		return "", "", err
	}
	return res.IngressID, res.ProcessorID, nil
}

// Run loads inputPath, applies the conversion and stores the result at
// outputPath. Load failures are *ParseError, store failures *WriteError.
func (r *Rewriter) Run(inputPath, outputPath string) (*Result, error) {
	log := r.logger()

	wf, err := Load(inputPath)
	if err != nil {
		return nil, err
	}
	log.Debug("workflow loaded", "path", inputPath, "name", wf.Name, "nodes", len(wf.Nodes))

	ingress := NewIngressNode(r.newID())
	processor := NewProcessorNode(r.newID())

	removed := Apply(wf, ingress, processor)
	if len(removed) == 0 {
		log.Warn("target nodes not found; nothing removed",
			"manual_trigger_id", ManualTriggerID, "data_node_id", DataNodeID)
	}

	dangling := wf.DanglingEdges()
	for _, d := range dangling {
		log.Warn("dangling connection kept", "from", d.From, "to", d.To, "reason", d.Reason)
	}

	if err := Store(outputPath, wf); err != nil {
		return nil, err
	}
	log.Info("workflow written", "path", outputPath, "nodes", len(wf.Nodes))

	res := &Result{
		IngressID:   ingress.ID,
		ProcessorID: processor.ID,
		NodeCount:   len(wf.Nodes),
		Dangling:    dangling,
		OutputPath:  outputPath,
	}
	for _, n := range removed {
		res.RemovedIDs = append(res.RemovedIDs, n.ID)
	}
	return res, nil
}

// Apply performs the in-memory edits on wf and returns the removed nodes.
// It never fails: absent target ids simply remove nothing.
func Apply(wf *models.Workflow, ingress, processor models.Node) []models.Node {
	removed := wf.RemoveNodes(ManualTriggerID, DataNodeID)
	wf.AppendNodes(ingress, processor)

	wf.Connect(ingress.Name, processor.Name)
	wf.Connect(processor.Name, DownstreamNodeName)

	PatchMetadata(wf)
	return removed
}

// PatchMetadata overwrites the workflow name and settings.
func PatchMetadata(wf *models.Workflow) {
	wf.Name = WorkflowName
	wf.Settings = map[string]any{"timezone": WorkflowTimezone}
}

func (r *Rewriter) newID() string {
	if r.NewID != nil {
		return r.NewID()
	}
	return uuid.NewString()
}

func (r *Rewriter) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}

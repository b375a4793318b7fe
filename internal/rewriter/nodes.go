package rewriter

import (
	"encoding/json"
	"fmt"

	"vivassit/converter/internal/models"
)

// Nodes removed from the original export.
const (
	ManualTriggerID = "079318df-e626-4100-bd78-cbbb9b7f8a9b"
	DataNodeID      = "e0e401a6-291a-478f-8713-cb84985d7f70"
)

// DownstreamNodeName is the existing node the processor feeds into.
const DownstreamNodeName = "Generate Test Data v"

// Ingress (webhook) node.
const (
	IngressNodeName    = "🎯 Webhook Vivassit v4"
	IngressNodeType    = "n8n-nodes-base.webhook"
	IngressTypeVersion = 1
	IngressHTTPMethod  = "POST"
	IngressPath        = "/vivassit-onboarding-v4"
	WebhookID          = "vivassit-onboarding-v4"
)

// Processor (code) node.
const (
	ProcessorNodeName    = "📝 Processar Dados Webhook"
	ProcessorNodeType    = "n8n-nodes-base.code"
	ProcessorTypeVersion = 2
	ProcessorOnError     = "continueRegularOutput"
)

// ChatwootAPIKey is baked into every record the processor emits.
const ChatwootAPIKey = "oZy1eCh7dt3YdSthzov7YsJ9"

// Workflow metadata written over the original.
const (
	WorkflowName     = "Vivassit Onboarding Webhook v4"
	WorkflowTimezone = "America/Sao_Paulo"
)

var (
	ingressPosition   = []float64{-10400, 3536}
	processorPosition = []float64{-10240, 3536}
)

// WebhookParameters configures an n8n webhook node.
type WebhookParameters struct {
	HTTPMethod string         `json:"httpMethod"`
	Path       string         `json:"path"`
	Options    WebhookOptions `json:"options"`
}

// WebhookOptions holds the optional webhook settings the converter sets.
type WebhookOptions struct {
	RawBody bool `json:"rawBody"`
}

// CodeParameters configures an n8n code node.
type CodeParameters struct {
	JSCode string `json:"jsCode"`
}

// NewIngressNode builds the webhook node that replaces the manual trigger.
func NewIngressNode(id string) models.Node {
	return models.Node{
		Parameters: mustParameters(WebhookParameters{
			HTTPMethod: IngressHTTPMethod,
			Path:       IngressPath,
			Options:    WebhookOptions{RawBody: true},
		}),
		ID:          id,
		Name:        IngressNodeName,
		Type:        IngressNodeType,
		TypeVersion: IngressTypeVersion,
		Position:    append([]float64(nil), ingressPosition...),
		WebhookID:   WebhookID,
	}
}

// NewProcessorNode builds the code node that normalises the webhook payload.
func NewProcessorNode(id string) models.Node {
	return models.Node{
		Parameters:  mustParameters(CodeParameters{JSCode: ProcessorScript}),
		ID:          id,
		Name:        ProcessorNodeName,
		Type:        ProcessorNodeType,
		TypeVersion: ProcessorTypeVersion,
		Position:    append([]float64(nil), processorPosition...),
		OnError:     ProcessorOnError,
	}
}

// mustParameters encodes one of the static parameter structs above; they
// contain only strings and bools, so encoding cannot fail.
func mustParameters(v any) json.RawMessage {
	raw, err := models.MarshalLiteral(v)
	if err != nil {
		panic(fmt.Sprintf("rewriter: encode node parameters: %v", err))
	}
	return raw
}

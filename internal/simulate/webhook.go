package simulate

import (
	"encoding/json"
	"fmt"
)

// WebhookItem builds the item an n8n webhook node emits for a JSON POST.
func WebhookItem(body interface{}) map[string]interface{} {
	return map[string]interface{}{
		"headers": map[string]interface{}{
			"content-type": "application/json",
			"user-agent":   "Vivassit-Test-Client",
		},
		"params": map[string]interface{}{},
		"query":  map[string]interface{}{},
		"body":   body,
	}
}

// SampleOnboardingPayload is the request the onboarding frontend sends to
// the webhook.
func SampleOnboardingPayload() map[string]interface{} {
	return map[string]interface{}{
		"real_phone":            "+5511987654321",
		"clinic_name":           "Clínica São Lucas",
		"admin_email":           "admin@clinicasaolucas.com.br",
		"doctor_name":           "Dr. Maria Silva Santos",
		"doctor_crm":            "CRM/SP 145678",
		"speciality":            "cardiologia",
		"consultation_duration": "45",
		"establishment_type":    "medium_clinic",
		"plan_type":             "professional",
		"qualifications":        []interface{}{"Telemedicina", "Agenda Online", "Prontuário Eletrônico"},
		"source":                "api-test",
		"user_timezone":         "America/Sao_Paulo",
	}
}

// RawBody encodes payload the way a raw webhook body arrives: as a JSON
// string.
func RawBody(payload interface{}) (string, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encode payload: %w", err)
	}
	return string(b), nil
}

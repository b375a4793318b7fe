package rewriter

// ProcessorScript is the jsCode of the processor node. n8n runs it for the
// first webhook item: a string body is parsed as JSON (falling back to the
// whole item), and the onboarding fields are mapped onto the record shape the
// downstream nodes expect. The text is written to the workflow verbatim.
const ProcessorScript = `
// Processar dados vindos do frontend Vivassit
const body = $input.first().json.body;
let data;

try {
  // Se body é string, parse JSON
  if (typeof body === 'string') {
    data = JSON.parse(body);
  } else {
    data = body;
  }
} catch (e) {
  // Se falhar, usar dados diretos
  data = $input.first().json;
}

console.log('📥 Dados recebidos do frontend:', data);

// Mapear campos do frontend para estrutura esperada
const processed = {
  real_phone: data.real_phone || data.phone || '',
  clinic_name: data.clinic_name || '',
  admin_email: data.admin_email || '',
  doctor_name: data.doctor_name || '',
  doctor_crm: data.doctor_crm || '',
  speciality: data.speciality || data.specialty || '',
  consultation_duration: (data.consultation_duration || '30').toString(),
  establishment_type: data.establishment_type || 'small_clinic',
  plan_type: data.plan_type || 'professional',
  api_key_chatwoot: '` + ChatwootAPIKey + `', // Manter API key fixa
  
  // Metadados extras do frontend
  tenant_id: data.tenant_id || null,
  source: data.source || 'vivassit-frontend',
  timestamp: data.timestamp || new Date().toISOString(),
  qualifications: data.qualifications || data.selected_features || []
};

console.log('✅ Dados processados:', processed);

return processed;
`

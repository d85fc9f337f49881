package notify

import (
	"time"

	"hsepanel/status"
)

// TemplateKey names one of the email templates the automation layer sends.
type TemplateKey string

const (
	TemplateFormSubmitted   TemplateKey = "form_submitted"
	TemplateFormApproved    TemplateKey = "form_approved"
	TemplateFormRejected    TemplateKey = "form_rejected"
	TemplateFormPendingInfo TemplateKey = "form_pending_info"
	TemplateInvite          TemplateKey = "invite"
)

var knownKeys = []TemplateKey{
	TemplateFormSubmitted,
	TemplateFormApproved,
	TemplateFormRejected,
	TemplateFormPendingInfo,
	TemplateInvite,
}

// Template is an editable email template. Subject and Body use text/template
// placeholders such as {{.Company}}.
type Template struct {
	Key       TemplateKey `json:"key"`
	Subject   string      `json:"subject"`
	Body      string      `json:"body"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

// Settings controls who is notified and when. Evaluation events carry the
// decision and recipients in their outbox payload. Submissions arrive through
// the external intake form, which reads NotifyOnSubmit from the table itself.
type Settings struct {
	Enabled          bool      `json:"enabled"`
	Recipients       []string  `json:"recipients"`
	NotifyOnSubmit   bool      `json:"notifyOnSubmit"`
	NotifyOnDecision bool      `json:"notifyOnDecision"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// DefaultSettings is returned until an administrator saves settings.
func DefaultSettings() Settings {
	return Settings{
		Enabled:          true,
		Recipients:       []string{},
		NotifyOnSubmit:   true,
		NotifyOnDecision: true,
	}
}

// Notifies reports whether entering next should send an email. Only a
// submission and the evaluation results have a template.
func (s Settings) Notifies(next status.Status) bool {
	if !s.Enabled {
		return false
	}
	switch next {
	case status.Submitted:
		return s.NotifyOnSubmit
	case status.Approved, status.Rejected, status.PendingInfo:
		return s.NotifyOnDecision
	default:
		return false
	}
}

// KnownKeys lists every template key.
func KnownKeys() []TemplateKey {
	out := make([]TemplateKey, len(knownKeys))
	copy(out, knownKeys)
	return out
}

// IsKnownKey reports whether k names a template.
func IsKnownKey(k TemplateKey) bool {
	for _, known := range knownKeys {
		if k == known {
			return true
		}
	}
	return false
}

// TemplateForStatus returns the template sent when a form enters s.
func TemplateForStatus(s status.Status) (TemplateKey, bool) {
	switch s {
	case status.Submitted:
		return TemplateFormSubmitted, true
	case status.Approved:
		return TemplateFormApproved, true
	case status.Rejected:
		return TemplateFormRejected, true
	case status.PendingInfo:
		return TemplateFormPendingInfo, true
	default:
		return "", false
	}
}

// DefaultTemplate is served for keys that were never customised.
func DefaultTemplate(k TemplateKey) Template {
	t := Template{Key: k}
	switch k {
	case TemplateFormSubmitted:
		t.Subject = "Formulário HSE recebido - {{.Company}}"
		t.Body = "Recebemos o formulário HSE de {{.Company}} (CNPJ {{.TaxID}})."
	case TemplateFormApproved:
		t.Subject = "Formulário HSE aprovado - {{.Company}}"
		t.Body = "O formulário HSE de {{.Company}} foi aprovado.\n\n{{.Comments}}"
	case TemplateFormRejected:
		t.Subject = "Formulário HSE rejeitado - {{.Company}}"
		t.Body = "O formulário HSE de {{.Company}} foi rejeitado.\n\nMotivo: {{.Comments}}"
	case TemplateFormPendingInfo:
		t.Subject = "Informações pendentes - {{.Company}}"
		t.Body = "O formulário HSE de {{.Company}} precisa de informações adicionais.\n\n{{.Comments}}"
	case TemplateInvite:
		t.Subject = "Convite para o formulário HSE"
		t.Body = "Olá {{.Company}}, acesse {{.Link}} para preencher o formulário HSE."
	}
	return t
}

// PreviewData is the placeholder set available to templates.
type PreviewData struct {
	Company  string `json:"company"`
	TaxID    string `json:"taxId"`
	Status   string `json:"status"`
	Comments string `json:"comments"`
	Reviewer string `json:"reviewer"`
	Link     string `json:"link"`
}

// SamplePreviewData fills placeholders when an administrator previews a
// template without supplying data.
func SamplePreviewData() PreviewData {
	return PreviewData{
		Company:  "Fornecedor Exemplo Ltda",
		TaxID:    "00.000.000/0001-00",
		Status:   string(status.Approved),
		Comments: "Documentação completa.",
		Reviewer: "Equipe HSE",
		Link:     "https://hse.example.com/formulario",
	}
}

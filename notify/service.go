package notify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"text/template"
)

var (
	// ErrUnknownTemplate signals a key outside KnownKeys.
	ErrUnknownTemplate = errors.New("notify: unknown template")
	// ErrInvalidTemplate signals a template that does not parse or render.
	ErrInvalidTemplate = errors.New("notify: invalid template")
	// ErrInvalidRecipient signals a malformed recipient address.
	ErrInvalidRecipient = errors.New("notify: invalid recipient")
)

// Service manages email templates and notification settings. Delivery
// itself belongs to the external automation reading the outbox.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// ListTemplates returns every known template, stored ones overriding defaults.
func (s *Service) ListTemplates(ctx context.Context) ([]Template, error) {
	stored, err := s.repo.ListTemplates(ctx)
	if err != nil {
		return nil, err
	}
	byKey := make(map[TemplateKey]Template, len(stored))
	for _, t := range stored {
		byKey[t.Key] = t
	}

	out := make([]Template, 0, len(knownKeys))
	for _, k := range knownKeys {
		if t, ok := byKey[k]; ok {
			out = append(out, t)
			continue
		}
		out = append(out, DefaultTemplate(k))
	}
	return out, nil
}

// GetTemplate returns the stored template for key, or its default.
func (s *Service) GetTemplate(ctx context.Context, key TemplateKey) (Template, error) {
	if !IsKnownKey(key) {
		return Template{}, fmt.Errorf("%w: %q", ErrUnknownTemplate, key)
	}
	t, err := s.repo.GetTemplate(ctx, key)
	if errors.Is(err, ErrTemplateNotFound) {
		return DefaultTemplate(key), nil
	}
	if err != nil {
		return Template{}, err
	}
	return t, nil
}

// SaveTemplate validates and stores t.
func (s *Service) SaveTemplate(ctx context.Context, t Template) (Template, error) {
	if !IsKnownKey(t.Key) {
		return Template{}, fmt.Errorf("%w: %q", ErrUnknownTemplate, t.Key)
	}
	t.Subject = strings.TrimSpace(t.Subject)
	if t.Subject == "" || strings.TrimSpace(t.Body) == "" {
		return Template{}, fmt.Errorf("%w: subject and body are required", ErrInvalidTemplate)
	}
	if _, _, err := Preview(t, PreviewData{}); err != nil {
		return Template{}, err
	}
	return s.repo.UpsertTemplate(ctx, t)
}

// GetSettings returns the saved settings or DefaultSettings.
func (s *Service) GetSettings(ctx context.Context) (Settings, error) {
	settings, ok, err := s.repo.GetSettings(ctx)
	if err != nil {
		return Settings{}, err
	}
	if !ok {
		return DefaultSettings(), nil
	}
	if settings.Recipients == nil {
		settings.Recipients = []string{}
	}
	return settings, nil
}

// SaveSettings validates recipient addresses and stores settings.
func (s *Service) SaveSettings(ctx context.Context, settings Settings) (Settings, error) {
	recipients := make([]string, 0, len(settings.Recipients))
	seen := make(map[string]struct{}, len(settings.Recipients))
	for _, r := range settings.Recipients {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		addr, err := mail.ParseAddress(r)
		if err != nil {
			return Settings{}, fmt.Errorf("%w: %q", ErrInvalidRecipient, r)
		}
		key := strings.ToLower(addr.Address)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		recipients = append(recipients, addr.Address)
	}
	settings.Recipients = recipients
	return s.repo.UpsertSettings(ctx, settings)
}

// Preview renders subject and body of t with data.
func Preview(t Template, data PreviewData) (string, string, error) {
	subject, err := render("subject", t.Subject, data)
	if err != nil {
		return "", "", err
	}
	body, err := render("body", t.Body, data)
	if err != nil {
		return "", "", err
	}
	return subject, body, nil
}

func render(name, text string, data PreviewData) (string, error) {
	tpl, err := template.New(name).Option("missingkey=error").Parse(text)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrInvalidTemplate, name, err)
	}
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrInvalidTemplate, name, err)
	}
	return buf.String(), nil
}

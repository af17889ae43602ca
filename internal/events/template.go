package events

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"text/template"

	"github.com/Abrechen2/sublarr-sub006/internal/store"
)

// defaultTemplates holds the hardcoded fallback used when neither a
// (service, event) nor a bare (event) row exists in notification_templates.
var defaultTemplates = map[Name]string{
	WantedSearchSucceeded: "Found subtitle for {{.file_path}} ({{.language}})",
	WantedSearchFailed:    "Search failed for {{.file_path}}: {{.error}}",
	WantedSearchNoResults: "No subtitle found for {{.file_path}} ({{.language}})",
	HealthIssueDetected:   "Health check flagged {{.check}}: {{.detail}}",
	HealthAutoFixFailed:   "Auto-fix failed for {{.check}}: {{.error}}",
	DedupDuplicatesFound:  "Found {{.count}} duplicate group(s)",
	BackupCompleted:       "Backup completed: {{.path}}",
}

// renderFuncs is deliberately minimal: no filesystem, env, or exec access is
// ever registered here, since template bodies come from user-editable rows.
var renderFuncs = template.FuncMap{
	"upper": strings.ToUpper,
	"lower": strings.ToLower,
}

// TemplateEngine resolves and renders a notification body for (service,
// event) using the store fallback chain, falling back to a hardcoded
// built-in when no row matches.
type TemplateEngine struct {
	notifications *store.NotificationRepository
}

func NewTemplateEngine(notifications *store.NotificationRepository) *TemplateEngine {
	return &TemplateEngine{notifications: notifications}
}

func (e *TemplateEngine) Render(ctx context.Context, service string, event Name, payload map[string]any) (string, error) {
	body, err := e.resolveBody(ctx, service, event)
	if err != nil {
		return "", err
	}
	tmpl, err := template.New(string(event)).Funcs(renderFuncs).Parse(body)
	if err != nil {
		return "", fmt.Errorf("events: parse template for %s/%s: %w", service, event, err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, payload); err != nil {
		return "", fmt.Errorf("events: render template for %s/%s: %w", service, event, err)
	}
	return buf.String(), nil
}

func (e *TemplateEngine) resolveBody(ctx context.Context, service string, event Name) (string, error) {
	if e.notifications != nil {
		t, err := e.notifications.FindTemplate(ctx, service, string(event))
		if err != nil {
			return "", err
		}
		if t != nil {
			return t.Body, nil
		}
	}
	if body, ok := defaultTemplates[event]; ok {
		return body, nil
	}
	return string(event) + ": {{.file_path}}", nil
}

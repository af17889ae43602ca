package events

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	retry "github.com/avast/retry-go/v4"

	"github.com/Abrechen2/sublarr-sub006/internal/store"
)

// WebhookSubscriber POSTs a rendered template body to def.URL, retrying
// transient failures (timeouts, 5xx) with backoff up to def.MaxRetries.
type WebhookSubscriber struct {
	def    store.WebhookDefinition
	logs   *store.HookRepository
	engine *TemplateEngine
	client *http.Client
}

func NewWebhookSubscriber(def store.WebhookDefinition, logs *store.HookRepository, engine *TemplateEngine) *WebhookSubscriber {
	return &WebhookSubscriber{
		def:    def,
		logs:   logs,
		engine: engine,
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

func (w *WebhookSubscriber) Name() string { return "webhook:" + w.def.Name }

func (w *WebhookSubscriber) Handle(ctx context.Context, event Name, payload map[string]any) error {
	if !w.matches(event) {
		return nil
	}

	// A template that fails to render falls back to plain event-name and
	// payload text; the delivery still goes out.
	body, err := w.engine.Render(ctx, w.def.Name, event, payload)
	if err != nil {
		body = fmt.Sprintf("%s: %v", event, payload)
	}

	maxAttempts := w.def.MaxRetries
	if maxAttempts <= 0 {
		maxAttempts = 1
	}

	start := time.Now()
	var lastStatus int
	postErr := retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.def.URL, bytes.NewReader([]byte(body)))
			if err != nil {
				return retry.Unrecoverable(err)
			}
			req.Header.Set("Content-Type", "application/json")
			resp, err := w.client.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()
			lastStatus = resp.StatusCode
			io.Copy(io.Discard, resp.Body)
			if resp.StatusCode >= 500 {
				return fmt.Errorf("webhook %q: server error %d", w.def.Name, resp.StatusCode)
			}
			if resp.StatusCode >= 400 {
				return retry.Unrecoverable(fmt.Errorf("webhook %q: client error %d", w.def.Name, resp.StatusCode))
			}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(uint(maxAttempts)),
		retry.DelayType(retry.BackOffDelay),
		retry.Delay(time.Second),
		retry.MaxJitter(500*time.Millisecond),
	)
	elapsed := time.Since(start)

	if w.logs != nil {
		output := fmt.Sprintf("status=%d", lastStatus)
		if postErr != nil {
			output = postErr.Error()
		}
		_ = w.logs.AppendLog(context.Background(), &store.HookLog{
			SubscriberKind: "webhook",
			SubscriberID:   w.def.ID,
			Event:          string(event),
			Success:        postErr == nil,
			Output:         truncate(output, 4096),
			DurationMS:     elapsed.Milliseconds(),
		})
	}
	return postErr
}

func (w *WebhookSubscriber) matches(event Name) bool {
	for _, e := range w.def.Events {
		if e == string(event) {
			return true
		}
	}
	return false
}

package events

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/Abrechen2/sublarr-sub006/internal/store"
)

// HookSubscriber runs a local shell command for every matching event,
// passing the payload as JSON on stdin and as SUBLARR_EVENT/SUBLARR_PAYLOAD
// environment variables for shells that prefer not to parse stdin.
type HookSubscriber struct {
	def  store.HookDefinition
	logs *store.HookRepository
}

func NewHookSubscriber(def store.HookDefinition, logs *store.HookRepository) *HookSubscriber {
	return &HookSubscriber{def: def, logs: logs}
}

func (h *HookSubscriber) Name() string { return "hook:" + h.def.Name }

func (h *HookSubscriber) Handle(ctx context.Context, event Name, payload map[string]any) error {
	if !h.matches(event) {
		return nil
	}
	timeout := time.Duration(h.def.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("events: marshal hook payload: %w", err)
	}

	cmd := exec.CommandContext(runCtx, "sh", "-c", h.def.Command)
	cmd.Stdin = bytes.NewReader(body)
	cmd.Env = append(cmd.Environ(), "SUBLARR_EVENT="+string(event), "SUBLARR_PAYLOAD="+string(body))
	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output

	start := time.Now()
	runErr := cmd.Run()
	elapsed := time.Since(start)

	if h.logs != nil {
		_ = h.logs.AppendLog(context.Background(), &store.HookLog{
			SubscriberKind: "hook",
			SubscriberID:   h.def.ID,
			Event:          string(event),
			Success:        runErr == nil,
			Output:         truncate(output.String(), 4096),
			DurationMS:     elapsed.Milliseconds(),
		})
	}
	if runErr != nil {
		return fmt.Errorf("events: hook %q: %w", h.def.Name, runErr)
	}
	return nil
}

func (h *HookSubscriber) matches(event Name) bool {
	for _, e := range h.def.Events {
		if e == string(event) {
			return true
		}
	}
	return false
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return strings.TrimSpace(s[:max]) + "...(truncated)"
}

package events

import (
	"context"
	"log/slog"
	"time"

	"github.com/sourcegraph/conc/pool"
)

// Subscriber receives dispatched events. A subscriber's error is always
// logged and recorded, never propagated back to the publisher — one
// misbehaving subscriber must never affect the operation that published
// the event.
type Subscriber interface {
	Name() string
	Handle(ctx context.Context, event Name, payload map[string]any) error
}

// QuietHours is queried before dispatching to a delivery-oriented
// subscriber (hooks/webhooks/notifications); scheduler- and log-facing
// subscribers are not subject to it.
type QuietHours interface {
	Suppressed(now time.Time, event Name) bool
}

// Bus is the pub/sub core: Publish is synchronous from the caller's point
// of view (it never blocks on subscriber completion) while dispatch to each
// subscriber happens concurrently in a bounded worker pool. Delivery is
// at-least-once per subscriber with no ordering guarantee across
// subscribers.
type Bus struct {
	subscribers map[Name][]Subscriber
	poolSize    int
	quietHours  QuietHours
	onDispatch  func(event Name, subscriber string, success bool, detail string)
}

func NewBus(poolSize int) *Bus {
	if poolSize <= 0 {
		poolSize = 4
	}
	return &Bus{subscribers: make(map[Name][]Subscriber), poolSize: poolSize}
}

// SetQuietHours wires the quiet-hours policy used to suppress
// delivery-oriented subscribers.
func (b *Bus) SetQuietHours(q QuietHours) {
	b.quietHours = q
}

// OnDispatch installs a callback invoked after every subscriber attempt,
// used by the caller to persist NotificationHistory/HookLog rows without
// the bus depending directly on the store package.
func (b *Bus) OnDispatch(fn func(event Name, subscriber string, success bool, detail string)) {
	b.onDispatch = fn
}

// Subscribe registers sub to receive every occurrence of event.
func (b *Bus) Subscribe(event Name, sub Subscriber) {
	b.subscribers[event] = append(b.subscribers[event], sub)
}

// Publish dispatches event to every subscriber registered for it. The
// dispatch itself runs in a background bounded pool; Publish returns once
// the dispatch has been enqueued, not once every subscriber has finished.
func (b *Bus) Publish(ctx context.Context, event Name, payload map[string]any) {
	subs := b.subscribers[event]
	if len(subs) == 0 {
		return
	}

	suppressed := b.quietHours != nil && !quietHoursExceptions[event] && b.quietHours.Suppressed(time.Now(), event)

	go func() {
		dispatchCtx := context.Background()
		p := pool.New().WithMaxGoroutines(b.poolSize)
		for _, sub := range subs {
			sub := sub
			if suppressed && isDeliveryOriented(sub) {
				continue
			}
			p.Go(func() {
				err := sub.Handle(dispatchCtx, event, payload)
				success := err == nil
				detail := ""
				if err != nil {
					detail = err.Error()
					slog.Warn("events.bus.subscriber_failed", "event", event, "subscriber", sub.Name(), "error", err)
				}
				if b.onDispatch != nil {
					b.onDispatch(event, sub.Name(), success, detail)
				}
			})
		}
		p.Wait()
	}()
}

// isDeliveryOriented is true for subscriber kinds quiet hours apply to
// (anything whose job is to tell a human something, as opposed to internal
// bookkeeping subscribers).
func isDeliveryOriented(sub Subscriber) bool {
	switch sub.(type) {
	case *HookSubscriber, *WebhookSubscriber:
		return true
	default:
		return false
	}
}

package events

import (
	"context"
	"sync"
	"time"

	"github.com/Abrechen2/sublarr-sub006/internal/store"
)

// QuietHoursPolicy implements the Bus's QuietHours interface against the
// store's quiet_hours_rules, refreshed on demand rather than per-publish so
// Suppressed stays cheap on the hot path.
type QuietHoursPolicy struct {
	notifications *store.NotificationRepository

	mu        sync.Mutex
	rules     []store.QuietHoursRule
	expiresAt time.Time
}

func NewQuietHoursPolicy(notifications *store.NotificationRepository) *QuietHoursPolicy {
	return &QuietHoursPolicy{notifications: notifications}
}

// Suppressed reports whether event should be withheld at instant now,
// given the configured quiet-hours windows. A rule's window is expressed
// in minutes-of-day and wraps past midnight when start > end.
func (q *QuietHoursPolicy) Suppressed(now time.Time, event Name) bool {
	rules := q.currentRules()
	minuteOfDay := now.Hour()*60 + now.Minute()
	for _, rule := range rules {
		if !rule.Enabled {
			continue
		}
		if ruleExempts(rule, event) {
			continue
		}
		if withinWindow(minuteOfDay, rule.StartMinute, rule.EndMinute) {
			return true
		}
	}
	return false
}

func ruleExempts(rule store.QuietHoursRule, event Name) bool {
	for _, e := range rule.ExceptionEvents {
		if e == string(event) {
			return true
		}
	}
	return false
}

func withinWindow(minute, start, end int) bool {
	if start == end {
		return false
	}
	if start < end {
		return minute >= start && minute < end
	}
	return minute >= start || minute < end
}

func (q *QuietHoursPolicy) currentRules() []store.QuietHoursRule {
	q.mu.Lock()
	defer q.mu.Unlock()
	if time.Now().Before(q.expiresAt) {
		return q.rules
	}
	rules, err := q.notifications.ListQuietHours(context.Background())
	if err != nil {
		return q.rules // serve the stale cache rather than fail the publish path
	}
	q.rules = rules
	q.expiresAt = time.Now().Add(time.Minute)
	return q.rules
}

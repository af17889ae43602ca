// Package events implements the event bus and its subscriber types: shell
// hooks, webhooks, and templated notifications, with quiet-hours
// suppression and a sandboxed template engine.
package events

// Name is one entry of the fixed event catalog. Sublarr never emits an
// event outside this list; subscribers and notification templates key off
// these names.
type Name string

const (
	WantedItemCreated       Name = "wanted.item_created"
	WantedSearchStarted     Name = "wanted.search_started"
	WantedSearchSucceeded   Name = "wanted.search_succeeded"
	WantedSearchFailed      Name = "wanted.search_failed"
	WantedSearchNoResults   Name = "wanted.search_no_results"
	SubtitleDownloaded      Name = "subtitle.downloaded"
	SubtitleTranslated      Name = "subtitle.translated"
	TranslationMemoryHit    Name = "translation.memory_hit"
	DedupDuplicatesFound    Name = "dedup.duplicates_found"
	DedupDuplicatesDeleted  Name = "dedup.duplicates_deleted"
	DedupOrphanDetected     Name = "dedup.orphan_detected"
	HealthCheckCompleted    Name = "health.check_completed"
	HealthIssueDetected     Name = "health.issue_detected"
	HealthAutoFixed         Name = "health.auto_fixed"
	HealthAutoFixFailed     Name = "health.auto_fix_failed"
	SchedulerTaskStarted    Name = "scheduler.task_started"
	SchedulerTaskCompleted  Name = "scheduler.task_completed"
	SchedulerTaskFailed     Name = "scheduler.task_failed"
	StandaloneFileDetected  Name = "standalone.file_detected"
	StandaloneScanStarted   Name = "standalone.scan_started"
	StandaloneScanCompleted Name = "standalone.scan_completed"
	CleanupRuleApplied      Name = "cleanup.rule_applied"
	BackupStarted           Name = "backup.started"
	BackupCompleted         Name = "backup.completed"
	BlacklistEntryAdded     Name = "blacklist.entry_added"
	ProviderCircuitOpened   Name = "provider.circuit_opened"
	ProviderCircuitClosed   Name = "provider.circuit_closed"
)

// AllEvents lists the full catalog, used to validate hook/webhook
// subscriptions and to populate the notification-templates admin UI.
var AllEvents = []Name{
	WantedItemCreated, WantedSearchStarted, WantedSearchSucceeded, WantedSearchFailed, WantedSearchNoResults,
	SubtitleDownloaded, SubtitleTranslated, TranslationMemoryHit,
	DedupDuplicatesFound, DedupDuplicatesDeleted, DedupOrphanDetected,
	HealthCheckCompleted, HealthIssueDetected, HealthAutoFixed, HealthAutoFixFailed,
	SchedulerTaskStarted, SchedulerTaskCompleted, SchedulerTaskFailed,
	StandaloneFileDetected, StandaloneScanStarted, StandaloneScanCompleted,
	CleanupRuleApplied, BackupStarted, BackupCompleted,
	BlacklistEntryAdded, ProviderCircuitOpened, ProviderCircuitClosed,
}

// quietHoursExceptions lists events that must always be delivered, even
// during a configured quiet-hours window (failures an operator needs to
// know about immediately).
var quietHoursExceptions = map[Name]bool{
	WantedSearchFailed:  true,
	SchedulerTaskFailed: true,
	HealthAutoFixFailed: true,
}

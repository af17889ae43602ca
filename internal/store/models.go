package store

import "time"

// WantedStatus is the lifecycle state of a WantedItem.
type WantedStatus string

const (
	StatusWanted   WantedStatus = "wanted"
	StatusSearching WantedStatus = "searching"
	StatusFound    WantedStatus = "found"
	StatusFailed   WantedStatus = "failed"
	StatusIgnored  WantedStatus = "ignored"
)

// WantedItem is uniquely identified by (file_path, target_language, subtitle_type);
// Fingerprint is sha256(file_path||'\0'||target_language||'\0'||subtitle_type) hex,
// enforced unique at the schema level so duplicate wants can never be created.
type WantedItem struct {
	ID             int64
	FilePath       string
	TargetLanguage string
	SubtitleType   string
	Fingerprint    string
	MediaTitle     string

	// Metadata carried over from the scanner's source collaborator (library
	// manager or standalone resolver chain) — the first two tiers of the
	// searcher's three-tier metadata lookup. A blank Title/zero Year falls
	// through to the searcher's third tier, filename parsing.
	Year             int
	Season           int
	Episode          int
	OriginalLanguage string
	IMDbID           string
	TMDbID           int
	IsAnime          bool

	ProfileID int64
	Status    WantedStatus
	Standalone bool

	// UpgradeCandidate items already have a satisfying subtitle on disk
	// scoring below the profile's acceptance threshold; the searcher only
	// replaces ExistingSubtitleRef when a new candidate beats ExistingScore
	// by the profile's upgrade margin.
	UpgradeCandidate    bool
	ExistingSubtitleRef string
	ExistingScore       int
	MissingLanguages    string // JSON []string, maintained by the scanner

	AttemptCount int
	LastError    string
	ClaimedAt    *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type SubtitleDownload struct {
	ID           int64
	WantedItemID int64
	ProviderName string
	ExternalID   string
	FilePath     string
	Score        int
	DownloadedAt time.Time
}

type BlacklistEntry struct {
	ID           int64
	ProviderName string
	ExternalID   string
	FilePath     string
	Reason       string
	CreatedAt    time.Time
}

type MetadataCacheEntry struct {
	CacheKey     string
	Provider     string
	ResponseBody string
	CachedAt     time.Time
	ExpiresAt    time.Time
}

type TranslationMemoryEntry struct {
	ID              int64
	SourceLang      string
	TargetLang      string
	TextHash        string
	SourceText      string
	TranslatedText  string
	CreatedAt       time.Time
}

type FilterPreset struct {
	ID            int64
	Name          string
	ConditionTree string // JSON-encoded condition tree
	CreatedAt     time.Time
}

type HookDefinition struct {
	ID             int64
	Name           string
	Events         []string
	Command        string
	TimeoutSeconds int
	Enabled        bool
	CreatedAt      time.Time
}

type WebhookDefinition struct {
	ID         int64
	Name       string
	Events     []string
	URL        string
	Template   string
	MaxRetries int
	Enabled    bool
	CreatedAt  time.Time
}

type HookLog struct {
	ID             int64
	SubscriberKind string // "hook" | "webhook"
	SubscriberID   int64
	Event          string
	Success        bool
	Output         string
	DurationMS     int64
	CreatedAt      time.Time
}

type NotificationTemplate struct {
	ID        int64
	Service   string
	Event     string
	Body      string
	CreatedAt time.Time
}

type QuietHoursRule struct {
	ID              int64
	StartMinute     int
	EndMinute       int
	ExceptionEvents []string
	Enabled         bool
}

type NotificationHistoryEntry struct {
	ID         int64
	Event      string
	Subscriber string
	Success    bool
	Detail     string
	CreatedAt  time.Time
}

type HealthSeverity string

const (
	SeverityInfo    HealthSeverity = "info"
	SeverityWarning HealthSeverity = "warning"
	SeverityError   HealthSeverity = "error"
)

type SubtitleHealthResult struct {
	ID        int64
	CheckName string
	Severity  HealthSeverity
	Message   string
	FilePath  string
	AutoFixed bool
	CreatedAt time.Time
}

type SubtitleContentHash struct {
	ID          int64
	FilePath    string
	ContentHash string
	SizeBytes   int64
	ComputedAt  time.Time
}

type CleanupRule struct {
	ID            int64
	Name          string
	ConditionTree string
	Action        string // "delete" | "archive"
	Enabled       bool
	CreatedAt     time.Time
}

type CleanupHistoryEntry struct {
	ID        int64
	RuleID    int64
	FilePath  string
	Action    string
	CreatedAt time.Time
}

type LanguageProfileRow struct {
	ID                  int64
	Name                string
	Requirements        string // JSON
	CutoffOnFirst       bool
	AcceptanceThreshold int
	UpgradeMargin       int
	CreatedAt           time.Time
}

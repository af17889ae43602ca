// Package config loads and persists Sublarr's application settings.
package config

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// Settings represents the application configuration persisted to disk.
type Settings struct {
	Server      ServerSettings      `json:"server"`
	Database    DatabaseSettings    `json:"database"`
	Log         LogConfig           `json:"log"`
	Source      SourceSettings      `json:"source"`
	Metadata    MetadataSettings    `json:"metadata"`
	Providers   []ProviderSettings  `json:"providers"`
	Translation TranslationSettings `json:"translation"`
	Workers     WorkerSettings      `json:"workers"`
	Scheduler   SchedulerSettings   `json:"scheduler"`
	Health      HealthSettings      `json:"health"`
	Dedup       DedupSettings       `json:"dedup"`
}

type ServerSettings struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

type DatabaseSettings struct {
	Path string `json:"path"`
}

// LogConfig configures the rotating file logger and the minimum level emitted to stdout.
type LogConfig struct {
	File       string `json:"file"`
	MaxSizeMB  int    `json:"maxSizeMb"`
	MaxBackups int    `json:"maxBackups"`
	MaxAgeDays int    `json:"maxAgeDays"`
	Level      string `json:"level"`
}

// SourceMode selects how Sublarr discovers media: driven by an upstream
// library manager (Sonarr/Radarr-like collaborator) or by watching the
// filesystem directly.
type SourceMode string

const (
	SourceModeLibraryManager SourceMode = "library_manager"
	SourceModeStandalone     SourceMode = "standalone"
)

type SourceSettings struct {
	Mode           SourceMode `json:"mode"`
	LibraryManager LibraryManagerSettings `json:"libraryManager"`
	Standalone     StandaloneSettings     `json:"standalone"`
}

type LibraryManagerSettings struct {
	BaseURL string `json:"baseUrl"`
	APIKey  string `json:"apiKey"`
}

type StandaloneSettings struct {
	WatchPaths         []string `json:"watchPaths"`
	DebounceSeconds    int      `json:"debounceSeconds"`
	StabilityWindowSec int      `json:"stabilityWindowSeconds"`
	FullRescanEveryN   int      `json:"fullRescanEveryN"`
}

type MetadataSettings struct {
	TMDBAPIKey   string `json:"tmdbApiKey"`
	TVDBAPIKey   string `json:"tvdbApiKey"`
	AniListURL   string `json:"aniListUrl"`
	CacheTTLHours int   `json:"cacheTtlHours"`
}

type ProviderSettings struct {
	Name     string `json:"name"`
	BaseURL  string `json:"baseUrl"`
	APIKey   string `json:"apiKey"`
	Priority int    `json:"priority"`
	// ScoreModifier is a per-provider additive nudge applied after the base
	// scorer weights, clamped to [-100, 100] by provider.Score.
	ScoreModifier int  `json:"scoreModifier"`
	Enabled       bool `json:"enabled"`
}

type TranslationSettings struct {
	Enabled          bool    `json:"enabled"`
	BatchSize        int     `json:"batchSize"`
	SimilarityThresh float64 `json:"similarityThreshold"`
	Provider         string  `json:"provider"`
	APIKey           string  `json:"apiKey"`
}

// WorkerSettings sizes the bounded pools described by the concurrency model:
// scanner pool, per-item searcher pool (with an inner per-item provider fan-out
// capped independently), dispatcher pool and translation pool.
type WorkerSettings struct {
	ScannerPoolSize        int `json:"scannerPoolSize"`
	SearcherPoolSize       int `json:"searcherPoolSize"`
	SearcherProviderPool   int `json:"searcherProviderPoolSize"`
	DispatcherPoolSize     int `json:"dispatcherPoolSize"`
	TranslationPoolSize    int `json:"translationPoolSize"`
	IODeadlineSeconds      int `json:"ioDeadlineSeconds"`
	ShutdownGraceSeconds   int `json:"shutdownGraceSeconds"`
}

type SchedulerSettings struct {
	WantedScanIntervalMinutes   int `json:"wantedScanIntervalMinutes"`
	WantedSearchIntervalMinutes int `json:"wantedSearchIntervalMinutes"`
	HealthBatchIntervalMinutes  int `json:"healthBatchIntervalMinutes"`
	DedupScanIntervalMinutes    int `json:"dedupScanIntervalMinutes"`
	CleanupIntervalMinutes      int `json:"cleanupIntervalMinutes"`
	BackupIntervalMinutes       int `json:"backupIntervalMinutes"`
}

type HealthSettings struct {
	WarnScoreThreshold  int `json:"warnScoreThreshold"`
	ErrorScoreThreshold int `json:"errorScoreThreshold"`
}

type DedupSettings struct {
	Enabled bool `json:"enabled"`
}

// DefaultSettings returns sane defaults for a fresh install.
func DefaultSettings() Settings {
	return Settings{
		Server: ServerSettings{Host: "0.0.0.0", Port: 8484},
		Database: DatabaseSettings{Path: "data/sublarr.db"},
		Log: LogConfig{
			File:       "logs/sublarr.log",
			MaxSizeMB:  50,
			MaxBackups: 5,
			MaxAgeDays: 28,
			Level:      "info",
		},
		Source: SourceSettings{
			Mode: SourceModeLibraryManager,
			Standalone: StandaloneSettings{
				DebounceSeconds:    5,
				StabilityWindowSec: 2,
				FullRescanEveryN:   6,
			},
		},
		Metadata: MetadataSettings{CacheTTLHours: 24},
		Translation: TranslationSettings{
			BatchSize:        40,
			SimilarityThresh: 0.85,
		},
		Workers: WorkerSettings{
			ScannerPoolSize:      4,
			SearcherPoolSize:     4,
			SearcherProviderPool: 4,
			DispatcherPoolSize:   4,
			TranslationPoolSize:  4,
			IODeadlineSeconds:    30,
			ShutdownGraceSeconds: 30,
		},
		Scheduler: SchedulerSettings{
			WantedScanIntervalMinutes:   30,
			WantedSearchIntervalMinutes: 15,
			HealthBatchIntervalMinutes:  60,
			DedupScanIntervalMinutes:    1440,
			CleanupIntervalMinutes:      1440,
			BackupIntervalMinutes:       1440,
		},
		Health: HealthSettings{WarnScoreThreshold: 80, ErrorScoreThreshold: 50},
		Dedup:  DedupSettings{Enabled: true},
	}
}

// Manager loads and atomically persists Settings backed by a JSON file on disk.
type Manager struct {
	path string
}

func NewManager(configPath string) *Manager {
	return &Manager{path: configPath}
}

// EnsureDir ensures the parent directory of the config file exists.
func (m *Manager) EnsureDir() error {
	dir := filepath.Dir(m.path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

// Load reads settings from disk, creating a defaults file if none exists.
// Fields absent from an older config file are backfilled with defaults so
// that config files survive upgrades without manual migration.
func (m *Manager) Load() (Settings, error) {
	if m.path == "" {
		return Settings{}, errors.New("config path not set")
	}
	if _, err := os.Stat(m.path); errors.Is(err, fs.ErrNotExist) {
		defaults := DefaultSettings()
		if err := m.Save(defaults); err != nil {
			return Settings{}, err
		}
		return defaults, nil
	}

	f, err := os.Open(m.path)
	if err != nil {
		return Settings{}, err
	}
	defer f.Close()

	var s Settings
	if err := json.NewDecoder(f).Decode(&s); err != nil {
		return Settings{}, err
	}

	defaults := DefaultSettings()
	backfillDefaults(&s, defaults)
	return s, nil
}

// backfillDefaults fills zero-valued fields introduced by newer releases
// with their defaults, so settings files predating a field never fail to load.
func backfillDefaults(s *Settings, d Settings) {
	if s.Server.Port == 0 {
		s.Server = d.Server
	}
	if s.Database.Path == "" {
		s.Database = d.Database
	}
	if s.Log.File == "" {
		s.Log = d.Log
	}
	if s.Source.Standalone.DebounceSeconds == 0 {
		s.Source.Standalone.DebounceSeconds = d.Source.Standalone.DebounceSeconds
	}
	if s.Source.Standalone.StabilityWindowSec == 0 {
		s.Source.Standalone.StabilityWindowSec = d.Source.Standalone.StabilityWindowSec
	}
	if s.Source.Standalone.FullRescanEveryN == 0 {
		s.Source.Standalone.FullRescanEveryN = d.Source.Standalone.FullRescanEveryN
	}
	if s.Metadata.CacheTTLHours == 0 {
		s.Metadata.CacheTTLHours = d.Metadata.CacheTTLHours
	}
	if s.Translation.BatchSize == 0 {
		s.Translation = TranslationSettings{
			Enabled:          s.Translation.Enabled,
			BatchSize:        d.Translation.BatchSize,
			SimilarityThresh: d.Translation.SimilarityThresh,
			Provider:         s.Translation.Provider,
			APIKey:           s.Translation.APIKey,
		}
	}
	if s.Workers.ScannerPoolSize == 0 {
		s.Workers = d.Workers
	}
	if s.Scheduler.WantedScanIntervalMinutes == 0 {
		s.Scheduler = d.Scheduler
	}
	if s.Health.WarnScoreThreshold == 0 {
		s.Health = d.Health
	}
}

// Save atomically writes settings to disk via a temp file and rename.
func (m *Manager) Save(s Settings) error {
	if err := m.EnsureDir(); err != nil {
		return err
	}
	tmp := m.path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, m.path)
}

// IODeadline returns the configured per-I/O deadline as a time.Duration.
func (s Settings) IODeadline() time.Duration {
	if s.Workers.IODeadlineSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(s.Workers.IODeadlineSeconds) * time.Second
}

// ShutdownGrace returns the configured graceful-shutdown drain budget.
func (s Settings) ShutdownGrace() time.Duration {
	if s.Workers.ShutdownGraceSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(s.Workers.ShutdownGraceSeconds) * time.Second
}

// Package provider defines the subtitle-provider contract, a registry of
// providers, bounded-concurrency fan-out across them, and the candidate
// scorer used to pick a winner.
package provider

import "context"

// VideoQuery describes the media a caller wants subtitles for.
type VideoQuery struct {
	MediaPath       string
	Title           string
	Year            int
	Season          int
	Episode         int
	IMDbID          string
	TMDbID          int
	Language        string
	SubtitleType    string // "full", "forced", "signs" — mirrors profile.SubtitleType
	ForcedOnly      bool   // set when SubtitleType is "forced" or "signs"
	HearingImpaired bool   // from the profile's hearing_impaired language flag
	IsAnime         bool
}

// Candidate is one subtitle result returned by a provider's Search.
type Candidate struct {
	ProviderName    string
	ProviderPriority int
	ExternalID      string
	Language        string
	SubtitleType    string
	ReleaseInfo     string
	HearingImpaired bool
	DownloadRef     string // opaque token passed back to Download
	Score           int
}

// Provider is the contract every subtitle backend implements. Implementations
// are registered explicitly; Sublarr never discovers providers by duck typing.
type Provider interface {
	Name() string
	Search(ctx context.Context, query VideoQuery) ([]Candidate, error)
	Download(ctx context.Context, candidate Candidate) ([]byte, error)
}

// Configurable is implemented by providers that accept a per-instance API
// key or other settings after construction.
type Configurable interface {
	Configure(apiKey string) error
}

// Factory builds a Provider instance, typically closing over an API key.
type Factory func(apiKey string) Provider

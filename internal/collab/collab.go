// Package collab defines the external-collaborator contracts Sublarr talks
// to: the upstream library manager, the media server it asks to rescan, the
// metadata resolver chain, outbound notification delivery, and the
// filesystem source used in standalone mode. Every concrete integration
// implements one of these interfaces explicitly; nothing is wired by duck
// typing.
package collab

import (
	"context"
	"time"
)

// MediaItem is the collaborator-agnostic view of a single piece of media
// under management, as reported by either a LibraryManager or a
// FilesystemSource.
type MediaItem struct {
	FilePath         string
	Title            string
	Year             int
	Season           int
	Episode          int
	OriginalLanguage string
	IMDbID           string
	TMDbID           int
	IsAnime          bool
	ProfileID        int64
	// Genres and OriginCountry are populated by TMDB-backed resolvers and
	// consulted by the standalone scanner's retroactive anime heuristic.
	Genres        []string
	OriginCountry string
}

// LibraryManager is the Sonarr/Radarr-like upstream that owns the library
// and optionally reports incremental changes. Implementations must always
// support a full-scan fallback: "changes since" semantics vary enough
// across real library managers that Sublarr never depends on it alone.
type LibraryManager interface {
	ListAllItems(ctx context.Context) ([]MediaItem, error)
	ListChangedSince(ctx context.Context, since time.Time) ([]MediaItem, bool, error) // ok=false means unsupported, fall back to full scan
}

// MediaServer is asked to refresh its view of a file after Sublarr writes a
// new subtitle next to it (e.g. Plex/Jellyfin/Emby metadata refresh).
type MediaServer interface {
	RefreshItem(ctx context.Context, filePath string) error
}

// MetadataResolver looks up canonical metadata for a media item by path or
// identifiers. Concrete resolvers are ordered by the caller (AniList-first
// for anime, TMDB-primary/TVDB-fallback otherwise).
type MetadataResolver interface {
	Name() string
	Resolve(ctx context.Context, item MediaItem) (MediaItem, error)
}

// FilesystemSource abstracts the standalone watcher/scanner's view of disk,
// letting it be exercised against a fake in tests.
type FilesystemSource interface {
	Watch(ctx context.Context, paths []string) (<-chan FileEvent, error)
	Walk(ctx context.Context, root string) ([]string, error)
}

type FileEventKind string

const (
	FileEventCreated FileEventKind = "created"
	FileEventModified FileEventKind = "modified"
	FileEventRemoved FileEventKind = "removed"
)

type FileEvent struct {
	Kind FileEventKind
	Path string
	Time time.Time
}

package standalone

import (
	"context"
	"fmt"

	"github.com/Abrechen2/sublarr-sub006/internal/collab"
)

// ResolverChain orders metadata resolvers as anime-first (AniList) when a
// group is flagged anime, otherwise TMDB-primary with TVDB fallback. The
// first resolver to succeed wins; the rest are never called.
type ResolverChain struct {
	anime   []collab.MetadataResolver
	general []collab.MetadataResolver
}

func NewResolverChain(anime, general []collab.MetadataResolver) *ResolverChain {
	return &ResolverChain{anime: anime, general: general}
}

func (c *ResolverChain) Resolve(ctx context.Context, item collab.MediaItem, isAnime bool) (collab.MediaItem, error) {
	order := c.general
	if isAnime {
		order = c.anime
	}
	var lastErr error
	for _, resolver := range order {
		resolved, err := resolver.Resolve(ctx, item)
		if err != nil {
			lastErr = err
			continue
		}
		resolved.IsAnime = isAnime || resolved.IsAnime
		if !resolved.IsAnime && PromoteFromMetadata(resolved.Genres, resolved.OriginCountry) {
			resolved.IsAnime = true
		}
		return resolved, nil
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("standalone: no resolver in chain matched %q", item.Title)
	}
	return collab.MediaItem{}, lastErr
}

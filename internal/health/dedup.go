package health

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Abrechen2/sublarr-sub006/internal/apperr"
	"github.com/Abrechen2/sublarr-sub006/internal/store"
)

var subtitleExtensions = map[string]bool{".srt": true, ".ass": true, ".ssa": true}

var videoExtensionsForOrphanCheck = map[string]bool{
	".mkv": true, ".mp4": true, ".avi": true, ".m4v": true, ".ts": true, ".wmv": true, ".mov": true,
}

// Dedup walks configured roots computing content hashes for every subtitle
// file and reports duplicate groups and orphaned subtitle files (ones with
// no sibling video of the same basename).
type Dedup struct {
	hashes *store.HashRepository
}

func NewDedup(hashes *store.HashRepository) *Dedup {
	return &Dedup{hashes: hashes}
}

// Scan walks roots, hashing every subtitle file's normalized content
// (CRLF and lone CR -> LF, surrounding whitespace stripped) and upserting it into the
// content-hash table.
func (d *Dedup) Scan(ctx context.Context, roots []string) error {
	for _, root := range roots {
		err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if info.IsDir() || !subtitleExtensions[strings.ToLower(filepath.Ext(path))] {
				return nil
			}
			raw, err := os.ReadFile(path)
			if err != nil {
				return nil // a file that vanished mid-walk is not a scan failure
			}
			hash := ContentHash(raw)
			return d.hashes.Upsert(ctx, store.SubtitleContentHash{
				FilePath: path, ContentHash: hash, SizeBytes: int64(len(raw)),
			})
		})
		if err != nil {
			return fmt.Errorf("health: scan %q: %w", root, err)
		}
	}
	return nil
}

// ContentHash is SHA-256 over the content normalized for duplicate
// comparison: CRLF and lone CR collapsed to LF, then the whole body stripped
// of leading/trailing whitespace.
func ContentHash(raw []byte) string {
	lf := strings.ReplaceAll(strings.ReplaceAll(string(raw), "\r\n", "\n"), "\r", "\n")
	normalized := strings.TrimSpace(lf)
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}

// DuplicateGroups returns every set of 2+ files sharing a content hash.
func (d *Dedup) DuplicateGroups(ctx context.Context) ([]store.DuplicateGroup, error) {
	return d.hashes.DuplicateGroups(ctx)
}

// GroupDecision names which file path within a duplicate group to keep;
// every other file in the group is deleted.
type GroupDecision struct {
	ContentHash string
	Keep        string
}

// DeleteDuplicates pre-validates that every decision names a keep file that
// is actually a member of its group before deleting anything: if any
// decision fails validation, no file in any group is touched.
func (d *Dedup) DeleteDuplicates(ctx context.Context, groups []store.DuplicateGroup, decisions []GroupDecision) error {
	decisionByHash := make(map[string]string, len(decisions))
	for _, dec := range decisions {
		decisionByHash[dec.ContentHash] = dec.Keep
	}

	for _, g := range groups {
		keep, ok := decisionByHash[g.ContentHash]
		if !ok {
			return apperr.Newf(apperr.ContentInvalid, "health: no keep decision for duplicate group %s", g.ContentHash)
		}
		found := false
		for _, f := range g.Files {
			if f.FilePath == keep {
				found = true
				break
			}
		}
		if !found {
			return apperr.Newf(apperr.ContentInvalid, "health: keep path %q is not a member of group %s", keep, g.ContentHash)
		}
	}

	for _, g := range groups {
		keep := decisionByHash[g.ContentHash]
		for _, f := range g.Files {
			if f.FilePath == keep {
				continue
			}
			if err := os.Remove(f.FilePath); err != nil && !os.IsNotExist(err) {
				return apperr.New(apperr.Internal, err)
			}
			if err := d.hashes.DeleteByFilePath(ctx, f.FilePath); err != nil {
				return apperr.New(apperr.Internal, err)
			}
		}
	}
	return nil
}

// Orphans reports subtitle files with no sibling video of the same
// basename in the same directory.
func (d *Dedup) Orphans(ctx context.Context, roots []string) ([]store.SubtitleContentHash, error) {
	liveVideoBasenames := make(map[string]struct{})
	for _, root := range roots {
		_ = filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
			if err != nil || info.IsDir() {
				return nil
			}
			if videoExtensionsForOrphanCheck[strings.ToLower(filepath.Ext(path))] {
				key := filepath.Join(filepath.Dir(path), baseWithoutExt(path))
				liveVideoBasenames[key] = struct{}{}
			}
			return nil
		})
	}

	all, err := d.hashes.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	var orphans []store.SubtitleContentHash
	for _, f := range all {
		key := filepath.Join(filepath.Dir(f.FilePath), subtitleBaseWithoutLangInfix(f.FilePath))
		if _, hasVideo := liveVideoBasenames[key]; !hasVideo {
			orphans = append(orphans, f)
		}
	}
	return orphans, nil
}

func baseWithoutExt(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// subtitleBaseWithoutLangInfix strips the subtitle extension and any
// trailing ".<lang>", ".<lang>.forced" or ".forced.<lang>" infix so
// "show.s01e01.eng.srt" compares equal to the video basename "show.s01e01".
func subtitleBaseWithoutLangInfix(path string) string {
	parts := strings.Split(baseWithoutExt(path), ".")
	if len(parts) > 1 && parts[len(parts)-1] == "forced" {
		parts = parts[:len(parts)-1]
	}
	if len(parts) > 1 {
		last := parts[len(parts)-1]
		if len(last) <= 5 && strings.ToLower(last) == last {
			parts = parts[:len(parts)-1]
		}
	}
	if len(parts) > 1 && parts[len(parts)-1] == "forced" {
		parts = parts[:len(parts)-1]
	}
	return strings.Join(parts, ".")
}

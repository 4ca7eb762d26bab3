// Package vault maintains the content-addressed vault directory and the
// HEIC export tree derived from it. The vault holds exactly one copy of each
// photo worth keeping: the canonical member of every duplicate group plus
// every photo that belongs to no group.
package vault

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"photovault/internal/catalog"
	"photovault/internal/dedup"
)

// Progress is emitted once per vault file considered during Save.
type Progress struct {
	Total   int
	Done    int
	Path    string
	Skipped bool // already present in the vault
}

// SelectForExport returns the photos the vault should contain: each group's
// canonical member and every photo no group claimed. Order follows photo id
// so repeated saves process files identically.
func SelectForExport(photos []catalog.Photo, groups []dedup.Group) []catalog.Photo {
	grouped := make(map[int64]bool)
	canonical := make(map[int64]bool)
	for _, g := range groups {
		canonical[g.CanonicalID] = true
		for _, m := range g.Members {
			grouped[m.ID] = true
		}
	}

	var selected []catalog.Photo
	for _, p := range photos {
		if !grouped[p.ID] || canonical[p.ID] {
			selected = append(selected, p)
		}
	}
	sort.Slice(selected, func(i, j int) bool { return selected[i].ID < selected[j].ID })
	return selected
}

// ContentPath returns the vault location for a photo: two-character shard
// directory from the hash prefix, then the full hash as the file name. The
// name is derived entirely from content, so an existing file at this path is
// always the right bytes.
func ContentPath(root, sha256 string, format catalog.Format) string {
	return filepath.Join(root, sha256[:2], sha256+"."+format.Extension())
}

// Save copies the selected photos into the vault at root and removes vault
// files whose hash is no longer in the selected set. Files already present
// are skipped without comparison.
func Save(root string, selected []catalog.Photo, onProgress func(Progress)) (copied, skipped, removed int, err error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return 0, 0, 0, fmt.Errorf("creating vault %s: %w", root, err)
	}

	want := make(map[string]bool, len(selected))
	for i, p := range selected {
		dst := ContentPath(root, p.SHA256, p.Format)
		want[dst] = true

		if _, statErr := os.Stat(dst); statErr == nil {
			skipped++
			emit(onProgress, Progress{Total: len(selected), Done: i + 1, Path: dst, Skipped: true})
			continue
		}
		if err := copyFile(p.Path, dst); err != nil {
			return copied, skipped, removed, err
		}
		copied++
		emit(onProgress, Progress{Total: len(selected), Done: i + 1, Path: dst})
	}

	removed, err = removeStale(root, want)
	return copied, skipped, removed, err
}

// removeStale deletes vault files outside the wanted set. Only files shaped
// like vault entries (two-character shard directory, hash file name) are
// touched; anything else in the tree is left alone.
func removeStale(root string, want map[string]bool) (int, error) {
	shards, err := os.ReadDir(root)
	if err != nil {
		return 0, fmt.Errorf("reading vault %s: %w", root, err)
	}

	removed := 0
	for _, shard := range shards {
		if !shard.IsDir() || len(shard.Name()) != 2 {
			continue
		}
		dir := filepath.Join(root, shard.Name())
		entries, err := os.ReadDir(dir)
		if err != nil {
			return removed, err
		}
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			path := filepath.Join(dir, e.Name())
			if want[path] || !looksLikeEntry(shard.Name(), e.Name()) {
				continue
			}
			if err := os.Remove(path); err != nil {
				return removed, err
			}
			removed++
		}
	}
	return removed, nil
}

// looksLikeEntry reports whether name is a content-addressed vault file in
// the given shard: sha256 hex stem starting with the shard prefix.
func looksLikeEntry(shard, name string) bool {
	stem, _, ok := strings.Cut(name, ".")
	if !ok || len(stem) != 64 || !strings.HasPrefix(stem, shard) {
		return false
	}
	for _, c := range stem {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening %s: %w", src, err)
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return fmt.Errorf("copying %s: %w", src, err)
	}
	return out.Close()
}

func emit(onProgress func(Progress), p Progress) {
	if onProgress != nil {
		onProgress(p)
	}
}

// Package scanner walks source directories and keeps the catalog in sync
// with what is on disk: new files are hashed and recorded, unchanged files
// are skipped by (mtime, size), and records whose files vanished are
// removed.
package scanner

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"photovault/internal/catalog"
	"photovault/internal/exif"
	"photovault/internal/hasher"
)

// Progress is emitted once per file as it is resolved (skipped or hashed).
type Progress struct {
	Total   int
	Done    int
	Path    string
	Skipped bool
}

// Options tunes a scan. The zero value is usable.
type Options struct {
	// Workers bounds the parallel hashing stage. Zero means GOMAXPROCS.
	Workers int
	// OnProgress, when set, is called from a single goroutine; it must not
	// block for long or the whole pipeline stalls behind it.
	OnProgress func(Progress)
}

// Scanner ingests source directories into a catalog store.
//
// Hashing runs on parallel workers, but the store and the exiftool process
// are confined to one goroutine: neither is safe to share, so all metadata
// extraction and all writes happen on the collector side of the pipeline.
type Scanner struct {
	store *catalog.Store
	exif  *exif.Extractor // nil when exiftool is unavailable
	opts  Options
}

// Result summarizes one source scan.
type Result struct {
	Found   int // candidate files discovered by the walk
	Hashed  int // files (re)hashed and upserted
	Skipped int // files unchanged since the last scan
	Removed int // catalog records whose files no longer exist
}

func New(store *catalog.Store, extractor *exif.Extractor, opts Options) *Scanner {
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	return &Scanner{store: store, exif: extractor, opts: opts}
}

// Walk lists the recognized image files under root, sorted by path. Hidden
// directories are skipped; files with unrecognized extensions are ignored
// rather than reported.
func Walk(root string) ([]catalog.ScannedFile, error) {
	var files []catalog.ScannedFile
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		format := catalog.FormatFromExtension(filepath.Ext(path))
		if format == catalog.FormatUnknown {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		files = append(files, catalog.ScannedFile{
			Path:   path,
			Size:   info.Size(),
			Format: format,
			MTime:  info.ModTime().Unix(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", root, err)
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

// ScanSource walks one registered source and reconciles the catalog with it.
func (s *Scanner) ScanSource(ctx context.Context, src catalog.Source) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	files, err := Walk(src.Path)
	if err != nil {
		return Result{}, err
	}
	res := Result{Found: len(files)}

	seen := make(map[string]bool, len(files))
	var pending []catalog.ScannedFile
	for _, f := range files {
		seen[f.Path] = true
		existing, err := s.store.PhotoByPath(f.Path)
		if err != nil {
			return res, err
		}
		if existing != nil && existing.MTime == f.MTime && existing.Size == f.Size {
			res.Skipped++
			s.emit(Progress{Total: len(files), Done: res.Skipped + res.Hashed, Path: f.Path, Skipped: true})
			continue
		}
		pending = append(pending, f)
	}

	if err := s.hashAndStore(ctx, src.ID, pending, len(files), &res); err != nil {
		return res, err
	}

	removed, err := s.store.DeleteMissing(src.ID, seen)
	if err != nil {
		return res, err
	}
	res.Removed = removed

	if err := s.store.TouchSourceScanned(src.ID, time.Now().Unix()); err != nil {
		return res, err
	}
	return res, nil
}

// hashAndStore runs the parallel hashing stage over pending files and
// collects the results into the store on the calling goroutine.
func (s *Scanner) hashAndStore(ctx context.Context, sourceID int64, pending []catalog.ScannedFile, total int, res *Result) error {
	if len(pending) == 0 {
		return nil
	}

	group, gctx := errgroup.WithContext(ctx)
	work := make(chan catalog.ScannedFile)
	hashed := make(chan *catalog.Photo)

	group.Go(func() error {
		defer close(work)
		for _, f := range pending {
			select {
			case <-gctx.Done():
				return gctx.Err()
			case work <- f:
			}
		}
		return nil
	})

	var wg sync.WaitGroup
	for range s.opts.Workers {
		wg.Add(1)
		group.Go(func() error {
			defer wg.Done()
			for f := range work {
				photo, err := hashFile(f, sourceID)
				if err != nil {
					return err
				}
				select {
				case <-gctx.Done():
					return gctx.Err()
				case hashed <- photo:
				}
			}
			return nil
		})
	}
	go func() {
		wg.Wait()
		close(hashed)
	}()

	// Keep draining after a write error so blocked workers can finish and
	// group.Wait can return the first failure.
	var writeErr error
	for photo := range hashed {
		if writeErr != nil {
			continue
		}
		s.enrich(photo)
		if err := s.store.UpsertPhoto(photo); err != nil {
			writeErr = err
			continue
		}
		res.Hashed++
		s.emit(Progress{Total: total, Done: res.Skipped + res.Hashed, Path: photo.Path})
	}
	if err := group.Wait(); err != nil {
		return err
	}
	return writeErr
}

// hashFile computes the content hash and, for eligible formats, the
// perceptual hashes. A perceptual decode failure degrades the record to
// content-hash-only matching instead of failing the scan.
func hashFile(f catalog.ScannedFile, sourceID int64) (*catalog.Photo, error) {
	sha, err := hasher.ContentHash(f.Path)
	if err != nil {
		return nil, err
	}
	photo := &catalog.Photo{
		SourceID: sourceID,
		Path:     f.Path,
		Size:     f.Size,
		Format:   f.Format,
		SHA256:   sha,
		MTime:    f.MTime,
	}
	ahash, dhash, err := hasher.PerceptualHashes(f.Path, f.Format)
	if err == nil {
		photo.AHash = ahash
		photo.DHash = dhash
	}
	return photo, nil
}

// enrich attaches EXIF metadata and derives the capture time. Best effort:
// a missing extractor or unreadable metadata leaves the photo as-is.
func (s *Scanner) enrich(photo *catalog.Photo) {
	data := s.exif.Extract(photo.Path)
	if data == nil {
		return
	}
	photo.Exif = data
	photo.CaptureTime = exif.ParseDate(data.Date)
}

func (s *Scanner) emit(p Progress) {
	if s.opts.OnProgress != nil {
		s.opts.OnProgress(p)
	}
}

package vault

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"photovault/internal/catalog"
	"photovault/internal/exif"
)

// Renderer converts a photo to HEIC. It is injected so the export logic
// stays portable: which converter exists (if any) is the caller's problem.
type Renderer interface {
	// Render converts src into a HEIC file at dst with the given quality
	// (1-100). dst's directory already exists.
	Render(ctx context.Context, src, dst string, quality int) error
}

// SipsRenderer shells out to the macOS sips tool.
type SipsRenderer struct{}

func (SipsRenderer) Render(ctx context.Context, src, dst string, quality int) error {
	cmd := exec.CommandContext(ctx, "sips",
		"-s", "format", "heic",
		"-s", "formatOptions", strconv.Itoa(quality),
		src, "--out", dst)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("sips %s: %w: %s", src, err, strings.TrimSpace(string(out)))
	}
	return nil
}

// CheckSips reports whether the sips binary is available.
func CheckSips() error {
	if _, err := exec.LookPath("sips"); err != nil {
		return fmt.Errorf("sips not found (HEIC export requires macOS): %w", err)
	}
	return nil
}

// ExportPath returns the date-tree location for a photo's HEIC rendition:
// root/YYYY/MM/DD/stem.heic. The date comes from the EXIF capture time,
// falling back to the file mtime when EXIF is absent.
func ExportPath(root string, p catalog.Photo) string {
	ts := p.CaptureTime
	if ts == 0 && p.Exif != nil {
		ts = exif.ParseDate(p.Exif.Date)
	}
	if ts == 0 {
		ts = p.MTime
	}
	t := time.Unix(ts, 0).UTC()

	stem := strings.TrimSuffix(filepath.Base(p.Path), filepath.Ext(p.Path))
	return filepath.Join(root,
		fmt.Sprintf("%04d", t.Year()),
		fmt.Sprintf("%02d", t.Month()),
		fmt.Sprintf("%02d", t.Day()),
		stem+".heic")
}

// ExportResult summarizes one export run.
type ExportResult struct {
	Converted int
	Skipped   int
}

// Export renders the selected photos into a date-organized HEIC tree at
// root. Already-rendered files are skipped by existence; the export tree is
// append-only, stale cleanup is the vault's job, not the export's.
func Export(ctx context.Context, r Renderer, root string, selected []catalog.Photo, quality int, onProgress func(Progress)) (ExportResult, error) {
	var res ExportResult
	for i, p := range selected {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		dst := ExportPath(root, p)
		if _, err := os.Stat(dst); err == nil {
			res.Skipped++
			emit(onProgress, Progress{Total: len(selected), Done: i + 1, Path: dst, Skipped: true})
			continue
		}
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return res, err
		}
		if err := r.Render(ctx, p.Path, dst, quality); err != nil {
			return res, err
		}
		res.Converted++
		emit(onProgress, Progress{Total: len(selected), Done: i + 1, Path: dst})
	}
	return res, nil
}

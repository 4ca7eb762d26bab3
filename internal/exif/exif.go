// Package exif extracts photo metadata through exiftool. Extraction is
// best-effort: any failure yields nil metadata, never an error, since EXIF
// absence only degrades timestamp-based grouping.
package exif

import (
	"strings"
	"time"

	exiftool "github.com/barasher/go-exiftool"

	"photovault/internal/catalog"
)

// Extractor wraps a long-lived exiftool process. Create one per scan and
// close it when done; spawning exiftool per file is prohibitively slow.
type Extractor struct {
	et *exiftool.Exiftool
}

// NewExtractor starts the exiftool helper process. Fails when the exiftool
// binary is not installed; callers treat that as "no EXIF available".
func NewExtractor() (*Extractor, error) {
	et, err := exiftool.NewExiftool(exiftool.NoPrintConversion())
	if err != nil {
		return nil, err
	}
	return &Extractor{et: et}, nil
}

func (e *Extractor) Close() {
	if e != nil && e.et != nil {
		e.et.Close()
	}
}

// Extract reads EXIF metadata from the file at path. Returns nil when the
// file has no usable metadata or extraction fails.
func (e *Extractor) Extract(path string) *catalog.ExifData {
	if e == nil || e.et == nil {
		return nil
	}

	metas := e.et.ExtractMetadata(path)
	if len(metas) == 0 || metas[0].Err != nil {
		return nil
	}
	meta := metas[0]

	var data catalog.ExifData
	if v, err := meta.GetString("DateTimeOriginal"); err == nil {
		data.Date = v
	} else if v, err := meta.GetString("CreateDate"); err == nil {
		data.Date = v
	} else if v, err := meta.GetString("ModifyDate"); err == nil {
		data.Date = v
	}
	if v, err := meta.GetString("Make"); err == nil {
		data.CameraMake = strings.TrimSpace(v)
	}
	if v, err := meta.GetString("Model"); err == nil {
		data.CameraModel = strings.TrimSpace(v)
	}
	if v, err := meta.GetFloat("GPSLatitude"); err == nil {
		data.GPSLat = v
	}
	if v, err := meta.GetFloat("GPSLongitude"); err == nil {
		data.GPSLon = v
	}
	if v, err := meta.GetInt("ImageWidth"); err == nil {
		data.Width = int(v)
	}
	if v, err := meta.GetInt("ImageHeight"); err == nil {
		data.Height = int(v)
	}

	if data == (catalog.ExifData{}) {
		return nil
	}
	return &data
}

// dateLayouts covers raw EXIF dates ("2024:06:15 12:30:00") and the
// hyphenated variants some writers produce.
var dateLayouts = []string{
	"2006:01:02 15:04:05",
	"2006-01-02 15:04:05",
	"2006:01:02",
	"2006-01-02",
}

// ParseDate converts an EXIF date string to unix seconds (UTC). Returns 0
// for unparseable or out-of-range input. Sub-second and timezone suffixes
// are ignored; the value is only used for burst-window proximity grouping.
func ParseDate(s string) int64 {
	s = strings.TrimSpace(s)
	if len(s) > 19 {
		s = s[:19]
	}
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		if t.Year() < 1970 || t.Year() > 2100 {
			return 0
		}
		return t.Unix()
	}
	return 0
}

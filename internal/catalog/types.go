package catalog

// ExifData holds metadata extracted from a photo file.
type ExifData struct {
	Date        string  `json:"date,omitempty"`
	CameraMake  string  `json:"camera_make,omitempty"`
	CameraModel string  `json:"camera_model,omitempty"`
	GPSLat      float64 `json:"gps_lat,omitempty"`
	GPSLon      float64 `json:"gps_lon,omitempty"`
	Width       int     `json:"width,omitempty"`
	Height      int     `json:"height,omitempty"`
}

// Photo is one physical file tracked by the catalog.
//
// SHA256 is always present. AHash and DHash are set together by the hasher
// for formats that pass the capability gate; nil means the hash is
// unavailable and the photo degrades to content-hash matching.
type Photo struct {
	ID          int64     `json:"id"`
	SourceID    int64     `json:"source_id"`
	Path        string    `json:"path"`
	Size        int64     `json:"size"`
	Format      Format    `json:"format"`
	SHA256      string    `json:"sha256"`
	AHash       *uint64   `json:"-"`
	DHash       *uint64   `json:"-"`
	CaptureTime int64     `json:"capture_time,omitempty"` // unix seconds from EXIF, 0 when unknown
	MTime       int64     `json:"mtime"`
	Exif        *ExifData `json:"exif,omitempty"`
}

// PixelCount returns width*height from EXIF, or 0 when dimensions are unknown.
func (p *Photo) PixelCount() int64 {
	if p.Exif == nil {
		return 0
	}
	return int64(p.Exif.Width) * int64(p.Exif.Height)
}

// HasPerceptualHashes reports whether at least one perceptual hash is present.
func (p *Photo) HasPerceptualHashes() bool {
	return p.AHash != nil || p.DHash != nil
}

// Source is a registered scan directory.
type Source struct {
	ID          int64  `json:"id"`
	Path        string `json:"path"`
	LastScanned int64  `json:"last_scanned,omitempty"` // unix seconds, 0 = never
}

// ScannedFile is a file discovered during a directory walk, before hashing.
type ScannedFile struct {
	Path   string
	Size   int64
	Format Format
	MTime  int64
}

// Stats summarizes catalog contents.
type Stats struct {
	TotalSources int `json:"total_sources"`
	TotalPhotos  int `json:"total_photos"`
}

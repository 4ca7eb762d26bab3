package catalog

import "strings"

// Format identifies a supported photo file format.
type Format int

const (
	FormatUnknown Format = iota
	// RAW formats (highest quality tier)
	FormatCR2
	FormatCR3
	FormatNEF
	FormatARW
	FormatORF
	FormatRAF
	FormatRW2
	FormatDNG
	// Lossless
	FormatTIFF
	FormatPNG
	// Lossy / other
	FormatJPEG
	FormatHEIC
	FormatWebP
)

// QualityTier returns the ranking tier for a format (lower = better).
// RAW originals always beat derived renditions regardless of dimensions.
func (f Format) QualityTier() int {
	switch f {
	case FormatCR2, FormatCR3, FormatNEF, FormatARW, FormatORF, FormatRAF, FormatRW2, FormatDNG:
		return 0
	case FormatTIFF:
		return 1
	case FormatPNG:
		return 2
	case FormatJPEG:
		return 3
	case FormatHEIC:
		return 4
	case FormatWebP:
		return 5
	}
	return 6
}

// SupportsPerceptualHash reports whether the decoder for this format is safe
// to invoke for hashing. HEIC and RAW containers are excluded: their decoders
// hang or misbehave, and those files are still covered by content hashing.
func (f Format) SupportsPerceptualHash() bool {
	switch f {
	case FormatJPEG, FormatPNG, FormatTIFF, FormatWebP:
		return true
	}
	return false
}

// IsRaw reports whether the format is a camera RAW container.
func (f Format) IsRaw() bool {
	return f.QualityTier() == 0
}

func (f Format) String() string {
	switch f {
	case FormatCR2:
		return "CR2"
	case FormatCR3:
		return "CR3"
	case FormatNEF:
		return "NEF"
	case FormatARW:
		return "ARW"
	case FormatORF:
		return "ORF"
	case FormatRAF:
		return "RAF"
	case FormatRW2:
		return "RW2"
	case FormatDNG:
		return "DNG"
	case FormatTIFF:
		return "TIFF"
	case FormatPNG:
		return "PNG"
	case FormatJPEG:
		return "JPEG"
	case FormatHEIC:
		return "HEIC"
	case FormatWebP:
		return "WebP"
	}
	return "unknown"
}

// Extension returns the canonical file extension (without dot).
func (f Format) Extension() string {
	switch f {
	case FormatJPEG:
		return "jpg"
	case FormatTIFF:
		return "tiff"
	case FormatUnknown:
		return "bin"
	}
	return strings.ToLower(f.String())
}

// FormatFromExtension maps a file extension (with or without leading dot,
// any case) to a Format. Returns FormatUnknown for unsupported extensions.
func FormatFromExtension(ext string) Format {
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "jpg", "jpeg":
		return FormatJPEG
	case "png":
		return FormatPNG
	case "tif", "tiff":
		return FormatTIFF
	case "webp":
		return FormatWebP
	case "heic", "heif":
		return FormatHEIC
	case "cr2":
		return FormatCR2
	case "cr3":
		return FormatCR3
	case "nef":
		return FormatNEF
	case "arw":
		return FormatARW
	case "orf":
		return FormatORF
	case "raf":
		return FormatRAF
	case "rw2":
		return FormatRW2
	case "dng":
		return FormatDNG
	}
	return FormatUnknown
}

// FormatFromString maps a stored format name back to a Format.
func FormatFromString(s string) Format {
	switch s {
	case "CR2":
		return FormatCR2
	case "CR3":
		return FormatCR3
	case "NEF":
		return FormatNEF
	case "ARW":
		return FormatARW
	case "ORF":
		return FormatORF
	case "RAF":
		return FormatRAF
	case "RW2":
		return FormatRW2
	case "DNG":
		return FormatDNG
	case "TIFF":
		return FormatTIFF
	case "PNG":
		return FormatPNG
	case "JPEG":
		return FormatJPEG
	case "HEIC":
		return FormatHEIC
	case "WebP":
		return FormatWebP
	}
	return FormatUnknown
}

package dedup

import "photovault/internal/catalog"

// ElectCanonical selects the best-quality member of a duplicate group. The
// order is part of the output contract — export decides what is redundant
// based on it:
//
//  1. format quality tier (RAW > TIFF > PNG > JPEG > HEIC > WebP)
//  2. pixel count from EXIF dimensions, when available
//  3. larger file size (proxy for less lossy compression)
//  4. earliest mtime
//  5. lowest id, so repeated runs on unchanged input elect the same member
//
// Membership is never mutated; nil is returned only for an empty slice.
func ElectCanonical(members []*catalog.Photo) *catalog.Photo {
	var best *catalog.Photo
	for _, m := range members {
		if best == nil || ranksAbove(m, best) {
			best = m
		}
	}
	return best
}

// ranksAbove reports whether a should be preferred over b as the canonical
// representative.
func ranksAbove(a, b *catalog.Photo) bool {
	if ta, tb := a.Format.QualityTier(), b.Format.QualityTier(); ta != tb {
		return ta < tb
	}
	if pa, pb := a.PixelCount(), b.PixelCount(); pa != pb {
		return pa > pb
	}
	if a.Size != b.Size {
		return a.Size > b.Size
	}
	if a.MTime != b.MTime {
		return a.MTime < b.MTime
	}
	return a.ID < b.ID
}

// Package hasher computes the content and perceptual hashes the matching
// engine consumes. Perceptual hashing is gated by the format capability
// table: formats whose decoders are unsafe are never decoded.
package hasher

import (
	"crypto/sha256"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"math/bits"
	"os"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"photovault/internal/catalog"
)

// ContentHash returns the SHA-256 digest of the file's raw bytes as hex.
func ContentHash(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hashing %s: %w", path, err)
	}
	return fmt.Sprintf("%x", h.Sum(nil)), nil
}

// PerceptualHashes computes the average hash and difference hash for the
// image at path. Both are derived from a single 9x8 grayscale pass, so they
// are always returned together. Formats failing the capability gate return
// (nil, nil, nil): absence of perceptual hashes is a degraded mode, not an
// error.
func PerceptualHashes(path string, format catalog.Format) (ahash, dhash *uint64, err error) {
	if !format.SupportsPerceptualHash() {
		return nil, nil, nil
	}

	pixels, err := loadGrayscale9x8(path)
	if err != nil {
		return nil, nil, err
	}

	a := computeAHash(pixels)
	d := computeDHash(pixels)
	return &a, &d, nil
}

// HammingDistance returns the number of differing bits between two 64-bit
// hashes. Symmetric, zero only for identical codes, range [0, 64].
func HammingDistance(a, b uint64) int {
	return bits.OnesCount64(a ^ b)
}

// loadGrayscale9x8 decodes the image and produces the 9x8 grayscale buffer
// both hashes are computed from. The 9-wide rows give the difference hash
// its 8 horizontal comparisons per row; the average hash uses the left 8x8
// block.
func loadGrayscale9x8(path string) ([72]uint8, error) {
	var pixels [72]uint8

	f, err := os.Open(path)
	if err != nil {
		return pixels, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return pixels, fmt.Errorf("decoding %s: %w", path, err)
	}

	resized := image.NewRGBA(image.Rect(0, 0, 9, 8))
	draw.BiLinear.Scale(resized, resized.Bounds(), img, img.Bounds(), draw.Over, nil)

	for y := range 8 {
		for x := range 9 {
			r, g, b, _ := resized.At(x, y).RGBA()
			// ITU-R BT.601 luma.
			luma := 0.299*float64(r>>8) + 0.587*float64(g>>8) + 0.114*float64(b>>8)
			pixels[y*9+x] = uint8(luma)
		}
	}
	return pixels, nil
}

// computeAHash sets bit i when pixel i of the left 8x8 block is at or above
// the block mean.
func computeAHash(pixels [72]uint8) uint64 {
	var block [64]uint8
	for row := range 8 {
		for col := range 8 {
			block[row*8+col] = pixels[row*9+col]
		}
	}

	var sum uint64
	for _, p := range block {
		sum += uint64(p)
	}
	mean := sum / 64

	var hash uint64
	for i, p := range block {
		if uint64(p) >= mean {
			hash |= 1 << i
		}
	}
	return hash
}

// computeDHash sets one bit per adjacent horizontal pixel pair: 8 rows of 9
// pixels give 8 comparisons per row.
func computeDHash(pixels [72]uint8) uint64 {
	var hash uint64
	bit := 0
	for row := range 8 {
		for col := range 8 {
			left := pixels[row*9+col]
			right := pixels[row*9+col+1]
			if left > right {
				hash |= 1 << bit
			}
			bit++
		}
	}
	return hash
}

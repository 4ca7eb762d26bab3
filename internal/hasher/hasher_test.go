package hasher

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"photovault/internal/catalog"
)

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
	return path
}

func writePNG(t *testing.T, name string, img image.Image) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("creating %s: %v", name, err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encoding %s: %v", name, err)
	}
	return path
}

// gradient produces a horizontal luminance ramp, optionally inverted.
func gradient(inverted bool) image.Image {
	img := image.NewGray(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			v := uint8(x * 4)
			if inverted {
				v = 255 - v
			}
			img.SetGray(x, y, color.Gray{Y: v})
		}
	}
	return img
}

func TestContentHash(t *testing.T) {
	path := writeFile(t, "a.bin", []byte("hello"))
	got, err := ContentHash(path)
	if err != nil {
		t.Fatalf("hashing: %v", err)
	}
	const want = "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824"
	if got != want {
		t.Errorf("got %s, want %s", got, want)
	}
}

func TestContentHash_MissingFile(t *testing.T) {
	if _, err := ContentHash(filepath.Join(t.TempDir(), "nope.jpg")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestPerceptualHashes_GatedFormats(t *testing.T) {
	// The capability gate must refuse before touching the file: a path
	// that does not exist proves no decode was attempted.
	for _, f := range []catalog.Format{catalog.FormatHEIC, catalog.FormatNEF, catalog.FormatCR2} {
		ahash, dhash, err := PerceptualHashes("/does/not/exist.bin", f)
		if err != nil {
			t.Errorf("%s: unexpected error: %v", f, err)
		}
		if ahash != nil || dhash != nil {
			t.Errorf("%s: expected nil hashes for gated format", f)
		}
	}
}

func TestPerceptualHashes_Deterministic(t *testing.T) {
	img := gradient(false)
	a := writePNG(t, "a.png", img)
	b := writePNG(t, "b.png", img)

	ah1, dh1, err := PerceptualHashes(a, catalog.FormatPNG)
	if err != nil {
		t.Fatalf("hashing a: %v", err)
	}
	ah2, dh2, err := PerceptualHashes(b, catalog.FormatPNG)
	if err != nil {
		t.Fatalf("hashing b: %v", err)
	}
	if ah1 == nil || dh1 == nil {
		t.Fatal("expected both hashes for eligible format")
	}
	if *ah1 != *ah2 || *dh1 != *dh2 {
		t.Errorf("identical images hashed differently: %016x/%016x vs %016x/%016x",
			*ah1, *dh1, *ah2, *dh2)
	}
}

func TestPerceptualHashes_DistinguishesStructure(t *testing.T) {
	a := writePNG(t, "ramp.png", gradient(false))
	b := writePNG(t, "ramp_inverted.png", gradient(true))

	_, dh1, err := PerceptualHashes(a, catalog.FormatPNG)
	if err != nil {
		t.Fatalf("hashing ramp: %v", err)
	}
	_, dh2, err := PerceptualHashes(b, catalog.FormatPNG)
	if err != nil {
		t.Fatalf("hashing inverted ramp: %v", err)
	}

	// The ramps disagree on every horizontal comparison, so their
	// difference hashes sit far apart.
	if d := HammingDistance(*dh1, *dh2); d < 16 {
		t.Errorf("expected structurally distinct images far apart, distance %d", d)
	}
}

func TestPerceptualHashes_CorruptFile(t *testing.T) {
	path := writeFile(t, "junk.png", []byte("not an image at all"))
	_, _, err := PerceptualHashes(path, catalog.FormatPNG)
	if err == nil {
		t.Error("expected decode error for corrupt file")
	}
}

func TestHammingDistance(t *testing.T) {
	tests := []struct {
		a, b uint64
		want int
	}{
		{0, 0, 0},
		{0, 1, 1},
		{0, 0xFF, 8},
		{0xFFFFFFFFFFFFFFFF, 0, 64},
		{0b1010, 0b0101, 4},
	}
	for _, tt := range tests {
		if got := HammingDistance(tt.a, tt.b); got != tt.want {
			t.Errorf("distance(%x, %x) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
		if got := HammingDistance(tt.b, tt.a); got != tt.want {
			t.Errorf("distance not symmetric for (%x, %x)", tt.a, tt.b)
		}
	}
}

package scanner

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"photovault/internal/catalog"
)

func writeFile(t *testing.T, root, rel string, data []byte) string {
	t.Helper()
	path := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("writing %s: %v", rel, err)
	}
	return path
}

func writePNG(t *testing.T, root, rel string) string {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 16, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			img.SetGray(x, y, color.Gray{Y: uint8(x * 16)})
		}
	}
	path := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("creating %s: %v", rel, err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encoding %s: %v", rel, err)
	}
	return path
}

func openTestStore(t *testing.T) *catalog.Store {
	t.Helper()
	store, err := catalog.Open(filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestWalk(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "b.jpg", []byte("jpg"))
	writeFile(t, root, "sub/a.png", []byte("png"))
	writeFile(t, root, "sub/raw.NEF", []byte("raw"))
	writeFile(t, root, "notes.txt", []byte("ignore me"))
	writeFile(t, root, ".hidden/c.jpg", []byte("hidden"))

	files, err := Walk(root)
	if err != nil {
		t.Fatalf("walking: %v", err)
	}

	if len(files) != 3 {
		t.Fatalf("expected 3 files, got %d: %+v", len(files), files)
	}
	// Sorted by path: b.jpg < sub/a.png < sub/raw.NEF.
	if filepath.Base(files[0].Path) != "b.jpg" || files[0].Format != catalog.FormatJPEG {
		t.Errorf("unexpected first file: %+v", files[0])
	}
	if filepath.Base(files[1].Path) != "a.png" || files[1].Format != catalog.FormatPNG {
		t.Errorf("unexpected second file: %+v", files[1])
	}
	if filepath.Base(files[2].Path) != "raw.NEF" || files[2].Format != catalog.FormatNEF {
		t.Errorf("unexpected third file: %+v", files[2])
	}
	for _, f := range files {
		if f.Size == 0 || f.MTime == 0 {
			t.Errorf("missing stat metadata: %+v", f)
		}
	}
}

func TestWalk_MissingRoot(t *testing.T) {
	if _, err := Walk(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Error("expected error for missing root")
	}
}

func TestScanSource_HashesAndDegrades(t *testing.T) {
	store := openTestStore(t)
	dir := t.TempDir()
	writePNG(t, dir, "good.png")
	// A .jpg that is not a decodable image: content hash still works, the
	// perceptual side degrades to nil.
	writeFile(t, dir, "broken.jpg", []byte("not a jpeg"))
	writeFile(t, dir, "shot.nef", []byte("raw bytes"))

	src, err := store.AddSource(dir)
	if err != nil {
		t.Fatalf("adding source: %v", err)
	}

	var events int
	sc := New(store, nil, Options{OnProgress: func(Progress) { events++ }})
	res, err := sc.ScanSource(context.Background(), src)
	if err != nil {
		t.Fatalf("scanning: %v", err)
	}
	if res.Found != 3 || res.Hashed != 3 || res.Skipped != 0 || res.Removed != 0 {
		t.Errorf("unexpected result: %+v", res)
	}
	if events != 3 {
		t.Errorf("expected 3 progress events, got %d", events)
	}

	photos, err := store.AllPhotos()
	if err != nil {
		t.Fatalf("listing photos: %v", err)
	}
	if len(photos) != 3 {
		t.Fatalf("expected 3 photos, got %d", len(photos))
	}
	byName := make(map[string]catalog.Photo)
	for _, p := range photos {
		if p.SHA256 == "" {
			t.Errorf("%s: missing content hash", p.Path)
		}
		byName[filepath.Base(p.Path)] = p
	}
	if p := byName["good.png"]; !p.HasPerceptualHashes() {
		t.Error("good.png: expected perceptual hashes")
	}
	if p := byName["broken.jpg"]; p.HasPerceptualHashes() {
		t.Error("broken.jpg: expected degraded record without perceptual hashes")
	}
	if p := byName["shot.nef"]; p.HasPerceptualHashes() {
		t.Error("shot.nef: RAW must never be decoded for perceptual hashing")
	}

	srcs, _ := store.Sources()
	if srcs[0].LastScanned == 0 {
		t.Error("expected last_scanned to be set after a scan")
	}
}

func TestScanSource_IncrementalSkip(t *testing.T) {
	store := openTestStore(t)
	dir := t.TempDir()
	writePNG(t, dir, "a.png")
	writeFile(t, dir, "b.jpg", []byte("bytes"))

	src, _ := store.AddSource(dir)
	sc := New(store, nil, Options{})

	if _, err := sc.ScanSource(context.Background(), src); err != nil {
		t.Fatalf("first scan: %v", err)
	}
	res, err := sc.ScanSource(context.Background(), src)
	if err != nil {
		t.Fatalf("second scan: %v", err)
	}
	if res.Skipped != 2 || res.Hashed != 0 {
		t.Errorf("expected all files skipped on unchanged rescan, got %+v", res)
	}
}

func TestScanSource_RemovesMissing(t *testing.T) {
	store := openTestStore(t)
	dir := t.TempDir()
	writeFile(t, dir, "keep.jpg", []byte("keep"))
	gone := writeFile(t, dir, "gone.jpg", []byte("gone"))

	src, _ := store.AddSource(dir)
	sc := New(store, nil, Options{})
	if _, err := sc.ScanSource(context.Background(), src); err != nil {
		t.Fatalf("first scan: %v", err)
	}

	if err := os.Remove(gone); err != nil {
		t.Fatalf("removing file: %v", err)
	}
	res, err := sc.ScanSource(context.Background(), src)
	if err != nil {
		t.Fatalf("second scan: %v", err)
	}
	if res.Removed != 1 {
		t.Errorf("expected 1 removed record, got %+v", res)
	}

	photos, _ := store.AllPhotos()
	if len(photos) != 1 || filepath.Base(photos[0].Path) != "keep.jpg" {
		t.Errorf("unexpected surviving photos: %+v", photos)
	}
}

func TestScanSource_Cancelled(t *testing.T) {
	store := openTestStore(t)
	dir := t.TempDir()
	writeFile(t, dir, "a.jpg", []byte("a"))

	src, _ := store.AddSource(dir)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sc := New(store, nil, Options{})
	if _, err := sc.ScanSource(ctx, src); err == nil {
		t.Error("expected error from cancelled scan")
	}
}

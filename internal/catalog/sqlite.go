package catalog

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	_ "github.com/mattn/go-sqlite3"
)

// Settings keys stored in the settings table.
const (
	SettingVaultPath  = "vault_path"
	SettingExportPath = "export_path"
)

// Store is the SQLite-backed photo catalog.
//
// The store must not be shared across goroutines while a scan's parallel
// hashing stage is running; the scanner writes from a single coordinating
// goroutine for that reason.
type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS sources (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	path TEXT NOT NULL UNIQUE,
	last_scanned INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS photos (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	source_id INTEGER NOT NULL REFERENCES sources(id),
	path TEXT NOT NULL UNIQUE,
	size INTEGER NOT NULL,
	format TEXT NOT NULL,
	sha256 TEXT NOT NULL,
	ahash TEXT,
	dhash TEXT,
	capture_time INTEGER NOT NULL DEFAULT 0,
	mtime INTEGER NOT NULL,
	exif_date TEXT,
	camera_make TEXT,
	camera_model TEXT,
	gps_lat REAL,
	gps_lon REAL,
	width INTEGER,
	height INTEGER
);
CREATE INDEX IF NOT EXISTS idx_photos_sha256 ON photos(sha256);
CREATE INDEX IF NOT EXISTS idx_photos_source ON photos(source_id);
CREATE TABLE IF NOT EXISTS settings (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL
);`

// Open opens (creating if necessary) the catalog database at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating catalog directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening catalog: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing catalog schema: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// AddSource registers a directory as a scan source. Registering the same
// path twice is a no-op and returns the existing source.
func (s *Store) AddSource(path string) (Source, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return Source{}, fmt.Errorf("resolving source path: %w", err)
	}

	if _, err := s.db.Exec("INSERT OR IGNORE INTO sources (path) VALUES (?)", abs); err != nil {
		return Source{}, fmt.Errorf("registering source: %w", err)
	}

	var src Source
	row := s.db.QueryRow("SELECT id, path, last_scanned FROM sources WHERE path = ?", abs)
	if err := row.Scan(&src.ID, &src.Path, &src.LastScanned); err != nil {
		return Source{}, fmt.Errorf("reading source: %w", err)
	}
	return src, nil
}

// Sources returns all registered sources ordered by id.
func (s *Store) Sources() ([]Source, error) {
	rows, err := s.db.Query("SELECT id, path, last_scanned FROM sources ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("listing sources: %w", err)
	}
	defer rows.Close()

	var sources []Source
	for rows.Next() {
		var src Source
		if err := rows.Scan(&src.ID, &src.Path, &src.LastScanned); err != nil {
			return nil, fmt.Errorf("scanning source row: %w", err)
		}
		sources = append(sources, src)
	}
	return sources, rows.Err()
}

// TouchSourceScanned records the time a source was last scanned.
func (s *Store) TouchSourceScanned(id int64, ts int64) error {
	_, err := s.db.Exec("UPDATE sources SET last_scanned = ? WHERE id = ?", ts, id)
	if err != nil {
		return fmt.Errorf("updating source scan time: %w", err)
	}
	return nil
}

// UpsertPhoto inserts or replaces the photo record keyed by path and sets
// the assigned id on p.
func (s *Store) UpsertPhoto(p *Photo) error {
	var exifDate, camMake, camModel sql.NullString
	var lat, lon sql.NullFloat64
	var width, height sql.NullInt64
	if p.Exif != nil {
		exifDate = nullString(p.Exif.Date)
		camMake = nullString(p.Exif.CameraMake)
		camModel = nullString(p.Exif.CameraModel)
		if p.Exif.GPSLat != 0 || p.Exif.GPSLon != 0 {
			lat = sql.NullFloat64{Float64: p.Exif.GPSLat, Valid: true}
			lon = sql.NullFloat64{Float64: p.Exif.GPSLon, Valid: true}
		}
		if p.Exif.Width > 0 {
			width = sql.NullInt64{Int64: int64(p.Exif.Width), Valid: true}
		}
		if p.Exif.Height > 0 {
			height = sql.NullInt64{Int64: int64(p.Exif.Height), Valid: true}
		}
	}

	_, err := s.db.Exec(`
		INSERT INTO photos (
			source_id, path, size, format, sha256, ahash, dhash,
			capture_time, mtime, exif_date, camera_make, camera_model,
			gps_lat, gps_lon, width, height
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			source_id = excluded.source_id,
			size = excluded.size,
			format = excluded.format,
			sha256 = excluded.sha256,
			ahash = excluded.ahash,
			dhash = excluded.dhash,
			capture_time = excluded.capture_time,
			mtime = excluded.mtime,
			exif_date = excluded.exif_date,
			camera_make = excluded.camera_make,
			camera_model = excluded.camera_model,
			gps_lat = excluded.gps_lat,
			gps_lon = excluded.gps_lon,
			width = excluded.width,
			height = excluded.height`,
		p.SourceID, p.Path, p.Size, p.Format.String(), p.SHA256,
		hashToHex(p.AHash), hashToHex(p.DHash),
		p.CaptureTime, p.MTime, exifDate, camMake, camModel, lat, lon, width, height,
	)
	if err != nil {
		return fmt.Errorf("storing photo %s: %w", p.Path, err)
	}

	row := s.db.QueryRow("SELECT id FROM photos WHERE path = ?", p.Path)
	if err := row.Scan(&p.ID); err != nil {
		return fmt.Errorf("reading photo id for %s: %w", p.Path, err)
	}
	return nil
}

// PhotoByPath returns the photo at path, or nil when not cataloged.
func (s *Store) PhotoByPath(path string) (*Photo, error) {
	rows, err := s.db.Query(selectPhotos+" WHERE path = ?", path)
	if err != nil {
		return nil, fmt.Errorf("querying photo %s: %w", path, err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	p, err := scanPhoto(rows)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// AllPhotos returns every cataloged photo ordered by id. The stable order is
// what makes matching runs reproducible on identical catalog state.
func (s *Store) AllPhotos() ([]Photo, error) {
	rows, err := s.db.Query(selectPhotos + " ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("listing photos: %w", err)
	}
	defer rows.Close()

	var photos []Photo
	for rows.Next() {
		p, err := scanPhoto(rows)
		if err != nil {
			return nil, err
		}
		photos = append(photos, *p)
	}
	return photos, rows.Err()
}

// DeleteMissing removes cataloged photos under a source whose paths are not
// in seen. Returns the number of removed records.
func (s *Store) DeleteMissing(sourceID int64, seen map[string]bool) (int, error) {
	rows, err := s.db.Query("SELECT id, path FROM photos WHERE source_id = ?", sourceID)
	if err != nil {
		return 0, fmt.Errorf("listing photos for source %d: %w", sourceID, err)
	}

	var stale []int64
	for rows.Next() {
		var id int64
		var path string
		if err := rows.Scan(&id, &path); err != nil {
			rows.Close()
			return 0, fmt.Errorf("scanning photo row: %w", err)
		}
		if !seen[path] {
			stale = append(stale, id)
		}
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return 0, err
	}
	rows.Close()

	for _, id := range stale {
		if _, err := s.db.Exec("DELETE FROM photos WHERE id = ?", id); err != nil {
			return 0, fmt.Errorf("deleting photo %d: %w", id, err)
		}
	}
	return len(stale), nil
}

// Stats returns catalog summary counts.
func (s *Store) Stats() (Stats, error) {
	var st Stats
	if err := s.db.QueryRow("SELECT COUNT(*) FROM sources").Scan(&st.TotalSources); err != nil {
		return st, fmt.Errorf("counting sources: %w", err)
	}
	if err := s.db.QueryRow("SELECT COUNT(*) FROM photos").Scan(&st.TotalPhotos); err != nil {
		return st, fmt.Errorf("counting photos: %w", err)
	}
	return st, nil
}

// Setting returns a settings value, or "" when unset.
func (s *Store) Setting(key string) (string, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading setting %s: %w", key, err)
	}
	return value, nil
}

// SetSetting stores a settings value.
func (s *Store) SetSetting(key, value string) error {
	_, err := s.db.Exec(
		"INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value,
	)
	if err != nil {
		return fmt.Errorf("writing setting %s: %w", key, err)
	}
	return nil
}

const selectPhotos = `
	SELECT id, source_id, path, size, format, sha256, ahash, dhash,
	       capture_time, mtime, exif_date, camera_make, camera_model,
	       gps_lat, gps_lon, width, height
	FROM photos`

func scanPhoto(rows *sql.Rows) (*Photo, error) {
	var p Photo
	var format string
	var ahash, dhash, exifDate, camMake, camModel sql.NullString
	var lat, lon sql.NullFloat64
	var width, height sql.NullInt64

	err := rows.Scan(
		&p.ID, &p.SourceID, &p.Path, &p.Size, &format, &p.SHA256,
		&ahash, &dhash, &p.CaptureTime, &p.MTime,
		&exifDate, &camMake, &camModel, &lat, &lon, &width, &height,
	)
	if err != nil {
		return nil, fmt.Errorf("scanning photo row: %w", err)
	}

	p.Format = FormatFromString(format)
	p.AHash = hexToHash(ahash)
	p.DHash = hexToHash(dhash)

	if exifDate.Valid || camMake.Valid || camModel.Valid || lat.Valid || width.Valid {
		p.Exif = &ExifData{
			Date:        exifDate.String,
			CameraMake:  camMake.String,
			CameraModel: camModel.String,
			GPSLat:      lat.Float64,
			GPSLon:      lon.Float64,
			Width:       int(width.Int64),
			Height:      int(height.Int64),
		}
	}
	return &p, nil
}

func hashToHex(h *uint64) sql.NullString {
	if h == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: fmt.Sprintf("%016x", *h), Valid: true}
}

func hexToHash(s sql.NullString) *uint64 {
	if !s.Valid {
		return nil
	}
	v, err := strconv.ParseUint(s.String, 16, 64)
	if err != nil {
		return nil
	}
	return &v
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

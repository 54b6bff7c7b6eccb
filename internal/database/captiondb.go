package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/corona10/goimagehash"
	"github.com/nao1215/captioner/internal/model"
	_ "modernc.org/sqlite" // SQLite driver
)

// FileName is the database file name inside the database directory.
const FileName = "captioner.db"

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// CaptionDB stores caption history in SQLite.
type CaptionDB struct {
	db     *sql.DB
	dbPath string
	now    func() time.Time
}

// Options configures CaptionDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a CaptionDB in dbDir.
func Open(dbDir string, opts Options) (*CaptionDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else if err := os.MkdirAll(dbDir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite only supports one writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	cdb := &CaptionDB{db: db, dbPath: dbPath, now: time.Now}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}
	if err := cdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return cdb, nil
}

// Close closes the database connection.
func (cdb *CaptionDB) Close() error {
	return cdb.db.Close()
}

// Path returns the database file path.
func (cdb *CaptionDB) Path() string {
	return cdb.dbPath
}

func (cdb *CaptionDB) createTables() error {
	schema := `
	-- One row per distinct image content
	CREATE TABLE IF NOT EXISTS images (
		id TEXT PRIMARY KEY,
		source TEXT NOT NULL,
		phash TEXT,
		first_seen TEXT NOT NULL,
		last_seen TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_images_phash ON images(phash);

	-- Every caption produced for an image
	CREATE TABLE IF NOT EXISTS captions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		image_id TEXT NOT NULL REFERENCES images(id),
		caption TEXT NOT NULL,
		confidence REAL NOT NULL,
		passed INTEGER NOT NULL,
		escalate INTEGER NOT NULL,
		template TEXT,
		version TEXT,
		created_at TEXT NOT NULL,
		result_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_captions_image ON captions(image_id);
	CREATE INDEX IF NOT EXISTS idx_captions_created ON captions(created_at);
	`
	_, err := cdb.db.ExecContext(context.Background(), schema)
	return err
}

// ImageEntry is a stored image.
type ImageEntry struct {
	ID        string
	Source    string
	PHash     string
	FirstSeen time.Time
	LastSeen  time.Time
	Captions  int

	// Distance is the perceptual hash distance, set by FindSimilar.
	Distance int
}

// HistoryEntry is one stored caption.
type HistoryEntry struct {
	ID         int64
	ImageID    string
	Caption    string
	Confidence float64
	Passed     bool
	Escalate   bool
	Template   model.TemplateID
	Version    string
	CreatedAt  time.Time
	Result     *model.PipelineResult
}

// SaveRecord stores a captioned image. The image row is created on first
// sight and its source and last_seen are refreshed afterwards. phash may be
// empty for images that could not be decoded.
func (cdb *CaptionDB) SaveRecord(ctx context.Context, rec *model.CaptionRecord, phash string) error {
	if rec == nil || rec.Result == nil || rec.ImageID == "" {
		return errors.New("record needs an image id and a result")
	}
	resultJSON, err := json.Marshal(rec.Result)
	if err != nil {
		return fmt.Errorf("failed to serialize result: %w", err)
	}
	now := cdb.now().UTC().Format(time.RFC3339Nano)

	tx, err := cdb.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }() //nolint:errcheck // no-op after commit

	_, err = tx.ExecContext(ctx, `
	INSERT INTO images (id, source, phash, first_seen, last_seen)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		source = excluded.source,
		phash = COALESCE(NULLIF(excluded.phash, ''), images.phash),
		last_seen = excluded.last_seen
	`, rec.ImageID, rec.Source, phash, now, now)
	if err != nil {
		return fmt.Errorf("failed to save image: %w", err)
	}

	res := rec.Result
	_, err = tx.ExecContext(ctx, `
	INSERT INTO captions (image_id, caption, confidence, passed, escalate, template, version, created_at, result_json)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.ImageID, res.Caption, res.Confidence, res.Signals.Gate.Passed, res.RecommendCloudEscalation,
		string(res.Signals.Caption.TemplateID), res.Version, now, string(resultJSON))
	if err != nil {
		return fmt.Errorf("failed to save caption: %w", err)
	}
	return tx.Commit()
}

// IsProcessed reports whether any caption is stored for imageID.
func (cdb *CaptionDB) IsProcessed(ctx context.Context, imageID string) (bool, error) {
	var count int
	err := cdb.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM captions WHERE image_id = ?", imageID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check image: %w", err)
	}
	return count > 0, nil
}

// History returns the captions stored for imageID, oldest first.
func (cdb *CaptionDB) History(ctx context.Context, imageID string) ([]HistoryEntry, error) {
	rows, err := cdb.db.QueryContext(ctx, `
	SELECT id, image_id, caption, confidence, passed, escalate, template, version, created_at, result_json
	FROM captions
	WHERE image_id = ?
	ORDER BY created_at ASC, id ASC
	`, imageID)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var entries []HistoryEntry
	for rows.Next() {
		var (
			e          HistoryEntry
			template   sql.NullString
			version    sql.NullString
			createdAt  string
			resultJSON string
		)
		if err := rows.Scan(&e.ID, &e.ImageID, &e.Caption, &e.Confidence, &e.Passed, &e.Escalate,
			&template, &version, &createdAt, &resultJSON); err != nil {
			return nil, fmt.Errorf("failed to scan caption: %w", err)
		}
		e.Template = model.TemplateID(template.String)
		e.Version = version.String
		e.CreatedAt = parseTimestamp(createdAt)

		var result model.PipelineResult
		if err := json.Unmarshal([]byte(resultJSON), &result); err != nil {
			return nil, fmt.Errorf("failed to deserialize result: %w", err)
		}
		e.Result = &result
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Image returns the stored image with the given id.
func (cdb *CaptionDB) Image(ctx context.Context, imageID string) (*ImageEntry, error) {
	row := cdb.db.QueryRowContext(ctx, imageQuery+" WHERE i.id = ? GROUP BY i.id", imageID)
	e, err := scanImage(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("image %s: %w", imageID, ErrNotFound)
	}
	return e, err
}

// ListImages returns every stored image, most recently seen first.
func (cdb *CaptionDB) ListImages(ctx context.Context) ([]ImageEntry, error) {
	rows, err := cdb.db.QueryContext(ctx, imageQuery+" GROUP BY i.id ORDER BY i.last_seen DESC, i.id ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to list images: %w", err)
	}
	defer rows.Close()

	var images []ImageEntry
	for rows.Next() {
		e, err := scanImage(rows)
		if err != nil {
			return nil, err
		}
		images = append(images, *e)
	}
	return images, rows.Err()
}

// FindSimilar returns the images whose perceptual hash is within
// maxDistance of phash, closest first. Images without a hash are ignored.
func (cdb *CaptionDB) FindSimilar(ctx context.Context, phash string, maxDistance int) ([]ImageEntry, error) {
	target, err := goimagehash.ImageHashFromString(phash)
	if err != nil {
		return nil, fmt.Errorf("invalid perceptual hash %q: %w", phash, err)
	}

	all, err := cdb.ListImages(ctx)
	if err != nil {
		return nil, err
	}
	var similar []ImageEntry
	for _, img := range all {
		if img.PHash == "" {
			continue
		}
		h, err := goimagehash.ImageHashFromString(img.PHash)
		if err != nil {
			continue
		}
		d, err := target.Distance(h)
		if err != nil || d > maxDistance {
			continue
		}
		img.Distance = d
		similar = append(similar, img)
	}
	sort.Slice(similar, func(i, j int) bool {
		if similar[i].Distance != similar[j].Distance {
			return similar[i].Distance < similar[j].Distance
		}
		return similar[i].ID < similar[j].ID
	})
	return similar, nil
}

const imageQuery = `
	SELECT i.id, i.source, COALESCE(i.phash, ''), i.first_seen, i.last_seen, COUNT(c.id)
	FROM images i LEFT JOIN captions c ON c.image_id = i.id`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanImage(row rowScanner) (*ImageEntry, error) {
	var (
		e         ImageEntry
		firstSeen string
		lastSeen  string
	)
	if err := row.Scan(&e.ID, &e.Source, &e.PHash, &firstSeen, &lastSeen, &e.Captions); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan image: %w", err)
	}
	e.FirstSeen = parseTimestamp(firstSeen)
	e.LastSeen = parseTimestamp(lastSeen)
	return &e, nil
}

// timestampFormats are the layouts tried when reading stored timestamps.
var timestampFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05.999",
}

// parseTimestamp parses s with the first matching layout, or returns the
// zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

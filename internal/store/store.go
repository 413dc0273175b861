// Package store archives forecast fetches in a local SQLite database so
// past runs survive restarts and can be listed later. One row per fetch;
// rows with no decoded report are valid, they archive the narrative alone.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"auroracast/internal/aurora"
	"auroracast/internal/logging"
)

// ErrNotFound reports a lookup for a record id that was never archived.
var ErrNotFound = errors.New("record not found")

// timeLayout keeps a fixed-width fraction so fetched_at stays sortable
// as text. RFC3339Nano would trim trailing zeros and break the ordering.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const schema = `
CREATE TABLE IF NOT EXISTS forecast_reports (
	id TEXT PRIMARY KEY,
	fetched_at TEXT NOT NULL,
	latitude REAL NOT NULL,
	longitude REAL NOT NULL,
	location_name TEXT NOT NULL DEFAULT '',
	kp_index REAL,
	probability_score INTEGER,
	visibility_chance TEXT NOT NULL DEFAULT '',
	raw_text TEXT NOT NULL DEFAULT '',
	report_json TEXT,
	sources_json TEXT NOT NULL DEFAULT '[]',
	demo INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_forecast_reports_fetched
	ON forecast_reports(fetched_at DESC);
`

// Archive is the forecast history database. A single connection guards
// SQLite's writer model; the mutex keeps our own statements ordered.
type Archive struct {
	db     *sql.DB
	mu     sync.RWMutex
	dbPath string
}

// Record is one archived fetch in full. Demo marks rows produced from
// simulated data so they are never mistaken for real history.
type Record struct {
	ID       string
	Location aurora.Coordinates
	Demo     bool
	Result   aurora.ForecastResult
}

// Summary is the lightweight listing view of an archived fetch. KpIndex
// and ProbabilityScore are meaningful only when HasReport is set.
type Summary struct {
	ID               string             `json:"id"`
	FetchedAt        time.Time          `json:"fetchedAt"`
	Location         aurora.Coordinates `json:"location"`
	LocationName     string             `json:"locationName"`
	KpIndex          float64            `json:"kpIndex"`
	ProbabilityScore int                `json:"probabilityScore"`
	VisibilityChance string             `json:"visibilityChance"`
	HasReport        bool               `json:"hasReport"`
	Demo             bool               `json:"demo"`
}

// Open creates or opens the archive at path.
func Open(path string) (*Archive, error) {
	logging.Store("opening archive at %s", path)

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			logging.StoreDebug("failed to apply %q: %v", pragma, err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	logging.StoreDebug("archive schema ready")
	return &Archive{db: db, dbPath: path}, nil
}

// SaveForecast archives one fetch and returns the new record id. A result
// with a nil Report archives fine; the summary columns stay NULL and the
// narrative still lands in raw_text.
func (a *Archive) SaveForecast(ctx context.Context, loc aurora.Coordinates, res *aurora.ForecastResult, demo bool) (string, error) {
	if res == nil {
		return "", fmt.Errorf("nothing to archive: result is nil")
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	id := uuid.NewString()

	var reportJSON any
	var kp, score any
	var chance, locationName string
	if res.Report != nil {
		raw, err := json.Marshal(res.Report)
		if err != nil {
			return "", fmt.Errorf("failed to encode report: %w", err)
		}
		reportJSON = string(raw)
		kp = res.Report.KpIndex
		score = res.Report.ProbabilityScore
		chance = string(res.Report.VisibilityChance)
		locationName = res.Report.LocationName
	}

	sourcesJSON, err := json.Marshal(res.Sources)
	if err != nil {
		return "", fmt.Errorf("failed to encode sources: %w", err)
	}

	fetchedAt := res.FetchedAt
	if fetchedAt.IsZero() {
		fetchedAt = time.Now()
	}

	_, err = a.db.ExecContext(ctx,
		`INSERT INTO forecast_reports
		 (id, fetched_at, latitude, longitude, location_name, kp_index, probability_score, visibility_chance, raw_text, report_json, sources_json, demo)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, fetchedAt.UTC().Format(timeLayout), loc.Lat, loc.Lon,
		locationName, kp, score, chance, res.RawText, reportJSON, string(sourcesJSON), demo,
	)
	if err != nil {
		logging.StoreError("failed to archive fetch: %v", err)
		return "", fmt.Errorf("failed to archive fetch: %w", err)
	}

	logging.StoreDebug("archived fetch %s (report=%v, %d sources)", id, res.Report != nil, len(res.Sources))
	return id, nil
}

// Get returns one archived fetch in full, or ErrNotFound.
func (a *Archive) Get(ctx context.Context, id string) (*Record, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	row := a.db.QueryRowContext(ctx,
		`SELECT id, fetched_at, latitude, longitude, raw_text, report_json, sources_json, demo
		 FROM forecast_reports WHERE id = ?`, id)
	return scanRecord(row)
}

// Latest returns the most recently fetched record, or ErrNotFound when
// the archive is empty.
func (a *Archive) Latest(ctx context.Context) (*Record, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	row := a.db.QueryRowContext(ctx,
		`SELECT id, fetched_at, latitude, longitude, raw_text, report_json, sources_json, demo
		 FROM forecast_reports ORDER BY fetched_at DESC LIMIT 1`)
	return scanRecord(row)
}

// Recent lists archived fetches newest first.
func (a *Archive) Recent(ctx context.Context, limit int) ([]Summary, error) {
	timer := logging.StartTimer(logging.CategoryStore, "Recent")
	defer timer.Stop()

	a.mu.RLock()
	defer a.mu.RUnlock()

	if limit <= 0 {
		limit = 20
	}

	rows, err := a.db.QueryContext(ctx,
		`SELECT id, fetched_at, latitude, longitude, location_name, kp_index, probability_score, visibility_chance, report_json IS NOT NULL, demo
		 FROM forecast_reports ORDER BY fetched_at DESC LIMIT ?`, limit)
	if err != nil {
		logging.StoreError("failed to list archive: %v", err)
		return nil, fmt.Errorf("failed to list archive: %w", err)
	}
	defer rows.Close()

	var summaries []Summary
	for rows.Next() {
		var s Summary
		var fetchedAt string
		var kp sql.NullFloat64
		var score sql.NullInt64
		if err := rows.Scan(&s.ID, &fetchedAt, &s.Location.Lat, &s.Location.Lon,
			&s.LocationName, &kp, &score, &s.VisibilityChance, &s.HasReport, &s.Demo); err != nil {
			return nil, fmt.Errorf("failed to scan summary: %w", err)
		}
		s.FetchedAt = parseFetchedAt(fetchedAt)
		s.KpIndex = kp.Float64
		s.ProbabilityScore = int(score.Int64)
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list archive: %w", err)
	}

	logging.StoreDebug("listed %d archived fetches (limit=%d)", len(summaries), limit)
	return summaries, nil
}

// Close releases the database handle.
func (a *Archive) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.db.Close()
}

func scanRecord(row *sql.Row) (*Record, error) {
	var rec Record
	var fetchedAt string
	var reportJSON sql.NullString
	var sourcesJSON string

	err := row.Scan(&rec.ID, &fetchedAt, &rec.Location.Lat, &rec.Location.Lon,
		&rec.Result.RawText, &reportJSON, &sourcesJSON, &rec.Demo)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read record: %w", err)
	}

	rec.Result.FetchedAt = parseFetchedAt(fetchedAt)
	if reportJSON.Valid {
		var report aurora.WeatherReport
		if err := json.Unmarshal([]byte(reportJSON.String), &report); err != nil {
			return nil, fmt.Errorf("failed to decode archived report: %w", err)
		}
		rec.Result.Report = &report
	}
	if err := json.Unmarshal([]byte(sourcesJSON), &rec.Result.Sources); err != nil {
		return nil, fmt.Errorf("failed to decode archived sources: %w", err)
	}
	return &rec, nil
}

func parseFetchedAt(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		logging.StoreDebug("unparseable fetched_at %q: %v", s, err)
		return time.Time{}
	}
	return t
}

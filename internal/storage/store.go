// Package storage persists propagation runs: one directory per run with
// JSON metadata and CSV tables, plus a sqlite index for listing.
package storage

import (
	"database/sql"
	"encoding/csv"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/spatial/r3"
	_ "modernc.org/sqlite"

	"github.com/san-kum/trackprop/internal/ensemble"
	"github.com/san-kum/trackprop/internal/propagator"
	"github.com/san-kum/trackprop/internal/track"
)

type Store struct {
	baseDir string
	db      *sql.DB
}

// Open prepares the base directory and the run index.
func Open(baseDir string) (*Store, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", filepath.Join(baseDir, "index.db"))
	if err != nil {
		return nil, err
	}
	const schema = `CREATE TABLE IF NOT EXISTS runs (
		id        TEXT PRIMARY KEY,
		label     TEXT,
		timestamp TEXT,
		field     TEXT,
		planes    INTEGER,
		tracks    INTEGER,
		succeeded INTEGER
	)`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{baseDir: baseDir, db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

type RunMetadata struct {
	ID        string    `json:"id"`
	Label     string    `json:"label"`
	Timestamp time.Time `json:"timestamp"`
	Field     string    `json:"field"`
	Tolerance float64   `json:"tolerance"`
	Planes    int       `json:"planes"`
	Tracks    int       `json:"tracks"`
	Succeeded int       `json:"succeeded"`
}

// SaveRun writes one run to disk and indexes it. Steps may be nil for
// ensemble runs where per-step records were not collected.
func (s *Store) SaveRun(meta RunMetadata, steps []propagator.StepRecord, results []ensemble.Result) (string, error) {
	meta.ID = uuid.NewString()
	meta.Timestamp = time.Now().UTC()
	meta.Tracks = len(results)
	meta.Succeeded = 0
	for _, r := range results {
		if r.Err == nil {
			meta.Succeeded++
		}
	}

	runDir := filepath.Join(s.baseDir, meta.ID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	if err := writeJSON(filepath.Join(runDir, "metadata.json"), meta); err != nil {
		return "", err
	}
	if steps != nil {
		if err := writeSteps(filepath.Join(runDir, "steps.csv"), steps); err != nil {
			return "", err
		}
	}
	if results != nil {
		if err := writeTracks(filepath.Join(runDir, "tracks.csv"), results); err != nil {
			return "", err
		}
	}

	_, err := s.db.Exec(
		`INSERT INTO runs (id, label, timestamp, field, planes, tracks, succeeded)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		meta.ID, meta.Label, meta.Timestamp.Format(time.RFC3339),
		meta.Field, meta.Planes, meta.Tracks, meta.Succeeded)
	if err != nil {
		return "", err
	}
	return meta.ID, nil
}

// List returns the indexed runs, newest first.
func (s *Store) List() ([]RunMetadata, error) {
	rows, err := s.db.Query(
		`SELECT id, label, timestamp, field, planes, tracks, succeeded
		 FROM runs ORDER BY timestamp DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := make([]RunMetadata, 0)
	for rows.Next() {
		var m RunMetadata
		var ts string
		if err := rows.Scan(&m.ID, &m.Label, &ts, &m.Field, &m.Planes, &m.Tracks, &m.Succeeded); err != nil {
			return nil, err
		}
		m.Timestamp, _ = time.Parse(time.RFC3339, ts)
		runs = append(runs, m)
	}
	return runs, rows.Err()
}

// Load reads one run's metadata from its directory.
func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		return nil, err
	}
	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// LoadSteps reads the per-step records of a run. Runs saved without step
// records yield an empty slice.
func (s *Store) LoadSteps(runID string) ([]propagator.StepRecord, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, "steps.csv"))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []propagator.StepRecord{}, nil
		}
		return nil, err
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, err
	}

	steps := make([]propagator.StepRecord, 0, len(records))
	for i, rec := range records {
		if i == 0 || len(rec) < 9 {
			continue
		}
		vals := make([]float64, 8)
		ok := true
		for j := 0; j < 8; j++ {
			v, err := strconv.ParseFloat(rec[j], 64)
			if err != nil {
				ok = false
				break
			}
			vals[j] = v
		}
		if !ok {
			continue
		}
		surf, err := strconv.Atoi(rec[8])
		if err != nil {
			continue
		}
		steps = append(steps, propagator.StepRecord{
			PathLength: vals[0],
			StepSize:   vals[1],
			Pos:        r3.Vec{X: vals[2], Y: vals[3], Z: vals[4]},
			Dir:        r3.Vec{X: vals[5], Y: vals[6], Z: vals[7]},
			SurfaceID:  surf,
		})
	}
	return steps, nil
}

func writeJSON(path string, v any) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeSteps(path string, steps []propagator.StepRecord) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	w := csv.NewWriter(file)
	defer w.Flush()

	header := []string{"path", "step", "x", "y", "z", "dx", "dy", "dz", "surface"}
	if err := w.Write(header); err != nil {
		return err
	}
	for _, st := range steps {
		row := []string{
			f(st.PathLength), f(st.StepSize),
			f(st.Pos.X), f(st.Pos.Y), f(st.Pos.Z),
			f(st.Dir.X), f(st.Dir.Y), f(st.Dir.Z),
			strconv.Itoa(st.SurfaceID),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

func writeTracks(path string, results []ensemble.Result) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	w := csv.NewWriter(file)
	defer w.Flush()

	header := []string{"index", "status", "path", "steps",
		"loc0", "loc1", "phi", "theta", "qop", "time"}
	if err := w.Write(header); err != nil {
		return err
	}
	for _, r := range results {
		status := "ok"
		if r.Err != nil {
			status = r.Err.Error()
		}
		row := []string{
			strconv.Itoa(r.Index), status, f(r.PathLength), strconv.Itoa(r.Steps),
		}
		if r.Bound.Vector != nil {
			for i := 0; i < track.BoundSize; i++ {
				row = append(row, f(r.Bound.Vector.AtVec(i)))
			}
		} else {
			for i := 0; i < track.BoundSize; i++ {
				row = append(row, "0")
			}
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

func f(v float64) string {
	return strconv.FormatFloat(v, 'g', 9, 64)
}

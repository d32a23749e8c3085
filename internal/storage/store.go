package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/san-kum/partvid/internal/config"
)

const recordFile = "record.json"

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

// Record describes one finished render.
type Record struct {
	ID        string        `json:"id"`
	Input     string        `json:"input"`
	Output    string        `json:"output"`
	Timestamp time.Time     `json:"timestamp"`
	Frames    int           `json:"frames"`
	Events    int           `json:"events"`
	Timesteps int           `json:"timesteps"`
	SimStart  float64       `json:"sim_start"`
	SimEnd    float64       `json:"sim_end"`
	Elapsed   float64       `json:"elapsed_seconds"`
	Render    config.Render `json:"render"`
}

// Span is the simulated time covered by the video.
func (r Record) Span() float64 { return r.SimEnd - r.SimStart }

// Save writes rec under a fresh run directory and returns its ID. An empty
// rec.ID is derived from the input name; an empty Timestamp is set to now.
func (s *Store) Save(rec Record) (string, error) {
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now()
	}
	if rec.ID == "" {
		base := filepath.Base(rec.Input)
		base = strings.TrimSuffix(base, filepath.Ext(base))
		rec.ID = fmt.Sprintf("%s_%d", base, rec.Timestamp.UnixNano())
	}

	runDir := filepath.Join(s.baseDir, rec.ID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	f, err := os.Create(filepath.Join(runDir, recordFile))
	if err != nil {
		return "", err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rec); err != nil {
		return "", err
	}

	return rec.ID, f.Close()
}

// List returns every readable record, oldest first. Directories without a
// valid record are skipped.
func (s *Store) List() ([]Record, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []Record{}, nil
		}
		return nil, err
	}

	records := make([]Record, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		rec, err := s.Load(entry.Name())
		if err != nil {
			continue
		}

		records = append(records, *rec)
	}

	slices.SortFunc(records, func(a, b Record) int {
		return a.Timestamp.Compare(b.Timestamp)
	})
	return records, nil
}

func (s *Store) Load(id string) (*Record, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, id, recordFile))
	if err != nil {
		return nil, err
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("record %s: %w", id, err)
	}

	return &rec, nil
}

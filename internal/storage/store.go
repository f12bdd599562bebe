package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/san-kum/verletsim/internal/config"
	"github.com/san-kum/verletsim/internal/dynamo"
	"github.com/san-kum/verletsim/internal/metrics"
	"github.com/san-kum/verletsim/internal/sim"
)

const (
	metadataFile = "metadata.json"
	samplesFile  = "samples.csv"
	bodiesFile   = "bodies.csv"
	linksFile    = "links.csv"
)

type Store struct {
	baseDir string
	logger  *slog.Logger
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir, logger: slog.Default()}
}

func (s *Store) SetLogger(l *slog.Logger) { s.logger = l }

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	Timestamp   time.Time          `json:"timestamp"`
	Seed        uint64             `json:"seed"`
	Dt          float64            `json:"dt"`
	Frames      int                `json:"frames"`
	SampleEvery int                `json:"sample_every"`
	SubSteps    int                `json:"sub_steps"`
	Center      [2]float64         `json:"center"`
	Radius      float64            `json:"radius"`
	Gravity     [2]float64         `json:"gravity"`
	Particles   int                `json:"particles"`
	Links       int                `json:"links"`
	Spawned     int                `json:"spawned"`
	Metrics     map[string]float64 `json:"metrics"`
	Summary     metrics.Summary    `json:"summary"`
	Errors      []string           `json:"errors,omitempty"`
}

// Save writes a run directory holding the metadata, the sample trace and a
// snapshot of the final world.
func (s *Store) Save(name string, cfg *config.Config, w dynamo.World, result *sim.Result) (string, error) {
	now := time.Now()
	runID := fmt.Sprintf("%s_%d", name, now.UnixNano())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	bodies := Snapshot(w)
	links := SnapshotLinks(w)

	meta := RunMetadata{
		ID:          runID,
		Name:        name,
		Timestamp:   now,
		Seed:        cfg.Run.Seed,
		Dt:          cfg.Run.Dt,
		Frames:      result.Frames,
		SampleEvery: cfg.Run.SampleEvery,
		SubSteps:    cfg.World.SubSteps,
		Center:      [2]float64{cfg.World.Center.X, cfg.World.Center.Y},
		Radius:      cfg.World.Radius,
		Gravity:     [2]float64{cfg.World.Gravity.X, cfg.World.Gravity.Y},
		Particles:   len(bodies),
		Links:       len(links),
		Spawned:     result.Spawned,
		Metrics:     result.Metrics,
		Summary:     result.Summary,
	}
	for _, err := range result.Errors {
		meta.Errors = append(meta.Errors, err.Error())
	}

	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", fmt.Errorf("writing metadata: %w", err)
	}
	if err := writeCSV(filepath.Join(runDir, samplesFile), result.Samples); err != nil {
		return "", fmt.Errorf("writing samples: %w", err)
	}
	if err := writeCSV(filepath.Join(runDir, bodiesFile), bodies); err != nil {
		return "", fmt.Errorf("writing bodies: %w", err)
	}
	if err := writeCSV(filepath.Join(runDir, linksFile), links); err != nil {
		return "", fmt.Errorf("writing links: %w", err)
	}

	s.logger.Info("run saved", "id", runID, "samples", len(result.Samples), "particles", len(bodies))
	return runID, nil
}

// List returns saved runs, newest first. Directories without readable
// metadata are skipped.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		meta, err := s.Load(entry.Name())
		if err != nil {
			s.logger.Debug("skipping run directory", "dir", entry.Name(), "err", err)
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.After(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

func (s *Store) LoadSamples(runID string) ([]metrics.Sample, error) {
	var samples []metrics.Sample
	if err := readCSV(filepath.Join(s.baseDir, runID, samplesFile), &samples); err != nil {
		return nil, err
	}
	return samples, nil
}

func (s *Store) LoadBodies(runID string) ([]BodyRecord, error) {
	var bodies []BodyRecord
	if err := readCSV(filepath.Join(s.baseDir, runID, bodiesFile), &bodies); err != nil {
		return nil, err
	}
	return bodies, nil
}

func (s *Store) LoadLinks(runID string) ([]LinkRecord, error) {
	var links []LinkRecord
	if err := readCSV(filepath.Join(s.baseDir, runID, linksFile), &links); err != nil {
		return nil, err
	}
	return links, nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeCSV[T any](path string, rows []T) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if rows == nil {
		rows = []T{}
	}
	return gocsv.Marshal(rows, f)
}

func readCSV[T any](path string, out *[]T) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := gocsv.Unmarshal(f, out); err != nil && !errors.Is(err, gocsv.ErrEmptyCSVFile) {
		return err
	}
	if *out == nil {
		*out = []T{}
	}
	return nil
}

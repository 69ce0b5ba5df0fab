package storage

import (
	"cmp"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"time"

	"github.com/godruoyi/go-snowflake"

	"github.com/san-kum/dragonzoom/internal/camera"
	"github.com/san-kum/dragonzoom/internal/dragon"
)

// ErrRunNotFound is returned when a run id has no metadata on disk.
var ErrRunNotFound = errors.New("storage: run not found")

var sampleHeader = []string{"t", "tau", "raw_scale", "scale", "raw_tx", "raw_ty", "tx", "ty"}

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

// FitRecord is the persisted form of one fitted camera function.
type FitRecord struct {
	Coeffs      []float64 `json:"coeffs"`
	Status      string    `json:"status"`
	Converged   bool      `json:"converged"`
	Evaluations int       `json:"evaluations"`
	Hops        int       `json:"hops,omitempty"`
	Accepted    int       `json:"accepted,omitempty"`
}

type RunMetadata struct {
	ID        string             `json:"id"`
	Timestamp time.Time          `json:"timestamp"`
	Settings  SettingsRecord     `json:"settings"`
	Samples   int                `json:"samples"`
	Scale     *FitRecord         `json:"scale,omitempty"`
	Translate *FitRecord         `json:"translate,omitempty"`
	Metrics   map[string]float64 `json:"metrics"`
}

type SettingsRecord struct {
	ScreenWidth  float64 `json:"screen_width"`
	ScreenHeight float64 `json:"screen_height"`
	Margin       float64 `json:"margin"`
	MinScale     float64 `json:"min_scale"`
	Duration     float64 `json:"duration"`
}

func (r SettingsRecord) Camera() camera.Settings {
	return camera.Settings(r)
}

// Run bundles what a fit command produces. Either fit may be nil.
type Run struct {
	Settings  camera.Settings
	Scale     *camera.ScaleFit
	Translate *camera.TranslateFit
	Samples   []camera.Sample
}

func (s *Store) Save(run Run) (string, error) {
	now := time.Now()
	runID := fmt.Sprintf("fit_%d", snowflake.ID())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:        runID,
		Timestamp: now,
		Settings:  SettingsRecord(run.Settings),
		Samples:   len(run.Samples),
		Metrics:   map[string]float64{},
	}
	if f := run.Scale; f != nil {
		meta.Scale = &FitRecord{
			Coeffs:      f.Coeffs[:],
			Status:      f.Status,
			Converged:   f.Converged,
			Evaluations: f.Evaluations,
		}
		meta.Samples = f.Samples
		for k, v := range f.Metrics {
			meta.Metrics[k] = v
		}
	}
	if f := run.Translate; f != nil {
		meta.Translate = &FitRecord{
			Coeffs:      f.Coeffs[:],
			Status:      f.Status,
			Converged:   f.Converged,
			Evaluations: f.Evaluations,
			Hops:        f.Hops,
			Accepted:    f.Accepted,
		}
		meta.Samples = f.Samples
		for k, v := range f.Metrics {
			meta.Metrics[k] = v
		}
	}

	if err := writeJSON(filepath.Join(runDir, "metadata.json"), meta); err != nil {
		return "", err
	}
	if err := writeSamples(filepath.Join(runDir, "samples.csv"), run.Samples); err != nil {
		return "", err
	}
	return runID, nil
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

func writeSamples(path string, samples []camera.Sample) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(sampleHeader); err != nil {
		return err
	}
	for _, s := range samples {
		row := []string{
			formatFloat(s.T),
			formatFloat(s.Tau),
			formatFloat(s.RawScale),
			formatFloat(s.Scale),
			formatFloat(s.RawTranslate.X),
			formatFloat(s.RawTranslate.Y),
			formatFloat(s.Translate.X),
			formatFloat(s.Translate.Y),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// List returns every readable run, oldest first.
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
			continue
		}
		runs = append(runs, *meta)
	}

	slices.SortFunc(runs, func(a, b RunMetadata) int {
		return cmp.Or(a.Timestamp.Compare(b.Timestamp), cmp.Compare(a.ID, b.ID))
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}
	return &meta, nil
}

// Latest returns the most recent run.
func (s *Store) Latest() (*RunMetadata, error) {
	runs, err := s.List()
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, fmt.Errorf("%w: no runs in %s", ErrRunNotFound, s.baseDir)
	}
	return &runs[len(runs)-1], nil
}

func (s *Store) LoadSamples(runID string) ([]camera.Sample, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, "samples.csv"))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = len(sampleHeader)

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}
	if len(records) < 2 {
		return []camera.Sample{}, nil
	}

	samples := make([]camera.Sample, 0, len(records)-1)
	for i, record := range records[1:] {
		var v [8]float64
		for j, field := range record {
			v[j], err = strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("run %s: row %d column %s: %w", runID, i+1, sampleHeader[j], err)
			}
		}
		samples = append(samples, camera.Sample{
			T:            v[0],
			Tau:          v[1],
			RawScale:     v[2],
			Scale:        v[3],
			RawTranslate: dragon.Pt(v[4], v[5]),
			Translate:    dragon.Pt(v[6], v[7]),
		})
	}
	return samples, nil
}

// Install makes the run's fitted functions active on c. Functions the run
// did not fit are left as they are.
func (m *RunMetadata) Install(c *camera.Camera) error {
	if m.Scale != nil {
		var k camera.ScaleCoeffs
		if len(m.Scale.Coeffs) != len(k) {
			return fmt.Errorf("run %s: expected %d scale coefficients, got %d", m.ID, len(k), len(m.Scale.Coeffs))
		}
		copy(k[:], m.Scale.Coeffs)
		if err := c.SetScaleFit(&camera.ScaleFit{Coeffs: k}); err != nil {
			return fmt.Errorf("run %s: %w", m.ID, err)
		}
	}
	if m.Translate != nil {
		var k camera.TranslateCoeffs
		if len(m.Translate.Coeffs) != len(k) {
			return fmt.Errorf("run %s: expected %d translate coefficients, got %d", m.ID, len(k), len(m.Translate.Coeffs))
		}
		copy(k[:], m.Translate.Coeffs)
		if err := c.SetTranslateFit(&camera.TranslateFit{Coeffs: k}); err != nil {
			return fmt.Errorf("run %s: %w", m.ID, err)
		}
	}
	return nil
}

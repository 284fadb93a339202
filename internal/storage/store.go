package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/xid"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID          string             `json:"id"`
	World       string             `json:"world"`
	Timestamp   time.Time          `json:"timestamp"`
	StepSize    float64            `json:"step_size"`
	Duration    float64            `json:"duration"`
	Integrator  string             `json:"integrator"`
	Controllers []string           `json:"controllers"`
	Joints      []string           `json:"joints"`
	Restarts    int                `json:"restarts"`
	Metrics     map[string]float64 `json:"metrics"`
}

// Recording is the per-tick joint trace of a run. Row i of Angles,
// Velocities and Torques holds one value per joint at Times[i].
type Recording struct {
	Joints     []string
	Times      []float64
	Angles     [][]float64
	Velocities [][]float64
	Torques    [][]float64
}

func (r *Recording) Len() int { return len(r.Times) }

// Series returns the angle trace of the named joint.
func (r *Recording) Series(joint string) ([]float64, bool) {
	idx := -1
	for i, name := range r.Joints {
		if name == joint {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, false
	}
	out := make([]float64, len(r.Angles))
	for i, row := range r.Angles {
		if idx < len(row) {
			out[i] = row[idx]
		}
	}
	return out, true
}

// Save writes metadata.json and states.csv under a fresh run directory and
// returns the run id.
func (s *Store) Save(meta RunMetadata, rec *Recording) (string, error) {
	if meta.ID == "" {
		meta.ID = xid.New().String()
	}
	if meta.Timestamp.IsZero() {
		meta.Timestamp = time.Now()
	}
	if rec != nil && meta.Joints == nil {
		meta.Joints = rec.Joints
	}
	runDir := filepath.Join(s.baseDir, meta.ID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	metaFile, err := os.Create(filepath.Join(runDir, "metadata.json"))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, "states.csv"))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	w := csv.NewWriter(csvFile)
	defer w.Flush()

	if rec == nil || rec.Len() == 0 {
		return meta.ID, nil
	}

	header := []string{"time"}
	for _, j := range rec.Joints {
		header = append(header, j+".angle", j+".velocity", j+".torque")
	}
	if err := w.Write(header); err != nil {
		return "", err
	}

	for i, t := range rec.Times {
		row := []string{formatFloat(t)}
		for j := range rec.Joints {
			row = append(row,
				formatFloat(cell(rec.Angles, i, j)),
				formatFloat(cell(rec.Velocities, i, j)),
				formatFloat(cell(rec.Torques, i, j)),
			)
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}

	return meta.ID, w.Error()
}

func cell(rows [][]float64, i, j int) float64 {
	if i >= len(rows) || j >= len(rows[i]) {
		return 0
	}
	return rows[i][j]
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}

// List returns every readable run, newest first.
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

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].Timestamp.After(runs[j].Timestamp)
	})
	return runs, nil
}

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

func (s *Store) LoadStates(runID string) (*Recording, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, "states.csv"))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}

	rec := &Recording{}
	if len(records) < 1 {
		return rec, nil
	}

	header := records[0]
	for i := 1; i+2 < len(header); i += 3 {
		rec.Joints = append(rec.Joints, strings.TrimSuffix(header[i], ".angle"))
	}

	for _, record := range records[1:] {
		if len(record) == 0 {
			continue
		}
		t, err := strconv.ParseFloat(record[0], 64)
		if err != nil {
			return nil, fmt.Errorf("run %s: bad time %q: %w", runID, record[0], err)
		}
		angles := make([]float64, len(rec.Joints))
		velocities := make([]float64, len(rec.Joints))
		torques := make([]float64, len(rec.Joints))
		for j := range rec.Joints {
			base := 1 + 3*j
			angles[j] = parseCell(record, base)
			velocities[j] = parseCell(record, base+1)
			torques[j] = parseCell(record, base+2)
		}
		rec.Times = append(rec.Times, t)
		rec.Angles = append(rec.Angles, angles)
		rec.Velocities = append(rec.Velocities, velocities)
		rec.Torques = append(rec.Torques, torques)
	}

	return rec, nil
}

func parseCell(record []string, i int) float64 {
	if i >= len(record) {
		return 0
	}
	v, err := strconv.ParseFloat(record[i], 64)
	if err != nil {
		return 0
	}
	return v
}

package storage

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/xid"
)

var ErrSnapshotNotFound = errors.New("storage: snapshot not found")

// JointSnapshot is the cached mobility state of one joint.
type JointSnapshot struct {
	Name       string    `json:"name"`
	Positions  []float64 `json:"positions"`
	Velocities []float64 `json:"velocities"`
}

// Snapshot is the joint state of a whole world at one sim time.
type Snapshot struct {
	ID      string          `json:"id"`
	World   string          `json:"world"`
	Time    float64         `json:"time"`
	Created time.Time       `json:"created"`
	Joints  []JointSnapshot `json:"joints"`
}

func (s *Snapshot) Joint(name string) (JointSnapshot, bool) {
	for _, j := range s.Joints {
		if j.Name == name {
			return j, true
		}
	}
	return JointSnapshot{}, false
}

type SnapshotStore interface {
	Put(ctx context.Context, snap *Snapshot) (string, error)
	Get(ctx context.Context, id string) (*Snapshot, error)
	List(ctx context.Context) ([]string, error)
	Delete(ctx context.Context, id string) error
}

func prepare(snap *Snapshot) {
	if snap.ID == "" {
		snap.ID = xid.New().String()
	}
	if snap.Created.IsZero() {
		snap.Created = time.Now()
	}
}

// FileSnapshots keeps one JSON file per snapshot in a directory.
type FileSnapshots struct {
	dir string
}

func NewFileSnapshots(dir string) *FileSnapshots {
	return &FileSnapshots{dir: dir}
}

func (f *FileSnapshots) path(id string) string {
	return filepath.Join(f.dir, id+".json")
}

func (f *FileSnapshots) Put(ctx context.Context, snap *Snapshot) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	prepare(snap)
	if err := os.MkdirAll(f.dir, 0755); err != nil {
		return "", err
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return "", err
	}
	return snap.ID, os.WriteFile(f.path(snap.ID), data, 0644)
}

func (f *FileSnapshots) Get(ctx context.Context, id string) (*Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(f.path(id))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrSnapshotNotFound
	}
	if err != nil {
		return nil, err
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// List returns snapshot ids in creation order. xid ids sort by time.
func (f *FileSnapshots) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(f.dir)
	if errors.Is(err, os.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(e.Name(), ".json"))
	}
	sort.Strings(ids)
	return ids, nil
}

func (f *FileSnapshots) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := os.Remove(f.path(id))
	if errors.Is(err, os.ErrNotExist) {
		return ErrSnapshotNotFound
	}
	return err
}

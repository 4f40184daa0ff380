package domain

import (
	"time"

	"github.com/google/uuid"
)

// Artifact is one file written by a run.
type Artifact struct {
	Format string `json:"format"`
	Path   string `json:"path"`
	Bytes  int64  `json:"bytes"`
}

// Manifest describes a completed merge. It is published so downstream
// consumers can pick up new artifacts.
type Manifest struct {
	RunID       string     `json:"run_id"`
	CompletedAt time.Time  `json:"completed_at"`
	Sources     []string   `json:"sources"`
	Columns     []string   `json:"columns"`
	Rows        int        `json:"rows"`
	ComfortMode string     `json:"comfort_mode"`
	Limited     bool       `json:"limit_comfort_inputs"`
	Artifacts   []Artifact `json:"artifacts"`
}

// NewManifest summarizes ds and the artifacts written from it.
func NewManifest(ds *Dataset, comfortMode string, limited bool, artifacts []Artifact) Manifest {
	return Manifest{
		RunID:       uuid.NewString(),
		CompletedAt: Now().UTC(),
		Sources:     ds.Sources(),
		Columns:     ds.Schema().Names(),
		Rows:        ds.Len(),
		ComfortMode: comfortMode,
		Limited:     limited,
		Artifacts:   artifacts,
	}
}

package domain

import "time"

// ArtifactCategory tags which resource dimension an artifact describes.
type ArtifactCategory string

const (
	CategoryCPU    ArtifactCategory = "cpu"
	CategoryMemory ArtifactCategory = "memory"
	CategoryIO     ArtifactCategory = "io"
	CategorySystem ArtifactCategory = "system"
)

// ProfileArtifact is the raw output of one collector for one session.
// Exactly one artifact is produced per collector per session, at stop time,
// and it is immutable after emission. Metric values are numeric or small
// structured values (JSON-representable); RawFiles reference collector-owned
// files on disk that outlive the session.
//
// A degraded artifact records that the collector could not do its job
// (missing external binary, attach failure) without failing the session:
// Degraded is set, Warning explains why, and Metrics may be empty.
type ProfileArtifact struct {
	Collector string           `json:"collector"`
	Category  ArtifactCategory `json:"category"`
	Timestamp time.Time        `json:"timestamp"`
	Metrics   map[string]any   `json:"metrics"`
	RawFiles  []string         `json:"raw_files,omitempty"`
	Degraded  bool             `json:"degraded,omitempty"`
	Warning   string           `json:"warning,omitempty"`
}

package backup

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Collection statuses recorded in the manifest.
const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

// ManifestName is the filename written at the root of every backup
// directory.
const ManifestName = "manifest.json"

// CollectionRecord is one collection's outcome as persisted in the manifest.
type CollectionRecord struct {
	Name      string `json:"name"`
	Status    string `json:"status"`
	Items     int    `json:"items"`
	SizeBytes int64  `json:"size_bytes"`
	Location  string `json:"location"`
	Error     string `json:"error,omitempty"`
}

// Manifest describes a completed backup run. It is the contract a restore
// reads first, so fields only ever get added.
type Manifest struct {
	ID              string             `json:"id"`
	Cluster         string             `json:"cluster"`
	Scope           string             `json:"scope,omitempty"`
	CreatedAt       time.Time          `json:"created_at"`
	Host            string             `json:"host"`
	Collections     []CollectionRecord `json:"collections"`
	Succeeded       int                `json:"succeeded"`
	Failed          int                `json:"failed"`
	TotalItems      int                `json:"total_items"`
	TotalBytes      int64              `json:"total_bytes"`
	DurationSeconds float64            `json:"duration_seconds"`
}

// AllFailed reports whether not a single collection produced artifacts.
func (m *Manifest) AllFailed() bool {
	return len(m.Collections) > 0 && m.Failed == len(m.Collections)
}

// Write persists the manifest as indented JSON.
func (m *Manifest) Write(path string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}

// ReadManifest loads a manifest written by a previous run.
func ReadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path) // #nosec G304 - path is built from validated config
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	return &m, nil
}

package backup

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Engine runs the collections of one backup and writes the manifest.
type Engine struct {
	cluster   string
	outputDir string
	runID     string
	scope     string
	log       zerolog.Logger
}

// EngineOption adjusts engine construction.
type EngineOption func(*Engine)

// WithScope records the requested backup scope in the manifest.
func WithScope(scope string) EngineOption {
	return func(e *Engine) { e.scope = scope }
}

// NewEngine prepares a backup under outputDir. An empty runID gets a fresh
// one.
func NewEngine(cluster, outputDir, runID string, log zerolog.Logger, opts ...EngineOption) *Engine {
	if runID == "" {
		runID = uuid.NewString()
	}
	e := &Engine{
		cluster:   cluster,
		outputDir: outputDir,
		runID:     runID,
		log:       log,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run executes the collections in order. A collection failure is recorded and
// the next collection still runs. The returned error is non-nil only when
// nothing useful was produced: no collections, an unwritable backup
// directory or manifest, every collection failed, or cancellation.
//
// The backup directory path is returned even on error so callers can point
// at partial artifacts.
func (e *Engine) Run(ctx context.Context, collections []Collection) (*Manifest, string, error) {
	if len(collections) == 0 {
		return nil, "", fmt.Errorf("no backup collections to run")
	}

	start := time.Now()
	dir := filepath.Join(e.outputDir, fmt.Sprintf("%s-%s", e.cluster, start.Format("20060102-150405")))
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, "", fmt.Errorf("failed to create backup directory: %w", err)
	}

	manifest := &Manifest{
		ID:        e.runID,
		Cluster:   e.cluster,
		Scope:     e.scope,
		CreatedAt: start.UTC(),
		Host:      hostname(),
	}

	var cancelled error
	for _, col := range collections {
		if err := ctx.Err(); err != nil {
			cancelled = err
			break
		}

		log := e.log.With().Str("collection", col.Name).Logger()
		log.Info().Msg("running backup collection")

		record := e.runCollection(ctx, col, dir)
		if record.Status == StatusOK {
			manifest.Succeeded++
			manifest.TotalItems += record.Items
			manifest.TotalBytes += record.SizeBytes
			log.Info().Int("items", record.Items).Int64("bytes", record.SizeBytes).Msg("collection complete")
		} else {
			manifest.Failed++
			log.Warn().Str("error", record.Error).Msg("collection failed, continuing with the rest")
		}
		manifest.Collections = append(manifest.Collections, record)
	}
	manifest.DurationSeconds = time.Since(start).Seconds()

	if err := manifest.Write(filepath.Join(dir, ManifestName)); err != nil {
		return manifest, dir, err
	}

	if cancelled != nil {
		return manifest, dir, fmt.Errorf("backup cancelled: %w", cancelled)
	}
	if manifest.AllFailed() {
		return manifest, dir, fmt.Errorf("all %d backup collections failed", len(collections))
	}
	return manifest, dir, nil
}

func (e *Engine) runCollection(ctx context.Context, col Collection, dir string) CollectionRecord {
	record := CollectionRecord{
		Name:     col.Name,
		Location: col.Name + "/",
	}

	colDir := filepath.Join(dir, col.Name)
	if err := os.MkdirAll(colDir, 0o750); err != nil {
		record.Status = StatusFailed
		record.Error = err.Error()
		return record
	}

	stats, err := col.Run(ctx, colDir)
	record.Items = stats.Items
	record.SizeBytes = stats.Bytes
	if err != nil {
		record.Status = StatusFailed
		record.Error = err.Error()
		return record
	}
	record.Status = StatusOK
	return record
}

func hostname() string {
	host, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	return host
}

package backup

import "context"

// Collection is one isolated unit of backup work. Run writes its artifacts
// under dir and reports what it wrote; a failure never prevents the
// collections after it from running.
type Collection struct {
	Name string
	Run  func(ctx context.Context, dir string) (Stats, error)
}

// Stats counts what a collection produced.
type Stats struct {
	Items int
	Bytes int64
}

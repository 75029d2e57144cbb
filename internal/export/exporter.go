// Package export renders report tables as CSV or YAML and optionally uploads
// them to object storage.
package export

import (
	"bytes"
	"context"
	"fmt"
	"path"

	"github.com/okian/fantaledger/internal/adapters/storage"
	"github.com/okian/fantaledger/internal/domain/model"
	"github.com/okian/fantaledger/pkg/logger"
)

// Artifact is one rendered table.
type Artifact struct {
	Table    Table
	Key      string
	Data     []byte
	Location string
}

// Exporter renders and uploads report tables.
type Exporter struct {
	format   Format
	tables   []Table
	prefix   string
	uploader storage.FileUploader
	log      logger.Logger
}

// Option configures an Exporter.
type Option func(*Exporter)

// WithFormat sets the output format. Defaults to CSV.
func WithFormat(f Format) Option {
	return func(e *Exporter) {
		if f != "" {
			e.format = f
		}
	}
}

// WithTables restricts the exported tables.
func WithTables(tables ...Table) Option {
	return func(e *Exporter) {
		if len(tables) > 0 {
			e.tables = tables
		}
	}
}

// WithPrefix sets the object key prefix.
func WithPrefix(prefix string) Option {
	return func(e *Exporter) {
		e.prefix = prefix
	}
}

// WithUploader enables uploads.
func WithUploader(u storage.FileUploader) Option {
	return func(e *Exporter) {
		e.uploader = u
	}
}

// WithLogger sets the exporter logger.
func WithLogger(l logger.Logger) Option {
	return func(e *Exporter) {
		if l != nil {
			e.log = l
		}
	}
}

// New creates an Exporter.
func New(opts ...Option) *Exporter {
	e := &Exporter{
		format: CSV,
		tables: Tables,
		log:    logger.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Key returns the object key of a table: {prefix}/{runID}/{table}.{ext}.
func Key(prefix, runID string, t Table, f Format) string {
	return path.Join(prefix, runID, string(t)+"."+f.Ext())
}

// Render encodes every configured table of r.
func (e *Exporter) Render(r *model.Report) ([]Artifact, error) {
	if r == nil {
		return nil, ErrNilReport
	}
	out := make([]Artifact, 0, len(e.tables))
	for _, t := range e.tables {
		var buf bytes.Buffer
		if err := Encode(&buf, e.format, t, r); err != nil {
			return nil, err
		}
		out = append(out, Artifact{
			Table: t,
			Key:   Key(e.prefix, r.RunID.String(), t, e.format),
			Data:  buf.Bytes(),
		})
	}
	return out, nil
}

// Export renders r and uploads each table when an uploader is configured.
// When an upload fails, tables already stored for the run are deleted so a
// run is either fully exported or absent.
func (e *Exporter) Export(ctx context.Context, r *model.Report) ([]Artifact, error) {
	artifacts, err := e.Render(r)
	if err != nil {
		return nil, err
	}
	if e.uploader == nil {
		return artifacts, nil
	}
	for i := range artifacts {
		a := &artifacts[i]
		res, err := e.uploader.Upload(ctx, a.Key, e.format.ContentType(), bytes.NewReader(a.Data))
		if err != nil {
			e.rollback(ctx, artifacts[:i])
			return nil, fmt.Errorf("exporting %s: %w", a.Table, err)
		}
		a.Location = res.Location
		e.log.Info(ctx, "table exported",
			logger.String("table", string(a.Table)),
			logger.String("key", a.Key),
			logger.Int("bytes", len(a.Data)),
		)
	}
	return artifacts, nil
}

func (e *Exporter) rollback(ctx context.Context, uploaded []Artifact) {
	for _, a := range uploaded {
		if err := e.uploader.Delete(ctx, a.Key); err != nil {
			e.log.Warn(ctx, "removing partial export",
				logger.String("key", a.Key),
				logger.Error(err),
			)
		}
	}
}

// Hook adapts Export to a post-snapshot callback.
func (e *Exporter) Hook(ctx context.Context, r *model.Report) error {
	_, err := e.Export(ctx, r)
	return err
}

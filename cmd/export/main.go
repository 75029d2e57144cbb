// Command export builds one report and writes its tables as CSV or YAML
// files, optionally uploading them to the configured bucket.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/okian/fantaledger/internal/adapters/biwenger"
	"github.com/okian/fantaledger/internal/adapters/storage"
	service "github.com/okian/fantaledger/internal/app"
	"github.com/okian/fantaledger/internal/config"
	"github.com/okian/fantaledger/internal/export"
	"github.com/okian/fantaledger/pkg/logger"
)

const defaultTimeout = 5 * time.Minute

// options are the command line flags.
type options struct {
	format  string
	outDir  string
	tables  string
	upload  bool
	timeout time.Duration
}

func main() {
	var opts options
	flag.StringVar(&opts.format, "format", "", "Output format: csv or yaml (default: export_format from config)")
	flag.StringVar(&opts.outDir, "out", ".", "Directory the tables are written to")
	flag.StringVar(&opts.tables, "tables", "", "Comma separated tables: sales,rounds,balance,players (default: all)")
	flag.BoolVar(&opts.upload, "upload", false, "Upload the tables to the configured export bucket")
	flag.DurationVar(&opts.timeout, "timeout", defaultTimeout, "Overall timeout")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), opts.timeout)
	defer cancel()

	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}
	if err := logger.Init(logger.WithFormat(cfg.LogFormat)); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	_ = logger.SetLevelString(cfg.LogLevel)
	log := logger.Get()

	written, err := run(ctx, cfg, opts, log)
	if err != nil {
		log.Error(ctx, "export failed", logger.Error(err))
		os.Exit(1)
	}
	for _, w := range written {
		fmt.Println(w)
	}
}

// run builds a report and writes or uploads each table. It returns the
// written paths or uploaded locations.
func run(ctx context.Context, cfg *config.Config, opts options, log logger.Logger) ([]string, error) {
	format, err := export.ParseFormat(firstNonEmpty(opts.format, cfg.ExportFormat))
	if err != nil {
		return nil, err
	}
	tables, err := parseTables(opts.tables)
	if err != nil {
		return nil, err
	}

	exportOpts := []export.Option{
		export.WithFormat(format),
		export.WithTables(tables...),
		export.WithPrefix(cfg.ExportPrefix),
		export.WithLogger(log.Named("export")),
	}
	if opts.upload {
		uploader, err := storage.NewS3Uploader(ctx, storage.S3Config{
			Bucket:          cfg.ExportBucket,
			Endpoint:        cfg.ExportEndpoint,
			Region:          cfg.ExportRegion,
			AccessKeyID:     cfg.ExportAccessKeyID,
			SecretAccessKey: cfg.ExportSecretAccessKey,
			PublicBaseURL:   cfg.ExportPublicBaseURL,
		})
		if err != nil {
			return nil, err
		}
		exportOpts = append(exportOpts, export.WithUploader(uploader))
	}
	exporter := export.New(exportOpts...)

	svcOpts, err := service.OptionsFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	client := biwenger.New(
		biwenger.WithTimeout(cfg.RequestTimeout()),
		biwenger.WithLoginURL(cfg.LoginURL),
		biwenger.WithLeagueURL(cfg.LeagueURL),
		biwenger.WithPlayersURL(cfg.PlayersURL),
		biwenger.WithMarketURL(cfg.MarketURL),
		biwenger.WithLeague(cfg.LeagueID, cfg.UserID),
		biwenger.WithLogger(log.Named("biwenger")),
	)
	svc := service.New(append(svcOpts, service.WithSource(client), service.WithLogger(log.Named("service")))...)

	report, err := svc.Report(ctx)
	if err != nil {
		return nil, err
	}
	artifacts, err := exporter.Export(ctx, report)
	if err != nil {
		return nil, err
	}

	out := make([]string, 0, len(artifacts))
	if opts.upload {
		for _, a := range artifacts {
			out = append(out, firstNonEmpty(a.Location, a.Key))
		}
		return out, nil
	}
	if err := os.MkdirAll(opts.outDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating %s: %w", opts.outDir, err)
	}
	for _, a := range artifacts {
		path := filepath.Join(opts.outDir, string(a.Table)+"."+format.Ext())
		if err := os.WriteFile(path, a.Data, 0o644); err != nil {
			return nil, fmt.Errorf("writing %s: %w", path, err)
		}
		out = append(out, path)
	}
	return out, nil
}

func parseTables(raw string) ([]export.Table, error) {
	if strings.TrimSpace(raw) == "" {
		return export.Tables, nil
	}
	var tables []export.Table
	for _, name := range strings.Split(raw, ",") {
		t, err := export.ParseTable(name)
		if err != nil {
			return nil, err
		}
		tables = append(tables, t)
	}
	return tables, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

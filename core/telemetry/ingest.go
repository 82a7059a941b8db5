package telemetry

import (
	"context"
	"path/filepath"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/trezcool/videograder/core"
)

// ReportReader parses one report file downloaded from the video platform.
type ReportReader interface {
	ReadReport(ctx context.Context, path string) ([]View, core.Log, error)
}

type Ingester struct {
	reports ReportReader
	repo    Repository
}

func NewIngester(reports ReportReader, repo Repository) (*Ingester, error) {
	if err := vala.BeginValidation().Validate(
		core.Required(reports, "reports"),
		core.Required(repo, "repo"),
	).Check(); err != nil {
		return nil, err
	}
	return &Ingester{reports: reports, repo: repo}, nil
}

// Ingest loads every report matching `pattern` into the repository.
// Malformed rows are skipped with a warning; a report that cannot be read aborts the ingestion.
func (ing *Ingester) Ingest(ctx context.Context, pattern string) (core.Log, error) {
	var log core.Log

	paths, err := filepath.Glob(pattern)
	if err != nil {
		return log, errors.Wrapf(err, "listing reports %q", pattern)
	}
	if len(paths) == 0 {
		log.Printf("No view reports found matching %s", pattern)
		return log, nil
	}

	for _, path := range paths {
		views, rlog, err := ing.reports.ReadReport(ctx, path)
		log.Append(rlog)
		if err != nil {
			return log, errors.Wrapf(err, "reading report %s", path)
		}
		inserted, err := ing.repo.InsertViews(ctx, views...)
		if err != nil {
			return log, errors.Wrapf(err, "storing views of %s", path)
		}
		log.Printf("%s: %d view(s) read, %d new", filepath.Base(path), len(views), inserted)
	}
	return log, nil
}

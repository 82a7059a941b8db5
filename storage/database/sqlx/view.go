package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/videograder/core/telemetry"
)

const (
	insertViewSQL = `
		INSERT INTO view_data (lname, fname, video, starttime, endtime, playlength, playpct, factor, totalplaytime)
		VALUES (:lname, :fname, :video, :starttime, :endtime, :playlength, :playpct, :factor, :totalplaytime)
		ON CONFLICT DO NOTHING`

	queryViewsSQL = `
		SELECT lname, fname, video, starttime, endtime, playlength, playpct, factor, totalplaytime
		FROM view_data
		WHERE lower(video) = lower($1) AND starttime BETWEEN $2 AND $3
		ORDER BY starttime`
)

type viewRepository struct {
	db *sqlx.DB
}

var _ telemetry.Repository = (*viewRepository)(nil)

func NewViewRepository(db *sqlx.DB) telemetry.Repository {
	return &viewRepository{db: db}
}

// InsertViews stores the views in one transaction, ignoring the ones already stored.
func (repo *viewRepository) InsertViews(ctx context.Context, views ...telemetry.View) (inserted int, err error) {
	if len(views) == 0 {
		return 0, nil
	}

	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, errors.Wrap(err, "beginning transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareNamedContext(ctx, insertViewSQL)
	if err != nil {
		return 0, errors.Wrap(err, "preparing insert")
	}
	defer func() { _ = stmt.Close() }()

	for _, v := range views {
		res, err := stmt.ExecContext(ctx, v)
		if err != nil {
			return 0, errors.Wrapf(err, "inserting view of %s, %s on %s", v.LastName, v.FirstName, v.Video)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, errors.Wrap(err, "counting inserted views")
		}
		inserted += int(n)
	}

	if err = tx.Commit(); err != nil {
		return 0, errors.Wrap(err, "committing views")
	}
	return inserted, nil
}

func (repo *viewRepository) QueryViews(ctx context.Context, video string, from, to time.Time) ([]telemetry.View, error) {
	var views []telemetry.View
	if err := repo.db.SelectContext(ctx, &views, queryViewsSQL, video, from, to); err != nil {
		return nil, errors.Wrapf(err, "querying views of %s", video)
	}
	for i := range views {
		views[i].Start = views[i].Start.UTC()
		views[i].End = views[i].End.UTC()
	}
	return views, nil
}

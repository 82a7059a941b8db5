package inmemdb

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/trezcool/videograder/core/telemetry"
)

// viewKey mirrors the uniqueness constraint of the view_data table.
type viewKey struct {
	lname, fname, video string
	start, end          time.Time
	playLength, playPct int
	factor              float64
}

func keyOf(v telemetry.View) viewKey {
	return viewKey{
		lname: v.LastName, fname: v.FirstName, video: v.Video,
		start: v.Start, end: v.End,
		playLength: v.PlayLength, playPct: v.PlayPct, factor: v.Factor,
	}
}

type viewRepository struct {
	db *viewTable
}

var _ telemetry.Repository = (*viewRepository)(nil)

func NewViewRepository(db *DB) telemetry.Repository {
	return &viewRepository{db: db.view}
}

func (repo *viewRepository) InsertViews(_ context.Context, views ...telemetry.View) (int, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	var inserted int
	for _, v := range views {
		k := keyOf(v)
		if _, ok := repo.db.index[k]; ok {
			continue
		}
		repo.db.index[k] = len(repo.db.table)
		repo.db.table = append(repo.db.table, v)
		inserted++
	}
	return inserted, nil
}

func (repo *viewRepository) QueryViews(_ context.Context, video string, from, to time.Time) ([]telemetry.View, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var views []telemetry.View
	for _, v := range repo.db.table {
		if strings.EqualFold(v.Video, video) && !v.Start.Before(from) && !v.Start.After(to) {
			views = append(views, v)
		}
	}
	sort.SliceStable(views, func(i, j int) bool { return views[i].Start.Before(views[j].Start) })
	return views, nil
}

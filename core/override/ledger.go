// Package override merges the grades and due dates instructors enter in their gradebooks.
package override

import (
	"context"
	"math"
	"strconv"

	"github.com/kat-co/vala"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/videograder/core"
	"github.com/trezcool/videograder/core/catalog"
	"github.com/trezcool/videograder/core/gradebook"
	"github.com/trezcool/videograder/core/roster"
)

// Source gives access to the instructor gradebooks.
type Source interface {
	// Find lists the gradebooks whose name starts with `instructor`.
	Find(ctx context.Context, instructor string) ([]string, error)
	Read(ctx context.Context, name string) ([][]string, error)
	Remove(ctx context.Context, name string) error
	// Canonical is the name of the gradebook kept for `instructor`.
	Canonical(instructor string) string
}

// Ledger applies the instructor gradebooks found in a Source.
type Ledger struct {
	source Source
}

// NewLedger returns a Ledger reading from `source`.
func NewLedger(source Source) (*Ledger, error) {
	if err := vala.BeginValidation().Validate(
		core.Required(source, "source"),
	).Check(); err != nil {
		return nil, err
	}
	return &Ledger{source: source}, nil
}

// Merge applies an instructor value to the current grade: an unset grade takes it, a
// higher or equal value raises it, and an explicit zero always wins.
func Merge(current null.Int, v int) null.Int {
	if !current.Valid || v >= current.Int || v == 0 {
		return null.IntFrom(v)
	}
	return current
}

// Apply merges every gradebook of every course instructor into the roster, then deletes
// the gradebooks other than the canonical one. Gradebooks that cannot be read are
// reported and left in place.
func (l *Ledger) Apply(ctx context.Context, r *roster.Roster, cat *catalog.Catalog) (core.Log, error) {
	var log core.Log

	for _, course := range r.Courses() {
		names, err := l.source.Find(ctx, course.Instructor)
		if err != nil {
			log.Warnf("Could not list the gradebooks of %s: %v", course.Name, err)
			continue
		}

		merged := make([]string, 0, len(names))
		for _, name := range names {
			rows, err := l.source.Read(ctx, name)
			if err != nil {
				log.Warnf("Could not read gradebook %s of %s: %v", name, course.Name, err)
				continue
			}
			applyTable(course, rows, cat, &log)
			merged = append(merged, name)
		}

		canonical := l.source.Canonical(course.Instructor)
		for _, name := range merged {
			if name == canonical {
				continue
			}
			if err := l.source.Remove(ctx, name); err != nil {
				log.Warnf("Could not delete gradebook %s: %v", name, err)
			}
		}
	}
	return log, nil
}

func applyTable(course *roster.Course, rows [][]string, cat *catalog.Catalog, log *core.Log) {
	if len(rows) < 2 {
		return
	}
	videos := resolveColumns(course, rows[0], cat, log)

	for _, row := range rows[1:] {
		if len(row) < 2 {
			continue
		}
		username := core.CleanString(row[1], true /* lower */)
		if username == gradebook.DueDatesUsername {
			applyDueDates(course, row, videos)
			continue
		}

		stu, ok := course.StudentByUsername(username)
		if !ok {
			continue
		}
		for i := 2; i < len(row) && i < len(videos); i++ {
			if videos[i] == "" {
				continue
			}
			f, ok := parseNumber(row[i])
			if !ok {
				continue
			}
			v := int(math.RoundToEven(f))
			if v < 0 || v > 100 {
				log.Warnf("Ignoring grade %s of %s for %s in %s: out of range", core.CleanString(row[i]), username, videos[i], course.Name)
				continue
			}
			stu.SetGrade(videos[i], Merge(stu.Grade(videos[i]), v))
		}
	}
}

// resolveColumns maps each header position to a playlist video name ("" when it has none).
func resolveColumns(course *roster.Course, header []string, cat *catalog.Catalog, log *core.Log) []string {
	videos := make([]string, len(header))
	for i := 2; i < len(header); i++ {
		col := core.CleanString(header[i])
		if col == "" || col == gradebook.EndOfLineHeader {
			continue
		}
		v, err := cat.ByDisplayName(course.Playlist, col)
		if err != nil {
			if closest := cat.Closest(course.Playlist, col); closest != "" {
				log.Warnf("Could not find video %q in %s (closest: %q)", col, course.Name, closest)
			} else {
				log.Warnf("Could not find video %q in %s", col, course.Name)
			}
			continue
		}
		videos[i] = v.Name
	}
	return videos
}

// applyDueDates sets the due dates of a "duedates" row. When several gradebooks carry one,
// the first gradebook read sets each video's date.
func applyDueDates(course *roster.Course, row []string, videos []string) {
	for i := 2; i < len(row) && i < len(videos); i++ {
		if videos[i] == "" {
			continue
		}
		if _, ok := course.DueDates[videos[i]]; ok {
			continue
		}
		date := core.CleanString(row[i])
		if date == "" {
			date = core.FormatDate(course.TermEnd)
		}
		course.SetDueDate(videos[i], date)
	}
}

// parseNumber reads a numeric cell. Values far outside the percentage range are rejected
// here so that rounding them to an int stays defined.
func parseNumber(cell string) (float64, bool) {
	f, err := strconv.ParseFloat(core.CleanString(cell), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return math.Max(-1, math.Min(f, 101)), true
}

// Package grade turns view telemetry into per-video grades.
package grade

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/videograder/core"
	"github.com/trezcool/videograder/core/catalog"
	"github.com/trezcool/videograder/core/roster"
	"github.com/trezcool/videograder/core/telemetry"
)

// Engine grades views returned by a telemetry.Query against each course's due dates.
type Engine struct {
	views   telemetry.Query
	nowFunc func() time.Time
}

// NewEngine returns an Engine querying `views`. A nil `nowFunc` means time.Now.
func NewEngine(views telemetry.Query, nowFunc func() time.Time) (*Engine, error) {
	if err := vala.BeginValidation().Validate(
		core.Required(views, "views"),
	).Check(); err != nil {
		return nil, err
	}
	if nowFunc == nil {
		nowFunc = time.Now
	}
	return &Engine{views: views, nowFunc: nowFunc}, nil
}

// Compute grades every student of every course on every video of the course playlist.
// A malformed due date aborts with a ConfigError naming the course.
func (e *Engine) Compute(ctx context.Context, r *roster.Roster, cat *catalog.Catalog) (core.Log, error) {
	var log core.Log
	now := core.WallClock(e.nowFunc())

	for _, course := range r.Courses() {
		log.Printf("Processing grades for: %s", course.Name)

		for _, video := range cat.InPlaylist(course.Playlist) {
			log.Printf("Processing video: %s", video.Name)

			from, to, err := course.Window(video.Name)
			if err != nil {
				return log, err
			}
			views, err := e.views.QueryViews(ctx, video.Name, from, to)
			if err != nil {
				return log, errors.Wrapf(err, "querying views of %s", video.Name)
			}

			for _, stu := range course.Students {
				e.gradeStudent(stu, video, studentViews(stu, views), now.After(to), &log)
			}
		}
	}
	return log, nil
}

func (e *Engine) gradeStudent(stu *roster.Student, video catalog.Video, views []telemetry.View, pastDue bool, log *core.Log) {
	current := stu.Grade(video.Name)

	if len(views) == 0 {
		if !pastDue {
			return
		}
		g := 0
		if current.Valid && current.Int > 0 {
			g = current.Int
		}
		stu.SetGrade(video.Name, null.IntFrom(g))
		if g == 0 {
			log.Printf("%s 0%% --> Did not watch by the due date", studentLabel(stu))
		} else {
			log.Printf("%s %d%%", studentLabel(stu), g)
		}
		return
	}

	if !video.Length.Valid || video.Length.Int <= 0 {
		log.Warnf("Video %s has no known length; %s left ungraded", video.Name, stu.DisplayName())
		return
	}

	var totalPlayTime, adjusted int
	for _, v := range views {
		if v.TotalPlayTime > totalPlayTime {
			totalPlayTime = v.TotalPlayTime
		}
		adjusted += Contribution(v.PlayPct, v.Factor)
	}

	var existing *int
	if current.Valid {
		existing = &current.Int
	}
	g := Final(adjusted, TotalPlayPct(totalPlayTime, video.Length.Int), existing)
	stu.SetGrade(video.Name, null.IntFrom(g))
	log.Printf("%s %d%%", studentLabel(stu), g)
}

// studentViews keeps the sessions recorded under one of the student's names.
func studentViews(stu *roster.Student, views []telemetry.View) []telemetry.View {
	var found []telemetry.View
	for _, v := range views {
		if stu.LastNames.Matches(v.LastName) && stu.FirstNames.Matches(StripMiddleInitial(v.FirstName)) {
			found = append(found, v)
		}
	}
	return found
}

// StripMiddleInitial drops the single letter the video platform appends to first names.
func StripMiddleInitial(name string) string {
	tokens := strings.Fields(name)
	if len(tokens) > 1 && len([]rune(tokens[len(tokens)-1])) == 1 {
		tokens = tokens[:len(tokens)-1]
	}
	return strings.Join(tokens, " ")
}

func studentLabel(stu *roster.Student) string {
	return fmt.Sprintf("Student %s, %s", stu.LastNames.First(), padRight(stu.FirstNames.First(), 35, '.'))
}

func padRight(s string, width int, pad rune) string {
	if n := len([]rune(s)); n < width {
		return s + strings.Repeat(string(pad), width-n)
	}
	return s
}

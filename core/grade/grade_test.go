package grade

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/videograder/core"
	"github.com/trezcool/videograder/core/catalog"
	"github.com/trezcool/videograder/core/roster"
	"github.com/trezcool/videograder/core/telemetry"
)

func TestContribution(t *testing.T) {
	tests := []struct {
		name   string
		pct    int
		factor float64
		want   int
	}{
		{name: "normal", pct: 40, factor: 1.0, want: 40},
		{name: "slow", pct: 40, factor: 0.5, want: 40},
		{name: "at normal limit", pct: 40, factor: 1.618, want: 40},
		{name: "double", pct: 30, factor: 2.0, want: 15},
		{name: "rounded half to even", pct: 25, factor: 2.0, want: 12},
		{name: "at max", pct: 80, factor: 4.0, want: 20},
		{name: "too fast", pct: 80, factor: 4.01, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Contribution(tt.pct, tt.factor))
		})
	}
}

func TestContribution_monotonic(t *testing.T) {
	for pct := 0; pct <= 100; pct += 5 {
		prev := Contribution(pct, NormalSpeedLimit+0.001)
		for f := NormalSpeedLimit + 0.01; f < 6; f += 0.01 {
			got := Contribution(pct, f)
			assert.LessOrEqual(t, got, prev, "pct=%d factor=%.3f", pct, f)
			prev = got
		}
	}
}

func TestFinal(t *testing.T) {
	intp := func(i int) *int { return &i }
	tests := []struct {
		name     string
		adjusted int
		totalPct int
		existing *int
		want     int
	}{
		{name: "adjusted below total", adjusted: 55, totalPct: 70, want: 55},
		{name: "capped by total", adjusted: 90, totalPct: 60, want: 60},
		{name: "raised by existing", adjusted: 55, totalPct: 70, existing: intp(80), want: 80},
		{name: "existing lower", adjusted: 55, totalPct: 70, existing: intp(10), want: 55},
		{name: "snap", adjusted: 95, totalPct: 99, want: 100},
		{name: "just below snap", adjusted: 94, totalPct: 99, want: 94},
		{name: "rewatched", adjusted: 180, totalPct: 200, want: 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Final(tt.adjusted, tt.totalPct, tt.existing)
			assert.Equal(t, tt.want, got)
			assert.True(t, got >= 0 && got <= 100)
		})
	}
}

func TestStripMiddleInitial(t *testing.T) {
	tests := []struct{ in, want string }{
		{"jane", "jane"},
		{"jane q", "jane"},
		{"mary ann", "mary ann"},
		{"mary ann q", "mary ann"},
		{" jane  q ", "jane"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StripMiddleInitial(tt.in), tt.in)
	}
}

type fakeQuery struct {
	views []telemetry.View
	err   error
	calls []time.Time // window ends
}

func (q *fakeQuery) QueryViews(_ context.Context, video string, from, to time.Time) ([]telemetry.View, error) {
	q.calls = append(q.calls, to)
	if q.err != nil {
		return nil, q.err
	}
	var views []telemetry.View
	for _, v := range q.views {
		if strings.EqualFold(v.Video, video) && !v.Start.Before(from) && !v.Start.After(to) {
			views = append(views, v)
		}
	}
	return views, nil
}

func view(last, first, video string, start time.Time, pct int, factor float64, total int) telemetry.View {
	return telemetry.View{
		LastName: last, FirstName: first, Video: video,
		Start: start, End: start.Add(time.Minute),
		PlayPct: pct, Factor: factor, TotalPlayTime: total,
	}
}

type noViews struct{}

func (noViews) QueryViews(context.Context, string, time.Time, time.Time) ([]telemetry.View, error) {
	return nil, nil
}

func TestNewEngine(t *testing.T) {
	_, err := NewEngine(nil, nil)
	assert.EqualError(t, err, "parameter validation failed: Parameter was nil: views")

	var q *fakeQuery
	_, err = NewEngine(q, nil)
	assert.Error(t, err)

	e, err := NewEngine(noViews{}, nil)
	require.NoError(t, err)
	assert.NotNil(t, e.nowFunc)
}

type engineFixture struct {
	roster *roster.Roster
	cat    *catalog.Catalog
	course *roster.Course
	jane   *roster.Student
	rick   *roster.Student
}

func newFixture() engineFixture {
	cat, _ := catalog.New([]catalog.Video{
		{Playlist: "p1", Name: "Intro", DisplayName: "Video 1", Length: null.IntFrom(1000)},
		{Playlist: "p1", Name: "Limits", DisplayName: "Video 2", Length: null.IntFrom(600)},
	})
	course := &roster.Course{
		Playlist:   "p1",
		Name:       "mat-101-001",
		TermStart:  time.Date(2023, 5, 15, 0, 0, 0, 0, time.UTC),
		TermEnd:    time.Date(2023, 8, 10, 0, 0, 0, 0, time.UTC),
		Instructor: "smith",
	}
	jane := &roster.Student{FirstNames: roster.Names{"jane"}, LastNames: roster.Names{"doe", "doe-smith"}, SID: "1", Username: "janedoe", Course: course.Name}
	rick := &roster.Student{FirstNames: roster.Names{"rick"}, LastNames: roster.Names{"roe"}, SID: "2", Username: "rickroe", Course: course.Name}
	r, _ := roster.Build([]*roster.Course{course}, []*roster.Student{jane, rick}, cat)
	return engineFixture{roster: r, cat: cat, course: course, jane: jane, rick: rick}
}

func fixedNow(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestEngine_Compute(t *testing.T) {
	inTerm := time.Date(2023, 6, 1, 12, 0, 0, 0, time.UTC)
	afterTerm := time.Date(2023, 9, 1, 0, 0, 0, 0, time.UTC)

	t.Run("two sessions", func(t *testing.T) {
		fx := newFixture()
		q := &fakeQuery{views: []telemetry.View{
			view("doe", "jane q", "intro", inTerm, 40, 1.0, 500),
			view("doe-smith", "jane", "intro", inTerm.Add(time.Hour), 30, 2.0, 700),
			view("doe", "jane", "intro", afterTerm, 100, 1.0, 1000), // outside the window
			view("doe", "janet", "intro", inTerm, 100, 1.0, 1000),   // someone else
		}}
		eng, err := NewEngine(q, fixedNow(inTerm))
		require.NoError(t, err)

		log, err := eng.Compute(context.Background(), fx.roster, fx.cat)
		require.NoError(t, err)

		assert.Equal(t, null.IntFrom(55), fx.jane.Grade("Intro"))
		assert.Equal(t, null.Int{}, fx.jane.Grade("Limits"), "not yet due")
		assert.Equal(t, null.Int{}, fx.rick.Grade("Intro"))
		assert.Contains(t, log.String(), "Student doe, jane"+strings.Repeat(".", 31)+" 55%")
		assert.Equal(t, core.StatusComplete, log.Status())
	})

	t.Run("override raises grade and snaps", func(t *testing.T) {
		fx := newFixture()
		fx.jane.SetGrade("Intro", null.IntFrom(96))
		q := &fakeQuery{views: []telemetry.View{view("doe", "jane", "intro", inTerm, 40, 1.0, 400)}}
		eng, _ := NewEngine(q, fixedNow(inTerm))

		_, err := eng.Compute(context.Background(), fx.roster, fx.cat)
		require.NoError(t, err)
		assert.Equal(t, null.IntFrom(100), fx.jane.Grade("Intro"))
	})

	t.Run("zero override kept when no views", func(t *testing.T) {
		fx := newFixture()
		fx.rick.SetGrade("Intro", null.IntFrom(0))
		eng, _ := NewEngine(&fakeQuery{}, fixedNow(inTerm))

		_, err := eng.Compute(context.Background(), fx.roster, fx.cat)
		require.NoError(t, err)
		assert.Equal(t, null.IntFrom(0), fx.rick.Grade("Intro"))
	})

	t.Run("past due without views", func(t *testing.T) {
		fx := newFixture()
		fx.rick.SetGrade("Limits", null.IntFrom(70))
		eng, _ := NewEngine(&fakeQuery{}, fixedNow(afterTerm))

		log, err := eng.Compute(context.Background(), fx.roster, fx.cat)
		require.NoError(t, err)
		assert.Equal(t, null.IntFrom(0), fx.jane.Grade("Intro"))
		assert.Equal(t, null.IntFrom(0), fx.rick.Grade("Intro"))
		assert.Equal(t, null.IntFrom(70), fx.rick.Grade("Limits"), "existing grade never lowered")
		assert.Contains(t, log.String(), "0% --> Did not watch by the due date")
	})

	t.Run("due date shortens the window", func(t *testing.T) {
		fx := newFixture()
		fx.course.SetDueDate("Intro", "5/31/2023")
		q := &fakeQuery{views: []telemetry.View{view("doe", "jane", "intro", inTerm, 100, 1.0, 1000)}}
		eng, _ := NewEngine(q, fixedNow(inTerm))

		_, err := eng.Compute(context.Background(), fx.roster, fx.cat)
		require.NoError(t, err)
		assert.Equal(t, null.IntFrom(0), fx.jane.Grade("Intro"), "watched after the due date")
		assert.Equal(t, time.Date(2023, 5, 31, 23, 59, 59, 0, time.UTC), q.calls[0])
		assert.Equal(t, time.Date(2023, 8, 10, 23, 59, 59, 0, time.UTC), q.calls[1], "due date does not leak to the next video")
	})

	t.Run("malformed due date", func(t *testing.T) {
		fx := newFixture()
		fx.course.SetDueDate("Limits", "31-05-2023")
		eng, _ := NewEngine(&fakeQuery{}, fixedNow(inTerm))

		_, err := eng.Compute(context.Background(), fx.roster, fx.cat)
		require.Error(t, err)
		assert.True(t, core.IsConfigError(err))
		assert.Contains(t, err.Error(), "mat-101-001")
	})

	t.Run("unknown length", func(t *testing.T) {
		fx := newFixture()
		cat, _ := catalog.New([]catalog.Video{{Playlist: "p1", Name: "Intro", DisplayName: "Video 1"}})
		q := &fakeQuery{views: []telemetry.View{view("doe", "jane", "intro", inTerm, 50, 1.0, 500)}}
		eng, _ := NewEngine(q, fixedNow(inTerm))

		log, err := eng.Compute(context.Background(), fx.roster, cat)
		require.NoError(t, err)
		assert.Equal(t, null.Int{}, fx.jane.Grade("Intro"))
		assert.Equal(t, core.StatusWarning, log.Status())
	})

	t.Run("query failure", func(t *testing.T) {
		fx := newFixture()
		eng, _ := NewEngine(&fakeQuery{err: errors.New("db down")}, fixedNow(inTerm))
		_, err := eng.Compute(context.Background(), fx.roster, fx.cat)
		assert.EqualError(t, err, "querying views of Intro: db down")
	})
}

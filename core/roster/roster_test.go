package roster

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/videograder/core"
	"github.com/trezcool/videograder/core/catalog"
)

func newStudent(sid, course, last, first string, canWithdraw bool) *Student {
	return &Student{
		FirstNames:  ParseNames(first),
		LastNames:   ParseNames(last),
		SID:         sid,
		Username:    core.UsernameFromEmail(first + "." + last + "@school.edu"),
		Course:      course,
		CanWithdraw: canWithdraw,
	}
}

func newCourse(name, playlist string) *Course {
	return &Course{
		Playlist:   playlist,
		Name:       name,
		TermStart:  time.Date(2023, 5, 15, 0, 0, 0, 0, time.UTC),
		TermEnd:    time.Date(2023, 8, 10, 0, 0, 0, 0, time.UTC),
		Instructor: "smith_101_001_2023u",
	}
}

func TestNames(t *testing.T) {
	names := ParseNames(" Garcia,  Garcia-Lopez ,")
	assert.Equal(t, Names{"garcia", "garcia-lopez"}, names)
	assert.Equal(t, "garcia", names.First())
	assert.Equal(t, "garcia, garcia-lopez", names.String())
	assert.True(t, names.Matches("Garcia-Lopez"))
	assert.True(t, names.Matches(" garcia "))
	assert.False(t, names.Matches("lopez"))
	assert.False(t, Names(nil).Matches(""))
	assert.Equal(t, "", Names(nil).First())
}

func TestCourse_Window(t *testing.T) {
	c := newCourse("mat-101-001", "p1")
	c.SetDueDate("intro", "6/1/2023")
	c.SetDueDate("broken", "6/2023")

	tests := []struct {
		name     string
		video    string
		wantFrom time.Time
		wantTo   time.Time
		wantErr  bool
	}{
		{
			name:     "term end",
			video:    "limits",
			wantFrom: time.Date(2023, 5, 15, 0, 0, 0, 0, time.UTC),
			wantTo:   time.Date(2023, 8, 10, 23, 59, 59, 0, time.UTC),
		},
		{
			name:     "due date",
			video:    "intro",
			wantFrom: time.Date(2023, 5, 15, 0, 0, 0, 0, time.UTC),
			wantTo:   time.Date(2023, 6, 1, 23, 59, 59, 0, time.UTC),
		},
		{name: "malformed due date", video: "broken", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			from, to, err := c.Window(tt.video)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Window() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				assert.True(t, core.IsConfigError(err))
				assert.Contains(t, err.Error(), "mat-101-001")
				return
			}
			assert.Equal(t, tt.wantFrom, from)
			assert.Equal(t, tt.wantTo, to)
		})
	}
}

func TestBuild(t *testing.T) {
	cat, _ := catalog.New([]catalog.Video{
		{Playlist: "p1", Name: "intro", DisplayName: "Intro"},
		{Playlist: "p1", Name: "limits", DisplayName: "Limits"},
		{Playlist: "p2", Name: "sums", DisplayName: "Sums"},
	})
	c1 := newCourse("mat-101-001", "p1")
	c2 := newCourse("mat-102-001", "p2")
	students := []*Student{
		newStudent("0042", "mat-101-001", "doe", "jane", true),
		newStudent("0043", "mat-102-001", "roe", "rick", false),
		newStudent("0044", "mat-999-001", "lost", "larry", true),
	}

	r, log := Build([]*Course{c1, c2}, students, cat)

	assert.Equal(t, core.StatusWarning, log.Status())
	require.Len(t, log.Lines(), 1)
	assert.Contains(t, log.Lines()[0], "mat-999-001")

	require.Len(t, c1.Students, 1)
	require.Len(t, c2.Students, 1)
	assert.Len(t, r.Students(), 2)
	assert.Equal(t, map[string]null.Int{"intro": {}, "limits": {}}, c1.Students[0].Grades)
	assert.Equal(t, map[string]null.Int{"sums": {}}, c2.Students[0].Grades)

	s, ok := r.StudentByUsername("mat-102-001", "rickroe")
	require.True(t, ok)
	assert.Equal(t, "0043", s.SID)
	_, ok = r.StudentByUsername("mat-101-001", "rickroe")
	assert.False(t, ok)
}

func TestRoster_AddRemove(t *testing.T) {
	r := New(newCourse("mat-101-001", "p1"))

	require.NoError(t, r.Add(newStudent("1", "mat-101-001", "doe", "jane", true)))
	err := r.Add(newStudent("1", "mat-101-001", "doe", "janet", true))
	assert.Equal(t, ErrDuplicate, errors.Cause(err))
	err = r.Add(newStudent("2", "mat-999-001", "doe", "jane", true))
	assert.Equal(t, ErrUnknownCourse, errors.Cause(err))

	assert.True(t, r.Has(Key{SID: "1", Course: "mat-101-001"}))
	assert.False(t, r.Remove(Key{SID: "2", Course: "mat-101-001"}))
	assert.True(t, r.Remove(Key{SID: "1", Course: "mat-101-001"}))
	assert.Empty(t, r.Students())
}

func TestVerifyCourses(t *testing.T) {
	assert.NoError(t, VerifyCourses([]*Course{newCourse("a", "p"), newCourse("b", "p")}))

	err := VerifyCourses([]*Course{newCourse("a", "p"), newCourse("b", "p"), newCourse("a", "q")})
	require.Error(t, err)
	assert.True(t, core.IsConfigError(err))
	assert.Contains(t, err.Error(), "a: listed twice")
}

func TestDedupeStudents(t *testing.T) {
	first := newStudent("1", "c", "doe", "jane", false)
	students := []*Student{
		first,
		newStudent("2", "c", "roe", "rick", true),
		newStudent("1", "c", "doe", "janet", true),
		newStudent("1", "d", "doe", "jane", true),
	}

	kept, log := DedupeStudents(students)

	require.Len(t, kept, 3)
	assert.Same(t, first, kept[0])
	assert.Equal(t, core.StatusWarning, log.Status())
	assert.Len(t, log.Lines(), 1)
}

type fakeExtract struct {
	enrollments []Enrollment
	err         error
}

func (f fakeExtract) ReadEnrollments(context.Context) ([]Enrollment, error) {
	return f.enrollments, f.err
}

type fakeStore struct {
	saved [][]*Student
	err   error
}

func (f *fakeStore) SaveStudents(_ context.Context, students []*Student) error {
	f.saved = append(f.saved, students)
	return f.err
}

type nopLogger struct{ warnings int }

func (l *nopLogger) Debug(string, ...interface{}) {}
func (l *nopLogger) Info(string, ...interface{})  {}
func (l *nopLogger) Warn(string, ...interface{})  { l.warnings++ }
func (l *nopLogger) Error(string, ...interface{}) {}
func (l *nopLogger) Fatal(string, ...interface{}) {}

func testRoster() *Roster {
	r := New(newCourse("mat-101-001", "p1"), newCourse("mat-102-001", "p1"))
	_ = r.Add(newStudent("100", "mat-101-001", "doe", "jane", true))
	_ = r.Add(newStudent("101", "mat-101-001", "perm", "pat", false))
	_ = r.Add(newStudent("102", "mat-102-001", "roe", "rick", true))
	return r
}

func TestNewReconciler(t *testing.T) {
	_, err := NewReconciler(nil, &fakeStore{}, &nopLogger{})
	assert.Error(t, err)
	_, err = NewReconciler(fakeExtract{}, &fakeStore{}, &nopLogger{})
	assert.NoError(t, err)
}

func TestReconciler_Refresh(t *testing.T) {
	extract := fakeExtract{enrollments: []Enrollment{
		{Course: "mat-101-001", SID: "100", FirstName: "jane", LastName: "doe", Username: "janedoe"},
		{Course: "mat-101-001", SID: "200", FirstName: "new", LastName: "kid", Username: "newkid"},
		{Course: "mat-101-001", SID: "200", FirstName: "new", LastName: "kid", Username: "newkid"},
		{Course: "mat-999-001", SID: "300", FirstName: "other", LastName: "dept", Username: "otherdept"},
	}}

	t.Run("adds and withdraws", func(t *testing.T) {
		r := testRoster()
		store := &fakeStore{}
		rc, err := NewReconciler(extract, store, &nopLogger{})
		require.NoError(t, err)

		log, err := rc.Refresh(context.Background(), r)
		require.NoError(t, err)

		assert.Equal(t, []string{
			"Student Added: kid, new: mat-101-001",
			"Withdraw: roe, rick: mat-102-001",
		}, log.Lines())
		assert.True(t, r.Has(Key{SID: "200", Course: "mat-101-001"}))
		assert.True(t, r.Has(Key{SID: "101", Course: "mat-101-001"}), "permanent student kept")
		assert.False(t, r.Has(Key{SID: "102", Course: "mat-102-001"}))
		assert.False(t, r.Has(Key{SID: "300", Course: "mat-999-001"}))

		added, _ := r.StudentByUsername("mat-101-001", "newkid")
		require.NotNil(t, added)
		assert.True(t, added.CanWithdraw)

		require.Len(t, store.saved, 1)
		assert.Len(t, store.saved[0], 3)

		// idempotent
		log, err = rc.Refresh(context.Background(), r)
		require.NoError(t, err)
		assert.True(t, log.Empty())
		assert.Len(t, store.saved, 2)
	})

	t.Run("unreadable extract", func(t *testing.T) {
		r := testRoster()
		store := &fakeStore{}
		logger := &nopLogger{}
		rc, _ := NewReconciler(fakeExtract{err: errors.New("no such file")}, store, logger)

		log, err := rc.Refresh(context.Background(), r)
		require.NoError(t, err)
		assert.True(t, log.Empty())
		assert.Len(t, r.Students(), 3)
		assert.Len(t, store.saved, 1, "roster persisted anyway")
		assert.Equal(t, 1, logger.warnings)
	})

	t.Run("empty extract", func(t *testing.T) {
		r := testRoster()
		rc, _ := NewReconciler(fakeExtract{}, &fakeStore{}, &nopLogger{})

		log, err := rc.Refresh(context.Background(), r)
		require.NoError(t, err)
		assert.True(t, log.Empty())
		assert.Len(t, r.Students(), 3)
	})

	t.Run("store failure", func(t *testing.T) {
		rc, _ := NewReconciler(extract, &fakeStore{err: errors.New("disk full")}, &nopLogger{})
		_, err := rc.Refresh(context.Background(), testRoster())
		assert.EqualError(t, err, "saving students: disk full")
	})

	t.Run("permanent students never withdrawn", func(t *testing.T) {
		r := testRoster()
		rc, _ := NewReconciler(fakeExtract{enrollments: []Enrollment{
			{Course: "mat-102-001", SID: "102", FirstName: "rick", LastName: "roe"},
		}}, &fakeStore{}, &nopLogger{})

		_, err := rc.Refresh(context.Background(), r)
		require.NoError(t, err)
		assert.True(t, r.Has(Key{SID: "101", Course: "mat-101-001"}))
		assert.False(t, r.Has(Key{SID: "100", Course: "mat-101-001"}))
	})
}

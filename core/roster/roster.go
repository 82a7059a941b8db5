// Package roster keeps the courses and their enrolled students, and reconciles
// them with the institutional enrollment extract.
package roster

import (
	"context"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/videograder/core"
	"github.com/trezcool/videograder/core/catalog"
)

var (
	ErrUnknownCourse = errors.New("course not found")
	ErrDuplicate     = errors.New("student already enrolled in course")
)

// Store persists the roster students.
type Store interface {
	SaveStudents(ctx context.Context, students []*Student) error
}

// Roster indexes the courses of a run and the students placed in them.
type Roster struct {
	courses []*Course
	index   map[string]*Course
}

// New returns a Roster of `courses`, indexed by course name.
func New(courses ...*Course) *Roster {
	r := &Roster{index: make(map[string]*Course, len(courses))}
	for _, c := range courses {
		r.courses = append(r.courses, c)
		r.index[c.Name] = c
	}
	return r
}

// Build places each student in its course and prepares a grade slot for every video of the
// course playlist. Students of unknown courses are dropped with a warning.
func Build(courses []*Course, students []*Student, cat *catalog.Catalog) (*Roster, core.Log) {
	var log core.Log
	r := New(courses...)
	for _, s := range students {
		c, ok := r.Course(s.Course)
		if !ok {
			log.Warnf("Student: %s is in the class %s which cannot be located in the class list.", s.DisplayName(), s.Course)
			continue
		}
		for _, v := range cat.InPlaylist(c.Playlist) {
			if _, ok := s.Grades[v.Name]; !ok {
				s.SetGrade(v.Name, null.Int{})
			}
		}
		c.Students = append(c.Students, s)
	}
	return r, log
}

func (r *Roster) Courses() []*Course { return r.courses }

func (r *Roster) Course(name string) (*Course, bool) {
	c, ok := r.index[name]
	return c, ok
}

// CourseNames returns the set of known course names.
func (r *Roster) CourseNames() map[string]bool {
	names := make(map[string]bool, len(r.courses))
	for _, c := range r.courses {
		names[c.Name] = true
	}
	return names
}

// Students flattens the roster, grouped by course.
func (r *Roster) Students() []*Student {
	var students []*Student
	for _, c := range r.courses {
		students = append(students, c.Students...)
	}
	return students
}

// StudentByUsername looks `username` up in `course`.
func (r *Roster) StudentByUsername(course, username string) (*Student, bool) {
	c, ok := r.Course(course)
	if !ok {
		return nil, false
	}
	return c.StudentByUsername(username)
}

func (r *Roster) Has(key Key) bool {
	c, ok := r.Course(key.Course)
	if !ok {
		return false
	}
	for _, s := range c.Students {
		if s.SID == key.SID {
			return true
		}
	}
	return false
}

func (r *Roster) Add(s *Student) error {
	c, ok := r.Course(s.Course)
	if !ok {
		return errors.Wrap(ErrUnknownCourse, s.Course)
	}
	if r.Has(s.Key()) {
		return errors.Wrapf(ErrDuplicate, "%s in %s", s.SID, s.Course)
	}
	c.Students = append(c.Students, s)
	return nil
}

// Remove drops the student identified by `key` and reports whether it was enrolled.
func (r *Roster) Remove(key Key) bool {
	c, ok := r.Course(key.Course)
	if !ok {
		return false
	}
	for i, s := range c.Students {
		if s.SID == key.SID {
			c.Students = append(c.Students[:i], c.Students[i+1:]...)
			return true
		}
	}
	return false
}

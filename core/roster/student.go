package roster

import (
	"strings"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/videograder/core"
)

// Names holds the recorded variants of a first or last name, normalised to lower case.
type Names []string

// ParseNames splits a comma separated list of name variants.
func ParseNames(s string) Names {
	var names Names
	for _, n := range strings.Split(s, ",") {
		if n = core.CleanString(n, true /* lower */); n != "" {
			names = append(names, n)
		}
	}
	return names
}

// Matches reports whether `name` equals one of the variants.
func (n Names) Matches(name string) bool {
	name = core.CleanString(name, true /* lower */)
	for _, v := range n {
		if v == name {
			return true
		}
	}
	return false
}

// First returns the primary variant.
func (n Names) First() string {
	if len(n) == 0 {
		return ""
	}
	return n[0]
}

func (n Names) String() string {
	return strings.Join(n, ", ")
}

// Key identifies a student within the roster.
type Key struct {
	SID    string
	Course string
}

type Student struct {
	FirstNames  Names
	LastNames   Names
	SID         string // kept verbatim, leading zeros included
	Username    string
	Course      string
	CanWithdraw bool
	Grades      map[string]null.Int // {video name: percentage}
}

func (s *Student) Key() Key {
	return Key{SID: s.SID, Course: s.Course}
}

// Grade returns the grade of `video`, unset when none was recorded.
func (s *Student) Grade(video string) null.Int {
	return s.Grades[video]
}

func (s *Student) SetGrade(video string, grade null.Int) {
	if s.Grades == nil {
		s.Grades = make(map[string]null.Int)
	}
	s.Grades[video] = grade
}

// DisplayName renders "last, first" using the primary variants.
func (s *Student) DisplayName() string {
	return s.LastNames.First() + ", " + s.FirstNames.First()
}

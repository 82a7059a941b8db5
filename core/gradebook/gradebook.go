// Package gradebook lays out the per-instructor grade tables exchanged with the LMS.
package gradebook

import (
	"sort"
	"strconv"

	"github.com/trezcool/videograder/core"
	"github.com/trezcool/videograder/core/catalog"
	"github.com/trezcool/videograder/core/roster"
)

// Column and row markers of the LMS import format.
const (
	IDHeader        = "OrgDefinedID"
	UsernameHeader  = "Username"
	EndOfLineHeader = "End-Of-Line Indicator"
	EndOfLineMarker = "#"

	// DueDatesUsername keys the row holding per-video due dates.
	DueDatesUsername = "duedates"
	dueDatesID       = "0"
)

// Rows renders the gradebook of `course`: a header naming the playlist videos, then one row
// per student, then the due dates row when the course has any.
func Rows(course *roster.Course, cat *catalog.Catalog) [][]string {
	videos := cat.InPlaylist(course.Playlist)

	header := make([]string, 0, len(videos)+3)
	header = append(header, IDHeader, UsernameHeader)
	for _, v := range videos {
		header = append(header, v.DisplayName)
	}
	header = append(header, EndOfLineHeader)

	rows := make([][]string, 0, len(course.Students)+2)
	rows = append(rows, header)

	for _, s := range course.Students {
		row := make([]string, 0, len(header))
		row = append(row, core.TrimLeadingZeros(s.SID), s.Username)
		for _, v := range videos {
			cell := ""
			if g := s.Grade(v.Name); g.Valid {
				cell = strconv.Itoa(g.Int)
			}
			row = append(row, cell)
		}
		rows = append(rows, append(row, EndOfLineMarker))
	}

	if len(course.DueDates) > 0 {
		row := make([]string, 0, len(header))
		row = append(row, dueDatesID, DueDatesUsername)
		for _, v := range videos {
			row = append(row, course.DueDates[v.Name])
		}
		rows = append(rows, append(row, EndOfLineMarker))
	}
	return rows
}

// Filename is the name of the gradebook of `course`.
func Filename(course *roster.Course) string {
	return course.Instructor + ".csv"
}

// Summary counts what a gradebook holds, for notifications.
type Summary struct {
	Course     string
	Instructor string
	Filename   string
	Students   int
	Videos     int
	Graded     int
}

func Summarize(course *roster.Course, cat *catalog.Catalog) Summary {
	videos := cat.InPlaylist(course.Playlist)
	sum := Summary{
		Course:     course.Name,
		Instructor: course.Instructor,
		Filename:   Filename(course),
		Students:   len(course.Students),
		Videos:     len(videos),
	}
	for _, s := range course.Students {
		for _, v := range videos {
			if s.Grade(v.Name).Valid {
				sum.Graded++
			}
		}
	}
	return sum
}

// SortedCourses orders courses by instructor then name, for stable output.
func SortedCourses(courses []*roster.Course) []*roster.Course {
	sorted := make([]*roster.Course, len(courses))
	copy(sorted, courses)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Instructor != sorted[j].Instructor {
			return sorted[i].Instructor < sorted[j].Instructor
		}
		return sorted[i].Name < sorted[j].Name
	})
	return sorted
}

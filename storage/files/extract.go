package files

import (
	"context"

	"github.com/trezcool/videograder/core"
	"github.com/trezcool/videograder/core/roster"
)

// ExtractReader reads the enrollment extract produced by institutional research.
type ExtractReader struct {
	path string
	cols core.ExtractConfig
}

var _ roster.ExtractReader = (*ExtractReader)(nil)

func NewExtractReader(path string, cols core.ExtractConfig) *ExtractReader {
	return &ExtractReader{path: path, cols: cols}
}

// ReadEnrollments skips the header, blank rows, rows too short to hold every column and
// rows whose email does not give a valid login.
func (r *ExtractReader) ReadEnrollments(_ context.Context) ([]roster.Enrollment, error) {
	rows, err := readRows(r.path)
	if err != nil {
		return nil, err
	}
	if len(rows) > 0 {
		rows = rows[1:]
	}

	enrollments := make([]roster.Enrollment, 0, len(rows))
	for _, row := range rows {
		course, ok1 := cell(row, r.cols.CourseCol)
		sid, ok2 := cell(row, r.cols.SIDCol)
		first, ok3 := cell(row, r.cols.FirstCol)
		last, ok4 := cell(row, r.cols.LastCol)
		email, ok5 := cell(row, r.cols.EmailCol)
		if !(ok1 && ok2 && ok3 && ok4 && ok5) {
			continue
		}
		username := core.UsernameFromEmail(email)
		if !core.ValidUsername(username) {
			continue
		}
		enrollments = append(enrollments, roster.Enrollment{
			Course:    core.CleanString(course, true),
			SID:       core.CleanString(sid, true),
			FirstName: core.CleanString(first, true),
			LastName:  core.CleanString(last, true),
			Username:  username,
		})
	}
	return enrollments, nil
}

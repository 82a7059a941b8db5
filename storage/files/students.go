package files

import (
	"context"
	"strings"

	"github.com/trezcool/videograder/core"
	"github.com/trezcool/videograder/core/roster"
)

// permanentMarker prefixes the course of students the extract never withdraws.
const permanentMarker = "+"

type studentRecord struct {
	Course    string `csv:"course" validate:"required"`
	LastName  string `csv:"lastname" validate:"required"`
	FirstName string `csv:"firstname" validate:"required"`
	SID       string `csv:"sid" validate:"required"`
	Email     string `csv:"email" validate:"required,username"`
}

// ReadStudents loads the roster file. Invalid rows are skipped with a warning.
func ReadStudents(path string) ([]*roster.Student, core.Log, error) {
	var log core.Log

	var records []*studentRecord
	if err := readRecords(path, &records); err != nil {
		return nil, log, err
	}

	v := newRecordValidator()
	students := make([]*roster.Student, 0, len(records))
	for i, rec := range records {
		canWithdraw := true
		course := core.CleanString(rec.Course, true)
		if strings.HasPrefix(course, permanentMarker) {
			course = strings.TrimPrefix(course, permanentMarker)
			canWithdraw = false
		}
		rec.Course = course
		rec.SID = core.CleanString(rec.SID, true)
		rec.Email = core.UsernameFromEmail(rec.Email)
		if err := v.check(rec, "student record"); err != nil {
			log.Warnf("Row %d of %s skipped: %v", i+2, path, err)
			continue
		}

		students = append(students, &roster.Student{
			FirstNames:  roster.ParseNames(rec.FirstName),
			LastNames:   roster.ParseNames(rec.LastName),
			SID:         rec.SID,
			Username:    rec.Email,
			Course:      course,
			CanWithdraw: canWithdraw,
		})
	}
	log.Printf("Found %d student records.", len(students))
	return students, log, nil
}

func toStudentRecord(s *roster.Student) *studentRecord {
	course := s.Course
	if !s.CanWithdraw {
		course = permanentMarker + course
	}
	return &studentRecord{
		Course:    course,
		LastName:  s.LastNames.String(),
		FirstName: s.FirstNames.String(),
		SID:       s.SID,
		Email:     s.Username,
	}
}

// StudentStore persists the roster to the students file.
type StudentStore struct {
	path string
}

var _ roster.Store = (*StudentStore)(nil)

func NewStudentStore(path string) *StudentStore {
	return &StudentStore{path: path}
}

func (st *StudentStore) SaveStudents(_ context.Context, students []*roster.Student) error {
	records := make([]*studentRecord, 0, len(students))
	for _, s := range students {
		records = append(records, toStudentRecord(s))
	}
	return writeRecords(st.path, &records)
}

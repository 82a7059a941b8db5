package files

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/videograder/core"
	"github.com/trezcool/videograder/core/roster"
)

// ClassRecord is a row of the class list.
type ClassRecord struct {
	Playlist   string `csv:"videoset" validate:"required"`
	Course     string `csv:"course" validate:"required"`
	TermStart  string `csv:"termstart" validate:"required,mdy"`
	TermEnd    string `csv:"termend" validate:"required,mdy"`
	Instructor string `csv:"instructor" validate:"required"`
	Email      string `csv:"email"`
}

type recordValidator struct {
	validate   *validator.Validate
	translator ut.Translator
}

func newRecordValidator() recordValidator {
	validate, translator := core.NewValidator()
	return recordValidator{validate: validate, translator: translator}
}

func (v recordValidator) check(rec interface{}, msg string) error {
	return core.Validate(v.validate, v.translator, rec, msg)
}

// ReadClasses loads the class list. Invalid rows are skipped with a warning.
func ReadClasses(path string) ([]*roster.Course, core.Log, error) {
	var log core.Log

	var records []*ClassRecord
	if err := readRecords(path, &records); err != nil {
		return nil, log, err
	}

	v := newRecordValidator()
	courses := make([]*roster.Course, 0, len(records))
	for i, rec := range records {
		rec.normalize()
		if err := v.check(rec, "class record"); err != nil {
			log.Warnf("Row %d of %s skipped: %v", i+2, path, err)
			continue
		}
		start, _ := core.ParseDate(rec.TermStart) // validated
		end, _ := core.ParseDate(rec.TermEnd)
		courses = append(courses, &roster.Course{
			Playlist:   rec.Playlist,
			Name:       rec.Course,
			TermStart:  start,
			TermEnd:    end,
			Instructor: rec.Instructor,
			Email:      rec.Email,
		})
	}
	log.Printf("Found %d class records.", len(courses))
	return courses, log, nil
}

func (rec *ClassRecord) normalize() {
	rec.Playlist = core.CleanString(rec.Playlist, true)
	rec.Course = core.CleanString(rec.Course, true)
	rec.TermStart = core.CleanString(rec.TermStart)
	rec.TermEnd = core.CleanString(rec.TermEnd)
	rec.Instructor = core.CleanString(rec.Instructor, true)
	rec.Email = core.CleanString(rec.Email, true)
}

func WriteClasses(path string, records []*ClassRecord) error {
	return writeRecords(path, &records)
}

package files

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"github.com/trezcool/videograder/core"
)

// Columns of the schedule workbook.
const (
	scheduleCourseCol     = 0 // A
	scheduleSectionCol    = 1 // B
	scheduleSemesterCol   = 2 // C
	scheduleInstructorCol = 4 // E
)

var sectionLetters = "WPDBY"

// ImportSchedule builds class records from the first sheet of the schedule workbook.
// Only courses with a playlist in `conf` are kept.
func ImportSchedule(path string, conf core.ScheduleConfig) ([]*ClassRecord, core.Log, error) {
	var log core.Log

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, log, errors.Wrapf(err, "opening %s", path)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, log, errors.Errorf("%s has no worksheet", path)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, log, errors.Wrapf(err, "reading %s", sheets[0])
	}

	var (
		records       []*ClassRecord
		currentNumber string
	)
	for i, row := range rows {
		if i == 0 { // header
			continue
		}
		section, _ := cell(row, scheduleSectionCol)
		if section = core.CleanString(section); section == "" {
			continue
		}
		section = PadSection(section)

		number, _ := cell(row, scheduleCourseCol)
		if number = core.CleanString(number); number == "" {
			number = currentNumber
		} else {
			number = strings.ReplaceAll(number, "/", "-")
			currentNumber = number
		}

		course := strings.ToLower(fmt.Sprintf("%s-%s", conf.Prefix, number))
		playlist, ok := conf.Playlists[course]
		if !ok {
			continue
		}

		semester, _ := cell(row, scheduleSemesterCol)
		semester = core.CleanString(semester, true)
		dates, ok := conf.TermDates[semester]
		if !ok || len(dates) != 2 {
			log.Warnf("Row %d: no term dates configured for semester %q, skipped", i+1, semester)
			continue
		}

		instructor, _ := cell(row, scheduleInstructorCol)
		instructor = CleanInstructor(instructor)

		records = append(records, &ClassRecord{
			Playlist:   strings.ToLower(playlist),
			Course:     course + "-" + section,
			TermStart:  dates[0],
			TermEnd:    dates[1],
			Instructor: strings.ToLower(fmt.Sprintf("%s_%s_%s_%s", instructor, number, section, semester)),
		})
	}
	log.Printf("Found %d class records in %s.", len(records), path)
	return records, log, nil
}

// PadSection zero pads a section number to three characters, keeping a leading
// campus letter first ("W1" becomes "w01").
func PadSection(section string) string {
	for len(section) < 3 {
		if ch := section[:1]; strings.Contains(sectionLetters, ch) {
			section = ch + "0" + strings.ReplaceAll(section, ch, "")
		} else {
			section = "0" + section
		}
	}
	return strings.ToLower(section)
}

// CleanInstructor strips the characters that cannot appear in an instructor id.
func CleanInstructor(name string) string {
	name = core.CleanString(name)
	if name == "" {
		return "nobody"
	}
	return strings.NewReplacer("'", "", " ", "", ".", "").Replace(name)
}

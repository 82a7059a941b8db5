package roster

import (
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/videograder/core"
)

type Course struct {
	Playlist   string
	Name       string
	TermStart  time.Time
	TermEnd    time.Time
	Instructor string
	Email      string
	Students   []*Student
	DueDates   map[string]string // {video name: month/day/year}
}

// StudentByUsername returns the student of the course logging in as `username`.
func (c *Course) StudentByUsername(username string) (*Student, bool) {
	for _, s := range c.Students {
		if s.Username == username {
			return s, true
		}
	}
	return nil, false
}

func (c *Course) SetDueDate(video, date string) {
	if c.DueDates == nil {
		c.DueDates = make(map[string]string)
	}
	c.DueDates[video] = date
}

// Window returns the period during which views of `video` count: from the start of the
// term to the end of the video's due date, or of the term when it has none.
// A malformed due date is a ConfigError.
func (c *Course) Window(video string) (from, to time.Time, err error) {
	from = time.Date(c.TermStart.Year(), c.TermStart.Month(), c.TermStart.Day(), 0, 0, 0, 0, time.UTC)
	end := c.TermEnd
	if raw, ok := c.DueDates[video]; ok {
		if end, err = core.ParseDate(raw); err != nil {
			msg := "there is a due-date format error for video " + video + "; check the gradebook"
			return from, to, core.NewConfigError(c.Name, msg, errors.Cause(err))
		}
	}
	return from, core.EndOfDay(time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)), nil
}

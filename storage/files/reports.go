package files

import (
	"context"
	"strconv"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/videograder/core"
	"github.com/trezcool/videograder/core/telemetry"
)

// ReportReader parses the view reports downloaded from the video platform.
type ReportReader struct {
	conf core.ReportsConfig
}

var _ telemetry.ReportReader = (*ReportReader)(nil)

func NewReportReader(conf core.ReportsConfig) *ReportReader {
	return &ReportReader{conf: conf}
}

// ReadReport returns the sessions of a report. Malformed rows are skipped with a warning.
func (r *ReportReader) ReadReport(_ context.Context, path string) ([]telemetry.View, core.Log, error) {
	var log core.Log

	rows, err := readRows(path)
	if err != nil {
		return nil, log, err
	}
	if len(rows) > 0 {
		rows = rows[1:]
	}

	views := make([]telemetry.View, 0, len(rows))
	for i, row := range rows {
		if len(row) == 0 || (len(row) == 1 && core.CleanString(row[0]) == "") {
			continue
		}
		v, err := r.parseRow(row)
		if err != nil {
			log.Warnf("Row %d of %s skipped: %v", i+2, path, err)
			continue
		}
		views = append(views, v)
	}
	return views, log, nil
}

func (r *ReportReader) parseRow(row []string) (telemetry.View, error) {
	get := func(col int, name string) (string, error) {
		v, ok := cell(row, col)
		if !ok {
			return "", errors.Errorf("missing %s column", name)
		}
		return core.CleanString(v), nil
	}
	getInt := func(col int, name string) (int, error) {
		s, err := get(col, name)
		if err != nil {
			return 0, err
		}
		n, err := strconv.Atoi(s)
		return n, errors.Wrapf(err, "invalid %s", name)
	}
	getTime := func(col int, name string) (time.Time, error) {
		s, err := get(col, name)
		if err != nil {
			return time.Time{}, err
		}
		t, err := time.Parse(r.conf.TimeLayout, s)
		return t, errors.Wrapf(err, "invalid %s", name)
	}

	last, err := get(r.conf.LastNameCol, "last name")
	if err != nil {
		return telemetry.View{}, err
	}
	first, err := get(r.conf.FirstNameCol, "first name")
	if err != nil {
		return telemetry.View{}, err
	}
	video, err := get(r.conf.VideoCol, "video")
	if err != nil {
		return telemetry.View{}, err
	}
	start, err := getTime(r.conf.StartCol, "start time")
	if err != nil {
		return telemetry.View{}, err
	}
	end, err := getTime(r.conf.EndCol, "end time")
	if err != nil {
		return telemetry.View{}, err
	}
	playLength, err := getInt(r.conf.PlayLengthCol, "play length")
	if err != nil {
		return telemetry.View{}, err
	}
	videoLength, err := getInt(r.conf.VideoLengthCol, "video length")
	if err != nil {
		return telemetry.View{}, err
	}
	if videoLength <= 0 {
		return telemetry.View{}, errors.Errorf("invalid video length %d", videoLength)
	}
	totalPlayTime, err := getInt(r.conf.TotalPlayTimeCol, "total play time")
	if err != nil {
		return telemetry.View{}, err
	}
	return telemetry.NewView(last, first, video, start, end, playLength, videoLength, totalPlayTime), nil
}

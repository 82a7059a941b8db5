package files

import (
	"math"
	"strconv"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/videograder/core"
	"github.com/trezcool/videograder/core/catalog"
)

type videoRecord struct {
	Playlist    string `csv:"videoset" validate:"required"`
	Name        string `csv:"video_name" validate:"required"`
	DisplayName string `csv:"d2l_name" validate:"required"`
	Length      string `csv:"length"`
	Collect     string `csv:"download_results"`
	DirectLink  string `csv:"direct_link"`
}

// ReadVideos loads the video catalog file. Invalid rows are skipped with a warning.
func ReadVideos(path string) ([]catalog.Video, core.Log, error) {
	var log core.Log

	var records []*videoRecord
	if err := readRecords(path, &records); err != nil {
		return nil, log, err
	}

	v := newRecordValidator()
	videos := make([]catalog.Video, 0, len(records))
	for i, rec := range records {
		if err := v.check(rec, "video record"); err != nil {
			log.Warnf("Row %d of %s skipped: %v", i+2, path, err)
			continue
		}
		videos = append(videos, catalog.Video{
			Playlist:    core.CleanString(rec.Playlist, true),
			Name:        core.CleanString(rec.Name),
			DisplayName: core.CleanString(rec.DisplayName),
			Length:      parseLength(rec.Length),
			Collect:     parseBool(rec.Collect),
			DirectLink:  core.CleanString(rec.DirectLink),
		})
	}
	return videos, log, nil
}

// WriteVideos rewrites the catalog file, e.g. once Verify has filled missing values in.
func WriteVideos(path string, videos []catalog.Video) error {
	records := make([]*videoRecord, 0, len(videos))
	for _, v := range videos {
		length := ""
		if v.Length.Valid {
			length = strconv.Itoa(v.Length.Int)
		}
		records = append(records, &videoRecord{
			Playlist:    v.Playlist,
			Name:        v.Name,
			DisplayName: v.DisplayName,
			Length:      length,
			Collect:     strconv.FormatBool(v.Collect),
			DirectLink:  v.DirectLink,
		})
	}
	return writeRecords(path, &records)
}

func parseLength(s string) null.Int {
	f, err := strconv.ParseFloat(core.CleanString(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return null.Int{}
	}
	return null.IntFrom(int(math.RoundToEven(f)))
}

func parseBool(s string) bool {
	switch core.CleanString(s, true) {
	case "true", "t", "1", "yes", "y":
		return true
	}
	return false
}

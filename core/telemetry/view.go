// Package telemetry models the view sessions reported by the video platform.
package telemetry

import (
	"context"
	"math"
	"time"

	"github.com/trezcool/videograder/core"
)

// View is one watch session of a student on a video.
type View struct {
	LastName      string    `db:"lname"`
	FirstName     string    `db:"fname"`
	Video         string    `db:"video"`
	Start         time.Time `db:"starttime"`
	End           time.Time `db:"endtime"`
	PlayLength    int       `db:"playlength"` // seconds
	PlayPct       int       `db:"playpct"`
	Factor        float64   `db:"factor"`
	TotalPlayTime int       `db:"totalplaytime"` // seconds, across all sessions
}

// NewView normalises a reported session and derives its play percentage and speed factor.
// The factor is the play length over the wall-clock duration, 1.0 when the session took no time.
func NewView(last, first, video string, start, end time.Time, playLength, videoLength, totalPlayTime int) View {
	v := View{
		LastName:      core.CleanString(last, true /* lower */),
		FirstName:     core.CleanString(first, true /* lower */),
		Video:         core.CleanString(video, true /* lower */),
		Start:         core.WallClock(start),
		End:           core.WallClock(end),
		PlayLength:    playLength,
		Factor:        1.0,
		TotalPlayTime: totalPlayTime,
	}
	if videoLength > 0 {
		v.PlayPct = int(math.RoundToEven(float64(playLength) / float64(videoLength) * 100))
	}
	if elapsed := v.End.Sub(v.Start).Seconds(); elapsed != 0 {
		v.Factor = float64(playLength) / elapsed
	}
	return v
}

// Query finds the sessions of a video (matched case-insensitively) started within [from, to].
type Query interface {
	QueryViews(ctx context.Context, video string, from, to time.Time) ([]View, error)
}

// Repository stores view sessions. Inserting a session already stored is a no-op.
type Repository interface {
	Query
	InsertViews(ctx context.Context, views ...View) (inserted int, err error)
}

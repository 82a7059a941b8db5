// Package catalog holds the course videos: which playlist they belong to, how long they run
// and what the LMS gradebook calls them.
package catalog

import (
	"net/url"
	"strings"

	"github.com/pkg/errors"
	"github.com/pmezard/go-difflib/difflib"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/videograder/core"
)

var ErrNotFound = errors.New("video not found")

type Video struct {
	Playlist    string
	Name        string   // name on the video platform
	DisplayName string   // gradebook column name in the LMS
	Length      null.Int // seconds
	Collect     bool     // download view reports for this video
	DirectLink  string
	PlatformID  string
}

// Catalog is the ordered list of every video of every playlist.
type Catalog struct {
	videos []Video
}

// New builds a Catalog, deriving each video's platform id from its direct link.
// The returned log warns about links without an id.
func New(videos []Video) (*Catalog, core.Log) {
	var log core.Log
	cat := &Catalog{videos: make([]Video, 0, len(videos))}
	for _, v := range videos {
		v.PlatformID = PlatformIDFromLink(v.DirectLink)
		if v.PlatformID == "" {
			log.Warnf("Direct link for video %s does not contain a video ID number. "+
				"Check its direct_link to make sure it has an item like: v=5010426.", v.Name)
		}
		cat.videos = append(cat.videos, v)
	}
	return cat, log
}

// PlatformIDFromLink extracts the `v` query parameter of a direct link.
func PlatformIDFromLink(link string) string {
	link = core.CleanString(link)
	if !strings.Contains(link, "?") {
		return ""
	}
	u, err := url.Parse(link)
	if err != nil {
		return ""
	}
	return u.Query().Get("v")
}

func (cat *Catalog) Videos() []Video {
	out := make([]Video, len(cat.videos))
	copy(out, cat.videos)
	return out
}

// InPlaylist returns the videos of `playlist` in catalog order.
func (cat *Catalog) InPlaylist(playlist string) []Video {
	var videos []Video
	for _, v := range cat.videos {
		if v.Playlist == playlist {
			videos = append(videos, v)
		}
	}
	return videos
}

// ByName returns the first video called `name`, whatever its playlist.
func (cat *Catalog) ByName(name string) (Video, error) {
	for _, v := range cat.videos {
		if v.Name == name {
			return v, nil
		}
	}
	return Video{}, ErrNotFound
}

// ByDisplayName resolves a gradebook column of `playlist` to its video.
func (cat *Catalog) ByDisplayName(playlist, displayName string) (Video, error) {
	displayName = core.CleanString(displayName)
	for _, v := range cat.videos {
		if v.Playlist == playlist && v.DisplayName == displayName {
			return v, nil
		}
	}
	return Video{}, ErrNotFound
}

// Closest returns the display name of `playlist` that best matches `displayName`, or "".
func (cat *Catalog) Closest(playlist, displayName string) string {
	const cutoff = 0.6

	best, bestRatio := "", cutoff
	target := strings.Split(strings.ToLower(displayName), "")
	for _, v := range cat.InPlaylist(playlist) {
		candidate := strings.Split(strings.ToLower(v.DisplayName), "")
		if ratio := difflib.NewMatcher(target, candidate).Ratio(); ratio >= bestRatio {
			best, bestRatio = v.DisplayName, ratio
		}
	}
	return best
}

// Distinct returns the first video of each name.
func (cat *Catalog) Distinct() []Video {
	seen := make(map[string]bool)
	var videos []Video
	for _, v := range cat.videos {
		if !seen[v.Name] {
			seen[v.Name] = true
			videos = append(videos, v)
		}
	}
	return videos
}

// ToCollect returns the distinct videos whose view reports must be downloaded.
func (cat *Catalog) ToCollect() []Video {
	var videos []Video
	for _, v := range cat.Distinct() {
		if v.Collect {
			videos = append(videos, v)
		}
	}
	return videos
}

// Playlists returns the playlist names in catalog order.
func (cat *Catalog) Playlists() []string {
	seen := make(map[string]bool)
	var playlists []string
	for _, v := range cat.videos {
		if !seen[v.Playlist] {
			seen[v.Playlist] = true
			playlists = append(playlists, v.Playlist)
		}
	}
	return playlists
}

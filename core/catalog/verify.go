package catalog

import (
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/videograder/core"
)

// Verify reconciles videos that appear in several playlists under the same name.
// Missing lengths and links are filled in when the known ones agree; disagreeing
// values are a fatal ConfigError. `updated` reports whether anything was filled in.
func (cat *Catalog) Verify() (updated bool, err error) {
	groups := make(map[string][]int)
	for i, v := range cat.videos {
		groups[v.Name] = append(groups[v.Name], i)
	}

	for _, v := range cat.Distinct() {
		idxs := groups[v.Name]
		if len(idxs) < 2 {
			continue
		}

		length, lengthMissing, ok := agreedLength(cat.videos, idxs)
		if !ok {
			return updated, core.NewConfigError("", "video "+v.Name+" has different lengths in the video catalog", nil)
		}
		link, linkMissing, ok := agreedLink(cat.videos, idxs)
		if !ok {
			return updated, core.NewConfigError("", "video "+v.Name+" has different direct links in the video catalog", nil)
		}

		for _, i := range idxs {
			if lengthMissing && length.Valid && !cat.videos[i].Length.Valid {
				cat.videos[i].Length = length
				updated = true
			}
			if linkMissing && link != "" && cat.videos[i].DirectLink == "" {
				cat.videos[i].DirectLink = link
				cat.videos[i].PlatformID = PlatformIDFromLink(link)
				updated = true
			}
		}
	}
	return updated, nil
}

// agreedLength returns the single known length of the group, whether some are missing,
// and false when the known lengths disagree.
func agreedLength(videos []Video, idxs []int) (length null.Int, missing bool, ok bool) {
	for _, i := range idxs {
		l := videos[i].Length
		switch {
		case !l.Valid:
			missing = true
		case !length.Valid:
			length = l
		case length.Int != l.Int:
			return null.Int{}, missing, false
		}
	}
	return length, missing, true
}

func agreedLink(videos []Video, idxs []int) (link string, missing bool, ok bool) {
	for _, i := range idxs {
		l := core.CleanString(videos[i].DirectLink)
		switch {
		case l == "":
			missing = true
		case link == "":
			link = l
		case link != l:
			return "", missing, false
		}
	}
	return link, missing, true
}

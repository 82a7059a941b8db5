package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/videograder/core"
)

func testCatalog(t *testing.T, videos ...Video) *Catalog {
	cat, _ := New(videos)
	return cat
}

func TestPlatformIDFromLink(t *testing.T) {
	tests := []struct {
		name string
		link string
		want string
	}{
		{name: "v parameter", link: "https://example.yuja.com/V/Video?v=5010426&node=1", want: "5010426"},
		{name: "v not first", link: "https://example.yuja.com/V/Video?node=1&v=42", want: "42"},
		{name: "no query", link: "https://example.yuja.com/V/Video", want: ""},
		{name: "no v", link: "https://example.yuja.com/V/Video?node=1", want: ""},
		{name: "blank", link: "  ", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PlatformIDFromLink(tt.link))
		})
	}
}

func TestNew_warnsOnMissingID(t *testing.T) {
	_, log := New([]Video{
		{Playlist: "p1", Name: "Intro", DirectLink: "https://x/V/Video?v=1"},
		{Playlist: "p1", Name: "Limits", DirectLink: ""},
	})
	assert.Equal(t, core.StatusWarning, log.Status())
	require.Len(t, log.Lines(), 1)
	assert.Contains(t, log.Lines()[0], "Limits")
}

func TestCatalog_lookups(t *testing.T) {
	cat := testCatalog(t,
		Video{Playlist: "p1", Name: "Intro", DisplayName: "Video 1 Intro", Collect: true},
		Video{Playlist: "p1", Name: "Limits", DisplayName: "Video 2 Limits"},
		Video{Playlist: "p2", Name: "Intro", DisplayName: "V1 Intro", Collect: true},
		Video{Playlist: "p2", Name: "Sums", DisplayName: "V2 Sums", Collect: true},
	)

	assert.Equal(t, []string{"p1", "p2"}, cat.Playlists())

	p1 := cat.InPlaylist("p1")
	require.Len(t, p1, 2)
	assert.Equal(t, "Intro", p1[0].Name)
	assert.Equal(t, "Limits", p1[1].Name)
	assert.Empty(t, cat.InPlaylist("nope"))

	v, err := cat.ByDisplayName("p2", " V1 Intro ")
	require.NoError(t, err)
	assert.Equal(t, "Intro", v.Name)
	_, err = cat.ByDisplayName("p1", "V1 Intro")
	assert.Equal(t, ErrNotFound, err)

	v, err = cat.ByName("Intro")
	require.NoError(t, err)
	assert.Equal(t, "p1", v.Playlist)

	var names []string
	for _, v := range cat.Distinct() {
		names = append(names, v.Name)
	}
	assert.Equal(t, []string{"Intro", "Limits", "Sums"}, names)

	names = nil
	for _, v := range cat.ToCollect() {
		names = append(names, v.Name)
	}
	assert.Equal(t, []string{"Intro", "Sums"}, names)

	assert.Equal(t, "Video 2 Limits", cat.Closest("p1", "Video 2 Limit"))
	assert.Equal(t, "", cat.Closest("p1", "zzz"))
}

func TestCatalog_Verify(t *testing.T) {
	tests := []struct {
		name        string
		videos      []Video
		wantUpdated bool
		wantErr     bool
		wantLengths []null.Int
		wantLinks   []string
	}{
		{
			name: "single videos untouched",
			videos: []Video{
				{Playlist: "p1", Name: "A"},
				{Playlist: "p1", Name: "B", Length: null.IntFrom(60)},
			},
			wantLengths: []null.Int{{}, null.IntFrom(60)},
			wantLinks:   []string{"", ""},
		},
		{
			name: "missing length filled",
			videos: []Video{
				{Playlist: "p1", Name: "A", Length: null.IntFrom(300), DirectLink: "https://x?v=1"},
				{Playlist: "p2", Name: "A", DirectLink: "https://x?v=1"},
			},
			wantUpdated: true,
			wantLengths: []null.Int{null.IntFrom(300), null.IntFrom(300)},
			wantLinks:   []string{"https://x?v=1", "https://x?v=1"},
		},
		{
			name: "missing link filled",
			videos: []Video{
				{Playlist: "p1", Name: "A", Length: null.IntFrom(300)},
				{Playlist: "p2", Name: "A", Length: null.IntFrom(300), DirectLink: "https://x?v=9"},
			},
			wantUpdated: true,
			wantLengths: []null.Int{null.IntFrom(300), null.IntFrom(300)},
			wantLinks:   []string{"https://x?v=9", "https://x?v=9"},
		},
		{
			name: "conflicting lengths",
			videos: []Video{
				{Playlist: "p1", Name: "A", Length: null.IntFrom(300)},
				{Playlist: "p2", Name: "A", Length: null.IntFrom(301)},
			},
			wantErr: true,
		},
		{
			name: "conflicting links",
			videos: []Video{
				{Playlist: "p1", Name: "A", DirectLink: "https://x?v=1"},
				{Playlist: "p2", Name: "A", DirectLink: "https://x?v=2"},
			},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cat := testCatalog(t, tt.videos...)
			updated, err := cat.Verify()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Verify() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				assert.True(t, core.IsConfigError(err))
				return
			}
			assert.Equal(t, tt.wantUpdated, updated)
			for i, v := range cat.Videos() {
				assert.Equal(t, tt.wantLengths[i], v.Length, "length of video %d", i)
				assert.Equal(t, tt.wantLinks[i], v.DirectLink, "link of video %d", i)
			}
		})
	}
}

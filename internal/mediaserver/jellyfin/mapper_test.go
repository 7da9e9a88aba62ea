package jellyfin

import (
	"testing"

	"github.com/mmcdole/jellyshelf/internal/domain"
	"github.com/stretchr/testify/assert"
)

func intPtr(n int) *int { return &n }

func episode() Item {
	return Item{
		ID:                "ep1",
		Name:              "Pilot",
		Type:              "Episode",
		LocationType:      "FileSystem",
		SeriesID:          "ser1",
		SeriesName:        "Andor",
		SeasonID:          "sea1",
		ParentIndexNumber: 1,
		IndexNumber:       5,
		PremiereDate:      "2022-09-21T00:00:00.0000000Z",
		DateCreated:       "2023-01-02T10:11:12.1234567Z",
		RunTimeTicks:      2400 * ticksPerSecond,
		Etag:              "abc",
		UserData: &UserData{
			PlaybackPositionTicks: 600 * ticksPerSecond,
			IsFavorite:            true,
		},
	}
}

func TestTransformEpisodePrefix(t *testing.T) {
	tests := []struct {
		name    string
		season  bool
		episode bool
		want    string
	}{
		{"none", false, false, "Pilot"},
		{"season only", true, false, "S01 - Pilot"},
		{"episode only", false, true, "05 - Pilot"},
		{"both", true, true, "S01E05 - Pilot"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Transform(episode(), domain.ViewOptions{AddSeasonNumber: tt.season, AddEpisodeNumber: tt.episode})
			assert.Equal(t, tt.want, d.Name)
			assert.Equal(t, "Pilot", d.OriginalTitle)
		})
	}
}

func TestTransformNameFormat(t *testing.T) {
	opts := domain.ViewOptions{
		NameFormat:       "{SeriesName} S{SeasonIndex}E{EpisodeIndex} {ItemName} ",
		NameFormatType:   domain.ItemTypeEpisode,
		AddSeasonNumber:  true,
		AddEpisodeNumber: true,
	}
	d := Transform(episode(), opts)
	assert.Equal(t, "Andor S01E05 Pilot", d.Name)

	// Format only applies to the configured type
	movie := Item{ID: "m1", Name: "Alien", Type: "Movie"}
	assert.Equal(t, "Alien", Transform(movie, opts).Name)
}

func TestTransformDatesAndWatchState(t *testing.T) {
	d := Transform(episode(), domain.ViewOptions{})

	assert.Equal(t, domain.ItemTypeEpisode, d.Type)
	assert.Equal(t, 2022, d.Year)
	assert.Equal(t, "2022-09-21", d.PremiereDate)
	assert.Equal(t, "2023-01-02 10:11:12", d.DateAdded)
	assert.Equal(t, int64(2400), d.Duration)
	assert.Equal(t, int64(600), d.ResumeTime)
	assert.True(t, d.Favorite)
	assert.False(t, d.Played)
	assert.Equal(t, 0, d.PlayCount)
	assert.Equal(t, 1, d.SeasonNumber)
	assert.Equal(t, 5, d.EpisodeNumber)
	assert.Equal(t, "abc", d.Etag)
}

func TestTransformPlayedCount(t *testing.T) {
	raw := Item{ID: "m1", Name: "Alien", Type: "Movie", UserData: &UserData{Played: true}}
	assert.Equal(t, 1, Transform(raw, domain.ViewOptions{}).PlayCount)

	raw.UserData.PlayCount = 4
	d := Transform(raw, domain.ViewOptions{})
	assert.Equal(t, 4, d.PlayCount)
	assert.True(t, d.Played)
}

func TestTransformVirtualItem(t *testing.T) {
	raw := episode()
	raw.LocationType = "Virtual"
	raw.AirTime = "9:00 PM"
	d := Transform(raw, domain.ViewOptions{AddSeasonNumber: true, AddEpisodeNumber: true})
	assert.Equal(t, "S01E05 - Pilot - 2022-09-21 - 9:00 PM", d.Name)
}

func TestTransformContainerCounts(t *testing.T) {
	series := Item{
		ID:                 "s1",
		Name:               "Andor",
		Type:               "Series",
		IsFolder:           true,
		ChildCount:         2,
		RecursiveItemCount: 24,
		RunTimeTicks:       100 * ticksPerSecond,
		UserData:           &UserData{UnplayedItemCount: intPtr(20)},
	}
	d := Transform(series, domain.ViewOptions{})
	assert.Equal(t, 2, d.TotalSeasons)
	assert.Equal(t, 24, d.TotalEpisodes)
	assert.Equal(t, 20, d.UnwatchedEpisodes)
	assert.Equal(t, 4, d.WatchedEpisodes)
	assert.Equal(t, 20, d.RecursiveUnplayedItemsCount)
	assert.Equal(t, int64(0), d.Duration, "folders have no duration")

	// Unplayed count larger than the total never yields negative watched
	series.UserData.UnplayedItemCount = intPtr(30)
	d = Transform(series, domain.ViewOptions{})
	assert.Equal(t, 0, d.WatchedEpisodes)
	assert.GreaterOrEqual(t, d.TotalEpisodes, d.WatchedEpisodes)

	series.UserData.UnplayedItemCount = intPtr(-3)
	series.ChildCount = -1
	d = Transform(series, domain.ViewOptions{})
	assert.Equal(t, 0, d.UnwatchedEpisodes)
	assert.Equal(t, 0, d.TotalSeasons)
	assert.Equal(t, 24, d.WatchedEpisodes)
}

func TestTransformMissingOptionalFields(t *testing.T) {
	d := Transform(Item{ID: "x", Name: "Thing", Type: "LiveTvProgram"}, domain.ViewOptions{})
	assert.Equal(t, domain.ItemTypeUnknown, d.Type)
	assert.Zero(t, d.Year)
	assert.Empty(t, d.PremiereDate)
	assert.Empty(t, d.Art.Thumb)
	assert.Zero(t, d.PlayCount)
	assert.NoError(t, domain.ValidateItems([]domain.DisplayItem{d}))
}

func TestTransformStreams(t *testing.T) {
	raw := Item{
		ID:   "m1",
		Type: "Movie",
		MediaStreams: []MediaStream{
			{Type: "Video", Codec: "hevc", Width: 3840, Height: 2160, AspectRatio: "16:9"},
			{Type: "Audio", Codec: "eac3", Channels: 6},
			{Type: "Subtitle", Language: "eng"},
		},
		Studios: []NameID{{Name: "Lucasfilm"}, {Name: "Disney"}},
		Genres:  []string{"Drama", "Sci-Fi"},
	}
	d := Transform(raw, domain.ViewOptions{})
	assert.Equal(t, "HEVC", d.VideoCodec)
	assert.Equal(t, 3840, d.Width)
	assert.InDelta(t, 16.0/9.0, d.AspectRatio, 0.001)
	assert.Equal(t, "eac3", d.AudioCodec)
	assert.Equal(t, 6, d.Channels)
	assert.True(t, d.SubtitleAvailable)
	assert.Equal(t, "eng", d.SubtitleLanguage)
	assert.Equal(t, "Lucasfilm", d.Studio)
	assert.Equal(t, []string{"Drama", "Sci-Fi"}, d.Genres)

	raw.MediaStreams[0].AspectRatio = "wide"
	assert.InDelta(t, fallbackAspectRatio, Transform(raw, domain.ViewOptions{}).AspectRatio, 0.001)
}

func TestTransformArtwork(t *testing.T) {
	server := "http://jf:8096/"

	movie := Item{
		ID:                "m1",
		Type:              "Movie",
		ImageTags:         ImageTags{Primary: "p1", Logo: "l1"},
		BackdropImageTags: []string{"b1"},
	}
	art := Transform(movie, domain.ViewOptions{Server: server}).Art
	assert.Equal(t, "http://jf:8096/Items/m1/Images/Primary/0?Format=original&Tag=p1", art.Thumb)
	assert.Equal(t, art.Thumb, art.Poster)
	assert.Equal(t, "http://jf:8096/Items/m1/Images/Backdrop/0?Format=original&Tag=b1", art.Fanart)
	assert.Equal(t, art.Fanart, art.Landscape)
	assert.Equal(t, "http://jf:8096/Items/m1/Images/Logo/0?Format=original&Tag=l1", art.ClearLogo)
	assert.Empty(t, art.Banner)

	ep := episode()
	ep.SeriesPrimaryImageTag = "sp"
	ep.ParentThumbItemID = "ser1"
	ep.ParentThumbImageTag = "pt"
	ep.ParentBackdropItemID = "ser1"
	ep.ParentBackdropImageTags = []string{"pb"}
	art = Transform(ep, domain.ViewOptions{Server: server}).Art
	assert.Equal(t, "http://jf:8096/Items/ser1/Images/Thumb/0?Format=original&Tag=pt", art.Landscape)
	assert.Equal(t, art.Landscape, art.Thumb)
	assert.Equal(t, "http://jf:8096/Items/ser1/Images/Primary/0?Format=original&Tag=sp", art.TVShowPoster)
	assert.Equal(t, "http://jf:8096/Items/ser1/Images/Backdrop/0?Format=original&Tag=pb", art.Fanart)
	assert.Empty(t, art.Poster)
}

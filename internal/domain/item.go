package domain

import (
	"fmt"
	"time"
)

// ItemType is the Jellyfin item kind, kept as the server spells it
type ItemType string

const (
	ItemTypeMovie            ItemType = "Movie"
	ItemTypeSeries           ItemType = "Series"
	ItemTypeSeason           ItemType = "Season"
	ItemTypeEpisode          ItemType = "Episode"
	ItemTypeBoxSet           ItemType = "BoxSet"
	ItemTypeFolder           ItemType = "Folder"
	ItemTypeCollectionFolder ItemType = "CollectionFolder"
	ItemTypeUserView         ItemType = "UserView"
	ItemTypeMusicAlbum       ItemType = "MusicAlbum"
	ItemTypeMusicArtist      ItemType = "MusicArtist"
	ItemTypeAudio            ItemType = "Audio"
	ItemTypePlaylist         ItemType = "Playlist"
	ItemTypeVideo            ItemType = "Video"
	ItemTypeMusicVideo       ItemType = "MusicVideo"
	ItemTypeTvChannel        ItemType = "TvChannel"
	ItemTypeUnknown          ItemType = "Unknown"
)

var knownItemTypes = map[ItemType]struct{}{
	ItemTypeMovie: {}, ItemTypeSeries: {}, ItemTypeSeason: {}, ItemTypeEpisode: {},
	ItemTypeBoxSet: {}, ItemTypeFolder: {}, ItemTypeCollectionFolder: {}, ItemTypeUserView: {},
	ItemTypeMusicAlbum: {}, ItemTypeMusicArtist: {}, ItemTypeAudio: {}, ItemTypePlaylist: {},
	ItemTypeVideo: {}, ItemTypeMusicVideo: {}, ItemTypeTvChannel: {},
}

// ParseItemType maps a raw server type onto the fixed set, falling back to Unknown
func ParseItemType(raw string) ItemType {
	t := ItemType(raw)
	if _, ok := knownItemTypes[t]; ok {
		return t
	}
	return ItemTypeUnknown
}

// MediaType returns the lower-case media type used by list renderers
func (t ItemType) MediaType() string {
	switch t {
	case ItemTypeMovie, ItemTypeBoxSet:
		return "movie"
	case ItemTypeSeries:
		return "tvshow"
	case ItemTypeSeason:
		return "season"
	case ItemTypeEpisode:
		return "episode"
	case ItemTypeAudio:
		return "song"
	case ItemTypeMusicAlbum:
		return "album"
	case ItemTypeMusicArtist:
		return "artist"
	case ItemTypeMusicVideo:
		return "musicvideo"
	default:
		return "video"
	}
}

// ArtSet holds the artwork URLs for one item. Empty strings mean no artwork.
type ArtSet struct {
	Thumb        string `json:"thumb,omitempty"`
	Poster       string `json:"poster,omitempty"`
	Fanart       string `json:"fanart,omitempty"`
	Banner       string `json:"banner,omitempty"`
	ClearLogo    string `json:"clearlogo,omitempty"`
	ClearArt     string `json:"clearart,omitempty"`
	DiscArt      string `json:"discart,omitempty"`
	Landscape    string `json:"landscape,omitempty"`
	TVShowPoster string `json:"tvshow_poster,omitempty"`
}

// DisplayItem is one display-ready media entity
type DisplayItem struct {
	ID            string   `json:"id"`
	Type          ItemType `json:"type"`
	Name          string   `json:"name"`
	OriginalTitle string   `json:"original_title,omitempty"`
	SortName      string   `json:"sort_name,omitempty"`
	IsFolder      bool     `json:"is_folder"`

	// Linkage
	ParentID   string `json:"parent_id,omitempty"`
	SeriesID   string `json:"series_id,omitempty"`
	SeriesName string `json:"series_name,omitempty"`
	SeasonID   string `json:"season_id,omitempty"`

	// Watch state
	PlayCount  int   `json:"play_count"`
	Played     bool  `json:"played"`
	Favorite   bool  `json:"favorite"`
	ResumeTime int64 `json:"resume_time"` // seconds
	Duration   int64 `json:"duration"`    // seconds

	// Container counts
	TotalSeasons                int `json:"total_seasons"`
	TotalEpisodes               int `json:"total_episodes"`
	WatchedEpisodes             int `json:"watched_episodes"`
	UnwatchedEpisodes           int `json:"unwatched_episodes"`
	RecursiveItemCount          int `json:"recursive_item_count"`
	RecursiveUnplayedItemsCount int `json:"recursive_unplayed_items_count"`

	Etag string `json:"etag,omitempty"`
	Art  ArtSet `json:"art"`

	// Type-specific numbering (0 when not applicable)
	SeasonNumber  int `json:"season_number,omitempty"`
	EpisodeNumber int `json:"episode_number,omitempty"`
	TrackNumber   int `json:"track_number,omitempty"`
	DiscNumber    int `json:"disc_number,omitempty"`

	Year            int      `json:"year,omitempty"`
	PremiereDate    string   `json:"premiere_date,omitempty"` // YYYY-MM-DD
	DateAdded       string   `json:"date_added,omitempty"`    // YYYY-MM-DD HH:MM:SS
	Overview        string   `json:"overview,omitempty"`
	OfficialRating  string   `json:"official_rating,omitempty"`
	CommunityRating float64  `json:"community_rating,omitempty"`
	CriticRating    float64  `json:"critic_rating,omitempty"`
	Genres          []string `json:"genres,omitempty"`
	Studio          string   `json:"studio,omitempty"`

	// Stream info
	VideoCodec        string  `json:"video_codec,omitempty"`
	AudioCodec        string  `json:"audio_codec,omitempty"`
	Channels          int     `json:"channels,omitempty"`
	Width             int     `json:"width,omitempty"`
	Height            int     `json:"height,omitempty"`
	AspectRatio       float64 `json:"aspect_ratio,omitempty"`
	SubtitleAvailable bool    `json:"subtitle_available,omitempty"`
	SubtitleLanguage  string  `json:"subtitle_language,omitempty"`

	LocationType     string `json:"location_type,omitempty"`
	BaselineItemName string `json:"baseline_item_name,omitempty"`
}

// WatchStatus returns the watch status of the item
func (d DisplayItem) WatchStatus() WatchStatus {
	if d.IsFolder && d.TotalEpisodes > 0 {
		switch {
		case d.UnwatchedEpisodes == 0:
			return WatchStatusWatched
		case d.WatchedEpisodes > 0:
			return WatchStatusInProgress
		default:
			return WatchStatusUnwatched
		}
	}
	if d.Played {
		return WatchStatusWatched
	}
	if d.ResumeTime > 0 {
		return WatchStatusInProgress
	}
	return WatchStatusUnwatched
}

// ResumePercent returns watched progress as a 0-100 percentage
func (d DisplayItem) ResumePercent() int {
	if d.TotalEpisodes > 0 {
		return d.WatchedEpisodes * 100 / d.TotalEpisodes
	}
	if d.ResumeTime > 0 && d.Duration > 0 {
		return int(d.ResumeTime * 100 / d.Duration)
	}
	return 0
}

// EpisodeCode returns the formatted episode code (e.g., "S01E05")
func (d DisplayItem) EpisodeCode() string {
	if d.Type != ItemTypeEpisode {
		return ""
	}
	return fmt.Sprintf("S%02dE%02d", d.SeasonNumber, d.EpisodeNumber)
}

// FormattedDuration returns the duration in a human-readable format
func (d DisplayItem) FormattedDuration() string {
	if d.Duration <= 0 {
		return ""
	}
	dur := time.Duration(d.Duration) * time.Second
	h := int(dur.Hours())
	mins := int(dur.Minutes()) % 60
	if h > 0 {
		return fmt.Sprintf("%dh %dm", h, mins)
	}
	return fmt.Sprintf("%dm", mins)
}

// GetDescription returns secondary info shown next to the title
func (d *DisplayItem) GetDescription() string {
	switch {
	case d.Type == ItemTypeSeries && d.TotalSeasons > 0:
		if d.TotalSeasons == 1 {
			return "1 Season"
		}
		return fmt.Sprintf("%d Seasons", d.TotalSeasons)
	case d.IsFolder && d.TotalEpisodes > 0:
		return fmt.Sprintf("%d/%d watched", d.WatchedEpisodes, d.TotalEpisodes)
	case d.Type == ItemTypeEpisode:
		return d.EpisodeCode()
	case d.Year > 0:
		return fmt.Sprintf("%d", d.Year)
	default:
		return d.FormattedDuration()
	}
}

// WatchStatus represents the viewing state of media
type WatchStatus int

const (
	WatchStatusUnwatched WatchStatus = iota
	WatchStatusInProgress
	WatchStatusWatched
)

// String returns a human-readable representation of the watch status
func (w WatchStatus) String() string {
	switch w {
	case WatchStatusUnwatched:
		return "Unwatched"
	case WatchStatusInProgress:
		return "In Progress"
	case WatchStatusWatched:
		return "Watched"
	default:
		return "Unknown"
	}
}

package jellyfin

import "encoding/json"

// AuthResponse represents the response from Jellyfin's AuthenticateByName endpoint
type AuthResponse struct {
	User        User   `json:"User"`
	AccessToken string `json:"AccessToken"`
	ServerID    string `json:"ServerId"`
}

// User represents a Jellyfin user
type User struct {
	ID       string `json:"Id"`
	Name     string `json:"Name"`
	ServerID string `json:"ServerId"`
}

// ItemsResponse is the wrapper shape of a listing response
type ItemsResponse struct {
	Items            []Item `json:"Items"`
	TotalRecordCount *int   `json:"TotalRecordCount,omitempty"`
	StartIndex       int    `json:"StartIndex"`
	BaselineItemName string `json:"BaselineItemName,omitempty"`
}

// Item represents a media item from Jellyfin (movie, show, season, episode, etc.)
type Item struct {
	ID                 string        `json:"Id"`
	Name               string        `json:"Name"`
	OriginalTitle      string        `json:"OriginalTitle,omitempty"`
	SortName           string        `json:"SortName,omitempty"`
	Overview           string        `json:"Overview,omitempty"`
	Type               string        `json:"Type"`
	IsFolder           bool          `json:"IsFolder"`
	LocationType       string        `json:"LocationType,omitempty"` // "FileSystem", "Virtual", ...
	Etag               string        `json:"Etag,omitempty"`
	CollectionType     string        `json:"CollectionType,omitempty"`
	DateCreated        string        `json:"DateCreated,omitempty"`
	PremiereDate       string        `json:"PremiereDate,omitempty"`
	AirTime            string        `json:"AirTime,omitempty"`
	ProductionYear     int           `json:"ProductionYear,omitempty"`
	RunTimeTicks       int64         `json:"RunTimeTicks,omitempty"` // Duration in 100-nanosecond units
	CommunityRating    float64       `json:"CommunityRating,omitempty"`
	CriticRating       float64       `json:"CriticRating,omitempty"`
	OfficialRating     string        `json:"OfficialRating,omitempty"`
	Genres             []string      `json:"Genres,omitempty"`
	Studios            []NameID      `json:"Studios,omitempty"`
	People             []Person      `json:"People,omitempty"`
	ImageTags          ImageTags     `json:"ImageTags,omitempty"`
	BackdropImageTags  []string      `json:"BackdropImageTags,omitempty"`
	ParentID           string        `json:"ParentId,omitempty"`
	SeriesID           string        `json:"SeriesId,omitempty"`
	SeriesName         string        `json:"SeriesName,omitempty"`
	SeasonID           string        `json:"SeasonId,omitempty"`
	ParentIndexNumber  int           `json:"ParentIndexNumber,omitempty"` // Season number for episodes, disc for tracks
	IndexNumber        int           `json:"IndexNumber,omitempty"`       // Episode, season or track number
	ChildCount         int           `json:"ChildCount,omitempty"`
	RecursiveItemCount int           `json:"RecursiveItemCount,omitempty"`
	UserData           *UserData     `json:"UserData,omitempty"`
	MediaStreams       []MediaStream `json:"MediaStreams,omitempty"`
	MediaSources       []MediaSource `json:"MediaSources,omitempty"`

	// Parent artwork, used by episodes and seasons when they have none of their own
	SeriesPrimaryImageTag   string   `json:"SeriesPrimaryImageTag,omitempty"`
	ParentThumbItemID       string   `json:"ParentThumbItemId,omitempty"`
	ParentThumbImageTag     string   `json:"ParentThumbImageTag,omitempty"`
	ParentBackdropItemID    string   `json:"ParentBackdropItemId,omitempty"`
	ParentBackdropImageTags []string `json:"ParentBackdropImageTags,omitempty"`
	ParentLogoItemID        string   `json:"ParentLogoItemId,omitempty"`
	ParentLogoImageTag      string   `json:"ParentLogoImageTag,omitempty"`
}

// ImageTags contains image tag IDs for various image types
type ImageTags struct {
	Primary string `json:"Primary,omitempty"`
	Thumb   string `json:"Thumb,omitempty"`
	Banner  string `json:"Banner,omitempty"`
	Logo    string `json:"Logo,omitempty"`
	Art     string `json:"Art,omitempty"`
	Disc    string `json:"Disc,omitempty"`
}

// UserData contains user-specific data for an item (watch status, progress)
type UserData struct {
	PlaybackPositionTicks int64 `json:"PlaybackPositionTicks"` // Progress in 100-nanosecond units
	PlayCount             int   `json:"PlayCount"`
	IsFavorite            bool  `json:"IsFavorite"`
	Played                bool  `json:"Played"`
	UnplayedItemCount     *int  `json:"UnplayedItemCount,omitempty"` // For containers like shows/seasons
}

// NameID is the {Name, Id} pair Jellyfin uses for studios and genres
type NameID struct {
	Name string `json:"Name"`
	ID   string `json:"Id,omitempty"`
}

// Person is a cast or crew member
type Person struct {
	Name string `json:"Name"`
	ID   string `json:"Id"`
	Role string `json:"Role,omitempty"`
	Type string `json:"Type"`
}

// MediaSource represents a media source (file) for an item
type MediaSource struct {
	ID           string        `json:"Id"`
	Container    string        `json:"Container"`
	Size         int64         `json:"Size"`
	RunTimeTicks int64         `json:"RunTimeTicks"`
	MediaStreams []MediaStream `json:"MediaStreams,omitempty"`
}

// MediaStream represents a video, audio, or subtitle stream
type MediaStream struct {
	Codec       string `json:"Codec"`
	Language    string `json:"Language,omitempty"`
	Type        string `json:"Type"` // "Video", "Audio", "Subtitle"
	Index       int    `json:"Index"`
	Height      int    `json:"Height,omitempty"`
	Width       int    `json:"Width,omitempty"`
	Channels    int    `json:"Channels,omitempty"`
	AspectRatio string `json:"AspectRatio,omitempty"`
}

// rawItem keeps the Id presence check separate from the typed decode
type rawItem struct {
	ID *string `json:"Id"`
}

// isWrapper reports whether a JSON object looks like an ItemsResponse
func isWrapper(obj map[string]json.RawMessage) bool {
	_, hasItems := obj["Items"]
	return hasItems
}

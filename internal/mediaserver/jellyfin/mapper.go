package jellyfin

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mmcdole/jellyshelf/internal/domain"
)

const (
	// Jellyfin uses 100-nanosecond ticks
	ticksPerSecond = 10000000

	// Used when a video stream carries an aspect ratio we cannot parse
	fallbackAspectRatio = 1.85
)

// Transform converts one raw Jellyfin item into a display-ready item.
// It is pure: the same input and options always produce the same output.
func Transform(raw Item, opts domain.ViewOptions) domain.DisplayItem {
	d := domain.DisplayItem{
		ID:              raw.ID,
		Type:            domain.ParseItemType(raw.Type),
		Name:            raw.Name,
		OriginalTitle:   raw.OriginalTitle,
		SortName:        raw.SortName,
		IsFolder:        raw.IsFolder,
		ParentID:        raw.ParentID,
		SeriesID:        raw.SeriesID,
		SeriesName:      raw.SeriesName,
		SeasonID:        raw.SeasonID,
		Etag:            raw.Etag,
		Overview:        raw.Overview,
		OfficialRating:  raw.OfficialRating,
		CommunityRating: raw.CommunityRating,
		CriticRating:    raw.CriticRating,
		LocationType:    raw.LocationType,
	}
	if d.OriginalTitle == "" {
		d.OriginalTitle = raw.Name
	}

	switch d.Type {
	case domain.ItemTypeEpisode:
		d.SeasonNumber = raw.ParentIndexNumber
		d.EpisodeNumber = raw.IndexNumber
	case domain.ItemTypeSeason:
		d.SeasonNumber = raw.IndexNumber
	case domain.ItemTypeAudio:
		d.TrackNumber = raw.IndexNumber
		d.DiscNumber = raw.ParentIndexNumber
	}

	d.Name = displayName(raw, d, opts)

	d.Year = raw.ProductionYear
	if raw.PremiereDate != "" {
		d.PremiereDate, _, _ = strings.Cut(raw.PremiereDate, "T")
		if d.Year == 0 && len(raw.PremiereDate) >= 4 {
			if y, err := strconv.Atoi(raw.PremiereDate[:4]); err == nil {
				d.Year = y
			}
		}
	}
	if raw.DateCreated != "" {
		d.DateAdded = formatDateAdded(raw.DateCreated)
	}

	// Upcoming episodes carry their air date in the name
	if raw.LocationType == "Virtual" {
		d.Name = fmt.Sprintf("%s - %s - %s", d.Name, d.PremiereDate, raw.AirTime)
	}

	if !raw.IsFolder && raw.RunTimeTicks > 0 {
		d.Duration = raw.RunTimeTicks / ticksPerSecond
	}

	applyStreams(&d, raw)
	applyUserData(&d, raw)

	if len(raw.Genres) > 0 {
		d.Genres = append([]string(nil), raw.Genres...)
	}
	if len(raw.Studios) > 0 {
		d.Studio = raw.Studios[0].Name
	}

	d.Art = buildArt(raw, opts.Server)
	return d
}

// TransformAll converts a page of raw items, preserving order
func TransformAll(raw []Item, opts domain.ViewOptions) []domain.DisplayItem {
	items := make([]domain.DisplayItem, 0, len(raw))
	for i := range raw {
		items = append(items, Transform(raw[i], opts))
	}
	return items
}

func displayName(raw Item, d domain.DisplayItem, opts domain.ViewOptions) string {
	if opts.NameFormat != "" && d.Type == opts.NameFormatType {
		r := strings.NewReplacer(
			"{ItemName}", raw.Name,
			"{SeriesName}", raw.SeriesName,
			"{SeasonIndex}", fmt.Sprintf("%02d", d.SeasonNumber),
			"{EpisodeIndex}", fmt.Sprintf("%02d", d.EpisodeNumber),
		)
		return strings.TrimSpace(r.Replace(opts.NameFormat))
	}

	if d.Type != domain.ItemTypeEpisode {
		return raw.Name
	}

	var prefix string
	if opts.AddSeasonNumber {
		prefix = fmt.Sprintf("S%02d", d.SeasonNumber)
		if opts.AddEpisodeNumber {
			prefix += "E"
		}
	}
	if opts.AddEpisodeNumber {
		prefix += fmt.Sprintf("%02d", d.EpisodeNumber)
	}
	if prefix == "" {
		return raw.Name
	}
	return prefix + " - " + raw.Name
}

// formatDateAdded turns "2024-01-02T10:11:12.1234567Z" into "2024-01-02 10:11:12"
func formatDateAdded(created string) string {
	s, _, _ := strings.Cut(created, ".")
	s = strings.TrimSuffix(s, "Z")
	return strings.Replace(s, "T", " ", 1)
}

func applyUserData(d *domain.DisplayItem, raw Item) {
	d.TotalSeasons = max(raw.ChildCount, 0)
	d.TotalEpisodes = max(raw.RecursiveItemCount, 0)
	d.RecursiveItemCount = max(raw.RecursiveItemCount, 0)

	ud := raw.UserData
	if ud == nil {
		return
	}

	if ud.Played {
		d.Played = true
		d.PlayCount = max(ud.PlayCount, 1)
	}
	d.Favorite = ud.IsFavorite
	if ud.PlaybackPositionTicks > 0 {
		d.ResumeTime = ud.PlaybackPositionTicks / ticksPerSecond
	}

	if ud.UnplayedItemCount != nil {
		unwatched := max(*ud.UnplayedItemCount, 0)
		d.UnwatchedEpisodes = unwatched
		d.RecursiveUnplayedItemsCount = unwatched
		d.WatchedEpisodes = max(d.TotalEpisodes-unwatched, 0)
	}
	if d.TotalEpisodes < d.WatchedEpisodes {
		d.TotalEpisodes = d.WatchedEpisodes
	}
}

func applyStreams(d *domain.DisplayItem, raw Item) {
	streams := raw.MediaStreams
	if len(streams) == 0 && len(raw.MediaSources) > 0 {
		streams = raw.MediaSources[0].MediaStreams
	}

	for _, stream := range streams {
		switch stream.Type {
		case "Video":
			d.VideoCodec = normalizeCodec(stream.Codec)
			d.Width = stream.Width
			d.Height = stream.Height
			if len(stream.AspectRatio) >= 3 {
				d.AspectRatio = parseAspectRatio(stream.AspectRatio)
			}
		case "Audio":
			d.AudioCodec = stream.Codec
			d.Channels = stream.Channels
		case "Subtitle":
			d.SubtitleAvailable = true
			if stream.Language != "" {
				d.SubtitleLanguage = stream.Language
			}
		}
	}
}

func parseAspectRatio(ratio string) float64 {
	w, h, ok := strings.Cut(ratio, ":")
	if !ok {
		return fallbackAspectRatio
	}
	wf, err1 := strconv.ParseFloat(w, 64)
	hf, err2 := strconv.ParseFloat(h, 64)
	if err1 != nil || err2 != nil || hf == 0 {
		return fallbackAspectRatio
	}
	return wf / hf
}

// normalizeCodec converts codec names to display format
func normalizeCodec(codec string) string {
	switch strings.ToLower(codec) {
	case "hevc", "h265":
		return "HEVC"
	case "h264", "avc":
		return "H.264"
	case "mpeg4":
		return "MPEG4"
	case "vc1":
		return "VC-1"
	case "vp9":
		return "VP9"
	case "av1":
		return "AV1"
	default:
		return strings.ToUpper(codec)
	}
}

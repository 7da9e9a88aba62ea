package jellyfin

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/mmcdole/jellyshelf/internal/domain"
)

// ImageURL builds the URL of one artwork image. An empty tag means the
// image does not exist and yields "".
func ImageURL(server, itemID, imageType string, index int, tag string) string {
	if itemID == "" || tag == "" {
		return ""
	}
	return fmt.Sprintf("%s/Items/%s/Images/%s/%d?Format=original&Tag=%s",
		strings.TrimRight(server, "/"), itemID, imageType, index, url.QueryEscape(tag))
}

// artwork resolves one image type for the item itself or, with parent set,
// for the series/parent the server linked it to
func artwork(raw Item, server, imageType string, parent bool) string {
	if parent {
		switch imageType {
		case "Primary":
			return ImageURL(server, raw.SeriesID, "Primary", 0, raw.SeriesPrimaryImageTag)
		case "Thumb":
			return ImageURL(server, raw.ParentThumbItemID, "Thumb", 0, raw.ParentThumbImageTag)
		case "Backdrop":
			if len(raw.ParentBackdropImageTags) > 0 {
				return ImageURL(server, raw.ParentBackdropItemID, "Backdrop", 0, raw.ParentBackdropImageTags[0])
			}
		case "Logo":
			return ImageURL(server, raw.ParentLogoItemID, "Logo", 0, raw.ParentLogoImageTag)
		}
		return ""
	}

	switch imageType {
	case "Primary":
		return ImageURL(server, raw.ID, imageType, 0, raw.ImageTags.Primary)
	case "Thumb":
		return ImageURL(server, raw.ID, imageType, 0, raw.ImageTags.Thumb)
	case "Banner":
		return ImageURL(server, raw.ID, imageType, 0, raw.ImageTags.Banner)
	case "Logo":
		return ImageURL(server, raw.ID, imageType, 0, raw.ImageTags.Logo)
	case "Art":
		return ImageURL(server, raw.ID, imageType, 0, raw.ImageTags.Art)
	case "Disc":
		return ImageURL(server, raw.ID, imageType, 0, raw.ImageTags.Disc)
	case "Backdrop":
		if len(raw.BackdropImageTags) > 0 {
			return ImageURL(server, raw.ID, imageType, 0, raw.BackdropImageTags[0])
		}
	}
	return ""
}

func buildArt(raw Item, server string) domain.ArtSet {
	var art domain.ArtSet
	art.Thumb = artwork(raw, server, "Primary", false)

	switch raw.Type {
	case string(domain.ItemTypeEpisode):
		if art.Thumb == "" {
			art.Thumb = artwork(raw, server, "Thumb", false)
		}
		art.Landscape = art.Thumb
		if art.Landscape == "" {
			art.Landscape = artwork(raw, server, "Thumb", true)
		}
		art.TVShowPoster = artwork(raw, server, "Primary", true)
	case string(domain.ItemTypeSeason):
		art.Poster = art.Thumb
		if art.Poster == "" {
			art.Poster = artwork(raw, server, "Primary", true)
		}
		art.TVShowPoster = artwork(raw, server, "Primary", true)
	default:
		art.Poster = art.Thumb
	}

	art.Fanart = artwork(raw, server, "Backdrop", false)
	if art.Fanart == "" {
		art.Fanart = artwork(raw, server, "Backdrop", true)
	}

	if art.Landscape == "" {
		art.Landscape = artwork(raw, server, "Thumb", false)
		if art.Landscape == "" {
			art.Landscape = art.Fanart
		}
	}
	if art.Thumb == "" {
		art.Thumb = art.Landscape
	}

	art.Banner = artwork(raw, server, "Banner", false)
	art.ClearLogo = artwork(raw, server, "Logo", false)
	if art.ClearLogo == "" {
		art.ClearLogo = artwork(raw, server, "Logo", true)
	}
	art.ClearArt = artwork(raw, server, "Art", false)
	art.DiscArt = artwork(raw, server, "Disc", false)
	return art
}

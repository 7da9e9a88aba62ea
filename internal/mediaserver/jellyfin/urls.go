package jellyfin

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// listFields is the field set every listing asks for so that the
// transformer and fingerprint have what they need
const listFields = "DateCreated,Etag,Genres,Studios,SortName,RecursiveItemCount,ChildCount," +
	"CriticRating,OfficialRating,CommunityRating,PremiereDate,ProductionYear,AirTime," +
	"MediaStreams,Overview,OriginalTitle"

func listURL(server, path string, query url.Values) string {
	query.Set("Fields", listFields)
	query.Set("ImageTypeLimit", "1")
	query.Set("format", "json")
	// Encode sorts keys, so the same listing always yields the same URL
	return strings.TrimRight(server, "/") + path + "?" + query.Encode()
}

// ViewsURL lists the user's top-level libraries
func ViewsURL(server, userID string) string {
	return listURL(server, fmt.Sprintf("/Users/%s/Views", userID), url.Values{})
}

// ChildrenURL lists the direct children of a folder, series or season
func ChildrenURL(server, userID, parentID string) string {
	q := url.Values{}
	q.Set("ParentId", parentID)
	q.Set("IsMissing", "false")
	q.Set("SortBy", "SortName")
	q.Set("SortOrder", "Ascending")
	return listURL(server, fmt.Sprintf("/Users/%s/Items", userID), q)
}

// ResumeURL lists partially watched videos
func ResumeURL(server, userID string, limit int) string {
	q := url.Values{}
	q.Set("MediaTypes", "Video")
	q.Set("Recursive", "true")
	if limit > 0 {
		q.Set("Limit", strconv.Itoa(limit))
	}
	return listURL(server, fmt.Sprintf("/Users/%s/Items/Resume", userID), q)
}

// LatestURL lists recently added, unwatched items. The server answers with a bare array.
func LatestURL(server, userID string, limit int) string {
	q := url.Values{}
	q.Set("IsPlayed", "false")
	q.Set("GroupItems", "true")
	if limit > 0 {
		q.Set("Limit", strconv.Itoa(limit))
	}
	return listURL(server, fmt.Sprintf("/Users/%s/Items/Latest", userID), q)
}

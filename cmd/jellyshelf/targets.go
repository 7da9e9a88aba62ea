package main

import (
	"strconv"
	"strings"

	"github.com/mmcdole/jellyshelf/internal/domain"
	"github.com/mmcdole/jellyshelf/internal/mediaserver/jellyfin"
)

const shelfLimit = 50

// resolveTarget maps a command argument to a listing URL and a title.
// Accepted forms: empty (last viewed listing, else the libraries), one of
// the named shelves, a full listing URL, or a folder item id.
func resolveTarget(rt *runtime, arg string) (string, string) {
	server, userID := rt.client.BaseURL(), rt.client.UserID()
	arg = strings.TrimSpace(arg)

	switch strings.ToLower(arg) {
	case "":
		if last, ok := rt.manager.LastURL(); ok {
			return last, "Last viewed"
		}
		return jellyfin.ViewsURL(server, userID), "Libraries"
	case "views", "libraries", "home":
		return jellyfin.ViewsURL(server, userID), "Libraries"
	case "resume", "continue":
		return jellyfin.ResumeURL(server, userID, shelfLimit), "Continue Watching"
	case "latest", "new":
		return jellyfin.LatestURL(server, userID, shelfLimit), "Latest"
	}

	if strings.HasPrefix(arg, "http://") || strings.HasPrefix(arg, "https://") {
		return arg, arg
	}
	return jellyfin.ChildrenURL(server, userID, arg), arg
}

func itemRow(d domain.DisplayItem) []string {
	name := d.Name
	if d.Favorite {
		name += " ♥"
	}
	year := ""
	if d.Year > 0 {
		year = strconv.Itoa(d.Year)
	}
	status := d.WatchStatus().String()
	if d.WatchStatus() == domain.WatchStatusInProgress {
		status += " (" + strconv.Itoa(d.ResumePercent()) + "%)"
	}
	return []string{
		d.ID,
		name,
		d.Type.MediaType(),
		year,
		status,
		d.FormattedDuration(),
	}
}

var itemHeaders = []string{"ID", "Name", "Type", "Year", "Status", "Runtime"}

var itemAligns = []columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft, alignRight}

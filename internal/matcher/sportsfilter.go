package matcher

import (
	"strings"

	"github.com/northernpowerhouse/teamarr/internal/detection"
)

// IsSportsChannel reports whether a raw M3U channel's group-title or name
// suggests a sports channel, checked against the sport-hint and
// league-hint keyword categories before the channel is handed to the
// event matcher at all.
func IsSportsChannel(det *detection.Service, ch RawChannel) bool {
	groupLower := strings.ToLower(ch.GroupTitle)
	nameLower := strings.ToLower(ch.Name)

	for _, text := range []string{groupLower, nameLower} {
		if _, ok := det.Match(detection.CategorySportHint, text); ok {
			return true
		}
		if _, ok := det.Match(detection.CategoryLeagueHint, text); ok {
			return true
		}
	}
	return false
}

package template

import (
	"strings"

	"github.com/northernpowerhouse/teamarr/internal/model"
)

// knownSubscriptionPackages are skipped entirely when deriving broadcast
// variables, the same way radio outlets are skipped — these are add-on
// packages (not standalone viewing options) that would otherwise clutter
// broadcast_simple.
var knownSubscriptionPackages = map[string]bool{
	"nfl sunday ticket": true,
	"mls season pass":   true,
	"nba league pass":   true,
}

// derivedBroadcast is the set of broadcast-related template values.
type derivedBroadcast struct {
	Simple          string
	Network         string
	NationalNetwork string
	IsNational      bool
}

// deriveBroadcast partitions an event's broadcasts into (national TV,
// national streaming, team TV, team streaming, other TV, other
// streaming), skipping radio and subscription packages, per spec §4.6.
func deriveBroadcast(broadcasts []model.Broadcast) derivedBroadcast {
	var nationalTV, nationalStreaming, teamTV, teamStreaming, otherTV, otherStreaming []string

	for _, b := range broadcasts {
		if b.Type == "radio" || knownSubscriptionPackages[strings.ToLower(b.Network)] {
			continue
		}
		switch b.Scope {
		case "national":
			if b.Type == "streaming" {
				nationalStreaming = append(nationalStreaming, b.Network)
			} else {
				nationalTV = append(nationalTV, b.Network)
			}
		case "team":
			if b.Type == "streaming" {
				teamStreaming = append(teamStreaming, b.Network)
			} else {
				teamTV = append(teamTV, b.Network)
			}
		default:
			if b.Type == "streaming" {
				otherStreaming = append(otherStreaming, b.Network)
			} else {
				otherTV = append(otherTV, b.Network)
			}
		}
	}

	ordered := dedupJoin(nationalTV, nationalStreaming, teamTV, teamStreaming, otherTV, otherStreaming)
	national := dedupJoin(nationalTV, nationalStreaming)

	network := ""
	switch {
	case len(nationalTV) > 0:
		network = nationalTV[0]
	case len(nationalStreaming) > 0:
		network = nationalStreaming[0]
	case len(teamTV) > 0:
		network = teamTV[0]
	case len(teamStreaming) > 0:
		network = teamStreaming[0]
	case len(otherTV) > 0:
		network = otherTV[0]
	case len(otherStreaming) > 0:
		network = otherStreaming[0]
	}

	return derivedBroadcast{
		Simple:          strings.Join(ordered, ", "),
		Network:         network,
		NationalNetwork: strings.Join(national, ", "),
		IsNational:      len(nationalTV) > 0 || len(nationalStreaming) > 0,
	}
}

// dedupJoin concatenates groups in order, dropping later duplicates.
func dedupJoin(groups ...[]string) []string {
	seen := map[string]bool{}
	var out []string
	for _, g := range groups {
		for _, name := range g {
			if name == "" || seen[name] {
				continue
			}
			seen[name] = true
			out = append(out, name)
		}
	}
	return out
}

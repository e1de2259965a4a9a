// Package lifecycle implements the channel lifecycle manager (component
// K, spec §4.5.2/§4.5.3): channel-number assignment, external-occupation
// exclusion, global reassignment, keyword-variant ordering enforcement,
// and the create/delete timing decisions driven by a cron scheduler. The
// package has no sweep that moves streams between main and variant
// channels by keyword; streams are placed on variants when
// internal/eventgroup clusters them. Grounded on the teacher's channel-fleet
// management in `services/channel`, adapted from IPTV subscription
// channel bookkeeping to sports-event-scoped managed channels.
package lifecycle

import (
	"sort"

	"github.com/northernpowerhouse/teamarr/internal/config"
	"github.com/northernpowerhouse/teamarr/internal/eventgroup"
)

// AssignableChannel is one plan awaiting a channel number.
type AssignableChannel struct {
	Plan          eventgroup.Plan
	GroupPriority int // sport/league priority for sort_by=sport_league_time
	ExistingNumber float64
	HasNumber     bool
}

// Assignment is the resolved channel number for one plan.
type Assignment struct {
	Plan   eventgroup.Plan
	Number float64
}

// ExternalOccupied computes the set of channel numbers occupied by
// channels Teamarr does not manage: dispatcharr_numbers minus
// teamarr_managed_numbers. An empty (or absent) integration is
// equivalent to no external occupation.
func ExternalOccupied(dispatcharrNumbers, teamarrManagedNumbers []float64) map[float64]bool {
	managed := map[float64]bool{}
	for _, n := range teamarrManagedNumbers {
		managed[n] = true
	}
	occupied := map[float64]bool{}
	for _, n := range dispatcharrNumbers {
		if !managed[n] {
			occupied[n] = true
		}
	}
	return occupied
}

// AssignNumbers assigns channel numbers to channels using the configured
// numbering mode, skipping externally occupied numbers.
func AssignNumbers(channels []AssignableChannel, settings config.Settings, external map[float64]bool) []Assignment {
	switch settings.NumberingMode {
	case config.NumberingRationalBlock:
		return assignRationalBlock(channels, settings, external)
	case config.NumberingStrictCompact:
		return assignStrictCompact(channels, settings, external)
	default:
		return assignStrictBlock(channels, settings, external)
	}
}

// assignStrictBlock gives each AUTO group a dense block starting at
// channel_start_number, skipping occupied numbers within the block.
func assignStrictBlock(channels []AssignableChannel, settings config.Settings, external map[float64]bool) []Assignment {
	sorted := sortedCopy(channels, settings)
	out := make([]Assignment, 0, len(sorted))
	next := float64(settings.ChannelStartNumber)
	for _, c := range sorted {
		next = nextFree(next, external)
		out = append(out, Assignment{Plan: c.Plan, Number: next})
		next++
	}
	return out
}

// assignRationalBlock reserves per-group blocks with stable gaps (100
// slots per distinct league, so later insertions within a league don't
// require renumbering the next league's block).
func assignRationalBlock(channels []AssignableChannel, settings config.Settings, external map[float64]bool) []Assignment {
	const blockSize = 100
	sorted := sortedCopy(channels, settings)

	blockStart := map[int]float64{}
	blockCursor := map[int]float64{}
	base := float64(settings.ChannelStartNumber)

	out := make([]Assignment, 0, len(sorted))
	for _, c := range sorted {
		start, ok := blockStart[c.GroupPriority]
		if !ok {
			start = base + float64(len(blockStart))*blockSize
			blockStart[c.GroupPriority] = start
			blockCursor[c.GroupPriority] = start
		}
		cursor := nextFree(blockCursor[c.GroupPriority], external)
		out = append(out, Assignment{Plan: c.Plan, Number: cursor})
		blockCursor[c.GroupPriority] = cursor + 1
	}
	return out
}

// assignStrictCompact packs a single global sequence from
// channel_range_start, densely, skipping externals.
func assignStrictCompact(channels []AssignableChannel, settings config.Settings, external map[float64]bool) []Assignment {
	sorted := sortedCopy(channels, settings)
	out := make([]Assignment, 0, len(sorted))
	next := float64(settings.ChannelRangeStart)
	for _, c := range sorted {
		next = nextFree(next, external)
		out = append(out, Assignment{Plan: c.Plan, Number: next})
		next++
	}
	return out
}

func nextFree(n float64, external map[float64]bool) float64 {
	for external[n] {
		n++
	}
	return n
}

// sortedCopy orders channels per sort_by, keyword-variant channels always
// sorting after their main channel for the same event (the keyword-
// variant ordering invariant from spec §4.5.2).
func sortedCopy(channels []AssignableChannel, settings config.Settings) []AssignableChannel {
	out := append([]AssignableChannel{}, channels...)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Plan.Event.ID == b.Plan.Event.ID {
			return a.Plan.ExceptionKeyword == "" && b.Plan.ExceptionKeyword != ""
		}
		switch settings.SortBy {
		case config.SortByTime:
			return a.Plan.Event.StartTime.Before(b.Plan.Event.StartTime)
		case config.SortByStreamOrder:
			return false // stable: preserves caller-provided order
		default: // sport_league_time
			if a.GroupPriority != b.GroupPriority {
				return a.GroupPriority < b.GroupPriority
			}
			return a.Plan.Event.StartTime.Before(b.Plan.Event.StartTime)
		}
	})
	return out
}

// GlobalReassign recomputes every AUTO channel's number from scratch,
// sorted by configured sport/league priority, starting at
// channel_range_start — the optional, destructive global reassignment.
func GlobalReassign(channels []AssignableChannel, settings config.Settings, external map[float64]bool) []Assignment {
	settings.ChannelStartNumber = settings.ChannelRangeStart
	settings.SortBy = config.SortBySportLeagueTime
	return assignStrictCompact(channels, settings, external)
}

// EnforceKeywordOrdering scans assignments for a main channel whose
// number is not lower than one of its own exception-keyword variants and
// swaps the pair, so callers can apply the swap identically to
// persistence and the downstream manager inside one critical section.
func EnforceKeywordOrdering(assignments []Assignment) []Assignment {
	byEvent := map[string][]int{}
	for i, a := range assignments {
		byEvent[a.Plan.Event.ID] = append(byEvent[a.Plan.Event.ID], i)
	}

	out := append([]Assignment{}, assignments...)
	for _, idxs := range byEvent {
		var mainIdx = -1
		for _, i := range idxs {
			if out[i].Plan.ExceptionKeyword == "" {
				mainIdx = i
				break
			}
		}
		if mainIdx == -1 {
			continue
		}
		for _, i := range idxs {
			if i == mainIdx || out[i].Plan.ExceptionKeyword == "" {
				continue
			}
			if out[i].Number < out[mainIdx].Number {
				out[i].Number, out[mainIdx].Number = out[mainIdx].Number, out[i].Number
			}
		}
	}
	return out
}

package matcher

import (
	"strings"
	"time"

	"github.com/northernpowerhouse/teamarr/internal/detection"
	"github.com/northernpowerhouse/teamarr/internal/model"
	"github.com/northernpowerhouse/teamarr/pkg/stringsim"
)

// BothTeamsThreshold is the minimum combined fuzzy-match score (0-100) for
// a team-vs-team match to be accepted.
const BothTeamsThreshold = 60.0

// Method identifies which matching step produced a result.
type Method string

const (
	MethodExactAbbrev Method = "exact_abbrev"
	MethodFuzzyName   Method = "fuzzy_name"
	MethodAlias       Method = "alias"
	MethodEventCard   Method = "event_card"
)

// Result is the output of a successful match: the event, how it was
// matched, the confidence score, and any supporting metadata.
type Result struct {
	Event    model.Event
	Method   Method
	Score    float64
	Metadata map[string]string
}

// Matcher matches IPTV stream names to candidate events.
type Matcher struct {
	det     *detection.Service
	aliases map[string]string // normalized alias -> canonical team name
}

// New constructs a Matcher backed by a detection keyword service and a
// user-maintained alias table (normalized keys).
func New(det *detection.Service, aliases map[string]string) *Matcher {
	if aliases == nil {
		aliases = map[string]string{}
	}
	return &Matcher{det: det, aliases: aliases}
}

// CandidateLeagues resolves a group's effective search scope, applying
// inherited-scope/single-mode/multi-mode rules from the group config.
func CandidateLeagues(group model.EventGroup) []string {
	return group.EffectiveLeagues()
}

// Match classifies a stream name and attempts to resolve it to one of the
// candidate events, already filtered to the group's league scope and to
// the active calendar day. Returns ok=false for placeholders, exclusions,
// and anything below the acceptance threshold — borderline scores are
// never surfaced.
func (m *Matcher) Match(streamName string, candidates []model.Event, group model.EventGroup, activeDay time.Time, olympicsStart time.Time) (Result, bool) {
	normalized := Normalize(streamName)

	if t, ok := ExtractDateToken(normalized, olympicsStart); ok {
		if !sameDay(t, activeDay) {
			return Result{}, false
		}
	}

	class := Classify(m.det, normalized)
	switch class {
	case ClassPlaceholder, ClassExcluded:
		return Result{}, false
	}

	scoped := make([]model.Event, 0, len(candidates))
	for _, ev := range candidates {
		if !group.InScope(ev.League) {
			continue
		}
		scoped = append(scoped, ev)
	}
	if len(scoped) == 0 {
		return Result{}, false
	}

	if class == ClassEventCard {
		if r, ok := m.matchEventCard(normalized, scoped); ok {
			return r, true
		}
		return Result{}, false
	}

	if seg, ok := SplitOnSeparator(m.det, normalized); ok {
		if r, ok := m.matchTeamVsTeam(seg, scoped); ok {
			return r, true
		}
	}

	return Result{}, false
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// matchTeamVsTeam first rewrites each side through the user alias table,
// then tries exact abbreviation token match, then fuzzy name match. The
// first successful step wins; a fuzzy match on a side the alias table
// rewrote is reported as MethodAlias.
func (m *Matcher) matchTeamVsTeam(seg Segments, candidates []model.Event) (Result, bool) {
	left, right := m.resolveAlias(seg.Left), m.resolveAlias(seg.Right)

	for _, ev := range candidates {
		if matchExactAbbrev(left, right, ev) {
			return Result{
				Event:  ev,
				Method: MethodExactAbbrev,
				Score:  100,
				Metadata: map[string]string{
					"left": left, "right": right,
				},
			}, true
		}
	}

	var best model.Event
	bestScore := 0.0
	found := false
	for _, ev := range candidates {
		score, ok := fuzzyBothTeamsScore(left, right, ev)
		if ok && score > bestScore {
			bestScore = score
			best = ev
			found = true
		}
	}
	if found && bestScore >= BothTeamsThreshold {
		method := MethodFuzzyName
		if left != seg.Left || right != seg.Right {
			method = MethodAlias
		}
		return Result{
			Event:  best,
			Method: method,
			Score:  bestScore,
			Metadata: map[string]string{
				"left": left, "right": right,
			},
		}, true
	}

	return Result{}, false
}

func (m *Matcher) resolveAlias(side string) string {
	if canon, ok := m.aliases[side]; ok {
		return Normalize(canon)
	}
	return side
}

// matchExactAbbrev requires both sides be >=3 characters and present in
// the event's home/away abbreviation set. 2-letter abbreviations are
// skipped (too noisy). Reversed order is allowed.
func matchExactAbbrev(left, right string, ev model.Event) bool {
	homeAbbrev := strings.ToLower(ev.HomeTeam.Abbreviation)
	awayAbbrev := strings.ToLower(ev.AwayTeam.Abbreviation)

	validAbbrev := func(s string) bool { return len(s) >= 3 }
	if !validAbbrev(left) && !validAbbrev(right) {
		return false
	}

	straight := validAbbrev(left) && tokenMatches(left, homeAbbrev) &&
		validAbbrev(right) && tokenMatches(right, awayAbbrev)
	reversed := validAbbrev(left) && tokenMatches(left, awayAbbrev) &&
		validAbbrev(right) && tokenMatches(right, homeAbbrev)

	return straight || reversed
}

// tokenMatches reports whether candidate appears as a whole token (not a
// substring) of abbrev, honoring the >=3-character requirement.
func tokenMatches(candidate, abbrev string) bool {
	if len(candidate) < 3 || abbrev == "" {
		return false
	}
	for _, tok := range strings.Fields(abbrev) {
		if tok == candidate {
			return true
		}
	}
	return candidate == abbrev
}

// fuzzyBothTeamsScore computes the combined per-side Levenshtein-ratio
// similarity, trying both straight and reversed team order and returning
// the better of the two.
func fuzzyBothTeamsScore(left, right string, ev model.Event) (float64, bool) {
	home := strings.ToLower(ev.HomeTeam.Name)
	away := strings.ToLower(ev.AwayTeam.Name)
	if home == "" && away == "" {
		return 0, false
	}

	straight := (stringsim.LevenshteinRatio(left, home) + stringsim.LevenshteinRatio(right, away)) / 2
	reversed := (stringsim.LevenshteinRatio(left, away) + stringsim.LevenshteinRatio(right, home)) / 2

	if straight >= reversed {
		return straight, true
	}
	return reversed, true
}

// matchEventCard matches a combat-sports event-card stream to the first
// candidate whose competitor name appears in the stream, recording the
// detected card segment in Metadata["segment"]. The event's StartTime and
// MainCardStart are not consulted.
func (m *Matcher) matchEventCard(normalized string, candidates []model.Event) (Result, bool) {
	seg, ok := DetectCardSegment(m.det, normalized)
	if !ok {
		seg = SegmentMainCard
	}

	for _, ev := range candidates {
		if !eventCardNameMatches(normalized, ev) {
			continue
		}
		return Result{
			Event:  ev,
			Method: MethodEventCard,
			Score:  100,
			Metadata: map[string]string{
				"segment": string(seg),
			},
		}, true
	}
	return Result{}, false
}

// eventCardNameMatches does a loose containment check between the stream
// name and either competitor's name, since combat-sports event names
// commonly carry one fighter's surname plus "UFC NNN" style branding.
func eventCardNameMatches(normalized string, ev model.Event) bool {
	home := strings.ToLower(ev.HomeTeam.Name)
	away := strings.ToLower(ev.AwayTeam.Name)
	if home != "" && containsAnyToken(normalized, home) {
		return true
	}
	if away != "" && containsAnyToken(normalized, away) {
		return true
	}
	return false
}

func containsAnyToken(haystack, name string) bool {
	for _, tok := range strings.Fields(name) {
		if len(tok) >= 3 && strings.Contains(haystack, tok) {
			return true
		}
	}
	return false
}

package matcher

import (
	"regexp"
	"strings"
	"time"

	"github.com/northernpowerhouse/teamarr/internal/detection"
)

// StreamClass is the type a stream name is classified into before any
// event matching is attempted.
type StreamClass string

const (
	ClassEventCard  StreamClass = "event_card" // combat sports
	ClassFieldEvent StreamClass = "field_event"
	ClassTeamVsTeam StreamClass = "team_vs_team"
	ClassPlaceholder StreamClass = "placeholder"
	ClassExcluded   StreamClass = "excluded"
	ClassUnknown    StreamClass = "unknown"
)

// CardSegment is a combat-sports broadcast segment.
type CardSegment string

const (
	SegmentEarlyPrelims CardSegment = "early_prelims"
	SegmentPrelims      CardSegment = "prelims"
	SegmentMainCard     CardSegment = "main_card"
	SegmentCombined     CardSegment = "combined"
)

var (
	nonSeparatorPunct = regexp.MustCompile(`[^\w\s@:/.-]`)
	whitespaceRun     = regexp.MustCompile(`\s+`)
	dateTokenPattern  = regexp.MustCompile(`\b(\d{4}-\d{2}-\d{2}|\d{1,2}/\d{1,2}(?:/\d{2,4})?)\b`)
	olympicDayPattern = regexp.MustCompile(`(?i)\bday\s*(\d{1,2})\b`)
)

// Normalize lowercases, collapses whitespace, and strips punctuation that
// doesn't separate tokens (keeping '@', ':', '/', '-', '.', which appear in
// separators and date tokens).
func Normalize(name string) string {
	s := strings.ToLower(name)
	s = nonSeparatorPunct.ReplaceAllString(s, " ")
	s = whitespaceRun.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// ExtractDateToken pulls a calendar date out of a stream name, if present.
// olympicsStart, when non-zero, anchors "Day N" style tokens to a known
// tournament calendar (olympicsStart is Day 1).
func ExtractDateToken(name string, olympicsStart time.Time) (time.Time, bool) {
	if m := dateTokenPattern.FindString(name); m != "" {
		for _, layout := range []string{"2006-01-02", "1/2/2006", "1/2/06", "1/2"} {
			if t, err := time.Parse(layout, m); err == nil {
				if t.Year() == 0 {
					t = t.AddDate(time.Now().Year(), 0, 0)
				}
				return t, true
			}
		}
	}
	if !olympicsStart.IsZero() {
		if m := olympicDayPattern.FindStringSubmatch(name); m != nil {
			var day int
			for _, c := range m[1] {
				day = day*10 + int(c-'0')
			}
			if day > 0 {
				return olympicsStart.AddDate(0, 0, day-1), true
			}
		}
	}
	return time.Time{}, false
}

// Classify types a normalized stream name using the detection keyword
// service's compiled patterns. Exclusions take priority over everything
// else, followed by placeholders, card segments (event card), and finally
// team-vs-team detection via a configured separator.
func Classify(det *detection.Service, normalized string) StreamClass {
	if _, ok := det.Match(detection.CategoryExclusion, normalized); ok {
		return ClassExcluded
	}
	if _, ok := det.Match(detection.CategoryPlaceholder, normalized); ok {
		return ClassPlaceholder
	}
	if _, ok := det.Match(detection.CategoryCardSegment, normalized); ok {
		return ClassEventCard
	}
	if seg, ok := SplitOnSeparator(det, normalized); ok && seg.Left != "" && seg.Right != "" {
		return ClassTeamVsTeam
	}
	return ClassFieldEvent
}

// Segments is a stream name split on a team-vs-team separator.
type Segments struct {
	Left, Right string
	Separator   string
}

// SplitOnSeparator finds the configured separator token (vs, @, at, ...)
// in a normalized stream name and splits it into two sides.
func SplitOnSeparator(det *detection.Service, normalized string) (Segments, bool) {
	for _, row := range det.MatchAll(detection.CategorySeparator, normalized) {
		sep := strings.TrimSpace(row.Keyword)
		idx := strings.Index(normalized, strings.ToLower(sep))
		if idx <= 0 {
			continue
		}
		left := strings.TrimSpace(normalized[:idx])
		right := strings.TrimSpace(normalized[idx+len(sep):])
		if left == "" || right == "" {
			continue
		}
		return Segments{Left: left, Right: right, Separator: sep}, true
	}
	return Segments{}, false
}

// DetectCardSegment reports which combat-sports segment a normalized
// stream name refers to.
func DetectCardSegment(det *detection.Service, normalized string) (CardSegment, bool) {
	row, ok := det.Match(detection.CategoryCardSegment, normalized)
	if !ok {
		return "", false
	}
	switch {
	case strings.Contains(row.Keyword, "early"):
		return SegmentEarlyPrelims, true
	case strings.Contains(row.Keyword, "prelim"):
		return SegmentPrelims, true
	case strings.Contains(row.Keyword, "combined"):
		return SegmentCombined, true
	default:
		return SegmentMainCard, true
	}
}

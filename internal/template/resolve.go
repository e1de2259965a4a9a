package template

import (
	"math/rand"
	"regexp"
	"strings"
	"time"

	"github.com/northernpowerhouse/teamarr/internal/model"
)

var placeholderPattern = regexp.MustCompile(`\{([a-zA-Z0-9_]+)(?:\.(next|last))?\}`)

// Resolve substitutes every `{name}`, `{name.next}`, `{name.last}`
// placeholder in template using ctx. Resolution never fails: an unknown
// variable, a disallowed suffix, or missing game data all resolve to "".
func (r *Registry) Resolve(tmpl string, ctx model.TemplateContext) string {
	return placeholderPattern.ReplaceAllStringFunc(tmpl, func(match string) string {
		sub := placeholderPattern.FindStringSubmatch(match)
		name, suffix := sub[1], sub[2]

		v, ok := r.Lookup(name)
		if !ok || !v.allowsSuffix(suffix) {
			return ""
		}

		game := gameForSuffix(ctx, suffix)
		if suffix == "" && v.SuffixRule != RuleBaseOnly && game == nil {
			return ""
		}
		return safeExtract(v, ctx, game)
	})
}

// safeExtract calls an extractor, nil-checking the game context so a
// variable that forgets to check does not panic — resolution must never
// fail per the spec's failure-behavior requirement.
func safeExtract(v Variable, ctx model.TemplateContext, game *model.GameContext) (out string) {
	defer func() {
		if recover() != nil {
			out = ""
		}
	}()
	return v.Extractor(ctx, game)
}

// DescriptionOption is one candidate description a template may offer;
// Priority 1-99 is conditional, 100 is the unconditional fallback.
type DescriptionOption struct {
	Template  string
	Priority  int
	Condition string // predicate name, e.g. "win_streak"; "" always matches
	Value     string // predicate argument, if any
}

// PredicateContext carries the facts every predicate needs to evaluate.
type PredicateContext struct {
	Game                model.GameContext
	IsTopTenMatchup     bool
	IsRematch           bool
	IsConferenceGame    bool
	IsPlayoff           bool
	IsPreseason         bool
	OpponentNameContains string
}

// EvaluatePredicate resolves one named predicate against pctx. Unknown
// predicates never match.
func EvaluatePredicate(name, value string, pctx PredicateContext) bool {
	g := pctx.Game
	switch name {
	case "":
		return true
	case "win_streak":
		return g.TeamStats.Streak > 0
	case "loss_streak":
		return g.TeamStats.Streak < 0
	case "home_win_streak":
		return g.Streaks.HomeStreak != "" && strings.HasPrefix(g.Streaks.HomeStreak, "W")
	case "home_loss_streak":
		return g.Streaks.HomeStreak != "" && strings.HasPrefix(g.Streaks.HomeStreak, "L")
	case "away_win_streak":
		return g.Streaks.AwayStreak != "" && strings.HasPrefix(g.Streaks.AwayStreak, "W")
	case "away_loss_streak":
		return g.Streaks.AwayStreak != "" && strings.HasPrefix(g.Streaks.AwayStreak, "L")
	case "is_top_ten_matchup":
		return pctx.IsTopTenMatchup
	case "is_ranked_opponent":
		return g.OpponentStats.Rank != nil && *g.OpponentStats.Rank > 0 && *g.OpponentStats.Rank <= 25
	case "is_rematch":
		return pctx.IsRematch
	case "is_home":
		return g.IsHome
	case "is_away":
		return !g.IsHome
	case "is_conference_game":
		return pctx.IsConferenceGame
	case "has_odds":
		return g.HasOdds
	case "is_playoff":
		return pctx.IsPlayoff
	case "is_preseason":
		return pctx.IsPreseason
	case "is_national_broadcast":
		return deriveBroadcast(g.Event.Broadcasts).IsNational
	case "opponent_name_contains":
		return value != "" && strings.Contains(strings.ToLower(g.Opponent.Name), strings.ToLower(value))
	default:
		return false
	}
}

// SelectDescription implements the priority-bucketed predicate evaluation
// in spec §4.6: evaluate every option, bucket matches by priority, pick
// the smallest priority present, and uniformly choose one option from
// that bucket. Priority 100 options always match (the unconditional
// fallback). Returns ok=false if no option matched (an empty options
// list, or no priority-100 option and no predicate that holds). A nil
// rng is replaced by one seeded from the current time.
func SelectDescription(options []DescriptionOption, pctx PredicateContext, rng *rand.Rand) (DescriptionOption, bool) {
	if len(options) == 0 {
		return DescriptionOption{}, false
	}

	var matched []DescriptionOption
	for _, opt := range options {
		if opt.Priority == 100 || EvaluatePredicate(opt.Condition, opt.Value, pctx) {
			matched = append(matched, opt)
		}
	}
	if len(matched) == 0 {
		return DescriptionOption{}, false
	}

	lowest := matched[0].Priority
	for _, opt := range matched {
		if opt.Priority < lowest {
			lowest = opt.Priority
		}
	}

	var bucket []DescriptionOption
	for _, opt := range matched {
		if opt.Priority == lowest {
			bucket = append(bucket, opt)
		}
	}

	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return bucket[rng.Intn(len(bucket))], true
}

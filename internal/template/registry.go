// Package template implements the template resolver and variable registry
// (component G): a pure `Resolve(template, ctx) -> string` over `{name}`,
// `{name.next}`, `{name.last}` placeholders, broadcast derivation, and
// conditional description selection. There is no teacher equivalent (the
// teacher has no templating layer at all); the resolver's shape — a
// registry of named extractors dispatched by suffix context — is new to
// this codebase, grounded in the spec's own variable-registry design.
package template

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/northernpowerhouse/teamarr/internal/model"
)

// SuffixRule constrains which of the three suffix contexts (base, .next,
// .last) a variable is valid in.
type SuffixRule string

const (
	RuleAll          SuffixRule = "ALL"
	RuleBaseOnly     SuffixRule = "BASE_ONLY"
	RuleBaseNextOnly SuffixRule = "BASE_NEXT_ONLY"
	RuleLastOnly     SuffixRule = "LAST_ONLY"
)

// Extractor produces a variable's string value given the full template
// context and, for .next/.last/base-with-current forms, the selected game
// context (nil when there is no game in that slot).
type Extractor func(ctx model.TemplateContext, game *model.GameContext) string

// Variable is one registered template variable.
type Variable struct {
	Name        string
	Category    string
	SuffixRule  SuffixRule
	Extractor   Extractor
	Description string
}

// Registry holds every known variable by base name.
type Registry struct {
	vars map[string]Variable
}

// NewRegistry constructs a Registry pre-populated with the full builtin
// variable set (see registry_vars.go).
func NewRegistry() *Registry {
	r := &Registry{vars: make(map[string]Variable)}
	for _, v := range builtinVariables() {
		r.register(v)
	}
	return r
}

func (r *Registry) register(v Variable) {
	r.vars[v.Name] = v
}

// Register adds or replaces a variable, letting deployments extend the
// registry without modifying this package.
func (r *Registry) Register(v Variable) {
	r.register(v)
}

// Lookup returns the variable by base name.
func (r *Registry) Lookup(name string) (Variable, bool) {
	v, ok := r.vars[name]
	return v, ok
}

// All returns every registered variable, sorted by name, for the CLI's
// variable catalog dump.
func (r *Registry) All() []Variable {
	out := make([]Variable, 0, len(r.vars))
	for _, v := range r.vars {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// allowsSuffix reports whether a variable may be resolved with the given
// suffix ("", "next", "last").
func (v Variable) allowsSuffix(suffix string) bool {
	switch v.SuffixRule {
	case RuleBaseOnly:
		return suffix == ""
	case RuleLastOnly:
		return suffix == "last"
	case RuleBaseNextOnly:
		return suffix == "" || suffix == "next"
	case RuleAll:
		return true
	default:
		return false
	}
}

// gameForSuffix resolves which GameContext a suffix refers to. The base
// (no-suffix) form of an ALL/BASE_NEXT_ONLY variable refers to Current.
func gameForSuffix(ctx model.TemplateContext, suffix string) *model.GameContext {
	switch suffix {
	case "next":
		return ctx.Next
	case "last":
		return ctx.Last
	default:
		return ctx.Current
	}
}

// formatOrdinal renders an integer seed as "1st", "2nd", "3rd", "4th", ...
func formatOrdinal(n int) string {
	if n <= 0 {
		return ""
	}
	switch {
	case n%100 >= 11 && n%100 <= 13:
		return strconv.Itoa(n) + "th"
	case n%10 == 1:
		return strconv.Itoa(n) + "st"
	case n%10 == 2:
		return strconv.Itoa(n) + "nd"
	case n%10 == 3:
		return strconv.Itoa(n) + "rd"
	default:
		return strconv.Itoa(n) + "th"
	}
}

// formatRank renders a college ranking: "#N" if unranked-eligible (<=25),
// else empty.
func formatRank(rank *int) string {
	if rank == nil || *rank <= 0 || *rank > 25 {
		return ""
	}
	return fmt.Sprintf("#%d", *rank)
}

// formatRecord renders W-L or W-D-L depending on sport.
func formatRecord(stats model.TeamStats, sport string) string {
	if isSoccerLike(sport) {
		return fmt.Sprintf("%d-%d-%d", stats.Wins, stats.Ties, stats.Losses)
	}
	if stats.Ties > 0 {
		return fmt.Sprintf("%d-%d-%d", stats.Wins, stats.Losses, stats.Ties)
	}
	return fmt.Sprintf("%d-%d", stats.Wins, stats.Losses)
}

func isSoccerLike(sport string) bool {
	switch sport {
	case "soccer", "football_assoc":
		return true
	default:
		return false
	}
}

// formatStreak renders a signed streak count as "W3"/"L2", or "" for a
// draw (0).
func formatStreak(streak int) string {
	switch {
	case streak > 0:
		return fmt.Sprintf("W%d", streak)
	case streak < 0:
		return fmt.Sprintf("L%d", -streak)
	default:
		return ""
	}
}

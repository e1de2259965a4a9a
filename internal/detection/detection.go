// Package detection implements the detection keyword service (component
// E): a central pattern store combining built-in constants with
// user-supplied rows, grounded on this codebase's configuration-row +
// built-in-default pattern used for other user-extensible settings tables.
package detection

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/northernpowerhouse/teamarr/internal/apperror"
	"github.com/northernpowerhouse/teamarr/internal/logging"
)

var log = logging.NewLogger("detection")

// Category enumerates the kinds of detection rows.
type Category string

const (
	CategoryEventType   Category = "event_type_keywords"
	CategoryLeagueHint  Category = "league_hints"
	CategorySportHint   Category = "sport_hints"
	CategoryPlaceholder Category = "placeholders"
	CategoryCardSegment Category = "card_segments"
	CategoryExclusion   Category = "exclusions"
	CategorySeparator   Category = "separators"
)

// Row is one detection pattern, either built-in or user-supplied.
type Row struct {
	Category    Category
	Keyword     string
	IsRegex     bool
	TargetValue string
	Enabled     bool
	Priority    int // lower wins; user rows take precedence over built-ins by priority
	BuiltIn     bool
}

// compiled is a Row plus its resolved matcher.
type compiled struct {
	row   Row
	match *regexp.Regexp // nil for an invalid pattern (logged and skipped)
}

// Service is the compiled, cacheable pattern store. Safe for concurrent
// reads; writes replace the whole compiled table atomically.
type Service struct {
	mu    sync.RWMutex
	rows  map[Category][]compiled
}

// New constructs a Service seeded with the built-in defaults.
func New() *Service {
	s := &Service{rows: make(map[Category][]compiled)}
	s.compileAll(builtins())
	return s
}

// Put replaces the full set of user-supplied rows for one category,
// merging them with the built-ins, sorted by priority, and recompiles.
// Invalid patterns are logged and skipped rather than rejecting the whole
// batch.
func (s *Service) Put(category Category, userRows []Row) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all := append([]Row{}, builtinsFor(category)...)
	for _, r := range userRows {
		r.Category = category
		r.BuiltIn = false
		all = append(all, r)
	}
	s.rows[category] = compileRows(all)
}

// Invalidate recompiles a category from its currently stored rows (used
// after an external edit that bypassed Put, e.g. a direct store write).
func (s *Service) Invalidate(category Category, rows []Row) {
	s.Put(category, filterUser(rows))
}

func filterUser(rows []Row) []Row {
	out := make([]Row, 0, len(rows))
	for _, r := range rows {
		if !r.BuiltIn {
			out = append(out, r)
		}
	}
	return out
}

// Match returns the highest-priority enabled row in category whose pattern
// matches text, or ok=false. User rows take precedence over built-ins at
// equal priority (user rows are ordered into the merge so a user row with
// the same priority as a built-in sorts earlier).
func (s *Service) Match(category Category, text string) (Row, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	lower := strings.ToLower(text)
	for _, c := range s.rows[category] {
		if !c.row.Enabled || c.match == nil {
			continue
		}
		if c.match.MatchString(lower) {
			return c.row, true
		}
	}
	return Row{}, false
}

// MatchAll returns every enabled row in category whose pattern matches
// text, in priority order.
func (s *Service) MatchAll(category Category, text string) []Row {
	s.mu.RLock()
	defer s.mu.RUnlock()

	lower := strings.ToLower(text)
	var out []Row
	for _, c := range s.rows[category] {
		if !c.row.Enabled || c.match == nil {
			continue
		}
		if c.match.MatchString(lower) {
			out = append(out, c.row)
		}
	}
	return out
}

func (s *Service) compileAll(rows []Row) {
	byCategory := make(map[Category][]Row)
	for _, r := range rows {
		byCategory[r.Category] = append(byCategory[r.Category], r)
	}
	for cat, rs := range byCategory {
		s.rows[cat] = compileRows(rs)
	}
}

// compileRows sorts by priority (user rows precede built-ins at the same
// priority) and compiles each pattern. Plain text entries are anchored as
// case-insensitive literal matches; regex entries compile directly.
func compileRows(rows []Row) []compiled {
	sortStable(rows)

	out := make([]compiled, 0, len(rows))
	for _, r := range rows {
		pattern := r.Keyword
		if !r.IsRegex {
			pattern = "(?i)" + regexp.QuoteMeta(r.Keyword)
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			log.WithField("keyword", r.Keyword).WithError(fmt.Errorf("%w: %v", apperror.ErrInvalidPattern, err)).
				Warn("invalid detection pattern, skipped")
			out = append(out, compiled{row: r, match: nil})
			continue
		}
		out = append(out, compiled{row: r, match: re})
	}
	return out
}

// sortStable orders rows by priority ascending, user rows before built-ins
// at equal priority.
func sortStable(rows []Row) {
	for i := 1; i < len(rows); i++ {
		j := i
		for j > 0 && less(rows[j], rows[j-1]) {
			rows[j], rows[j-1] = rows[j-1], rows[j]
			j--
		}
	}
}

func less(a, b Row) bool {
	if a.Priority != b.Priority {
		return a.Priority < b.Priority
	}
	return !a.BuiltIn && b.BuiltIn
}

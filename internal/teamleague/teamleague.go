// Package teamleague implements the team-league cache (component D): a
// separately-maintained catalog, populated by a periodic refresher that
// iterates providers, answering league-membership questions the matcher
// and orchestrator both need. Grounded on the teacher's
// loadLeagueNames/bestLeagueMatch query shape in channel_matcher.go,
// generalized from a single in-memory map into a durable, refreshable
// index.
package teamleague

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/northernpowerhouse/teamarr/internal/logging"
	"github.com/northernpowerhouse/teamarr/internal/providers"
	"github.com/northernpowerhouse/teamarr/internal/store"
	"github.com/northernpowerhouse/teamarr/pkg/stringsim"
)

var log = logging.NewLogger("teamleague")

// leagueExpansions maps an expansion pattern to its concrete league slugs.
// "soccer_all" style patterns let a group config reference a whole sport's
// competitions without enumerating each one.
var leagueExpansions = map[string][]string{
	"soccer_all": {"eng.1", "esp.1", "ita.1", "ger.1", "fra.1", "usa.1", "uefa.champions"},
	"motorsport_all": {"f1", "nascar.cup", "indycar"},
}

// ExpandLeaguePattern resolves a league expansion pattern to its concrete
// slugs, or returns the input unchanged if it is not a known pattern.
func ExpandLeaguePattern(pattern string) []string {
	if slugs, ok := leagueExpansions[pattern]; ok {
		out := make([]string, len(slugs))
		copy(out, slugs)
		return out
	}
	return []string{pattern}
}

// indexRow is one team→league membership fact.
type indexRow struct {
	teamName string
	league   string
	sport    string
}

// Cache is the read side: an in-memory snapshot refreshed periodically and
// read without locking against a refresh in progress (refreshes build a
// new snapshot and swap it in atomically).
type Cache struct {
	mu    sync.RWMutex
	rows  []indexRow
	stale bool
	last  time.Time

	st       *store.Store
	registry *providers.Registry
}

// New constructs a Cache and loads the last durable snapshot, if any.
func New(st *store.Store, registry *providers.Registry) *Cache {
	c := &Cache{st: st, registry: registry, stale: true}
	c.loadFromStore()
	return c
}

func (c *Cache) loadFromStore() {
	rows, err := c.st.DB().Query(`SELECT team_name, league, sport FROM team_league_index`)
	if err != nil {
		return
	}
	defer rows.Close()

	var loaded []indexRow
	for rows.Next() {
		var r indexRow
		if err := rows.Scan(&r.teamName, &r.league, &r.sport); err != nil {
			continue
		}
		loaded = append(loaded, r)
	}

	var lastRefreshed sql.NullTime
	var stale sql.NullBool
	_ = c.st.DB().QueryRow(`SELECT last_refreshed_at, stale FROM team_league_refresh_state WHERE id = 1`).
		Scan(&lastRefreshed, &stale)

	c.mu.Lock()
	c.rows = loaded
	if lastRefreshed.Valid {
		c.last = lastRefreshed.Time
	}
	c.stale = !stale.Valid || stale.Bool
	c.mu.Unlock()
}

// LeaguesForSport returns every known league slug for a sport.
func (c *Cache) LeaguesForSport(sport string) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	seen := map[string]bool{}
	var out []string
	for _, r := range c.rows {
		if r.sport == sport && !seen[r.league] {
			seen[r.league] = true
			out = append(out, r.league)
		}
	}
	sort.Strings(out)
	return out
}

// LeaguesForTeam returns every league a team plays in (multi-competition
// teams, e.g. soccer clubs in domestic + continental play).
func (c *Cache) LeaguesForTeam(teamName string) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var out []string
	for _, r := range c.rows {
		if strings.EqualFold(r.teamName, teamName) {
			out = append(out, r.league)
		}
	}
	return out
}

// CandidateLeagues returns leagues holding an indexed team name whose
// fuzzy-match score against teamA or teamB is at least 70, ranked by the
// best such score. A match on either team qualifies a league; both teams
// are not required to resolve in it.
func (c *Cache) CandidateLeagues(teamA, teamB string) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	type scored struct {
		league string
		score  float64
	}
	byLeague := map[string]*scored{}

	for _, r := range c.rows {
		scoreA := stringsim.LevenshteinRatio(strings.ToLower(teamA), strings.ToLower(r.teamName))
		scoreB := stringsim.LevenshteinRatio(strings.ToLower(teamB), strings.ToLower(r.teamName))
		best := scoreA
		if scoreB > best {
			best = scoreB
		}
		if best < 70 {
			continue
		}
		if cur, ok := byLeague[r.league]; !ok || best > cur.score {
			byLeague[r.league] = &scored{league: r.league, score: best}
		}
	}

	list := make([]scored, 0, len(byLeague))
	for _, s := range byLeague {
		list = append(list, *s)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].score > list[j].score })

	out := make([]string, len(list))
	for i, s := range list {
		out[i] = s.league
	}
	return out
}

// IsStale reports whether the index needs a refresh.
func (c *Cache) IsStale() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.stale
}

// LastRefreshed returns the time of the last successful refresh.
func (c *Cache) LastRefreshed() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.last
}

// ProgressEvent reports refresher progress, for streaming consumption by
// a UI.
type ProgressEvent struct {
	League string
	Done   int
	Total  int
	Err    error
}

// Refresh iterates every bulk-capable provider, rebuilds the index inside
// a transaction, and publishes progress events on onProgress (which may be
// nil). The write is all-or-nothing: callers always read a consistent
// snapshot, never a partially rebuilt one.
func (c *Cache) Refresh(ctx context.Context, sports []string, onProgress func(ProgressEvent)) error {
	emit := func(e ProgressEvent) {
		if onProgress != nil {
			onProgress(e)
		}
	}

	var fresh []indexRow
	total := len(sports)
	for i, sport := range sports {
		leagues, err := c.leaguesForSport(ctx, sport)
		if err != nil {
			emit(ProgressEvent{League: sport, Done: i, Total: total, Err: err})
			log.WithField("sport", sport).WithError(err).Warn("team-league refresh: list leagues failed")
			continue
		}
		for _, league := range leagues {
			teams, err := c.teamsForLeague(ctx, league)
			if err != nil {
				log.WithField("league", league).WithError(err).Warn("team-league refresh: list teams failed")
				continue
			}
			for _, t := range teams {
				fresh = append(fresh, indexRow{teamName: t, league: league, sport: sport})
			}
		}
		emit(ProgressEvent{League: sport, Done: i + 1, Total: total})
	}

	return c.commit(fresh)
}

func (c *Cache) leaguesForSport(ctx context.Context, sport string) ([]string, error) {
	for _, p := range c.registry.GetAll() {
		bp, ok := p.(providers.BulkProvider)
		if !ok {
			continue
		}
		leagues, err := bp.ListLeagues(ctx, sport)
		if err == nil && len(leagues) > 0 {
			return leagues, nil
		}
	}
	return nil, fmt.Errorf("no bulk provider returned leagues for sport %q", sport)
}

func (c *Cache) teamsForLeague(ctx context.Context, league string) ([]string, error) {
	for _, p := range c.registry.GetAll() {
		bp, ok := p.(providers.BulkProvider)
		if !ok {
			continue
		}
		teams, err := bp.ListTeams(ctx, league)
		if err != nil {
			continue
		}
		out := make([]string, 0, len(teams))
		for _, t := range teams {
			out = append(out, t.Name)
		}
		if len(out) > 0 {
			return out, nil
		}
	}
	return nil, fmt.Errorf("no bulk provider returned teams for league %q", league)
}

func (c *Cache) commit(rows []indexRow) error {
	tx, err := c.st.DB().Begin()
	if err != nil {
		return fmt.Errorf("begin refresh transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM team_league_index`); err != nil {
		return fmt.Errorf("clear team_league_index: %w", err)
	}
	for _, r := range rows {
		if _, err := tx.Exec(
			c.st.Rebind(`INSERT INTO team_league_index (team_name, league, sport) VALUES (?, ?, ?)
			 ON CONFLICT(team_name, league) DO NOTHING`),
			r.teamName, r.league, r.sport,
		); err != nil {
			return fmt.Errorf("insert team_league_index row: %w", err)
		}
	}

	now := time.Now()
	if _, err := tx.Exec(
		c.st.Rebind(`INSERT INTO team_league_refresh_state (id, last_refreshed_at, stale) VALUES (1, ?, 0)
		 ON CONFLICT(id) DO UPDATE SET last_refreshed_at = excluded.last_refreshed_at, stale = 0`),
		now,
	); err != nil {
		return fmt.Errorf("update refresh state: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit refresh transaction: %w", err)
	}

	c.mu.Lock()
	c.rows = rows
	c.last = now
	c.stale = false
	c.mu.Unlock()

	return nil
}

// Package sportsdata implements the sports-data service (component C): the
// only provider abstraction the rest of the system consumes. It is
// cache-first, provider-priority-ordered, and tracks per-cycle call stats,
// mirroring the fetch-or-seed pattern this codebase already uses for its
// scheduled data-ingestion jobs.
package sportsdata

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/northernpowerhouse/teamarr/internal/apperror"
	"github.com/northernpowerhouse/teamarr/internal/cache"
	"github.com/northernpowerhouse/teamarr/internal/logging"
	"github.com/northernpowerhouse/teamarr/internal/model"
	"github.com/northernpowerhouse/teamarr/internal/providers"
)

var log = logging.NewLogger("sportsdata")

// Stats are per-cycle provider call counters, resettable at generation
// start.
type Stats struct {
	requests int64
	hits     int64
	misses   int64
	perProviderRequests sync.Map // provider name -> *int64
}

func newStats() *Stats { return &Stats{} }

func (s *Stats) recordRequest(provider string) {
	atomic.AddInt64(&s.requests, 1)
	v, _ := s.perProviderRequests.LoadOrStore(provider, new(int64))
	atomic.AddInt64(v.(*int64), 1)
}

func (s *Stats) recordHit()  { atomic.AddInt64(&s.hits, 1) }
func (s *Stats) recordMiss() { atomic.AddInt64(&s.misses, 1) }

// Snapshot returns a point-in-time copy of the counters.
func (s *Stats) Snapshot() map[string]any {
	out := map[string]any{
		"requests": atomic.LoadInt64(&s.requests),
		"hits":     atomic.LoadInt64(&s.hits),
		"misses":   atomic.LoadInt64(&s.misses),
	}
	perProvider := map[string]int64{}
	s.perProviderRequests.Range(func(k, v any) bool {
		perProvider[k.(string)] = atomic.LoadInt64(v.(*int64))
		return true
	})
	out["per_provider"] = perProvider
	return out
}

// Service routes reads to the cache, then to providers in priority order.
type Service struct {
	registry *providers.Registry
	cache    *cache.Cache
	stats    *Stats
}

// New constructs a Service over a provider registry and a cache.
func New(registry *providers.Registry, c *cache.Cache) *Service {
	return &Service{registry: registry, cache: c, stats: newStats()}
}

// ResetStats starts a new per-cycle stats window.
func (s *Service) ResetStats() { s.stats = newStats() }

// Stats returns the current cycle's counters.
func (s *Service) Stats() map[string]any { return s.stats.Snapshot() }

// InvalidateTeam clears every cached entry for a (team, league) pair across
// all known cache keys this service produces for that team.
func (s *Service) InvalidateTeam(teamID, league string) {
	for _, ns := range []string{"team", "team_stats", "team_schedule", "head_coach"} {
		s.cache.Delete(cache.Key(ns, league, teamID))
	}
}

// fetch is the cache-then-providers read path shared by every operation
// below. decode/encode convert between the canonical model value and the
// cache's opaque byte payload so the cache stays schema-tolerant across
// code revisions.
func fetch[T any](
	ctx context.Context,
	s *Service,
	key string,
	ttl time.Duration,
	today bool,
	call func(p providers.Provider) (T, error),
	supports func(p providers.Provider) bool,
) (T, error) {
	var zero T

	if today {
		ttl = cache.TTLEventToday
	}

	if data, _, ok := s.cache.Get(key); ok {
		var v T
		if err := json.Unmarshal(data, &v); err == nil {
			s.stats.recordHit()
			return v, nil
		}
	}
	s.stats.recordMiss()

	var lastErr error
	for _, p := range s.registry.GetAll() {
		if !supports(p) {
			continue
		}
		s.stats.recordRequest(p.Name())
		v, err := call(p)
		if err != nil {
			lastErr = err
			log.WithField("provider", p.Name()).WithError(err).Warn("provider call failed, trying next")
			continue
		}
		if isEmpty(v) {
			continue
		}
		if data, err := json.Marshal(v); err == nil {
			s.cache.Set(key, data, ttl)
		}
		return v, nil
	}

	if lastErr != nil {
		return zero, fmt.Errorf("%w: %v", apperror.ErrProviderUnavailable, lastErr)
	}
	return zero, fmt.Errorf("%w: no provider returned data", apperror.ErrProviderUnavailable)
}

// isEmpty reports whether a decoded value should be treated as "no
// result", so the service can fall through to the next provider instead of
// caching a false negative.
func isEmpty(v any) bool {
	switch t := v.(type) {
	case []model.Event:
		return len(t) == 0
	case model.Team:
		return t.ID == ""
	case model.Event:
		return t.ID == ""
	case model.TeamStats:
		return t.Record == "" && t.Wins == 0 && t.Losses == 0
	case string:
		return t == ""
	default:
		return false
	}
}

// GetEvents returns the scoreboard for a league/date.
func (s *Service) GetEvents(ctx context.Context, league string, date time.Time) ([]model.Event, error) {
	key := cache.Key("scoreboard", league, date.Format("2006-01-02"))
	today := isToday(date)
	return fetch(ctx, s, key, cache.TTLScoreboard, today,
		func(p providers.Provider) ([]model.Event, error) { return p.GetEvents(ctx, league, date) },
		func(p providers.Provider) bool { return p.SupportsLeague(league) },
	)
}

// GetTeamSchedule returns a team's schedule.
func (s *Service) GetTeamSchedule(ctx context.Context, teamID, league string, daysAhead int) ([]model.Event, error) {
	key := cache.Key("team_schedule", league, teamID, fmt.Sprint(daysAhead))
	return fetch(ctx, s, key, cache.TTLTeamSchedule, false,
		func(p providers.Provider) ([]model.Event, error) {
			return p.GetTeamSchedule(ctx, teamID, league, daysAhead)
		},
		func(p providers.Provider) bool { return p.SupportsLeague(league) },
	)
}

// GetTeam returns team identity info.
func (s *Service) GetTeam(ctx context.Context, teamID, league string) (model.Team, error) {
	key := cache.Key("team", league, teamID)
	return fetch(ctx, s, key, cache.TTLTeamInfo, false,
		func(p providers.Provider) (model.Team, error) { return p.GetTeam(ctx, teamID, league) },
		func(p providers.Provider) bool { return p.SupportsLeague(league) },
	)
}

// GetEvent returns a single event, refreshed frequently for live scores and
// odds.
func (s *Service) GetEvent(ctx context.Context, eventID, league string) (model.Event, error) {
	key := cache.Key("event", league, eventID)
	return fetch(ctx, s, key, cache.TTLSingleEvent, false,
		func(p providers.Provider) (model.Event, error) { return p.GetEvent(ctx, eventID, league) },
		func(p providers.Provider) bool { return p.SupportsLeague(league) },
	)
}

// GetTeamStats returns season aggregates for a team.
func (s *Service) GetTeamStats(ctx context.Context, teamID, league string) (model.TeamStats, error) {
	key := cache.Key("team_stats", league, teamID)
	return fetch(ctx, s, key, cache.TTLTeamStats, false,
		func(p providers.Provider) (model.TeamStats, error) { return p.GetTeamStats(ctx, teamID, league) },
		func(p providers.Provider) bool { return p.SupportsLeague(league) },
	)
}

// GetHeadCoach returns the team's head coach name.
func (s *Service) GetHeadCoach(ctx context.Context, teamID, league string) (string, error) {
	key := cache.Key("head_coach", league, teamID)
	return fetch(ctx, s, key, cache.TTLTeamInfo, false,
		func(p providers.Provider) (string, error) { return p.GetHeadCoach(ctx, teamID, league) },
		func(p providers.Provider) bool { return p.SupportsLeague(league) },
	)
}

func isToday(t time.Time) bool {
	now := time.Now().UTC()
	y1, m1, d1 := t.UTC().Date()
	y2, m2, d2 := now.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

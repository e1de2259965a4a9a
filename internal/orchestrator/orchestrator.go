// Package orchestrator implements the EPG orchestrator (component I,
// spec §4.3): turns the set of active teams into per-team programme
// timelines for an EPG window, running each team's pipeline concurrently
// with a bounded worker pool and per-team error isolation. Grounded on
// the teacher's bounded worker-pool pattern in
// `services/content_acquirer`'s ingestion fan-out, generalized from
// content jobs to per-team sports pipelines.
package orchestrator

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/northernpowerhouse/teamarr/internal/cache"
	"github.com/northernpowerhouse/teamarr/internal/config"
	"github.com/northernpowerhouse/teamarr/internal/filler"
	"github.com/northernpowerhouse/teamarr/internal/logging"
	"github.com/northernpowerhouse/teamarr/internal/model"
	"github.com/northernpowerhouse/teamarr/internal/sportsdata"
	"github.com/northernpowerhouse/teamarr/internal/teamleague"
	"github.com/northernpowerhouse/teamarr/internal/template"
)

var log = logging.NewLogger("orchestrator")

// maxWorkers bounds the per-team concurrency fan-out.
const maxWorkers = 100

// lookbackHours is how far back the cycle scans for an in-progress game
// when no explicit start_datetime is given.
const lookbackHours = 6 * time.Hour

// extendedWindowDays bounds the .next/.last lookaround window.
const extendedWindowDays = 60

// Options configure one orchestration cycle.
type Options struct {
	DaysAhead             int
	EPGTimezone           string
	Use24HourClock        bool
	ShowTZAbbrev          bool
	StartDatetime         *time.Time
	MidnightCrossoverMode config.MidnightCrossoverMode
	GameDurationMode      config.GameDurationMode
	GameDurationOverride  time.Duration
	OnProgress            func(completed, total int)
}

// fillerSettings assembles the subset of config.Settings the filler
// generator and end-time computation need from Options, defaulting
// unset fields the same way the daemon's config loader would.
func (o Options) fillerSettings() config.Settings {
	mode := o.GameDurationMode
	if mode == "" {
		mode = config.GameDurationSport
	}
	crossover := o.MidnightCrossoverMode
	if crossover == "" {
		crossover = config.CrossoverPostgame
	}
	return config.Settings{
		MidnightCrossoverMode: crossover,
		GameDurationMode:      mode,
		GameDurationOverride:  o.GameDurationOverride,
	}
}

// TeamResult is one team's pipeline output.
type TeamResult struct {
	TeamConfig model.TeamConfig
	Programmes []model.ProcessedProgramme
	Err        error
}

// CycleStats summarizes one full orchestration run.
type CycleStats struct {
	Teams          int
	Programmes     int
	FillerByType   map[model.FillerType]int
	Failures       int
	WallTime       time.Duration
}

// Orchestrator ties the sports-data service, team-league cache, and
// template registry together to produce programme timelines.
type Orchestrator struct {
	data      *sportsdata.Service
	leagues   *teamleague.Cache
	templates *template.Registry
	cache     *cache.Cache

	mu             sync.Mutex
	scoreboardSeen map[string][]model.Event // double-checked per-cycle scoreboard cache
}

// New builds an Orchestrator.
func New(data *sportsdata.Service, leagues *teamleague.Cache, templates *template.Registry, c *cache.Cache) *Orchestrator {
	return &Orchestrator{data: data, leagues: leagues, templates: templates, cache: c}
}

// Run executes one full cycle over the given teams, honoring Options.
func (o *Orchestrator) Run(ctx context.Context, teams []model.TeamConfig, opts Options) ([]TeamResult, CycleStats) {
	start := time.Now()

	o.mu.Lock()
	o.scoreboardSeen = map[string][]model.Event{}
	o.mu.Unlock()

	loc := time.UTC
	if l, err := time.LoadLocation(opts.EPGTimezone); err == nil {
		loc = l
	}

	epgStart := o.resolveCycleStart(ctx, teams, opts, loc)
	windowEnd := epgStart.AddDate(0, 0, opts.DaysAhead)

	results := make([]TeamResult, len(teams))
	sem := make(chan struct{}, maxWorkers)
	var wg sync.WaitGroup
	var completed int64
	var completedMu sync.Mutex

	for i, tc := range teams {
		i, tc := i, tc
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			defer func() {
				if r := recover(); r != nil {
					results[i] = TeamResult{TeamConfig: tc, Err: apperrorFromPanic(r)}
				}
			}()

			programmes, err := o.runTeamPipeline(ctx, tc, epgStart, windowEnd, loc, opts)
			results[i] = TeamResult{TeamConfig: tc, Programmes: programmes, Err: err}

			completedMu.Lock()
			completed++
			n := completed
			completedMu.Unlock()
			if opts.OnProgress != nil {
				opts.OnProgress(int(n), len(teams))
			}
		}()
	}
	wg.Wait()

	stats := CycleStats{Teams: len(teams), FillerByType: map[model.FillerType]int{}}
	for _, r := range results {
		if r.Err != nil {
			stats.Failures++
			log.WithField("team", r.TeamConfig.TeamName).WithError(r.Err).Warn("team pipeline failed, isolated")
			continue
		}
		stats.Programmes += len(r.Programmes)
		for _, p := range r.Programmes {
			if p.IsFiller {
				stats.FillerByType[p.FillerType]++
			}
		}
	}
	stats.WallTime = time.Since(start)
	return results, stats
}

// apperrorFromPanic converts a recovered panic value into an error so one
// team's pipeline failure is isolated rather than crashing the cycle.
func apperrorFromPanic(r any) error {
	return fmt.Errorf("team pipeline panic: %v", r)
}

// resolveCycleStart implements spec §4.3 step 3.
func (o *Orchestrator) resolveCycleStart(ctx context.Context, teams []model.TeamConfig, opts Options, loc *time.Location) time.Time {
	if opts.StartDatetime != nil {
		return *opts.StartDatetime
	}

	now := time.Now().UTC()
	cutoff := now.Add(-lookbackHours)
	for _, tc := range teams {
		sched, err := o.data.GetTeamSchedule(ctx, tc.TeamID, tc.League, 1)
		if err != nil {
			continue
		}
		for _, ev := range sched {
			if ev.StartTime.After(cutoff) && ev.StartTime.Before(now) {
				return ev.StartTime
			}
		}
	}
	return now.Truncate(time.Hour)
}

// runTeamPipeline implements spec §4.3.1.
func (o *Orchestrator) runTeamPipeline(ctx context.Context, tc model.TeamConfig, windowStart, windowEnd time.Time, loc *time.Location, opts Options) ([]model.ProcessedProgramme, error) {
	leagues := o.candidateLeagues(tc)

	extended, err := o.fetchSchedule(ctx, tc, leagues, windowStart, windowEnd)
	if err != nil {
		return nil, err
	}

	extended = o.enrichWithScoreboard(ctx, tc, extended, windowStart, windowEnd)
	extended = o.enrichPastEvents(ctx, extended)

	sort.Slice(extended, func(i, j int) bool { return extended[i].StartTime.Before(extended[j].StartTime) })

	var inWindow []model.Event
	for _, ev := range extended {
		if !ev.StartTime.Before(windowStart) && ev.StartTime.Before(windowEnd) {
			inWindow = append(inWindow, ev)
		}
	}

	teamStats, _ := o.data.GetTeamStats(ctx, tc.TeamID, tc.League)

	settings := opts.fillerSettings()

	var programmes []model.ProcessedProgramme
	for idx, ev := range inWindow {
		ctxVal := o.buildTemplateContext(tc, teamStats, extended, ev, idx, opts)
		programmes = append(programmes, o.renderProgramme(ctxVal, ev, settings))
	}

	fillerChunks := filler.Generate(inWindow, windowStart, windowEnd, loc, settings)
	for _, ch := range fillerChunks {
		programmes = append(programmes, o.renderFiller(tc, teamStats, ch, opts))
	}

	sort.Slice(programmes, func(i, j int) bool { return programmes[i].StartDatetime.Before(programmes[j].StartDatetime) })
	return programmes, nil
}

// candidateLeagues enumerates every league a soccer (multi-competition)
// team plays in via the durable team-league cache; other sports use the
// single configured league.
func (o *Orchestrator) candidateLeagues(tc model.TeamConfig) []string {
	if tc.Sport != "soccer" || o.leagues == nil {
		return []string{tc.League}
	}
	leagues := o.leagues.LeaguesForTeam(tc.TeamName)
	if len(leagues) == 0 {
		return []string{tc.League}
	}
	return leagues
}

// fetchSchedule merges per-league schedules by event ID, first-writer-wins,
// across both the EPG window and the 60-day extended lookaround.
func (o *Orchestrator) fetchSchedule(ctx context.Context, tc model.TeamConfig, leagues []string, windowStart, windowEnd time.Time) ([]model.Event, error) {
	seen := map[string]model.Event{}
	extStart := time.Now().AddDate(0, 0, -extendedWindowDays)
	extEnd := time.Now().AddDate(0, 0, extendedWindowDays)

	var firstErr error
	for _, league := range leagues {
		sched, err := o.data.GetTeamSchedule(ctx, tc.TeamID, league, extendedWindowDays)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		for _, ev := range sched {
			if ev.StartTime.Before(extStart) || ev.StartTime.After(extEnd) {
				continue
			}
			if _, ok := seen[ev.ID]; !ok {
				seen[ev.ID] = ev
			}
		}
	}

	if len(seen) == 0 && firstErr != nil {
		return nil, firstErr
	}

	out := make([]model.Event, 0, len(seen))
	for _, ev := range seen {
		out = append(out, ev)
	}
	return out, nil
}

// enrichWithScoreboard implements the unified scoreboard-enrichment pass:
// fetch each in-window day's scoreboard once per cycle (double-checked
// cache shared across workers), merging late-bound data and discovering
// events the schedule fetch missed.
func (o *Orchestrator) enrichWithScoreboard(ctx context.Context, tc model.TeamConfig, extended []model.Event, windowStart, windowEnd time.Time) []model.Event {
	byID := map[string]model.Event{}
	for _, ev := range extended {
		byID[ev.ID] = ev
	}

	for d := windowStart; d.Before(windowEnd); d = d.AddDate(0, 0, 1) {
		board := o.scoreboardForDay(ctx, tc.League, d)
		for _, ev := range board {
			if !involvesTeam(ev, tc) {
				continue
			}
			existing, ok := byID[ev.ID]
			if !ok {
				byID[ev.ID] = ev
				continue
			}
			merged := existing
			merged.Status = ev.Status
			merged.HomeScore = ev.HomeScore
			merged.AwayScore = ev.AwayScore
			merged.Broadcasts = ev.Broadcasts
			byID[ev.ID] = merged
		}
	}

	out := make([]model.Event, 0, len(byID))
	for _, ev := range byID {
		out = append(out, ev)
	}
	return out
}

// scoreboardForDay fetches (and memoizes for the remainder of the cycle)
// one league/day's scoreboard, guarding against duplicate concurrent
// fetches from sibling team workers via a double-checked lock.
func (o *Orchestrator) scoreboardForDay(ctx context.Context, league string, day time.Time) []model.Event {
	key := league + "|" + day.Format("2006-01-02")

	o.mu.Lock()
	if board, ok := o.scoreboardSeen[key]; ok {
		o.mu.Unlock()
		return board
	}
	o.mu.Unlock()

	board, err := o.data.GetEvents(ctx, league, day)
	if err != nil {
		board = nil
	}

	o.mu.Lock()
	if existing, ok := o.scoreboardSeen[key]; ok {
		o.mu.Unlock()
		return existing
	}
	o.scoreboardSeen[key] = board
	o.mu.Unlock()
	return board
}

func involvesTeam(ev model.Event, tc model.TeamConfig) bool {
	return ev.HomeTeam.ID == tc.TeamID || ev.AwayTeam.ID == tc.TeamID
}

// enrichPastEvents backfills scores for completed events within the last
// 7 days of the extended window.
func (o *Orchestrator) enrichPastEvents(ctx context.Context, extended []model.Event) []model.Event {
	now := time.Now()
	cutoff := now.AddDate(0, 0, -7)
	for i, ev := range extended {
		if ev.StartTime.Before(cutoff) || !ev.StartTime.Before(now) || ev.HomeScore != nil {
			continue
		}
		if fresh, err := o.data.GetEvent(ctx, ev.ID, ev.League); err == nil && fresh.ID != "" {
			extended[i].HomeScore = fresh.HomeScore
			extended[i].AwayScore = fresh.AwayScore
			extended[i].Status = fresh.Status
		}
	}
	return extended
}

// buildTemplateContext builds the current/next/last triad for one event by
// walking the extended schedule relative to the event's own date, per
// spec §4.3.1 step 6.
func (o *Orchestrator) buildTemplateContext(tc model.TeamConfig, stats model.TeamStats, extended []model.Event, current model.Event, idx int, opts Options) model.TemplateContext {
	isHome := current.HomeTeam.ID == tc.TeamID

	currentCtx := gameContext(model.SlotCurrent, current, tc, isHome)

	var next, last *model.GameContext
	for _, ev := range extended {
		if ev.StartTime.After(current.StartTime) {
			if next == nil || ev.StartTime.Before(next.Event.StartTime) {
				gc := gameContext(model.SlotNext, ev, tc, ev.HomeTeam.ID == tc.TeamID)
				next = &gc
			}
		}
		if ev.StartTime.Before(current.StartTime) && ev.StartTime.Before(time.Now()) {
			if last == nil || ev.StartTime.After(last.Event.StartTime) {
				gc := gameContext(model.SlotLast, ev, tc, ev.HomeTeam.ID == tc.TeamID)
				last = &gc
			}
		}
	}

	return model.TemplateContext{
		TeamConfig:     tc,
		TeamStats:      stats,
		Current:        &currentCtx,
		Next:           next,
		Last:           last,
		EPGTimezone:    opts.EPGTimezone,
		Use24HourClock: opts.Use24HourClock,
		ShowTZAbbrev:   opts.ShowTZAbbrev,
	}
}

func gameContext(slot model.GameSlot, ev model.Event, tc model.TeamConfig, isHome bool) model.GameContext {
	team, opponent := ev.AwayTeam, ev.HomeTeam
	if isHome {
		team, opponent = ev.HomeTeam, ev.AwayTeam
	}
	return model.GameContext{
		Slot:     slot,
		Event:    model.EnrichedEvent{Event: ev},
		IsHome:   isHome,
		Team:     team,
		Opponent: opponent,
	}
}

// renderProgramme resolves title/subtitle/description for one scheduled
// event. Description selection (the priority-ranked conditional selector)
// is left to callers with access to a team's configured description
// options; here we resolve the unconditional team-vs-opponent title.
func (o *Orchestrator) renderProgramme(ctx model.TemplateContext, ev model.Event, settings config.Settings) model.ProcessedProgramme {
	status := model.ProgrammeScheduled
	switch ev.Status.State {
	case model.StateLive:
		status = model.ProgrammeInProgress
	case model.StateFinal:
		status = model.ProgrammeFinal
	}

	title := o.templates.Resolve("{team_name} vs {opponent_name}", ctx)
	subtitle := o.templates.Resolve("{broadcast_network}", ctx)

	return model.ProcessedProgramme{
		StartDatetime: ev.StartTime,
		EndDatetime:   ev.StartTime.Add(settings.GameDuration(ev.Sport)),
		Title:         title,
		Subtitle:      subtitle,
		Status:        status,
	}
}

func (o *Orchestrator) renderFiller(tc model.TeamConfig, stats model.TeamStats, ch filler.Chunk, opts Options) model.ProcessedProgramme {
	ctx := model.TemplateContext{
		TeamConfig:     tc,
		TeamStats:      stats,
		EPGTimezone:    opts.EPGTimezone,
		Use24HourClock: opts.Use24HourClock,
		ShowTZAbbrev:   opts.ShowTZAbbrev,
	}
	if ch.NextGame != nil {
		gc := gameContext(model.SlotNext, *ch.NextGame, tc, ch.NextGame.HomeTeam.ID == tc.TeamID)
		ctx.Next = &gc
	}
	if ch.LastGame != nil {
		gc := gameContext(model.SlotLast, *ch.LastGame, tc, ch.LastGame.HomeTeam.ID == tc.TeamID)
		ctx.Last = &gc
	}

	title := map[model.FillerType]string{
		model.FillerPregame:  "{team_name} Pregame",
		model.FillerPostgame: "{team_name} Postgame",
		model.FillerIdle:     "{team_name}",
	}[ch.Type]

	return model.ProcessedProgramme{
		StartDatetime: ch.Start,
		EndDatetime:   ch.End,
		Title:         o.templates.Resolve(title, ctx),
		Status:        model.ProgrammeFiller,
		IsFiller:      true,
		FillerType:    ch.Type,
	}
}

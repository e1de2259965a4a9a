// Command teamarrd is Teamarr's daemon entrypoint: it wires the
// provider/cache/sports-data stack to the orchestrator and Gold Zone
// module, drives them on a cron schedule, and exposes health, metrics,
// and a manual-trigger endpoint over chi. Bootstrap shape follows
// cmd/api/main.go's config → connect → register routes → serve pattern.
package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/northernpowerhouse/teamarr/internal/cache"
	"github.com/northernpowerhouse/teamarr/internal/config"
	"github.com/northernpowerhouse/teamarr/internal/detection"
	"github.com/northernpowerhouse/teamarr/internal/goldzone"
	"github.com/northernpowerhouse/teamarr/internal/lifecycle"
	"github.com/northernpowerhouse/teamarr/internal/localdownstream"
	"github.com/northernpowerhouse/teamarr/internal/logging"
	"github.com/northernpowerhouse/teamarr/internal/metrics"
	"github.com/northernpowerhouse/teamarr/internal/model"
	"github.com/northernpowerhouse/teamarr/internal/orchestrator"
	"github.com/northernpowerhouse/teamarr/internal/providers"
	"github.com/northernpowerhouse/teamarr/internal/providers/espn"
	"github.com/northernpowerhouse/teamarr/internal/providers/thesportsdb"
	"github.com/northernpowerhouse/teamarr/internal/shutdown"
	"github.com/northernpowerhouse/teamarr/internal/sportsdata"
	"github.com/northernpowerhouse/teamarr/internal/store"
	"github.com/northernpowerhouse/teamarr/internal/teamleague"
	"github.com/northernpowerhouse/teamarr/internal/template"
	"github.com/northernpowerhouse/teamarr/internal/xmltv"
)

var log = logging.NewLogger("teamarrd")

// identityLeagueMapper satisfies providers.LeagueMapper for providers
// (ESPN, TheSportsDB) that resolve their own (sport, league) slugs
// internally and never call into Dependencies.LeagueMapper today; kept
// as the injected default so a future provider that does need mapping
// has somewhere to plug in without changing every call site.
type identityLeagueMapper struct{}

func (identityLeagueMapper) Resolve(league string) (apiSport, apiLeague string, err error) {
	return "", league, nil
}

type app struct {
	cfg          *config.Config
	st           *store.Store
	orchestrator *orchestrator.Orchestrator
	leagues      *teamleague.Cache
	templates    *template.Registry
	detection    *detection.Service
	downstream   *localdownstream.Manager
	httpClient   *http.Client
	scheduler    *lifecycle.Scheduler
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("config error")
	}

	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{Dsn: cfg.SentryDSN}); err != nil {
			log.WithError(err).Error("sentry init failed, continuing without error tracking")
		} else {
			defer sentry.Flush(2 * time.Second)
			defer recoverAndReport()
		}
	}

	st, err := store.Open(cfg.StoreDSN)
	if err != nil {
		log.WithError(err).Fatal("store open failed")
	}
	defer st.Close()

	a := bootstrap(cfg, st)

	if err := loadDetectionKeywords(a); err != nil {
		log.WithError(err).Warn("failed to load detection keywords from store, using built-ins only")
	}

	a.scheduler = lifecycle.NewScheduler(a.runCycle)
	if cfg.Settings.SchedulerEnabled {
		// Channel-number reset is not wired in this build: GlobalReassign needs
		// real eventgroup.Plan data per channel, which requires the M3U/event-group
		// pipeline (not yet connected to the daemon). Scheduler.Start no-ops the
		// reset job when resetFn is nil.
		if err := a.scheduler.Start(cfg.Settings.SchedulerIntervalMinutes, cfg.Settings.ChannelResetEnabled,
			cfg.Settings.ChannelResetCron, nil); err != nil {
			log.WithError(err).Fatal("failed to start scheduler")
		}
	}

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: a.routes()}

	logEntry := log
	if err := shutdown.Run(srv, func(ctx context.Context) { a.scheduler.Stop(ctx) }, 15*time.Second, logEntry); err != nil {
		log.WithError(err).Fatal("shutdown error")
	}
}

func bootstrap(cfg *config.Config, st *store.Store) *app {
	c := cache.New(st)

	registry := providers.NewRegistry()
	registry.Register(providers.ProviderConfig{
		Name: "espn", Priority: 0, Enabled: true, Premium: true,
		Factory: espn.Factory(cfg.ESPNBaseURL, 10, 5),
	})
	if cfg.TheSportsDBAPIKey != "" {
		registry.Register(providers.ProviderConfig{
			Name: "thesportsdb", Priority: 1, Enabled: true, Premium: false,
			Factory: thesportsdb.Factory(cfg.TheSportsDBBaseURL, cfg.TheSportsDBAPIKey),
		})
	}
	registry.Initialize(providers.Dependencies{LeagueMapper: identityLeagueMapper{}})

	data := sportsdata.New(registry, c)
	leagues := teamleague.New(st, registry)
	templates := template.NewRegistry()
	orch := orchestrator.New(data, leagues, templates, c)
	det := detection.New()

	return &app{
		cfg:          cfg,
		st:           st,
		orchestrator: orch,
		leagues:      leagues,
		templates:    templates,
		detection:    det,
		downstream:   localdownstream.New(st),
		httpClient:   &http.Client{Timeout: cfg.RequestTimeout},
	}
}

func loadDetectionKeywords(a *app) error {
	rows, err := a.st.ListDetectionKeywords("")
	if err != nil {
		return err
	}
	byCategory := map[detection.Category][]detection.Row{}
	for _, r := range rows {
		byCategory[r.Category] = append(byCategory[r.Category], detection.Row{
			Category: r.Category, Keyword: r.Keyword, IsRegex: r.IsRegex,
			TargetValue: r.TargetValue, Enabled: r.Enabled, Priority: r.Priority,
		})
	}
	for cat, rows := range byCategory {
		a.detection.Put(cat, rows)
	}
	return nil
}

// runCycle executes one full generation cycle: active teams through the
// orchestrator, the result written as XMLTV, and Gold Zone's unified
// channel refreshed if enabled.
func (a *app) runCycle(ctx context.Context) error {
	start := time.Now()

	teamRows, err := a.st.ListTeamConfigs()
	if err != nil {
		return err
	}
	teams := make([]model.TeamConfig, 0, len(teamRows))
	for _, r := range teamRows {
		teams = append(teams, r.TeamConfig)
	}

	results, stats := a.orchestrator.Run(ctx, teams, orchestrator.Options{
		DaysAhead:             7,
		EPGTimezone:           a.cfg.Settings.EPGTimezone,
		Use24HourClock:        a.cfg.Settings.Use24HourClock,
		ShowTZAbbrev:          a.cfg.Settings.ShowTZAbbreviation,
		MidnightCrossoverMode: a.cfg.Settings.MidnightCrossoverMode,
		GameDurationMode:      a.cfg.Settings.GameDurationMode,
		GameDurationOverride:  a.cfg.Settings.GameDurationOverride,
	})

	if err := a.writeXMLTV(results); err != nil {
		log.WithError(err).Error("failed to write XMLTV output")
	}

	if a.cfg.Settings.GoldZoneEnabled {
		a.runGoldZone(ctx)
	}

	metrics.RecordCycle(stats.Programmes, stats.FillerByType, stats.Failures, time.Since(start).Seconds())
	log.WithField("teams", stats.Teams).WithField("programmes", stats.Programmes).
		WithField("failures", stats.Failures).WithField("duration", time.Since(start)).
		Info("generation cycle completed")
	return nil
}

func (a *app) runGoldZone(ctx context.Context) {
	streams, err := a.downstream.ListStreams(ctx)
	if err != nil {
		log.WithError(err).Error("gold zone: failed to list candidate streams")
		return
	}
	var candidates []goldzone.Candidate
	for _, s := range streams {
		if goldzone.MatchesKeyword(s.Name) {
			candidates = append(candidates, goldzone.Candidate{Stream: s})
		}
	}
	res, err := goldzone.Process(ctx, goldzone.Dependencies{
		Channels: a.downstream,
		Logos:    a.downstream,
		HTTP:     a.httpClient,
	}, a.cfg.Settings, candidates, time.Now(), a.cfg.ExtendedWindowDays)
	if err != nil {
		log.WithError(err).Error("gold zone cycle failed")
		return
	}
	if res.DownstreamChannelID != "" {
		log.WithField("channel_id", res.DownstreamChannelID).Info("gold zone channel refreshed")
	}
}

func (a *app) writeXMLTV(results []orchestrator.TeamResult) error {
	path := os.Getenv("TEAMARR_XMLTV_OUTPUT")
	if path == "" {
		path = "teamarr.xml"
	}

	var channels []xmltv.XMLTVChannel
	var programmes []xmltv.XMLTVProgramme
	seen := map[string]bool{}

	for _, r := range results {
		tvgID := "teamarr-team-" + r.TeamConfig.TeamID + "-" + r.TeamConfig.League
		if !seen[tvgID] {
			seen[tvgID] = true
			channels = append(channels, xmltv.XMLTVChannel{
				ID: tvgID, DisplayName: r.TeamConfig.TeamName, IconSrc: r.TeamConfig.LogoURL,
			})
		}
		for _, p := range r.Programmes {
			title := p.Title
			if p.Subtitle != "" {
				title = title + ": " + p.Subtitle
			}
			programmes = append(programmes, xmltv.XMLTVProgramme{
				ChannelID: tvgID, Start: p.StartDatetime, Stop: p.EndDatetime,
				Title: title, Description: p.Description, IconSrc: p.ProgramArtURL,
			})
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return xmltv.Write(f, channels, programmes)
}

func (a *app) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		if err := a.st.HealthCheck(); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Handle("/metrics", metrics.Handler())

	// Manual-run endpoint (spec §6's "manual-run endpoint"): triggers one
	// cycle immediately, outside the cron schedule.
	r.Post("/cycle/trigger", func(w http.ResponseWriter, req *http.Request) {
		triggered := a.scheduler.Trigger(req.Context())
		w.Header().Set("Content-Type", "application/json")
		if !triggered {
			w.WriteHeader(http.StatusConflict)
			w.Write([]byte(`{"triggered":false,"reason":"cycle already running or cycle failed"}`))
			return
		}
		w.Write([]byte(`{"triggered":true}`))
	})

	return r
}

func recoverAndReport() {
	if r := recover(); r != nil {
		sentry.CurrentHub().Recover(r)
		sentry.Flush(2 * time.Second)
		panic(r)
	}
}

package orchestrator

import (
	"context"
	"testing"
	"time"

	"github.com/northernpowerhouse/teamarr/internal/cache"
	"github.com/northernpowerhouse/teamarr/internal/config"
	"github.com/northernpowerhouse/teamarr/internal/model"
	"github.com/northernpowerhouse/teamarr/internal/providers"
	"github.com/northernpowerhouse/teamarr/internal/sportsdata"
	"github.com/northernpowerhouse/teamarr/internal/store"
	"github.com/northernpowerhouse/teamarr/internal/template"
)

type fakeProvider struct {
	name     string
	schedule []model.Event
	events   map[string][]model.Event // league|date -> events
}

func (f *fakeProvider) Name() string                     { return f.name }
func (f *fakeProvider) SupportsLeague(league string) bool { return true }
func (f *fakeProvider) GetEvents(ctx context.Context, league string, date time.Time) ([]model.Event, error) {
	return f.events[league+"|"+date.Format("2006-01-02")], nil
}
func (f *fakeProvider) GetTeamSchedule(ctx context.Context, teamID, league string, daysAhead int) ([]model.Event, error) {
	return f.schedule, nil
}
func (f *fakeProvider) GetTeam(ctx context.Context, teamID, league string) (model.Team, error) {
	return model.Team{ID: teamID, Name: teamID}, nil
}
func (f *fakeProvider) GetEvent(ctx context.Context, eventID, league string) (model.Event, error) {
	for _, ev := range f.schedule {
		if ev.ID == eventID {
			return ev, nil
		}
	}
	return model.Event{}, nil
}
func (f *fakeProvider) GetTeamStats(ctx context.Context, teamID, league string) (model.TeamStats, error) {
	return model.TeamStats{Wins: 5, Losses: 3}, nil
}
func (f *fakeProvider) GetHeadCoach(ctx context.Context, teamID, league string) (string, error) {
	return "", nil
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open("sqlite://:memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func TestRun_SingleTeamSingleGameProducesScheduledAndFiller(t *testing.T) {
	st := newTestStore(t)
	c := cache.New(st)
	t.Cleanup(c.Close)

	windowStart := time.Date(2026, 7, 30, 0, 0, 0, 0, time.UTC)
	game := model.Event{
		ID:        "game-1",
		League:    "nfl",
		Sport:     "football",
		StartTime: windowStart.Add(18 * time.Hour),
		HomeTeam:  model.Team{ID: "BUF", Name: "Buffalo Bills"},
		AwayTeam:  model.Team{ID: "KC", Name: "Kansas City Chiefs"},
	}

	reg := providers.NewRegistry()
	reg.Register(providers.ProviderConfig{
		Name: "fake", Priority: 0, Enabled: true,
		Factory: func(providers.Dependencies) providers.Provider {
			return &fakeProvider{name: "fake", schedule: []model.Event{game}}
		},
	})
	reg.Initialize(providers.Dependencies{})

	data := sportsdata.New(reg, c)
	templates := template.NewRegistry()

	o := New(data, nil, templates, c)
	teams := []model.TeamConfig{{TeamID: "BUF", TeamName: "Buffalo Bills", League: "nfl", Sport: "football"}}

	results, stats := o.Run(context.Background(), teams, Options{
		DaysAhead:             1,
		EPGTimezone:           "UTC",
		StartDatetime:         &windowStart,
		MidnightCrossoverMode: config.CrossoverPostgame,
	})

	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].Err != nil {
		t.Fatalf("unexpected pipeline error: %v", results[0].Err)
	}
	if stats.Failures != 0 {
		t.Errorf("expected no failures, got %d", stats.Failures)
	}

	var sawGame, sawFiller bool
	for _, p := range results[0].Programmes {
		if !p.IsFiller && p.Title != "" {
			sawGame = true
		}
		if p.IsFiller {
			sawFiller = true
		}
	}
	if !sawGame {
		t.Errorf("expected a non-filler scheduled programme for the game")
	}
	if !sawFiller {
		t.Errorf("expected filler programmes to cover the rest of the window")
	}
}

func TestRun_TeamPipelinePanicIsolatedFromOtherTeams(t *testing.T) {
	st := newTestStore(t)
	c := cache.New(st)
	t.Cleanup(c.Close)

	reg := providers.NewRegistry()
	reg.Register(providers.ProviderConfig{
		Name: "fake", Priority: 0, Enabled: true,
		Factory: func(providers.Dependencies) providers.Provider {
			return &fakeProvider{name: "fake"}
		},
	})
	reg.Initialize(providers.Dependencies{})

	data := sportsdata.New(reg, c)
	templates := template.NewRegistry()
	o := New(data, nil, templates, c)

	windowStart := time.Date(2026, 7, 30, 0, 0, 0, 0, time.UTC)
	teams := []model.TeamConfig{
		{TeamID: "A", TeamName: "Team A", League: "nfl", Sport: "football"},
		{TeamID: "B", TeamName: "Team B", League: "nfl", Sport: "football"},
	}

	results, stats := o.Run(context.Background(), teams, Options{
		DaysAhead:     1,
		EPGTimezone:   "UTC",
		StartDatetime: &windowStart,
	})

	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if stats.Teams != 2 {
		t.Errorf("Teams = %d, want 2", stats.Teams)
	}
}

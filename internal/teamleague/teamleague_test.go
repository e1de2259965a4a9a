package teamleague

import (
	"context"
	"testing"
	"time"

	"github.com/northernpowerhouse/teamarr/internal/model"
	"github.com/northernpowerhouse/teamarr/internal/providers"
	"github.com/northernpowerhouse/teamarr/internal/store"
)

type fakeBulkProvider struct {
	name    string
	leagues map[string][]string
	teams   map[string][]model.Team
}

func (f *fakeBulkProvider) Name() string                       { return f.name }
func (f *fakeBulkProvider) SupportsLeague(league string) bool   { return true }
func (f *fakeBulkProvider) GetEvents(ctx context.Context, league string, date time.Time) ([]model.Event, error) {
	return nil, nil
}
func (f *fakeBulkProvider) GetTeamSchedule(ctx context.Context, teamID, league string, daysAhead int) ([]model.Event, error) {
	return nil, nil
}
func (f *fakeBulkProvider) GetTeam(ctx context.Context, teamID, league string) (model.Team, error) {
	return model.Team{}, nil
}
func (f *fakeBulkProvider) GetEvent(ctx context.Context, eventID, league string) (model.Event, error) {
	return model.Event{}, nil
}
func (f *fakeBulkProvider) GetTeamStats(ctx context.Context, teamID, league string) (model.TeamStats, error) {
	return model.TeamStats{}, nil
}
func (f *fakeBulkProvider) GetHeadCoach(ctx context.Context, teamID, league string) (string, error) {
	return "", nil
}
func (f *fakeBulkProvider) ListLeagues(ctx context.Context, sport string) ([]string, error) {
	return f.leagues[sport], nil
}
func (f *fakeBulkProvider) ListTeams(ctx context.Context, league string) ([]model.Team, error) {
	return f.teams[league], nil
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

func TestRefresh_PopulatesIndexAndClearsStale(t *testing.T) {
	st := newTestStore(t)
	reg := providers.NewRegistry()
	reg.Register(providers.ProviderConfig{
		Name: "fake", Priority: 0, Enabled: true,
		Factory: func(providers.Dependencies) providers.Provider {
			return &fakeBulkProvider{
				name:    "fake",
				leagues: map[string][]string{"football": {"nfl"}},
				teams:   map[string][]model.Team{"nfl": {{Name: "Kansas City Chiefs"}, {Name: "Buffalo Bills"}}},
			}
		},
	})
	reg.Initialize(providers.Dependencies{})

	c := New(st, reg)
	if !c.IsStale() {
		t.Fatalf("expected a fresh cache to be stale")
	}

	if err := c.Refresh(context.Background(), []string{"football"}, nil); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	if c.IsStale() {
		t.Fatalf("expected cache to no longer be stale after Refresh")
	}
	leagues := c.LeaguesForSport("football")
	if len(leagues) != 1 || leagues[0] != "nfl" {
		t.Errorf("LeaguesForSport = %v", leagues)
	}
	if got := c.LeaguesForTeam("Buffalo Bills"); len(got) != 1 || got[0] != "nfl" {
		t.Errorf("LeaguesForTeam = %v", got)
	}
}

func TestExpandLeaguePattern(t *testing.T) {
	expanded := ExpandLeaguePattern("soccer_all")
	if len(expanded) < 3 {
		t.Fatalf("expected soccer_all to expand to multiple leagues, got %v", expanded)
	}
	if got := ExpandLeaguePattern("nfl"); len(got) != 1 || got[0] != "nfl" {
		t.Errorf("ExpandLeaguePattern(nfl) = %v, want passthrough", got)
	}
}

// Package providers defines the sports-data provider contract and the
// registry that ranks and selects among provider implementations
// (component B). Concrete providers (ESPN, TheSportsDB, ...) implement
// Provider in sibling packages; the raw HTTP wire format of each is out of
// scope here (see the provider contract note in the external interfaces).
package providers

import (
	"context"
	"time"

	"github.com/northernpowerhouse/teamarr/internal/model"
)

// Provider is the uniform contract every sports-data source implements.
// supports_league must be O(1); all methods return canonical model values,
// never provider-specific types.
type Provider interface {
	Name() string
	SupportsLeague(league string) bool

	GetEvents(ctx context.Context, league string, date time.Time) ([]model.Event, error)
	GetTeamSchedule(ctx context.Context, teamID, league string, daysAhead int) ([]model.Event, error)
	GetTeam(ctx context.Context, teamID, league string) (model.Team, error)
	GetEvent(ctx context.Context, eventID, league string) (model.Event, error)
	GetTeamStats(ctx context.Context, teamID, league string) (model.TeamStats, error)
	GetHeadCoach(ctx context.Context, teamID, league string) (string, error)
}

// BulkProvider is an optional extension for providers that can enumerate
// leagues and teams in bulk, used by the team/league cache refresher.
type BulkProvider interface {
	Provider
	ListLeagues(ctx context.Context, sport string) ([]string, error)
	ListTeams(ctx context.Context, league string) ([]model.Team, error)
}

// Dependencies are injected into every registered provider factory before
// first use (notably the league-mapping service).
type Dependencies struct {
	LeagueMapper LeagueMapper
}

// LeagueMapper resolves a team's configured league into the
// (api_sport, api_league) pair a provider expects.
type LeagueMapper interface {
	Resolve(league string) (apiSport, apiLeague string, err error)
}

// Factory constructs a Provider given shared dependencies.
type Factory func(deps Dependencies) Provider

// ProviderConfig describes one registered provider.
type ProviderConfig struct {
	Name     string
	Priority int // ascending; lowest number wins first
	Enabled  bool
	Premium  bool // reported by Registry.IsProviderPremium; GetAll orders by Priority alone
	Factory  Factory
}

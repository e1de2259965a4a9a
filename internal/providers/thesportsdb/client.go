// Package thesportsdb implements the Provider contract against TheSportsDB,
// grounded on this codebase's existing TheSportsDB sync client: league
// schedule fetch, team lookup, and the free-tier rate ceiling that makes
// this provider non-premium (fallback-only) by default.
package thesportsdb

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/northernpowerhouse/teamarr/internal/logging"
	"github.com/northernpowerhouse/teamarr/internal/model"
	"github.com/northernpowerhouse/teamarr/internal/providers"
)

var log = logging.NewLogger("provider-thesportsdb")

// leagueIDs maps a Teamarr league code to TheSportsDB's numeric league ID.
var leagueIDs = map[string]string{
	"nfl":   "4391",
	"nba":   "4387",
	"nhl":   "4380",
	"mlb":   "4424",
	"eng.1": "4328",
}

// Client is the TheSportsDB provider. It is registered non-premium: its
// free tier is rate-limited and only consulted as a fallback.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	limiter    *rate.Limiter
}

// New constructs a TheSportsDB provider. The free tier supports roughly 1
// request/second sustained.
func New(baseURL, apiKey string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    baseURL,
		apiKey:     apiKey,
		limiter:    rate.NewLimiter(1, 2),
	}
}

// Factory adapts New to providers.Factory.
func Factory(baseURL, apiKey string) providers.Factory {
	return func(_ providers.Dependencies) providers.Provider {
		return New(baseURL, apiKey)
	}
}

func (c *Client) Name() string { return "thesportsdb" }

func (c *Client) SupportsLeague(league string) bool {
	_, ok := leagueIDs[league]
	return ok
}

func (c *Client) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	key := c.apiKey
	if key == "" {
		key = "1" // TheSportsDB's public test key
	}
	u := fmt.Sprintf("%s/%s%s", c.baseURL, key, path)
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("thesportsdb request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("thesportsdb returned HTTP %d for %s", resp.StatusCode, path)
	}

	var buf []byte
	decoder := json.NewDecoder(resp.Body)
	var raw json.RawMessage
	if err := decoder.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode thesportsdb response: %w", err)
	}
	buf = raw
	return buf, nil
}

type tsdbEvent struct {
	IDEvent      string `json:"idEvent"`
	StrEvent     string `json:"strEvent"`
	DateEvent    string `json:"dateEvent"`
	StrTime      string `json:"strTime"`
	StrHomeTeam  string `json:"strHomeTeam"`
	StrAwayTeam  string `json:"strAwayTeam"`
	IDHomeTeam   string `json:"idHomeTeam"`
	IDAwayTeam   string `json:"idAwayTeam"`
	IntHomeScore string `json:"intHomeScore"`
	IntAwayScore string `json:"intAwayScore"`
	StrStatus    string `json:"strStatus"`
	StrVenue     string `json:"strVenue"`
	StrLeague    string `json:"strLeague"`
}

func (c *Client) GetEvents(ctx context.Context, league string, date time.Time) ([]model.Event, error) {
	body, err := c.get(ctx, "/eventsday.php", url.Values{
		"d": {date.Format("2006-01-02")},
		"l": {leagueIDs[league]},
	})
	if err != nil {
		return nil, err
	}
	var resp struct {
		Events []tsdbEvent `json:"events"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("thesportsdb: decode events: %w", err)
	}
	out := make([]model.Event, 0, len(resp.Events))
	for _, ev := range resp.Events {
		if e, ok := normalizeEvent(ev, league); ok {
			out = append(out, e)
		}
	}
	return out, nil
}

func normalizeEvent(ev tsdbEvent, league string) (model.Event, bool) {
	if ev.DateEvent == "" {
		return model.Event{}, false
	}
	ts := ev.StrTime
	if ts == "" {
		ts = "00:00:00"
	}
	start, err := time.Parse("2006-01-02 15:04:05", ev.DateEvent+" "+ts)
	if err != nil {
		return model.Event{}, false
	}

	var homeScore, awayScore *int
	if n, err := strconv.Atoi(ev.IntHomeScore); err == nil {
		homeScore = &n
	}
	if n, err := strconv.Atoi(ev.IntAwayScore); err == nil {
		awayScore = &n
	}

	var venue *model.Venue
	if ev.StrVenue != "" {
		venue = &model.Venue{Name: ev.StrVenue}
	}

	return model.Event{
		ID:        ev.IDEvent,
		Provider:  "thesportsdb",
		StartTime: start.UTC(),
		HomeTeam: model.Team{
			ID: ev.IDHomeTeam, Provider: "thesportsdb", Name: ev.StrHomeTeam, League: league,
		},
		AwayTeam: model.Team{
			ID: ev.IDAwayTeam, Provider: "thesportsdb", Name: ev.StrAwayTeam, League: league,
		},
		League:    league,
		Status:    mapStatus(ev.StrStatus),
		HomeScore: homeScore,
		AwayScore: awayScore,
		Venue:     venue,
	}, true
}

func mapStatus(raw string) model.EventStatus {
	switch raw {
	case "", "Not Started", "NS":
		return model.EventStatus{State: model.StateScheduled}
	case "Match Finished", "FT":
		return model.EventStatus{State: model.StateFinal}
	case "Postponed":
		return model.EventStatus{State: model.StatePostponed}
	case "Cancelled":
		return model.EventStatus{State: model.StateCancelled}
	default:
		return model.EventStatus{State: model.StateLive, Detail: raw}
	}
}

func (c *Client) GetTeamSchedule(ctx context.Context, teamID, league string, daysAhead int) ([]model.Event, error) {
	body, err := c.get(ctx, "/eventsnext.php", url.Values{"id": {teamID}})
	if err != nil {
		return nil, err
	}
	var resp struct {
		Events []tsdbEvent `json:"events"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("thesportsdb: decode schedule: %w", err)
	}
	out := make([]model.Event, 0, len(resp.Events))
	cutoff := time.Now().AddDate(0, 0, daysAhead)
	for _, ev := range resp.Events {
		e, ok := normalizeEvent(ev, league)
		if ok && e.StartTime.Before(cutoff) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (c *Client) GetTeam(ctx context.Context, teamID, league string) (model.Team, error) {
	body, err := c.get(ctx, "/lookupteam.php", url.Values{"id": {teamID}})
	if err != nil {
		return model.Team{}, err
	}
	var resp struct {
		Teams []struct {
			IDTeam       string `json:"idTeam"`
			StrTeam      string `json:"strTeam"`
			StrTeamShort string `json:"strTeamShort"`
			StrBadge     string `json:"strBadge"`
		} `json:"teams"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return model.Team{}, fmt.Errorf("thesportsdb: decode team: %w", err)
	}
	if len(resp.Teams) == 0 {
		return model.Team{}, fmt.Errorf("thesportsdb: team %s not found", teamID)
	}
	t := resp.Teams[0]
	return model.Team{
		ID:        t.IDTeam,
		Provider:  "thesportsdb",
		Name:      t.StrTeam,
		ShortName: t.StrTeamShort,
		League:    league,
		LogoURL:   t.StrBadge,
	}, nil
}

func (c *Client) GetEvent(ctx context.Context, eventID, league string) (model.Event, error) {
	body, err := c.get(ctx, "/lookupevent.php", url.Values{"id": {eventID}})
	if err != nil {
		return model.Event{}, err
	}
	var resp struct {
		Events []tsdbEvent `json:"events"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return model.Event{}, fmt.Errorf("thesportsdb: decode event: %w", err)
	}
	if len(resp.Events) == 0 {
		return model.Event{}, fmt.Errorf("thesportsdb: event %s not found", eventID)
	}
	e, ok := normalizeEvent(resp.Events[0], league)
	if !ok {
		return model.Event{}, fmt.Errorf("thesportsdb: event %s malformed", eventID)
	}
	return e, nil
}

// GetTeamStats is not offered by TheSportsDB's free tier; returns a zero
// value, letting the sports-data service fall through to another provider.
func (c *Client) GetTeamStats(ctx context.Context, teamID, league string) (model.TeamStats, error) {
	log.WithField("team", teamID).Debug("thesportsdb has no team-stats endpoint on the free tier")
	return model.TeamStats{}, nil
}

func (c *Client) GetHeadCoach(ctx context.Context, teamID, league string) (string, error) {
	body, err := c.get(ctx, "/lookupteam.php", url.Values{"id": {teamID}})
	if err != nil {
		return "", err
	}
	var resp struct {
		Teams []struct {
			StrManager string `json:"strManager"`
		} `json:"teams"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("thesportsdb: decode coach: %w", err)
	}
	if len(resp.Teams) == 0 {
		return "", nil
	}
	return resp.Teams[0].StrManager, nil
}

// ListLeagues and ListTeams implement providers.BulkProvider for the
// team/league cache refresher.
func (c *Client) ListLeagues(ctx context.Context, sport string) ([]string, error) {
	body, err := c.get(ctx, "/search_all_leagues.php", url.Values{"s": {sport}})
	if err != nil {
		return nil, err
	}
	var resp struct {
		Countries []struct {
			StrLeague string `json:"strLeague"`
		} `json:"countries"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("thesportsdb: decode leagues: %w", err)
	}
	out := make([]string, 0, len(resp.Countries))
	for _, c := range resp.Countries {
		out = append(out, c.StrLeague)
	}
	return out, nil
}

func (c *Client) ListTeams(ctx context.Context, league string) ([]model.Team, error) {
	body, err := c.get(ctx, "/search_all_teams.php", url.Values{"l": {league}})
	if err != nil {
		return nil, err
	}
	var resp struct {
		Teams []struct {
			IDTeam  string `json:"idTeam"`
			StrTeam string `json:"strTeam"`
		} `json:"teams"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("thesportsdb: decode teams: %w", err)
	}
	out := make([]model.Team, 0, len(resp.Teams))
	for _, t := range resp.Teams {
		out = append(out, model.Team{ID: t.IDTeam, Provider: "thesportsdb", Name: t.StrTeam, League: league})
	}
	return out, nil
}

// Package espn implements the Provider contract against ESPN's public
// scoreboard/schedule endpoints. The HTTP client shape (token-bucket rate
// limiter, connection-pool reset and one retry on TLS errors) is
// adapted from the provider client pattern used for the other
// rate-limited sports-data providers in this codebase.
package espn

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/northernpowerhouse/teamarr/internal/logging"
	"github.com/northernpowerhouse/teamarr/internal/model"
	"github.com/northernpowerhouse/teamarr/internal/providers"
)

var log = logging.NewLogger("provider-espn")

// leagueSlugs maps a Teamarr league code to ESPN's (sport, league) path
// segments. Extend as new leagues are onboarded.
var leagueSlugs = map[string][2]string{
	"nfl":            {"football", "nfl"},
	"nba":            {"basketball", "nba"},
	"nhl":            {"hockey", "nhl"},
	"mlb":            {"baseball", "mlb"},
	"eng.1":          {"soccer", "eng.1"},
	"uefa.champions": {"soccer", "uefa.champions"},
}

// Client is the ESPN provider.
type Client struct {
	httpClient *http.Client
	baseURL    string
	limiter    *rate.Limiter
	deps       providers.Dependencies
}

// New constructs an ESPN provider with a sustained request rate and burst
// size token bucket.
func New(baseURL string, requestsPerSecond float64, burst int, deps providers.Dependencies) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    baseURL,
		limiter:    rate.NewLimiter(rate.Limit(requestsPerSecond), burst),
		deps:       deps,
	}
}

// Factory adapts New to the providers.Factory signature for registry use.
func Factory(baseURL string, requestsPerSecond float64, burst int) providers.Factory {
	return func(deps providers.Dependencies) providers.Provider {
		return New(baseURL, requestsPerSecond, burst, deps)
	}
}

func (c *Client) Name() string { return "espn" }

func (c *Client) SupportsLeague(league string) bool {
	_, ok := leagueSlugs[league]
	return ok
}

// acquire blocks the caller on the rate limiter. Waiting happens here, not
// inside any lock the caller might hold.
func (c *Client) acquire(ctx context.Context) error {
	return c.limiter.Wait(ctx)
}

// get issues a single GET request, retrying it once on a TLS record error
// after resetting the client's connection pool (ESPN's edge occasionally
// poisons a pooled TLS session).
func (c *Client) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	if err := c.acquire(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil && isTLSError(err) {
		log.WithField("path", path).Warn("TLS error, resetting connection pool and retrying")
		c.resetConnectionPool()
		resp, err = c.httpClient.Do(req)
	}
	if err != nil {
		return nil, fmt.Errorf("espn request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("espn returned HTTP %d for %s", resp.StatusCode, path)
	}

	buf, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read espn response: %w", err)
	}
	return buf, nil
}

func isTLSError(err error) bool {
	var tlsErr *tls.RecordHeaderError
	if ok := asRecordHeaderError(err, &tlsErr); ok {
		return true
	}
	return false
}

func asRecordHeaderError(err error, target **tls.RecordHeaderError) bool {
	type wrapper interface{ Unwrap() error }
	for err != nil {
		if rhe, ok := err.(*tls.RecordHeaderError); ok {
			*target = rhe
			return true
		}
		w, ok := err.(wrapper)
		if !ok {
			return false
		}
		err = w.Unwrap()
	}
	return false
}

func (c *Client) resetConnectionPool() {
	c.httpClient.CloseIdleConnections()
}

// scoreboardResponse is ESPN's scoreboard payload shape, narrowed to the
// fields this provider normalizes.
type scoreboardResponse struct {
	Events []espnEvent `json:"events"`
}

type espnEvent struct {
	ID   string `json:"id"`
	Date string `json:"date"`
	Name string `json:"name"`
	Competitions []struct {
		Competitors []struct {
			HomeAway string `json:"homeAway"`
			Team     struct {
				ID           string `json:"id"`
				DisplayName  string `json:"displayName"`
				ShortDisplayName string `json:"shortDisplayName"`
				Abbreviation string `json:"abbreviation"`
				Color        string `json:"color"`
				Logo         string `json:"logo"`
			} `json:"team"`
			Score string `json:"score"`
		} `json:"competitors"`
		Venue struct {
			FullName string `json:"fullName"`
			Address  struct {
				City  string `json:"city"`
				State string `json:"state"`
			} `json:"address"`
		} `json:"venue"`
		Broadcasts []struct {
			Names []string `json:"names"`
		} `json:"broadcasts"`
		Status struct {
			Type struct {
				Name      string `json:"name"`
				State     string `json:"state"`
				Detail    string `json:"detail"`
			} `json:"type"`
		} `json:"status"`
	} `json:"competitions"`
}

func (c *Client) GetEvents(ctx context.Context, league string, date time.Time) ([]model.Event, error) {
	slug, ok := leagueSlugs[league]
	if !ok {
		return nil, fmt.Errorf("espn: unsupported league %q", league)
	}
	params := url.Values{"dates": {date.Format("20060102")}}
	body, err := c.get(ctx, fmt.Sprintf("/apis/site/v2/sports/%s/%s/scoreboard", slug[0], slug[1]), params)
	if err != nil {
		return nil, err
	}
	var sb scoreboardResponse
	if err := json.Unmarshal(body, &sb); err != nil {
		return nil, fmt.Errorf("espn: decode scoreboard: %w", err)
	}
	out := make([]model.Event, 0, len(sb.Events))
	for _, ev := range sb.Events {
		e, ok := normalizeEvent(ev, league)
		if ok {
			out = append(out, e)
		}
	}
	return out, nil
}

func normalizeEvent(ev espnEvent, league string) (model.Event, bool) {
	if len(ev.Competitions) == 0 {
		return model.Event{}, false
	}
	comp := ev.Competitions[0]

	var home, away model.Team
	for _, c := range comp.Competitors {
		t := model.Team{
			ID:           c.Team.ID,
			Provider:     "espn",
			Name:         c.Team.DisplayName,
			ShortName:    c.Team.ShortDisplayName,
			Abbreviation: c.Team.Abbreviation,
			League:       league,
			LogoURL:      c.Team.Logo,
			Color:        c.Team.Color,
		}
		if c.HomeAway == "home" {
			home = t
		} else {
			away = t
		}
	}

	start, err := time.Parse(time.RFC3339, ev.Date)
	if err != nil {
		return model.Event{}, false
	}

	var venue *model.Venue
	if comp.Venue.FullName != "" {
		venue = &model.Venue{
			Name:  comp.Venue.FullName,
			City:  comp.Venue.Address.City,
			State: comp.Venue.Address.State,
		}
	}

	var broadcasts []model.Broadcast
	for _, b := range comp.Broadcasts {
		for _, name := range b.Names {
			broadcasts = append(broadcasts, model.Broadcast{Network: name, Type: "tv", Scope: "national"})
		}
	}

	return model.Event{
		ID:         ev.ID,
		Provider:   "espn",
		StartTime:  start.UTC(),
		HomeTeam:   home,
		AwayTeam:   away,
		League:     league,
		Status:     mapStatus(comp.Status.Type),
		Venue:      venue,
		Broadcasts: broadcasts,
	}, true
}

func mapStatus(t struct {
	Name   string `json:"name"`
	State  string `json:"state"`
	Detail string `json:"detail"`
}) model.EventStatus {
	state := model.StateScheduled
	switch t.State {
	case "in":
		state = model.StateLive
	case "post":
		state = model.StateFinal
	}
	if t.Name == "STATUS_POSTPONED" {
		state = model.StatePostponed
	}
	if t.Name == "STATUS_CANCELED" {
		state = model.StateCancelled
	}
	return model.EventStatus{State: state, Detail: t.Detail}
}

func (c *Client) GetTeamSchedule(ctx context.Context, teamID, league string, daysAhead int) ([]model.Event, error) {
	slug, ok := leagueSlugs[league]
	if !ok {
		return nil, fmt.Errorf("espn: unsupported league %q", league)
	}
	body, err := c.get(ctx, fmt.Sprintf("/apis/site/v2/sports/%s/%s/teams/%s/schedule", slug[0], slug[1], teamID), nil)
	if err != nil {
		return nil, err
	}
	var sb scoreboardResponse
	if err := json.Unmarshal(body, &sb); err != nil {
		return nil, fmt.Errorf("espn: decode schedule: %w", err)
	}
	out := make([]model.Event, 0, len(sb.Events))
	for _, ev := range sb.Events {
		if e, ok := normalizeEvent(ev, league); ok {
			out = append(out, e)
		}
	}
	return out, nil
}

func (c *Client) GetTeam(ctx context.Context, teamID, league string) (model.Team, error) {
	slug, ok := leagueSlugs[league]
	if !ok {
		return model.Team{}, fmt.Errorf("espn: unsupported league %q", league)
	}
	body, err := c.get(ctx, fmt.Sprintf("/apis/site/v2/sports/%s/%s/teams/%s", slug[0], slug[1], teamID), nil)
	if err != nil {
		return model.Team{}, err
	}
	var resp struct {
		Team struct {
			ID               string `json:"id"`
			DisplayName      string `json:"displayName"`
			ShortDisplayName string `json:"shortDisplayName"`
			Abbreviation     string `json:"abbreviation"`
			Color            string `json:"color"`
			Logos            []struct {
				Href string `json:"href"`
			} `json:"logos"`
		} `json:"team"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return model.Team{}, fmt.Errorf("espn: decode team: %w", err)
	}
	logo := ""
	if len(resp.Team.Logos) > 0 {
		logo = resp.Team.Logos[0].Href
	}
	return model.Team{
		ID:           resp.Team.ID,
		Provider:     "espn",
		Name:         resp.Team.DisplayName,
		ShortName:    resp.Team.ShortDisplayName,
		Abbreviation: resp.Team.Abbreviation,
		League:       league,
		LogoURL:      logo,
		Color:        resp.Team.Color,
	}, nil
}

func (c *Client) GetEvent(ctx context.Context, eventID, league string) (model.Event, error) {
	slug, ok := leagueSlugs[league]
	if !ok {
		return model.Event{}, fmt.Errorf("espn: unsupported league %q", league)
	}
	body, err := c.get(ctx, fmt.Sprintf("/apis/site/v2/sports/%s/%s/summary", slug[0], slug[1]), url.Values{"event": {eventID}})
	if err != nil {
		return model.Event{}, err
	}
	var resp struct {
		Header espnEvent `json:"header"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return model.Event{}, fmt.Errorf("espn: decode event: %w", err)
	}
	ev, ok := normalizeEvent(resp.Header, league)
	if !ok {
		return model.Event{}, fmt.Errorf("espn: event %s not found", eventID)
	}
	return ev, nil
}

func (c *Client) GetTeamStats(ctx context.Context, teamID, league string) (model.TeamStats, error) {
	slug, ok := leagueSlugs[league]
	if !ok {
		return model.TeamStats{}, fmt.Errorf("espn: unsupported league %q", league)
	}
	body, err := c.get(ctx, fmt.Sprintf("/apis/site/v2/sports/%s/%s/teams/%s", slug[0], slug[1], teamID), nil)
	if err != nil {
		return model.TeamStats{}, err
	}
	var resp struct {
		Team struct {
			Record struct {
				Items []struct {
					Summary string `json:"summary"`
				} `json:"items"`
			} `json:"record"`
		} `json:"team"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return model.TeamStats{}, fmt.Errorf("espn: decode team stats: %w", err)
	}
	stats := model.TeamStats{}
	if len(resp.Team.Record.Items) > 0 {
		stats.Record = resp.Team.Record.Items[0].Summary
	}
	return stats, nil
}

func (c *Client) GetHeadCoach(ctx context.Context, teamID, league string) (string, error) {
	slug, ok := leagueSlugs[league]
	if !ok {
		return "", fmt.Errorf("espn: unsupported league %q", league)
	}
	body, err := c.get(ctx, fmt.Sprintf("/apis/site/v2/sports/%s/%s/teams/%s", slug[0], slug[1], teamID), nil)
	if err != nil {
		return "", err
	}
	var resp struct {
		Team struct {
			Coaches []struct {
				FirstName string `json:"firstName"`
				LastName  string `json:"lastName"`
			} `json:"coaches"`
		} `json:"team"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("espn: decode coach: %w", err)
	}
	if len(resp.Team.Coaches) == 0 {
		return "", nil
	}
	c0 := resp.Team.Coaches[0]
	return fmt.Sprintf("%s %s", c0.FirstName, c0.LastName), nil
}

package template

import (
	"strconv"
	"time"

	"github.com/northernpowerhouse/teamarr/internal/model"
)

// builtinVariables is the base variable set, one entry per base name. Each
// is registered once and resolved across its allowed suffix contexts
// (base/.next/.last) by Resolve. This is a representative slice of the
// several-hundred-variable registry the spec describes — every category
// it names (identities, date/time, venue, home/away, records, streaks,
// head-to-head, scores, outcome, standings, statistics, playoffs, odds,
// broadcast, rankings, conference/division, soccer-multi-league, player
// leaders) has at least one variable here, and new ones register the same
// way via Registry.Register.
func builtinVariables() []Variable {
	return concat(
		identityVars(),
		dateTimeVars(),
		venueVars(),
		homeAwayVars(),
		recordVars(),
		streakVars(),
		h2hVars(),
		scoreOutcomeVars(),
		standingsStatsVars(),
		playoffVars(),
		oddsVars(),
		broadcastVars(),
		rankingVars(),
		conferenceDivisionVars(),
		soccerMultiLeagueVars(),
		playerLeaderVars(),
	)
}

func concat(groups ...[]Variable) []Variable {
	var out []Variable
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

func identityVars() []Variable {
	return []Variable{
		{Name: "team_name", Category: "identity", SuffixRule: RuleBaseOnly,
			Description: "Configured team's display name",
			Extractor: func(ctx model.TemplateContext, g *model.GameContext) string {
				return ctx.TeamConfig.TeamName
			}},
		{Name: "team_abbrev", Category: "identity", SuffixRule: RuleBaseOnly,
			Description: "Configured team's abbreviation",
			Extractor: func(ctx model.TemplateContext, g *model.GameContext) string {
				return ctx.TeamConfig.TeamAbbrev
			}},
		{Name: "league", Category: "identity", SuffixRule: RuleBaseOnly,
			Description: "Configured team's league slug",
			Extractor: func(ctx model.TemplateContext, g *model.GameContext) string {
				return ctx.TeamConfig.League
			}},
		{Name: "opponent_name", Category: "identity", SuffixRule: RuleAll,
			Description: "Opponent's display name",
			Extractor: func(ctx model.TemplateContext, g *model.GameContext) string {
				if g == nil {
					return ""
				}
				return g.Opponent.Name
			}},
		{Name: "opponent_abbrev", Category: "identity", SuffixRule: RuleAll,
			Description: "Opponent's abbreviation",
			Extractor: func(ctx model.TemplateContext, g *model.GameContext) string {
				if g == nil {
					return ""
				}
				return g.Opponent.Abbreviation
			}},
		{Name: "head_coach", Category: "identity", SuffixRule: RuleAll,
			Description: "Team's head coach",
			Extractor: func(ctx model.TemplateContext, g *model.GameContext) string {
				if g == nil {
					return ""
				}
				return g.HeadCoach
			}},
	}
}

func dateTimeVars() []Variable {
	return []Variable{
		{Name: "game_date", Category: "datetime", SuffixRule: RuleAll,
			Description: "Game date in the user's EPG timezone",
			Extractor: func(ctx model.TemplateContext, g *model.GameContext) string {
				if g == nil {
					return ""
				}
				return formatDate(g.Event.StartTime, ctx)
			}},
		{Name: "game_time", Category: "datetime", SuffixRule: RuleAll,
			Description: "Game start time in the user's EPG timezone",
			Extractor: func(ctx model.TemplateContext, g *model.GameContext) string {
				if g == nil {
					return ""
				}
				return formatTime(g.Event.StartTime, ctx)
			}},
	}
}

func venueVars() []Variable {
	return []Variable{
		{Name: "venue_name", Category: "venue", SuffixRule: RuleAll,
			Description: "Venue name",
			Extractor: func(ctx model.TemplateContext, g *model.GameContext) string {
				if g == nil || g.Event.Venue == nil {
					return ""
				}
				return g.Event.Venue.Name
			}},
		{Name: "venue_city", Category: "venue", SuffixRule: RuleAll,
			Description: "Venue city",
			Extractor: func(ctx model.TemplateContext, g *model.GameContext) string {
				if g == nil || g.Event.Venue == nil {
					return ""
				}
				return g.Event.Venue.City
			}},
	}
}

func homeAwayVars() []Variable {
	return []Variable{
		{Name: "home_team", Category: "home_away", SuffixRule: RuleAll,
			Description: "Event's home team name",
			Extractor: func(ctx model.TemplateContext, g *model.GameContext) string {
				if g == nil {
					return ""
				}
				return g.Event.HomeTeam.Name
			}},
		{Name: "away_team", Category: "home_away", SuffixRule: RuleAll,
			Description: "Event's away team name",
			Extractor: func(ctx model.TemplateContext, g *model.GameContext) string {
				if g == nil {
					return ""
				}
				return g.Event.AwayTeam.Name
			}},
		{Name: "is_home", Category: "home_away", SuffixRule: RuleAll,
			Description: "\"true\"/\"false\": is the configured team home",
			Extractor: func(ctx model.TemplateContext, g *model.GameContext) string {
				if g == nil {
					return ""
				}
				return boolString(g.IsHome)
			}},
	}
}

func recordVars() []Variable {
	return []Variable{
		{Name: "team_record", Category: "records", SuffixRule: RuleAll,
			Description: "Configured team's season record",
			Extractor: func(ctx model.TemplateContext, g *model.GameContext) string {
				if g == nil {
					return formatRecord(ctx.TeamStats, ctx.TeamConfig.Sport)
				}
				return formatRecord(g.TeamStats, ctx.TeamConfig.Sport)
			}},
		{Name: "opponent_record", Category: "records", SuffixRule: RuleAll,
			Description: "Opponent's season record",
			Extractor: func(ctx model.TemplateContext, g *model.GameContext) string {
				if g == nil {
					return ""
				}
				return formatRecord(g.OpponentStats, ctx.TeamConfig.Sport)
			}},
		{Name: "home_record", Category: "records", SuffixRule: RuleAll,
			Description: "Team's home-only record",
			Extractor: func(ctx model.TemplateContext, g *model.GameContext) string {
				if g == nil {
					return ""
				}
				return g.TeamStats.HomeRecord
			}},
		{Name: "away_record", Category: "records", SuffixRule: RuleAll,
			Description: "Team's away-only record",
			Extractor: func(ctx model.TemplateContext, g *model.GameContext) string {
				if g == nil {
					return ""
				}
				return g.TeamStats.AwayRecord
			}},
	}
}

func streakVars() []Variable {
	return []Variable{
		{Name: "team_streak", Category: "streaks", SuffixRule: RuleAll,
			Description: "Configured team's current streak (e.g. W3); empty if a draw",
			Extractor: func(ctx model.TemplateContext, g *model.GameContext) string {
				if g == nil {
					return formatStreak(ctx.TeamStats.Streak)
				}
				return formatStreak(g.TeamStats.Streak)
			}},
		{Name: "last_5_record", Category: "streaks", SuffixRule: RuleAll,
			Description: "Team's record over the last 5 games",
			Extractor: func(ctx model.TemplateContext, g *model.GameContext) string {
				if g == nil {
					return ""
				}
				return g.Streaks.Last5Record
			}},
		{Name: "last_10_record", Category: "streaks", SuffixRule: RuleAll,
			Description: "Team's record over the last 10 games",
			Extractor: func(ctx model.TemplateContext, g *model.GameContext) string {
				if g == nil {
					return ""
				}
				return g.Streaks.Last10Record
			}},
	}
}

func h2hVars() []Variable {
	return []Variable{
		{Name: "h2h_record", Category: "head_to_head", SuffixRule: RuleAll,
			Description: "Head-to-head series record, team's wins first",
			Extractor: func(ctx model.TemplateContext, g *model.GameContext) string {
				if g == nil {
					return ""
				}
				return strconv.Itoa(g.H2H.TeamWins) + "-" + strconv.Itoa(g.H2H.OpponentWins)
			}},
		{Name: "last_meeting_result", Category: "head_to_head", SuffixRule: RuleAll,
			Description: "Result of the most recent meeting",
			Extractor: func(ctx model.TemplateContext, g *model.GameContext) string {
				if g == nil {
					return ""
				}
				return g.H2H.LastResult
			}},
	}
}

func scoreOutcomeVars() []Variable {
	return []Variable{
		{Name: "score", Category: "scores", SuffixRule: RuleLastOnly,
			Description: "Final score, team's score first",
			Extractor: func(ctx model.TemplateContext, g *model.GameContext) string {
				if g == nil || g.Event.HomeScore == nil || g.Event.AwayScore == nil {
					return ""
				}
				teamScore, oppScore := teamAndOpponentScore(g)
				return strconv.Itoa(teamScore) + "-" + strconv.Itoa(oppScore)
			}},
		{Name: "team_score", Category: "scores", SuffixRule: RuleLastOnly,
			Description: "Team's own score",
			Extractor: func(ctx model.TemplateContext, g *model.GameContext) string {
				if g == nil {
					return ""
				}
				teamScore, _ := teamAndOpponentScore(g)
				return strconv.Itoa(teamScore)
			}},
		{Name: "opponent_score", Category: "scores", SuffixRule: RuleLastOnly,
			Description: "Opponent's score",
			Extractor: func(ctx model.TemplateContext, g *model.GameContext) string {
				if g == nil {
					return ""
				}
				_, oppScore := teamAndOpponentScore(g)
				return strconv.Itoa(oppScore)
			}},
		{Name: "result", Category: "scores", SuffixRule: RuleLastOnly,
			Description: "\"Win\"/\"Loss\"/\"Tie\" from the configured team's perspective",
			Extractor: func(ctx model.TemplateContext, g *model.GameContext) string {
				if g == nil {
					return ""
				}
				return g.H2H.LastResult
			}},
	}
}

func teamAndOpponentScore(g *model.GameContext) (int, int) {
	if g.Event.HomeScore == nil || g.Event.AwayScore == nil {
		return 0, 0
	}
	if g.IsHome {
		return *g.Event.HomeScore, *g.Event.AwayScore
	}
	return *g.Event.AwayScore, *g.Event.HomeScore
}

func standingsStatsVars() []Variable {
	return []Variable{
		{Name: "games_back", Category: "standings", SuffixRule: RuleAll,
			Description: "Games back in the standings",
			Extractor: func(ctx model.TemplateContext, g *model.GameContext) string {
				if g == nil {
					return ctx.TeamStats.GamesBack
				}
				return g.TeamStats.GamesBack
			}},
		{Name: "ppg", Category: "statistics", SuffixRule: RuleAll,
			Description: "Points per game",
			Extractor: func(ctx model.TemplateContext, g *model.GameContext) string {
				stats := ctx.TeamStats
				if g != nil {
					stats = g.TeamStats
				}
				return strconv.FormatFloat(stats.PPG, 'f', 1, 64)
			}},
		{Name: "papg", Category: "statistics", SuffixRule: RuleAll,
			Description: "Points allowed per game",
			Extractor: func(ctx model.TemplateContext, g *model.GameContext) string {
				stats := ctx.TeamStats
				if g != nil {
					stats = g.TeamStats
				}
				return strconv.FormatFloat(stats.PAPG, 'f', 1, 64)
			}},
	}
}

func playoffVars() []Variable {
	return []Variable{
		{Name: "playoff_seed", Category: "playoffs", SuffixRule: RuleAll,
			Description: "Team's playoff seed, ordinal form",
			Extractor: func(ctx model.TemplateContext, g *model.GameContext) string {
				stats := ctx.TeamStats
				if g != nil {
					stats = g.TeamStats
				}
				if stats.PlayoffSeed == nil {
					return ""
				}
				return formatOrdinal(*stats.PlayoffSeed)
			}},
	}
}

func oddsVars() []Variable {
	return []Variable{
		{Name: "odds_favorite", Category: "odds", SuffixRule: RuleBaseNextOnly,
			Description: "Favored team per the odds feed",
			Extractor: func(ctx model.TemplateContext, g *model.GameContext) string {
				if g == nil {
					return ""
				}
				return g.OddsFavorite
			}},
		{Name: "odds_spread", Category: "odds", SuffixRule: RuleBaseNextOnly,
			Description: "Point spread",
			Extractor: func(ctx model.TemplateContext, g *model.GameContext) string {
				if g == nil {
					return ""
				}
				return g.OddsSpread
			}},
		{Name: "odds_over_under", Category: "odds", SuffixRule: RuleBaseNextOnly,
			Description: "Over/under total",
			Extractor: func(ctx model.TemplateContext, g *model.GameContext) string {
				if g == nil {
					return ""
				}
				return g.OddsOverUnder
			}},
	}
}

func broadcastVars() []Variable {
	return []Variable{
		{Name: "broadcast_simple", Category: "broadcast", SuffixRule: RuleAll,
			Description: "Ordered, de-duplicated broadcast outlet join",
			Extractor: func(ctx model.TemplateContext, g *model.GameContext) string {
				if g == nil {
					return ""
				}
				return deriveBroadcast(g.Event.Broadcasts).Simple
			}},
		{Name: "broadcast_network", Category: "broadcast", SuffixRule: RuleAll,
			Description: "Single best broadcast outlet",
			Extractor: func(ctx model.TemplateContext, g *model.GameContext) string {
				if g == nil {
					return ""
				}
				return deriveBroadcast(g.Event.Broadcasts).Network
			}},
		{Name: "broadcast_national_network", Category: "broadcast", SuffixRule: RuleAll,
			Description: "National broadcast outlets only",
			Extractor: func(ctx model.TemplateContext, g *model.GameContext) string {
				if g == nil {
					return ""
				}
				return deriveBroadcast(g.Event.Broadcasts).NationalNetwork
			}},
		{Name: "is_national_broadcast", Category: "broadcast", SuffixRule: RuleAll,
			Description: "\"true\"/\"false\"",
			Extractor: func(ctx model.TemplateContext, g *model.GameContext) string {
				if g == nil {
					return "false"
				}
				return boolString(deriveBroadcast(g.Event.Broadcasts).IsNational)
			}},
	}
}

func rankingVars() []Variable {
	return []Variable{
		{Name: "team_rank", Category: "rankings", SuffixRule: RuleAll,
			Description: "College ranking (#N, blank if unranked)",
			Extractor: func(ctx model.TemplateContext, g *model.GameContext) string {
				stats := ctx.TeamStats
				if g != nil {
					stats = g.TeamStats
				}
				return formatRank(stats.Rank)
			}},
		{Name: "opponent_rank", Category: "rankings", SuffixRule: RuleAll,
			Description: "Opponent's college ranking",
			Extractor: func(ctx model.TemplateContext, g *model.GameContext) string {
				if g == nil {
					return ""
				}
				return formatRank(g.OpponentStats.Rank)
			}},
	}
}

func conferenceDivisionVars() []Variable {
	return []Variable{
		{Name: "conference", Category: "conference_division", SuffixRule: RuleAll,
			Description: "Team's conference name",
			Extractor: func(ctx model.TemplateContext, g *model.GameContext) string {
				stats := ctx.TeamStats
				if g != nil {
					stats = g.TeamStats
				}
				return stats.Conference
			}},
		{Name: "division", Category: "conference_division", SuffixRule: RuleAll,
			Description: "Team's division name",
			Extractor: func(ctx model.TemplateContext, g *model.GameContext) string {
				stats := ctx.TeamStats
				if g != nil {
					stats = g.TeamStats
				}
				return stats.Division
			}},
	}
}

func soccerMultiLeagueVars() []Variable {
	return []Variable{
		{Name: "soccer_primary_league", Category: "soccer_multi_league", SuffixRule: RuleBaseOnly,
			Description: "Team's primary domestic league (multi-competition teams)",
			Extractor: func(ctx model.TemplateContext, g *model.GameContext) string {
				return ctx.TeamConfig.SoccerPrimaryLeague
			}},
		{Name: "competition", Category: "soccer_multi_league", SuffixRule: RuleAll,
			Description: "The competition this specific game belongs to",
			Extractor: func(ctx model.TemplateContext, g *model.GameContext) string {
				if g == nil {
					return ""
				}
				return g.Event.League
			}},
	}
}

func playerLeaderVars() []Variable {
	return []Variable{
		{Name: "top_scorer", Category: "player_leaders", SuffixRule: RuleLastOnly,
			Description: "Top statistical leader for the just-completed game",
			Extractor: func(ctx model.TemplateContext, g *model.GameContext) string {
				if g == nil || len(g.PlayerLeaders) == 0 {
					return ""
				}
				pl := g.PlayerLeaders[0]
				return pl.Name + " (" + pl.Value + ")"
			}},
	}
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

func formatDate(t time.Time, ctx model.TemplateContext) string {
	local := toLocal(t, ctx.EPGTimezone)
	return local.Format("Jan 2")
}

func formatTime(t time.Time, ctx model.TemplateContext) string {
	local := toLocal(t, ctx.EPGTimezone)
	layout := "3:04 PM"
	if ctx.Use24HourClock {
		layout = "15:04"
	}
	out := local.Format(layout)
	if ctx.ShowTZAbbrev {
		out += " " + local.Format("MST")
	}
	return out
}

func toLocal(t time.Time, tz string) time.Time {
	if tz == "" {
		return t.UTC()
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return t.UTC()
	}
	return t.In(loc)
}

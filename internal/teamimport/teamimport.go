// Package teamimport implements the bulk team import idempotence rule
// (spec §8 "Bulk import idempotence"): importing the same provider team
// twice is a no-op, soccer teams accumulate leagues onto one team entry
// rather than duplicating, and non-soccer teams get one entry per
// league since providers reuse a team ID across leagues for unrelated
// teams. Pure decision logic, like internal/lifecycle/numbering.go:
// callers supply the current persisted state and apply the returned
// mutations inside their own transaction.
//
// Grounded on original_source/teamarr/services/team_import.py.
package teamimport

import (
	"sort"
	"strings"
)

// ImportTeam is one team row a caller wants imported or refreshed.
type ImportTeam struct {
	TeamName       string
	TeamAbbrev     string
	Provider       string
	ProviderTeamID string
	League         string
	Sport          string
	LogoURL        string
}

// SportKey identifies a team independent of league, the soccer
// consolidation key (provider, provider_team_id, sport).
type SportKey struct {
	Provider       string
	ProviderTeamID string
	Sport          string
}

// ExistingTeam is one already-persisted team row.
type ExistingTeam struct {
	ID             string
	Provider       string
	ProviderTeamID string
	Sport          string
	PrimaryLeague  string
	Leagues        []string
}

func (e ExistingTeam) fullKey() fullKey {
	return fullKey{e.Provider, e.ProviderTeamID, e.Sport, e.PrimaryLeague}
}

func (e ExistingTeam) sportKey() SportKey {
	return SportKey{e.Provider, e.ProviderTeamID, e.Sport}
}

type fullKey struct {
	provider, providerTeamID, sport, league string
}

// InsertTeam is a new team row to create.
type InsertTeam struct {
	ChannelID      string
	Provider       string
	ProviderTeamID string
	PrimaryLeague  string
	Sport          string
	TeamName       string
	TeamAbbrev     string
	LogoURL        string
	Leagues        []string
}

// UpdateLeagues replaces an existing team's leagues array (the soccer
// multi-competition accumulation case).
type UpdateLeagues struct {
	ID      string
	Leagues []string
}

// Mutation is one persistence action the caller should apply. Exactly
// one of Insert or Update is set.
type Mutation struct {
	Insert *InsertTeam
	Update *UpdateLeagues
}

// Result tallies the outcome of one bulk import call.
type Result struct {
	Imported int
	Updated  int
	Skipped  int
}

// ChannelIDFunc generates a stable channel id for a new team, given its
// display name and the league's resolved id (store-assigned, hence
// injected rather than computed here).
type ChannelIDFunc func(teamName, primaryLeague string) string

// BulkImport decides insert/update/skip for each team against already-
// persisted state, the same two-index-lookup approach as the original:
// a (provider, id, sport, league) full key for exact matches and a
// (provider, id, sport) sport key for soccer consolidation. cacheLeagues
// supplies every league a soccer team's provider id plays in, pre-
// loaded by the caller (the teamleague cache) to avoid a lookup per
// team.
func BulkImport(existing []ExistingTeam, cacheLeagues map[SportKey][]string, teams []ImportTeam, genChannelID ChannelIDFunc) (Result, []Mutation) {
	fullIndex := map[fullKey]bool{}
	sportIndex := map[SportKey]*ExistingTeam{}
	for i := range existing {
		e := &existing[i]
		fullIndex[e.fullKey()] = true
		if _, ok := sportIndex[e.sportKey()]; !ok {
			sportIndex[e.sportKey()] = e
		}
	}

	var result Result
	var mutations []Mutation

	for _, t := range teams {
		isSoccer := strings.EqualFold(t.Sport, "soccer")
		key := SportKey{t.Provider, t.ProviderTeamID, t.Sport}

		if isSoccer {
			allLeagues := append([]string{}, cacheLeagues[key]...)
			if !containsString(allLeagues, t.League) {
				allLeagues = append(allLeagues, t.League)
			}

			if e, ok := sportIndex[key]; ok {
				newToAdd := subtractStrings(allLeagues, e.Leagues)
				if len(newToAdd) == 0 {
					result.Skipped++
					continue
				}
				merged := mergeSorted(e.Leagues, allLeagues)
				mutations = append(mutations, Mutation{Update: &UpdateLeagues{ID: e.ID, Leagues: merged}})
				e.Leagues = merged
				result.Updated++
				continue
			}

			leagues := sortedCopy(allLeagues)
			mutations = append(mutations, Mutation{Insert: &InsertTeam{
				ChannelID:      genChannelID(t.TeamName, t.League),
				Provider:       t.Provider,
				ProviderTeamID: t.ProviderTeamID,
				PrimaryLeague:  t.League,
				Sport:          t.Sport,
				TeamName:       t.TeamName,
				TeamAbbrev:     t.TeamAbbrev,
				LogoURL:        t.LogoURL,
				Leagues:        leagues,
			}})
			inserted := ExistingTeam{Provider: t.Provider, ProviderTeamID: t.ProviderTeamID, Sport: t.Sport, PrimaryLeague: t.League, Leagues: leagues}
			fullIndex[inserted.fullKey()] = true
			sportIndex[key] = &inserted
			result.Imported++
			continue
		}

		// Non-soccer: one entry per (provider, id, sport, league) since
		// providers reuse a team id across leagues for unrelated teams.
		fk := fullKey{t.Provider, t.ProviderTeamID, t.Sport, t.League}
		if fullIndex[fk] {
			result.Skipped++
			continue
		}
		mutations = append(mutations, Mutation{Insert: &InsertTeam{
			ChannelID:      genChannelID(t.TeamName, t.League),
			Provider:       t.Provider,
			ProviderTeamID: t.ProviderTeamID,
			PrimaryLeague:  t.League,
			Sport:          t.Sport,
			TeamName:       t.TeamName,
			TeamAbbrev:     t.TeamAbbrev,
			LogoURL:        t.LogoURL,
			Leagues:        []string{t.League},
		}})
		fullIndex[fk] = true
		result.Imported++
	}

	return result, mutations
}

// GenerateChannelID builds "TeamName.leagueID" from a display name
// (alnum words, title-cased, spaces stripped) and a resolved league id.
func GenerateChannelID(teamName, leagueID string) string {
	var words []string
	var cur strings.Builder
	for _, r := range teamName {
		if isAlnumOrSpace(r) {
			if r == ' ' {
				if cur.Len() > 0 {
					words = append(words, cur.String())
					cur.Reset()
				}
				continue
			}
			cur.WriteRune(r)
		}
	}
	if cur.Len() > 0 {
		words = append(words, cur.String())
	}

	var name strings.Builder
	for _, w := range words {
		name.WriteString(strings.ToUpper(w[:1]) + strings.ToLower(w[1:]))
	}
	return name.String() + "." + leagueID
}

func isAlnumOrSpace(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == ' '
}

func containsString(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

func subtractStrings(all, existing []string) []string {
	var out []string
	for _, v := range all {
		if !containsString(existing, v) {
			out = append(out, v)
		}
	}
	return out
}

func mergeSorted(a, b []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, v := range append(append([]string{}, a...), b...) {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out
}

func sortedCopy(in []string) []string {
	out := append([]string{}, in...)
	sort.Strings(out)
	return out
}

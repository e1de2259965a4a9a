package teamimport

import "testing"

func fakeChannelID(teamName, league string) string {
	return GenerateChannelID(teamName, "lg1")
}

func TestBulkImport_SoccerConsolidatesNewTeam(t *testing.T) {
	teams := []ImportTeam{{TeamName: "Arsenal", Provider: "espn", ProviderTeamID: "359", League: "eng.1", Sport: "soccer"}}
	cacheLeagues := map[SportKey][]string{{"espn", "359", "soccer"}: {"eng.1", "uefa.champions"}}

	result, mutations := BulkImport(nil, cacheLeagues, teams, fakeChannelID)
	if result.Imported != 1 || result.Updated != 0 || result.Skipped != 0 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if len(mutations) != 1 || mutations[0].Insert == nil {
		t.Fatalf("expected 1 insert mutation, got %+v", mutations)
	}
	ins := mutations[0].Insert
	if len(ins.Leagues) != 2 {
		t.Errorf("expected both competitions on the new team, got %v", ins.Leagues)
	}
}

func TestBulkImport_SoccerAddsNewLeagueToExistingTeam(t *testing.T) {
	existing := []ExistingTeam{{ID: "t1", Provider: "espn", ProviderTeamID: "359", Sport: "soccer", PrimaryLeague: "eng.1", Leagues: []string{"eng.1"}}}
	teams := []ImportTeam{{TeamName: "Arsenal", Provider: "espn", ProviderTeamID: "359", League: "uefa.champions", Sport: "soccer"}}

	result, mutations := BulkImport(existing, nil, teams, fakeChannelID)
	if result.Updated != 1 || result.Imported != 0 || result.Skipped != 0 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if len(mutations) != 1 || mutations[0].Update == nil {
		t.Fatalf("expected 1 update mutation, got %+v", mutations)
	}
	if len(mutations[0].Update.Leagues) != 2 {
		t.Errorf("expected leagues to accumulate, got %v", mutations[0].Update.Leagues)
	}
}

func TestBulkImport_SoccerReimportSkips(t *testing.T) {
	existing := []ExistingTeam{{ID: "t1", Provider: "espn", ProviderTeamID: "359", Sport: "soccer", PrimaryLeague: "eng.1", Leagues: []string{"eng.1", "uefa.champions"}}}
	teams := []ImportTeam{{TeamName: "Arsenal", Provider: "espn", ProviderTeamID: "359", League: "eng.1", Sport: "soccer"}}

	result, mutations := BulkImport(existing, nil, teams, fakeChannelID)
	if result.Skipped != 1 || len(mutations) != 0 {
		t.Fatalf("expected a clean skip, got result=%+v mutations=%+v", result, mutations)
	}
}

func TestBulkImport_NonSoccerSameIDDifferentLeagueBothImported(t *testing.T) {
	// ESPN reuses team id 8 across leagues for unrelated teams (Pistons/Lynx).
	teams := []ImportTeam{
		{TeamName: "Detroit Pistons", Provider: "espn", ProviderTeamID: "8", League: "nba", Sport: "basketball"},
		{TeamName: "Minnesota Lynx", Provider: "espn", ProviderTeamID: "8", League: "wnba", Sport: "basketball"},
	}

	result, mutations := BulkImport(nil, nil, teams, fakeChannelID)
	if result.Imported != 2 || result.Skipped != 0 {
		t.Fatalf("expected both distinct (id, league) teams imported, got %+v", result)
	}
	if len(mutations) != 2 {
		t.Fatalf("expected 2 insert mutations, got %d", len(mutations))
	}
}

func TestBulkImport_NonSoccerReimportSkips(t *testing.T) {
	existing := []ExistingTeam{{ID: "t1", Provider: "espn", ProviderTeamID: "8", Sport: "basketball", PrimaryLeague: "nba", Leagues: []string{"nba"}}}
	teams := []ImportTeam{{TeamName: "Detroit Pistons", Provider: "espn", ProviderTeamID: "8", League: "nba", Sport: "basketball"}}

	result, mutations := BulkImport(existing, nil, teams, fakeChannelID)
	if result.Skipped != 1 || len(mutations) != 0 {
		t.Fatalf("expected a clean skip on reimport, got result=%+v mutations=%+v", result, mutations)
	}
}

func TestGenerateChannelID_StripsPunctuationAndTitleCases(t *testing.T) {
	got := GenerateChannelID("Manchester United F.C.", "eng.1")
	want := "ManchesterUnitedFc.eng.1"
	if got != want {
		t.Errorf("GenerateChannelID = %q, want %q", got, want)
	}
}

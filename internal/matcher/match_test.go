package matcher

import (
	"testing"
	"time"

	"github.com/northernpowerhouse/teamarr/internal/detection"
	"github.com/northernpowerhouse/teamarr/internal/model"
)

func testGroup(league string) model.EventGroup {
	return model.EventGroup{ID: "g1", ScopeMode: model.ScopeSingle, League: league}
}

func TestMatch_ExactAbbreviation(t *testing.T) {
	det := detection.New()
	m := New(det, nil)

	events := []model.Event{
		{
			ID: "e1", League: "nfl", StartTime: time.Date(2026, 7, 30, 20, 0, 0, 0, time.UTC),
			HomeTeam: model.Team{Name: "Miami Dolphins", Abbreviation: "MIA"},
			AwayTeam: model.Team{Name: "Buffalo Bills", Abbreviation: "BUF"},
		},
	}

	r, ok := m.Match("BUF vs MIA", events, testGroup("nfl"), events[0].StartTime, time.Time{})
	if !ok {
		t.Fatalf("expected a match")
	}
	if r.Method != MethodExactAbbrev {
		t.Errorf("method = %s, want %s", r.Method, MethodExactAbbrev)
	}
	if r.Event.ID != "e1" {
		t.Errorf("matched event = %s, want e1", r.Event.ID)
	}
}

func TestMatch_FuzzyNameFallback(t *testing.T) {
	det := detection.New()
	m := New(det, nil)

	events := []model.Event{
		{
			ID: "e1", League: "nba", StartTime: time.Date(2026, 7, 30, 0, 0, 0, 0, time.UTC),
			HomeTeam: model.Team{Name: "Los Angeles Lakers", Abbreviation: "LA"},
			AwayTeam: model.Team{Name: "Boston Celtics", Abbreviation: "BO"},
		},
	}

	r, ok := m.Match("LA Lakers vs Boston Celtics", events, testGroup("nba"), events[0].StartTime, time.Time{})
	if !ok {
		t.Fatalf("expected a fuzzy match")
	}
	if r.Method != MethodFuzzyName {
		t.Errorf("method = %s, want %s", r.Method, MethodFuzzyName)
	}
}

func TestMatch_TwoLetterAbbrevNeverExact(t *testing.T) {
	det := detection.New()
	m := New(det, nil)

	events := []model.Event{
		{
			ID: "e1", League: "nba", StartTime: time.Date(2026, 7, 30, 20, 0, 0, 0, time.UTC),
			HomeTeam: model.Team{Name: "Los Angeles Lakers", Abbreviation: "LAL"},
			AwayTeam: model.Team{Name: "San Diego Surf", Abbreviation: "SD"},
		},
	}

	r, ok := m.Match("SD vs LAL", events, testGroup("nba"), events[0].StartTime, time.Time{})
	if ok && r.Method == MethodExactAbbrev {
		t.Fatalf("2-letter abbreviation %q must never produce an exact-abbreviation match, got %+v", "SD", r)
	}
}

func TestMatch_PlaceholderDiscarded(t *testing.T) {
	det := detection.New()
	m := New(det, nil)
	events := []model.Event{{ID: "e1", League: "nfl"}}

	if _, ok := m.Match("Channel TBD", events, testGroup("nfl"), time.Now(), time.Time{}); ok {
		t.Fatalf("placeholder stream should never match")
	}
}

func TestMatch_WrongDayExcluded(t *testing.T) {
	det := detection.New()
	m := New(det, nil)
	events := []model.Event{
		{
			ID: "e1", League: "nfl", StartTime: time.Date(2026, 7, 30, 20, 0, 0, 0, time.UTC),
			HomeTeam: model.Team{Name: "Kansas City Chiefs", Abbreviation: "KC"},
			AwayTeam: model.Team{Name: "Buffalo Bills", Abbreviation: "BUF"},
		},
	}
	activeDay := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	if _, ok := m.Match("BUF vs KC 2026-07-30", events, testGroup("nfl"), activeDay, time.Time{}); ok {
		t.Fatalf("stream date token for a different day should exclude the match")
	}
}

func TestMatch_LeagueScopingExcludesOutOfScope(t *testing.T) {
	det := detection.New()
	m := New(det, nil)
	events := []model.Event{
		{
			ID: "e1", League: "nhl", StartTime: time.Date(2026, 7, 30, 20, 0, 0, 0, time.UTC),
			HomeTeam: model.Team{Name: "Kansas City Chiefs", Abbreviation: "KC"},
			AwayTeam: model.Team{Name: "Buffalo Bills", Abbreviation: "BUF"},
		},
	}
	if _, ok := m.Match("BUF vs KC", events, testGroup("nfl"), events[0].StartTime, time.Time{}); ok {
		t.Fatalf("event outside the group's league scope must not match")
	}
}

func TestIsSportsChannel(t *testing.T) {
	det := detection.New()
	if !IsSportsChannel(det, RawChannel{Name: "ESPN", GroupTitle: "Sports"}) {
		t.Errorf("expected ESPN/Sports to classify as a sports channel")
	}
	if IsSportsChannel(det, RawChannel{Name: "CNN", GroupTitle: "News"}) {
		t.Errorf("expected CNN/News to not classify as a sports channel")
	}
}

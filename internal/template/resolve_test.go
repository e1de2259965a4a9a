package template

import (
	"math/rand"
	"testing"
	"time"

	"github.com/northernpowerhouse/teamarr/internal/model"
)

func TestResolve_BasicPlaceholders(t *testing.T) {
	r := NewRegistry()
	ctx := model.TemplateContext{
		TeamConfig: model.TeamConfig{TeamName: "Buffalo Bills", Sport: "football"},
		Current: &model.GameContext{
			IsHome:   true,
			Opponent: model.Team{Name: "Kansas City Chiefs"},
		},
	}

	got := r.Resolve("{team_name} vs {opponent_name}", ctx)
	want := "Buffalo Bills vs Kansas City Chiefs"
	if got != want {
		t.Errorf("Resolve = %q, want %q", got, want)
	}
}

func TestResolve_UnknownVariableIsEmpty(t *testing.T) {
	r := NewRegistry()
	got := r.Resolve("[{nonexistent_variable}]", model.TemplateContext{})
	if got != "[]" {
		t.Errorf("Resolve = %q, want %q", got, "[]")
	}
}

func TestResolve_BaseOnlyRejectsSuffix(t *testing.T) {
	r := NewRegistry()
	ctx := model.TemplateContext{TeamConfig: model.TeamConfig{TeamName: "Bills"}}
	got := r.Resolve("{team_name.next}", ctx)
	if got != "" {
		t.Errorf("Resolve(team_name.next) = %q, want empty (BASE_ONLY rejects suffixes)", got)
	}
}

func TestResolve_LastOnlyScore(t *testing.T) {
	r := NewRegistry()
	home, away := 27, 20
	ctx := model.TemplateContext{
		Last: &model.GameContext{
			IsHome: true,
			Event:  model.EnrichedEvent{Event: model.Event{HomeScore: &home, AwayScore: &away}},
		},
	}
	if got := r.Resolve("{score.last}", ctx); got != "27-20" {
		t.Errorf("Resolve(score.last) = %q, want 27-20", got)
	}
	if got := r.Resolve("{score}", ctx); got != "" {
		t.Errorf("Resolve(score) without .last suffix = %q, want empty", got)
	}
}

func TestFormatStreak_DrawIsEmpty(t *testing.T) {
	if got := formatStreak(0); got != "" {
		t.Errorf("formatStreak(0) = %q, want empty", got)
	}
	if got := formatStreak(3); got != "W3" {
		t.Errorf("formatStreak(3) = %q, want W3", got)
	}
	if got := formatStreak(-2); got != "L2" {
		t.Errorf("formatStreak(-2) = %q, want L2", got)
	}
}

func TestFormatRank_CollegeVsUnranked(t *testing.T) {
	rank := 5
	if got := formatRank(&rank); got != "#5" {
		t.Errorf("formatRank(5) = %q, want #5", got)
	}
	outOfRange := 30
	if got := formatRank(&outOfRange); got != "" {
		t.Errorf("formatRank(30) = %q, want empty", got)
	}
	if got := formatRank(nil); got != "" {
		t.Errorf("formatRank(nil) = %q, want empty", got)
	}
}

func TestDeriveBroadcast_NationalPreferredOverTeam(t *testing.T) {
	broadcasts := []model.Broadcast{
		{Network: "Local RSN", Type: "tv", Scope: "team"},
		{Network: "ESPN", Type: "tv", Scope: "national"},
		{Network: "TeamRadio", Type: "radio", Scope: "team"},
	}
	d := deriveBroadcast(broadcasts)
	if d.Network != "ESPN" {
		t.Errorf("Network = %q, want ESPN", d.Network)
	}
	if !d.IsNational {
		t.Errorf("expected IsNational true")
	}
	if d.Simple != "ESPN, Local RSN" {
		t.Errorf("Simple = %q", d.Simple)
	}
}

func TestSelectDescription_PriorityBucketing(t *testing.T) {
	options := []DescriptionOption{
		{Template: "fallback", Priority: 100},
		{Template: "win streak", Priority: 10, Condition: "win_streak"},
		{Template: "rivalry", Priority: 5, Condition: "is_rematch"},
	}
	pctx := PredicateContext{
		Game:      model.GameContext{TeamStats: model.TeamStats{Streak: 3}},
		IsRematch: true,
	}
	rng := rand.New(rand.NewSource(1))
	got, ok := SelectDescription(options, pctx, rng)
	if !ok {
		t.Fatalf("expected a selection")
	}
	if got.Template != "rivalry" {
		t.Errorf("selected %q, want rivalry (lowest matching priority)", got.Template)
	}
}

func TestSelectDescription_FallbackWhenNothingElseMatches(t *testing.T) {
	options := []DescriptionOption{
		{Template: "fallback", Priority: 100},
		{Template: "win streak", Priority: 10, Condition: "win_streak"},
	}
	pctx := PredicateContext{Game: model.GameContext{TeamStats: model.TeamStats{Streak: -2}}}
	got, ok := SelectDescription(options, pctx, nil)
	if !ok || got.Template != "fallback" {
		t.Fatalf("expected fallback, got %+v ok=%v", got, ok)
	}
}

func TestSelectDescription_UnknownPredicateNeverMatches(t *testing.T) {
	options := []DescriptionOption{{Template: "x", Priority: 1, Condition: "made_up_predicate"}}
	_, ok := SelectDescription(options, PredicateContext{}, nil)
	if ok {
		t.Fatalf("unknown predicate must not match, leaving no options")
	}
}

func TestFormatTime_12Hour24HourAndTZAbbrev(t *testing.T) {
	ts := time.Date(2026, 7, 30, 20, 0, 0, 0, time.UTC)
	ctx12 := model.TemplateContext{EPGTimezone: "UTC", Use24HourClock: false}
	if got := formatTime(ts, ctx12); got != "8:00 PM" {
		t.Errorf("formatTime 12h = %q", got)
	}
	ctx24 := model.TemplateContext{EPGTimezone: "UTC", Use24HourClock: true}
	if got := formatTime(ts, ctx24); got != "20:00" {
		t.Errorf("formatTime 24h = %q", got)
	}
}

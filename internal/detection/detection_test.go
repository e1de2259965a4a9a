package detection

import "testing"

func TestMatch_BuiltinKeyword(t *testing.T) {
	s := New()
	row, ok := s.Match(CategorySportHint, "ESPN Sports HD")
	if !ok {
		t.Fatalf("expected a built-in sport-hint match")
	}
	if !row.BuiltIn {
		t.Errorf("expected built-in row, got %+v", row)
	}
}

func TestMatch_NoMatch(t *testing.T) {
	s := New()
	if _, ok := s.Match(CategorySportHint, "cartoon network"); ok {
		t.Fatalf("did not expect a match")
	}
}

func TestPut_UserRowTakesPrecedenceAtEqualPriority(t *testing.T) {
	s := New()
	s.Put(CategoryPlaceholder, []Row{
		{Keyword: "tbd", IsRegex: false, Enabled: true, Priority: 100, TargetValue: "user-override"},
	})

	row, ok := s.Match(CategoryPlaceholder, "event tbd soon")
	if !ok {
		t.Fatalf("expected a match")
	}
	if row.BuiltIn {
		t.Errorf("expected the user row to win at equal priority, got built-in")
	}
	if row.TargetValue != "user-override" {
		t.Errorf("TargetValue = %q, want user-override", row.TargetValue)
	}
}

func TestPut_HigherPriorityUserRowWinsOverBuiltin(t *testing.T) {
	s := New()
	s.Put(CategoryExclusion, []Row{
		{Keyword: "classic", IsRegex: false, Enabled: true, Priority: 0},
	})

	row, ok := s.Match(CategoryExclusion, "classic replay")
	if !ok || row.BuiltIn {
		t.Fatalf("expected user row (priority 0) to win, got %+v ok=%v", row, ok)
	}
}

func TestCompileRows_InvalidPatternSkippedNotFatal(t *testing.T) {
	s := New()
	s.Put(CategoryEventType, []Row{
		{Keyword: "(unterminated", IsRegex: true, Enabled: true, Priority: 50},
		{Keyword: "valid-kw", IsRegex: false, Enabled: true, Priority: 50},
	})

	if _, ok := s.Match(CategoryEventType, "a valid-kw here"); !ok {
		t.Fatalf("expected the valid row to still match despite a sibling invalid pattern")
	}
}

func TestMatchAll_ReturnsAllEnabledMatches(t *testing.T) {
	s := New()
	matches := s.MatchAll(CategorySportHint, "ESPN and FOX Sports coverage")
	if len(matches) < 2 {
		t.Fatalf("expected multiple sport-hint matches, got %d", len(matches))
	}
}

func TestMatch_DisabledRowNeverMatches(t *testing.T) {
	s := New()
	s.Put(CategoryExclusion, []Row{
		{Keyword: "blackout", IsRegex: false, Enabled: false, Priority: 10},
	})
	if _, ok := s.Match(CategoryExclusion, "today's blackout game"); ok {
		t.Fatalf("disabled row must never match")
	}
}

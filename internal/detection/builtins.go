package detection

// builtins returns the default pattern rows shipped with the service,
// seeded from the sports-broadcaster keyword list this codebase already
// maintains for group-title classification, extended to the full category
// set the stream matcher needs.
func builtins() []Row {
	var all []Row
	for _, cat := range []Category{
		CategoryEventType, CategoryLeagueHint, CategorySportHint,
		CategoryPlaceholder, CategoryCardSegment, CategoryExclusion, CategorySeparator,
	} {
		all = append(all, builtinsFor(cat)...)
	}
	return all
}

func builtinsFor(category Category) []Row {
	switch category {
	case CategoryEventType:
		return rows(category, 100, []string{
			"pregame", "postgame", "post-game", "pre-game", "highlights",
			"replay", "doubleheader", "press conference",
		})
	case CategoryLeagueHint:
		return rows(category, 100, []string{
			"nfl", "nba", "mlb", "nhl", "mls", "ncaa", "premier league", "bundesliga",
			"la liga", "serie a", "ligue 1", "ufc", "wwe", "nascar", "f1", "formula 1",
		})
	case CategorySportHint:
		return rows(category, 100, []string{
			"sport", "espn", "fox sports", "nbc sports", "cbs sports", "abc sports",
			"bein", "dazn", "sky sports", "bt sport", "eurosport", "tennis", "golf",
			"motorsport", "cricket", "rugby", "boxing", "ufc", "wrestling", "racing",
		})
	case CategoryPlaceholder:
		return rows(category, 100, []string{
			"tbd", "to be determined", "tba", "to be announced", "coming soon",
		})
	case CategoryCardSegment:
		return rows(category, 100, []string{
			"main card", "prelims", "preliminary card", "early prelims", "undercard",
		})
	case CategoryExclusion:
		return rows(category, 100, []string{
			"classic", "vintage", "rewind", "encore",
		})
	case CategorySeparator:
		return rows(category, 100, []string{" vs ", " vs. ", " v ", " @ ", " at "})
	default:
		return nil
	}
}

func rows(category Category, priority int, keywords []string) []Row {
	out := make([]Row, 0, len(keywords))
	for _, kw := range keywords {
		out = append(out, Row{
			Category: category,
			Keyword:  kw,
			IsRegex:  false,
			Enabled:  true,
			Priority: priority,
			BuiltIn:  true,
		})
	}
	return out
}

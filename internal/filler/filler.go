// Package filler implements the filler generator (component H, spec
// §4.5.1): synthesizes programmes for the gaps between games within the
// EPG window, aligned to 6-hour UTC boundaries, with pregame/postgame/idle
// typing and midnight-crossover handling. There is no teacher equivalent
// (channel/EPG gap-filling is specific to this domain); the chunk-
// alignment and rendering shape is new, grounded in the spec's own design.
package filler

import (
	"sort"
	"time"

	"github.com/northernpowerhouse/teamarr/internal/config"
	"github.com/northernpowerhouse/teamarr/internal/model"
)

// maxHours is the fixed maximum filler chunk length.
const maxHours = 6 * time.Hour

// Chunk is one filler time block awaiting template rendering.
type Chunk struct {
	Start time.Time
	End   time.Time
	Type  model.FillerType

	// Game is the associated game for pregame/postgame; nil for idle.
	Game *model.Event

	// NextGame/LastGame populate .next/.last template contexts.
	NextGame *model.Event
	LastGame *model.Event
}

// Generate builds the filler chunks needed to cover [windowStart,
// windowEnd) given a team's games sorted by start time, honoring the
// global midnight-crossover setting.
func Generate(games []model.Event, windowStart, windowEnd time.Time, loc *time.Location, settings config.Settings) []Chunk {
	crossover := settings.MidnightCrossoverMode
	if crossover == "" {
		crossover = config.CrossoverPostgame
	}

	sorted := append([]model.Event{}, games...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].StartTime.Before(sorted[j].StartTime) })

	if len(sorted) == 0 {
		return idleChunks(windowStart, windowEnd, loc, nil)
	}

	var chunks []Chunk
	cursor := windowStart
	var lastGame *model.Event

	for i := range sorted {
		game := &sorted[i]
		gameEnd := assumedEnd(*game, settings)

		if game.StartTime.After(cursor) {
			chunks = append(chunks, alignedChunks(cursor, game.StartTime, loc, model.FillerPregame, game, lastGame)...)
		}

		cursor = gameEnd
		lastGame = game

		crossesMidnight := crossesMidnightBoundary(game.StartTime, gameEnd, loc)
		if crossesMidnight {
			nextDayHasGames := i+1 < len(sorted) && sameLocalDay(sorted[i+1].StartTime, gameEnd, loc)
			if !nextDayHasGames {
				// Previous-day filler overlapping today's midnight suppresses
				// today's pregame/idle; generate according to the global mode.
				var next *model.Event
				if i+1 < len(sorted) {
					next = &sorted[i+1]
				}
				end := windowEnd
				if next != nil && next.StartTime.Before(end) {
					end = next.StartTime
				}
				fillerType := model.FillerPostgame
				if crossover == config.CrossoverIdle {
					fillerType = model.FillerIdle
				}
				chunks = append(chunks, alignedChunks(cursor, end, loc, fillerType, next, game)...)
				cursor = end
				continue
			}
		}
	}

	if cursor.Before(windowEnd) {
		var nextGame *model.Event // no more games in window
		chunks = append(chunks, alignedChunks(cursor, windowEnd, loc, model.FillerPostgame, nextGame, lastGame)...)
	}

	return chunks
}

// assumedEnd estimates when a game ends, since providers rarely report an
// explicit end time. The duration is driven by the configured
// GameDurationMode: a per-sport default, one global default, or a fixed
// operator-supplied override (see config.Settings.GameDuration).
func assumedEnd(ev model.Event, settings config.Settings) time.Time {
	return ev.StartTime.Add(settings.GameDuration(ev.Sport))
}

func crossesMidnightBoundary(start, end time.Time, loc *time.Location) bool {
	return !sameLocalDay(start, end, loc)
}

func sameLocalDay(a, b time.Time, loc *time.Location) bool {
	la, lb := a.In(loc), b.In(loc)
	ay, am, ad := la.Date()
	by, bm, bd := lb.Date()
	return ay == by && am == bm && ad == bd
}

// idleChunks covers a whole gameless window, carrying the next upcoming
// game (if any) for template lookahead.
func idleChunks(start, end time.Time, loc *time.Location, nextGame *model.Event) []Chunk {
	return alignedChunks(start, end, loc, model.FillerIdle, nextGame, nil)
}

// alignedChunks splits [start, end) into pieces that each end at the
// earlier of the next 6-hour UTC-local boundary or end itself.
func alignedChunks(start, end time.Time, loc *time.Location, typ model.FillerType, next, last *model.Event) []Chunk {
	if !start.Before(end) {
		return nil
	}

	var out []Chunk
	cursor := start
	for cursor.Before(end) {
		boundary := nextBoundary(cursor, loc)
		chunkEnd := boundary
		if end.Before(boundary) {
			chunkEnd = end
		}
		out = append(out, Chunk{
			Start:    cursor,
			End:      chunkEnd,
			Type:     typ,
			NextGame: next,
			LastGame: last,
		})
		cursor = chunkEnd
	}
	return out
}

// nextBoundary returns the next 6-hour boundary (00/06/12/18 local) after
// t, capped at maxHours away.
func nextBoundary(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	hour := local.Hour() - local.Hour()%6
	boundary := time.Date(local.Year(), local.Month(), local.Day(), hour, 0, 0, 0, loc).Add(6 * time.Hour)
	if boundary.Sub(t) > maxHours {
		boundary = t.Add(maxHours)
	}
	return boundary
}

// Package config loads Teamarr's settings from the environment, following
// the env-var + defaults pattern this repository has always used for
// service configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ChannelCreateTiming enumerates when a managed channel is created relative
// to its event's start time.
type ChannelCreateTiming string

const (
	CreateAtStreamAvailable ChannelCreateTiming = "stream_available"
	CreateSameDay           ChannelCreateTiming = "same_day"
	CreateDayBefore         ChannelCreateTiming = "day_before"
	Create2DaysBefore       ChannelCreateTiming = "2_days_before"
	Create3DaysBefore       ChannelCreateTiming = "3_days_before"
	Create1WeekBefore       ChannelCreateTiming = "1_week_before"
)

// ChannelDeleteTiming enumerates when a managed channel is deleted relative
// to its event's end time.
type ChannelDeleteTiming string

const (
	DeleteAtStreamRemoved ChannelDeleteTiming = "stream_removed"
	Delete6HoursAfter     ChannelDeleteTiming = "6_hours_after"
	DeleteSameDay         ChannelDeleteTiming = "same_day"
	DeleteDayAfter        ChannelDeleteTiming = "day_after"
	Delete2DaysAfter      ChannelDeleteTiming = "2_days_after"
	Delete3DaysAfter      ChannelDeleteTiming = "3_days_after"
	Delete1WeekAfter      ChannelDeleteTiming = "1_week_after"
)

// MidnightCrossoverMode selects filler behavior when a game crosses
// midnight and the next day has no games.
type MidnightCrossoverMode string

const (
	CrossoverPostgame MidnightCrossoverMode = "postgame"
	CrossoverIdle     MidnightCrossoverMode = "idle"
)

// NumberingMode selects the channel-number assignment algorithm.
type NumberingMode string

const (
	NumberingStrictBlock   NumberingMode = "strict_block"
	NumberingRationalBlock NumberingMode = "rational_block"
	NumberingStrictCompact NumberingMode = "strict_compact"
)

// SortingScope selects whether channel sort order is computed per group or
// across the whole managed fleet.
type SortingScope string

const (
	SortingPerGroup SortingScope = "per_group"
	SortingGlobal   SortingScope = "global"
)

// SortBy selects the comparison key used when sorting channels for
// numbering.
type SortBy string

const (
	SortBySportLeagueTime SortBy = "sport_league_time"
	SortByTime            SortBy = "time"
	SortByStreamOrder     SortBy = "stream_order"
)

// GameDurationMode selects how a game's assumed duration is computed for
// filler alignment.
type GameDurationMode string

const (
	GameDurationSport   GameDurationMode = "sport"
	GameDurationDefault GameDurationMode = "default"
	GameDurationCustom  GameDurationMode = "custom"
)

// defaultGameDuration backs GameDurationDefault mode and is the fallback
// entry in perSportGameDurations for an unrecognized sport under
// GameDurationSport mode.
const defaultGameDuration = 3 * time.Hour

// perSportGameDurations holds conservative assumed game lengths (start to
// final whistle, including typical overrun) used by GameDurationSport mode,
// keyed by lowercased sport name as providers report it.
var perSportGameDurations = map[string]time.Duration{
	"football":   3*time.Hour + 15*time.Minute, // NFL/CFB
	"basketball": 2*time.Hour + 15*time.Minute,
	"baseball":   3 * time.Hour,
	"hockey":     2*time.Hour + 30*time.Minute,
	"soccer":     2 * time.Hour,
	"mma":        3 * time.Hour,
	"boxing":     3 * time.Hour,
	"golf":       5 * time.Hour,
	"tennis":     3 * time.Hour,
	"racing":     3 * time.Hour,
}

// GameDuration returns the assumed duration of a game in the given sport,
// honoring GameDurationMode: custom always returns GameDurationOverride
// regardless of sport; sport looks up perSportGameDurations, falling back
// to defaultGameDuration for an unrecognized sport; anything else
// (including the default mode) returns defaultGameDuration.
func (s Settings) GameDuration(sport string) time.Duration {
	switch s.GameDurationMode {
	case GameDurationCustom:
		return s.GameDurationOverride
	case GameDurationSport:
		if d, ok := perSportGameDurations[strings.ToLower(sport)]; ok {
			return d
		}
		return defaultGameDuration
	default:
		return defaultGameDuration
	}
}

// Settings mirrors the settings surface's recognized options.
type Settings struct {
	ChannelCreateTiming ChannelCreateTiming
	ChannelDeleteTiming ChannelDeleteTiming

	MidnightCrossoverMode MidnightCrossoverMode

	ChannelRangeStart  int
	ChannelRangeEnd    int
	ChannelStartNumber int
	NumberingMode      NumberingMode

	SortingScope SortingScope
	SortBy       SortBy

	GameDurationMode     GameDurationMode
	GameDurationOverride time.Duration

	DispatcharrEnabled  bool
	DispatcharrURL      string
	DispatcharrUsername string
	DispatcharrPassword string
	DispatcharrEPGID    string

	SchedulerEnabled         bool
	SchedulerIntervalMinutes int
	ChannelResetEnabled      bool
	ChannelResetCron         string

	GoldZoneEnabled           bool
	GoldZoneChannelNumber     int
	GoldZoneChannelGroupID    int
	GoldZoneStreamProfileID   int
	GoldZoneChannelProfileIDs []int

	EPGTimezone        string
	Use24HourClock     bool
	ShowTZAbbreviation bool
}

// Config holds all Teamarr process configuration.
type Config struct {
	StoreDSN string // "sqlite://path/to/file.db" or "postgres://..."

	ESPNBaseURL        string
	TheSportsDBAPIKey  string
	TheSportsDBBaseURL string

	HTTPAddr string

	SentryDSN string

	LookbackHours      int
	ExtendedWindowDays int

	RetryCount     int
	RequestTimeout time.Duration

	Settings Settings
}

// Load reads configuration from the environment, loading a .env file first
// when present (a missing .env is not an error).
func Load() (*Config, error) {
	_ = godotenv.Load(".env")

	cfg := &Config{
		StoreDSN:           envOr("TEAMARR_STORE_DSN", "sqlite://teamarr.db"),
		ESPNBaseURL:        envOr("ESPN_BASE_URL", "https://site.api.espn.com"),
		TheSportsDBAPIKey:  os.Getenv("THESPORTSDB_API_KEY"),
		TheSportsDBBaseURL: envOr("THESPORTSDB_BASE_URL", "https://www.thesportsdb.com/api/v1/json"),
		HTTPAddr:           envOr("TEAMARR_HTTP_ADDR", ":8980"),
		SentryDSN:          os.Getenv("SENTRY_DSN"),
		LookbackHours:      envInt("TEAMARR_LOOKBACK_HOURS", 6),
		ExtendedWindowDays: envInt("TEAMARR_EXTENDED_WINDOW_DAYS", 60),
		RetryCount:         envInt("TEAMARR_PROVIDER_RETRY_COUNT", 3),
		RequestTimeout:     envDuration("TEAMARR_PROVIDER_TIMEOUT", 10*time.Second),

		Settings: Settings{
			ChannelCreateTiming:       ChannelCreateTiming(envOr("CHANNEL_CREATE_TIMING", string(CreateDayBefore))),
			ChannelDeleteTiming:       ChannelDeleteTiming(envOr("CHANNEL_DELETE_TIMING", string(Delete6HoursAfter))),
			MidnightCrossoverMode:     MidnightCrossoverMode(envOr("MIDNIGHT_CROSSOVER_MODE", string(CrossoverPostgame))),
			ChannelRangeStart:         envInt("CHANNEL_RANGE_START", 100),
			ChannelRangeEnd:           envInt("CHANNEL_RANGE_END", 9999),
			ChannelStartNumber:        envInt("CHANNEL_START_NUMBER", 100),
			NumberingMode:             NumberingMode(envOr("CHANNEL_NUMBERING_MODE", string(NumberingStrictBlock))),
			SortingScope:              SortingScope(envOr("CHANNEL_SORTING_SCOPE", string(SortingPerGroup))),
			SortBy:                    SortBy(envOr("CHANNEL_SORT_BY", string(SortBySportLeagueTime))),
			GameDurationMode:          GameDurationMode(envOr("GAME_DURATION_MODE", string(GameDurationSport))),
			GameDurationOverride:      envDuration("GAME_DURATION_OVERRIDE", 3*time.Hour),
			DispatcharrEnabled:        envBool("DISPATCHARR_ENABLED", false),
			DispatcharrURL:            os.Getenv("DISPATCHARR_URL"),
			DispatcharrUsername:       os.Getenv("DISPATCHARR_USERNAME"),
			DispatcharrPassword:       os.Getenv("DISPATCHARR_PASSWORD"),
			DispatcharrEPGID:          envOr("DISPATCHARR_EPG_ID", "teamarr"),
			SchedulerEnabled:          envBool("SCHEDULER_ENABLED", true),
			SchedulerIntervalMinutes:  envInt("SCHEDULER_INTERVAL_MINUTES", 30),
			ChannelResetEnabled:       envBool("CHANNEL_RESET_ENABLED", false),
			ChannelResetCron:          envOr("CHANNEL_RESET_CRON", "0 4 * * *"),
			GoldZoneEnabled:           envBool("GOLD_ZONE_ENABLED", false),
			GoldZoneChannelNumber:     envInt("GOLD_ZONE_CHANNEL_NUMBER", 0),
			GoldZoneChannelGroupID:    envInt("GOLD_ZONE_CHANNEL_GROUP_ID", 0),
			GoldZoneStreamProfileID:   envInt("GOLD_ZONE_STREAM_PROFILE_ID", 0),
			GoldZoneChannelProfileIDs: envIntList("GOLD_ZONE_CHANNEL_PROFILE_IDS", []int{0}),
			EPGTimezone:               envOr("EPG_TIMEZONE", "UTC"),
			Use24HourClock:            envBool("USE_24_HOUR_CLOCK", false),
			ShowTZAbbreviation:        envBool("SHOW_TZ_ABBREVIATION", true),
		},
	}

	if cfg.Settings.ChannelRangeEnd < cfg.Settings.ChannelRangeStart {
		return nil, fmt.Errorf("CHANNEL_RANGE_END must be >= CHANNEL_RANGE_START")
	}

	return cfg, nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func envBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func envDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func envIntList(key string, def []int) []int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	parts := strings.Split(v, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			continue
		}
		out = append(out, n)
	}
	if len(out) == 0 {
		return def
	}
	return out
}

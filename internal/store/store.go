// Package store provides the embedded relational persistence layer spec
// §1's Non-goals assume ("a single embedded relational store with
// transactions"). It wraps database/sql behind one interface with two
// interchangeable drivers: modernc.org/sqlite for the default embedded
// deployment, and jackc/pgx/v5's stdlib driver for operators who point
// Teamarr at Postgres instead. Schema bootstrap uses idempotent DDL, not a
// migration framework — migration tooling itself is out of scope.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/northernpowerhouse/teamarr/internal/detection"
	"github.com/northernpowerhouse/teamarr/internal/logging"
	"github.com/northernpowerhouse/teamarr/internal/model"
)

var log = logging.NewLogger("store")

// Store wraps a *sql.DB. Methods issue their queries directly; no method
// adds statements to the prepared map, which Close drains.
type Store struct {
	db       *sql.DB
	driver   string
	prepared map[string]*sql.Stmt
}

// Open connects to the store named by dsn. A "sqlite://" prefix selects
// the embedded driver (the remainder of the DSN is a filesystem path, or
// ":memory:" for an ephemeral store); any other scheme is passed through to
// the pgx stdlib driver.
func Open(dsn string) (*Store, error) {
	driver := "sqlite"
	connStr := dsn
	if strings.HasPrefix(dsn, "sqlite://") {
		connStr = strings.TrimPrefix(dsn, "sqlite://")
		if connStr == "" {
			connStr = ":memory:"
		}
	} else {
		driver = "pgx"
		connStr = dsn
	}

	sqlDriver := "sqlite"
	if driver == "pgx" {
		sqlDriver = "pgx"
	}

	db, err := sql.Open(sqlDriver, connStr)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	if driver == "sqlite" {
		db.SetMaxOpenConns(1) // modernc.org/sqlite is not safe for concurrent writers
	} else {
		db.SetMaxOpenConns(15)
		db.SetMaxIdleConns(5)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping store: %w", err)
	}

	s := &Store{db: db, driver: driver, prepared: make(map[string]*sql.Stmt)}
	if err := s.bootstrap(); err != nil {
		return nil, fmt.Errorf("bootstrap schema: %w", err)
	}
	return s, nil
}

// Close releases the underlying connection(s).
func (s *Store) Close() error {
	for _, stmt := range s.prepared {
		_ = stmt.Close()
	}
	return s.db.Close()
}

// HealthCheck pings the store.
func (s *Store) HealthCheck() error {
	return s.db.Ping()
}

// DB exposes the underlying handle for packages that need direct query
// access (team/league cache, lifecycle manager).
func (s *Store) DB() *sql.DB {
	return s.db
}

// Rebind exposes the "?" → "$N" placeholder rewrite for packages that
// issue their own queries directly against DB() instead of going through
// a Store method.
func (s *Store) Rebind(query string) string {
	return s.rebind(query)
}

// bootstrap creates every table Teamarr needs if absent. No row data is
// ever dropped or altered here.
func (s *Store) bootstrap() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS cache_entries (
			key TEXT PRIMARY KEY,
			value BLOB NOT NULL,
			etag TEXT NOT NULL,
			expires_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS team_configs (
			team_id TEXT NOT NULL,
			league TEXT NOT NULL,
			sport TEXT NOT NULL,
			team_name TEXT NOT NULL,
			team_abbrev TEXT,
			logo_url TEXT,
			channel_id TEXT,
			soccer_primary_league TEXT,
			soccer_primary_league_id TEXT,
			leagues TEXT,
			PRIMARY KEY (team_id, league)
		)`,
		`CREATE TABLE IF NOT EXISTS detection_keywords (
			id TEXT PRIMARY KEY,
			category TEXT NOT NULL,
			keyword TEXT NOT NULL,
			is_regex BOOLEAN NOT NULL DEFAULT 0,
			target_value TEXT,
			enabled BOOLEAN NOT NULL DEFAULT 1,
			priority INTEGER NOT NULL DEFAULT 100
		)`,
		`CREATE TABLE IF NOT EXISTS managed_channels (
			dispatcharr_channel_id TEXT PRIMARY KEY,
			channel_number INTEGER NOT NULL,
			tvg_id TEXT NOT NULL,
			event_epg_group_id TEXT NOT NULL,
			event_id TEXT NOT NULL,
			provider TEXT NOT NULL,
			exception_keyword TEXT NOT NULL DEFAULT '',
			scheduled_create_at TIMESTAMP NOT NULL,
			scheduled_delete_at TIMESTAMP NOT NULL,
			deleted_at TIMESTAMP
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_managed_channels_group_event_kw
			ON managed_channels (event_epg_group_id, event_id, exception_keyword)
			WHERE deleted_at IS NULL`,
		`CREATE TABLE IF NOT EXISTS channel_history (
			id TEXT PRIMARY KEY,
			dispatcharr_channel_id TEXT NOT NULL,
			action TEXT NOT NULL,
			detail TEXT,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS team_league_index (
			team_name TEXT NOT NULL,
			league TEXT NOT NULL,
			sport TEXT NOT NULL,
			PRIMARY KEY (team_name, league)
		)`,
		`CREATE TABLE IF NOT EXISTS team_league_refresh_state (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			last_refreshed_at TIMESTAMP,
			stale BOOLEAN NOT NULL DEFAULT 1
		)`,
		`CREATE TABLE IF NOT EXISTS event_groups (
			id TEXT PRIMARY KEY,
			config TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS downstream_channels (
			id TEXT PRIMARY KEY,
			channel_number REAL NOT NULL,
			tvg_id TEXT NOT NULL,
			config TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS downstream_logos (
			name TEXT NOT NULL,
			url TEXT NOT NULL,
			logo_id TEXT NOT NULL,
			PRIMARY KEY (name, url)
		)`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", truncate(stmt, 40), err)
		}
	}
	return nil
}

func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// rebind rewrites "?" positional placeholders into "$1", "$2", ... when the
// active driver is pgx (which, unlike the sqlite driver, does not rewrite
// queries itself).
func (s *Store) rebind(query string) string {
	if s.driver != "pgx" || !strings.Contains(query, "?") {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// CacheRow is one durable cache entry.
type CacheRow struct {
	Key       string
	Value     []byte
	ETag      string
	ExpiresAt time.Time
}

// CachePut upserts a durable cache entry.
func (s *Store) CachePut(key string, value []byte, etag string, expiresAt time.Time) error {
	_, err := s.db.Exec(s.rebind(
		`INSERT INTO cache_entries (key, value, etag, expires_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, etag = excluded.etag, expires_at = excluded.expires_at`),
		key, value, etag, expiresAt,
	)
	return err
}

// CacheDelete removes a durable cache entry.
func (s *Store) CacheDelete(key string) error {
	_, err := s.db.Exec(s.rebind(`DELETE FROM cache_entries WHERE key = ?`), key)
	return err
}

// CacheClear removes all durable cache entries.
func (s *Store) CacheClear() error {
	_, err := s.db.Exec(`DELETE FROM cache_entries`)
	return err
}

// CacheLoadAll returns every durable cache row, including expired ones
// (the caller filters); used to repopulate the in-memory tier at startup.
func (s *Store) CacheLoadAll() ([]CacheRow, error) {
	rows, err := s.db.Query(`SELECT key, value, etag, expires_at FROM cache_entries`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CacheRow
	for rows.Next() {
		var r CacheRow
		if err := rows.Scan(&r.Key, &r.Value, &r.ETag, &r.ExpiresAt); err != nil {
			continue
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ── Team configs ─────────────────────────────────────────────────────

// TeamConfigRow is one active team: a single configured league, plus the
// full set of leagues known for that team_id (soccer multi-competition
// consolidation, component teamimport's BulkImport output).
type TeamConfigRow struct {
	model.TeamConfig
	Leagues []string
}

// ListTeamConfigs returns every configured team, ordered by team_id then
// league for deterministic cycle ordering.
func (s *Store) ListTeamConfigs() ([]TeamConfigRow, error) {
	rows, err := s.db.Query(`SELECT team_id, league, sport, team_name, team_abbrev, logo_url,
		channel_id, soccer_primary_league, soccer_primary_league_id, leagues
		FROM team_configs ORDER BY team_id, league`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TeamConfigRow
	for rows.Next() {
		var r TeamConfigRow
		var leagues sql.NullString
		if err := rows.Scan(&r.TeamID, &r.League, &r.Sport, &r.TeamName, &r.TeamAbbrev,
			&r.LogoURL, &r.ChannelID, &r.SoccerPrimaryLeague, &r.SoccerPrimaryLeagueID, &leagues); err != nil {
			return nil, fmt.Errorf("scan team_config row: %w", err)
		}
		if leagues.Valid && leagues.String != "" {
			r.Leagues = strings.Split(leagues.String, ",")
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// UpsertTeamConfig inserts or replaces the (team_id, league) row.
func (s *Store) UpsertTeamConfig(r TeamConfigRow) error {
	_, err := s.db.Exec(s.rebind(`
		INSERT INTO team_configs (team_id, league, sport, team_name, team_abbrev, logo_url,
			channel_id, soccer_primary_league, soccer_primary_league_id, leagues)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(team_id, league) DO UPDATE SET
			sport = excluded.sport, team_name = excluded.team_name, team_abbrev = excluded.team_abbrev,
			logo_url = excluded.logo_url, channel_id = excluded.channel_id,
			soccer_primary_league = excluded.soccer_primary_league,
			soccer_primary_league_id = excluded.soccer_primary_league_id, leagues = excluded.leagues`),
		r.TeamID, r.League, r.Sport, r.TeamName, r.TeamAbbrev, r.LogoURL, r.ChannelID,
		r.SoccerPrimaryLeague, r.SoccerPrimaryLeagueID, strings.Join(r.Leagues, ","),
	)
	return err
}

// DeleteTeamConfig removes one (team_id, league) row.
func (s *Store) DeleteTeamConfig(teamID, league string) error {
	_, err := s.db.Exec(s.rebind(`DELETE FROM team_configs WHERE team_id = ? AND league = ?`), teamID, league)
	return err
}

// ── Detection keywords ───────────────────────────────────────────────

// DetectionKeywordRow is one user-supplied detection row (persisted form
// of detection.Row; BuiltIn rows are never persisted, only compiled in
// at detection.New()).
type DetectionKeywordRow struct {
	ID          string
	Category    detection.Category
	Keyword     string
	IsRegex     bool
	TargetValue string
	Enabled     bool
	Priority    int
}

// ListDetectionKeywords returns every user-supplied row, optionally
// filtered by category (pass "" for all).
func (s *Store) ListDetectionKeywords(category string) ([]DetectionKeywordRow, error) {
	query := `SELECT id, category, keyword, is_regex, target_value, enabled, priority FROM detection_keywords`
	args := []any{}
	if category != "" {
		query += ` WHERE category = ?`
		args = append(args, category)
	}
	query += ` ORDER BY category, priority`

	rows, err := s.db.Query(s.rebind(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []DetectionKeywordRow
	for rows.Next() {
		var r DetectionKeywordRow
		var cat string
		if err := rows.Scan(&r.ID, &cat, &r.Keyword, &r.IsRegex, &r.TargetValue, &r.Enabled, &r.Priority); err != nil {
			return nil, fmt.Errorf("scan detection_keyword row: %w", err)
		}
		r.Category = detection.Category(cat)
		out = append(out, r)
	}
	return out, rows.Err()
}

// UpsertDetectionKeyword inserts or replaces one user-supplied row.
func (s *Store) UpsertDetectionKeyword(r DetectionKeywordRow) error {
	_, err := s.db.Exec(s.rebind(`
		INSERT INTO detection_keywords (id, category, keyword, is_regex, target_value, enabled, priority)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			category = excluded.category, keyword = excluded.keyword, is_regex = excluded.is_regex,
			target_value = excluded.target_value, enabled = excluded.enabled, priority = excluded.priority`),
		r.ID, string(r.Category), r.Keyword, r.IsRegex, r.TargetValue, r.Enabled, r.Priority,
	)
	return err
}

// DeleteDetectionKeyword removes one user-supplied row by id.
func (s *Store) DeleteDetectionKeyword(id string) error {
	_, err := s.db.Exec(s.rebind(`DELETE FROM detection_keywords WHERE id = ?`), id)
	return err
}

// ── Event groups ──────────────────────────────────────────────────────
//
// model.EventGroup's nested scope/league fields don't map cleanly onto a
// normalized schema without a handful of child tables for what is, in
// practice, a handful of rows hand-edited by an operator. Persisted as a
// JSON blob per row instead, the same durability tradeoff this file
// already makes for cache_entries.values.

// UpsertEventGroup inserts or replaces one event group, identified by ID.
func (s *Store) UpsertEventGroup(g model.EventGroup) error {
	blob, err := json.Marshal(g)
	if err != nil {
		return fmt.Errorf("marshal event group: %w", err)
	}
	_, err = s.db.Exec(s.rebind(`
		INSERT INTO event_groups (id, config) VALUES (?, ?)
		ON CONFLICT(id) DO UPDATE SET config = excluded.config`),
		g.ID, string(blob),
	)
	return err
}

// ListEventGroups returns every configured event group.
func (s *Store) ListEventGroups() ([]model.EventGroup, error) {
	rows, err := s.db.Query(`SELECT config FROM event_groups ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.EventGroup
	for rows.Next() {
		var blob string
		if err := rows.Scan(&blob); err != nil {
			return nil, fmt.Errorf("scan event_group row: %w", err)
		}
		var g model.EventGroup
		if err := json.Unmarshal([]byte(blob), &g); err != nil {
			log.WithError(err).Warn("skipping malformed event_group row")
			continue
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// DeleteEventGroup removes one event group by id.
func (s *Store) DeleteEventGroup(id string) error {
	_, err := s.db.Exec(s.rebind(`DELETE FROM event_groups WHERE id = ?`), id)
	return err
}

// ── Downstream channels (local backend) ──────────────────────────────
//
// downstream.Channel carries several list/map fields (Streams,
// ChannelProfileIDs) that don't fit a flat row; persisted as a JSON blob
// per row, same tradeoff as event_groups, with channel_number and tvg_id
// broken out as plain (unindexed) columns for the lookups
// internal/goldzone and internal/lifecycle need.

// UpsertDownstreamChannel inserts or replaces one channel row.
func (s *Store) UpsertDownstreamChannel(ch DownstreamChannelRow) error {
	blob, err := json.Marshal(ch)
	if err != nil {
		return fmt.Errorf("marshal downstream channel: %w", err)
	}
	_, err = s.db.Exec(s.rebind(`
		INSERT INTO downstream_channels (id, channel_number, tvg_id, config) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			channel_number = excluded.channel_number, tvg_id = excluded.tvg_id, config = excluded.config`),
		ch.ID, ch.ChannelNumber, ch.TVGID, string(blob),
	)
	return err
}

// GetDownstreamChannel fetches one channel by id.
func (s *Store) GetDownstreamChannel(id string) (DownstreamChannelRow, bool, error) {
	return s.queryOneDownstreamChannel(`SELECT config FROM downstream_channels WHERE id = ?`, id)
}

// FindDownstreamChannelByNumber looks up a channel by its assigned number.
func (s *Store) FindDownstreamChannelByNumber(number float64) (DownstreamChannelRow, bool, error) {
	return s.queryOneDownstreamChannel(`SELECT config FROM downstream_channels WHERE channel_number = ?`, number)
}

// FindDownstreamChannelByTVGID looks up a channel by tvg_id.
func (s *Store) FindDownstreamChannelByTVGID(tvgID string) (DownstreamChannelRow, bool, error) {
	return s.queryOneDownstreamChannel(`SELECT config FROM downstream_channels WHERE tvg_id = ?`, tvgID)
}

func (s *Store) queryOneDownstreamChannel(query string, arg any) (DownstreamChannelRow, bool, error) {
	var blob string
	err := s.db.QueryRow(s.rebind(query), arg).Scan(&blob)
	if err == sql.ErrNoRows {
		return DownstreamChannelRow{}, false, nil
	}
	if err != nil {
		return DownstreamChannelRow{}, false, err
	}
	var ch DownstreamChannelRow
	if err := json.Unmarshal([]byte(blob), &ch); err != nil {
		return DownstreamChannelRow{}, false, fmt.Errorf("unmarshal downstream channel: %w", err)
	}
	return ch, true, nil
}

// ListDownstreamChannels returns every channel row.
func (s *Store) ListDownstreamChannels() ([]DownstreamChannelRow, error) {
	rows, err := s.db.Query(`SELECT config FROM downstream_channels ORDER BY channel_number`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []DownstreamChannelRow
	for rows.Next() {
		var blob string
		if err := rows.Scan(&blob); err != nil {
			return nil, fmt.Errorf("scan downstream_channel row: %w", err)
		}
		var ch DownstreamChannelRow
		if err := json.Unmarshal([]byte(blob), &ch); err != nil {
			log.WithError(err).Warn("skipping malformed downstream_channel row")
			continue
		}
		out = append(out, ch)
	}
	return out, rows.Err()
}

// DeleteDownstreamChannel removes one channel by id.
func (s *Store) DeleteDownstreamChannel(id string) error {
	_, err := s.db.Exec(s.rebind(`DELETE FROM downstream_channels WHERE id = ?`), id)
	return err
}

// DownstreamChannelRow is the JSON-serializable shape stored per row;
// defined here (rather than imported from internal/downstream) to keep
// this package independent of the downstream contract package, the same
// layering internal/goldzone's Candidate/Stream embedding avoids.
type DownstreamChannelRow struct {
	ID                string
	Name              string
	ChannelNumber     float64
	TVGID             string
	ChannelGroupID    string
	ChannelProfileIDs []int
	StreamProfileID   string
	Streams           []string
}

// FindOrCreateDownstreamLogo returns the stored logo id for (name, url),
// inserting the caller-supplied newID if absent. Mirrors the "upload once,
// reuse by URL" contract of downstream.LogoManager without an actual
// upload target.
func (s *Store) FindOrCreateDownstreamLogo(name, url, newID string) (logoID string, created bool, err error) {
	var existing string
	err = s.db.QueryRow(s.rebind(`SELECT logo_id FROM downstream_logos WHERE name = ? AND url = ?`), name, url).Scan(&existing)
	if err == nil {
		return existing, false, nil
	}
	if err != sql.ErrNoRows {
		return "", false, err
	}
	_, err = s.db.Exec(s.rebind(`INSERT INTO downstream_logos (name, url, logo_id) VALUES (?, ?, ?)`), name, url, newID)
	if err != nil {
		return "", false, err
	}
	return newID, true, nil
}

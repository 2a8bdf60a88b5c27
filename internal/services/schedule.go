package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/courtside/pickem/internal/models"
	"github.com/courtside/pickem/internal/providers"
	"github.com/courtside/pickem/pkg/database"
)

// ESPN athlete ids are offset into a range that cannot collide with NBA
// Stats player ids, so roster entries stay selectable even when no NBA id
// mapping exists for a player.
const espnFallbackIDOffset int64 = 10_000_000_000

// IsFallbackPlayerID reports whether id came from the ESPN fallback range
// rather than NBA Stats. No game log history exists for these ids.
func IsFallbackPlayerID(id int64) bool {
	return id >= espnFallbackIDOffset
}

// ScheduleSource is the upstream schedule/roster feed.
type ScheduleSource interface {
	Scoreboard(ctx context.Context, date time.Time) ([]providers.ScheduledGame, error)
	Roster(ctx context.Context, teamID string) (*providers.TeamRoster, error)
}

// ScheduleService serves the day's slate and team rosters, caching payloads
// in redis (fast path) and the database (fallback) so upstream is not hit on
// every page load.
type ScheduleService struct {
	db          *database.DB
	cache       *CacheService
	source      ScheduleSource
	scheduleTTL time.Duration
	rosterTTL   time.Duration
	logger      *logrus.Logger
}

func NewScheduleService(db *database.DB, cache *CacheService, source ScheduleSource, scheduleTTL, rosterTTL time.Duration, logger *logrus.Logger) *ScheduleService {
	return &ScheduleService{
		db:          db,
		cache:       cache,
		source:      source,
		scheduleTTL: scheduleTTL,
		rosterTTL:   rosterTTL,
		logger:      logger,
	}
}

// GamesForDate returns the slate for a date, refreshing the caches once the
// TTL lapses. When upstream is down and no fresh cache exists the error
// propagates; callers surface a retry-shortly response.
func (s *ScheduleService) GamesForDate(ctx context.Context, date time.Time) ([]providers.ScheduledGame, error) {
	date = DateOnly(date)

	if s.cache != nil {
		var cached []providers.ScheduledGame
		if err := s.cache.Get(ctx, ScheduleCacheKey(date), &cached); err == nil {
			return cached, nil
		}
	}

	var row models.ScheduleCache
	err := s.db.Where("date = ?", date).First(&row).Error
	haveRow := err == nil
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("schedule cache lookup: %w", err)
	}

	if haveRow && time.Since(row.FetchedAt) < s.scheduleTTL {
		var games []providers.ScheduledGame
		if err := json.Unmarshal(row.Games, &games); err != nil {
			return nil, fmt.Errorf("schedule cache decode: %w", err)
		}
		s.primeRedis(ctx, ScheduleCacheKey(date), games, s.scheduleTTL)
		return games, nil
	}

	games, err := s.source.Scoreboard(ctx, date)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(games)
	if err != nil {
		return nil, fmt.Errorf("schedule encode: %w", err)
	}
	now := time.Now().UTC()
	cacheRow := models.ScheduleCache{
		Date:      date,
		Games:     payload,
		FetchedAt: now,
	}
	err = s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{"games", "fetched_at"}),
	}).Create(&cacheRow).Error
	if err != nil {
		return nil, fmt.Errorf("schedule cache store: %w", err)
	}

	// Per-game metadata lets roster lookups resolve team ids from a game id.
	for _, game := range games {
		meta := models.GameMeta{
			GameID:     game.GameID,
			Date:       date,
			StartTime:  game.StartTime,
			HomeTeam:   game.HomeTeam,
			AwayTeam:   game.AwayTeam,
			HomeTeamID: game.HomeTeamID,
			AwayTeamID: game.AwayTeamID,
			FetchedAt:  now,
		}
		err = s.db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "game_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"date", "start_time", "home_team", "away_team", "home_team_id", "away_team_id", "fetched_at"}),
		}).Create(&meta).Error
		if err != nil {
			return nil, fmt.Errorf("game meta store: %w", err)
		}
	}

	s.primeRedis(ctx, ScheduleCacheKey(date), games, s.scheduleTTL)
	return games, nil
}

// GameMeta returns the stored metadata for a game id.
func (s *ScheduleService) GameMeta(ctx context.Context, gameID string) (*models.GameMeta, error) {
	var meta models.GameMeta
	if err := s.db.Where("game_id = ?", gameID).First(&meta).Error; err != nil {
		return nil, err
	}
	return &meta, nil
}

// RosterEntry is a selectable player on a game roster. PlayerID carries the
// ESPN athlete id offset out of the NBA Stats id range.
type RosterEntry struct {
	PlayerID   int64  `json:"player_id"`
	PlayerName string `json:"player_name"`
	Position   string `json:"position,omitempty"`
	Jersey     string `json:"jersey,omitempty"`
}

// TeamRosterOut is one side's roster for a game.
type TeamRosterOut struct {
	TeamID   string        `json:"team_id"`
	TeamName string        `json:"team_name"`
	TeamAbbr string        `json:"team_abbr"`
	Players  []RosterEntry `json:"players"`
}

// GameRosters is both rosters for one game.
type GameRosters struct {
	GameID      string        `json:"game_id"`
	Date        time.Time     `json:"date"`
	Source      string        `json:"source"`
	LastUpdated time.Time     `json:"last_updated"`
	Home        TeamRosterOut `json:"home"`
	Away        TeamRosterOut `json:"away"`
}

// Rosters returns both teams' rosters for a game (6h TTL by default).
func (s *ScheduleService) Rosters(ctx context.Context, gameID string) (*GameRosters, error) {
	meta, err := s.GameMeta(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if meta.HomeTeamID == "" || meta.AwayTeamID == "" {
		return nil, fmt.Errorf("game %s: missing team ids", gameID)
	}

	home, err := s.teamRoster(ctx, meta.HomeTeamID, meta.HomeTeam)
	if err != nil {
		return nil, err
	}
	away, err := s.teamRoster(ctx, meta.AwayTeamID, meta.AwayTeam)
	if err != nil {
		return nil, err
	}

	return &GameRosters{
		GameID:      gameID,
		Date:        meta.Date,
		Source:      "espn",
		LastUpdated: meta.FetchedAt,
		Home:        *home,
		Away:        *away,
	}, nil
}

func (s *ScheduleService) teamRoster(ctx context.Context, teamID, fallbackLabel string) (*TeamRosterOut, error) {
	roster, err := s.cachedRoster(ctx, teamID)
	if err != nil {
		return nil, err
	}

	out := &TeamRosterOut{
		TeamID:   teamID,
		TeamName: roster.TeamName,
		TeamAbbr: roster.TeamAbbr,
		Players:  make([]RosterEntry, 0, len(roster.Players)),
	}
	if out.TeamName == "" {
		out.TeamName = fallbackLabel
	}
	for _, player := range roster.Players {
		athleteID, err := strconv.ParseInt(player.AthleteID, 10, 64)
		if err != nil || athleteID == 0 {
			continue
		}
		out.Players = append(out.Players, RosterEntry{
			PlayerID:   espnFallbackIDOffset + athleteID,
			PlayerName: player.FullName,
			Position:   player.Position,
			Jersey:     player.Jersey,
		})
	}
	return out, nil
}

func (s *ScheduleService) cachedRoster(ctx context.Context, teamID string) (*providers.TeamRoster, error) {
	if s.cache != nil {
		var cached providers.TeamRoster
		if err := s.cache.Get(ctx, RosterCacheKey(teamID), &cached); err == nil {
			return &cached, nil
		}
	}

	var row models.TeamRosterCache
	err := s.db.Where("team_id = ?", teamID).First(&row).Error
	haveRow := err == nil
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("roster cache lookup: %w", err)
	}

	if haveRow && time.Since(row.FetchedAt) < s.rosterTTL {
		var roster providers.TeamRoster
		if err := json.Unmarshal(row.Roster, &roster); err != nil {
			return nil, fmt.Errorf("roster cache decode: %w", err)
		}
		s.primeRedis(ctx, RosterCacheKey(teamID), &roster, s.rosterTTL)
		return &roster, nil
	}

	roster, err := s.source.Roster(ctx, teamID)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(roster)
	if err != nil {
		return nil, fmt.Errorf("roster encode: %w", err)
	}
	cacheRow := models.TeamRosterCache{
		TeamID:    teamID,
		TeamName:  roster.TeamName,
		TeamAbbr:  roster.TeamAbbr,
		Roster:    payload,
		FetchedAt: time.Now().UTC(),
	}
	err = s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "team_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"team_name", "team_abbr", "roster", "fetched_at"}),
	}).Create(&cacheRow).Error
	if err != nil {
		return nil, fmt.Errorf("roster cache store: %w", err)
	}

	s.primeRedis(ctx, RosterCacheKey(teamID), roster, s.rosterTTL)
	return roster, nil
}

func (s *ScheduleService) primeRedis(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, value, ttl); err != nil {
		s.logger.WithError(err).Debugf("Failed to prime cache key %s", key)
	}
}

package api

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/courtside/pickem/internal/api/handlers"
	"github.com/courtside/pickem/internal/projection"
	"github.com/courtside/pickem/internal/providers"
	"github.com/courtside/pickem/internal/services"
	"github.com/courtside/pickem/pkg/config"
	"github.com/courtside/pickem/pkg/database"
)

// Dependencies carries everything the route handlers need, built once in
// main and threaded through here.
type Dependencies struct {
	Config   *config.Config
	DB       *database.DB
	Store    *services.Store
	Engine   *projection.Engine
	Schedule *services.ScheduleService
	Lines    *services.LinesService
	Scorer   *services.Scorer
	NBA      *providers.NBAStatsClient
	Logger   *logrus.Logger
}

// SetupRoutes wires all API routes onto the versioned route group.
func SetupRoutes(v1 *gin.RouterGroup, deps Dependencies) {
	groupHandler := handlers.NewGroupHandler(deps.DB)
	pickHandler := handlers.NewPickHandler(deps.DB, deps.Config.PickLockHour, deps.Config.PickTimezone, deps.Logger)
	projectionHandler := handlers.NewProjectionHandler(deps.Store, deps.Engine, deps.Lines, deps.NBA, deps.Logger)
	gameHandler := handlers.NewGameHandler(deps.Schedule, deps.NBA, deps.Logger)
	scoringHandler := handlers.NewScoringHandler(deps.DB, deps.Scorer, deps.Logger)

	v1.GET("/health", handlers.NewHealthHandler(deps.DB).Health)

	groups := v1.Group("/groups")
	{
		groups.POST("", groupHandler.CreateGroup)
		groups.POST("/join", groupHandler.JoinGroup)
		groups.GET("/search", groupHandler.SearchGroups)
		groups.GET("/:code/members", groupHandler.ListMembers)

		groups.POST("/:code/picks", pickHandler.CreatePick)
		groups.GET("/:code/picks", pickHandler.ListPicks)

		groups.POST("/:code/score", scoringHandler.ScoreDay)
		groups.GET("/:code/leaderboard", scoringHandler.DayLeaderboard)
		groups.GET("/:code/leaderboard/alltime", scoringHandler.AllTimeLeaderboard)
	}

	nba := v1.Group("/nba")
	{
		nba.GET("/games", gameHandler.ListGames)
		nba.GET("/players", gameHandler.ListPlayers)
		nba.GET("/games/:gameId/rosters", gameHandler.GameRosters)
		nba.GET("/games/:gameId/players", gameHandler.GamePlayers)
		nba.GET("/players/:id/projection", projectionHandler.PlayerProjection)
	}
}

package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/yassinebk/TaleForge/internal/database"
	"golang.org/x/time/rate"
)

func (s *Server) RegisterRoutes() http.Handler {
	e := echo.New()
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(rate.Limit(20))))

	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     corsOrigins(),
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	e.Logger.SetLevel(log.INFO)
	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: "method=${method}, uri=${uri}, status=${status}\n",
	}))

	DEBUG(e)

	e.GET("/", func(c echo.Context) error {
		return c.Redirect(http.StatusMovedPermanently, "/api/v1/health")
	})

	e.POST("/api/v1/register", s.Register)
	e.POST("/api/v1/login", s.Login)
	e.GET("/api/v1/users/:id", s.GetProfile)
	e.PUT("/api/v1/profile", s.UpdateProfile, s.JWTMiddleware())
	e.POST("/api/v1/users/:id/follow", s.FollowUser, s.JWTMiddleware())
	e.DELETE("/api/v1/users/:id/follow", s.UnfollowUser, s.JWTMiddleware())
	e.GET("/api/v1/leaderboard", s.Leaderboard)

	e.POST("/api/v1/stories", s.CreateStory, s.JWTMiddleware())
	e.GET("/api/v1/stories", s.GetStories)
	e.GET("/api/v1/stories/:id", s.GetStory)
	e.POST("/api/v1/stories/:id/vote", s.VoteStory, s.JWTMiddleware())
	e.PUT("/api/v1/stories/:id/content", s.ReplaceContent, s.JWTMiddleware())
	e.POST("/api/v1/stories/:id/chapters", s.AddChapter, s.JWTMiddleware())
	e.PUT("/api/v1/stories/:id/chapters/:chapterId", s.EditChapter, s.JWTMiddleware())
	e.POST("/api/v1/stories/:id/chapters/:chapterId/like", s.LikeChapter, s.JWTMiddleware())
	e.GET("/api/v1/stories/:id/pending", s.ListPendingChapters, s.JWTMiddleware())
	e.POST("/api/v1/stories/:id/pending/:pendingId/approve", s.ApprovePendingChapter, s.JWTMiddleware())
	e.DELETE("/api/v1/stories/:id/pending/:pendingId", s.RejectPendingChapter, s.JWTMiddleware())

	e.GET("/api/v1/battles", s.GetBattles)
	e.POST("/api/v1/battles", s.CreateBattle, s.JWTMiddleware())
	e.GET("/api/v1/battles/:id", s.GetBattle)
	e.POST("/api/v1/battles/:id/join", s.JoinBattle, s.JWTMiddleware())
	e.POST("/api/v1/battles/:id/submit", s.SubmitToBattle, s.JWTMiddleware())
	e.GET("/api/v1/battles/:id/submissions", s.GetBattleSubmissions)
	e.POST("/api/v1/battles/submissions/:id/vote", s.VoteSubmission, s.JWTMiddleware())

	e.GET("/api/v1/health", s.healthHandler)
	e.RouteNotFound("/*", func(c echo.Context) error {
		return c.JSON(http.StatusNotFound, map[string]string{"message": "Not found"})
	})

	return e
}

var debug = os.Getenv("DEBUG") == "true"

func corsOrigins() []string {
	if origin := os.Getenv("CORS_ORIGIN"); origin != "" {
		return strings.Split(origin, ",")
	}
	return []string{"https://*", "http://*"}
}

func DEBUG(e *echo.Echo) {
	if debug {
		e.Use(middleware.BodyDump(func(c echo.Context, reqBody, resBody []byte) {
			if len(reqBody) > 0 {
				var formattedReq any
				if err := json.Unmarshal(reqBody, &formattedReq); err != nil {
					log.Printf("Request Body (raw): \n%s\n", string(reqBody))
					c.Logger().Error("Error parsing request body: " + err.Error())
				} else {
					reqBodyJson, err := json.MarshalIndent(formattedReq, "", "  ")
					if err != nil {
						log.Printf("Request Body (raw): \n%s\n", string(reqBody))
						c.Logger().Error("Error marshaling request body: " + err.Error())
					} else {
						c.Logger().Debug("Request Body:\n" + string(reqBodyJson))
					}
				}
			}

			if len(resBody) > 0 {
				var formattedRes any
				if err := json.Unmarshal(resBody, &formattedRes); err != nil {
					log.Printf("Response Body (raw): \n%s\n", string(resBody))
					c.Logger().Error("Error parsing response body: " + err.Error())
				} else {
					resBodyJson, err := json.MarshalIndent(formattedRes, "", "  ")
					if err != nil {
						log.Printf("Response Body (raw): \n%s\n", string(resBody))
						c.Logger().Error("Error marshaling response body: " + err.Error())
					} else {
						c.Logger().Debug("Response Body:\n" + string(resBodyJson))
					}
				}
			}
		}))
	}
}

func (s *Server) JWTMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, map[string]string{"message": "Invalid token format"})
			}

			userID, err := s.db.ValidateToken(authHeader)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, map[string]string{"message": "Unauthorized: Invalid or expired token"})
			}

			c.Set("user_id", userID)
			return next(c)
		}
	}
}

func (s *Server) healthHandler(c echo.Context) error {
	health, err := s.db.Health()
	if err != nil {
		c.Logger().Error(err.Error())
		return c.JSON(http.StatusInternalServerError, map[string]string{"message": "Internal server error"})
	}
	return c.JSON(http.StatusOK, health)
}

// dbJSONError maps a Service error onto the HTTP taxonomy: precondition
// sentinels carry their own message and status, everything else is a 500.
func dbJSONError(c echo.Context, err error) error {
	for _, notFound := range []error{
		database.ErrUserNotFound,
		database.ErrStoryNotFound,
		database.ErrChapterNotFound,
		database.ErrPendingNotFound,
		database.ErrBattleNotFound,
		database.ErrSubmissionNotFound,
	} {
		if errors.Is(err, notFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"message": err.Error()})
		}
	}

	switch {
	case errors.Is(err, database.ErrNotAuthor), errors.Is(err, database.ErrNotParticipant):
		return c.JSON(http.StatusForbidden, map[string]string{"message": err.Error()})
	case errors.Is(err, database.ErrInvalidCredentials):
		return c.JSON(http.StatusUnauthorized, map[string]string{"message": err.Error()})
	case errors.Is(err, database.ErrEmailTaken):
		return c.JSON(http.StatusConflict, map[string]string{"message": err.Error()})
	}

	for _, precondition := range []error{
		database.ErrSelfFollow,
		database.ErrInvalidBattleTimes,
		database.ErrBattleNotJoinable,
		database.ErrBattleFull,
		database.ErrAlreadyJoined,
		database.ErrSubmissionClosed,
		database.ErrAlreadySubmitted,
		database.ErrVotingClosed,
		database.ErrSelfVote,
		database.ErrAlreadyVoted,
	} {
		if errors.Is(err, precondition) {
			return c.JSON(http.StatusBadRequest, map[string]string{"message": err.Error()})
		}
	}

	c.Logger().Error(err.Error())
	return c.JSON(http.StatusInternalServerError, map[string]string{"message": "Internal server error"})
}

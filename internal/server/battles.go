package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/yassinebk/TaleForge/internal/data"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func (s *Server) CreateBattle(c echo.Context) error {
	var request struct {
		Title           string       `json:"title" validate:"required,min=3,max=100"`
		Description     string       `json:"description" validate:"required,min=10,max=1000"`
		Theme           string       `json:"theme" validate:"required,battle_theme"`
		BattleType      string       `json:"battle_type" validate:"required,battle_type"`
		StartTime       time.Time    `json:"start_time" validate:"required"`
		EndTime         time.Time    `json:"end_time" validate:"required"`
		VotingEndTime   time.Time    `json:"voting_end_time" validate:"required"`
		MaxParticipants int          `json:"max_participants" validate:"required,min=2,max=100"`
		Prizes          []data.Prize `json:"prizes" validate:"dive"`
	}
	if err := c.Bind(&request); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"message": "Invalid request body"})
	}
	if fieldErrors, err := data.ValidateStruct(&request); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{"message": "Validation failed", "errors": fieldErrors})
	}

	battle := data.StoryBattle{
		Title:           request.Title,
		Description:     request.Description,
		Theme:           request.Theme,
		BattleType:      request.BattleType,
		StartTime:       request.StartTime,
		EndTime:         request.EndTime,
		VotingEndTime:   request.VotingEndTime,
		MaxParticipants: request.MaxParticipants,
		Prizes:          request.Prizes,
		CreatedBy:       c.Get("user_id").(primitive.ObjectID),
	}
	if err := s.db.CreateBattle(&battle); err != nil {
		return dbJSONError(c, err)
	}
	return c.JSON(http.StatusCreated, map[string]any{"message": "Battle created successfully", "battle": battle})
}

func (s *Server) GetBattles(c echo.Context) error {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	filters := data.BattleFilters{
		Status: c.QueryParam("status"),
		Theme:  c.QueryParam("theme"),
		Search: c.QueryParam("search"),
		Page:   page,
		Limit:  limit,
	}

	battles, total, err := s.db.GetBattles(filters)
	if err != nil {
		return dbJSONError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"message": "Battles found",
		"battles": battles,
		"total":   total,
	})
}

func (s *Server) GetBattle(c echo.Context) error {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"message": "Invalid battle ID"})
	}

	battle, err := s.db.GetBattle(id)
	if err != nil {
		return dbJSONError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"message": "Battle found", "battle": battle})
}

func (s *Server) JoinBattle(c echo.Context) error {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"message": "Invalid battle ID"})
	}

	userID := c.Get("user_id").(primitive.ObjectID)
	if err := s.db.JoinBattle(id, userID); err != nil {
		return dbJSONError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Joined battle successfully"})
}

func (s *Server) SubmitToBattle(c echo.Context) error {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"message": "Invalid battle ID"})
	}

	var request struct {
		Title   string `json:"title" validate:"required,min=3,max=100"`
		Content string `json:"content" validate:"required,max=5000"`
	}
	if err := c.Bind(&request); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"message": "Invalid request body"})
	}
	if fieldErrors, err := data.ValidateStruct(&request); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{"message": "Validation failed", "errors": fieldErrors})
	}

	userID := c.Get("user_id").(primitive.ObjectID)
	submission, err := s.db.SubmitToBattle(id, userID, request.Title, request.Content)
	if err != nil {
		return dbJSONError(c, err)
	}
	return c.JSON(http.StatusCreated, map[string]any{"message": "Submission created successfully", "submission": submission})
}

func (s *Server) VoteSubmission(c echo.Context) error {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"message": "Invalid submission ID"})
	}

	userID := c.Get("user_id").(primitive.ObjectID)
	if err := s.db.VoteSubmission(id, userID); err != nil {
		return dbJSONError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Vote recorded"})
}

func (s *Server) GetBattleSubmissions(c echo.Context) error {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"message": "Invalid battle ID"})
	}

	submissions, err := s.db.GetBattleSubmissions(id)
	if err != nil {
		return dbJSONError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"message": "Submissions found", "submissions": submissions})
}

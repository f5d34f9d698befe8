package server

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/yassinebk/TaleForge/internal/data"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func (s *Server) Register(c echo.Context) error {
	var request struct {
		Name     string `json:"name" validate:"required,min=2,max=100"`
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required,min=8,max=72"`
	}
	if err := c.Bind(&request); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"message": "Invalid request body"})
	}
	if fieldErrors, err := data.ValidateStruct(&request); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{"message": "Validation failed", "errors": fieldErrors})
	}

	user := data.User{Name: request.Name, Email: request.Email}
	if err := s.db.CreateUser(&user, request.Password); err != nil {
		return dbJSONError(c, err)
	}

	token, err := s.db.IssueToken(user.ID)
	if err != nil {
		c.Logger().Error(err.Error())
		return c.JSON(http.StatusInternalServerError, map[string]string{"message": "Internal server error"})
	}

	return c.JSON(http.StatusCreated, map[string]any{
		"message": "User registered successfully",
		"user":    user,
		"token":   token,
	})
}

func (s *Server) Login(c echo.Context) error {
	var request struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}
	if err := c.Bind(&request); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"message": "Invalid request body"})
	}
	if fieldErrors, err := data.ValidateStruct(&request); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{"message": "Validation failed", "errors": fieldErrors})
	}

	user, err := s.db.AuthenticateUser(request.Email, request.Password)
	if err != nil {
		return dbJSONError(c, err)
	}

	token, err := s.db.IssueToken(user.ID)
	if err != nil {
		c.Logger().Error(err.Error())
		return c.JSON(http.StatusInternalServerError, map[string]string{"message": "Internal server error"})
	}

	return c.JSON(http.StatusOK, map[string]any{
		"message": "Logged in successfully",
		"user":    user,
		"token":   token,
	})
}

func (s *Server) GetProfile(c echo.Context) error {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"message": "Invalid user ID"})
	}

	profile, err := s.db.GetProfile(id)
	if err != nil {
		return dbJSONError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"message": "Profile found", "profile": profile})
}

func (s *Server) UpdateProfile(c echo.Context) error {
	var request struct {
		Name    string `json:"name" validate:"omitempty,min=2,max=100"`
		Bio     string `json:"bio" validate:"omitempty,max=500"`
		Picture string `json:"picture" validate:"omitempty,url"`
	}
	if err := c.Bind(&request); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"message": "Invalid request body"})
	}
	if fieldErrors, err := data.ValidateStruct(&request); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{"message": "Validation failed", "errors": fieldErrors})
	}

	userID := c.Get("user_id").(primitive.ObjectID)
	if err := s.db.UpdateProfile(userID, request.Name, request.Bio, request.Picture); err != nil {
		return dbJSONError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Profile updated successfully"})
}

func (s *Server) FollowUser(c echo.Context) error {
	target, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"message": "Invalid user ID"})
	}

	userID := c.Get("user_id").(primitive.ObjectID)
	if err := s.db.FollowUser(userID, target); err != nil {
		return dbJSONError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Followed successfully"})
}

func (s *Server) UnfollowUser(c echo.Context) error {
	target, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"message": "Invalid user ID"})
	}

	userID := c.Get("user_id").(primitive.ObjectID)
	if err := s.db.UnfollowUser(userID, target); err != nil {
		return dbJSONError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Unfollowed successfully"})
}

func (s *Server) Leaderboard(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	entries, err := s.db.Leaderboard(limit)
	if err != nil {
		return dbJSONError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"message": "Leaderboard found", "leaderboard": entries})
}

package server

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/yassinebk/TaleForge/internal/data"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func (s *Server) CreateStory(c echo.Context) error {
	var story data.Story
	if err := c.Bind(&story); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"message": "Invalid request body"})
	}
	story.Author = c.Get("user_id").(primitive.ObjectID)
	if fieldErrors, err := data.ValidateStruct(&story); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{"message": "Validation failed", "errors": fieldErrors})
	}

	if err := s.db.CreateStory(&story); err != nil {
		return dbJSONError(c, err)
	}
	return c.JSON(http.StatusCreated, map[string]any{"message": "Story created successfully", "story": story})
}

func (s *Server) GetStory(c echo.Context) error {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"message": "Invalid story ID"})
	}

	story, err := s.db.GetStory(id)
	if err != nil {
		return dbJSONError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"message": "Story found", "story": story})
}

func (s *Server) GetStories(c echo.Context) error {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	stories, err := s.db.GetStories(page, limit)
	if err != nil {
		return dbJSONError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"message": "Stories found", "stories": stories})
}

func (s *Server) VoteStory(c echo.Context) error {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"message": "Invalid story ID"})
	}

	var request struct {
		Direction string `json:"direction" validate:"required,oneof=up down"`
	}
	if err := c.Bind(&request); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"message": "Invalid request body"})
	}
	if fieldErrors, err := data.ValidateStruct(&request); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{"message": "Validation failed", "errors": fieldErrors})
	}

	delta := 1
	if request.Direction == "down" {
		delta = -1
	}
	if err := s.db.VoteStory(id, delta); err != nil {
		return dbJSONError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Vote recorded"})
}

func (s *Server) ReplaceContent(c echo.Context) error {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"message": "Invalid story ID"})
	}

	var request struct {
		Content []data.Chapter `json:"content"`
	}
	if err := c.Bind(&request); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"message": "Invalid request body"})
	}
	if request.Content == nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"message": "Missing content array"})
	}

	userID := c.Get("user_id").(primitive.ObjectID)
	if err := s.db.ReplaceContent(id, userID, request.Content); err != nil {
		return dbJSONError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Story content replaced"})
}

type chapterRequest struct {
	Title   string `json:"title" validate:"required,min=3,max=100"`
	Content string `json:"content" validate:"required,min=20"`
	Summary string `json:"summary" validate:"max=500"`
}

func (s *Server) AddChapter(c echo.Context) error {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"message": "Invalid story ID"})
	}

	var request chapterRequest
	if err := c.Bind(&request); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"message": "Invalid request body"})
	}
	if fieldErrors, err := data.ValidateStruct(&request); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{"message": "Validation failed", "errors": fieldErrors})
	}

	userID := c.Get("user_id").(primitive.ObjectID)
	chapter := data.Chapter{Title: request.Title, Content: request.Content, Summary: request.Summary}
	queued, err := s.db.AddChapter(id, userID, chapter)
	if err != nil {
		return dbJSONError(c, err)
	}
	if queued {
		return c.JSON(http.StatusAccepted, map[string]string{"message": "Chapter submitted for approval"})
	}
	return c.JSON(http.StatusCreated, map[string]string{"message": "Chapter added successfully"})
}

func (s *Server) EditChapter(c echo.Context) error {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"message": "Invalid story ID"})
	}
	chapterID := c.Param("chapterId")

	var request chapterRequest
	if err := c.Bind(&request); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"message": "Invalid request body"})
	}
	if fieldErrors, err := data.ValidateStruct(&request); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{"message": "Validation failed", "errors": fieldErrors})
	}

	userID := c.Get("user_id").(primitive.ObjectID)
	chapter := data.Chapter{Title: request.Title, Content: request.Content, Summary: request.Summary}
	queued, err := s.db.EditChapter(id, userID, chapterID, chapter)
	if err != nil {
		return dbJSONError(c, err)
	}
	if queued {
		return c.JSON(http.StatusAccepted, map[string]string{"message": "Chapter edit submitted for approval"})
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Chapter updated successfully"})
}

func (s *Server) LikeChapter(c echo.Context) error {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"message": "Invalid story ID"})
	}

	if err := s.db.LikeChapter(id, c.Param("chapterId")); err != nil {
		return dbJSONError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Chapter liked"})
}

func (s *Server) ListPendingChapters(c echo.Context) error {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"message": "Invalid story ID"})
	}

	userID := c.Get("user_id").(primitive.ObjectID)
	pending, err := s.db.ListPendingChapters(id, userID)
	if err != nil {
		return dbJSONError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"message": "Pending chapters found", "pending_chapters": pending})
}

func (s *Server) ApprovePendingChapter(c echo.Context) error {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"message": "Invalid story ID"})
	}

	userID := c.Get("user_id").(primitive.ObjectID)
	if err := s.db.ApprovePendingChapter(id, userID, c.Param("pendingId")); err != nil {
		return dbJSONError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Chapter approved"})
}

func (s *Server) RejectPendingChapter(c echo.Context) error {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"message": "Invalid story ID"})
	}

	userID := c.Get("user_id").(primitive.ObjectID)
	if err := s.db.RejectPendingChapter(id, userID, c.Param("pendingId")); err != nil {
		return dbJSONError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Chapter rejected"})
}

package database

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yassinebk/TaleForge/internal/data"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestFindChapter(t *testing.T) {
	chapters := []data.Chapter{
		{ChapterID: "a", Title: "One"},
		{ChapterID: "b", Title: "Two"},
	}

	ch, ok := findChapter(chapters, "b")
	require.True(t, ok)
	assert.Equal(t, "Two", ch.Title)

	_, ok = findChapter(chapters, "c")
	assert.False(t, ok)

	_, ok = findChapter(nil, "a")
	assert.False(t, ok)
}

func TestFindPendingChapter(t *testing.T) {
	pending := []data.PendingChapter{
		{PendingID: "p1", Title: "Draft"},
	}

	p, ok := findPendingChapter(pending, "p1")
	require.True(t, ok)
	assert.Equal(t, "Draft", p.Title)

	_, ok = findPendingChapter(pending, "p2")
	assert.False(t, ok)
}

func TestCleanChapterStripsWorkflowFields(t *testing.T) {
	requester := primitive.NewObjectID()
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	pending := data.PendingChapter{
		PendingID:         "p1",
		Title:             "The Reckoning",
		Content:           "A long enough chapter body for publication.",
		Summary:           "Things come to a head.",
		Embedding:         []float64{0.1, 0.2},
		RequestedBy:       requester,
		Status:            data.PendingStatusPending,
		Type:              data.PendingTypeEditChapter,
		OriginalChapterID: "orig",
		CreatedAt:         time.Now(),
	}

	ch := cleanChapter(pending, "orig", created)

	assert.Equal(t, "orig", ch.ChapterID)
	assert.Equal(t, pending.Title, ch.Title)
	assert.Equal(t, pending.Content, ch.Content)
	assert.Equal(t, pending.Summary, ch.Summary)
	assert.Equal(t, pending.Embedding, ch.Embedding)
	assert.Equal(t, requester, ch.CreatedBy)
	assert.Equal(t, 0, ch.Likes)
	assert.Equal(t, created, ch.CreatedAt)
}

package server

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yassinebk/TaleForge/internal/data"
	"github.com/yassinebk/TaleForge/internal/database"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestCreateBattleRejectsUnknownTheme(t *testing.T) {
	srv := &Server{db: &fakeService{}}
	body := fmt.Sprintf(`{
		"title": "Midnight Duel",
		"description": "Write the spookiest opening scene.",
		"theme": "western",
		"battle_type": "flash-fiction",
		"start_time": %q, "end_time": %q, "voting_end_time": %q,
		"max_participants": 10
	}`,
		time.Now().Add(time.Hour).Format(time.RFC3339),
		time.Now().Add(2*time.Hour).Format(time.RFC3339),
		time.Now().Add(3*time.Hour).Format(time.RFC3339))

	c, rec := newTestContext(http.MethodPost, "/api/v1/battles", body, primitive.NewObjectID())
	require.NoError(t, srv.CreateBattle(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Theme")
}

func TestCreateBattleRejectsOutOfOrderTimes(t *testing.T) {
	srv := &Server{db: &fakeService{
		createBattle: func(battle *data.StoryBattle) error {
			return database.ErrInvalidBattleTimes
		},
	}}
	body := fmt.Sprintf(`{
		"title": "Midnight Duel",
		"description": "Write the spookiest opening scene.",
		"theme": "horror",
		"battle_type": "flash-fiction",
		"start_time": %q, "end_time": %q, "voting_end_time": %q,
		"max_participants": 10
	}`,
		time.Now().Add(2*time.Hour).Format(time.RFC3339),
		time.Now().Add(time.Hour).Format(time.RFC3339),
		time.Now().Add(3*time.Hour).Format(time.RFC3339))

	c, rec := newTestContext(http.MethodPost, "/api/v1/battles", body, primitive.NewObjectID())
	require.NoError(t, srv.CreateBattle(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateBattleHappyPath(t *testing.T) {
	creator := primitive.NewObjectID()
	srv := &Server{db: &fakeService{
		createBattle: func(battle *data.StoryBattle) error {
			assert.Equal(t, creator, battle.CreatedBy)
			battle.ID = primitive.NewObjectID()
			battle.Status = data.BattleUpcoming
			return nil
		},
	}}
	body := fmt.Sprintf(`{
		"title": "Midnight Duel",
		"description": "Write the spookiest opening scene.",
		"theme": "horror",
		"battle_type": "flash-fiction",
		"start_time": %q, "end_time": %q, "voting_end_time": %q,
		"max_participants": 10,
		"prizes": [{"position": 1, "reward": "featured story", "points": 100}]
	}`,
		time.Now().Add(time.Hour).Format(time.RFC3339),
		time.Now().Add(2*time.Hour).Format(time.RFC3339),
		time.Now().Add(3*time.Hour).Format(time.RFC3339))

	c, rec := newTestContext(http.MethodPost, "/api/v1/battles", body, creator)
	require.NoError(t, srv.CreateBattle(c))
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), data.BattleUpcoming)
}

func TestJoinBattleErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"missing battle", database.ErrBattleNotFound, http.StatusNotFound},
		{"battle already started", database.ErrBattleNotJoinable, http.StatusBadRequest},
		{"battle full", database.ErrBattleFull, http.StatusBadRequest},
		{"duplicate join", database.ErrAlreadyJoined, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := &Server{db: &fakeService{
				joinBattle: func(battleID, userID primitive.ObjectID) error { return tt.err },
			}}
			c, rec := newTestContext(http.MethodPost, "/", "", primitive.NewObjectID())
			c.SetParamNames("id")
			c.SetParamValues(primitive.NewObjectID().Hex())

			require.NoError(t, srv.JoinBattle(c))
			assert.Equal(t, tt.status, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.err.Error())
		})
	}
}

func TestJoinBattleInvalidID(t *testing.T) {
	srv := &Server{db: &fakeService{}}
	c, rec := newTestContext(http.MethodPost, "/", "", primitive.NewObjectID())
	c.SetParamNames("id")
	c.SetParamValues("not-an-object-id")

	require.NoError(t, srv.JoinBattle(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// The 50-word minimum lives in the client; the server only caps content at
// 5000 characters, so a 30-word submission goes through.
func TestSubmitToBattleAcceptsShortContent(t *testing.T) {
	author := primitive.NewObjectID()
	srv := &Server{db: &fakeService{
		submitToBattle: func(battleID, userID primitive.ObjectID, title, content string) (*data.BattleSubmission, error) {
			return &data.BattleSubmission{
				ID:        primitive.NewObjectID(),
				BattleID:  battleID,
				Author:    userID,
				Title:     title,
				Content:   content,
				WordCount: 30,
			}, nil
		},
	}}

	body := `{"title": "A Short One", "content": "thirty words of story, give or take, is well under the documented minimum but the server does not mind one bit and it saves the entry anyway okay"}`
	c, rec := newTestContext(http.MethodPost, "/", body, author)
	c.SetParamNames("id")
	c.SetParamValues(primitive.NewObjectID().Hex())

	require.NoError(t, srv.SubmitToBattle(c))
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"word_count":30`)
}

func TestSubmitToBattleNonParticipant(t *testing.T) {
	srv := &Server{db: &fakeService{
		submitToBattle: func(battleID, userID primitive.ObjectID, title, content string) (*data.BattleSubmission, error) {
			return nil, database.ErrNotParticipant
		},
	}}
	body := `{"title": "A Short One", "content": "long enough content for the validator"}`
	c, rec := newTestContext(http.MethodPost, "/", body, primitive.NewObjectID())
	c.SetParamNames("id")
	c.SetParamValues(primitive.NewObjectID().Hex())

	require.NoError(t, srv.SubmitToBattle(c))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestVoteSubmissionErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"voting over", database.ErrVotingClosed, http.StatusBadRequest},
		{"own submission", database.ErrSelfVote, http.StatusBadRequest},
		{"double vote", database.ErrAlreadyVoted, http.StatusBadRequest},
		{"missing submission", database.ErrSubmissionNotFound, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := &Server{db: &fakeService{
				voteSubmission: func(submissionID, voter primitive.ObjectID) error { return tt.err },
			}}
			c, rec := newTestContext(http.MethodPost, "/", "", primitive.NewObjectID())
			c.SetParamNames("id")
			c.SetParamValues(primitive.NewObjectID().Hex())

			require.NoError(t, srv.VoteSubmission(c))
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestGetBattleSubmissionsSorted(t *testing.T) {
	battleID := primitive.NewObjectID()
	srv := &Server{db: &fakeService{
		getSubmissions: func(id primitive.ObjectID) ([]data.BattleSubmission, error) {
			assert.Equal(t, battleID, id)
			return []data.BattleSubmission{
				{Title: "First", TotalVotes: 9, Ranking: 1},
				{Title: "Second", TotalVotes: 4, Ranking: 2},
			}, nil
		},
	}}
	c, rec := newTestContext(http.MethodGet, "/", "", primitive.ObjectID{})
	c.SetParamNames("id")
	c.SetParamValues(battleID.Hex())

	require.NoError(t, srv.GetBattleSubmissions(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "First")
}

package server

import (
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/yassinebk/TaleForge/internal/data"
	"github.com/yassinebk/TaleForge/internal/database"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// fakeService stubs out the database for handler tests. Only the methods a
// test overrides are callable; anything else panics through the embedded nil
// interface, which is exactly what we want from an unexpected call.
type fakeService struct {
	database.Service

	createUser       func(user *data.User, password string) error
	authenticateUser func(email, password string) (*data.User, error)
	issueToken       func(userID primitive.ObjectID) (string, error)
	validateToken    func(authHeader string) (primitive.ObjectID, error)
	leaderboard      func(limit int) ([]data.LeaderboardEntry, error)

	addChapter     func(storyID, caller primitive.ObjectID, chapter data.Chapter) (bool, error)
	editChapter    func(storyID, caller primitive.ObjectID, chapterID string, chapter data.Chapter) (bool, error)
	approvePending func(storyID, caller primitive.ObjectID, pendingID string) error
	rejectPending  func(storyID, caller primitive.ObjectID, pendingID string) error

	createBattle   func(battle *data.StoryBattle) error
	joinBattle     func(battleID, userID primitive.ObjectID) error
	submitToBattle func(battleID, userID primitive.ObjectID, title, content string) (*data.BattleSubmission, error)
	voteSubmission func(submissionID, voter primitive.ObjectID) error
	getSubmissions func(battleID primitive.ObjectID) ([]data.BattleSubmission, error)
}

func (f *fakeService) CreateUser(user *data.User, password string) error {
	return f.createUser(user, password)
}

func (f *fakeService) AuthenticateUser(email, password string) (*data.User, error) {
	return f.authenticateUser(email, password)
}

func (f *fakeService) IssueToken(userID primitive.ObjectID) (string, error) {
	return f.issueToken(userID)
}

func (f *fakeService) ValidateToken(authHeader string) (primitive.ObjectID, error) {
	return f.validateToken(authHeader)
}

func (f *fakeService) Leaderboard(limit int) ([]data.LeaderboardEntry, error) {
	return f.leaderboard(limit)
}

func (f *fakeService) AddChapter(storyID, caller primitive.ObjectID, chapter data.Chapter) (bool, error) {
	return f.addChapter(storyID, caller, chapter)
}

func (f *fakeService) EditChapter(storyID, caller primitive.ObjectID, chapterID string, chapter data.Chapter) (bool, error) {
	return f.editChapter(storyID, caller, chapterID, chapter)
}

func (f *fakeService) ApprovePendingChapter(storyID, caller primitive.ObjectID, pendingID string) error {
	return f.approvePending(storyID, caller, pendingID)
}

func (f *fakeService) RejectPendingChapter(storyID, caller primitive.ObjectID, pendingID string) error {
	return f.rejectPending(storyID, caller, pendingID)
}

func (f *fakeService) CreateBattle(battle *data.StoryBattle) error {
	return f.createBattle(battle)
}

func (f *fakeService) JoinBattle(battleID, userID primitive.ObjectID) error {
	return f.joinBattle(battleID, userID)
}

func (f *fakeService) SubmitToBattle(battleID, userID primitive.ObjectID, title, content string) (*data.BattleSubmission, error) {
	return f.submitToBattle(battleID, userID, title, content)
}

func (f *fakeService) VoteSubmission(submissionID, voter primitive.ObjectID) error {
	return f.voteSubmission(submissionID, voter)
}

func (f *fakeService) GetBattleSubmissions(battleID primitive.ObjectID) ([]data.BattleSubmission, error) {
	return f.getSubmissions(battleID)
}

// newTestContext builds an echo context for a handler call, with the caller
// already authenticated as userID.
func newTestContext(method, target, body string, userID primitive.ObjectID) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if !userID.IsZero() {
		c.Set("user_id", userID)
	}
	return c, rec
}

package database

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
	"github.com/yassinebk/TaleForge/internal/data"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// startMongo spins up a single-node replica set so session transactions work.
func startMongo(t *testing.T) *mongo.Client {
	t.Helper()
	ctx := context.Background()

	ctr, err := mongodb.Run(ctx, "mongo:7", mongodb.WithReplicaSet("rs0"))
	require.NoError(t, err)
	t.Cleanup(func() {
		if ctr == nil {
			return
		}
		if err := ctr.Terminate(context.Background()); err != nil {
			t.Logf("error terminating container: %v", err)
		}
	})

	uri, err := ctr.ConnectionString(ctx)
	require.NoError(t, err)

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Disconnect(ctx) })

	return client
}

func newUser(t *testing.T, svc Service, name, email string) *data.User {
	t.Helper()
	user := &data.User{Name: name, Email: email}
	require.NoError(t, svc.CreateUser(user, "hunter2hunter2"))
	return user
}

func TestBattleLifecycleIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}

	client := startMongo(t)
	svc := NewWithClient(client, "taleforge_test")
	battles := client.Database("taleforge_test").Collection("battles")
	ctx := context.Background()

	alice := newUser(t, svc, "Alice", "alice@example.com")
	bob := newUser(t, svc, "Bob", "bob@example.com")
	carol := newUser(t, svc, "Carol", "carol@example.com")

	battle := &data.StoryBattle{
		Title:           "Opening Lines",
		Description:     "Best first paragraph wins the round.",
		Theme:           "fantasy",
		BattleType:      "flash-fiction",
		StartTime:       time.Now().Add(-time.Minute),
		EndTime:         time.Now().Add(time.Hour),
		VotingEndTime:   time.Now().Add(2 * time.Hour),
		MaxParticipants: 2,
		CreatedBy:       alice.ID,
	}
	require.NoError(t, svc.CreateBattle(battle))
	assert.Equal(t, data.BattleUpcoming, battle.Status)

	// bad time ordering is rejected outright
	assert.ErrorIs(t, svc.CreateBattle(&data.StoryBattle{
		Title:           "Backwards",
		Description:     "End before start should never save.",
		Theme:           "fantasy",
		BattleType:      "flash-fiction",
		StartTime:       time.Now().Add(2 * time.Hour),
		EndTime:         time.Now().Add(time.Hour),
		VotingEndTime:   time.Now().Add(3 * time.Hour),
		MaxParticipants: 2,
		CreatedBy:       alice.ID,
	}), ErrInvalidBattleTimes)

	// join flow
	require.NoError(t, svc.JoinBattle(battle.ID, alice.ID))
	assert.ErrorIs(t, svc.JoinBattle(battle.ID, alice.ID), ErrAlreadyJoined)
	require.NoError(t, svc.JoinBattle(battle.ID, bob.ID))
	assert.ErrorIs(t, svc.JoinBattle(battle.ID, carol.ID), ErrBattleFull)

	// submitting before the battle is active fails
	_, err := svc.SubmitToBattle(battle.ID, alice.ID, "Too Soon", "The gates had not opened yet.")
	assert.ErrorIs(t, err, ErrSubmissionClosed)

	// upcoming -> active
	activated, err := svc.ActivateDueBattles(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, activated)

	subAlice, err := svc.SubmitToBattle(battle.ID, alice.ID, "The Gate", "Nobody remembered who built the gate, only that it never opened twice.")
	require.NoError(t, err)
	assert.Equal(t, 12, subAlice.WordCount)

	_, err = svc.SubmitToBattle(battle.ID, alice.ID, "Again", "A second entry from the same author is refused.")
	assert.ErrorIs(t, err, ErrAlreadySubmitted)

	_, err = svc.SubmitToBattle(battle.ID, carol.ID, "Outsider", "Carol never joined, so this is rejected.")
	assert.ErrorIs(t, err, ErrNotParticipant)

	subBob, err := svc.SubmitToBattle(battle.ID, bob.ID, "The Road", "The road out of town was longer on the way back.")
	require.NoError(t, err)

	// votes are only counted during the voting phase
	assert.ErrorIs(t, svc.VoteSubmission(subAlice.ID, carol.ID), ErrVotingClosed)

	// active -> voting, by forcing the end time into the past
	_, err = battles.UpdateByID(ctx, battle.ID,
		primitive.M{"$set": primitive.M{"end_time": time.Now().Add(-time.Second)}})
	require.NoError(t, err)
	voting, err := svc.StartVotingDueBattles(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, voting)

	require.NoError(t, svc.VoteSubmission(subAlice.ID, carol.ID))
	assert.ErrorIs(t, svc.VoteSubmission(subAlice.ID, carol.ID), ErrAlreadyVoted)
	assert.ErrorIs(t, svc.VoteSubmission(subAlice.ID, alice.ID), ErrSelfVote)
	// one vote per submission, not one per battle
	require.NoError(t, svc.VoteSubmission(subBob.ID, carol.ID))
	require.NoError(t, svc.VoteSubmission(subAlice.ID, bob.ID))

	current, err := svc.GetBattle(battle.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, current.TotalVotes)

	// voting -> completed
	_, err = battles.UpdateByID(ctx, battle.ID,
		primitive.M{"$set": primitive.M{"voting_end_time": time.Now().Add(-time.Second)}})
	require.NoError(t, err)
	completed, err := svc.CompleteDueBattles(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, completed)

	current, err = svc.GetBattle(battle.ID)
	require.NoError(t, err)
	assert.Equal(t, data.BattleCompleted, current.Status)
	require.NotNil(t, current.Winner)
	assert.Equal(t, alice.ID, *current.Winner)

	submissions, err := svc.GetBattleSubmissions(battle.ID)
	require.NoError(t, err)
	require.Len(t, submissions, 2)
	assert.Equal(t, 1, submissions[0].Ranking)
	assert.Equal(t, alice.ID, submissions[0].Author)
	assert.Equal(t, 2, submissions[1].Ranking)

	aliceProfile, err := svc.GetProfile(alice.ID)
	require.NoError(t, err)
	assert.Equal(t, 100, aliceProfile.BattlePoints)
	bobProfile, err := svc.GetProfile(bob.ID)
	require.NoError(t, err)
	assert.Equal(t, 75, bobProfile.BattlePoints)

	// a second pass finds nothing to do and awards nothing twice
	completed, err = svc.CompleteDueBattles(ctx)
	require.NoError(t, err)
	assert.Zero(t, completed)
	aliceProfile, err = svc.GetProfile(alice.ID)
	require.NoError(t, err)
	assert.Equal(t, 100, aliceProfile.BattlePoints)

	// voting after completion is refused
	assert.ErrorIs(t, svc.VoteSubmission(subBob.ID, alice.ID), ErrVotingClosed)
}

func TestChapterWorkflowIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}

	client := startMongo(t)
	svc := NewWithClient(client, "taleforge_test")
	ctx := context.Background()

	author := newUser(t, svc, "Author", "author@example.com")
	contributor := newUser(t, svc, "Contributor", "contrib@example.com")

	story := &data.Story{Title: "The Hollow Lighthouse", Author: author.ID}
	require.NoError(t, svc.CreateStory(story))

	// author publishes directly
	queued, err := svc.AddChapter(story.ID, author.ID, data.Chapter{
		Title:   "First Light",
		Content: "The keeper had not lit the lamp in three nights, and the village knew why.",
	})
	require.NoError(t, err)
	assert.False(t, queued)

	// contributor goes through the pending queue
	queued, err = svc.AddChapter(story.ID, contributor.ID, data.Chapter{
		Title:   "The Rowboat",
		Content: "Someone had dragged the rowboat halfway up the shingle and abandoned it there.",
	})
	require.NoError(t, err)
	assert.True(t, queued)

	pending, err := svc.ListPendingChapters(story.ID, author.ID)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, data.PendingStatusPending, pending[0].Status)
	assert.Equal(t, data.PendingTypeNewChapter, pending[0].Type)

	_, err = svc.ListPendingChapters(story.ID, contributor.ID)
	assert.ErrorIs(t, err, ErrNotAuthor)

	// approve: content +1, pending -1, contribution score +1
	require.NoError(t, svc.ApprovePendingChapter(story.ID, author.ID, pending[0].PendingID))

	got, err := svc.GetStory(story.ID)
	require.NoError(t, err)
	assert.Len(t, got.Content, 2)
	assert.Empty(t, got.PendingChapters)

	contribProfile, err := svc.GetProfile(contributor.ID)
	require.NoError(t, err)
	require.Len(t, contribProfile.Contributions, 1)
	assert.Equal(t, story.Title, contribProfile.Contributions[0].Title)
	assert.Equal(t, 1, contribProfile.Contributions[0].Score)

	// the mirror collection tracks published chapters
	mirrorCount, err := client.Database("taleforge_test").Collection("chapters").
		CountDocuments(ctx, primitive.M{"story_id": story.ID})
	require.NoError(t, err)
	assert.EqualValues(t, 2, mirrorCount)

	// approving the consumed entry again is a clean not-found
	assert.ErrorIs(t, svc.ApprovePendingChapter(story.ID, author.ID, pending[0].PendingID), ErrPendingNotFound)

	// contributor proposes an edit to the approved chapter
	chapterID := got.Content[1].ChapterID
	queued, err = svc.EditChapter(story.ID, contributor.ID, chapterID, data.Chapter{
		Title:   "The Rowboat, Revised",
		Content: "Someone had dragged the rowboat all the way up the shingle and hidden it in the grass.",
	})
	require.NoError(t, err)
	assert.True(t, queued)

	pending, err = svc.ListPendingChapters(story.ID, author.ID)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, data.PendingTypeEditChapter, pending[0].Type)
	assert.Equal(t, chapterID, pending[0].OriginalChapterID)

	require.NoError(t, svc.ApprovePendingChapter(story.ID, author.ID, pending[0].PendingID))

	got, err = svc.GetStory(story.ID)
	require.NoError(t, err)
	assert.Len(t, got.Content, 2) // edit replaces in place
	assert.Equal(t, "The Rowboat, Revised", got.Content[1].Title)
	assert.Equal(t, chapterID, got.Content[1].ChapterID)

	// rejection removes the entry with no other side effects
	queued, err = svc.AddChapter(story.ID, contributor.ID, data.Chapter{
		Title:   "A Rejected One",
		Content: "This chapter is destined for the cutting room floor, sadly.",
	})
	require.NoError(t, err)
	require.True(t, queued)
	pending, err = svc.ListPendingChapters(story.ID, author.ID)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	require.NoError(t, svc.RejectPendingChapter(story.ID, author.ID, pending[0].PendingID))
	got, err = svc.GetStory(story.ID)
	require.NoError(t, err)
	assert.Len(t, got.Content, 2)
	assert.Empty(t, got.PendingChapters)

	contribProfile, err = svc.GetProfile(contributor.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, contribProfile.Contributions[0].Score)
}

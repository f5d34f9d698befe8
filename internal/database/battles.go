package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/yassinebk/TaleForge/internal/data"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (s *service) CreateBattle(battle *data.StoryBattle) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if !battle.StartTime.Before(battle.EndTime) || !battle.EndTime.Before(battle.VotingEndTime) {
		return ErrInvalidBattleTimes
	}

	battle.Status = data.BattleUpcoming
	battle.Participants = []data.Participant{}
	battle.Winner = nil
	battle.TotalVotes = 0
	battle.CreatedAt = time.Now()

	res, err := s.battles().InsertOne(ctx, battle)
	if err != nil {
		return fmt.Errorf("error inserting battle: %v", err)
	}

	battle.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

func (s *service) GetBattle(id primitive.ObjectID) (*data.StoryBattle, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return s.getBattle(ctx, id)
}

func (s *service) getBattle(ctx context.Context, id primitive.ObjectID) (*data.StoryBattle, error) {
	var battle data.StoryBattle
	err := s.battles().FindOne(ctx, primitive.M{"_id": id}).Decode(&battle)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrBattleNotFound
		}
		return nil, fmt.Errorf("error fetching battle: %v", err)
	}
	return &battle, nil
}

func (s *service) GetBattles(filters data.BattleFilters) ([]data.StoryBattle, int64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	filter := primitive.M{}
	if filters.Status != "" {
		filter["status"] = filters.Status
	}
	if filters.Theme != "" {
		filter["theme"] = filters.Theme
	}
	if filters.Search != "" {
		filter["title"] = primitive.Regex{Pattern: filters.Search, Options: "i"}
	}

	total, err := s.battles().CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("error counting battles: %v", err)
	}

	page := filters.Page
	if page < 1 {
		page = 1
	}
	limit := filters.Limit
	if limit < 1 || limit > 50 {
		limit = 10
	}
	skip := (page - 1) * limit
	findOptions := options.Find().
		SetSort(primitive.D{{Key: "start_time", Value: 1}}).
		SetSkip(int64(skip)).
		SetLimit(int64(limit))

	cursor, err := s.battles().Find(ctx, filter, findOptions)
	if err != nil {
		return nil, 0, fmt.Errorf("error fetching battles: %v", err)
	}
	defer cursor.Close(ctx)

	var battles []data.StoryBattle
	if err := cursor.All(ctx, &battles); err != nil {
		return nil, 0, fmt.Errorf("error decoding battles: %v", err)
	}

	return battles, total, nil
}

// joinPrecondition is checked in order so the first failing condition wins.
func joinPrecondition(battle *data.StoryBattle, userID primitive.ObjectID) error {
	if battle.Status != data.BattleUpcoming {
		return ErrBattleNotJoinable
	}
	if len(battle.Participants) >= battle.MaxParticipants {
		return ErrBattleFull
	}
	for _, p := range battle.Participants {
		if p.User == userID {
			return ErrAlreadyJoined
		}
	}
	return nil
}

func (s *service) JoinBattle(battleID, userID primitive.ObjectID) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	battle, err := s.getBattle(ctx, battleID)
	if err != nil {
		return err
	}
	if err := joinPrecondition(battle, userID); err != nil {
		return err
	}

	// Conditional push so the participant cap holds even when two joins
	// race the same document.
	res, err := s.battles().UpdateOne(ctx,
		primitive.M{
			"_id":               battleID,
			"status":            data.BattleUpcoming,
			"participants.user": primitive.M{"$ne": userID},
			"$expr":             primitive.M{"$lt": []any{primitive.M{"$size": "$participants"}, "$max_participants"}},
		},
		primitive.M{"$push": primitive.M{"participants": data.Participant{User: userID, JoinedAt: time.Now()}}})
	if err != nil {
		return fmt.Errorf("error joining battle: %v", err)
	}
	if res.ModifiedCount == 0 {
		// Lost a race; re-check to report the right reason.
		battle, err = s.getBattle(ctx, battleID)
		if err != nil {
			return err
		}
		if err := joinPrecondition(battle, userID); err != nil {
			return err
		}
		return ErrBattleNotJoinable
	}
	return nil
}

func (s *service) SubmitToBattle(battleID, userID primitive.ObjectID, title, content string) (*data.BattleSubmission, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	battle, err := s.getBattle(ctx, battleID)
	if err != nil {
		return nil, err
	}
	if battle.Status != data.BattleActive || time.Now().After(battle.EndTime) {
		return nil, ErrSubmissionClosed
	}

	var participant *data.Participant
	for i := range battle.Participants {
		if battle.Participants[i].User == userID {
			participant = &battle.Participants[i]
			break
		}
	}
	if participant == nil {
		return nil, ErrNotParticipant
	}
	if participant.Submission != nil {
		return nil, ErrAlreadySubmitted
	}

	submission := &data.BattleSubmission{
		BattleID:    battleID,
		Author:      userID,
		Title:       title,
		Content:     content,
		WordCount:   wordCount(content),
		Votes:       []data.SubmissionVote{},
		SubmittedAt: time.Now(),
	}

	res, err := s.submissions().InsertOne(ctx, submission)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrAlreadySubmitted
		}
		return nil, fmt.Errorf("error inserting submission: %v", err)
	}
	submission.ID = res.InsertedID.(primitive.ObjectID)

	_, err = s.battles().UpdateOne(ctx,
		primitive.M{"_id": battleID, "participants.user": userID},
		primitive.M{"$set": primitive.M{"participants.$.submission": submission.ID}})
	if err != nil {
		return nil, fmt.Errorf("error linking submission: %v", err)
	}

	return submission, nil
}

func (s *service) VoteSubmission(submissionID, voter primitive.ObjectID) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var submission data.BattleSubmission
	err := s.submissions().FindOne(ctx, primitive.M{"_id": submissionID}).Decode(&submission)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrSubmissionNotFound
		}
		return fmt.Errorf("error fetching submission: %v", err)
	}

	battle, err := s.getBattle(ctx, submission.BattleID)
	if err != nil {
		return err
	}
	if battle.Status != data.BattleVoting {
		return ErrVotingClosed
	}
	for _, v := range submission.Votes {
		if v.User == voter {
			return ErrAlreadyVoted
		}
	}
	if submission.Author == voter {
		return ErrSelfVote
	}

	// Both denormalized counters move together or not at all.
	return s.withTransaction(ctx, func(sc mongo.SessionContext) error {
		res, err := s.submissions().UpdateOne(sc,
			primitive.M{
				"_id":        submissionID,
				"author":     primitive.M{"$ne": voter},
				"votes.user": primitive.M{"$ne": voter},
			},
			primitive.M{
				"$push": primitive.M{"votes": data.SubmissionVote{User: voter, VotedAt: time.Now()}},
				"$inc":  primitive.M{"total_votes": 1},
			})
		if err != nil {
			return fmt.Errorf("error recording vote: %v", err)
		}
		if res.ModifiedCount == 0 {
			return ErrAlreadyVoted
		}

		_, err = s.battles().UpdateOne(sc,
			primitive.M{"_id": submission.BattleID},
			primitive.M{"$inc": primitive.M{"total_votes": 1}})
		if err != nil {
			return fmt.Errorf("error updating battle vote count: %v", err)
		}
		return nil
	})
}

func (s *service) GetBattleSubmissions(battleID primitive.ObjectID) ([]data.BattleSubmission, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := s.getBattle(ctx, battleID); err != nil {
		return nil, err
	}
	return s.sortedSubmissions(ctx, battleID)
}

func (s *service) sortedSubmissions(ctx context.Context, battleID primitive.ObjectID) ([]data.BattleSubmission, error) {
	findOptions := options.Find().SetSort(primitive.D{
		{Key: "total_votes", Value: -1},
		{Key: "submitted_at", Value: 1},
	})
	cursor, err := s.submissions().Find(ctx, primitive.M{"battle_id": battleID}, findOptions)
	if err != nil {
		return nil, fmt.Errorf("error fetching submissions: %v", err)
	}
	defer cursor.Close(ctx)

	var submissions []data.BattleSubmission
	if err := cursor.All(ctx, &submissions); err != nil {
		return nil, fmt.Errorf("error decoding submissions: %v", err)
	}
	return submissions, nil
}

func (s *service) ActivateDueBattles(ctx context.Context) (int64, error) {
	res, err := s.battles().UpdateMany(ctx,
		primitive.M{"status": data.BattleUpcoming, "start_time": primitive.M{"$lte": time.Now()}},
		primitive.M{"$set": primitive.M{"status": data.BattleActive}})
	if err != nil {
		return 0, fmt.Errorf("error activating battles: %v", err)
	}
	return res.ModifiedCount, nil
}

func (s *service) StartVotingDueBattles(ctx context.Context) (int64, error) {
	res, err := s.battles().UpdateMany(ctx,
		primitive.M{"status": data.BattleActive, "end_time": primitive.M{"$lte": time.Now()}},
		primitive.M{"$set": primitive.M{"status": data.BattleVoting}})
	if err != nil {
		return 0, fmt.Errorf("error moving battles to voting: %v", err)
	}
	return res.ModifiedCount, nil
}

var errNoDueBattles = errors.New("no battles due for completion")

// CompleteDueBattles finalizes every voting battle whose voting window has
// closed. Each battle is claimed with a conditional status flip and then
// ranked, scored and crowned inside the same transaction, so a crash leaves
// the battle in voting and the next tick picks it up again.
func (s *service) CompleteDueBattles(ctx context.Context) (int, error) {
	completed := 0
	for {
		err := s.withTransaction(ctx, func(sc mongo.SessionContext) error {
			var battle data.StoryBattle
			err := s.battles().FindOneAndUpdate(sc,
				primitive.M{"status": data.BattleVoting, "voting_end_time": primitive.M{"$lte": time.Now()}},
				primitive.M{"$set": primitive.M{"status": data.BattleCompleted}},
				options.FindOneAndUpdate().SetReturnDocument(options.After),
			).Decode(&battle)
			if err != nil {
				if errors.Is(err, mongo.ErrNoDocuments) {
					return errNoDueBattles
				}
				return fmt.Errorf("error claiming battle: %v", err)
			}

			submissions, err := s.sortedSubmissions(sc, battle.ID)
			if err != nil {
				return err
			}

			for i, sub := range submissions {
				rank := i + 1
				_, err := s.submissions().UpdateByID(sc, sub.ID,
					primitive.M{"$set": primitive.M{"ranking": rank}})
				if err != nil {
					return fmt.Errorf("error assigning ranking: %v", err)
				}
				if err := s.awardBattlePoints(sc, sub.Author, pointsForRank(rank)); err != nil {
					return err
				}
			}

			if len(submissions) > 0 {
				_, err := s.battles().UpdateByID(sc, battle.ID,
					primitive.M{"$set": primitive.M{"winner": submissions[0].Author}})
				if err != nil {
					return fmt.Errorf("error setting winner: %v", err)
				}
			}
			return nil
		})
		if errors.Is(err, errNoDueBattles) {
			return completed, nil
		}
		if err != nil {
			return completed, err
		}
		completed++
	}
}

// pointsForRank is the fixed prize table: 100/75/50 for the podium, then a
// 5-point falloff with a floor of 10.
func pointsForRank(rank int) int {
	switch rank {
	case 1:
		return 100
	case 2:
		return 75
	case 3:
		return 50
	}
	if p := 50 - (rank-3)*5; p > 10 {
		return p
	}
	return 10
}

func wordCount(s string) int {
	return len(strings.Fields(s))
}

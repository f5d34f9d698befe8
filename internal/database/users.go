package database

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/yassinebk/TaleForge/internal/data"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/crypto/bcrypt"
)

func (s *service) CreateUser(user *data.User, password string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("error hashing password: %v", err)
	}

	user.PasswordHash = string(hash)
	user.Contributions = []data.Contribution{}
	user.CreatedAt = time.Now()

	res, err := s.users().InsertOne(ctx, user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrEmailTaken
		}
		return fmt.Errorf("error inserting user: %v", err)
	}

	user.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

func (s *service) AuthenticateUser(email, password string) (*data.User, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var user data.User
	err := s.users().FindOne(ctx, primitive.M{"email": email}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("error fetching user: %v", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}

	return &user, nil
}

func (s *service) GetProfile(id primitive.ObjectID) (*data.Profile, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var user data.User
	err := s.users().FindOne(ctx, primitive.M{"_id": id}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("error fetching user: %v", err)
	}

	return &data.Profile{
		ID:            user.ID,
		Name:          user.Name,
		Bio:           user.Bio,
		Picture:       user.Picture,
		Contributions: user.Contributions,
		BattlePoints:  user.BattlePoints,
		Followers:     len(user.Followers),
		Following:     len(user.Following),
	}, nil
}

func (s *service) UpdateProfile(id primitive.ObjectID, name, bio, picture string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	update := primitive.M{}
	if name != "" {
		update["name"] = name
	}
	if bio != "" {
		update["bio"] = bio
	}
	if picture != "" {
		update["picture"] = picture
	}
	if len(update) == 0 {
		return nil
	}

	res, err := s.users().UpdateOne(ctx, primitive.M{"_id": id}, primitive.M{"$set": update})
	if err != nil {
		return fmt.Errorf("error updating profile: %v", err)
	}
	if res.MatchedCount == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (s *service) FollowUser(follower, target primitive.ObjectID) error {
	if follower == target {
		return ErrSelfFollow
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	res, err := s.users().UpdateOne(ctx,
		primitive.M{"_id": target},
		primitive.M{"$addToSet": primitive.M{"followers": follower}})
	if err != nil {
		return fmt.Errorf("error following user: %v", err)
	}
	if res.MatchedCount == 0 {
		return ErrUserNotFound
	}

	_, err = s.users().UpdateOne(ctx,
		primitive.M{"_id": follower},
		primitive.M{"$addToSet": primitive.M{"following": target}})
	if err != nil {
		return fmt.Errorf("error updating following list: %v", err)
	}
	return nil
}

func (s *service) UnfollowUser(follower, target primitive.ObjectID) error {
	if follower == target {
		return ErrSelfFollow
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	res, err := s.users().UpdateOne(ctx,
		primitive.M{"_id": target},
		primitive.M{"$pull": primitive.M{"followers": follower}})
	if err != nil {
		return fmt.Errorf("error unfollowing user: %v", err)
	}
	if res.MatchedCount == 0 {
		return ErrUserNotFound
	}

	_, err = s.users().UpdateOne(ctx,
		primitive.M{"_id": follower},
		primitive.M{"$pull": primitive.M{"following": target}})
	if err != nil {
		return fmt.Errorf("error updating following list: %v", err)
	}
	return nil
}

func (s *service) Leaderboard(limit int) ([]data.LeaderboardEntry, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if limit <= 0 || limit > 100 {
		limit = 10
	}

	if entries, ok := s.cache.getLeaderboard(ctx, limit); ok {
		return entries, nil
	}

	findOptions := options.Find().
		SetSort(primitive.D{{Key: "battle_points", Value: -1}}).
		SetLimit(int64(limit)).
		SetProjection(primitive.M{"name": 1, "picture": 1, "battle_points": 1})

	cursor, err := s.users().Find(ctx, primitive.M{}, findOptions)
	if err != nil {
		return nil, fmt.Errorf("error fetching leaderboard: %v", err)
	}
	defer cursor.Close(ctx)

	var entries []data.LeaderboardEntry
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("error decoding leaderboard: %v", err)
	}

	s.cache.setLeaderboard(ctx, limit, entries)
	return entries, nil
}

// awardContribution bumps the caller's per-story score, creating the
// contribution record on first approval for that story.
func (s *service) awardContribution(ctx context.Context, userID primitive.ObjectID, storyTitle string) error {
	res, err := s.users().UpdateOne(ctx,
		primitive.M{"_id": userID, "contributions.title": storyTitle},
		primitive.M{"$inc": primitive.M{"contributions.$.score": 1}})
	if err != nil {
		return fmt.Errorf("error incrementing contribution: %v", err)
	}
	if res.MatchedCount > 0 {
		return nil
	}

	_, err = s.users().UpdateOne(ctx,
		primitive.M{"_id": userID},
		primitive.M{"$push": primitive.M{"contributions": data.Contribution{Title: storyTitle, Score: 1}}})
	if err != nil {
		return fmt.Errorf("error creating contribution: %v", err)
	}
	return nil
}

func (s *service) awardBattlePoints(ctx context.Context, userID primitive.ObjectID, points int) error {
	_, err := s.users().UpdateOne(ctx,
		primitive.M{"_id": userID},
		primitive.M{"$inc": primitive.M{"battle_points": points}})
	if err != nil {
		return fmt.Errorf("error awarding battle points: %v", err)
	}
	if s.cache.enabled() {
		if err := s.cache.invalidate(ctx); err != nil {
			log.Printf("Error invalidating leaderboard cache: %v", err)
		}
	}
	return nil
}

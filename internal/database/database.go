package database

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	_ "github.com/joho/godotenv/autoload"
	"github.com/yassinebk/TaleForge/internal/data"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Service interface {
	// Users
	CreateUser(user *data.User, password string) error
	AuthenticateUser(email, password string) (*data.User, error)
	GetProfile(id primitive.ObjectID) (*data.Profile, error)
	UpdateProfile(id primitive.ObjectID, name, bio, picture string) error
	FollowUser(follower, target primitive.ObjectID) error
	UnfollowUser(follower, target primitive.ObjectID) error
	Leaderboard(limit int) ([]data.LeaderboardEntry, error)

	// Stories and the chapter contribution workflow
	CreateStory(story *data.Story) error
	GetStory(id primitive.ObjectID) (*data.Story, error)
	GetStories(page, limit int) ([]data.Story, error)
	VoteStory(id primitive.ObjectID, delta int) error
	ReplaceContent(storyID, caller primitive.ObjectID, chapters []data.Chapter) error
	AddChapter(storyID, caller primitive.ObjectID, chapter data.Chapter) (queued bool, err error)
	EditChapter(storyID, caller primitive.ObjectID, chapterID string, chapter data.Chapter) (queued bool, err error)
	LikeChapter(storyID primitive.ObjectID, chapterID string) error
	ListPendingChapters(storyID, caller primitive.ObjectID) ([]data.PendingChapter, error)
	ApprovePendingChapter(storyID, caller primitive.ObjectID, pendingID string) error
	RejectPendingChapter(storyID, caller primitive.ObjectID, pendingID string) error

	// Battles
	CreateBattle(battle *data.StoryBattle) error
	GetBattle(id primitive.ObjectID) (*data.StoryBattle, error)
	GetBattles(filters data.BattleFilters) ([]data.StoryBattle, int64, error)
	JoinBattle(battleID, userID primitive.ObjectID) error
	SubmitToBattle(battleID, userID primitive.ObjectID, title, content string) (*data.BattleSubmission, error)
	VoteSubmission(submissionID, voter primitive.ObjectID) error
	GetBattleSubmissions(battleID primitive.ObjectID) ([]data.BattleSubmission, error)

	// Battle status reconciliation, driven by the updater job
	ActivateDueBattles(ctx context.Context) (int64, error)
	StartVotingDueBattles(ctx context.Context) (int64, error)
	CompleteDueBattles(ctx context.Context) (int, error)

	IssueToken(userID primitive.ObjectID) (string, error)
	ValidateToken(authHeader string) (primitive.ObjectID, error)
	Health() (map[string]string, error)
}

type service struct {
	db    *mongo.Client
	cache *leaderboardCache
}

var (
	dbUsername       = os.Getenv("DB_USERNAME")
	dbPassword       = os.Getenv("DB_PASSWORD")
	connectionString = os.Getenv("DB_CONNECTION_STRING")
	dbName           = envOr("DB_NAME", "taleforge")
	jwtSecret        = []byte(os.Getenv("JWTSECRET"))
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func New() Service {
	uri := connectionString
	if dbUsername != "" {
		uri = fmt.Sprintf("mongodb+srv://%s:%s%s", dbUsername, dbPassword, connectionString)
	}
	client, err := mongo.Connect(context.Background(), options.Client().ApplyURI(uri))
	if err != nil {
		log.Fatal(err)
	}

	s := &service{
		db:    client,
		cache: newLeaderboardCache(),
	}
	if err := s.ensureIndexes(); err != nil {
		log.Printf("Error ensuring indexes: %v", err)
	}
	return s
}

// NewWithClient wires an existing mongo client, used by integration tests.
func NewWithClient(client *mongo.Client, database string) Service {
	dbName = database
	s := &service{db: client, cache: newLeaderboardCache()}
	if err := s.ensureIndexes(); err != nil {
		log.Printf("Error ensuring indexes: %v", err)
	}
	return s
}

func (s *service) users() *mongo.Collection {
	return s.db.Database(dbName).Collection("users")
}

func (s *service) stories() *mongo.Collection {
	return s.db.Database(dbName).Collection("stories")
}

func (s *service) chapters() *mongo.Collection {
	return s.db.Database(dbName).Collection("chapters")
}

func (s *service) battles() *mongo.Collection {
	return s.db.Database(dbName).Collection("battles")
}

func (s *service) submissions() *mongo.Collection {
	return s.db.Database(dbName).Collection("battlesubmissions")
}

func (s *service) ensureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := s.users().Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    primitive.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("error creating users index: %v", err)
	}

	_, err = s.submissions().Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    primitive.D{{Key: "battle_id", Value: 1}, {Key: "author", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("error creating submissions index: %v", err)
	}

	_, err = s.battles().Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: primitive.D{{Key: "status", Value: 1}, {Key: "start_time", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("error creating battles index: %v", err)
	}

	return nil
}

func (s *service) IssueToken(userID primitive.ObjectID) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   userID.Hex(),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(72 * time.Hour)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(jwtSecret)
	if err != nil {
		return "", fmt.Errorf("error signing token: %v", err)
	}
	return signed, nil
}

func (s *service) ValidateToken(authHeader string) (primitive.ObjectID, error) {
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return primitive.ObjectID{}, fmt.Errorf("invalid token format")
	}

	tokenString := strings.TrimPrefix(authHeader, "Bearer ")

	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		return jwtSecret, nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return primitive.ObjectID{}, fmt.Errorf("token expired: %v", err)
		}
		return primitive.ObjectID{}, fmt.Errorf("invalid token: %v", err)
	}

	if !token.Valid {
		return primitive.ObjectID{}, fmt.Errorf("invalid token")
	}

	userID, err := primitive.ObjectIDFromHex(claims.Subject)
	if err != nil {
		return primitive.ObjectID{}, fmt.Errorf("invalid user ID: %v", err)
	}

	return userID, nil
}

func (s *service) Health() (map[string]string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()

	err := s.db.Ping(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("db down: %v", err)
	}

	health := map[string]string{"message": "It's healthy"}
	if s.cache.enabled() {
		if err := s.cache.ping(ctx); err != nil {
			health["cache"] = "unreachable"
		} else {
			health["cache"] = "ok"
		}
	}
	return health, nil
}

package data

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	BattleUpcoming  = "upcoming"
	BattleActive    = "active"
	BattleVoting    = "voting"
	BattleCompleted = "completed"
)

const (
	PendingStatusPending = "pending"

	PendingTypeNewChapter  = "new_chapter"
	PendingTypeEditChapter = "edit_chapter"
)

var BattleThemes = []string{
	"fantasy", "sci-fi", "mystery", "romance",
	"horror", "adventure", "comedy", "drama",
}

var BattleTypes = []string{"flash-fiction", "short-story", "themed-challenge"}

func IsValidTheme(theme string) bool {
	for _, t := range BattleThemes {
		if t == theme {
			return true
		}
	}
	return false
}

func IsValidBattleType(battleType string) bool {
	for _, t := range BattleTypes {
		if t == battleType {
			return true
		}
	}
	return false
}

type Contribution struct {
	Title string `json:"title" bson:"title"`
	Score int    `json:"score" bson:"score"`
}

type User struct {
	ID            primitive.ObjectID   `json:"id" bson:"_id,omitempty"`
	Name          string               `json:"name" bson:"name" validate:"required,min=2,max=100"`
	Email         string               `json:"email" bson:"email" validate:"required,email"`
	PasswordHash  string               `json:"-" bson:"password_hash"`
	Bio           string               `json:"bio" bson:"bio"`
	Picture       string               `json:"picture" bson:"picture"`
	Contributions []Contribution       `json:"contributions" bson:"contributions"`
	BattlePoints  int                  `json:"battle_points" bson:"battle_points"`
	Following     []primitive.ObjectID `json:"following,omitempty" bson:"following,omitempty"`
	Followers     []primitive.ObjectID `json:"followers,omitempty" bson:"followers,omitempty"`
	CreatedAt     time.Time            `json:"created_at" bson:"created_at"`
}

// Profile is the public view of a User, without email or credentials.
type Profile struct {
	ID            primitive.ObjectID `json:"id"`
	Name          string             `json:"name"`
	Bio           string             `json:"bio"`
	Picture       string             `json:"picture"`
	Contributions []Contribution     `json:"contributions"`
	BattlePoints  int                `json:"battle_points"`
	Followers     int                `json:"followers"`
	Following     int                `json:"following"`
}

type Chapter struct {
	ChapterID string             `json:"chapter_id" bson:"chapter_id"`
	Title     string             `json:"title" bson:"title" validate:"required,min=3,max=100"`
	Content   string             `json:"content" bson:"content" validate:"required,min=20"`
	Summary   string             `json:"summary" bson:"summary"`
	Embedding []float64          `json:"embedding,omitempty" bson:"embedding,omitempty"`
	CreatedBy primitive.ObjectID `json:"created_by" bson:"created_by"`
	Likes     int                `json:"likes" bson:"likes"`
	CreatedAt time.Time          `json:"created_at" bson:"created_at"`
}

// ChapterDoc is the standalone chapters-collection mirror of an accepted
// chapter, kept alongside the embedded copy for search purposes.
type ChapterDoc struct {
	ID      primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	StoryID primitive.ObjectID `json:"story_id" bson:"story_id"`
	Chapter `bson:",inline"`
}

type PendingChapter struct {
	PendingID         string             `json:"pending_id" bson:"pending_id"`
	Title             string             `json:"title" bson:"title"`
	Content           string             `json:"content" bson:"content"`
	Summary           string             `json:"summary" bson:"summary"`
	Embedding         []float64          `json:"embedding,omitempty" bson:"embedding,omitempty"`
	RequestedBy       primitive.ObjectID `json:"requested_by" bson:"requested_by"`
	Status            string             `json:"status" bson:"status"`
	Type              string             `json:"type" bson:"type"`
	OriginalChapterID string             `json:"original_chapter_id,omitempty" bson:"original_chapter_id,omitempty"`
	CreatedAt         time.Time          `json:"created_at" bson:"created_at"`
}

type Story struct {
	ID              primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Title           string             `json:"title" bson:"title" validate:"required,min=3,max=100"`
	Description     string             `json:"description" bson:"description" validate:"max=500"`
	Author          primitive.ObjectID `json:"author" bson:"author"`
	Content         []Chapter          `json:"content" bson:"content"`
	PendingChapters []PendingChapter   `json:"pending_chapters,omitempty" bson:"pending_chapters,omitempty"`
	Votes           int                `json:"votes" bson:"votes"`
	ImageURL        string             `json:"image_url" bson:"image_url"`
	CreatedAt       time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at" bson:"updated_at"`
}

type Participant struct {
	User       primitive.ObjectID  `json:"user" bson:"user"`
	JoinedAt   time.Time           `json:"joined_at" bson:"joined_at"`
	Submission *primitive.ObjectID `json:"submission,omitempty" bson:"submission,omitempty"`
}

type Prize struct {
	Position int    `json:"position" bson:"position" validate:"required,min=1"`
	Reward   string `json:"reward" bson:"reward"`
	Points   int    `json:"points" bson:"points" validate:"min=0"`
}

type StoryBattle struct {
	ID              primitive.ObjectID  `json:"id" bson:"_id,omitempty"`
	Title           string              `json:"title" bson:"title" validate:"required,min=3,max=100"`
	Description     string              `json:"description" bson:"description" validate:"required,min=10,max=1000"`
	Theme           string              `json:"theme" bson:"theme" validate:"required,battle_theme"`
	BattleType      string              `json:"battle_type" bson:"battle_type" validate:"required,battle_type"`
	Status          string              `json:"status" bson:"status"`
	StartTime       time.Time           `json:"start_time" bson:"start_time" validate:"required"`
	EndTime         time.Time           `json:"end_time" bson:"end_time" validate:"required"`
	VotingEndTime   time.Time           `json:"voting_end_time" bson:"voting_end_time" validate:"required"`
	MaxParticipants int                 `json:"max_participants" bson:"max_participants" validate:"required,min=2,max=100"`
	Participants    []Participant       `json:"participants" bson:"participants"`
	Prizes          []Prize             `json:"prizes,omitempty" bson:"prizes,omitempty"`
	CreatedBy       primitive.ObjectID  `json:"created_by" bson:"created_by"`
	Winner          *primitive.ObjectID `json:"winner,omitempty" bson:"winner,omitempty"`
	TotalVotes      int                 `json:"total_votes" bson:"total_votes"`
	CreatedAt       time.Time           `json:"created_at" bson:"created_at"`
}

type SubmissionVote struct {
	User    primitive.ObjectID `json:"user" bson:"user"`
	VotedAt time.Time          `json:"voted_at" bson:"voted_at"`
}

type BattleSubmission struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	BattleID    primitive.ObjectID `json:"battle_id" bson:"battle_id"`
	Author      primitive.ObjectID `json:"author" bson:"author"`
	Title       string             `json:"title" bson:"title" validate:"required,min=3,max=100"`
	Content     string             `json:"content" bson:"content" validate:"required,max=5000"`
	WordCount   int                `json:"word_count" bson:"word_count"`
	Votes       []SubmissionVote   `json:"votes" bson:"votes"`
	TotalVotes  int                `json:"total_votes" bson:"total_votes"`
	Ranking     int                `json:"ranking,omitempty" bson:"ranking,omitempty"`
	SubmittedAt time.Time          `json:"submitted_at" bson:"submitted_at"`
}

type BattleFilters struct {
	Status string
	Theme  string
	Search string
	Page   int
	Limit  int
}

type LeaderboardEntry struct {
	ID           primitive.ObjectID `json:"id" bson:"_id"`
	Name         string             `json:"name" bson:"name"`
	Picture      string             `json:"picture" bson:"picture"`
	BattlePoints int                `json:"battle_points" bson:"battle_points"`
}

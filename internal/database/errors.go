package database

import "errors"

// Precondition failures surfaced to handlers. Anything else coming out of the
// Service is treated as a server error.
var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserNotFound       = errors.New("user not found")
	ErrSelfFollow         = errors.New("cannot follow yourself")

	ErrStoryNotFound   = errors.New("story not found")
	ErrNotAuthor       = errors.New("only the author can do that")
	ErrChapterNotFound = errors.New("chapter not found")
	ErrPendingNotFound = errors.New("pending chapter not found")

	ErrBattleNotFound     = errors.New("battle not found")
	ErrInvalidBattleTimes = errors.New("battle times must satisfy start < end < voting end")
	ErrBattleNotJoinable  = errors.New("battle is not open for joining")
	ErrBattleFull         = errors.New("battle is full")
	ErrAlreadyJoined      = errors.New("already joined this battle")
	ErrSubmissionClosed   = errors.New("battle is not accepting submissions")
	ErrNotParticipant     = errors.New("join the battle before submitting")
	ErrAlreadySubmitted   = errors.New("already submitted to this battle")

	ErrSubmissionNotFound = errors.New("submission not found")
	ErrVotingClosed       = errors.New("voting is not active")
	ErrSelfVote           = errors.New("cannot vote for your own submission")
	ErrAlreadyVoted       = errors.New("already voted for this submission")
)

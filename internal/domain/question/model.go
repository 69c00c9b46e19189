package question

import (
	"context"
	"time"
)

type Question struct {
	ID           int64     `json:"id"`
	QuestionText string    `json:"question_text"`
	AuthorID     int64     `json:"author"`
	PubDate      time.Time `json:"pub_date"`
	PathCount    int64     `json:"path_count"`
	Branches     int64     `json:"branches"`
}

type Choice struct {
	ID         int64  `json:"id"`
	QuestionID int64  `json:"question_id"`
	ChoiceText string `json:"choice_text"`
	Votes      int64  `json:"votes"`
	AuthorID   int64  `json:"author"`
}

// FollowUpRef is a direct follow-up as listed under its parent question.
type FollowUpRef struct {
	ID       int64     `json:"id"`
	Content  string    `json:"content"`
	AuthorID int64     `json:"author"`
	PubDate  time.Time `json:"pub_date"`
}

type Detail struct {
	Question
	Choices   []Choice      `json:"choices"`
	FollowUps []FollowUpRef `json:"follow_ups"`
}

type UpdateInput struct {
	QuestionText *string `json:"question_text"`
}

type ChoiceResult struct {
	ChoiceID   int64   `json:"choice_id"`
	ChoiceText string  `json:"choice_text"`
	Votes      int64   `json:"votes"`
	Percentage float64 `json:"percentage"`
}

type Results struct {
	QuestionID   int64          `json:"question_id"`
	QuestionText string         `json:"question_text"`
	TotalVotes   int64          `json:"total_votes"`
	Choices      []ChoiceResult `json:"choices"`
}

// VoteOutcome tells the caller where the reader goes after a vote.
// NextFollowUpID is zero when the question has no follow-ups.
type VoteOutcome struct {
	QuestionID     int64 `json:"question_id"`
	ChoiceID       int64 `json:"choice_id"`
	NextFollowUpID int64 `json:"next_follow_up_id,omitempty"`
}

type Repository interface {
	Create(ctx context.Context, q *Question, choices []Choice) error
	GetByID(ctx context.Context, id int64) (*Question, error)
	Choices(ctx context.Context, questionID int64) ([]Choice, error)
	DirectFollowUps(ctx context.Context, questionID int64) ([]FollowUpRef, error)
	ListPublished(ctx context.Context, before time.Time, limit int) ([]Question, error)
	UpdateText(ctx context.Context, id int64, text string) error
	Delete(ctx context.Context, id int64) error
	// IncrementVotes must be a single atomic update scoped to the question.
	IncrementVotes(ctx context.Context, questionID, choiceID int64) error
	FirstFollowUpID(ctx context.Context, questionID int64) (int64, bool, error)

	List(ctx context.Context, limit, offset int) ([]Question, error)
	ListChoices(ctx context.Context, questionID *int64, limit, offset int) ([]Choice, error)
	GetChoice(ctx context.Context, id int64) (*Choice, error)
	DeleteChoice(ctx context.Context, id int64) error
}

package followup

import (
	"context"
	"time"
)

type ParentKind string

const (
	ParentQuestion ParentKind = "question"
	ParentChoice   ParentKind = "choice"
	ParentFollowUp ParentKind = "followup"
)

// Parent identifies the single node a follow-up hangs from.
type Parent struct {
	Kind ParentKind `json:"kind"`
	ID   int64      `json:"id"`
}

func QuestionParent(id int64) Parent { return Parent{Kind: ParentQuestion, ID: id} }
func ChoiceParent(id int64) Parent   { return Parent{Kind: ParentChoice, ID: id} }
func FollowUpParent(id int64) Parent { return Parent{Kind: ParentFollowUp, ID: id} }

func (p Parent) Validate() error {
	switch p.Kind {
	case ParentQuestion, ParentChoice, ParentFollowUp:
	default:
		return ErrInvalidParent
	}
	if p.ID <= 0 {
		return ErrInvalidParent
	}
	return nil
}

type FollowUp struct {
	ID        int64     `json:"id"`
	Parent    Parent    `json:"parent"`
	Content   string    `json:"content"`
	AuthorID  int64     `json:"author"`
	PubDate   time.Time `json:"pub_date"`
	PathCount int64     `json:"path_count"`
}

type Choice struct {
	ID         int64  `json:"id"`
	FollowUpID int64  `json:"follow_up_id"`
	Content    string `json:"content"`
	Votes      int64  `json:"votes"`
	AuthorID   int64  `json:"author"`
}

type Detail struct {
	FollowUp
	Choices []Choice   `json:"choices"`
	Replies []FollowUp `json:"replies"`
}

// VoteOutcome names the reply the reader moves to; zero means stay on the follow-up.
type VoteOutcome struct {
	FollowUpID  int64 `json:"follow_up_id"`
	ChoiceID    int64 `json:"choice_id"`
	NextReplyID int64 `json:"next_reply_id,omitempty"`
}

type Repository interface {
	// Create inserts the follow-up with its choices and bumps the parent's
	// counter in the same transaction.
	Create(ctx context.Context, f *FollowUp, choices []Choice) error
	GetByID(ctx context.Context, id int64) (*FollowUp, error)
	Choices(ctx context.Context, followUpID int64) ([]Choice, error)
	Replies(ctx context.Context, followUpID int64) ([]FollowUp, error)
	IncrementVotes(ctx context.Context, followUpID, choiceID int64) error
	FirstReplyID(ctx context.Context, followUpID int64) (int64, bool, error)
	Delete(ctx context.Context, id int64) error

	List(ctx context.Context, limit, offset int) ([]FollowUp, error)
	ListChoices(ctx context.Context, followUpID *int64, limit, offset int) ([]Choice, error)
	GetChoice(ctx context.Context, id int64) (*Choice, error)
	DeleteChoice(ctx context.Context, id int64) error
}

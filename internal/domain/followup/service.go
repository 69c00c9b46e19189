package followup

import (
	"context"
	"errors"
	"time"

	"polltree/internal/platform/apperr"
)

var (
	ErrFollowUpNotFound = errors.New("follow-up question not found")
	ErrChoiceNotFound   = errors.New("follow-up choice not found")
	ErrParentNotFound   = errors.New("parent not found")
	ErrInvalidParent    = errors.New("follow-up must have exactly one parent")
	ErrNoChoiceSelected = errors.New("no choice selected")
	ErrForbidden        = errors.New("only the author may modify this follow-up")
)

const MaxTextLength = 200

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: func() time.Time { return time.Now().UTC() }}
}

// Branch attaches a follow-up directly to a question.
func (s *Service) Branch(ctx context.Context, authorID, questionID int64, content string, choiceTexts []string) (*Detail, error) {
	return s.create(ctx, authorID, QuestionParent(questionID), content, choiceTexts)
}

// Path attaches a follow-up to one of a question's choices.
func (s *Service) Path(ctx context.Context, authorID, choiceID int64, content string, choiceTexts []string) (*Detail, error) {
	return s.create(ctx, authorID, ChoiceParent(choiceID), content, choiceTexts)
}

// Reply nests a follow-up under another follow-up.
func (s *Service) Reply(ctx context.Context, authorID, parentID int64, content string, choiceTexts []string) (*Detail, error) {
	return s.create(ctx, authorID, FollowUpParent(parentID), content, choiceTexts)
}

func (s *Service) Get(ctx context.Context, id int64) (*Detail, error) {
	f, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	choices, err := s.repo.Choices(ctx, id)
	if err != nil {
		return nil, err
	}
	replies, err := s.repo.Replies(ctx, id)
	if err != nil {
		return nil, err
	}
	return &Detail{FollowUp: *f, Choices: choices, Replies: replies}, nil
}

func (s *Service) Vote(ctx context.Context, followUpID, choiceID int64) (*VoteOutcome, error) {
	if _, err := s.repo.GetByID(ctx, followUpID); err != nil {
		return nil, err
	}
	if choiceID == 0 {
		return nil, ErrNoChoiceSelected
	}
	if err := s.repo.IncrementVotes(ctx, followUpID, choiceID); err != nil {
		return nil, err
	}

	out := &VoteOutcome{FollowUpID: followUpID, ChoiceID: choiceID}
	next, ok, err := s.repo.FirstReplyID(ctx, followUpID)
	if err != nil {
		return nil, err
	}
	if ok {
		out.NextReplyID = next
	}
	return out, nil
}

func (s *Service) Delete(ctx context.Context, id, requesterID int64) error {
	f, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if f.AuthorID != requesterID {
		return ErrForbidden
	}
	return s.repo.Delete(ctx, id)
}

func (s *Service) AdminList(ctx context.Context, limit, offset int) ([]FollowUp, error) {
	return s.repo.List(ctx, limit, offset)
}

func (s *Service) AdminDelete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) AdminListChoices(ctx context.Context, followUpID *int64, limit, offset int) ([]Choice, error) {
	return s.repo.ListChoices(ctx, followUpID, limit, offset)
}

func (s *Service) AdminGetChoice(ctx context.Context, id int64) (*Choice, error) {
	return s.repo.GetChoice(ctx, id)
}

func (s *Service) AdminDeleteChoice(ctx context.Context, id int64) error {
	return s.repo.DeleteChoice(ctx, id)
}

func (s *Service) create(ctx context.Context, authorID int64, parent Parent, content string, choiceTexts []string) (*Detail, error) {
	if err := parent.Validate(); err != nil {
		return nil, err
	}

	fields := apperr.FieldErrors{}
	fields.CheckText("content", content, MaxTextLength)
	for _, c := range choiceTexts {
		fields.CheckText("choices", c, MaxTextLength)
	}
	if err := fields.Err(); err != nil {
		return nil, err
	}

	f := &FollowUp{
		Parent:   parent,
		Content:  content,
		AuthorID: authorID,
		PubDate:  s.now(),
	}
	choices := make([]Choice, 0, len(choiceTexts))
	for _, c := range choiceTexts {
		choices = append(choices, Choice{Content: c, AuthorID: authorID})
	}

	if err := s.repo.Create(ctx, f, choices); err != nil {
		return nil, err
	}
	return &Detail{FollowUp: *f, Choices: choices, Replies: []FollowUp{}}, nil
}

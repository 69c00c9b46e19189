package question

import (
	"context"
	"errors"
	"time"

	"polltree/internal/platform/apperr"
)

var (
	ErrQuestionNotFound = errors.New("question not found")
	ErrChoiceNotFound   = errors.New("choice not found")
	ErrNoChoiceSelected = errors.New("no choice selected")
	ErrForbidden        = errors.New("only the author may modify this question")
)

const (
	MaxTextLength = 200
	RecentLimit   = 10
)

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: func() time.Time { return time.Now().UTC() }}
}

// Create stores a question and one choice per text, all authored by authorID.
func (s *Service) Create(ctx context.Context, authorID int64, text string, choiceTexts []string) (*Detail, error) {
	fields := apperr.FieldErrors{}
	fields.CheckText("question_text", text, MaxTextLength)
	for _, c := range choiceTexts {
		fields.CheckText("choices", c, MaxTextLength)
	}
	if err := fields.Err(); err != nil {
		return nil, err
	}

	q := &Question{
		QuestionText: text,
		AuthorID:     authorID,
		PubDate:      s.now(),
	}
	choices := make([]Choice, 0, len(choiceTexts))
	for _, c := range choiceTexts {
		choices = append(choices, Choice{ChoiceText: c, AuthorID: authorID})
	}

	if err := s.repo.Create(ctx, q, choices); err != nil {
		return nil, err
	}
	return &Detail{Question: *q, Choices: choices, FollowUps: []FollowUpRef{}}, nil
}

// ListRecent returns the newest published questions.
func (s *Service) ListRecent(ctx context.Context) ([]Question, error) {
	return s.repo.ListPublished(ctx, s.now(), RecentLimit)
}

func (s *Service) Get(ctx context.Context, id int64) (*Detail, error) {
	q, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	choices, err := s.repo.Choices(ctx, id)
	if err != nil {
		return nil, err
	}
	followUps, err := s.repo.DirectFollowUps(ctx, id)
	if err != nil {
		return nil, err
	}
	return &Detail{Question: *q, Choices: choices, FollowUps: followUps}, nil
}

func (s *Service) Update(ctx context.Context, id, requesterID int64, in UpdateInput) (*Question, error) {
	q, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if q.AuthorID != requesterID {
		return nil, ErrForbidden
	}
	return s.applyUpdate(ctx, q, in)
}

func (s *Service) Delete(ctx context.Context, id, requesterID int64) error {
	q, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if q.AuthorID != requesterID {
		return ErrForbidden
	}
	return s.repo.Delete(ctx, id)
}

// Vote adds one vote to choiceID and reports the next follow-up, if any.
func (s *Service) Vote(ctx context.Context, questionID, choiceID int64) (*VoteOutcome, error) {
	if _, err := s.repo.GetByID(ctx, questionID); err != nil {
		return nil, err
	}
	if choiceID == 0 {
		return nil, ErrNoChoiceSelected
	}
	if err := s.repo.IncrementVotes(ctx, questionID, choiceID); err != nil {
		return nil, err
	}

	out := &VoteOutcome{QuestionID: questionID, ChoiceID: choiceID}
	next, ok, err := s.repo.FirstFollowUpID(ctx, questionID)
	if err != nil {
		return nil, err
	}
	if ok {
		out.NextFollowUpID = next
	}
	return out, nil
}

func (s *Service) Results(ctx context.Context, id int64) (*Results, error) {
	q, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	choices, err := s.repo.Choices(ctx, id)
	if err != nil {
		return nil, err
	}

	res := &Results{
		QuestionID:   q.ID,
		QuestionText: q.QuestionText,
		Choices:      make([]ChoiceResult, 0, len(choices)),
	}
	for _, c := range choices {
		res.TotalVotes += c.Votes
	}
	for _, c := range choices {
		var p float64
		if res.TotalVotes > 0 {
			p = float64(c.Votes) * 100.0 / float64(res.TotalVotes)
		}
		res.Choices = append(res.Choices, ChoiceResult{
			ChoiceID:   c.ID,
			ChoiceText: c.ChoiceText,
			Votes:      c.Votes,
			Percentage: p,
		})
	}
	return res, nil
}

func (s *Service) AdminList(ctx context.Context, limit, offset int) ([]Question, error) {
	return s.repo.List(ctx, limit, offset)
}

func (s *Service) AdminUpdate(ctx context.Context, id int64, in UpdateInput) (*Question, error) {
	q, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.applyUpdate(ctx, q, in)
}

func (s *Service) AdminDelete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) AdminListChoices(ctx context.Context, questionID *int64, limit, offset int) ([]Choice, error) {
	return s.repo.ListChoices(ctx, questionID, limit, offset)
}

func (s *Service) AdminGetChoice(ctx context.Context, id int64) (*Choice, error) {
	return s.repo.GetChoice(ctx, id)
}

func (s *Service) AdminDeleteChoice(ctx context.Context, id int64) error {
	return s.repo.DeleteChoice(ctx, id)
}

func (s *Service) applyUpdate(ctx context.Context, q *Question, in UpdateInput) (*Question, error) {
	fields := apperr.FieldErrors{}
	if in.QuestionText == nil {
		fields["question_text"] = "this field is required"
	} else {
		fields.CheckText("question_text", *in.QuestionText, MaxTextLength)
	}
	if err := fields.Err(); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateText(ctx, q.ID, *in.QuestionText); err != nil {
		return nil, err
	}
	q.QuestionText = *in.QuestionText
	return q, nil
}

package question

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"polltree/internal/platform/apperr"
)

type memoryQuestionRepo struct {
	mu           sync.Mutex
	questions    map[int64]*Question
	choices      map[int64]*Choice
	followUps    map[int64][]FollowUpRef
	nextID       int64
	nextChoiceID int64
}

func newMemoryQuestionRepo() *memoryQuestionRepo {
	return &memoryQuestionRepo{
		questions:    make(map[int64]*Question),
		choices:      make(map[int64]*Choice),
		followUps:    make(map[int64][]FollowUpRef),
		nextID:       1,
		nextChoiceID: 1,
	}
}

func (r *memoryQuestionRepo) Create(ctx context.Context, q *Question, choices []Choice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	q.ID = r.nextID
	r.nextID++
	copyQ := *q
	r.questions[q.ID] = &copyQ
	for i := range choices {
		choices[i].ID = r.nextChoiceID
		r.nextChoiceID++
		choices[i].QuestionID = q.ID
		copyC := choices[i]
		r.choices[copyC.ID] = &copyC
	}
	return nil
}

func (r *memoryQuestionRepo) GetByID(ctx context.Context, id int64) (*Question, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	q, ok := r.questions[id]
	if !ok {
		return nil, ErrQuestionNotFound
	}
	copyQ := *q
	return &copyQ, nil
}

func (r *memoryQuestionRepo) Choices(ctx context.Context, questionID int64) ([]Choice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	res := []Choice{}
	for _, c := range r.choices {
		if c.QuestionID == questionID {
			res = append(res, *c)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res, nil
}

func (r *memoryQuestionRepo) DirectFollowUps(ctx context.Context, questionID int64) ([]FollowUpRef, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]FollowUpRef{}, r.followUps[questionID]...), nil
}

func (r *memoryQuestionRepo) ListPublished(ctx context.Context, before time.Time, limit int) ([]Question, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	res := []Question{}
	for _, q := range r.questions {
		if !q.PubDate.After(before) {
			res = append(res, *q)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].PubDate.After(res[j].PubDate) })
	if len(res) > limit {
		res = res[:limit]
	}
	return res, nil
}

func (r *memoryQuestionRepo) UpdateText(ctx context.Context, id int64, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	q, ok := r.questions[id]
	if !ok {
		return ErrQuestionNotFound
	}
	q.QuestionText = text
	return nil
}

func (r *memoryQuestionRepo) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.questions[id]; !ok {
		return ErrQuestionNotFound
	}
	delete(r.questions, id)
	delete(r.followUps, id)
	for cid, c := range r.choices {
		if c.QuestionID == id {
			delete(r.choices, cid)
		}
	}
	return nil
}

func (r *memoryQuestionRepo) IncrementVotes(ctx context.Context, questionID, choiceID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.choices[choiceID]
	if !ok || c.QuestionID != questionID {
		return ErrChoiceNotFound
	}
	c.Votes++
	return nil
}

func (r *memoryQuestionRepo) FirstFollowUpID(ctx context.Context, questionID int64) (int64, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	refs := r.followUps[questionID]
	if len(refs) == 0 {
		return 0, false, nil
	}
	return refs[0].ID, true, nil
}

func (r *memoryQuestionRepo) List(ctx context.Context, limit, offset int) ([]Question, error) {
	return r.ListPublished(ctx, time.Now().Add(24*time.Hour), limit)
}

func (r *memoryQuestionRepo) ListChoices(ctx context.Context, questionID *int64, limit, offset int) ([]Choice, error) {
	if questionID == nil {
		return nil, errors.New("not supported")
	}
	return r.Choices(ctx, *questionID)
}

func (r *memoryQuestionRepo) GetChoice(ctx context.Context, id int64) (*Choice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.choices[id]
	if !ok {
		return nil, ErrChoiceNotFound
	}
	copyC := *c
	return &copyC, nil
}

func (r *memoryQuestionRepo) DeleteChoice(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.choices[id]; !ok {
		return ErrChoiceNotFound
	}
	delete(r.choices, id)
	return nil
}

func TestCreateValidation(t *testing.T) {
	svc := NewService(newMemoryQuestionRepo())
	ctx := context.Background()

	if _, err := svc.Create(ctx, 1, "", []string{"a"}); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected validation error for empty text, got %v", err)
	}
	if _, err := svc.Create(ctx, 1, strings.Repeat("q", MaxTextLength+1), nil); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected validation error for long text, got %v", err)
	}
	if _, err := svc.Create(ctx, 1, "ok?", []string{"yes", " "}); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected validation error for blank choice, got %v", err)
	}
}

func TestCreatePersistsEveryChoice(t *testing.T) {
	repo := newMemoryQuestionRepo()
	svc := NewService(repo)
	ctx := context.Background()

	for _, texts := range [][]string{nil, {"one"}, {"a", "b", "c", "d", "e"}} {
		d, err := svc.Create(ctx, 7, "How many?", texts)
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		stored, _ := repo.Choices(ctx, d.ID)
		if len(stored) != len(texts) {
			t.Fatalf("expected %d choices, got %d", len(texts), len(stored))
		}
		for _, c := range stored {
			if c.AuthorID != 7 {
				t.Fatalf("choice author should be the question author, got %d", c.AuthorID)
			}
		}
		if d.AuthorID != 7 || d.PubDate.IsZero() {
			t.Fatalf("unexpected question %+v", d.Question)
		}
	}
}

func TestListRecentSkipsFutureAndCaps(t *testing.T) {
	repo := newMemoryQuestionRepo()
	svc := NewService(repo)
	ctx := context.Background()

	base := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 12; i++ {
		at := base.Add(time.Duration(i) * time.Minute)
		svc.now = func() time.Time { return at }
		if _, err := svc.Create(ctx, 1, "q", nil); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	future := base.Add(time.Hour)
	svc.now = func() time.Time { return future }
	futureQ, _ := svc.Create(ctx, 1, "later", nil)

	svc.now = func() time.Time { return base.Add(30 * time.Minute) }
	list, err := svc.ListRecent(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != RecentLimit {
		t.Fatalf("expected %d questions, got %d", RecentLimit, len(list))
	}
	for _, q := range list {
		if q.ID == futureQ.ID {
			t.Fatalf("future question must not be listed")
		}
	}
	if !list[0].PubDate.After(list[1].PubDate) {
		t.Fatalf("expected newest first")
	}
}

func TestVoteOutcomes(t *testing.T) {
	repo := newMemoryQuestionRepo()
	svc := NewService(repo)
	ctx := context.Background()

	a, _ := svc.Create(ctx, 1, "A?", []string{"a1", "a2"})
	b, _ := svc.Create(ctx, 1, "B?", []string{"b1"})

	if _, err := svc.Vote(ctx, a.ID, 0); !errors.Is(err, ErrNoChoiceSelected) {
		t.Fatalf("expected no choice selected, got %v", err)
	}
	if _, err := svc.Vote(ctx, 999, a.Choices[0].ID); !errors.Is(err, ErrQuestionNotFound) {
		t.Fatalf("expected question not found, got %v", err)
	}
	if _, err := svc.Vote(ctx, a.ID, b.Choices[0].ID); !errors.Is(err, ErrChoiceNotFound) {
		t.Fatalf("expected choice not found, got %v", err)
	}
	if c, _ := repo.GetChoice(ctx, b.Choices[0].ID); c.Votes != 0 {
		t.Fatalf("foreign choice must keep its votes, got %d", c.Votes)
	}

	out, err := svc.Vote(ctx, a.ID, a.Choices[1].ID)
	if err != nil {
		t.Fatalf("vote: %v", err)
	}
	if out.NextFollowUpID != 0 {
		t.Fatalf("no follow-ups yet, got next %d", out.NextFollowUpID)
	}

	repo.followUps[a.ID] = []FollowUpRef{{ID: 40}, {ID: 41}}
	out, err = svc.Vote(ctx, a.ID, a.Choices[1].ID)
	if err != nil {
		t.Fatalf("vote: %v", err)
	}
	if out.NextFollowUpID != 40 {
		t.Fatalf("expected first follow-up 40, got %d", out.NextFollowUpID)
	}

	res, err := svc.Results(ctx, a.ID)
	if err != nil {
		t.Fatalf("results: %v", err)
	}
	if res.TotalVotes != 2 || res.Choices[1].Percentage != 100 || res.Choices[0].Votes != 0 {
		t.Fatalf("unexpected results %+v", res)
	}
}

func TestConcurrentVotesAreNotLost(t *testing.T) {
	repo := newMemoryQuestionRepo()
	svc := NewService(repo)
	ctx := context.Background()

	d, _ := svc.Create(ctx, 1, "Race?", []string{"x"})
	const voters = 50

	var wg sync.WaitGroup
	for i := 0; i < voters; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.Vote(ctx, d.ID, d.Choices[0].ID); err != nil {
				t.Errorf("vote: %v", err)
			}
		}()
	}
	wg.Wait()

	c, _ := repo.GetChoice(ctx, d.Choices[0].ID)
	if c.Votes != voters {
		t.Fatalf("expected %d votes, got %d", voters, c.Votes)
	}
}

func TestUpdateAndDeleteAreAuthorOnly(t *testing.T) {
	repo := newMemoryQuestionRepo()
	svc := NewService(repo)
	ctx := context.Background()

	d, _ := svc.Create(ctx, 1, "Mine", []string{"x"})
	text := "Stolen"

	if _, err := svc.Update(ctx, d.ID, 2, UpdateInput{QuestionText: &text}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected forbidden update, got %v", err)
	}
	if err := svc.Delete(ctx, d.ID, 2); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected forbidden delete, got %v", err)
	}
	q, _ := repo.GetByID(ctx, d.ID)
	if q.QuestionText != "Mine" {
		t.Fatalf("question changed by non-author: %q", q.QuestionText)
	}

	if _, err := svc.Update(ctx, d.ID, 1, UpdateInput{}); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected validation error on empty update, got %v", err)
	}
	text = "Mine, edited"
	updated, err := svc.Update(ctx, d.ID, 1, UpdateInput{QuestionText: &text})
	if err != nil || updated.QuestionText != text {
		t.Fatalf("author update failed: %v %+v", err, updated)
	}

	if err := svc.Delete(ctx, d.ID, 1); err != nil {
		t.Fatalf("author delete: %v", err)
	}
	if _, err := svc.Get(ctx, d.ID); !errors.Is(err, ErrQuestionNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
	if cs, _ := repo.Choices(ctx, d.ID); len(cs) != 0 {
		t.Fatalf("choices should be gone, got %d", len(cs))
	}
}

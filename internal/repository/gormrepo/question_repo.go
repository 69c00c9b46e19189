package gormrepo

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"polltree/internal/domain/question"
)

type QuestionRepo struct {
	db *gorm.DB
}

func NewQuestionRepo(db *gorm.DB) *QuestionRepo {
	return &QuestionRepo{db: db}
}

func (r *QuestionRepo) Create(ctx context.Context, q *question.Question, choices []question.Choice) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rec := questionRecord{
			QuestionText: q.QuestionText,
			AuthorID:     q.AuthorID,
			PubDate:      q.PubDate,
		}
		if err := tx.Omit(clause.Associations).Create(&rec).Error; err != nil {
			return err
		}
		q.ID = rec.ID

		for i := range choices {
			c := choiceRecord{
				QuestionID: rec.ID,
				ChoiceText: choices[i].ChoiceText,
				AuthorID:   choices[i].AuthorID,
			}
			if err := tx.Omit(clause.Associations).Create(&c).Error; err != nil {
				return err
			}
			choices[i].ID = c.ID
			choices[i].QuestionID = rec.ID
		}
		return nil
	})
}

func (r *QuestionRepo) GetByID(ctx context.Context, id int64) (*question.Question, error) {
	var rec questionRecord
	if err := r.db.WithContext(ctx).First(&rec, id).Error; err != nil {
		return nil, notFound(err, question.ErrQuestionNotFound)
	}
	q := toQuestion(rec)
	return &q, nil
}

func (r *QuestionRepo) Choices(ctx context.Context, questionID int64) ([]question.Choice, error) {
	var recs []choiceRecord
	err := r.db.WithContext(ctx).
		Where("question_id = ?", questionID).
		Order("id ASC").
		Find(&recs).Error
	if err != nil {
		return nil, err
	}
	return toChoices(recs), nil
}

func (r *QuestionRepo) DirectFollowUps(ctx context.Context, questionID int64) ([]question.FollowUpRef, error) {
	var recs []followUpRecord
	err := r.db.WithContext(ctx).
		Where("parent_question_id = ?", questionID).
		Order("pub_date ASC").Order("id ASC").
		Find(&recs).Error
	if err != nil {
		return nil, err
	}
	res := make([]question.FollowUpRef, 0, len(recs))
	for _, f := range recs {
		res = append(res, question.FollowUpRef{
			ID:       f.ID,
			Content:  f.Content,
			AuthorID: f.AuthorID,
			PubDate:  f.PubDate,
		})
	}
	return res, nil
}

func (r *QuestionRepo) ListPublished(ctx context.Context, before time.Time, limit int) ([]question.Question, error) {
	var recs []questionRecord
	err := r.db.WithContext(ctx).
		Where("pub_date <= ?", before).
		Order("pub_date DESC").Order("id DESC").
		Limit(limit).
		Find(&recs).Error
	if err != nil {
		return nil, err
	}
	return toQuestions(recs), nil
}

func (r *QuestionRepo) UpdateText(ctx context.Context, id int64, text string) error {
	res := r.db.WithContext(ctx).
		Model(&questionRecord{}).
		Where("id = ?", id).
		Update("question_text", text)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return question.ErrQuestionNotFound
	}
	return nil
}

// Delete relies on the ON DELETE CASCADE keys to drop choices and follow-ups.
func (r *QuestionRepo) Delete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(&questionRecord{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return question.ErrQuestionNotFound
	}
	return nil
}

func (r *QuestionRepo) IncrementVotes(ctx context.Context, questionID, choiceID int64) error {
	res := r.db.WithContext(ctx).
		Model(&choiceRecord{}).
		Where("id = ? AND question_id = ?", choiceID, questionID).
		UpdateColumn("votes", gorm.Expr("votes + ?", 1))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return question.ErrChoiceNotFound
	}
	return nil
}

func (r *QuestionRepo) FirstFollowUpID(ctx context.Context, questionID int64) (int64, bool, error) {
	var ids []int64
	err := r.db.WithContext(ctx).
		Model(&followUpRecord{}).
		Where("parent_question_id = ?", questionID).
		Order("pub_date ASC").Order("id ASC").
		Limit(1).
		Pluck("id", &ids).Error
	if err != nil {
		return 0, false, err
	}
	if len(ids) == 0 {
		return 0, false, nil
	}
	return ids[0], true, nil
}

func (r *QuestionRepo) List(ctx context.Context, limit, offset int) ([]question.Question, error) {
	var recs []questionRecord
	if err := page(r.db.WithContext(ctx), limit, offset).Order("id ASC").Find(&recs).Error; err != nil {
		return nil, err
	}
	return toQuestions(recs), nil
}

func (r *QuestionRepo) ListChoices(ctx context.Context, questionID *int64, limit, offset int) ([]question.Choice, error) {
	q := page(r.db.WithContext(ctx), limit, offset).Order("id ASC")
	if questionID != nil {
		q = q.Where("question_id = ?", *questionID)
	}
	var recs []choiceRecord
	if err := q.Find(&recs).Error; err != nil {
		return nil, err
	}
	return toChoices(recs), nil
}

func (r *QuestionRepo) GetChoice(ctx context.Context, id int64) (*question.Choice, error) {
	var rec choiceRecord
	if err := r.db.WithContext(ctx).First(&rec, id).Error; err != nil {
		return nil, notFound(err, question.ErrChoiceNotFound)
	}
	c := toChoice(rec)
	return &c, nil
}

func (r *QuestionRepo) DeleteChoice(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(&choiceRecord{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return question.ErrChoiceNotFound
	}
	return nil
}

func toQuestion(rec questionRecord) question.Question {
	return question.Question{
		ID:           rec.ID,
		QuestionText: rec.QuestionText,
		AuthorID:     rec.AuthorID,
		PubDate:      rec.PubDate,
		PathCount:    rec.PathCount,
		Branches:     rec.Branches,
	}
}

func toQuestions(recs []questionRecord) []question.Question {
	res := make([]question.Question, 0, len(recs))
	for _, rec := range recs {
		res = append(res, toQuestion(rec))
	}
	return res
}

func toChoice(rec choiceRecord) question.Choice {
	return question.Choice{
		ID:         rec.ID,
		QuestionID: rec.QuestionID,
		ChoiceText: rec.ChoiceText,
		Votes:      rec.Votes,
		AuthorID:   rec.AuthorID,
	}
}

func toChoices(recs []choiceRecord) []question.Choice {
	res := make([]question.Choice, 0, len(recs))
	for _, rec := range recs {
		res = append(res, toChoice(rec))
	}
	return res
}

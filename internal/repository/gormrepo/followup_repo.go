package gormrepo

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"polltree/internal/domain/followup"
)

type FollowUpRepo struct {
	db *gorm.DB
}

func NewFollowUpRepo(db *gorm.DB) *FollowUpRepo {
	return &FollowUpRepo{db: db}
}

// Create bumps the parent's counter before inserting, so a missing parent
// rolls the whole transaction back with followup.ErrParentNotFound.
func (r *FollowUpRepo) Create(ctx context.Context, f *followup.FollowUp, choices []followup.Choice) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rec := followUpRecord{
			Content:  f.Content,
			AuthorID: f.AuthorID,
			PubDate:  f.PubDate,
		}
		parentID := f.Parent.ID

		switch f.Parent.Kind {
		case followup.ParentQuestion:
			if err := bump(tx, &questionRecord{}, "branches", parentID); err != nil {
				return err
			}
			rec.ParentQuestionID = &parentID
		case followup.ParentChoice:
			var owner choiceRecord
			if err := tx.Select("id", "question_id").First(&owner, parentID).Error; err != nil {
				return notFound(err, followup.ErrParentNotFound)
			}
			if err := bump(tx, &questionRecord{}, "path_count", owner.QuestionID); err != nil {
				return err
			}
			rec.ParentChoiceID = &parentID
		case followup.ParentFollowUp:
			if err := bump(tx, &followUpRecord{}, "path_count", parentID); err != nil {
				return err
			}
			rec.ParentID = &parentID
		default:
			return followup.ErrInvalidParent
		}

		if err := tx.Omit(clause.Associations).Create(&rec).Error; err != nil {
			return err
		}
		f.ID = rec.ID

		for i := range choices {
			c := followUpChoiceRecord{
				FollowUpID: rec.ID,
				Content:    choices[i].Content,
				AuthorID:   choices[i].AuthorID,
			}
			if err := tx.Omit(clause.Associations).Create(&c).Error; err != nil {
				return err
			}
			choices[i].ID = c.ID
			choices[i].FollowUpID = rec.ID
		}
		return nil
	})
}

func bump(tx *gorm.DB, model any, column string, id int64) error {
	res := tx.Model(model).
		Where("id = ?", id).
		UpdateColumn(column, gorm.Expr(column+" + ?", 1))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return followup.ErrParentNotFound
	}
	return nil
}

func (r *FollowUpRepo) GetByID(ctx context.Context, id int64) (*followup.FollowUp, error) {
	var rec followUpRecord
	if err := r.db.WithContext(ctx).First(&rec, id).Error; err != nil {
		return nil, notFound(err, followup.ErrFollowUpNotFound)
	}
	f, err := toFollowUp(rec)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *FollowUpRepo) Choices(ctx context.Context, followUpID int64) ([]followup.Choice, error) {
	var recs []followUpChoiceRecord
	err := r.db.WithContext(ctx).
		Where("follow_up_id = ?", followUpID).
		Order("id ASC").
		Find(&recs).Error
	if err != nil {
		return nil, err
	}
	return toFollowUpChoices(recs), nil
}

func (r *FollowUpRepo) Replies(ctx context.Context, followUpID int64) ([]followup.FollowUp, error) {
	var recs []followUpRecord
	err := r.db.WithContext(ctx).
		Where("parent_id = ?", followUpID).
		Order("pub_date ASC").Order("id ASC").
		Find(&recs).Error
	if err != nil {
		return nil, err
	}
	return toFollowUps(recs)
}

func (r *FollowUpRepo) IncrementVotes(ctx context.Context, followUpID, choiceID int64) error {
	res := r.db.WithContext(ctx).
		Model(&followUpChoiceRecord{}).
		Where("id = ? AND follow_up_id = ?", choiceID, followUpID).
		UpdateColumn("votes", gorm.Expr("votes + ?", 1))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return followup.ErrChoiceNotFound
	}
	return nil
}

func (r *FollowUpRepo) FirstReplyID(ctx context.Context, followUpID int64) (int64, bool, error) {
	var ids []int64
	err := r.db.WithContext(ctx).
		Model(&followUpRecord{}).
		Where("parent_id = ?", followUpID).
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

func (r *FollowUpRepo) Delete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(&followUpRecord{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return followup.ErrFollowUpNotFound
	}
	return nil
}

func (r *FollowUpRepo) List(ctx context.Context, limit, offset int) ([]followup.FollowUp, error) {
	var recs []followUpRecord
	if err := page(r.db.WithContext(ctx), limit, offset).Order("id ASC").Find(&recs).Error; err != nil {
		return nil, err
	}
	return toFollowUps(recs)
}

func (r *FollowUpRepo) ListChoices(ctx context.Context, followUpID *int64, limit, offset int) ([]followup.Choice, error) {
	q := page(r.db.WithContext(ctx), limit, offset).Order("id ASC")
	if followUpID != nil {
		q = q.Where("follow_up_id = ?", *followUpID)
	}
	var recs []followUpChoiceRecord
	if err := q.Find(&recs).Error; err != nil {
		return nil, err
	}
	return toFollowUpChoices(recs), nil
}

func (r *FollowUpRepo) GetChoice(ctx context.Context, id int64) (*followup.Choice, error) {
	var rec followUpChoiceRecord
	if err := r.db.WithContext(ctx).First(&rec, id).Error; err != nil {
		return nil, notFound(err, followup.ErrChoiceNotFound)
	}
	c := toFollowUpChoice(rec)
	return &c, nil
}

func (r *FollowUpRepo) DeleteChoice(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(&followUpChoiceRecord{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return followup.ErrChoiceNotFound
	}
	return nil
}

var errNoParent = errors.New("follow-up row has no parent column set")

func toFollowUp(rec followUpRecord) (followup.FollowUp, error) {
	f := followup.FollowUp{
		ID:        rec.ID,
		Content:   rec.Content,
		AuthorID:  rec.AuthorID,
		PubDate:   rec.PubDate,
		PathCount: rec.PathCount,
	}
	switch {
	case rec.ParentQuestionID != nil:
		f.Parent = followup.QuestionParent(*rec.ParentQuestionID)
	case rec.ParentChoiceID != nil:
		f.Parent = followup.ChoiceParent(*rec.ParentChoiceID)
	case rec.ParentID != nil:
		f.Parent = followup.FollowUpParent(*rec.ParentID)
	default:
		return followup.FollowUp{}, errNoParent
	}
	return f, nil
}

func toFollowUps(recs []followUpRecord) ([]followup.FollowUp, error) {
	res := make([]followup.FollowUp, 0, len(recs))
	for _, rec := range recs {
		f, err := toFollowUp(rec)
		if err != nil {
			return nil, err
		}
		res = append(res, f)
	}
	return res, nil
}

func toFollowUpChoice(rec followUpChoiceRecord) followup.Choice {
	return followup.Choice{
		ID:         rec.ID,
		FollowUpID: rec.FollowUpID,
		Content:    rec.Content,
		Votes:      rec.Votes,
		AuthorID:   rec.AuthorID,
	}
}

func toFollowUpChoices(recs []followUpChoiceRecord) []followup.Choice {
	res := make([]followup.Choice, 0, len(recs))
	for _, rec := range recs {
		res = append(res, toFollowUpChoice(rec))
	}
	return res
}

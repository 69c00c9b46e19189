package gormrepo

import (
	"context"

	"gorm.io/gorm"

	"polltree/internal/domain/user"
)

type UserRepo struct {
	db *gorm.DB
}

func NewUserRepo(db *gorm.DB) *UserRepo {
	return &UserRepo{db: db}
}

func (r *UserRepo) Create(ctx context.Context, u *user.User) error {
	rec := userRecord{
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Role:         u.Role,
		IsActive:     u.IsActive,
	}
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		if isUniqueViolation(err) {
			return user.ErrEmailTaken
		}
		return err
	}
	u.ID = rec.ID
	u.CreatedAt = rec.CreatedAt
	return nil
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	var rec userRecord
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&rec).Error; err != nil {
		return nil, notFound(err, user.ErrUserNotFound)
	}
	u := toUser(rec)
	return &u, nil
}

func (r *UserRepo) GetByID(ctx context.Context, id int64) (*user.User, error) {
	var rec userRecord
	if err := r.db.WithContext(ctx).First(&rec, id).Error; err != nil {
		return nil, notFound(err, user.ErrUserNotFound)
	}
	u := toUser(rec)
	return &u, nil
}

func (r *UserRepo) List(ctx context.Context) ([]user.User, error) {
	var recs []userRecord
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&recs).Error; err != nil {
		return nil, err
	}
	res := make([]user.User, 0, len(recs))
	for _, rec := range recs {
		res = append(res, toUser(rec))
	}
	return res, nil
}

func (r *UserRepo) UpdateRole(ctx context.Context, id int64, role string) error {
	return r.updateColumn(ctx, id, "role", role)
}

func (r *UserRepo) Deactivate(ctx context.Context, id int64) error {
	return r.updateColumn(ctx, id, "is_active", false)
}

func (r *UserRepo) updateColumn(ctx context.Context, id int64, column string, value any) error {
	res := r.db.WithContext(ctx).
		Model(&userRecord{}).
		Where("id = ?", id).
		UpdateColumn(column, value)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return user.ErrUserNotFound
	}
	return nil
}

func toUser(rec userRecord) user.User {
	return user.User{
		ID:           rec.ID,
		Email:        rec.Email,
		PasswordHash: rec.PasswordHash,
		Role:         rec.Role,
		IsActive:     rec.IsActive,
		CreatedAt:    rec.CreatedAt,
	}
}

package gormrepo

import "time"

type userRecord struct {
	ID           int64     `gorm:"primaryKey"`
	Email        string    `gorm:"size:255;not null;uniqueIndex"`
	PasswordHash string    `gorm:"not null"`
	Role         string    `gorm:"size:16;not null;default:'user'"`
	IsActive     bool      `gorm:"not null;default:true"`
	CreatedAt    time.Time `gorm:"not null"`
}

func (userRecord) TableName() string { return "users" }

type questionRecord struct {
	ID           int64       `gorm:"primaryKey"`
	QuestionText string      `gorm:"size:200;not null"`
	AuthorID     int64       `gorm:"not null;index"`
	Author       *userRecord `gorm:"foreignKey:AuthorID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	PubDate      time.Time   `gorm:"not null;index"`
	PathCount    int64       `gorm:"not null;default:0"`
	Branches     int64       `gorm:"not null;default:0"`
}

func (questionRecord) TableName() string { return "questions" }

type choiceRecord struct {
	ID         int64           `gorm:"primaryKey"`
	QuestionID int64           `gorm:"not null;index"`
	Question   *questionRecord `gorm:"foreignKey:QuestionID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	ChoiceText string          `gorm:"size:200;not null"`
	Votes      int64           `gorm:"not null;default:0"`
	AuthorID   int64           `gorm:"not null;index"`
	Author     *userRecord     `gorm:"foreignKey:AuthorID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

func (choiceRecord) TableName() string { return "choices" }

// followUpRecord keeps one nullable column per parent kind; the check
// constraint makes exactly one of them non-null.
type followUpRecord struct {
	ID               int64           `gorm:"primaryKey"`
	ParentQuestionID *int64          `gorm:"index;check:chk_follow_up_questions_one_parent,(CASE WHEN parent_question_id IS NULL THEN 0 ELSE 1 END + CASE WHEN parent_choice_id IS NULL THEN 0 ELSE 1 END + CASE WHEN parent_id IS NULL THEN 0 ELSE 1 END) = 1"`
	ParentQuestion   *questionRecord `gorm:"foreignKey:ParentQuestionID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	ParentChoiceID   *int64          `gorm:"index"`
	ParentChoice     *choiceRecord   `gorm:"foreignKey:ParentChoiceID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	ParentID         *int64          `gorm:"index"`
	Parent           *followUpRecord `gorm:"foreignKey:ParentID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Content          string          `gorm:"size:200;not null"`
	AuthorID         int64           `gorm:"not null;index"`
	Author           *userRecord     `gorm:"foreignKey:AuthorID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	PubDate          time.Time       `gorm:"not null;index"`
	PathCount        int64           `gorm:"not null;default:0"`
}

func (followUpRecord) TableName() string { return "follow_up_questions" }

type followUpChoiceRecord struct {
	ID         int64           `gorm:"primaryKey"`
	FollowUpID int64           `gorm:"not null;index"`
	FollowUp   *followUpRecord `gorm:"foreignKey:FollowUpID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Content    string          `gorm:"size:200;not null"`
	Votes      int64           `gorm:"not null;default:0"`
	AuthorID   int64           `gorm:"not null;index"`
	Author     *userRecord     `gorm:"foreignKey:AuthorID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

func (followUpChoiceRecord) TableName() string { return "follow_up_choices" }

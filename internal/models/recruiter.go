package models

import "time"

type Recruiter struct {
	Username     string    `gorm:"type:text;primaryKey" json:"username"`
	PasswordHash string    `gorm:"type:text;not null" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

func (Recruiter) TableName() string {
	return "recruiters"
}

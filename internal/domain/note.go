package domain

import "time"

type Note struct {
	ID      uint   `json:"id" gorm:"primaryKey"`
	Title   string `json:"title" gorm:"not null"`
	Content string `json:"content" gorm:"type:text;not null"`
	UserID  uint   `json:"userId" gorm:"not null;index"`
	User    *User  `json:"-" gorm:"constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

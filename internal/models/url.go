package models

import (
	"time"
)

// ShortCodeLength is the fixed length of every generated short code.
const ShortCodeLength = 7

type URL struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	OriginalURL string    `gorm:"column:original_url;not null;type:text" json:"originalUrl"`
	ShortCode   string    `gorm:"uniqueIndex;not null;size:20" json:"shortCode"`
	UserID      uint      `gorm:"not null;index" json:"userId"`
	User        *User     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt   time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// TableName overrides the table name used by URL to `urls`
func (URL) TableName() string {
	return "urls"
}

// OwnedBy reports whether the URL belongs to userID.
func (u URL) OwnedBy(userID uint) bool {
	return u.UserID == userID
}

package models

import (
	"time"
)

type AuditLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Timestamp time.Time `gorm:"not null;index" json:"timestamp"`
	User      string    `gorm:"column:actor;size:320;not null;index" json:"user"` // identity snapshot, e.g. "a@b.c (id:3)" or "anon"
	Action    string    `gorm:"size:50;not null;index" json:"action"`               // e.g. "create_url", "delete_user"
	Details   string    `gorm:"type:text" json:"details"`                           // JSON
	IP        string    `gorm:"column:ip;size:45" json:"ip"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}

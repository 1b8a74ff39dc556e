package models

import (
	"time"

	"gorm.io/gorm"
)

// User is the local mirror of an account managed by the gateway/auth service.
// CreatedAt feeds the all-time leaderboard tie-break, so it is copied from
// the upstream profile on first sight and never touched afterwards.
type User struct {
	ID       string `json:"id" gorm:"primaryKey"`
	Email    string `json:"email" gorm:"uniqueIndex"`
	Username string `json:"username" gorm:"not null;index"`
	IsAdmin  bool   `json:"is_admin" gorm:"default:false"`

	Timestamps
}

// Timestamps adds GORM auto-times plus soft delete.
type Timestamps struct {
	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

package models

import (
	"time"

	"github.com/google/uuid"
)

// User is the bookkeeping record kept per identity-provider subject.
type User struct {
	ID            uuid.UUID  `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	ClerkID       string     `gorm:"type:text;not null;uniqueIndex" json:"clerk_id"`
	Username      string     `gorm:"type:text;not null;uniqueIndex" json:"username"`
	AnalysisCount int        `gorm:"not null;default:0" json:"analysis_count"`
	IsPremium     bool       `gorm:"not null;default:false" json:"is_premium"`
	PremiumSince  *time.Time `gorm:"type:timestamp" json:"premium_since,omitempty"`
	CreatedAt     time.Time  `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

// DefaultUsername is used when the identity provider supplies neither a
// username nor an email address.
func DefaultUsername(clerkID string) string {
	return "user_" + clerkID
}

package account

import (
	"time"

	"github.com/google/uuid"
)

// Account holds a user's purchased entitlement.
type Account struct {
	UserID        uuid.UUID `json:"user_id" gorm:"type:uuid;primaryKey"`
	SessionsCount int64     `json:"sessions_count" gorm:"not null;default:0"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// TableName returns the table name for Account.
func (Account) TableName() string {
	return "accounts"
}

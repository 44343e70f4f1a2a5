package account

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/uniedit/payments/internal/shared/database"
)

// Repository defines the interface for account data access.
type Repository interface {
	Get(ctx context.Context, userID uuid.UUID) (*Account, error)

	// AddCredits increments the user's balance, creating the account on
	// first use. It joins the transaction carried by ctx.
	AddCredits(ctx context.Context, userID uuid.UUID, credits int64) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository creates a new account repository.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Get(ctx context.Context, userID uuid.UUID) (*Account, error) {
	var acc Account
	err := database.Conn(ctx, r.db).First(&acc, "user_id = ?", userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("get account: %w", err)
	}
	return &acc, nil
}

func (r *repository) AddCredits(ctx context.Context, userID uuid.UUID, credits int64) error {
	now := time.Now().UTC()
	acc := &Account{
		UserID:        userID,
		SessionsCount: credits,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	err := database.Conn(ctx, r.db).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"sessions_count": gorm.Expr("accounts.sessions_count + ?", credits),
			"updated_at":     now,
		}),
	}).Create(acc).Error
	if err != nil {
		return fmt.Errorf("add credits: %w", err)
	}
	return nil
}

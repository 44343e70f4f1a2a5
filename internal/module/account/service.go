package account

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ServiceInterface defines the account service.
type ServiceInterface interface {
	AddCredits(ctx context.Context, userID uuid.UUID, credits int64, paymentID uuid.UUID) error
	GetAccount(ctx context.Context, userID uuid.UUID) (*Account, error)
}

// Service manages account entitlements.
type Service struct {
	repo   Repository
	logger *zap.Logger
}

// NewService creates a new account service.
func NewService(repo Repository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, logger: logger}
}

// AddCredits credits userID for a charged payment. It must be called with the
// charge transaction in ctx; deduplication is the caller's job.
func (s *Service) AddCredits(ctx context.Context, userID uuid.UUID, credits int64, paymentID uuid.UUID) error {
	if credits < 0 {
		return ErrInvalidCredits
	}
	if credits == 0 {
		return nil
	}
	if err := s.repo.AddCredits(ctx, userID, credits); err != nil {
		return err
	}

	s.logger.Debug("credits added",
		zap.String("user_id", userID.String()),
		zap.String("payment_id", paymentID.String()),
		zap.Int64("credits", credits),
	)
	return nil
}

// GetAccount returns the user's account. A user who never paid has an empty one.
func (s *Service) GetAccount(ctx context.Context, userID uuid.UUID) (*Account, error) {
	acc, err := s.repo.Get(ctx, userID)
	if errors.Is(err, ErrAccountNotFound) {
		return &Account{UserID: userID}, nil
	}
	return acc, err
}

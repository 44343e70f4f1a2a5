package account

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockRepository struct {
	mock.Mock
}

func (m *mockRepository) Get(ctx context.Context, userID uuid.UUID) (*Account, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Account), args.Error(1)
}

func (m *mockRepository) AddCredits(ctx context.Context, userID uuid.UUID, credits int64) error {
	args := m.Called(ctx, userID, credits)
	return args.Error(0)
}

func TestService_AddCredits(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("adds", func(t *testing.T) {
		repo := new(mockRepository)
		repo.On("AddCredits", ctx, userID, int64(3)).Return(nil)

		require.NoError(t, NewService(repo, nil).AddCredits(ctx, userID, 3, uuid.New()))
		repo.AssertExpectations(t)
	})

	t.Run("zero is a no-op", func(t *testing.T) {
		repo := new(mockRepository)

		require.NoError(t, NewService(repo, nil).AddCredits(ctx, userID, 0, uuid.New()))
		repo.AssertNotCalled(t, "AddCredits", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("negative", func(t *testing.T) {
		repo := new(mockRepository)

		err := NewService(repo, nil).AddCredits(ctx, userID, -1, uuid.New())
		assert.ErrorIs(t, err, ErrInvalidCredits)
	})

	t.Run("repository error", func(t *testing.T) {
		repo := new(mockRepository)
		repo.On("AddCredits", ctx, userID, int64(1)).Return(errors.New("deadlock"))

		err := NewService(repo, nil).AddCredits(ctx, userID, 1, uuid.New())
		assert.EqualError(t, err, "deadlock")
	})
}

func TestService_GetAccount(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("existing", func(t *testing.T) {
		repo := new(mockRepository)
		repo.On("Get", ctx, userID).Return(&Account{UserID: userID, SessionsCount: 7}, nil)

		acc, err := NewService(repo, nil).GetAccount(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, int64(7), acc.SessionsCount)
	})

	t.Run("missing account is empty", func(t *testing.T) {
		repo := new(mockRepository)
		repo.On("Get", ctx, userID).Return(nil, ErrAccountNotFound)

		acc, err := NewService(repo, nil).GetAccount(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, userID, acc.UserID)
		assert.Zero(t, acc.SessionsCount)
	})
}

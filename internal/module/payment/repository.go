package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/uniedit/payments/internal/module/payment/domain"
	"github.com/uniedit/payments/internal/module/payment/entity"
	"github.com/uniedit/payments/internal/shared/database"
)

// Repository defines the interface for payment data access. Every method
// joins the transaction carried by ctx, if any.
type Repository interface {
	Create(ctx context.Context, p *domain.Payment) error
	Get(ctx context.Context, id uuid.UUID) (*domain.Payment, error)
	ListChargedByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Payment, error)

	// Save persists everything but the charged flag, and only while the
	// payment is uncharged. It returns domain.ErrAlreadyCharged otherwise.
	Save(ctx context.Context, p *domain.Payment) error

	// MarkCharged flips charged from false to true. It reports false when
	// another writer got there first.
	MarkCharged(ctx context.Context, id uuid.UUID, reference string, at time.Time) (bool, error)

	// RecordNotification stores n. It reports false when a notification with
	// the same gateway and notify id was already recorded.
	RecordNotification(ctx context.Context, n *domain.Notification) (bool, error)

	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository creates a new payment repository.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, p *domain.Payment) error {
	ent := entity.FromDomainPayment(p)
	if err := database.Conn(ctx, r.db).Create(ent).Error; err != nil {
		return fmt.Errorf("create payment: %w", err)
	}
	return nil
}

func (r *repository) Get(ctx context.Context, id uuid.UUID) (*domain.Payment, error) {
	var ent entity.PaymentEntity
	err := database.Conn(ctx, r.db).First(&ent, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, fmt.Errorf("get payment: %w", err)
	}
	return ent.ToDomain(), nil
}

func (r *repository) ListChargedByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Payment, error) {
	var entities []*entity.PaymentEntity
	err := database.Conn(ctx, r.db).
		Where("user_id = ? AND charged = ?", userID, true).
		Order("created_at DESC").
		Find(&entities).Error
	if err != nil {
		return nil, fmt.Errorf("list charged payments: %w", err)
	}

	payments := make([]*domain.Payment, len(entities))
	for i, ent := range entities {
		payments[i] = ent.ToDomain()
	}
	return payments, nil
}

func (r *repository) Save(ctx context.Context, p *domain.Payment) error {
	res := database.Conn(ctx, r.db).
		Model(&entity.PaymentEntity{}).
		Where("id = ? AND charged = ?", p.ID(), false).
		Updates(map[string]any{
			"method":            string(p.Method()),
			"state":             string(p.State()),
			"external_token":    p.ExternalToken(),
			"external_payer_id": p.ExternalPayerID(),
			"gateway_reference": p.GatewayReference(),
			"updated_at":        p.UpdatedAt(),
		})
	if res.Error != nil {
		return fmt.Errorf("save payment: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrAlreadyCharged
	}
	return nil
}

func (r *repository) MarkCharged(ctx context.Context, id uuid.UUID, reference string, at time.Time) (bool, error) {
	updates := map[string]any{
		"charged":    true,
		"state":      string(domain.StateCharged),
		"charged_at": at,
		"updated_at": at,
	}
	if reference != "" {
		updates["gateway_reference"] = reference
	}

	res := database.Conn(ctx, r.db).
		Model(&entity.PaymentEntity{}).
		Where("id = ? AND charged = ?", id, false).
		Updates(updates)
	if res.Error != nil {
		return false, fmt.Errorf("mark payment charged: %w", res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) RecordNotification(ctx context.Context, n *domain.Notification) (bool, error) {
	ent := entity.FromDomainNotification(n)
	// ON CONFLICT keeps a surrounding transaction usable after a replay.
	res := database.Conn(ctx, r.db).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "gateway"}, {Name: "notify_id"}},
			DoNothing: true,
		}).
		Create(ent)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return false, nil
		}
		return false, fmt.Errorf("record notification: %w", res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return database.RunInTransaction(ctx, r.db, fn)
}

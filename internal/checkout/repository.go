package checkout

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mercantile/storefront/pkg/db/models"
	"github.com/mercantile/storefront/pkg/enums"
)

// Repository persists checkout sessions.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, session *models.CheckoutSession) (*models.CheckoutSession, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.CheckoutSession, error)
	FindByProviderSessionID(ctx context.Context, providerSessionID string) (*models.CheckoutSession, error)
	MarkCompleted(ctx context.Context, id uuid.UUID, at time.Time) error
	MarkExpired(ctx context.Context, providerSessionID string) (bool, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a checkout repository backed by the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, session *models.CheckoutSession) (*models.CheckoutSession, error) {
	if err := r.db.WithContext(ctx).Create(session).Error; err != nil {
		return nil, err
	}
	return session, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.CheckoutSession, error) {
	var session models.CheckoutSession
	if err := r.db.WithContext(ctx).First(&session, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *repository) FindByProviderSessionID(ctx context.Context, providerSessionID string) (*models.CheckoutSession, error) {
	var session models.CheckoutSession
	err := r.db.WithContext(ctx).
		Where("provider_session_id = ?", providerSessionID).
		First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *repository) MarkCompleted(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.CheckoutSession{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":       enums.CheckoutStatusCompleted,
			"completed_at": at,
		}).Error
}

// MarkExpired moves a pending session to expired. Completed sessions are left alone.
func (r *repository) MarkExpired(ctx context.Context, providerSessionID string) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.CheckoutSession{}).
		Where("provider_session_id = ? AND status = ?", providerSessionID, enums.CheckoutStatusPending).
		Update("status", enums.CheckoutStatusExpired)
	return res.RowsAffected > 0, res.Error
}

package reviews

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/mercantile/storefront/pkg/db"
	"github.com/mercantile/storefront/pkg/db/models"
	pkgerrors "github.com/mercantile/storefront/pkg/errors"
	"github.com/mercantile/storefront/pkg/pagination"
)

const (
	MinRating        = 1
	MaxRating        = 5
	maxCommentLength = 2000
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ProductRatings is the part of the catalog repository reviews write through.
type ProductRatings interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	UpdateRating(ctx context.Context, id uuid.UUID, average decimal.Decimal, count int) error
}

// ReviewDTO is the client view of a review.
type ReviewDTO struct {
	ID        uuid.UUID `json:"id"`
	ProductID uuid.UUID `json:"product_id"`
	UserID    uuid.UUID `json:"user_id"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}

// ReviewList is one cursor page.
type ReviewList struct {
	Reviews    []ReviewDTO `json:"reviews"`
	NextCursor string      `json:"next_cursor,omitempty"`
}

// CreateInput is a validated review submission.
type CreateInput struct {
	UserID    uuid.UUID
	ProductID uuid.UUID
	Rating    int
	Comment   string
}

type Service interface {
	Create(ctx context.Context, input CreateInput) (*ReviewDTO, error)
	List(ctx context.Context, productID uuid.UUID, params pagination.Params) (*ReviewList, error)
}

type service struct {
	repo     *Repository
	products func(tx *gorm.DB) ProductRatings
	tx       txRunner
}

// NewService wires reviews to the catalog. products binds the catalog
// repository to the review transaction.
func NewService(repo *Repository, products func(tx *gorm.DB) ProductRatings, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("reviews repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	return &service{repo: repo, products: products, tx: tx}, nil
}

// Create stores the review and refreshes the product's rating in one
// transaction. A second review by the same user is a conflict.
func (s *service) Create(ctx context.Context, input CreateInput) (*ReviewDTO, error) {
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	if input.Rating < MinRating || input.Rating > MaxRating {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "rating must be between %d and %d", MinRating, MaxRating)
	}
	comment := strings.TrimSpace(input.Comment)
	if len(comment) > maxCommentLength {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "comment must be at most %d characters", maxCommentLength)
	}

	review := &models.Review{
		ProductID: input.ProductID,
		UserID:    input.UserID,
		Rating:    input.Rating,
		Comment:   comment,
	}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		products := s.products(tx)
		product, err := products.FindByID(ctx, input.ProductID)
		if err != nil {
			if db.IsNotFound(err) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load product")
		}
		if !product.IsActive {
			return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}

		repo := s.repo.WithTx(tx)
		if err := repo.Create(ctx, review); err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.New(pkgerrors.CodeConflict, "product already reviewed").
					WithDetails(map[string]any{"product_id": input.ProductID.String()})
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert review")
		}

		avg, count, err := repo.Aggregate(ctx, input.ProductID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: aggregate ratings")
		}
		if err := products.UpdateRating(ctx, input.ProductID, avg, count); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update product rating")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return newReviewDTO(review), nil
}

func (s *service) List(ctx context.Context, productID uuid.UUID, params pagination.Params) (*ReviewList, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	pageSize := pagination.NormalizeLimit(params.Limit)
	rows, err := s.repo.ListByProduct(ctx, productID, cursor, pagination.LimitWithBuffer(params.Limit))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list reviews")
	}

	list := &ReviewList{}
	if len(rows) > pageSize {
		rows = rows[:pageSize]
		last := rows[len(rows)-1]
		list.NextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	list.Reviews = make([]ReviewDTO, 0, len(rows))
	for i := range rows {
		list.Reviews = append(list.Reviews, *newReviewDTO(&rows[i]))
	}
	return list, nil
}

func newReviewDTO(r *models.Review) *ReviewDTO {
	return &ReviewDTO{
		ID:        r.ID,
		ProductID: r.ProductID,
		UserID:    r.UserID,
		Rating:    r.Rating,
		Comment:   r.Comment,
		CreatedAt: r.CreatedAt,
	}
}

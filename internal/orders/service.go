package orders

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/mercantile/storefront/pkg/db"
	"github.com/mercantile/storefront/pkg/db/models"
	"github.com/mercantile/storefront/pkg/enums"
	pkgerrors "github.com/mercantile/storefront/pkg/errors"
	"github.com/mercantile/storefront/pkg/pagination"
	"github.com/mercantile/storefront/pkg/types"
)

// Viewer is the caller an order read is performed for.
type Viewer struct {
	UserID  uuid.UUID
	IsAdmin bool
}

// Service exposes order reads for shoppers and admins.
type Service interface {
	ListMine(ctx context.Context, userID uuid.UUID, page pagination.Page) (*OrderList, error)
	AdminList(ctx context.Context, status *enums.OrderStatus, page pagination.Page) (*OrderList, error)
	Get(ctx context.Context, viewer Viewer, orderID uuid.UUID) (*OrderDTO, error)
}

type service struct {
	repo Repository
}

// NewService builds the order read service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) ListMine(ctx context.Context, userID uuid.UUID, page pagination.Page) (*OrderList, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	rows, total, err := s.repo.ListByUser(ctx, userID, page)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return newOrderList(rows, total, page), nil
}

func (s *service) AdminList(ctx context.Context, status *enums.OrderStatus, page pagination.Page) (*OrderList, error) {
	if status != nil && !status.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid status %q", *status)
	}
	rows, total, err := s.repo.ListAll(ctx, status, page)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return newOrderList(rows, total, page), nil
}

// Get returns the order when the viewer owns it or is an admin. Orders owned
// by someone else are reported as missing.
func (s *service) Get(ctx context.Context, viewer Viewer, orderID uuid.UUID) (*OrderDTO, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if !viewer.IsAdmin && (order.UserID == nil || *order.UserID != viewer.UserID) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return NewOrderDTO(order), nil
}

func newOrderList(rows []models.Order, total int64, page pagination.Page) *OrderList {
	list := &OrderList{
		Orders: make([]OrderDTO, 0, len(rows)),
		Meta:   types.PageMeta{Page: page.Page, Limit: page.Limit, Total: total},
	}
	for i := range rows {
		list.Orders = append(list.Orders, *NewOrderDTO(&rows[i]))
	}
	return list
}

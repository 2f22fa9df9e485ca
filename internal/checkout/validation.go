package checkout

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/mercantile/storefront/internal/cart"
	pkgerrors "github.com/mercantile/storefront/pkg/errors"
)

// StockViolation describes one ledger row the catalog can no longer satisfy.
type StockViolation struct {
	ProductID uuid.UUID `json:"product_id"`
	Title     string    `json:"title,omitempty"`
	Requested int       `json:"requested"`
	Available int       `json:"available"`
}

// ValidateStock re-reads every row from the catalog. Products that vanished or
// went inactive count as zero available.
func ValidateStock(ctx context.Context, catalog cart.Catalog, items []cart.LineItem) error {
	var violations []StockViolation
	for _, item := range items {
		snapshot, err := catalog.GetSnapshot(ctx, item.ProductID)
		if err != nil {
			if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
				violations = append(violations, StockViolation{
					ProductID: item.ProductID,
					Title:     item.Title,
					Requested: item.Quantity,
				})
				continue
			}
			return err
		}
		if snapshot.Stock != nil && item.Quantity > *snapshot.Stock {
			violations = append(violations, StockViolation{
				ProductID: item.ProductID,
				Title:     item.Title,
				Requested: item.Quantity,
				Available: *snapshot.Stock,
			})
		}
	}
	if len(violations) == 0 {
		return nil
	}
	return pkgerrors.Wrap(pkgerrors.CodeConflict, cart.ErrInsufficientStock,
		fmt.Sprintf("insufficient stock for %d item(s)", len(violations))).
		WithDetails(map[string]any{"violations": violations})
}

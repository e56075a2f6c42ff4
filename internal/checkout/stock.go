package checkout

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gearvault/gearvault-backend/pkg/db/models"
)

// StockLine is one requested decrement against a product.
type StockLine struct {
	ProductID uuid.UUID
	Quantity  int
}

// StockViolation reports a line whose decrement could not be applied.
type StockViolation struct {
	ProductID uuid.UUID `json:"product_id"`
	Name      string    `json:"name"`
	Requested int       `json:"requested"`
	Available int       `json:"available"`
}

// DecrementStock applies each line as a guarded update:
//
//	UPDATE products SET stock = stock - qty WHERE id = ? AND stock >= qty
//
// A line that affects zero rows is reported as a violation with the live
// stock value; the caller decides whether to roll back. Running inside the
// caller's transaction keeps the whole set atomic.
func DecrementStock(ctx context.Context, tx *gorm.DB, lines []StockLine) ([]StockViolation, error) {
	var violations []StockViolation
	for _, line := range lines {
		result := tx.WithContext(ctx).
			Model(&models.Product{}).
			Where("id = ? AND stock >= ?", line.ProductID, line.Quantity).
			UpdateColumn("stock", gorm.Expr("stock - ?", line.Quantity))
		if result.Error != nil {
			return nil, result.Error
		}
		if result.RowsAffected > 0 {
			continue
		}

		var product models.Product
		err := tx.WithContext(ctx).
			Select("id", "name", "stock").
			First(&product, "id = ?", line.ProductID).
			Error
		if err != nil {
			return nil, err
		}
		violations = append(violations, StockViolation{
			ProductID: line.ProductID,
			Name:      product.Name,
			Requested: line.Quantity,
			Available: product.Stock,
		})
	}
	return violations, nil
}

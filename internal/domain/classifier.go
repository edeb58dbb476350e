package domain

import "fmt"

// Classifier resolves the category a line item posts to
type Classifier struct {
	chart *ChartOfAccounts
}

// NewClassifier creates a classifier over a resolved chart of accounts
func NewClassifier(chart *ChartOfAccounts) *Classifier {
	return &Classifier{chart: chart}
}

// Classify returns the target category for a line.
// Sales use the product's sales category. Purchases of tracked stock land on
// the inventory asset account, other purchases on the purchase category;
// on purchases a line override wins over both.
func (c *Classifier) Classify(direction Direction, line LineItem, product *Product) (*TransactionCategory, error) {
	if product == nil {
		return nil, fmt.Errorf("%w: %s", ErrProductNotFound, line.ProductID)
	}

	if direction.IsSale() {
		id, err := product.CategoryFor(ProductRoleSales)
		if err != nil {
			return nil, err
		}
		return c.chart.ByID(id)
	}

	if line.CategoryOverrideID != "" {
		return c.chart.ByID(line.CategoryOverrideID)
	}
	if product.InventoryEnabled {
		return c.chart.ByCode(CategoryInventoryAsset)
	}

	id, err := product.CategoryFor(ProductRolePurchase)
	if err != nil {
		return nil, err
	}
	return c.chart.ByID(id)
}

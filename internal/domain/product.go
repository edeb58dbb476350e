package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Product carries the posting-relevant attributes of a catalogue item
type Product struct {
	ProductID           string          `bson:"productId" json:"productId"`
	Name                string          `bson:"name" json:"name"`
	InventoryEnabled    bool            `bson:"inventoryEnabled" json:"inventoryEnabled"`
	ExciseInclusive     bool            `bson:"exciseInclusive" json:"exciseInclusive"`
	AveragePurchaseCost decimal.Decimal `bson:"averagePurchaseCost" json:"averagePurchaseCost"`
	CostNeedsReview     bool            `bson:"costNeedsReview" json:"costNeedsReview"`
	SalesCategoryID     string          `bson:"salesCategoryId,omitempty" json:"salesCategoryId,omitempty"`
	PurchaseCategoryID  string          `bson:"purchaseCategoryId,omitempty" json:"purchaseCategoryId,omitempty"`
}

// CategoryFor returns the category id mapped to a role
func (p *Product) CategoryFor(role ProductRole) (string, error) {
	var id string
	switch role {
	case ProductRoleSales:
		id = p.SalesCategoryID
	case ProductRolePurchase:
		id = p.PurchaseCategoryID
	}
	if id == "" {
		return "", fmt.Errorf("%w: product %s role %s", ErrRoleMappingMissing, p.ProductID, role)
	}
	return id, nil
}

// CategoryIDs returns the role category ids that are set
func (p *Product) CategoryIDs() []string {
	ids := make([]string, 0, 2)
	if p.SalesCategoryID != "" {
		ids = append(ids, p.SalesCategoryID)
	}
	if p.PurchaseCategoryID != "" {
		ids = append(ids, p.PurchaseCategoryID)
	}
	return ids
}

// ProductCostUpdate is the recomputed running cost of a product after a posting
type ProductCostUpdate struct {
	ProductID           string          `json:"productId"`
	AveragePurchaseCost decimal.Decimal `json:"averagePurchaseCost"`
	StockOnHand         int64           `json:"stockOnHand"`
	NeedsReview         bool            `json:"needsReview"`
}

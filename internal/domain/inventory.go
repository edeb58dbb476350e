package domain

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CostingMethod selects the unit cost used to value stock leaving on a sale
type CostingMethod string

const (
	// CostingLot values each consumed block at the unit cost of the lot it came from
	CostingLot CostingMethod = "LOT"

	// CostingWeightedAverage values consumed stock at the product's running average purchase cost
	CostingWeightedAverage CostingMethod = "WEIGHTED_AVERAGE"
)

// DefaultCostingMethod is used when no method is configured
const DefaultCostingMethod = CostingLot

// IsValid checks if the costing method is valid
func (m CostingMethod) IsValid() bool {
	return m == CostingLot || m == CostingWeightedAverage
}

// String returns the string representation
func (m CostingMethod) String() string {
	return string(m)
}

// ParseCostingMethod parses a configured costing method
func ParseCostingMethod(s string) (CostingMethod, error) {
	m := CostingMethod(s)
	if !m.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidCostingMethod, s)
	}
	return m, nil
}

// InventoryLot is the stock record for one (product, supplier) pair
type InventoryLot struct {
	LotID             string          `bson:"lotId" json:"lotId"`
	ProductID         string          `bson:"productId" json:"productId"`
	SupplierID        string          `bson:"supplierId" json:"supplierId"`
	StockOnHand       int64           `bson:"stockOnHand" json:"stockOnHand"`
	QuantitySold      int64           `bson:"quantitySold" json:"quantitySold"`
	QuantityPurchased int64           `bson:"quantityPurchased" json:"quantityPurchased"`
	UnitCost          decimal.Decimal `bson:"unitCost" json:"unitCost"`
	ReorderLevel      int64           `bson:"reorderLevel" json:"reorderLevel"`
	Sequence          int64           `bson:"sequence" json:"sequence"`
	Version           int64           `bson:"version" json:"version"`
	CreatedAt         time.Time       `bson:"createdAt" json:"createdAt"`
	UpdatedAt         time.Time       `bson:"updatedAt" json:"updatedAt"`
}

// IsNew returns true if the lot has never been persisted
func (l *InventoryLot) IsNew() bool {
	return l.Version == 1
}

// Value returns stock on hand times unit cost
func (l *InventoryLot) Value() decimal.Decimal {
	return l.UnitCost.Mul(decimal.NewFromInt(l.StockOnHand))
}

// InventoryLots is a product's lot set with helper methods
type InventoryLots []*InventoryLot

// Clone returns a deep copy so the caller's lots are never mutated
func (ls InventoryLots) Clone() InventoryLots {
	out := make(InventoryLots, len(ls))
	for i, lot := range ls {
		c := *lot
		out[i] = &c
	}
	return out
}

// Oldest sorts lots oldest-first in place and returns them
func (ls InventoryLots) Oldest() InventoryLots {
	sort.SliceStable(ls, func(i, j int) bool {
		if ls[i].Sequence != ls[j].Sequence {
			return ls[i].Sequence < ls[j].Sequence
		}
		return ls[i].CreatedAt.Before(ls[j].CreatedAt)
	})
	return ls
}

// TotalStock returns the stock on hand across all lots
func (ls InventoryLots) TotalStock() int64 {
	var total int64
	for _, lot := range ls {
		total += lot.StockOnHand
	}
	return total
}

// TotalValue returns Σ(unitCost*stockOnHand) across all lots
func (ls InventoryLots) TotalValue() decimal.Decimal {
	total := decimal.Zero
	for _, lot := range ls {
		total = total.Add(lot.Value())
	}
	return total
}

// AverageUnitCost returns the stock-weighted unit cost.
// ok is false when there is no stock to weight by.
func (ls InventoryLots) AverageUnitCost() (cost decimal.Decimal, ok bool) {
	stock := ls.TotalStock()
	if stock <= 0 {
		return decimal.Zero, false
	}
	return ls.TotalValue().DivRound(decimal.NewFromInt(stock), costPrecision), true
}

// BySupplier returns the lot held for a supplier, if any
func (ls InventoryLots) BySupplier(supplierID string) *InventoryLot {
	for _, lot := range ls {
		if lot.SupplierID == supplierID {
			return lot
		}
	}
	return nil
}

// NextSequence returns a sequence number after every existing lot
func (ls InventoryLots) NextSequence() int64 {
	var max int64
	for _, lot := range ls {
		if lot.Sequence > max {
			max = lot.Sequence
		}
	}
	return max + 1
}

// costPrecision is the scale kept for divided unit costs
const costPrecision int32 = 10

// InventoryMovement is one append-only stock history record
type InventoryMovement struct {
	MovementID       string          `bson:"movementId" json:"movementId"`
	ProductID        string          `bson:"productId" json:"productId"`
	LotID            string          `bson:"lotId" json:"lotId"`
	DocumentID       string          `bson:"documentId" json:"documentId"`
	LineNumber       int             `bson:"lineNumber" json:"lineNumber"`
	Direction        Direction       `bson:"direction" json:"direction"`
	Quantity         int64           `bson:"quantity" json:"quantity"`
	UnitCost         decimal.Decimal `bson:"unitCost" json:"unitCost"`
	UnitSellingPrice decimal.Decimal `bson:"unitSellingPrice" json:"unitSellingPrice"`
	TransactionDate  time.Time       `bson:"transactionDate" json:"transactionDate"`
	CreatedBy        string          `bson:"createdBy" json:"createdBy"`
	CreatedAt        time.Time       `bson:"createdAt" json:"createdAt"`
}

// Value returns quantity times unit cost
func (m *InventoryMovement) Value() decimal.Decimal {
	return m.UnitCost.Mul(decimal.NewFromInt(m.Quantity))
}

func newID(prefix string) string {
	timestamp := time.Now().UTC().Format("20060102150405")
	return fmt.Sprintf("%s-%s-%s", prefix, timestamp, uuid.New().String()[:8])
}

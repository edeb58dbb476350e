package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Valuation is the inventory effect of one document.
// LineValues holds the cost of goods leaving stock for each inventory sale line,
// keyed by line index.
type Valuation struct {
	LineValues map[int]decimal.Decimal
	Lots       []*InventoryLot
	Movements  []InventoryMovement
	Costs      []ProductCostUpdate
}

// LineValue returns the stock value consumed by a line
func (v *Valuation) LineValue(index int) (decimal.Decimal, bool) {
	if v == nil {
		return decimal.Zero, false
	}
	value, ok := v.LineValues[index]
	return value, ok
}

// ReviewFlags returns the products whose cost could not be recomputed
func (v *Valuation) ReviewFlags() []ProductCostUpdate {
	var out []ProductCostUpdate
	for _, c := range v.Costs {
		if c.NeedsReview {
			out = append(out, c)
		}
	}
	return out
}

// ValuationEngine applies sales and purchases of tracked products to their lots
type ValuationEngine struct {
	method CostingMethod
	now    func() time.Time
}

// NewValuationEngine creates a valuation engine for a costing method
func NewValuationEngine(method CostingMethod) *ValuationEngine {
	if !method.IsValid() {
		method = DefaultCostingMethod
	}
	return &ValuationEngine{method: method, now: func() time.Time { return time.Now().UTC() }}
}

// Method returns the configured costing method
func (e *ValuationEngine) Method() CostingMethod {
	return e.method
}

// Apply values every tracked line of a document against copies of its lots.
// The caller's lots are left untouched.
func (e *ValuationEngine) Apply(doc *Document, products map[string]*Product, lots map[string]InventoryLots, userID string) (*Valuation, error) {
	now := e.now()
	working := make(map[string]InventoryLots)
	touched := make(map[string]*InventoryLot)
	var touchedOrder []*InventoryLot

	v := &Valuation{LineValues: make(map[int]decimal.Decimal)}
	var tracked []string

	for i, line := range doc.LineItems {
		product := products[line.ProductID]
		if product == nil {
			return nil, fmt.Errorf("%w: %s", ErrProductNotFound, line.ProductID)
		}
		if !product.InventoryEnabled {
			continue
		}

		productLots, seen := working[product.ProductID]
		if !seen {
			productLots = lots[product.ProductID].Clone().Oldest()
			tracked = append(tracked, product.ProductID)
		}

		var changed []*InventoryLot
		var moves []InventoryMovement
		var err error
		if doc.Direction.IsSale() {
			changed, moves, err = e.consume(doc, i, line, product, productLots, userID, now)
		} else {
			productLots, changed, moves, err = e.receive(doc, i, line, productLots, userID, now)
		}
		if err != nil {
			return nil, err
		}
		working[product.ProductID] = productLots

		for _, lot := range changed {
			if _, ok := touched[lot.LotID]; !ok {
				touched[lot.LotID] = lot
				touchedOrder = append(touchedOrder, lot)
			}
		}
		if doc.Direction.IsSale() {
			value := decimal.Zero
			for _, m := range moves {
				value = value.Add(m.Value())
			}
			v.LineValues[i] = value
		}
		v.Movements = append(v.Movements, moves...)
	}

	for _, lot := range touchedOrder {
		lot.Version++
		lot.UpdatedAt = now
	}
	v.Lots = touchedOrder

	for _, productID := range tracked {
		v.Costs = append(v.Costs, recomputeCost(products[productID], working[productID]))
	}
	return v, nil
}

// consume takes qty units from the lots oldest-first
func (e *ValuationEngine) consume(doc *Document, index int, line LineItem, product *Product, lots InventoryLots, userID string, now time.Time) ([]*InventoryLot, []InventoryMovement, error) {
	if available := lots.TotalStock(); available < line.Quantity {
		return nil, nil, fmt.Errorf("%w: product %s needs %d, has %d", ErrInsufficientStock, product.ProductID, line.Quantity, available)
	}

	sellingPrice := doc.ToBase(line.UnitPrice)
	remaining := line.Quantity
	var changed []*InventoryLot
	var moves []InventoryMovement

	for _, lot := range lots {
		if remaining == 0 {
			break
		}
		if lot.StockOnHand <= 0 {
			continue
		}
		take := min(remaining, lot.StockOnHand)
		lot.StockOnHand -= take
		lot.QuantitySold += take
		remaining -= take
		changed = append(changed, lot)

		moves = append(moves, InventoryMovement{
			MovementID:       newID("MV"),
			ProductID:        product.ProductID,
			LotID:            lot.LotID,
			DocumentID:       doc.DocumentID,
			LineNumber:       index,
			Direction:        DirectionSale,
			Quantity:         take,
			UnitCost:         e.saleCost(product, lot),
			UnitSellingPrice: sellingPrice,
			TransactionDate:  doc.DocumentDate,
			CreatedBy:        userID,
			CreatedAt:        now,
		})
	}
	return changed, moves, nil
}

func (e *ValuationEngine) saleCost(product *Product, lot *InventoryLot) decimal.Decimal {
	if e.method == CostingWeightedAverage && product.AveragePurchaseCost.IsPositive() {
		return product.AveragePurchaseCost
	}
	return lot.UnitCost
}

// receive adds qty units to the lot held for the document's supplier
func (e *ValuationEngine) receive(doc *Document, index int, line LineItem, lots InventoryLots, userID string, now time.Time) (InventoryLots, []*InventoryLot, []InventoryMovement, error) {
	unitCost := doc.ToBase(line.UnitPrice)
	qty := decimal.NewFromInt(line.Quantity)

	lot := lots.BySupplier(doc.ContactID)
	if lot == nil {
		lot = &InventoryLot{
			LotID:             newID("LOT"),
			ProductID:         line.ProductID,
			SupplierID:        doc.ContactID,
			StockOnHand:       line.Quantity,
			QuantityPurchased: line.Quantity,
			UnitCost:          unitCost,
			ReorderLevel:      line.Quantity / 10,
			Sequence:          lots.NextSequence(),
			CreatedAt:         now,
		}
		lots = append(lots, lot)
	} else {
		if lot.StockOnHand < 0 {
			return nil, nil, nil, fmt.Errorf("%w: lot %s has negative stock %d", ErrInvalidDocument, lot.LotID, lot.StockOnHand)
		}
		oldStock := decimal.NewFromInt(lot.StockOnHand)
		total := lot.UnitCost.Mul(oldStock).Add(unitCost.Mul(qty))
		lot.UnitCost = total.DivRound(oldStock.Add(qty), costPrecision)
		lot.StockOnHand += line.Quantity
		lot.QuantityPurchased += line.Quantity
	}

	move := InventoryMovement{
		MovementID:      newID("MV"),
		ProductID:       line.ProductID,
		LotID:           lot.LotID,
		DocumentID:      doc.DocumentID,
		LineNumber:      index,
		Direction:       DirectionPurchase,
		Quantity:        line.Quantity,
		UnitCost:        unitCost,
		TransactionDate: doc.DocumentDate,
		CreatedBy:       userID,
		CreatedAt:       now,
	}
	return lots, []*InventoryLot{lot}, []InventoryMovement{move}, nil
}

// recomputeCost derives the running average over all of a product's lots.
// With no stock left the last known cost is kept and flagged for review.
func recomputeCost(product *Product, lots InventoryLots) ProductCostUpdate {
	update := ProductCostUpdate{
		ProductID:   product.ProductID,
		StockOnHand: lots.TotalStock(),
	}
	if avg, ok := lots.AverageUnitCost(); ok {
		update.AveragePurchaseCost = avg
		return update
	}
	update.AveragePurchaseCost = product.AveragePurchaseCost
	update.NeedsReview = true
	return update
}

// ValuationFromMovements rebuilds the sale line values recorded for a document.
// Inventory is not touched.
func ValuationFromMovements(doc *Document, products map[string]*Product, movements []InventoryMovement) (*Valuation, error) {
	v := &Valuation{LineValues: make(map[int]decimal.Decimal)}
	if !doc.Direction.IsSale() {
		return v, nil
	}

	byLine := make(map[int][]InventoryMovement)
	for _, m := range movements {
		if m.DocumentID != doc.DocumentID || m.Direction != DirectionSale {
			continue
		}
		byLine[m.LineNumber] = append(byLine[m.LineNumber], m)
	}

	for i, line := range doc.LineItems {
		product := products[line.ProductID]
		if product == nil {
			return nil, fmt.Errorf("%w: %s", ErrProductNotFound, line.ProductID)
		}
		if !product.InventoryEnabled {
			continue
		}
		moves := byLine[i]
		var qty int64
		value := decimal.Zero
		for _, m := range moves {
			if m.ProductID != line.ProductID {
				return nil, fmt.Errorf("%w: line %d movement %s is for product %s", ErrInventoryHistoryMissing, i, m.MovementID, m.ProductID)
			}
			qty += m.Quantity
			value = value.Add(m.Value())
		}
		if qty != line.Quantity {
			return nil, fmt.Errorf("%w: line %d recorded %d of %d units", ErrInventoryHistoryMissing, i, qty, line.Quantity)
		}
		v.LineValues[i] = value
		v.Movements = append(v.Movements, moves...)
	}
	return v, nil
}

package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// CategoryTotal is the summed amount of the lines that share a category
type CategoryTotal struct {
	Category *TransactionCategory
	// Subtotal is tax-exclusive and net of line discounts
	Subtotal     decimal.Decimal
	LineDiscount decimal.Decimal
	LineCount    int
}

// PostedAmount is what the category line carries, with the line discount added back
// because the discount is posted on its own line
func (t CategoryTotal) PostedAmount() decimal.Decimal {
	return t.Subtotal.Add(t.LineDiscount)
}

// Aggregation is the immutable per-category result of a document
type Aggregation struct {
	totals         []CategoryTotal
	inventoryValue decimal.Decimal
	hasInventory   bool
}

// Totals returns the category totals in first-seen order
func (a *Aggregation) Totals() []CategoryTotal {
	out := make([]CategoryTotal, len(a.totals))
	copy(out, a.totals)
	return out
}

// InventoryValue returns the stock value consumed by inventory sale lines
func (a *Aggregation) InventoryValue() decimal.Decimal {
	return a.inventoryValue
}

// HasInventory returns true if any sale line consumed tracked stock
func (a *Aggregation) HasInventory() bool {
	return a.hasInventory
}

// Aggregate groups lines by their resolved category.
// categories must hold one entry per line item, in line order.
func Aggregate(doc *Document, categories []*TransactionCategory, products map[string]*Product, valuation *Valuation) (*Aggregation, error) {
	if len(categories) != len(doc.LineItems) {
		return nil, fmt.Errorf("%w: %d categories for %d lines", ErrInvalidDocument, len(categories), len(doc.LineItems))
	}

	agg := &Aggregation{inventoryValue: decimal.Zero}
	index := make(map[string]int)

	for i, line := range doc.LineItems {
		product := products[line.ProductID]
		if product == nil {
			return nil, fmt.Errorf("%w: %s", ErrProductNotFound, line.ProductID)
		}
		category := categories[i]

		discount := line.DiscountAmount()
		amount := line.GrossAmount().Sub(discount)
		if doc.TaxInclusive {
			if product.ExciseInclusive {
				amount = amount.Sub(line.ExciseAmount)
			}
			amount = amount.Sub(line.VATAmount)
		}

		pos, ok := index[category.CategoryID]
		if !ok {
			pos = len(agg.totals)
			index[category.CategoryID] = pos
			agg.totals = append(agg.totals, CategoryTotal{
				Category:     category,
				Subtotal:     decimal.Zero,
				LineDiscount: decimal.Zero,
			})
		}
		total := &agg.totals[pos]
		total.Subtotal = total.Subtotal.Add(amount)
		total.LineDiscount = total.LineDiscount.Add(discount)
		total.LineCount++

		if doc.Direction.IsSale() && product.InventoryEnabled {
			value, ok := valuation.LineValue(i)
			if !ok {
				return nil, fmt.Errorf("%w: line %d of document %s", ErrInventoryHistoryMissing, i, doc.DocumentID)
			}
			agg.inventoryValue = agg.inventoryValue.Add(value)
			agg.hasInventory = true
		}
	}
	return agg, nil
}

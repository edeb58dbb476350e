package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func classifyAll(t *testing.T, doc *Document) []*TransactionCategory {
	t.Helper()
	classifier := NewClassifier(testChart())
	products := testProducts()
	out := make([]*TransactionCategory, len(doc.LineItems))
	for i, line := range doc.LineItems {
		category, err := classifier.Classify(doc.Direction, line, products[line.ProductID])
		require.NoError(t, err)
		out[i] = category
	}
	return out
}

func TestAggregatePercentageDiscount(t *testing.T) {
	doc := saleDocument(LineItem{
		LineItemID: "L1", ProductID: "PRD-WIDGET", Quantity: 1, UnitPrice: dec("1000.00"),
		Discount: dec("10"), DiscountType: DiscountPercentage,
	})

	agg, err := Aggregate(doc, classifyAll(t, doc), testProducts(), nil)
	require.NoError(t, err)

	totals := agg.Totals()
	require.Len(t, totals, 1)
	assertDecimal(t, "100.00", totals[0].LineDiscount)
	assertDecimal(t, "900.00", totals[0].Subtotal)
	assertDecimal(t, "1000.00", totals[0].PostedAmount())
	assert.False(t, agg.HasInventory())
	assert.True(t, agg.InventoryValue().IsZero())
}

func TestAggregateGroupsByCategoryInFirstSeenOrder(t *testing.T) {
	doc := saleDocument(
		LineItem{LineItemID: "L1", ProductID: "PRD-SERVICE", Quantity: 1, UnitPrice: dec("50")},
		LineItem{LineItemID: "L2", ProductID: "PRD-WIDGET", Quantity: 2, UnitPrice: dec("10"), Discount: dec("5"), DiscountType: DiscountFixed},
		LineItem{LineItemID: "L3", ProductID: "PRD-SERVICE", Quantity: 3, UnitPrice: dec("20")},
		LineItem{LineItemID: "L4", ProductID: "PRD-SPIRITS", Quantity: 1, UnitPrice: dec("30")},
	)

	agg, err := Aggregate(doc, classifyAll(t, doc), testProducts(), nil)
	require.NoError(t, err)

	totals := agg.Totals()
	require.Len(t, totals, 2)
	assert.Equal(t, "cat-services", totals[0].Category.CategoryID)
	assertDecimal(t, "110", totals[0].Subtotal)
	assert.Equal(t, 2, totals[0].LineCount)
	assert.Equal(t, "cat-sales", totals[1].Category.CategoryID)
	assertDecimal(t, "45", totals[1].Subtotal)
	assertDecimal(t, "5", totals[1].LineDiscount)
	assertDecimal(t, "50", totals[1].PostedAmount())
	assert.Equal(t, 2, totals[1].LineCount)
}

func TestAggregateTaxInclusiveAcrossSharedCategory(t *testing.T) {
	doc := saleDocument(
		LineItem{LineItemID: "L1", ProductID: "PRD-SPIRITS", Quantity: 2, UnitPrice: dec("60.50"), VATAmount: dec("10"), ExciseAmount: dec("11")},
		LineItem{LineItemID: "L2", ProductID: "PRD-SPIRITS", Quantity: 1, UnitPrice: dec("121"), VATAmount: dec("10"), ExciseAmount: dec("11")},
		LineItem{LineItemID: "L3", ProductID: "PRD-WIDGET", Quantity: 1, UnitPrice: dec("105"), VATAmount: dec("5"), ExciseAmount: dec("2")},
	)
	doc.TaxInclusive = true

	agg, err := Aggregate(doc, classifyAll(t, doc), testProducts(), nil)
	require.NoError(t, err)

	totals := agg.Totals()
	require.Len(t, totals, 1)
	// 100 + 100 for the excise-inclusive lines, 100 for the widget whose excise is on top
	assertDecimal(t, "300", totals[0].Subtotal)
}

func TestAggregateTaxExclusiveKeepsGross(t *testing.T) {
	doc := saleDocument(
		LineItem{LineItemID: "L1", ProductID: "PRD-SPIRITS", Quantity: 1, UnitPrice: dec("100"), VATAmount: dec("10"), ExciseAmount: dec("11")},
	)

	agg, err := Aggregate(doc, classifyAll(t, doc), testProducts(), nil)
	require.NoError(t, err)
	assertDecimal(t, "100", agg.Totals()[0].Subtotal)
}

func TestAggregateInventoryValue(t *testing.T) {
	doc := saleDocument(
		LineItem{LineItemID: "L1", ProductID: "PRD-STOCK", Quantity: 2, UnitPrice: dec("20")},
		LineItem{LineItemID: "L2", ProductID: "PRD-WIDGET", Quantity: 1, UnitPrice: dec("5")},
		LineItem{LineItemID: "L3", ProductID: "PRD-STOCK", Quantity: 1, UnitPrice: dec("20")},
	)
	valuation := &Valuation{LineValues: map[int]decimal.Decimal{0: dec("20"), 2: dec("12")}}

	agg, err := Aggregate(doc, classifyAll(t, doc), testProducts(), valuation)
	require.NoError(t, err)
	assert.True(t, agg.HasInventory())
	assertDecimal(t, "32", agg.InventoryValue())
}

func TestAggregateMissingLineValuation(t *testing.T) {
	doc := saleDocument(LineItem{LineItemID: "L1", ProductID: "PRD-STOCK", Quantity: 2, UnitPrice: dec("20")})

	_, err := Aggregate(doc, classifyAll(t, doc), testProducts(), nil)
	assert.ErrorIs(t, err, ErrInventoryHistoryMissing)
}

func TestAggregatePurchaseHasNoInventoryLines(t *testing.T) {
	doc := purchaseDocument(LineItem{LineItemID: "L1", ProductID: "PRD-STOCK", Quantity: 2, UnitPrice: dec("20")})

	agg, err := Aggregate(doc, classifyAll(t, doc), testProducts(), nil)
	require.NoError(t, err)
	assert.False(t, agg.HasInventory())
	assert.Equal(t, "cat-inventory", agg.Totals()[0].Category.CategoryID)
}

func TestAggregateCategoryCountMismatch(t *testing.T) {
	doc := saleDocument(LineItem{LineItemID: "L1", ProductID: "PRD-WIDGET", Quantity: 1, UnitPrice: dec("1")})

	_, err := Aggregate(doc, nil, testProducts(), nil)
	assert.ErrorIs(t, err, ErrInvalidDocument)
}

func TestAggregationTotalsAreCopies(t *testing.T) {
	doc := saleDocument(LineItem{LineItemID: "L1", ProductID: "PRD-WIDGET", Quantity: 1, UnitPrice: dec("10")})

	agg, err := Aggregate(doc, classifyAll(t, doc), testProducts(), nil)
	require.NoError(t, err)

	totals := agg.Totals()
	totals[0].Subtotal = dec("999")
	assertDecimal(t, "10", agg.Totals()[0].Subtotal)
}

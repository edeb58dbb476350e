package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValuationWeightedAverageFormula(t *testing.T) {
	tests := []struct {
		name     string
		oldStock int64
		oldCost  string
		qty      int64
		price    string
		rate     string
		want     string
	}{
		{name: "equal blocks", oldStock: 10, oldCost: "5", qty: 10, price: "7", rate: "1", want: "6"},
		{name: "empty lot takes new price", oldStock: 0, oldCost: "5", qty: 4, price: "9", rate: "1", want: "9"},
		{name: "rate applied to new price", oldStock: 30, oldCost: "2", qty: 10, price: "3", rate: "2", want: "3"},
		{name: "same cost", oldStock: 1, oldCost: "1", qty: 2, price: "1", rate: "1", want: "1"},
		{name: "thirds", oldStock: 2, oldCost: "1", qty: 1, price: "2", rate: "1", want: "1.3333333333"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := purchaseDocument(LineItem{LineItemID: "L1", ProductID: "PRD-STOCK", Quantity: tt.qty, UnitPrice: dec(tt.price)})
			doc.ExchangeRate = dec(tt.rate)
			lots := map[string]InventoryLots{
				"PRD-STOCK": {{LotID: "LOT-1", ProductID: "PRD-STOCK", SupplierID: "SUP-1", StockOnHand: tt.oldStock, UnitCost: dec(tt.oldCost), Version: 1}},
			}

			v, err := NewValuationEngine(CostingLot).Apply(doc, testProducts(), lots, "user-1")
			require.NoError(t, err)
			require.Len(t, v.Lots, 1)
			assertDecimal(t, tt.want, v.Lots[0].UnitCost)
			assert.Equal(t, tt.oldStock+tt.qty, v.Lots[0].StockOnHand)
			assert.Empty(t, v.LineValues)
		})
	}
}

func TestValuationSkipsUntrackedProducts(t *testing.T) {
	doc := saleDocument(LineItem{LineItemID: "L1", ProductID: "PRD-WIDGET", Quantity: 3, UnitPrice: dec("1")})

	v, err := NewValuationEngine(CostingLot).Apply(doc, testProducts(), nil, "user-1")
	require.NoError(t, err)
	assert.Empty(t, v.Lots)
	assert.Empty(t, v.Movements)
	assert.Empty(t, v.Costs)
}

func TestValuationSaleSkipsEmptyLots(t *testing.T) {
	lots := map[string]InventoryLots{
		"PRD-STOCK": {
			{LotID: "LOT-A", ProductID: "PRD-STOCK", StockOnHand: 0, UnitCost: dec("1"), Sequence: 1},
			{LotID: "LOT-B", ProductID: "PRD-STOCK", StockOnHand: 5, UnitCost: dec("2"), Sequence: 2},
		},
	}
	doc := saleDocument(LineItem{LineItemID: "L1", ProductID: "PRD-STOCK", Quantity: 5, UnitPrice: dec("3")})

	v, err := NewValuationEngine(CostingLot).Apply(doc, testProducts(), lots, "user-1")
	require.NoError(t, err)
	require.Len(t, v.Movements, 1)
	assert.Equal(t, "LOT-B", v.Movements[0].LotID)
	require.Len(t, v.Lots, 1)

	value, ok := v.LineValue(0)
	assert.True(t, ok)
	assertDecimal(t, "10", value)

	require.Len(t, v.ReviewFlags(), 1)
}

func TestValuationWeightedAverageFallsBackToLotCost(t *testing.T) {
	products := testProducts()
	products["PRD-STOCK"].AveragePurchaseCost = dec("0")
	doc := saleDocument(LineItem{LineItemID: "L1", ProductID: "PRD-STOCK", Quantity: 60, UnitPrice: dec("20")})

	v, err := NewValuationEngine(CostingWeightedAverage).Apply(doc, products, twoLots(), "user-1")
	require.NoError(t, err)

	value, _ := v.LineValue(0)
	assertDecimal(t, "620", value)
}

func TestNewValuationEngineDefaultsMethod(t *testing.T) {
	assert.Equal(t, CostingLot, NewValuationEngine("FIFO").Method())
	assert.Equal(t, CostingWeightedAverage, NewValuationEngine(CostingWeightedAverage).Method())
}

func TestValuationFromMovements(t *testing.T) {
	doc := saleDocument(
		LineItem{LineItemID: "L1", ProductID: "PRD-STOCK", Quantity: 3, UnitPrice: dec("20")},
		LineItem{LineItemID: "L2", ProductID: "PRD-WIDGET", Quantity: 1, UnitPrice: dec("5")},
	)
	movements := []InventoryMovement{
		{MovementID: "MV-1", ProductID: "PRD-STOCK", DocumentID: doc.DocumentID, LineNumber: 0, Direction: DirectionSale, Quantity: 1, UnitCost: dec("10")},
		{MovementID: "MV-2", ProductID: "PRD-STOCK", DocumentID: doc.DocumentID, LineNumber: 0, Direction: DirectionSale, Quantity: 2, UnitCost: dec("12")},
		{MovementID: "MV-3", ProductID: "PRD-STOCK", DocumentID: "OTHER", LineNumber: 0, Direction: DirectionSale, Quantity: 9, UnitCost: dec("99")},
	}

	v, err := ValuationFromMovements(doc, testProducts(), movements)
	require.NoError(t, err)
	value, ok := v.LineValue(0)
	assert.True(t, ok)
	assertDecimal(t, "34", value)
	assert.Len(t, v.Movements, 2)

	_, ok = v.LineValue(1)
	assert.False(t, ok)
}

func TestValuationFromMovementsIncompleteHistory(t *testing.T) {
	doc := saleDocument(LineItem{LineItemID: "L1", ProductID: "PRD-STOCK", Quantity: 3, UnitPrice: dec("20")})

	tests := []struct {
		name      string
		movements []InventoryMovement
	}{
		{name: "none recorded", movements: nil},
		{
			name: "short quantity",
			movements: []InventoryMovement{
				{MovementID: "MV-1", ProductID: "PRD-STOCK", DocumentID: doc.DocumentID, Direction: DirectionSale, Quantity: 2, UnitCost: dec("10")},
			},
		},
		{
			name: "wrong product",
			movements: []InventoryMovement{
				{MovementID: "MV-1", ProductID: "PRD-OTHER", DocumentID: doc.DocumentID, Direction: DirectionSale, Quantity: 3, UnitCost: dec("10")},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ValuationFromMovements(doc, testProducts(), tt.movements)
			assert.ErrorIs(t, err, ErrInventoryHistoryMissing)
		})
	}
}

func TestValuationFromMovementsIgnoresPurchases(t *testing.T) {
	doc := purchaseDocument(LineItem{LineItemID: "L1", ProductID: "PRD-STOCK", Quantity: 3, UnitPrice: dec("20")})

	v, err := ValuationFromMovements(doc, testProducts(), nil)
	require.NoError(t, err)
	assert.Empty(t, v.LineValues)
}

package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostCustomerInvoiceExclusiveVAT(t *testing.T) {
	doc := saleDocument(LineItem{
		LineItemID: "L1", ProductID: "PRD-WIDGET", Quantity: 2, UnitPrice: dec("250.00"), VATAmount: dec("25.00"),
	})
	doc.TotalAmount = dec("525.00")
	doc.TotalVATAmount = dec("25.00")

	result, err := NewPostingEngine(CostingLot).Post(postingInput(doc, nil))
	require.NoError(t, err)

	j := result.Journal
	require.Len(t, j.Lines, 3)

	assert.Equal(t, "cat-ar", j.Lines[0].CategoryID)
	assertDecimal(t, "525.00", j.Lines[0].Debit)
	assert.True(t, j.Lines[0].Credit.IsZero())

	assert.Equal(t, "cat-sales", j.Lines[1].CategoryID)
	assertDecimal(t, "500.00", j.Lines[1].Credit)

	assert.Equal(t, "cat-out-vat", j.Lines[2].CategoryID)
	assertDecimal(t, "25.00", j.Lines[2].Credit)

	assertDecimal(t, "525.00", j.TotalDebit())
	assertDecimal(t, "525.00", j.TotalCredit())

	assert.Equal(t, ReferenceTypeInvoice, j.ReferenceType)
	assert.Equal(t, "INV-1001", j.ReferenceID)
	assert.Equal(t, "INV/2024/1001", j.ReferenceNumber)
	assert.Equal(t, "Customer Invoice", j.Description)
	assert.Equal(t, documentDate, j.JournalDate)
	assert.Equal(t, "user-1", j.CreatedBy)
	for _, line := range j.Lines {
		assert.Equal(t, ReferenceTypeInvoice, line.ReferenceType)
		assert.Equal(t, "INV-1001", line.ReferenceID)
	}
	assert.Empty(t, result.Movements)
	assert.Empty(t, result.Lots)
}

func TestPostReverseChargePurchase(t *testing.T) {
	doc := purchaseDocument(LineItem{
		LineItemID: "L1", ProductID: "PRD-WIDGET", Quantity: 1, UnitPrice: dec("1000.00"), VATAmount: dec("100.00"),
	})
	doc.TotalAmount = dec("1100.00")
	doc.TotalVATAmount = dec("100.00")
	doc.ReverseCharge = true

	result, err := NewPostingEngine(CostingLot).Post(postingInput(doc, nil))
	require.NoError(t, err)

	j := result.Journal
	assertDecimal(t, "1000.00", lineFor(t, j, CategoryAccountsPayable).Credit)
	assertDecimal(t, "1000.00", lineForID(t, j, "cat-office").Debit)

	input := lineFor(t, j, CategoryInputVAT)
	assertDecimal(t, "100.00", input.Debit)
	assert.True(t, input.Credit.IsZero())

	output := lineFor(t, j, CategoryOutputVAT)
	assertDecimal(t, "100.00", output.Credit)
	assert.True(t, output.Debit.IsZero())

	assert.Equal(t, "Supplier Invoice", j.Description)
	assert.True(t, j.IsBalanced())
}

func TestPostReverseChargeSale(t *testing.T) {
	doc := saleDocument(LineItem{
		LineItemID: "L1", ProductID: "PRD-SERVICE", Quantity: 1, UnitPrice: dec("200"), VATAmount: dec("20"),
	})
	doc.TotalAmount = dec("220")
	doc.TotalVATAmount = dec("20")
	doc.ReverseCharge = true

	result, err := NewPostingEngine(CostingLot).Post(postingInput(doc, nil))
	require.NoError(t, err)

	j := result.Journal
	assertDecimal(t, "200", lineFor(t, j, CategoryAccountsReceivable).Debit)
	assertDecimal(t, "200", lineForID(t, j, "cat-services").Credit)
	assertDecimal(t, "20", lineFor(t, j, CategoryOutputVAT).Credit)
	assertDecimal(t, "20", lineFor(t, j, CategoryInputVAT).Debit)
	assert.True(t, j.IsBalanced())
}

func TestPostPercentageLineDiscount(t *testing.T) {
	doc := saleDocument(LineItem{
		LineItemID: "L1", ProductID: "PRD-WIDGET", Quantity: 1, UnitPrice: dec("1000.00"),
		Discount: dec("10"), DiscountType: DiscountPercentage,
	})
	doc.TotalAmount = dec("900.00")
	doc.Discount = dec("100.00")
	doc.DiscountType = DiscountFixed

	result, err := NewPostingEngine(CostingLot).Post(postingInput(doc, nil))
	require.NoError(t, err)

	j := result.Journal
	require.Len(t, j.Lines, 3)
	assertDecimal(t, "900.00", lineFor(t, j, CategoryAccountsReceivable).Debit)
	assertDecimal(t, "1000.00", lineForID(t, j, "cat-sales").Credit)
	assertDecimal(t, "100.00", lineFor(t, j, CategorySalesDiscount).Debit)
	assertDecimal(t, "1000.00", j.TotalDebit())
	assertDecimal(t, "1000.00", j.TotalCredit())
}

func TestPostInventorySaleDepletesLotsOldestFirst(t *testing.T) {
	doc := saleDocument(LineItem{
		LineItemID: "L1", ProductID: "PRD-STOCK", Quantity: 80, UnitPrice: dec("20"),
	})
	doc.TotalAmount = dec("1600")
	lots := twoLots()

	result, err := NewPostingEngine(CostingLot).Post(postingInput(doc, lots))
	require.NoError(t, err)

	j := result.Journal
	require.Len(t, j.Lines, 4)
	assert.Equal(t, "cat-ar", j.Lines[0].CategoryID)
	assert.Equal(t, "cat-sales", j.Lines[1].CategoryID)
	assert.Equal(t, "cat-inventory", j.Lines[2].CategoryID)
	assertDecimal(t, "860.00", j.Lines[2].Credit)
	assert.Equal(t, "cat-cogs", j.Lines[3].CategoryID)
	assertDecimal(t, "860.00", j.Lines[3].Debit)
	assert.True(t, j.IsBalanced())

	require.Len(t, result.Movements, 2)
	assert.Equal(t, "LOT-1", result.Movements[0].LotID)
	assert.Equal(t, int64(50), result.Movements[0].Quantity)
	assertDecimal(t, "10", result.Movements[0].UnitCost)
	assertDecimal(t, "20", result.Movements[0].UnitSellingPrice)
	assert.Equal(t, "LOT-2", result.Movements[1].LotID)
	assert.Equal(t, int64(30), result.Movements[1].Quantity)
	assertDecimal(t, "12", result.Movements[1].UnitCost)

	require.Len(t, result.Lots, 2)
	assert.Equal(t, "LOT-1", result.Lots[0].LotID)
	assert.Equal(t, int64(0), result.Lots[0].StockOnHand)
	assert.Equal(t, int64(50), result.Lots[0].QuantitySold)
	assert.Equal(t, int64(2), result.Lots[0].Version)
	assert.Equal(t, "LOT-2", result.Lots[1].LotID)
	assert.Equal(t, int64(20), result.Lots[1].StockOnHand)
	assert.Equal(t, int64(30), result.Lots[1].QuantitySold)
	assert.Equal(t, int64(4), result.Lots[1].Version)

	require.Len(t, result.ProductCosts, 1)
	assertDecimal(t, "12", result.ProductCosts[0].AveragePurchaseCost)
	assert.Equal(t, int64(20), result.ProductCosts[0].StockOnHand)
	assert.False(t, result.ProductCosts[0].NeedsReview)
	assert.Empty(t, result.ReviewFlags)

	// input lots are untouched
	assert.Equal(t, int64(50), lots["PRD-STOCK"][0].StockOnHand)
	assert.Equal(t, int64(50), lots["PRD-STOCK"][1].StockOnHand)
}

func TestPostInventorySaleWeightedAverageCosting(t *testing.T) {
	doc := saleDocument(LineItem{
		LineItemID: "L1", ProductID: "PRD-STOCK", Quantity: 80, UnitPrice: dec("20"),
	})
	doc.TotalAmount = dec("1600")

	result, err := NewPostingEngine(CostingWeightedAverage).Post(postingInput(doc, twoLots()))
	require.NoError(t, err)

	assertDecimal(t, "880", lineFor(t, result.Journal, CategoryInventoryAsset).Credit)
	assertDecimal(t, "880", lineFor(t, result.Journal, CategoryCostOfGoodsSold).Debit)
	for _, m := range result.Movements {
		assertDecimal(t, "11", m.UnitCost)
	}
}

func TestPostInventoryConsolidatesAcrossCategories(t *testing.T) {
	products := testProducts()
	products["PRD-STOCK-2"] = &Product{
		ProductID: "PRD-STOCK-2", InventoryEnabled: true, SalesCategoryID: "cat-services",
	}
	lots := twoLots()
	lots["PRD-STOCK-2"] = InventoryLots{
		{LotID: "LOT-9", ProductID: "PRD-STOCK-2", SupplierID: "SUP-9", StockOnHand: 5, UnitCost: dec("3"), Sequence: 1, Version: 1},
	}
	doc := saleDocument(
		LineItem{LineItemID: "L1", ProductID: "PRD-STOCK", Quantity: 10, UnitPrice: dec("20")},
		LineItem{LineItemID: "L2", ProductID: "PRD-STOCK-2", Quantity: 5, UnitPrice: dec("8")},
		LineItem{LineItemID: "L3", ProductID: "PRD-STOCK", Quantity: 45, UnitPrice: dec("20")},
	)
	doc.TotalAmount = dec("1140")

	in := postingInput(doc, lots)
	in.Products = products
	result, err := NewPostingEngine(CostingLot).Post(in)
	require.NoError(t, err)

	j := result.Journal
	// 10@10 + 5@3 + (40@10 + 5@12)
	assertDecimal(t, "575", lineFor(t, j, CategoryInventoryAsset).Credit)
	assertDecimal(t, "575", lineFor(t, j, CategoryCostOfGoodsSold).Debit)
	assertDecimal(t, "1100", lineForID(t, j, "cat-sales").Credit)
	assertDecimal(t, "40", lineForID(t, j, "cat-services").Credit)
	assert.True(t, j.IsBalanced())

	require.Len(t, result.Movements, 4)
	assert.Equal(t, 2, result.Movements[3].LineNumber)
	assert.Equal(t, "LOT-2", result.Movements[3].LotID)
}

func TestPostTrackedPurchaseUpdatesWeightedAverage(t *testing.T) {
	lots := map[string]InventoryLots{
		"PRD-STOCK": {
			{LotID: "LOT-1", ProductID: "PRD-STOCK", SupplierID: "SUP-1", StockOnHand: 10, UnitCost: dec("5"), Sequence: 1, Version: 2},
			{LotID: "LOT-2", ProductID: "PRD-STOCK", SupplierID: "SUP-2", StockOnHand: 20, UnitCost: dec("9"), Sequence: 2, Version: 1},
		},
	}
	doc := purchaseDocument(LineItem{
		LineItemID: "L1", ProductID: "PRD-STOCK", Quantity: 10, UnitPrice: dec("7"),
	})
	doc.TotalAmount = dec("70")

	result, err := NewPostingEngine(CostingLot).Post(postingInput(doc, lots))
	require.NoError(t, err)

	j := result.Journal
	require.Len(t, j.Lines, 2)
	assertDecimal(t, "70", lineFor(t, j, CategoryAccountsPayable).Credit)
	assertDecimal(t, "70", lineFor(t, j, CategoryInventoryAsset).Debit)

	require.Len(t, result.Lots, 1)
	lot := result.Lots[0]
	assert.Equal(t, "LOT-1", lot.LotID)
	assertDecimal(t, "6", lot.UnitCost)
	assert.Equal(t, int64(20), lot.StockOnHand)
	assert.Equal(t, int64(10), lot.QuantityPurchased)
	assert.Equal(t, int64(3), lot.Version)

	require.Len(t, result.Movements, 1)
	assert.Equal(t, DirectionPurchase, result.Movements[0].Direction)
	assertDecimal(t, "7", result.Movements[0].UnitCost)

	require.Len(t, result.ProductCosts, 1)
	assertDecimal(t, "7.5", result.ProductCosts[0].AveragePurchaseCost)
	assert.Equal(t, int64(40), result.ProductCosts[0].StockOnHand)
}

func TestPostTrackedPurchaseCreatesLotForNewSupplier(t *testing.T) {
	doc := purchaseDocument(LineItem{
		LineItemID: "L1", ProductID: "PRD-STOCK", Quantity: 25, UnitPrice: dec("4"),
	})
	doc.ContactID = "SUP-NEW"
	doc.ExchangeRate = dec("2")
	doc.TotalAmount = dec("100")

	result, err := NewPostingEngine(CostingLot).Post(postingInput(doc, twoLots()))
	require.NoError(t, err)

	require.Len(t, result.Lots, 1)
	lot := result.Lots[0]
	assert.True(t, lot.IsNew())
	assert.Equal(t, "SUP-NEW", lot.SupplierID)
	assertDecimal(t, "8", lot.UnitCost)
	assert.Equal(t, int64(25), lot.StockOnHand)
	assert.Equal(t, int64(2), lot.ReorderLevel)
	assert.Equal(t, int64(3), lot.Sequence)
	assert.Contains(t, lot.LotID, "LOT-")

	// (50*12 + 50*10 + 25*8) / 125
	assertDecimal(t, "10.4", result.ProductCosts[0].AveragePurchaseCost)
	assertDecimal(t, "200", lineFor(t, result.Journal, CategoryInventoryAsset).Debit)
}

func TestPostFullDepletionFlagsCostReview(t *testing.T) {
	doc := saleDocument(LineItem{
		LineItemID: "L1", ProductID: "PRD-STOCK", Quantity: 100, UnitPrice: dec("15"),
	})
	doc.TotalAmount = dec("1500")

	var result *PostingResult
	require.NotPanics(t, func() {
		var err error
		result, err = NewPostingEngine(CostingLot).Post(postingInput(doc, twoLots()))
		require.NoError(t, err)
	})

	require.Len(t, result.ReviewFlags, 1)
	flag := result.ReviewFlags[0]
	assert.Equal(t, "PRD-STOCK", flag.ProductID)
	assert.True(t, flag.NeedsReview)
	assert.Equal(t, int64(0), flag.StockOnHand)
	assertDecimal(t, "11", flag.AveragePurchaseCost)
	assertDecimal(t, "1100", lineFor(t, result.Journal, CategoryInventoryAsset).Credit)
}

func TestPostTaxInclusiveExcludesTaxFromCategory(t *testing.T) {
	doc := saleDocument(
		LineItem{LineItemID: "L1", ProductID: "PRD-WIDGET", Quantity: 1, UnitPrice: dec("110"), VATAmount: dec("10")},
		LineItem{LineItemID: "L2", ProductID: "PRD-WIDGET", Quantity: 2, UnitPrice: dec("55"), VATAmount: dec("10")},
		LineItem{LineItemID: "L3", ProductID: "PRD-SPIRITS", Quantity: 1, UnitPrice: dec("121"), VATAmount: dec("10"), ExciseAmount: dec("11")},
	)
	doc.TaxInclusive = true
	doc.TotalAmount = dec("341")
	doc.TotalVATAmount = dec("30")
	doc.TotalExciseAmount = dec("11")

	result, err := NewPostingEngine(CostingLot).Post(postingInput(doc, nil))
	require.NoError(t, err)

	j := result.Journal
	assertDecimal(t, "341", lineFor(t, j, CategoryAccountsReceivable).Debit)
	assertDecimal(t, "300", lineForID(t, j, "cat-sales").Credit)
	assertDecimal(t, "30", lineFor(t, j, CategoryOutputVAT).Credit)
	assertDecimal(t, "11", lineFor(t, j, CategoryOutputExcise).Credit)
	assert.True(t, j.IsBalanced())
}

func TestPostExciseOnlySubtractedWhenProductIsExciseInclusive(t *testing.T) {
	doc := saleDocument(
		LineItem{LineItemID: "L1", ProductID: "PRD-WIDGET", Quantity: 1, UnitPrice: dec("110"), VATAmount: dec("10"), ExciseAmount: dec("5")},
	)
	doc.TaxInclusive = true
	doc.TotalAmount = dec("115")
	doc.TotalVATAmount = dec("10")
	doc.TotalExciseAmount = dec("5")

	result, err := NewPostingEngine(CostingLot).Post(postingInput(doc, nil))
	require.NoError(t, err)

	assertDecimal(t, "100", lineForID(t, result.Journal, "cat-sales").Credit)
	assertDecimal(t, "5", lineFor(t, result.Journal, CategoryOutputExcise).Credit)
	assert.True(t, result.Journal.IsBalanced())
}

func TestPostLineOrder(t *testing.T) {
	doc := kitchenSinkSale()

	result, err := NewPostingEngine(CostingLot).Post(postingInput(doc, kitchenSinkLots()))
	require.NoError(t, err)

	var codes []string
	for _, line := range result.Journal.Lines {
		codes = append(codes, line.CategoryCode)
	}
	assert.Equal(t, []string{
		"ACCOUNTS_RECEIVABLE",
		"SALES",
		"INVENTORY_ASSET",
		"COST_OF_GOODS_SOLD",
		"OUTPUT_VAT",
		"SALES_DISCOUNT",
		"OUTPUT_EXCISE_TAX",
	}, codes)
}

func TestPostForeignCurrencyKitchenSink(t *testing.T) {
	result, err := NewPostingEngine(CostingLot).Post(postingInput(kitchenSinkSale(), kitchenSinkLots()))
	require.NoError(t, err)

	j := result.Journal
	assertDecimal(t, "442", lineFor(t, j, CategoryAccountsReceivable).Debit)
	assertDecimal(t, "400", lineForID(t, j, "cat-sales").Credit)
	assertDecimal(t, "60", lineFor(t, j, CategoryInventoryAsset).Credit)
	assertDecimal(t, "60", lineFor(t, j, CategoryCostOfGoodsSold).Debit)
	assertDecimal(t, "40", lineFor(t, j, CategoryOutputVAT).Credit)
	assertDecimal(t, "20", lineFor(t, j, CategorySalesDiscount).Debit)
	assertDecimal(t, "22", lineFor(t, j, CategoryOutputExcise).Credit)
	assertDecimal(t, "522", j.TotalDebit())
	assertDecimal(t, "522", j.TotalCredit())
	for _, line := range j.Lines {
		if line.CategoryCode == "INVENTORY_ASSET" || line.CategoryCode == "COST_OF_GOODS_SOLD" {
			assertDecimal(t, "1", line.ExchangeRate)
			continue
		}
		assertDecimal(t, "2", line.ExchangeRate)
	}
}

func kitchenSinkSale() *Document {
	doc := saleDocument(
		LineItem{LineItemID: "L1", ProductID: "PRD-SPIRITS", Quantity: 1, UnitPrice: dec("121"), VATAmount: dec("10"), ExciseAmount: dec("11")},
		LineItem{LineItemID: "L2", ProductID: "PRD-STOCK", Quantity: 2, UnitPrice: dec("55"), Discount: dec("10"), DiscountType: DiscountFixed, VATAmount: dec("10")},
	)
	doc.Currency = "EUR"
	doc.ExchangeRate = dec("2")
	doc.TaxInclusive = true
	doc.TotalAmount = dec("221")
	doc.TotalVATAmount = dec("20")
	doc.TotalExciseAmount = dec("11")
	doc.Discount = dec("10")
	doc.DiscountType = DiscountFixed
	return doc
}

func kitchenSinkLots() map[string]InventoryLots {
	return map[string]InventoryLots{
		"PRD-STOCK": {
			{LotID: "LOT-1", ProductID: "PRD-STOCK", SupplierID: "SUP-1", StockOnHand: 10, UnitCost: dec("30"), Sequence: 1, Version: 1},
		},
	}
}

func balanceScenarios() []struct {
	name string
	doc  func() *Document
	lots func() map[string]InventoryLots
} {
	return []struct {
		name string
		doc  func() *Document
		lots func() map[string]InventoryLots
	}{
		{
			name: "plain sale",
			doc: func() *Document {
				doc := saleDocument(LineItem{LineItemID: "L1", ProductID: "PRD-WIDGET", Quantity: 2, UnitPrice: dec("250"), VATAmount: dec("25")})
				doc.TotalAmount = dec("525")
				doc.TotalVATAmount = dec("25")
				return doc
			},
		},
		{
			name: "purchase with excise and discounts",
			doc: func() *Document {
				doc := purchaseDocument(LineItem{
					LineItemID: "L1", ProductID: "PRD-WIDGET", Quantity: 4, UnitPrice: dec("25"),
					Discount: dec("10"), DiscountType: DiscountPercentage, VATAmount: dec("9"), ExciseAmount: dec("5"),
				})
				doc.TotalAmount = dec("104")
				doc.TotalVATAmount = dec("9")
				doc.TotalExciseAmount = dec("5")
				doc.Discount = dec("10")
				doc.DiscountType = DiscountFixed
				return doc
			},
		},
		{
			name: "tracked purchase with override",
			doc: func() *Document {
				doc := purchaseDocument(
					LineItem{LineItemID: "L1", ProductID: "PRD-STOCK", Quantity: 10, UnitPrice: dec("7")},
					LineItem{LineItemID: "L2", ProductID: "PRD-STOCK", Quantity: 1, UnitPrice: dec("15"), CategoryOverrideID: "cat-freight"},
				)
				doc.TotalAmount = dec("85")
				return doc
			},
			lots: twoLots,
		},
		{
			name: "tax inclusive sale",
			doc: func() *Document {
				doc := saleDocument(
					LineItem{LineItemID: "L1", ProductID: "PRD-WIDGET", Quantity: 1, UnitPrice: dec("110"), VATAmount: dec("10")},
					LineItem{LineItemID: "L2", ProductID: "PRD-SERVICE", Quantity: 3, UnitPrice: dec("33.33"), VATAmount: dec("9.09")},
				)
				doc.TaxInclusive = true
				doc.TotalAmount = dec("209.99")
				doc.TotalVATAmount = dec("19.09")
				return doc
			},
		},
		{
			name: "document percentage discount",
			doc: func() *Document {
				doc := saleDocument(LineItem{
					LineItemID: "L1", ProductID: "PRD-WIDGET", Quantity: 1, UnitPrice: dec("1000"),
					Discount: dec("10"), DiscountType: DiscountPercentage,
				})
				doc.TotalAmount = dec("900")
				doc.Discount = dec("10")
				doc.DiscountType = DiscountPercentage
				return doc
			},
		},
		{
			name: "reverse charge purchase",
			doc: func() *Document {
				doc := purchaseDocument(LineItem{LineItemID: "L1", ProductID: "PRD-SERVICE", Quantity: 1, UnitPrice: dec("1000"), VATAmount: dec("100")})
				doc.TotalAmount = dec("1100")
				doc.TotalVATAmount = dec("100")
				doc.ReverseCharge = true
				return doc
			},
		},
		{
			name: "inventory sale",
			doc: func() *Document {
				doc := saleDocument(LineItem{LineItemID: "L1", ProductID: "PRD-STOCK", Quantity: 80, UnitPrice: dec("20")})
				doc.TotalAmount = dec("1600")
				return doc
			},
			lots: twoLots,
		},
		{
			name: "foreign currency",
			doc: func() *Document {
				doc := saleDocument(LineItem{LineItemID: "L1", ProductID: "PRD-WIDGET", Quantity: 3, UnitPrice: dec("100"), VATAmount: dec("15")})
				doc.ExchangeRate = dec("1.5")
				doc.TotalAmount = dec("315")
				doc.TotalVATAmount = dec("15")
				return doc
			},
		},
		{
			name: "odd exchange rate kitchen sink",
			doc: func() *Document {
				doc := kitchenSinkSale()
				doc.ExchangeRate = dec("3.6725")
				return doc
			},
			lots: kitchenSinkLots,
		},
	}
}

func TestPostAndReverseAlwaysBalance(t *testing.T) {
	engine := NewPostingEngine(CostingLot)

	for _, tt := range balanceScenarios() {
		t.Run(tt.name, func(t *testing.T) {
			var lots map[string]InventoryLots
			if tt.lots != nil {
				lots = tt.lots()
			}

			posted, err := engine.Post(postingInput(tt.doc(), lots))
			require.NoError(t, err)
			assert.True(t, posted.Journal.TotalDebit().Equal(posted.Journal.TotalCredit()),
				"posting debit %s credit %s", posted.Journal.TotalDebit(), posted.Journal.TotalCredit())

			doc := tt.doc()
			doc.Status = DocumentStatusPosted
			in := postingInput(doc, nil)
			in.Movements = posted.Movements

			reversed, err := engine.Reverse(in)
			require.NoError(t, err)
			assert.True(t, reversed.Journal.TotalDebit().Equal(reversed.Journal.TotalCredit()))
			assert.True(t, reversed.Journal.TotalDebit().Equal(posted.Journal.TotalDebit()))
		})
	}
}

func TestReverseMirrorsPostingLineForLine(t *testing.T) {
	engine := NewPostingEngine(CostingLot)

	for _, tt := range balanceScenarios() {
		t.Run(tt.name, func(t *testing.T) {
			var lots map[string]InventoryLots
			if tt.lots != nil {
				lots = tt.lots()
			}
			posted, err := engine.Post(postingInput(tt.doc(), lots))
			require.NoError(t, err)

			doc := tt.doc()
			doc.Status = DocumentStatusPosted
			in := postingInput(doc, nil)
			in.Movements = posted.Movements
			reversed, err := engine.Reverse(in)
			require.NoError(t, err)

			original, mirror := posted.Journal, reversed.Journal
			require.Len(t, mirror.Lines, len(original.Lines))
			for i := range original.Lines {
				assert.Equal(t, original.Lines[i].CategoryID, mirror.Lines[i].CategoryID)
				assert.True(t, original.Lines[i].Debit.Equal(mirror.Lines[i].Credit), "line %d", i)
				assert.True(t, original.Lines[i].Credit.Equal(mirror.Lines[i].Debit), "line %d", i)
				assert.Equal(t, ReferenceTypeReverseInvoice, mirror.Lines[i].ReferenceType)
			}
			assert.Equal(t, ReferenceTypeReverseInvoice, mirror.ReferenceType)
			assert.Contains(t, mirror.Description, "Reversal of journal entry against")
			assert.Contains(t, mirror.Description, doc.ReferenceNumber)
			assert.Empty(t, reversed.Lots)
			assert.Empty(t, reversed.ProductCosts)
		})
	}
}

func TestReverseInventorySaleWithoutMovements(t *testing.T) {
	doc := saleDocument(LineItem{LineItemID: "L1", ProductID: "PRD-STOCK", Quantity: 80, UnitPrice: dec("20")})
	doc.TotalAmount = dec("1600")
	doc.Status = DocumentStatusPosted

	_, err := NewPostingEngine(CostingLot).Reverse(postingInput(doc, nil))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInventoryHistoryMissing)
	assert.True(t, IsDataInconsistency(err))
}

func TestReverseRequiresPostedDocument(t *testing.T) {
	doc := saleDocument(LineItem{LineItemID: "L1", ProductID: "PRD-WIDGET", Quantity: 1, UnitPrice: dec("10")})
	doc.TotalAmount = dec("10")

	_, err := NewPostingEngine(CostingLot).Reverse(postingInput(doc, nil))
	assert.ErrorIs(t, err, ErrNotPosted)
}

func TestPostRejectsPostedDocument(t *testing.T) {
	for _, status := range []DocumentStatus{DocumentStatusPosted, DocumentStatusReversed} {
		doc := saleDocument(LineItem{LineItemID: "L1", ProductID: "PRD-WIDGET", Quantity: 1, UnitPrice: dec("10")})
		doc.TotalAmount = dec("10")
		doc.Status = status

		_, err := NewPostingEngine(CostingLot).Post(postingInput(doc, nil))
		assert.ErrorIs(t, err, ErrAlreadyPosted, "status %s", status)
	}
}

func TestPostFailures(t *testing.T) {
	tests := []struct {
		name    string
		doc     func() *Document
		chart   func() *ChartOfAccounts
		lots    map[string]InventoryLots
		wantErr error
		config  bool
	}{
		{
			name: "missing role mapping",
			doc: func() *Document {
				doc := saleDocument(LineItem{LineItemID: "L1", ProductID: "PRD-UNMAPPED", Quantity: 1, UnitPrice: dec("10")})
				doc.TotalAmount = dec("10")
				return doc
			},
			wantErr: ErrRoleMappingMissing,
			config:  true,
		},
		{
			name: "missing VAT category",
			doc: func() *Document {
				doc := saleDocument(LineItem{LineItemID: "L1", ProductID: "PRD-WIDGET", Quantity: 1, UnitPrice: dec("10"), VATAmount: dec("1")})
				doc.TotalAmount = dec("11")
				doc.TotalVATAmount = dec("1")
				return doc
			},
			chart: func() *ChartOfAccounts {
				return NewChartOfAccounts(
					&TransactionCategory{CategoryID: "cat-ar", Code: "ACCOUNTS_RECEIVABLE"},
					&TransactionCategory{CategoryID: "cat-sales", Code: "SALES"},
				)
			},
			wantErr: ErrCategoryNotConfigured,
			config:  true,
		},
		{
			name: "unknown override category",
			doc: func() *Document {
				doc := purchaseDocument(LineItem{LineItemID: "L1", ProductID: "PRD-WIDGET", Quantity: 1, UnitPrice: dec("10"), CategoryOverrideID: "cat-missing"})
				doc.TotalAmount = dec("10")
				return doc
			},
			wantErr: ErrCategoryNotConfigured,
			config:  true,
		},
		{
			name: "insufficient stock",
			doc: func() *Document {
				doc := saleDocument(LineItem{LineItemID: "L1", ProductID: "PRD-STOCK", Quantity: 101, UnitPrice: dec("10")})
				doc.TotalAmount = dec("1010")
				return doc
			},
			lots:    twoLots(),
			wantErr: ErrInsufficientStock,
		},
		{
			name: "zero quantity",
			doc: func() *Document {
				return saleDocument(LineItem{LineItemID: "L1", ProductID: "PRD-WIDGET", Quantity: 0, UnitPrice: dec("10")})
			},
			wantErr: ErrInvalidQuantity,
		},
		{
			name: "inconsistent totals",
			doc: func() *Document {
				doc := saleDocument(LineItem{LineItemID: "L1", ProductID: "PRD-WIDGET", Quantity: 1, UnitPrice: dec("10")})
				doc.TotalAmount = dec("12")
				return doc
			},
			wantErr: ErrUnbalancedJournal,
		},
		{
			name: "zero exchange rate",
			doc: func() *Document {
				doc := saleDocument(LineItem{LineItemID: "L1", ProductID: "PRD-WIDGET", Quantity: 1, UnitPrice: dec("10")})
				doc.ExchangeRate = dec("0")
				return doc
			},
			wantErr: ErrInvalidDocument,
		},
		{
			name: "unknown product",
			doc: func() *Document {
				return saleDocument(LineItem{LineItemID: "L1", ProductID: "PRD-GHOST", Quantity: 1, UnitPrice: dec("10")})
			},
			wantErr: ErrProductNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := postingInput(tt.doc(), tt.lots)
			if tt.chart != nil {
				in.Chart = tt.chart()
			}

			result, err := NewPostingEngine(CostingLot).Post(in)
			require.Error(t, err)
			assert.Nil(t, result)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, tt.config, IsConfigurationError(err))
		})
	}
}

func TestPostUsesContactCounterparty(t *testing.T) {
	doc := saleDocument(LineItem{LineItemID: "L1", ProductID: "PRD-WIDGET", Quantity: 1, UnitPrice: dec("10")})
	doc.TotalAmount = dec("10")

	in := postingInput(doc, nil)
	in.Counterparty = &TransactionCategory{CategoryID: "cat-ar-export", Code: "AR_EXPORT", Name: "Export Receivables", ParentID: "cat-ar"}
	in.Context.Narrative = "Export order 77"

	result, err := NewPostingEngine(CostingLot).Post(in)
	require.NoError(t, err)
	assert.Equal(t, "cat-ar-export", result.Journal.Lines[0].CategoryID)
	assert.Empty(t, result.Journal.LinesFor(CategoryAccountsReceivable))
	assert.Equal(t, "Export order 77", result.Journal.Description)
}

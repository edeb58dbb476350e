package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertDecimal(t *testing.T, expected string, actual decimal.Decimal, msgAndArgs ...interface{}) {
	t.Helper()
	assert.True(t, dec(expected).Equal(actual), append([]interface{}{"expected %s, got %s", expected, actual.String()}, msgAndArgs...)...)
}

var documentDate = time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

func testChart() *ChartOfAccounts {
	return NewChartOfAccounts(
		&TransactionCategory{CategoryID: "cat-ar", Code: "ACCOUNTS_RECEIVABLE", Name: "Accounts Receivable"},
		&TransactionCategory{CategoryID: "cat-ap", Code: "ACCOUNTS_PAYABLE", Name: "Accounts Payable"},
		&TransactionCategory{CategoryID: "cat-in-vat", Code: "INPUT_VAT", Name: "Input VAT"},
		&TransactionCategory{CategoryID: "cat-out-vat", Code: "OUTPUT_VAT", Name: "Output VAT"},
		&TransactionCategory{CategoryID: "cat-in-excise", Code: "INPUT_EXCISE_TAX", Name: "Input Excise Tax"},
		&TransactionCategory{CategoryID: "cat-out-excise", Code: "OUTPUT_EXCISE_TAX", Name: "Output Excise Tax"},
		&TransactionCategory{CategoryID: "cat-inventory", Code: "INVENTORY_ASSET", Name: "Inventory Asset"},
		&TransactionCategory{CategoryID: "cat-cogs", Code: "COST_OF_GOODS_SOLD", Name: "Cost of Goods Sold"},
		&TransactionCategory{CategoryID: "cat-sales-discount", Code: "SALES_DISCOUNT", Name: "Sales Discount"},
		&TransactionCategory{CategoryID: "cat-purchase-discount", Code: "PURCHASE_DISCOUNT", Name: "Purchase Discount"},
		&TransactionCategory{CategoryID: "cat-sales", Code: "SALES", Name: "Sales"},
		&TransactionCategory{CategoryID: "cat-services", Code: "SERVICE_REVENUE", Name: "Service Revenue"},
		&TransactionCategory{CategoryID: "cat-office", Code: "OFFICE_EXPENSE", Name: "Office Expense"},
		&TransactionCategory{CategoryID: "cat-purchases", Code: "PURCHASES", Name: "Purchases"},
		&TransactionCategory{CategoryID: "cat-freight", Code: "FREIGHT_IN", Name: "Freight In", ParentID: "cat-purchases"},
	)
}

func testProducts() map[string]*Product {
	return map[string]*Product{
		"PRD-WIDGET": {
			ProductID:          "PRD-WIDGET",
			Name:               "Widget",
			SalesCategoryID:    "cat-sales",
			PurchaseCategoryID: "cat-office",
		},
		"PRD-STOCK": {
			ProductID:           "PRD-STOCK",
			Name:                "Stocked Item",
			InventoryEnabled:    true,
			AveragePurchaseCost: dec("11"),
			SalesCategoryID:     "cat-sales",
			PurchaseCategoryID:  "cat-purchases",
		},
		"PRD-SPIRITS": {
			ProductID:          "PRD-SPIRITS",
			Name:               "Spirits",
			ExciseInclusive:    true,
			SalesCategoryID:    "cat-sales",
			PurchaseCategoryID: "cat-purchases",
		},
		"PRD-SERVICE": {
			ProductID:          "PRD-SERVICE",
			Name:               "Consulting",
			SalesCategoryID:    "cat-services",
			PurchaseCategoryID: "cat-office",
		},
		"PRD-UNMAPPED": {
			ProductID: "PRD-UNMAPPED",
			Name:      "Unmapped",
		},
	}
}

func twoLots() map[string]InventoryLots {
	return map[string]InventoryLots{
		"PRD-STOCK": {
			{LotID: "LOT-2", ProductID: "PRD-STOCK", SupplierID: "SUP-2", StockOnHand: 50, QuantityPurchased: 50, UnitCost: dec("12"), Sequence: 2, Version: 3},
			{LotID: "LOT-1", ProductID: "PRD-STOCK", SupplierID: "SUP-1", StockOnHand: 50, QuantityPurchased: 50, UnitCost: dec("10"), Sequence: 1, Version: 1},
		},
	}
}

func saleDocument(lines ...LineItem) *Document {
	return &Document{
		DocumentID:      "INV-1001",
		ReferenceNumber: "INV/2024/1001",
		Direction:       DirectionSale,
		ContactID:       "CUS-1",
		Currency:        "USD",
		ExchangeRate:    dec("1"),
		DocumentDate:    documentDate,
		Status:          DocumentStatusSent,
		LineItems:       lines,
	}
}

func purchaseDocument(lines ...LineItem) *Document {
	doc := saleDocument(lines...)
	doc.DocumentID = "BILL-2001"
	doc.ReferenceNumber = "BILL/2024/2001"
	doc.Direction = DirectionPurchase
	doc.ContactID = "SUP-1"
	return doc
}

func postingInput(doc *Document, lots map[string]InventoryLots) PostingInput {
	return PostingInput{
		Document: doc,
		Products: testProducts(),
		Lots:     lots,
		Chart:    testChart(),
		Context:  PostingContext{UserID: "user-1"},
	}
}

func lineFor(t *testing.T, j *Journal, code CategoryCode) JournalLine {
	t.Helper()
	lines := j.LinesFor(code)
	require.Len(t, lines, 1, "expected one %s line", code)
	return lines[0]
}

func lineForID(t *testing.T, j *Journal, categoryID string) JournalLine {
	t.Helper()
	for _, line := range j.Lines {
		if line.CategoryID == categoryID {
			return line
		}
	}
	require.Failf(t, "line not found", "no line for category %s", categoryID)
	return JournalLine{}
}

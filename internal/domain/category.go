package domain

import "fmt"

// CategoryCode identifies a well-known chart-of-accounts node
type CategoryCode string

const (
	CategoryAccountsReceivable CategoryCode = "ACCOUNTS_RECEIVABLE"
	CategoryAccountsPayable    CategoryCode = "ACCOUNTS_PAYABLE"
	CategoryInputVAT           CategoryCode = "INPUT_VAT"
	CategoryOutputVAT          CategoryCode = "OUTPUT_VAT"
	CategoryInputExcise        CategoryCode = "INPUT_EXCISE_TAX"
	CategoryOutputExcise       CategoryCode = "OUTPUT_EXCISE_TAX"
	CategoryInventoryAsset     CategoryCode = "INVENTORY_ASSET"
	CategoryCostOfGoodsSold    CategoryCode = "COST_OF_GOODS_SOLD"
	CategorySalesDiscount      CategoryCode = "SALES_DISCOUNT"
	CategoryPurchaseDiscount   CategoryCode = "PURCHASE_DISCOUNT"
)

// WellKnownCategoryCodes returns every code the engine may resolve by code
func WellKnownCategoryCodes() []CategoryCode {
	return []CategoryCode{
		CategoryAccountsReceivable,
		CategoryAccountsPayable,
		CategoryInputVAT,
		CategoryOutputVAT,
		CategoryInputExcise,
		CategoryOutputExcise,
		CategoryInventoryAsset,
		CategoryCostOfGoodsSold,
		CategorySalesDiscount,
		CategoryPurchaseDiscount,
	}
}

// IsValid checks if the code is one of the well-known codes
func (c CategoryCode) IsValid() bool {
	switch c {
	case CategoryAccountsReceivable, CategoryAccountsPayable,
		CategoryInputVAT, CategoryOutputVAT,
		CategoryInputExcise, CategoryOutputExcise,
		CategoryInventoryAsset, CategoryCostOfGoodsSold,
		CategorySalesDiscount, CategoryPurchaseDiscount:
		return true
	}
	return false
}

// String returns the string representation
func (c CategoryCode) String() string {
	return string(c)
}

// counterpartyCode returns the default receivable/payable code for a direction
func counterpartyCode(d Direction) CategoryCode {
	if d.IsSale() {
		return CategoryAccountsReceivable
	}
	return CategoryAccountsPayable
}

// vatCode returns the VAT code for a direction (output on sales, input on purchases)
func vatCode(d Direction) CategoryCode {
	if d.IsSale() {
		return CategoryOutputVAT
	}
	return CategoryInputVAT
}

// mirrorVATCode returns the self-assessed counterpart used by reverse charge
func mirrorVATCode(d Direction) CategoryCode {
	if d.IsSale() {
		return CategoryInputVAT
	}
	return CategoryOutputVAT
}

func exciseCode(d Direction) CategoryCode {
	if d.IsSale() {
		return CategoryOutputExcise
	}
	return CategoryInputExcise
}

func discountCode(d Direction) CategoryCode {
	if d.IsSale() {
		return CategorySalesDiscount
	}
	return CategoryPurchaseDiscount
}

// ProductRole selects which of a product's categories applies
type ProductRole string

const (
	ProductRoleSales    ProductRole = "SALES"
	ProductRolePurchase ProductRole = "PURCHASE"
)

// RoleFor returns the product role used for a document direction
func RoleFor(d Direction) ProductRole {
	if d.IsSale() {
		return ProductRoleSales
	}
	return ProductRolePurchase
}

// TransactionCategory is a node in the chart of accounts
type TransactionCategory struct {
	CategoryID string `bson:"categoryId" json:"categoryId"`
	Code       string `bson:"code" json:"code"`
	Name       string `bson:"name" json:"name"`
	ParentID   string `bson:"parentId,omitempty" json:"parentId,omitempty"`
}

// ChartOfAccounts is the eagerly resolved category set handed to the engine.
// Missing entries surface as configuration errors only when a posting needs them.
type ChartOfAccounts struct {
	byID   map[string]*TransactionCategory
	byCode map[CategoryCode]*TransactionCategory
}

// NewChartOfAccounts indexes categories by id and, for well-known codes, by code
func NewChartOfAccounts(categories ...*TransactionCategory) *ChartOfAccounts {
	chart := &ChartOfAccounts{
		byID:   make(map[string]*TransactionCategory, len(categories)),
		byCode: make(map[CategoryCode]*TransactionCategory),
	}
	for _, c := range categories {
		chart.Add(c)
	}
	return chart
}

// Add registers a category
func (c *ChartOfAccounts) Add(category *TransactionCategory) {
	if category == nil {
		return
	}
	c.byID[category.CategoryID] = category
	if code := CategoryCode(category.Code); code.IsValid() {
		c.byCode[code] = category
	}
}

// ByID resolves a category reference
func (c *ChartOfAccounts) ByID(id string) (*TransactionCategory, error) {
	if category, ok := c.byID[id]; ok {
		return category, nil
	}
	return nil, fmt.Errorf("%w: category id %q", ErrCategoryNotConfigured, id)
}

// ByCode resolves a well-known category
func (c *ChartOfAccounts) ByCode(code CategoryCode) (*TransactionCategory, error) {
	if category, ok := c.byCode[code]; ok {
		return category, nil
	}
	return nil, fmt.Errorf("%w: code %s", ErrCategoryNotConfigured, code)
}

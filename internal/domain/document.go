package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Direction tells whether a document is a customer or a supplier invoice
type Direction string

const (
	DirectionSale     Direction = "SALE"
	DirectionPurchase Direction = "PURCHASE"
)

// IsValid checks if the direction is valid
func (d Direction) IsValid() bool {
	return d == DirectionSale || d == DirectionPurchase
}

// IsSale returns true for customer invoices
func (d Direction) IsSale() bool {
	return d == DirectionSale
}

// Label returns the document label used in journal descriptions
func (d Direction) Label() string {
	if d.IsSale() {
		return "Customer Invoice"
	}
	return "Supplier Invoice"
}

// DiscountType tells how a discount value is interpreted
type DiscountType string

const (
	DiscountFixed      DiscountType = "FIXED"
	DiscountPercentage DiscountType = "PERCENTAGE"
)

// IsValid checks if the discount type is valid
func (t DiscountType) IsValid() bool {
	return t == DiscountFixed || t == DiscountPercentage
}

// DocumentStatus tracks where a document is in the posting lifecycle
type DocumentStatus string

const (
	DocumentStatusDraft    DocumentStatus = "DRAFT"
	DocumentStatusSent     DocumentStatus = "SENT"
	DocumentStatusPosted   DocumentStatus = "POSTED"
	DocumentStatusReversed DocumentStatus = "REVERSED"
)

// CanPost returns true if the document has not been posted yet
func (s DocumentStatus) CanPost() bool {
	return s == DocumentStatusDraft || s == DocumentStatusSent || s == ""
}

// CanReverse returns true if the document has a live posting
func (s DocumentStatus) CanReverse() bool {
	return s == DocumentStatusPosted
}

var hundred = decimal.NewFromInt(100)

// Document is a customer or supplier invoice as read from upstream storage
type Document struct {
	DocumentID        string          `bson:"documentId" json:"documentId"`
	ReferenceNumber   string          `bson:"referenceNumber" json:"referenceNumber"`
	Direction         Direction       `bson:"direction" json:"direction"`
	ContactID         string          `bson:"contactId" json:"contactId"`
	Currency          string          `bson:"currency" json:"currency"`
	ExchangeRate      decimal.Decimal `bson:"exchangeRate" json:"exchangeRate"`
	TotalAmount       decimal.Decimal `bson:"totalAmount" json:"totalAmount"`
	TotalVATAmount    decimal.Decimal `bson:"totalVatAmount" json:"totalVatAmount"`
	TotalExciseAmount decimal.Decimal `bson:"totalExciseAmount" json:"totalExciseAmount"`
	Discount          decimal.Decimal `bson:"discount" json:"discount"`
	DiscountType      DiscountType    `bson:"discountType,omitempty" json:"discountType,omitempty"`
	TaxInclusive      bool            `bson:"taxInclusive" json:"taxInclusive"`
	ReverseCharge     bool            `bson:"reverseCharge" json:"reverseCharge"`
	DueAmount         decimal.Decimal `bson:"dueAmount" json:"dueAmount"`
	DocumentDate      time.Time       `bson:"documentDate" json:"documentDate"`
	Status            DocumentStatus  `bson:"status" json:"status"`
	LineItems         []LineItem      `bson:"lineItems" json:"lineItems"`
	UpdatedAt         time.Time       `bson:"updatedAt" json:"updatedAt"`
}

// LineItem is one priced row of a document
type LineItem struct {
	LineItemID         string          `bson:"lineItemId" json:"lineItemId"`
	ProductID          string          `bson:"productId" json:"productId"`
	Quantity           int64           `bson:"quantity" json:"quantity"`
	UnitPrice          decimal.Decimal `bson:"unitPrice" json:"unitPrice"`
	Discount           decimal.Decimal `bson:"discount" json:"discount"`
	DiscountType       DiscountType    `bson:"discountType,omitempty" json:"discountType,omitempty"`
	VATCategoryID      string          `bson:"vatCategoryId,omitempty" json:"vatCategoryId,omitempty"`
	VATAmount          decimal.Decimal `bson:"vatAmount" json:"vatAmount"`
	ExciseCategoryID   string          `bson:"exciseCategoryId,omitempty" json:"exciseCategoryId,omitempty"`
	ExciseAmount       decimal.Decimal `bson:"exciseAmount" json:"exciseAmount"`
	Subtotal           decimal.Decimal `bson:"subtotal" json:"subtotal"`
	CategoryOverrideID string          `bson:"categoryOverrideId,omitempty" json:"categoryOverrideId,omitempty"`
}

// GrossAmount returns unit price times quantity
func (l LineItem) GrossAmount() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(l.Quantity))
}

// DiscountAmount returns the money value of the line discount
func (l LineItem) DiscountAmount() decimal.Decimal {
	if l.Discount.IsZero() {
		return decimal.Zero
	}
	switch l.DiscountType {
	case DiscountPercentage:
		return l.GrossAmount().Mul(l.Discount).Shift(-2)
	case DiscountFixed:
		return l.Discount
	}
	return decimal.Zero
}

// Validate checks the line invariants the engine depends on
func (l LineItem) Validate() error {
	if l.ProductID == "" {
		return fmt.Errorf("%w: line %s has no product", ErrInvalidDocument, l.LineItemID)
	}
	if l.Quantity <= 0 {
		return fmt.Errorf("%w: line %s quantity %d", ErrInvalidQuantity, l.LineItemID, l.Quantity)
	}
	if !l.Discount.IsZero() && !l.DiscountType.IsValid() {
		return fmt.Errorf("%w: line %s discount type %q", ErrInvalidDocument, l.LineItemID, l.DiscountType)
	}
	if l.DiscountType == DiscountPercentage && (l.Discount.IsNegative() || l.Discount.GreaterThan(hundred)) {
		return fmt.Errorf("%w: line %s discount percentage %s", ErrInvalidDocument, l.LineItemID, l.Discount)
	}
	return nil
}

// Validate checks the document invariants the engine depends on
func (d *Document) Validate() error {
	if d.DocumentID == "" {
		return fmt.Errorf("%w: document id is required", ErrInvalidDocument)
	}
	if !d.Direction.IsValid() {
		return fmt.Errorf("%w: direction %q", ErrInvalidDocument, d.Direction)
	}
	if !d.ExchangeRate.IsPositive() {
		return fmt.Errorf("%w: exchange rate must be positive, got %s", ErrInvalidDocument, d.ExchangeRate)
	}
	if d.Discount.IsNegative() {
		return fmt.Errorf("%w: discount must not be negative, got %s", ErrInvalidDocument, d.Discount)
	}
	if d.DiscountType != "" && !d.DiscountType.IsValid() {
		return fmt.Errorf("%w: discount type %q", ErrInvalidDocument, d.DiscountType)
	}
	if d.DiscountType == DiscountPercentage && d.Discount.GreaterThan(hundred) {
		return fmt.Errorf("%w: discount percentage %s", ErrInvalidDocument, d.Discount)
	}
	if len(d.LineItems) == 0 {
		return fmt.Errorf("%w: document has no line items", ErrInvalidDocument)
	}
	for _, line := range d.LineItems {
		if err := line.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// ProductIDs returns the distinct product ids in line order
func (d *Document) ProductIDs() []string {
	seen := make(map[string]bool, len(d.LineItems))
	ids := make([]string, 0, len(d.LineItems))
	for _, line := range d.LineItems {
		if seen[line.ProductID] {
			continue
		}
		seen[line.ProductID] = true
		ids = append(ids, line.ProductID)
	}
	return ids
}

// CategoryOverrideIDs returns the distinct override category ids
func (d *Document) CategoryOverrideIDs() []string {
	seen := make(map[string]bool)
	var ids []string
	for _, line := range d.LineItems {
		if line.CategoryOverrideID == "" || seen[line.CategoryOverrideID] {
			continue
		}
		seen[line.CategoryOverrideID] = true
		ids = append(ids, line.CategoryOverrideID)
	}
	return ids
}

// DiscountAmount returns the document discount in document currency.
// A percentage discount applies to the gross of all lines.
func (d *Document) DiscountAmount() decimal.Decimal {
	if d.DiscountType != DiscountPercentage {
		return d.Discount
	}
	gross := decimal.Zero
	for _, line := range d.LineItems {
		gross = gross.Add(line.GrossAmount())
	}
	return gross.Mul(d.Discount).Shift(-2)
}

// ToBase converts a document-currency amount into base currency
func (d *Document) ToBase(amount decimal.Decimal) decimal.Decimal {
	return amount.Mul(d.ExchangeRate)
}

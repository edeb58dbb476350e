package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// PostingContext carries who is posting and an optional description override
type PostingContext struct {
	UserID    string
	Narrative string
}

// JournalBuilder assembles the balanced line set of a document
type JournalBuilder struct {
	chart *ChartOfAccounts
}

// NewJournalBuilder creates a builder over a resolved chart of accounts
func NewJournalBuilder(chart *ChartOfAccounts) *JournalBuilder {
	return &JournalBuilder{chart: chart}
}

// lineSet collects signed lines: positive is a debit, negative a credit
type lineSet struct {
	doc      *Document
	polarity Polarity
	pctx     PostingContext
	lines    []JournalLine
}

func (s *lineSet) add(category *TransactionCategory, signed decimal.Decimal, rate decimal.Decimal) {
	signed = s.polarity.apply(signed)
	line := JournalLine{
		CategoryID:    category.CategoryID,
		CategoryCode:  category.Code,
		CategoryName:  category.Name,
		Debit:         decimal.Zero,
		Credit:        decimal.Zero,
		ReferenceType: s.polarity.ReferenceType(),
		ReferenceID:   s.doc.DocumentID,
		ExchangeRate:  rate,
		CreatedBy:     s.pctx.UserID,
	}
	if signed.IsNegative() {
		line.Credit = signed.Neg()
	} else {
		line.Debit = signed
	}
	s.lines = append(s.lines, line)
}

// Build emits the journal lines in their fixed order.
// counterparty may be nil, in which case the receivable or payable account is used.
func (b *JournalBuilder) Build(doc *Document, counterparty *TransactionCategory, agg *Aggregation, polarity Polarity, pctx PostingContext, now time.Time) (*Journal, error) {
	// side is +1 when the counter-party is debited (sales) and -1 when credited (purchases)
	side := decimal.NewFromInt(1)
	if !doc.Direction.IsSale() {
		side = side.Neg()
	}
	rate := doc.ExchangeRate
	set := &lineSet{doc: doc, polarity: polarity, pctx: pctx}

	if counterparty == nil {
		var err error
		if counterparty, err = b.chart.ByCode(counterpartyCode(doc.Direction)); err != nil {
			return nil, err
		}
	}
	total := doc.TotalAmount
	if doc.ReverseCharge {
		total = total.Sub(doc.TotalVATAmount)
	}
	set.add(counterparty, doc.ToBase(total).Mul(side), rate)

	for _, t := range agg.Totals() {
		set.add(t.Category, doc.ToBase(t.PostedAmount()).Mul(side).Neg(), rate)
	}

	// stock values are already in base currency
	if agg.HasInventory() {
		asset, err := b.chart.ByCode(CategoryInventoryAsset)
		if err != nil {
			return nil, err
		}
		cogs, err := b.chart.ByCode(CategoryCostOfGoodsSold)
		if err != nil {
			return nil, err
		}
		set.add(asset, agg.InventoryValue().Neg(), decimal.NewFromInt(1))
		set.add(cogs, agg.InventoryValue(), decimal.NewFromInt(1))
	}

	if !doc.TotalVATAmount.IsZero() {
		vat, err := b.chart.ByCode(vatCode(doc.Direction))
		if err != nil {
			return nil, err
		}
		amount := doc.ToBase(doc.TotalVATAmount).Mul(side)
		set.add(vat, amount.Neg(), rate)

		if doc.ReverseCharge {
			mirror, err := b.chart.ByCode(mirrorVATCode(doc.Direction))
			if err != nil {
				return nil, err
			}
			set.add(mirror, amount, rate)
		}
	}

	if discount := doc.DiscountAmount(); discount.IsPositive() {
		category, err := b.chart.ByCode(discountCode(doc.Direction))
		if err != nil {
			return nil, err
		}
		set.add(category, doc.ToBase(discount).Mul(side), rate)
	}

	if !doc.TotalExciseAmount.IsZero() {
		category, err := b.chart.ByCode(exciseCode(doc.Direction))
		if err != nil {
			return nil, err
		}
		set.add(category, doc.ToBase(doc.TotalExciseAmount).Mul(side).Neg(), rate)
	}

	journal := &Journal{
		JournalID:       newID("JRN"),
		ReferenceType:   polarity.ReferenceType(),
		ReferenceID:     doc.DocumentID,
		ReferenceNumber: doc.ReferenceNumber,
		JournalDate:     doc.DocumentDate,
		TransactionDate: doc.DocumentDate,
		Description:     describe(doc, polarity, pctx),
		Currency:        doc.Currency,
		Lines:           set.lines,
		CreatedBy:       pctx.UserID,
		CreatedAt:       now,
	}
	if err := journal.Validate(); err != nil {
		return nil, fmt.Errorf("document %s: %w", doc.DocumentID, err)
	}
	return journal, nil
}

func describe(doc *Document, polarity Polarity, pctx PostingContext) string {
	if pctx.Narrative != "" {
		return pctx.Narrative
	}
	if polarity == Reversed {
		return fmt.Sprintf("Reversal of journal entry against %s No:-%s", doc.Direction.Label(), doc.ReferenceNumber)
	}
	return doc.Direction.Label()
}

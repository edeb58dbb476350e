package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ReferenceType tags a journal with the kind of posting that created it
type ReferenceType string

const (
	ReferenceTypeInvoice        ReferenceType = "INVOICE"
	ReferenceTypeReverseInvoice ReferenceType = "REVERSE_INVOICE"
)

// Polarity is the side multiplier shared by posting and reversal.
// Forward keeps the natural sides, Reversed swaps every debit and credit.
type Polarity int

const (
	Forward  Polarity = 1
	Reversed Polarity = -1
)

// ReferenceType returns the reference type a journal of this polarity carries
func (p Polarity) ReferenceType() ReferenceType {
	if p == Reversed {
		return ReferenceTypeReverseInvoice
	}
	return ReferenceTypeInvoice
}

func (p Polarity) apply(amount decimal.Decimal) decimal.Decimal {
	if p == Reversed {
		return amount.Neg()
	}
	return amount
}

// JournalLine is a single debit or credit against a transaction category
type JournalLine struct {
	CategoryID    string          `bson:"categoryId" json:"categoryId"`
	CategoryCode  string          `bson:"categoryCode" json:"categoryCode"`
	CategoryName  string          `bson:"categoryName" json:"categoryName"`
	Debit         decimal.Decimal `bson:"debit" json:"debit"`
	Credit        decimal.Decimal `bson:"credit" json:"credit"`
	ReferenceType ReferenceType   `bson:"referenceType" json:"referenceType"`
	ReferenceID   string          `bson:"referenceId" json:"referenceId"`
	ExchangeRate  decimal.Decimal `bson:"exchangeRate" json:"exchangeRate"`
	CreatedBy     string          `bson:"createdBy" json:"createdBy"`
}

// IsDebit returns true if this is a debit line
func (l JournalLine) IsDebit() bool {
	return l.Debit.IsPositive()
}

// IsCredit returns true if this is a credit line
func (l JournalLine) IsCredit() bool {
	return l.Credit.IsPositive()
}

// Amount returns the absolute amount of the line
func (l JournalLine) Amount() decimal.Decimal {
	if l.IsDebit() {
		return l.Debit
	}
	return l.Credit
}

// Signed returns debit minus credit
func (l JournalLine) Signed() decimal.Decimal {
	return l.Debit.Sub(l.Credit)
}

// Journal is a balanced set of ledger lines recording one posting
type Journal struct {
	JournalID       string        `bson:"journalId" json:"journalId"`
	ReferenceType   ReferenceType `bson:"referenceType" json:"referenceType"`
	ReferenceID     string        `bson:"referenceId" json:"referenceId"`
	ReferenceNumber string        `bson:"referenceNumber" json:"referenceNumber"`
	JournalDate     time.Time     `bson:"journalDate" json:"journalDate"`
	TransactionDate time.Time     `bson:"transactionDate" json:"transactionDate"`
	Description     string        `bson:"description" json:"description"`
	Currency        string        `bson:"currency" json:"currency"`
	Lines           []JournalLine `bson:"lines" json:"lines"`
	CreatedBy       string        `bson:"createdBy" json:"createdBy"`
	CreatedAt       time.Time     `bson:"createdAt" json:"createdAt"`
}

// TotalDebit returns the sum of all debit amounts
func (j *Journal) TotalDebit() decimal.Decimal {
	total := decimal.Zero
	for _, line := range j.Lines {
		total = total.Add(line.Debit)
	}
	return total
}

// TotalCredit returns the sum of all credit amounts
func (j *Journal) TotalCredit() decimal.Decimal {
	total := decimal.Zero
	for _, line := range j.Lines {
		total = total.Add(line.Credit)
	}
	return total
}

// IsBalanced returns true if debits equal credits
func (j *Journal) IsBalanced() bool {
	return j.TotalDebit().Equal(j.TotalCredit())
}

// LinesFor returns the lines posted to a category code
func (j *Journal) LinesFor(code CategoryCode) []JournalLine {
	var out []JournalLine
	for _, line := range j.Lines {
		if line.CategoryCode == string(code) {
			out = append(out, line)
		}
	}
	return out
}

// Validate checks the double-entry invariants
func (j *Journal) Validate() error {
	if len(j.Lines) == 0 {
		return fmt.Errorf("%w: journal has no lines", ErrUnbalancedJournal)
	}
	for i, line := range j.Lines {
		if line.Debit.IsNegative() || line.Credit.IsNegative() {
			return fmt.Errorf("%w: line %d has a negative side", ErrUnbalancedJournal, i)
		}
		if line.Debit.IsPositive() && line.Credit.IsPositive() {
			return fmt.Errorf("%w: line %d has both debit and credit", ErrUnbalancedJournal, i)
		}
	}
	if debit, credit := j.TotalDebit(), j.TotalCredit(); !debit.Equal(credit) {
		return fmt.Errorf("%w: debit %s credit %s", ErrUnbalancedJournal, debit, credit)
	}
	return nil
}

package application

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/wms-platform/posting-service/internal/domain"
)

// JournalDTO represents a journal for API responses
type JournalDTO struct {
	JournalID       string           `json:"journalId"`
	ReferenceType   string           `json:"referenceType"`
	ReferenceID     string           `json:"referenceId"`
	ReferenceNumber string           `json:"referenceNumber"`
	JournalDate     time.Time        `json:"journalDate"`
	TransactionDate time.Time        `json:"transactionDate"`
	Description     string           `json:"description"`
	Currency        string           `json:"currency"`
	TotalDebit      string           `json:"totalDebit"`
	TotalCredit     string           `json:"totalCredit"`
	Lines           []JournalLineDTO `json:"lines"`
	CreatedBy       string           `json:"createdBy"`
	CreatedAt       time.Time        `json:"createdAt"`
}

// JournalLineDTO represents a journal line for API responses
type JournalLineDTO struct {
	CategoryID   string `json:"categoryId"`
	CategoryCode string `json:"categoryCode,omitempty"`
	CategoryName string `json:"categoryName"`
	Debit        string `json:"debit"`
	Credit       string `json:"credit"`
	ExchangeRate string `json:"exchangeRate"`
}

// CostReviewDTO represents a product whose average cost needs a manual review
type CostReviewDTO struct {
	ProductID     string `json:"productId"`
	LastKnownCost string `json:"lastKnownCost"`
}

// PostingDTO is the outcome of a posting or reversal
type PostingDTO struct {
	DocumentID  string          `json:"documentId"`
	Status      string          `json:"status"`
	Journal     JournalDTO      `json:"journal"`
	Movements   int             `json:"movements"`
	CostReviews []CostReviewDTO `json:"costReviews,omitempty"`
}

func money(d decimal.Decimal) string {
	return d.StringFixedBank(2)
}

// ToJournalDTO converts a domain journal to its API shape
func ToJournalDTO(j *domain.Journal) *JournalDTO {
	lines := make([]JournalLineDTO, len(j.Lines))
	for i, l := range j.Lines {
		lines[i] = JournalLineDTO{
			CategoryID:   l.CategoryID,
			CategoryCode: l.CategoryCode,
			CategoryName: l.CategoryName,
			Debit:        money(l.Debit),
			Credit:       money(l.Credit),
			ExchangeRate: l.ExchangeRate.String(),
		}
	}

	return &JournalDTO{
		JournalID:       j.JournalID,
		ReferenceType:   string(j.ReferenceType),
		ReferenceID:     j.ReferenceID,
		ReferenceNumber: j.ReferenceNumber,
		JournalDate:     j.JournalDate,
		TransactionDate: j.TransactionDate,
		Description:     j.Description,
		Currency:        j.Currency,
		TotalDebit:      money(j.TotalDebit()),
		TotalCredit:     money(j.TotalCredit()),
		Lines:           lines,
		CreatedBy:       j.CreatedBy,
		CreatedAt:       j.CreatedAt,
	}
}

func toPostingDTO(doc *domain.Document, status domain.DocumentStatus, result *domain.PostingResult) *PostingDTO {
	dto := &PostingDTO{
		DocumentID: doc.DocumentID,
		Status:     string(status),
		Journal:    *ToJournalDTO(result.Journal),
		Movements:  len(result.Movements),
	}
	for _, flag := range result.ReviewFlags {
		dto.CostReviews = append(dto.CostReviews, CostReviewDTO{
			ProductID:     flag.ProductID,
			LastKnownCost: flag.AveragePurchaseCost.String(),
		})
	}
	return dto
}

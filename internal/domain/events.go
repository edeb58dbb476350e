package domain

import "time"

// DomainEvent is the base interface for all domain events
type DomainEvent interface {
	EventType() string
	OccurredAt() time.Time
}

// Event types published by the posting service
const (
	EventTypeJournalPosted             = "posting.journal.posted"
	EventTypeJournalReversed           = "posting.journal.reversed"
	EventTypeProductCostReviewRequired = "posting.product-cost-review-required"
)

// JournalPostedEvent is emitted when a document is posted
type JournalPostedEvent struct {
	JournalID     string    `json:"journalId"`
	DocumentID    string    `json:"documentId"`
	Direction     Direction `json:"direction"`
	Currency      string    `json:"currency"`
	TotalDebit    string    `json:"totalDebit"`
	TotalCredit   string    `json:"totalCredit"`
	LineCount     int       `json:"lineCount"`
	MovementCount int       `json:"movementCount"`
	PostedBy      string    `json:"postedBy"`
	PostedAt      time.Time `json:"postedAt"`
}

func (e *JournalPostedEvent) EventType() string    { return EventTypeJournalPosted }
func (e *JournalPostedEvent) OccurredAt() time.Time { return e.PostedAt }

// JournalReversedEvent is emitted when a posting is reversed
type JournalReversedEvent struct {
	JournalID   string    `json:"journalId"`
	DocumentID  string    `json:"documentId"`
	Direction   Direction `json:"direction"`
	TotalDebit  string    `json:"totalDebit"`
	TotalCredit string    `json:"totalCredit"`
	ReversedBy  string    `json:"reversedBy"`
	ReversedAt  time.Time `json:"reversedAt"`
}

func (e *JournalReversedEvent) EventType() string    { return EventTypeJournalReversed }
func (e *JournalReversedEvent) OccurredAt() time.Time { return e.ReversedAt }

// ProductCostReviewRequiredEvent is emitted when a product's stock is depleted
// and its average cost can no longer be recomputed
type ProductCostReviewRequiredEvent struct {
	ProductID     string    `json:"productId"`
	DocumentID    string    `json:"documentId"`
	LastKnownCost string    `json:"lastKnownCost"`
	StockOnHand   int64     `json:"stockOnHand"`
	FlaggedAt     time.Time `json:"flaggedAt"`
}

func (e *ProductCostReviewRequiredEvent) EventType() string    { return EventTypeProductCostReviewRequired }
func (e *ProductCostReviewRequiredEvent) OccurredAt() time.Time { return e.FlaggedAt }

// NewJournalPostedEvent summarises a posted journal
func NewJournalPostedEvent(doc *Document, result *PostingResult) *JournalPostedEvent {
	j := result.Journal
	return &JournalPostedEvent{
		JournalID:     j.JournalID,
		DocumentID:    doc.DocumentID,
		Direction:     doc.Direction,
		Currency:      doc.Currency,
		TotalDebit:    j.TotalDebit().StringFixedBank(2),
		TotalCredit:   j.TotalCredit().StringFixedBank(2),
		LineCount:     len(j.Lines),
		MovementCount: len(result.Movements),
		PostedBy:      j.CreatedBy,
		PostedAt:      j.CreatedAt,
	}
}

// NewJournalReversedEvent summarises a reversal journal
func NewJournalReversedEvent(doc *Document, j *Journal) *JournalReversedEvent {
	return &JournalReversedEvent{
		JournalID:   j.JournalID,
		DocumentID:  doc.DocumentID,
		Direction:   doc.Direction,
		TotalDebit:  j.TotalDebit().StringFixedBank(2),
		TotalCredit: j.TotalCredit().StringFixedBank(2),
		ReversedBy:  j.CreatedBy,
		ReversedAt:  j.CreatedAt,
	}
}

// NewProductCostReviewRequiredEvent flags a product for manual cost review
func NewProductCostReviewRequiredEvent(documentID string, update ProductCostUpdate, at time.Time) *ProductCostReviewRequiredEvent {
	return &ProductCostReviewRequiredEvent{
		ProductID:     update.ProductID,
		DocumentID:    documentID,
		LastKnownCost: update.AveragePurchaseCost.String(),
		StockOnHand:   update.StockOnHand,
		FlaggedAt:     at,
	}
}

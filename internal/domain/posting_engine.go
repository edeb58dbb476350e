package domain

import (
	"fmt"
	"time"
)

// PostingInput is everything a posting needs, resolved up front by the caller
type PostingInput struct {
	Document *Document
	Products map[string]*Product
	// Lots holds the current lots of every tracked product, keyed by product id
	Lots  map[string]InventoryLots
	Chart *ChartOfAccounts
	// Counterparty overrides the receivable or payable account, may be nil
	Counterparty *TransactionCategory
	// Movements are the recorded movements of the document, used by reversals
	Movements []InventoryMovement
	Context   PostingContext
}

// PostingResult is the outcome of a posting or reversal.
// Lots, Movements and ProductCosts are empty for reversals.
type PostingResult struct {
	Journal      *Journal
	Lots         []*InventoryLot
	Movements    []InventoryMovement
	ProductCosts []ProductCostUpdate
	ReviewFlags  []ProductCostUpdate
}

// PostingEngine turns documents into balanced journals.
// It does no I/O and never mutates its input.
type PostingEngine struct {
	valuation *ValuationEngine
	now       func() time.Time
}

// NewPostingEngine creates a posting engine
func NewPostingEngine(method CostingMethod) *PostingEngine {
	return &PostingEngine{
		valuation: NewValuationEngine(method),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// CostingMethod returns the configured costing method
func (e *PostingEngine) CostingMethod() CostingMethod {
	return e.valuation.Method()
}

// Post builds the journal of a document and its inventory effect
func (e *PostingEngine) Post(in PostingInput) (*PostingResult, error) {
	doc := in.Document
	if err := e.check(in); err != nil {
		return nil, err
	}
	if !doc.Status.CanPost() {
		return nil, fmt.Errorf("%w: document %s is %s", ErrAlreadyPosted, doc.DocumentID, doc.Status)
	}

	categories, err := e.classify(in)
	if err != nil {
		return nil, err
	}

	valuation, err := e.valuation.Apply(doc, in.Products, in.Lots, in.Context.UserID)
	if err != nil {
		return nil, err
	}

	journal, err := e.build(in, categories, valuation, Forward)
	if err != nil {
		return nil, err
	}

	return &PostingResult{
		Journal:      journal,
		Lots:         valuation.Lots,
		Movements:    valuation.Movements,
		ProductCosts: valuation.Costs,
		ReviewFlags:  valuation.ReviewFlags(),
	}, nil
}

// Reverse builds the mirror journal of a posted document.
// Stock values come from the movements recorded when the document was posted.
func (e *PostingEngine) Reverse(in PostingInput) (*PostingResult, error) {
	doc := in.Document
	if err := e.check(in); err != nil {
		return nil, err
	}
	if !doc.Status.CanReverse() {
		return nil, fmt.Errorf("%w: document %s is %s", ErrNotPosted, doc.DocumentID, doc.Status)
	}

	categories, err := e.classify(in)
	if err != nil {
		return nil, err
	}

	valuation, err := ValuationFromMovements(doc, in.Products, in.Movements)
	if err != nil {
		return nil, err
	}

	journal, err := e.build(in, categories, valuation, Reversed)
	if err != nil {
		return nil, err
	}
	return &PostingResult{Journal: journal}, nil
}

func (e *PostingEngine) check(in PostingInput) error {
	if in.Document == nil {
		return fmt.Errorf("%w: document is required", ErrInvalidDocument)
	}
	if in.Chart == nil {
		return fmt.Errorf("%w: chart of accounts is empty", ErrCategoryNotConfigured)
	}
	return in.Document.Validate()
}

func (e *PostingEngine) classify(in PostingInput) ([]*TransactionCategory, error) {
	classifier := NewClassifier(in.Chart)
	categories := make([]*TransactionCategory, len(in.Document.LineItems))
	for i, line := range in.Document.LineItems {
		category, err := classifier.Classify(in.Document.Direction, line, in.Products[line.ProductID])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i, err)
		}
		categories[i] = category
	}
	return categories, nil
}

func (e *PostingEngine) build(in PostingInput, categories []*TransactionCategory, valuation *Valuation, polarity Polarity) (*Journal, error) {
	agg, err := Aggregate(in.Document, categories, in.Products, valuation)
	if err != nil {
		return nil, err
	}
	return NewJournalBuilder(in.Chart).Build(in.Document, in.Counterparty, agg, polarity, in.Context, e.now())
}

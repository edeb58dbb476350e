package domain

import "context"

// DocumentRepository gives read access to posted documents and moves their status
type DocumentRepository interface {
	// FindByID retrieves a document with its line items, nil if absent
	FindByID(ctx context.Context, documentID string) (*Document, error)

	// UpdateStatus moves a document from one status to the next.
	// Returns ErrConcurrentModification if the document is no longer in from.
	UpdateStatus(ctx context.Context, documentID string, from, to DocumentStatus) error
}

// ProductRepository defines the interface for product persistence
type ProductRepository interface {
	// FindByIDs retrieves products by ID, skipping unknown ids
	FindByIDs(ctx context.Context, productIDs []string) ([]*Product, error)

	// UpdateCosts writes recomputed average costs and review flags
	UpdateCosts(ctx context.Context, updates []ProductCostUpdate) error
}

// CategoryRepository is the chart-of-accounts lookup
type CategoryRepository interface {
	// FindByIDs retrieves categories by ID, skipping unknown ids
	FindByIDs(ctx context.Context, categoryIDs []string) ([]*TransactionCategory, error)

	// FindByCodes retrieves the categories carrying well-known codes
	FindByCodes(ctx context.Context, codes []CategoryCode) ([]*TransactionCategory, error)
}

// ContactCategoryRepository resolves the receivable or payable account of a contact
type ContactCategoryRepository interface {
	// FindByContact returns nil when the contact has no account of its own
	FindByContact(ctx context.Context, contactID string, direction Direction) (*TransactionCategory, error)
}

// InventoryRepository defines the interface for lots and their movement history
type InventoryRepository interface {
	// FindLotsByProduct retrieves a product's lots oldest-first
	FindLotsByProduct(ctx context.Context, productID string) (InventoryLots, error)

	// UpsertLot inserts a new lot or updates one whose version has not moved.
	// Returns ErrConcurrentModification on a version mismatch.
	UpsertLot(ctx context.Context, lot *InventoryLot) error

	// AppendMovements appends to the movement history
	AppendMovements(ctx context.Context, movements []InventoryMovement) error

	// FindMovementsByDocument retrieves the movements recorded for a document in line order
	FindMovementsByDocument(ctx context.Context, documentID string) ([]InventoryMovement, error)
}

// JournalRepository defines the interface for journal persistence
type JournalRepository interface {
	// Save persists a journal
	Save(ctx context.Context, journal *Journal) error

	// FindByID retrieves a journal by ID, nil if absent
	FindByID(ctx context.Context, journalID string) (*Journal, error)

	// FindByReference retrieves every journal created for a document, oldest first
	FindByReference(ctx context.Context, documentID string) ([]*Journal, error)
}

// EventPublisher records domain events for delivery
type EventPublisher interface {
	// Publish stores events for an aggregate within the caller's transaction
	Publish(ctx context.Context, aggregateID string, events ...DomainEvent) error
}

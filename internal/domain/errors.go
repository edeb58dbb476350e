package domain

import "errors"

// Posting domain errors
var (
	// ErrDocumentNotFound is returned when the document to post does not exist
	ErrDocumentNotFound = errors.New("document not found")

	// ErrProductNotFound is returned when a line item references an unknown product
	ErrProductNotFound = errors.New("product not found")

	// ErrJournalNotFound is returned when a journal cannot be found
	ErrJournalNotFound = errors.New("journal not found")

	// ErrCategoryNotConfigured is returned when a transaction category cannot be resolved
	ErrCategoryNotConfigured = errors.New("transaction category not configured")

	// ErrRoleMappingMissing is returned when a product has no category for the requested role
	ErrRoleMappingMissing = errors.New("product category role mapping missing")

	// ErrInvalidDocument is returned when a document breaks a structural invariant
	ErrInvalidDocument = errors.New("invalid document")

	// ErrInvalidQuantity is returned when a line quantity is not positive
	ErrInvalidQuantity = errors.New("invalid line quantity")

	// ErrInsufficientStock is returned when a sale asks for more units than the lots hold
	ErrInsufficientStock = errors.New("insufficient stock to fulfill sale")

	// ErrInventoryHistoryMissing is returned when a reversal finds no movements for an inventory sale
	ErrInventoryHistoryMissing = errors.New("inventory movements missing for document")

	// ErrUnbalancedJournal is returned when debits and credits differ
	ErrUnbalancedJournal = errors.New("journal is unbalanced: debits must equal credits")

	// ErrAlreadyPosted is returned when posting a document that already has a live posting
	ErrAlreadyPosted = errors.New("document already posted")

	// ErrNotPosted is returned when reversing a document without a live posting
	ErrNotPosted = errors.New("document is not posted")

	// ErrConcurrentModification is returned when an inventory lot changed underneath a posting
	ErrConcurrentModification = errors.New("inventory lot modified concurrently")

	// ErrInvalidCostingMethod is returned for an unknown costing method
	ErrInvalidCostingMethod = errors.New("invalid costing method")
)

var configurationErrors = []error{
	ErrCategoryNotConfigured,
	ErrRoleMappingMissing,
	ErrInvalidCostingMethod,
}

var dataInconsistencyErrors = []error{
	ErrInvalidDocument,
	ErrInvalidQuantity,
	ErrInsufficientStock,
	ErrInventoryHistoryMissing,
	ErrUnbalancedJournal,
}

// IsConfigurationError reports whether err needs an operator setup fix
func IsConfigurationError(err error) bool {
	for _, target := range configurationErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// IsDataInconsistency reports whether err comes from inconsistent posting inputs
func IsDataInconsistency(err error) bool {
	for _, target := range dataInconsistencyErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

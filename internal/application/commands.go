package application

import "github.com/wms-platform/posting-service/internal/domain"

// PostDocumentCommand represents the command to post a document to the ledger
type PostDocumentCommand struct {
	DocumentID string `json:"documentId" validate:"required,document_id"`
	UserID     string `json:"userId" validate:"required,max=128,safe_string"`
	Narrative  string `json:"narrative" validate:"omitempty,max=500,safe_string"`
}

// ReverseDocumentCommand represents the command to reverse a posted document
type ReverseDocumentCommand struct {
	DocumentID string `json:"documentId" validate:"required,document_id"`
	UserID     string `json:"userId" validate:"required,max=128,safe_string"`
	Narrative  string `json:"narrative" validate:"omitempty,max=500,safe_string"`
}

func (c PostDocumentCommand) postingContext() domain.PostingContext {
	return domain.PostingContext{UserID: c.UserID, Narrative: c.Narrative}
}

func (c ReverseDocumentCommand) postingContext() domain.PostingContext {
	return domain.PostingContext{UserID: c.UserID, Narrative: c.Narrative}
}

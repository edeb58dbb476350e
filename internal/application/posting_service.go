package application

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/wms-platform/posting-service/internal/domain"
	"github.com/wms-platform/posting-service/pkg/errors"
	"github.com/wms-platform/posting-service/pkg/logging"
	"github.com/wms-platform/posting-service/pkg/metrics"
	"github.com/wms-platform/posting-service/pkg/middleware"
	"github.com/wms-platform/posting-service/pkg/tracing"
)

const (
	kindPost    = "post"
	kindReverse = "reverse"
)

// TransactionRunner runs fn inside a single storage transaction.
// fn must use the context it is handed for every write.
type TransactionRunner interface {
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Repositories groups the ports a posting reads from and writes to
type Repositories struct {
	Documents  domain.DocumentRepository
	Products   domain.ProductRepository
	Categories domain.CategoryRepository
	Contacts   domain.ContactCategoryRepository
	Inventory  domain.InventoryRepository
	Journals   domain.JournalRepository
}

// PostingService handles posting and reversal use cases
type PostingService struct {
	repos     Repositories
	publisher domain.EventPublisher
	tx        TransactionRunner
	engine    *domain.PostingEngine
	locks     *ProductLocks
	logger    *logging.Logger
	metrics   *metrics.Metrics
	tracer    trace.Tracer
}

// NewPostingService creates a new PostingService
func NewPostingService(
	repos Repositories,
	publisher domain.EventPublisher,
	tx TransactionRunner,
	engine *domain.PostingEngine,
	logger *logging.Logger,
	m *metrics.Metrics,
) *PostingService {
	return &PostingService{
		repos:     repos,
		publisher: publisher,
		tx:        tx,
		engine:    engine,
		locks:     NewProductLocks(),
		logger:    logger.WithComponent("posting-service"),
		metrics:   m,
		tracer:    otel.Tracer("posting-service"),
	}
}

// PostDocument posts a document to the ledger and applies its inventory effect
func (s *PostingService) PostDocument(ctx context.Context, cmd PostDocumentCommand) (dto *PostingDTO, err error) {
	if appErr := middleware.ValidateStruct(cmd); appErr != nil {
		return nil, appErr
	}

	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "PostingService.PostDocument")
	defer func() { tracing.EndSpan(span, err) }()

	doc, err := s.loadDocument(ctx, cmd.DocumentID)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(tracing.PostingSpanAttributes(doc.DocumentID, string(doc.Direction), kindPost)...)
	defer func() { s.recordPosting(ctx, kindPost, doc, err == nil, time.Since(start)) }()

	release := s.locks.Lock(doc.ProductIDs())
	defer release()

	var result *domain.PostingResult
	err = s.runInTransaction(ctx, func(txCtx context.Context) error {
		in, err := s.resolve(txCtx, doc, cmd.postingContext(), true)
		if err != nil {
			return err
		}
		result, err = s.engine.Post(in)
		if err != nil {
			return err
		}
		return s.persistPosting(txCtx, doc, result)
	})
	if err != nil {
		s.logger.WithContext(ctx).WithDocument(doc.DocumentID).WithError(err).Warn("Posting failed")
		return nil, toAppError(err)
	}

	s.afterPosting(ctx, doc, result, cmd.UserID)
	return toPostingDTO(doc, domain.DocumentStatusPosted, result), nil
}

// ReverseDocument posts the mirror journal of a posted document
func (s *PostingService) ReverseDocument(ctx context.Context, cmd ReverseDocumentCommand) (dto *PostingDTO, err error) {
	if appErr := middleware.ValidateStruct(cmd); appErr != nil {
		return nil, appErr
	}

	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "PostingService.ReverseDocument")
	defer func() { tracing.EndSpan(span, err) }()

	doc, err := s.loadDocument(ctx, cmd.DocumentID)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(tracing.PostingSpanAttributes(doc.DocumentID, string(doc.Direction), kindReverse)...)
	defer func() { s.recordPosting(ctx, kindReverse, doc, err == nil, time.Since(start)) }()

	var result *domain.PostingResult
	err = s.runInTransaction(ctx, func(txCtx context.Context) error {
		in, err := s.resolve(txCtx, doc, cmd.postingContext(), false)
		if err != nil {
			return err
		}
		movements, err := s.repos.Inventory.FindMovementsByDocument(txCtx, doc.DocumentID)
		if err != nil {
			return fmt.Errorf("failed to load movements: %w", err)
		}
		in.Movements = movements

		result, err = s.engine.Reverse(in)
		if err != nil {
			return err
		}
		return s.persistReversal(txCtx, doc, result)
	})
	if err != nil {
		s.logger.WithContext(ctx).WithDocument(doc.DocumentID).WithError(err).Warn("Reversal failed")
		return nil, toAppError(err)
	}

	s.afterReversal(ctx, doc, result, cmd.UserID)
	return toPostingDTO(doc, domain.DocumentStatusReversed, result), nil
}

// GetJournal retrieves a journal by ID
func (s *PostingService) GetJournal(ctx context.Context, journalID string) (*JournalDTO, error) {
	journal, err := s.repos.Journals.FindByID(ctx, journalID)
	if err != nil {
		return nil, errors.ErrInternal("failed to get journal").Wrap(err)
	}
	if journal == nil {
		return nil, errors.ErrNotFoundWithID("journal", journalID)
	}
	return ToJournalDTO(journal), nil
}

// ListDocumentJournals retrieves every journal written for a document, oldest first
func (s *PostingService) ListDocumentJournals(ctx context.Context, documentID string) ([]JournalDTO, error) {
	if _, err := s.loadDocument(ctx, documentID); err != nil {
		return nil, err
	}

	journals, err := s.repos.Journals.FindByReference(ctx, documentID)
	if err != nil {
		return nil, errors.ErrInternal("failed to list journals").Wrap(err)
	}

	dtos := make([]JournalDTO, len(journals))
	for i, j := range journals {
		dtos[i] = *ToJournalDTO(j)
	}
	return dtos, nil
}

func (s *PostingService) loadDocument(ctx context.Context, documentID string) (*domain.Document, error) {
	doc, err := s.repos.Documents.FindByID(ctx, documentID)
	if err != nil {
		return nil, errors.ErrInternal("failed to get document").Wrap(err)
	}
	if doc == nil {
		return nil, errors.ErrNotFoundWithID("document", documentID)
	}
	return doc, nil
}

func (s *PostingService) runInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	err := s.tx.RunInTransaction(ctx, fn)
	if s.metrics != nil {
		s.metrics.RecordTransaction(err == nil)
	}
	return err
}

// resolve loads everything the engine needs. Lots are only read for postings,
// reversals value stock from the recorded movements.
func (s *PostingService) resolve(ctx context.Context, doc *domain.Document, pctx domain.PostingContext, withLots bool) (domain.PostingInput, error) {
	in := domain.PostingInput{Document: doc, Context: pctx}

	products, err := s.repos.Products.FindByIDs(ctx, doc.ProductIDs())
	if err != nil {
		return in, fmt.Errorf("failed to load products: %w", err)
	}
	in.Products = make(map[string]*domain.Product, len(products))
	categoryIDs := doc.CategoryOverrideIDs()
	for _, p := range products {
		in.Products[p.ProductID] = p
		categoryIDs = append(categoryIDs, p.CategoryIDs()...)
	}

	if withLots {
		in.Lots = make(map[string]domain.InventoryLots)
		for _, p := range products {
			if !p.InventoryEnabled {
				continue
			}
			lots, err := s.repos.Inventory.FindLotsByProduct(ctx, p.ProductID)
			if err != nil {
				return in, fmt.Errorf("failed to load lots of %s: %w", p.ProductID, err)
			}
			in.Lots[p.ProductID] = lots
		}
	}

	wellKnown, err := s.repos.Categories.FindByCodes(ctx, domain.WellKnownCategoryCodes())
	if err != nil {
		return in, fmt.Errorf("failed to load categories: %w", err)
	}
	mapped, err := s.repos.Categories.FindByIDs(ctx, categoryIDs)
	if err != nil {
		return in, fmt.Errorf("failed to load categories: %w", err)
	}
	in.Chart = domain.NewChartOfAccounts(append(wellKnown, mapped...)...)

	if doc.ContactID != "" {
		in.Counterparty, err = s.repos.Contacts.FindByContact(ctx, doc.ContactID, doc.Direction)
		if err != nil {
			return in, fmt.Errorf("failed to load contact category: %w", err)
		}
	}
	return in, nil
}

func (s *PostingService) persistPosting(ctx context.Context, doc *domain.Document, result *domain.PostingResult) error {
	if err := s.repos.Documents.UpdateStatus(ctx, doc.DocumentID, doc.Status, domain.DocumentStatusPosted); err != nil {
		return err
	}

	for _, lot := range result.Lots {
		if err := s.repos.Inventory.UpsertLot(ctx, lot); err != nil {
			return err
		}
	}
	if len(result.Movements) > 0 {
		if err := s.repos.Inventory.AppendMovements(ctx, result.Movements); err != nil {
			return fmt.Errorf("failed to append movements: %w", err)
		}
	}
	if len(result.ProductCosts) > 0 {
		if err := s.repos.Products.UpdateCosts(ctx, result.ProductCosts); err != nil {
			return fmt.Errorf("failed to update product costs: %w", err)
		}
	}

	if err := s.repos.Journals.Save(ctx, result.Journal); err != nil {
		return fmt.Errorf("failed to save journal: %w", err)
	}

	events := []domain.DomainEvent{domain.NewJournalPostedEvent(doc, result)}
	for _, flag := range result.ReviewFlags {
		events = append(events, domain.NewProductCostReviewRequiredEvent(doc.DocumentID, flag, result.Journal.CreatedAt))
	}
	if err := s.publisher.Publish(ctx, doc.DocumentID, events...); err != nil {
		return fmt.Errorf("failed to publish events: %w", err)
	}
	return nil
}

func (s *PostingService) persistReversal(ctx context.Context, doc *domain.Document, result *domain.PostingResult) error {
	if err := s.repos.Documents.UpdateStatus(ctx, doc.DocumentID, domain.DocumentStatusPosted, domain.DocumentStatusReversed); err != nil {
		return err
	}
	if err := s.repos.Journals.Save(ctx, result.Journal); err != nil {
		return fmt.Errorf("failed to save journal: %w", err)
	}
	if err := s.publisher.Publish(ctx, doc.DocumentID, domain.NewJournalReversedEvent(doc, result.Journal)); err != nil {
		return fmt.Errorf("failed to publish events: %w", err)
	}
	return nil
}

func (s *PostingService) afterPosting(ctx context.Context, doc *domain.Document, result *domain.PostingResult, userID string) {
	j := result.Journal
	if s.metrics != nil {
		s.metrics.RecordJournalLines(string(j.ReferenceType), len(j.Lines))
		s.metrics.RecordInventoryMovements(string(doc.Direction), len(result.Movements))
		s.metrics.RecordCostReviewFlags(len(result.ReviewFlags))
	}

	s.logger.Event(ctx, domain.EventTypeJournalPosted, map[string]any{
		"journalId":  j.JournalID,
		"documentId": doc.DocumentID,
		"direction":  string(doc.Direction),
		"totalDebit": money(j.TotalDebit()),
		"lines":      len(j.Lines),
		"movements":  len(result.Movements),
	})
	for _, flag := range result.ReviewFlags {
		s.logger.WithContext(ctx).WithDocument(doc.DocumentID).Warn("Product cost needs review",
			"productId", flag.ProductID,
			"lastKnownCost", flag.AveragePurchaseCost.String(),
		)
		s.logger.Event(ctx, domain.EventTypeProductCostReviewRequired, map[string]any{
			"productId":  flag.ProductID,
			"documentId": doc.DocumentID,
		})
	}
	s.logger.Audit(ctx, "post", "document", doc.DocumentID, userID, map[string]any{
		"journalId": j.JournalID,
	})
}

func (s *PostingService) afterReversal(ctx context.Context, doc *domain.Document, result *domain.PostingResult, userID string) {
	j := result.Journal
	if s.metrics != nil {
		s.metrics.RecordJournalLines(string(j.ReferenceType), len(j.Lines))
	}

	s.logger.Event(ctx, domain.EventTypeJournalReversed, map[string]any{
		"journalId":  j.JournalID,
		"documentId": doc.DocumentID,
		"direction":  string(doc.Direction),
		"totalDebit": money(j.TotalDebit()),
		"lines":      len(j.Lines),
	})
	s.logger.Audit(ctx, "reverse", "document", doc.DocumentID, userID, map[string]any{
		"journalId": j.JournalID,
	})
}

func (s *PostingService) recordPosting(ctx context.Context, kind string, doc *domain.Document, success bool, duration time.Duration) {
	if s.metrics != nil {
		s.metrics.RecordPosting(kind, string(doc.Direction), success, duration)
	}
	s.logger.Performance(ctx, kind+"Document", duration, success, map[string]any{
		"documentId": doc.DocumentID,
	})
}

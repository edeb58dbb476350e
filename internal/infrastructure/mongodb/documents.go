package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/wms-platform/posting-service/internal/domain"
	pkgmongo "github.com/wms-platform/posting-service/pkg/mongodb"
)

const documentsCollection = "documents"

// DocumentRepository implements domain.DocumentRepository
type DocumentRepository struct {
	collection *mongo.Collection
	inst       *pkgmongo.Instrumentation
}

// NewDocumentRepository creates a new DocumentRepository
func NewDocumentRepository(db *mongo.Database, inst *pkgmongo.Instrumentation) *DocumentRepository {
	collection := db.Collection(documentsCollection)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "documentId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{
				{Key: "contactId", Value: 1},
				{Key: "status", Value: 1},
			},
		},
	}

	_, _ = collection.Indexes().CreateMany(ctx, indexes)

	return &DocumentRepository{collection: collection, inst: inst}
}

// FindByID retrieves a document by ID
func (r *DocumentRepository) FindByID(ctx context.Context, documentID string) (*domain.Document, error) {
	var doc domain.Document
	err := r.inst.Observe(ctx, documentsCollection, "findOne", func(ctx context.Context) error {
		return r.collection.FindOne(ctx, bson.M{"documentId": documentID}).Decode(&doc)
	})
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &doc, nil
}

// UpdateStatus moves a document from one status to another. A document
// that was never given a status counts as a draft.
func (r *DocumentRepository) UpdateStatus(ctx context.Context, documentID string, from, to domain.DocumentStatus) error {
	filter := bson.M{"documentId": documentID, "status": from}
	if from == "" || from == domain.DocumentStatusDraft {
		filter["status"] = bson.M{"$in": bson.A{nil, "", domain.DocumentStatusDraft}}
	}
	update := bson.M{
		"$set": bson.M{
			"status":    to,
			"updatedAt": time.Now().UTC(),
		},
	}

	var result *mongo.UpdateResult
	err := r.inst.Observe(ctx, documentsCollection, "updateStatus", func(ctx context.Context) error {
		var err error
		result, err = r.collection.UpdateOne(ctx, filter, update)
		return err
	})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("%w: document %s is no longer %s", domain.ErrConcurrentModification, documentID, statusLabel(from))
	}
	return nil
}

func statusLabel(s domain.DocumentStatus) domain.DocumentStatus {
	if s == "" {
		return domain.DocumentStatusDraft
	}
	return s
}

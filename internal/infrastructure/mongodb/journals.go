package mongodb

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/wms-platform/posting-service/internal/domain"
	pkgmongo "github.com/wms-platform/posting-service/pkg/mongodb"
)

const journalsCollection = "journals"

// JournalRepository implements domain.JournalRepository
type JournalRepository struct {
	collection *mongo.Collection
	inst       *pkgmongo.Instrumentation
}

// NewJournalRepository creates a new JournalRepository
func NewJournalRepository(db *mongo.Database, inst *pkgmongo.Instrumentation) *JournalRepository {
	collection := db.Collection(journalsCollection)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "journalId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{
				{Key: "referenceId", Value: 1},
				{Key: "createdAt", Value: 1},
			},
		},
		{
			Keys: bson.D{{Key: "lines.categoryId", Value: 1}},
		},
	}

	_, _ = collection.Indexes().CreateMany(ctx, indexes)

	return &JournalRepository{collection: collection, inst: inst}
}

// Save persists a journal. Journals are immutable once written.
func (r *JournalRepository) Save(ctx context.Context, journal *domain.Journal) error {
	return r.inst.Observe(ctx, journalsCollection, "insertOne", func(ctx context.Context) error {
		_, err := r.collection.InsertOne(ctx, journal)
		return err
	})
}

// FindByID retrieves a journal by ID
func (r *JournalRepository) FindByID(ctx context.Context, journalID string) (*domain.Journal, error) {
	var journal domain.Journal
	err := r.inst.Observe(ctx, journalsCollection, "findOne", func(ctx context.Context) error {
		return r.collection.FindOne(ctx, bson.M{"journalId": journalID}).Decode(&journal)
	})
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &journal, nil
}

// FindByReference retrieves every journal created for a document, oldest first
func (r *JournalRepository) FindByReference(ctx context.Context, documentID string) ([]*domain.Journal, error) {
	var journals []*domain.Journal
	err := r.inst.Observe(ctx, journalsCollection, "find", func(ctx context.Context) error {
		opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
		cursor, err := r.collection.Find(ctx, bson.M{"referenceId": documentID}, opts)
		if err != nil {
			return err
		}
		defer cursor.Close(ctx)
		return cursor.All(ctx, &journals)
	})
	if err != nil {
		return nil, err
	}
	return journals, nil
}

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

const (
	productsCollection          = "products"
	categoriesCollection        = "transaction_categories"
	contactCategoriesCollection = "contact_categories"
)

// ProductRepository implements domain.ProductRepository
type ProductRepository struct {
	collection *mongo.Collection
	inst       *pkgmongo.Instrumentation
}

// NewProductRepository creates a new ProductRepository
func NewProductRepository(db *mongo.Database, inst *pkgmongo.Instrumentation) *ProductRepository {
	collection := db.Collection(productsCollection)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, _ = collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "productId", Value: 1}},
		Options: options.Index().SetUnique(true),
	})

	return &ProductRepository{collection: collection, inst: inst}
}

// FindByIDs retrieves products by ID
func (r *ProductRepository) FindByIDs(ctx context.Context, productIDs []string) ([]*domain.Product, error) {
	if len(productIDs) == 0 {
		return nil, nil
	}

	var products []*domain.Product
	err := r.inst.Observe(ctx, productsCollection, "find", func(ctx context.Context) error {
		cursor, err := r.collection.Find(ctx, bson.M{"productId": bson.M{"$in": productIDs}})
		if err != nil {
			return err
		}
		defer cursor.Close(ctx)
		return cursor.All(ctx, &products)
	})
	if err != nil {
		return nil, err
	}
	return products, nil
}

// UpdateCosts writes recomputed average costs and review flags in one bulk write
func (r *ProductRepository) UpdateCosts(ctx context.Context, updates []domain.ProductCostUpdate) error {
	if len(updates) == 0 {
		return nil
	}

	now := time.Now().UTC()
	models := make([]mongo.WriteModel, len(updates))
	for i, u := range updates {
		models[i] = mongo.NewUpdateOneModel().
			SetFilter(bson.M{"productId": u.ProductID}).
			SetUpdate(bson.M{"$set": bson.M{
				"averagePurchaseCost": u.AveragePurchaseCost,
				"costNeedsReview":     u.NeedsReview,
				"updatedAt":           now,
			}})
	}

	return r.inst.Observe(ctx, productsCollection, "updateCosts", func(ctx context.Context) error {
		_, err := r.collection.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(true))
		return err
	})
}

// CategoryRepository implements domain.CategoryRepository
type CategoryRepository struct {
	collection *mongo.Collection
	inst       *pkgmongo.Instrumentation
}

// NewCategoryRepository creates a new CategoryRepository
func NewCategoryRepository(db *mongo.Database, inst *pkgmongo.Instrumentation) *CategoryRepository {
	collection := db.Collection(categoriesCollection)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "categoryId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "code", Value: 1}},
		},
	}

	_, _ = collection.Indexes().CreateMany(ctx, indexes)

	return &CategoryRepository{collection: collection, inst: inst}
}

// FindByIDs retrieves categories by ID
func (r *CategoryRepository) FindByIDs(ctx context.Context, categoryIDs []string) ([]*domain.TransactionCategory, error) {
	if len(categoryIDs) == 0 {
		return nil, nil
	}
	return r.find(ctx, "findByIds", bson.M{"categoryId": bson.M{"$in": categoryIDs}})
}

// FindByCodes retrieves the categories carrying well-known codes
func (r *CategoryRepository) FindByCodes(ctx context.Context, codes []domain.CategoryCode) ([]*domain.TransactionCategory, error) {
	if len(codes) == 0 {
		return nil, nil
	}
	values := make(bson.A, len(codes))
	for i, c := range codes {
		values[i] = string(c)
	}
	return r.find(ctx, "findByCodes", bson.M{"code": bson.M{"$in": values}})
}

func (r *CategoryRepository) findOne(ctx context.Context, categoryID string) (*domain.TransactionCategory, error) {
	var category domain.TransactionCategory
	err := r.inst.Observe(ctx, categoriesCollection, "findOne", func(ctx context.Context) error {
		return r.collection.FindOne(ctx, bson.M{"categoryId": categoryID}).Decode(&category)
	})
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &category, nil
}

func (r *CategoryRepository) find(ctx context.Context, operation string, filter bson.M) ([]*domain.TransactionCategory, error) {
	var categories []*domain.TransactionCategory
	err := r.inst.Observe(ctx, categoriesCollection, operation, func(ctx context.Context) error {
		cursor, err := r.collection.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "code", Value: 1}}))
		if err != nil {
			return err
		}
		defer cursor.Close(ctx)
		return cursor.All(ctx, &categories)
	})
	if err != nil {
		return nil, err
	}
	return categories, nil
}

type contactCategory struct {
	ContactID  string           `bson:"contactId"`
	Direction  domain.Direction `bson:"direction"`
	CategoryID string           `bson:"categoryId"`
}

// ContactCategoryRepository implements domain.ContactCategoryRepository
type ContactCategoryRepository struct {
	collection *mongo.Collection
	categories *CategoryRepository
	inst       *pkgmongo.Instrumentation
}

// NewContactCategoryRepository creates a new ContactCategoryRepository
func NewContactCategoryRepository(db *mongo.Database, categories *CategoryRepository, inst *pkgmongo.Instrumentation) *ContactCategoryRepository {
	collection := db.Collection(contactCategoriesCollection)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, _ = collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "contactId", Value: 1},
			{Key: "direction", Value: 1},
		},
		Options: options.Index().SetUnique(true),
	})

	return &ContactCategoryRepository{collection: collection, categories: categories, inst: inst}
}

// FindByContact resolves the contact's own receivable or payable category
func (r *ContactCategoryRepository) FindByContact(ctx context.Context, contactID string, direction domain.Direction) (*domain.TransactionCategory, error) {
	var relation contactCategory
	err := r.inst.Observe(ctx, contactCategoriesCollection, "findOne", func(ctx context.Context) error {
		return r.collection.FindOne(ctx, bson.M{"contactId": contactID, "direction": direction}).Decode(&relation)
	})
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}

	category, err := r.categories.findOne(ctx, relation.CategoryID)
	if err != nil {
		return nil, err
	}
	if category == nil {
		return nil, fmt.Errorf("%w: contact %s references category %q", domain.ErrCategoryNotConfigured, contactID, relation.CategoryID)
	}
	return category, nil
}

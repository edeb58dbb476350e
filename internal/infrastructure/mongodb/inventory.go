package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/wms-platform/posting-service/internal/domain"
	pkgmongo "github.com/wms-platform/posting-service/pkg/mongodb"
)

const (
	lotsCollection      = "inventory_lots"
	movementsCollection = "inventory_movements"
)

// InventoryRepository implements domain.InventoryRepository
type InventoryRepository struct {
	lots      *mongo.Collection
	movements *mongo.Collection
	inst      *pkgmongo.Instrumentation
}

// NewInventoryRepository creates a new InventoryRepository
func NewInventoryRepository(db *mongo.Database, inst *pkgmongo.Instrumentation) *InventoryRepository {
	lots := db.Collection(lotsCollection)
	movements := db.Collection(movementsCollection)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	lotIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "lotId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{
				{Key: "productId", Value: 1},
				{Key: "supplierId", Value: 1},
			},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{
				{Key: "productId", Value: 1},
				{Key: "sequence", Value: 1},
			},
		},
	}
	movementIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "movementId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{
				{Key: "documentId", Value: 1},
				{Key: "lineNumber", Value: 1},
			},
		},
		{
			Keys: bson.D{
				{Key: "productId", Value: 1},
				{Key: "transactionDate", Value: -1},
			},
		},
	}

	_, _ = lots.Indexes().CreateMany(ctx, lotIndexes)
	_, _ = movements.Indexes().CreateMany(ctx, movementIndexes)

	return &InventoryRepository{lots: lots, movements: movements, inst: inst}
}

// FindLotsByProduct retrieves a product's lots oldest-first
func (r *InventoryRepository) FindLotsByProduct(ctx context.Context, productID string) (domain.InventoryLots, error) {
	var lots domain.InventoryLots
	err := r.inst.Observe(ctx, lotsCollection, "find", func(ctx context.Context) error {
		opts := options.Find().SetSort(bson.D{{Key: "sequence", Value: 1}})
		cursor, err := r.lots.Find(ctx, bson.M{"productId": productID}, opts)
		if err != nil {
			return err
		}
		defer cursor.Close(ctx)
		return cursor.All(ctx, &lots)
	})
	if err != nil {
		return nil, err
	}
	return lots, nil
}

// UpsertLot inserts a lot at version 1 or updates a lot whose stored version
// is exactly one behind.
func (r *InventoryRepository) UpsertLot(ctx context.Context, lot *domain.InventoryLot) error {
	if lot.IsNew() {
		err := r.inst.Observe(ctx, lotsCollection, "insertOne", func(ctx context.Context) error {
			_, err := r.lots.InsertOne(ctx, lot)
			return err
		})
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: lot for product %s supplier %s already exists", domain.ErrConcurrentModification, lot.ProductID, lot.SupplierID)
		}
		return err
	}

	filter := bson.M{"lotId": lot.LotID, "version": lot.Version - 1}
	update := bson.M{"$set": lot}

	var result *mongo.UpdateResult
	err := r.inst.Observe(ctx, lotsCollection, "updateOne", func(ctx context.Context) error {
		var err error
		result, err = r.lots.UpdateOne(ctx, filter, update)
		return err
	})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("%w: lot %s expected version %d", domain.ErrConcurrentModification, lot.LotID, lot.Version-1)
	}
	return nil
}

// AppendMovements appends to the movement history
func (r *InventoryRepository) AppendMovements(ctx context.Context, movements []domain.InventoryMovement) error {
	if len(movements) == 0 {
		return nil
	}

	docs := make([]interface{}, len(movements))
	for i := range movements {
		docs[i] = movements[i]
	}

	return r.inst.Observe(ctx, movementsCollection, "insertMany", func(ctx context.Context) error {
		_, err := r.movements.InsertMany(ctx, docs)
		return err
	})
}

// FindMovementsByDocument retrieves the movements recorded for a document in line order
func (r *InventoryRepository) FindMovementsByDocument(ctx context.Context, documentID string) ([]domain.InventoryMovement, error) {
	var movements []domain.InventoryMovement
	err := r.inst.Observe(ctx, movementsCollection, "find", func(ctx context.Context) error {
		opts := options.Find().SetSort(bson.D{
			{Key: "lineNumber", Value: 1},
			{Key: "createdAt", Value: 1},
		})
		cursor, err := r.movements.Find(ctx, bson.M{"documentId": documentID}, opts)
		if err != nil {
			return err
		}
		defer cursor.Close(ctx)
		return cursor.All(ctx, &movements)
	})
	if err != nil {
		return nil, err
	}
	return movements, nil
}

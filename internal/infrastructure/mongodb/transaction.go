package mongodb

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
)

// Transactor starts MongoDB transactions; *pkgmongo.Client satisfies it
type Transactor interface {
	WithTransaction(ctx context.Context, fn func(sessCtx mongo.SessionContext) error) error
}

// TransactionRunner runs application work inside a MongoDB transaction
type TransactionRunner struct {
	client Transactor
}

// NewTransactionRunner creates a new TransactionRunner
func NewTransactionRunner(client Transactor) *TransactionRunner {
	return &TransactionRunner{client: client}
}

// RunInTransaction hands fn a session context; every repository call made
// with it joins the transaction.
func (r *TransactionRunner) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.client.WithTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		return fn(sessCtx)
	})
}

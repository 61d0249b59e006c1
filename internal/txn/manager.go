// Package txn provides a call-chain-scoped unit of work: the outermost Run
// opens one database transaction, every nested Run joins it, and repositories
// pick the active handle out of the context instead of having it threaded
// through their signatures.
package txn

import (
	"context"

	"gorm.io/gorm"
)

type ctxKey struct{}

type Manager struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Manager {
	return &Manager{db: db}
}

// Run executes fn inside a transaction. If the context already carries one,
// fn joins it and no commit happens until the outermost Run returns; any error
// rolls the whole chain back. Without an underlying database (tests with
// in-memory stores) fn runs directly.
func (m *Manager) Run(ctx context.Context, fn func(ctx context.Context) error) error {
	if FromContext(ctx) != nil {
		return fn(ctx)
	}
	if m == nil || m.db == nil {
		return fn(ctx)
	}
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(With(ctx, tx))
	})
}

// DB returns the transaction bound to ctx, falling back to the base handle.
func (m *Manager) DB(ctx context.Context) *gorm.DB {
	if tx := FromContext(ctx); tx != nil {
		return tx
	}
	if m == nil || m.db == nil {
		return nil
	}
	return m.db.WithContext(ctx)
}

func With(ctx context.Context, tx *gorm.DB) context.Context {
	return context.WithValue(ctx, ctxKey{}, tx)
}

func FromContext(ctx context.Context) *gorm.DB {
	tx, _ := ctx.Value(ctxKey{}).(*gorm.DB)
	return tx
}

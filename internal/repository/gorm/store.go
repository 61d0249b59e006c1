// Package gormrepository implements repository.Repository on GORM/Postgres.
package gormrepository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"updown/internal/repository"
	"updown/internal/txn"
)

type Store struct {
	txm *txn.Manager
}

func New(txm *txn.Manager) *Store {
	return &Store{txm: txm}
}

// dbc resolves the handle for the current call: the transaction carried in
// ctx when there is one, the base connection otherwise.
func (s *Store) dbc(ctx context.Context) *gorm.DB {
	return s.txm.DB(ctx).WithContext(ctx)
}

func translateNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return repository.ErrNotFound
	}
	return err
}

var _ repository.Repository = (*Store)(nil)

package db

import (
	"context"
)

// Tx wraps a SQL transaction with callbacks, so in-memory state derived from
// the transaction can be kept or reverted together with it
type Tx struct {
	Querier
	commit            func() error
	rollback          func() error
	rollbackCallbacks []func()
	commitCallbacks   []func()
}

// NewTx begins a transaction on db
func NewTx(ctx context.Context, db DBer) (*Tx, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &Tx{
		Querier:  tx,
		commit:   tx.Commit,
		rollback: tx.Rollback,
	}, nil
}

// AddRollbackCallback registers cb to run after a successful Rollback
func (s *Tx) AddRollbackCallback(cb func()) {
	s.rollbackCallbacks = append(s.rollbackCallbacks, cb)
}

// AddCommitCallback registers cb to run after a successful Commit
func (s *Tx) AddCommitCallback(cb func()) {
	s.commitCallbacks = append(s.commitCallbacks, cb)
}

func (s *Tx) Commit() error {
	if err := s.commit(); err != nil {
		return err
	}
	for _, cb := range s.commitCallbacks {
		cb()
	}
	return nil
}

func (s *Tx) Rollback() error {
	if err := s.rollback(); err != nil {
		return err
	}
	for _, cb := range s.rollbackCallbacks {
		cb()
	}
	return nil
}

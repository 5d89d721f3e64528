package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// queryer is satisfied by both *sqlx.DB and *sqlx.Tx
type queryer interface {
	sqlx.ExtContext
}

type sqlxUnitOfWork struct {
	db *sqlx.DB
}

func NewUnitOfWork(db *sqlx.DB) UnitOfWork {
	return &sqlxUnitOfWork{db: db}
}

// NewRepos returns repositories bound to q, outside of any unit of work
func NewRepos(q queryer) Repos {
	return Repos{
		Loans:        &loanRepository{db: q},
		Installments: &installmentRepository{db: q},
		Users:        &userDirectory{db: q},
		Ledger:       &accountLedger{db: q},
	}
}

func (u *sqlxUnitOfWork) WithinTx(ctx context.Context, fn func(r Repos) error) error {
	return u.run(ctx, nil, fn)
}

func (u *sqlxUnitOfWork) WithinSnapshot(ctx context.Context, fn func(r Repos) error) error {
	return u.run(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}, fn)
}

func (u *sqlxUnitOfWork) run(ctx context.Context, opts *sql.TxOptions, fn func(r Repos) error) error {
	tx, err := u.db.BeginTxx(ctx, opts)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(NewRepos(tx)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

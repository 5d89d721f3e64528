package mocks

import (
	"context"

	"github.com/segyhp/coop-engine/internal/repository"
)

var _ repository.UnitOfWork = (*UnitOfWork)(nil)

// UnitOfWork is a function-backed unit of work. By default it hands Repos to
// fn and reports CommitErr as the commit outcome once fn succeeds.
type UnitOfWork struct {
	Repos     repository.Repos
	CommitErr error

	WithinTxFn       func(ctx context.Context, fn func(r repository.Repos) error) error
	WithinSnapshotFn func(ctx context.Context, fn func(r repository.Repos) error) error

	TxCalls       int
	SnapshotCalls int
	Committed     int
}

func NewUnitOfWork(repos repository.Repos) *UnitOfWork {
	return &UnitOfWork{Repos: repos}
}

func (u *UnitOfWork) WithinTx(ctx context.Context, fn func(r repository.Repos) error) error {
	u.TxCalls++
	if u.WithinTxFn != nil {
		return u.WithinTxFn(ctx, fn)
	}
	return u.run(fn)
}

func (u *UnitOfWork) WithinSnapshot(ctx context.Context, fn func(r repository.Repos) error) error {
	u.SnapshotCalls++
	if u.WithinSnapshotFn != nil {
		return u.WithinSnapshotFn(ctx, fn)
	}
	return u.run(fn)
}

func (u *UnitOfWork) run(fn func(r repository.Repos) error) error {
	if err := fn(u.Repos); err != nil {
		return err
	}
	if u.CommitErr != nil {
		return u.CommitErr
	}
	u.Committed++
	return nil
}

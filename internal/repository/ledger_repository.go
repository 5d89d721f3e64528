package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

// userDirectory reads the users table maintained by the membership module
type userDirectory struct {
	db queryer
}

func (r *userDirectory) Exists(ctx context.Context, userID uuid.UUID) (bool, error) {
	var exists bool
	err := sqlx.GetContext(ctx, r.db, &exists, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, userID)
	return exists, err
}

// accountLedger reads the savings tables maintained by the account module
type accountLedger struct {
	db queryer
}

func (r *accountLedger) SumBalances(ctx context.Context) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := sqlx.GetContext(ctx, r.db, &total, `SELECT COALESCE(SUM(balance), 0) FROM accounts`)
	return total, err
}

func (r *accountLedger) SumTransactionsByType(ctx context.Context, start, end time.Time) (map[string]decimal.Decimal, error) {
	query := `
		SELECT type, COALESCE(SUM(amount), 0) AS total
		FROM transactions
		WHERE created_at BETWEEN $1 AND $2
		GROUP BY type
	`

	var rows []struct {
		Type  string          `db:"type"`
		Total decimal.Decimal `db:"total"`
	}
	if err := sqlx.SelectContext(ctx, r.db, &rows, query, start, end); err != nil {
		return nil, err
	}

	totals := make(map[string]decimal.Decimal, len(rows))
	for _, row := range rows {
		totals[row.Type] = row.Total
	}
	return totals, nil
}

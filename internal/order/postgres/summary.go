package postgres

import (
	"context"
	"fmt"

	"github.com/frahmantamala/shop-backoffice/internal/order"
	"github.com/jmoiron/sqlx"
	"gorm.io/gorm"
)

const statusSummaryQuery = `
SELECT status, COUNT(*) AS order_count, COALESCE(SUM(total_cents), 0) AS total_cents
FROM orders`

// SummaryRepository runs the reporting query through sqlx on the same
// connection pool GORM uses.
type SummaryRepository struct {
	db *sqlx.DB
}

func NewSummaryRepository(gdb *gorm.DB) (*SummaryRepository, error) {
	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("get underlying sql.DB: %w", err)
	}
	return &SummaryRepository{db: sqlx.NewDb(sqlDB, driverName(gdb))}, nil
}

// driverName maps the GORM dialector to the name sqlx uses to pick a bind style.
func driverName(gdb *gorm.DB) string {
	switch gdb.Dialector.Name() {
	case "postgres":
		return "pgx"
	case "sqlite":
		return "sqlite3"
	}
	return gdb.Dialector.Name()
}

func (r *SummaryRepository) StatusSummary(ctx context.Context, customerID *int64) ([]order.StatusSummary, error) {
	query := statusSummaryQuery
	var args []interface{}
	if customerID != nil {
		query += " WHERE customer_id = ?"
		args = append(args, *customerID)
	}
	query = r.db.Rebind(query + " GROUP BY status ORDER BY status")

	rows := []order.StatusSummary{}
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("summarize orders: %w", err)
	}
	return rows, nil
}
